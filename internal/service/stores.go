package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/quiznexusai/quiznexus-backend/internal/model"
)

// The engine consumes persistence through these capability interfaces and
// never touches a concrete store. The pgx implementations live in
// internal/repository; tests use in-memory fakes.

// QuestionBank is a read-only view of the question pool.
type QuestionBank interface {
	QuestionsInSection(ctx context.Context, section int) ([]model.Question, error)
	QuestionByID(ctx context.Context, id uuid.UUID) (*model.Question, error)
}

// AnswerKeyStore resolves canonical answers. A missing key is reported as
// (nil, nil); the evaluator turns that into a data-integrity failure rather
// than a silent wrong answer.
type AnswerKeyStore interface {
	AnswerFor(ctx context.Context, questionID uuid.UUID) (*model.AnswerKey, error)
}

// UserStore reads and writes account attempt counters and score history.
type UserStore interface {
	GetByID(ctx context.Context, id int) (*model.User, error)
	Update(ctx context.Context, u *model.User) error
}

// AttemptStore persists sealed attempt records.
type AttemptStore interface {
	SaveAttempt(ctx context.Context, r *model.AttemptResult) error
}

// StatisticsStore loads and saves the aggregate blob as one unit so the
// updater can do its read-modify-write under a single lock.
type StatisticsStore interface {
	LoadStatistics(ctx context.Context) (*model.AggregateStatistics, error)
	SaveStatistics(ctx context.Context, s *model.AggregateStatistics) error
}

// Roster resolves class and school display names for attempt records.
type Roster interface {
	ClassName(ctx context.Context, id int) (string, error)
	SchoolName(ctx context.Context, id int) (string, error)
}

// StatisticsSink receives a sealed attempt for aggregation. In-process this
// is the StatisticsService itself; in the server it is the redis queue
// publisher drained by the statistics worker.
type StatisticsSink interface {
	Update(ctx context.Context, r *model.AttemptResult, u *model.User) error
}
