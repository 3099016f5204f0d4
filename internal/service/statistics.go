package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/quiznexusai/quiznexus-backend/internal/model"
	"github.com/rs/zerolog"
)

// StatisticsService folds sealed attempts into the running class/school
// aggregates. The fold is a read-modify-write of the whole blob, so one
// mutex serializes updates; exam completions are not frequent enough to
// need anything finer.
type StatisticsService struct {
	store StatisticsStore
	log   zerolog.Logger

	mu sync.Mutex
}

// NewStatisticsService creates a StatisticsService.
func NewStatisticsService(store StatisticsStore, log zerolog.Logger) *StatisticsService {
	return &StatisticsService{
		store: store,
		log:   log.With().Str("component", "statistics").Logger(),
	}
}

// Update folds one attempt into the aggregates. Attempts by non-student
// roles are skipped entirely; that is a silent no-op, not an error.
func (s *StatisticsService) Update(ctx context.Context, res *model.AttemptResult, user *model.User) error {
	if user.Role != model.RoleStudent {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.store.LoadStatistics(ctx)
	if err != nil {
		return fmt.Errorf("load statistics: %w", err)
	}
	if stats == nil {
		stats = model.NewAggregateStatistics()
	}

	s.fold(stats, res, user)

	if err := s.store.SaveStatistics(ctx, stats); err != nil {
		return fmt.Errorf("save statistics: %w", err)
	}

	s.log.Debug().
		Str("attempt_id", res.AttemptID.String()).
		Int("class_id", user.ClassID).
		Int("school_id", user.SchoolID).
		Msg("Attempt folded into statistics")

	return nil
}

// fold applies one attempt to the aggregate: streaming means for the class
// and school overall scores and per-section percentages, correct/wrong
// tallies per answered question, and the global counters.
func (s *StatisticsService) fold(stats *model.AggregateStatistics, res *model.AttemptResult, user *model.User) {
	for _, group := range []*model.GroupStats{stats.Class(user.ClassID), stats.School(user.SchoolID)} {
		group.AddScore(res.TotalScore)

		for i := range res.Sections {
			sec := &res.Sections[i]
			if len(sec.Questions) == 0 && sec.Total == 0 {
				continue // never reached, nothing to fold
			}
			bucket := group.Section(sec.Section)
			bucket.AddScore(sec.Percentage())
			for _, q := range sec.Questions {
				bucket.Tally(q.QuestionID, q.IsCorrect)
			}
		}
	}

	stats.TotalStudents++
	stats.TotalExams++
	if res.Passed {
		stats.SuccessfulExams++
	} else {
		stats.FailedExams++
	}
}

// Load returns the current aggregate for the statistics endpoint.
func (s *StatisticsService) Load(ctx context.Context) (*model.AggregateStatistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.store.LoadStatistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("load statistics: %w", err)
	}
	if stats == nil {
		stats = model.NewAggregateStatistics()
	}
	return stats, nil
}
