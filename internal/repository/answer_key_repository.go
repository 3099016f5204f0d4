package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quiznexusai/quiznexus-backend/internal/model"
)

// AnswerKeyRepository handles answer key data access. Keys live in their
// own table so student-facing question reads can never leak them.
type AnswerKeyRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerKeyRepository creates a new AnswerKeyRepository.
func NewAnswerKeyRepository(pool *pgxpool.Pool) *AnswerKeyRepository {
	return &AnswerKeyRepository{pool: pool}
}

// AnswerFor retrieves the key for a question. A missing key is reported as
// (nil, nil) so the caller can distinguish misconfiguration from a query
// failure.
func (r *AnswerKeyRepository) AnswerFor(ctx context.Context, questionID uuid.UUID) (*model.AnswerKey, error) {
	k := &model.AnswerKey{}
	err := r.pool.QueryRow(ctx,
		`SELECT question_id, texts FROM answer_keys WHERE question_id = $1`, questionID,
	).Scan(&k.QuestionID, &k.Texts)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return k, nil
}

// Upsert writes the key for a question, replacing any previous one.
func (r *AnswerKeyRepository) Upsert(ctx context.Context, k *model.AnswerKey) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO answer_keys (question_id, texts)
		 VALUES ($1, $2)
		 ON CONFLICT (question_id) DO UPDATE SET texts = EXCLUDED.texts`,
		k.QuestionID, k.Texts,
	)
	return err
}
