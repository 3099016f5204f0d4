package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quiznexusai/quiznexus-backend/internal/model"
)

// AttemptRepository persists sealed exam attempts. The per-section
// breakdown is stored as a JSONB document; it is written once when the
// session is sealed and only ever read back whole.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// SaveAttempt inserts the sealed attempt record.
func (r *AttemptRepository) SaveAttempt(ctx context.Context, a *model.AttemptResult) error {
	sections, err := json.Marshal(a.Sections)
	if err != nil {
		return fmt.Errorf("marshal sections: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO attempts
		 (id, user_id, user_name, class_name, school_name, started_at, finished_at,
		  sections, total_score, passed, short_sections, timed_out)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.AttemptID, a.UserID, a.UserName, a.ClassName, a.SchoolName, a.StartedAt, a.FinishedAt,
		sections, a.TotalScore, a.Passed, a.ShortSections, a.TimedOut,
	)
	return err
}

// GetByID retrieves one attempt, or (nil, nil) when absent.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AttemptResult, error) {
	a := &model.AttemptResult{}
	var sections []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, user_name, class_name, school_name, started_at, finished_at,
		        sections, total_score, passed, short_sections, timed_out
		 FROM attempts WHERE id = $1`, id,
	).Scan(&a.AttemptID, &a.UserID, &a.UserName, &a.ClassName, &a.SchoolName, &a.StartedAt, &a.FinishedAt,
		&sections, &a.TotalScore, &a.Passed, &a.ShortSections, &a.TimedOut)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(sections, &a.Sections); err != nil {
		return nil, fmt.Errorf("unmarshal sections: %w", err)
	}
	return a, nil
}

// ListByUser retrieves a user's attempts, newest first.
func (r *AttemptRepository) ListByUser(ctx context.Context, userID int) ([]model.AttemptResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, user_name, class_name, school_name, started_at, finished_at,
		        sections, total_score, passed, short_sections, timed_out
		 FROM attempts WHERE user_id = $1
		 ORDER BY finished_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.AttemptResult
	for rows.Next() {
		var a model.AttemptResult
		var sections []byte
		if err := rows.Scan(&a.AttemptID, &a.UserID, &a.UserName, &a.ClassName, &a.SchoolName,
			&a.StartedAt, &a.FinishedAt, &sections, &a.TotalScore, &a.Passed,
			&a.ShortSections, &a.TimedOut); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(sections, &a.Sections); err != nil {
			return nil, fmt.Errorf("unmarshal sections: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
