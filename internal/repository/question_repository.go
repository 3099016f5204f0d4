package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quiznexusai/quiznexus-backend/internal/model"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// QuestionsInSection retrieves every question belonging to a section.
func (r *QuestionRepository) QuestionsInSection(ctx context.Context, section int) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, section, text, type, points, options
		 FROM questions WHERE section = $1`, section,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Section, &q.Text, &q.Type, &q.Points, &q.Options); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// QuestionByID retrieves a single question, or (nil, nil) when absent.
func (r *QuestionRepository) QuestionByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, section, text, type, points, options
		 FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.Section, &q.Text, &q.Type, &q.Points, &q.Options)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

// List retrieves questions with pagination and an optional section filter.
func (r *QuestionRepository) List(ctx context.Context, section *int, limit, offset int) ([]model.Question, int, error) {
	countQuery := `SELECT COUNT(*) FROM questions`
	var countArgs []interface{}
	if section != nil {
		countQuery += ` WHERE section = $1`
		countArgs = append(countArgs, *section)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, section, text, type, points, options FROM questions`
	var args []interface{}
	if section != nil {
		query += ` WHERE section = $1 ORDER BY created_at LIMIT $2 OFFSET $3`
		args = append(args, *section, limit, offset)
	} else {
		query += ` ORDER BY section, created_at LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Section, &q.Text, &q.Type, &q.Points, &q.Options); err != nil {
			return nil, 0, err
		}
		questions = append(questions, q)
	}
	return questions, total, rows.Err()
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (section, text, type, points, options)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		q.Section, q.Text, q.Type, q.Points, q.Options,
	).Scan(&q.ID)
}

// Update modifies an existing question. The type is immutable after
// creation so stored answers keep their interpretation.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE questions
		 SET section = $1, text = $2, points = $3, options = $4, updated_at = NOW()
		 WHERE id = $5`,
		q.Section, q.Text, q.Points, q.Options, q.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes a question and, via cascade, its answer key.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Sections lists the distinct section numbers present in the bank.
func (r *QuestionRepository) Sections(ctx context.Context) ([]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT section FROM questions ORDER BY section`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []int
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}
