package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quiznexusai/quiznexus-backend/internal/model"
)

// SchoolRepository handles school and class reference data.
type SchoolRepository struct {
	pool *pgxpool.Pool
}

// NewSchoolRepository creates a new SchoolRepository.
func NewSchoolRepository(pool *pgxpool.Pool) *SchoolRepository {
	return &SchoolRepository{pool: pool}
}

// ClassName resolves a class id to its display name. An unknown or zero id
// resolves to the empty string.
func (r *SchoolRepository) ClassName(ctx context.Context, id int) (string, error) {
	if id == 0 {
		return "", nil
	}
	var name string
	err := r.pool.QueryRow(ctx, `SELECT name FROM classes WHERE id = $1`, id).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return name, err
}

// SchoolName resolves a school id to its display name. An unknown or zero
// id resolves to the empty string.
func (r *SchoolRepository) SchoolName(ctx context.Context, id int) (string, error) {
	if id == 0 {
		return "", nil
	}
	var name string
	err := r.pool.QueryRow(ctx, `SELECT name FROM schools WHERE id = $1`, id).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return name, err
}

// ListSchools retrieves every school.
func (r *SchoolRepository) ListSchools(ctx context.Context) ([]model.School, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at FROM schools ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schools []model.School
	for rows.Next() {
		var s model.School
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, err
		}
		schools = append(schools, s)
	}
	return schools, rows.Err()
}

// ListClasses retrieves the classes of one school.
func (r *SchoolRepository) ListClasses(ctx context.Context, schoolID int) ([]model.Class, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, school_id, created_at FROM classes WHERE school_id = $1 ORDER BY name`,
		schoolID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []model.Class
	for rows.Next() {
		var c model.Class
		if err := rows.Scan(&c.ID, &c.Name, &c.SchoolID, &c.CreatedAt); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}
