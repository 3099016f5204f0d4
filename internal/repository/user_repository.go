package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quiznexusai/quiznexus-backend/internal/model"
)

// ErrDuplicateUsername is returned when a username is already taken.
var ErrDuplicateUsername = errors.New("user with this username already exists")

const userColumns = `id, username, password_hash, name, surname, phone_number, role,
	attempts, last_attempt_at, score1, score2, score_avg, class_id, school_id,
	created_at, updated_at`

// UserRepository handles account data access.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Name, &u.Surname, &u.PhoneNumber, &u.Role,
		&u.Attempts, &u.LastAttemptAt, &u.Score1, &u.Score2, &u.ScoreAvg, &u.ClassID, &u.SchoolID,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByUsername retrieves a user by their unique username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Name, &u.Surname, &u.PhoneNumber, &u.Role,
		&u.Attempts, &u.LastAttemptAt, &u.Score1, &u.Score2, &u.ScoreAvg, &u.ClassID, &u.SchoolID,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a new account.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, name, surname, phone_number, role, class_id, school_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		u.Username, u.PasswordHash, u.Name, u.Surname, u.PhoneNumber, u.Role, u.ClassID, u.SchoolID,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateUsername
		}
		return err
	}
	return nil
}

// Update writes back the mutable account fields, including the attempt
// counter and score history the exam engine maintains.
func (r *UserRepository) Update(ctx context.Context, u *model.User) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET name = $1, surname = $2, phone_number = $3,
		     attempts = $4, last_attempt_at = $5,
		     score1 = $6, score2 = $7, score_avg = $8,
		     class_id = $9, school_id = $10, updated_at = NOW()
		 WHERE id = $11`,
		u.Name, u.Surname, u.PhoneNumber,
		u.Attempts, u.LastAttemptAt,
		u.Score1, u.Score2, u.ScoreAvg,
		u.ClassID, u.SchoolID, u.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
