package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quiznexusai/quiznexus-backend/internal/model"
)

// StatisticsRepository stores the school-wide aggregate as a single JSONB
// row. Concurrency control lives in the statistics service; this layer only
// reads and writes the blob whole.
type StatisticsRepository struct {
	pool *pgxpool.Pool
}

// NewStatisticsRepository creates a new StatisticsRepository.
func NewStatisticsRepository(pool *pgxpool.Pool) *StatisticsRepository {
	return &StatisticsRepository{pool: pool}
}

// LoadStatistics reads the aggregate, or (nil, nil) when none exists yet.
func (r *StatisticsRepository) LoadStatistics(ctx context.Context) (*model.AggregateStatistics, error) {
	var data []byte
	err := r.pool.QueryRow(ctx,
		`SELECT data FROM aggregate_statistics WHERE id = 1`,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	stats := &model.AggregateStatistics{}
	if err := json.Unmarshal(data, stats); err != nil {
		return nil, fmt.Errorf("unmarshal statistics: %w", err)
	}
	return stats, nil
}

// SaveStatistics writes the aggregate back.
func (r *StatisticsRepository) SaveStatistics(ctx context.Context, stats *model.AggregateStatistics) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal statistics: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO aggregate_statistics (id, data, updated_at)
		 VALUES (1, $1, NOW())
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
		data,
	)
	return err
}
