package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/quiznexusai/quiznexus-backend/internal/config"
	"github.com/quiznexusai/quiznexus-backend/internal/model"
	"github.com/quiznexusai/quiznexus-backend/internal/service"
)

const (
	// StatisticsPollTimeout bounds each BLPop so shutdown is noticed.
	StatisticsPollTimeout = 1 * time.Second
)

type statisticsPayload struct {
	Result *model.AttemptResult `json:"result"`
	User   *model.User          `json:"user"`
}

// StatisticsQueue publishes sealed attempts onto the redis statistics
// queue. It implements service.StatisticsSink so session sealing does not
// block on the aggregate lock.
type StatisticsQueue struct {
	rdb *redis.Client
}

// NewStatisticsQueue creates a new StatisticsQueue.
func NewStatisticsQueue(rdb *redis.Client) *StatisticsQueue {
	return &StatisticsQueue{rdb: rdb}
}

// Update enqueues one sealed attempt for background aggregation.
func (q *StatisticsQueue) Update(ctx context.Context, r *model.AttemptResult, u *model.User) error {
	raw, err := json.Marshal(statisticsPayload{Result: r, User: u})
	if err != nil {
		return fmt.Errorf("marshal statistics payload: %w", err)
	}
	return q.rdb.RPush(ctx, config.WorkerKey.UpdateStatisticsQueue, raw).Err()
}

// StatisticsWorker drains the statistics queue and folds each attempt into
// the aggregate through the statistics service.
type StatisticsWorker struct {
	stats *service.StatisticsService
	rdb   *redis.Client
	log   zerolog.Logger
}

// NewStatisticsWorker creates a new StatisticsWorker.
func NewStatisticsWorker(stats *service.StatisticsService, rdb *redis.Client, log zerolog.Logger) *StatisticsWorker {
	return &StatisticsWorker{
		stats: stats,
		rdb:   rdb,
		log:   log.With().Str("component", "statistics_worker").Logger(),
	}
}

// Start runs the worker loop until ctx is cancelled.
func (w *StatisticsWorker) Start(ctx context.Context) {
	w.log.Info().Msg("StatisticsWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested")
			return

		default:
			item, err := w.rdb.BLPop(ctx, StatisticsPollTimeout, config.WorkerKey.UpdateStatisticsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p statisticsPayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}
			if p.Result == nil || p.User == nil {
				w.log.Error().Msg("Incomplete statistics payload")
				continue
			}

			if err := w.stats.Update(ctx, p.Result, p.User); err != nil {
				w.log.Error().Err(err).
					Str("attempt_id", p.Result.AttemptID.String()).
					Msg("statistics update failed, requeueing")
				raw, _ := json.Marshal(p)
				w.rdb.RPush(ctx, config.WorkerKey.UpdateStatisticsQueue, raw)
			}
		}
	}
}
