/*
Package jobqueue runs the periodic maintenance jobs on a River queue backed
by the application's Postgres pool: feed score recomputation and notification
cleanup.
*/
package jobqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/rs/zerolog/log"

	"github.com/scholarfeed/internal/social"
	"github.com/scholarfeed/internal/store"
)

const (
	scoreRecomputeInterval = 10 * time.Minute
	cleanupInterval        = 24 * time.Hour
	// Read notifications older than this are removed by the cleanup job.
	notificationMaxAge = 30 * 24 * time.Hour
)

// ScoreRecomputeArgs triggers a full hot/trending score refresh.
type ScoreRecomputeArgs struct{}

func (ScoreRecomputeArgs) Kind() string { return "score_recompute" }

// ScoreRecomputeWorker recomputes every post's hot and trending scores from
// current engagement.
type ScoreRecomputeWorker struct {
	river.WorkerDefaults[ScoreRecomputeArgs]
	store *store.Store
}

func (w *ScoreRecomputeWorker) Work(ctx context.Context, _ *river.Job[ScoreRecomputeArgs]) error {
	start := time.Now()
	if err := w.store.RecomputeScores(ctx); err != nil {
		return err
	}
	log.Debug().Dur("took", time.Since(start)).Msg("recomputed feed scores")
	return nil
}

// NotificationCleanupArgs triggers removal of old read notifications.
type NotificationCleanupArgs struct{}

func (NotificationCleanupArgs) Kind() string { return "notification_cleanup" }

// NotificationCleanupWorker prunes read notifications past their retention.
type NotificationCleanupWorker struct {
	river.WorkerDefaults[NotificationCleanupArgs]
	notifications *social.NotificationService
}

func (w *NotificationCleanupWorker) Work(ctx context.Context, _ *river.Job[NotificationCleanupArgs]) error {
	removed, err := w.notifications.CleanupRead(ctx, notificationMaxAge)
	if err != nil {
		return err
	}
	if removed > 0 {
		log.Info().Int64("removed", removed).Msg("cleaned up read notifications")
	}
	return nil
}

// JobQueue manages the River client.
type JobQueue struct {
	client *river.Client[pgx.Tx]
}

// New creates the queue over the shared pool and registers the periodic
// jobs.
func New(pool *pgxpool.Pool, st *store.Store, notifications *social.NotificationService) (*JobQueue, error) {
	workers := river.NewWorkers()
	river.AddWorker(workers, &ScoreRecomputeWorker{store: st})
	river.AddWorker(workers, &NotificationCleanupWorker{notifications: notifications})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 2},
		},
		Workers: workers,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(scoreRecomputeInterval),
				func() (river.JobArgs, *river.InsertOpts) {
					return ScoreRecomputeArgs{}, nil
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
			river.NewPeriodicJob(
				river.PeriodicInterval(cleanupInterval),
				func() (river.JobArgs, *river.InsertOpts) {
					return NotificationCleanupArgs{}, nil
				},
				nil,
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create river client: %w", err)
	}
	return &JobQueue{client: client}, nil
}

// Start begins processing jobs.
func (jq *JobQueue) Start(ctx context.Context) error {
	return jq.client.Start(ctx)
}

// Stop drains workers and stops the client.
func (jq *JobQueue) Stop(ctx context.Context) error {
	return jq.client.Stop(ctx)
}
