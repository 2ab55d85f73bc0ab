package tournamentqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/riverqueue/river/rivertype"
	"github.com/uptrace/bun"

	"github.com/abacus-tab/abacus/pkg/apperr"
	"github.com/abacus-tab/abacus/pkg/observability"
	"github.com/abacus-tab/abacus/pkg/observability/attr"
)

// QueueName is the River queue draw jobs run on.
const QueueName = "draw"

// QueueService schedules background draw generation.
type QueueService interface {
	// EnqueueDraw queues a draw job. A second job for a round whose job has
	// not finished is AlreadyInProgress.
	EnqueueDraw(ctx context.Context, job GenerateDrawJob) (int64, error)
	ListDrawJobs(ctx context.Context, roundID string) ([]JobInfo, error)
	HealthCheck(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

var _ QueueService = (*Service)(nil)

// Options tunes NewService.
type Options struct {
	MaxWorkers  int
	MaxAttempts int
	// JobTimeout bounds one attempt. Zero uses the River default.
	JobTimeout time.Duration
}

// Service runs draw jobs on River.
type Service struct {
	client      *river.Client[pgx.Tx]
	pool        *pgxpool.Pool
	db          *bun.DB
	logger      *slog.Logger
	metrics     observability.Metrics
	maxAttempts int
}

// unfinished are the job states that block another job for the same round.
var unfinished = []rivertype.JobState{
	rivertype.JobStateAvailable,
	rivertype.JobStatePending,
	rivertype.JobStateRetryable,
	rivertype.JobStateRunning,
	rivertype.JobStateScheduled,
}

// NewService connects River to dsn and registers the draw worker.
func NewService(ctx context.Context, bunDB *bun.DB, logger *slog.Logger, dsn string, metrics observability.Metrics, generator DrawGenerator, opts Options) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("operation", "new_draw_queue_service"),
		attr.String("component", "river_queue"),
	)
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 4
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", "river")

	// River requires pgx, not database/sql
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewGenerateDrawWorker(ctxLogger, generator, opts.JobTimeout))

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Logger:     logger,
		JobTimeout: opts.JobTimeout,
		Queues: map[string]river.QueueConfig{
			QueueName: {MaxWorkers: opts.MaxWorkers},
		},
		Workers: workers,
	})
	if err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	metrics.RecordOperationSuccess(ctx, "initialize_service", "river")
	metrics.RecordOperationDuration(ctx, "initialize_service", "river", time.Since(start))
	ctxLogger.Info("Draw queue service initialized")

	return &Service{
		client:      client,
		pool:        pool,
		db:          bunDB,
		logger:      ctxLogger,
		metrics:     metrics,
		maxAttempts: opts.MaxAttempts,
	}, nil
}

// Migrate brings River's tables up to date.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{}); err != nil {
		return fmt.Errorf("failed to migrate river schema: %w", err)
	}
	return nil
}

// Pool exposes the pgx pool River runs on.
func (s *Service) Pool() *pgxpool.Pool { return s.pool }

func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("Starting draw queue service")
	if err := s.client.Start(ctx); err != nil {
		s.metrics.RecordOperationFailure(ctx, "start_service", "river")
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "start_service", "river")
	return nil
}

func (s *Service) Stop(ctx context.Context) error {
	s.logger.Info("Stopping draw queue service")
	defer s.pool.Close()
	if err := s.client.Stop(ctx); err != nil {
		s.metrics.RecordOperationFailure(ctx, "stop_service", "river")
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "stop_service", "river")
	return nil
}

func (s *Service) EnqueueDraw(ctx context.Context, job GenerateDrawJob) (int64, error) {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "enqueue_draw", "river")
	logger := s.logger.With(
		attr.TournamentID(job.TournamentID),
		attr.RoundID(job.RoundID),
		attr.String("operation", "enqueue_draw"),
	)

	if job.RoundID == "" {
		s.metrics.RecordOperationFailure(ctx, "enqueue_draw", "river")
		return 0, apperr.InvalidInput("round_id", "round id is required")
	}

	res, err := s.client.Insert(ctx, job, insertOpts(s.maxAttempts))
	if err != nil {
		logger.Error("Failed to enqueue draw job", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "enqueue_draw", "river")
		return 0, fmt.Errorf("failed to enqueue draw job: %w", err)
	}
	if res.UniqueSkippedAsDuplicate {
		logger.Info("Draw job already queued", attr.Int64("job_id", res.Job.ID))
		s.metrics.RecordOperationFailure(ctx, "enqueue_draw", "river")
		return res.Job.ID, apperr.AlreadyInProgress("a draw job for round %s is already queued", job.RoundID)
	}

	s.metrics.RecordOperationSuccess(ctx, "enqueue_draw", "river")
	s.metrics.RecordOperationDuration(ctx, "enqueue_draw", "river", time.Since(start))
	logger.Info("Draw job enqueued", attr.Int64("job_id", res.Job.ID))
	return res.Job.ID, nil
}

func insertOpts(maxAttempts int) *river.InsertOpts {
	return &river.InsertOpts{
		Queue:       QueueName,
		MaxAttempts: maxAttempts,
		UniqueOpts: river.UniqueOpts{
			ByArgs:  true,
			ByState: unfinished,
		},
	}
}

// ListDrawJobs returns the draw jobs recorded for a round, newest first.
func (s *Service) ListDrawJobs(ctx context.Context, roundID string) ([]JobInfo, error) {
	type riverJobRow struct {
		ID          int64     `bun:"id"`
		Kind        string    `bun:"kind"`
		State       string    `bun:"state"`
		CreatedAt   time.Time `bun:"created_at"`
		Attempt     int16     `bun:"attempt"`
		MaxAttempts int16     `bun:"max_attempts"`
	}

	var rows []riverJobRow
	err := s.db.NewSelect().
		Table("river_job").
		Column("id", "kind", "state", "created_at", "attempt", "max_attempts").
		Where("kind = ?", GenerateDrawJob{}.Kind()).
		Where("args->>'round_id' = ?", roundID).
		Order("created_at DESC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to query draw jobs: %w", err)
	}

	jobs := make([]JobInfo, len(rows))
	for i, r := range rows {
		jobs[i] = JobInfo{
			ID:          r.ID,
			Kind:        r.Kind,
			RoundID:     roundID,
			State:       r.State,
			CreatedAt:   r.CreatedAt.Format(time.RFC3339),
			Attempt:     int(r.Attempt),
			MaxAttempts: int(r.MaxAttempts),
		}
	}
	return jobs, nil
}

// HealthCheck verifies River's pool and tables are reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	var count int
	if err := s.db.NewSelect().Table("river_job").ColumnExpr("COUNT(*)").Scan(ctx, &count); err != nil {
		s.logger.Error("Queue service health check failed", attr.Error(err))
		return fmt.Errorf("queue service health check failed: %w", err)
	}
	return nil
}
