package tournamentqueue

import (
	"context"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	tournamentservice "github.com/abacus-tab/abacus/app/modules/tournament/application"
	tabtypes "github.com/abacus-tab/abacus/app/modules/tournament/domain/types"
	"github.com/abacus-tab/abacus/pkg/apperr"
	"github.com/abacus-tab/abacus/pkg/observability/attr"
)

// DrawGenerator is the part of the tournament service the worker drives.
type DrawGenerator interface {
	GenerateDraw(ctx context.Context, req tournamentservice.GenerateDrawRequest) (*tabtypes.DrawRepr, error)
}

// GenerateDrawWorker executes GenerateDrawJob.
type GenerateDrawWorker struct {
	river.WorkerDefaults[GenerateDrawJob]
	generator DrawGenerator
	logger    *slog.Logger
	timeout   time.Duration
}

// NewGenerateDrawWorker builds the worker. timeout bounds one attempt and
// should match the draw ticket TTL.
func NewGenerateDrawWorker(logger *slog.Logger, generator DrawGenerator, timeout time.Duration) *GenerateDrawWorker {
	return &GenerateDrawWorker{generator: generator, logger: logger, timeout: timeout}
}

func (w *GenerateDrawWorker) Timeout(*river.Job[GenerateDrawJob]) time.Duration {
	return w.timeout
}

// Work generates the draw. Domain failures cancel the job; anything else
// is returned for River to retry.
func (w *GenerateDrawWorker) Work(ctx context.Context, job *river.Job[GenerateDrawJob]) error {
	ctx = attr.WithCorrelationID(ctx, job.Args.RoundID)
	logger := w.logger.With(
		attr.Int64("job_id", job.ID),
		attr.Int("attempt", job.Attempt),
		attr.TournamentID(job.Args.TournamentID),
		attr.RoundID(job.Args.RoundID),
	)
	logger.InfoContext(ctx, "Processing draw generation job")

	repr, err := w.generator.GenerateDraw(ctx, tournamentservice.GenerateDrawRequest{
		RoundID:   job.Args.RoundID,
		Algorithm: job.Args.Algorithm,
		Force:     job.Args.Force,
		Seed:      job.Args.Seed,
	})
	if err != nil {
		if !retryable(err) {
			logger.WarnContext(ctx, "Draw generation job cancelled",
				attr.String("kind", apperr.KindOf(err).String()),
				attr.Error(err),
			)
			return river.JobCancel(err)
		}
		logger.ErrorContext(ctx, "Draw generation job failed", attr.Error(err))
		return err
	}

	logger.InfoContext(ctx, "Draw generation job completed", attr.Int("debates", len(repr.Debates)))
	return nil
}

// retryable reports whether another attempt could succeed. Every domain
// outcome is final; AlreadyInProgress means another attempt holds the round.
func retryable(err error) bool {
	return !apperr.IsDomain(err)
}
