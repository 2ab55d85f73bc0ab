package tournamentservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/abacus-tab/abacus/app/eventbus"
	drawalg "github.com/abacus-tab/abacus/app/modules/tournament/domain/draw"
	tournamentdb "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/repositories"
	"github.com/abacus-tab/abacus/pkg/apperr"
	"github.com/abacus-tab/abacus/pkg/observability"
	"github.com/abacus-tab/abacus/pkg/observability/attr"
	"github.com/abacus-tab/abacus/pkg/results"
)

const serviceName = "TournamentService"

// DefaultTicketTTL bounds how long a draw ticket stays valid.
const DefaultTicketTTL = 2 * time.Minute

// TournamentService implements Service.
type TournamentService struct {
	repo    tournamentdb.Repository
	logger  *slog.Logger
	metrics observability.Metrics
	tracer  trace.Tracer
	db      *bun.DB
	events  eventbus.Sink

	now        func() time.Time
	ticketTTL  time.Duration
	owner      string
	algorithms func(name string) (drawalg.Algorithm, error)

	cache  *standingsCache
	flight singleflight.Group
}

// Option customises a TournamentService.
type Option func(*TournamentService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *TournamentService) { s.now = now }
}

// WithTicketTTL sets the draw ticket lifetime.
func WithTicketTTL(d time.Duration) Option {
	return func(s *TournamentService) {
		if d > 0 {
			s.ticketTTL = d
		}
	}
}

// WithOwner names this process on the tickets it mints.
func WithOwner(owner string) Option {
	return func(s *TournamentService) { s.owner = owner }
}

// WithAlgorithms replaces the draw algorithm registry.
func WithAlgorithms(lookup func(name string) (drawalg.Algorithm, error)) Option {
	return func(s *TournamentService) { s.algorithms = lookup }
}

// NewTournamentService creates a new TournamentService.
func NewTournamentService(
	repo tournamentdb.Repository,
	logger *slog.Logger,
	metrics observability.Metrics,
	tracer trace.Tracer,
	db *bun.DB,
	events eventbus.Sink,
	opts ...Option,
) *TournamentService {
	if logger == nil {
		logger = slog.Default()
	}
	if events == nil {
		events = eventbus.Nop{}
	}
	s := &TournamentService{
		repo:       repo,
		logger:     logger,
		metrics:    metrics,
		tracer:     tracer,
		db:         db,
		events:     events,
		now:        time.Now,
		ticketTTL:  DefaultTicketTTL,
		owner:      "abacus",
		algorithms: drawalg.Lookup,
		cache:      newStandingsCache(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TournamentService) clock() time.Time { return s.now().UTC() }

// publish sends events after the transaction that caused them committed.
func (s *TournamentService) publish(ctx context.Context, events ...eventbus.Event) {
	s.events.Publish(ctx, events...)
}

// fail wraps a domain error as a failure result.
func fail[S any](err error) (results.OperationResult[S, error], error) {
	return results.FailureResult[S, error](err), nil
}

func succeed[S any](v S) (results.OperationResult[S, error], error) {
	return results.SuccessResult[S, error](v), nil
}

// lookupFailure turns a repository miss into a NotFound failure and passes
// every other error through as infrastructure.
func lookupFailure[S any](err error, format string, args ...any) (results.OperationResult[S, error], error) {
	if errors.Is(err, tournamentdb.ErrNotFound) {
		return fail[S](apperr.NotFound(format, args...))
	}
	return results.OperationResult[S, error]{}, err
}

// notFoundAs maps a repository miss to a NotFound domain error.
func notFoundAs(err error, format string, args ...any) error {
	if errors.Is(err, tournamentdb.ErrNotFound) {
		return apperr.NotFound(format, args...)
	}
	return err
}

// unwrap collapses an operation result into the public (value, error) pair.
func unwrap[S any](result results.OperationResult[S, error], err error) (S, error) {
	var zero S
	if err != nil {
		return zero, err
	}
	if result.IsFailure() {
		return zero, *result.Failure
	}
	if result.Success == nil {
		return zero, apperr.New(apperr.KindInternal, "operation returned no result")
	}
	return *result.Success, nil
}

// -----------------------------------------------------------------------------
// Generic Helpers (Defined as functions because methods cannot have type params)
// -----------------------------------------------------------------------------

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *TournamentService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	if s.metrics != nil {
		s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
	}

	startTime := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
		}
	}()

	s.logger.InfoContext(ctx, "Operation triggered", attr.ExtractCorrelationID(ctx), attr.String("operation", operationName))

	defer func() {
		if r := recover(); r != nil {
			err = apperr.New(apperr.KindInternal, "panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("identifier", identifier),
				attr.Error(err),
			)
			if s.metrics != nil {
				s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			}
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Error(wrappedErr),
		)
		if s.metrics != nil {
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		}
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}

	return result, nil
}

// errRollback aborts a transaction whose operation produced a domain
// failure, so that partial writes never commit.
var errRollback = errors.New("rollback on failure result")

// runInTx runs fn in one transaction. A failure result rolls back just
// like an error does; the failure is still returned as a result.
func runInTx[S any, F any](
	s *TournamentService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		if txErr == nil && result.IsFailure() {
			return errRollback
		}
		return txErr
	})
	if errors.Is(err, errRollback) {
		return result, nil
	}

	return result, err
}

// execute runs fn as one telemetry-wrapped transaction and collapses the
// result.
func execute[S any](
	s *TournamentService,
	ctx context.Context,
	operationName string,
	identifier string,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, error], error),
) (S, error) {
	result, err := withTelemetry(s, ctx, operationName, identifier, func(ctx context.Context) (results.OperationResult[S, error], error) {
		return runInTx(s, ctx, fn)
	})
	return unwrap(result, err)
}
