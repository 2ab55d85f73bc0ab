package tournament

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
	"golang.org/x/time/rate"

	"github.com/abacus-tab/abacus/app/eventbus"
	tournamentservice "github.com/abacus-tab/abacus/app/modules/tournament/application"
	tournamenthandlers "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/handlers"
	tournamentqueue "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/queue"
	tournamentdb "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/repositories"
	"github.com/abacus-tab/abacus/config"
	"github.com/abacus-tab/abacus/pkg/jwt"
	"github.com/abacus-tab/abacus/pkg/observability"
	"github.com/abacus-tab/abacus/pkg/observability/attr"
)

// Module represents the tournament module.
type Module struct {
	Service    tournamentservice.Service
	Handlers   *tournamenthandlers.TournamentHandlers
	queue      *tournamentqueue.Service
	logger     *slog.Logger
	cancelFunc context.CancelFunc
}

// NewModule builds the tournament service, its draw queue and HTTP routes.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Provider,
	db *bun.DB,
	events eventbus.Sink,
	httpRouter chi.Router,
	tokens jwt.Service,
) (*Module, error) {
	logger := obs.Logger.With(attr.String("module", "tournament"))
	logger.InfoContext(ctx, "Initializing tournament module")

	owner, err := os.Hostname()
	if err != nil {
		owner = observability.ServiceName
	}

	service := tournamentservice.NewTournamentService(
		tournamentdb.NewRepository(db),
		logger,
		obs.Metrics,
		obs.Tracer,
		db,
		events,
		tournamentservice.WithTicketTTL(cfg.Draw.TicketTTL),
		tournamentservice.WithOwner(owner),
	)

	queue, err := tournamentqueue.NewService(ctx, db, logger, cfg.Postgres.DSN, obs.Metrics, service, tournamentqueue.Options{
		MaxWorkers: cfg.Draw.Workers,
		JobTimeout: cfg.Draw.TicketTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create draw queue: %w", err)
	}

	handlers := tournamenthandlers.NewTournamentHandlers(service, queue, logger, obs.Tracer)
	if httpRouter != nil {
		limiter := tournamenthandlers.NewIPRateLimiter(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.RateBurst)
		handlers.Mount(httpRouter, tokens, limiter)
	}

	return &Module{
		Service:  service,
		Handlers: handlers,
		queue:    queue,
		logger:   logger,
	}, nil
}

// Run starts the draw queue and blocks until ctx is done.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	if wg != nil {
		defer wg.Done()
	}
	m.logger.InfoContext(ctx, "Starting tournament module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if err := m.queue.Start(ctx); err != nil {
		m.logger.ErrorContext(ctx, "Draw queue failed to start", attr.Error(err))
		return
	}
	<-ctx.Done()
	m.logger.Info("Tournament module goroutine stopped")
}

// Close stops the draw queue, letting running jobs finish.
func (m *Module) Close(ctx context.Context) error {
	m.logger.Info("Stopping tournament module")
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	if err := m.queue.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop draw queue: %w", err)
	}
	m.logger.Info("Tournament module stopped")
	return nil
}
