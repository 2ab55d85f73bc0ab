package app

import (
	"context"
	"fmt"

	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"

	"github.com/abacus-tab/abacus/app/eventbus"
	"github.com/abacus-tab/abacus/app/modules/tournament"
	"github.com/abacus-tab/abacus/config"
	"github.com/abacus-tab/abacus/internal/db/bundb"
	"github.com/abacus-tab/abacus/pkg/jwt"
	"github.com/abacus-tab/abacus/pkg/observability"
	"github.com/abacus-tab/abacus/pkg/observability/attr"
)

// App holds the wired service.
type App struct {
	Config        *config.Config
	Observability *observability.Provider
	DB            *bun.DB
	EventBus      *eventbus.EventBus
	Router        chi.Router
	Tournament    *tournament.Module
}

// NewApp connects the database, the broadcast sink and every module.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	obs := observability.New(cfg.Observability.LogLevel)
	logger := obs.Logger

	db, err := bundb.Open(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	opts := eventbus.Options{Capacity: cfg.Broadcast.Capacity, Metrics: obs.Metrics}
	if cfg.NATS.URL != "" {
		pub, err := eventbus.NewNATSPublisher(cfg.NATS.URL, logger)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		opts.Remote = pub
		logger.InfoContext(ctx, "Bridging broadcasts to NATS", attr.String("url", cfg.NATS.URL))
	}
	bus := eventbus.New(logger, opts)

	router := newRouter(obs)
	tokens := jwt.NewService(cfg.Auth.SecretKey, cfg.Auth.DefaultTTL)

	tournamentModule, err := tournament.NewModule(ctx, cfg, obs, db, bus, router, tokens)
	if err != nil {
		_ = bus.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize tournament module: %w", err)
	}

	return &App{
		Config:        cfg,
		Observability: obs,
		DB:            db,
		EventBus:      bus,
		Router:        router,
		Tournament:    tournamentModule,
	}, nil
}

// Close releases the module, the event bus and the database, in that order.
func (app *App) Close(ctx context.Context) error {
	logger := app.Observability.Logger
	if err := app.Tournament.Close(ctx); err != nil {
		logger.ErrorContext(ctx, "Failed to stop tournament module", attr.Error(err))
	}
	if err := app.EventBus.Close(); err != nil {
		logger.ErrorContext(ctx, "Failed to close event bus", attr.Error(err))
	}
	if err := app.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
