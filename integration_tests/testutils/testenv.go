//go:build integration

// Package testutils starts the Postgres and NATS containers the
// integration suites share.
package testutils

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	tournamentmigrations "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/repositories/migrations"
	tournamentqueue "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/queue"
	"github.com/abacus-tab/abacus/integration_tests/containers"
	"github.com/abacus-tab/abacus/internal/db/bundb"
)

// TestEnvironment holds the containers and a migrated database.
type TestEnvironment struct {
	Ctx           context.Context
	CancelContext context.CancelFunc
	PgContainer   *postgres.PostgresContainer
	NatsContainer *nats.NATSContainer
	DSN           string
	NatsURL       string
	DB            *bun.DB
}

// NewTestEnvironment starts both containers and applies the tournament
// and River migrations.
func NewTestEnvironment(ctx context.Context) (*TestEnvironment, error) {
	ctx, cancel := context.WithCancel(ctx)
	env := &TestEnvironment{Ctx: ctx, CancelContext: cancel}

	pg, dsn, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	env.PgContainer, env.DSN = pg, dsn

	nc, natsURL, err := containers.SetupNatsContainer(ctx)
	if err != nil {
		env.Cleanup()
		return nil, err
	}
	env.NatsContainer, env.NatsURL = nc, natsURL

	db, err := bundb.Open(ctx, dsn)
	if err != nil {
		env.Cleanup()
		return nil, err
	}
	env.DB = db

	if err := env.migrate(ctx); err != nil {
		env.Cleanup()
		return nil, err
	}
	return env, nil
}

func (env *TestEnvironment) migrate(ctx context.Context) error {
	migrator := migrate.NewMigrator(env.DB, tournamentmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run tournament migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, env.DSN)
	if err != nil {
		return fmt.Errorf("failed to open pgx pool: %w", err)
	}
	defer pool.Close()
	return tournamentqueue.Migrate(ctx, pool)
}

// Reset empties every tournament table and the River job table.
func (env *TestEnvironment) Reset(t testing.TB) {
	t.Helper()
	var tables []string
	err := env.DB.NewSelect().
		TableExpr("pg_tables").
		Column("tablename").
		Where("schemaname = 'public'").
		Where("tablename NOT IN (?)", bun.In([]string{"bun_migrations", "bun_migration_locks", "river_migration"})).
		Scan(env.Ctx, &tables)
	if err != nil {
		t.Fatalf("list tables: %v", err)
	}
	if len(tables) == 0 {
		return
	}
	if _, err := env.DB.ExecContext(env.Ctx, "TRUNCATE ? CASCADE", bun.Safe(quoteAll(tables))); err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

func quoteAll(tables []string) string {
	out := ""
	for i, name := range tables {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%q", name)
	}
	return out
}

// Cleanup closes the database and terminates the containers.
func (env *TestEnvironment) Cleanup() {
	ctx := context.Background()
	if env.DB != nil {
		_ = env.DB.Close()
	}
	if env.NatsContainer != nil {
		_ = env.NatsContainer.Terminate(ctx)
	}
	if env.PgContainer != nil {
		_ = env.PgContainer.Terminate(ctx)
	}
	env.CancelContext()
}
