package tournamentmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Adding tickets_of_round deadline index...")
		_, err := db.NewRaw("CREATE INDEX IF NOT EXISTS idx_tickets_live ON tickets_of_round (round_id, deadline) WHERE released = FALSE").Exec(ctx)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw("DROP INDEX IF EXISTS idx_tickets_live").Exec(ctx)
		return err
	})
}
