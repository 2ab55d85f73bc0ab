package tournamentmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Making tickets_of_round (round_id, seq) unique...")
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.NewRaw("DROP INDEX IF EXISTS idx_tickets_round_seq").Exec(ctx); err != nil {
				return err
			}
			_, err := tx.NewRaw("CREATE UNIQUE INDEX idx_tickets_round_seq ON tickets_of_round (round_id, seq)").Exec(ctx)
			return err
		})
	}, func(ctx context.Context, db *bun.DB) error {
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.NewRaw("DROP INDEX IF EXISTS idx_tickets_round_seq").Exec(ctx); err != nil {
				return err
			}
			_, err := tx.NewRaw("CREATE INDEX idx_tickets_round_seq ON tickets_of_round (round_id, seq)").Exec(ctx)
			return err
		})
	})
}
