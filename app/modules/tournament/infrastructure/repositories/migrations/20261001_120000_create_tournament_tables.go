package tournamentmigrations

import (
	"context"
	"fmt"

	tournamentdb "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating tournament tables...")
		if err := tournamentdb.CreateSchema(ctx, db); err != nil {
			return err
		}
		fmt.Println("Tournament tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping tournament tables...")
		if err := tournamentdb.DropSchema(ctx, db); err != nil {
			return err
		}
		fmt.Println("Tournament tables dropped successfully!")
		return nil
	})
}
