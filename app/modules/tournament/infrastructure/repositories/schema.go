package tournamentdb

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_rounds_tournament_seq ON rounds (tournament_id, seq)",
	"CREATE INDEX IF NOT EXISTS idx_teams_tournament ON teams (tournament_id)",
	"CREATE INDEX IF NOT EXISTS idx_speakers_team ON speakers (team_id)",
	"CREATE INDEX IF NOT EXISTS idx_judges_tournament ON judges (tournament_id)",
	"CREATE INDEX IF NOT EXISTS idx_debates_round ON debates (round_id)",
	"CREATE INDEX IF NOT EXISTS idx_debates_room ON debates (room_id)",
	"CREATE INDEX IF NOT EXISTS idx_ballots_debate_judge ON ballots (debate_id, judge_id, version)",
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_tickets_round_seq ON tickets_of_round (round_id, seq)",
}

// CreateSchema creates every table and index if missing.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	for _, m := range Models() {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("tournamentdb.CreateSchema: %T: %w", m, err)
		}
	}
	for _, stmt := range indexes {
		if _, err := db.NewRaw(stmt).Exec(ctx); err != nil {
			return fmt.Errorf("tournamentdb.CreateSchema: %w", err)
		}
	}
	return nil
}

// DropSchema drops every table in reverse creation order.
func DropSchema(ctx context.Context, db bun.IDB) error {
	models := Models()
	for i := len(models) - 1; i >= 0; i-- {
		if _, err := db.NewDropTable().Model(models[i]).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("tournamentdb.DropSchema: %T: %w", models[i], err)
		}
	}
	return nil
}
