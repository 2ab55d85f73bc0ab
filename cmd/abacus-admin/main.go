// Command abacus-admin seeds test tournaments, exports tabs and issues
// API tokens.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/abacus-tab/abacus/app/eventbus"
	tournamentservice "github.com/abacus-tab/abacus/app/modules/tournament/application"
	tournamentdb "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/repositories"
	"github.com/abacus-tab/abacus/config"
	"github.com/abacus-tab/abacus/internal/db/bundb"
	"github.com/abacus-tab/abacus/pkg/jwt"
	"github.com/abacus-tab/abacus/pkg/observability"
)

func main() {
	app := &cli.App{
		Name:  "abacus-admin",
		Usage: "tournament administration",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "path to the configuration file"},
		},
		Commands: []*cli.Command{
			testdataCommand(),
			exportCommand(),
			tokenCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// withService loads config, opens the database and runs fn against a
// service without a draw queue.
func withService(c *cli.Context, fn func(ctx context.Context, svc tournamentservice.Service) error) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	obs := observability.New(cfg.Observability.LogLevel)
	db, err := bundb.Open(c.Context, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := tournamentservice.NewTournamentService(
		tournamentdb.NewRepository(db), obs.Logger, obs.Metrics, obs.Tracer, db, eventbus.Nop{},
		tournamentservice.WithTicketTTL(cfg.Draw.TicketTTL),
	)
	return fn(c.Context, svc)
}

func testdataCommand() *cli.Command {
	return &cli.Command{
		Name:  "testdata",
		Usage: "create a tournament populated with fake participants",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "tournament name (random when empty)"},
			&cli.IntFlag{Name: "teams-per-side", Value: 2, Usage: "1 for two-team formats, 2 for British Parliamentary"},
			&cli.IntFlag{Name: "teams", Value: 16},
			&cli.IntFlag{Name: "judges", Value: 8},
			&cli.IntFlag{Name: "rooms", Value: 4},
			&cli.IntFlag{Name: "rounds", Value: 5},
			&cli.IntFlag{Name: "institutions", Value: 6},
			&cli.IntFlag{Name: "speakers", Value: 2, Usage: "substantive speakers per team"},
			&cli.Uint64Flag{Name: "seed", Value: uint64(time.Now().UnixNano())},
		},
		Action: func(c *cli.Context) error {
			return withService(c, func(ctx context.Context, svc tournamentservice.Service) error {
				sum, err := seedTournament(ctx, svc, seedOptions{
					Name:         c.String("name"),
					TeamsPerSide: c.Int("teams-per-side"),
					Teams:        c.Int("teams"),
					Judges:       c.Int("judges"),
					Rooms:        c.Int("rooms"),
					Rounds:       c.Int("rounds"),
					Institutions: c.Int("institutions"),
					Speakers:     c.Int("speakers"),
					Seed:         c.Uint64("seed"),
				})
				if err != nil {
					return err
				}
				fmt.Printf("Created tournament %s (%s)\n", sum.Slug, sum.TournamentID)
				fmt.Printf("  %s teams, %s speakers, %s judges, %s rooms, %d rounds\n",
					humanize.Comma(int64(sum.Teams)), humanize.Comma(int64(sum.Speakers)),
					humanize.Comma(int64(sum.Judges)), humanize.Comma(int64(sum.Rooms)), len(sum.RoundIDs))
				for i, id := range sum.RoundIDs {
					fmt.Printf("  %s round: %s\n", humanize.Ordinal(i+1), id)
				}
				return nil
			})
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "write the team and speaker tab to an XLSX workbook",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "tournament", Required: true},
			&cli.StringFlag{Name: "out", Value: "tab.xlsx"},
			&cli.StringFlag{Name: "chart", Usage: "also write a points distribution PNG"},
		},
		Action: func(c *cli.Context) error {
			return withService(c, func(ctx context.Context, svc tournamentservice.Service) error {
				res, err := exportTab(ctx, svc, c.String("tournament"), c.String("out"), c.String("chart"))
				if err != nil {
					return err
				}
				fmt.Printf("Wrote %s (%s): %d teams, %d speakers at results version %d\n",
					c.String("out"), humanize.Bytes(uint64(res.WorkbookBytes)), res.Teams, res.Speakers, res.Version)
				if res.ChartBytes > 0 {
					fmt.Printf("Wrote %s (%s)\n", c.String("chart"), humanize.Bytes(uint64(res.ChartBytes)))
				}
				return nil
			})
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "issue an API bearer token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "subject", Value: "admin"},
			&cli.StringFlag{Name: "tournament", Usage: "tournament the token is scoped to"},
			&cli.StringFlag{Name: "role", Value: string(jwt.RoleTabDirector), Usage: "viewer, tab_director or superuser"},
			&cli.DurationFlag{Name: "ttl", Value: 12 * time.Hour},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			role := jwt.Role(c.String("role"))
			switch role {
			case jwt.RoleViewer, jwt.RoleTabDirector, jwt.RoleSuperuser:
			default:
				return fmt.Errorf("unknown role %q", role)
			}
			if role != jwt.RoleSuperuser && c.String("tournament") == "" {
				return fmt.Errorf("--tournament is required for role %s", role)
			}
			tok, err := jwt.NewService(cfg.Auth.SecretKey, cfg.Auth.DefaultTTL).
				GenerateToken(c.String("subject"), c.String("tournament"), role, c.Duration("ttl"))
			if err != nil {
				return err
			}
			fmt.Println(tok)
			fmt.Fprintf(os.Stderr, "expires %s\n", humanize.Time(time.Now().Add(c.Duration("ttl"))))
			return nil
		},
	}
}
