// Package testutils provides an in-memory store and fixtures for tests.
package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	tabtypes "github.com/abacus-tab/abacus/app/modules/tournament/domain/types"
	tournamentdb "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/repositories"
)

// NewTestDB opens a private in-memory SQLite database with the tournament
// schema. A single connection keeps every query on the same database.
func NewTestDB(t testing.TB) *bun.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", uuid.NewString())
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	if err := tournamentdb.CreateSchema(context.Background(), db); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

// Fixture is a seeded tournament.
type Fixture struct {
	Tournament *tournamentdb.Tournament
	Rounds     []*tournamentdb.Round
	Teams      []*tournamentdb.Team
	Speakers   map[string][]*tournamentdb.Speaker
	Judges     []*tournamentdb.Judge
	Rooms      []*tournamentdb.Room
}

// FixtureOptions shapes Seed.
type FixtureOptions struct {
	TeamsPerSide int
	Teams        int
	Judges       int
	Rooms        int
	Rounds       int
	Speakers     int
	// TeamIDs overrides generated team ids when set.
	TeamIDs []string
}

// Seed writes a tournament with teams, speakers, judges, rooms and
// preliminary rounds in state none. Names come from gofakeit.
func Seed(t testing.TB, db bun.IDB, opts FixtureOptions) *Fixture {
	t.Helper()
	ctx := context.Background()
	repo := tournamentdb.NewRepository(db)
	if opts.TeamsPerSide == 0 {
		opts.TeamsPerSide = 1
	}
	if opts.Speakers == 0 {
		opts.Speakers = 2
	}
	if opts.Rounds == 0 {
		opts.Rounds = 1
	}
	faker := gofakeit.New(42)

	tour := &tournamentdb.Tournament{
		ID:                      uuid.Must(uuid.NewV7()).String(),
		Name:                    faker.Company() + " Open",
		Slug:                    "t-" + uuid.NewString()[:8],
		TeamsPerSide:            opts.TeamsPerSide,
		SubstantiveSpeakers:     opts.Speakers,
		PoolBallotSetup:         tabtypes.BallotSetupConsensus,
		ElimBallotSetup:         tabtypes.BallotSetupIndividual,
		InstitutionPenalty:      100,
		HistoryPenalty:          10,
		TeamStandingsMetrics:    []string{"points", "tss"},
		SpeakerStandingsMetrics: []string{"total", "average"},
		SubstantiveMinSpeak:     decimal.NewNullDecimal(decimal.NewFromInt(50)),
		SubstantiveMaxSpeak:     decimal.NewNullDecimal(decimal.NewFromInt(99)),
		SubstantiveSpeakStep:    decimal.NewNullDecimal(decimal.NewFromFloat(0.5)),
	}
	mustOK(t, repo.CreateTournament(ctx, db, tour))
	fx := &Fixture{Tournament: tour, Speakers: make(map[string][]*tournamentdb.Speaker)}

	for i := 0; i < opts.Rounds; i++ {
		r := &tournamentdb.Round{
			ID:           uuid.Must(uuid.NewV7()).String(),
			TournamentID: tour.ID,
			Seq:          i + 1,
			Kind:         tabtypes.RoundKindPreliminary,
			Name:         fmt.Sprintf("Round %d", i+1),
			DrawStatus:   tabtypes.DrawStatusNone,
		}
		mustOK(t, repo.CreateRound(ctx, db, r))
		fx.Rounds = append(fx.Rounds, r)
	}

	for i := 0; i < opts.Teams; i++ {
		id := uuid.Must(uuid.NewV7()).String()
		if i < len(opts.TeamIDs) {
			id = opts.TeamIDs[i]
		}
		team := &tournamentdb.Team{ID: id, TournamentID: tour.ID, Name: faker.City() + " " + faker.Letter(), Number: i + 1}
		mustOK(t, repo.CreateTeam(ctx, db, team))
		fx.Teams = append(fx.Teams, team)
		for s := 0; s < opts.Speakers; s++ {
			p := &tournamentdb.Participant{
				ID:           uuid.Must(uuid.NewV7()).String(),
				TournamentID: tour.ID,
				Name:         faker.Name(),
				Email:        faker.Email(),
				PrivateURL:   uuid.NewString(),
			}
			mustOK(t, repo.CreateParticipant(ctx, db, p))
			sp := &tournamentdb.Speaker{ID: uuid.Must(uuid.NewV7()).String(), TournamentID: tour.ID, ParticipantID: p.ID, TeamID: team.ID}
			mustOK(t, repo.CreateSpeaker(ctx, db, sp))
			fx.Speakers[team.ID] = append(fx.Speakers[team.ID], sp)
		}
	}

	for i := 0; i < opts.Judges; i++ {
		p := &tournamentdb.Participant{
			ID:           uuid.Must(uuid.NewV7()).String(),
			TournamentID: tour.ID,
			Name:         faker.Name(),
			Email:        faker.Email(),
			PrivateURL:   uuid.NewString(),
		}
		mustOK(t, repo.CreateParticipant(ctx, db, p))
		j := &tournamentdb.Judge{ID: uuid.Must(uuid.NewV7()).String(), TournamentID: tour.ID, ParticipantID: p.ID, Rating: opts.Judges - i}
		mustOK(t, repo.CreateJudge(ctx, db, j))
		fx.Judges = append(fx.Judges, j)
	}

	for i := 0; i < opts.Rooms; i++ {
		rm := &tournamentdb.Room{ID: uuid.Must(uuid.NewV7()).String(), TournamentID: tour.ID, Name: fmt.Sprintf("Room %d", i+1), Priority: opts.Rooms - i}
		mustOK(t, repo.CreateRoom(ctx, db, rm))
		fx.Rooms = append(fx.Rooms, rm)
	}
	return fx
}

// TeamIDs returns the fixture's team ids in creation order.
func (f *Fixture) TeamIDs() []string {
	ids := make([]string, len(f.Teams))
	for i, t := range f.Teams {
		ids[i] = t.ID
	}
	return ids
}

// FixedClock returns a clock that always reports at.
func FixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func mustOK(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}
