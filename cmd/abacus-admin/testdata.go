package main

import (
	"context"
	"fmt"

	"github.com/brianvoe/gofakeit/v7"

	tournamentservice "github.com/abacus-tab/abacus/app/modules/tournament/application"
	tabtypes "github.com/abacus-tab/abacus/app/modules/tournament/domain/types"
)

type seedOptions struct {
	Name         string
	TeamsPerSide int
	Teams        int
	Judges       int
	Rooms        int
	Rounds       int
	Institutions int
	Speakers     int
	Seed         uint64
}

type seedSummary struct {
	TournamentID string
	Slug         string
	RoundIDs     []string
	Teams        int
	Speakers     int
	Judges       int
	Rooms        int
}

// seedTournament registers a fake tournament through the service so every
// row passes the same validation as API writes.
func seedTournament(ctx context.Context, svc tournamentservice.Service, opts seedOptions) (*seedSummary, error) {
	if opts.Institutions <= 0 {
		opts.Institutions = 1
	}
	faker := gofakeit.New(opts.Seed)
	name := opts.Name
	if name == "" {
		name = faker.Company() + " Open"
	}

	tour, err := svc.CreateTournament(ctx, tournamentservice.CreateTournamentRequest{
		Name:                name,
		TeamsPerSide:        opts.TeamsPerSide,
		SubstantiveSpeakers: opts.Speakers,
	})
	if err != nil {
		return nil, fmt.Errorf("create tournament: %w", err)
	}
	sum := &seedSummary{TournamentID: tour.ID, Slug: tour.Slug}

	institutions := make([]string, 0, opts.Institutions)
	for i := 0; i < opts.Institutions; i++ {
		inst, err := svc.CreateInstitution(ctx, tournamentservice.CreateInstitutionRequest{
			TournamentID: tour.ID,
			Name:         faker.City() + " University",
			Code:         fmt.Sprintf("U%02d", i+1),
		})
		if err != nil {
			return nil, fmt.Errorf("create institution: %w", err)
		}
		institutions = append(institutions, inst.ID)
	}
	institutionOf := func(i int) *string {
		id := institutions[i%len(institutions)]
		return &id
	}

	for i := 0; i < opts.Teams; i++ {
		speakers := make([]tournamentservice.SpeakerInput, opts.Speakers)
		for s := range speakers {
			speakers[s] = tournamentservice.SpeakerInput{Name: faker.Name(), Email: faker.Email()}
		}
		view, err := svc.RegisterTeam(ctx, tournamentservice.RegisterTeamRequest{
			TournamentID:  tour.ID,
			Name:          fmt.Sprintf("%s %s", faker.Animal(), faker.Letter()),
			InstitutionID: institutionOf(i),
			Speakers:      speakers,
		})
		if err != nil {
			return nil, fmt.Errorf("register team %d: %w", i+1, err)
		}
		sum.Teams++
		sum.Speakers += len(view.Speakers)
	}

	for i := 0; i < opts.Judges; i++ {
		if _, err := svc.RegisterJudge(ctx, tournamentservice.RegisterJudgeRequest{
			TournamentID:  tour.ID,
			Name:          faker.Name(),
			Email:         faker.Email(),
			InstitutionID: institutionOf(i + 1),
			Rating:        faker.IntRange(1, 10),
		}); err != nil {
			return nil, fmt.Errorf("register judge %d: %w", i+1, err)
		}
		sum.Judges++
	}

	for i := 0; i < opts.Rooms; i++ {
		if _, err := svc.CreateRoom(ctx, tournamentservice.CreateRoomRequest{
			TournamentID: tour.ID,
			Name:         fmt.Sprintf("Room %d", i+1),
			Priority:     opts.Rooms - i,
		}); err != nil {
			return nil, fmt.Errorf("create room %d: %w", i+1, err)
		}
		sum.Rooms++
	}

	for i := 0; i < opts.Rounds; i++ {
		round, err := svc.CreateRound(ctx, tournamentservice.CreateRoundRequest{
			TournamentID: tour.ID,
			Seq:          i + 1,
			Kind:         tabtypes.RoundKindPreliminary,
			Name:         fmt.Sprintf("Round %d", i+1),
		})
		if err != nil {
			return nil, fmt.Errorf("create round %d: %w", i+1, err)
		}
		sum.RoundIDs = append(sum.RoundIDs, round.ID)
	}
	return sum, nil
}
