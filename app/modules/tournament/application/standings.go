package tournamentservice

import (
	"context"
	"fmt"
	"sync"

	"github.com/uptrace/bun"

	"github.com/abacus-tab/abacus/app/modules/tournament/domain/standings"
	tournamentdb "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/repositories"
	"github.com/abacus-tab/abacus/pkg/results"
)

// standingsCache keeps the newest report per tournament. A report is
// served only while the tournament's results version still matches.
type standingsCache struct {
	mu      sync.Mutex
	reports map[string]*StandingsReport
}

func newStandingsCache() *standingsCache {
	return &standingsCache{reports: make(map[string]*StandingsReport)}
}

func (c *standingsCache) get(tournamentID string, version int64) (*StandingsReport, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.reports[tournamentID]
	if !ok || r.Version != version {
		return nil, false
	}
	return r, true
}

func (c *standingsCache) put(r *StandingsReport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.reports[r.TournamentID]; ok && old.Version > r.Version {
		return
	}
	c.reports[r.TournamentID] = r
}

// RecomputeStandings returns team and speaker standings over every
// completed preliminary round. Concurrent callers at the same results
// version share one computation.
func (s *TournamentService) RecomputeStandings(ctx context.Context, tournamentID string) (*StandingsReport, error) {
	result, err := withTelemetry(s, ctx, "RecomputeStandings", tournamentID, func(ctx context.Context) (results.OperationResult[*StandingsReport, error], error) {
		return s.recomputeStandings(ctx, tournamentID)
	})
	return unwrap(result, err)
}

func (s *TournamentService) recomputeStandings(ctx context.Context, tournamentID string) (results.OperationResult[*StandingsReport, error], error) {
	type R = *StandingsReport

	stamp, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[int64, error], error) {
		tour, err := s.repo.GetTournament(ctx, db, tournamentID)
		if err != nil {
			return lookupFailure[int64](err, "tournament %s not found", tournamentID)
		}
		return succeed(tour.ResultsVersion)
	})
	if err != nil {
		return results.OperationResult[R, error]{}, err
	}
	if stamp.IsFailure() {
		return fail[R](*stamp.Failure)
	}
	version := *stamp.Success
	if r, ok := s.cache.get(tournamentID, version); ok {
		return succeed(r)
	}

	key := fmt.Sprintf("%s@%d", tournamentID, version)
	v, err, _ := s.flight.Do(key, func() (any, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[R, error], error) {
			return s.computeStandingsLogic(ctx, db, tournamentID)
		})
	})
	if err != nil {
		return results.OperationResult[R, error]{}, err
	}
	result := v.(results.OperationResult[R, error])
	if result.IsSuccess() {
		s.cache.put(*result.Success)
	}
	return result, nil
}

func (s *TournamentService) computeStandingsLogic(ctx context.Context, db bun.IDB, tournamentID string) (results.OperationResult[*StandingsReport, error], error) {
	type R = *StandingsReport

	tour, err := s.repo.GetTournament(ctx, db, tournamentID)
	if err != nil {
		return lookupFailure[R](err, "tournament %s not found", tournamentID)
	}
	h, err := s.loadHistory(ctx, db, tournamentID)
	if err != nil {
		return results.OperationResult[R, error]{}, err
	}
	teams, err := standings.ComputeTeamStandings(tour.TeamStandingsMetrics, h)
	if err != nil {
		return classify[R](err)
	}
	speakers, err := standings.ComputeSpeakerStandings(tour.SpeakerStandingsMetrics, h)
	if err != nil {
		return classify[R](err)
	}
	return succeed(&StandingsReport{
		TournamentID: tournamentID,
		Version:      tour.ResultsVersion,
		Teams:        teams,
		Speakers:     speakers,
	})
}

// TabReport is a standings snapshot with the names needed to print it.
type TabReport struct {
	Tournament   *tournamentdb.Tournament `json:"tournament"`
	Standings    *StandingsReport         `json:"standings"`
	TeamNames    map[string]string        `json:"team_names"`
	SpeakerNames map[string]string        `json:"speaker_names"`
	// SpeakerTeams maps speaker id to team id.
	SpeakerTeams map[string]string `json:"speaker_teams"`
}

// Tab returns the current standings with team and speaker names.
func (s *TournamentService) Tab(ctx context.Context, tournamentID string) (*TabReport, error) {
	report, err := s.RecomputeStandings(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return execute(s, ctx, "Tab", tournamentID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*TabReport, error], error) {
		type R = *TabReport
		tour, err := s.repo.GetTournament(ctx, db, tournamentID)
		if err != nil {
			return lookupFailure[R](err, "tournament %s not found", tournamentID)
		}
		teams, err := s.repo.ListTeams(ctx, db, tournamentID)
		if err != nil {
			return results.OperationResult[R, error]{}, fmt.Errorf("failed to list teams: %w", err)
		}
		speakers, err := s.repo.ListSpeakers(ctx, db, tournamentID)
		if err != nil {
			return results.OperationResult[R, error]{}, fmt.Errorf("failed to list speakers: %w", err)
		}

		tab := &TabReport{
			Tournament:   tour,
			Standings:    report,
			TeamNames:    make(map[string]string, len(teams)),
			SpeakerNames: make(map[string]string, len(speakers)),
			SpeakerTeams: make(map[string]string, len(speakers)),
		}
		for _, t := range teams {
			tab.TeamNames[t.ID] = t.Name
		}
		for _, sp := range speakers {
			if sp.Participant != nil {
				tab.SpeakerNames[sp.ID] = sp.Participant.Name
			}
			tab.SpeakerTeams[sp.ID] = sp.TeamID
		}
		return succeed(tab)
	})
}
