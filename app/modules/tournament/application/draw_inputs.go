package tournamentservice

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	drawalg "github.com/abacus-tab/abacus/app/modules/tournament/domain/draw"
	"github.com/abacus-tab/abacus/app/modules/tournament/domain/standings"
	tabtypes "github.com/abacus-tab/abacus/app/modules/tournament/domain/types"
	tournamentdb "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/repositories"
)

// drawPlan is everything the draw engine needs, read in one snapshot.
type drawPlan struct {
	input  drawalg.Input
	panels drawalg.PanelInput
}

// loadHistory reads the completed preliminary results of a tournament.
func (s *TournamentService) loadHistory(ctx context.Context, db bun.IDB, tournamentID string) (*standings.History, error) {
	teams, err := s.repo.ListTeams(ctx, db, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("load teams: %w", err)
	}
	speakers, err := s.repo.ListSpeakers(ctx, db, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("load speakers: %w", err)
	}
	teamRows, speakerRows, err := s.repo.ListCompletedResults(ctx, db, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}

	h := &standings.History{
		TeamIDs:    make([]string, 0, len(teams)),
		SpeakerIDs: make([]string, 0, len(speakers)),
	}
	for _, t := range teams {
		h.TeamIDs = append(h.TeamIDs, t.ID)
	}
	for _, sp := range speakers {
		h.SpeakerIDs = append(h.SpeakerIDs, sp.ID)
	}

	index := make(map[string]int)
	debate := func(id string, seq int) *standings.DebateResult {
		i, ok := index[id]
		if !ok {
			i = len(h.Debates)
			index[id] = i
			h.Debates = append(h.Debates, standings.DebateResult{DebateID: id, RoundSeq: seq})
		}
		return &h.Debates[i]
	}
	for _, row := range teamRows {
		d := debate(row.DebateID, row.RoundSeq)
		d.Teams = append(d.Teams, standings.TeamResult{TeamID: row.TeamID, Points: row.Points})
	}
	for _, row := range speakerRows {
		d := debate(row.DebateID, row.RoundSeq)
		d.Speakers = append(d.Speakers, standings.SpeakerResult{
			SpeakerID: row.SpeakerID,
			TeamID:    row.TeamID,
			Position:  row.Position,
			Score:     row.Score,
			Reply:     row.Reply,
		})
	}
	h.Normalize()
	return h, nil
}

// loadDrawPlan reads the active teams and judges of the claimed round
// together with their standings, side history and conflicts.
func (s *TournamentService) loadDrawPlan(ctx context.Context, db bun.IDB, c *drawClaim) (*drawPlan, error) {
	tour, round := c.Tournament, c.Round
	cfg := tour.Config()

	institutions := make(map[string]string)

	teams, err := s.repo.ListTeams(ctx, db, tour.ID)
	if err != nil {
		return nil, fmt.Errorf("load teams: %w", err)
	}
	teamAvail, err := s.repo.ListTeamAvailability(ctx, db, round.ID)
	if err != nil {
		return nil, fmt.Errorf("load team availability: %w", err)
	}
	active := make([]drawalg.Team, 0, len(teams))
	for _, t := range teams {
		inst := deref(t.InstitutionID)
		institutions[t.ID] = inst
		if available, set := teamAvail[t.ID]; set && !available {
			continue
		}
		active = append(active, drawalg.Team{ID: t.ID, InstitutionID: inst})
	}

	h, err := s.loadHistory(ctx, db, tour.ID)
	if err != nil {
		return nil, err
	}
	table, err := standings.ComputeTeamStandings(cfg.TeamStandingsMetrics, h)
	if err != nil {
		return nil, err
	}

	sides, encounters, err := s.loadSideHistory(ctx, db, tour, round.Seq, active)
	if err != nil {
		return nil, err
	}

	conflicts := drawalg.NewConflicts()
	rows, err := s.repo.ListConflicts(ctx, db, tour.ID)
	if err != nil {
		return nil, fmt.Errorf("load conflicts: %w", err)
	}
	for _, c := range rows {
		conflicts.Add(c.Kind, c.AID, c.BID)
	}

	judges, err := s.repo.ListJudges(ctx, db, tour.ID)
	if err != nil {
		return nil, fmt.Errorf("load judges: %w", err)
	}
	judgeAvail, err := s.repo.ListJudgeAvailability(ctx, db, round.ID)
	if err != nil {
		return nil, fmt.Errorf("load judge availability: %w", err)
	}
	panelJudges := make([]drawalg.Judge, 0, len(judges))
	for _, j := range judges {
		if available, set := judgeAvail[j.ID]; set && !available {
			continue
		}
		var inst string
		if j.Participant != nil {
			inst = deref(j.Participant.InstitutionID)
		}
		panelJudges = append(panelJudges, drawalg.Judge{ID: j.ID, InstitutionID: inst, Rating: j.Rating})
	}

	return &drawPlan{
		input: drawalg.Input{
			TeamsPerSide:       tour.TeamsPerSide,
			Teams:              active,
			Standings:          table,
			History:            sides,
			Encounters:         encounters,
			Conflicts:          conflicts,
			InstitutionPenalty: tour.InstitutionPenalty,
			HistoryPenalty:     tour.HistoryPenalty,
			PullupMetrics:      tour.PullupMetrics,
			Rand:               drawalg.NewRand(c.Seed),
		},
		panels: drawalg.PanelInput{
			Judges:           panelJudges,
			Conflicts:        conflicts,
			TeamInstitutions: institutions,
			Setup:            cfg.BallotSetupFor(round.Kind),
		},
	}, nil
}

// loadSideHistory counts each active team's past slots and how often every
// pair of teams has met in rounds before seq.
func (s *TournamentService) loadSideHistory(
	ctx context.Context,
	db bun.IDB,
	tour *tournamentdb.Tournament,
	seq int,
	active []drawalg.Team,
) (map[string]tabtypes.PositionHistory, map[drawalg.TeamPair]int, error) {
	sides := make(map[string]tabtypes.PositionHistory, len(active))
	for _, t := range active {
		ph, err := tabtypes.NewPositionHistory(tour.TeamsPerSide)
		if err != nil {
			return nil, nil, err
		}
		sides[t.ID] = ph
	}

	slots, err := s.repo.ListSlotHistory(ctx, db, tour.ID, seq)
	if err != nil {
		return nil, nil, fmt.Errorf("load side history: %w", err)
	}
	byDebate := make(map[string][]string)
	var order []string
	for _, sl := range slots {
		if ph, ok := sides[sl.TeamID]; ok {
			ph.Record(tabtypes.Slot{Side: sl.Side, Seq: sl.Seq})
		}
		if _, seen := byDebate[sl.DebateID]; !seen {
			order = append(order, sl.DebateID)
		}
		byDebate[sl.DebateID] = append(byDebate[sl.DebateID], sl.TeamID)
	}

	encounters := make(map[drawalg.TeamPair]int)
	for _, id := range order {
		teams := byDebate[id]
		for i := 0; i < len(teams); i++ {
			for j := i + 1; j < len(teams); j++ {
				encounters[drawalg.NewTeamPair(teams[i], teams[j])]++
			}
		}
	}
	return sides, encounters, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
