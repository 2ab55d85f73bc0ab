package tournamentservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	tabtypes "github.com/abacus-tab/abacus/app/modules/tournament/domain/types"
	tournamentdb "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/repositories"
)

// loadRepr assembles the current draw of round. A round without a draw
// yields an empty repr carrying only the round's status.
func (s *TournamentService) loadRepr(ctx context.Context, db bun.IDB, round *tournamentdb.Round) (*tabtypes.DrawRepr, error) {
	repr := &tabtypes.DrawRepr{
		RoundID:    round.ID,
		Status:     round.DrawStatus,
		ReleasedAt: round.ReleasedAt,
		Debates:    []tabtypes.DebateRepr{},
		TeamNames:  map[string]string{},
		JudgeNames: map[string]string{},
		RoomNames:  map[string]string{},
	}

	draw, err := s.repo.GetDrawByRound(ctx, db, round.ID)
	if errors.Is(err, tournamentdb.ErrNotFound) {
		return repr, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load draw: %w", err)
	}
	repr.DrawID = draw.ID

	debates, err := s.repo.ListDebates(ctx, db, round.ID)
	if err != nil {
		return nil, fmt.Errorf("load debates: %w", err)
	}
	ids := make([]string, len(debates))
	byID := make(map[string]int, len(debates))
	for i, d := range debates {
		ids[i] = d.ID
		byID[d.ID] = i
		repr.Debates = append(repr.Debates, tabtypes.DebateRepr{
			ID:     d.ID,
			Index:  d.Index,
			RoomID: d.RoomID,
			Teams:  []tabtypes.TeamSlot{},
			Judges: []tabtypes.PanelSeat{},
		})
	}

	slots, err := s.repo.ListTeamsOfDebates(ctx, db, ids)
	if err != nil {
		return nil, fmt.Errorf("load debate teams: %w", err)
	}
	for _, sl := range slots {
		d := &repr.Debates[byID[sl.DebateID]]
		d.Teams = append(d.Teams, tabtypes.TeamSlot{TeamID: sl.TeamID, Side: sl.Side, Seq: sl.Seq})
	}

	seats, err := s.repo.ListJudgesOfDebates(ctx, db, ids)
	if err != nil {
		return nil, fmt.Errorf("load panels: %w", err)
	}
	for _, st := range seats {
		d := &repr.Debates[byID[st.DebateID]]
		d.Judges = append(d.Judges, tabtypes.PanelSeat{JudgeID: st.JudgeID, Role: st.Role})
	}

	teams, err := s.repo.ListTeams(ctx, db, round.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("load teams: %w", err)
	}
	for _, t := range teams {
		repr.TeamNames[t.ID] = t.Name
	}

	judges, err := s.repo.ListJudges(ctx, db, round.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("load judges: %w", err)
	}
	for _, j := range judges {
		if j.Participant != nil {
			repr.JudgeNames[j.ID] = j.Participant.Name
		}
	}

	rooms, err := s.repo.ListRooms(ctx, db, round.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}
	for _, rm := range rooms {
		repr.RoomNames[rm.ID] = rm.Name
	}

	return repr, nil
}
