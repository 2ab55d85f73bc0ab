package tournamentservice

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/uptrace/bun"

	"github.com/abacus-tab/abacus/app/eventbus"
	roomalloc "github.com/abacus-tab/abacus/app/modules/tournament/domain/rooms"
	tabtypes "github.com/abacus-tab/abacus/app/modules/tournament/domain/types"
	tournamentdb "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/repositories"
	"github.com/abacus-tab/abacus/pkg/apperr"
	"github.com/abacus-tab/abacus/pkg/results"
)

const (
	minPreferenceLevel = -2
	maxPreferenceLevel = 2
)

func (s *TournamentService) CreateRoom(ctx context.Context, req CreateRoomRequest) (*tournamentdb.Room, error) {
	return execute(s, ctx, "CreateRoom", req.TournamentID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*tournamentdb.Room, error], error) {
		type R = *tournamentdb.Room
		if strings.TrimSpace(req.Name) == "" {
			return fail[R](apperr.InvalidInput("name", "room name is required"))
		}
		if _, err := s.repo.GetTournament(ctx, db, req.TournamentID); err != nil {
			return lookupFailure[R](err, "tournament %s not found", req.TournamentID)
		}
		for _, cat := range req.CategoryIDs {
			if err := s.checkCategory(ctx, db, req.TournamentID, cat); err != nil {
				return classify[R](err)
			}
		}
		room := &tournamentdb.Room{
			ID:           newID(),
			TournamentID: req.TournamentID,
			Name:         strings.TrimSpace(req.Name),
			Priority:     req.Priority,
		}
		if err := s.repo.CreateRoom(ctx, db, room); err != nil {
			return results.OperationResult[R, error]{}, err
		}
		for _, cat := range req.CategoryIDs {
			member := &tournamentdb.RoomCategoryMember{CategoryID: cat, RoomID: room.ID}
			if err := s.repo.AddRoomToCategory(ctx, db, member); err != nil {
				return results.OperationResult[R, error]{}, err
			}
		}
		return succeed(room)
	})
}

func (s *TournamentService) CreateRoomCategory(ctx context.Context, req CreateRoomCategoryRequest) (*tournamentdb.RoomCategory, error) {
	return execute(s, ctx, "CreateRoomCategory", req.TournamentID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*tournamentdb.RoomCategory, error], error) {
		type R = *tournamentdb.RoomCategory
		if strings.TrimSpace(req.Name) == "" {
			return fail[R](apperr.InvalidInput("name", "category name is required"))
		}
		if _, err := s.repo.GetTournament(ctx, db, req.TournamentID); err != nil {
			return lookupFailure[R](err, "tournament %s not found", req.TournamentID)
		}
		cat := &tournamentdb.RoomCategory{
			ID:           newID(),
			TournamentID: req.TournamentID,
			Name:         strings.TrimSpace(req.Name),
		}
		if err := s.repo.CreateRoomCategory(ctx, db, cat); err != nil {
			return results.OperationResult[R, error]{}, err
		}
		return succeed(cat)
	})
}

// SetRoomPreference records how much a participant wants rooms of a
// category, from -2 (avoid) to 2 (need).
func (s *TournamentService) SetRoomPreference(ctx context.Context, req RoomPreferenceRequest) error {
	_, err := execute(s, ctx, "SetRoomPreference", req.TournamentID, func(ctx context.Context, db bun.IDB) (results.OperationResult[struct{}, error], error) {
		if req.Level < minPreferenceLevel || req.Level > maxPreferenceLevel {
			return fail[struct{}](apperr.InvalidInput("level", "preference level must be between %d and %d, got %d",
				minPreferenceLevel, maxPreferenceLevel, req.Level))
		}
		if req.ParticipantID == "" || req.CategoryID == "" {
			return fail[struct{}](apperr.InvalidInput("participant_id", "participant and category are required"))
		}
		p, err := s.repo.GetParticipant(ctx, db, req.ParticipantID)
		if err != nil {
			return lookupFailure[struct{}](err, "participant %s not found", req.ParticipantID)
		}
		if p.TournamentID != req.TournamentID {
			return fail[struct{}](apperr.InvalidInput("participant_id", "participant %s is not in tournament %s", req.ParticipantID, req.TournamentID))
		}
		if err := s.checkCategory(ctx, db, req.TournamentID, req.CategoryID); err != nil {
			return classify[struct{}](err)
		}
		pref := &tournamentdb.RoomPreference{
			ParticipantID: req.ParticipantID,
			CategoryID:    req.CategoryID,
			Level:         req.Level,
		}
		if err := s.repo.SetRoomPreference(ctx, db, pref); err != nil {
			return results.OperationResult[struct{}, error]{}, err
		}
		return succeed(struct{}{})
	})
	return err
}

// checkCategory fails unless categoryID names a room category of the
// tournament.
func (s *TournamentService) checkCategory(ctx context.Context, db bun.IDB, tournamentID, categoryID string) error {
	cat, err := s.repo.GetRoomCategory(ctx, db, categoryID)
	if err != nil {
		return notFoundAs(err, "room category %s not found", categoryID)
	}
	if cat.TournamentID != tournamentID {
		return apperr.InvalidInput("category_id", "room category %s is not in tournament %s", categoryID, tournamentID)
	}
	return nil
}

// assignRooms reallocates every room of the round's debates from scratch.
func (s *TournamentService) assignRooms(ctx context.Context, db bun.IDB, tournamentID, roundID string) error {
	debates, err := s.repo.ListDebates(ctx, db, roundID)
	if err != nil {
		return fmt.Errorf("load debates: %w", err)
	}
	if len(debates) == 0 {
		return nil
	}
	ids := make([]string, len(debates))
	for i, d := range debates {
		ids[i] = d.ID
	}

	speakers, err := s.repo.ListSpeakers(ctx, db, tournamentID)
	if err != nil {
		return fmt.Errorf("load speakers: %w", err)
	}
	teamMembers := make(map[string][]string)
	for _, sp := range speakers {
		teamMembers[sp.TeamID] = append(teamMembers[sp.TeamID], sp.ParticipantID)
	}
	judges, err := s.repo.ListJudges(ctx, db, tournamentID)
	if err != nil {
		return fmt.Errorf("load judges: %w", err)
	}
	judgeParticipant := make(map[string]string, len(judges))
	for _, j := range judges {
		judgeParticipant[j.ID] = j.ParticipantID
	}

	people := make(map[string][]string, len(debates))
	slots, err := s.repo.ListTeamsOfDebates(ctx, db, ids)
	if err != nil {
		return fmt.Errorf("load debate teams: %w", err)
	}
	for _, sl := range slots {
		people[sl.DebateID] = append(people[sl.DebateID], teamMembers[sl.TeamID]...)
	}
	seats, err := s.repo.ListJudgesOfDebates(ctx, db, ids)
	if err != nil {
		return fmt.Errorf("load panels: %w", err)
	}
	for _, st := range seats {
		if p, ok := judgeParticipant[st.JudgeID]; ok {
			people[st.DebateID] = append(people[st.DebateID], p)
		}
	}

	rows, err := s.repo.ListRooms(ctx, db, tournamentID)
	if err != nil {
		return fmt.Errorf("load rooms: %w", err)
	}
	categories, err := s.repo.ListRoomCategories(ctx, db, tournamentID)
	if err != nil {
		return fmt.Errorf("load room categories: %w", err)
	}
	prefs, err := s.repo.ListRoomPreferences(ctx, db, tournamentID)
	if err != nil {
		return fmt.Errorf("load room preferences: %w", err)
	}

	rooms := make([]roomalloc.Room, len(rows))
	for i, rm := range rows {
		rooms[i] = roomalloc.Room{ID: rm.ID, Priority: rm.Priority, Categories: categories[rm.ID]}
	}
	input := make([]roomalloc.Debate, len(debates))
	for i, d := range debates {
		input[i] = roomalloc.Debate{ID: d.ID, ParticipantIDs: people[d.ID]}
	}

	assigned := roomalloc.Allocate(input, rooms, roomalloc.Preferences(prefs))
	for _, d := range debates {
		var room *string
		if id, ok := assigned[d.ID]; ok {
			room = &id
		}
		if err := s.repo.SetDebateRoom(ctx, db, d.ID, room); err != nil {
			return fmt.Errorf("assign room: %w", err)
		}
	}
	return nil
}

// AllocateRooms reruns room allocation for a drafted or released round.
func (s *TournamentService) AllocateRooms(ctx context.Context, roundID string) (*tabtypes.DrawRepr, error) {
	var tournamentID string
	repr, err := execute(s, ctx, "AllocateRooms", roundID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*tabtypes.DrawRepr, error], error) {
		type R = *tabtypes.DrawRepr
		round, err := s.repo.GetRound(ctx, db, roundID)
		if err != nil {
			return lookupFailure[R](err, "round %s not found", roundID)
		}
		tournamentID = round.TournamentID
		if round.DrawStatus != tabtypes.DrawStatusDrafted && round.DrawStatus != tabtypes.DrawStatusReleased {
			return fail[R](apperr.InvalidState("rooms can be allocated only for drafted or released rounds, round %s is %s",
				roundID, round.DrawStatus))
		}
		if err := s.assignRooms(ctx, db, round.TournamentID, round.ID); err != nil {
			return results.OperationResult[R, error]{}, err
		}
		repr, err := s.loadRepr(ctx, db, round)
		if err != nil {
			return results.OperationResult[R, error]{}, err
		}
		return succeed(repr)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, eventbus.DrawUpdated(tournamentID, roundID))
	return repr, nil
}

// MoveRoom clears the room from every debate of the given rounds and then,
// if a target is named, assigns it there. Every round whose debates changed
// gets a DrawUpdated event.
func (s *TournamentService) MoveRoom(ctx context.Context, req MoveRoomRequest) error {
	type moved struct {
		tournamentID string
		rounds       []string
	}
	out, err := execute(s, ctx, "MoveRoom", req.RoomID, func(ctx context.Context, db bun.IDB) (results.OperationResult[moved, error], error) {
		if req.RoomID == "" {
			return fail[moved](apperr.InvalidInput("room_id", "room is required"))
		}
		if len(req.RoundIDs) == 0 {
			return fail[moved](apperr.InvalidInput("round_ids", "at least one round is required"))
		}
		room, err := s.repo.GetRoom(ctx, db, req.RoomID)
		if err != nil {
			return lookupFailure[moved](err, "room %s not found", req.RoomID)
		}

		inScope := make(map[string]bool, len(req.RoundIDs))
		for _, id := range req.RoundIDs {
			round, err := s.repo.GetRound(ctx, db, id)
			if err != nil {
				return lookupFailure[moved](err, "round %s not found", id)
			}
			if round.TournamentID != room.TournamentID {
				return fail[moved](apperr.InvalidInput("round_ids", "round %s belongs to another tournament", id))
			}
			inScope[id] = true
		}

		var target *tournamentdb.Debate
		if req.ToDebateID != nil {
			target, err = s.repo.GetDebate(ctx, db, *req.ToDebateID)
			if err != nil {
				return lookupFailure[moved](err, "debate %s not found", *req.ToDebateID)
			}
			if !inScope[target.RoundID] {
				return fail[moved](apperr.InvalidInput("to_debate_id", "debate %s is not in the listed rounds", target.ID))
			}
		}

		affected, err := s.repo.ClearRoom(ctx, db, room.ID, req.RoundIDs)
		if err != nil {
			return results.OperationResult[moved, error]{}, err
		}
		touched := make(map[string]bool, len(affected)+1)
		for _, id := range affected {
			touched[id] = true
		}
		if target != nil {
			if err := s.repo.SetDebateRoom(ctx, db, target.ID, &room.ID); err != nil {
				return results.OperationResult[moved, error]{}, err
			}
			touched[target.RoundID] = true
		}

		rounds := make([]string, 0, len(touched))
		for id := range touched {
			rounds = append(rounds, id)
		}
		sort.Strings(rounds)
		return succeed(moved{tournamentID: room.TournamentID, rounds: rounds})
	})
	if err != nil {
		return err
	}
	for _, id := range out.rounds {
		s.publish(ctx, eventbus.DrawUpdated(out.tournamentID, id))
	}
	return nil
}
