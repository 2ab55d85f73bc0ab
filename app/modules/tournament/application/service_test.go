package tournamentservice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/abacus-tab/abacus/app/eventbus"
	tabtypes "github.com/abacus-tab/abacus/app/modules/tournament/domain/types"
	tournamentdb "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/repositories"
	"github.com/abacus-tab/abacus/pkg/apperr"
	"github.com/abacus-tab/abacus/pkg/observability"
)

var testNow = time.Date(2026, 10, 3, 9, 30, 0, 0, time.UTC)

// recordingSink captures published events.
type recordingSink struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (r *recordingSink) Publish(_ context.Context, events ...eventbus.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

func (r *recordingSink) Events() []eventbus.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]eventbus.Event(nil), r.events...)
}

func newTestService(repo tournamentdb.Repository, sink eventbus.Sink, opts ...Option) *TournamentService {
	obs := observability.NewNop()
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewTournamentService(repo, obs.Logger, obs.Metrics, obs.Tracer, nil, sink, opts...)
}

func countCalls(trace []string, name string) int {
	n := 0
	for _, step := range trace {
		if step == name {
			n++
		}
	}
	return n
}

func TestTournamentService_CreateTournament(t *testing.T) {
	tests := []struct {
		name     string
		req      CreateTournamentRequest
		wantKind apperr.Kind
		wantErr  bool
	}{
		{
			name: "defaults applied",
			req:  CreateTournamentRequest{Name: "Winter Open", TeamsPerSide: 2, SubstantiveSpeakers: 2},
		},
		{
			name:     "missing name",
			req:      CreateTournamentRequest{TeamsPerSide: 1, SubstantiveSpeakers: 3},
			wantKind: apperr.KindInvalidInput,
			wantErr:  true,
		},
		{
			name:     "three teams per side",
			req:      CreateTournamentRequest{Name: "X", TeamsPerSide: 3, SubstantiveSpeakers: 1},
			wantKind: apperr.KindInvalidInput,
			wantErr:  true,
		},
		{
			name:     "unknown metric",
			req:      CreateTournamentRequest{Name: "X", TeamsPerSide: 1, SubstantiveSpeakers: 1, TeamStandingsMetrics: []string{"vibes"}},
			wantKind: apperr.KindInvalidConfiguration,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeRepository()
			var stored *tournamentdb.Tournament
			repo.CreateTournamentFunc = func(ctx context.Context, db bun.IDB, tour *tournamentdb.Tournament) error {
				stored = tour
				return nil
			}
			s := newTestService(repo, nil)

			got, err := s.CreateTournament(context.Background(), tt.req)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				assert.Zero(t, countCalls(repo.Trace(), "CreateTournament"))
				return
			}
			require.NoError(t, err)
			assert.Same(t, stored, got)
			assert.Equal(t, "winter-open", got.Slug)
			assert.Equal(t, tabtypes.BallotSetupConsensus, got.PoolBallotSetup)
			assert.Equal(t, []string{"points", "tss"}, got.TeamStandingsMetrics)
		})
	}
}

func TestTournamentService_AcquireTicket(t *testing.T) {
	live := &tournamentdb.Ticket{ID: "tk-1", RoundID: "r1", Seq: 4, Owner: "worker-a", Deadline: testNow.Add(time.Minute)}
	stale := &tournamentdb.Ticket{ID: "tk-1", RoundID: "r1", Seq: 4, Owner: "worker-a", Deadline: testNow.Add(-time.Second)}

	tests := []struct {
		name      string
		status    tabtypes.DrawStatus
		latest    *tournamentdb.Ticket
		req       GenerateDrawRequest
		casErr    error
		wantKind  apperr.Kind
		wantSeq   int
		wantError bool
	}{
		{name: "none claims", status: tabtypes.DrawStatusNone, req: GenerateDrawRequest{RoundID: "r1"}, wantSeq: 1},
		{name: "drafted needs force", status: tabtypes.DrawStatusDrafted, req: GenerateDrawRequest{RoundID: "r1"}, wantKind: apperr.KindInvalidState},
		{name: "drafted with force", status: tabtypes.DrawStatusDrafted, latest: stale, req: GenerateDrawRequest{RoundID: "r1", Force: true}, wantSeq: 5},
		{name: "live ticket blocks", status: tabtypes.DrawStatusGenerating, latest: live, req: GenerateDrawRequest{RoundID: "r1"}, wantKind: apperr.KindAlreadyInProgress},
		{name: "stale ticket is taken over", status: tabtypes.DrawStatusGenerating, latest: stale, req: GenerateDrawRequest{RoundID: "r1"}, wantSeq: 5},
		{name: "force takes over a live ticket", status: tabtypes.DrawStatusGenerating, latest: live, req: GenerateDrawRequest{RoundID: "r1", Force: true}, wantSeq: 5},
		{name: "released round", status: tabtypes.DrawStatusReleased, req: GenerateDrawRequest{RoundID: "r1"}, wantKind: apperr.KindInvalidState},
		{name: "completed round", status: tabtypes.DrawStatusCompleted, req: GenerateDrawRequest{RoundID: "r1", Force: true}, wantKind: apperr.KindInvalidState},
		{name: "unknown algorithm", status: tabtypes.DrawStatusNone, req: GenerateDrawRequest{RoundID: "r1", Algorithm: "swiss"}, wantKind: apperr.KindInvalidConfiguration},
		{name: "lost compare and set", status: tabtypes.DrawStatusNone, req: GenerateDrawRequest{RoundID: "r1"}, casErr: tournamentdb.ErrNoRowsAffected, wantKind: apperr.KindAlreadyInProgress},
		{name: "infrastructure error", status: tabtypes.DrawStatusNone, req: GenerateDrawRequest{RoundID: "r1"}, casErr: errors.New("connection reset"), wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeRepository()
			repo.GetRoundFunc = func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Round, error) {
				return &tournamentdb.Round{ID: id, TournamentID: "t1", Seq: 1, Kind: tabtypes.RoundKindPreliminary, DrawStatus: tt.status}, nil
			}
			repo.GetTournamentFunc = func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Tournament, error) {
				return &tournamentdb.Tournament{ID: id, TeamsPerSide: 1}, nil
			}
			repo.LatestTicketFunc = func(ctx context.Context, db bun.IDB, roundID string) (*tournamentdb.Ticket, error) {
				if tt.latest == nil {
					return nil, tournamentdb.ErrNotFound
				}
				return tt.latest, nil
			}
			var casFrom []tabtypes.DrawStatus
			repo.UpdateRoundStatusFunc = func(ctx context.Context, db bun.IDB, roundID string, from []tabtypes.DrawStatus, to tabtypes.DrawStatus, at time.Time) error {
				casFrom = from
				assert.Equal(t, tabtypes.DrawStatusGenerating, to)
				return tt.casErr
			}
			var inserted *tournamentdb.Ticket
			repo.InsertTicketFunc = func(ctx context.Context, db bun.IDB, tk *tournamentdb.Ticket) error {
				inserted = tk
				return nil
			}
			s := newTestService(repo, nil, WithOwner("worker-b"), WithTicketTTL(30*time.Second))

			result, err := s.acquireTicketLogic(context.Background(), nil, tt.req)
			if tt.wantError {
				require.Error(t, err)
				assert.Nil(t, inserted)
				return
			}
			require.NoError(t, err)
			if tt.wantKind != apperr.KindInternal {
				require.True(t, result.IsFailure())
				assert.Equal(t, tt.wantKind, apperr.KindOf(*result.Failure))
				assert.Nil(t, inserted)
				return
			}
			require.True(t, result.IsSuccess())
			claim := *result.Success
			require.NotNil(t, inserted)
			assert.Equal(t, tt.wantSeq, inserted.Seq)
			assert.Equal(t, "worker-b", inserted.Owner)
			assert.Equal(t, testNow.Add(30*time.Second), inserted.Deadline)
			assert.Equal(t, []tabtypes.DrawStatus{tt.status}, casFrom)
			assert.Equal(t, tabtypes.DrawStatusGenerating, claim.Round.DrawStatus)
			assert.Equal(t, "random", claim.Algorithm.Name())
			assert.Equal(t, 1, countCalls(repo.Trace(), "CancelTickets"))
		})
	}
}

func TestTournamentService_AcquireTicket_DuplicateSeq(t *testing.T) {
	stale := &tournamentdb.Ticket{ID: "tk-1", RoundID: "r1", Seq: 4, Owner: "worker-a", Deadline: testNow.Add(-time.Second)}
	repo := NewFakeRepository()
	repo.GetRoundFunc = func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Round, error) {
		return &tournamentdb.Round{ID: id, TournamentID: "t1", Seq: 1, Kind: tabtypes.RoundKindPreliminary, DrawStatus: tabtypes.DrawStatusGenerating}, nil
	}
	repo.GetTournamentFunc = func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Tournament, error) {
		return &tournamentdb.Tournament{ID: id, TeamsPerSide: 1}, nil
	}
	repo.LatestTicketFunc = func(ctx context.Context, db bun.IDB, roundID string) (*tournamentdb.Ticket, error) {
		return stale, nil
	}
	repo.InsertTicketFunc = func(ctx context.Context, db bun.IDB, tk *tournamentdb.Ticket) error {
		assert.Equal(t, 5, tk.Seq)
		return fmt.Errorf("tournamentdb.InsertTicket: %w", tournamentdb.ErrDuplicate)
	}
	s := newTestService(repo, nil)

	result, err := s.acquireTicketLogic(context.Background(), nil, GenerateDrawRequest{RoundID: "r1"})
	require.NoError(t, err)
	require.True(t, result.IsFailure())
	assert.Equal(t, apperr.KindAlreadyInProgress, apperr.KindOf(*result.Failure))
	assert.Equal(t, 1, countCalls(repo.Trace(), "InsertTicket"))
}

func TestTournamentService_AcquireTicket_SeedAndAlgorithm(t *testing.T) {
	repo := NewFakeRepository()
	repo.GetRoundFunc = func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Round, error) {
		return &tournamentdb.Round{ID: id, TournamentID: "t1", Seq: 3, Kind: tabtypes.RoundKindPreliminary, DrawStatus: tabtypes.DrawStatusNone}, nil
	}
	repo.GetTournamentFunc = func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Tournament, error) {
		return &tournamentdb.Tournament{ID: id, TeamsPerSide: 2}, nil
	}
	repo.CountCompletedRoundsFunc = func(ctx context.Context, db bun.IDB, tournamentID string, kind tabtypes.RoundKind, beforeSeq int) (int, error) {
		assert.Equal(t, 3, beforeSeq)
		return 2, nil
	}
	s := newTestService(repo, nil)

	seed := uint64(77)
	result, err := s.acquireTicketLogic(context.Background(), nil, GenerateDrawRequest{RoundID: "r3", Seed: &seed})
	require.NoError(t, err)
	require.True(t, result.IsSuccess())
	claim := *result.Success
	assert.Equal(t, "power_paired", claim.Algorithm.Name())
	assert.Equal(t, uint64(77), claim.Seed)
	assert.Equal(t, int64(77), claim.Ticket.Seed)
}

func TestTournamentService_CheckTicket(t *testing.T) {
	base := tournamentdb.Ticket{ID: "tk", RoundID: "r1", Seq: 2, Deadline: testNow.Add(time.Minute)}

	tests := []struct {
		name    string
		mutate  func(tk *tournamentdb.Ticket)
		latest  int
		wantErr bool
	}{
		{name: "live and newest", mutate: func(*tournamentdb.Ticket) {}, latest: 2},
		{name: "cancelled", mutate: func(tk *tournamentdb.Ticket) { tk.Cancelled = true }, latest: 2, wantErr: true},
		{name: "released", mutate: func(tk *tournamentdb.Ticket) { tk.Released = true }, latest: 2, wantErr: true},
		{name: "superseded", mutate: func(*tournamentdb.Ticket) {}, latest: 3, wantErr: true},
		{name: "past deadline", mutate: func(tk *tournamentdb.Ticket) { tk.Deadline = testNow }, latest: 2, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := base
			tt.mutate(&current)
			repo := NewFakeRepository()
			repo.GetTicketFunc = func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Ticket, error) {
				return &current, nil
			}
			repo.LatestTicketFunc = func(ctx context.Context, db bun.IDB, roundID string) (*tournamentdb.Ticket, error) {
				return &tournamentdb.Ticket{ID: "other", RoundID: roundID, Seq: tt.latest}, nil
			}
			s := newTestService(repo, nil)

			err := s.checkTicket(context.Background(), nil, &base)
			if tt.wantErr {
				assert.Equal(t, apperr.KindTicketExpired, apperr.KindOf(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTournamentService_IllegalTransitionsLeaveStateAlone(t *testing.T) {
	tests := []struct {
		name   string
		status tabtypes.DrawStatus
		call   func(s *TournamentService) error
	}{
		{name: "cancel released", status: tabtypes.DrawStatusReleased, call: func(s *TournamentService) error { return s.CancelDraw(context.Background(), "r1") }},
		{name: "cancel none", status: tabtypes.DrawStatusNone, call: func(s *TournamentService) error { return s.CancelDraw(context.Background(), "r1") }},
		{name: "release none", status: tabtypes.DrawStatusNone, call: func(s *TournamentService) error {
			_, err := s.ReleaseDraw(context.Background(), "r1")
			return err
		}},
		{name: "release generating", status: tabtypes.DrawStatusGenerating, call: func(s *TournamentService) error {
			_, err := s.ReleaseDraw(context.Background(), "r1")
			return err
		}},
		{name: "start drafted", status: tabtypes.DrawStatusDrafted, call: func(s *TournamentService) error { return s.StartRound(context.Background(), "r1") }},
		{name: "complete released", status: tabtypes.DrawStatusReleased, call: func(s *TournamentService) error { return s.CompleteRound(context.Background(), "r1") }},
		{name: "complete completed", status: tabtypes.DrawStatusCompleted, call: func(s *TournamentService) error { return s.CompleteRound(context.Background(), "r1") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeRepository()
			repo.GetRoundFunc = func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Round, error) {
				return &tournamentdb.Round{ID: id, TournamentID: "t1", DrawStatus: tt.status}, nil
			}
			sink := &recordingSink{}
			s := newTestService(repo, sink)

			err := tt.call(s)
			require.Error(t, err)
			assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
			assert.Zero(t, countCalls(repo.Trace(), "UpdateRoundStatus"))
			assert.Empty(t, sink.Events())
		})
	}
}

func TestTournamentService_CompleteRound(t *testing.T) {
	tests := []struct {
		name        string
		unconfirmed int
		wantKind    apperr.Kind
	}{
		{name: "all confirmed", unconfirmed: 0},
		{name: "debates outstanding", unconfirmed: 2, wantKind: apperr.KindInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeRepository()
			repo.GetRoundFunc = func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Round, error) {
				return &tournamentdb.Round{ID: id, TournamentID: "t1", DrawStatus: tabtypes.DrawStatusInProgress}, nil
			}
			repo.CountUnconfirmedDebatesFunc = func(ctx context.Context, db bun.IDB, roundID string) (int, error) {
				return tt.unconfirmed, nil
			}
			sink := &recordingSink{}
			s := newTestService(repo, sink)

			err := s.CompleteRound(context.Background(), "r1")
			if tt.wantKind != apperr.KindInternal {
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				assert.Zero(t, countCalls(repo.Trace(), "BumpResultsVersion"))
				assert.Zero(t, countCalls(repo.Trace(), "UpdateRoundStatus"))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{"GetRound", "CountUnconfirmedDebates", "BumpResultsVersion", "UpdateRoundStatus"}, repo.Trace())
			require.Len(t, sink.Events(), 1)
			assert.Equal(t, "r1", sink.Events()[0].RoundID)
		})
	}
}

func TestTournamentService_MoveRoom(t *testing.T) {
	target := "d-2"
	repo := NewFakeRepository()
	repo.GetRoomFunc = func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Room, error) {
		return &tournamentdb.Room{ID: id, TournamentID: "t1"}, nil
	}
	repo.GetRoundFunc = func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Round, error) {
		return &tournamentdb.Round{ID: id, TournamentID: "t1"}, nil
	}
	repo.GetDebateFunc = func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Debate, error) {
		return &tournamentdb.Debate{ID: id, RoundID: "r2"}, nil
	}
	repo.ClearRoomFunc = func(ctx context.Context, db bun.IDB, roomID string, roundIDs []string) ([]string, error) {
		return []string{"r1"}, nil
	}
	var setRoom *string
	repo.SetDebateRoomFunc = func(ctx context.Context, db bun.IDB, debateID string, roomID *string) error {
		assert.Equal(t, target, debateID)
		setRoom = roomID
		return nil
	}
	sink := &recordingSink{}
	s := newTestService(repo, sink)

	err := s.MoveRoom(context.Background(), MoveRoomRequest{RoomID: "rm-1", ToDebateID: &target, RoundIDs: []string{"r1", "r2"}})
	require.NoError(t, err)
	require.NotNil(t, setRoom)
	assert.Equal(t, "rm-1", *setRoom)

	var rounds []string
	for _, e := range sink.Events() {
		assert.Equal(t, eventbus.KindDrawUpdated, e.Kind)
		rounds = append(rounds, e.RoundID)
	}
	assert.Equal(t, []string{"r1", "r2"}, rounds)
}

func TestTournamentService_MoveRoom_Validation(t *testing.T) {
	outside := "d-9"
	tests := []struct {
		name string
		req  MoveRoomRequest
		want apperr.Kind
	}{
		{name: "no rounds", req: MoveRoomRequest{RoomID: "rm-1"}, want: apperr.KindInvalidInput},
		{name: "no room", req: MoveRoomRequest{RoundIDs: []string{"r1"}}, want: apperr.KindInvalidInput},
		{name: "target outside rounds", req: MoveRoomRequest{RoomID: "rm-1", ToDebateID: &outside, RoundIDs: []string{"r1"}}, want: apperr.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeRepository()
			repo.GetRoomFunc = func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Room, error) {
				return &tournamentdb.Room{ID: id, TournamentID: "t1"}, nil
			}
			repo.GetRoundFunc = func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Round, error) {
				return &tournamentdb.Round{ID: id, TournamentID: "t1"}, nil
			}
			repo.GetDebateFunc = func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Debate, error) {
				return &tournamentdb.Debate{ID: id, RoundID: "r7"}, nil
			}
			s := newTestService(repo, nil)

			err := s.MoveRoom(context.Background(), tt.req)
			assert.Equal(t, tt.want, apperr.KindOf(err))
			assert.Zero(t, countCalls(repo.Trace(), "ClearRoom"))
		})
	}
}

// scopedRepo knows participant "p", category "c", judges "j1", "j2" and
// teams "tm1", "tm2" of tournament t1, plus category "c-other", judge
// "j-other" and team "tm-other" of tournament t2.
func scopedRepo() *FakeRepository {
	repo := NewFakeRepository()
	repo.GetTournamentFunc = func(_ context.Context, _ bun.IDB, id string) (*tournamentdb.Tournament, error) {
		return &tournamentdb.Tournament{ID: id}, nil
	}
	repo.GetParticipantFunc = func(_ context.Context, _ bun.IDB, id string) (*tournamentdb.Participant, error) {
		switch id {
		case "p":
			return &tournamentdb.Participant{ID: id, TournamentID: "t1"}, nil
		case "p-other":
			return &tournamentdb.Participant{ID: id, TournamentID: "t2"}, nil
		}
		return nil, tournamentdb.ErrNotFound
	}
	repo.GetRoomCategoryFunc = func(_ context.Context, _ bun.IDB, id string) (*tournamentdb.RoomCategory, error) {
		switch id {
		case "c":
			return &tournamentdb.RoomCategory{ID: id, TournamentID: "t1"}, nil
		case "c-other":
			return &tournamentdb.RoomCategory{ID: id, TournamentID: "t2"}, nil
		}
		return nil, tournamentdb.ErrNotFound
	}
	repo.GetJudgeFunc = func(_ context.Context, _ bun.IDB, id string) (*tournamentdb.Judge, error) {
		switch id {
		case "j1", "j2":
			return &tournamentdb.Judge{ID: id, TournamentID: "t1"}, nil
		case "j-other":
			return &tournamentdb.Judge{ID: id, TournamentID: "t2"}, nil
		}
		return nil, tournamentdb.ErrNotFound
	}
	repo.GetTeamFunc = func(_ context.Context, _ bun.IDB, id string) (*tournamentdb.Team, error) {
		switch id {
		case "tm1", "tm2":
			return &tournamentdb.Team{ID: id, TournamentID: "t1"}, nil
		case "tm-other":
			return &tournamentdb.Team{ID: id, TournamentID: "t2"}, nil
		}
		return nil, tournamentdb.ErrNotFound
	}
	return repo
}

func TestTournamentService_SetRoomPreference_Bounds(t *testing.T) {
	repo := scopedRepo()
	s := newTestService(repo, nil)

	err := s.SetRoomPreference(context.Background(), RoomPreferenceRequest{TournamentID: "t1", ParticipantID: "p", CategoryID: "c", Level: 3})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	err = s.SetRoomPreference(context.Background(), RoomPreferenceRequest{TournamentID: "t1", ParticipantID: "p", CategoryID: "c", Level: -2})
	assert.NoError(t, err)
	assert.Equal(t, 1, countCalls(repo.Trace(), "SetRoomPreference"))
}

func TestTournamentService_SetRoomPreference_Scope(t *testing.T) {
	tests := []struct {
		name        string
		participant string
		category    string
		want        apperr.Kind
	}{
		{name: "unknown participant", participant: "no-such-participant", category: "c", want: apperr.KindNotFound},
		{name: "participant of another tournament", participant: "p-other", category: "c", want: apperr.KindInvalidInput},
		{name: "unknown category", participant: "p", category: "no-such-category", want: apperr.KindNotFound},
		{name: "category of another tournament", participant: "p", category: "c-other", want: apperr.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := scopedRepo()
			s := newTestService(repo, nil)
			err := s.SetRoomPreference(context.Background(), RoomPreferenceRequest{
				TournamentID: "t1", ParticipantID: tt.participant, CategoryID: tt.category, Level: 1,
			})
			assert.Equal(t, tt.want, apperr.KindOf(err))
			assert.Zero(t, countCalls(repo.Trace(), "SetRoomPreference"))
		})
	}
}

func TestTournamentService_CreateRoom_CategoryScope(t *testing.T) {
	tests := []struct {
		name       string
		categories []string
		want       apperr.Kind
	}{
		{name: "unknown category", categories: []string{"c", "no-such-category"}, want: apperr.KindNotFound},
		{name: "category of another tournament", categories: []string{"c-other"}, want: apperr.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := scopedRepo()
			s := newTestService(repo, nil)
			_, err := s.CreateRoom(context.Background(), CreateRoomRequest{TournamentID: "t1", Name: "Room 1", CategoryIDs: tt.categories})
			assert.Equal(t, tt.want, apperr.KindOf(err))
			assert.Zero(t, countCalls(repo.Trace(), "CreateRoom"))
			assert.Zero(t, countCalls(repo.Trace(), "AddRoomToCategory"))
		})
	}

	repo := scopedRepo()
	room, err := newTestService(repo, nil).CreateRoom(context.Background(), CreateRoomRequest{TournamentID: "t1", Name: "Room 1", CategoryIDs: []string{"c"}})
	require.NoError(t, err)
	assert.Equal(t, "t1", room.TournamentID)
	assert.Equal(t, 1, countCalls(repo.Trace(), "AddRoomToCategory"))
}

func TestTournamentService_AddConflict(t *testing.T) {
	tests := []struct {
		name string
		kind tabtypes.ConflictKind
		a, b string
		want apperr.Kind
	}{
		{name: "judge team", kind: tabtypes.ConflictJudgeTeam, a: "j1", b: "tm1"},
		{name: "team team", kind: tabtypes.ConflictTeamTeam, a: "tm1", b: "tm2"},
		{name: "judge judge", kind: tabtypes.ConflictJudgeJudge, a: "j1", b: "j2"},
		{name: "unknown parties", kind: tabtypes.ConflictJudgeTeam, a: "ghost-judge", b: "ghost-team", want: apperr.KindNotFound},
		{name: "team given as judge", kind: tabtypes.ConflictJudgeTeam, a: "tm1", b: "tm2", want: apperr.KindNotFound},
		{name: "judge given as team", kind: tabtypes.ConflictTeamTeam, a: "tm1", b: "j1", want: apperr.KindNotFound},
		{name: "judge of another tournament", kind: tabtypes.ConflictJudgeJudge, a: "j1", b: "j-other", want: apperr.KindInvalidInput},
		{name: "team of another tournament", kind: tabtypes.ConflictJudgeTeam, a: "j1", b: "tm-other", want: apperr.KindInvalidInput},
		{name: "unknown kind", kind: "XX", a: "j1", b: "tm1", want: apperr.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := scopedRepo()
			sink := &recordingSink{}
			s := newTestService(repo, sink)
			c, err := s.AddConflict(context.Background(), AddConflictRequest{TournamentID: "t1", Kind: tt.kind, AID: tt.a, BID: tt.b})
			if tt.want != apperr.KindInternal {
				assert.Equal(t, tt.want, apperr.KindOf(err))
				assert.Zero(t, countCalls(repo.Trace(), "CreateConflict"))
				assert.Empty(t, sink.Events())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, c.Kind)
			assert.Equal(t, 1, countCalls(repo.Trace(), "CreateConflict"))
			assert.Len(t, sink.Events(), 1)
		})
	}
}

func TestTournamentService_RecomputeStandings_CachesByVersion(t *testing.T) {
	version := int64(3)
	repo := NewFakeRepository()
	repo.GetTournamentFunc = func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Tournament, error) {
		return &tournamentdb.Tournament{
			ID:                      id,
			ResultsVersion:          version,
			TeamStandingsMetrics:    []string{"points"},
			SpeakerStandingsMetrics: []string{"total"},
		}, nil
	}
	repo.ListTeamsFunc = func(ctx context.Context, db bun.IDB, tournamentID string) ([]tournamentdb.Team, error) {
		return []tournamentdb.Team{{ID: "a"}, {ID: "b"}}, nil
	}
	repo.ListCompletedResultsFunc = func(ctx context.Context, db bun.IDB, tournamentID string) ([]tournamentdb.TeamResultRecord, []tournamentdb.SpeakerResultRecord, error) {
		return []tournamentdb.TeamResultRecord{
			{DebateID: "d1", RoundSeq: 1, TeamID: "a", Points: 0},
			{DebateID: "d1", RoundSeq: 1, TeamID: "b", Points: 1},
		}, nil, nil
	}
	s := newTestService(repo, nil)
	ctx := context.Background()

	first, err := s.RecomputeStandings(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), first.Version)
	require.Len(t, first.Teams.Entries, 2)
	assert.Equal(t, "b", first.Teams.Entries[0].ID)

	second, err := s.RecomputeStandings(ctx, "t1")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, countCalls(repo.Trace(), "ListCompletedResults"))

	version = 4
	third, err := s.RecomputeStandings(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), third.Version)
	assert.Equal(t, 2, countCalls(repo.Trace(), "ListCompletedResults"))
}

func TestTournamentService_RecomputeStandings_UnknownMetric(t *testing.T) {
	repo := NewFakeRepository()
	repo.GetTournamentFunc = func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Tournament, error) {
		return &tournamentdb.Tournament{ID: id, TeamStandingsMetrics: []string{"elo"}, SpeakerStandingsMetrics: []string{"total"}}, nil
	}
	s := newTestService(repo, nil)

	_, err := s.RecomputeStandings(context.Background(), "t1")
	assert.Equal(t, apperr.KindInvalidConfiguration, apperr.KindOf(err))
}

func TestTournamentService_PanicBecomesInternalError(t *testing.T) {
	repo := NewFakeRepository()
	repo.GetRoundFunc = func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Round, error) {
		panic("boom")
	}
	s := newTestService(repo, nil)

	_, err := s.GetRound(context.Background(), "r1")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "boom")
}
