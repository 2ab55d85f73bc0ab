package tournamentservice

import (
	"context"
	"sync"
	"time"

	"github.com/uptrace/bun"

	tabtypes "github.com/abacus-tab/abacus/app/modules/tournament/domain/types"
	tournamentdb "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/repositories"
)

// ------------------------
// Fake Tournament Repo
// ------------------------

// FakeRepository provides a programmable stub for the tournamentdb.Repository interface.
// Unset Get methods report ErrNotFound; everything else succeeds with zero values.
type FakeRepository struct {
	mu    sync.Mutex
	trace []string

	CreateTournamentFunc        func(ctx context.Context, db bun.IDB, t *tournamentdb.Tournament) error
	GetTournamentFunc           func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Tournament, error)
	ListTournamentsFunc         func(ctx context.Context, db bun.IDB) ([]tournamentdb.Tournament, error)
	BumpResultsVersionFunc      func(ctx context.Context, db bun.IDB, tournamentID string) (int64, error)
	CreateRoundFunc             func(ctx context.Context, db bun.IDB, r *tournamentdb.Round) error
	GetRoundFunc                func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Round, error)
	ListRoundsFunc              func(ctx context.Context, db bun.IDB, tournamentID string) ([]tournamentdb.Round, error)
	UpdateRoundStatusFunc       func(ctx context.Context, db bun.IDB, roundID string, from []tabtypes.DrawStatus, to tabtypes.DrawStatus, at time.Time) error
	CreateInstitutionFunc       func(ctx context.Context, db bun.IDB, i *tournamentdb.Institution) error
	ListInstitutionsFunc        func(ctx context.Context, db bun.IDB, tournamentID string) ([]tournamentdb.Institution, error)
	CreateTeamFunc              func(ctx context.Context, db bun.IDB, t *tournamentdb.Team) error
	GetTeamFunc                 func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Team, error)
	ListTeamsFunc               func(ctx context.Context, db bun.IDB, tournamentID string) ([]tournamentdb.Team, error)
	CreateParticipantFunc       func(ctx context.Context, db bun.IDB, p *tournamentdb.Participant) error
	GetParticipantFunc          func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Participant, error)
	CreateSpeakerFunc           func(ctx context.Context, db bun.IDB, s *tournamentdb.Speaker) error
	ListSpeakersFunc            func(ctx context.Context, db bun.IDB, tournamentID string) ([]tournamentdb.Speaker, error)
	CreateJudgeFunc             func(ctx context.Context, db bun.IDB, j *tournamentdb.Judge) error
	GetJudgeFunc                func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Judge, error)
	ListJudgesFunc              func(ctx context.Context, db bun.IDB, tournamentID string) ([]tournamentdb.Judge, error)
	CreateConflictFunc          func(ctx context.Context, db bun.IDB, c *tournamentdb.Conflict) error
	ListConflictsFunc           func(ctx context.Context, db bun.IDB, tournamentID string) ([]tournamentdb.Conflict, error)
	SetTeamAvailabilityFunc     func(ctx context.Context, db bun.IDB, a *tournamentdb.TeamAvailability) error
	SetJudgeAvailabilityFunc    func(ctx context.Context, db bun.IDB, a *tournamentdb.JudgeAvailability) error
	ListTeamAvailabilityFunc    func(ctx context.Context, db bun.IDB, roundID string) (map[string]bool, error)
	ListJudgeAvailabilityFunc   func(ctx context.Context, db bun.IDB, roundID string) (map[string]bool, error)
	CreateRoomFunc              func(ctx context.Context, db bun.IDB, r *tournamentdb.Room) error
	GetRoomFunc                 func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Room, error)
	ListRoomsFunc               func(ctx context.Context, db bun.IDB, tournamentID string) ([]tournamentdb.Room, error)
	CreateRoomCategoryFunc      func(ctx context.Context, db bun.IDB, c *tournamentdb.RoomCategory) error
	GetRoomCategoryFunc         func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.RoomCategory, error)
	AddRoomToCategoryFunc       func(ctx context.Context, db bun.IDB, m *tournamentdb.RoomCategoryMember) error
	ListRoomCategoriesFunc      func(ctx context.Context, db bun.IDB, tournamentID string) (map[string][]string, error)
	SetRoomPreferenceFunc       func(ctx context.Context, db bun.IDB, p *tournamentdb.RoomPreference) error
	ListRoomPreferencesFunc     func(ctx context.Context, db bun.IDB, tournamentID string) (map[string]map[string]int, error)
	GetDrawByRoundFunc          func(ctx context.Context, db bun.IDB, roundID string) (*tournamentdb.Draw, error)
	InsertDrawFunc              func(ctx context.Context, db bun.IDB, d *tournamentdb.Draw, debates []*tournamentdb.Debate, teams []*tournamentdb.TeamOfDebate, judges []*tournamentdb.JudgeOfDebate) error
	DeleteDrawForRoundFunc      func(ctx context.Context, db bun.IDB, roundID string) error
	MarkDrawReleasedFunc        func(ctx context.Context, db bun.IDB, roundID string, at time.Time) error
	GetDebateFunc               func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Debate, error)
	ListDebatesFunc             func(ctx context.Context, db bun.IDB, roundID string) ([]tournamentdb.Debate, error)
	ListTeamsOfDebatesFunc      func(ctx context.Context, db bun.IDB, debateIDs []string) ([]tournamentdb.TeamOfDebate, error)
	ListJudgesOfDebatesFunc     func(ctx context.Context, db bun.IDB, debateIDs []string) ([]tournamentdb.JudgeOfDebate, error)
	SetDebateRoomFunc           func(ctx context.Context, db bun.IDB, debateID string, roomID *string) error
	ClearRoomFunc               func(ctx context.Context, db bun.IDB, roomID string, roundIDs []string) ([]string, error)
	ListSlotHistoryFunc         func(ctx context.Context, db bun.IDB, tournamentID string, beforeSeq int) ([]tournamentdb.SlotRecord, error)
	ListCompletedResultsFunc    func(ctx context.Context, db bun.IDB, tournamentID string) ([]tournamentdb.TeamResultRecord, []tournamentdb.SpeakerResultRecord, error)
	CountCompletedRoundsFunc    func(ctx context.Context, db bun.IDB, tournamentID string, kind tabtypes.RoundKind, beforeSeq int) (int, error)
	CreateMotionFunc            func(ctx context.Context, db bun.IDB, m *tournamentdb.Motion) error
	GetMotionFunc               func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Motion, error)
	NextBallotVersionFunc       func(ctx context.Context, db bun.IDB, debateID, judgeID string) (int, error)
	InsertBallotFunc            func(ctx context.Context, db bun.IDB, b *tournamentdb.Ballot) error
	ListLatestBallotsFunc       func(ctx context.Context, db bun.IDB, debateID string) ([]*tournamentdb.Ballot, error)
	ConfirmBallotsFunc          func(ctx context.Context, db bun.IDB, ballotIDs []string, at time.Time) error
	CountUnconfirmedDebatesFunc func(ctx context.Context, db bun.IDB, roundID string) (int, error)
	ReplaceAggregatesFunc       func(ctx context.Context, db bun.IDB, debateID string, teams []*tournamentdb.AggTeamResult, speakers []*tournamentdb.AggSpeakerResult) error
	InsertTicketFunc            func(ctx context.Context, db bun.IDB, t *tournamentdb.Ticket) error
	GetTicketFunc               func(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Ticket, error)
	LatestTicketFunc            func(ctx context.Context, db bun.IDB, roundID string) (*tournamentdb.Ticket, error)
	CancelTicketsFunc           func(ctx context.Context, db bun.IDB, roundID string) error
	ReleaseTicketFunc           func(ctx context.Context, db bun.IDB, ticketID string, errMsg *string) error
}

// NewFakeRepository initializes a FakeRepository with an empty trace.
func NewFakeRepository() *FakeRepository {
	return &FakeRepository{trace: []string{}}
}

// Trace returns the sequence of method calls made to the fake.
func (f *FakeRepository) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeRepository) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

// --- Repository Interface Implementation ---

func (f *FakeRepository) CreateTournament(ctx context.Context, db bun.IDB, t *tournamentdb.Tournament) error {
	f.record("CreateTournament")
	if f.CreateTournamentFunc != nil {
		return f.CreateTournamentFunc(ctx, db, t)
	}
	return nil
}

func (f *FakeRepository) GetTournament(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Tournament, error) {
	f.record("GetTournament")
	if f.GetTournamentFunc != nil {
		return f.GetTournamentFunc(ctx, db, id)
	}
	return nil, tournamentdb.ErrNotFound
}

func (f *FakeRepository) ListTournaments(ctx context.Context, db bun.IDB) ([]tournamentdb.Tournament, error) {
	f.record("ListTournaments")
	if f.ListTournamentsFunc != nil {
		return f.ListTournamentsFunc(ctx, db)
	}
	return nil, nil
}

func (f *FakeRepository) BumpResultsVersion(ctx context.Context, db bun.IDB, tournamentID string) (int64, error) {
	f.record("BumpResultsVersion")
	if f.BumpResultsVersionFunc != nil {
		return f.BumpResultsVersionFunc(ctx, db, tournamentID)
	}
	return 0, nil
}

func (f *FakeRepository) CreateRound(ctx context.Context, db bun.IDB, r *tournamentdb.Round) error {
	f.record("CreateRound")
	if f.CreateRoundFunc != nil {
		return f.CreateRoundFunc(ctx, db, r)
	}
	return nil
}

func (f *FakeRepository) GetRound(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Round, error) {
	f.record("GetRound")
	if f.GetRoundFunc != nil {
		return f.GetRoundFunc(ctx, db, id)
	}
	return nil, tournamentdb.ErrNotFound
}

func (f *FakeRepository) ListRounds(ctx context.Context, db bun.IDB, tournamentID string) ([]tournamentdb.Round, error) {
	f.record("ListRounds")
	if f.ListRoundsFunc != nil {
		return f.ListRoundsFunc(ctx, db, tournamentID)
	}
	return nil, nil
}

func (f *FakeRepository) UpdateRoundStatus(ctx context.Context, db bun.IDB, roundID string, from []tabtypes.DrawStatus, to tabtypes.DrawStatus, at time.Time) error {
	f.record("UpdateRoundStatus")
	if f.UpdateRoundStatusFunc != nil {
		return f.UpdateRoundStatusFunc(ctx, db, roundID, from, to, at)
	}
	return nil
}

func (f *FakeRepository) CreateInstitution(ctx context.Context, db bun.IDB, i *tournamentdb.Institution) error {
	f.record("CreateInstitution")
	if f.CreateInstitutionFunc != nil {
		return f.CreateInstitutionFunc(ctx, db, i)
	}
	return nil
}

func (f *FakeRepository) ListInstitutions(ctx context.Context, db bun.IDB, tournamentID string) ([]tournamentdb.Institution, error) {
	f.record("ListInstitutions")
	if f.ListInstitutionsFunc != nil {
		return f.ListInstitutionsFunc(ctx, db, tournamentID)
	}
	return nil, nil
}

func (f *FakeRepository) CreateTeam(ctx context.Context, db bun.IDB, t *tournamentdb.Team) error {
	f.record("CreateTeam")
	if f.CreateTeamFunc != nil {
		return f.CreateTeamFunc(ctx, db, t)
	}
	return nil
}

func (f *FakeRepository) GetTeam(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Team, error) {
	f.record("GetTeam")
	if f.GetTeamFunc != nil {
		return f.GetTeamFunc(ctx, db, id)
	}
	return nil, tournamentdb.ErrNotFound
}

func (f *FakeRepository) ListTeams(ctx context.Context, db bun.IDB, tournamentID string) ([]tournamentdb.Team, error) {
	f.record("ListTeams")
	if f.ListTeamsFunc != nil {
		return f.ListTeamsFunc(ctx, db, tournamentID)
	}
	return nil, nil
}

func (f *FakeRepository) CreateParticipant(ctx context.Context, db bun.IDB, p *tournamentdb.Participant) error {
	f.record("CreateParticipant")
	if f.CreateParticipantFunc != nil {
		return f.CreateParticipantFunc(ctx, db, p)
	}
	return nil
}

func (f *FakeRepository) GetParticipant(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Participant, error) {
	f.record("GetParticipant")
	if f.GetParticipantFunc != nil {
		return f.GetParticipantFunc(ctx, db, id)
	}
	return nil, tournamentdb.ErrNotFound
}

func (f *FakeRepository) CreateSpeaker(ctx context.Context, db bun.IDB, s *tournamentdb.Speaker) error {
	f.record("CreateSpeaker")
	if f.CreateSpeakerFunc != nil {
		return f.CreateSpeakerFunc(ctx, db, s)
	}
	return nil
}

func (f *FakeRepository) ListSpeakers(ctx context.Context, db bun.IDB, tournamentID string) ([]tournamentdb.Speaker, error) {
	f.record("ListSpeakers")
	if f.ListSpeakersFunc != nil {
		return f.ListSpeakersFunc(ctx, db, tournamentID)
	}
	return nil, nil
}

func (f *FakeRepository) CreateJudge(ctx context.Context, db bun.IDB, j *tournamentdb.Judge) error {
	f.record("CreateJudge")
	if f.CreateJudgeFunc != nil {
		return f.CreateJudgeFunc(ctx, db, j)
	}
	return nil
}

func (f *FakeRepository) GetJudge(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Judge, error) {
	f.record("GetJudge")
	if f.GetJudgeFunc != nil {
		return f.GetJudgeFunc(ctx, db, id)
	}
	return nil, tournamentdb.ErrNotFound
}

func (f *FakeRepository) ListJudges(ctx context.Context, db bun.IDB, tournamentID string) ([]tournamentdb.Judge, error) {
	f.record("ListJudges")
	if f.ListJudgesFunc != nil {
		return f.ListJudgesFunc(ctx, db, tournamentID)
	}
	return nil, nil
}

func (f *FakeRepository) CreateConflict(ctx context.Context, db bun.IDB, c *tournamentdb.Conflict) error {
	f.record("CreateConflict")
	if f.CreateConflictFunc != nil {
		return f.CreateConflictFunc(ctx, db, c)
	}
	return nil
}

func (f *FakeRepository) ListConflicts(ctx context.Context, db bun.IDB, tournamentID string) ([]tournamentdb.Conflict, error) {
	f.record("ListConflicts")
	if f.ListConflictsFunc != nil {
		return f.ListConflictsFunc(ctx, db, tournamentID)
	}
	return nil, nil
}

func (f *FakeRepository) SetTeamAvailability(ctx context.Context, db bun.IDB, a *tournamentdb.TeamAvailability) error {
	f.record("SetTeamAvailability")
	if f.SetTeamAvailabilityFunc != nil {
		return f.SetTeamAvailabilityFunc(ctx, db, a)
	}
	return nil
}

func (f *FakeRepository) SetJudgeAvailability(ctx context.Context, db bun.IDB, a *tournamentdb.JudgeAvailability) error {
	f.record("SetJudgeAvailability")
	if f.SetJudgeAvailabilityFunc != nil {
		return f.SetJudgeAvailabilityFunc(ctx, db, a)
	}
	return nil
}

func (f *FakeRepository) ListTeamAvailability(ctx context.Context, db bun.IDB, roundID string) (map[string]bool, error) {
	f.record("ListTeamAvailability")
	if f.ListTeamAvailabilityFunc != nil {
		return f.ListTeamAvailabilityFunc(ctx, db, roundID)
	}
	return nil, nil
}

func (f *FakeRepository) ListJudgeAvailability(ctx context.Context, db bun.IDB, roundID string) (map[string]bool, error) {
	f.record("ListJudgeAvailability")
	if f.ListJudgeAvailabilityFunc != nil {
		return f.ListJudgeAvailabilityFunc(ctx, db, roundID)
	}
	return nil, nil
}

func (f *FakeRepository) CreateRoom(ctx context.Context, db bun.IDB, r *tournamentdb.Room) error {
	f.record("CreateRoom")
	if f.CreateRoomFunc != nil {
		return f.CreateRoomFunc(ctx, db, r)
	}
	return nil
}

func (f *FakeRepository) GetRoom(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Room, error) {
	f.record("GetRoom")
	if f.GetRoomFunc != nil {
		return f.GetRoomFunc(ctx, db, id)
	}
	return nil, tournamentdb.ErrNotFound
}

func (f *FakeRepository) ListRooms(ctx context.Context, db bun.IDB, tournamentID string) ([]tournamentdb.Room, error) {
	f.record("ListRooms")
	if f.ListRoomsFunc != nil {
		return f.ListRoomsFunc(ctx, db, tournamentID)
	}
	return nil, nil
}

func (f *FakeRepository) CreateRoomCategory(ctx context.Context, db bun.IDB, c *tournamentdb.RoomCategory) error {
	f.record("CreateRoomCategory")
	if f.CreateRoomCategoryFunc != nil {
		return f.CreateRoomCategoryFunc(ctx, db, c)
	}
	return nil
}

func (f *FakeRepository) GetRoomCategory(ctx context.Context, db bun.IDB, id string) (*tournamentdb.RoomCategory, error) {
	f.record("GetRoomCategory")
	if f.GetRoomCategoryFunc != nil {
		return f.GetRoomCategoryFunc(ctx, db, id)
	}
	return nil, tournamentdb.ErrNotFound
}

func (f *FakeRepository) AddRoomToCategory(ctx context.Context, db bun.IDB, m *tournamentdb.RoomCategoryMember) error {
	f.record("AddRoomToCategory")
	if f.AddRoomToCategoryFunc != nil {
		return f.AddRoomToCategoryFunc(ctx, db, m)
	}
	return nil
}

func (f *FakeRepository) ListRoomCategories(ctx context.Context, db bun.IDB, tournamentID string) (map[string][]string, error) {
	f.record("ListRoomCategories")
	if f.ListRoomCategoriesFunc != nil {
		return f.ListRoomCategoriesFunc(ctx, db, tournamentID)
	}
	return nil, nil
}

func (f *FakeRepository) SetRoomPreference(ctx context.Context, db bun.IDB, p *tournamentdb.RoomPreference) error {
	f.record("SetRoomPreference")
	if f.SetRoomPreferenceFunc != nil {
		return f.SetRoomPreferenceFunc(ctx, db, p)
	}
	return nil
}

func (f *FakeRepository) ListRoomPreferences(ctx context.Context, db bun.IDB, tournamentID string) (map[string]map[string]int, error) {
	f.record("ListRoomPreferences")
	if f.ListRoomPreferencesFunc != nil {
		return f.ListRoomPreferencesFunc(ctx, db, tournamentID)
	}
	return nil, nil
}

func (f *FakeRepository) GetDrawByRound(ctx context.Context, db bun.IDB, roundID string) (*tournamentdb.Draw, error) {
	f.record("GetDrawByRound")
	if f.GetDrawByRoundFunc != nil {
		return f.GetDrawByRoundFunc(ctx, db, roundID)
	}
	return nil, tournamentdb.ErrNotFound
}

func (f *FakeRepository) InsertDraw(ctx context.Context, db bun.IDB, d *tournamentdb.Draw, debates []*tournamentdb.Debate, teams []*tournamentdb.TeamOfDebate, judges []*tournamentdb.JudgeOfDebate) error {
	f.record("InsertDraw")
	if f.InsertDrawFunc != nil {
		return f.InsertDrawFunc(ctx, db, d, debates, teams, judges)
	}
	return nil
}

func (f *FakeRepository) DeleteDrawForRound(ctx context.Context, db bun.IDB, roundID string) error {
	f.record("DeleteDrawForRound")
	if f.DeleteDrawForRoundFunc != nil {
		return f.DeleteDrawForRoundFunc(ctx, db, roundID)
	}
	return nil
}

func (f *FakeRepository) MarkDrawReleased(ctx context.Context, db bun.IDB, roundID string, at time.Time) error {
	f.record("MarkDrawReleased")
	if f.MarkDrawReleasedFunc != nil {
		return f.MarkDrawReleasedFunc(ctx, db, roundID, at)
	}
	return nil
}

func (f *FakeRepository) GetDebate(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Debate, error) {
	f.record("GetDebate")
	if f.GetDebateFunc != nil {
		return f.GetDebateFunc(ctx, db, id)
	}
	return nil, tournamentdb.ErrNotFound
}

func (f *FakeRepository) ListDebates(ctx context.Context, db bun.IDB, roundID string) ([]tournamentdb.Debate, error) {
	f.record("ListDebates")
	if f.ListDebatesFunc != nil {
		return f.ListDebatesFunc(ctx, db, roundID)
	}
	return nil, nil
}

func (f *FakeRepository) ListTeamsOfDebates(ctx context.Context, db bun.IDB, debateIDs []string) ([]tournamentdb.TeamOfDebate, error) {
	f.record("ListTeamsOfDebates")
	if f.ListTeamsOfDebatesFunc != nil {
		return f.ListTeamsOfDebatesFunc(ctx, db, debateIDs)
	}
	return nil, nil
}

func (f *FakeRepository) ListJudgesOfDebates(ctx context.Context, db bun.IDB, debateIDs []string) ([]tournamentdb.JudgeOfDebate, error) {
	f.record("ListJudgesOfDebates")
	if f.ListJudgesOfDebatesFunc != nil {
		return f.ListJudgesOfDebatesFunc(ctx, db, debateIDs)
	}
	return nil, nil
}

func (f *FakeRepository) SetDebateRoom(ctx context.Context, db bun.IDB, debateID string, roomID *string) error {
	f.record("SetDebateRoom")
	if f.SetDebateRoomFunc != nil {
		return f.SetDebateRoomFunc(ctx, db, debateID, roomID)
	}
	return nil
}

func (f *FakeRepository) ClearRoom(ctx context.Context, db bun.IDB, roomID string, roundIDs []string) ([]string, error) {
	f.record("ClearRoom")
	if f.ClearRoomFunc != nil {
		return f.ClearRoomFunc(ctx, db, roomID, roundIDs)
	}
	return nil, nil
}

func (f *FakeRepository) ListSlotHistory(ctx context.Context, db bun.IDB, tournamentID string, beforeSeq int) ([]tournamentdb.SlotRecord, error) {
	f.record("ListSlotHistory")
	if f.ListSlotHistoryFunc != nil {
		return f.ListSlotHistoryFunc(ctx, db, tournamentID, beforeSeq)
	}
	return nil, nil
}

func (f *FakeRepository) ListCompletedResults(ctx context.Context, db bun.IDB, tournamentID string) ([]tournamentdb.TeamResultRecord, []tournamentdb.SpeakerResultRecord, error) {
	f.record("ListCompletedResults")
	if f.ListCompletedResultsFunc != nil {
		return f.ListCompletedResultsFunc(ctx, db, tournamentID)
	}
	return nil, nil, nil
}

func (f *FakeRepository) CountCompletedRounds(ctx context.Context, db bun.IDB, tournamentID string, kind tabtypes.RoundKind, beforeSeq int) (int, error) {
	f.record("CountCompletedRounds")
	if f.CountCompletedRoundsFunc != nil {
		return f.CountCompletedRoundsFunc(ctx, db, tournamentID, kind, beforeSeq)
	}
	return 0, nil
}

func (f *FakeRepository) CreateMotion(ctx context.Context, db bun.IDB, m *tournamentdb.Motion) error {
	f.record("CreateMotion")
	if f.CreateMotionFunc != nil {
		return f.CreateMotionFunc(ctx, db, m)
	}
	return nil
}

func (f *FakeRepository) GetMotion(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Motion, error) {
	f.record("GetMotion")
	if f.GetMotionFunc != nil {
		return f.GetMotionFunc(ctx, db, id)
	}
	return nil, tournamentdb.ErrNotFound
}

func (f *FakeRepository) NextBallotVersion(ctx context.Context, db bun.IDB, debateID, judgeID string) (int, error) {
	f.record("NextBallotVersion")
	if f.NextBallotVersionFunc != nil {
		return f.NextBallotVersionFunc(ctx, db, debateID, judgeID)
	}
	return 0, nil
}

func (f *FakeRepository) InsertBallot(ctx context.Context, db bun.IDB, b *tournamentdb.Ballot) error {
	f.record("InsertBallot")
	if f.InsertBallotFunc != nil {
		return f.InsertBallotFunc(ctx, db, b)
	}
	return nil
}

func (f *FakeRepository) ListLatestBallots(ctx context.Context, db bun.IDB, debateID string) ([]*tournamentdb.Ballot, error) {
	f.record("ListLatestBallots")
	if f.ListLatestBallotsFunc != nil {
		return f.ListLatestBallotsFunc(ctx, db, debateID)
	}
	return nil, nil
}

func (f *FakeRepository) ConfirmBallots(ctx context.Context, db bun.IDB, ballotIDs []string, at time.Time) error {
	f.record("ConfirmBallots")
	if f.ConfirmBallotsFunc != nil {
		return f.ConfirmBallotsFunc(ctx, db, ballotIDs, at)
	}
	return nil
}

func (f *FakeRepository) CountUnconfirmedDebates(ctx context.Context, db bun.IDB, roundID string) (int, error) {
	f.record("CountUnconfirmedDebates")
	if f.CountUnconfirmedDebatesFunc != nil {
		return f.CountUnconfirmedDebatesFunc(ctx, db, roundID)
	}
	return 0, nil
}

func (f *FakeRepository) ReplaceAggregates(ctx context.Context, db bun.IDB, debateID string, teams []*tournamentdb.AggTeamResult, speakers []*tournamentdb.AggSpeakerResult) error {
	f.record("ReplaceAggregates")
	if f.ReplaceAggregatesFunc != nil {
		return f.ReplaceAggregatesFunc(ctx, db, debateID, teams, speakers)
	}
	return nil
}

func (f *FakeRepository) InsertTicket(ctx context.Context, db bun.IDB, t *tournamentdb.Ticket) error {
	f.record("InsertTicket")
	if f.InsertTicketFunc != nil {
		return f.InsertTicketFunc(ctx, db, t)
	}
	return nil
}

func (f *FakeRepository) GetTicket(ctx context.Context, db bun.IDB, id string) (*tournamentdb.Ticket, error) {
	f.record("GetTicket")
	if f.GetTicketFunc != nil {
		return f.GetTicketFunc(ctx, db, id)
	}
	return nil, tournamentdb.ErrNotFound
}

func (f *FakeRepository) LatestTicket(ctx context.Context, db bun.IDB, roundID string) (*tournamentdb.Ticket, error) {
	f.record("LatestTicket")
	if f.LatestTicketFunc != nil {
		return f.LatestTicketFunc(ctx, db, roundID)
	}
	return nil, tournamentdb.ErrNotFound
}

func (f *FakeRepository) CancelTickets(ctx context.Context, db bun.IDB, roundID string) error {
	f.record("CancelTickets")
	if f.CancelTicketsFunc != nil {
		return f.CancelTicketsFunc(ctx, db, roundID)
	}
	return nil
}

func (f *FakeRepository) ReleaseTicket(ctx context.Context, db bun.IDB, ticketID string, errMsg *string) error {
	f.record("ReleaseTicket")
	if f.ReleaseTicketFunc != nil {
		return f.ReleaseTicketFunc(ctx, db, ticketID, errMsg)
	}
	return nil
}

var _ tournamentdb.Repository = (*FakeRepository)(nil)

