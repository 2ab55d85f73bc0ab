package tournamenthandlers

import (
	"context"
	"sync"

	tournamentservice "github.com/abacus-tab/abacus/app/modules/tournament/application"
	tabtypes "github.com/abacus-tab/abacus/app/modules/tournament/domain/types"
	tournamentqueue "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/queue"
	tournamentdb "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/repositories"
	"github.com/abacus-tab/abacus/pkg/apperr"
)

// FakeService is a programmable tournamentservice.Service.
type FakeService struct {
	mu    sync.Mutex
	trace []string

	CreateTournamentFunc     func(ctx context.Context, req tournamentservice.CreateTournamentRequest) (*tournamentdb.Tournament, error)
	CreateRoundFunc          func(ctx context.Context, req tournamentservice.CreateRoundRequest) (*tournamentdb.Round, error)
	CreateInstitutionFunc    func(ctx context.Context, req tournamentservice.CreateInstitutionRequest) (*tournamentdb.Institution, error)
	RegisterTeamFunc         func(ctx context.Context, req tournamentservice.RegisterTeamRequest) (*tournamentservice.TeamView, error)
	RegisterJudgeFunc        func(ctx context.Context, req tournamentservice.RegisterJudgeRequest) (*tournamentservice.JudgeView, error)
	AddConflictFunc          func(ctx context.Context, req tournamentservice.AddConflictRequest) (*tournamentdb.Conflict, error)
	CreateRoomFunc           func(ctx context.Context, req tournamentservice.CreateRoomRequest) (*tournamentdb.Room, error)
	CreateRoomCategoryFunc   func(ctx context.Context, req tournamentservice.CreateRoomCategoryRequest) (*tournamentdb.RoomCategory, error)
	SetRoomPreferenceFunc    func(ctx context.Context, req tournamentservice.RoomPreferenceRequest) error
	CreateMotionFunc         func(ctx context.Context, req tournamentservice.CreateMotionRequest) (*tournamentdb.Motion, error)
	SetTeamAvailabilityFunc  func(ctx context.Context, req tournamentservice.AvailabilityRequest) error
	SetJudgeAvailabilityFunc func(ctx context.Context, req tournamentservice.AvailabilityRequest) error
	GenerateDrawFunc         func(ctx context.Context, req tournamentservice.GenerateDrawRequest) (*tabtypes.DrawRepr, error)
	CancelDrawFunc           func(ctx context.Context, roundID string) error
	ReleaseDrawFunc          func(ctx context.Context, roundID string) (*tabtypes.DrawRepr, error)
	StartRoundFunc           func(ctx context.Context, roundID string) error
	CompleteRoundFunc        func(ctx context.Context, roundID string) error
	GetDrawFunc              func(ctx context.Context, roundID string) (*tabtypes.DrawRepr, error)
	GetRoundFunc             func(ctx context.Context, roundID string) (*tournamentdb.Round, error)
	AllocateRoomsFunc        func(ctx context.Context, roundID string) (*tabtypes.DrawRepr, error)
	MoveRoomFunc             func(ctx context.Context, req tournamentservice.MoveRoomRequest) error
	SubmitBallotFunc         func(ctx context.Context, req tournamentservice.SubmitBallotRequest) (*tournamentdb.Ballot, error)
	ConfirmBallotFunc        func(ctx context.Context, debateID string) (*tournamentservice.ConfirmBallotResult, error)
	DebateTournamentFunc     func(ctx context.Context, debateID string) (string, error)
	RecomputeStandingsFunc   func(ctx context.Context, tournamentID string) (*tournamentservice.StandingsReport, error)
	TabFunc                  func(ctx context.Context, tournamentID string) (*tournamentservice.TabReport, error)
}

var _ tournamentservice.Service = (*FakeService)(nil)

func (f *FakeService) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, name)
}

func (f *FakeService) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.trace...)
}

func (f *FakeService) CreateTournament(ctx context.Context, req tournamentservice.CreateTournamentRequest) (*tournamentdb.Tournament, error) {
	f.record("CreateTournament")
	if f.CreateTournamentFunc != nil {
		return f.CreateTournamentFunc(ctx, req)
	}
	return nil, nil
}

func (f *FakeService) CreateRound(ctx context.Context, req tournamentservice.CreateRoundRequest) (*tournamentdb.Round, error) {
	f.record("CreateRound")
	if f.CreateRoundFunc != nil {
		return f.CreateRoundFunc(ctx, req)
	}
	return nil, nil
}

func (f *FakeService) CreateInstitution(ctx context.Context, req tournamentservice.CreateInstitutionRequest) (*tournamentdb.Institution, error) {
	f.record("CreateInstitution")
	if f.CreateInstitutionFunc != nil {
		return f.CreateInstitutionFunc(ctx, req)
	}
	return nil, nil
}

func (f *FakeService) RegisterTeam(ctx context.Context, req tournamentservice.RegisterTeamRequest) (*tournamentservice.TeamView, error) {
	f.record("RegisterTeam")
	if f.RegisterTeamFunc != nil {
		return f.RegisterTeamFunc(ctx, req)
	}
	return nil, nil
}

func (f *FakeService) RegisterJudge(ctx context.Context, req tournamentservice.RegisterJudgeRequest) (*tournamentservice.JudgeView, error) {
	f.record("RegisterJudge")
	if f.RegisterJudgeFunc != nil {
		return f.RegisterJudgeFunc(ctx, req)
	}
	return nil, nil
}

func (f *FakeService) AddConflict(ctx context.Context, req tournamentservice.AddConflictRequest) (*tournamentdb.Conflict, error) {
	f.record("AddConflict")
	if f.AddConflictFunc != nil {
		return f.AddConflictFunc(ctx, req)
	}
	return nil, nil
}

func (f *FakeService) CreateRoom(ctx context.Context, req tournamentservice.CreateRoomRequest) (*tournamentdb.Room, error) {
	f.record("CreateRoom")
	if f.CreateRoomFunc != nil {
		return f.CreateRoomFunc(ctx, req)
	}
	return nil, nil
}

func (f *FakeService) CreateRoomCategory(ctx context.Context, req tournamentservice.CreateRoomCategoryRequest) (*tournamentdb.RoomCategory, error) {
	f.record("CreateRoomCategory")
	if f.CreateRoomCategoryFunc != nil {
		return f.CreateRoomCategoryFunc(ctx, req)
	}
	return nil, nil
}

func (f *FakeService) SetRoomPreference(ctx context.Context, req tournamentservice.RoomPreferenceRequest) error {
	f.record("SetRoomPreference")
	if f.SetRoomPreferenceFunc != nil {
		return f.SetRoomPreferenceFunc(ctx, req)
	}
	return nil
}

func (f *FakeService) CreateMotion(ctx context.Context, req tournamentservice.CreateMotionRequest) (*tournamentdb.Motion, error) {
	f.record("CreateMotion")
	if f.CreateMotionFunc != nil {
		return f.CreateMotionFunc(ctx, req)
	}
	return nil, nil
}

func (f *FakeService) SetTeamAvailability(ctx context.Context, req tournamentservice.AvailabilityRequest) error {
	f.record("SetTeamAvailability")
	if f.SetTeamAvailabilityFunc != nil {
		return f.SetTeamAvailabilityFunc(ctx, req)
	}
	return nil
}

func (f *FakeService) SetJudgeAvailability(ctx context.Context, req tournamentservice.AvailabilityRequest) error {
	f.record("SetJudgeAvailability")
	if f.SetJudgeAvailabilityFunc != nil {
		return f.SetJudgeAvailabilityFunc(ctx, req)
	}
	return nil
}

func (f *FakeService) GenerateDraw(ctx context.Context, req tournamentservice.GenerateDrawRequest) (*tabtypes.DrawRepr, error) {
	f.record("GenerateDraw")
	if f.GenerateDrawFunc != nil {
		return f.GenerateDrawFunc(ctx, req)
	}
	return nil, nil
}

func (f *FakeService) CancelDraw(ctx context.Context, roundID string) error {
	f.record("CancelDraw")
	if f.CancelDrawFunc != nil {
		return f.CancelDrawFunc(ctx, roundID)
	}
	return nil
}

func (f *FakeService) ReleaseDraw(ctx context.Context, roundID string) (*tabtypes.DrawRepr, error) {
	f.record("ReleaseDraw")
	if f.ReleaseDrawFunc != nil {
		return f.ReleaseDrawFunc(ctx, roundID)
	}
	return nil, nil
}

func (f *FakeService) StartRound(ctx context.Context, roundID string) error {
	f.record("StartRound")
	if f.StartRoundFunc != nil {
		return f.StartRoundFunc(ctx, roundID)
	}
	return nil
}

func (f *FakeService) CompleteRound(ctx context.Context, roundID string) error {
	f.record("CompleteRound")
	if f.CompleteRoundFunc != nil {
		return f.CompleteRoundFunc(ctx, roundID)
	}
	return nil
}

func (f *FakeService) GetDraw(ctx context.Context, roundID string) (*tabtypes.DrawRepr, error) {
	f.record("GetDraw")
	if f.GetDrawFunc != nil {
		return f.GetDrawFunc(ctx, roundID)
	}
	return nil, apperr.NotFound("not found")
}

func (f *FakeService) GetRound(ctx context.Context, roundID string) (*tournamentdb.Round, error) {
	f.record("GetRound")
	if f.GetRoundFunc != nil {
		return f.GetRoundFunc(ctx, roundID)
	}
	return nil, apperr.NotFound("not found")
}

func (f *FakeService) AllocateRooms(ctx context.Context, roundID string) (*tabtypes.DrawRepr, error) {
	f.record("AllocateRooms")
	if f.AllocateRoomsFunc != nil {
		return f.AllocateRoomsFunc(ctx, roundID)
	}
	return nil, nil
}

func (f *FakeService) MoveRoom(ctx context.Context, req tournamentservice.MoveRoomRequest) error {
	f.record("MoveRoom")
	if f.MoveRoomFunc != nil {
		return f.MoveRoomFunc(ctx, req)
	}
	return nil
}

func (f *FakeService) SubmitBallot(ctx context.Context, req tournamentservice.SubmitBallotRequest) (*tournamentdb.Ballot, error) {
	f.record("SubmitBallot")
	if f.SubmitBallotFunc != nil {
		return f.SubmitBallotFunc(ctx, req)
	}
	return nil, nil
}

func (f *FakeService) ConfirmBallot(ctx context.Context, debateID string) (*tournamentservice.ConfirmBallotResult, error) {
	f.record("ConfirmBallot")
	if f.ConfirmBallotFunc != nil {
		return f.ConfirmBallotFunc(ctx, debateID)
	}
	return nil, nil
}

func (f *FakeService) DebateTournament(ctx context.Context, debateID string) (string, error) {
	f.record("DebateTournament")
	if f.DebateTournamentFunc != nil {
		return f.DebateTournamentFunc(ctx, debateID)
	}
	return "", apperr.NotFound("not found")
}

func (f *FakeService) RecomputeStandings(ctx context.Context, tournamentID string) (*tournamentservice.StandingsReport, error) {
	f.record("RecomputeStandings")
	if f.RecomputeStandingsFunc != nil {
		return f.RecomputeStandingsFunc(ctx, tournamentID)
	}
	return nil, nil
}

func (f *FakeService) Tab(ctx context.Context, tournamentID string) (*tournamentservice.TabReport, error) {
	f.record("Tab")
	if f.TabFunc != nil {
		return f.TabFunc(ctx, tournamentID)
	}
	return nil, nil
}

// FakeQueue is a programmable DrawQueue.
type FakeQueue struct {
	EnqueueDrawFunc  func(ctx context.Context, job tournamentqueue.GenerateDrawJob) (int64, error)
	ListDrawJobsFunc func(ctx context.Context, roundID string) ([]tournamentqueue.JobInfo, error)
}

func (f *FakeQueue) EnqueueDraw(ctx context.Context, job tournamentqueue.GenerateDrawJob) (int64, error) {
	if f.EnqueueDrawFunc != nil {
		return f.EnqueueDrawFunc(ctx, job)
	}
	return 1, nil
}

func (f *FakeQueue) ListDrawJobs(ctx context.Context, roundID string) ([]tournamentqueue.JobInfo, error) {
	if f.ListDrawJobsFunc != nil {
		return f.ListDrawJobsFunc(ctx, roundID)
	}
	return nil, nil
}
