package tournamentservice

import (
	"context"

	tabtypes "github.com/abacus-tab/abacus/app/modules/tournament/domain/types"
	tournamentdb "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/repositories"
)

// Service is the round engine's programmatic surface. Expected failures
// are *apperr.Error values; anything else is an internal error.
type Service interface {
	// --- Setup ---

	CreateTournament(ctx context.Context, req CreateTournamentRequest) (*tournamentdb.Tournament, error)
	CreateRound(ctx context.Context, req CreateRoundRequest) (*tournamentdb.Round, error)
	CreateInstitution(ctx context.Context, req CreateInstitutionRequest) (*tournamentdb.Institution, error)
	RegisterTeam(ctx context.Context, req RegisterTeamRequest) (*TeamView, error)
	RegisterJudge(ctx context.Context, req RegisterJudgeRequest) (*JudgeView, error)
	AddConflict(ctx context.Context, req AddConflictRequest) (*tournamentdb.Conflict, error)
	CreateRoom(ctx context.Context, req CreateRoomRequest) (*tournamentdb.Room, error)
	CreateRoomCategory(ctx context.Context, req CreateRoomCategoryRequest) (*tournamentdb.RoomCategory, error)
	SetRoomPreference(ctx context.Context, req RoomPreferenceRequest) error
	CreateMotion(ctx context.Context, req CreateMotionRequest) (*tournamentdb.Motion, error)
	SetTeamAvailability(ctx context.Context, req AvailabilityRequest) error
	SetJudgeAvailability(ctx context.Context, req AvailabilityRequest) error

	// --- Round lifecycle ---

	// GenerateDraw runs the ticket protocol: acquire, compute, commit.
	GenerateDraw(ctx context.Context, req GenerateDrawRequest) (*tabtypes.DrawRepr, error)
	CancelDraw(ctx context.Context, roundID string) error
	ReleaseDraw(ctx context.Context, roundID string) (*tabtypes.DrawRepr, error)
	StartRound(ctx context.Context, roundID string) error
	CompleteRound(ctx context.Context, roundID string) error
	GetDraw(ctx context.Context, roundID string) (*tabtypes.DrawRepr, error)
	GetRound(ctx context.Context, roundID string) (*tournamentdb.Round, error)

	// --- Rooms ---

	AllocateRooms(ctx context.Context, roundID string) (*tabtypes.DrawRepr, error)
	MoveRoom(ctx context.Context, req MoveRoomRequest) error

	// --- Ballots ---

	SubmitBallot(ctx context.Context, req SubmitBallotRequest) (*tournamentdb.Ballot, error)
	ConfirmBallot(ctx context.Context, debateID string) (*ConfirmBallotResult, error)
	DebateTournament(ctx context.Context, debateID string) (string, error)

	// --- Standings ---

	RecomputeStandings(ctx context.Context, tournamentID string) (*StandingsReport, error)
	Tab(ctx context.Context, tournamentID string) (*TabReport, error)
}

var _ Service = (*TournamentService)(nil)
