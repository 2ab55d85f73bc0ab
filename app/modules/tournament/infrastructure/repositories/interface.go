package tournamentdb

import (
	"context"
	"time"

	tabtypes "github.com/abacus-tab/abacus/app/modules/tournament/domain/types"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Repository is the Store Gateway: typed reads and writes for every
// entity the round engine touches. Every method takes the transaction
// handle to run on; a nil handle uses the repository's own connection.
//
// Error semantics:
//   - ErrNotFound: Record does not exist
//   - ErrNoRowsAffected: UPDATE/DELETE matched no rows (lost compare-and-set)
//   - Other errors: Infrastructure failures (DB connection, query errors)
type Repository interface {
	// --- Tournaments and rounds ---

	CreateTournament(ctx context.Context, db bun.IDB, t *Tournament) error
	GetTournament(ctx context.Context, db bun.IDB, id string) (*Tournament, error)
	ListTournaments(ctx context.Context, db bun.IDB) ([]Tournament, error)

	// BumpResultsVersion increments and returns the tournament's results
	// stamp. Standings caches compare against it.
	BumpResultsVersion(ctx context.Context, db bun.IDB, tournamentID string) (int64, error)

	CreateRound(ctx context.Context, db bun.IDB, r *Round) error
	GetRound(ctx context.Context, db bun.IDB, id string) (*Round, error)
	ListRounds(ctx context.Context, db bun.IDB, tournamentID string) ([]Round, error)

	// UpdateRoundStatus moves a round to `to` only if its current status is
	// one of `from`. Returns ErrNoRowsAffected otherwise. Entering released
	// stamps released_at; entering completed sets the completed flag.
	UpdateRoundStatus(ctx context.Context, db bun.IDB, roundID string, from []tabtypes.DrawStatus, to tabtypes.DrawStatus, at time.Time) error

	// --- Participants ---

	CreateInstitution(ctx context.Context, db bun.IDB, i *Institution) error
	ListInstitutions(ctx context.Context, db bun.IDB, tournamentID string) ([]Institution, error)
	CreateTeam(ctx context.Context, db bun.IDB, t *Team) error
	GetTeam(ctx context.Context, db bun.IDB, id string) (*Team, error)
	ListTeams(ctx context.Context, db bun.IDB, tournamentID string) ([]Team, error)
	CreateParticipant(ctx context.Context, db bun.IDB, p *Participant) error
	GetParticipant(ctx context.Context, db bun.IDB, id string) (*Participant, error)
	CreateSpeaker(ctx context.Context, db bun.IDB, s *Speaker) error
	// ListSpeakers returns speakers with their participant loaded.
	ListSpeakers(ctx context.Context, db bun.IDB, tournamentID string) ([]Speaker, error)
	CreateJudge(ctx context.Context, db bun.IDB, j *Judge) error
	GetJudge(ctx context.Context, db bun.IDB, id string) (*Judge, error)
	// ListJudges returns judges with their participant loaded.
	ListJudges(ctx context.Context, db bun.IDB, tournamentID string) ([]Judge, error)
	CreateConflict(ctx context.Context, db bun.IDB, c *Conflict) error
	ListConflicts(ctx context.Context, db bun.IDB, tournamentID string) ([]Conflict, error)

	// --- Availability ---

	SetTeamAvailability(ctx context.Context, db bun.IDB, a *TeamAvailability) error
	SetJudgeAvailability(ctx context.Context, db bun.IDB, a *JudgeAvailability) error
	// ListTeamAvailability returns explicit availability rows keyed by team.
	// Teams without a row are available.
	ListTeamAvailability(ctx context.Context, db bun.IDB, roundID string) (map[string]bool, error)
	ListJudgeAvailability(ctx context.Context, db bun.IDB, roundID string) (map[string]bool, error)

	// --- Rooms ---

	CreateRoom(ctx context.Context, db bun.IDB, r *Room) error
	GetRoom(ctx context.Context, db bun.IDB, id string) (*Room, error)
	ListRooms(ctx context.Context, db bun.IDB, tournamentID string) ([]Room, error)
	CreateRoomCategory(ctx context.Context, db bun.IDB, c *RoomCategory) error
	GetRoomCategory(ctx context.Context, db bun.IDB, id string) (*RoomCategory, error)
	AddRoomToCategory(ctx context.Context, db bun.IDB, m *RoomCategoryMember) error
	// ListRoomCategories maps room id to the ids of categories holding it.
	ListRoomCategories(ctx context.Context, db bun.IDB, tournamentID string) (map[string][]string, error)
	SetRoomPreference(ctx context.Context, db bun.IDB, p *RoomPreference) error
	// ListRoomPreferences maps participant id to category id to level.
	ListRoomPreferences(ctx context.Context, db bun.IDB, tournamentID string) (map[string]map[string]int, error)

	// --- Draws and debates ---

	GetDrawByRound(ctx context.Context, db bun.IDB, roundID string) (*Draw, error)
	// InsertDraw writes a draw with its debates and slot assignments.
	InsertDraw(ctx context.Context, db bun.IDB, d *Draw, debates []*Debate, teams []*TeamOfDebate, judges []*JudgeOfDebate) error
	// DeleteDrawForRound removes a round's draw, debates and assignments.
	DeleteDrawForRound(ctx context.Context, db bun.IDB, roundID string) error
	MarkDrawReleased(ctx context.Context, db bun.IDB, roundID string, at time.Time) error
	GetDebate(ctx context.Context, db bun.IDB, id string) (*Debate, error)
	ListDebates(ctx context.Context, db bun.IDB, roundID string) ([]Debate, error)
	ListTeamsOfDebates(ctx context.Context, db bun.IDB, debateIDs []string) ([]TeamOfDebate, error)
	ListJudgesOfDebates(ctx context.Context, db bun.IDB, debateIDs []string) ([]JudgeOfDebate, error)
	SetDebateRoom(ctx context.Context, db bun.IDB, debateID string, roomID *string) error
	// ClearRoom unsets roomID on every debate of the given rounds that holds
	// it and returns the rounds that changed.
	ClearRoom(ctx context.Context, db bun.IDB, roomID string, roundIDs []string) ([]string, error)

	// --- History ---

	// ListSlotHistory returns every team slot of debates in rounds of the
	// tournament with seq lower than beforeSeq.
	ListSlotHistory(ctx context.Context, db bun.IDB, tournamentID string, beforeSeq int) ([]SlotRecord, error)
	// ListCompletedResults returns the aggregated results of completed
	// preliminary rounds.
	ListCompletedResults(ctx context.Context, db bun.IDB, tournamentID string) ([]TeamResultRecord, []SpeakerResultRecord, error)
	// CountCompletedRounds counts completed rounds of a kind with seq lower
	// than beforeSeq.
	CountCompletedRounds(ctx context.Context, db bun.IDB, tournamentID string, kind tabtypes.RoundKind, beforeSeq int) (int, error)

	// --- Motions and ballots ---

	CreateMotion(ctx context.Context, db bun.IDB, m *Motion) error
	GetMotion(ctx context.Context, db bun.IDB, id string) (*Motion, error)
	// NextBallotVersion returns one more than the judge's latest version
	// for the debate.
	NextBallotVersion(ctx context.Context, db bun.IDB, debateID, judgeID string) (int, error)
	InsertBallot(ctx context.Context, db bun.IDB, b *Ballot) error
	// ListLatestBallots returns the newest ballot of each judge for the
	// debate, with ranks and scores loaded, ordered by judge id.
	ListLatestBallots(ctx context.Context, db bun.IDB, debateID string) ([]*Ballot, error)
	ConfirmBallots(ctx context.Context, db bun.IDB, ballotIDs []string, at time.Time) error
	// CountUnconfirmedDebates counts debates of the round lacking a
	// confirmed ballot.
	CountUnconfirmedDebates(ctx context.Context, db bun.IDB, roundID string) (int, error)
	// ReplaceAggregates overwrites a debate's derived team and speaker
	// results.
	ReplaceAggregates(ctx context.Context, db bun.IDB, debateID string, teams []*AggTeamResult, speakers []*AggSpeakerResult) error

	// --- Draw tickets ---

	InsertTicket(ctx context.Context, db bun.IDB, t *Ticket) error
	GetTicket(ctx context.Context, db bun.IDB, id string) (*Ticket, error)
	// LatestTicket returns the highest-seq ticket of the round.
	LatestTicket(ctx context.Context, db bun.IDB, roundID string) (*Ticket, error)
	// CancelTickets flags every live ticket of the round cancelled.
	CancelTickets(ctx context.Context, db bun.IDB, roundID string) error
	// ReleaseTicket marks the ticket released, recording errMsg if set.
	ReleaseTicket(ctx context.Context, db bun.IDB, ticketID string, errMsg *string) error
}

// SlotRecord is one historical team slot.
type SlotRecord struct {
	DebateID string `bun:"debate_id"`
	RoundSeq int    `bun:"round_seq"`
	TeamID   string `bun:"team_id"`
	Side     int    `bun:"side"`
	Seq      int    `bun:"seq"`
}

// TeamResultRecord is an aggregated team result with its round.
type TeamResultRecord struct {
	DebateID string `bun:"debate_id"`
	RoundSeq int    `bun:"round_seq"`
	TeamID   string `bun:"team_id"`
	Points   int    `bun:"points"`
}

// SpeakerResultRecord is an aggregated speech with its round.
type SpeakerResultRecord struct {
	DebateID  string          `bun:"debate_id"`
	RoundSeq  int             `bun:"round_seq"`
	TeamID    string          `bun:"team_id"`
	SpeakerID string          `bun:"speaker_id"`
	Position  int             `bun:"position"`
	Score     decimal.Decimal `bun:"score"`
	Reply     bool            `bun:"reply"`
}
