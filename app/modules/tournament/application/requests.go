package tournamentservice

import (
	"github.com/shopspring/decimal"

	"github.com/abacus-tab/abacus/app/modules/tournament/domain/standings"
	tabtypes "github.com/abacus-tab/abacus/app/modules/tournament/domain/types"
	tournamentdb "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/repositories"
)

type CreateTournamentRequest struct {
	Name                    string               `json:"name"`
	Slug                    string               `json:"slug"`
	TeamsPerSide            int                  `json:"teams_per_side"`
	SubstantiveSpeakers     int                  `json:"substantive_speakers"`
	ReplySpeakers           bool                 `json:"reply_speakers"`
	PoolBallotSetup         tabtypes.BallotSetup `json:"pool_ballot_setup"`
	ElimBallotSetup         tabtypes.BallotSetup `json:"elim_ballot_setup"`
	InstitutionPenalty      int                  `json:"institution_penalty"`
	HistoryPenalty          int                  `json:"history_penalty"`
	PullupMetrics           []string             `json:"pullup_metrics"`
	TeamStandingsMetrics    []string             `json:"team_standings_metrics"`
	SpeakerStandingsMetrics []string             `json:"speaker_standings_metrics"`
	SubstantiveMinSpeak     *decimal.Decimal     `json:"substantive_min_speak,omitempty"`
	SubstantiveMaxSpeak     *decimal.Decimal     `json:"substantive_max_speak,omitempty"`
	SubstantiveSpeakStep    *decimal.Decimal     `json:"substantive_speak_step,omitempty"`
	ReplyMinSpeak           *decimal.Decimal     `json:"reply_min_speak,omitempty"`
	ReplyMaxSpeak           *decimal.Decimal     `json:"reply_max_speak,omitempty"`
}

type CreateRoundRequest struct {
	TournamentID string             `json:"tournament_id"`
	Seq          int                `json:"seq"`
	Kind         tabtypes.RoundKind `json:"kind"`
	Name         string             `json:"name"`
}

type CreateInstitutionRequest struct {
	TournamentID string `json:"tournament_id"`
	Name         string `json:"name"`
	Code         string `json:"code"`
}

type SpeakerInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type RegisterTeamRequest struct {
	TournamentID  string         `json:"tournament_id"`
	Name          string         `json:"name"`
	InstitutionID *string        `json:"institution_id,omitempty"`
	Speakers      []SpeakerInput `json:"speakers"`
}

// TeamView is a registered team with its speakers.
type TeamView struct {
	Team     *tournamentdb.Team          `json:"team"`
	Speakers []*tournamentdb.Speaker     `json:"speakers"`
	People   []*tournamentdb.Participant `json:"participants"`
}

type RegisterJudgeRequest struct {
	TournamentID  string  `json:"tournament_id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	InstitutionID *string `json:"institution_id,omitempty"`
	Rating        int     `json:"rating"`
}

// JudgeView is a registered judge with its participant record.
type JudgeView struct {
	Judge       *tournamentdb.Judge       `json:"judge"`
	Participant *tournamentdb.Participant `json:"participant"`
}

// AddConflictRequest binds two teams (TT), a judge and a team (JT, judge
// first) or two judges (JJ).
type AddConflictRequest struct {
	TournamentID string                `json:"tournament_id"`
	Kind         tabtypes.ConflictKind `json:"kind"`
	AID          string                `json:"a_id"`
	BID          string                `json:"b_id"`
}

type CreateRoomRequest struct {
	TournamentID string   `json:"tournament_id"`
	Name         string   `json:"name"`
	Priority     int      `json:"priority"`
	CategoryIDs  []string `json:"category_ids"`
}

type CreateRoomCategoryRequest struct {
	TournamentID string `json:"tournament_id"`
	Name         string `json:"name"`
}

type RoomPreferenceRequest struct {
	TournamentID  string `json:"tournament_id"`
	ParticipantID string `json:"participant_id"`
	CategoryID    string `json:"category_id"`
	Level         int    `json:"level"`
}

type CreateMotionRequest struct {
	RoundID   string `json:"round_id"`
	Text      string `json:"text"`
	InfoSlide string `json:"info_slide"`
}

// AvailabilityRequest toggles a team or judge for a round. SubjectID is
// the team or judge id.
type AvailabilityRequest struct {
	RoundID   string `json:"round_id"`
	SubjectID string `json:"subject_id"`
	Available bool   `json:"available"`
}

// GenerateDrawRequest starts draw generation. An empty Algorithm picks
// random for the opening preliminary round and power pairing afterwards.
// Force regenerates over a drafted draw or takes over a live ticket.
type GenerateDrawRequest struct {
	RoundID   string  `json:"round_id"`
	Algorithm string  `json:"algorithm,omitempty"`
	Force     bool    `json:"force"`
	Seed      *uint64 `json:"seed,omitempty"`
}

// MoveRoomRequest assigns RoomID to ToDebateID, clearing it from every
// debate of RoundIDs first. A nil ToDebateID leaves the room unassigned.
type MoveRoomRequest struct {
	RoomID     string   `json:"room_id"`
	ToDebateID *string  `json:"to_debate_id,omitempty"`
	RoundIDs   []string `json:"round_ids"`
}

// TeamRankInput is a team's outcome on a ballot. Advancing is read for
// elimination debates only.
type TeamRankInput struct {
	TeamID    string `json:"team_id"`
	Advancing bool   `json:"advancing"`
}

type SpeakerScoreInput struct {
	SpeakerID string          `json:"speaker_id"`
	TeamID    string          `json:"team_id"`
	Position  int             `json:"position"`
	Score     decimal.Decimal `json:"score"`
	Reply     bool            `json:"reply"`
}

type SubmitBallotRequest struct {
	DebateID string              `json:"debate_id"`
	JudgeID  string              `json:"judge_id"`
	MotionID *string             `json:"motion_id,omitempty"`
	Teams    []TeamRankInput     `json:"teams"`
	Scores   []SpeakerScoreInput `json:"scores"`
}

// ConfirmBallotResult reports a confirmation and whether the round can now
// be completed.
type ConfirmBallotResult struct {
	DebateID       string                           `json:"debate_id"`
	RoundID        string                           `json:"round_id"`
	TeamResults    []*tournamentdb.AggTeamResult    `json:"team_results"`
	SpeakerResults []*tournamentdb.AggSpeakerResult `json:"speaker_results"`
	AllConfirmed   bool                             `json:"all_confirmed"`
	ResultsVersion int64                            `json:"results_version"`
}

// StandingsReport is a standings snapshot at a results version.
type StandingsReport struct {
	TournamentID string                      `json:"tournament_id"`
	Version      int64                       `json:"version"`
	Teams        *standings.TeamStandings    `json:"teams"`
	Speakers     *standings.SpeakerStandings `json:"speakers"`
}
