package tournamentdb

import (
	"time"

	tabtypes "github.com/abacus-tab/abacus/app/modules/tournament/domain/types"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Tournament is the tournament-scope configuration row.
type Tournament struct {
	bun.BaseModel `bun:"table:tournaments,alias:t"`

	ID                      string               `bun:"id,pk"`
	Name                    string               `bun:"name,notnull"`
	Slug                    string               `bun:"slug,notnull,unique"`
	TeamsPerSide            int                  `bun:"teams_per_side,notnull"`
	SubstantiveSpeakers     int                  `bun:"substantive_speakers,notnull"`
	ReplySpeakers           bool                 `bun:"reply_speakers,notnull"`
	PoolBallotSetup         tabtypes.BallotSetup `bun:"pool_ballot_setup,notnull"`
	ElimBallotSetup         tabtypes.BallotSetup `bun:"elim_ballot_setup,notnull"`
	InstitutionPenalty      int                  `bun:"institution_penalty,notnull"`
	HistoryPenalty          int                  `bun:"history_penalty,notnull"`
	PullupMetrics           []string             `bun:"pullup_metrics,type:jsonb"`
	TeamStandingsMetrics    []string             `bun:"team_standings_metrics,type:jsonb"`
	SpeakerStandingsMetrics []string             `bun:"speaker_standings_metrics,type:jsonb"`
	SubstantiveMinSpeak     decimal.NullDecimal  `bun:"substantive_speech_min_speak,type:numeric"`
	SubstantiveMaxSpeak     decimal.NullDecimal  `bun:"substantive_speech_max_speak,type:numeric"`
	SubstantiveSpeakStep    decimal.NullDecimal  `bun:"substantive_speech_step,type:numeric"`
	ReplyMinSpeak           decimal.NullDecimal  `bun:"reply_speech_min_speak,type:numeric"`
	ReplyMaxSpeak           decimal.NullDecimal  `bun:"reply_speech_max_speak,type:numeric"`
	ResultsVersion          int64                `bun:"results_version,notnull,default:0"`
	CreatedAt               time.Time            `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func nullable(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

// Config projects the row onto the engine's configuration type.
func (t *Tournament) Config() tabtypes.TournamentConfig {
	return tabtypes.TournamentConfig{
		ID:                      t.ID,
		TeamsPerSide:            t.TeamsPerSide,
		SubstantiveSpeakers:     t.SubstantiveSpeakers,
		ReplySpeakers:           t.ReplySpeakers,
		PoolBallotSetup:         t.PoolBallotSetup,
		ElimBallotSetup:         t.ElimBallotSetup,
		InstitutionPenalty:      t.InstitutionPenalty,
		HistoryPenalty:          t.HistoryPenalty,
		PullupMetrics:           t.PullupMetrics,
		TeamStandingsMetrics:    t.TeamStandingsMetrics,
		SpeakerStandingsMetrics: t.SpeakerStandingsMetrics,
		SubstantiveMinSpeak:     nullable(t.SubstantiveMinSpeak),
		SubstantiveMaxSpeak:     nullable(t.SubstantiveMaxSpeak),
		SubstantiveSpeakStep:    nullable(t.SubstantiveSpeakStep),
		ReplyMinSpeak:           nullable(t.ReplyMinSpeak),
		ReplyMaxSpeak:           nullable(t.ReplyMaxSpeak),
	}
}

// Round is one scheduled set of debates.
type Round struct {
	bun.BaseModel `bun:"table:rounds,alias:r"`

	ID           string              `bun:"id,pk"`
	TournamentID string              `bun:"tournament_id,notnull"`
	Seq          int                 `bun:"seq,notnull"`
	Kind         tabtypes.RoundKind  `bun:"kind,notnull"`
	Name         string              `bun:"name,notnull"`
	DrawStatus   tabtypes.DrawStatus `bun:"draw_status,notnull"`
	Completed    bool                `bun:"completed,notnull"`
	ReleasedAt   *time.Time          `bun:"released_at,nullzero"`
	CreatedAt    time.Time           `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Institution is a university or club teams and judges come from.
type Institution struct {
	bun.BaseModel `bun:"table:institutions,alias:i"`

	ID           string `bun:"id,pk"`
	TournamentID string `bun:"tournament_id,notnull"`
	Name         string `bun:"name,notnull"`
	Code         string `bun:"code,notnull"`
}

// Team is a debating team.
type Team struct {
	bun.BaseModel `bun:"table:teams,alias:tm"`

	ID            string    `bun:"id,pk"`
	TournamentID  string    `bun:"tournament_id,notnull"`
	Name          string    `bun:"name,notnull"`
	InstitutionID *string   `bun:"institution_id"`
	Number        int       `bun:"number,notnull"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Participant holds what speakers and judges share.
type Participant struct {
	bun.BaseModel `bun:"table:participants,alias:p"`

	ID            string  `bun:"id,pk"`
	TournamentID  string  `bun:"tournament_id,notnull"`
	Name          string  `bun:"name,notnull"`
	Email         string  `bun:"email"`
	PrivateURL    string  `bun:"private_url,notnull,unique"`
	InstitutionID *string `bun:"institution_id"`
}

// Speaker is a participant on a team.
type Speaker struct {
	bun.BaseModel `bun:"table:speakers,alias:s"`

	ID            string       `bun:"id,pk"`
	TournamentID  string       `bun:"tournament_id,notnull"`
	ParticipantID string       `bun:"participant_id,notnull"`
	TeamID        string       `bun:"team_id,notnull"`
	Participant   *Participant `bun:"rel:belongs-to,join:participant_id=id"`
}

// Judge is an adjudicator. Rating orders chair selection.
type Judge struct {
	bun.BaseModel `bun:"table:judges,alias:j"`

	ID            string       `bun:"id,pk"`
	TournamentID  string       `bun:"tournament_id,notnull"`
	ParticipantID string       `bun:"participant_id,notnull"`
	Rating        int          `bun:"rating,notnull"`
	Participant   *Participant `bun:"rel:belongs-to,join:participant_id=id"`
}

// Conflict binds two participants who must not meet.
type Conflict struct {
	bun.BaseModel `bun:"table:conflicts,alias:c"`

	ID           string                `bun:"id,pk"`
	TournamentID string                `bun:"tournament_id,notnull"`
	Kind         tabtypes.ConflictKind `bun:"kind,notnull"`
	AID          string                `bun:"a_id,notnull"`
	BID          string                `bun:"b_id,notnull"`
}

// Room is a venue.
type Room struct {
	bun.BaseModel `bun:"table:rooms,alias:rm"`

	ID           string `bun:"id,pk"`
	TournamentID string `bun:"tournament_id,notnull"`
	Name         string `bun:"name,notnull"`
	Priority     int    `bun:"priority,notnull"`
}

// RoomCategory groups rooms, e.g. "accessible".
type RoomCategory struct {
	bun.BaseModel `bun:"table:room_categories,alias:rc"`

	ID           string `bun:"id,pk"`
	TournamentID string `bun:"tournament_id,notnull"`
	Name         string `bun:"name,notnull"`
}

// RoomCategoryMember puts a room in a category.
type RoomCategoryMember struct {
	bun.BaseModel `bun:"table:room_category_members,alias:rcm"`

	CategoryID string `bun:"category_id,pk"`
	RoomID     string `bun:"room_id,pk"`
}

// RoomPreference is a participant's preference for a room category.
type RoomPreference struct {
	bun.BaseModel `bun:"table:room_preferences,alias:rp"`

	ParticipantID string `bun:"participant_id,pk"`
	CategoryID    string `bun:"category_id,pk"`
	Level         int    `bun:"level,notnull"`
}

// TeamAvailability marks a team in or out of a round.
type TeamAvailability struct {
	bun.BaseModel `bun:"table:team_availability,alias:ta"`

	RoundID   string `bun:"round_id,pk"`
	TeamID    string `bun:"team_id,pk"`
	Available bool   `bun:"available,notnull"`
}

// JudgeAvailability marks a judge in or out of a round.
type JudgeAvailability struct {
	bun.BaseModel `bun:"table:judge_availability,alias:ja"`

	RoundID   string `bun:"round_id,pk"`
	JudgeID   string `bun:"judge_id,pk"`
	Available bool   `bun:"available,notnull"`
}

// Draw is the pairing of one round. At most one exists per round.
type Draw struct {
	bun.BaseModel `bun:"table:draws,alias:dr"`

	ID         string     `bun:"id,pk"`
	RoundID    string     `bun:"round_id,notnull,unique"`
	Seed       int64      `bun:"seed,notnull"`
	Algorithm  string     `bun:"algorithm,notnull"`
	ReleasedAt *time.Time `bun:"released_at,nullzero"`
	CreatedAt  time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Debate is one match of a draw.
type Debate struct {
	bun.BaseModel `bun:"table:debates,alias:d"`

	ID      string  `bun:"id,pk"`
	DrawID  string  `bun:"draw_id,notnull"`
	RoundID string  `bun:"round_id,notnull"`
	Index   int     `bun:"idx,notnull"`
	RoomID  *string `bun:"room_id"`
}

// TeamOfDebate places a team on a side of a debate.
type TeamOfDebate struct {
	bun.BaseModel `bun:"table:teams_of_debate,alias:tod"`

	DebateID string `bun:"debate_id,pk"`
	TeamID   string `bun:"team_id,pk"`
	Side     int    `bun:"side,notnull"`
	Seq      int    `bun:"seq,notnull"`
}

// JudgeOfDebate seats a judge on a panel.
type JudgeOfDebate struct {
	bun.BaseModel `bun:"table:judges_of_debate,alias:jod"`

	DebateID string             `bun:"debate_id,pk"`
	JudgeID  string             `bun:"judge_id,pk"`
	Role     tabtypes.JudgeRole `bun:"role,notnull"`
}

// Motion is a round's motion.
type Motion struct {
	bun.BaseModel `bun:"table:motions,alias:m"`

	ID        string `bun:"id,pk"`
	RoundID   string `bun:"round_id,notnull"`
	Text      string `bun:"text,notnull"`
	InfoSlide string `bun:"info_slide"`
}

// Ballot is one judge's versioned result sheet for a debate.
type Ballot struct {
	bun.BaseModel `bun:"table:ballots,alias:b"`

	ID          string     `bun:"id,pk"`
	DebateID    string     `bun:"debate_id,notnull"`
	JudgeID     string     `bun:"judge_id,notnull"`
	MotionID    *string    `bun:"motion_id"`
	Version     int        `bun:"version,notnull"`
	Confirmed   bool       `bun:"confirmed,notnull"`
	SubmittedAt time.Time  `bun:"submitted_at,notnull"`
	ConfirmedAt *time.Time `bun:"confirmed_at,nullzero"`

	TeamRanks []*BallotTeamRank     `bun:"rel:has-many,join:id=ballot_id"`
	Scores    []*BallotSpeakerScore `bun:"rel:has-many,join:id=ballot_id"`
}

// BallotTeamRank records a team's points (preliminary) or advancement
// (elimination) on a ballot.
type BallotTeamRank struct {
	bun.BaseModel `bun:"table:ballot_team_ranks,alias:btr"`

	BallotID  string `bun:"ballot_id,pk"`
	TeamID    string `bun:"team_id,pk"`
	Points    int    `bun:"points,notnull"`
	Advancing bool   `bun:"advancing,notnull"`
}

// BallotSpeakerScore is one speech on a ballot. Substantive speeches
// take positions 0..n-1 within their team; the reply takes position n.
type BallotSpeakerScore struct {
	bun.BaseModel `bun:"table:ballot_speaker_scores,alias:bss"`

	BallotID  string          `bun:"ballot_id,pk"`
	TeamID    string          `bun:"team_id,pk"`
	SpeakerID string          `bun:"speaker_id,notnull"`
	Position  int             `bun:"position,pk"`
	Score     decimal.Decimal `bun:"score,type:numeric,notnull"`
	Reply     bool            `bun:"reply,notnull"`
}

// AggTeamResult is the confirmed team outcome of a debate.
type AggTeamResult struct {
	bun.BaseModel `bun:"table:agg_team_results_of_debate,alias:atr"`

	DebateID string `bun:"debate_id,pk"`
	TeamID   string `bun:"team_id,pk"`
	Points   int    `bun:"points,notnull"`
}

// AggSpeakerResult is one confirmed speech of a debate.
type AggSpeakerResult struct {
	bun.BaseModel `bun:"table:agg_speaker_results_of_debate,alias:asr"`

	DebateID  string          `bun:"debate_id,pk"`
	TeamID    string          `bun:"team_id,pk"`
	SpeakerID string          `bun:"speaker_id,notnull"`
	Position  int             `bun:"position,pk"`
	Score     decimal.Decimal `bun:"score,type:numeric,notnull"`
	Reply     bool            `bun:"reply,notnull"`
}

// Ticket gates draw generation for a round. Seq increases per attempt;
// only the newest ticket of a round can commit.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets_of_round,alias:tk"`

	ID         string    `bun:"id,pk"`
	RoundID    string    `bun:"round_id,notnull"`
	Seq        int       `bun:"seq,notnull"`
	Kind       string    `bun:"kind,notnull"`
	Owner      string    `bun:"owner,notnull"`
	AcquiredAt time.Time `bun:"acquired,notnull"`
	Deadline   time.Time `bun:"deadline,notnull"`
	Cancelled  bool      `bun:"cancelled,notnull"`
	Released   bool      `bun:"released,notnull"`
	Seed       int64     `bun:"seed,notnull"`
	Error      *string   `bun:"error_message"`
}

const TicketKindDraw = "draw"

// Models lists every table in creation order.
func Models() []any {
	return []any{
		(*Tournament)(nil),
		(*Round)(nil),
		(*Institution)(nil),
		(*Team)(nil),
		(*Participant)(nil),
		(*Speaker)(nil),
		(*Judge)(nil),
		(*Conflict)(nil),
		(*Room)(nil),
		(*RoomCategory)(nil),
		(*RoomCategoryMember)(nil),
		(*RoomPreference)(nil),
		(*TeamAvailability)(nil),
		(*JudgeAvailability)(nil),
		(*Draw)(nil),
		(*Debate)(nil),
		(*TeamOfDebate)(nil),
		(*JudgeOfDebate)(nil),
		(*Motion)(nil),
		(*Ballot)(nil),
		(*BallotTeamRank)(nil),
		(*BallotSpeakerScore)(nil),
		(*AggTeamResult)(nil),
		(*AggSpeakerResult)(nil),
		(*Ticket)(nil),
	}
}
