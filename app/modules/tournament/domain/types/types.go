package tabtypes

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RoundKind is persisted as "P" or "E".
type RoundKind string

const (
	RoundKindPreliminary RoundKind = "P"
	RoundKindElimination RoundKind = "E"
)

func (k RoundKind) Valid() bool {
	return k == RoundKindPreliminary || k == RoundKindElimination
}

// DrawStatus is the round lifecycle state, persisted as a single letter.
type DrawStatus string

const (
	DrawStatusNone       DrawStatus = "N"
	DrawStatusGenerating DrawStatus = "G"
	DrawStatusDrafted    DrawStatus = "D"
	DrawStatusReleased   DrawStatus = "R"
	DrawStatusInProgress DrawStatus = "I"
	DrawStatusCompleted  DrawStatus = "C"
)

func (s DrawStatus) String() string {
	switch s {
	case DrawStatusNone:
		return "none"
	case DrawStatusGenerating:
		return "generating"
	case DrawStatusDrafted:
		return "drafted"
	case DrawStatusReleased:
		return "released"
	case DrawStatusInProgress:
		return "in_progress"
	case DrawStatusCompleted:
		return "completed"
	default:
		return fmt.Sprintf("unknown(%s)", string(s))
	}
}

// Transition names an edge of the round state machine.
type Transition string

const (
	TransitionGenStart Transition = "gen_start"
	TransitionGenOK    Transition = "gen_ok"
	TransitionGenFail  Transition = "gen_fail"
	TransitionCancel   Transition = "cancel"
	TransitionRelease  Transition = "release"
	TransitionStart    Transition = "start"
	TransitionComplete Transition = "complete"
)

type edge struct {
	from DrawStatus
	via  Transition
}

var transitions = map[edge]DrawStatus{
	{DrawStatusNone, TransitionGenStart}:       DrawStatusGenerating,
	{DrawStatusGenerating, TransitionGenOK}:    DrawStatusDrafted,
	{DrawStatusGenerating, TransitionGenFail}:  DrawStatusNone,
	{DrawStatusGenerating, TransitionCancel}:   DrawStatusNone,
	{DrawStatusDrafted, TransitionRelease}:     DrawStatusReleased,
	{DrawStatusReleased, TransitionStart}:      DrawStatusInProgress,
	{DrawStatusInProgress, TransitionComplete}: DrawStatusCompleted,
	// Discarding a draft and regenerating over one are operator actions
	// layered on the same graph.
	{DrawStatusDrafted, TransitionCancel}:   DrawStatusNone,
	{DrawStatusDrafted, TransitionGenStart}: DrawStatusGenerating,
}

// Next returns the state reached from s via t, or false when the edge does
// not exist.
func (s DrawStatus) Next(t Transition) (DrawStatus, bool) {
	next, ok := transitions[edge{s, t}]
	return next, ok
}

// JudgeRole is persisted as "C", "P" or "T".
type JudgeRole string

const (
	JudgeRoleChair     JudgeRole = "C"
	JudgeRolePanellist JudgeRole = "P"
	JudgeRoleTrainee   JudgeRole = "T"
)

// Votes reports whether judges in this role submit a counted ballot.
func (r JudgeRole) Votes() bool {
	return r == JudgeRoleChair || r == JudgeRolePanellist
}

// ConflictKind distinguishes the participants a conflict binds.
type ConflictKind string

const (
	ConflictTeamTeam   ConflictKind = "TT"
	ConflictJudgeTeam  ConflictKind = "JT"
	ConflictJudgeJudge ConflictKind = "JJ"
)

func (k ConflictKind) Valid() bool {
	return k == ConflictTeamTeam || k == ConflictJudgeTeam || k == ConflictJudgeJudge
}

// BallotSetup controls panel shape and ballot aggregation.
type BallotSetup string

const (
	BallotSetupConsensus  BallotSetup = "consensus"
	BallotSetupIndividual BallotSetup = "individual"
)

func (b BallotSetup) Valid() bool {
	return b == BallotSetupConsensus || b == BallotSetupIndividual
}

// Side of a debate.
const (
	SideProposition = 0
	SideOpposition  = 1
)

// TournamentConfig is the part of a tournament the round engine reads.
type TournamentConfig struct {
	ID                      string
	TeamsPerSide            int
	SubstantiveSpeakers     int
	ReplySpeakers           bool
	PoolBallotSetup         BallotSetup
	ElimBallotSetup         BallotSetup
	InstitutionPenalty      int
	HistoryPenalty          int
	PullupMetrics           []string
	TeamStandingsMetrics    []string
	SpeakerStandingsMetrics []string
	SubstantiveMinSpeak     *decimal.Decimal
	SubstantiveMaxSpeak     *decimal.Decimal
	SubstantiveSpeakStep    *decimal.Decimal
	ReplyMinSpeak           *decimal.Decimal
	ReplyMaxSpeak           *decimal.Decimal
}

// TeamsPerDebate is the number of teams in one debate.
func (c TournamentConfig) TeamsPerDebate() int { return c.TeamsPerSide * 2 }

// BallotSetupFor returns the ballot setup that applies to rounds of kind k.
func (c TournamentConfig) BallotSetupFor(k RoundKind) BallotSetup {
	if k == RoundKindElimination {
		return c.ElimBallotSetup
	}
	return c.PoolBallotSetup
}

// CheckScore validates a speech score against the configured bounds.
func (c TournamentConfig) CheckScore(score decimal.Decimal, reply bool) error {
	lo, hi, step := c.SubstantiveMinSpeak, c.SubstantiveMaxSpeak, c.SubstantiveSpeakStep
	if reply {
		lo, hi, step = c.ReplyMinSpeak, c.ReplyMaxSpeak, nil
	}
	if lo != nil && score.LessThan(*lo) {
		return fmt.Errorf("score %s is lower than the minimum permissible speak %s", score, lo)
	}
	if hi != nil && score.GreaterThan(*hi) {
		return fmt.Errorf("score %s is greater than the maximum permissible speak %s", score, hi)
	}
	if step != nil && !step.IsZero() && !score.Mod(*step).IsZero() {
		return fmt.Errorf("score %s is not a multiple of %s", score, step)
	}
	return nil
}
