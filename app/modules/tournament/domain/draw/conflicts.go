package drawalg

import tabtypes "github.com/abacus-tab/abacus/app/modules/tournament/domain/types"

// Conflicts is a symmetric conflict set.
type Conflicts struct {
	pairs map[tabtypes.ConflictKind]map[TeamPair]bool
}

func NewConflicts() *Conflicts {
	return &Conflicts{pairs: make(map[tabtypes.ConflictKind]map[TeamPair]bool)}
}

// Add records a conflict between a and b. For judge-team conflicts a is
// the judge.
func (c *Conflicts) Add(kind tabtypes.ConflictKind, a, b string) {
	if c.pairs[kind] == nil {
		c.pairs[kind] = make(map[TeamPair]bool)
	}
	c.pairs[kind][NewTeamPair(a, b)] = true
}

func (c *Conflicts) has(kind tabtypes.ConflictKind, a, b string) bool {
	if c == nil {
		return false
	}
	return c.pairs[kind][NewTeamPair(a, b)]
}

func (c *Conflicts) TeamTeam(a, b string) bool { return c.has(tabtypes.ConflictTeamTeam, a, b) }

func (c *Conflicts) JudgeTeam(judge, team string) bool {
	return c.has(tabtypes.ConflictJudgeTeam, judge, team)
}

func (c *Conflicts) JudgeJudge(a, b string) bool { return c.has(tabtypes.ConflictJudgeJudge, a, b) }
