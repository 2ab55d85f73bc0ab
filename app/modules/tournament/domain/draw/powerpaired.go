package drawalg

import (
	"cmp"
	"slices"

	"github.com/abacus-tab/abacus/pkg/apperr"
)

// PowerPaired brackets teams by standings, pulls teams up from lower
// brackets to fill debates, improves groups by penalty-reducing swaps and
// then assigns positions to balance each team's history.
type PowerPaired struct{}

func (PowerPaired) Name() string { return AlgorithmPowerPaired }

const (
	pullupRandom      = "random"
	pullupLowestRank  = "lowest_rank"
	pullupHighestRank = "highest_rank"
)

// teamConflictPenalty outweighs any configured penalty so that swaps always
// separate conflicted teams when they can.
const teamConflictPenalty = 1_000_000

const maxSwapPasses = 50

func (PowerPaired) Generate(in *Input) ([]Pairing, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.Standings == nil {
		return nil, apperr.InvalidConfiguration("power pairing requires standings")
	}
	pullup, err := pullupRule(in.PullupMetrics)
	if err != nil {
		return nil, err
	}

	brackets, order := bracketTeams(in)
	for _, b := range brackets {
		in.Rand.Shuffle(len(b), func(i, j int) { b[i], b[j] = b[j], b[i] })
	}

	g := in.teamsPerDebate()
	var groups [][]string
	for i := range brackets {
		pool := brackets[i]
		for j := i + 1; len(pool)%g != 0 && j < len(brackets); j++ {
			need := g - len(pool)%g
			var picked []string
			picked, brackets[j] = takePullups(brackets[j], need, pullup, order)
			pool = append(pool, picked...)
		}
		if len(pool)%g != 0 {
			// Unreachable when the team count was validated.
			return nil, apperr.InvalidTeamCount("bracket of %d teams cannot be filled", len(pool))
		}
		bracketGroups := chunk(pool, g)
		improveGroups(bracketGroups, in)
		groups = append(groups, bracketGroups...)
	}

	out := make([]Pairing, 0, len(groups))
	for _, grp := range groups {
		out = append(out, assignSides(grp, in))
	}
	return out, nil
}

func pullupRule(metrics []string) (string, error) {
	if len(metrics) == 0 {
		return pullupRandom, nil
	}
	switch metrics[0] {
	case pullupRandom, pullupLowestRank, pullupHighestRank:
		return metrics[0], nil
	default:
		return "", apperr.InvalidConfiguration("unsupported pull-up metric %q", metrics[0])
	}
}

// bracketTeams groups active teams by identical standings tuple, in
// standings order. Active teams missing from the standings form a final
// bracket. order maps each team to its standings position.
func bracketTeams(in *Input) ([][]string, map[string]int) {
	active := make(map[string]bool, len(in.Teams))
	for _, t := range in.Teams {
		active[t.ID] = true
	}

	order := make(map[string]int, len(in.Teams))
	var brackets [][]string
	placed := make(map[string]bool, len(in.Teams))
	pos := 0
	for _, group := range in.Standings.Groups() {
		var b []string
		for _, e := range group {
			if !active[e.ID] {
				continue
			}
			b = append(b, e.ID)
			order[e.ID] = pos
			placed[e.ID] = true
			pos++
		}
		if len(b) > 0 {
			brackets = append(brackets, b)
		}
	}

	var rest []string
	for _, t := range in.Teams {
		if !placed[t.ID] {
			rest = append(rest, t.ID)
			order[t.ID] = pos
			pos++
		}
	}
	if len(rest) > 0 {
		brackets = append(brackets, rest)
	}
	return brackets, order
}

// takePullups removes up to need teams from bracket and returns them with
// the remaining bracket.
func takePullups(bracket []string, need int, rule string, order map[string]int) ([]string, []string) {
	if need > len(bracket) {
		need = len(bracket)
	}
	idx := make([]int, len(bracket))
	for i := range idx {
		idx[i] = i
	}
	switch rule {
	case pullupHighestRank:
		slices.SortStableFunc(idx, func(a, b int) int { return cmp.Compare(order[bracket[a]], order[bracket[b]]) })
	case pullupLowestRank:
		slices.SortStableFunc(idx, func(a, b int) int { return cmp.Compare(order[bracket[b]], order[bracket[a]]) })
	}

	take := make(map[int]bool, need)
	picked := make([]string, 0, need)
	for _, i := range idx[:need] {
		take[i] = true
		picked = append(picked, bracket[i])
	}
	rest := make([]string, 0, len(bracket)-need)
	for i, id := range bracket {
		if !take[i] {
			rest = append(rest, id)
		}
	}
	return picked, rest
}

func chunk(ids []string, size int) [][]string {
	out := make([][]string, 0, len(ids)/size)
	for start := 0; start < len(ids); start += size {
		grp := make([]string, size)
		copy(grp, ids[start:start+size])
		out = append(out, grp)
	}
	return out
}

// groupPenalty is the institution, history and team-conflict cost of
// putting the teams of grp in one debate.
func groupPenalty(grp []string, in *Input, inst map[string]string) int {
	cost := 0
	for i := 0; i < len(grp); i++ {
		for j := i + 1; j < len(grp); j++ {
			a, b := grp[i], grp[j]
			if in.InstitutionPenalty != 0 && inst[a] != "" && inst[a] == inst[b] {
				cost += in.InstitutionPenalty
			}
			if in.HistoryPenalty != 0 {
				cost += in.HistoryPenalty * in.Encounters[NewTeamPair(a, b)]
			}
			if in.Conflicts.TeamTeam(a, b) {
				cost += teamConflictPenalty
			}
		}
	}
	return cost
}

// improveGroups swaps teams between groups of one bracket while a swap
// strictly lowers the combined penalty.
func improveGroups(groups [][]string, in *Input) {
	if len(groups) < 2 {
		return
	}
	inst := make(map[string]string, len(in.Teams))
	for _, t := range in.Teams {
		inst[t.ID] = t.InstitutionID
	}

	for pass := 0; pass < maxSwapPasses; pass++ {
		improved := false
		for gi := 0; gi < len(groups); gi++ {
			for gj := gi + 1; gj < len(groups); gj++ {
				for a := range groups[gi] {
					for b := range groups[gj] {
						before := groupPenalty(groups[gi], in, inst) + groupPenalty(groups[gj], in, inst)
						groups[gi][a], groups[gj][b] = groups[gj][b], groups[gi][a]
						after := groupPenalty(groups[gi], in, inst) + groupPenalty(groups[gj], in, inst)
						if after < before {
							improved = true
							continue
						}
						groups[gi][a], groups[gj][b] = groups[gj][b], groups[gi][a]
					}
				}
			}
		}
		if !improved {
			return
		}
	}
}
