package drawalg

import (
	"sort"

	tabtypes "github.com/abacus-tab/abacus/app/modules/tournament/domain/types"
)

// Judge is an adjudicator available for the round.
type Judge struct {
	ID            string
	InstitutionID string
	Rating        int
}

// PanelInput is what judge allocation reads.
type PanelInput struct {
	Debates          []Pairing
	Judges           []Judge
	Conflicts        *Conflicts
	TeamInstitutions map[string]string
	Setup            tabtypes.BallotSetup
}

// chairSearchBudget bounds the backtracking chair search.
const chairSearchBudget = 20_000

// AllocatePanels seats judges on every debate. Chairs are the best rated
// judges that can sit each debate, searched with backtracking so that a
// conflict in a late debate can displace an earlier choice. Panellists are
// then dealt round-robin and leftover judges become trainees. Under the
// individual setup every voting panel is odd. No seat ever
// violates a judge-team, judge-institution or judge-judge conflict; a
// debate left without a chair is reported by release validation.
func AllocatePanels(in PanelInput) [][]tabtypes.PanelSeat {
	seats := make([][]tabtypes.PanelSeat, len(in.Debates))
	if len(in.Debates) == 0 || len(in.Judges) == 0 {
		return seats
	}

	judges := append([]Judge(nil), in.Judges...)
	sort.SliceStable(judges, func(i, j int) bool {
		if judges[i].Rating != judges[j].Rating {
			return judges[i].Rating > judges[j].Rating
		}
		return judges[i].ID < judges[j].ID
	})

	a := &allocator{in: in, judges: judges, used: make([]bool, len(judges)), panels: make([][]int, len(in.Debates))}

	chairs := make([]int, len(in.Debates))
	for i := range chairs {
		chairs[i] = -1
	}
	budget := chairSearchBudget
	if len(judges) < len(in.Debates) || !a.searchChairs(0, chairs, &budget) {
		for i := range chairs {
			chairs[i] = -1
		}
		a.used = make([]bool, len(judges))
		a.greedyChairs(chairs)
	}
	for d, j := range chairs {
		if j >= 0 {
			a.panels[d] = []int{j}
			seats[d] = append(seats[d], tabtypes.PanelSeat{JudgeID: judges[j].ID, Role: tabtypes.JudgeRoleChair})
		}
	}

	size := len(judges) / len(in.Debates)
	if size < 1 {
		size = 1
	}
	if in.Setup == tabtypes.BallotSetupIndividual && size%2 == 0 {
		size--
	}
	for round := 1; round < size; round++ {
		for d := range in.Debates {
			if j := a.next(d); j >= 0 {
				a.seat(d, j)
				seats[d] = append(seats[d], tabtypes.PanelSeat{JudgeID: judges[j].ID, Role: tabtypes.JudgeRolePanellist})
			}
		}
	}
	if in.Setup == tabtypes.BallotSetupIndividual {
		for d := range seats {
			oddVotingPanel(seats[d])
		}
	}

	for progress := true; progress; {
		progress = false
		for d := range in.Debates {
			if j := a.next(d); j >= 0 {
				a.seat(d, j)
				seats[d] = append(seats[d], tabtypes.PanelSeat{JudgeID: judges[j].ID, Role: tabtypes.JudgeRoleTrainee})
				progress = true
			}
		}
	}
	return seats
}

// oddVotingPanel demotes the last panellist to trainee when conflicts left
// the debate with an even number of voters.
func oddVotingPanel(seats []tabtypes.PanelSeat) {
	voting, last := 0, -1
	for i, s := range seats {
		if s.Role.Votes() {
			voting++
		}
		if s.Role == tabtypes.JudgeRolePanellist {
			last = i
		}
	}
	if voting%2 == 0 && last >= 0 {
		seats[last].Role = tabtypes.JudgeRoleTrainee
	}
}

type allocator struct {
	in     PanelInput
	judges []Judge
	used   []bool
	panels [][]int
}

// canSit reports whether judge j may join debate d alongside panel.
func (a *allocator) canSit(j, d int, panel []int) bool {
	judge := a.judges[j]
	for _, side := range a.in.Debates[d].Sides {
		for _, team := range side {
			if a.in.Conflicts.JudgeTeam(judge.ID, team) {
				return false
			}
			if judge.InstitutionID != "" && a.in.TeamInstitutions[team] == judge.InstitutionID {
				return false
			}
		}
	}
	for _, other := range panel {
		if a.in.Conflicts.JudgeJudge(judge.ID, a.judges[other].ID) {
			return false
		}
	}
	return true
}

func (a *allocator) searchChairs(d int, chairs []int, budget *int) bool {
	if d == len(chairs) {
		return true
	}
	for j := range a.judges {
		if *budget <= 0 {
			return false
		}
		*budget--
		if a.used[j] || !a.canSit(j, d, nil) {
			continue
		}
		a.used[j] = true
		chairs[d] = j
		if a.searchChairs(d+1, chairs, budget) {
			return true
		}
		a.used[j] = false
		chairs[d] = -1
	}
	return false
}

func (a *allocator) greedyChairs(chairs []int) {
	for d := range chairs {
		for j := range a.judges {
			if !a.used[j] && a.canSit(j, d, nil) {
				a.used[j] = true
				chairs[d] = j
				break
			}
		}
	}
}

// next returns the best rated free judge who can join debate d, or -1.
func (a *allocator) next(d int) int {
	for j := range a.judges {
		if !a.used[j] && a.canSit(j, d, a.panels[d]) {
			return j
		}
	}
	return -1
}

func (a *allocator) seat(d, j int) {
	a.used[j] = true
	a.panels[d] = append(a.panels[d], j)
}
