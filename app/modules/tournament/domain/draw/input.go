package drawalg

import (
	"math/rand/v2"

	"github.com/abacus-tab/abacus/app/modules/tournament/domain/standings"
	tabtypes "github.com/abacus-tab/abacus/app/modules/tournament/domain/types"
	"github.com/abacus-tab/abacus/pkg/apperr"
)

// Team is a draw participant.
type Team struct {
	ID            string
	InstitutionID string
}

// Pairing is one generated debate: Sides[side][seq] is a team id.
type Pairing struct {
	Sides [2][]string
}

// Teams returns the team ids of p in slot index order.
func (p Pairing) Teams() []string {
	var out []string
	for seq := 0; seq < len(p.Sides[0]); seq++ {
		for side := 0; side < 2; side++ {
			if seq < len(p.Sides[side]) {
				out = append(out, p.Sides[side][seq])
			}
		}
	}
	return out
}

// Input is everything an algorithm may read.
type Input struct {
	TeamsPerSide       int
	Teams              []Team
	Standings          *standings.TeamStandings
	History            map[string]tabtypes.PositionHistory
	Encounters         map[TeamPair]int
	Conflicts          *Conflicts
	InstitutionPenalty int
	HistoryPenalty     int
	PullupMetrics      []string
	Rand               *rand.Rand
}

// Algorithm generates the pairings of one round.
type Algorithm interface {
	Name() string
	Generate(in *Input) ([]Pairing, error)
}

const (
	AlgorithmRandom      = "random"
	AlgorithmPowerPaired = "power_paired"
)

// Lookup resolves an algorithm by name.
func Lookup(name string) (Algorithm, error) {
	switch name {
	case AlgorithmRandom:
		return Random{}, nil
	case AlgorithmPowerPaired, "powerpaired", "general":
		return PowerPaired{}, nil
	default:
		return nil, apperr.InvalidConfiguration("unknown draw algorithm %q", name)
	}
}

// NewRand returns a deterministic source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// TeamPair is an unordered pair of team ids.
type TeamPair [2]string

// NewTeamPair orders a and b.
func NewTeamPair(a, b string) TeamPair {
	if b < a {
		a, b = b, a
	}
	return TeamPair{a, b}
}

func (in *Input) teamsPerDebate() int { return in.TeamsPerSide * 2 }

func (in *Input) validate() error {
	if in.TeamsPerSide != 1 && in.TeamsPerSide != 2 {
		return apperr.InvalidConfiguration("teams per side must be 1 or 2, got %d", in.TeamsPerSide)
	}
	n := len(in.Teams)
	if n == 0 || n%in.teamsPerDebate() != 0 {
		return apperr.InvalidTeamCount("%d teams cannot be split into debates of %d", n, in.teamsPerDebate())
	}
	seen := make(map[string]bool, n)
	for _, t := range in.Teams {
		if seen[t.ID] {
			return apperr.InvalidInput("teams", "team %s listed twice", t.ID)
		}
		seen[t.ID] = true
	}
	if in.Rand == nil {
		in.Rand = NewRand(0)
	}
	return nil
}

// slotted builds a pairing from teams in slot index order.
func slotted(teamsPerSide int, ordered []string) Pairing {
	var p Pairing
	p.Sides[0] = make([]string, teamsPerSide)
	p.Sides[1] = make([]string, teamsPerSide)
	for i, id := range ordered {
		s := tabtypes.SlotAt(i)
		p.Sides[s.Side][s.Seq] = id
	}
	return p
}
