package tabtypes

import (
	"fmt"
	"sort"
	"time"
)

// TeamSlot places a team in a debate.
type TeamSlot struct {
	TeamID string `json:"team_id"`
	Side   int    `json:"side"`
	Seq    int    `json:"seq"`
}

// PanelSeat places a judge on a panel.
type PanelSeat struct {
	JudgeID string    `json:"judge_id"`
	Role    JudgeRole `json:"role"`
}

// DebateRepr is one debate with its teams, panel and room.
type DebateRepr struct {
	ID     string      `json:"id"`
	Index  int         `json:"index"`
	RoomID *string     `json:"room_id,omitempty"`
	Teams  []TeamSlot  `json:"teams"`
	Judges []PanelSeat `json:"judges"`
}

// Chair returns the chair judge id, if any.
func (d DebateRepr) Chair() (string, bool) {
	for _, j := range d.Judges {
		if j.Role == JudgeRoleChair {
			return j.JudgeID, true
		}
	}
	return "", false
}

// Side returns the team ids on side s ordered by seq.
func (d DebateRepr) Side(s int) []string {
	var slots []TeamSlot
	for _, t := range d.Teams {
		if t.Side == s {
			slots = append(slots, t)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Seq < slots[j].Seq })
	ids := make([]string, len(slots))
	for i, t := range slots {
		ids[i] = t.TeamID
	}
	return ids
}

// DrawRepr bundles a round's draw with the lookups needed to render it.
type DrawRepr struct {
	DrawID     string            `json:"draw_id"`
	RoundID    string            `json:"round_id"`
	Status     DrawStatus        `json:"status"`
	ReleasedAt *time.Time        `json:"released_at,omitempty"`
	Debates    []DebateRepr      `json:"debates"`
	TeamNames  map[string]string `json:"team_names"`
	JudgeNames map[string]string `json:"judge_names"`
	RoomNames  map[string]string `json:"room_names"`
}

// Validate checks the released-draw invariants: every expected team
// appears once, each side holds exactly seqs 0..teamsPerSide-1, every
// debate has a chair, and rooms are unique.
func (d DrawRepr) Validate(teamsPerSide int, expectedTeams []string) error {
	seen := make(map[string]bool)
	rooms := make(map[string]string)
	for _, deb := range d.Debates {
		for side := 0; side < 2; side++ {
			ids := deb.Side(side)
			if len(ids) != teamsPerSide {
				return fmt.Errorf("debate %d side %d has %d teams, want %d", deb.Index, side, len(ids), teamsPerSide)
			}
		}
		slots := make(map[[2]int]bool, len(deb.Teams))
		for _, t := range deb.Teams {
			if t.Side != 0 && t.Side != 1 {
				return fmt.Errorf("debate %d has side %d out of range", deb.Index, t.Side)
			}
			if t.Seq < 0 || t.Seq >= teamsPerSide {
				return fmt.Errorf("debate %d has seq %d out of range", deb.Index, t.Seq)
			}
			if slots[[2]int{t.Side, t.Seq}] {
				return fmt.Errorf("debate %d side %d repeats seq %d", deb.Index, t.Side, t.Seq)
			}
			slots[[2]int{t.Side, t.Seq}] = true
			if seen[t.TeamID] {
				return fmt.Errorf("team %s appears more than once", t.TeamID)
			}
			seen[t.TeamID] = true
		}
		if _, ok := deb.Chair(); !ok {
			return fmt.Errorf("debate %d has no chair", deb.Index)
		}
		if deb.RoomID != nil {
			if other, dup := rooms[*deb.RoomID]; dup {
				return fmt.Errorf("room %s assigned to debates %s and %s", *deb.RoomID, other, deb.ID)
			}
			rooms[*deb.RoomID] = deb.ID
		}
	}
	if expectedTeams != nil {
		if len(seen) != len(expectedTeams) {
			return fmt.Errorf("draw has %d teams, want %d", len(seen), len(expectedTeams))
		}
		for _, id := range expectedTeams {
			if !seen[id] {
				return fmt.Errorf("team %s missing from draw", id)
			}
		}
	}
	return nil
}
