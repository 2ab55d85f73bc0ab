// Package roomalloc assigns rooms to the debates of a round.
package roomalloc

import "sort"

// Room is an allocatable room. Higher priority rooms are handed out first.
type Room struct {
	ID         string
	Priority   int
	Categories []string
}

// Debate is a debate waiting for a room, with the participants whose
// preferences count.
type Debate struct {
	ID             string
	ParticipantIDs []string
}

// Preferences maps participant id to category id to a level in [-2, 2].
type Preferences map[string]map[string]int

// Allocate walks debates in order and gives each the free room with the
// highest preference sum over its participants and the room's categories.
// Equal sums go to the higher priority room, then the lower room id.
// Negative preferences only lower a room's score. Debates beyond the room
// supply are left out of the result.
func Allocate(debates []Debate, rooms []Room, prefs Preferences) map[string]string {
	pool := append([]Room(nil), rooms...)
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].Priority != pool[j].Priority {
			return pool[i].Priority > pool[j].Priority
		}
		return pool[i].ID < pool[j].ID
	})

	used := make([]bool, len(pool))
	out := make(map[string]string, len(debates))
	for _, d := range debates {
		best, bestScore := -1, 0
		for i, r := range pool {
			if used[i] {
				continue
			}
			score := Score(d, r, prefs)
			if best < 0 || score > bestScore {
				best, bestScore = i, score
			}
		}
		if best < 0 {
			break
		}
		used[best] = true
		out[d.ID] = pool[best].ID
	}
	return out
}

// Score is the summed preference of d's participants for the categories
// containing r.
func Score(d Debate, r Room, prefs Preferences) int {
	total := 0
	for _, p := range d.ParticipantIDs {
		levels := prefs[p]
		if levels == nil {
			continue
		}
		for _, c := range r.Categories {
			total += clamp(levels[c])
		}
	}
	return total
}

func clamp(level int) int {
	switch {
	case level < -2:
		return -2
	case level > 2:
		return 2
	default:
		return level
	}
}
