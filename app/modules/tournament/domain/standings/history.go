package standings

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TeamResult is a team's aggregated points in one debate.
type TeamResult struct {
	TeamID string
	Points int
}

// SpeakerResult is one aggregated speech.
type SpeakerResult struct {
	SpeakerID string
	TeamID    string
	Position  int
	Score     decimal.Decimal
	Reply     bool
}

// DebateResult is the aggregated outcome of one completed debate.
type DebateResult struct {
	DebateID string
	RoundSeq int
	Teams    []TeamResult
	Speakers []SpeakerResult
}

// History is the completed preliminary result set of a tournament. Every
// team and speaker of the tournament is listed, including those without
// results, so that every standings tuple has the same arity.
type History struct {
	TeamIDs    []string
	SpeakerIDs []string
	Debates    []DebateResult
}

// Normalize sorts the history into a canonical order so that computations
// over it are reproducible.
func (h *History) Normalize() {
	sort.Strings(h.TeamIDs)
	sort.Strings(h.SpeakerIDs)
	sort.SliceStable(h.Debates, func(i, j int) bool {
		if h.Debates[i].RoundSeq != h.Debates[j].RoundSeq {
			return h.Debates[i].RoundSeq < h.Debates[j].RoundSeq
		}
		return h.Debates[i].DebateID < h.Debates[j].DebateID
	})
	for i := range h.Debates {
		d := &h.Debates[i]
		sort.Slice(d.Teams, func(a, b int) bool { return d.Teams[a].TeamID < d.Teams[b].TeamID })
		sort.Slice(d.Speakers, func(a, b int) bool {
			if d.Speakers[a].TeamID != d.Speakers[b].TeamID {
				return d.Speakers[a].TeamID < d.Speakers[b].TeamID
			}
			return d.Speakers[a].Position < d.Speakers[b].Position
		})
	}
}

func (h *History) teamPoints() map[string]int64 {
	out := make(map[string]int64, len(h.TeamIDs))
	for _, id := range h.TeamIDs {
		out[id] = 0
	}
	for _, d := range h.Debates {
		for _, t := range d.Teams {
			out[t.TeamID] += int64(t.Points)
		}
	}
	return out
}

func (h *History) teamSpeaks() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(h.TeamIDs))
	for _, id := range h.TeamIDs {
		out[id] = decimal.Zero
	}
	for _, d := range h.Debates {
		for _, s := range d.Speakers {
			out[s.TeamID] = out[s.TeamID].Add(s.Score)
		}
	}
	return out
}
