package standings

import (
	"fmt"
	"sort"
)

// Entry is one ranked team or speaker.
type Entry struct {
	ID     string        `json:"id"`
	Rank   int           `json:"rank"`
	Values []MetricValue `json:"values"`
}

// Standings is a ranked table. Entries are ordered by rank, then by id
// within a tie. Ranks are 1-based and sparse: a three-way tie for first is
// followed by rank 4.
type Standings struct {
	Metrics []string `json:"metrics"`
	Entries []Entry  `json:"entries"`
	index   map[string]int
}

// TeamStandings ranks teams.
type TeamStandings = Standings

// SpeakerStandings ranks speakers.
type SpeakerStandings = Standings

// ComputeTeamStandings evaluates the named team metrics over h and ranks
// every team of h.
func ComputeTeamStandings(metricNames []string, h *History) (*TeamStandings, error) {
	metrics, err := ParseTeamMetrics(metricNames)
	if err != nil {
		return nil, err
	}
	return Rank(metrics, h.TeamIDs, h), nil
}

// ComputeSpeakerStandings evaluates the named speaker metrics over h and
// ranks every speaker of h.
func ComputeSpeakerStandings(metricNames []string, h *History) (*SpeakerStandings, error) {
	metrics, err := ParseSpeakerMetrics(metricNames)
	if err != nil {
		return nil, err
	}
	return Rank(metrics, h.SpeakerIDs, h), nil
}

// Rank evaluates each metric once and ranks ids by their metric tuples.
// A metric that yields values of mixed kinds is a programming error and
// panics.
func Rank(metrics []Metric, ids []string, h *History) *Standings {
	columns := make([]map[string]MetricValue, len(metrics))
	names := make([]string, len(metrics))
	for i, m := range metrics {
		columns[i] = m.Compute(h)
		names[i] = m.Name()
	}

	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		values := make([]MetricValue, len(metrics))
		for i, col := range columns {
			v, ok := col[id]
			if !ok {
				panic(fmt.Sprintf("metric %s produced no value for %s", names[i], id))
			}
			values[i] = v
		}
		entries = append(entries, Entry{ID: id, Values: values})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		c := mustCompare(entries[i].Values, entries[j].Values)
		if c != 0 {
			return c > 0
		}
		return entries[i].ID < entries[j].ID
	})

	for i := range entries {
		if i > 0 && mustCompare(entries[i].Values, entries[i-1].Values) == 0 {
			entries[i].Rank = entries[i-1].Rank
		} else {
			entries[i].Rank = i + 1
		}
	}

	s := &Standings{Metrics: names, Entries: entries}
	s.reindex()
	return s
}

func mustCompare(a, b []MetricValue) int {
	c, err := CompareTuples(a, b)
	if err != nil {
		panic(err)
	}
	return c
}

func (s *Standings) reindex() {
	s.index = make(map[string]int, len(s.Entries))
	for i, e := range s.Entries {
		s.index[e.ID] = i
	}
}

// Groups returns the rank groups in rank order. Members of a group are
// ordered by id.
func (s *Standings) Groups() [][]Entry {
	var groups [][]Entry
	for i, e := range s.Entries {
		if i == 0 || e.Rank != s.Entries[i-1].Rank {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], e)
	}
	return groups
}

// Tuple returns the metric tuple of id.
func (s *Standings) Tuple(id string) ([]MetricValue, bool) {
	i, ok := s.lookup(id)
	if !ok {
		return nil, false
	}
	return s.Entries[i].Values, true
}

// RankOf returns the rank of id.
func (s *Standings) RankOf(id string) (int, bool) {
	i, ok := s.lookup(id)
	if !ok {
		return 0, false
	}
	return s.Entries[i].Rank, true
}

// Ordered returns ids in rank order, ties broken by id.
func (s *Standings) Ordered() []string {
	out := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		out[i] = e.ID
	}
	return out
}

func (s *Standings) lookup(id string) (int, bool) {
	if s.index == nil {
		s.reindex()
	}
	i, ok := s.index[id]
	return i, ok
}
