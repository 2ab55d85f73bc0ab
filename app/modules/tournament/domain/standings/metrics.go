package standings

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/abacus-tab/abacus/pkg/apperr"
	"github.com/shopspring/decimal"
)

// Metric reduces a result history to one value per team or speaker.
type Metric interface {
	Name() string
	Compute(h *History) map[string]MetricValue
}

const averagePlaces = 4

type pointsMetric struct{}

func (pointsMetric) Name() string { return "points" }

func (pointsMetric) Compute(h *History) map[string]MetricValue {
	out := make(map[string]MetricValue, len(h.TeamIDs))
	for id, p := range h.teamPoints() {
		out[id] = Points(p)
	}
	return out
}

type nTimesResultMetric struct{ p int }

func (m nTimesResultMetric) Name() string { return "n_times_result(" + strconv.Itoa(m.p) + ")" }

func (m nTimesResultMetric) Compute(h *History) map[string]MetricValue {
	counts := make(map[string]int64, len(h.TeamIDs))
	for _, id := range h.TeamIDs {
		counts[id] = 0
	}
	for _, d := range h.Debates {
		for _, t := range d.Teams {
			if t.Points == m.p {
				counts[t.TeamID]++
			}
		}
	}
	out := make(map[string]MetricValue, len(counts))
	for id, n := range counts {
		out[id] = NTimesResult(m.p, n)
	}
	return out
}

type tssMetric struct{}

func (tssMetric) Name() string { return "tss" }

func (tssMetric) Compute(h *History) map[string]MetricValue {
	out := make(map[string]MetricValue, len(h.TeamIDs))
	for id, s := range h.teamSpeaks() {
		out[id] = TSS(s)
	}
	return out
}

type atssMetric struct{}

func (atssMetric) Name() string { return "atss" }

func (atssMetric) Compute(h *History) map[string]MetricValue {
	debates := make(map[string]int64, len(h.TeamIDs))
	for _, d := range h.Debates {
		for _, t := range d.Teams {
			debates[t.TeamID]++
		}
	}
	out := make(map[string]MetricValue, len(h.TeamIDs))
	for id, s := range h.teamSpeaks() {
		n := debates[id]
		if n == 0 {
			out[id] = Average(decimal.Zero)
			continue
		}
		out[id] = Average(s.DivRound(decimal.NewFromInt(n), averagePlaces))
	}
	return out
}

// dsWinsMetric sums, once per encounter, the current points of every other
// team the team has debated against.
type dsWinsMetric struct{}

func (dsWinsMetric) Name() string { return "ds_wins" }

func (dsWinsMetric) Compute(h *History) map[string]MetricValue {
	points := h.teamPoints()
	sums := make(map[string]int64, len(h.TeamIDs))
	for _, id := range h.TeamIDs {
		sums[id] = 0
	}
	for _, d := range h.Debates {
		for _, t := range d.Teams {
			for _, other := range d.Teams {
				if other.TeamID != t.TeamID {
					sums[t.TeamID] += points[other.TeamID]
				}
			}
		}
	}
	out := make(map[string]MetricValue, len(sums))
	for id, n := range sums {
		out[id] = DsWins(n)
	}
	return out
}

// dsSpeaksMetric sums the total speaker score of every team faced.
type dsSpeaksMetric struct{}

func (dsSpeaksMetric) Name() string { return "ds_speaks" }

func (dsSpeaksMetric) Compute(h *History) map[string]MetricValue {
	speaks := h.teamSpeaks()
	sums := make(map[string]decimal.Decimal, len(h.TeamIDs))
	for _, id := range h.TeamIDs {
		sums[id] = decimal.Zero
	}
	for _, d := range h.Debates {
		for _, t := range d.Teams {
			for _, other := range d.Teams {
				if other.TeamID != t.TeamID {
					sums[t.TeamID] = sums[t.TeamID].Add(speaks[other.TeamID])
				}
			}
		}
	}
	out := make(map[string]MetricValue, len(sums))
	for id, s := range sums {
		out[id] = TSS(s)
	}
	return out
}

// speakerScores collects each speaker's substantive scores in history
// order.
func speakerScores(h *History) map[string][]decimal.Decimal {
	out := make(map[string][]decimal.Decimal, len(h.SpeakerIDs))
	for _, id := range h.SpeakerIDs {
		out[id] = nil
	}
	for _, d := range h.Debates {
		for _, s := range d.Speakers {
			if s.Reply {
				continue
			}
			out[s.SpeakerID] = append(out[s.SpeakerID], s.Score)
		}
	}
	return out
}

func sum(scores []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, s := range scores {
		total = total.Add(s)
	}
	return total
}

func mean(scores []decimal.Decimal) decimal.Decimal {
	if len(scores) == 0 {
		return decimal.Zero
	}
	return sum(scores).DivRound(decimal.NewFromInt(int64(len(scores))), averagePlaces)
}

type speakerTotalMetric struct{}

func (speakerTotalMetric) Name() string { return "total" }

func (speakerTotalMetric) Compute(h *History) map[string]MetricValue {
	out := make(map[string]MetricValue, len(h.SpeakerIDs))
	for id, scores := range speakerScores(h) {
		out[id] = TSS(sum(scores))
	}
	return out
}

type speakerAverageMetric struct{}

func (speakerAverageMetric) Name() string { return "average" }

func (speakerAverageMetric) Compute(h *History) map[string]MetricValue {
	out := make(map[string]MetricValue, len(h.SpeakerIDs))
	for id, scores := range speakerScores(h) {
		out[id] = Average(mean(scores))
	}
	return out
}

// speakerTrimmedAverageMetric averages the scores lying within one
// population standard deviation of the speaker's mean. With fewer than
// three scores it is the plain mean.
type speakerTrimmedAverageMetric struct{}

func (speakerTrimmedAverageMetric) Name() string { return "trimmed_average" }

func (speakerTrimmedAverageMetric) Compute(h *History) map[string]MetricValue {
	out := make(map[string]MetricValue, len(h.SpeakerIDs))
	for id, scores := range speakerScores(h) {
		out[id] = Average(trimmedMean(scores))
	}
	return out
}

func trimmedMean(scores []decimal.Decimal) decimal.Decimal {
	if len(scores) < 3 {
		return mean(scores)
	}
	n := decimal.NewFromInt(int64(len(scores)))
	exactMean := sum(scores).Div(n)
	variance := decimal.Zero
	for _, s := range scores {
		d := s.Sub(exactMean)
		variance = variance.Add(d.Mul(d))
	}
	variance = variance.Div(n)

	var kept []decimal.Decimal
	for _, s := range scores {
		d := s.Sub(exactMean)
		if d.Mul(d).LessThanOrEqual(variance) {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return mean(scores)
	}
	return mean(kept)
}

type speakerCountMetric struct{}

func (speakerCountMetric) Name() string { return "count" }

func (speakerCountMetric) Compute(h *History) map[string]MetricValue {
	out := make(map[string]MetricValue, len(h.SpeakerIDs))
	for id, scores := range speakerScores(h) {
		out[id] = Count(int64(len(scores)))
	}
	return out
}

var teamMetrics = map[string]func() Metric{
	"points":                  func() Metric { return pointsMetric{} },
	"wins":                    func() Metric { return pointsMetric{} },
	"tss":                     func() Metric { return tssMetric{} },
	"total_speaker_score":     func() Metric { return tssMetric{} },
	"atss":                    func() Metric { return atssMetric{} },
	"avg_total_speaker_score": func() Metric { return atssMetric{} },
	"ds_wins":                 func() Metric { return dsWinsMetric{} },
	"draw_strength_by_wins":   func() Metric { return dsWinsMetric{} },
	"ds_speaks":               func() Metric { return dsSpeaksMetric{} },
	"draw_strength_by_speaks": func() Metric { return dsSpeaksMetric{} },
}

var speakerMetrics = map[string]func() Metric{
	"total":           func() Metric { return speakerTotalMetric{} },
	"average":         func() Metric { return speakerAverageMetric{} },
	"avg":             func() Metric { return speakerAverageMetric{} },
	"trimmed_average": func() Metric { return speakerTrimmedAverageMetric{} },
	"stddev":          func() Metric { return speakerTrimmedAverageMetric{} },
	"count":           func() Metric { return speakerCountMetric{} },
}

var nTimesPattern = regexp.MustCompile(`^(?:n_times_result|n_times_achieved)\((\d+)\)$`)

// ParseTeamMetric resolves a configured team metric name.
func ParseTeamMetric(name string) (Metric, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if ctor, ok := teamMetrics[key]; ok {
		return ctor(), nil
	}
	if m := nTimesPattern.FindStringSubmatch(key); m != nil {
		p, err := strconv.Atoi(m[1])
		if err == nil {
			return nTimesResultMetric{p: p}, nil
		}
	}
	return nil, apperr.InvalidConfiguration("unknown team metric %q", name)
}

// ParseSpeakerMetric resolves a configured speaker metric name.
func ParseSpeakerMetric(name string) (Metric, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if ctor, ok := speakerMetrics[key]; ok {
		return ctor(), nil
	}
	return nil, apperr.InvalidConfiguration("unknown speaker metric %q", name)
}

// ParseTeamMetrics resolves every name, failing on the first unknown one.
func ParseTeamMetrics(names []string) ([]Metric, error) {
	return parseAll(names, ParseTeamMetric)
}

// ParseSpeakerMetrics resolves every name, failing on the first unknown one.
func ParseSpeakerMetrics(names []string) ([]Metric, error) {
	return parseAll(names, ParseSpeakerMetric)
}

func parseAll(names []string, parse func(string) (Metric, error)) ([]Metric, error) {
	out := make([]Metric, 0, len(names))
	for _, n := range names {
		m, err := parse(n)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
