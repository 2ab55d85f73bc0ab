package tabexport

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/abacus-tab/abacus/app/modules/tournament/domain/standings"
)

// PointsBucket is how many teams finished on a points total.
type PointsBucket struct {
	Points int64
	Teams  int
}

// PointsDistribution counts teams per value of the first team metric,
// highest first.
func PointsDistribution(s *standings.Standings) []PointsBucket {
	if s == nil {
		return nil
	}
	counts := make(map[int64]int)
	for _, e := range s.Entries {
		if len(e.Values) == 0 {
			continue
		}
		v := e.Values[0]
		p := v.N
		if v.Kind == standings.KindTSS || v.Kind == standings.KindAverage {
			p = v.D.IntPart()
		}
		counts[p]++
	}
	buckets := make([]PointsBucket, 0, len(counts))
	for p, n := range counts {
		buckets = append(buckets, PointsBucket{Points: p, Teams: n})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Points > buckets[j].Points })
	return buckets
}

// RenderPointsChart draws the points distribution as a PNG bar chart.
func RenderPointsChart(title string, s *standings.Standings) ([]byte, error) {
	buckets := PointsDistribution(s)
	if len(buckets) == 0 {
		return nil, fmt.Errorf("no team standings to chart")
	}

	bars := make([]chart.Value, 0, len(buckets))
	for _, b := range buckets {
		bars = append(bars, chart.Value{
			Label: strconv.FormatInt(b.Points, 10),
			Value: float64(b.Teams),
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex("2e7d32"),
				StrokeColor: drawing.ColorFromHex("1b5e20"),
				StrokeWidth: 1,
			},
		})
	}

	graph := chart.BarChart{
		Title:    title,
		Width:    800,
		Height:   400,
		BarWidth: 40,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{
			Name: "Teams",
			ValueFormatter: func(v any) string {
				if f, ok := v.(float64); ok {
					return strconv.Itoa(int(f))
				}
				return ""
			},
		},
		Bars: bars,
	}

	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("failed to render points chart: %w", err)
	}
	return buf.Bytes(), nil
}
