// Package tabexport renders standings as an XLSX tab workbook and a PNG
// points-distribution chart.
package tabexport

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	tournamentservice "github.com/abacus-tab/abacus/app/modules/tournament/application"
	"github.com/abacus-tab/abacus/app/modules/tournament/domain/standings"
)

const (
	TeamSheet    = "Team Tab"
	SpeakerSheet = "Speaker Tab"
)

// WriteWorkbook writes the team and speaker tabs of tab to w.
func WriteWorkbook(w io.Writer, tab *tournamentservice.TabReport) error {
	f, err := BuildWorkbook(tab)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// BuildWorkbook lays the tab out in a new workbook. Callers own the file.
func BuildWorkbook(tab *tournamentservice.TabReport) (*excelize.File, error) {
	if tab == nil || tab.Standings == nil {
		return nil, fmt.Errorf("tab has no standings")
	}
	f := excelize.NewFile()

	// NewFile starts with Sheet1; rename it rather than leave it empty.
	if err := f.SetSheetName(f.GetSheetName(0), TeamSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SpeakerSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to add sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	teamRows := func(e standings.Entry) []any {
		return []any{e.Rank, tab.TeamNames[e.ID]}
	}
	if err := writeSheet(f, TeamSheet, bold, []string{"Rank", "Team"}, tab.Standings.Teams, teamRows); err != nil {
		f.Close()
		return nil, err
	}

	speakerRows := func(e standings.Entry) []any {
		return []any{e.Rank, tab.SpeakerNames[e.ID], tab.TeamNames[tab.SpeakerTeams[e.ID]]}
	}
	if err := writeSheet(f, SpeakerSheet, bold, []string{"Rank", "Speaker", "Team"}, tab.Standings.Speakers, speakerRows); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, lead []string, s *standings.Standings, row func(standings.Entry) []any) error {
	if s == nil {
		return nil
	}
	header := make([]any, 0, len(lead)+len(s.Metrics))
	for _, h := range lead {
		header = append(header, h)
	}
	for _, m := range s.Metrics {
		header = append(header, m)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}

	for i, e := range s.Entries {
		values := row(e)
		for _, v := range e.Values {
			values = append(values, cellValue(v))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

// cellValue writes every metric as a number cell.
func cellValue(v standings.MetricValue) any {
	switch v.Kind {
	case standings.KindTSS, standings.KindAverage:
		f, _ := v.D.Float64()
		return f
	default:
		return v.N
	}
}
