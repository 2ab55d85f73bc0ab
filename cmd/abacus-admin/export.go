package main

import (
	"context"
	"fmt"
	"os"

	tournamentservice "github.com/abacus-tab/abacus/app/modules/tournament/application"
	tabexport "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/export"
)

type exportResult struct {
	WorkbookBytes int64
	ChartBytes    int64
	Teams         int
	Speakers      int
	Version       int64
}

// exportTab writes the tab workbook to out and, when chart is set, the
// points distribution PNG.
func exportTab(ctx context.Context, svc tournamentservice.Service, tournamentID, out, chart string) (*exportResult, error) {
	tab, err := svc.Tab(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(out)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", out, err)
	}
	if err := tabexport.WriteWorkbook(f, tab); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close %s: %w", out, err)
	}
	info, err := os.Stat(out)
	if err != nil {
		return nil, err
	}

	res := &exportResult{
		WorkbookBytes: info.Size(),
		Version:       tab.Standings.Version,
	}
	if tab.Standings.Teams != nil {
		res.Teams = len(tab.Standings.Teams.Entries)
	}
	if tab.Standings.Speakers != nil {
		res.Speakers = len(tab.Standings.Speakers.Entries)
	}

	if chart != "" {
		png, err := tabexport.RenderPointsChart(tab.Tournament.Name, tab.Standings.Teams)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(chart, png, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", chart, err)
		}
		res.ChartBytes = int64(len(png))
	}
	return res, nil
}
