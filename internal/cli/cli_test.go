package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/nba-mvp/internal/merge"
	"github.com/pfrederiksen/nba-mvp/internal/model"
	"github.com/pfrederiksen/nba-mvp/internal/pipeline"
	"github.com/pfrederiksen/nba-mvp/internal/scraper"
	"github.com/pfrederiksen/nba-mvp/internal/storage"
	"github.com/pfrederiksen/nba-mvp/internal/table"
)

const playerDataCSV = `player,pos,tm,g,pts,ast,mvp_share,mvp_rank,first_place_votes,year
Michael Jordan,SG,CHI,82,31.5,5.5,0.928,1,77,1991
Magic Johnson,PG,LAL,79,19.4,12.5,0.518,2,10,1991
David Robinson,C,SAS,82,25.6,2.5,0.2,4,0,1991
Michael Jordan,SG,CHI,80,30.1,6.1,0.9,1,80,1992
Clyde Drexler,SG,POR,76,25.0,6.7,0.6,2,20,1992
Karl Malone,PF,UTA,81,28.0,3.0,0.3,4,0,1992
`

func seedDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.New(dir)
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	tbl, err := table.Read(storage.PlayerData.Name, strings.NewReader(playerDataCSV))
	if err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	if err := store.SaveTable(storage.PlayerData, tbl); err != nil {
		t.Fatalf("saving fixture: %v", err)
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("NBA_MVP_CONFIG", "")
	t.Setenv("NBA_MVP_LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_Train(t *testing.T) {
	dir := seedDataDir(t)

	out, err := execute(t, "--data-dir", dir, "--format", "json", "train")
	if err != nil {
		t.Fatalf("train error = %v", err)
	}

	var report pipeline.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decoding report: %v\n%s", err, out)
	}
	if report.Stage != pipeline.StageTrain || report.Seasons != 2 {
		t.Errorf("report = %+v", report)
	}
}

func TestRootCmd_ExportDryRun(t *testing.T) {
	dir := seedDataDir(t)

	out, err := execute(t, "--data-dir", dir, "export", "--dry-run")
	if err != nil {
		t.Fatalf("export error = %v", err)
	}
	for _, want := range []string{"(6 rows would be exported)", "export: 6 -> 6 rows"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRootCmd_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"invalid format", []string{"--data-dir", dir, "--format", "xml", "merge"}, "invalid format"},
		{"invalid floor", []string{"--data-dir", dir, "clean", "--floor", "PTS<20"}, "floor"},
		{"invalid sort", []string{"--data-dir", dir, "train", "--sort", "name"}, "invalid sort"},
		{"unknown kind", []string{"--data-dir", dir, "scrape", "--kind", "box_scores"}, "unknown page kind"},
		{"missing input", []string{"--data-dir", dir, "merge"}, "merge stage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSelectKinds(t *testing.T) {
	tests := []struct {
		name     string
		names    []string
		extended bool
		want     []string
	}{
		{"all extended", nil, true, []string{"mvp_votings", "player_stats", "advanced_stats", "team_records"}},
		{"base schema skips advanced", nil, false, []string{"mvp_votings", "player_stats", "team_records"}},
		{"explicit", []string{"team_records", " mvp_votings"}, false, []string{"team_records", "mvp_votings"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kinds, err := selectKinds(tt.names, tt.extended)
			if err != nil {
				t.Fatalf("selectKinds() error = %v", err)
			}
			var got []string
			for _, k := range kinds {
				got = append(got, k.Name)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("selectKinds() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSortFolds(t *testing.T) {
	folds := func() []model.Fold {
		return []model.Fold{
			{Season: 1993, RMSE: 0.10, R2: 0.50},
			{Season: 1991, RMSE: 0.20, R2: 0.80},
			{Season: 1992, RMSE: 0.10, R2: 0.30},
		}
	}
	tests := []struct {
		order SortOrder
		want  []int
	}{
		{SortBySeason, []int{1991, 1992, 1993}},
		{SortByRMSE, []int{1992, 1993, 1991}},
		{SortByR2, []int{1991, 1993, 1992}},
	}
	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			f := folds()
			sortFolds(f, tt.order)
			for i, s := range tt.want {
				if f[i].Season != s {
					t.Errorf("position %d = %d, want %d", i, f[i].Season, s)
				}
			}
		})
	}

	if SortOrder("name").Valid() {
		t.Error("Valid() accepted unknown order")
	}
}

func TestWriteOutput(t *testing.T) {
	reports := []*pipeline.Report{
		{
			RunID:            "run-1",
			Stage:            pipeline.StageMerge,
			RowsIn:           10,
			RowsOut:          9,
			Duration:         1500 * time.Millisecond,
			Teams:            27,
			TradeRowsDropped: 1,
			Warnings: []merge.FanoutWarning{
				{Join: "votes", Key: "B/1991", Matches: 2},
				{Join: "advanced", Key: "A/1991", Matches: 2, Resolved: true},
			},
		},
		{
			Stage:  pipeline.StageClean,
			Filter: "playoffs | G >= 49",
			Filled: map[string]int{"3p%": 2, "mvp_share": 5},
		},
		{
			Stage: pipeline.StageScrape,
			Pages: []*scraper.Summary{{Kind: "mvp_votings", Seasons: 2, Rows: 30, Sources: map[string]int{"disk": 1, "network": 1}}},
		},
	}

	tests := []struct {
		name     string
		format   OutputFormat
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name:     "text",
			format:   FormatText,
			contains: []string{"merge: 10 -> 9 rows in 1.5s", "Teams reconciled: 27", "Fan-out warnings: 2", "Nulls filled: 7", "mvp_votings", "disk=1, network=1"},
			excludes: []string{"Run ID", "kept first row"},
		},
		{
			name:     "text verbose",
			format:   FormatText,
			verbose:  true,
			contains: []string{"Run ID: run-1", "advanced: key A/1991", "mvp_share"},
		},
		{
			name:     "json",
			format:   FormatJSON,
			contains: []string{`"stage": "merge"`, `"run_id": "run-1"`, `"filled"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteOutput(&buf, reports, tt.format, tt.verbose); err != nil {
				t.Fatalf("WriteOutput() error = %v", err)
			}
			out := buf.String()
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(out, s) {
					t.Errorf("output contains %q:\n%s", s, out)
				}
			}
		})
	}

	if err := WriteOutput(&bytes.Buffer{}, reports, "xml", false); err == nil {
		t.Error("WriteOutput() expected error for unknown format")
	}
}

func TestCheckWarnings(t *testing.T) {
	resolved := merge.FanoutWarning{Join: "advanced", Key: "Journeyman|1991", Matches: 2, Resolved: true}
	firstRow := merge.FanoutWarning{Join: "advanced", Key: "Journeyman|1992", Matches: 2}

	tests := []struct {
		name     string
		strict   bool
		warnings []merge.FanoutWarning
		want     int
	}{
		{"not strict", false, []merge.FanoutWarning{firstRow}, ExitSuccess},
		{"strict without warnings", true, nil, ExitSuccess},
		{"strict with team-resolved warnings", true, []merge.FanoutWarning{resolved, resolved}, ExitSuccess},
		{"strict with unresolved warning", true, []merge.FanoutWarning{resolved, firstRow}, ExitWarnings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &app{strict: tt.strict}
			r := &pipeline.Report{Stage: pipeline.StageMerge, Warnings: tt.warnings}
			if got := exitCode(a.checkWarnings(r)); got != tt.want {
				t.Errorf("exit code = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{fmt.Errorf("merge stage: %w", errors.New("boom")), ExitError},
		{fmt.Errorf("%w: 2 in merge stage", errWarnings), ExitWarnings},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
