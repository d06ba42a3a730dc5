// Package standings normalizes team standings rows.
//
// Standings labels carry an asterisk when the team qualified for the playoffs and a
// parenthetical conference seed, e.g. "Boston Celtics* (1)". Normalize strips both,
// records the playoff flag, and yields the canonical team names used to reconcile
// against the team codes in player statistics.
package standings

import (
	"errors"
	"sort"
	"strings"

	"github.com/pfrederiksen/nba-mvp/internal/table"
)

// PlayoffMarker marks a playoff team in a standings label
const PlayoffMarker = "*"

var errNull = errors.New("value is empty")

// SeasonTeamRecord is one team's normalized standing for a season
type SeasonTeamRecord struct {
	TeamKey      string  `json:"team_key"`
	Season       int     `json:"season"`
	WinLossPct   float64 `json:"win_loss_pct"`
	MadePlayoffs bool    `json:"made_playoffs"`
}

// Columns names the standings columns Normalize reads and writes
type Columns struct {
	Team        string
	Season      string
	WinLossPct  string
	GamesBehind string // optional
	Playoffs    string // added to the output
}

// NormalizeLabel returns the canonical team name and whether the label carried the playoff marker.
// "Boston Celtics* (1)" yields ("Boston Celtics", true).
func NormalizeLabel(raw string) (name string, playoffs bool) {
	playoffs = strings.Contains(raw, PlayoffMarker)

	name = raw
	if i := strings.Index(name, "("); i != -1 {
		name = name[:i]
	}
	name = strings.ReplaceAll(name, PlayoffMarker, "")
	// TrimSpace also removes the non-breaking space the site puts before the seed
	return strings.TrimSpace(name), playoffs
}

// Normalize cleans every team label, adds the playoff flag column, and zeroes the
// games-behind placeholder used for division leaders. The input table is not modified.
func Normalize(t *table.Table, cols Columns) (*table.Table, []SeasonTeamRecord, error) {
	if err := t.Require(cols.Team, cols.Season, cols.WinLossPct); err != nil {
		return nil, nil, err
	}
	teamIdx, _ := t.Index(cols.Team)
	seasonIdx, _ := t.Index(cols.Season)
	pctIdx, _ := t.Index(cols.WinLossPct)

	flags := make([]bool, t.Len())
	out := t.Clone()
	for i, row := range out.Rows {
		row[teamIdx], flags[i] = NormalizeLabel(row[teamIdx])
	}

	if cols.GamesBehind != "" && out.Has(cols.GamesBehind) {
		gbIdx, _ := out.Index(cols.GamesBehind)
		for _, row := range out.Rows {
			if isLeaderPlaceholder(row[gbIdx]) {
				row[gbIdx] = "0"
			}
		}
	}

	records := make([]SeasonTeamRecord, 0, out.Len())
	for i, row := range out.Rows {
		season, ok, err := out.Int(i, seasonIdx)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, &table.ValueError{Table: t.Name, Column: cols.Season, Row: i, Err: errNull}
		}
		pct, ok, err := out.Float(i, pctIdx)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, &table.ValueError{Table: t.Name, Column: cols.WinLossPct, Row: i, Err: errNull}
		}
		records = append(records, SeasonTeamRecord{
			TeamKey:      row[teamIdx],
			Season:       season,
			WinLossPct:   pct,
			MadePlayoffs: flags[i],
		})
	}

	out = out.AddColumn(cols.Playoffs, func(i int, _ []string) string {
		if flags[i] {
			return "true"
		}
		return "false"
	})

	return out, records, nil
}

// Names returns the distinct team names in a standings table, sorted
func Names(t *table.Table, column string) ([]string, error) {
	idx, err := t.Index(column)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, row := range t.Rows {
		if !seen[row[idx]] {
			seen[row[idx]] = true
			names = append(names, row[idx])
		}
	}
	sort.Strings(names)
	return names, nil
}

func isLeaderPlaceholder(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "—", "–", "-":
		return true
	}
	return false
}
