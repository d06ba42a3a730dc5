package merge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/nba-mvp/internal/franchise"
	"github.com/pfrederiksen/nba-mvp/internal/standings"
	"github.com/pfrederiksen/nba-mvp/internal/table"
)

// Join names used in warnings and metrics
const (
	JoinStandings = "standings"
	JoinAdvanced  = "advanced"
	JoinVotes     = "votes"
)

// Columns names the input columns the merger reads and the vote columns it writes
type Columns struct {
	Season string
	Player string
	Team   string

	// Standings columns
	TeamName    string
	WinLossPct  string
	GamesBehind string
	Playoffs    string

	// Voting table columns and the names they are renamed to
	ShareColumn string
	RankColumn  string
	FirstColumn string
	VoteShare   string
	VoteRank    string
	FirstPlace  string
}

// Options configures Merge
type Options struct {
	Columns Columns

	// Aliases maps era-specific team codes to canonical ones, e.g. CHO to CHH.
	Aliases map[string]string

	// TradeCodes mark combined-team rows for players traded mid-season.
	TradeCodes []string

	// Reconcile configures team name to code pairing. From and To default to the
	// season span of the per-game table.
	Reconcile franchise.Options
}

// Inputs holds the four source tables
type Inputs struct {
	Votes     *table.Table
	PerGame   *table.Table
	Advanced  *table.Table // nil without the extended schema
	Standings *table.Table
}

// Result is the merged table with the diagnostics gathered while building it
type Result struct {
	Table    *table.Table
	Teams    *franchise.Map
	Records  []standings.SeasonTeamRecord
	Warnings []FanoutWarning

	TradeRowsDropped int
}

// Merge joins per-game stats with standings, advanced stats and voting results into
// one row per player, team and season. The per-game row count after trade rows are
// dropped is preserved by every join.
func Merge(in Inputs, opts Options) (*Result, error) {
	cols := opts.Columns
	if in.PerGame == nil || in.Standings == nil || in.Votes == nil {
		return nil, fmt.Errorf("merge needs per-game, standings and voting tables")
	}

	perGame := in.PerGame.DropUnnamed()
	votes := in.Votes.DropUnnamed()
	std := in.Standings.DropUnnamed()
	var advanced *table.Table
	if in.Advanced != nil {
		advanced = in.Advanced.DropUnnamed()
	}

	var err error
	if perGame, err = CleanPlayerNames(perGame, cols.Player); err != nil {
		return nil, err
	}
	if votes, err = CleanPlayerNames(votes, cols.Player); err != nil {
		return nil, err
	}

	res := &Result{}

	perGame, dropped, err := prepareStats(perGame, cols.Team, opts)
	if err != nil {
		return nil, fmt.Errorf("preparing per-game stats: %w", err)
	}
	res.TradeRowsDropped += dropped

	if advanced != nil {
		if advanced, err = CleanPlayerNames(advanced, cols.Player); err != nil {
			return nil, err
		}
		advanced, dropped, err = prepareStats(advanced, cols.Team, opts)
		if err != nil {
			return nil, fmt.Errorf("preparing advanced stats: %w", err)
		}
		res.TradeRowsDropped += dropped
	}

	std, res.Records, err = standings.Normalize(std, standings.Columns{
		Team:        cols.TeamName,
		Season:      cols.Season,
		WinLossPct:  cols.WinLossPct,
		GamesBehind: cols.GamesBehind,
		Playoffs:    cols.Playoffs,
	})
	if err != nil {
		return nil, fmt.Errorf("normalizing standings: %w", err)
	}

	res.Teams, err = reconcileTeams(perGame, std, cols, opts.Reconcile)
	if err != nil {
		return nil, err
	}
	if std, err = res.Teams.Rewrite(std, cols.TeamName); err != nil {
		return nil, fmt.Errorf("rewriting standings teams: %w", err)
	}

	merged, warnings, err := LeftJoin(perGame, std, JoinOptions{
		Name:     JoinStandings,
		LeftKey:  []string{cols.Team, cols.Season},
		RightKey: []string{cols.TeamName, cols.Season},
	})
	if err != nil {
		return nil, fmt.Errorf("joining standings: %w", err)
	}
	res.Warnings = append(res.Warnings, warnings...)

	if advanced != nil {
		merged, warnings, err = LeftJoin(merged, advanced, JoinOptions{
			Name:     JoinAdvanced,
			LeftKey:  []string{cols.Player, cols.Season},
			RightKey: []string{cols.Player, cols.Season},
			Prefer:   [][2]string{{cols.Team, cols.Team}},
		})
		if err != nil {
			return nil, fmt.Errorf("joining advanced stats: %w", err)
		}
		res.Warnings = append(res.Warnings, warnings...)
	}

	if votes, err = votes.Map(cols.RankColumn, stripTie); err != nil {
		return nil, fmt.Errorf("reading voting table: %w", err)
	}
	merged, warnings, err = LeftJoin(merged, votes, JoinOptions{
		Name:     JoinVotes,
		LeftKey:  []string{cols.Player, cols.Season},
		RightKey: []string{cols.Player, cols.Season},
		Prefer:   [][2]string{{cols.Team, cols.Team}},
		Columns:  []string{cols.ShareColumn, cols.RankColumn, cols.FirstColumn},
		Rename: map[string]string{
			cols.ShareColumn: cols.VoteShare,
			cols.RankColumn:  cols.VoteRank,
			cols.FirstColumn: cols.FirstPlace,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("joining votes: %w", err)
	}
	res.Warnings = append(res.Warnings, warnings...)

	res.Table = merged.WithName("uncleaned_merged")
	return res, nil
}

// CleanPlayerName removes hall-of-fame markers and surrounding whitespace
func CleanPlayerName(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(name, "*", ""))
}

// CleanPlayerNames returns a copy of t with every name in column cleaned
func CleanPlayerNames(t *table.Table, column string) (*table.Table, error) {
	return t.Map(column, CleanPlayerName)
}

// prepareStats unifies franchise aliases and drops trade aggregate rows
func prepareStats(t *table.Table, team string, opts Options) (*table.Table, int, error) {
	t, err := t.Map(team, func(code string) string {
		return franchise.CanonicalCode(code, opts.Aliases)
	})
	if err != nil {
		return nil, 0, err
	}

	trade := make(map[string]bool, len(opts.TradeCodes))
	for _, c := range opts.TradeCodes {
		trade[strings.TrimSpace(c)] = true
	}
	idx, _ := t.Index(team)
	kept := t.Filter(func(_ int, row []string) bool {
		return !trade[row[idx]]
	})
	return kept, t.Len() - kept.Len(), nil
}

func reconcileTeams(perGame, std *table.Table, cols Columns, opts franchise.Options) (*franchise.Map, error) {
	names, err := standings.Names(std, cols.TeamName)
	if err != nil {
		return nil, err
	}
	codes, err := distinct(perGame, cols.Team)
	if err != nil {
		return nil, err
	}

	if opts.From == 0 && opts.To == 0 {
		opts.From, opts.To, err = seasonSpan(perGame, cols.Season)
		if err != nil {
			return nil, err
		}
	}

	m, err := franchise.Reconcile(names, codes, opts)
	if err != nil {
		return nil, fmt.Errorf("reconciling team names: %w", err)
	}
	return m, nil
}

func distinct(t *table.Table, column string) ([]string, error) {
	idx, err := t.Index(column)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, row := range t.Rows {
		v := strings.TrimSpace(row[idx])
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out, nil
}

func seasonSpan(t *table.Table, column string) (from, to int, err error) {
	idx, err := t.Index(column)
	if err != nil {
		return 0, 0, err
	}
	for i := range t.Rows {
		y, ok, err := t.Int(i, idx)
		if err != nil {
			return 0, 0, err
		}
		if !ok {
			continue
		}
		if from == 0 || y < from {
			from = y
		}
		if y > to {
			to = y
		}
	}
	return from, to, nil
}

// stripTie turns a shared rank such as "2T" into "2"
func stripTie(rank string) string {
	return strings.TrimSuffix(strings.TrimSpace(rank), "T")
}
