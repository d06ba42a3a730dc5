// Package eligibility filters merged player-seasons against the historical statistical
// floors of MVP winners.
//
// Every floor is inclusive and all of them must hold. A null statistic fails its floor.
// The floors are a prefilter, not a guarantee: no past winner fell below them.
//
// Example usage:
//
//	f := eligibility.NewFilter(cols, eligibility.DefaultThresholds(), true)
//	filtered, err := f.Apply(merged)
//	out := f.Project(filtered)
package eligibility

import (
	"fmt"
	"strings"

	"github.com/pfrederiksen/nba-mvp/internal/merge"
	"github.com/pfrederiksen/nba-mvp/internal/table"
)

// Thresholds are the minimum per-game values for a candidate
type Thresholds struct {
	Games             float64 `json:"games"`
	Points            float64 `json:"points"`
	FieldGoalAttempts float64 `json:"field_goal_attempts"`
	Rebounds          float64 `json:"rebounds"`
	Assists           float64 `json:"assists"`
	FieldGoalPct      float64 `json:"field_goal_pct"`
	Minutes           float64 `json:"minutes"`
	PER               float64 `json:"per"`
}

// DefaultThresholds returns the floors observed across MVP winners since 1956
func DefaultThresholds() Thresholds {
	return Thresholds{
		Games:             49,
		Points:            13.8,
		FieldGoalAttempts: 10.9,
		Rebounds:          3.3,
		Assists:           1.3,
		FieldGoalPct:      0.378,
		Minutes:           30.4,
		PER:               18.1,
	}
}

// Columns names the statistic columns the filter reads
type Columns struct {
	Player            string
	Playoffs          string
	Games             string
	Points            string
	FieldGoalAttempts string
	Rebounds          string
	Assists           string
	FieldGoalPct      string
	Minutes           string
	PER               string
}

// Floor is one inclusive lower bound on a column
type Floor struct {
	Column string  `json:"column"`
	Min    float64 `json:"min"`
}

func (fl Floor) String() string {
	return fmt.Sprintf("%s >= %g", fl.Column, fl.Min)
}

// Filter represents the eligibility criteria
type Filter struct {
	// PlayerColumn has its names cleaned on output. Empty skips cleaning.
	PlayerColumn string `json:"player_column,omitempty"`

	// PlayoffsColumn must hold "true" when RequirePlayoffs is set.
	PlayoffsColumn  string `json:"playoffs_column,omitempty"`
	RequirePlayoffs bool   `json:"require_playoffs"`

	Floors []Floor `json:"floors,omitempty"`

	// DropColumns are removed by Project.
	DropColumns []string `json:"drop_columns,omitempty"`
}

// NewFilter creates a filter with one floor per threshold. The PER floor is only
// included for the extended schema.
func NewFilter(cols Columns, th Thresholds, extended bool) *Filter {
	f := &Filter{
		PlayerColumn:    cols.Player,
		PlayoffsColumn:  cols.Playoffs,
		RequirePlayoffs: true,
		Floors: []Floor{
			{Column: cols.Games, Min: th.Games},
			{Column: cols.Points, Min: th.Points},
			{Column: cols.FieldGoalAttempts, Min: th.FieldGoalAttempts},
			{Column: cols.Rebounds, Min: th.Rebounds},
			{Column: cols.Assists, Min: th.Assists},
			{Column: cols.FieldGoalPct, Min: th.FieldGoalPct},
			{Column: cols.Minutes, Min: th.Minutes},
		},
		DropColumns: []string{},
	}
	if extended {
		f.Floors = append(f.Floors, Floor{Column: cols.PER, Min: th.PER})
	}
	return f
}

// IsEmpty checks if the filter has any active criteria
func (f *Filter) IsEmpty() bool {
	return !f.RequirePlayoffs && len(f.Floors) == 0
}

// With returns a copy of the filter with the floor for fl.Column set to fl.Min,
// adding it when the column has no floor yet.
func (f *Filter) With(fl Floor) *Filter {
	c := f.Clone()
	for i := range c.Floors {
		if c.Floors[i].Column == fl.Column {
			c.Floors[i].Min = fl.Min
			return c
		}
	}
	c.Floors = append(c.Floors, fl)
	return c
}

// bound is a filter resolved against one table's header
type bound struct {
	playoffs int
	floors   []int
}

func (f *Filter) bind(t *table.Table) (*bound, error) {
	b := &bound{playoffs: -1, floors: make([]int, len(f.Floors))}
	if f.RequirePlayoffs {
		idx, err := t.Index(f.PlayoffsColumn)
		if err != nil {
			return nil, err
		}
		b.playoffs = idx
	}
	for i, fl := range f.Floors {
		idx, err := t.Index(fl.Column)
		if err != nil {
			return nil, err
		}
		b.floors[i] = idx
	}
	return b, nil
}

// Matches checks if one row of t passes every criterion
func (f *Filter) Matches(t *table.Table, row int) (bool, error) {
	b, err := f.bind(t)
	if err != nil {
		return false, err
	}
	return f.matches(t, row, b)
}

func (f *Filter) matches(t *table.Table, row int, b *bound) (bool, error) {
	if b.playoffs >= 0 && !isTrue(t.Value(row, b.playoffs)) {
		return false, nil
	}
	for i, fl := range f.Floors {
		v, ok, err := t.Float(row, b.floors[i])
		if err != nil {
			return false, err
		}
		if !ok || v < fl.Min {
			return false, nil
		}
	}
	return true, nil
}

// Apply returns the rows of t that pass every criterion, with player names cleaned.
// Applying the filter to its own output returns the same table.
func (f *Filter) Apply(t *table.Table) (*table.Table, error) {
	b, err := f.bind(t)
	if err != nil {
		return nil, err
	}

	var rowErr error
	out := t.Filter(func(i int, _ []string) bool {
		if rowErr != nil {
			return false
		}
		ok, err := f.matches(t, i, b)
		if err != nil {
			rowErr = err
			return false
		}
		return ok
	})
	if rowErr != nil {
		return nil, rowErr
	}

	if f.PlayerColumn != "" && out.Has(f.PlayerColumn) {
		return merge.CleanPlayerNames(out, f.PlayerColumn)
	}
	return out, nil
}

// Project removes DropColumns, matched case-insensitively, and lower-cases the remaining
// column names
func (f *Filter) Project(t *table.Table) *table.Table {
	var drop []string
	for _, c := range t.Columns {
		for _, d := range f.DropColumns {
			if strings.EqualFold(c, d) {
				drop = append(drop, c)
				break
			}
		}
	}
	return t.Drop(drop...).LowerColumns()
}

// String returns a human-readable description of the criteria
// Format: "playoffs | G >= 49 | PTS >= 13.8"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string
	if f.RequirePlayoffs {
		parts = append(parts, "playoffs")
	}
	for _, fl := range f.Floors {
		parts = append(parts, fl.String())
	}
	return strings.Join(parts, " | ")
}

// Clone creates a deep copy of the filter
func (f *Filter) Clone() *Filter {
	clone := &Filter{
		PlayerColumn:    f.PlayerColumn,
		PlayoffsColumn:  f.PlayoffsColumn,
		RequirePlayoffs: f.RequirePlayoffs,
	}

	clone.Floors = make([]Floor, len(f.Floors))
	copy(clone.Floors, f.Floors)

	clone.DropColumns = make([]string, len(f.DropColumns))
	copy(clone.DropColumns, f.DropColumns)

	return clone
}

func isTrue(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}
