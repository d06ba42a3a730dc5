// Package missing fills statistics that do not apply to a player, such as three-point
// percentage without an attempt, with a neutral default.
//
// Only whitelisted columns may hold nulls. A null anywhere else means an upstream join
// failed, and Normalize reports it instead of masking it.
package missing

import (
	"fmt"
	"strings"

	"github.com/pfrederiksen/nba-mvp/internal/table"
)

// UnexpectedNullError reports a null outside the whitelisted columns
type UnexpectedNullError struct {
	Column string
	Row    int
	Player string
}

func (e *UnexpectedNullError) Error() string {
	if e.Player != "" {
		return fmt.Sprintf("unexpected null in column %q at row %d (player %s)", e.Column, e.Row, e.Player)
	}
	return fmt.Sprintf("unexpected null in column %q at row %d", e.Column, e.Row)
}

// Normalizer defaults nulls in whitelisted columns
type Normalizer struct {
	// Whitelist is matched case-insensitively against column names.
	Whitelist []string

	// Default replaces nulls. Empty means "0".
	Default string

	// PlayerColumn labels errors. Matched case-insensitively; optional.
	PlayerColumn string
}

// Report counts the cells filled per column
type Report struct {
	Filled map[string]int `json:"filled"`
}

// Total returns the number of cells filled
func (r Report) Total() int {
	n := 0
	for _, c := range r.Filled {
		n += c
	}
	return n
}

// Normalize returns a copy of t with whitelisted nulls replaced by the default.
// It fails with *UnexpectedNullError before changing anything when another column holds a null.
func (n *Normalizer) Normalize(t *table.Table) (*table.Table, Report, error) {
	allowed := make(map[string]bool, len(n.Whitelist))
	for _, c := range n.Whitelist {
		allowed[strings.ToLower(strings.TrimSpace(c))] = true
	}

	playerIdx := -1
	for i, c := range t.Columns {
		if n.PlayerColumn != "" && strings.EqualFold(c, n.PlayerColumn) {
			playerIdx = i
			break
		}
	}

	fill := make([]bool, len(t.Columns))
	for i, c := range t.Columns {
		fill[i] = allowed[strings.ToLower(c)]
	}

	for r := range t.Rows {
		for i, c := range t.Columns {
			if fill[i] || !table.IsNull(t.Value(r, i)) {
				continue
			}
			return nil, Report{}, &UnexpectedNullError{
				Column: c,
				Row:    r,
				Player: t.Value(r, playerIdx),
			}
		}
	}

	def := n.Default
	if def == "" {
		def = "0"
	}

	report := Report{Filled: make(map[string]int)}
	out := t.Clone()
	for _, row := range out.Rows {
		for i := range row {
			if fill[i] && table.IsNull(row[i]) {
				row[i] = def
				report.Filled[out.Columns[i]]++
			}
		}
	}
	return out, report, nil
}
