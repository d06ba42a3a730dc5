package merge

import (
	"fmt"
	"strings"

	"github.com/pfrederiksen/nba-mvp/internal/table"
)

// JoinOptions describes one left join
type JoinOptions struct {
	// Name labels the join in warnings and metrics.
	Name string

	// LeftKey and RightKey are matched position by position.
	LeftKey  []string
	RightKey []string

	// Prefer lists left/right column pairs compared to choose among several right rows
	// for one key. The first candidate agreeing on every pair wins.
	Prefer [][2]string

	// Columns restricts the right columns attached. Empty attaches all of them.
	Columns []string

	// Rename is applied to attached right columns.
	Rename map[string]string
}

// FanoutWarning reports a join key held by more than one right row
type FanoutWarning struct {
	Join    string `json:"join"`
	Key     string `json:"key"`
	Matches int    `json:"matches"`

	// Resolved is true when the preferred-column tie-break picked the row,
	// false when the first row in input order was taken.
	Resolved bool `json:"resolved"`
}

func (w FanoutWarning) String() string {
	how := "first row"
	if w.Resolved {
		how = "matching team"
	}
	return fmt.Sprintf("%s: key %s matched %d rows, kept %s", w.Join, w.Key, w.Matches, how)
}

// LeftJoin attaches right columns to every left row whose key matches.
// Right columns whose output name already exists on the left are not attached, so
// left values win. The result always has exactly one row per left row; unmatched rows
// get empty cells.
func LeftJoin(left, right *table.Table, opts JoinOptions) (*table.Table, []FanoutWarning, error) {
	if len(opts.LeftKey) == 0 || len(opts.LeftKey) != len(opts.RightKey) {
		return nil, nil, fmt.Errorf("join %s: key columns %v and %v do not pair up", opts.Name, opts.LeftKey, opts.RightKey)
	}

	leftKey, err := indices(left, opts.LeftKey)
	if err != nil {
		return nil, nil, err
	}
	rightKey, err := indices(right, opts.RightKey)
	if err != nil {
		return nil, nil, err
	}

	leftPrefer := make([]int, 0, len(opts.Prefer))
	rightPrefer := make([]int, 0, len(opts.Prefer))
	for _, p := range opts.Prefer {
		// Tie-break columns are optional on either side
		li, lerr := left.Index(p[0])
		ri, rerr := right.Index(p[1])
		if lerr == nil && rerr == nil {
			leftPrefer = append(leftPrefer, li)
			rightPrefer = append(rightPrefer, ri)
		}
	}

	attach, names, err := attachedColumns(left, right, opts)
	if err != nil {
		return nil, nil, err
	}

	byKey := make(map[string][]int, right.Len())
	for i, row := range right.Rows {
		k := joinKey(row, rightKey)
		byKey[k] = append(byKey[k], i)
	}

	out := table.New(left.Name, append(append([]string(nil), left.Columns...), names...))
	warned := make(map[string]bool)
	var warnings []FanoutWarning

	for _, row := range left.Rows {
		nr := make([]string, len(out.Columns))
		copy(nr, row)

		k := joinKey(row, leftKey)
		candidates := byKey[k]
		if len(candidates) > 0 {
			pick, resolved := candidates[0], false
			if len(candidates) > 1 {
				pick, resolved = choose(row, right, candidates, leftPrefer, rightPrefer)
				if !warned[k] {
					warned[k] = true
					warnings = append(warnings, FanoutWarning{
						Join:     opts.Name,
						Key:      displayKey(row, leftKey),
						Matches:  len(candidates),
						Resolved: resolved,
					})
				}
			}
			src := right.Rows[pick]
			for j, ci := range attach {
				if ci < len(src) {
					nr[len(left.Columns)+j] = src[ci]
				}
			}
		}
		out.Rows = append(out.Rows, nr)
	}

	return out, warnings, nil
}

func indices(t *table.Table, columns []string) ([]int, error) {
	out := make([]int, len(columns))
	for i, c := range columns {
		idx, err := t.Index(c)
		if err != nil {
			return nil, err
		}
		out[i] = idx
	}
	return out, nil
}

// attachedColumns returns the right column positions to copy and their output names
func attachedColumns(left, right *table.Table, opts JoinOptions) ([]int, []string, error) {
	candidates := opts.Columns
	if len(candidates) == 0 {
		candidates = right.Columns
	}

	var attach []int
	var names []string
	seen := make(map[string]bool)
	for _, c := range candidates {
		idx, err := right.Index(c)
		if err != nil {
			return nil, nil, err
		}
		name := c
		if n, ok := opts.Rename[c]; ok {
			name = n
		}
		if left.Has(name) || seen[name] {
			continue
		}
		seen[name] = true
		attach = append(attach, idx)
		names = append(names, name)
	}
	return attach, names, nil
}

// choose picks the first candidate agreeing with the left row on every preferred column
func choose(row []string, right *table.Table, candidates, leftPrefer, rightPrefer []int) (int, bool) {
	if len(leftPrefer) == 0 {
		return candidates[0], false
	}
	for _, c := range candidates {
		match := true
		for j := range leftPrefer {
			if strings.TrimSpace(row[leftPrefer[j]]) != strings.TrimSpace(right.Value(c, rightPrefer[j])) {
				match = false
				break
			}
		}
		if match {
			return c, true
		}
	}
	return candidates[0], false
}

func joinKey(row []string, idx []int) string {
	parts := make([]string, len(idx))
	for i, c := range idx {
		if c < len(row) {
			parts[i] = strings.TrimSpace(row[c])
		}
	}
	return strings.Join(parts, "\x1f")
}

func displayKey(row []string, idx []int) string {
	return strings.ReplaceAll(joinKey(row, idx), "\x1f", "/")
}
