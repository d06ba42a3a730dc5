// Package export publishes the cleaned player table outside the data directory.
//
// Postgres replaces a table in one transaction and bulk loads it with COPY. DryRun
// prints what would be written.
package export

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pfrederiksen/nba-mvp/internal/table"
)

// Exporter defines the interface for publishing a table
type Exporter interface {
	Export(ctx context.Context, t *table.Table) error
}

// PreviewRows is the number of rows DryRun prints by default
const PreviewRows = 5

// DryRun prints what would be exported without writing anywhere
type DryRun struct {
	w      io.Writer
	target string
	limit  int
}

// NewDryRun creates a dry-run exporter writing its preview to w
func NewDryRun(w io.Writer, target string) *DryRun {
	return &DryRun{w: w, target: target, limit: PreviewRows}
}

// Export prints the column types and the first rows
func (d *DryRun) Export(ctx context.Context, t *table.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fmt.Fprintf(d.w, "--- Export to %s (dry run) ---\n", d.target)
	for _, c := range Columns(t) {
		fmt.Fprintf(d.w, "  %-24s %s\n", c.Name, c.Type)
	}
	fmt.Fprintln(d.w)

	n := t.Len()
	if n > d.limit {
		n = d.limit
	}
	fmt.Fprintln(d.w, strings.Join(t.Columns, ","))
	for _, row := range t.Rows[:n] {
		fmt.Fprintln(d.w, strings.Join(row, ","))
	}
	if t.Len() > n {
		fmt.Fprintf(d.w, "... %d more rows\n", t.Len()-n)
	}
	fmt.Fprintf(d.w, "\n(%d rows would be exported)\n", t.Len())
	return nil
}

// Column types
const (
	TypeNumeric = "DOUBLE PRECISION"
	TypeText    = "TEXT"
)

// Column is a destination column
type Column struct {
	Name string
	Type string
}

// Columns infers a type per column. A column is numeric when every non-null value
// parses as a float and at least one value is present.
func Columns(t *table.Table) []Column {
	out := make([]Column, len(t.Columns))
	for j, name := range t.Columns {
		out[j] = Column{Name: name, Type: TypeText}
		seen := false
		numeric := true
		for i := range t.Rows {
			v := t.Value(i, j)
			if table.IsNull(v) {
				continue
			}
			seen = true
			if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
				numeric = false
				break
			}
		}
		if seen && numeric {
			out[j].Type = TypeNumeric
		}
	}
	return out
}
