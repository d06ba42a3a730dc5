package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Table is an in-memory delimited-text table
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string

	index map[string]int
}

// New creates an empty table with the given header
func New(name string, columns []string) *Table {
	t := &Table{
		Name:    name,
		Columns: append([]string(nil), columns...),
		Rows:    make([][]string, 0),
	}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		// First occurrence wins for duplicated headers
		if _, exists := t.index[c]; !exists {
			t.index[c] = i
		}
	}
}

// IsNull reports whether a cell holds no value
func IsNull(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "nan")
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Has reports whether the table has a column
func (t *Table) Has(column string) bool {
	if t.index == nil {
		t.reindex()
	}
	_, ok := t.index[column]
	return ok
}

// Index returns the position of a column or a SchemaError
func (t *Table) Index(column string) (int, error) {
	if t.index == nil {
		t.reindex()
	}
	i, ok := t.index[column]
	if !ok {
		return -1, &SchemaError{Table: t.Name, Column: column}
	}
	return i, nil
}

// Require checks that every named column is present
func (t *Table) Require(columns ...string) error {
	for _, c := range columns {
		if _, err := t.Index(c); err != nil {
			return err
		}
	}
	return nil
}

// Append adds a row, padding or truncating it to the header width
func (t *Table) Append(row []string) {
	r := make([]string, len(t.Columns))
	copy(r, row)
	t.Rows = append(t.Rows, r)
}

// Value returns the cell at row/column index, or "" when out of range
func (t *Table) Value(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// Get returns the cell at row for a named column
func (t *Table) Get(row int, column string) (string, error) {
	i, err := t.Index(column)
	if err != nil {
		return "", err
	}
	return t.Value(row, i), nil
}

// Float parses the cell at row/col. ok is false for null cells.
func (t *Table) Float(row, col int) (v float64, ok bool, err error) {
	s := strings.TrimSpace(t.Value(row, col))
	if IsNull(s) {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, &ValueError{Table: t.Name, Column: t.Columns[col], Row: row, Value: s, Err: err}
	}
	return v, true, nil
}

// Int parses the cell at row/col as an integer. ok is false for null cells.
func (t *Table) Int(row, col int) (v int, ok bool, err error) {
	f, ok, err := t.Float(row, col)
	if err != nil || !ok {
		return 0, ok, err
	}
	return int(f), true, nil
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	c := New(t.Name, t.Columns)
	c.Rows = make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		c.Rows[i] = append([]string(nil), r...)
	}
	return c
}

// WithName returns a copy of the table under a new name
func (t *Table) WithName(name string) *Table {
	c := t.Clone()
	c.Name = name
	return c
}

// Filter returns a new table holding the rows for which keep returns true
func (t *Table) Filter(keep func(i int, row []string) bool) *Table {
	out := New(t.Name, t.Columns)
	for i, r := range t.Rows {
		if keep(i, r) {
			out.Rows = append(out.Rows, append([]string(nil), r...))
		}
	}
	return out
}

// Map returns a new table with fn applied to the cells of one column
func (t *Table) Map(column string, fn func(string) string) (*Table, error) {
	i, err := t.Index(column)
	if err != nil {
		return nil, err
	}
	out := t.Clone()
	for _, r := range out.Rows {
		r[i] = fn(r[i])
	}
	return out, nil
}

// AddColumn returns a new table with a column appended, filled by fn
func (t *Table) AddColumn(name string, fn func(i int, row []string) string) *Table {
	out := New(t.Name, append(append([]string(nil), t.Columns...), name))
	for i, r := range t.Rows {
		nr := make([]string, len(r)+1)
		copy(nr, r)
		nr[len(r)] = fn(i, r)
		out.Rows = append(out.Rows, nr)
	}
	return out
}

// Rename returns a new table with columns renamed per the map. Missing sources are ignored.
func (t *Table) Rename(names map[string]string) *Table {
	out := t.Clone()
	for i, c := range out.Columns {
		if n, ok := names[c]; ok {
			out.Columns[i] = n
		}
	}
	out.reindex()
	return out
}

// Drop returns a new table without the named columns. Missing names are ignored.
func (t *Table) Drop(columns ...string) *Table {
	drop := make(map[string]bool, len(columns))
	for _, c := range columns {
		drop[c] = true
	}
	return t.dropWhere(func(name string) bool { return drop[name] })
}

// DropUnnamed removes blank headers and pandas "Unnamed: N" index or spacer columns
func (t *Table) DropUnnamed() *Table {
	return t.dropWhere(func(name string) bool {
		name = strings.TrimSpace(name)
		return name == "" || strings.HasPrefix(name, "Unnamed:")
	})
}

func (t *Table) dropWhere(drop func(name string) bool) *Table {
	keep := make([]int, 0, len(t.Columns))
	cols := make([]string, 0, len(t.Columns))
	for i, c := range t.Columns {
		if !drop(c) {
			keep = append(keep, i)
			cols = append(cols, c)
		}
	}
	out := New(t.Name, cols)
	for _, r := range t.Rows {
		nr := make([]string, len(keep))
		for j, i := range keep {
			if i < len(r) {
				nr[j] = r[i]
			}
		}
		out.Rows = append(out.Rows, nr)
	}
	return out
}

// LowerColumns returns a new table with lower-cased column names
func (t *Table) LowerColumns() *Table {
	out := t.Clone()
	for i, c := range out.Columns {
		out.Columns[i] = strings.ToLower(c)
	}
	out.reindex()
	return out
}

// Concat appends the rows of others to a copy of t, aligning by column name.
// Columns only present in others are added to the header.
func (t *Table) Concat(others ...*Table) *Table {
	cols := append([]string(nil), t.Columns...)
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		seen[c] = true
	}
	for _, o := range others {
		for _, c := range o.Columns {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}

	out := New(t.Name, cols)
	for _, src := range append([]*Table{t}, others...) {
		pos := make([]int, len(src.Columns))
		for i, c := range src.Columns {
			pos[i], _ = out.Index(c)
		}
		for _, r := range src.Rows {
			nr := make([]string, len(cols))
			for i, v := range r {
				if i < len(pos) {
					nr[pos[i]] = v
				}
			}
			out.Rows = append(out.Rows, nr)
		}
	}
	return out
}

// Read parses a comma-delimited table with a header row. Short rows are padded with
// nulls; a row wider than the header fails with *ValueError.
func Read(name string, r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("table %s: empty input", name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	// Strip a UTF-8 BOM left by spreadsheet exports
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := New(name, header)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", t.Len()+1, err)
		}
		if len(rec) > len(header) {
			return nil, &ValueError{
				Table: name,
				Row:   t.Len(),
				Value: strings.Join(rec[len(header):], ","),
				Err:   ErrRowTooWide,
			}
		}
		t.Append(rec)
	}
	return t, nil
}

// Write encodes the table as comma-delimited text with a header row
func (t *Table) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	return nil
}
