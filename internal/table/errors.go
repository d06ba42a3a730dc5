package table

import (
	"errors"
	"fmt"
)

// ErrRowTooWide reports a row with more cells than the header
var ErrRowTooWide = errors.New("row has more cells than the header")

// SchemaError reports an expected column that is absent from a table
type SchemaError struct {
	Table  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("table %s: missing column %q", e.Table, e.Column)
}

// ValueError reports a cell that could not be parsed as the requested type, or a
// malformed row when Column is empty
type ValueError struct {
	Table  string
	Column string
	Row    int
	Value  string
	Err    error
}

func (e *ValueError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("table %s: row %d: %v: %q", e.Table, e.Row, e.Err, e.Value)
	}
	return fmt.Sprintf("table %s: row %d column %q: cannot parse %q: %v", e.Table, e.Row, e.Column, e.Value, e.Err)
}

func (e *ValueError) Unwrap() error {
	return e.Err
}
