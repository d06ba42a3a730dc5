package eligibility

import (
	"errors"
	"reflect"
	"testing"

	"github.com/pfrederiksen/nba-mvp/internal/table"
)

var header = []string{"Rk", "Player", "G", "PTS", "FGA", "TRB", "AST", "FG%", "MP", "PER", "3P%", "playoffs", "team_name"}

// candidate returns a row passing every default floor
func candidate(name string) []string {
	return []string{"1", name, "82", "30.1", "22.0", "6.9", "5.5", ".520", "37.0", "29.0", "", "true", "CHI"}
}

func testColumns() Columns {
	return Columns{
		Player:            "Player",
		Playoffs:          "playoffs",
		Games:             "G",
		Points:            "PTS",
		FieldGoalAttempts: "FGA",
		Rebounds:          "TRB",
		Assists:           "AST",
		FieldGoalPct:      "FG%",
		Minutes:           "MP",
		PER:               "PER",
	}
}

func with(row []string, column string, value string) []string {
	out := append([]string(nil), row...)
	for i, c := range header {
		if c == column {
			out[i] = value
		}
	}
	return out
}

func TestFilter_Matches(t *testing.T) {
	base := candidate("Michael Jordan*")

	tests := []struct {
		name     string
		row      []string
		extended bool
		want     bool
	}{
		{"candidate passes", base, true, true},
		{"games at floor", with(base, "G", "49"), true, true},
		{"games below floor", with(base, "G", "48"), true, false},
		{"points below floor", with(base, "PTS", "13.7"), true, false},
		{"points at floor", with(base, "PTS", "13.8"), true, true},
		{"field goal attempts below", with(base, "FGA", "10.8"), true, false},
		{"rebounds below", with(base, "TRB", "3.2"), true, false},
		{"assists below", with(base, "AST", "1.2"), true, false},
		{"field goal pct below", with(base, "FG%", ".377"), true, false},
		{"minutes below", with(base, "MP", "30.3"), true, false},
		{"per below extended", with(base, "PER", "18.0"), true, false},
		{"per below ignored without extended schema", with(base, "PER", "18.0"), false, true},
		{"missed playoffs", with(base, "playoffs", "false"), true, false},
		{"pandas boolean", with(base, "playoffs", "True"), true, true},
		{"unmatched standings", with(base, "playoffs", ""), true, false},
		{"null statistic fails", with(base, "AST", ""), true, false},
	}

	tbl := table.New("merged", header)
	for _, tt := range tests {
		tbl.Append(tt.row)
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFilter(testColumns(), DefaultThresholds(), tt.extended)
			got, err := f.Matches(tbl, i)
			if err != nil {
				t.Fatalf("Matches() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_Apply(t *testing.T) {
	tbl := table.New("merged", header)
	tbl.Append(candidate("Michael Jordan*"))
	tbl.Append(with(candidate("Bench Player"), "G", "48"))
	tbl.Append(candidate("Magic Johnson* "))

	f := NewFilter(testColumns(), DefaultThresholds(), true)
	out, err := f.Apply(tbl)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if out.Len() != 2 {
		t.Fatalf("Apply() rows = %d, want 2", out.Len())
	}
	names := []string{out.Rows[0][1], out.Rows[1][1]}
	if !reflect.DeepEqual(names, []string{"Michael Jordan", "Magic Johnson"}) {
		t.Errorf("names = %v", names)
	}
	if tbl.Rows[0][1] != "Michael Jordan*" {
		t.Error("Apply() modified its input")
	}
}

func TestFilter_ApplyIdempotent(t *testing.T) {
	tbl := table.New("merged", header)
	tbl.Append(candidate("Larry Bird*"))
	tbl.Append(with(candidate("Role Player"), "PTS", "8.0"))
	tbl.Append(with(candidate("Lottery Star"), "playoffs", "false"))
	tbl.Append(candidate("Karl Malone"))

	f := NewFilter(testColumns(), DefaultThresholds(), true)
	once, err := f.Apply(tbl)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	twice, err := f.Apply(once)
	if err != nil {
		t.Fatalf("Apply() second pass error = %v", err)
	}

	if !reflect.DeepEqual(once.Columns, twice.Columns) || !reflect.DeepEqual(once.Rows, twice.Rows) {
		t.Errorf("Apply() not idempotent:\nonce  %v\ntwice %v", once.Rows, twice.Rows)
	}
}

func TestFilter_ApplyErrors(t *testing.T) {
	t.Run("missing column", func(t *testing.T) {
		tbl := table.New("merged", []string{"Player", "G", "playoffs"})
		f := NewFilter(testColumns(), DefaultThresholds(), true)

		_, err := f.Apply(tbl)
		var schemaErr *table.SchemaError
		if !errors.As(err, &schemaErr) || schemaErr.Column != "PTS" {
			t.Errorf("Apply() error = %v, want SchemaError for PTS", err)
		}
	})

	t.Run("unparseable statistic", func(t *testing.T) {
		tbl := table.New("merged", header)
		tbl.Append(with(candidate("Someone"), "MP", "thirty"))
		f := NewFilter(testColumns(), DefaultThresholds(), true)

		_, err := f.Apply(tbl)
		var valueErr *table.ValueError
		if !errors.As(err, &valueErr) || valueErr.Column != "MP" {
			t.Errorf("Apply() error = %v, want ValueError for MP", err)
		}
	})
}

func TestFilter_Project(t *testing.T) {
	f := NewFilter(testColumns(), DefaultThresholds(), true)
	// Drop names ignore case
	f.DropColumns = []string{"rk", "Playoffs", "team_name", "Awards"}

	tbl := table.New("merged", header)
	tbl.Append(candidate("Michael Jordan"))

	out := f.Project(tbl)
	want := []string{"player", "g", "pts", "fga", "trb", "ast", "fg%", "mp", "per", "3p%"}
	if !reflect.DeepEqual(out.Columns, want) {
		t.Errorf("Project() columns = %v, want %v", out.Columns, want)
	}
}

func TestFilter_With(t *testing.T) {
	f := NewFilter(testColumns(), DefaultThresholds(), false)

	g := f.With(Floor{Column: "G", Min: 60})
	if g.Floors[0].Min != 60 {
		t.Errorf("With() G floor = %v, want 60", g.Floors[0].Min)
	}
	if f.Floors[0].Min != 49 {
		t.Error("With() modified the original filter")
	}

	h := f.With(Floor{Column: "WS", Min: 8})
	if len(h.Floors) != len(f.Floors)+1 || h.Floors[len(h.Floors)-1].Column != "WS" {
		t.Errorf("With() new floor not appended: %v", h.Floors)
	}
}

func TestFilter_String(t *testing.T) {
	tests := []struct {
		name   string
		filter *Filter
		want   string
	}{
		{
			name:   "empty filter",
			filter: &Filter{},
			want:   "No active filters",
		},
		{
			name:   "playoffs only",
			filter: &Filter{RequirePlayoffs: true},
			want:   "playoffs",
		},
		{
			name: "floors",
			filter: &Filter{
				RequirePlayoffs: true,
				Floors:          []Floor{{Column: "G", Min: 49}, {Column: "FG%", Min: 0.378}},
			},
			want: "playoffs | G >= 49 | FG% >= 0.378",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFilter_Clone(t *testing.T) {
	f := NewFilter(testColumns(), DefaultThresholds(), true)
	f.DropColumns = []string{"Rk"}

	c := f.Clone()
	c.Floors[0].Min = 1
	c.DropColumns[0] = "x"

	if f.Floors[0].Min != 49 || f.DropColumns[0] != "Rk" {
		t.Error("Clone() shares memory with the original")
	}
	if c.IsEmpty() || c.String() == "No active filters" {
		t.Error("Clone() lost criteria")
	}
}
