package standings

import (
	"errors"
	"testing"

	"github.com/pfrederiksen/nba-mvp/internal/table"
)

var testColumns = Columns{
	Team:        "team_name",
	Season:      "year",
	WinLossPct:  "W/L%",
	GamesBehind: "GB",
	Playoffs:    "playoffs",
}

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		raw          string
		wantName     string
		wantPlayoffs bool
	}{
		{"Boston Celtics* (1)", "Boston Celtics", true},
		{"Boston Celtics* (1)", "Boston Celtics", true},
		{"Chicago Bulls*", "Chicago Bulls", true},
		{"Denver Nuggets (13)", "Denver Nuggets", false},
		{"Miami Heat", "Miami Heat", false},
		{"Miami Heat   ", "Miami Heat", false},
		{"New Orleans/Oklahoma City Hornets (10)", "New Orleans/Oklahoma City Hornets", false},
		{"Portland Trail Blazers*  (3)", "Portland Trail Blazers", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			name, playoffs := NormalizeLabel(tt.raw)
			if name != tt.wantName {
				t.Errorf("NormalizeLabel(%q) name = %q, want %q", tt.raw, name, tt.wantName)
			}
			if playoffs != tt.wantPlayoffs {
				t.Errorf("NormalizeLabel(%q) playoffs = %v, want %v", tt.raw, playoffs, tt.wantPlayoffs)
			}
		})
	}
}

func sampleStandings() *table.Table {
	t := table.New("team_records", []string{"team_name", "W", "L", "W/L%", "GB", "year"})
	t.Append([]string{"Boston Celtics* (1)", "56", "26", ".683", "—", "1991"})
	t.Append([]string{"Philadelphia 76ers* (5)", "44", "38", ".537", "12.0", "1991"})
	t.Append([]string{"Washington Bullets (9)", "30", "52", ".366", "26.0", "1991"})
	return t
}

func TestNormalize(t *testing.T) {
	in := sampleStandings()

	out, records, err := Normalize(in, testColumns)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	want := SeasonTeamRecord{TeamKey: "Boston Celtics", Season: 1991, WinLossPct: 0.683, MadePlayoffs: true}
	if records[0] != want {
		t.Errorf("records[0] = %+v, want %+v", records[0], want)
	}
	if records[2].MadePlayoffs {
		t.Error("Washington Bullets should not be a playoff team")
	}

	flag, _ := out.Get(0, "playoffs")
	if flag != "true" {
		t.Errorf("playoffs column = %q, want true", flag)
	}
	gb, _ := out.Get(0, "GB")
	if gb != "0" {
		t.Errorf("leader GB = %q, want 0", gb)
	}
	name, _ := out.Get(1, "team_name")
	if name != "Philadelphia 76ers" {
		t.Errorf("team_name = %q", name)
	}

	// Input must be untouched
	raw, _ := in.Get(0, "team_name")
	if raw != "Boston Celtics* (1)" {
		t.Errorf("input modified: %q", raw)
	}
}

// made_playoffs is true iff the label contained the marker, whether or not a seed follows
func TestNormalize_PlayoffFlagMatchesMarker(t *testing.T) {
	in := table.New("team_records", []string{"team_name", "W/L%", "year"})
	labels := []string{"A*", "B* (2)", "C (3)", "D", "E*(1)", "(F)"}
	for _, l := range labels {
		in.Append([]string{l, ".500", "2000"})
	}

	_, records, err := Normalize(in, Columns{Team: "team_name", Season: "year", WinLossPct: "W/L%", Playoffs: "playoffs"})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	for i, rec := range records {
		want := labels[i] == "A*" || labels[i] == "B* (2)" || labels[i] == "E*(1)"
		if rec.MadePlayoffs != want {
			t.Errorf("%q: MadePlayoffs = %v, want %v", labels[i], rec.MadePlayoffs, want)
		}
	}
}

func TestNormalize_SchemaDrift(t *testing.T) {
	in := table.New("team_records", []string{"Team", "year"})

	_, _, err := Normalize(in, testColumns)

	var schemaErr *table.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Normalize() error = %v, want *table.SchemaError", err)
	}
	if schemaErr.Column != "team_name" {
		t.Errorf("SchemaError.Column = %q, want team_name", schemaErr.Column)
	}
}

func TestNormalize_EmptyWinLoss(t *testing.T) {
	in := table.New("team_records", []string{"team_name", "W/L%", "year"})
	in.Append([]string{"Miami Heat", "", "2000"})

	_, _, err := Normalize(in, testColumns)
	var valueErr *table.ValueError
	if !errors.As(err, &valueErr) || valueErr.Column != "W/L%" {
		t.Errorf("Normalize() error = %v, want ValueError on W/L%%", err)
	}
}

func TestNames(t *testing.T) {
	out, _, err := Normalize(sampleStandings(), testColumns)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	names, err := Names(out, "team_name")
	if err != nil {
		t.Fatalf("Names() error = %v", err)
	}
	want := []string{"Boston Celtics", "Philadelphia 76ers", "Washington Bullets"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
