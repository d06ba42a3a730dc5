package scraper

import (
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}
	return string(b)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		kind        Kind
		fixture     string
		wantColumns []string
		wantRows    int
		check       func(t *testing.T, rows [][]string)
	}{
		{
			name:        "votes skip over header",
			kind:        MVPVotings,
			fixture:     "awards.html",
			wantColumns: []string{"Rank", "Player", "Age", "Tm", "First", "Pts Won", "Pts Max", "Share"},
			wantRows:    2,
			check: func(t *testing.T, rows [][]string) {
				if rows[0][1] != "Michael Jordan" || rows[0][3] != "CHI" {
					t.Errorf("row 0 = %v", rows[0])
				}
				if rows[1][0] != "2T" {
					t.Errorf("tied rank = %q, want 2T", rows[1][0])
				}
			},
		},
		{
			name:        "per game names team by data-stat and drops spacers",
			kind:        PlayerStats,
			fixture:     "per_game.html",
			wantColumns: []string{"Rk", "Player", "Tm", "G", "PTS"},
			wantRows:    3,
			check: func(t *testing.T, rows [][]string) {
				if rows[1][2] != "2TM" || rows[2][2] != "ATL" {
					t.Errorf("team cells = %q, %q", rows[1][2], rows[2][2])
				}
				for _, r := range rows {
					if r[1] == "Player" || r[1] == "League Average" {
						t.Errorf("unexpected row %v", r)
					}
				}
			},
		},
		{
			name:        "standings fall back to commented division tables",
			kind:        TeamRecords,
			fixture:     "standings.html",
			wantColumns: []string{"team_name", "W", "L", "W/L%", "GB"},
			wantRows:    3,
			check: func(t *testing.T, rows [][]string) {
				if !strings.HasPrefix(rows[0][0], "Boston Celtics*") {
					t.Errorf("first team = %q", rows[0][0])
				}
				if !strings.HasPrefix(rows[2][0], "Portland Trail Blazers*") {
					t.Errorf("western team = %q", rows[2][0])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.kind, readFixture(t, tt.fixture))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !reflect.DeepEqual(got.Columns, tt.wantColumns) {
				t.Errorf("Columns = %v, want %v", got.Columns, tt.wantColumns)
			}
			if got.Len() != tt.wantRows {
				t.Fatalf("rows = %d, want %d: %v", got.Len(), tt.wantRows, got.Rows)
			}
			if tt.check != nil {
				tt.check(t, got.Rows)
			}
		})
	}
}

func TestParse_TableNotFound(t *testing.T) {
	_, err := Parse(TeamRecords, "<html><body><table id=\"other\"></table></body></html>")

	var nf *TableNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Parse() error = %v, want TableNotFoundError", err)
	}
	if nf.Kind != "team_records" || len(nf.IDs) != 4 {
		t.Errorf("TableNotFoundError = %+v", nf)
	}
}

func TestKindByName(t *testing.T) {
	k, err := KindByName("MVP_VOTINGS")
	if err != nil || k.Name != MVPVotings.Name {
		t.Errorf("KindByName() = %v, %v", k.Name, err)
	}
	if _, err := KindByName("box_scores"); err == nil {
		t.Error("KindByName(unknown) expected error")
	}
}

func TestKind_URL(t *testing.T) {
	got := MVPVotings.URL("https://www.basketball-reference.com/", 1991)
	want := "https://www.basketball-reference.com/awards/awards_1991.html"
	if got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}
