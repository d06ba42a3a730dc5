package franchise

import (
	"errors"
	"testing"

	"github.com/pfrederiksen/nba-mvp/internal/table"
)

func heuristicOnly() Options {
	return Options{Swaps: DefaultSwaps}
}

func TestReconcile_NewOrleansSwap(t *testing.T) {
	names := []string{
		"Atlanta Hawks",
		"New Orleans Hornets",
		"New Orleans Pelicans",
		"New Orleans/Oklahoma City Hornets",
		"Utah Jazz",
	}
	codes := []string{"UTA", "NOP", "ATL", "NOK", "NOH"}

	m, err := Reconcile(names, codes, heuristicOnly())
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	tests := []struct {
		name string
		want string
	}{
		{"Atlanta Hawks", "ATL"},
		{"New Orleans Hornets", "NOH"},
		{"New Orleans Pelicans", "NOP"},
		{"New Orleans/Oklahoma City Hornets", "NOK"},
		{"Utah Jazz", "UTA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Code(tt.name)
			if err != nil {
				t.Fatalf("Code() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Code(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}

	// Only the two exception codes are marked as swapped
	for _, p := range m.Pairs() {
		wantSwap := p.Code == "NOK" || p.Code == "NOP"
		if (p.Source == SourceSwap) != wantSwap {
			t.Errorf("pair %+v: swap = %v, want %v", p, p.Source == SourceSwap, wantSwap)
		}
	}
}

func TestReconcile_WashingtonSwap(t *testing.T) {
	names := []string{"Utah Jazz", "Washington Bullets", "Washington Wizards"}
	codes := []string{"UTA", "WAS", "WSB"}

	m, err := Reconcile(names, codes, heuristicOnly())
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if c, _ := m.Code("Washington Bullets"); c != "WSB" {
		t.Errorf("Washington Bullets = %q, want WSB", c)
	}
	if c, _ := m.Code("Washington Wizards"); c != "WAS" {
		t.Errorf("Washington Wizards = %q, want WAS", c)
	}
}

func TestReconcile_SwapRequiresBothCodes(t *testing.T) {
	// A dataset ending before 2006 has NOH but neither NOK nor NOP
	names := []string{"New Orleans Hornets", "Washington Wizards"}
	codes := []string{"NOH", "WAS"}

	m, err := Reconcile(names, codes, heuristicOnly())
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if c, _ := m.Code("New Orleans Hornets"); c != "NOH" {
		t.Errorf("New Orleans Hornets = %q, want NOH", c)
	}
	if c, _ := m.Code("Washington Wizards"); c != "WAS" {
		t.Errorf("Washington Wizards = %q, want WAS", c)
	}
}

func TestReconcile_Bijection(t *testing.T) {
	names := make([]string, 0, len(Teams))
	codes := make([]string, 0, len(Teams))
	for _, e := range Teams {
		if e.Active(1991, 2023) && e.Code != "CHO" {
			names = append(names, e.Name)
			codes = append(codes, e.Code)
		}
	}

	for _, opts := range []Options{heuristicOnly(), {Swaps: DefaultSwaps, UseLookup: true, Entries: Teams, From: 1991, To: 2023}} {
		m, err := Reconcile(names, codes, opts)
		if err != nil {
			t.Fatalf("Reconcile(lookup=%v) error = %v", opts.UseLookup, err)
		}

		distinctNames := distinctSorted(names)
		if m.Len() != len(distinctNames) {
			t.Errorf("Len() = %d, want %d", m.Len(), len(distinctNames))
		}

		seen := make(map[string]string)
		for _, p := range m.Pairs() {
			if other, dup := seen[p.Code]; dup {
				t.Errorf("code %s assigned to both %q and %q", p.Code, other, p.Name)
			}
			seen[p.Code] = p.Name
		}
	}
}

func TestReconcile_LookupCoversKnownNames(t *testing.T) {
	names := []string{"Philadelphia 76ers", "Phoenix Suns", "Portland Trail Blazers"}
	codes := []string{"PHI", "PHO", "POR"}

	m, err := Reconcile(names, codes, Options{UseLookup: true, Entries: Teams, From: 2000, To: 2000})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	for _, p := range m.Pairs() {
		if p.Source != SourceLookup {
			t.Errorf("pair %+v resolved by %s, want lookup", p, p.Source)
		}
	}
}

func TestReconcile_LookupRespectsSeasons(t *testing.T) {
	tests := []struct {
		name string
		year int
		code string
	}{
		{"original hornets", 1995, "CHH"},
		{"revived hornets", 2020, "CHO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Reconcile([]string{"Charlotte Hornets"}, []string{tt.code},
				Options{UseLookup: true, Entries: Teams, From: tt.year, To: tt.year})
			if err != nil {
				t.Fatalf("Reconcile() error = %v", err)
			}
			p := m.Pairs()[0]
			if p.Code != tt.code || p.Source != SourceLookup {
				t.Errorf("Charlotte Hornets = %+v, want %s via lookup", p, tt.code)
			}
		})
	}
}

func TestReconcile_FallsBackForUnlistedNames(t *testing.T) {
	names := []string{"Boston Celtics", "Kansas City Kings", "Sacramento Kings"}
	codes := []string{"BOS", "KCK", "SAC"}

	m, err := Reconcile(names, codes, Options{UseLookup: true, Entries: Teams, From: 1985, To: 1986})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	pairs := m.Pairs()
	for _, p := range pairs {
		if p.Name == "Kansas City Kings" {
			if p.Code != "KCK" || p.Source != SourceHeuristic {
				t.Errorf("Kansas City Kings = %+v, want KCK via heuristic", p)
			}
		}
	}
}

func TestReconcile_VocabularyMismatch(t *testing.T) {
	names := []string{"Boston Celtics", "Chicago Bulls", "Toronto Raptors"}
	codes := []string{"BOS", "CHI"}

	_, err := Reconcile(names, codes, heuristicOnly())

	var mismatch *VocabularyMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Reconcile() error = %v, want *VocabularyMismatchError", err)
	}
	if mismatch.NameCount != 3 || mismatch.CodeCount != 2 {
		t.Errorf("mismatch = %+v", mismatch)
	}
}

func TestMap_CodeUnmapped(t *testing.T) {
	m, err := Reconcile([]string{"Boston Celtics"}, []string{"BOS"}, heuristicOnly())
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	_, err = m.Code("Seattle SuperSonics")
	var mismatch *VocabularyMismatchError
	if !errors.As(err, &mismatch) || mismatch.Unmapped != "Seattle SuperSonics" {
		t.Errorf("Code() error = %v, want unmapped Seattle SuperSonics", err)
	}
}

func TestMap_Rewrite(t *testing.T) {
	m, err := Reconcile([]string{"Boston Celtics", "Chicago Bulls"}, []string{"CHI", "BOS"}, heuristicOnly())
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	in := table.New("team_records", []string{"team_name", "year"})
	in.Append([]string{"Chicago Bulls", "1991"})
	in.Append([]string{"Boston Celtics", "1991"})

	out, err := m.Rewrite(in, "team_name")
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	if out.Rows[0][0] != "CHI" || out.Rows[1][0] != "BOS" {
		t.Errorf("Rewrite() rows = %v", out.Rows)
	}
	if in.Rows[0][0] != "Chicago Bulls" {
		t.Error("Rewrite() modified its input")
	}

	in.Append([]string{"Miami Heat", "1991"})
	if _, err := m.Rewrite(in, "team_name"); err == nil {
		t.Error("Rewrite() expected error for unmapped team")
	}
}

func TestCanonicalCode(t *testing.T) {
	aliases := map[string]string{"CHO": "CHH"}

	tests := []struct {
		in, want string
	}{
		{"CHO", "CHH"},
		{"CHH", "CHH"},
		{" CHO ", "CHH"},
		{"BOS", "BOS"},
	}
	for _, tt := range tests {
		if got := CanonicalCode(tt.in, aliases); got != tt.want {
			t.Errorf("CanonicalCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseSwaps(t *testing.T) {
	got := ParseSwaps([][]string{{"NOK", "NOP"}, {"BAD"}, {" WSB", "WAS "}})
	if len(got) != 2 || got[1] != [2]string{"WSB", "WAS"} {
		t.Errorf("ParseSwaps() = %v", got)
	}
}

func TestEntryActive(t *testing.T) {
	e := Entry{Name: "Seattle SuperSonics", Code: "SEA", From: 1968, To: 2008}
	if !e.Active(1991, 2023) {
		t.Error("SEA should overlap 1991-2023")
	}
	if e.Active(2009, 2023) {
		t.Error("SEA should not overlap 2009-2023")
	}
	open := Entry{Name: "Brooklyn Nets", Code: "BRK", From: 2013}
	if open.Active(1991, 2012) {
		t.Error("BRK should not overlap 1991-2012")
	}
	if !open.Active(2020, 2020) {
		t.Error("BRK should overlap 2020")
	}
}
