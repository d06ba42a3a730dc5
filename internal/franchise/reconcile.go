package franchise

import (
	"sort"
	"strings"

	"github.com/pfrederiksen/nba-mvp/internal/table"
)

// DefaultSwaps are the code pairs whose alphabetical order disagrees with their team names
var DefaultSwaps = [][2]string{
	{"NOK", "NOP"},
	{"WSB", "WAS"},
}

// Options controls Reconcile
type Options struct {
	// Swaps are applied to the lexicographic pairing, each only if both codes are present.
	Swaps [][2]string

	// UseLookup resolves names through Entries before the heuristic.
	UseLookup bool
	Entries   []Entry

	// From and To bound the seasons in the data; lookup entries outside them are ignored.
	From int
	To   int
}

// Source tells how a name was paired with its code
type Source string

const (
	SourceLookup    Source = "lookup"
	SourceHeuristic Source = "heuristic"
	SourceSwap      Source = "swap"
)

// Pair is one name to code assignment
type Pair struct {
	Name   string `json:"name"`
	Code   string `json:"code"`
	Source Source `json:"source"`
}

// Map is a bijection between team names and codes
type Map struct {
	byName map[string]Pair
	pairs  []Pair
}

// Reconcile pairs every distinct team name with a distinct code.
// It fails with a *VocabularyMismatchError when the vocabularies differ in size.
func Reconcile(names, codes []string, opts Options) (*Map, error) {
	names = distinctSorted(names)
	codes = distinctSorted(codes)

	m := &Map{byName: make(map[string]Pair, len(names))}

	remainingNames := names
	remainingCodes := codes
	if opts.UseLookup {
		remainingNames, remainingCodes = m.resolveLookup(names, codes, opts)
	}

	if len(remainingNames) != len(remainingCodes) {
		return nil, &VocabularyMismatchError{
			NameCount:      len(names),
			CodeCount:      len(codes),
			UnmatchedNames: remainingNames,
			UnmatchedCodes: remainingCodes,
		}
	}

	zipped := append([]string(nil), remainingCodes...)
	swapped := applySwaps(zipped, opts.Swaps)

	for i, name := range remainingNames {
		src := SourceHeuristic
		if swapped[zipped[i]] {
			src = SourceSwap
		}
		m.add(Pair{Name: name, Code: zipped[i], Source: src})
	}

	sort.Slice(m.pairs, func(i, j int) bool { return m.pairs[i].Name < m.pairs[j].Name })
	return m, nil
}

// resolveLookup pairs names covered by the lookup table and returns what is left
func (m *Map) resolveLookup(names, codes []string, opts Options) ([]string, []string) {
	available := make(map[string]bool, len(codes))
	for _, c := range codes {
		available[c] = true
	}

	restNames := make([]string, 0, len(names))
	for _, name := range names {
		resolved := false
		for _, e := range opts.Entries {
			if e.Name != name || !available[e.Code] || !e.Active(opts.From, opts.To) {
				continue
			}
			available[e.Code] = false
			m.add(Pair{Name: name, Code: e.Code, Source: SourceLookup})
			resolved = true
			break
		}
		if !resolved {
			restNames = append(restNames, name)
		}
	}

	restCodes := make([]string, 0, len(codes))
	for _, c := range codes {
		if available[c] {
			restCodes = append(restCodes, c)
		}
	}
	return restNames, restCodes
}

// applySwaps exchanges the positions of each configured pair present in codes
func applySwaps(codes []string, swaps [][2]string) map[string]bool {
	swapped := make(map[string]bool)
	pos := make(map[string]int, len(codes))
	for i, c := range codes {
		pos[c] = i
	}
	for _, s := range swaps {
		i, okA := pos[s[0]]
		j, okB := pos[s[1]]
		if !okA || !okB {
			continue
		}
		codes[i], codes[j] = codes[j], codes[i]
		pos[s[0]], pos[s[1]] = j, i
		swapped[s[0]], swapped[s[1]] = true, true
	}
	return swapped
}

func (m *Map) add(p Pair) {
	m.byName[p.Name] = p
	m.pairs = append(m.pairs, p)
}

// Code returns the code for a team name
func (m *Map) Code(name string) (string, error) {
	p, ok := m.byName[name]
	if !ok {
		return "", &VocabularyMismatchError{Unmapped: name}
	}
	return p.Code, nil
}

// Len returns the number of mapped names
func (m *Map) Len() int {
	return len(m.pairs)
}

// Pairs returns the assignments sorted by name
func (m *Map) Pairs() []Pair {
	return append([]Pair(nil), m.pairs...)
}

// Rewrite returns a copy of t with every team name in column replaced by its code
func (m *Map) Rewrite(t *table.Table, column string) (*table.Table, error) {
	idx, err := t.Index(column)
	if err != nil {
		return nil, err
	}
	out := t.Clone()
	for _, row := range out.Rows {
		code, err := m.Code(row[idx])
		if err != nil {
			return nil, err
		}
		row[idx] = code
	}
	return out, nil
}

// CanonicalCode maps an era-specific code to its franchise's canonical code
func CanonicalCode(code string, aliases map[string]string) string {
	code = strings.TrimSpace(code)
	if c, ok := aliases[code]; ok {
		return c
	}
	return code
}

// ParseSwaps converts configured code pairs, ignoring malformed entries
func ParseSwaps(pairs [][]string) [][2]string {
	out := make([][2]string, 0, len(pairs))
	for _, p := range pairs {
		if len(p) == 2 {
			out = append(out, [2]string{strings.TrimSpace(p[0]), strings.TrimSpace(p[1])})
		}
	}
	return out
}

func distinctSorted(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
