package franchise

import (
	"fmt"
	"strings"
)

// VocabularyMismatchError reports team names and codes that cannot be paired one-to-one,
// or a name looked up that the mapping does not contain.
type VocabularyMismatchError struct {
	NameCount      int
	CodeCount      int
	UnmatchedNames []string
	UnmatchedCodes []string
	Unmapped       string
}

func (e *VocabularyMismatchError) Error() string {
	if e.Unmapped != "" {
		return fmt.Sprintf("team %q has no code mapping", e.Unmapped)
	}
	return fmt.Sprintf("team vocabularies differ: %d names vs %d codes (unmatched names: [%s], unmatched codes: [%s])",
		e.NameCount, e.CodeCount,
		strings.Join(e.UnmatchedNames, ", "), strings.Join(e.UnmatchedCodes, ", "))
}
