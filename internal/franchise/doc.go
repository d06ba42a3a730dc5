// Package franchise reconciles long team names from standings with the short team
// codes used in player statistics.
//
// Reconcile first resolves names through a versioned lookup table keyed by franchise
// and season range. Names the table does not cover fall back to the lexicographic
// heuristic: both vocabularies are sorted and zipped pairwise, then a configured list of
// code pairs whose alphabetical rank disagrees with their team names (NOK/NOP, WSB/WAS)
// is swapped. Each swap only applies when both of its codes are present.
//
// The swap list covers the relocations observed between 1991 and 2023. It is not known
// to be exhaustive for other eras, which is why the lookup table takes precedence.
package franchise
