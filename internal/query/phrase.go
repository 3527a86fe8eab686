package query

import "sort"

// ConfirmPhrase checks whether a candidate document's per-field
// positions contain the query terms in strict adjacent order within any
// single field, per spec.md §4.5 ("Phrase": "scan per-field positions to
// confirm adjacency in query order").
//
// positionsByTerm[i] holds term i's positions within the field currently
// under test; the caller supplies one call per candidate field.
func ConfirmPhrase(positionsByTerm [][]uint32) bool {
	if len(positionsByTerm) == 0 {
		return false
	}
	for _, p := range positionsByTerm {
		if len(p) == 0 {
			return false
		}
	}
	first := positionsByTerm[0]
	for _, start := range first {
		if phraseMatchesAt(positionsByTerm, start) {
			return true
		}
	}
	return false
}

func phraseMatchesAt(positionsByTerm [][]uint32, start uint32) bool {
	for i, positions := range positionsByTerm {
		want := start + uint32(i)
		if !containsSorted(positions, want) {
			return false
		}
	}
	return true
}

func containsSorted(s []uint32, v uint32) bool {
	i := sort.Search(len(s), func(i int) bool { return s[i] >= v })
	return i < len(s) && s[i] == v
}
