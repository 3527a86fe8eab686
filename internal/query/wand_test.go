package query

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWANDFindsTopKByScore(t *testing.T) {
	// term 0 occurs in docs 1,2,3 and term 1 in docs 2,3
	a := newFakePostings([]uint16{1, 2, 3}, nil)
	b := newFakePostings([]uint16{2, 3}, nil)

	score := func(docID uint16, matchedTermIx []int) float64 {
		// doc matched by both terms scores higher
		return float64(len(matchedTermIx)) * float64(docID)
	}

	results := WAND([]Postings{a, b}, []float64{1, 1}, 2, score)
	require.Len(t, results, 2)
	require.Equal(t, uint16(3), results[0].DocID)
}

func TestWANDRespectsK(t *testing.T) {
	a := newFakePostings([]uint16{1, 2, 3, 4, 5}, nil)
	score := func(docID uint16, matchedTermIx []int) float64 { return float64(docID) }

	results := WAND([]Postings{a}, []float64{5}, 3, score)
	require.Len(t, results, 3)
	require.Equal(t, uint16(5), results[0].DocID)
}

// TestWANDMatchesBruteForceTopK checks the pruning invariant spec.md §8
// requires: WAND's top-k over an OR query must equal the top-k produced
// by scoring every candidate with no pruning at all, for the same static
// per-term upper bounds used as the score. Term weights are powers of two
// and every document matches a different subset of terms, so every
// document's score is distinct and there are no score ties to make the
// comparison ambiguous.
func TestWANDMatchesBruteForceTopK(t *testing.T) {
	postingLists := [][]uint16{
		{1, 3, 5, 7},
		{2, 3, 6, 7},
		{4, 5, 6, 7},
	}
	weights := []float64{1, 2, 4}

	fresh := func() []Postings {
		out := make([]Postings, len(postingLists))
		for i, ids := range postingLists {
			out[i] = newFakePostings(ids, nil)
		}
		return out
	}
	score := func(docID uint16, matchedTermIx []int) float64 {
		var s float64
		for _, ix := range matchedTermIx {
			s += weights[ix]
		}
		return s
	}

	const k = 3
	wandResults := WAND(fresh(), weights, k, score)

	bruteForce := make(map[uint16]float64)
	Union(fresh(), func(docID uint16, matchedTermIx []int) {
		bruteForce[docID] = score(docID, matchedTermIx)
	})
	var all []ScoredDoc
	for docID, s := range bruteForce {
		all = append(all, ScoredDoc{DocID: docID, Score: s})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Score > all[j].Score })
	require.GreaterOrEqual(t, len(all), k)
	wantTopK := all[:k]

	require.Len(t, wandResults, k)
	for i := range wantTopK {
		require.Equal(t, wantTopK[i].DocID, wandResults[i].DocID, "rank %d", i)
		require.Equal(t, wantTopK[i].Score, wandResults[i].Score, "rank %d", i)
	}
}
