package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntersectFindsCommonDocs(t *testing.T) {
	a := newFakePostings([]uint16{1, 2, 5, 9}, nil)
	b := newFakePostings([]uint16{2, 3, 5, 10}, nil)

	var got []uint16
	Intersect([]Postings{a, b}, func(docID uint16) { got = append(got, docID) })
	require.Equal(t, []uint16{2, 5}, got)
}

func TestIntersectEmptyWhenOneListExhausted(t *testing.T) {
	a := newFakePostings([]uint16{1, 2}, nil)
	b := newFakePostings([]uint16{100}, nil)

	var got []uint16
	Intersect([]Postings{a, b}, func(docID uint16) { got = append(got, docID) })
	require.Empty(t, got)
}

func TestUnionCollectsAllDocsWithMatchedTerms(t *testing.T) {
	a := newFakePostings([]uint16{1, 3}, nil)
	b := newFakePostings([]uint16{2, 3, 4}, nil)

	type hit struct {
		doc     uint16
		matched []int
	}
	var got []hit
	Union([]Postings{a, b}, func(docID uint16, matchedTermIx []int) {
		got = append(got, hit{doc: docID, matched: append([]int(nil), matchedTermIx...)})
	})

	require.Len(t, got, 4)
	require.Equal(t, uint16(1), got[0].doc)
	require.Equal(t, []int{0}, got[0].matched)
	require.Equal(t, uint16(3), got[2].doc)
	require.ElementsMatch(t, []int{0, 1}, got[2].matched)
}
