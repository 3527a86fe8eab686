package query

import (
	"testing"

	"github.com/faithsearch/litsearch/internal/facetstore"
	"github.com/faithsearch/litsearch/schema"
	"github.com/stretchr/testify/require"
)

func buildStringColumn(t *testing.T, values []string) *facetstore.Column {
	t.Helper()
	f := schema.NewField("town", schema.String16, schema.Faceted())
	b := facetstore.NewColumnBuilder(f)
	for i, v := range values {
		require.NoError(t, b.Set(uint16(i), schema.StringValue(v)))
	}
	return facetstore.NewColumn(f, b.Bytes(), b.Dict().Values(), 0, 0)
}

func TestAccumulateStringFacet(t *testing.T) {
	col := buildStringColumn(t, []string{"Berlin", "Warsaw", "Berlin"})
	lookup := func(field string) (*facetstore.Column, bool) {
		if field == "town" {
			return col, true
		}
		return nil, false
	}

	counts := make(map[string]*FacetCounts)
	reqs := []FacetRequest{{Field: "town"}}
	for i := uint16(0); i < 3; i++ {
		Accumulate(counts, reqs, lookup, i)
	}
	require.Equal(t, uint64(2), counts["town"].ByValue["Berlin"])
	require.Equal(t, uint64(1), counts["town"].ByValue["Warsaw"])
}

func TestMatchStringFacetFilter(t *testing.T) {
	col := buildStringColumn(t, []string{"Berlin", "Warsaw"})
	lookup := func(field string) (*facetstore.Column, bool) {
		return col, true
	}
	filters := []FacetFilter{{Field: "town", Values: map[string]struct{}{"Berlin": {}}}}
	require.True(t, Match(filters, lookup, 0))
	require.False(t, Match(filters, lookup, 1))
}

func TestBucketIndexOpenEndedLastBucket(t *testing.T) {
	ranges := []RangeBucket{{Label: "low", Lower: 0}, {Label: "mid", Lower: 10}, {Label: "high", Lower: 100}}
	require.Equal(t, 0, bucketIndex(ranges, 5))
	require.Equal(t, 1, bucketIndex(ranges, 50))
	require.Equal(t, 2, bucketIndex(ranges, 1000))
	require.Equal(t, -1, bucketIndex(ranges, -1))
}
