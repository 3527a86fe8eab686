package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluateShardsMergesAndLimits(t *testing.T) {
	eval := func(ctx context.Context, shardIndex int) (ShardResult, error) {
		return ShardResult{
			Results: []Result{{DocID: uint64(shardIndex*10 + 1), Score: float64(shardIndex + 1)}},
			Facets:  map[string]*FacetCounts{"town": {Field: "town", ByValue: map[string]uint64{"Berlin": 1}}},
			Count:   1,
		}, nil
	}

	res, err := EvaluateShards(context.Background(), 4, 2, eval)
	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	require.Equal(t, uint64(4), res.Count)
	require.Equal(t, uint64(4), res.Facets["town"].ByValue["Berlin"])
	// highest-scored shards (3,4) should win under the 2-item limit
	require.Equal(t, float64(4), res.Results[0].Score)
}
