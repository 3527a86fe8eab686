package query

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// ShardResult is one shard's local evaluation output: its top-k results
// (with docIDs already resolved to the global ID space) and its facet
// accumulation, ready to be merged with every other shard's.
type ShardResult struct {
	Results []Result
	Facets  map[string]*FacetCounts
	Count   uint64
}

// ShardEvalFunc evaluates one shard and returns its local contribution.
type ShardEvalFunc func(ctx context.Context, shardIndex int) (ShardResult, error)

// EvaluateShards fans out evaluation across every shard in parallel
// (spec.md §4.5: "Evaluation: Document-at-a-Time. For each shard in
// parallel"), using golang.org/x/sync/errgroup the same way the teacher
// fans work out across epochs, then merges every shard's local top-k by
// re-applying the final sort over global doc IDs (spec.md §4.5,
// "Merging across shards").
func EvaluateShards(ctx context.Context, numShards int, limit int, eval ShardEvalFunc) (ShardResult, error) {
	perShard := make([]ShardResult, numShards)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < numShards; i++ {
		i := i
		g.Go(func() error {
			r, err := eval(gctx, i)
			if err != nil {
				return err
			}
			perShard[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ShardResult{}, err
	}

	return mergeShardResults(perShard, limit), nil
}

func mergeShardResults(perShard []ShardResult, limit int) ShardResult {
	merged := ShardResult{Facets: make(map[string]*FacetCounts)}

	for _, sr := range perShard {
		merged.Results = append(merged.Results, sr.Results...)
		merged.Count += sr.Count
		mergeFacetCounts(merged.Facets, sr.Facets)
	}

	sort.SliceStable(merged.Results, func(i, j int) bool {
		return merged.Results[i].Score > merged.Results[j].Score
	})
	if limit > 0 && len(merged.Results) > limit {
		merged.Results = merged.Results[:limit]
	}
	return merged
}

func mergeFacetCounts(dst, src map[string]*FacetCounts) {
	for field, fc := range src {
		d, ok := dst[field]
		if !ok {
			d = &FacetCounts{Field: field, ByValue: make(map[string]uint64)}
			if len(fc.ByBucket) > 0 {
				d.ByBucket = make([]uint64, len(fc.ByBucket))
				d.BucketLabels = append([]string(nil), fc.BucketLabels...)
			}
			dst[field] = d
		}
		for v, c := range fc.ByValue {
			d.ByValue[v] += c
		}
		for i, c := range fc.ByBucket {
			if i < len(d.ByBucket) {
				d.ByBucket[i] += c
			}
		}
	}
}
