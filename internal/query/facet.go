package query

// RangeType chooses how a numeric/Point range facet's buckets accumulate
// counts (spec.md §4.5).
type RangeType uint8

const (
	RangePerBucket RangeType = iota
	RangeCumulativeAbove
	RangeCumulativeBelow
)

// RangeBucket is one (label, lower_bound) pair of an ordered range
// facet; the bucket spans [lower, next lower) with the last bucket
// open-ended.
type RangeBucket struct {
	Label string
	Lower float64
}

// FacetRequest asks for one field's facet counts, optionally bucketed by
// an ordered range list (numeric/Point fields only).
type FacetRequest struct {
	Field     string
	Ranges    []RangeBucket
	RangeType RangeType
	BaseLon   float64
	BaseLat   float64
	IsPoint   bool
}

// FacetCounts accumulates counts for one field: either per-dictionary-
// value (string facets) or per-range-bucket (numeric/Point facets).
type FacetCounts struct {
	Field        string
	ByValue      map[string]uint64
	ByBucket     []uint64 // parallel to the request's Ranges
	BucketLabels []string
}

// Accumulate adds one candidate document's contribution to a set of
// facet counters, scanning its column values directly (spec.md §4.5:
// "with a query, counts are accumulated while scanning candidates").
func Accumulate(counts map[string]*FacetCounts, requests []FacetRequest, columns columnLookup, offset uint16) {
	for _, req := range requests {
		col, ok := columns(req.Field)
		if !ok {
			continue
		}
		fc := counts[req.Field]
		if fc == nil {
			fc = &FacetCounts{Field: req.Field, ByValue: make(map[string]uint64)}
			counts[req.Field] = fc
		}

		if len(req.Ranges) > 0 {
			var v float64
			var err error
			if req.IsPoint {
				v = pointDistance(col, offset, req.BaseLon, req.BaseLat)
			} else {
				v, err = col.Float(offset)
			}
			if err != nil {
				continue
			}
			accumulateRange(fc, req, v)
			continue
		}

		s, err := col.String(offset)
		if err != nil {
			continue
		}
		fc.ByValue[s]++
	}
}

func accumulateRange(fc *FacetCounts, req FacetRequest, v float64) {
	if len(fc.ByBucket) == 0 {
		fc.ByBucket = make([]uint64, len(req.Ranges))
		fc.BucketLabels = make([]string, len(req.Ranges))
		for i, r := range req.Ranges {
			fc.BucketLabels[i] = r.Label
		}
	}
	idx := bucketIndex(req.Ranges, v)
	if idx < 0 {
		return
	}
	switch req.RangeType {
	case RangeCumulativeAbove:
		for i := 0; i <= idx; i++ {
			fc.ByBucket[i]++
		}
	case RangeCumulativeBelow:
		for i := idx; i < len(fc.ByBucket); i++ {
			fc.ByBucket[i]++
		}
	default:
		fc.ByBucket[idx]++
	}
}

// bucketIndex finds the bucket i such that ranges[i].Lower <= v <
// ranges[i+1].Lower, with the last bucket open-ended.
func bucketIndex(ranges []RangeBucket, v float64) int {
	idx := -1
	for i, r := range ranges {
		if v >= r.Lower {
			idx = i
		} else {
			break
		}
	}
	return idx
}

// FacetFilter prunes candidates before scoring: string facets by a set
// of allowed dictionary values, numeric facets by a half-open range,
// Point facets by a distance range from a base coordinate. Filters
// combine with implicit AND across fields and implicit OR within one
// field's values (spec.md §4.5).
type FacetFilter struct {
	Field    string
	Values   map[string]struct{} // string facets
	Min, Max float64             // numeric facets, half-open [Min, Max)
	HasRange bool
	BaseLon  float64
	BaseLat  float64
	IsPoint  bool
}

// Match reports whether a candidate document passes every supplied
// filter (AND across FacetFilter entries).
func Match(filters []FacetFilter, columns columnLookup, offset uint16) bool {
	for _, f := range filters {
		col, ok := columns(f.Field)
		if !ok {
			return false
		}
		if f.IsPoint {
			d := pointDistance(col, offset, f.BaseLon, f.BaseLat)
			if d < f.Min || d >= f.Max {
				return false
			}
			continue
		}
		if f.HasRange {
			v, err := col.Float(offset)
			if err != nil || v < f.Min || v >= f.Max {
				return false
			}
			continue
		}
		s, err := col.String(offset)
		if err != nil {
			return false
		}
		if _, ok := f.Values[s]; !ok {
			return false
		}
	}
	return true
}
