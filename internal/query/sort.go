package query

import (
	"math"
	"sort"

	"github.com/faithsearch/litsearch/internal/facetstore"
)

// SortDirection orders ascending or descending.
type SortDirection uint8

const (
	Ascending SortDirection = iota
	Descending
)

// SortKey is one entry of a result_sort list: a facet field to sort by,
// a direction, and an optional base value used for Point-field distance
// sorting (spec.md §4.5).
type SortKey struct {
	Field        string
	Direction    SortDirection
	BaseLon      float64
	BaseLat      float64
	HasPointBase bool
}

// Result is one scored, sortable candidate, carrying its global doc ID
// for the cross-shard merge and local offset for facet-column lookups.
type Result struct {
	DocID       uint64
	LocalOffset uint16
	Score       float64
}

// columnLookup resolves a shard's facet columns by field name, used to
// fetch the sort-key values for a candidate without threading the whole
// facetstore through every caller.
type columnLookup func(field string) (*facetstore.Column, bool)

// Sort orders results per spec.md §4.5: default is score descending for
// non-empty queries, doc_id descending for empty queries; a result_sort
// list produces multi-key ordering with score as the final tie-break. A
// Point sort key orders by Euclidean (equirectangular-approximated)
// distance from its base coordinate, ascending meaning "nearest first".
func Sort(results []Result, emptyQuery bool, keys []SortKey, columns columnLookup) {
	if len(keys) == 0 {
		if emptyQuery {
			sort.SliceStable(results, func(i, j int) bool { return results[i].DocID > results[j].DocID })
		} else {
			sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
		}
		return
	}

	sort.SliceStable(results, func(i, j int) bool {
		for _, k := range keys {
			cmp := compareKey(results[i], results[j], k, columns)
			if cmp != 0 {
				if k.Direction == Descending {
					return cmp > 0
				}
				return cmp < 0
			}
		}
		return results[i].Score > results[j].Score
	})
}

// compareKey returns <0 if a sorts before b on this key (ignoring
// direction), 0 if equal, >0 otherwise.
func compareKey(a, b Result, k SortKey, columns columnLookup) int {
	col, ok := columns(k.Field)
	if !ok {
		return 0
	}
	if k.HasPointBase {
		da := pointDistance(col, a.LocalOffset, k.BaseLon, k.BaseLat)
		db := pointDistance(col, b.LocalOffset, k.BaseLon, k.BaseLat)
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		default:
			return 0
		}
	}

	va, errA := col.Float(a.LocalOffset)
	vb, errB := col.Float(b.LocalOffset)
	if errA != nil || errB != nil {
		return 0
	}
	switch {
	case va < vb:
		return -1
	case va > vb:
		return 1
	default:
		return 0
	}
}

// earthRadiusMeters is used for the equirectangular distance
// approximation spec.md §4.5 calls for ("Euclidean distance
// (equirectangular approximation)").
const earthRadiusMeters = 6371000.0

func pointDistance(col *facetstore.Column, offset uint16, baseLon, baseLat float64) float64 {
	lon, lat, err := col.Point(offset)
	if err != nil {
		return math.Inf(1)
	}
	latRad := baseLat * math.Pi / 180
	x := (lon - baseLon) * math.Cos(latRad)
	y := lat - baseLat
	return math.Sqrt(x*x+y*y) * (math.Pi / 180) * earthRadiusMeters
}
