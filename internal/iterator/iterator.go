// Package iterator implements get_iterator (spec.md §4.8): a lazy walk
// over the global document ID space that resolves the sharded mapping
// on the fly, skips tombstoned documents unless asked not to, and
// returns exactly `take` items or an end-of-index marker.
//
// Grounded on the teacher's store/iterator.go, which streams index
// records lazily and skips any record whose primary entry is gone
// rather than materializing a full key list; DocIterator does the same
// over the global ID space, skipping deleted local IDs instead of
// vanished primary records.
package iterator

import (
	"io"

	"github.com/faithsearch/litsearch/internal/docid"
)

// Shard is the subset of a shard's behavior the iterator needs.
type Shard interface {
	IsDeleted(local docid.Local) bool
	NumDocs() docid.Local // local document IDs assigned so far, committed or still buffered
	GetDocument(local docid.Local, fields []string) (map[string]any, error)
}

// Direction walks the global ID space ascending or descending.
type Direction uint8

const (
	Ascending Direction = iota
	Descending
)

// Entry is one yielded document: its global ID and, if requested, its
// stored field values.
type Entry struct {
	GlobalID docid.Global
	Fields   map[string]any
}

// DocIterator resolves the sharded global ID space lazily: no full ID
// list is ever materialized (spec.md §4.8).
type DocIterator struct {
	shards      []Shard
	shardCount  int
	direction   Direction
	cur         int64 // current global id as a signed offset from 0
	maxGlobal   int64 // exclusive upper bound on global ids across all shards
	remaining   int64 // items still to deliver ("take"), -1 means unbounded
	includeDoc  bool
	includeDel  bool
	fields      []string
}

// New builds an iterator starting after anchor (or from the beginning/end
// if anchor is nil), skipping `skip` valid entries, and yielding up to
// `take` entries (negative take means unbounded) in the given direction.
func New(shards []Shard, anchor *docid.Global, skip int64, take int64, direction Direction, includeDoc, includeDeleted bool, fields []string) *DocIterator {
	shardCount := len(shards)
	maxLocal := int64(0)
	for _, s := range shards {
		if n := int64(s.NumDocs()); n > maxLocal {
			maxLocal = n
		}
	}
	maxGlobal := maxLocal * int64(shardCount)

	var start int64
	switch {
	case anchor != nil:
		start = int64(*anchor)
		if direction == Ascending {
			start++
		} else {
			start--
		}
	case direction == Ascending:
		start = 0
	default:
		start = maxGlobal - 1
	}

	it := &DocIterator{
		shards:     shards,
		shardCount: shardCount,
		direction:  direction,
		cur:        start,
		maxGlobal:  maxGlobal,
		remaining:  -1,
		includeDoc: includeDoc,
		includeDel: includeDeleted,
		fields:     fields,
	}
	for i := int64(0); i < skip; i++ {
		if _, err := it.Next(); err != nil {
			break
		}
	}
	it.remaining = take
	return it
}

// Next returns the next valid entry, or io.EOF once `take` items have
// been delivered or the ID space is exhausted (spec.md §4.8: "Guarantees
// exactly `take` items or end-of-index marker").
func (it *DocIterator) Next() (Entry, error) {
	if it.remaining == 0 {
		return Entry{}, io.EOF
	}
	for {
		if it.cur < 0 || it.cur >= it.maxGlobal {
			return Entry{}, io.EOF
		}
		g := docid.Global(it.cur)
		if it.direction == Ascending {
			it.cur++
		} else {
			it.cur--
		}

		shardIx, local := docid.Split(g, it.shardCount)
		shard := it.shards[shardIx]
		if local >= shard.NumDocs() {
			continue
		}
		if !it.includeDel && shard.IsDeleted(local) {
			continue
		}

		entry := Entry{GlobalID: g}
		if it.includeDoc {
			fields, err := shard.GetDocument(local, it.fields)
			if err != nil {
				continue
			}
			entry.Fields = fields
		}
		if it.remaining > 0 {
			it.remaining--
		}
		return entry, nil
	}
}
