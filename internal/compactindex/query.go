package compactindex

import (
	"errors"
	"fmt"

	"github.com/faithsearch/litsearch/internal/errs"
)

// DB is a read-only handle onto a sealed term index.
type DB struct {
	header *Header
	data   []byte
}

// Open parses a sealed term-index blob (typically an mmap'd region of a
// level file, per spec.md §4.7).
func Open(data []byte) (*DB, error) {
	h := new(Header)
	if err := h.Load(data); err != nil {
		return nil, err
	}
	return &DB{header: h, data: data}, nil
}

// ErrNotFound marks a term hash absent from the index.
var ErrNotFound = errors.New("compactindex: term not found")

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Lookup resolves a term hash to its posting-block offset.
func (db *DB) Lookup(termHash uint64) (uint64, error) {
	bi := db.header.BucketIndex(termHash)
	bh, err := db.bucketHeader(bi)
	if err != nil {
		return 0, err
	}
	if bh.NumEntries == 0 {
		return 0, ErrNotFound
	}

	entryStride := int(HashSize + db.header.ValueSize)
	start := int(bh.FileOffset)
	end := start + int(bh.NumEntries)*entryStride
	if end > len(db.data) {
		return 0, fmt.Errorf("%w: bucket entries run past end of index", errs.ErrCorruptContainer)
	}
	bucketBuf := db.data[start:end]

	mask := uint64(1)<<(HashSize*8) - 1
	target := entryHash(bh.HashDomain, termHash) & mask

	getter := func(i int) Entry {
		return unmarshalEntry(bucketBuf[i*entryStride:(i+1)*entryStride], db.header.ValueSize)
	}
	if e, ok := searchEytzinger(int(bh.NumEntries), target, getter); ok {
		return e.Offset, nil
	}
	return 0, ErrNotFound
}

func (db *DB) bucketHeader(i uint32) (*BucketHeader, error) {
	if i >= db.header.NumBuckets {
		return nil, fmt.Errorf("%w: bucket index out of range", errs.ErrCorruptContainer)
	}
	off := headerLen + int(i)*bucketHdrLen
	if off+bucketHdrLen > len(db.data) {
		return nil, fmt.Errorf("%w: bucket header table truncated", errs.ErrCorruptContainer)
	}
	bh := new(BucketHeader)
	bh.load(db.data[off : off+bucketHdrLen])
	return bh, nil
}

// searchEytzinger walks an eytzinger-ordered entry table (compactindexsized's
// searchEytzinger), giving O(log n) lookups with sequential cache-line
// access patterns rather than a textbook binary search's scattered ones.
func searchEytzinger(n int, target uint64, getter func(int) Entry) (Entry, bool) {
	index := 0
	for index < n {
		e := getter(index)
		if e.Hash == target {
			return e, true
		}
		index = index<<1 | 1
		if e.Hash < target {
			index++
		}
	}
	return Entry{}, false
}
