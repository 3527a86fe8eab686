// Package deletebitmap implements the per-shard tombstone bitmap
// (spec.md §3 "Delete bitmap"): one bit per local doc ID, rewritten
// wholesale at commit. Deleting delete.bin restores every document until
// the next compaction.
package deletebitmap

import (
	"bytes"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// Bitmap is a shard's tombstone set, safe for concurrent readers while a
// single writer holds the shard's commit latch (spec.md §5).
type Bitmap struct {
	mu sync.RWMutex
	bm *roaring.Bitmap
}

func New() *Bitmap {
	return &Bitmap{bm: roaring.New()}
}

// Delete marks a local doc ID as tombstoned. Returns whether it newly
// became deleted (false if already deleted).
func (b *Bitmap) Delete(localID uint32) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bm.CheckedAdd(localID)
}

// Undelete clears a tombstone, used only by test/administrative paths;
// normal operation never resurrects a doc ID without a full delete.bin
// removal and reopen (spec.md §3).
func (b *Bitmap) Undelete(localID uint32) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bm.CheckedRemove(localID)
}

// IsDeleted reports whether a local doc ID is tombstoned.
func (b *Bitmap) IsDeleted(localID uint32) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bm.Contains(localID)
}

// Count returns the number of tombstoned documents.
func (b *Bitmap) Count() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bm.GetCardinality()
}

// MarshalBinary serializes the bitmap using roaring's own portable
// format, the full contents of delete.bin.
func (b *Bitmap) MarshalBinary() ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bm.ToBytes()
}

// Load builds a new bitmap by parsing a delete.bin blob. An
// empty/missing blob yields an empty bitmap (no documents deleted),
// matching spec.md §3's "deleting the file restores all documents".
func Load(data []byte) (*Bitmap, error) {
	bm := roaring.New()
	if len(data) > 0 {
		if err := bm.UnmarshalBinary(data); err != nil {
			return nil, err
		}
	}
	return &Bitmap{bm: bm}, nil
}

// Clone returns an independent copy, used when sealing a commit snapshot
// while ingest continues to mutate the live bitmap.
func (b *Bitmap) Clone() *Bitmap {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return &Bitmap{bm: b.bm.Clone()}
}

// Equal reports whether two bitmaps tombstone the same set of IDs.
func (b *Bitmap) Equal(other *Bitmap) bool {
	a, err := b.MarshalBinary()
	if err != nil {
		return false
	}
	o, err := other.MarshalBinary()
	if err != nil {
		return false
	}
	return bytes.Equal(a, o)
}
