package compactindex

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// targetEntriesPerBucket mirrors the teacher's bucket sizing target
// (compactindexsized/query.go): buckets average ~10000 entries so the
// per-bucket FKS mining step stays fast.
const targetEntriesPerBucket = 10000

// mineAttempts bounds how many nonces Builder tries before giving up on a
// bucket (compactindexsized/build.go uses the same bound).
const mineAttempts = 1000

type pendingEntry struct {
	termHash uint64
	offset   uint64
}

// Builder accumulates term-hash -> offset pairs and seals them into a
// single immutable term-index blob.
type Builder struct {
	valueSize uint8
	buckets   [][]pendingEntry
	numBucket uint32
}

// NewBuilder creates a builder for numTerms entries, each mapping to an
// offset no larger than maxOffset (used to choose the narrowest byte
// width that can represent every offset).
func NewBuilder(numTerms int, maxOffset uint64) (*Builder, error) {
	if numTerms <= 0 {
		return nil, fmt.Errorf("compactindex: numTerms must be > 0")
	}
	valueSize := offsetWidth(maxOffset)
	numBuckets := uint32((numTerms + targetEntriesPerBucket - 1) / targetEntriesPerBucket)
	if numBuckets == 0 {
		numBuckets = 1
	}
	return &Builder{
		valueSize: valueSize,
		buckets:   make([][]pendingEntry, numBuckets),
		numBucket: numBuckets,
	}, nil
}

func offsetWidth(maxOffset uint64) uint8 {
	for w := uint8(1); w <= 8; w++ {
		if maxOffset < uint64(1)<<(8*w) {
			return w
		}
	}
	return 8
}

// Insert records a term-hash -> offset mapping. Inserting the same term
// hash twice is a caller bug; the later value silently wins at seal time,
// mirroring the teacher's dedupKeepNewest semantics.
func (b *Builder) Insert(termHash, offset uint64) {
	h := &Header{NumBuckets: b.numBucket}
	bi := h.BucketIndex(termHash)
	b.buckets[bi] = append(b.buckets[bi], pendingEntry{termHash: termHash, offset: offset})
}

// Seal mines a collision-free hash function per bucket and serializes the
// full term index to a single byte slice.
func (b *Builder) Seal() ([]byte, error) {
	header := &Header{ValueSize: b.valueSize, NumBuckets: b.numBucket}
	headerBuf := header.Bytes()

	bucketHdrTable := make([]byte, int(b.numBucket)*bucketHdrLen)
	entryStride := int(HashSize + b.valueSize)
	var entryData []byte

	baseOffset := int64(len(headerBuf) + len(bucketHdrTable))
	for i, bucket := range b.buckets {
		dedup := dedupKeepNewest(bucket)
		entries, domain, err := mineBucket(dedup)
		if err != nil {
			return nil, fmt.Errorf("compactindex: bucket %d: %w", i, err)
		}
		bh := BucketHeader{
			HashDomain: domain,
			NumEntries: uint32(len(entries)),
			FileOffset: uint64(baseOffset) + uint64(len(entryData)),
		}
		bh.store(bucketHdrTable[i*bucketHdrLen : (i+1)*bucketHdrLen])

		buf := make([]byte, len(entries)*entryStride)
		for j, e := range entries {
			marshalEntry(buf[j*entryStride:(j+1)*entryStride], e, b.valueSize)
		}
		entryData = append(entryData, buf...)
	}

	out := make([]byte, 0, len(headerBuf)+len(bucketHdrTable)+len(entryData))
	out = append(out, headerBuf...)
	out = append(out, bucketHdrTable...)
	out = append(out, entryData...)
	return out, nil
}

func dedupKeepNewest(entries []pendingEntry) []pendingEntry {
	seen := make(map[uint64]int, len(entries))
	out := make([]pendingEntry, 0, len(entries))
	for _, e := range entries {
		if idx, ok := seen[e.termHash]; ok {
			out[idx] = e
			continue
		}
		seen[e.termHash] = len(out)
		out = append(out, e)
	}
	return out
}

var errCollision = fmt.Errorf("compactindex: hash collision across all mining attempts")

// mineBucket brute-forces a nonce under which every entry's truncated
// hash is distinct, then sorts into eytzinger layout for O(log n) lookups
// with good cache locality (compactindexsized/build.go: hashBucket +
// sortWithCompare).
func mineBucket(entries []pendingEntry) ([]Entry, uint32, error) {
	mask := uint64(1)<<(HashSize*8) - 1
	n := len(entries)
	resolved := make([]Entry, n)

	for domain := uint32(0); domain < mineAttempts; domain++ {
		seen := make(map[uint64]struct{}, n)
		collided := false
		for i, e := range entries {
			h := entryHash(domain, e.termHash) & mask
			if _, dup := seen[h]; dup {
				collided = true
				break
			}
			seen[h] = struct{}{}
			resolved[i] = Entry{Hash: h, Offset: e.offset}
		}
		if collided {
			continue
		}
		sort.Slice(resolved, func(i, j int) bool { return resolved[i].Hash < resolved[j].Hash })
		eytzingerLayout := make([]Entry, n)
		toEytzinger(resolved, eytzingerLayout, 0, 1)
		return eytzingerLayout, domain, nil
	}
	return nil, 0, errCollision
}

// toEytzinger rearranges a sorted slice into eytzinger (BFS binary-heap)
// order, matching the teacher's eytzinger() helper.
func toEytzinger(in, out []Entry, i, k int) int {
	if k <= len(in) {
		i = toEytzinger(in, out, i, 2*k)
		out[k-1] = in[i]
		i++
		i = toEytzinger(in, out, i, 2*k+1)
	}
	return i
}

func marshalEntry(buf []byte, e Entry, valueSize uint8) {
	var hbuf [8]byte
	binary.LittleEndian.PutUint64(hbuf[:], e.Hash)
	copy(buf[:HashSize], hbuf[:HashSize])
	var obuf [8]byte
	binary.LittleEndian.PutUint64(obuf[:], e.Offset)
	copy(buf[HashSize:HashSize+int(valueSize)], obuf[:valueSize])
}

func unmarshalEntry(buf []byte, valueSize uint8) Entry {
	var hbuf [8]byte
	copy(hbuf[:HashSize], buf[:HashSize])
	var obuf [8]byte
	copy(obuf[:valueSize], buf[HashSize:HashSize+int(valueSize)])
	return Entry{Hash: binary.LittleEndian.Uint64(hbuf[:]), Offset: binary.LittleEndian.Uint64(obuf[:])}
}
