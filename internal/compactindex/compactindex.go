// Package compactindex is an immutable FKS perfect-hash table mapping
// term hashes to posting-block file offsets within a sealed level
// (spec.md §4.3: "term index: an FKS perfect-hash table mapping term hash
// to the byte offset of its posting block").
//
// Adapted from the teacher's compactindexsized package (itself a fork of
// firedancer-io/radiance's compactindex): the bucket/FKS-mining/eytzinger
// design is unchanged, but keys are term hashes (already uint64, never
// re-hashed from arbitrary bytes) and buckets are built in memory rather
// than via on-disk scratch files, since a level never carries more than
// 65536 terms.
package compactindex

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/faithsearch/litsearch/internal/errs"
)

// Magic are the first eight bytes of an index.
var Magic = [8]byte{'l', 's', 't', 'e', 'r', 'm', 'i', 'x'}

const Version = uint8(1)

// HashSize is the width, in bytes, of the truncated per-bucket hash
// stored alongside each entry's offset.
const HashSize = 3

// Header occurs once at the beginning of the index.
type Header struct {
	ValueSize  uint8 // width in bytes of each stored offset
	NumBuckets uint32
}

func (h *Header) Bytes() []byte {
	buf := make([]byte, 0, 16)
	buf = append(buf, Magic[:]...)
	buf = append(buf, Version)
	buf = append(buf, h.ValueSize)
	buf = binary.LittleEndian.AppendUint32(buf, h.NumBuckets)
	return buf
}

const headerLen = 8 + 1 + 1 + 4

func (h *Header) Load(buf []byte) error {
	if len(buf) < headerLen {
		return fmt.Errorf("%w: term index header truncated", errs.ErrCorruptContainer)
	}
	if *(*[8]byte)(buf[:8]) != Magic {
		return fmt.Errorf("%w: bad term index magic", errs.ErrCorruptContainer)
	}
	if buf[8] != Version {
		return fmt.Errorf("%w: unsupported term index version %d", errs.ErrCorruptContainer, buf[8])
	}
	h.ValueSize = buf[9]
	h.NumBuckets = binary.LittleEndian.Uint32(buf[10:14])
	if h.ValueSize == 0 || h.NumBuckets == 0 {
		return fmt.Errorf("%w: zero value size or bucket count", errs.ErrCorruptContainer)
	}
	return nil
}

// BucketIndex returns the bucket a term hash is assigned to, by uniform
// discrete hashing over the key space.
func (h *Header) BucketIndex(termHash uint64) uint32 {
	return uint32(termHash % uint64(h.NumBuckets))
}

// BucketHeader occurs at the beginning of each bucket's entry table.
type BucketHeader struct {
	HashDomain uint32
	NumEntries uint32
	FileOffset uint64
}

const bucketHdrLen = 16

func (b *BucketHeader) store(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], b.HashDomain)
	binary.LittleEndian.PutUint32(buf[4:8], b.NumEntries)
	binary.LittleEndian.PutUint64(buf[8:16], b.FileOffset)
}

func (b *BucketHeader) load(buf []byte) {
	b.HashDomain = binary.LittleEndian.Uint32(buf[0:4])
	b.NumEntries = binary.LittleEndian.Uint32(buf[4:8])
	b.FileOffset = binary.LittleEndian.Uint64(buf[8:16])
}

// entryHash computes the per-bucket FKS candidate hash for a term hash
// under a given mining domain (nonce).
func entryHash(domain uint32, termHash uint64) uint64 {
	var prefixed [12]byte
	binary.LittleEndian.PutUint32(prefixed[:4], domain)
	binary.LittleEndian.PutUint64(prefixed[4:], termHash)
	return xxhash.Sum64(prefixed[:])
}

// Entry is one resolved (truncated-hash, offset) pair inside a bucket.
type Entry struct {
	Hash   uint64 // truncated to HashSize*8 bits
	Offset uint64
}
