package tokenizer

import "github.com/cespare/xxhash/v2"

// NgramKind tags which hash namespace a term hash lives in, so unigrams,
// bigrams and trigrams never collide with each other (spec.md §3, "Term
// hash").
type NgramKind uint8

const (
	Unigram NgramKind = iota
	BigramFF           // frequent-frequent
	BigramFR           // frequent-rare
	BigramRF           // rare-frequent
	TrigramFFF
	TrigramRFF
	TrigramFFR
	TrigramFRF
)

// kindShift places the kind tag in the top 3 bits of the 64-bit term hash, giving each
// n-gram class a disjoint namespace while leaving 61 bits of hash entropy.
const kindShift = 61

// Hash computes the disjoint-namespace term hash for a token string under
// the given n-gram kind.
func Hash(term string, kind NgramKind) uint64 {
	h := xxhash.Sum64String(term)
	h &^= uint64(0b111) << kindShift // clear top 3 bits
	h |= uint64(kind&0b111) << kindShift
	return h
}

// KindOf extracts the n-gram kind tag from a term hash.
func KindOf(hash uint64) NgramKind {
	return NgramKind((hash >> kindShift) & 0b111)
}
