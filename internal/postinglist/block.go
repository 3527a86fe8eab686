package postinglist

import (
	"encoding/binary"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/faithsearch/litsearch/internal/errs"
)

// Block is one term's decoded posting block within a single level: the
// level-local docID set plus each matching document's encoded position
// payload, held in the same ascending order the docID set iterates in.
type Block struct {
	DocIDs      *roaring.Bitmap
	Payloads    [][]byte // payloads[i] corresponds to the i-th docID in ascending order
	BlockMax    float32  // precomputed WAND upper bound (spec.md §4.5)
	SingleField bool
}

// BuildBlock seals one term's accumulated per-document postings for a
// level into a Block, choosing the docID container representation.
func BuildBlock(docPayloads map[uint16][]byte, blockMax float32, singleField bool) (Kind, []byte, *Block) {
	offsets := make([]uint16, 0, len(docPayloads))
	for off := range docPayloads {
		offsets = append(offsets, off)
	}
	sortUint16(offsets)

	kind, containerBytes := EncodeContainer(offsets)
	payloads := make([][]byte, len(offsets))
	for i, off := range offsets {
		payloads[i] = docPayloads[off]
	}
	bm := roaring.BitmapOf()
	for _, off := range offsets {
		bm.Add(uint32(off))
	}
	return kind, containerBytes, &Block{DocIDs: bm, Payloads: payloads, BlockMax: blockMax, SingleField: singleField}
}

func sortUint16(s []uint16) {
	// insertion sort is fine: callers bound cardinality to one level (<=65536)
	// and this runs once per term at seal time, not per query.
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// EncodePayloadsSection concatenates per-doc payloads with a uvarint
// length prefix each, in ascending docID order.
func EncodePayloadsSection(payloads [][]byte) []byte {
	buf := make([]byte, 0, 64*len(payloads))
	for _, p := range payloads {
		buf = binary.AppendUvarint(buf, uint64(len(p)))
		buf = append(buf, p...)
	}
	return buf
}

// DecodeBlock reconstructs a Block from its serialized container and
// payloads-section bytes.
func DecodeBlock(kind Kind, containerBytes, payloadsSection []byte, blockMax float32, singleField bool) (*Block, error) {
	bm, err := DecodeContainer(kind, containerBytes)
	if err != nil {
		return nil, err
	}
	n := int(bm.GetCardinality())
	payloads := make([][]byte, 0, n)
	buf := payloadsSection
	for i := 0; i < n; i++ {
		length, k := binary.Uvarint(buf)
		if k <= 0 {
			return nil, fmt.Errorf("%w: truncated payload length prefix", errs.ErrCorruptContainer)
		}
		buf = buf[k:]
		if uint64(len(buf)) < length {
			return nil, fmt.Errorf("%w: truncated payload body", errs.ErrCorruptContainer)
		}
		payloads = append(payloads, buf[:length])
		buf = buf[length:]
	}
	return &Block{DocIDs: bm, Payloads: payloads, BlockMax: blockMax, SingleField: singleField}, nil
}

// EstimateBlockMax computes a simple IDF*maxTF upper bound for WAND
// pruning. Open question (spec.md §9): RLE-backed upper bounds may be
// slightly loose; this implementation recomputes the bound from the exact
// payload set at seal time, so it is tight for array/bitmap and RLE alike
// (we choose to tighten rather than preserve looseness, see DESIGN.md).
func EstimateBlockMax(maxTermFreqPerDoc []int, idf float64) float32 {
	max := 0
	for _, tf := range maxTermFreqPerDoc {
		if tf > max {
			max = tf
		}
	}
	// BM25 saturates; an uncapped tf still upper-bounds the true score
	// since saturation(tf) is monotone non-decreasing in tf.
	return float32(idf * float64(max) / (float64(max) + 1.2))
}
