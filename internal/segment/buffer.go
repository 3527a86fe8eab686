// Package segment holds the in-memory working set of a shard's current
// uncommitted level block (spec.md §4.2).
package segment

import (
	"github.com/faithsearch/litsearch/internal/docid"
	"github.com/faithsearch/litsearch/internal/postinglist"
	"github.com/faithsearch/litsearch/internal/tokenizer"
	"github.com/tidwall/hashmap"
)

// fieldPos accumulates one document's positions for one field of one term.
type fieldPos struct {
	fieldID uint8
	pos     []uint32
}

// termEntry is the under-construction postings for a single term hash
// across every document in the current level.
type termEntry struct {
	docs map[uint16][]fieldPos // level-local offset -> per-field positions
}

// Buffer maps term-hash -> postings-under-construction for the shard's
// current uncommitted block, pre-sized to avoid rehashing during ingest
// (spec.md §4.2). Grounded on the teacher's gsfa/gsfa-write.go accumulator,
// which uses the same tidwall/hashmap.Map for an analogous per-key
// accumulation role.
type Buffer struct {
	terms    *hashmap.Map[uint64, *termEntry]
	numDocs  int
	baseLvl  uint32
}

// presizeHint mirrors the teacher's "pre-sized large... to avoid rehashing
// during ingest" (spec.md §4.2): several hundred thousand slots, matching
// the order of magnitude gsfa/gsfa-write.go reserves for its own
// accumulator map.
const presizeHint = 200_000

// NewBuffer creates an empty segment buffer for the given level index.
func NewBuffer(level uint32) *Buffer {
	return &Buffer{
		terms:   hashmap.New[uint64, *termEntry](presizeHint),
		baseLvl: level,
	}
}

// AddDocument appends one document's tokenized fields into the buffer at
// the next level-local offset, returning that offset. Panics if the level
// is already full; once Full reports true, callers must Encode the level
// and Advance before adding another document.
func (b *Buffer) AddDocument(fieldTokens map[uint8][]tokenizer.Token) uint16 {
	if b.numDocs >= docid.LevelSize {
		panic("segment: buffer already holds a full level")
	}
	offset := uint16(b.numDocs)
	b.numDocs++

	type key struct {
		hash    uint64
		fieldID uint8
	}
	byTermField := make(map[key][]uint32)
	for fieldID, toks := range fieldTokens {
		for _, t := range toks {
			k := key{hash: t.Hash, fieldID: fieldID}
			byTermField[k] = append(byTermField[k], uint32(t.Position))
		}
	}

	grouped := make(map[uint64][]fieldPos)
	for k, positions := range byTermField {
		grouped[k.hash] = append(grouped[k.hash], fieldPos{fieldID: k.fieldID, pos: positions})
	}

	for hash, fps := range grouped {
		entry, ok := b.terms.Get(hash)
		if !ok {
			entry = &termEntry{docs: make(map[uint16][]fieldPos)}
			b.terms.Set(hash, entry)
		}
		entry.docs[offset] = fps
	}
	return offset
}

// NumDocs returns the number of documents currently buffered.
func (b *Buffer) NumDocs() int {
	return b.numDocs
}

// Full reports whether the buffer has reached one level's worth of
// documents and must be sealed before more can be added.
func (b *Buffer) Full() bool {
	return b.numDocs >= docid.LevelSize
}

// Level returns the level index this buffer will seal into.
func (b *Buffer) Level() uint32 {
	return b.baseLvl
}

// SealedTerm is one term's fully-encoded posting block, ready to append to
// a level's on-disk region.
type SealedTerm struct {
	Hash            uint64
	Kind            postinglist.Kind
	ContainerBytes  []byte
	PayloadsSection []byte
	BlockMax        float32
	SingleField     bool
}

// Encode encodes every term's accumulated postings into sealed blocks, in
// ascending term-hash order (deterministic on-disk layout), without
// modifying the buffer: safe to call on every commit of a still-growing
// level, including ones below a full level's document count (spec.md
// §4.6, "the new commit may extend [the trailing level] rather than
// seal"). idf supplies the per-term IDF used for the WAND upper bound
// (spec.md §4.5); it may return 0 for unknown terms, which simply yields
// a BlockMax of 0 (no pruning benefit but still correct).
func (b *Buffer) Encode(idf func(hash uint64) float64) []SealedTerm {
	hashes := make([]uint64, 0, b.terms.Len())
	for _, h := range b.terms.Keys() {
		hashes = append(hashes, h)
	}
	sortUint64(hashes)

	out := make([]SealedTerm, 0, len(hashes))
	for _, hash := range hashes {
		entry, _ := b.terms.Get(hash)
		docPayloads := make(map[uint16][]byte, len(entry.docs))
		maxTF := make([]int, 0, len(entry.docs))
		singleField := fieldCountAcrossDocs(entry.docs) <= 1

		for offset, fps := range entry.docs {
			fields := make([]postinglist.FieldPositions, len(fps))
			tf := 0
			for i, fp := range fps {
				fields[i] = postinglist.FieldPositions{FieldID: fp.fieldID, Pos: fp.pos}
				tf += len(fp.pos)
			}
			docPayloads[offset] = postinglist.EncodePositions(fields, singleField)
			maxTF = append(maxTF, tf)
		}

		kind, containerBytes, block := postinglist.BuildBlock(docPayloads, 0, singleField)
		blockMax := postinglist.EstimateBlockMax(maxTF, idf(hash))
		payloadsSection := postinglist.EncodePayloadsSection(block.Payloads)

		out = append(out, SealedTerm{
			Hash:            hash,
			Kind:            kind,
			ContainerBytes:  containerBytes,
			PayloadsSection: payloadsSection,
			BlockMax:        blockMax,
			SingleField:     singleField,
		})
	}
	return out
}

// Advance finalizes the current level now that it holds a full level's
// worth of documents, resetting the buffer for the next level. Callers
// must only call Advance once Full reports true: a level only ever
// finalizes at exactly docid.LevelSize documents, never earlier, so that
// every level but the shard's trailing one is exactly LevelSize long
// (spec.md §3, "gapless except in each shard's trailing incomplete
// block").
func (b *Buffer) Advance() {
	b.terms = hashmap.New[uint64, *termEntry](presizeHint)
	b.numDocs = 0
	b.baseLvl++
}

// RestoreTerm is one term's already-sealed block, as read back from a
// level file, ready to be folded back into a Buffer so a trailing
// incomplete level can keep growing after a shard reopens.
type RestoreTerm struct {
	Hash  uint64
	Block *postinglist.Block
}

// Restore rebuilds a buffer's in-memory term map from a trailing
// incomplete level's already-decoded term blocks, so further
// AddDocument calls extend it instead of starting a new level at offset
// zero (spec.md §4.6). maxFieldID bounds the per-field position scan.
func Restore(level uint32, docsInLevel int, terms []RestoreTerm, maxFieldID uint8) *Buffer {
	b := &Buffer{
		terms:   hashmap.New[uint64, *termEntry](presizeHint),
		baseLvl: level,
		numDocs: docsInLevel,
	}
	for _, rt := range terms {
		entry := &termEntry{docs: make(map[uint16][]fieldPos)}
		cur := postinglist.NewCursor(rt.Block)
		for cur.Valid() {
			offset := cur.Current()
			var fps []fieldPos
			if rt.Block.SingleField {
				// A single-field block's payload carries no field-id prefix
				// (it's implicit); fieldID 0 is a resolution-agnostic
				// placeholder, consistent with PositionsReader.Field's
				// behavior of returning the same positions regardless of
				// which field ID a single-field lookup asks for.
				if pos, err := cur.Positions(0); err == nil && len(pos) > 0 {
					fps = append(fps, fieldPos{fieldID: 0, pos: append([]uint32{}, pos...)})
				}
			} else {
				for fid := 0; fid <= int(maxFieldID); fid++ {
					pos, err := cur.Positions(uint8(fid))
					if err != nil || len(pos) == 0 {
						continue
					}
					fps = append(fps, fieldPos{fieldID: uint8(fid), pos: append([]uint32{}, pos...)})
				}
			}
			entry.docs[offset] = fps
			cur.Next()
		}
		b.terms.Set(rt.Hash, entry)
	}
	return b
}

// Lookup builds one term's posting block directly from the buffer's
// current uncommitted documents, without sealing or resetting the
// buffer. Used by search's include_uncommitted path so still-buffered
// documents are visible without waiting for commit (spec.md §5).
func (b *Buffer) Lookup(hash uint64, idf float64) (*postinglist.Block, bool) {
	entry, ok := b.terms.Get(hash)
	if !ok {
		return nil, false
	}
	docPayloads := make(map[uint16][]byte, len(entry.docs))
	maxTF := make([]int, 0, len(entry.docs))
	singleField := fieldCountAcrossDocs(entry.docs) <= 1

	for offset, fps := range entry.docs {
		fields := make([]postinglist.FieldPositions, len(fps))
		tf := 0
		for i, fp := range fps {
			fields[i] = postinglist.FieldPositions{FieldID: fp.fieldID, Pos: fp.pos}
			tf += len(fp.pos)
		}
		docPayloads[offset] = postinglist.EncodePositions(fields, singleField)
		maxTF = append(maxTF, tf)
	}

	_, _, block := postinglist.BuildBlock(docPayloads, 0, singleField)
	block.BlockMax = postinglist.EstimateBlockMax(maxTF, idf)
	return block, true
}

func fieldCountAcrossDocs(docs map[uint16][]fieldPos) int {
	seen := make(map[uint8]struct{})
	for _, fps := range docs {
		for _, fp := range fps {
			seen[fp.fieldID] = struct{}{}
		}
	}
	return len(seen)
}

func sortUint64(s []uint64) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
