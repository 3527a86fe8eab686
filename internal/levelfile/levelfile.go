// Package levelfile implements the physical layout of one sealed level
// within index.bin (spec.md §6: "index.bin — level blocks; each block
// header has term count, then for each term: 64-bit hash, container-kind
// tag, container bytes, block-max upper bound, position payload length,
// position payload"), plus the FKS term index (internal/compactindex)
// that resolves a term hash to its record's byte offset without a linear
// scan.
package levelfile

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/faithsearch/litsearch/internal/compactindex"
	"github.com/faithsearch/litsearch/internal/errs"
	"github.com/faithsearch/litsearch/internal/postinglist"
	"github.com/faithsearch/litsearch/internal/segment"
)

// Encode serializes one level's sealed terms (already in ascending
// term-hash order, as segment.Buffer.Encode produces) into the level's
// index.bin region plus its term index blob.
func Encode(sealed []segment.SealedTerm) (levelBlob, termIndexBlob []byte, err error) {
	levelBlob = encodeHeader(len(sealed))

	offsets := make([]uint64, len(sealed))
	for i, st := range sealed {
		offsets[i] = uint64(len(levelBlob))
		levelBlob = appendTermRecord(levelBlob, st)
	}

	if len(sealed) == 0 {
		return levelBlob, nil, nil
	}
	maxOffset := offsets[len(offsets)-1]
	builder, err := compactindex.NewBuilder(len(sealed), maxOffset+1)
	if err != nil {
		return nil, nil, fmt.Errorf("levelfile: building term index: %w", err)
	}
	for i, st := range sealed {
		builder.Insert(st.Hash, offsets[i])
	}
	termIndexBlob, err = builder.Seal()
	if err != nil {
		return nil, nil, fmt.Errorf("levelfile: sealing term index: %w", err)
	}
	return levelBlob, termIndexBlob, nil
}

func encodeHeader(termCount int) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(termCount))
	return buf
}

func appendTermRecord(buf []byte, st segment.SealedTerm) []byte {
	buf = binary.LittleEndian.AppendUint64(buf, st.Hash)
	buf = append(buf, byte(st.Kind))
	buf = append(buf, boolByte(st.SingleField))
	buf = binary.AppendUvarint(buf, uint64(len(st.ContainerBytes)))
	buf = append(buf, st.ContainerBytes...)
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(st.BlockMax))
	buf = binary.AppendUvarint(buf, uint64(len(st.PayloadsSection)))
	buf = append(buf, st.PayloadsSection...)
	return buf
}

// termRecordHeaderMin is the smallest possible fixed-size prefix of a
// term record (hash + kind byte + single-field byte), used for bounds
// checks before reading the variable-length portions.
const termRecordHeaderMin = 8 + 1 + 1

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Reader resolves term hashes against one sealed level's on-disk bytes.
type Reader struct {
	blob      []byte
	termIndex *compactindex.DB
}

// Open parses a level's term index and wraps its blob for random-access
// term lookup. Each term record carries its own single-field flag (spec.md
// §3 "Posting block": a field-id prefix is only present "when more than
// one indexed field carries the term"), so no level-wide flag is needed.
func Open(levelBlob, termIndexBlob []byte) (*Reader, error) {
	if len(termIndexBlob) == 0 {
		return &Reader{blob: levelBlob}, nil
	}
	db, err := compactindex.Open(termIndexBlob)
	if err != nil {
		return nil, fmt.Errorf("levelfile: opening term index: %w", err)
	}
	return &Reader{blob: levelBlob, termIndex: db}, nil
}

// TermCount returns the level's declared term count (the header value).
func (r *Reader) TermCount() (int, error) {
	if len(r.blob) < 4 {
		return 0, fmt.Errorf("%w: level header truncated", errs.ErrCorruptContainer)
	}
	return int(binary.LittleEndian.Uint32(r.blob[:4])), nil
}

// Lookup resolves a term hash to its decoded Block within this level, or
// compactindex.ErrNotFound if the term doesn't occur in this level.
func (r *Reader) Lookup(termHash uint64) (*postinglist.Block, error) {
	if r.termIndex == nil {
		return nil, compactindex.ErrNotFound
	}
	offset, err := r.termIndex.Lookup(termHash)
	if err != nil {
		return nil, err
	}
	hash, block, _, err := r.decodeRecord(offset)
	if err != nil {
		return nil, err
	}
	if hash != termHash {
		// The term index stores only a truncated hash, so an absent term can
		// land on another term's record.
		return nil, compactindex.ErrNotFound
	}
	return block, nil
}

// AllTerms decodes every term record stored in this level, in on-disk
// (ascending hash) order, without consulting the term index. Used to
// restore a trailing incomplete level's buffer when a shard reopens
// (spec.md §4.6): the level's on-disk bytes are the only record of what
// was buffered at the last commit.
func (r *Reader) AllTerms() ([]segment.RestoreTerm, error) {
	count, err := r.TermCount()
	if err != nil {
		return nil, err
	}
	out := make([]segment.RestoreTerm, 0, count)
	offset := uint64(4)
	for i := 0; i < count; i++ {
		hash, block, consumed, err := r.decodeRecord(offset)
		if err != nil {
			return nil, err
		}
		out = append(out, segment.RestoreTerm{Hash: hash, Block: block})
		offset += consumed
	}
	return out, nil
}

// decodeRecord decodes the term record starting at offset, returning its
// hash, decoded block, and the number of bytes it occupies so a linear
// scan (AllTerms) can advance to the next record.
func (r *Reader) decodeRecord(offset uint64) (hash uint64, block *postinglist.Block, consumed uint64, err error) {
	start := offset
	if offset+termRecordHeaderMin > uint64(len(r.blob)) {
		return 0, nil, 0, fmt.Errorf("%w: term record offset out of range", errs.ErrCorruptContainer)
	}
	buf := r.blob[offset:]
	hash = binary.LittleEndian.Uint64(buf[:8])
	kind := postinglist.Kind(buf[8])
	singleField := buf[9] != 0
	buf = buf[10:]
	offset += 10

	containerLen, n := binary.Uvarint(buf)
	if n <= 0 {
		return 0, nil, 0, fmt.Errorf("%w: truncated container length", errs.ErrCorruptContainer)
	}
	buf = buf[n:]
	offset += uint64(n)
	if uint64(len(buf)) < containerLen {
		return 0, nil, 0, fmt.Errorf("%w: truncated container bytes", errs.ErrCorruptContainer)
	}
	containerBytes := buf[:containerLen]
	buf = buf[containerLen:]
	offset += containerLen

	if len(buf) < 4 {
		return 0, nil, 0, fmt.Errorf("%w: truncated block-max", errs.ErrCorruptContainer)
	}
	blockMax := math.Float32frombits(binary.LittleEndian.Uint32(buf[:4]))
	buf = buf[4:]
	offset += 4

	payloadLen, n := binary.Uvarint(buf)
	if n <= 0 {
		return 0, nil, 0, fmt.Errorf("%w: truncated payload length", errs.ErrCorruptContainer)
	}
	buf = buf[n:]
	offset += uint64(n)
	if uint64(len(buf)) < payloadLen {
		return 0, nil, 0, fmt.Errorf("%w: truncated payload bytes", errs.ErrCorruptContainer)
	}
	payloadsSection := buf[:payloadLen]
	offset += payloadLen

	block, err = postinglist.DecodeBlock(kind, containerBytes, payloadsSection, blockMax, singleField)
	if err != nil {
		return 0, nil, 0, err
	}
	return hash, block, offset - start, nil
}
