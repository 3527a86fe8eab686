package postinglist

import (
	"encoding/binary"
	"fmt"

	"github.com/faithsearch/litsearch/internal/errs"
)

// FieldPositions is one field's term positions within a single document,
// prior to encoding.
type FieldPositions struct {
	FieldID uint8
	Pos     []uint32 // ascending
}

// logCountTable approximates a position count with an 8-bit logarithmic
// code, per spec.md §4.3 ("counts are compressed via a logarithmic 8-bit
// approximation table"). Codes 0-63 are exact for counts 0..63; beyond
// that, buckets grow geometrically, trading precision for range so
// n-gram partial-term counts never need more than one byte.
var logCountTable = buildLogCountTable()

func buildLogCountTable() [256]uint32 {
	var t [256]uint32
	for i := 0; i < 64; i++ {
		t[i] = uint32(i)
	}
	v := uint32(64)
	step := uint32(2)
	for i := 64; i < 256; i++ {
		t[i] = v
		v += step
		if i%8 == 0 {
			step *= 2
		}
	}
	return t
}

// EncodeCount returns the closest 8-bit logarithmic code for a position
// count (lossy above 63, exact at/below it).
func EncodeCount(n int) byte {
	if n < 64 {
		return byte(n)
	}
	best := 63
	bestDiff := uint32(1) << 31
	for i := 64; i < 256; i++ {
		d := logCountTable[i]
		var diff uint32
		if d > uint32(n) {
			diff = d - uint32(n)
		} else {
			diff = uint32(n) - d
		}
		if diff < bestDiff {
			bestDiff = diff
			best = i
		}
	}
	return byte(best)
}

// DecodeCount reverses EncodeCount (approximate above 63).
func DecodeCount(code byte) uint32 {
	return logCountTable[code]
}

// EncodePositions serializes one document's per-field position lists in
// ascending field order: per field, a leading byte packing
// (field_id_bits | position_count_bits), then delta+varint-encoded
// positions (spec.md §4.3).
//
// When there is exactly one indexed field carrying the term, the field-id
// prefix is omitted (spec.md §3: "a small field-id prefix when more than
// one indexed field carries the term").
func EncodePositions(fields []FieldPositions, singleField bool) []byte {
	buf := make([]byte, 0, 16*len(fields))
	for _, f := range fields {
		count := EncodeCount(len(f.Pos))
		if singleField {
			buf = append(buf, count)
		} else {
			if f.FieldID > 15 {
				panic("postinglist: field id exceeds 4-bit prefix range")
			}
			buf = append(buf, f.FieldID<<4|(count&0x0f), count>>4&0x0f)
		}
		var prev uint32
		for _, p := range f.Pos {
			buf = binary.AppendUvarint(buf, uint64(p-prev))
			prev = p
		}
	}
	return buf
}

// PositionsReader lazily decodes one field's positions out of an encoded
// payload (spec.md §4.3: "positions(field) -> iterator<u32>", lazy).
type PositionsReader struct {
	data        []byte
	singleField bool
}

func NewPositionsReader(data []byte, singleField bool) *PositionsReader {
	return &PositionsReader{data: data, singleField: singleField}
}

// Field scans the payload for a field's positions without decoding other
// fields' data.
func (r *PositionsReader) Field(fieldID uint8) ([]uint32, error) {
	buf := r.data
	for len(buf) > 0 {
		var fid uint8
		var count uint32
		if r.singleField {
			fid = fieldID
			count = DecodeCount(buf[0])
			buf = buf[1:]
		} else {
			if len(buf) < 2 {
				return nil, fmt.Errorf("%w: truncated position field header", errs.ErrCorruptContainer)
			}
			fid = buf[0] >> 4
			code := (buf[0] & 0x0f) | (buf[1]&0x0f)<<4
			count = DecodeCount(code)
			buf = buf[2:]
		}
		pos := make([]uint32, 0, count)
		var prev uint32
		for i := uint32(0); i < count; i++ {
			delta, n := binary.Uvarint(buf)
			if n <= 0 {
				return nil, fmt.Errorf("%w: truncated position varint", errs.ErrCorruptContainer)
			}
			buf = buf[n:]
			prev += uint32(delta)
			pos = append(pos, prev)
		}
		if fid == fieldID {
			return pos, nil
		}
		if r.singleField {
			break
		}
	}
	return nil, nil
}
