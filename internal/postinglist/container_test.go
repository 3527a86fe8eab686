package postinglist

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContainerRoundTripArray(t *testing.T) {
	offsets := []uint16{1, 5, 9, 100, 4095}
	kind, data := EncodeContainer(offsets)
	require.Equal(t, KindArray, kind)
	bm, err := DecodeContainer(kind, data)
	require.NoError(t, err)
	require.ElementsMatch(t, toU32(offsets), bm.ToArray())
}

func TestContainerRoundTripRLE(t *testing.T) {
	// A long contiguous run compresses far better as RLE than as an array.
	offsets := make([]uint16, 0, 5000)
	for i := uint16(0); i < 5000; i++ {
		offsets = append(offsets, i)
	}
	kind, data := EncodeContainer(offsets)
	require.Equal(t, KindRLE, kind)
	bm, err := DecodeContainer(kind, data)
	require.NoError(t, err)
	require.ElementsMatch(t, toU32(offsets), bm.ToArray())
}

func TestContainerRoundTripBitmap(t *testing.T) {
	// Scattered, high-cardinality, non-runny offsets: bitmap wins.
	offsets := make([]uint16, 0, 30000)
	for i := uint16(0); i < 60000; i += 2 {
		offsets = append(offsets, i)
	}
	kind, data := EncodeContainer(offsets)
	require.Equal(t, KindBitmap, kind)
	require.Len(t, data, BitmapBytes)
	bm, err := DecodeContainer(kind, data)
	require.NoError(t, err)
	require.ElementsMatch(t, toU32(offsets), bm.ToArray())
}

func TestContainerChoosesSmallestAdmissible(t *testing.T) {
	// Below the array threshold and not especially runny: array must win
	// over both RLE and bitmap.
	offsets := []uint16{2, 4, 8, 16, 32, 64, 128, 256}
	kind, _ := EncodeContainer(offsets)
	require.Equal(t, KindArray, kind)
}

func TestContainerThresholdBoundary(t *testing.T) {
	// Exactly ArrayThreshold non-runny offsets: array still admissible.
	atThreshold := make([]uint16, 0, ArrayThreshold)
	for i := 0; i < ArrayThreshold; i++ {
		atThreshold = append(atThreshold, uint16(i*2))
	}
	kind, _ := EncodeContainer(atThreshold)
	require.Equal(t, KindArray, kind)

	// One more non-runny offset pushes the array encoding past bitmap's
	// fixed size, so the smallest-admissible choice flips to bitmap.
	overThreshold := append(append([]uint16{}, atThreshold...), uint16(ArrayThreshold*2+1))
	kind, data := EncodeContainer(overThreshold)
	require.Equal(t, KindBitmap, kind)
	require.Len(t, data, BitmapBytes)
}

func TestPositionsRoundTripLargeCount(t *testing.T) {
	// A single field with more positions than any practical document body,
	// to check the varint position codec has no hidden length cap.
	const n = 9000
	pos := make([]uint32, n)
	for i := range pos {
		pos[i] = uint32(i * 3)
	}
	data := EncodePositions([]FieldPositions{{FieldID: 0, Pos: pos}}, true)
	r := NewPositionsReader(data, true)
	got, err := r.Field(0)
	require.NoError(t, err)
	require.Equal(t, pos, got)
}

func TestDecodeCorruptKind(t *testing.T) {
	_, err := DecodeContainer(Kind(99), []byte{1, 2, 3})
	require.Error(t, err)
}

func TestDecodeArrayNotAscendingIsCorrupt(t *testing.T) {
	data := []byte{5, 0, 5, 0} // two identical offsets: not strictly ascending
	_, err := DecodeContainer(KindArray, data)
	require.Error(t, err)
}

func TestPositionsRoundTripSingleField(t *testing.T) {
	fields := []FieldPositions{{FieldID: 0, Pos: []uint32{0, 3, 7, 20}}}
	data := EncodePositions(fields, true)
	r := NewPositionsReader(data, true)
	pos, err := r.Field(0)
	require.NoError(t, err)
	require.Equal(t, []uint32{0, 3, 7, 20}, pos)
}

func TestPositionsRoundTripMultiField(t *testing.T) {
	fields := []FieldPositions{
		{FieldID: 0, Pos: []uint32{1, 2, 3}},
		{FieldID: 1, Pos: []uint32{0, 50}},
	}
	data := EncodePositions(fields, false)
	r := NewPositionsReader(data, false)

	p0, err := r.Field(0)
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 2, 3}, p0)

	p1, err := r.Field(1)
	require.NoError(t, err)
	require.Equal(t, []uint32{0, 50}, p1)
}

func TestBlockBuildDecodeAndCursor(t *testing.T) {
	docPayloads := map[uint16][]byte{
		3:  EncodePositions([]FieldPositions{{FieldID: 0, Pos: []uint32{1, 2}}}, true),
		10: EncodePositions([]FieldPositions{{FieldID: 0, Pos: []uint32{5}}}, true),
		11: EncodePositions([]FieldPositions{{FieldID: 0, Pos: []uint32{6, 7, 8}}}, true),
	}
	kind, containerBytes, block := BuildBlock(docPayloads, 1.5, true)
	payloadsSection := EncodePayloadsSection(block.Payloads)

	decoded, err := DecodeBlock(kind, containerBytes, payloadsSection, 1.5, true)
	require.NoError(t, err)
	require.Equal(t, float32(1.5), decoded.BlockMax)

	cur := NewCursor(decoded)
	require.True(t, cur.Valid())
	require.Equal(t, uint16(3), cur.Current())

	require.True(t, cur.Goto(10))
	require.Equal(t, uint16(10), cur.Current())
	pos, err := cur.Positions(0)
	require.NoError(t, err)
	require.Equal(t, []uint32{5}, pos)

	cur.Next()
	require.True(t, cur.Valid())
	require.Equal(t, uint16(11), cur.Current())

	cur.Next()
	require.False(t, cur.Valid())

	require.False(t, cur.Goto(9999))
}

func toU32(s []uint16) []uint32 {
	out := make([]uint32, len(s))
	for i, v := range s {
		out[i] = uint32(v)
	}
	return out
}
