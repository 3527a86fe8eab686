package compactindex

import (
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/require"
)

func TestBuildAndLookupRoundTrip(t *testing.T) {
	terms := []string{"apple", "banana", "cherry", "date", "elderberry", "fig", "grape"}
	hashes := make([]uint64, len(terms))
	offsets := make([]uint64, len(terms))
	for i, term := range terms {
		hashes[i] = xxhash.Sum64String(term)
		offsets[i] = uint64(i*1000 + 7)
	}

	b, err := NewBuilder(len(terms), offsets[len(offsets)-1]+1)
	require.NoError(t, err)
	for i := range terms {
		b.Insert(hashes[i], offsets[i])
	}
	blob, err := b.Seal()
	require.NoError(t, err)

	db, err := Open(blob)
	require.NoError(t, err)

	for i := range terms {
		got, err := db.Lookup(hashes[i])
		require.NoError(t, err)
		require.Equal(t, offsets[i], got)
	}
}

func TestLookupMissingTermNotFound(t *testing.T) {
	b, err := NewBuilder(4, 100)
	require.NoError(t, err)
	b.Insert(xxhash.Sum64String("known"), 42)
	blob, err := b.Seal()
	require.NoError(t, err)

	db, err := Open(blob)
	require.NoError(t, err)

	_, err = db.Lookup(xxhash.Sum64String("unknown"))
	require.True(t, IsNotFound(err))
}

func TestOffsetWidthChosenMinimally(t *testing.T) {
	b, err := NewBuilder(10, 300)
	require.NoError(t, err)
	require.Equal(t, uint8(2), b.valueSize)
}

func TestManyTermsSpanMultipleBuckets(t *testing.T) {
	n := 25000
	hashes := make([]uint64, n)
	for i := 0; i < n; i++ {
		hashes[i] = xxhash.Sum64String(string(rune(i)) + "-term")
	}
	b, err := NewBuilder(n, uint64(n))
	require.NoError(t, err)
	require.Greater(t, b.numBucket, uint32(1))
	for i, h := range hashes {
		b.Insert(h, uint64(i))
	}
	blob, err := b.Seal()
	require.NoError(t, err)

	db, err := Open(blob)
	require.NoError(t, err)
	for i, h := range hashes {
		got, err := db.Lookup(h)
		require.NoError(t, err)
		require.Equal(t, uint64(i), got)
	}
}
