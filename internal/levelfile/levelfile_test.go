package levelfile

import (
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/faithsearch/litsearch/internal/segment"
	"github.com/faithsearch/litsearch/internal/tokenizer"
	"github.com/stretchr/testify/require"
)

func buildSealedLevel(t *testing.T) []segment.SealedTerm {
	t.Helper()
	buf := segment.NewBuffer(0)
	buf.AddDocument(map[uint8][]tokenizer.Token{
		0: {{Hash: xxhash.Sum64String("alpha"), Position: 0}, {Hash: xxhash.Sum64String("beta"), Position: 1}},
	})
	buf.AddDocument(map[uint8][]tokenizer.Token{
		0: {{Hash: xxhash.Sum64String("alpha"), Position: 0}},
	})
	return buf.Encode(func(hash uint64) float64 { return 1.0 })
}

func TestAllTermsRoundTrip(t *testing.T) {
	sealed := buildSealedLevel(t)
	levelBlob, termIndexBlob, err := Encode(sealed)
	require.NoError(t, err)

	r, err := Open(levelBlob, termIndexBlob)
	require.NoError(t, err)

	terms, err := r.AllTerms()
	require.NoError(t, err)
	require.Len(t, terms, len(sealed))

	byHash := make(map[uint64]segment.SealedTerm, len(sealed))
	for _, st := range sealed {
		byHash[st.Hash] = st
	}
	for _, rt := range terms {
		st, ok := byHash[rt.Hash]
		require.True(t, ok)
		require.Equal(t, st.SingleField, rt.Block.SingleField)
		require.Equal(t, st.BlockMax, rt.Block.BlockMax)
	}
}

func TestEncodeOpenLookupRoundTrip(t *testing.T) {
	sealed := buildSealedLevel(t)
	require.NotEmpty(t, sealed)

	levelBlob, termIndexBlob, err := Encode(sealed)
	require.NoError(t, err)
	require.NotEmpty(t, termIndexBlob)

	r, err := Open(levelBlob, termIndexBlob)
	require.NoError(t, err)

	count, err := r.TermCount()
	require.NoError(t, err)
	require.Equal(t, len(sealed), count)

	for _, st := range sealed {
		block, err := r.Lookup(st.Hash)
		require.NoError(t, err)
		require.NotNil(t, block)
	}
}

func TestLookupUnknownTermNotFound(t *testing.T) {
	sealed := buildSealedLevel(t)
	levelBlob, termIndexBlob, err := Encode(sealed)
	require.NoError(t, err)

	r, err := Open(levelBlob, termIndexBlob)
	require.NoError(t, err)

	_, err = r.Lookup(xxhash.Sum64String("nonexistent-term"))
	require.Error(t, err)
}

func TestEncodeEmptyLevel(t *testing.T) {
	levelBlob, termIndexBlob, err := Encode(nil)
	require.NoError(t, err)
	require.Nil(t, termIndexBlob)

	r, err := Open(levelBlob, termIndexBlob)
	require.NoError(t, err)
	count, err := r.TermCount()
	require.NoError(t, err)
	require.Equal(t, 0, count)
}
