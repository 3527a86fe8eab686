package deletebitmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeleteAndIsDeleted(t *testing.T) {
	b := New()
	require.False(t, b.IsDeleted(5))
	require.True(t, b.Delete(5))
	require.True(t, b.IsDeleted(5))
	require.False(t, b.Delete(5)) // already deleted
	require.Equal(t, uint64(1), b.Count())
}

func TestMarshalLoadRoundTrip(t *testing.T) {
	b := New()
	b.Delete(1)
	b.Delete(70000)
	data, err := b.MarshalBinary()
	require.NoError(t, err)

	loaded, err := Load(data)
	require.NoError(t, err)
	require.True(t, loaded.IsDeleted(1))
	require.True(t, loaded.IsDeleted(70000))
	require.False(t, loaded.IsDeleted(2))
	require.True(t, b.Equal(loaded))
}

func TestLoadEmptyRestoresAll(t *testing.T) {
	b, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, uint64(0), b.Count())
}

func TestUndelete(t *testing.T) {
	b := New()
	b.Delete(3)
	require.True(t, b.Undelete(3))
	require.False(t, b.IsDeleted(3))
}
