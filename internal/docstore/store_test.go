package docstore

import (
	"testing"

	"github.com/faithsearch/litsearch/internal/errs"
	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	for _, codec := range []Codec{CodecNone, CodecZstd, CodecSnappy, CodecLZ4} {
		w := NewWriter(codec)
		idx0, err := w.Append([]byte(`{"title":"hello world"}`))
		require.NoError(t, err)
		idx1, err := w.Append([]byte(`{"title":"goodbye"}`))
		require.NoError(t, err)

		r := NewReader(w.Blob(), w.Records())
		got0, err := r.Get(idx0)
		require.NoError(t, err)
		require.Equal(t, `{"title":"hello world"}`, string(got0))

		got1, err := r.Get(idx1)
		require.NoError(t, err)
		require.Equal(t, `{"title":"goodbye"}`, string(got1))
	}
}

func TestSidecarRoundTrip(t *testing.T) {
	w := NewWriter(CodecZstd)
	_, err := w.Append([]byte("abc"))
	require.NoError(t, err)
	_, err = w.Append([]byte("defgh"))
	require.NoError(t, err)

	encoded := EncodeSidecar(w.Records())
	decoded, err := DecodeSidecar(encoded)
	require.NoError(t, err)
	require.Equal(t, w.Records(), decoded)
}

func TestGetOutOfRangeIsDocIDInvalid(t *testing.T) {
	w := NewWriter(CodecNone)
	_, err := w.Append([]byte("x"))
	require.NoError(t, err)
	r := NewReader(w.Blob(), w.Records())
	_, err = r.Get(5)
	require.ErrorIs(t, err, errs.ErrDocIDInvalid)
}
