package iterator

import (
	"io"
	"testing"

	"github.com/faithsearch/litsearch/internal/docid"
	"github.com/stretchr/testify/require"
)

type fakeShard struct {
	numDocs docid.Local
	deleted map[docid.Local]bool
}

func (f *fakeShard) IsDeleted(local docid.Local) bool { return f.deleted[local] }
func (f *fakeShard) NumDocs() docid.Local             { return f.numDocs }
func (f *fakeShard) GetDocument(local docid.Local, fields []string) (map[string]any, error) {
	return map[string]any{"id": int64(local)}, nil
}

func TestIteratorAscendingFromStart(t *testing.T) {
	shards := []Shard{
		&fakeShard{numDocs: 3, deleted: map[docid.Local]bool{}},
		&fakeShard{numDocs: 3, deleted: map[docid.Local]bool{}},
	}
	it := New(shards, nil, 0, -1, Ascending, false, false, nil)

	var got []docid.Global
	for {
		e, err := it.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, e.GlobalID)
	}
	require.Len(t, got, 6)
	require.Equal(t, docid.Global(0), got[0])
}

func TestIteratorSkipsDeletedByDefault(t *testing.T) {
	shards := []Shard{&fakeShard{numDocs: 3, deleted: map[docid.Local]bool{1: true}}}
	it := New(shards, nil, 0, -1, Ascending, false, false, nil)

	var got []docid.Global
	for {
		e, err := it.Next()
		if err == io.EOF {
			break
		}
		got = append(got, e.GlobalID)
	}
	require.Len(t, got, 2)
}

func TestIteratorIncludeDeleted(t *testing.T) {
	shards := []Shard{&fakeShard{numDocs: 3, deleted: map[docid.Local]bool{1: true}}}
	it := New(shards, nil, 0, -1, Ascending, false, true, nil)

	count := 0
	for {
		_, err := it.Next()
		if err == io.EOF {
			break
		}
		count++
	}
	require.Equal(t, 3, count)
}

func TestIteratorRespectsTake(t *testing.T) {
	shards := []Shard{&fakeShard{numDocs: 10, deleted: map[docid.Local]bool{}}}
	it := New(shards, nil, 0, 3, Ascending, false, false, nil)

	count := 0
	for {
		_, err := it.Next()
		if err == io.EOF {
			break
		}
		count++
	}
	require.Equal(t, 3, count)
}

func TestIteratorDescendingFromEnd(t *testing.T) {
	shards := []Shard{&fakeShard{numDocs: 3, deleted: map[docid.Local]bool{}}}
	it := New(shards, nil, 0, -1, Descending, false, false, nil)

	e, err := it.Next()
	require.NoError(t, err)
	require.Equal(t, docid.Global(2), e.GlobalID)
}

func TestIteratorIncludeDocFetchesFields(t *testing.T) {
	shards := []Shard{&fakeShard{numDocs: 2, deleted: map[docid.Local]bool{}}}
	it := New(shards, nil, 0, 1, Ascending, true, false, []string{"id"})

	e, err := it.Next()
	require.NoError(t, err)
	require.Equal(t, int64(0), e.Fields["id"])
}
