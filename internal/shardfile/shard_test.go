package shardfile

import (
	"testing"

	"github.com/faithsearch/litsearch/internal/docid"
	"github.com/faithsearch/litsearch/internal/docstore"
	"github.com/faithsearch/litsearch/internal/postinglist"
	"github.com/faithsearch/litsearch/internal/tokenizer"
	"github.com/faithsearch/litsearch/schema"
	"github.com/stretchr/testify/require"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	sch, err := schema.New(
		schema.NewField("title", schema.Text, schema.Stored(), schema.Indexed(), schema.Longest()),
		schema.NewField("body", schema.Text, schema.Stored(), schema.Indexed()),
		schema.NewField("category", schema.String16, schema.Stored(), schema.Faceted()),
		schema.NewField("price", schema.F64, schema.Stored(), schema.Faceted()),
	)
	require.NoError(t, err)
	return sch
}

func testFieldTok(schema.Field) tokenizer.Pipeline {
	return tokenizer.Pipeline{Base: tokenizer.ForVariant(tokenizer.UnicodeAlphanumeric)}
}

func testConfig(t *testing.T, useMmap bool) Config {
	t.Helper()
	return Config{
		Dir:           t.TempDir(),
		Schema:        testSchema(t),
		ShardIndex:    0,
		ShardCount:    1,
		UseMmap:       useMmap,
		FieldTok:      testFieldTok,
		DocstoreCodec: docstore.CodecNone,
	}
}

func mustDoc(title, body, category string, price float64) *schema.Document {
	d := schema.NewDocument()
	d.Set("title", schema.TextValue(title))
	d.Set("body", schema.TextValue(body))
	d.Set("category", schema.StringValue(category))
	d.Set("price", schema.FloatValue(schema.F64, price))
	return d
}

func TestIndexCommitReopenRoundTrip(t *testing.T) {
	cfg := testConfig(t, false)
	s, err := New(cfg)
	require.NoError(t, err)

	g0, err := s.IndexDocument(mustDoc("apple pie", "a sweet dessert", "food", 4.5))
	require.NoError(t, err)
	g1, err := s.IndexDocument(mustDoc("banana split", "also a sweet dessert", "food", 3.0))
	require.NoError(t, err)
	require.Equal(t, docid.Global(0), g0)
	require.Equal(t, docid.Global(1), g1)

	require.Equal(t, 2, s.UncommittedSize())
	require.NoError(t, s.Commit())
	require.Equal(t, 0, s.UncommittedSize())

	cfg2 := cfg
	cfg2.Schema = testSchema(t)
	reopened, err := Open(cfg2)
	require.NoError(t, err)

	require.Equal(t, docid.Local(2), reopened.NumDocs())
	require.Equal(t, 1, reopened.Levels())

	doc, err := reopened.GetDocument(docid.Local(0), nil)
	require.NoError(t, err)
	require.Equal(t, "apple pie", doc["title"])

	reader, docs := reopened.LevelReader(0)
	require.Equal(t, 2, docs)
	hash := tokenizer.Hash("sweet", tokenizer.Unigram)
	block, err := reader.Lookup(hash)
	require.NoError(t, err)
	cursor := postinglist.NewCursor(block)
	var found []uint16
	for cursor.Valid() {
		found = append(found, cursor.Current())
		cursor.Next()
	}
	require.Equal(t, []uint16{0, 1}, found)

	col, ok := reopened.LevelFacetColumn(0, "category")
	require.True(t, ok)
	v, err := col.String(0)
	require.NoError(t, err)
	require.Equal(t, "food", v)

	priceCol, ok := reopened.LevelFacetColumn(0, "price")
	require.True(t, ok)
	min, max := priceCol.MinMax()
	require.Equal(t, 3.0, min)
	require.Equal(t, 4.5, max)
}

func TestDeleteDocumentMarksDeletedAcrossReopen(t *testing.T) {
	cfg := testConfig(t, false)
	s, err := New(cfg)
	require.NoError(t, err)

	_, err = s.IndexDocument(mustDoc("one", "first", "a", 1.0))
	require.NoError(t, err)
	_, err = s.IndexDocument(mustDoc("two", "second", "b", 2.0))
	require.NoError(t, err)
	require.NoError(t, s.Commit())

	require.True(t, s.DeleteDocument(docid.Local(0)))
	require.NoError(t, s.Commit()) // nothing buffered, but the pending delete makes this commit write delete.bin

	require.True(t, s.IsDeleted(docid.Local(0)))
	require.False(t, s.IsDeleted(docid.Local(1)))

	cfg2 := cfg
	cfg2.Schema = testSchema(t)
	reopened, err := Open(cfg2)
	require.NoError(t, err)
	require.True(t, reopened.IsDeleted(docid.Local(0)))
	require.False(t, reopened.IsDeleted(docid.Local(1)))
}

func TestCommitWithNoBufferedDocumentsIsNoop(t *testing.T) {
	cfg := testConfig(t, false)
	s, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Commit())
	require.Equal(t, 0, s.Levels())
}

func TestUncommittedVisibleBeforeCommit(t *testing.T) {
	cfg := testConfig(t, false)
	s, err := New(cfg)
	require.NoError(t, err)
	_, err = s.IndexDocument(mustDoc("title", "body", "cat", 1.0))
	require.NoError(t, err)

	level, docs := s.BufferDocs()
	require.Equal(t, uint32(0), level)
	require.Equal(t, 1, docs)

	col, ok := s.BufferFacetColumn("category")
	require.True(t, ok)
	v, err := col.String(0)
	require.NoError(t, err)
	require.Equal(t, "cat", v)
}

func TestReopenWithMmap(t *testing.T) {
	cfg := testConfig(t, true)
	s, err := New(cfg)
	require.NoError(t, err)
	_, err = s.IndexDocument(mustDoc("mmap test", "mmap body", "x", 1.0))
	require.NoError(t, err)
	require.NoError(t, s.Commit())
	require.NoError(t, s.Close())

	cfg2 := cfg
	cfg2.Schema = testSchema(t)
	reopened, err := Open(cfg2)
	require.NoError(t, err)
	defer reopened.Close()

	doc, err := reopened.GetDocument(docid.Local(0), []string{"title"})
	require.NoError(t, err)
	require.Equal(t, "mmap test", doc["title"])
	require.NotContains(t, doc, "body")
}
