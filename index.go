// Package litsearch is a sub-millisecond lexical full-text search engine
// core: schema-driven tokenization, a layered/sharded inverted index
// with hybrid posting-list compression, Document-at-a-Time Boolean/
// phrase/ranked query evaluation with WAND pruning, BM25F/BM25F-
// proximity scoring, faceted counting/filtering/sorting, a document
// store, a delete bitmap, and a single-writer/multi-reader commit
// protocol over mmap'd or in-RAM shard files.
package litsearch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/faithsearch/litsearch/internal/docid"
	"github.com/faithsearch/litsearch/internal/errs"
	"github.com/faithsearch/litsearch/internal/router"
	"github.com/faithsearch/litsearch/internal/shardfile"
	"github.com/faithsearch/litsearch/internal/tokenizer"
	"github.com/faithsearch/litsearch/schema"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/sync/errgroup"
)

var log = logging.Logger("litsearch")

// Meta is an index's user-supplied identity, carried in index.json
// alongside the per-shard metadata (spec.md §6: "schema copy, meta (id,
// name, similarity, tokenizer, stemmer, stopword/frequent-word set
// names, n-gram bitmask, access type, spelling-correction params)").
type Meta struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// formatVersion gates open_index against incompatible on-disk layouts
// (spec.md §6: "Index format version... mismatched versions fail with a
// clear error").
const formatVersion = 1

type rootMeta struct {
	FormatVersion int  `json:"format_version"`
	Meta          Meta `json:"meta"`
	ShardCount    int  `json:"shard_count"`
}

// Index is an open handle to one sharded lexical index rooted at a
// directory. Every exported method is safe for concurrent use; ingest
// and search both fan out across shards, each independently locked by
// its own internal/commit.Latch (spec.md §5, "fully parallel across
// shards").
type Index struct {
	dir    string
	meta   Meta
	schema *schema.Schema
	cfg    config
	syn    Synonyms

	mu     sync.RWMutex
	shards []*shardfile.Shard
	router *router.Router
	closed bool
}

func (idx *Index) rootMetaPath() string  { return filepath.Join(idx.dir, "index.json") }
func (idx *Index) schemaPath() string    { return filepath.Join(idx.dir, "schema.json") }
func (idx *Index) synonymsPath() string  { return filepath.Join(idx.dir, "synonyms.json") }
func (idx *Index) shardDir(i int) string { return filepath.Join(idx.dir, fmt.Sprintf("shard-%d", i)) }

// writeFileAtomic mirrors internal/shardfile's atomic-rewrite helper
// (spec.md §4.6): write a temp sibling, fsync, rename into place.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	f, err := os.OpenFile(tmp, os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// CreateIndex creates a brand-new index directory with one shardfile.Shard
// per shard (spec.md §6: "create_index(path, meta, schema, synonyms,
// shard-count-bits, mute, options)").
func CreateIndex(path string, meta Meta, sch *schema.Schema, synonyms Synonyms, opts ...Option) (*Index, error) {
	cfg := defaultConfig()
	cfg.apply(opts)
	if cfg.shardCount <= 0 {
		cfg.shardCount = 1
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("litsearch: creating index directory: %w", err)
	}

	idx := &Index{dir: path, meta: meta, schema: sch, cfg: cfg, syn: synonyms}

	shards := make([]*shardfile.Shard, cfg.shardCount)
	for i := 0; i < cfg.shardCount; i++ {
		s, err := shardfile.New(shardfile.Config{
			Dir:           idx.shardDir(i),
			Schema:        sch,
			ShardIndex:    i,
			ShardCount:    cfg.shardCount,
			UseMmap:       cfg.useMmap,
			FieldTok:      idx.fieldTokenizer,
			DocstoreCodec: cfg.docstoreCodec,
		})
		if err != nil {
			return nil, fmt.Errorf("litsearch: creating shard %d: %w", i, err)
		}
		shards[i] = s
	}
	idx.shards = shards
	idx.router = router.New(shardsToRouter(shards))

	if err := idx.saveSchema(); err != nil {
		return nil, err
	}
	if err := saveSynonyms(idx.synonymsPath(), synonyms); err != nil {
		return nil, fmt.Errorf("litsearch: writing synonyms: %w", err)
	}
	if err := idx.saveRootMeta(); err != nil {
		return nil, err
	}

	if !cfg.mute {
		log.Infof("created index %q at %s with %d shards", meta.ID, path, cfg.shardCount)
	}
	return idx, nil
}

// OpenIndex reopens an index directory written by a prior CreateIndex
// (spec.md §6: "open_index(path, mute)").
func OpenIndex(path string, opts ...Option) (*Index, error) {
	cfg := defaultConfig()
	cfg.apply(opts)

	idx := &Index{dir: path, cfg: cfg}

	rm, err := idx.loadRootMeta()
	if err != nil {
		return nil, fmt.Errorf("litsearch: reading index metadata: %w", err)
	}
	if rm.FormatVersion != formatVersion {
		return nil, fmt.Errorf("%w: on-disk version %d, this build understands %d",
			errs.ErrIndexFormatIncompatible, rm.FormatVersion, formatVersion)
	}
	idx.meta = rm.Meta
	cfg.shardCount = rm.ShardCount

	sch, err := idx.loadSchema()
	if err != nil {
		return nil, fmt.Errorf("litsearch: reading schema: %w", err)
	}
	idx.schema = sch

	syn, err := loadSynonyms(idx.synonymsPath())
	if err != nil {
		return nil, fmt.Errorf("litsearch: reading synonyms: %w", err)
	}
	idx.syn = syn

	idx.cfg = cfg
	shards := make([]*shardfile.Shard, cfg.shardCount)
	for i := 0; i < cfg.shardCount; i++ {
		s, err := shardfile.Open(shardfile.Config{
			Dir:           idx.shardDir(i),
			Schema:        sch,
			ShardIndex:    i,
			ShardCount:    cfg.shardCount,
			UseMmap:       cfg.useMmap,
			FieldTok:      idx.fieldTokenizer,
			DocstoreCodec: cfg.docstoreCodec,
		})
		if err != nil {
			return nil, fmt.Errorf("litsearch: opening shard %d: %w", i, err)
		}
		shards[i] = s
	}
	idx.shards = shards
	idx.router = router.New(shardsToRouter(shards))

	if !cfg.mute {
		log.Infof("opened index %q at %s with %d shards", idx.meta.ID, path, cfg.shardCount)
	}
	return idx, nil
}

// fieldTokenizer resolves one field's tokenizer pipeline from the
// index's configured variant/stemmer/stopwords/n-gram settings
// (spec.md §4.1).
func (idx *Index) fieldTokenizer(f schema.Field) tokenizer.Pipeline {
	p := tokenizer.Pipeline{
		Base:      tokenizer.ForVariant(idx.cfg.tokenizerVariant),
		Stopwords: idx.cfg.stopwords,
		Stemmer:   idx.cfg.stemmer,
	}
	if idx.cfg.ngramMask != 0 && idx.cfg.frequentWords != nil {
		p.Ngrams = &tokenizer.NgramExtractor{Dict: idx.cfg.frequentWords, Mask: idx.cfg.ngramMask}
	}
	return p
}

func shardsToRouter(shards []*shardfile.Shard) []router.Shard {
	out := make([]router.Shard, len(shards))
	for i, s := range shards {
		out[i] = s
	}
	return out
}

func (idx *Index) saveSchema() error {
	buf, err := json.Marshal(idx.schema.Fields)
	if err != nil {
		return err
	}
	return writeFileAtomic(idx.schemaPath(), buf)
}

func (idx *Index) loadSchema() (*schema.Schema, error) {
	buf, err := os.ReadFile(idx.schemaPath())
	if err != nil {
		return nil, err
	}
	var fields []schema.Field
	if err := json.Unmarshal(buf, &fields); err != nil {
		return nil, err
	}
	return schema.New(fields...)
}

func (idx *Index) saveRootMeta() error {
	rm := rootMeta{FormatVersion: formatVersion, Meta: idx.meta, ShardCount: idx.cfg.shardCount}
	buf, err := json.MarshalIndent(rm, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(idx.rootMetaPath(), buf)
}

func (idx *Index) loadRootMeta() (rootMeta, error) {
	var rm rootMeta
	buf, err := os.ReadFile(idx.rootMetaPath())
	if err != nil {
		return rm, err
	}
	err = json.Unmarshal(buf, &rm)
	return rm, err
}

// IndexDocument tokenizes, stores and routes one document to the
// least-loaded shard, returning its global document ID (spec.md §6,
// "index_document(doc) -> assigns doc IDs").
func (idx *Index) IndexDocument(doc *schema.Document) (docid.Global, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return 0, errs.ErrIndexClosed
	}
	shardIx := idx.router.Route()
	return idx.shards[shardIx].IndexDocument(doc)
}

// IndexDocuments indexes a batch, returning the global ID assigned to
// each document in order. The first error aborts the remaining batch.
func (idx *Index) IndexDocuments(docs []*schema.Document) ([]docid.Global, error) {
	ids := make([]docid.Global, len(docs))
	for i, d := range docs {
		g, err := idx.IndexDocument(d)
		if err != nil {
			return ids[:i], err
		}
		ids[i] = g
	}
	return ids, nil
}

// UpdateDocument replaces a document's content: the old global ID is
// tombstoned and the new content is indexed afresh under a new global
// ID (an index is append-only within a shard's level structure, so
// in-place mutation isn't available; see DESIGN.md for this Open
// Question's resolution).
func (idx *Index) UpdateDocument(id docid.Global, doc *schema.Document) (docid.Global, error) {
	if _, err := idx.DeleteDocument(id); err != nil {
		return 0, err
	}
	return idx.IndexDocument(doc)
}

// DeleteDocument tombstones a document by global ID, returning whether
// it was previously live.
func (idx *Index) DeleteDocument(id docid.Global) (bool, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return false, errs.ErrIndexClosed
	}
	shardIx, local := docid.Split(id, len(idx.shards))
	if shardIx < 0 || shardIx >= len(idx.shards) {
		return false, errs.ErrDocIDInvalid
	}
	return idx.shards[shardIx].DeleteDocument(local), nil
}

// DeleteDocuments tombstones a batch of global IDs.
func (idx *Index) DeleteDocuments(ids []docid.Global) (int, error) {
	n := 0
	for _, id := range ids {
		deleted, err := idx.DeleteDocument(id)
		if err != nil {
			return n, err
		}
		if deleted {
			n++
		}
	}
	return n, nil
}

// DeleteDocumentsByQuery evaluates req with its ResultType set to
// ResultAll (every match, no offset/length cut) across all shards and
// tombstones every matching document (spec.md §6,
// "delete_documents_by_query(req)").
func (idx *Index) DeleteDocumentsByQuery(req SearchRequest) (int, error) {
	req.ResultType = ResultAll
	res, err := idx.Search(req)
	if err != nil {
		return 0, err
	}
	var ids []docid.Global
	for _, r := range res.Results {
		ids = append(ids, docid.Global(r.DocID))
	}
	return idx.DeleteDocuments(ids)
}

// Commit seals every shard's uncommitted buffer into durable storage, in
// parallel (spec.md §4.6, §5 "fully parallel across shards").
func (idx *Index) Commit() error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return errs.ErrIndexClosed
	}
	var g errgroup.Group
	for _, s := range idx.shards {
		s := s
		g.Go(s.Commit)
	}
	return g.Wait()
}

// Close releases every shard's mmap'd regions; the Index is unusable
// afterward.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return nil
	}
	for _, s := range idx.shards {
		if err := s.Close(); err != nil {
			return err
		}
	}
	idx.closed = true
	return nil
}

// Clear deletes every document in the index by recreating each shard's
// on-disk directory from scratch, keeping the same schema/synonyms/meta.
func (idx *Index) Clear() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return errs.ErrIndexClosed
	}
	for i, s := range idx.shards {
		if err := s.Close(); err != nil {
			return err
		}
		if err := os.RemoveAll(idx.shardDir(i)); err != nil {
			return fmt.Errorf("litsearch: clearing shard %d: %w", i, err)
		}
		fresh, err := shardfile.New(shardfile.Config{
			Dir:           idx.shardDir(i),
			Schema:        idx.schema,
			ShardIndex:    i,
			ShardCount:    len(idx.shards),
			UseMmap:       idx.cfg.useMmap,
			FieldTok:      idx.fieldTokenizer,
			DocstoreCodec: idx.cfg.docstoreCodec,
		})
		if err != nil {
			return fmt.Errorf("litsearch: recreating shard %d: %w", i, err)
		}
		idx.shards[i] = fresh
	}
	idx.router = router.New(shardsToRouter(idx.shards))
	return nil
}

// DeleteIndex closes and permanently removes an index's directory.
func (idx *Index) DeleteIndex() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.closed {
		for _, s := range idx.shards {
			_ = s.Close()
		}
		idx.closed = true
	}
	return os.RemoveAll(idx.dir)
}
