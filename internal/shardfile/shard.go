// Package shardfile owns one shard's on-disk files — posting levels,
// facet columns, the document store, the delete bitmap, and their JSON
// metadata sidecars — and exposes the operations internal/commit,
// internal/router, internal/iterator, and internal/query need, tying
// every other internal package to a concrete directory layout
// (spec.md §6).
package shardfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/edsrzf/mmap-go"
	"github.com/faithsearch/litsearch/internal/commit"
	"github.com/faithsearch/litsearch/internal/deletebitmap"
	"github.com/faithsearch/litsearch/internal/docid"
	"github.com/faithsearch/litsearch/internal/docstore"
	"github.com/faithsearch/litsearch/internal/facetstore"
	"github.com/faithsearch/litsearch/internal/levelfile"
	"github.com/faithsearch/litsearch/internal/segment"
	"github.com/faithsearch/litsearch/internal/tokenizer"
	"github.com/faithsearch/litsearch/schema"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("litsearch/shardfile")

// committedLevel is one committed level's decoded term reader, document
// count, and facet and field-length columns. The bytes behind them are
// mmap'd or read into RAM depending on how the shard was opened; both
// satisfy the same []byte contract.
type committedLevel struct {
	reader    *levelfile.Reader
	docs      int
	facets    map[string]*facetstore.Column
	fieldLens map[string]*facetstore.Column
}

// FieldTokenizer resolves the tokenizer pipeline to use for one Text/Json
// field at index time; a Shard applies it per indexed field.
type FieldTokenizer func(field schema.Field) tokenizer.Pipeline

// Shard is one shard of the index: a segment buffer for uncommitted
// documents, zero or more sealed levels, a facet store, a document
// store, and a delete bitmap, all rooted at one directory.
type Shard struct {
	dir        string
	schema     *schema.Schema
	shardIndex int
	shardCount int
	useMmap    bool
	fieldTok   FieldTokenizer

	mu sync.RWMutex

	latch *commit.Latch

	nextLocal      uint64 // total documents ever indexed (committed + buffered)
	pendingDeletes int    // deletes since the last commit, not yet in delete.bin

	buffer        *segment.Buffer
	committed     []committedLevel
	facetBuilders map[string]*facetstore.ColumnBuilder
	facetDicts    map[string]*facetstore.Dictionary
	facetRanges   map[string]*facetRange

	// fieldLenBuilders/fieldTokenTotals track, per indexed field, the
	// per-document token count (a shadow numeric column, same machinery
	// as a facet column) and the running corpus-wide total, so the
	// scorer's BM25F length normalization has both a per-document field
	// length and a per-field average length without re-scanning postings.
	fieldLenBuilders map[string]*facetstore.ColumnBuilder
	fieldTokenTotals map[string]uint64

	docWriter   *docstore.Writer
	docReader   *docstore.Reader
	deletes     *deletebitmap.Bitmap
	mmapHandles []mmap.MMap
}

// facetRange tracks one numeric facet field's observed min/max across
// every committed level, since each level's ColumnBuilder only sees the
// documents sealed into it.
type facetRange struct {
	min, max float64
	has      bool
}

func (r *facetRange) observe(min, max float64, ok bool) {
	if !ok {
		return
	}
	if !r.has {
		r.min, r.max, r.has = min, max, true
		return
	}
	if min < r.min {
		r.min = min
	}
	if max > r.max {
		r.max = max
	}
}

// Config configures a new or reopened Shard.
type Config struct {
	Dir           string
	Schema        *schema.Schema
	ShardIndex    int
	ShardCount    int
	UseMmap       bool
	FieldTok      FieldTokenizer
	DocstoreCodec docstore.Codec
}

// New creates a brand-new, empty shard directory.
func New(cfg Config) (*Shard, error) {
	if err := os.MkdirAll(filepath.Join(cfg.Dir, "levels"), 0o755); err != nil {
		return nil, fmt.Errorf("shardfile: creating shard directory: %w", err)
	}
	s := newShard(cfg)
	s.docWriter = docstore.NewWriter(cfg.DocstoreCodec)
	for _, fi := range cfg.Schema.FacetFields() {
		f := cfg.Schema.Fields[fi]
		cb := facetstore.NewColumnBuilder(f)
		s.facetBuilders[f.Name] = cb
		if d := cb.Dict(); d != nil {
			s.facetDicts[f.Name] = d
		}
	}
	for _, fi := range cfg.Schema.IndexedFields() {
		f := cfg.Schema.Fields[fi]
		s.fieldLenBuilders[f.Name] = facetstore.NewColumnBuilder(lengthShadowField(f))
	}
	if err := s.saveSchema(); err != nil {
		return nil, err
	}
	if err := s.saveIndexMeta(IndexMeta{ShardIndex: cfg.ShardIndex, ShardCount: cfg.ShardCount}); err != nil {
		return nil, err
	}
	return s, nil
}

func newShard(cfg Config) *Shard {
	return &Shard{
		dir:           cfg.Dir,
		schema:        cfg.Schema,
		shardIndex:    cfg.ShardIndex,
		shardCount:    cfg.ShardCount,
		useMmap:       cfg.UseMmap,
		fieldTok:      cfg.FieldTok,
		latch:         &commit.Latch{},
		buffer:           segment.NewBuffer(0),
		facetBuilders:    make(map[string]*facetstore.ColumnBuilder),
		facetDicts:       make(map[string]*facetstore.Dictionary),
		facetRanges:      make(map[string]*facetRange),
		fieldLenBuilders: make(map[string]*facetstore.ColumnBuilder),
		fieldTokenTotals: make(map[string]uint64),
		deletes:          deletebitmap.New(),
	}
}

// lengthShadowField builds the synthetic U32 field used to persist one
// indexed field's per-document token count via the same column machinery
// as a facet, without exposing it as a user-visible facet field.
func lengthShadowField(f schema.Field) schema.Field {
	return schema.NewField(f.Name, schema.U32)
}

// Close releases any mmap'd regions held open for read access.
func (s *Shard) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.mmapHandles {
		if err := h.Unmap(); err != nil {
			return err
		}
	}
	s.mmapHandles = nil
	return nil
}

func (s *Shard) levelDir() string {
	return filepath.Join(s.dir, "levels")
}

func (s *Shard) schemaPath() string      { return filepath.Join(s.dir, "schema.json") }
func (s *Shard) indexMetaPath() string   { return filepath.Join(s.dir, "index.json") }
func (s *Shard) facetMetaPath() string   { return filepath.Join(s.dir, "facet.json") }
func (s *Shard) docstoreBinPath() string { return filepath.Join(s.dir, "docstore.bin") }
func (s *Shard) docstoreSidecarPath() string {
	return filepath.Join(s.dir, "docstore.json")
}
func (s *Shard) deleteBinPath() string { return filepath.Join(s.dir, "delete.bin") }

func (s *Shard) levelPostingsPath(level uint32) string {
	return filepath.Join(s.levelDir(), fmt.Sprintf("level-%d.postings.bin", level))
}

func (s *Shard) levelTermIndexPath(level uint32) string {
	return filepath.Join(s.levelDir(), fmt.Sprintf("level-%d.termidx.bin", level))
}

func (s *Shard) levelFacetPath(level uint32, field string) string {
	return filepath.Join(s.levelDir(), fmt.Sprintf("level-%d.facet.%s.bin", level, field))
}

func (s *Shard) levelFieldLenPath(level uint32, field string) string {
	return filepath.Join(s.levelDir(), fmt.Sprintf("level-%d.fieldlen.%s.bin", level, field))
}

// AvgFieldLength returns an indexed field's corpus-wide average token
// length across every document ever indexed in this shard, for the
// scorer's BM25F length normalization (spec.md §4.4).
func (s *Shard) AvgFieldLength(field string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.nextLocal == 0 {
		return 0
	}
	return float64(s.fieldTokenTotals[field]) / float64(s.nextLocal)
}

// FacetMinMax returns a numeric or Point facet field's corpus-wide
// observed range (spec.md §4.8, get_index_facets_minmax). The third
// return is false if the field isn't a numeric/Point facet or no
// document has set it yet.
func (s *Shard) FacetMinMax(field string) (min, max float64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, exists := s.facetRanges[field]
	if !exists || !r.has {
		return 0, 0, false
	}
	return r.min, r.max, true
}

// writeFileAtomic writes data to path by writing a temporary sibling
// file and renaming it into place, so a crash mid-write never leaves a
// torn file behind (spec.md §4.6, "rewritten atomically into a
// temporary segment and renamed").
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

func (s *Shard) saveSchema() error {
	buf, err := json.Marshal(s.schema.Fields)
	if err != nil {
		return err
	}
	return writeFileAtomic(s.schemaPath(), buf)
}

func (s *Shard) saveIndexMeta(m IndexMeta) error {
	buf, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.indexMetaPath(), buf)
}

func (s *Shard) loadIndexMeta() (IndexMeta, error) {
	var m IndexMeta
	buf, err := os.ReadFile(s.indexMetaPath())
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(buf, &m)
	return m, err
}
