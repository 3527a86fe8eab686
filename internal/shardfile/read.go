package shardfile

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/faithsearch/litsearch/internal/deletebitmap"
	"github.com/faithsearch/litsearch/internal/docid"
	"github.com/faithsearch/litsearch/internal/docstore"
	"github.com/faithsearch/litsearch/internal/facetstore"
	"github.com/faithsearch/litsearch/internal/levelfile"
	"github.com/faithsearch/litsearch/internal/postinglist"
	"github.com/faithsearch/litsearch/internal/segment"
	"github.com/faithsearch/litsearch/schema"
)

// Open reopens a shard directory written by a prior New+Commit sequence,
// reconstructing every committed level's reader, facet columns, document
// store and delete bitmap from disk. cfg.Schema must match the schema the
// shard was created with (schema.json is written for external inspection
// and recovery tooling, not consulted here).
func Open(cfg Config) (*Shard, error) {
	s := newShard(cfg)

	meta, err := s.loadIndexMeta()
	if err != nil {
		return nil, fmt.Errorf("shardfile: reading index metadata: %w", err)
	}
	s.shardIndex = meta.ShardIndex
	s.shardCount = meta.ShardCount

	facetMeta, err := s.loadFacetMeta()
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("shardfile: reading facet metadata: %w", err)
	}
	facetByField := make(map[string]FacetFieldMeta, len(facetMeta.Fields))
	for _, fm := range facetMeta.Fields {
		facetByField[fm.Field] = fm
	}
	for _, fi := range cfg.Schema.FacetFields() {
		f := cfg.Schema.Fields[fi]
		fm := facetByField[f.Name]
		var dict *facetstore.Dictionary
		if f.Type.IsString() {
			dict = facetstore.NewDictionaryFromValues(fm.Dict, f.Type == schema.String32)
		}
		cb := facetstore.NewColumnBuilderWithDict(f, dict)
		s.facetBuilders[f.Name] = cb
		if dict != nil {
			s.facetDicts[f.Name] = dict
		}
		if fm.HasMinMax {
			s.facetRanges[f.Name] = &facetRange{min: fm.Min, max: fm.Max, has: true}
		}
	}
	for _, fi := range cfg.Schema.IndexedFields() {
		f := cfg.Schema.Fields[fi]
		s.fieldLenBuilders[f.Name] = facetstore.NewColumnBuilder(lengthShadowField(f))
	}
	if meta.FieldTokenTotals != nil {
		s.fieldTokenTotals = meta.FieldTokenTotals
	}

	for level := 0; level < len(meta.Levels); level++ {
		lvlMeta := meta.Levels[level]
		levelBlob, err := s.readLevelFile(s.levelPostingsPath(uint32(level)))
		if err != nil {
			return nil, fmt.Errorf("shardfile: reading level %d postings: %w", level, err)
		}
		termIndexBlob, err := s.readLevelFile(s.levelTermIndexPath(uint32(level)))
		if err != nil {
			return nil, fmt.Errorf("shardfile: reading level %d term index: %w", level, err)
		}
		reader, err := levelfile.Open(levelBlob, termIndexBlob)
		if err != nil {
			return nil, fmt.Errorf("shardfile: opening level %d: %w", level, err)
		}

		facets := make(map[string]*facetstore.Column, len(cfg.Schema.FacetFields()))
		for _, fi := range cfg.Schema.FacetFields() {
			f := cfg.Schema.Fields[fi]
			data, err := s.readLevelFile(s.levelFacetPath(uint32(level), f.Name))
			if err != nil {
				return nil, fmt.Errorf("shardfile: reading level %d facet %q: %w", level, f.Name, err)
			}
			var dict []string
			if fm, ok := facetByField[f.Name]; ok {
				dict = fm.Dict
			}
			min, max := 0.0, 0.0
			if fm, ok := facetByField[f.Name]; ok {
				min, max = fm.Min, fm.Max
			}
			facets[f.Name] = facetstore.NewColumn(f, data, dict, min, max)
		}

		fieldLens := make(map[string]*facetstore.Column, len(cfg.Schema.IndexedFields()))
		for _, fi := range cfg.Schema.IndexedFields() {
			f := cfg.Schema.Fields[fi]
			data, err := s.readLevelFile(s.levelFieldLenPath(uint32(level), f.Name))
			if err != nil {
				return nil, fmt.Errorf("shardfile: reading level %d field length %q: %w", level, f.Name, err)
			}
			fieldLens[f.Name] = facetstore.NewColumn(lengthShadowField(f), data, nil, 0, 0)
		}
		s.committed = append(s.committed, committedLevel{reader: reader, docs: lvlMeta.DocCount, facets: facets, fieldLens: fieldLens})

		// A trailing level that never reached a full level's worth of
		// documents was rewritten in place rather than sealed (spec.md
		// §4.6): resume it at its own level index instead of starting a
		// fresh buffer past it, or the next commit would create a
		// second, separately-indexed partial level for the same index.
		if level == len(meta.Levels)-1 && lvlMeta.DocCount < docid.LevelSize {
			terms, err := reader.AllTerms()
			if err != nil {
				return nil, fmt.Errorf("shardfile: reading level %d terms for resume: %w", level, err)
			}
			s.buffer = segment.Restore(uint32(level), lvlMeta.DocCount, terms, maxIndexedFieldID(cfg.Schema))

			for _, fi := range cfg.Schema.FacetFields() {
				f := cfg.Schema.Fields[fi]
				col := facets[f.Name]
				var dict *facetstore.Dictionary
				if f.Type.IsString() {
					dict = s.facetDicts[f.Name]
				}
				min, max, hasMinMax := 0.0, 0.0, false
				if fm, ok := facetByField[f.Name]; ok && fm.HasMinMax {
					min, max, hasMinMax = fm.Min, fm.Max, true
				}
				s.facetBuilders[f.Name] = facetstore.NewColumnBuilderFromBytes(f, col.Bytes(), dict, min, max, hasMinMax)
			}
			for _, fi := range cfg.Schema.IndexedFields() {
				f := cfg.Schema.Fields[fi]
				col := fieldLens[f.Name]
				s.fieldLenBuilders[f.Name] = facetstore.NewColumnBuilderFromBytes(lengthShadowField(f), col.Bytes(), nil, 0, 0, false)
			}
		}
	}
	if s.buffer == nil {
		s.buffer = segment.NewBuffer(uint32(len(meta.Levels)))
	}
	s.nextLocal = uint64(meta.TotalDocs)

	docBlob, err := s.readLevelFile(s.docstoreBinPath())
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("shardfile: reading docstore blob: %w", err)
	}
	sidecar, err := os.ReadFile(s.docstoreSidecarPath())
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("shardfile: reading docstore sidecar: %w", err)
	}
	records, err := docstore.DecodeSidecar(sidecar)
	if err != nil {
		return nil, fmt.Errorf("shardfile: decoding docstore sidecar: %w", err)
	}
	s.docWriter = docstore.NewWriter(cfg.DocstoreCodec)
	s.docReader = docstore.NewReader(docBlob, records)

	deleteBlob, err := os.ReadFile(s.deleteBinPath())
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("shardfile: reading delete bitmap: %w", err)
	}
	bm, err := deletebitmap.Load(deleteBlob)
	if err != nil {
		return nil, fmt.Errorf("shardfile: loading delete bitmap: %w", err)
	}
	s.deletes = bm

	return s, nil
}

// maxIndexedFieldID returns the highest field index among a schema's
// indexed fields, the same uint8 field-ID space tokensFor/AddDocument
// use, bounding the per-field scan segment.Restore needs to rebuild a
// multi-field term's positions from its decoded posting block.
func maxIndexedFieldID(sch *schema.Schema) uint8 {
	var max uint8
	for _, fi := range sch.IndexedFields() {
		if uint8(fi) > max {
			max = uint8(fi)
		}
	}
	return max
}

func (s *Shard) loadFacetMeta() (FacetMeta, error) {
	var fm FacetMeta
	buf, err := os.ReadFile(s.facetMetaPath())
	if err != nil {
		return fm, err
	}
	err = json.Unmarshal(buf, &fm)
	return fm, err
}

// readLevelFile returns a file's bytes as mmap'd memory when the shard
// was opened with UseMmap, or a plain in-RAM read otherwise (spec.md
// §4.7's "mmap or full in-RAM read" access modes). A missing file
// returns an empty slice so a shard with zero committed levels (or no
// facet fields) opens cleanly.
func (s *Shard) readLevelFile(path string) ([]byte, error) {
	if !s.useMmap {
		buf, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			return nil, nil
		}
		return buf, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if fi.Size() == 0 {
		return nil, nil
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, err
	}
	s.mmapHandles = append(s.mmapHandles, m)
	return m, nil
}

// IsDeleted reports whether a shard-local document ID is tombstoned.
func (s *Shard) IsDeleted(local docid.Local) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deletes.IsDeleted(uint32(local))
}

// NumDocs returns the total number of documents ever indexed in this
// shard, committed or buffered.
func (s *Shard) NumDocs() docid.Local {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return docid.Local(s.nextLocal)
}

// GetDocument returns a document's stored fields as a generic map,
// restricted to fields when non-empty. Documents indexed since the last
// Commit live only in docWriter's in-memory append log, not yet in
// docReader's on-disk snapshot, so a miss there falls back to reading
// the same (offset, length) record straight out of docWriter's current
// blob, giving include_uncommitted callers immediate visibility.
func (s *Shard) GetDocument(local docid.Local, fields []string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, err := s.docReader.Get(int(local))
	if err != nil {
		raw, err = docstore.NewReader(s.docWriter.Blob(), s.docWriter.Records()).Get(int(local))
	}
	if err != nil {
		return nil, fmt.Errorf("shardfile: fetching document %d: %w", local, err)
	}
	var all map[string]any
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("shardfile: decoding document %d: %w", local, err)
	}
	if len(fields) == 0 {
		return all, nil
	}
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := all[f]; ok {
			out[f] = v
		}
	}
	return out, nil
}

// Levels returns the number of committed levels, including a trailing
// level that later commits are still extending.
func (s *Shard) Levels() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.committed)
}

// LevelReader returns a sealed level's term-posting reader and document
// count.
func (s *Shard) LevelReader(i int) (*levelfile.Reader, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cl := s.committed[i]
	return cl.reader, cl.docs
}

// LevelFacetColumn returns a sealed level's facet column for field, if
// the field is faceted.
func (s *Shard) LevelFacetColumn(i int, field string) (*facetstore.Column, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.committed[i].facets[field]
	return c, ok
}

// LevelFieldLenColumn returns a sealed level's per-document token-length
// column for an indexed field, used to normalize BM25F term frequency.
func (s *Shard) LevelFieldLenColumn(i int, field string) (*facetstore.Column, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.committed[i].fieldLens[field]
	return c, ok
}

// BufferDocs returns how many documents are in the uncommitted trailing
// buffer, and its level index.
func (s *Shard) BufferDocs() (level uint32, docs int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer.Level(), s.buffer.NumDocs()
}

// BufferFacetColumn builds a read-only snapshot of a faceted field's
// uncommitted column, for queries that opt into include_uncommitted.
func (s *Shard) BufferFacetColumn(field string) (*facetstore.Column, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cb, ok := s.facetBuilders[field]
	if !ok {
		return nil, false
	}
	f, _, _ := s.schema.Field(field)
	min, max, _ := cb.MinMax()
	var dict []string
	if d := cb.Dict(); d != nil {
		dict = d.Values()
	}
	return facetstore.NewColumn(f, cb.Bytes(), dict, min, max), true
}

// UncommittedBlock builds a fresh posting block for a term hash from the
// shard's still-buffered documents, for include_uncommitted search
// support. The second return is false if the term doesn't occur in the
// buffer at all.
func (s *Shard) UncommittedBlock(hash uint64, idf float64) (*postinglist.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer.Lookup(hash, idf)
}

// BufferFieldLenColumn builds a read-only snapshot of an indexed field's
// uncommitted per-document token-length column.
func (s *Shard) BufferFieldLenColumn(field string) (*facetstore.Column, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cb, ok := s.fieldLenBuilders[field]
	if !ok {
		return nil, false
	}
	f, _, _ := s.schema.Field(field)
	return facetstore.NewColumn(lengthShadowField(f), cb.Bytes(), nil, 0, 0), true
}
