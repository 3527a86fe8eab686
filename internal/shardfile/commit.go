package shardfile

import (
	"encoding/json"
	"fmt"

	"github.com/faithsearch/litsearch/internal/commit"
	"github.com/faithsearch/litsearch/internal/docstore"
	"github.com/faithsearch/litsearch/internal/facetstore"
	"github.com/faithsearch/litsearch/internal/levelfile"
	"github.com/faithsearch/litsearch/internal/scorer"
)

// Commit persists the shard's uncommitted buffer: a level that has
// reached a full level's worth of documents is finalized and the buffer
// moves on to the next level, while a still-growing trailing level is
// rewritten in place so it keeps accepting documents after this commit
// (spec.md §4.6, "the new commit may extend it rather than seal").
// Either way, facet/docstore/delete state is persisted and every touched
// file is fsynced. A commit with nothing buffered and nothing deleted is
// a no-op.
func (s *Shard) Commit() error {
	return commit.Sequence(s.latch, s.uncommittedSizeUnlocked, s.commitStep)
}

func (s *Shard) uncommittedSizeUnlocked() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer.NumDocs() + s.pendingDeletes
}

func (s *Shard) commitStep() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	level := s.buffer.Level()
	docsInLevel := s.buffer.NumDocs()

	if docsInLevel > 0 {
		if err := s.sealOrExtendLevel(level, docsInLevel); err != nil {
			return err
		}
	}

	if err := writeFileAtomic(s.docstoreBinPath(), s.docWriter.Blob()); err != nil {
		return fmt.Errorf("shardfile: writing docstore blob: %w", err)
	}
	if err := writeFileAtomic(s.docstoreSidecarPath(), docstore.EncodeSidecar(s.docWriter.Records())); err != nil {
		return fmt.Errorf("shardfile: writing docstore sidecar: %w", err)
	}
	s.docReader = docstore.NewReader(s.docWriter.Blob(), s.docWriter.Records())

	deleteBlob, err := s.deletes.MarshalBinary()
	if err != nil {
		return fmt.Errorf("shardfile: marshaling delete bitmap: %w", err)
	}
	if err := writeFileAtomic(s.deleteBinPath(), deleteBlob); err != nil {
		return fmt.Errorf("shardfile: writing delete bitmap: %w", err)
	}

	if err := s.saveFacetMeta(); err != nil {
		return err
	}

	// meta.Levels is rebuilt fully from the shard's live committed-level
	// state on every commit rather than incrementally appended: a
	// trailing level can be rewritten across several commits before it
	// finalizes, so an append-only sidecar would either duplicate or
	// drop entries for the same level index.
	meta := IndexMeta{ShardIndex: s.shardIndex, ShardCount: s.shardCount}
	meta.Levels = make([]LevelMeta, len(s.committed))
	singleField := len(s.schema.IndexedFields()) <= 1
	for i, cl := range s.committed {
		meta.Levels[i] = LevelMeta{DocCount: cl.docs, SingleField: singleField}
	}
	meta.TotalDocs = int(s.nextLocal)
	meta.DeletedCount = int(s.deletes.Count())
	meta.FieldTokenTotals = s.fieldTokenTotals
	if err := s.saveIndexMeta(meta); err != nil {
		return fmt.Errorf("shardfile: writing index metadata: %w", err)
	}

	s.pendingDeletes = 0
	log.Infof("shard %d: commit finished (level %d, %d documents in level, %d deleted total)",
		s.shardIndex, level, docsInLevel, meta.DeletedCount)
	return nil
}

// sealOrExtendLevel encodes the current buffer's accumulated postings
// into level's on-disk region, overwriting whatever is there. When the
// buffer has reached a full level's worth of documents, the level is
// finalized: every facet/field-length column builder rotates to a fresh
// one (carrying string dictionaries forward so codes stay stable) and
// the buffer advances to the next level. Otherwise the level is left
// open — the same builders and buffer keep accumulating so a later
// commit can extend this same level again (spec.md §4.6).
func (s *Shard) sealOrExtendLevel(level uint32, docsInLevel int) error {
	full := s.buffer.Full()

	// BlockMax needs an IDF upper bound per term before the scorer knows
	// that term's real document frequency index-wide; a docFreq of 1 is
	// the highest IDF any term in this level could have, so it never
	// under-estimates a block's true maximum score (spec.md §4.5's WAND
	// pruning only needs an upper bound, not an exact value).
	totalDocs := int(s.nextLocal)
	idf := func(hash uint64) float64 { return scorer.IDF(totalDocs, 1) }

	sealed := s.buffer.Encode(idf)
	levelBlob, termIndexBlob, err := levelfile.Encode(sealed)
	if err != nil {
		return fmt.Errorf("shardfile: encoding level %d: %w", level, err)
	}
	if err := writeFileAtomic(s.levelPostingsPath(level), levelBlob); err != nil {
		return fmt.Errorf("shardfile: writing level %d postings: %w", level, err)
	}
	if err := writeFileAtomic(s.levelTermIndexPath(level), termIndexBlob); err != nil {
		return fmt.Errorf("shardfile: writing level %d term index: %w", level, err)
	}

	reader, err := levelfile.Open(levelBlob, termIndexBlob)
	if err != nil {
		return fmt.Errorf("shardfile: reopening level %d: %w", level, err)
	}

	facets := make(map[string]*facetstore.Column, len(s.facetBuilders))
	nextBuilders := make(map[string]*facetstore.ColumnBuilder, len(s.facetBuilders))
	for _, fi := range s.schema.FacetFields() {
		f := s.schema.Fields[fi]
		cb := s.facetBuilders[f.Name]

		data := cb.Bytes()
		if err := writeFileAtomic(s.levelFacetPath(level, f.Name), data); err != nil {
			return fmt.Errorf("shardfile: writing level %d facet %q: %w", level, f.Name, err)
		}

		var dictValues []string
		if d := cb.Dict(); d != nil {
			dictValues = d.Values()
			s.facetDicts[f.Name] = d
		}
		min, max, ok := cb.MinMax()
		if _, exists := s.facetRanges[f.Name]; !exists {
			s.facetRanges[f.Name] = &facetRange{}
		}
		s.facetRanges[f.Name].observe(min, max, ok)
		facets[f.Name] = facetstore.NewColumn(f, data, dictValues, min, max)

		if full {
			nextBuilders[f.Name] = facetstore.NewColumnBuilderWithDict(f, s.facetDicts[f.Name])
		}
	}
	if full {
		s.facetBuilders = nextBuilders
	}

	fieldLens := make(map[string]*facetstore.Column, len(s.fieldLenBuilders))
	nextLenBuilders := make(map[string]*facetstore.ColumnBuilder, len(s.fieldLenBuilders))
	for _, fi := range s.schema.IndexedFields() {
		f := s.schema.Fields[fi]
		cb := s.fieldLenBuilders[f.Name]

		data := cb.Bytes()
		if err := writeFileAtomic(s.levelFieldLenPath(level, f.Name), data); err != nil {
			return fmt.Errorf("shardfile: writing level %d field length %q: %w", level, f.Name, err)
		}
		min, max, _ := cb.MinMax()
		fieldLens[f.Name] = facetstore.NewColumn(lengthShadowField(f), data, nil, min, max)
		if full {
			nextLenBuilders[f.Name] = facetstore.NewColumnBuilder(lengthShadowField(f))
		}
	}
	if full {
		s.fieldLenBuilders = nextLenBuilders
		s.buffer.Advance()
	}

	entry := committedLevel{reader: reader, docs: docsInLevel, facets: facets, fieldLens: fieldLens}
	if int(level) < len(s.committed) {
		s.committed[level] = entry
	} else {
		s.committed = append(s.committed, entry)
	}
	return nil
}

func (s *Shard) saveFacetMeta() error {
	var fm FacetMeta
	for _, fi := range s.schema.FacetFields() {
		f := s.schema.Fields[fi]
		entry := FacetFieldMeta{Field: f.Name}
		if d, ok := s.facetDicts[f.Name]; ok {
			entry.Dict = d.Values()
		}
		if r, ok := s.facetRanges[f.Name]; ok && r.has {
			entry.Min, entry.Max, entry.HasMinMax = r.min, r.max, true
		}
		fm.Fields = append(fm.Fields, entry)
	}
	buf, err := json.MarshalIndent(fm, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.facetMetaPath(), buf)
}
