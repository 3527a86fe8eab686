package litsearch

import (
	"fmt"
	"io"

	"github.com/faithsearch/litsearch/internal/docid"
	"github.com/faithsearch/litsearch/internal/errs"
	"github.com/faithsearch/litsearch/internal/highlight"
	"github.com/faithsearch/litsearch/internal/iterator"
	"github.com/faithsearch/litsearch/internal/query"
	"github.com/faithsearch/litsearch/schema"
)

// Highlighter asks GetDocument to replace one or more stored text
// fields with a KWIC snippet built around the given terms, instead of
// returning the field's full stored value (spec.md §4.8's expanded
// highlighter, grounded on internal/highlight).
type Highlighter struct {
	Fields  []string // text fields to highlight; empty means every stored text field
	Terms   []string
	Options highlight.Options
}

// DistanceField asks GetDocument to additionally compute a Point
// field's distance from a base coordinate (spec.md §6, "distance_fields").
type DistanceField struct {
	Field            string
	BaseLon, BaseLat float64
}

// DocumentResult is get_document's return value: the document's stored
// fields (highlighted where requested) plus any requested distances.
type DocumentResult struct {
	Fields    map[string]any
	Distances map[string]float64
}

// GetDocument fetches one document's stored fields by global ID
// (spec.md §6, "get_document(id, include_uncommitted, highlighter?,
// return_fields_filter, distance_fields)").
func (idx *Index) GetDocument(id docid.Global, includeUncommitted bool, highlighter *Highlighter, fields []string, distanceFields []DistanceField) (DocumentResult, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return DocumentResult{}, errs.ErrIndexClosed
	}

	shardIx, local := docid.Split(id, len(idx.shards))
	if shardIx < 0 || shardIx >= len(idx.shards) {
		return DocumentResult{}, errs.ErrDocIDInvalid
	}
	s := idx.shards[shardIx]

	if s.IsDeleted(local) {
		return DocumentResult{}, errs.ErrDocIDInvalid
	}
	committedDocs := docid.Local(0)
	for i := 0; i < s.Levels(); i++ {
		_, docs := s.LevelReader(i)
		committedDocs += docid.Local(docs)
	}
	isBuffered := local >= committedDocs
	if isBuffered && !includeUncommitted {
		return DocumentResult{}, errs.ErrDocIDInvalid
	}

	all, err := s.GetDocument(local, nil)
	if err != nil {
		return DocumentResult{}, fmt.Errorf("litsearch: fetching document %d: %w", id, err)
	}

	out := make(map[string]any, len(all))
	if len(fields) == 0 {
		for k, v := range all {
			out[k] = v
		}
	} else {
		for _, f := range fields {
			if v, ok := all[f]; ok {
				out[f] = v
			}
		}
	}

	if highlighter != nil {
		idx.applyHighlighter(out, all, highlighter)
	}

	res := DocumentResult{Fields: out}
	if len(distanceFields) > 0 {
		res.Distances = make(map[string]float64, len(distanceFields))
		level, offset := docid.Level(local)
		cols := idx.shardColumnLookup(s, int(level), isBuffered)
		for _, df := range distanceFields {
			col, ok := cols(df.Field)
			if !ok {
				continue
			}
			lon, lat, err := col.Point(offset)
			if err != nil {
				continue
			}
			res.Distances[df.Field] = equirectangularDistance(lon, lat, df.BaseLon, df.BaseLat)
		}
	}
	return res, nil
}

// applyHighlighter replaces the requested (or every stored text) field's
// value in out with a KWIC snippet built from all, scanning each field's
// text fresh with the index's configured tokenizer so positions line up
// with highlighter.Terms (spec.md §4.8's highlighter expansion).
func (idx *Index) applyHighlighter(out, all map[string]any, h *Highlighter) {
	if len(h.Terms) == 0 {
		return
	}
	terms := make(map[uint64]struct{}, len(h.Terms))
	for _, t := range h.Terms {
		terms[idx.unigramHash(t)] = struct{}{}
	}
	opts := h.Options
	if opts.Window == 0 {
		opts = highlight.DefaultOptions
	}

	targets := h.Fields
	if len(targets) == 0 {
		for _, f := range idx.schema.Fields {
			if f.Type == schema.Text && f.Flags.Stored {
				targets = append(targets, f.Name)
			}
		}
	}

	for _, name := range targets {
		field, _, ok := idx.schema.Field(name)
		if !ok || field.Type != schema.Text {
			continue
		}
		raw, ok := all[name]
		if !ok {
			continue
		}
		text, ok := raw.(string)
		if !ok {
			continue
		}
		tok := idx.fieldTokenizer(field)
		matched := make(map[int]struct{})
		for _, t := range tok.Run(text) {
			if _, ok := terms[t.Hash]; ok {
				matched[t.Position] = struct{}{}
			}
		}
		if len(matched) == 0 {
			continue
		}
		if _, exists := out[name]; exists {
			out[name] = highlight.Snippet(text, tok.Base, matched, opts)
		}
	}
}

// GetIterator walks the global document ID space in order, resolving
// the sharded mapping lazily (spec.md §4.8, "get_iterator(...)").
func (idx *Index) GetIterator(anchor *docid.Global, skip, take int64, direction iterator.Direction, includeDoc, includeDeleted bool, fields []string) (*iterator.DocIterator, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return nil, errs.ErrIndexClosed
	}
	shards := make([]iterator.Shard, len(idx.shards))
	for i, s := range idx.shards {
		shards[i] = s
	}
	return iterator.New(shards, anchor, skip, take, direction, includeDoc, includeDeleted, fields), nil
}

// GetIndexStringFacets returns the corpus-wide value counts of one or
// more string facet fields, with no query restricting which documents
// count (spec.md §8 scenario 3: "get_index_string_facets([]) returns
// each town with count 1"; an empty fields list means every declared
// facet field). Implemented as an empty, unrestricted search whose
// only purpose is facet accumulation, reusing the same per-shard
// accumulate-and-merge path a filtered search uses.
func (idx *Index) GetIndexStringFacets(fields []string) (map[string]*query.FacetCounts, error) {
	reqs, err := idx.buildStringFacetRequests(fields)
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return map[string]*query.FacetCounts{}, nil
	}
	res, err := idx.Search(SearchRequest{
		EnableEmptyQuery:   true,
		ResultType:         ResultCount,
		IncludeUncommitted: true,
		QueryFacets:        reqs,
	})
	if err != nil {
		return nil, err
	}
	return res.Facets, nil
}

func (idx *Index) buildStringFacetRequests(fields []string) ([]query.FacetRequest, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return nil, errs.ErrIndexClosed
	}
	if len(fields) == 0 {
		for _, fi := range idx.schema.FacetFields() {
			f := idx.schema.Fields[fi]
			if f.Type.IsString() {
				fields = append(fields, f.Name)
			}
		}
	}
	reqs := make([]query.FacetRequest, 0, len(fields))
	for _, name := range fields {
		f, _, ok := idx.schema.Field(name)
		if !ok || !f.Flags.Facet || !f.Type.IsString() {
			return nil, errs.ErrFacetFilterFieldNotFound
		}
		reqs = append(reqs, query.FacetRequest{Field: name})
	}
	return reqs, nil
}

// GetIndexFacetsMinMax returns every numeric/Point facet field's
// corpus-wide observed [min, max] range, merged across shards (spec.md
// §4.8, "get_index_facets_minmax()"). Unlike GetIndexStringFacets this
// reads each shard's already-maintained running range directly rather
// than scanning candidates, since min/max needs no per-document count.
func (idx *Index) GetIndexFacetsMinMax() (map[string][2]float64, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return nil, errs.ErrIndexClosed
	}

	out := make(map[string][2]float64)
	for _, fi := range idx.schema.FacetFields() {
		f := idx.schema.Fields[fi]
		if f.Type.IsString() {
			continue
		}
		for _, s := range idx.shards {
			min, max, ok := s.FacetMinMax(f.Name)
			if !ok {
				continue
			}
			if cur, exists := out[f.Name]; !exists {
				out[f.Name] = [2]float64{min, max}
			} else {
				if min < cur[0] {
					cur[0] = min
				}
				if max > cur[1] {
					cur[1] = max
				}
				out[f.Name] = cur
			}
		}
	}
	return out, nil
}

// GetFacetValue returns one document's raw value for a facet field
// (spec.md §6, "get_facet_value(id, field)"), read straight from its
// stored fields rather than the columnar facet store, since the
// document's JSON-encoded stored value already carries it verbatim.
func (idx *Index) GetFacetValue(id docid.Global, field string) (any, error) {
	res, err := idx.GetDocument(id, true, nil, []string{field}, nil)
	if err != nil {
		return nil, err
	}
	v, ok := res.Fields[field]
	if !ok {
		return nil, errs.ErrFacetFilterFieldNotFound
	}
	return v, nil
}

// GetFile is a Non-goal (spec.md §6 / SPEC_FULL.md §6: original file
// bytes are never re-exposed by this implementation) and always fails
// clearly rather than silently returning nothing.
func (idx *Index) GetFile(id docid.Global) (io.Reader, error) {
	return nil, fmt.Errorf("litsearch: get_file is not supported by this index (files are not stored)")
}
