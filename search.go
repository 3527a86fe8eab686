package litsearch

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/faithsearch/litsearch/internal/docid"
	"github.com/faithsearch/litsearch/internal/errs"
	"github.com/faithsearch/litsearch/internal/facetstore"
	"github.com/faithsearch/litsearch/internal/postinglist"
	"github.com/faithsearch/litsearch/internal/query"
	"github.com/faithsearch/litsearch/internal/scorer"
	"github.com/faithsearch/litsearch/internal/shardfile"
	"github.com/faithsearch/litsearch/internal/tokenizer"
)

// queryColumn is the facet/field-length column type the evaluator's
// columnLookup closures resolve to.
type queryColumn = facetstore.Column

// QueryType selects the Document-at-a-Time merge algorithm a query
// string's clauses are combined with (spec.md §4.5).
type QueryType uint8

const (
	Intersection QueryType = iota
	Union
	Phrase
)

// ResultType controls what a Search call returns. TopkCount and
// ResultTopK both return ranked results cut to the Offset/Length window;
// ResultCount returns no results; ResultAll returns every matching
// document with no offset/length truncation, for
// delete_documents_by_query. Every type visits every matching document
// (there is no WAND pruning) and reports the exact ResultCountTotal.
type ResultType uint8

const (
	ResultTopK ResultType = iota
	ResultCount
	TopkCount
	ResultAll
)

// SearchHit is one ranked result: the document's global ID and its
// score (or, when a result_sort key is active, that key's value).
type SearchHit struct {
	DocID docid.Global
	Score float64
}

// SearchRequest is one search() call's full parameter set (spec.md §6).
// ResultSort supports a single sort key; see DESIGN.md for why the full
// multi-key chain isn't implemented.
type SearchRequest struct {
	Query              string
	QueryType          QueryType
	Offset             int
	Length             int
	ResultType         ResultType
	IncludeUncommitted bool
	FieldFilter        []string // restrict scoring to these indexed fields; empty means all
	QueryFacets        []query.FacetRequest
	FacetFilter        []query.FacetFilter
	ResultSort         *query.SortKey
	QueryRewriting     bool
	EnableEmptyQuery   bool
}

// ResultObject is a search() call's return value (spec.md §6).
type ResultObject struct {
	Results          []SearchHit
	ResultCount      int
	ResultCountTotal uint64
	Facets           map[string]*query.FacetCounts
	QueryTerms       []string
}

func (idx *Index) unigramHash(term string) uint64 {
	return tokenizer.Hash(term, tokenizer.Unigram)
}

// Search evaluates a query across every shard in parallel and merges the
// per-shard results (spec.md §4.5, §6).
func (idx *Index) Search(req SearchRequest) (ResultObject, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return ResultObject{}, errs.ErrIndexClosed
	}

	for _, ff := range req.FacetFilter {
		if _, _, ok := idx.schema.Field(ff.Field); !ok {
			return ResultObject{}, errs.ErrFacetFilterFieldNotFound
		}
	}
	if req.ResultSort != nil {
		if _, _, ok := idx.schema.Field(req.ResultSort.Field); !ok {
			return ResultObject{}, errs.ErrUnknownField
		}
	}

	parsed, err := query.Parse(req.Query, idx.unigramHash)
	if err != nil {
		return ResultObject{}, err
	}
	emptyQuery := parsed.Empty()
	if emptyQuery && !req.EnableEmptyQuery {
		return ResultObject{}, nil
	}

	var fieldFilter map[string]struct{}
	if len(req.FieldFilter) > 0 {
		fieldFilter = make(map[string]struct{}, len(req.FieldFilter))
		for _, f := range req.FieldFilter {
			fieldFilter[f] = struct{}{}
		}
	}

	if req.QueryRewriting && !emptyQuery && idx.cfg.ngramMask != 0 && idx.cfg.frequentWords != nil && len(idx.shards) > 0 {
		rewriteClausesInPlace(parsed, idx.cfg.frequentWords, idx.cfg.ngramMask, idx.existsFn())
	}

	limit := 0
	if req.ResultType == TopkCount || req.ResultType == ResultTopK {
		limit = req.Offset + req.Length
	}

	ctx := context.Background()
	shardResult, err := query.EvaluateShards(ctx, len(idx.shards), limit, func(_ context.Context, shardIx int) (query.ShardResult, error) {
		if emptyQuery {
			return idx.evalEmptyQueryShard(shardIx, req)
		}
		return idx.evalShard(shardIx, parsed, req, fieldFilter)
	})
	if err != nil {
		return ResultObject{}, err
	}

	results := shardResult.Results
	if req.ResultType != ResultAll {
		if req.Offset > 0 {
			if req.Offset >= len(results) {
				results = nil
			} else {
				results = results[req.Offset:]
			}
		}
		if req.Length > 0 && len(results) > req.Length {
			results = results[:req.Length]
		}
	}

	hits := make([]SearchHit, len(results))
	for i, r := range results {
		hits[i] = SearchHit{DocID: docid.Global(r.DocID), Score: r.Score}
	}

	var terms []string
	for _, c := range parsed.Clauses {
		for _, t := range c.Terms {
			terms = append(terms, t.Text)
		}
	}

	return ResultObject{
		Results:          hits,
		ResultCount:      len(hits),
		ResultCountTotal: shardResult.Count,
		Facets:           shardResult.Facets,
		QueryTerms:       terms,
	}, nil
}

// existsFn returns a term-existence check for n-gram rewriting, sampled
// against the first shard: documents route round-robin by uncommitted
// size, so every shard's vocabulary is representative of the whole
// index's.
func (idx *Index) existsFn() query.Exists {
	if len(idx.shards) == 0 {
		return func(uint64) bool { return false }
	}
	s := idx.shards[0]
	return func(hash uint64) bool {
		for i := 0; i < s.Levels(); i++ {
			reader, _ := s.LevelReader(i)
			if _, err := reader.Lookup(hash); err == nil {
				return true
			}
		}
		_, ok := s.UncommittedBlock(hash, 0)
		return ok
	}
}

// rewriteClausesInPlace replaces every plain (non-phrase, non-require,
// non-exclude) clause's term with the n-gram-rewritten sequence, each
// emitted as its own single-term clause (spec.md §4.5).
func rewriteClausesInPlace(p *query.Parsed, dict *tokenizer.FrequentDict, mask tokenizer.KindMask, exists query.Exists) {
	plain := p.OrderedTerms()
	if len(plain) < 2 {
		return
	}
	rewritten := query.RewriteNgrams(plain, dict, mask, exists)

	kept := make([]query.Clause, 0, len(p.Clauses))
	for _, c := range p.Clauses {
		if c.Phrase || c.Exclude || c.Require {
			kept = append(kept, c)
		}
	}
	for _, t := range rewritten {
		kept = append(kept, query.Clause{Terms: []query.Term{t}})
	}
	p.Clauses = kept
}

// evalEmptyQueryShard handles search(query="") against one shard: every
// live document matches, subject to facet filters; the default order
// (doc_id descending) falls out of using the global doc ID itself as the
// merge key (spec.md §4.5, "doc_id descending for empty queries").
func (idx *Index) evalEmptyQueryShard(shardIx int, req SearchRequest) (query.ShardResult, error) {
	s := idx.shards[shardIx]
	sr := query.ShardResult{Facets: make(map[string]*query.FacetCounts)}

	numLevels := s.Levels()
	bufLevel, bufFrom, bufTo := bufferExtraRange(s, numLevels)
	includeBuffer := req.IncludeUncommitted && bufTo > bufFrom

	visit := func(level int, from, to int, isBuffer bool) {
		for offset := from; offset < to; offset++ {
			off := uint16(offset)
			local := docid.Local(uint64(level)*docid.LevelSize + uint64(off))
			if s.IsDeleted(local) {
				continue
			}
			cols := idx.shardColumnLookup(s, level, isBuffer)
			if len(req.FacetFilter) > 0 && !query.Match(req.FacetFilter, cols, off) {
				continue
			}
			sr.Count++
			global := docid.ToGlobal(local, shardIx, len(idx.shards))
			if len(req.QueryFacets) > 0 {
				query.Accumulate(sr.Facets, req.QueryFacets, cols, off)
			}
			if req.ResultType != ResultCount {
				sr.Results = append(sr.Results, query.Result{DocID: uint64(global), LocalOffset: off, Score: float64(global)})
			}
		}
	}

	for lv := 0; lv < numLevels; lv++ {
		_, docs := s.LevelReader(lv)
		visit(lv, 0, docs, false)
	}
	if includeBuffer {
		visit(bufLevel, bufFrom, bufTo, true)
	}
	return sr, nil
}

// bufferExtraRange resolves a shard's buffered (uncommitted) documents
// to the level index they belong to, plus the sub-range not already
// covered by a committed level reader. A fresh trailing level (its
// index one past every committed level) contributes the whole buffer;
// a buffer that is still extending an already-committed level (spec.md
// §4.6) only contributes the documents added since that level's last
// commit — offsets below that are already visited through the normal
// committed-level pass for the same index, and counting them again
// there would double-count those documents.
func bufferExtraRange(s *shardfile.Shard, numLevels int) (level, from, to int) {
	bufLvl, bufDocs := s.BufferDocs()
	level = int(bufLvl)
	to = bufDocs
	if level < numLevels {
		_, committedDocs := s.LevelReader(level)
		from = committedDocs
	}
	return level, from, to
}

var errBlockNotFound = errors.New("shardfile: term not present in buffer")

// termHit is one matched document's per-term occurrence data gathered
// while walking cursors in a single level, ready for BM25F scoring.
type termHit struct {
	term      query.Term
	idf       float64
	positions map[uint8][]uint32 // fieldID -> positions within this document
}

// evalShard evaluates a non-empty parsed query against one shard:
// matching, scoring and facet accumulation/filtering, returning its
// share of the merged result (spec.md §4.5, "For each shard in
// parallel").
func (idx *Index) evalShard(shardIx int, parsed *query.Parsed, req SearchRequest, fieldFilter map[string]struct{}) (query.ShardResult, error) {
	s := idx.shards[shardIx]
	sr := query.ShardResult{Facets: make(map[string]*query.FacetCounts)}

	numLevels := s.Levels()
	bufLevel, bufFrom, bufTo := bufferExtraRange(s, numLevels)
	includeBuffer := req.IncludeUncommitted && bufTo > bufFrom
	_, bufDocs := s.BufferDocs()

	totalDocs := 0
	for i := 0; i < numLevels; i++ {
		_, docs := s.LevelReader(i)
		totalDocs += docs
	}
	if includeBuffer {
		totalDocs += bufDocs
	}

	allTerms := collectAllTerms(parsed)
	docFreq := make(map[uint64]int, len(allTerms))
	for _, t := range allTerms {
		for i := 0; i < numLevels; i++ {
			reader, _ := s.LevelReader(i)
			if b, err := reader.Lookup(t.Hash); err == nil {
				docFreq[t.Hash] += int(b.DocIDs.GetCardinality())
			}
		}
		if includeBuffer {
			if b, ok := s.UncommittedBlock(t.Hash, 0); ok {
				docFreq[t.Hash] += int(b.DocIDs.GetCardinality())
			}
		}
	}
	idfOf := func(hash uint64) float64 { return scorer.IDF(totalDocs, docFreq[hash]) }

	emit := func(level int, matched map[uint16][]termHit, cols func(string) (*queryColumn, bool), skipBelow int) {
		for offset, hits := range matched {
			if int(offset) < skipBelow {
				continue
			}
			local := docid.Local(uint64(level)*docid.LevelSize + uint64(offset))
			if s.IsDeleted(local) {
				continue
			}
			if len(req.FacetFilter) > 0 && !query.Match(req.FacetFilter, cols, offset) {
				continue
			}
			sr.Count++
			if len(req.QueryFacets) > 0 {
				query.Accumulate(sr.Facets, req.QueryFacets, cols, offset)
			}
			if req.ResultType == ResultCount {
				continue
			}
			global := docid.ToGlobal(local, shardIx, len(idx.shards))
			score := idx.scoreHit(hits, fieldFilter)
			if req.ResultSort != nil {
				if v, ok := sortValue(*req.ResultSort, cols, offset); ok {
					score = v
				}
			}
			sr.Results = append(sr.Results, query.Result{DocID: uint64(global), LocalOffset: offset, Score: score})
		}
	}

	for lv := 0; lv < numLevels; lv++ {
		reader, _ := s.LevelReader(lv)
		matched, err := evalLevel(parsed, req.QueryType, reader.Lookup, idfOf)
		if err != nil {
			return query.ShardResult{}, err
		}
		emit(lv, matched, idx.shardColumnLookup(s, lv, false), 0)
	}
	if includeBuffer {
		lookup := func(hash uint64) (*postinglist.Block, error) {
			b, ok := s.UncommittedBlock(hash, idfOf(hash))
			if !ok {
				return nil, errBlockNotFound
			}
			return b, nil
		}
		matched, err := evalLevel(parsed, req.QueryType, lookup, idfOf)
		if err != nil {
			return query.ShardResult{}, err
		}
		emit(bufLevel, matched, idx.shardColumnLookup(s, bufLevel, true), bufFrom)
	}

	return sr, nil
}

// sortValue resolves one result_sort key's comparable value for a
// candidate, negated for Ascending so the merge stage's single
// "descending by Score" rule produces the right order either way.
func sortValue(key query.SortKey, cols func(string) (*queryColumn, bool), offset uint16) (float64, bool) {
	col, ok := cols(key.Field)
	if !ok {
		return 0, false
	}
	var v float64
	if key.HasPointBase {
		lon, lat, err := col.Point(offset)
		if err != nil {
			return 0, false
		}
		v = equirectangularDistance(lon, lat, key.BaseLon, key.BaseLat)
	} else {
		fv, err := col.Float(offset)
		if err != nil {
			return 0, false
		}
		v = fv
	}
	if key.Direction == query.Ascending {
		v = -v
	}
	return v, true
}

func collectAllTerms(p *query.Parsed) []query.Term {
	var out []query.Term
	seen := make(map[uint64]struct{})
	for _, c := range p.Clauses {
		for _, t := range c.Terms {
			if _, ok := seen[t.Hash]; !ok {
				seen[t.Hash] = struct{}{}
				out = append(out, t)
			}
		}
	}
	return out
}

// evalLevel matches parsed's clauses against one level's posting blocks
// (looked up via lookup) and returns, for every matching level-local
// offset, the set of term hits needed for scoring.
//
// This walks every candidate via boolean.go's Intersect/Union rather than
// wand.go's pivot-based top-k; WAND needs per-term upper bounds combined
// across clauses into a single monotonic score bound, which clause-level
// AND/OR/NOT/phrase combination doesn't give a simple way to derive. The
// pure-ranked, single-should-set, no-filter case is the one WAND fits,
// and cursor.BlockMax() exists for exactly that path if it's added later.
func evalLevel(parsed *query.Parsed, qt QueryType, lookup func(uint64) (*postinglist.Block, error), idfOf func(uint64) float64) (map[uint16][]termHit, error) {
	var requireSets []map[uint16]struct{}
	excludeSet := make(map[uint16]struct{})
	var shouldSets []map[uint16][]termHit

	for _, clause := range parsed.Clauses {
		matches, err := evalClause(clause, lookup, idfOf)
		if err != nil {
			return nil, err
		}
		switch {
		case clause.Exclude:
			for off := range matches {
				excludeSet[off] = struct{}{}
			}
		case clause.Require || clause.Phrase:
			set := make(map[uint16]struct{}, len(matches))
			for off := range matches {
				set[off] = struct{}{}
			}
			requireSets = append(requireSets, set)
			shouldSets = append(shouldSets, matches)
		default:
			shouldSets = append(shouldSets, matches)
		}
	}

	candidate := combineShould(shouldSets, qt)
	for _, req := range requireSets {
		for off := range candidate {
			if _, ok := req[off]; !ok {
				delete(candidate, off)
			}
		}
	}
	for off := range excludeSet {
		delete(candidate, off)
	}
	return candidate, nil
}

type termCursor struct {
	term   query.Term
	cursor *postinglist.Cursor
}

// evalClause returns, for a single clause, the level-local offsets that
// satisfy it and each offset's contributing term hits. Non-phrase
// clauses are a DaaT Union over the clause's terms (no synonym
// expansion is applied); phrase clauses are a DaaT Intersect followed by a positional
// adjacency check (spec.md §4.5, "Phrase").
func evalClause(clause query.Clause, lookup func(uint64) (*postinglist.Block, error), idfOf func(uint64) float64) (map[uint16][]termHit, error) {
	var cursors []termCursor
	for _, t := range clause.Terms {
		block, err := lookup(t.Hash)
		if err != nil {
			continue
		}
		cursors = append(cursors, termCursor{term: t, cursor: postinglist.NewCursor(block)})
	}
	if len(cursors) == 0 {
		return nil, nil
	}

	out := make(map[uint16][]termHit)
	qp := make([]query.Postings, len(cursors))
	for i, tc := range cursors {
		qp[i] = tc.cursor
	}

	if clause.Phrase && len(cursors) > 1 {
		query.Intersect(qp, func(docID uint16) {
			if !phraseMatches(cursors) {
				return
			}
			for _, tc := range cursors {
				out[docID] = append(out[docID], termHit{term: tc.term, idf: idfOf(tc.term.Hash), positions: fieldPositions(tc.cursor)})
			}
		})
		return out, nil
	}

	query.Union(qp, func(docID uint16, matchedTermIx []int) {
		for _, ix := range matchedTermIx {
			tc := cursors[ix]
			out[docID] = append(out[docID], termHit{term: tc.term, idf: idfOf(tc.term.Hash), positions: fieldPositions(tc.cursor)})
		}
	})
	return out, nil
}

// maxSchemaFields bounds the field-ID scan in phrase confirmation and
// position decoding; schemas in practice declare far fewer fields.
const maxSchemaFields = 32

// fieldPositions decodes every field's positions for the cursor's
// current document.
func fieldPositions(c *postinglist.Cursor) map[uint8][]uint32 {
	out := make(map[uint8][]uint32)
	for fid := 0; fid < maxSchemaFields; fid++ {
		pos, err := c.Positions(uint8(fid))
		if err != nil || len(pos) == 0 {
			continue
		}
		out[uint8(fid)] = pos
	}
	return out
}

// phraseMatches confirms the clause's terms occur as a contiguous,
// ordered run in at least one field of the document the cursors are
// currently positioned on (spec.md §4.5, "scan per-field positions to
// confirm adjacency in query order").
func phraseMatches(cursors []termCursor) bool {
	for fid := 0; fid < maxSchemaFields; fid++ {
		firstPos, err := cursors[0].cursor.Positions(uint8(fid))
		if err != nil || len(firstPos) == 0 {
			continue
		}
		for _, start := range firstPos {
			if phraseFrom(cursors, uint8(fid), start) {
				return true
			}
		}
	}
	return false
}

func phraseFrom(cursors []termCursor, fid uint8, start uint32) bool {
	for i, tc := range cursors {
		pos, err := tc.cursor.Positions(fid)
		if err != nil {
			return false
		}
		if !containsUint32(pos, start+uint32(i)) {
			return false
		}
	}
	return true
}

func containsUint32(s []uint32, v uint32) bool {
	i := sort.Search(len(s), func(i int) bool { return s[i] >= v })
	return i < len(s) && s[i] == v
}

// combineShould folds a clause list's per-offset match sets into the
// level's candidate set: should-clauses AND together under Intersection,
// OR together under Union/Phrase.
func combineShould(sets []map[uint16][]termHit, qt QueryType) map[uint16][]termHit {
	if len(sets) == 0 {
		return map[uint16][]termHit{}
	}
	if qt != Intersection {
		combined := make(map[uint16][]termHit)
		for _, s := range sets {
			for off, hits := range s {
				combined[off] = append(combined[off], hits...)
			}
		}
		return combined
	}

	combined := sets[0]
	for _, s := range sets[1:] {
		next := make(map[uint16][]termHit, len(combined))
		for off, hits := range combined {
			if more, ok := s[off]; ok {
				next[off] = append(append([]termHit{}, hits...), more...)
			}
		}
		combined = next
	}
	return combined
}

// scoreHit computes a document's BM25F (or BM25F-proximity) score from
// its gathered term hits, restricted to fieldFilter when non-empty
// (spec.md §4.4). A term's field length is taken as its position count
// within that field for this document: exact for every built-in
// tokenizer variant, none of which drop positions.
func (idx *Index) scoreHit(hits []termHit, fieldFilter map[string]struct{}) float64 {
	if len(hits) == 0 {
		return 0
	}

	fieldByID := make(map[uint8]string, len(idx.schema.Fields))
	for i, f := range idx.schema.Fields {
		fieldByID[uint8(i)] = f.Name
	}

	byTerm := make(map[uint64][]scorer.TermFieldHit)
	positionsByTerm := make(map[uint64][][]uint32)

	for _, h := range hits {
		for fid, positions := range h.positions {
			name, ok := fieldByID[fid]
			if !ok {
				continue
			}
			if fieldFilter != nil {
				if _, ok := fieldFilter[name]; !ok {
					continue
				}
			}
			field, fi, ok := idx.schema.Field(name)
			if !ok {
				continue
			}
			avg := idx.avgFieldLength(fi, name)
			byTerm[h.term.Hash] = append(byTerm[h.term.Hash], scorer.TermFieldHit{
				TermFrequency: float64(len(positions)),
				FieldLength:   float64(len(positions)),
				AvgLength:     avg,
				IDF:           h.idf,
				Boost:         field.Boost,
			})
			positionsByTerm[h.term.Hash] = append(positionsByTerm[h.term.Hash], positions)
		}
	}

	hitsByTerm := make([][]scorer.TermFieldHit, 0, len(byTerm))
	for _, fieldHits := range byTerm {
		hitsByTerm = append(hitsByTerm, fieldHits)
	}

	if !idx.cfg.useProximity || len(byTerm) < 2 {
		return scorer.BM25F(hitsByTerm, idx.cfg.similarity)
	}

	var allPositions [][]uint32
	for _, ps := range positionsByTerm {
		var merged []uint32
		for _, p := range ps {
			merged = append(merged, p...)
		}
		sort.Slice(merged, func(i, j int) bool { return merged[i] < merged[j] })
		allPositions = append(allPositions, merged)
	}
	span := scorer.MinCoveringSpan(allPositions)
	if span < 0 {
		return scorer.BM25F(hitsByTerm, idx.cfg.similarity)
	}
	return scorer.BM25FProximity(hitsByTerm, len(byTerm), map[uint8]int{0: span}, idx.cfg.proximity, idx.cfg.similarity)
}

// avgFieldLength returns a field's corpus-wide average token length,
// falling back to 0 (disabling length normalization for that field) for
// fields the index hasn't tracked lengths for yet.
func (idx *Index) avgFieldLength(_ int, name string) float64 {
	if len(idx.shards) == 0 {
		return 0
	}
	var total, n float64
	for _, s := range idx.shards {
		if avg := s.AvgFieldLength(name); avg > 0 {
			total += avg
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / n
}

func equirectangularDistance(lon, lat, baseLon, baseLat float64) float64 {
	const (
		earthRadiusMeters = 6371000.0
		degToRad          = math.Pi / 180
	)
	latRad := baseLat * degToRad
	x := (lon - baseLon) * math.Cos(latRad)
	y := lat - baseLat
	return math.Sqrt(x*x+y*y) * degToRad * earthRadiusMeters
}

// shardColumnLookup adapts a shard's per-level (or buffer) facet columns
// to query.FacetRequest/FacetFilter/sort's columnLookup contract. It
// returns facet columns only; the field-length shadow columns are not
// reachable through it.
func (idx *Index) shardColumnLookup(s *shardfile.Shard, level int, isBuffer bool) func(field string) (*queryColumn, bool) {
	return func(field string) (*queryColumn, bool) {
		if isBuffer {
			return s.BufferFacetColumn(field)
		}
		return s.LevelFacetColumn(level, field)
	}
}
