package shardfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/faithsearch/litsearch/internal/docid"
	"github.com/faithsearch/litsearch/internal/tokenizer"
	"github.com/faithsearch/litsearch/schema"
)

// IndexDocument tokenizes and stores one document, assigning it the next
// local document ID in this shard. The document becomes visible to
// searches (with include_uncommitted set) immediately, and durable only
// after the next Commit.
func (s *Shard) IndexDocument(doc *schema.Document) (docid.Global, error) {
	release := s.latch.Ingest()
	defer release()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buffer.Full() {
		// The buffer has reached a full level's worth of documents:
		// finalize it in place before indexing this one, so ingest never
		// rejects valid input at the level boundary (spec.md §4.2, "the
		// number of documents in the buffer reaches the level size" ->
		// handed to the sealing routine). This persists the level's
		// posting and facet files eagerly; index.json only learns about
		// the new level on the next explicit Commit, same as every other
		// buffered document and delete.
		level := s.buffer.Level()
		docsInLevel := s.buffer.NumDocs()
		if err := s.sealOrExtendLevel(level, docsInLevel); err != nil {
			return 0, fmt.Errorf("shardfile: auto-sealing full level %d: %w", level, err)
		}
	}

	fieldTokens := make(map[uint8][]tokenizer.Token)
	for _, fi := range s.schema.IndexedFields() {
		f := s.schema.Fields[fi]
		v, ok := doc.Get(f.Name)
		if !ok {
			continue
		}
		toks := tokensFor(f, v, s.fieldTok)
		fieldTokens[uint8(fi)] = toks
		s.fieldTokenTotals[f.Name] += uint64(len(toks))
	}

	storedJSON, err := encodeStoredJSON(doc, s.schema)
	if err != nil {
		return 0, fmt.Errorf("shardfile: encoding stored fields: %w", err)
	}
	if _, err := s.docWriter.Append(storedJSON); err != nil {
		return 0, fmt.Errorf("shardfile: appending document store record: %w", err)
	}

	offset := s.buffer.AddDocument(fieldTokens)

	for _, fi := range s.schema.FacetFields() {
		f := s.schema.Fields[fi]
		v, ok := doc.Get(f.Name)
		if !ok {
			continue
		}
		if err := s.facetBuilders[f.Name].Set(offset, v); err != nil {
			return 0, fmt.Errorf("shardfile: setting facet %q: %w", f.Name, err)
		}
	}

	for _, fi := range s.schema.IndexedFields() {
		f := s.schema.Fields[fi]
		length := len(fieldTokens[uint8(fi)])
		lenVal := schema.IntValue(schema.U32, int64(length))
		if err := s.fieldLenBuilders[f.Name].Set(offset, lenVal); err != nil {
			return 0, fmt.Errorf("shardfile: setting field length %q: %w", f.Name, err)
		}
	}

	local := docid.Local(s.nextLocal)
	s.nextLocal++
	return docid.ToGlobal(local, s.shardIndex, s.shardCount), nil
}

// DeleteDocument tombstones a shard-local document ID; it remains
// resolvable by sequential iteration but is excluded from searches
// unless include_deleted is requested.
func (s *Shard) DeleteDocument(local docid.Local) bool {
	release := s.latch.Ingest()
	defer release()

	s.mu.Lock()
	defer s.mu.Unlock()
	newlyDeleted := s.deletes.Delete(uint32(local))
	if newlyDeleted {
		s.pendingDeletes++
	}
	return newlyDeleted
}

// UncommittedSize reports the number of documents buffered since the
// last Commit, used by internal/router for load balancing. Commit's own
// no-op check uses uncommittedSizeUnlocked, which also counts pending
// deletes.
func (s *Shard) UncommittedSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer.NumDocs()
}

// tokensFor produces the ordered token sequence indexed under one field
// of one document: the field's tokenizer pipeline for Text/Json, or a
// single literal token at position 0 for every other indexed type (so
// exact-value lookups against e.g. an indexed String16 ID field work the
// same way as a one-word Text field).
func tokensFor(f schema.Field, v schema.Value, fieldTok FieldTokenizer) []tokenizer.Token {
	switch f.Type {
	case schema.Text, schema.Json:
		return fieldTok(f).Run(v.Text)
	case schema.String16, schema.String32:
		return []tokenizer.Token{literalToken(v.Text)}
	case schema.Point:
		return []tokenizer.Token{literalToken(fmt.Sprintf("%g,%g", v.Lon, v.Lat))}
	case schema.F32, schema.F64:
		return []tokenizer.Token{literalToken(strconv.FormatFloat(v.Float, 'g', -1, 64))}
	default: // integer family, Timestamp
		return []tokenizer.Token{literalToken(strconv.FormatInt(v.Int, 10))}
	}
}

func literalToken(term string) tokenizer.Token {
	return tokenizer.Token{Term: term, Position: 0, Hash: tokenizer.Hash(term, tokenizer.Unigram)}
}

// encodeStoredJSON serializes a document's Stored fields to an
// order-preserving JSON object, in schema field order (spec.md §3,
// "Document store": "serialized as an order-preserving JSON object").
func encodeStoredJSON(doc *schema.Document, sch *schema.Schema) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, f := range sch.Fields {
		if !f.Flags.Stored {
			continue
		}
		v, ok := doc.Get(f.Name)
		if !ok {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false

		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := encodeStoredValue(f, v)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encodeStoredValue(f schema.Field, v schema.Value) ([]byte, error) {
	switch f.Type {
	case schema.Json:
		if !json.Valid([]byte(v.Text)) {
			return nil, fmt.Errorf("field %q: invalid stored json", f.Name)
		}
		return []byte(v.Text), nil
	case schema.Text, schema.String16, schema.String32:
		return json.Marshal(v.Text)
	case schema.Point:
		return json.Marshal(struct {
			Lon float64 `json:"lon"`
			Lat float64 `json:"lat"`
		}{v.Lon, v.Lat})
	case schema.F32, schema.F64:
		return json.Marshal(v.Float)
	default: // integer family, Timestamp
		return json.Marshal(v.Int)
	}
}
