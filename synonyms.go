package litsearch

import (
	"encoding/json"
	"os"
)

// Synonyms holds one index's single-token synonym sets: a term maps to
// every other term query evaluation should treat as equivalent. One-way
// sets are entered under a single key; multi-way sets are expressed by
// listing every member as a key mapping to the rest (spec.md §6,
// "synonyms.json — per-index one-way/multi-way single-token synonym
// sets").
type Synonyms map[string][]string

// Expand returns term plus every term it's declared synonymous with, or
// just term if it has no entry.
func (s Synonyms) Expand(term string) []string {
	if s == nil {
		return []string{term}
	}
	extra, ok := s[term]
	if !ok {
		return []string{term}
	}
	out := make([]string, 0, len(extra)+1)
	out = append(out, term)
	out = append(out, extra...)
	return out
}

func loadSynonyms(path string) (Synonyms, error) {
	buf, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s Synonyms
	if err := json.Unmarshal(buf, &s); err != nil {
		return nil, err
	}
	return s, nil
}

func saveSynonyms(path string, s Synonyms) error {
	if s == nil {
		s = Synonyms{}
	}
	buf, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, buf)
}
