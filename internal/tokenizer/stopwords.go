package tokenizer

// StopwordSet is a hash-keyed set of dropped terms, predefined per
// language or supplied by the caller (spec.md §4.1).
type StopwordSet struct {
	hashes map[uint64]struct{}
}

// NewStopwordSet builds a set from plain-text terms, hashing each the same
// way the unigram tokenizer path does so lookups agree.
func NewStopwordSet(terms []string) *StopwordSet {
	s := &StopwordSet{hashes: make(map[uint64]struct{}, len(terms))}
	for _, t := range terms {
		s.hashes[Hash(t, Unigram)] = struct{}{}
	}
	return s
}

// Contains reports whether a term hash is in the stopword set.
func (s *StopwordSet) Contains(hash uint64) bool {
	if s == nil {
		return false
	}
	_, ok := s.hashes[hash]
	return ok
}

// EnglishStopwords is a small built-in default set; production deployments
// are expected to supply their own per-language resource (spec.md §1: "stop
// word... tables treated as pluggable resources").
var EnglishStopwords = []string{
	"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
	"has", "he", "in", "is", "it", "its", "of", "on", "that", "the",
	"to", "was", "were", "will", "with",
}
