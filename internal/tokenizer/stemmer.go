package tokenizer

import "github.com/kljensen/snowball"

// Stemmer reduces a term to its stem before hashing (spec.md §4.1).
type Stemmer interface {
	Stem(term string) string
}

// SnowballStemmer wraps github.com/kljensen/snowball for the supported
// languages (grounded on Zeeeepa-blaze, a lexical-search repo in the
// reference pack that uses this library the same way).
type SnowballStemmer struct {
	Language string // e.g. "english", "french", "spanish"
}

func (s SnowballStemmer) Stem(term string) string {
	lang := s.Language
	if lang == "" {
		lang = "english"
	}
	stemmed, err := snowball.Stem(term, lang, true)
	if err != nil {
		return term
	}
	return stemmed
}
