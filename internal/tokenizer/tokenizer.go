// Package tokenizer turns field text into ordered (term hash, position)
// tuples, per spec.md §4.1.
package tokenizer

// Token is one emitted unit: a hashed term at a field-local position.
type Token struct {
	Hash     uint64
	Position int // 0-based, field-local
	Term     string
}

// Tokenizer splits a text value into an ordered token sequence.
type Tokenizer interface {
	// Tokenize appends tokens for s to dst and returns the grown slice.
	// Positions start at 0 for every call (field-local, per spec.md §4.1).
	Tokenize(dst []Token, s string) []Token
}

// Variant names the built-in tokenizer families from spec.md §4.1.
type Variant string

const (
	AsciiAlphabetic           Variant = "ascii_alphabetic"
	UnicodeAlphanumeric       Variant = "unicode_alphanumeric"
	UnicodeAlphanumericFolded Variant = "unicode_alphanumeric_folded"
	Whitespace                Variant = "whitespace"
	WhitespaceLowercase       Variant = "whitespace_lowercase"
	CJKSegmented              Variant = "cjk_segmented"
)

// ForVariant returns the Tokenizer implementing a named variant.
func ForVariant(v Variant) Tokenizer {
	switch v {
	case AsciiAlphabetic:
		return asciiAlphabetic{}
	case UnicodeAlphanumeric:
		return unicodeAlphanumeric{fold: false}
	case UnicodeAlphanumericFolded:
		return unicodeAlphanumeric{fold: true}
	case Whitespace:
		return whitespaceTokenizer{lower: false}
	case WhitespaceLowercase:
		return whitespaceTokenizer{lower: true}
	case CJKSegmented:
		return cjkSegmented{}
	default:
		return unicodeAlphanumeric{fold: false}
	}
}

// Pipeline wraps a base Tokenizer with optional stopword filtering,
// stemming and n-gram synthesis, applied in that order (spec.md §4.1).
type Pipeline struct {
	Base      Tokenizer
	Stopwords *StopwordSet
	Stemmer   Stemmer
	Ngrams    *NgramExtractor // nil disables n-gram synthesis
}

// Run tokenizes s and returns the final token sequence, including any
// synthetic n-gram tokens appended per spec.md §4.1 ("the single-term
// tokens are emitted in addition").
func (p Pipeline) Run(s string) []Token {
	raw := p.Base.Tokenize(nil, s)
	kept := raw[:0]
	for _, t := range raw {
		if p.Stopwords != nil && p.Stopwords.Contains(t.Hash) {
			continue
		}
		if p.Stemmer != nil {
			t.Term = p.Stemmer.Stem(t.Term)
			t.Hash = Hash(t.Term, Unigram)
		}
		kept = append(kept, t)
	}
	if p.Ngrams != nil {
		kept = p.Ngrams.Extend(kept)
	}
	return kept
}
