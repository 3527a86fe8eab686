// Package query implements the query planner and DaaT evaluator of
// spec.md §4.5: parsing, n-gram rewriting, Boolean/phrase/ranked
// evaluation with WAND-family pruning, sorting, and facet accumulation.
package query

import (
	"strings"

	"github.com/faithsearch/litsearch/internal/errs"
)

// MaxTerms caps the number of terms a query string contributes; excess
// terms are silently dropped (spec.md §4.5).
const MaxTerms = 100

// Term is one query word, hashed against the tokenizer's term-hash
// namespace by the caller-supplied hash function.
type Term struct {
	Text string
	Hash uint64
}

// Clause is one parsed unit of the query: a single term or a quoted
// phrase, with its Require (+) / Exclude (-) modifier.
type Clause struct {
	Terms   []Term
	Phrase  bool
	Require bool
	Exclude bool
}

// Parsed is a fully parsed query string, ready for n-gram rewriting and
// evaluation.
type Parsed struct {
	Clauses []Clause
}

// HashFunc hashes surface text into the tokenizer's unigram term-hash
// space.
type HashFunc func(term string) uint64

// Parse splits a query string into clauses respecting quoted phrases and
// leading +/- modifiers, per spec.md §4.5. Terms beyond MaxTerms are
// ignored.
func Parse(q string, hash HashFunc) (*Parsed, error) {
	if hash == nil {
		return nil, errs.ErrQueryTooLarge
	}
	p := &Parsed{}
	termCount := 0

	runes := []rune(q)
	i := 0
	for i < len(runes) {
		for i < len(runes) && isSpace(runes[i]) {
			i++
		}
		if i >= len(runes) {
			break
		}

		require, exclude := false, false
		if runes[i] == '+' {
			require = true
			i++
		} else if runes[i] == '-' {
			exclude = true
			i++
		}

		if i < len(runes) && runes[i] == '"' {
			i++
			start := i
			for i < len(runes) && runes[i] != '"' {
				i++
			}
			phraseText := string(runes[start:i])
			if i < len(runes) {
				i++ // closing quote
			}
			words := strings.Fields(phraseText)
			if len(words) == 0 {
				continue
			}
			terms := make([]Term, 0, len(words))
			for _, w := range words {
				if termCount >= MaxTerms {
					break
				}
				terms = append(terms, Term{Text: w, Hash: hash(w)})
				termCount++
			}
			if len(terms) > 0 {
				p.Clauses = append(p.Clauses, Clause{Terms: terms, Phrase: len(terms) > 1, Require: require, Exclude: exclude})
			}
			continue
		}

		start := i
		for i < len(runes) && !isSpace(runes[i]) {
			i++
		}
		word := string(runes[start:i])
		if word == "" {
			continue
		}
		if termCount >= MaxTerms {
			continue
		}
		p.Clauses = append(p.Clauses, Clause{Terms: []Term{{Text: word, Hash: hash(word)}}, Require: require, Exclude: exclude})
		termCount++
	}

	return p, nil
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// OrderedTerms returns every unmodified single-word clause's term, in
// query order, for feeding the n-gram rewriter. Phrase clauses and
// clauses with a + (require) or - (exclude) modifier are skipped:
// rewriting is disabled across them
// (spec.md §4.5, "disabled when +/- operators or mid-query quotes
// complicate adjacency").
func (p *Parsed) OrderedTerms() []Term {
	var out []Term
	for _, c := range p.Clauses {
		if c.Phrase || c.Exclude || c.Require {
			continue
		}
		out = append(out, c.Terms...)
	}
	return out
}

// Empty reports whether the query has no clauses at all.
func (p *Parsed) Empty() bool {
	return len(p.Clauses) == 0
}
