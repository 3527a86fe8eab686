// Package highlight extracts KWIC (keyword-in-context) snippets from a
// stored field's text around the positions a query matched, per
// SPEC_FULL.md's expansion of spec.md's component list.
package highlight

import (
	"strings"

	"github.com/faithsearch/litsearch/internal/tokenizer"
)

const (
	defaultWindow = 6
	markStart     = "‹"
	markEnd       = "›"
)

// Options tunes snippet extraction.
type Options struct {
	Window    int    // tokens of context kept on each side of a match
	MarkStart string // wraps a matched token on the left
	MarkEnd   string // wraps a matched token on the right
}

// DefaultOptions matches spec.md's plain KWIC behavior with small
// single-character guillemet markers, chosen to survive JSON encoding
// without escaping.
var DefaultOptions = Options{Window: defaultWindow, MarkStart: markStart, MarkEnd: markEnd}

// Snippet re-tokenizes fieldText with tok (the same tokenizer variant
// used at index time, so positions line up with the postings that
// produced a match) and extracts the window of tokens around the first
// run of positions found in matchPositions, wrapping every matched token.
// If no position in matchPositions occurs in this field at all, Snippet
// returns the first Window+1 tokens with no marks (a lead-in snippet).
func Snippet(fieldText string, tok tokenizer.Tokenizer, matchPositions map[int]struct{}, opts Options) string {
	if opts.Window <= 0 {
		opts = DefaultOptions
	}
	tokens := tok.Tokenize(nil, fieldText)
	if len(tokens) == 0 {
		return ""
	}

	center := firstMatch(tokens, matchPositions)
	lo := center - opts.Window
	if lo < 0 {
		lo = 0
	}
	hi := center + opts.Window + 1
	if hi > len(tokens) {
		hi = len(tokens)
	}

	var b strings.Builder
	for i := lo; i < hi; i++ {
		if i > lo {
			b.WriteByte(' ')
		}
		t := tokens[i]
		if _, matched := matchPositions[t.Position]; matched {
			b.WriteString(opts.MarkStart)
			b.WriteString(t.Term)
			b.WriteString(opts.MarkEnd)
		} else {
			b.WriteString(t.Term)
		}
	}
	return b.String()
}

func firstMatch(tokens []tokenizer.Token, matchPositions map[int]struct{}) int {
	if len(matchPositions) == 0 {
		return 0
	}
	for i, t := range tokens {
		if _, ok := matchPositions[t.Position]; ok {
			return i
		}
	}
	return 0
}
