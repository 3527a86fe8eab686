package tokenizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// unicodeAlphanumeric splits on non-letter/digit Unicode boundaries,
// preserving '+', '-', '#' in the middle or trailing position of a term
// (spec.md §4.1: "c++", "c#", "block-max"). With fold=true it additionally
// applies NFKD decomposition and strips combining marks, reducing accents,
// ligatures, zalgo marks and full-width variants to a base form.
type unicodeAlphanumeric struct {
	fold bool
}

var diacriticsFolder = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func (u unicodeAlphanumeric) Tokenize(dst []Token, s string) []Token {
	pos := 0
	var b strings.Builder
	nextNearApostrophe := false
	flush := func(nearApostrophe bool) {
		if b.Len() == 0 {
			return
		}
		term := b.String()
		b.Reset()
		if nearApostrophe && u.fold && len([]rune(term)) <= 1 {
			// Folded variant discards short pieces split off by an
			// apostrophe (spec.md §4.1).
			return
		}
		dst = append(dst, Token{Hash: Hash(term, Unigram), Position: pos, Term: term})
		pos++
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		if (r == '+' || r == '-' || r == '#') && b.Len() > 0 {
			// A connector never splits a term when it occurs mid/trailing;
			// a run of trailing connectors with nothing after them (e.g. a
			// lone "-" before whitespace) still ends up attached, matching
			// "block-max" / "c++" / "c#" staying intact.
			b.WriteRune(r)
			continue
		}
		if r == '\'' {
			flush(true)
			nextNearApostrophe = true
			continue
		}
		flush(nextNearApostrophe)
		nextNearApostrophe = false
	}
	flush(nextNearApostrophe)
	if u.fold {
		for i := range dst {
			folded, _, _ := transform.String(diacriticsFolder, dst[i].Term)
			folded = strings.ToLower(folded)
			if folded != dst[i].Term {
				dst[i].Term = folded
				dst[i].Hash = Hash(folded, Unigram)
			}
		}
	}
	return dst
}

