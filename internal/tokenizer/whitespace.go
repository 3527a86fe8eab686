package tokenizer

import (
	"strings"
	"unicode"
)

// whitespaceTokenizer splits on Unicode whitespace, optionally lowercasing.
type whitespaceTokenizer struct {
	lower bool
}

func (w whitespaceTokenizer) Tokenize(dst []Token, s string) []Token {
	pos := 0
	for _, field := range strings.FieldsFunc(s, unicode.IsSpace) {
		term := field
		if w.lower {
			term = strings.ToLower(term)
		}
		dst = append(dst, Token{Hash: Hash(term, Unigram), Position: pos, Term: term})
		pos++
	}
	return dst
}
