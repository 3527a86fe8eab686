package highlight

import (
	"strings"
	"testing"

	"github.com/faithsearch/litsearch/internal/tokenizer"
	"github.com/stretchr/testify/require"
)

type wordTokenizer struct{}

func (wordTokenizer) Tokenize(dst []tokenizer.Token, s string) []tokenizer.Token {
	words := strings.Fields(s)
	for i, w := range words {
		dst = append(dst, tokenizer.Token{Term: w, Position: i, Hash: tokenizer.Hash(w, tokenizer.Unigram)})
	}
	return dst
}

func TestSnippetWrapsMatchedToken(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog today"
	matches := map[int]struct{}{3: {}} // "fox"
	s := Snippet(text, wordTokenizer{}, matches, Options{Window: 2, MarkStart: "[", MarkEnd: "]"})
	require.Contains(t, s, "[fox]")
	require.Contains(t, s, "brown")
	require.Contains(t, s, "jumps")
	require.NotContains(t, s, "today")
}

func TestSnippetNoMatchReturnsLeadIn(t *testing.T) {
	text := "alpha beta gamma delta epsilon"
	s := Snippet(text, wordTokenizer{}, map[int]struct{}{}, Options{Window: 1})
	require.Equal(t, "alpha beta", s)
}

func TestSnippetEmptyTextReturnsEmpty(t *testing.T) {
	s := Snippet("", wordTokenizer{}, map[int]struct{}{}, DefaultOptions)
	require.Equal(t, "", s)
}
