package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func terms(toks []Token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Term
	}
	return out
}

func TestAsciiAlphabetic(t *testing.T) {
	tz := ForVariant(AsciiAlphabetic)
	got := terms(tz.Tokenize(nil, "Hello, World! 123"))
	require.Equal(t, []string{"hello", "world"}, got)
}

func TestUnicodeAlphanumericKeepsConnectors(t *testing.T) {
	tz := ForVariant(UnicodeAlphanumeric)
	got := terms(tz.Tokenize(nil, "c++ c# block-max plain"))
	require.Equal(t, []string{"c++", "c#", "block-max", "plain"}, got)
}

func TestUnicodeAlphanumericApostrophe(t *testing.T) {
	tz := ForVariant(UnicodeAlphanumericFolded)
	got := terms(tz.Tokenize(nil, "o'brien's"))
	// "o" and "s" are single-char pieces split off by the apostrophe and
	// are discarded in the folded variant; "brien" survives.
	require.Equal(t, []string{"brien"}, got)
}

func TestUnicodeAlphanumericFoldedDiacritics(t *testing.T) {
	tz := ForVariant(UnicodeAlphanumericFolded)
	got := terms(tz.Tokenize(nil, "café naïve"))
	require.Equal(t, []string{"cafe", "naive"}, got)
}

func TestWhitespace(t *testing.T) {
	tz := ForVariant(WhitespaceLowercase)
	got := terms(tz.Tokenize(nil, "  Foo   Bar\tBaz  "))
	require.Equal(t, []string{"foo", "bar", "baz"}, got)
}

func TestPositionsAreFieldLocal(t *testing.T) {
	tz := ForVariant(AsciiAlphabetic)
	toks := tz.Tokenize(nil, "one two three")
	for i, tok := range toks {
		require.Equal(t, i, tok.Position)
	}
}

func TestNgramExtension(t *testing.T) {
	dict := NewFrequentDict([]string{"the", "of"})
	ne := &NgramExtractor{Dict: dict, Mask: EnableAllNgrams}
	tz := ForVariant(AsciiAlphabetic)
	toks := tz.Tokenize(nil, "the cat of doom")
	extended := ne.Extend(toks)
	require.Greater(t, len(extended), len(toks), "n-grams should be appended in addition to unigrams")

	// unigrams must still all be present
	for _, orig := range toks {
		found := false
		for _, e := range extended {
			if e.Hash == orig.Hash {
				found = true
				break
			}
		}
		require.True(t, found, "unigram %q missing after n-gram extension", orig.Term)
	}
}

func TestHashNamespacesAreDisjoint(t *testing.T) {
	h1 := Hash("the cat", BigramFF)
	h2 := Hash("the cat", Unigram)
	require.NotEqual(t, h1, h2)
	require.Equal(t, BigramFF, KindOf(h1))
	require.Equal(t, Unigram, KindOf(h2))
}

func TestStopwordFilter(t *testing.T) {
	sw := NewStopwordSet(EnglishStopwords)
	require.True(t, sw.Contains(Hash("the", Unigram)))
	require.False(t, sw.Contains(Hash("zebra", Unigram)))
}
