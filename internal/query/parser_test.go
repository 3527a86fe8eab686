package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func hashOf(s string) uint64 {
	var h uint64
	for _, r := range s {
		h = h*131 + uint64(r)
	}
	return h
}

func TestParseSimpleTerms(t *testing.T) {
	p, err := Parse("foo bar baz", hashOf)
	require.NoError(t, err)
	require.Len(t, p.Clauses, 3)
	require.Equal(t, "foo", p.Clauses[0].Terms[0].Text)
}

func TestParsePhraseQuoted(t *testing.T) {
	p, err := Parse(`"foo bar" baz`, hashOf)
	require.NoError(t, err)
	require.Len(t, p.Clauses, 2)
	require.True(t, p.Clauses[0].Phrase)
	require.Len(t, p.Clauses[0].Terms, 2)
	require.False(t, p.Clauses[1].Phrase)
}

func TestParseRequireExclude(t *testing.T) {
	p, err := Parse("+foo -bar baz", hashOf)
	require.NoError(t, err)
	require.True(t, p.Clauses[0].Require)
	require.True(t, p.Clauses[1].Exclude)
	require.False(t, p.Clauses[2].Require)
	require.False(t, p.Clauses[2].Exclude)
}

func TestParseCapsAtMaxTerms(t *testing.T) {
	q := ""
	for i := 0; i < MaxTerms+20; i++ {
		q += "w "
	}
	p, err := Parse(q, hashOf)
	require.NoError(t, err)
	total := 0
	for _, c := range p.Clauses {
		total += len(c.Terms)
	}
	require.LessOrEqual(t, total, MaxTerms)
}

func TestOrderedTermsSkipsPhrasesAndModifiers(t *testing.T) {
	p, err := Parse(`foo "bar baz" +qux -quux`, hashOf)
	require.NoError(t, err)
	ordered := p.OrderedTerms()
	require.Len(t, ordered, 1)
	require.Equal(t, "foo", ordered[0].Text)
}

func TestEmptyQuery(t *testing.T) {
	p, err := Parse("   ", hashOf)
	require.NoError(t, err)
	require.True(t, p.Empty())
}
