package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfirmPhraseAdjacentMatch(t *testing.T) {
	// "foo bar" at positions foo=[0,10], bar=[1,20] -> adjacent at 0,1
	require.True(t, ConfirmPhrase([][]uint32{{0, 10}, {1, 20}}))
}

func TestConfirmPhraseNoAdjacency(t *testing.T) {
	require.False(t, ConfirmPhrase([][]uint32{{0, 10}, {5, 20}}))
}

func TestConfirmPhraseThreeTerms(t *testing.T) {
	require.True(t, ConfirmPhrase([][]uint32{{4}, {5}, {6}}))
	require.False(t, ConfirmPhrase([][]uint32{{4}, {5}, {7}}))
}

func TestConfirmPhraseMissingTermFails(t *testing.T) {
	require.False(t, ConfirmPhrase([][]uint32{{0}, {}}))
}
