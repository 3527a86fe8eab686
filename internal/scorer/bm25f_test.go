package scorer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDFHigherForRarerTerms(t *testing.T) {
	common := IDF(1000, 900)
	rare := IDF(1000, 5)
	require.Greater(t, rare, common)
	require.GreaterOrEqual(t, common, 0.0)
}

func TestBM25FHigherTFScoresHigher(t *testing.T) {
	low := TermFieldHit{TermFrequency: 1, FieldLength: 100, AvgLength: 100, IDF: 2.0, Boost: 1.0}
	high := TermFieldHit{TermFrequency: 10, FieldLength: 100, AvgLength: 100, IDF: 2.0, Boost: 1.0}

	scoreLow := BM25F([][]TermFieldHit{{low}}, DefaultParams)
	scoreHigh := BM25F([][]TermFieldHit{{high}}, DefaultParams)
	require.Greater(t, scoreHigh, scoreLow)
}

func TestBM25FLengthNormalizationPenalizesLongDocs(t *testing.T) {
	short := TermFieldHit{TermFrequency: 2, FieldLength: 50, AvgLength: 100, IDF: 2.0, Boost: 1.0}
	long := TermFieldHit{TermFrequency: 2, FieldLength: 500, AvgLength: 100, IDF: 2.0, Boost: 1.0}

	scoreShort := BM25F([][]TermFieldHit{{short}}, DefaultParams)
	scoreLong := BM25F([][]TermFieldHit{{long}}, DefaultParams)
	require.Greater(t, scoreShort, scoreLong)
}

func TestBM25FBoostScalesContribution(t *testing.T) {
	base := TermFieldHit{TermFrequency: 3, FieldLength: 100, AvgLength: 100, IDF: 1.5, Boost: 1.0}
	boosted := base
	boosted.Boost = 3.0

	require.InDelta(t, 3*BM25F([][]TermFieldHit{{base}}, DefaultParams), BM25F([][]TermFieldHit{{boosted}}, DefaultParams), 1e-9)
}

func TestMinCoveringSpanAdjacentTerms(t *testing.T) {
	// "foo" at [0, 10], "bar" at [1, 20] -> tightest window is [0,1], span 1
	span := MinCoveringSpan([][]uint32{{0, 10}, {1, 20}})
	require.Equal(t, 1, span)
}

func TestMinCoveringSpanMissingTermIsUncovered(t *testing.T) {
	span := MinCoveringSpan([][]uint32{{0, 10}, {}})
	require.Equal(t, -1, span)
}

func TestProximityBonusDecaysWithSpan(t *testing.T) {
	near := ProximityBonus(0, 2, DefaultProximityParams)
	far := ProximityBonus(50, 2, DefaultProximityParams)
	require.Greater(t, near, far)
}

func TestProximityBonusZeroForSingleTerm(t *testing.T) {
	require.Equal(t, 0.0, ProximityBonus(0, 1, DefaultProximityParams))
}

func TestBM25FProximityAddsOverBase(t *testing.T) {
	hit := TermFieldHit{TermFrequency: 2, FieldLength: 100, AvgLength: 100, IDF: 1.5, Boost: 1.0}
	base := BM25F([][]TermFieldHit{{hit}}, DefaultParams)
	withBonus := BM25FProximity([][]TermFieldHit{{hit}}, 2, map[uint8]int{0: 1}, DefaultProximityParams, DefaultParams)
	require.Greater(t, withBonus, base)
}
