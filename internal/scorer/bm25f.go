// Package scorer implements BM25F and BM25F-proximity ranking (spec.md
// §4.4) over precomputed per-field statistics. Pure numeric Go: no
// library in the example pack implements BM25F, so this stays
// stdlib-only by necessity rather than preference.
package scorer

import "math"

// Params holds the saturation/length-normalization constants shared by
// every field in a query evaluation.
type Params struct {
	K1 float64 // term-frequency saturation point
	B  float64 // length-normalization strength, 0 (off) to 1 (full)
}

// DefaultParams matches the conventional Okapi BM25 defaults.
var DefaultParams = Params{K1: 1.2, B: 0.75}

// FieldStats carries the corpus-wide statistics a field needs for
// scoring: its average document length in tokens, computed at commit
// time from the field's total token count over its document count.
type FieldStats struct {
	AvgLength float64
}

// TermFieldHit is one query term's contribution within one field of one
// candidate document: how many times the term occurs (tf), the
// document's length in that field, the field's corpus-wide average
// length, the term's IDF, and the field's configured boost.
type TermFieldHit struct {
	TermFrequency float64
	FieldLength   float64
	AvgLength     float64
	IDF           float64
	Boost         float64
}

// saturate computes the BM25 term-frequency saturation component for one
// field occurrence: tf' / (k1 + tf') after BM25F's length normalization
// is folded into tf'.
func saturate(hit TermFieldHit, p Params) float64 {
	if hit.TermFrequency <= 0 {
		return 0
	}
	avgLen := hit.AvgLength
	if avgLen <= 0 {
		avgLen = hit.FieldLength
	}
	if avgLen <= 0 {
		avgLen = 1
	}
	norm := (1 - p.B) + p.B*(hit.FieldLength/avgLen)
	tfPrime := hit.TermFrequency / norm
	return hit.Boost * hit.IDF * (tfPrime / (p.K1 + tfPrime))
}

// IDF returns the standard BM25 inverse document frequency for a term
// occurring in docFreq of totalDocs documents.
func IDF(totalDocs, docFreq int) float64 {
	if totalDocs <= 0 || docFreq <= 0 {
		return 0
	}
	n := float64(totalDocs)
	df := float64(docFreq)
	v := math.Log(1 + (n-df+0.5)/(df+0.5))
	if v < 0 {
		return 0
	}
	return v
}

// BM25F scores one document as the sum, over every query term, of the
// sum over every field that carries the term of that field's saturated,
// boosted, IDF-weighted contribution (spec.md §4.4: "score = Σ_fields
// boost(field) · saturation(tf(field), length(field), avg_len(field)) ·
// IDF(term)").
func BM25F(hitsByTerm [][]TermFieldHit, p Params) float64 {
	var total float64
	for _, fieldHits := range hitsByTerm {
		for _, h := range fieldHits {
			total += saturate(h, p)
		}
	}
	return total
}

// ProximityParams tunes the minimum-span bonus BM25F-proximity adds on
// top of BM25F for multi-term queries (spec.md §4.4).
type ProximityParams struct {
	Weight float64 // overall bonus scale
	K      float64 // span decay constant
}

// DefaultProximityParams is a conservative default: the bonus never
// dominates the base BM25F score.
var DefaultProximityParams = ProximityParams{Weight: 0.15, K: 1.0}

// ProximityBonus converts a minimum covering span (in token positions,
// across all query terms within one field) into an additive score bonus
// that decays as the span widens; the bonus is largest at span 0. A
// single-term query (termCount < 2) or a negative span gets no bonus.
func ProximityBonus(minSpan int, termCount int, p ProximityParams) float64 {
	if termCount < 2 || minSpan < 0 {
		return 0
	}
	return p.Weight / (1 + p.K*float64(minSpan))
}

// BM25FProximity combines the base BM25F score with a per-field minimum
// covering span bonus. minSpanByField holds, for each field that covers
// every query term at least once, that field's minimum span; fields
// absent from the map contribute no bonus.
func BM25FProximity(hitsByTerm [][]TermFieldHit, termCount int, minSpanByField map[uint8]int, pp ProximityParams, p Params) float64 {
	base := BM25F(hitsByTerm, p)
	var bonus float64
	for _, span := range minSpanByField {
		bonus += ProximityBonus(span, termCount, pp)
	}
	return base + bonus
}

// MinCoveringSpan returns the width of the smallest window of token
// positions that contains at least one occurrence of every term in
// positionsByTerm (each already sorted ascending), or -1 if some term
// has no positions in this field at all. This is the classic
// smallest-range-covering-all-lists sweep.
func MinCoveringSpan(positionsByTerm [][]uint32) int {
	k := len(positionsByTerm)
	if k == 0 {
		return -1
	}
	idx := make([]int, k)
	for _, positions := range positionsByTerm {
		if len(positions) == 0 {
			return -1
		}
	}

	best := -1
	for {
		curMin, curMax := uint32(math.MaxUint32), uint32(0)
		minList := -1
		for i, positions := range positionsByTerm {
			v := positions[idx[i]]
			if v < curMin {
				curMin = v
				minList = i
			}
			if v > curMax {
				curMax = v
			}
		}
		span := int(curMax - curMin)
		if best == -1 || span < best {
			best = span
		}
		idx[minList]++
		if idx[minList] >= len(positionsByTerm[minList]) {
			break
		}
	}
	return best
}
