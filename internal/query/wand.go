package query

import "sort"

// ScoredDoc is one ranked result: a level-local docID and its score.
type ScoredDoc struct {
	DocID uint16
	Score float64
}

// wandTerm is one query term's WAND state: its postings cursor and its
// static upper bound, the value passed for that term in WAND's
// upperBounds, used unchanged for the whole evaluation.
type wandTerm struct {
	cursor     Postings
	upperBound float64
}

// ScoreFunc scores a candidate document given the set of term indices
// (into the WAND term list) that matched it, resolving positions/field
// frequencies from each cursor itself.
type ScoreFunc func(docID uint16, matchedTermIx []int) float64

// WAND evaluates an OR query with early termination: terms are kept
// sorted by current docID; the "pivot" is the first term (in that order)
// at which the cumulative upper bound of all terms from there onward
// first exceeds the current top-k threshold. Only candidates at or past
// the pivot's docID can possibly enter the top-k, so cursors before the
// pivot are advanced (not scored) past it (spec.md §4.5: "WAND / Block-
// Max WAND / MAXSCORE: early termination when the upper-bound score of
// remaining candidates is below the current top-k threshold").
func WAND(cursors []Postings, upperBounds []float64, k int, score ScoreFunc) []ScoredDoc {
	terms := make([]*wandTerm, len(cursors))
	for i, c := range cursors {
		terms[i] = &wandTerm{cursor: c, upperBound: upperBounds[i]}
	}

	top := newTopK(k)
	for {
		live := liveTerms(terms)
		if len(live) == 0 {
			break
		}
		sort.Slice(live, func(i, j int) bool {
			return live[i].cursor.Current() < live[j].cursor.Current()
		})

		threshold := top.threshold()
		_, pivotID, found := findPivot(live, threshold)
		if !found {
			break
		}

		if live[0].cursor.Current() == pivotID {
			var matched []int
			for _, t := range live {
				if t.cursor.Current() == pivotID {
					matched = append(matched, indexOf(terms, t.cursor))
				}
			}
			s := score(pivotID, matched)
			top.add(ScoredDoc{DocID: pivotID, Score: s})
			for _, t := range live {
				if t.cursor.Current() == pivotID {
					t.cursor.Next()
				}
			}
		} else {
			live[0].cursor.Goto(pivotID)
		}
	}
	return top.sorted()
}

func liveTerms(terms []*wandTerm) []*wandTerm {
	out := make([]*wandTerm, 0, len(terms))
	for _, t := range terms {
		if t.cursor.Valid() {
			out = append(out, t)
		}
	}
	return out
}

func indexOf(terms []*wandTerm, c Postings) int {
	for i, t := range terms {
		if t.cursor == c {
			return i
		}
	}
	return -1
}

// findPivot returns the index (within the docID-sorted live slice) of
// the term at which cumulative upper bounds first exceed threshold, and
// that term's current docID.
func findPivot(live []*wandTerm, threshold float64) (int, uint16, bool) {
	var cum float64
	for i, t := range live {
		cum += t.upperBound
		if cum > threshold {
			return i, t.cursor.Current(), true
		}
	}
	return 0, 0, false
}

// topK keeps the k highest scores seen in an unordered slice; the
// threshold and the entry to replace are found by a linear scan.
type topK struct {
	k    int
	docs []ScoredDoc
}

func newTopK(k int) *topK {
	return &topK{k: k}
}

func (t *topK) threshold() float64 {
	if len(t.docs) < t.k {
		return 0
	}
	min := t.docs[0].Score
	for _, d := range t.docs[1:] {
		if d.Score < min {
			min = d.Score
		}
	}
	return min
}

func (t *topK) add(d ScoredDoc) {
	if len(t.docs) < t.k {
		t.docs = append(t.docs, d)
		return
	}
	minIx := 0
	for i, e := range t.docs {
		if e.Score < t.docs[minIx].Score {
			minIx = i
		}
	}
	if d.Score > t.docs[minIx].Score {
		t.docs[minIx] = d
	}
}

func (t *topK) sorted() []ScoredDoc {
	out := append([]ScoredDoc(nil), t.docs...)
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
