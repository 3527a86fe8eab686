package query

import "container/heap"

// Intersect performs a Document-at-a-Time AND over cursors already
// positioned at their first document: order by ascending current docID,
// advance the list(s) behind the maximum via a galloping Goto, repeat
// until one list is exhausted (spec.md §4.5, "Intersection").
//
// visit is called once per matching docID, in ascending order.
func Intersect(cursors []Postings, visit func(docID uint16)) {
	if len(cursors) == 0 {
		return
	}
	for _, c := range cursors {
		if !c.Valid() {
			return
		}
	}
	for {
		maxID := cursors[0].Current()
		for _, c := range cursors[1:] {
			if c.Current() > maxID {
				maxID = c.Current()
			}
		}

		allMatch := true
		for _, c := range cursors {
			if c.Current() != maxID {
				allMatch = false
				if !c.Goto(maxID) {
					return
				}
			}
		}
		if allMatch {
			visit(maxID)
			for _, c := range cursors {
				c.Next()
				if !c.Valid() {
					return
				}
			}
		}
	}
}

// unionHeap is a min-heap of term indices ordered by their cursor's
// current docID, the structure spec.md §4.5's Union algorithm calls for.
type unionHeap struct {
	cursors []Postings
	termIx  []int
}

func (h *unionHeap) Len() int      { return len(h.termIx) }
func (h *unionHeap) Swap(i, j int) { h.termIx[i], h.termIx[j] = h.termIx[j], h.termIx[i] }
func (h *unionHeap) Less(i, j int) bool {
	return h.cursors[h.termIx[i]].Current() < h.cursors[h.termIx[j]].Current()
}
func (h *unionHeap) Push(x interface{}) { h.termIx = append(h.termIx, x.(int)) }
func (h *unionHeap) Pop() interface{} {
	n := len(h.termIx)
	x := h.termIx[n-1]
	h.termIx = h.termIx[:n-1]
	return x
}

// Union performs a Document-at-a-Time OR over cursors via a min-heap on
// current docID: at each pop, gather every cursor currently sitting on
// that docID before advancing them (spec.md §4.5, "Union").
//
// visit receives the matching docID and the index (into cursors) of
// every term that occurs in that document, for per-term scoring.
func Union(cursors []Postings, visit func(docID uint16, matchedTermIx []int)) {
	h := &unionHeap{cursors: cursors}
	for i, c := range cursors {
		if c.Valid() {
			h.termIx = append(h.termIx, i)
		}
	}
	heap.Init(h)

	for h.Len() > 0 {
		minID := cursors[h.termIx[0]].Current()

		var matched []int
		var toReheap []int
		for h.Len() > 0 && cursors[h.termIx[0]].Current() == minID {
			ix := heap.Pop(h).(int)
			matched = append(matched, ix)
			toReheap = append(toReheap, ix)
		}
		visit(minID, matched)

		for _, ix := range toReheap {
			cursors[ix].Next()
			if cursors[ix].Valid() {
				heap.Push(h, ix)
			}
		}
	}
}
