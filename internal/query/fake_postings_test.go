package query

// fakePostings is an in-memory Postings implementation over a sorted
// docID list, for testing the DaaT evaluators without a real
// postinglist.Block.
type fakePostings struct {
	ids       []uint16
	positions map[uint16][]uint32
	ix        int
}

func newFakePostings(ids []uint16, positions map[uint16][]uint32) *fakePostings {
	return &fakePostings{ids: ids, positions: positions}
}

func (f *fakePostings) Valid() bool { return f.ix < len(f.ids) }

func (f *fakePostings) Current() uint16 { return f.ids[f.ix] }

func (f *fakePostings) Next() { f.ix++ }

func (f *fakePostings) Goto(target uint16) bool {
	for f.ix < len(f.ids) && f.ids[f.ix] < target {
		f.ix++
	}
	return f.Valid()
}

func (f *fakePostings) Positions(fieldID uint8) ([]uint32, error) {
	if !f.Valid() {
		return nil, nil
	}
	return f.positions[f.ids[f.ix]], nil
}

func (f *fakePostings) SizeHint() int { return len(f.ids) - f.ix }
