package postinglist

import "sort"

// Cursor is the uniform capability set spec.md §4.3/§9 evaluators are
// written against: current, next, goto (galloping seek), size_hint. One
// Cursor walks a single Block's docIDs (level-local offsets), materialized
// once into a sorted slice — block cardinality is bounded by the level
// size (65536), so this costs at most one pass per query per block.
type Cursor struct {
	block   *Block
	offsets []uint32
	ord     int // index into offsets/Payloads of the current document
}

// NewCursor returns a Cursor positioned on the first document, or past the
// end if the block is empty.
func NewCursor(b *Block) *Cursor {
	return &Cursor{block: b, offsets: b.DocIDs.ToArray(), ord: 0}
}

// Valid reports whether the cursor is on a document.
func (c *Cursor) Valid() bool {
	return c.ord < len(c.offsets)
}

// Current returns the level-local offset the cursor is on.
func (c *Cursor) Current() uint16 {
	return uint16(c.offsets[c.ord])
}

// Next advances past the current document.
func (c *Cursor) Next() {
	c.ord++
}

// Goto performs a galloping seek to the first document >= target and
// reports whether such a document exists. Implemented as a binary search
// over the materialized offsets, which has the same external contract as
// a hand-rolled exponential/galloping search at these block sizes.
func (c *Cursor) Goto(target uint16) bool {
	if c.ord > 0 && c.ord < len(c.offsets) && c.offsets[c.ord] >= uint32(target) {
		return true
	}
	i := sort.Search(len(c.offsets), func(i int) bool { return c.offsets[i] >= uint32(target) })
	c.ord = i
	return c.ord < len(c.offsets)
}

// Positions decodes the current document's positions for one field.
func (c *Cursor) Positions(fieldID uint8) ([]uint32, error) {
	if !c.Valid() {
		return nil, nil
	}
	r := NewPositionsReader(c.block.Payloads[c.ord], c.block.SingleField)
	return r.Field(fieldID)
}

// SizeHint returns the remaining cardinality, for planner cost estimates.
func (c *Cursor) SizeHint() int {
	return len(c.offsets) - c.ord
}

// BlockMax returns the term's precomputed WAND upper bound for this
// block.
func (c *Cursor) BlockMax() float32 {
	return c.block.BlockMax
}
