// Package facetstore implements the fixed-width, mmap'able per-document
// facet columns (spec.md §3 "Facet column") plus their string dictionaries
// and observed min/max, grounded on the teacher's split between a raw
// columnar region (`store/index`'s bucket table) and a small JSON sidecar
// of metadata (`store/index/header.go`).
package facetstore

import (
	"fmt"
	"math"

	"github.com/faithsearch/litsearch/internal/errs"
	"github.com/faithsearch/litsearch/schema"
)

// Dictionary maps a facet field's distinct string values to dense codes,
// in first-seen order, width-limited per spec.md §7
// (FacetCardinalityExceeded at 65535 for String16, 4294967295 for
// String32).
type Dictionary struct {
	codeOf map[string]uint32
	values []string
	is32   bool
}

func newDictionary(is32 bool) *Dictionary {
	return &Dictionary{codeOf: make(map[string]uint32), is32: is32}
}

// NewDictionaryFromValues rebuilds a dictionary from its persisted
// code-ordered value list (facet.json's per-field Dict), for reopening a
// shard without replaying every document that ever populated it.
func NewDictionaryFromValues(values []string, is32 bool) *Dictionary {
	d := &Dictionary{codeOf: make(map[string]uint32, len(values)), is32: is32, values: values}
	for i, v := range values {
		d.codeOf[v] = uint32(i)
	}
	return d
}

func (d *Dictionary) codeFor(s string) (uint32, error) {
	if code, ok := d.codeOf[s]; ok {
		return code, nil
	}
	limit := uint32(65535)
	if d.is32 {
		limit = 4294967295
	}
	if uint32(len(d.values)) >= limit {
		return 0, errs.ErrFacetCardinalityExceeded
	}
	code := uint32(len(d.values))
	d.values = append(d.values, s)
	d.codeOf[s] = code
	return code, nil
}

// Values returns the dictionary in code order.
func (d *Dictionary) Values() []string {
	return d.values
}

// ColumnBuilder accumulates one facet field's column for the current
// level, row-major by level-local document offset.
type ColumnBuilder struct {
	field schema.Field
	width int
	data  []byte // width * numRows

	dict     *Dictionary // set for String16/String32
	hasMin   bool
	min, max float64 // numeric types; for Point, the longitude's range
}

func NewColumnBuilder(field schema.Field) *ColumnBuilder {
	cb := &ColumnBuilder{field: field, width: field.Type.FacetWidth()}
	if field.Type.IsString() {
		cb.dict = newDictionary(field.Type == schema.String32)
	}
	return cb
}

// NewColumnBuilderWithDict starts a new level's column reusing dict for
// code assignment, so a String16/String32 field's dictionary codes stay
// stable across the levels of one shard instead of resetting per level.
func NewColumnBuilderWithDict(field schema.Field, dict *Dictionary) *ColumnBuilder {
	cb := &ColumnBuilder{field: field, width: field.Type.FacetWidth()}
	if field.Type.IsString() {
		cb.dict = dict
	}
	return cb
}

// NewColumnBuilderFromBytes resumes a trailing incomplete level's column
// builder from its previously-persisted bytes, dictionary, and tracked
// range, so extending that level (spec.md §4.6) doesn't lose or reset
// rows already written, or silently narrow a numeric field's tracked
// min/max (trackMinMax only seeds min/max on its first call).
func NewColumnBuilderFromBytes(field schema.Field, data []byte, dict *Dictionary, min, max float64, hasMinMax bool) *ColumnBuilder {
	cb := &ColumnBuilder{
		field:  field,
		width:  field.Type.FacetWidth(),
		data:   append([]byte{}, data...),
		hasMin: hasMinMax,
		min:    min,
		max:    max,
	}
	if field.Type.IsString() {
		cb.dict = dict
	}
	return cb
}

// Dict returns the column's string dictionary, or nil for non-string
// fields, so callers can carry it over to the next level's builder.
func (cb *ColumnBuilder) Dict() *Dictionary {
	return cb.dict
}

// Set writes one document's facet value at its level-local row, growing
// the column as needed (rows are appended in increasing offset order by
// the segment buffer, so offset == current row count in practice, but
// this also tolerates sparse growth for robustness).
func (cb *ColumnBuilder) Set(offset uint16, v schema.Value) error {
	need := (int(offset) + 1) * cb.width
	if len(cb.data) < need {
		cb.data = append(cb.data, make([]byte, need-len(cb.data))...)
	}
	row := cb.data[int(offset)*cb.width : (int(offset)+1)*cb.width]

	switch cb.field.Type {
	case schema.String16, schema.String32:
		code, err := cb.dict.codeFor(v.Text)
		if err != nil {
			return fmt.Errorf("field %q: %w", cb.field.Name, err)
		}
		putUintLE(row, uint64(code))
	case schema.Point:
		code := EncodePoint(v.Lon, v.Lat)
		putUintLE(row, code)
		cb.trackMinMax(v.Lon)
	case schema.F32, schema.F64:
		putFloatLE(row, v.Float, cb.width)
		cb.trackMinMax(v.Float)
	default: // integer-family, Timestamp
		putUintLE(row, uint64(v.Int))
		cb.trackMinMax(float64(v.Int))
	}
	return nil
}

func (cb *ColumnBuilder) trackMinMax(x float64) {
	if !cb.hasMin {
		cb.min, cb.max, cb.hasMin = x, x, true
		return
	}
	if x < cb.min {
		cb.min = x
	}
	if x > cb.max {
		cb.max = x
	}
}

// Bytes returns the accumulated column.
func (cb *ColumnBuilder) Bytes() []byte {
	return cb.data
}

// MinMax returns the observed numeric range and whether any value was
// tracked (always false for String fields; for Point fields the range is
// that of the longitude).
func (cb *ColumnBuilder) MinMax() (min, max float64, ok bool) {
	return cb.min, cb.max, cb.hasMin
}

func putUintLE(buf []byte, v uint64) {
	for i := range buf {
		buf[i] = byte(v >> (8 * i))
	}
}

func putFloatLE(buf []byte, v float64, width int) {
	if width == 4 {
		putUintLE(buf, uint64(math.Float32bits(float32(v))))
		return
	}
	putUintLE(buf, math.Float64bits(v))
}
