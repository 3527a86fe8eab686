package facetstore

import (
	"fmt"
	"math"

	"github.com/faithsearch/litsearch/internal/errs"
	"github.com/faithsearch/litsearch/schema"
)

// Column is a read-only, fixed-width facet column backed by raw bytes —
// typically an mmap'd slice of facet.bin (spec.md §4.7 access modes),
// but equally an in-RAM slice when the index is opened without mmap.
type Column struct {
	field schema.Field
	width int
	data  []byte
	dict  []string // String16/String32 only
	min   float64
	max   float64
}

func NewColumn(field schema.Field, data []byte, dict []string, min, max float64) *Column {
	return &Column{field: field, width: field.Type.FacetWidth(), data: data, dict: dict, min: min, max: max}
}

func (c *Column) MinMax() (float64, float64) { return c.min, c.max }

// Bytes returns the column's raw row-major bytes, for resuming a
// ColumnBuilder from an already-persisted trailing level (spec.md §4.6).
func (c *Column) Bytes() []byte { return c.data }

func (c *Column) row(offset uint16) ([]byte, error) {
	start := int(offset) * c.width
	end := start + c.width
	if end > len(c.data) {
		return nil, fmt.Errorf("%w: facet column offset out of range", errs.ErrDocIDInvalid)
	}
	return c.data[start:end], nil
}

// Uint returns a row's raw little-endian value, valid for every column
// type (dictionary code, Morton code, or numeric bit pattern).
func (c *Column) Uint(offset uint16) (uint64, error) {
	row, err := c.row(offset)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i, b := range row {
		v |= uint64(b) << (8 * i)
	}
	return v, nil
}

// Int returns a row decoded as a signed integer of the column's width.
func (c *Column) Int(offset uint16) (int64, error) {
	u, err := c.Uint(offset)
	if err != nil {
		return 0, err
	}
	switch c.width {
	case 1:
		return int64(int8(u)), nil
	case 2:
		return int64(int16(u)), nil
	case 4:
		return int64(int32(u)), nil
	default:
		return int64(u), nil
	}
}

// Float returns a row decoded as F32 or F64.
func (c *Column) Float(offset uint16) (float64, error) {
	u, err := c.Uint(offset)
	if err != nil {
		return 0, err
	}
	if c.width == 4 {
		return float64(math.Float32frombits(uint32(u))), nil
	}
	return math.Float64frombits(u), nil
}

// String resolves a String16/String32 row through the column's
// dictionary.
func (c *Column) String(offset uint16) (string, error) {
	u, err := c.Uint(offset)
	if err != nil {
		return "", err
	}
	if int(u) >= len(c.dict) {
		return "", fmt.Errorf("%w: facet dictionary code out of range", errs.ErrCorruptContainer)
	}
	return c.dict[u], nil
}

// Point decodes a row's Morton code back to (lon, lat).
func (c *Column) Point(offset uint16) (lon, lat float64, err error) {
	u, err := c.Uint(offset)
	if err != nil {
		return 0, 0, err
	}
	lon, lat = DecodePoint(u)
	return lon, lat, nil
}

// NumRows returns how many documents this column currently covers.
func (c *Column) NumRows() int {
	if c.width == 0 {
		return 0
	}
	return len(c.data) / c.width
}
