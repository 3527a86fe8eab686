// Package schema describes the shape of documents an index accepts: an
// ordered list of typed, flagged fields.
package schema

import "fmt"

// FieldType is the logical type of a field's value.
type FieldType uint8

const (
	Text FieldType = iota
	String16
	String32
	U8
	U16
	U32
	U64
	I8
	I16
	I32
	I64
	F32
	F64
	Point
	Timestamp
	Json
)

func (t FieldType) String() string {
	switch t {
	case Text:
		return "Text"
	case String16:
		return "String16"
	case String32:
		return "String32"
	case U8, U16, U32, U64, I8, I16, I32, I64, F32, F64:
		return fmt.Sprintf("Numeric(%d)", t)
	case Point:
		return "Point"
	case Timestamp:
		return "Timestamp"
	case Json:
		return "Json"
	default:
		return "Unknown"
	}
}

// IsNumeric reports whether the type is stored as a native little-endian
// numeric facet column.
func (t FieldType) IsNumeric() bool {
	switch t {
	case U8, U16, U32, U64, I8, I16, I32, I64, F32, F64, Timestamp:
		return true
	default:
		return false
	}
}

// IsString reports whether the type uses a facet.json dictionary.
func (t FieldType) IsString() bool {
	return t == String16 || t == String32
}

// FacetWidth returns the on-disk width in bytes of one row of this type's
// facet column, or 0 if the type is never faceted directly (Text/Json).
func (t FieldType) FacetWidth() int {
	switch t {
	case U8, I8:
		return 1
	case U16, I16, String16:
		return 2
	case U32, I32, F32, String32:
		return 4
	case U64, I64, F64, Timestamp, Point:
		return 8
	default:
		return 0
	}
}

// Flags are the per-field storage/indexing toggles from spec.md §3.
type Flags struct {
	Stored  bool
	Indexed bool
	Facet   bool
	Longest bool
}

// Field is one entry of a Schema.
type Field struct {
	Name  string
	Type  FieldType
	Flags Flags
	Boost float64
}

// Option configures a Field at construction time.
type Option func(*Field)

// Stored marks the field as retained verbatim in the document store.
func Stored() Option { return func(f *Field) { f.Flags.Stored = true } }

// Indexed marks the field as tokenized (Text/Json) or as a direct term
// (other types) and added to the inverted index.
func Indexed() Option { return func(f *Field) { f.Flags.Indexed = true } }

// Faceted marks the field as additionally stored in a fixed-width facet
// column for counting/filtering/sorting.
func Faceted() Option { return func(f *Field) { f.Flags.Facet = true } }

// Longest explicitly designates this field as the length-normalization
// target; at most one field in a Schema may carry this flag.
func Longest() Option { return func(f *Field) { f.Flags.Longest = true } }

// Boost sets the field's BM25F boost factor; the zero value defaults to 1.0
// when the schema is built.
func Boost(b float64) Option { return func(f *Field) { f.Boost = b } }

// NewField builds a Field, applying options in order.
func NewField(name string, typ FieldType, opts ...Option) Field {
	f := Field{Name: name, Type: typ, Boost: 1.0}
	for _, opt := range opts {
		opt(&f)
	}
	if f.Boost == 0 {
		f.Boost = 1.0
	}
	return f
}
