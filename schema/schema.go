package schema

import "fmt"

// Schema is the ordered list of fields an index accepts.
type Schema struct {
	Fields []Field

	byName       map[string]int
	longestField int // index into Fields, -1 if none eligible
}

// New builds a Schema from an ordered field list and auto-detects the
// "longest" field when none is explicitly flagged.
//
// Ties in auto-detection resolve to the lowest-indexed eligible field
// (spec.md §9 Open Questions: "pick the lowest-indexed eligible field").
func New(fields ...Field) (*Schema, error) {
	s := &Schema{
		Fields:       fields,
		byName:       make(map[string]int, len(fields)),
		longestField: -1,
	}
	explicit := -1
	for i, f := range fields {
		if _, dup := s.byName[f.Name]; dup {
			return nil, fmt.Errorf("schema: duplicate field name %q", f.Name)
		}
		s.byName[f.Name] = i
		if f.Flags.Longest {
			if explicit != -1 {
				return nil, fmt.Errorf("schema: more than one field flagged Longest (%q and %q)", fields[explicit].Name, f.Name)
			}
			explicit = i
		}
	}
	if explicit != -1 {
		s.longestField = explicit
	} else {
		for i, f := range fields {
			if f.Flags.Indexed && f.Type == Text {
				s.longestField = i
				break
			}
		}
	}
	return s, nil
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (Field, int, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, -1, false
	}
	return s.Fields[i], i, true
}

// LongestField returns the index of the primary length-normalization
// field, or -1 if the schema has no eligible indexed text field.
func (s *Schema) LongestField() int {
	return s.longestField
}

// IndexedFields returns the indices of all indexed fields, in schema order.
func (s *Schema) IndexedFields() []int {
	var out []int
	for i, f := range s.Fields {
		if f.Flags.Indexed {
			out = append(out, i)
		}
	}
	return out
}

// FacetFields returns the indices of all faceted fields, in schema order.
func (s *Schema) FacetFields() []int {
	var out []int
	for i, f := range s.Fields {
		if f.Flags.Facet {
			out = append(out, i)
		}
	}
	return out
}
