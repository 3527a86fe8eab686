package facetstore

// FieldMeta is one facet field's facet.json entry (spec.md §6: "per-field
// string dictionaries and observed min/max for numeric fields").
type FieldMeta struct {
	Field     string   `json:"field"`
	Dict      []string `json:"dict,omitempty"`
	Min       float64  `json:"min,omitempty"`
	Max       float64  `json:"max,omitempty"`
	HasMinMax bool     `json:"has_min_max,omitempty"`
}

// Metadata is the full facet.json document: one FieldMeta per faceted
// schema field, plus the byte offset of each field's column within the
// concatenated facet.bin (spec.md §6: "concatenated fixed-width columns,
// one per facet field, row-major by doc ID").
type Metadata struct {
	Fields       []FieldMeta      `json:"fields"`
	ColumnOffset map[string]int64 `json:"column_offset"`
	ColumnWidth  map[string]int   `json:"column_width"`
}
