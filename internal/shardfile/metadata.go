package shardfile

// LevelMeta describes one sealed level's document count and payload
// framing, recorded in index.json (spec.md §6).
type LevelMeta struct {
	DocCount    int  `json:"doc_count"`
	SingleField bool `json:"single_field"`
}

// IndexMeta is the whole-shard index.json sidecar: level bookkeeping
// plus the shard's position in the router's shard set.
type IndexMeta struct {
	ShardIndex       int               `json:"shard_index"`
	ShardCount       int               `json:"shard_count"`
	Levels           []LevelMeta       `json:"levels"`
	TotalDocs        int               `json:"total_docs"`
	DeletedCount     int               `json:"deleted_count"`
	FieldTokenTotals map[string]uint64 `json:"field_token_totals,omitempty"`
}

// FacetFieldMeta mirrors facetstore.FieldMeta for JSON persistence,
// duplicated here (rather than imported) because facet.json's shape is
// index.json's sibling file, not facetstore's internal concern.
type FacetFieldMeta struct {
	Field     string   `json:"field"`
	Dict      []string `json:"dict,omitempty"`
	Min       float64  `json:"min"`
	Max       float64  `json:"max"`
	HasMinMax bool     `json:"has_min_max"`
}

// FacetMeta is the whole-shard facet.json sidecar.
type FacetMeta struct {
	Fields []FacetFieldMeta `json:"fields"`
}
