package schema

// Value is a tagged field value. Exactly one of the typed members is
// meaningful, selected by Type. Modeled as a sum type per spec.md §9
// ("Polymorphism of field value... expressed as tagged variants rather
// than an inheritance hierarchy").
type Value struct {
	Type FieldType

	Text   string // Text, String16, String32, Json (raw JSON text)
	Int    int64  // U8..U64, I8..I64, Timestamp (unix nanos)
	Float  float64
	Lon    float64 // Point
	Lat    float64 // Point
}

func TextValue(s string) Value     { return Value{Type: Text, Text: s} }
func StringValue(s string) Value   { return Value{Type: String16, Text: s} }
func JsonValue(raw string) Value   { return Value{Type: Json, Text: raw} }
func IntValue(t FieldType, v int64) Value {
	return Value{Type: t, Int: v}
}
func FloatValue(t FieldType, v float64) Value {
	return Value{Type: t, Float: v}
}
func TimestampValue(unixNano int64) Value {
	return Value{Type: Timestamp, Int: unixNano}
}
func PointValue(lon, lat float64) Value {
	return Value{Type: Point, Lon: lon, Lat: lat}
}

// Document is an ordered field-name -> value map, matching spec.md §3's
// "ordered map field-name -> value".
type Document struct {
	names  []string
	values map[string]Value
}

// NewDocument builds an empty Document.
func NewDocument() *Document {
	return &Document{values: make(map[string]Value)}
}

// Set assigns a field value, preserving first-insertion order.
func (d *Document) Set(field string, v Value) *Document {
	if _, exists := d.values[field]; !exists {
		d.names = append(d.names, field)
	}
	d.values[field] = v
	return d
}

// Get returns the value of a field and whether it was set.
func (d *Document) Get(field string) (Value, bool) {
	v, ok := d.values[field]
	return v, ok
}

// Fields returns the set field names in insertion order.
func (d *Document) Fields() []string {
	return d.names
}
