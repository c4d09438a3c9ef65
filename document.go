package searchdex

// Document is one decoded record returned by the store. Field values carry
// the type their FieldSpec declares: numeric fields decode to float64,
// vectors (when explicitly requested) to []float64, everything else stays a
// string. The document owns its data; no handle to the raw response remains.
type Document struct {
	Key    string
	Fields map[string]any

	// Distance is set when the originating query was similarity-based.
	Distance    float64
	HasDistance bool
}

// Get returns the decoded value of a field.
func (d Document) Get(name string) (any, bool) {
	v, ok := d.Fields[name]
	return v, ok
}

// Str returns a field as a string, or "" when absent or not a string.
func (d Document) Str(name string) string {
	if s, ok := d.Fields[name].(string); ok {
		return s
	}
	return ""
}

// Float returns a numeric field value.
func (d Document) Float(name string) (float64, bool) {
	f, ok := d.Fields[name].(float64)
	return f, ok
}

// Vector returns a decoded vector field value.
func (d Document) Vector(name string) ([]float64, bool) {
	v, ok := d.Fields[name].([]float64)
	return v, ok
}

// Result is an ordered search response. Docs preserve store ordering exactly;
// ranking is the store's responsibility.
type Result struct {
	Total int
	Docs  []Document
}
