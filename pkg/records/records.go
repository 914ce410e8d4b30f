// Package records defines the schema-on-read record shape shared by parsers
// and the datasource layer.
package records

// Record is one decoded JSON object keyed by field name. Values are whatever
// encoding/json produced (string, json.Number, bool, nil, nested maps/slices).
type Record map[string]any

// Get returns the value for field and whether it was present. A field that is
// present with a JSON null value reports (nil, true).
func (r Record) Get(field string) (any, bool) {
	v, ok := r[field]
	return v, ok
}
