// Package builtin contains simple, reusable table transformers.
package builtin

import "datalake/internal/table"

// Require removes any row with a null value in one of Fields.
type Require struct {
	Fields []string
}

// Apply returns only the rows that have every required field set. Coercion
// has already turned empty strings into nulls.
func (r Require) Apply(in *table.Table) (*table.Table, error) {
	idx := make([]int, len(r.Fields))
	for i, f := range r.Fields {
		if idx[i] = in.Schema.Index(f); idx[i] < 0 {
			return nil, &table.UnknownColumnError{Name: f}
		}
	}
	return in.Filter(func(row table.Row) bool {
		for _, i := range idx {
			if row[i] == nil {
				return false
			}
		}
		return true
	}), nil
}

// Distinct removes exact-duplicate rows.
type Distinct struct{}

// Apply delegates to table.Distinct.
func (Distinct) Apply(in *table.Table) (*table.Table, error) { return in.Distinct(), nil }

// Equals keeps rows whose Field equals Value.
type Equals struct {
	Field string
	Value any
}

// Apply filters on the configured field.
func (e Equals) Apply(in *table.Table) (*table.Table, error) {
	return in.Where(e.Field, func(v any) bool { return v == e.Value })
}
