// Package table is the in-memory tabular representation the pipeline moves
// between stages. A Table is a typed Schema plus positional rows: Row[i]
// always corresponds to Schema[i], the same "columns -> row values" contract
// the parsers and loaders share.
//
// Values held in a row are normalized to a small set of Go types:
//
//	Text  -> string
//	Int   -> int64
//	Float -> float64
//
// and nil for SQL-style NULL. Operators never mutate their receiver; they
// return a new Table that may share row slices with the input.
package table

import (
	"fmt"
	"strings"
)

// Type is the logical type of a column.
type Type uint8

const (
	Text Type = iota
	Int
	Float
)

// String returns the config spelling of t ("text", "int", "float").
func (t Type) String() string {
	switch t {
	case Int:
		return "int"
	case Float:
		return "float"
	default:
		return "text"
	}
}

// ParseType maps a config spelling to a Type. Empty means text.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "string":
		return Text, nil
	case "int", "integer", "bigint", "long":
		return Int, nil
	case "float", "double", "real":
		return Float, nil
	default:
		return Text, fmt.Errorf("table: unknown column type %q", s)
	}
}

// Column is a named, typed column.
type Column struct {
	Name string
	Type Type
}

// Schema is the ordered column list of a table.
type Schema []Column

// Names returns the column names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of name, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Lookup returns the column called name.
func (s Schema) Lookup(name string) (Column, bool) {
	if i := s.Index(name); i >= 0 {
		return s[i], true
	}
	return Column{}, false
}

// Row is one positional row aligned with a Schema.
type Row []any

// Table is a schema plus rows.
type Table struct {
	Schema Schema
	Rows   []Row
}

// New returns a table with the given schema and rows.
func New(schema Schema, rows ...Row) *Table {
	return &Table{Schema: schema, Rows: rows}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Value returns row i's value for column name, or nil if the column does not
// exist.
func (t *Table) Value(i int, name string) any {
	idx := t.Schema.Index(name)
	if idx < 0 {
		return nil
	}
	return t.Rows[i][idx]
}

// Column returns every value of the named column in row order.
func (t *Table) Column(name string) ([]any, error) {
	idx := t.Schema.Index(name)
	if idx < 0 {
		return nil, &UnknownColumnError{Name: name}
	}
	out := make([]any, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[idx]
	}
	return out, nil
}

// UnknownColumnError reports a reference to a column missing from a schema.
type UnknownColumnError struct {
	Name string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("table: unknown column %q", e.Name)
}
