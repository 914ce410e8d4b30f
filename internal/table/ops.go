package table

import (
	"cmp"
	"fmt"
	"sort"
)

// Projection selects column From and names it As in the output.
type Projection struct {
	From string
	As   string
}

// Col projects a column under its own name.
func Col(name string) Projection { return Projection{From: name, As: name} }

// Alias projects column from under a new name.
func Alias(from, as string) Projection { return Projection{From: from, As: as} }

// Select projects the given columns, renaming where requested.
func (t *Table) Select(cols ...Projection) (*Table, error) {
	idx := make([]int, len(cols))
	schema := make(Schema, len(cols))
	seen := make(map[string]struct{}, len(cols))
	for i, p := range cols {
		j := t.Schema.Index(p.From)
		if j < 0 {
			return nil, &UnknownColumnError{Name: p.From}
		}
		as := p.As
		if as == "" {
			as = p.From
		}
		if _, dup := seen[as]; dup {
			return nil, fmt.Errorf("table: duplicate output column %q", as)
		}
		seen[as] = struct{}{}
		idx[i] = j
		schema[i] = Column{Name: as, Type: t.Schema[j].Type}
	}

	out := &Table{Schema: schema, Rows: make([]Row, len(t.Rows))}
	for r, row := range t.Rows {
		nr := make(Row, len(idx))
		for i, j := range idx {
			nr[i] = row[j]
		}
		out.Rows[r] = nr
	}
	return out, nil
}

// Drop returns the table without the named columns. Unknown names are an
// error.
func (t *Table) Drop(names ...string) (*Table, error) {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		if t.Schema.Index(n) < 0 {
			return nil, &UnknownColumnError{Name: n}
		}
		drop[n] = struct{}{}
	}
	keep := make([]Projection, 0, len(t.Schema))
	for _, c := range t.Schema {
		if _, ok := drop[c.Name]; !ok {
			keep = append(keep, Col(c.Name))
		}
	}
	return t.Select(keep...)
}

// Filter keeps rows for which pred returns true.
func (t *Table) Filter(pred func(Row) bool) *Table {
	out := &Table{Schema: t.Schema, Rows: make([]Row, 0, len(t.Rows))}
	for _, r := range t.Rows {
		if pred(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Where is Filter on a single column's value.
func (t *Table) Where(name string, pred func(v any) bool) (*Table, error) {
	i := t.Schema.Index(name)
	if i < 0 {
		return nil, &UnknownColumnError{Name: name}
	}
	return t.Filter(func(r Row) bool { return pred(r[i]) }), nil
}

// WithColumn appends a derived column computed from each row. fn errors abort
// the whole derivation.
func (t *Table) WithColumn(col Column, fn func(Row) (any, error)) (*Table, error) {
	if t.Schema.Index(col.Name) >= 0 {
		return nil, fmt.Errorf("table: column %q already exists", col.Name)
	}
	schema := make(Schema, len(t.Schema), len(t.Schema)+1)
	copy(schema, t.Schema)
	schema = append(schema, col)

	out := &Table{Schema: schema, Rows: make([]Row, len(t.Rows))}
	for i, r := range t.Rows {
		v, err := fn(r)
		if err != nil {
			return nil, fmt.Errorf("derive %s: row %d: %w", col.Name, i, err)
		}
		nr := make(Row, len(r), len(r)+1)
		copy(nr, r)
		out.Rows[i] = append(nr, v)
	}
	return out, nil
}

// SortStable orders rows by the named column ascending; nulls sort first and
// ties keep their input order.
func (t *Table) SortStable(name string) (*Table, error) {
	i := t.Schema.Index(name)
	if i < 0 {
		return nil, &UnknownColumnError{Name: name}
	}
	rows := make([]Row, len(t.Rows))
	copy(rows, t.Rows)
	sort.SliceStable(rows, func(a, b int) bool {
		return Compare(rows[a][i], rows[b][i]) < 0
	})
	return &Table{Schema: t.Schema, Rows: rows}, nil
}

// Compare orders two normalized values. nil sorts before everything; values
// of different types order by type (int < float < text).
func Compare(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	switch x := a.(type) {
	case int64:
		if y, ok := b.(int64); ok {
			return cmp.Compare(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmp.Compare(x, y)
		}
	case string:
		if y, ok := b.(string); ok {
			return cmp.Compare(x, y)
		}
	}
	return cmp.Compare(rank(a), rank(b))
}

func rank(v any) int {
	switch v.(type) {
	case int64:
		return 1
	case float64:
		return 2
	case string:
		return 3
	default:
		return 4
	}
}
