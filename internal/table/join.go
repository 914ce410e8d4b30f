package table

import (
	"fmt"
	"strings"
)

// JoinKey pairs a left column with the right column it must equal.
type JoinKey struct {
	Left  string
	Right string
}

// InnerJoin returns every (left, right) row pair whose key columns are all
// equal. Output columns are the left schema followed by the right schema;
// a column name present on both sides is an error, so callers project before
// joining.
//
// Null never equals anything, including another null. Output order follows
// the left input, and for a left row with several matches, the right input.
func InnerJoin(left, right *Table, on ...JoinKey) (*Table, error) {
	if len(on) == 0 {
		return nil, fmt.Errorf("table: join requires at least one key")
	}
	for _, c := range right.Schema {
		if left.Schema.Index(c.Name) >= 0 {
			return nil, fmt.Errorf("table: join: column %q exists on both sides", c.Name)
		}
	}

	li := make([]int, len(on))
	ri := make([]int, len(on))
	for k, key := range on {
		if li[k] = left.Schema.Index(key.Left); li[k] < 0 {
			return nil, &UnknownColumnError{Name: key.Left}
		}
		if ri[k] = right.Schema.Index(key.Right); ri[k] < 0 {
			return nil, &UnknownColumnError{Name: key.Right}
		}
	}

	// Build side: right.
	index := make(map[string][]Row, len(right.Rows))
	for _, r := range right.Rows {
		k, ok := joinKey(r, ri)
		if !ok {
			continue
		}
		index[k] = append(index[k], r)
	}

	schema := make(Schema, 0, len(left.Schema)+len(right.Schema))
	schema = append(schema, left.Schema...)
	schema = append(schema, right.Schema...)
	out := &Table{Schema: schema}

	for _, l := range left.Rows {
		k, ok := joinKey(l, li)
		if !ok {
			continue
		}
		for _, r := range index[k] {
			nr := make(Row, 0, len(schema))
			nr = append(nr, l...)
			nr = append(nr, r...)
			out.Rows = append(out.Rows, nr)
		}
	}
	return out, nil
}

// joinKey renders the key columns of r; ok is false when any is null.
func joinKey(r Row, idx []int) (string, bool) {
	var b strings.Builder
	for n, i := range idx {
		v := r[i]
		if v == nil {
			return "", false
		}
		if n > 0 {
			b.WriteByte('\x1f')
		}
		switch t := v.(type) {
		case string:
			b.WriteByte('s')
			b.WriteString(t)
		default:
			b.WriteByte('v')
			b.WriteString(stringify(t))
		}
	}
	return b.String(), true
}

func stringify(v any) string {
	return fmt.Sprint(v)
}
