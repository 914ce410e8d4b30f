package table

import "sort"

// Partition is the set of rows sharing one combination of partition column
// values. Values is aligned with the columns passed to PartitionBy.
type Partition struct {
	Values []any
	Table  *Table
}

// PartitionBy groups rows by the distinct value combinations of cols. Rows
// keep every column, including the partition columns; partitions are returned
// ordered by their values (nulls first) so writers produce a stable layout.
func (t *Table) PartitionBy(cols ...string) ([]Partition, error) {
	if len(cols) == 0 {
		return []Partition{{Table: t}}, nil
	}
	idx := make([]int, len(cols))
	for i, c := range cols {
		if idx[i] = t.Schema.Index(c); idx[i] < 0 {
			return nil, &UnknownColumnError{Name: c}
		}
	}

	groups := make(map[string]*Partition)
	var order []*Partition
	var buf []byte
	for _, r := range t.Rows {
		buf = buf[:0]
		vals := make([]any, len(idx))
		for i, j := range idx {
			vals[i] = r[j]
			buf = appendValueKey(buf, r[j])
		}
		p, ok := groups[string(buf)]
		if !ok {
			p = &Partition{Values: vals, Table: &Table{Schema: t.Schema}}
			groups[string(buf)] = p
			order = append(order, p)
		}
		p.Table.Rows = append(p.Table.Rows, r)
	}

	sort.SliceStable(order, func(a, b int) bool {
		va, vb := order[a].Values, order[b].Values
		for i := range va {
			if c := Compare(va[i], vb[i]); c != 0 {
				return c < 0
			}
		}
		return false
	})

	out := make([]Partition, len(order))
	for i, p := range order {
		out[i] = *p
	}
	return out, nil
}
