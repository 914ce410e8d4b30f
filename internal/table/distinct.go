package table

import (
	"encoding/binary"
	"math"

	"github.com/zeebo/xxh3"
)

// Distinct removes exact-duplicate rows (every column equal, nulls equal to
// each other), keeping the first occurrence and preserving input order.
//
// Rows are bucketed by an xxh3 fingerprint of their encoded values and then
// compared value-by-value, so a hash collision never merges distinct rows.
func (t *Table) Distinct() *Table {
	out := &Table{Schema: t.Schema, Rows: make([]Row, 0, len(t.Rows))}
	buckets := make(map[uint64][]int, len(t.Rows))
	var buf []byte

	for _, r := range t.Rows {
		buf = appendRowKey(buf[:0], r)
		h := xxh3.Hash(buf)

		dup := false
		for _, j := range buckets[h] {
			if rowsEqual(out.Rows[j], r) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		buckets[h] = append(buckets[h], len(out.Rows))
		out.Rows = append(out.Rows, r)
	}
	return out
}

// appendRowKey encodes r into a self-delimiting byte form: a type tag per
// value followed by a fixed-width or length-prefixed payload.
func appendRowKey(b []byte, r Row) []byte {
	for _, v := range r {
		b = appendValueKey(b, v)
	}
	return b
}

func appendValueKey(b []byte, v any) []byte {
	switch x := v.(type) {
	case nil:
		return append(b, 0)
	case int64:
		b = append(b, 1)
		return binary.LittleEndian.AppendUint64(b, uint64(x))
	case float64:
		b = append(b, 2)
		return binary.LittleEndian.AppendUint64(b, math.Float64bits(x))
	case string:
		b = append(b, 3)
		b = binary.AppendUvarint(b, uint64(len(x)))
		return append(b, x...)
	case bool:
		if x {
			return append(b, 4, 1)
		}
		return append(b, 4, 0)
	default:
		s := stringify(x)
		b = append(b, 5)
		b = binary.AppendUvarint(b, uint64(len(s)))
		return append(b, s...)
	}
}

func rowsEqual(a, b Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !valuesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case int64, float64, string, bool:
		return a == b
	default:
		if b == nil {
			return false
		}
		return stringify(x) == stringify(b)
	}
}
