package builtin

import (
	"fmt"
	"sort"
	"strings"

	"datalake/internal/table"
)

// DeDup collapses rows sharing the same business key and chooses a winner
// according to Policy:
//
//   - "keep-first"   : keep the earliest occurrence
//   - "keep-last"    : keep the latest occurrence (default)
//   - "most-complete": keep the row with the most non-null fields; ties break
//     by keep-last
//
// When OrderBy names a column, "earliest" and "latest" refer to that column's
// value (stable for ties) instead of input position. This is what resolves a
// user's level to the one carried by their most recent event.
//
// Rows with a null key field cannot be keyed; they are passed through after
// the winners, in input order.
type DeDup struct {
	Keys    []string
	Policy  string
	OrderBy string
}

// Apply executes the de-duplication. Winners are emitted in the order of
// their winning position.
func (d DeDup) Apply(in *table.Table) (*table.Table, error) {
	if in.Len() == 0 || len(d.Keys) == 0 {
		return in, nil
	}

	policy := strings.ToLower(strings.TrimSpace(d.Policy))
	switch policy {
	case "":
		policy = "keep-last"
	case "keep-first", "keep-last", "most-complete":
	default:
		return nil, fmt.Errorf("dedup: unknown policy %q", d.Policy)
	}

	src := in
	if d.OrderBy != "" {
		var err error
		if src, err = in.SortStable(d.OrderBy); err != nil {
			return nil, fmt.Errorf("dedup: %w", err)
		}
	}

	keyIdx := make([]int, len(d.Keys))
	for i, k := range d.Keys {
		if keyIdx[i] = src.Schema.Index(k); keyIdx[i] < 0 {
			return nil, &table.UnknownColumnError{Name: k}
		}
	}

	type slot struct {
		index int
		score int
	}
	winners := make(map[string]slot, src.Len())
	var passthrough []int

	keyOf := func(r table.Row) (string, bool) {
		var b strings.Builder
		for n, i := range keyIdx {
			v := r[i]
			if v == nil {
				return "", false
			}
			if n > 0 {
				b.WriteByte('\x1f')
			}
			b.WriteString(fmt.Sprint(v))
		}
		return b.String(), true
	}

	scoreOf := func(r table.Row) int {
		score := 0
		for _, v := range r {
			if v != nil {
				score++
			}
		}
		return score
	}

	for i, r := range src.Rows {
		key, ok := keyOf(r)
		if !ok {
			passthrough = append(passthrough, i)
			continue
		}
		switch policy {
		case "keep-first":
			if _, exists := winners[key]; !exists {
				winners[key] = slot{index: i}
			}
		case "most-complete":
			s := slot{index: i, score: scoreOf(r)}
			if prev, exists := winners[key]; !exists || s.score >= prev.score {
				winners[key] = s
			}
		default: // keep-last
			winners[key] = slot{index: i}
		}
	}

	indexes := make([]int, 0, len(winners))
	for _, s := range winners {
		indexes = append(indexes, s.index)
	}
	sort.Ints(indexes)

	out := &table.Table{Schema: src.Schema, Rows: make([]table.Row, 0, len(indexes)+len(passthrough))}
	for _, i := range indexes {
		out.Rows = append(out.Rows, src.Rows[i])
	}
	for _, i := range passthrough {
		out.Rows = append(out.Rows, src.Rows[i])
	}
	return out, nil
}
