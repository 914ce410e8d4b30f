// Package transformer turns schema-on-read records into typed tables and
// hosts the table-level transformer chain used by the star-schema stages.
//
// Coercion is compiled once per schema into a per-column plan of small
// closures, so the per-row loop does no map lookups beyond reading the record
// field itself.
package transformer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"datalake/internal/table"
	"datalake/pkg/records"
)

// CoerceError reports a raw value that cannot be represented as its column's
// declared type. It is fatal for the batch: rows are never dropped silently.
type CoerceError struct {
	Column string
	Type   table.Type
	Value  any
	Err    error
}

func (e *CoerceError) Error() string {
	return fmt.Sprintf("coerce %s to %s: value %#v: %v", e.Column, e.Type, e.Value, e.Err)
}

func (e *CoerceError) Unwrap() error { return e.Err }

// coerceFn converts one raw value into its normalized representation.
type coerceFn func(raw any) (any, error)

// compiledPlan holds one coercer per schema column.
type compiledPlan struct {
	names  []string
	coerce []coerceFn
}

func compilePlan(schema table.Schema) compiledPlan {
	p := compiledPlan{
		names:  schema.Names(),
		coerce: make([]coerceFn, len(schema)),
	}
	for i, c := range schema {
		switch c.Type {
		case table.Int:
			p.coerce[i] = toInt
		case table.Float:
			p.coerce[i] = toFloat
		default:
			p.coerce[i] = toText
		}
	}
	return p
}

// ToTable projects recs onto schema, coercing every value. Fields missing
// from a record become null; fields not in the schema are ignored.
func ToTable(recs []records.Record, schema table.Schema) (*table.Table, error) {
	plan := compilePlan(schema)
	out := &table.Table{Schema: schema, Rows: make([]table.Row, len(recs))}
	for r, rec := range recs {
		row := make(table.Row, len(schema))
		for i, name := range plan.names {
			raw, ok := rec[name]
			if !ok {
				continue
			}
			v, err := plan.coerce[i](raw)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", r, &CoerceError{
					Column: name,
					Type:   schema[i].Type,
					Value:  raw,
					Err:    err,
				})
			}
			row[i] = v
		}
		out.Rows[r] = row
	}
	return out, nil
}

// Coerce converts a single raw value to typ using the same rules as ToTable.
func Coerce(raw any, typ table.Type) (any, error) {
	switch typ {
	case table.Int:
		return toInt(raw)
	case table.Float:
		return toFloat(raw)
	default:
		return toText(raw)
	}
}

// toText keeps strings verbatim (no trimming, join keys are exact) and maps
// the empty string to null.
func toText(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return v, nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case int:
		return strconv.Itoa(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", raw)
	}
}

func toInt(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		return parseInt(s)
	case json.Number:
		return parseInt(v.String())
	case float64:
		if v != float64(int64(v)) {
			return nil, fmt.Errorf("non-integral number")
		}
		return int64(v), nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", raw)
	}
}

func toFloat(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		return strconv.ParseFloat(s, 64)
	case json.Number:
		return v.Float64()
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", raw)
	}
}

// parseInt accepts plain integers and integral floats such as "42.0" or
// "1.542837407796e12"; anything with a fractional part is rejected.
func parseInt(s string) (any, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	if strings.ContainsAny(s, ".eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		if f != float64(int64(f)) {
			return nil, fmt.Errorf("non-integral number %q", s)
		}
		return int64(f), nil
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return nil, err
}
