// Package json decodes raw JSON input files into records.Record values.
//
// Three layouts are accepted, and may be mixed within one stream:
//
//   - a single object per file (the song catalog layout)
//   - newline-delimited objects (the usage log layout)
//   - a top-level array of objects, when AllowArrays is set
//
// When Envelope names a field, objects carrying an array under that field are
// unwrapped into their elements, e.g. {"records":[{...},{...}]}.
package json

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"datalake/internal/config"
	"datalake/pkg/records"
)

// Options controls which top-level layouts are accepted.
type Options struct {
	AllowArrays bool
	Envelope    string
}

// FromConfigOptions reads "allow_arrays" and "envelope" from a generic
// options map.
func FromConfigOptions(o config.Options) Options {
	return Options{
		AllowArrays: o.Bool("allow_arrays", true),
		Envelope:    o.String("envelope", ""),
	}
}

// Decoder yields one record per call to Next.
type Decoder struct {
	dec     *json.Decoder
	opt     Options
	pending []records.Record
}

// ErrInvalidUTF8 is returned when the input is not valid UTF-8. Bytes are
// never replaced, since dedup and join keys compare strings exactly.
var ErrInvalidUTF8 = encoding.ErrInvalidUTF8

// NewDecoder wraps r. A leading byte order mark is consumed (UTF-16 input is
// transcoded) and invalid UTF-8 fails the decode with ErrInvalidUTF8.
// Numbers are kept as json.Number so that coercion can decide between integer
// and float without precision loss on ms timestamps.
func NewDecoder(r io.Reader, opt Options) *Decoder {
	r = transform.NewReader(r, transform.Chain(unicode.BOMOverride(transform.Nop), encoding.UTF8Validator))
	d := json.NewDecoder(r)
	d.UseNumber()
	return &Decoder{dec: d, opt: opt}
}

// Next returns the next record, or io.EOF when the stream is exhausted.
func (d *Decoder) Next() (records.Record, error) {
	for len(d.pending) == 0 {
		var raw any
		if err := d.dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("json parser: decode: %w", err)
		}
		recs, err := d.expand(raw)
		if err != nil {
			return nil, err
		}
		d.pending = recs
	}
	rec := d.pending[0]
	d.pending = d.pending[1:]
	return rec, nil
}

func (d *Decoder) expand(raw any) ([]records.Record, error) {
	switch v := raw.(type) {
	case map[string]any:
		if d.opt.Envelope != "" {
			if inner, ok := v[d.opt.Envelope].([]any); ok {
				return objects(inner, d.opt.Envelope)
			}
		}
		return []records.Record{records.Record(v)}, nil
	case []any:
		if !d.opt.AllowArrays {
			return nil, fmt.Errorf("json parser: top-level array encountered but allow_arrays=false")
		}
		return objects(v, "array")
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("json parser: unsupported top-level JSON type %T", v)
	}
}

func objects(vals []any, where string) ([]records.Record, error) {
	out := make([]records.Record, 0, len(vals))
	for i, elem := range vals {
		obj, ok := elem.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("json parser: element %d in %s is not an object", i, where)
		}
		out = append(out, records.Record(obj))
	}
	return out, nil
}

// DecodeAll reads every record from r.
func DecodeAll(r io.Reader, opt Options) ([]records.Record, error) {
	dec := NewDecoder(r, opt)
	var out []records.Record
	for {
		rec, err := dec.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, err
		}
		out = append(out, rec)
	}
}

// DecodeBytes is DecodeAll over an in-memory buffer.
func DecodeBytes(b []byte, opt Options) ([]records.Record, error) {
	return DecodeAll(bytes.NewReader(b), opt)
}
