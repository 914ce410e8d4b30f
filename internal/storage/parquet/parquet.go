// Package parquet encodes tables as Parquet files and reads them back.
//
// Every column is written as an optional leaf: text as a UTF-8 byte array,
// int as INT64 and float as DOUBLE. Parquet groups order their fields by
// name, so the original column order is kept in the file's key/value
// metadata and restored on decode.
package parquet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"

	"datalake/internal/table"
)

// columnsKey holds the comma-separated column order.
const columnsKey = "datalake.columns"

// Codec names a compression codec: "snappy" (default), "zstd", "gzip" or
// "none".
func Codec(name string) (compress.Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "snappy":
		return &parquet.Snappy, nil
	case "zstd":
		return &parquet.Zstd, nil
	case "gzip":
		return &parquet.Gzip, nil
	case "none", "uncompressed":
		return &parquet.Uncompressed, nil
	default:
		return nil, fmt.Errorf("parquet: unknown compression %q", name)
	}
}

func leaf(t table.Type) parquet.Node {
	switch t {
	case table.Int:
		return parquet.Optional(parquet.Int(64))
	case table.Float:
		return parquet.Optional(parquet.Leaf(parquet.DoubleType))
	default:
		return parquet.Optional(parquet.String())
	}
}

// Schema maps a table schema to a Parquet schema.
func Schema(name string, s table.Schema) *parquet.Schema {
	g := make(parquet.Group, len(s))
	for _, c := range s {
		g[c.Name] = leaf(c.Type)
	}
	return parquet.NewSchema(name, g)
}

// Encode writes t as a single-row-group Parquet file.
func Encode(w io.Writer, name string, t *table.Table, codec compress.Codec) error {
	if len(t.Schema) == 0 {
		return fmt.Errorf("parquet: table %s has no columns", name)
	}
	schema := Schema(name, t.Schema)

	colIdx := make([]int, len(t.Schema))
	for i, c := range t.Schema {
		lc, ok := schema.Lookup(c.Name)
		if !ok {
			return fmt.Errorf("parquet: column %s missing from schema", c.Name)
		}
		colIdx[i] = lc.ColumnIndex
	}

	pw := parquet.NewWriter(w, schema,
		parquet.Compression(codec),
		parquet.KeyValueMetadata(columnsKey, strings.Join(t.Schema.Names(), ",")),
	)

	const batch = 1024
	buf := make([]parquet.Row, 0, batch)
	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		if _, err := pw.WriteRows(buf); err != nil {
			return fmt.Errorf("parquet: write rows: %w", err)
		}
		buf = buf[:0]
		return nil
	}
	for r, row := range t.Rows {
		pr := make(parquet.Row, len(row))
		for i, v := range row {
			pv, err := value(v, t.Schema[i].Type)
			if err != nil {
				return fmt.Errorf("parquet: row %d column %s: %w", r, t.Schema[i].Name, err)
			}
			if pv.IsNull() {
				pr[colIdx[i]] = pv.Level(0, 0, colIdx[i])
			} else {
				pr[colIdx[i]] = pv.Level(0, 1, colIdx[i])
			}
		}
		buf = append(buf, pr)
		if len(buf) == batch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("parquet: close: %w", err)
	}
	return nil
}

func value(v any, t table.Type) (parquet.Value, error) {
	if v == nil {
		return parquet.NullValue(), nil
	}
	switch t {
	case table.Int:
		if n, ok := v.(int64); ok {
			return parquet.Int64Value(n), nil
		}
	case table.Float:
		if f, ok := v.(float64); ok {
			return parquet.DoubleValue(f), nil
		}
	default:
		if s, ok := v.(string); ok {
			return parquet.ByteArrayValue([]byte(s)), nil
		}
	}
	return parquet.Value{}, fmt.Errorf("value %#v does not match column type %s", v, t)
}

// EncodeBytes is Encode into a fresh buffer.
func EncodeBytes(name string, t *table.Table, codec compress.Codec) ([]byte, error) {
	var b bytes.Buffer
	if err := Encode(&b, name, t, codec); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Decode reads every row group of a file written by Encode.
func Decode(r io.ReaderAt, size int64) (*table.Table, error) {
	f, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("parquet: open: %w", err)
	}
	schema := f.Schema()

	names := schema.Columns()
	order := make([]string, 0, len(names))
	if v, ok := f.Lookup(columnsKey); ok && v != "" {
		order = strings.Split(v, ",")
	} else {
		for _, path := range names {
			order = append(order, strings.Join(path, "."))
		}
	}

	out := &table.Table{Schema: make(table.Schema, len(order))}
	pos := make(map[int]int, len(order)) // parquet column index -> table column
	for i, name := range order {
		lc, ok := schema.Lookup(strings.Split(name, ".")...)
		if !ok {
			return nil, fmt.Errorf("parquet: column %s listed in metadata but not in schema", name)
		}
		out.Schema[i] = table.Column{Name: name, Type: typeOf(lc.Node)}
		pos[lc.ColumnIndex] = i
	}

	buf := make([]parquet.Row, 256)
	for _, rg := range f.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, pr := range buf[:n] {
				row := make(table.Row, len(order))
				for _, v := range pr {
					i, ok := pos[v.Column()]
					if !ok || v.IsNull() {
						continue
					}
					row[i] = native(v)
				}
				out.Rows = append(out.Rows, row)
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				rows.Close()
				return nil, fmt.Errorf("parquet: read rows: %w", err)
			}
		}
		rows.Close()
	}
	return out, nil
}

func typeOf(n parquet.Node) table.Type {
	switch n.Type().Kind() {
	case parquet.Int32, parquet.Int64:
		return table.Int
	case parquet.Float, parquet.Double:
		return table.Float
	default:
		return table.Text
	}
}

func native(v parquet.Value) any {
	switch v.Kind() {
	case parquet.Int32:
		return int64(v.Int32())
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	case parquet.Boolean:
		return v.Boolean()
	default:
		return string(v.ByteArray())
	}
}
