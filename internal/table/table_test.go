package table

import (
	"errors"
	"reflect"
	"testing"
)

func people() *Table {
	return New(
		Schema{{"id", Int}, {"name", Text}, {"score", Float}},
		Row{int64(1), "ann", 1.5},
		Row{int64(2), "bob", nil},
		Row{int64(1), "ann", 1.5},
		Row{int64(3), nil, 2.0},
	)
}

func TestSelect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		cols       []Projection
		wantSchema Schema
		wantFirst  Row
		wantErr    bool
	}{
		{
			name:       "reorders and renames",
			cols:       []Projection{Alias("name", "who"), Col("id")},
			wantSchema: Schema{{"who", Text}, {"id", Int}},
			wantFirst:  Row{"ann", int64(1)},
		},
		{
			name:    "unknown column",
			cols:    []Projection{Col("nope")},
			wantErr: true,
		},
		{
			name:    "duplicate output name",
			cols:    []Projection{Col("id"), Alias("name", "id")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := people().Select(tt.cols...)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Select() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			if !reflect.DeepEqual(got.Schema, tt.wantSchema) {
				t.Fatalf("schema = %#v, want %#v", got.Schema, tt.wantSchema)
			}
			if !reflect.DeepEqual(got.Rows[0], tt.wantFirst) {
				t.Fatalf("row[0] = %#v, want %#v", got.Rows[0], tt.wantFirst)
			}
			if got.Len() != 4 {
				t.Fatalf("Len() = %d, want 4", got.Len())
			}
		})
	}
}

func TestSelect_UnknownColumnError(t *testing.T) {
	t.Parallel()

	_, err := people().Select(Col("missing"))
	var uce *UnknownColumnError
	if !errors.As(err, &uce) || uce.Name != "missing" {
		t.Fatalf("error = %v, want UnknownColumnError{missing}", err)
	}
}

func TestDistinct_KeepsFirstOccurrenceInOrder(t *testing.T) {
	t.Parallel()

	got := people().Distinct()
	want := []Row{
		{int64(1), "ann", 1.5},
		{int64(2), "bob", nil},
		{int64(3), nil, 2.0},
	}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Fatalf("Distinct() rows = %#v, want %#v", got.Rows, want)
	}
}

func TestDistinct_NullsAndTypesAreDistinct(t *testing.T) {
	t.Parallel()

	tb := New(Schema{{"v", Text}},
		Row{nil},
		Row{""},
		Row{nil},
		Row{"1"},
	)
	if got := tb.Distinct().Len(); got != 3 {
		t.Fatalf("Distinct().Len() = %d, want 3", got)
	}
}

func TestFilterAndWhere(t *testing.T) {
	t.Parallel()

	got, err := people().Where("name", func(v any) bool { return v == "ann" })
	if err != nil {
		t.Fatalf("Where() error = %v", err)
	}
	if got.Len() != 2 {
		t.Fatalf("Where() Len = %d, want 2", got.Len())
	}
	if _, err := people().Where("nope", func(any) bool { return true }); err == nil {
		t.Fatalf("Where(unknown) error = nil, want error")
	}
}

func TestWithColumn(t *testing.T) {
	t.Parallel()

	tb := people()
	got, err := tb.WithColumn(Column{"double", Int}, func(r Row) (any, error) {
		return r[0].(int64) * 2, nil
	})
	if err != nil {
		t.Fatalf("WithColumn() error = %v", err)
	}
	if v := got.Value(1, "double"); v != int64(4) {
		t.Fatalf("double[1] = %v, want 4", v)
	}
	if len(tb.Rows[0]) != 3 {
		t.Fatalf("input row mutated: %#v", tb.Rows[0])
	}

	boom := errors.New("boom")
	if _, err := tb.WithColumn(Column{"x", Int}, func(Row) (any, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("WithColumn() error = %v, want wrapping boom", err)
	}
	if _, err := tb.WithColumn(Column{"id", Int}, func(Row) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("WithColumn(existing) error = nil, want error")
	}
}

func TestSortStable(t *testing.T) {
	t.Parallel()

	tb := New(Schema{{"k", Int}, {"tag", Text}},
		Row{int64(3), "a"},
		Row{nil, "b"},
		Row{int64(1), "c"},
		Row{int64(3), "d"},
	)
	got, err := tb.SortStable("k")
	if err != nil {
		t.Fatalf("SortStable() error = %v", err)
	}
	var tags []any
	for i := range got.Rows {
		tags = append(tags, got.Value(i, "tag"))
	}
	if want := []any{"b", "c", "a", "d"}; !reflect.DeepEqual(tags, want) {
		t.Fatalf("order = %v, want %v", tags, want)
	}
}

func TestInnerJoin(t *testing.T) {
	t.Parallel()

	logs := New(Schema{{"artist", Text}, {"song", Text}, {"uid", Int}},
		Row{"Elena", "Setanta matins", int64(1)},
		Row{"Nobody", "Unknown", int64(2)},
		Row{nil, "Setanta matins", int64(3)},
		Row{"elena", "Setanta matins", int64(4)},
	)
	catalog := New(Schema{{"artist_name", Text}, {"title", Text}, {"song_id", Text}},
		Row{"Elena", "Setanta matins", "SOZCTXZ12AB0182364"},
		Row{nil, "Setanta matins", "SONULL"},
	)

	got, err := InnerJoin(logs, catalog,
		JoinKey{Left: "artist", Right: "artist_name"},
		JoinKey{Left: "song", Right: "title"},
	)
	if err != nil {
		t.Fatalf("InnerJoin() error = %v", err)
	}
	if got.Len() != 1 {
		t.Fatalf("InnerJoin() Len = %d, want 1: %#v", got.Len(), got.Rows)
	}
	if v := got.Value(0, "song_id"); v != "SOZCTXZ12AB0182364" {
		t.Fatalf("song_id = %v", v)
	}
	if v := got.Value(0, "uid"); v != int64(1) {
		t.Fatalf("uid = %v, want 1", v)
	}
}

func TestInnerJoin_Errors(t *testing.T) {
	t.Parallel()

	a := New(Schema{{"k", Text}})
	b := New(Schema{{"k", Text}})
	if _, err := InnerJoin(a, b, JoinKey{"k", "k"}); err == nil {
		t.Fatalf("InnerJoin(clashing columns) error = nil")
	}
	c := New(Schema{{"j", Text}})
	if _, err := InnerJoin(a, c); err == nil {
		t.Fatalf("InnerJoin(no keys) error = nil")
	}
	if _, err := InnerJoin(a, c, JoinKey{"k", "missing"}); err == nil {
		t.Fatalf("InnerJoin(unknown right) error = nil")
	}
}

func TestPartitionBy(t *testing.T) {
	t.Parallel()

	tb := New(Schema{{"year", Int}, {"month", Int}, {"v", Text}},
		Row{int64(2018), int64(11), "a"},
		Row{int64(2018), int64(2), "b"},
		Row{nil, int64(1), "c"},
		Row{int64(2018), int64(11), "d"},
	)
	parts, err := tb.PartitionBy("year", "month")
	if err != nil {
		t.Fatalf("PartitionBy() error = %v", err)
	}
	if len(parts) != 3 {
		t.Fatalf("partitions = %d, want 3", len(parts))
	}
	wantVals := [][]any{
		{nil, int64(1)},
		{int64(2018), int64(2)},
		{int64(2018), int64(11)},
	}
	for i, p := range parts {
		if !reflect.DeepEqual(p.Values, wantVals[i]) {
			t.Fatalf("partition[%d].Values = %#v, want %#v", i, p.Values, wantVals[i])
		}
		for r := range p.Table.Rows {
			if p.Table.Value(r, "year") != p.Values[0] || p.Table.Value(r, "month") != p.Values[1] {
				t.Fatalf("partition[%d] row %d does not belong: %#v", i, r, p.Table.Rows[r])
			}
		}
	}
	if parts[2].Table.Len() != 2 {
		t.Fatalf("2018/11 rows = %d, want 2", parts[2].Table.Len())
	}

	if _, err := tb.PartitionBy("nope"); err == nil {
		t.Fatalf("PartitionBy(unknown) error = nil")
	}
}

func TestDrop(t *testing.T) {
	t.Parallel()

	got, err := people().Drop("score")
	if err != nil {
		t.Fatalf("Drop() error = %v", err)
	}
	if want := []string{"id", "name"}; !reflect.DeepEqual(got.Schema.Names(), want) {
		t.Fatalf("columns = %v, want %v", got.Schema.Names(), want)
	}
}

func TestParseType(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Type{"": Text, "INT": Int, "double": Float, "string": Text} {
		got, err := ParseType(in)
		if err != nil || got != want {
			t.Fatalf("ParseType(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseType("blob"); err == nil {
		t.Fatalf("ParseType(blob) error = nil")
	}
}
