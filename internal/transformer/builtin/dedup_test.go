package builtin

import (
	"reflect"
	"testing"

	"datalake/internal/table"
)

func levels() *table.Table {
	return table.New(
		table.Schema{{Name: "userId", Type: table.Int}, {Name: "level", Type: table.Text}, {Name: "ts", Type: table.Int}},
		table.Row{int64(7), "paid", int64(300)},
		table.Row{int64(7), "free", int64(100)},
		table.Row{int64(8), "free", int64(200)},
		table.Row{nil, "free", int64(50)},
		table.Row{int64(7), nil, int64(200)},
	)
}

func TestDeDup_Policies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dedup   DeDup
		want    []table.Row
		wantErr bool
	}{
		{
			name:  "keep-last by input position",
			dedup: DeDup{Keys: []string{"userId"}},
			want: []table.Row{
				{int64(8), "free", int64(200)},
				{int64(7), nil, int64(200)},
				{nil, "free", int64(50)},
			},
		},
		{
			name:  "keep-first by input position",
			dedup: DeDup{Keys: []string{"userId"}, Policy: "keep-first"},
			want: []table.Row{
				{int64(7), "paid", int64(300)},
				{int64(8), "free", int64(200)},
				{nil, "free", int64(50)},
			},
		},
		{
			name:  "keep-last ordered by ts picks latest event",
			dedup: DeDup{Keys: []string{"userId"}, OrderBy: "ts"},
			want: []table.Row{
				{int64(8), "free", int64(200)},
				{int64(7), "paid", int64(300)},
				{nil, "free", int64(50)},
			},
		},
		{
			name:  "most-complete prefers non-null level",
			dedup: DeDup{Keys: []string{"userId"}, Policy: "most-complete"},
			want: []table.Row{
				{int64(7), "free", int64(100)},
				{int64(8), "free", int64(200)},
				{nil, "free", int64(50)},
			},
		},
		{
			name:    "unknown policy",
			dedup:   DeDup{Keys: []string{"userId"}, Policy: "random"},
			wantErr: true,
		},
		{
			name:    "unknown key",
			dedup:   DeDup{Keys: []string{"nope"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.dedup.Apply(levels())
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Apply() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if !reflect.DeepEqual(got.Rows, tt.want) {
				t.Fatalf("Apply() rows = %#v\nwant %#v", got.Rows, tt.want)
			}
		})
	}
}

func TestRequire(t *testing.T) {
	t.Parallel()

	got, err := Require{Fields: []string{"userId", "level"}}.Apply(levels())
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got.Len() != 3 {
		t.Fatalf("Len = %d, want 3", got.Len())
	}
	if _, err := (Require{Fields: []string{"nope"}}).Apply(levels()); err == nil {
		t.Fatalf("Apply(unknown) error = nil")
	}
}

func TestEquals(t *testing.T) {
	t.Parallel()

	got, err := Equals{Field: "level", Value: "free"}.Apply(levels())
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got.Len() != 3 {
		t.Fatalf("Len = %d, want 3", got.Len())
	}
}
