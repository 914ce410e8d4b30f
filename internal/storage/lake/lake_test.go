package lake

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"datalake/internal/blob/local"
	"datalake/internal/storage"
	pq "datalake/internal/storage/parquet"
	"datalake/internal/table"
)

func timeTable(rows ...table.Row) *table.Table {
	return table.New(table.Schema{
		{Name: "start_time", Type: table.Int},
		{Name: "hour", Type: table.Int},
		{Name: "year", Type: table.Int},
		{Name: "month", Type: table.Int},
	}, rows...)
}

func newSink(t *testing.T) (*Sink, string) {
	t.Helper()
	dir := t.TempDir()
	codec, err := pq.Codec("snappy")
	if err != nil {
		t.Fatalf("Codec() error = %v", err)
	}
	return New(local.New(dir), codec), dir
}

func TestWrite_PartitionLayoutAndConsistency(t *testing.T) {
	t.Parallel()

	s, dir := newSink(t)
	ctx := context.Background()
	in := timeTable(
		table.Row{int64(1542837407), int64(21), int64(2018), int64(11)},
		table.Row{int64(1543622400), int64(0), int64(2018), int64(12)},
		table.Row{int64(1541121934), int64(1), int64(2018), int64(11)},
	)
	if err := s.Write(ctx, "time", in, []string{"year", "month"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	for _, rel := range []string{
		"time/year=2018/month=11/part-00000.parquet",
		"time/year=2018/month=12/part-00000.parquet",
		"time/_SUCCESS",
	} {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(rel))); err != nil {
			t.Fatalf("missing %s: %v", rel, err)
		}
	}

	files, err := Read(ctx, local.New(dir), "time")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %d, want 2", len(files))
	}
	total := 0
	for _, f := range files {
		if names := f.Table.Schema.Names(); !reflect.DeepEqual(names, []string{"start_time", "hour"}) {
			t.Fatalf("%s columns = %v, want partition columns excluded", f.Key, names)
		}
		month := f.Partition[1].Value
		for i := range f.Table.Rows {
			st := f.Table.Value(i, "start_time").(int64)
			wantMonth := "11"
			if st >= 1543622400 {
				wantMonth = "12"
			}
			if month != wantMonth {
				t.Fatalf("row start_time=%d stored under month=%s", st, month)
			}
		}
		total += f.Table.Len()
	}
	if total != 3 {
		t.Fatalf("rows read back = %d, want 3", total)
	}
}

func TestWrite_OverwriteIsIdempotent(t *testing.T) {
	t.Parallel()

	s, dir := newSink(t)
	ctx := context.Background()

	first := timeTable(
		table.Row{int64(1), int64(0), int64(2017), int64(1)},
		table.Row{int64(2), int64(0), int64(2018), int64(11)},
	)
	second := timeTable(table.Row{int64(2), int64(0), int64(2018), int64(11)})

	for _, in := range []*table.Table{first, second, second} {
		if err := s.Write(ctx, "time", in, []string{"year", "month"}); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	var keys []string
	err := filepath.WalkDir(filepath.Join(dir, "time"), func(p string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			rel, _ := filepath.Rel(dir, p)
			keys = append(keys, filepath.ToSlash(rel))
		}
		return err
	})
	if err != nil {
		t.Fatalf("WalkDir: %v", err)
	}
	sort.Strings(keys)
	want := []string{"time/_SUCCESS", "time/year=2018/month=11/part-00000.parquet"}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("files = %v, want %v (stale partitions must be removed)", keys, want)
	}
}

func TestWrite_UnpartitionedAndNullPartition(t *testing.T) {
	t.Parallel()

	s, dir := newSink(t)
	ctx := context.Background()

	users := table.New(table.Schema{{Name: "userId", Type: table.Int}, {Name: "level", Type: table.Text}},
		table.Row{int64(10), "free"})
	if err := s.Write(ctx, "users", users, nil); err != nil {
		t.Fatalf("Write(users) error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "users", "part-00000.parquet")); err != nil {
		t.Fatalf("unpartitioned file missing: %v", err)
	}

	songs := table.New(table.Schema{{Name: "song_id", Type: table.Text}, {Name: "artist_id", Type: table.Text}},
		table.Row{"S1", nil})
	if err := s.Write(ctx, "songs", songs, []string{"artist_id"}); err != nil {
		t.Fatalf("Write(songs) error = %v", err)
	}
	p := filepath.Join(dir, "songs", "artist_id="+storage.DefaultPartition, "part-00000.parquet")
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("null partition file missing: %v", err)
	}
}

func TestWrite_UnknownPartitionColumn(t *testing.T) {
	t.Parallel()

	s, _ := newSink(t)
	err := s.Write(context.Background(), "time", timeTable(), []string{"year", "week"})
	var swe *storage.SinkWriteError
	if !errors.As(err, &swe) || !errors.Is(err, storage.ErrUnknownPartitionColumn) {
		t.Fatalf("Write() error = %v, want SinkWriteError(ErrUnknownPartitionColumn)", err)
	}
}

func TestRegistered(t *testing.T) {
	t.Parallel()

	s, err := storage.New(context.Background(), storage.Config{Kind: "lake", Base: t.TempDir()})
	if err != nil {
		t.Fatalf("storage.New(lake) error = %v", err)
	}
	if _, ok := s.(*Sink); !ok {
		t.Fatalf("storage.New(lake) = %T", s)
	}
}
