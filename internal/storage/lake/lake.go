// Package lake writes tables as hive-partitioned Parquet files into a blob
// store:
//
//	<base>/<table>/<col>=<val>/.../part-00000.parquet
//	<base>/<table>/_SUCCESS
//
// Partition columns live only in the directory names, as Spark writes them.
package lake

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go/compress"

	"datalake/internal/blob"
	"datalake/internal/blob/store"
	"datalake/internal/logging"
	"datalake/internal/storage"
	pq "datalake/internal/storage/parquet"
	"datalake/internal/table"
)

const (
	partFile    = "part-00000.parquet"
	successFile = "_SUCCESS"
)

// Sink is a storage.Sink over a blob.Bucket.
type Sink struct {
	bucket blob.Bucket
	codec  compress.Codec
}

// New returns a Sink writing into b with the given codec.
func New(b blob.Bucket, codec compress.Codec) *Sink {
	return &Sink{bucket: b, codec: codec}
}

func init() {
	storage.Register("lake", func(_ context.Context, cfg storage.Config) (storage.Sink, error) {
		codec, err := pq.Codec(cfg.Options.String("compression", "snappy"))
		if err != nil {
			return nil, err
		}
		b, err := store.Open(cfg.Base, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("lake: %w", err)
		}
		return New(b, codec), nil
	})
}

// Write replaces <table>/ with one Parquet file per partition.
func (s *Sink) Write(ctx context.Context, name string, t *table.Table, partitionBy []string) error {
	if err := storage.ValidatePartitions(name, t, partitionBy); err != nil {
		return err
	}
	parts, err := t.PartitionBy(partitionBy...)
	if err != nil {
		return &storage.SinkWriteError{Table: name, Err: err}
	}

	if err := s.bucket.DeletePrefix(ctx, name+"/"); err != nil {
		return &storage.SinkWriteError{Table: name, Err: err}
	}

	start := time.Now()
	for _, p := range parts {
		dir := storage.PartitionPath(partitionBy, p.Values)
		data := p.Table
		if len(partitionBy) > 0 {
			if data, err = p.Table.Drop(partitionBy...); err != nil {
				return &storage.SinkWriteError{Table: name, Partition: dir, Err: err}
			}
		}
		body, err := pq.EncodeBytes(name, data, s.codec)
		if err != nil {
			return &storage.SinkWriteError{Table: name, Partition: dir, Err: err}
		}
		if err := s.bucket.Put(ctx, blob.Join(name, dir, partFile), body); err != nil {
			return &storage.SinkWriteError{Table: name, Partition: dir, Err: err}
		}
		logging.Debug().Str("table", name).Str("partition", dir).Int("rows", data.Len()).Msg("partition written")
	}
	if err := s.bucket.Put(ctx, blob.Join(name, successFile), nil); err != nil {
		return &storage.SinkWriteError{Table: name, Err: err}
	}
	logging.Debug().
		Str("table", name).
		Str("location", s.bucket.String()).
		Int("rows", t.Len()).
		Int("partitions", len(parts)).
		Dur("elapsed", time.Since(start)).
		Msg("sink write done")
	return nil
}

// Close is a no-op; blob stores hold no long-lived resources.
func (s *Sink) Close() error { return nil }

// File is one Parquet file of a lake table.
type File struct {
	Key       string
	Partition []storage.PartitionValue
	Table     *table.Table
}

// Read loads every data file of table name. It is used by inspection and
// tests; the job itself never reads its outputs.
func Read(ctx context.Context, b blob.Bucket, name string) ([]File, error) {
	keys, err := b.List(ctx, name+"/**.parquet")
	if err != nil {
		return nil, err
	}
	out := make([]File, 0, len(keys))
	for _, key := range keys {
		rel := strings.TrimPrefix(key, name+"/")
		dir := ""
		if i := strings.LastIndexByte(rel, '/'); i >= 0 {
			dir = rel[:i]
		}
		pv, err := storage.ParsePartitionPath(dir)
		if err != nil {
			return nil, fmt.Errorf("lake: %s: %w", key, err)
		}

		rc, err := b.Open(ctx, key)
		if err != nil {
			return nil, err
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("lake: read %s: %w", key, err)
		}
		t, err := pq.Decode(bytes.NewReader(body), int64(len(body)))
		if err != nil {
			return nil, fmt.Errorf("lake: %s: %w", key, err)
		}
		out = append(out, File{Key: key, Partition: pv, Table: t})
	}
	return out, nil
}

var _ storage.Sink = (*Sink)(nil)
