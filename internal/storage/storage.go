// Package storage contains the storage-agnostic sink contract, the backend
// registry and the partition layout helpers shared by every backend.
//
// Backends register themselves from init; import internal/storage/all to
// make every built-in kind available.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"datalake/internal/blob/s3"
	"datalake/internal/config"
	"datalake/internal/table"
)

// ErrUnknownPartitionColumn is wrapped when a partition column is not part of
// the table being written.
var ErrUnknownPartitionColumn = errors.New("unknown partition column")

// SinkWriteError reports a failed write. Partition is the hive-style path of
// the partition being written, or empty when the failure is table-wide.
type SinkWriteError struct {
	Table     string
	Partition string
	Err       error
}

func (e *SinkWriteError) Error() string {
	if e.Partition != "" {
		return fmt.Sprintf("write %s (%s): %v", e.Table, e.Partition, e.Err)
	}
	return fmt.Sprintf("write %s: %v", e.Table, e.Err)
}

func (e *SinkWriteError) Unwrap() error { return e.Err }

// Sink persists named tables. Every Write fully replaces the previous
// contents of the named table.
type Sink interface {
	Write(ctx context.Context, name string, t *table.Table, partitionBy []string) error
	Close() error
}

// Config is the backend-agnostic sink configuration.
type Config struct {
	Kind    string
	Base    string // lake: output location (directory or s3:// prefix)
	DSN     string // SQL backends
	S3      s3.Config
	Options config.Options
}

// Factory builds a Sink for cfg.
type Factory func(ctx context.Context, cfg Config) (Sink, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register associates kind with f. Registering a kind twice panics, which
// surfaces duplicate init wiring at startup.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	if _, dup := factories[kind]; dup {
		panic("storage: duplicate registration for " + kind)
	}
	factories[kind] = f
}

// Kinds lists the registered backends, sorted.
func Kinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New opens the sink registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Sink, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown kind %q (registered: %s)", cfg.Kind, strings.Join(Kinds(), ", "))
	}
	return f(ctx, cfg)
}

// ValidatePartitions checks that every partition column exists in t.
func ValidatePartitions(name string, t *table.Table, partitionBy []string) error {
	for _, c := range partitionBy {
		if t.Schema.Index(c) < 0 {
			return &SinkWriteError{Table: name, Err: fmt.Errorf("%w: %q", ErrUnknownPartitionColumn, c)}
		}
	}
	return nil
}
