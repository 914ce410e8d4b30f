// Package datasource reads every raw JSON file matching a key pattern from a
// blob store and unifies them into one typed table.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"datalake/internal/blob"
	jsonparser "datalake/internal/parser/json"
	"datalake/internal/table"
	"datalake/internal/transformer"
	"datalake/pkg/records"
)

// ErrSourceNotFound is matched by every *SourceNotFoundError.
var ErrSourceNotFound = errors.New("source not found")

// SourceNotFoundError reports a pattern that matched zero files.
type SourceNotFoundError struct {
	Location string
	Pattern  string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("no files match %q under %s", e.Pattern, e.Location)
}

// Is makes errors.Is(err, ErrSourceNotFound) true.
func (e *SourceNotFoundError) Is(target error) bool { return target == ErrSourceNotFound }

// SchemaMismatchError reports required columns that no record in the batch
// carries, which usually means the pattern points at the wrong dataset.
type SchemaMismatchError struct {
	Pattern string
	Missing []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("records matching %q lack required columns: %s", e.Pattern, strings.Join(e.Missing, ", "))
}

// Source reads one dataset.
type Source struct {
	bucket   blob.Bucket
	schema   table.Schema
	required []string
	workers  int
	parse    jsonparser.Options
}

// Option configures a Source.
type Option func(*Source)

// WithRequired names columns that must appear in at least one record.
func WithRequired(cols ...string) Option {
	return func(s *Source) { s.required = cols }
}

// WithWorkers bounds the number of files decoded concurrently.
func WithWorkers(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithParser overrides the JSON layout options.
func WithParser(o jsonparser.Options) Option {
	return func(s *Source) { s.parse = o }
}

// New returns a Source that projects records onto schema.
func New(b blob.Bucket, schema table.Schema, opts ...Option) *Source {
	s := &Source{
		bucket:  b,
		schema:  schema,
		workers: runtime.GOMAXPROCS(0),
		parse:   jsonparser.Options{AllowArrays: true},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Schema returns the declared column set.
func (s *Source) Schema() table.Schema { return s.schema }

// Read lists pattern, decodes the files concurrently and concatenates their
// records in key order, so the output does not depend on scheduling.
func (s *Source) Read(ctx context.Context, pattern string) (*table.Table, error) {
	keys, err := s.bucket.List(ctx, pattern)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, &SourceNotFoundError{Location: s.bucket.String(), Pattern: pattern}
	}

	results := make([][]records.Record, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			rc, err := s.bucket.Open(gctx, key)
			if err != nil {
				return err
			}
			defer rc.Close()
			recs, err := jsonparser.DecodeAll(rc, s.parse)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []records.Record
	for _, r := range results {
		all = append(all, r...)
	}
	if err := s.checkRequired(pattern, all); err != nil {
		return nil, err
	}
	return transformer.ToTable(all, s.schema)
}

func (s *Source) checkRequired(pattern string, recs []records.Record) error {
	if len(s.required) == 0 || len(recs) == 0 {
		return nil
	}
	missing := make(map[string]struct{}, len(s.required))
	for _, c := range s.required {
		missing[c] = struct{}{}
	}
	for _, r := range recs {
		for c := range missing {
			if _, ok := r.Get(c); ok {
				delete(missing, c)
			}
		}
		if len(missing) == 0 {
			return nil
		}
	}
	names := make([]string, 0, len(missing))
	for c := range missing {
		names = append(names, c)
	}
	sort.Strings(names)
	return &SchemaMismatchError{Pattern: pattern, Missing: names}
}
