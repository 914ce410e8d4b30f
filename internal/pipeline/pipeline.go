// Package pipeline runs the job: read the song catalog and usage log
// concurrently, derive the five star-schema tables, then write them one by
// one in a fixed order. The first failure aborts the run; tables written
// before it are left in place.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"datalake/internal/blob"
	"datalake/internal/datasource"
	"datalake/internal/idgen"
	"datalake/internal/logging"
	"datalake/internal/metrics"
	jsonparser "datalake/internal/parser/json"
	"datalake/internal/starschema"
	"datalake/internal/storage"
	"datalake/internal/table"
)

// Dataset names for the two raw inputs.
const (
	CatalogDataset = "song_data"
	LogDataset     = "log_data"
)

// Pipeline holds everything one run needs. The zero values of the optional
// fields are usable: UTC, sequence ids, GOMAXPROCS read workers and
// newline-delimited objects without array expansion.
type Pipeline struct {
	Job         string
	Input       blob.Bucket
	Sink        storage.Sink
	SongPattern string
	LogPattern  string

	Location       *time.Location
	IDKind         string
	RequireColumns bool
	ReadWorkers    int
	Parser         jsonparser.Options
}

// TableResult describes one written table.
type TableResult struct {
	Name       string
	Rows       int
	Partitions int
	Elapsed    time.Duration
}

// Result summarizes a successful run.
type Result struct {
	CatalogRows int
	LogRows     int
	Tables      []TableResult
	Elapsed     time.Duration
}

// Run executes the job once.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	log := logging.With(p.Job)
	res := &Result{}

	catalog, events, err := p.read(ctx)
	if err != nil {
		return nil, err
	}
	res.CatalogRows, res.LogRows = catalog.Len(), events.Len()

	var outputs []starschema.Output
	err = metrics.Time(p.Job, StageTransform, "", func() error {
		var err error
		outputs, err = p.derive(catalog, events)
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, out := range outputs {
		tr, err := p.write(ctx, out)
		if err != nil {
			return nil, err
		}
		res.Tables = append(res.Tables, tr)
	}

	res.Elapsed = time.Since(start)
	log.Info().
		Int("catalog_rows", res.CatalogRows).
		Int("log_rows", res.LogRows).
		Dur("elapsed", res.Elapsed).
		Msg("run complete")
	return res, nil
}

// read loads both datasets concurrently.
func (p *Pipeline) read(ctx context.Context) (catalog, events *table.Table, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		catalog, err = p.readDataset(gctx, CatalogDataset, p.SongPattern, starschema.CatalogSchema, starschema.CatalogRequired)
		return err
	})
	g.Go(func() error {
		var err error
		events, err = p.readDataset(gctx, LogDataset, p.LogPattern, starschema.LogSchema, starschema.LogRequired)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return catalog, events, nil
}

func (p *Pipeline) readDataset(ctx context.Context, name, pattern string, schema table.Schema, required []string) (*table.Table, error) {
	opts := []datasource.Option{datasource.WithWorkers(p.ReadWorkers), datasource.WithParser(p.Parser)}
	if p.RequireColumns {
		opts = append(opts, datasource.WithRequired(required...))
	}
	src := datasource.New(p.Input, schema, opts...)

	start := time.Now()
	t, err := src.Read(ctx, pattern)
	metrics.RecordStep(p.Job, StageRead, name, err, time.Since(start))
	if err != nil {
		return nil, &StageError{Stage: StageRead, Table: name, Err: err}
	}
	metrics.RecordRows(p.Job, name, "read", t.Len())
	log := logging.With(p.Job)
	log.Info().
		Str("dataset", name).
		Str("pattern", pattern).
		Int("rows", t.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("dataset read")
	return t, nil
}

// derive builds the outputs in write order.
func (p *Pipeline) derive(catalog, events *table.Table) ([]starschema.Output, error) {
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	ids, err := idgen.New(p.IDKind)
	if err != nil {
		return nil, &StageError{Stage: StageTransform, Table: starschema.Songplays, Err: err}
	}

	songs, artists, deduped, err := starschema.Catalog(catalog)
	if err != nil {
		return nil, &StageError{Stage: StageTransform, Table: starschema.Songs, Err: err}
	}
	plays, err := starschema.Plays(events, loc)
	if err != nil {
		return nil, &StageError{Stage: StageTransform, Table: starschema.Time, Err: err}
	}
	users, times, err := starschema.Events(plays)
	if err != nil {
		return nil, &StageError{Stage: StageTransform, Table: starschema.Users, Err: err}
	}
	songplays, err := starschema.SongplaysFrom(plays, deduped, ids)
	if err != nil {
		return nil, &StageError{Stage: StageTransform, Table: starschema.Songplays, Err: err}
	}

	byName := map[string]starschema.Output{
		starschema.Songs:     songs,
		starschema.Artists:   artists,
		starschema.Users:     users,
		starschema.Time:      times,
		starschema.Songplays: songplays,
	}
	out := make([]starschema.Output, 0, len(starschema.Order))
	for _, name := range starschema.Order {
		out = append(out, byName[name])
	}
	return out, nil
}

func (p *Pipeline) write(ctx context.Context, out starschema.Output) (TableResult, error) {
	tr := TableResult{Name: out.Name, Rows: out.Table.Len()}
	if err := ctx.Err(); err != nil {
		return tr, &StageError{Stage: StageWrite, Table: out.Name, Err: err}
	}

	start := time.Now()
	err := p.Sink.Write(ctx, out.Name, out.Table, out.PartitionBy)
	tr.Elapsed = time.Since(start)
	metrics.RecordStep(p.Job, StageWrite, out.Name, err, tr.Elapsed)
	if err != nil {
		return tr, &StageError{Stage: StageWrite, Table: out.Name, Err: err}
	}

	tr.Partitions = 1
	if len(out.PartitionBy) > 0 {
		parts, err := out.Table.PartitionBy(out.PartitionBy...)
		if err != nil {
			return tr, &StageError{Stage: StageWrite, Table: out.Name, Err: fmt.Errorf("count partitions: %w", err)}
		}
		tr.Partitions = len(parts)
	}
	metrics.RecordRows(p.Job, out.Name, "written", tr.Rows)
	metrics.RecordPartitions(p.Job, out.Name, tr.Partitions)

	log := logging.With(p.Job)
	log.Info().
		Str("table", out.Name).
		Int("rows", tr.Rows).
		Int("partitions", tr.Partitions).
		Dur("elapsed", tr.Elapsed).
		Msg("table written")
	return tr, nil
}
