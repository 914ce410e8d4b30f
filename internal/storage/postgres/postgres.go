// Package postgres implements storage.Sink on pgx v5. Each write drops and
// recreates the table and loads it with COPY, in one transaction.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"datalake/internal/logging"
	"datalake/internal/storage"
	"datalake/internal/table"
)

// Sink writes tables into one Postgres database.
type Sink struct {
	pool *pgxpool.Pool
}

// Open creates a pool for dsn and pings it.
func Open(ctx context.Context, dsn string) (*Sink, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Sink{pool: pool}, nil
}

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
		return Open(ctx, cfg.DSN)
	})
}

func columnType(t table.Type) string {
	switch t {
	case table.Int:
		return "BIGINT"
	case table.Float:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

// CreateTableSQL renders the target table for s.
func CreateTableSQL(name string, s table.Schema) (string, error) {
	if len(s) == 0 {
		return "", fmt.Errorf("postgres ddl: table %s has no columns", name)
	}
	cols := make([]string, len(s))
	for i, c := range s {
		cols[i] = pgIdent(c.Name) + " " + columnType(c.Type)
	}
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", pgFQN(name), strings.Join(cols, ",\n  ")), nil
}

// Write replaces table name with t.
func (s *Sink) Write(ctx context.Context, name string, t *table.Table, partitionBy []string) error {
	if err := storage.ValidatePartitions(name, t, partitionBy); err != nil {
		return err
	}
	create, err := CreateTableSQL(name, t.Schema)
	if err != nil {
		return &storage.SinkWriteError{Table: name, Err: err}
	}

	start := time.Now()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &storage.SinkWriteError{Table: name, Err: fmt.Errorf("begin tx: %w", err)}
	}
	fail := func(err error) error {
		_ = tx.Rollback(ctx)
		return &storage.SinkWriteError{Table: name, Err: err}
	}

	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+pgFQN(name)); err != nil {
		return fail(fmt.Errorf("drop: %w", err))
	}
	if _, err := tx.Exec(ctx, create); err != nil {
		return fail(fmt.Errorf("create: %w", err))
	}

	rows := make([][]any, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = r
	}
	n, err := tx.CopyFrom(ctx, splitFQN(name), t.Schema.Names(), pgx.CopyFromRows(rows))
	if err != nil {
		return fail(fmt.Errorf("copy: %w", err))
	}

	if len(partitionBy) > 0 {
		quoted := make([]string, len(partitionBy))
		for i, c := range partitionBy {
			quoted[i] = pgIdent(c)
		}
		idx := fmt.Sprintf("CREATE INDEX ON %s (%s)", pgFQN(name), strings.Join(quoted, ", "))
		if _, err := tx.Exec(ctx, idx); err != nil {
			return fail(fmt.Errorf("index: %w", err))
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return &storage.SinkWriteError{Table: name, Err: fmt.Errorf("commit: %w", err)}
	}

	logging.Debug().
		Str("table", name).
		Str("backend", "postgres").
		Int64("rows", n).
		Dur("elapsed", time.Since(start)).
		Msg("sink write done")
	return nil
}

// Pool exposes the connection pool for inspection.
func (s *Sink) Pool() *pgxpool.Pool { return s.pool }

// Close releases the pool.
func (s *Sink) Close() error {
	s.pool.Close()
	return nil
}

// pgIdent quotes one identifier segment.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name such as "analytics.songs".
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

// splitFQN converts "schema.table" into a pgx.Identifier.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}

var _ storage.Sink = (*Sink)(nil)
