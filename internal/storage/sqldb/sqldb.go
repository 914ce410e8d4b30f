// Package sqldb implements storage.Sink for database/sql backends. Each
// write replaces the target table: drop, create from the table schema, bulk
// load, then index the partition columns, all inside one transaction where
// the database allows transactional DDL.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"datalake/internal/logging"
	"datalake/internal/storage"
	"datalake/internal/table"
)

// openDB is a test hook.
var openDB = sql.Open

// Sink writes tables into one database.
type Sink struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects with d's driver and pings the database.
func Open(ctx context.Context, d Dialect, dsn string) (*Sink, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%s: DSN must not be empty", d.Kind())
	}
	db, err := openDB(d.Driver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", d.Kind(), err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: ping: %w", d.Kind(), err)
	}
	return &Sink{db: db, dialect: d}, nil
}

func init() {
	for _, d := range Dialects {
		d := d
		storage.Register(d.Kind(), func(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
			return Open(ctx, d, cfg.DSN)
		})
	}
}

// Write replaces table name with t.
func (s *Sink) Write(ctx context.Context, name string, t *table.Table, partitionBy []string) error {
	if err := storage.ValidatePartitions(name, t, partitionBy); err != nil {
		return err
	}
	d := s.dialect
	create, err := CreateTableSQL(d, Define(d, name, t.Schema, partitionBy))
	if err != nil {
		return &storage.SinkWriteError{Table: name, Err: err}
	}

	start := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &storage.SinkWriteError{Table: name, Err: fmt.Errorf("begin tx: %w", err)}
	}
	fail := func(err error) error {
		_ = tx.Rollback()
		return &storage.SinkWriteError{Table: name, Err: err}
	}

	if _, err := tx.ExecContext(ctx, d.DropTableSQL(name)); err != nil {
		return fail(fmt.Errorf("drop: %w", err))
	}
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fail(fmt.Errorf("create: %w", err))
	}
	n, err := d.BulkInsert(ctx, tx, name, t.Schema.Names(), t.Rows)
	if err != nil {
		return fail(err)
	}
	if idx := CreateIndexSQL(d, name, partitionBy); idx != "" {
		if _, err := tx.ExecContext(ctx, idx); err != nil {
			return fail(fmt.Errorf("index: %w", err))
		}
	}
	if err := tx.Commit(); err != nil {
		return &storage.SinkWriteError{Table: name, Err: fmt.Errorf("commit: %w", err)}
	}

	logging.Debug().
		Str("table", name).
		Str("backend", d.Kind()).
		Int64("rows", n).
		Dur("elapsed", time.Since(start)).
		Msg("sink write done")
	return nil
}

// DB exposes the connection for inspection.
func (s *Sink) DB() *sql.DB { return s.db }

// Close closes the connection pool.
func (s *Sink) Close() error { return s.db.Close() }

var _ storage.Sink = (*Sink)(nil)
