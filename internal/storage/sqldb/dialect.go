package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"

	"datalake/internal/table"
)

// Dialect captures what differs between the database/sql backends.
type Dialect interface {
	// Kind is the storage kind the dialect registers under.
	Kind() string
	// Driver is the database/sql driver name.
	Driver() string
	Quote(ident string) string
	ColumnType(t table.Type, indexed bool) string
	DropTableSQL(name string) string
	// BulkInsert loads rows inside tx and returns the number inserted.
	BulkInsert(ctx context.Context, tx *sql.Tx, name string, cols []string, rows []table.Row) (int64, error)
}

// insertRows is the portable bulk path: one prepared INSERT executed per row
// inside the caller's transaction.
func insertRows(ctx context.Context, tx *sql.Tx, d Dialect, name string, cols []string, rows []table.Row, placeholder func(int) string) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	quoted := make([]string, len(cols))
	ph := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.Quote(c)
		ph[i] = placeholder(i + 1)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.Quote(name), strings.Join(quoted, ", "), strings.Join(ph, ", ")))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	var n int64
	for i, r := range rows {
		if len(r) != len(cols) {
			return n, fmt.Errorf("row %d length %d != columns length %d", i, len(r), len(cols))
		}
		if _, err := stmt.ExecContext(ctx, r...); err != nil {
			return n, fmt.Errorf("insert row %d: %w", i, err)
		}
		n++
	}
	return n, nil
}

// SQLite uses modernc.org/sqlite.
type SQLite struct{}

func (SQLite) Kind() string   { return "sqlite" }
func (SQLite) Driver() string { return "sqlite" }

func (SQLite) Quote(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

func (SQLite) ColumnType(t table.Type, _ bool) string {
	switch t {
	case table.Int:
		return "INTEGER"
	case table.Float:
		return "REAL"
	default:
		return "TEXT"
	}
}

func (d SQLite) DropTableSQL(name string) string { return "DROP TABLE IF EXISTS " + d.Quote(name) }

func (d SQLite) BulkInsert(ctx context.Context, tx *sql.Tx, name string, cols []string, rows []table.Row) (int64, error) {
	return insertRows(ctx, tx, d, name, cols, rows, func(int) string { return "?" })
}

// MySQL uses github.com/go-sql-driver/mysql. MySQL commits implicitly around
// DDL, so a failed load can leave the freshly created table behind.
type MySQL struct{}

func (MySQL) Kind() string   { return "mysql" }
func (MySQL) Driver() string { return "mysql" }

func (MySQL) Quote(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

func (MySQL) ColumnType(t table.Type, indexed bool) string {
	switch t {
	case table.Int:
		return "BIGINT"
	case table.Float:
		return "DOUBLE"
	default:
		if indexed {
			return "VARCHAR(255)"
		}
		return "TEXT"
	}
}

func (d MySQL) DropTableSQL(name string) string { return "DROP TABLE IF EXISTS " + d.Quote(name) }

func (d MySQL) BulkInsert(ctx context.Context, tx *sql.Tx, name string, cols []string, rows []table.Row) (int64, error) {
	return insertRows(ctx, tx, d, name, cols, rows, func(int) string { return "?" })
}

// MSSQL uses github.com/microsoft/go-mssqldb and its bulk copy protocol.
type MSSQL struct{}

func (MSSQL) Kind() string   { return "mssql" }
func (MSSQL) Driver() string { return "sqlserver" }

func (MSSQL) Quote(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

func (MSSQL) ColumnType(t table.Type, indexed bool) string {
	switch t {
	case table.Int:
		return "BIGINT"
	case table.Float:
		return "FLOAT"
	default:
		if indexed {
			return "NVARCHAR(450)"
		}
		return "NVARCHAR(MAX)"
	}
}

func (d MSSQL) DropTableSQL(name string) string { return "DROP TABLE IF EXISTS " + d.Quote(name) }

// BulkInsert streams rows through mssql.CopyIn; the final argument-less Exec
// flushes the batch and reports the row count.
func (MSSQL) BulkInsert(ctx context.Context, tx *sql.Tx, name string, cols []string, rows []table.Row) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(name, mssql.BulkOptions{}, cols...))
	if err != nil {
		return 0, fmt.Errorf("prepare bulk: %w", err)
	}
	for i, r := range rows {
		if _, err := stmt.ExecContext(ctx, r...); err != nil {
			_ = stmt.Close()
			return 0, fmt.Errorf("bulk row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("bulk finalize: %w", err)
	}
	return res.RowsAffected()
}

// Dialects lists every built-in dialect.
var Dialects = []Dialect{SQLite{}, MySQL{}, MSSQL{}}
