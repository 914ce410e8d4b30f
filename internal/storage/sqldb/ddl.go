package sqldb

import (
	"fmt"
	"strings"

	"datalake/internal/table"
)

// ColumnDef is one rendered column of a CREATE TABLE statement.
type ColumnDef struct {
	Name    string
	SQLType string
}

// TableDef is a table name plus its ordered columns.
type TableDef struct {
	Name    string
	Columns []ColumnDef
}

// Define maps t's schema onto d's column types. Partition columns are
// indexed, so dialects that cannot index unbounded text get a bounded type
// for them.
func Define(d Dialect, name string, s table.Schema, partitionBy []string) TableDef {
	indexed := make(map[string]bool, len(partitionBy))
	for _, c := range partitionBy {
		indexed[c] = true
	}
	td := TableDef{Name: name, Columns: make([]ColumnDef, len(s))}
	for i, c := range s {
		td.Columns[i] = ColumnDef{Name: c.Name, SQLType: d.ColumnType(c.Type, indexed[c.Name])}
	}
	return td
}

// CreateTableSQL renders a CREATE TABLE statement with every column nullable.
func CreateTableSQL(d Dialect, td TableDef) (string, error) {
	if strings.TrimSpace(td.Name) == "" {
		return "", fmt.Errorf("ddl: table name must not be empty")
	}
	if len(td.Columns) == 0 {
		return "", fmt.Errorf("ddl: table %s has no columns", td.Name)
	}
	cols := make([]string, len(td.Columns))
	for i, c := range td.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", td.Name)
		}
		if strings.TrimSpace(c.SQLType) == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", c.Name)
		}
		cols[i] = d.Quote(c.Name) + " " + c.SQLType + " NULL"
	}
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", d.Quote(td.Name), strings.Join(cols, ",\n  ")), nil
}

// CreateIndexSQL renders an index over the partition columns, or "" when
// there are none.
func CreateIndexSQL(d Dialect, name string, cols []string) string {
	if len(cols) == 0 {
		return ""
	}
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.Quote(c)
	}
	idx := "ix_" + name + "_" + strings.Join(cols, "_")
	return fmt.Sprintf("CREATE INDEX %s ON %s (%s)", d.Quote(idx), d.Quote(name), strings.Join(quoted, ", "))
}
