package postgres

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"

	"datalake/internal/table"
)

func TestCreateTableSQL(t *testing.T) {
	t.Parallel()

	got, err := CreateTableSQL("analytics.time", table.Schema{
		{Name: "start_time", Type: table.Int},
		{Name: "weekday", Type: table.Int},
		{Name: "note", Type: table.Text},
		{Name: "ratio", Type: table.Float},
	})
	if err != nil {
		t.Fatalf("CreateTableSQL() error = %v", err)
	}
	for _, frag := range []string{`"analytics"."time"`, `"start_time" BIGINT`, `"note" TEXT`, `"ratio" DOUBLE PRECISION`} {
		if !strings.Contains(got, frag) {
			t.Fatalf("CreateTableSQL() = %q, missing %q", got, frag)
		}
	}
	if _, err := CreateTableSQL("x", nil); err == nil {
		t.Fatalf("CreateTableSQL(no columns) error = nil")
	}
}

func TestIdentHelpers(t *testing.T) {
	t.Parallel()

	if got := pgIdent(`we"ird`); got != `"we""ird"` {
		t.Fatalf("pgIdent() = %s", got)
	}
	if got := splitFQN("public.songs"); !reflect.DeepEqual(got, pgx.Identifier{"public", "songs"}) {
		t.Fatalf("splitFQN() = %v", got)
	}
	if got := splitFQN("songs"); !reflect.DeepEqual(got, pgx.Identifier{"songs"}) {
		t.Fatalf("splitFQN() = %v", got)
	}
}

func TestOpen_EmptyDSN(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatalf("Open(empty) error = nil")
	}
}
