package testsupport

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/goliatone/go-datamapper/store/sqlstore"
)

// WidgetDDL creates the relation used by most engine tests: an integer ID,
// a unique name and a decimal price.
const WidgetDDL = `CREATE TABLE "Widget" (
	"ID" INTEGER PRIMARY KEY AUTOINCREMENT,
	"Name" VARCHAR(64) NOT NULL UNIQUE,
	"Price" DECIMAL(10,2) NOT NULL DEFAULT 0
)`

// Execer runs a statement without returning rows. *sql.DB and *bun.DB
// satisfy it.
type Execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// OpenSQLite opens a private in-memory SQLite store, runs ddl against it and
// closes it when the test ends.
func OpenSQLite(t *testing.T, ddl ...string) *sqlstore.Store {
	t.Helper()

	s, err := sqlstore.Open(sqlstore.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	for _, stmt := range ddl {
		if _, err := s.DB().ExecContext(ctx, stmt); err != nil {
			t.Fatalf("failed to run DDL: %v\n%s", err, stmt)
		}
	}
	return s
}

func splitStatements(script string) []string {
	var out []string
	for _, chunk := range strings.Split(script, "\n--\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk != "" {
			out = append(out, chunk)
		}
	}
	return out
}
