package testsupport

import (
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// NewBunSQLite opens a shared-cache in-memory sqlite database private to
// name and closes it when the test ends. Distinct names keep parallel tests
// from seeing each other's rows.
func NewBunSQLite(t testing.TB, name string) *bun.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open sqlite %s: %v", name, err)
	}
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	// One connection keeps the in-memory database alive and serialises writes.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
