// Package testing provides database fixtures for tests.
package testing

import (
	"database/sql"
	"embed"
	"path"
	"sort"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema/*.sql
var schema embed.FS

// CreateTestDB creates an in-memory SQLite test database.
// Automatically registers cleanup via t.Cleanup().
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	// Every pooled connection would get its own empty in-memory database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// CreatePgAgentDB creates an in-memory SQLite database with an attached
// "pgagent" schema holding pga_jobclass, pga_job, pga_jobstep and pga_schedule,
// so generated statements run unchanged.
func CreatePgAgentDB(t *testing.T) *sql.DB {
	t.Helper()

	db := CreateTestDB(t)
	if _, err := db.Exec("ATTACH DATABASE ':memory:' AS pgagent"); err != nil {
		t.Fatalf("Failed to attach pgagent schema: %v", err)
	}

	entries, err := schema.ReadDir("schema")
	if err != nil {
		t.Fatalf("Failed to read schema: %v", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Failed to begin schema transaction: %v", err)
	}
	for _, name := range files {
		data, err := schema.ReadFile(path.Join("schema", name))
		if err != nil {
			tx.Rollback()
			t.Fatalf("Failed to read %s: %v", name, err)
		}
		if _, err := tx.Exec(string(data)); err != nil {
			tx.Rollback()
			t.Fatalf("Failed to apply %s: %v", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Failed to commit schema: %v", err)
	}

	return db
}

// Count returns the number of rows of a table.
func Count(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT count(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}
