package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

var exampleMigrations = []Migration{
	{
		Version:     2,
		Description: "Add name index",
		Up:          `CREATE INDEX IF NOT EXISTS idx_test_name ON test_table(name)`,
		Down:        `DROP INDEX IF EXISTS idx_test_name`,
	},
	{
		Version:     1,
		Description: "Add example test table",
		Up: `
			CREATE TABLE IF NOT EXISTS test_table (
				id INTEGER PRIMARY KEY,
				name TEXT NOT NULL
			)
		`,
		Down: `DROP TABLE IF EXISTS test_table`,
	},
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file:"+filepath.Join(t.TempDir(), "migrations.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestApplyAndRollback(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	manager := NewManager(exampleMigrations...)

	version, err := manager.Apply(ctx, db)
	if err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}
	if version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}

	if _, err := db.Exec("INSERT INTO test_table (id, name) VALUES (1, 'test')"); err != nil {
		t.Fatalf("test table not created: %v", err)
	}

	// Applying again is a no-op.
	version, err = manager.Apply(ctx, db)
	if err != nil {
		t.Fatalf("second apply failed: %v", err)
	}
	if version != 2 {
		t.Errorf("expected version 2 after re-apply, got %d", version)
	}

	if err := manager.Rollback(ctx, db); err != nil {
		t.Fatalf("failed to rollback migration: %v", err)
	}
	if v, _ := Version(ctx, db); v != 1 {
		t.Errorf("expected version 1 after rollback, got %d", v)
	}

	if err := manager.Rollback(ctx, db); err != nil {
		t.Fatalf("failed to rollback migration: %v", err)
	}
	if _, err := db.Exec("INSERT INTO test_table (id, name) VALUES (2, 'test')"); err == nil {
		t.Error("test table should have been dropped")
	}

	if err := manager.Rollback(ctx, db); err == nil {
		t.Error("expected error when nothing is left to roll back")
	}
}

func TestApplyFailureKeepsPreviousVersion(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	manager := NewManager(exampleMigrations[1], Migration{
		Version:     2,
		Description: "broken",
		Up:          `CREATE TABLE`,
	})

	version, err := manager.Apply(ctx, db)
	if err == nil {
		t.Fatal("expected broken migration to fail")
	}
	if version != 1 {
		t.Errorf("expected version 1 after failure, got %d", version)
	}
	if v, _ := Version(ctx, db); v != 1 {
		t.Errorf("stored version = %d, want 1", v)
	}
}
