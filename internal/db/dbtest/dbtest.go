// Package dbtest provides migrated throwaway databases for tests.
package dbtest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"varehus/internal/config"
	"varehus/internal/db"
)

// SQLiteConfig returns a config pointing at a fresh file in t's temp dir.
func SQLiteConfig(t testing.TB) config.DatabaseConfig {
	t.Helper()
	return config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		Path:         filepath.Join(t.TempDir(), "varehus_test.db"),
		MaxOpenConns: 4,
	}
}

// OpenSQLite migrates a new SQLite database and returns a connector to it.
// The connector is closed when the test ends.
func OpenSQLite(t testing.TB) db.Connector {
	t.Helper()
	conn, _ := OpenSQLiteWithConfig(t)
	return conn
}

// OpenSQLiteWithConfig is OpenSQLite that also returns the config used.
func OpenSQLiteWithConfig(t testing.TB) (db.Connector, config.DatabaseConfig) {
	t.Helper()
	cfg := SQLiteConfig(t)
	ctx := context.Background()

	if _, err := db.Migrate(ctx, cfg); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	conn, err := db.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, cfg
}

// OpenFromEnv opens and migrates the database named by a DSN-style environment
// variable, skipping the test when it is unset. driver is mysql or postgres.
func OpenFromEnv(t testing.TB, envVar, driver string, build func(string) config.DatabaseConfig) db.Connector {
	t.Helper()
	raw := os.Getenv(envVar)
	if raw == "" {
		t.Skipf("%s not set, skipping %s integration test", envVar, driver)
	}
	cfg := build(raw)
	cfg.Driver = driver
	ctx := context.Background()

	if _, err := db.Migrate(ctx, cfg); err != nil {
		t.Fatalf("failed to migrate %s database: %v", driver, err)
	}
	conn, err := db.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to open %s database: %v", driver, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// Exec runs statements on a fresh session, failing the test on the first error.
func Exec(t testing.TB, conn db.Connector, stmts ...string) {
	t.Helper()
	ctx := context.Background()
	gw, err := conn.Session(ctx)
	if err != nil {
		t.Fatalf("failed to open session: %v", err)
	}
	defer gw.Close()
	for _, s := range stmts {
		if _, err := gw.Execute(ctx, s); err != nil {
			t.Fatalf("failed to exec %q: %v", s, err)
		}
	}
}

// Count returns SELECT COUNT(*) FROM table.
func Count(t testing.TB, conn db.Connector, table string) int64 {
	t.Helper()
	ctx := context.Background()
	gw, err := conn.Session(ctx)
	if err != nil {
		t.Fatalf("failed to open session: %v", err)
	}
	defer gw.Close()
	row, err := gw.FetchOne(ctx, "SELECT COUNT(*) AS n FROM "+table)
	if err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	n, err := row.MustGet().Int64("n")
	if err != nil {
		t.Fatalf("failed to read count of %s: %v", table, err)
	}
	return n
}
