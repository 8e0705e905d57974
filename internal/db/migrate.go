package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"varehus/internal/config"
	"varehus/migrations"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Tables that a fully migrated schema must contain.
var RequiredTables = []string{"vare", "kunde", "ordre", "ordrelinje", "faktura"}

// MigrationResult reports what Migrate did.
type MigrationResult struct {
	From    uint
	To      uint
	Applied bool
}

// SchemaStatus is the outcome of comparing the live schema to the embedded migrations.
type SchemaStatus struct {
	Dialect       Dialect
	Version       uint
	Dirty         bool
	Latest        uint
	MissingTables []string
}

// UpToDate is true when the schema is at the latest version, clean, and complete.
func (s SchemaStatus) UpToDate() bool {
	return !s.Dirty && s.Version == s.Latest && len(s.MissingTables) == 0
}

func dialectFor(driver string) (Dialect, error) {
	switch driver {
	case config.DriverMySQL:
		return MySQL, nil
	case config.DriverPostgres:
		return Postgres, nil
	case config.DriverSQLite:
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", driver)
}

// newMigrator opens a dedicated connection for golang-migrate. Closing the
// returned migrator closes that connection.
func newMigrator(cfg config.DatabaseConfig) (*migrate.Migrate, error) {
	dialect, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	src, err := iofs.New(migrations.FS, string(dialect))
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	var (
		sqlDB    *sql.DB
		dbName   string
		driverFn func(*sql.DB) (database.Driver, error)
	)
	switch dialect {
	case MySQL:
		sqlDB, err = sql.Open("mysql", MySQLDSN(cfg, true))
		dbName = "mysql"
		driverFn = func(d *sql.DB) (database.Driver, error) {
			return migratemysql.WithInstance(d, &migratemysql.Config{})
		}
	case Postgres:
		sqlDB, err = sql.Open("pgx", PostgresURL(cfg))
		dbName = "pgx5"
		driverFn = func(d *sql.DB) (database.Driver, error) {
			return migratepgx.WithInstance(d, &migratepgx.Config{})
		}
	case SQLite:
		sqlDB, err = sql.Open("sqlite3", SQLiteDSN(cfg.Path))
		dbName = "sqlite3"
		driverFn = func(d *sql.DB) (database.Driver, error) {
			return migratesqlite.WithInstance(d, &migratesqlite.Config{})
		}
	}
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("failed to open migration connection: %w", err)
	}

	driver, err := driverFn(sqlDB)
	if err != nil {
		sqlDB.Close()
		src.Close()
		return nil, fmt.Errorf("failed to init %s migration driver: %w", dialect, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dbName, driver)
	if err != nil {
		driver.Close()
		src.Close()
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

// Migrate applies every pending migration. Running it on an up-to-date schema
// is a no-op.
func Migrate(ctx context.Context, cfg config.DatabaseConfig) (MigrationResult, error) {
	m, err := newMigrator(cfg)
	if err != nil {
		return MigrationResult{}, err
	}
	defer m.Close()

	from, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return MigrationResult{}, fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return MigrationResult{From: from}, fmt.Errorf("schema version %d is dirty; fix it manually and force the version", from)
	}

	if err := ctx.Err(); err != nil {
		return MigrationResult{From: from}, err
	}
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return MigrationResult{From: from, To: from}, nil
		}
		return MigrationResult{From: from}, fmt.Errorf("migration failed: %w", err)
	}

	to, _, err := m.Version()
	if err != nil {
		return MigrationResult{From: from}, fmt.Errorf("failed to read schema version: %w", err)
	}
	return MigrationResult{From: from, To: to, Applied: true}, nil
}

// LatestVersion returns the highest embedded migration version for dialect.
func LatestVersion(dialect Dialect) (uint, error) {
	files, err := fs.Glob(migrations.FS, string(dialect)+"/*.up.sql")
	if err != nil {
		return 0, err
	}
	var versions []uint
	for _, f := range files {
		prefix, _, ok := strings.Cut(path.Base(f), "_")
		if !ok {
			continue
		}
		v, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			continue
		}
		versions = append(versions, uint(v))
	}
	if len(versions) == 0 {
		return 0, fmt.Errorf("no migrations embedded for %s", dialect)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions[len(versions)-1], nil
}

// CheckSchema reads the version marker and verifies the required tables exist.
func CheckSchema(ctx context.Context, cfg config.DatabaseConfig, conn Connector) (SchemaStatus, error) {
	st := SchemaStatus{Dialect: conn.Dialect()}

	latest, err := LatestVersion(st.Dialect)
	if err != nil {
		return st, err
	}
	st.Latest = latest

	m, err := newMigrator(cfg)
	if err != nil {
		return st, err
	}
	version, dirty, err := m.Version()
	_, _ = m.Close()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return st, fmt.Errorf("failed to read schema version: %w", err)
	}
	st.Version, st.Dirty = version, dirty

	gw, err := conn.Session(ctx)
	if err != nil {
		return st, err
	}
	defer gw.Close()

	existing, err := listTables(ctx, gw)
	if err != nil {
		return st, err
	}
	for _, t := range RequiredTables {
		if !existing[t] {
			st.MissingTables = append(st.MissingTables, t)
		}
	}
	return st, nil
}

func listTables(ctx context.Context, gw Gateway) (map[string]bool, error) {
	var query string
	switch gw.Dialect() {
	case MySQL:
		query = "SELECT table_name AS name FROM information_schema.tables WHERE table_schema = DATABASE()"
	case Postgres:
		query = "SELECT table_name AS name FROM information_schema.tables WHERE table_schema = current_schema()"
	default:
		query = "SELECT name FROM sqlite_master WHERE type = 'table'"
	}
	rows, err := gw.FetchAll(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(rows))
	for _, r := range rows {
		out[strings.ToLower(r.String("name"))] = true
	}
	return out, nil
}
