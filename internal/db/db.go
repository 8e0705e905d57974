package db

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"varehus/internal/config"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the configured engine and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Connector, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		return openSQL(ctx, MySQL, "mysql", MySQLDSN(cfg, false), cfg.MaxOpenConns)
	case config.DriverSQLite:
		return openSQL(ctx, SQLite, "sqlite3", SQLiteDSN(cfg.Path), cfg.MaxOpenConns)
	case config.DriverPostgres:
		pool, err := NewPool(ctx, PostgresURL(cfg))
		if err != nil {
			return nil, err
		}
		return &pgConnector{pool: pool}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openSQL(ctx context.Context, dialect Dialect, driverName, dsn string, maxOpen int) (Connector, error) {
	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s database: %w", dialect, err)
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("unable to ping %s database: %w", dialect, err)
	}
	return &sqlConnector{db: sqlDB, dialect: dialect}, nil
}

// NewPool creates a pgx pool for connStr and pings it.
func NewPool(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	if connStr == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse DATABASE_URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}

// MySQLDSN builds a go-sql-driver DSN. Dates are parsed into time.Time in UTC.
// multiStatements is only enabled for the migration connection.
func MySQLDSN(cfg config.DatabaseConfig, multiStatements bool) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = cfg.Name
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.MultiStatements = multiStatements
	// report matched rather than changed rows, like the other engines
	mc.ClientFoundRows = true
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// SQLiteDSN enables foreign keys, which SQLite leaves off by default.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_foreign_keys=on&_busy_timeout=5000"
}

// PostgresURL returns cfg.URL when set, otherwise builds one from the parts.
func PostgresURL(cfg config.DatabaseConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
