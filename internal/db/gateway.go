package db

import (
	"context"
	"strconv"
	"strings"

	"github.com/samber/mo"
)

// Dialect identifies the SQL engine behind a Connector.
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// SupportsProcedures reports whether CallProcedure can work on this engine.
func (d Dialect) SupportsProcedures() bool {
	return d == MySQL || d == Postgres
}

// Rebind rewrites ? placeholders into the engine's native form. Callers always
// write ?; question marks inside single-quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Gateway is one database session bound to a single connection. It is not
// safe for concurrent use; each workflow invocation acquires its own.
//
// Outside a transaction every Execute autocommits. Rollback without an open
// transaction is a no-op, so callers can defer it unconditionally.
type Gateway interface {
	FetchAll(ctx context.Context, query string, args ...any) ([]Row, error)
	// FetchOne returns an absent option when the query yields no rows.
	FetchOne(ctx context.Context, query string, args ...any) (mo.Option[Row], error)
	// Execute returns the number of affected rows.
	Execute(ctx context.Context, query string, args ...any) (int64, error)
	// CallProcedure invokes a stored procedure and flattens all of its result sets.
	CallProcedure(ctx context.Context, name string, args ...any) ([]Row, error)

	StartTransaction(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	InTransaction() bool

	// LastInsertID returns the key generated by the most recent insert on this session.
	LastInsertID(ctx context.Context) (int64, error)

	Dialect() Dialect
	// Close releases the connection, rolling back any open transaction.
	Close() error
}

// Connector hands out Gateway sessions over a pool of connections.
type Connector interface {
	Session(ctx context.Context) (Gateway, error)
	Dialect() Dialect
	Ping(ctx context.Context) error
	Close() error
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
