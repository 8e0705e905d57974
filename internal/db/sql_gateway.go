package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/samber/mo"
)

// sqlConnector serves the database/sql backed engines (MySQL and SQLite).
type sqlConnector struct {
	db      *sql.DB
	dialect Dialect
}

func (c *sqlConnector) Dialect() Dialect { return c.dialect }

func (c *sqlConnector) Ping(ctx context.Context) error {
	return wrap("ping", c.db.PingContext(ctx))
}

func (c *sqlConnector) Close() error {
	return c.db.Close()
}

func (c *sqlConnector) Session(ctx context.Context) (Gateway, error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, wrap("connect", err)
	}
	return &sqlGateway{conn: conn, dialect: c.dialect}, nil
}

// sqlQuerier is satisfied by both *sql.Conn and *sql.Tx.
type sqlQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type sqlGateway struct {
	conn    *sql.Conn
	tx      *sql.Tx
	dialect Dialect
	lastID  int64
	hasID   bool
}

func (g *sqlGateway) Dialect() Dialect { return g.dialect }

func (g *sqlGateway) InTransaction() bool { return g.tx != nil }

func (g *sqlGateway) q() (sqlQuerier, error) {
	if g.conn == nil {
		return nil, ErrSessionClosed
	}
	if g.tx != nil {
		return g.tx, nil
	}
	return g.conn, nil
}

func (g *sqlGateway) FetchAll(ctx context.Context, query string, args ...any) ([]Row, error) {
	q, err := g.q()
	if err != nil {
		return nil, wrap("fetch_all", err)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap("fetch_all", err)
	}
	defer rows.Close()
	out, err := scanRows(rows, false)
	return out, wrap("fetch_all", err)
}

func (g *sqlGateway) FetchOne(ctx context.Context, query string, args ...any) (mo.Option[Row], error) {
	rows, err := g.FetchAll(ctx, query, args...)
	if err != nil {
		return mo.None[Row](), wrap("fetch_one", err)
	}
	if len(rows) == 0 {
		return mo.None[Row](), nil
	}
	return mo.Some(rows[0]), nil
}

func (g *sqlGateway) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	q, err := g.q()
	if err != nil {
		return 0, wrap("execute", err)
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrap("execute", err)
	}
	// Non-insert statements report 0 here; the engine keeps the previous id.
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		g.lastID, g.hasID = id, true
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrap("execute", err)
	}
	return n, nil
}

func (g *sqlGateway) CallProcedure(ctx context.Context, name string, args ...any) ([]Row, error) {
	if !g.dialect.SupportsProcedures() {
		return nil, wrap("call_procedure", fmt.Errorf("%s: %w", name, ErrProceduresUnsupported))
	}
	q, err := g.q()
	if err != nil {
		return nil, wrap("call_procedure", err)
	}
	rows, err := q.QueryContext(ctx, fmt.Sprintf("CALL %s(%s)", name, placeholders(len(args))), args...)
	if err != nil {
		return nil, wrap("call_procedure", err)
	}
	defer rows.Close()
	out, err := scanRows(rows, true)
	return out, wrap("call_procedure", err)
}

func (g *sqlGateway) StartTransaction(ctx context.Context) error {
	if g.conn == nil {
		return wrap("start_transaction", ErrSessionClosed)
	}
	if g.tx != nil {
		return wrap("start_transaction", ErrTransactionActive)
	}
	tx, err := g.conn.BeginTx(ctx, nil)
	if err != nil {
		return wrap("start_transaction", err)
	}
	g.tx = tx
	return nil
}

func (g *sqlGateway) Commit(ctx context.Context) error {
	if g.tx == nil {
		return wrap("commit", ErrNoTransaction)
	}
	err := g.tx.Commit()
	g.tx = nil
	return wrap("commit", err)
}

func (g *sqlGateway) Rollback(ctx context.Context) error {
	if g.tx == nil {
		return nil
	}
	err := g.tx.Rollback()
	g.tx = nil
	return wrap("rollback", err)
}

func (g *sqlGateway) LastInsertID(ctx context.Context) (int64, error) {
	if !g.hasID {
		return 0, wrap("last_insert_id", ErrNoGeneratedID)
	}
	return g.lastID, nil
}

func (g *sqlGateway) Close() error {
	if g.conn == nil {
		return nil
	}
	_ = g.Rollback(context.Background())
	err := g.conn.Close()
	g.conn = nil
	return err
}

// scanRows reads every row into a Row. With allSets it also walks any further
// result sets, which is how MySQL returns the output of CALL.
func scanRows(rows *sql.Rows, allSets bool) ([]Row, error) {
	out := []Row{}
	for {
		cols, err := rows.Columns()
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			vals := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range vals {
				ptrs[i] = &vals[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return nil, err
			}
			out = append(out, newRow(cols, vals))
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
		if !allSets || !rows.NextResultSet() {
			break
		}
	}
	return out, nil
}
