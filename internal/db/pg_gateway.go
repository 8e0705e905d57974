package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/mo"
)

type pgConnector struct {
	pool *pgxpool.Pool
}

func (c *pgConnector) Dialect() Dialect { return Postgres }

func (c *pgConnector) Ping(ctx context.Context) error {
	return wrap("ping", c.pool.Ping(ctx))
}

func (c *pgConnector) Close() error {
	c.pool.Close()
	return nil
}

func (c *pgConnector) Session(ctx context.Context) (Gateway, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, wrap("connect", err)
	}
	return &pgGateway{conn: conn}, nil
}

// pgxQuerier is satisfied by both *pgxpool.Conn and pgx.Tx, enabling shared query helpers.
type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type pgGateway struct {
	conn *pgxpool.Conn
	tx   pgx.Tx
}

func (g *pgGateway) Dialect() Dialect { return Postgres }

func (g *pgGateway) InTransaction() bool { return g.tx != nil }

func (g *pgGateway) q() (pgxQuerier, error) {
	if g.conn == nil {
		return nil, ErrSessionClosed
	}
	if g.tx != nil {
		return g.tx, nil
	}
	return g.conn, nil
}

func (g *pgGateway) FetchAll(ctx context.Context, query string, args ...any) ([]Row, error) {
	q, err := g.q()
	if err != nil {
		return nil, wrap("fetch_all", err)
	}
	return g.collect(ctx, q, "fetch_all", Postgres.Rebind(query), args...)
}

func (g *pgGateway) collect(ctx context.Context, q pgxQuerier, op, query string, args ...any) ([]Row, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, wrap(op, err)
	}
	out := make([]Row, 0, len(maps))
	for _, m := range maps {
		out = append(out, normalizeRow(m))
	}
	return out, nil
}

func (g *pgGateway) FetchOne(ctx context.Context, query string, args ...any) (mo.Option[Row], error) {
	rows, err := g.FetchAll(ctx, query, args...)
	if err != nil {
		return mo.None[Row](), err
	}
	if len(rows) == 0 {
		return mo.None[Row](), nil
	}
	return mo.Some(rows[0]), nil
}

func (g *pgGateway) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	q, err := g.q()
	if err != nil {
		return 0, wrap("execute", err)
	}
	tag, err := q.Exec(ctx, Postgres.Rebind(query), args...)
	if err != nil {
		return 0, wrap("execute", err)
	}
	return tag.RowsAffected(), nil
}

// CallProcedure selects from a set-returning function of the same name, which
// is how the procedures are defined on PostgreSQL.
func (g *pgGateway) CallProcedure(ctx context.Context, name string, args ...any) ([]Row, error) {
	q, err := g.q()
	if err != nil {
		return nil, wrap("call_procedure", err)
	}
	query := fmt.Sprintf("SELECT * FROM %s(%s)", pgx.Identifier{name}.Sanitize(), placeholders(len(args)))
	return g.collect(ctx, q, "call_procedure", Postgres.Rebind(query), args...)
}

func (g *pgGateway) StartTransaction(ctx context.Context) error {
	if g.conn == nil {
		return wrap("start_transaction", ErrSessionClosed)
	}
	if g.tx != nil {
		return wrap("start_transaction", ErrTransactionActive)
	}
	tx, err := g.conn.Begin(ctx)
	if err != nil {
		return wrap("start_transaction", err)
	}
	g.tx = tx
	return nil
}

func (g *pgGateway) Commit(ctx context.Context) error {
	if g.tx == nil {
		return wrap("commit", ErrNoTransaction)
	}
	err := g.tx.Commit(ctx)
	g.tx = nil
	return wrap("commit", err)
}

func (g *pgGateway) Rollback(ctx context.Context) error {
	if g.tx == nil {
		return nil
	}
	err := g.tx.Rollback(ctx)
	g.tx = nil
	return wrap("rollback", err)
}

// LastInsertID reads lastval(), the value most recently produced by any
// sequence on this connection (serial/identity primary keys).
func (g *pgGateway) LastInsertID(ctx context.Context) (int64, error) {
	q, err := g.q()
	if err != nil {
		return 0, wrap("last_insert_id", err)
	}
	var id int64
	if err := q.QueryRow(ctx, "SELECT lastval()").Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "55000" {
			return 0, wrap("last_insert_id", ErrNoGeneratedID)
		}
		return 0, wrap("last_insert_id", err)
	}
	return id, nil
}

func (g *pgGateway) Close() error {
	if g.conn == nil {
		return nil
	}
	_ = g.Rollback(context.Background())
	g.conn.Release()
	g.conn = nil
	return nil
}
