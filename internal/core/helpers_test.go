package core_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"varehus/internal/core"
	"varehus/internal/db"
	"varehus/internal/db/dbtest"

	"github.com/shopspring/decimal"
)

// seed loads a small catalogue: customers 7 (active) and 8 (inactive), and
// items with one of them under the low stock threshold.
func seed(t *testing.T, conn db.Connector) {
	t.Helper()
	dbtest.Exec(t, conn,
		`INSERT INTO kunde (KNr, Fornavn, Etternavn, Adresse, PostNr, Telefon, Epost, is_active)
		 VALUES (7, 'Per', 'Ås', 'Fjordveien 3', '5003', NULL, 'per@example.no', 1)`,
		`INSERT INTO kunde (KNr, Fornavn, Etternavn, Adresse, PostNr, is_active)
		 VALUES (8, 'Ola', 'Berg', 'Bakken 12', '7010', 0)`,
		`INSERT INTO vare (VNr, Betegnelse, Pris, Antall) VALUES ('V001', 'Skrue', '10.00', 100)`,
		`INSERT INTO vare (VNr, Betegnelse, Pris, Antall) VALUES ('V002', 'Hammer', '199.90', 40)`,
		`INSERT INTO vare (VNr, Betegnelse, Pris, Antall) VALUES ('V010', 'Blåbærsyltetøy', '100.00', 50)`,
		`INSERT INTO vare (VNr, Betegnelse, Pris, Antall) VALUES ('V011', 'Kaffekjele', '250.00', 5)`,
	)
}

func newStack(t *testing.T) (db.Connector, core.OrderService) {
	t.Helper()
	conn := dbtest.OpenSQLite(t)
	seed(t, conn)
	return conn, core.NewOrderService(conn, nil)
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func mustDecimal(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var errInjected = errors.New("injected failure")

type fault int

const (
	faultExec   fault = iota // the statement fails
	faultNoRows              // the statement reports zero affected rows
	faultLastID              // reading the generated key fails
	faultZeroID              // the generated key comes back as 0
	faultCommit              // commit fails
)

// faultyConnector hands out sessions that misbehave once the nth statement
// mentioning table has been seen.
type faultyConnector struct {
	db.Connector
	table string
	nth   int
	fault fault
}

func (c *faultyConnector) Session(ctx context.Context) (db.Gateway, error) {
	gw, err := c.Connector.Session(ctx)
	if err != nil {
		return nil, err
	}
	return &faultyGateway{Gateway: gw, table: c.table, nth: c.nth, fault: c.fault}, nil
}

type faultyGateway struct {
	db.Gateway
	table     string
	nth       int
	fault     fault
	seen      int
	triggered bool
}

func (g *faultyGateway) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	if strings.Contains(query, g.table) {
		g.seen++
		if g.seen == g.nth {
			g.triggered = true
			switch g.fault {
			case faultExec:
				return 0, errInjected
			case faultNoRows:
				return 0, nil
			}
		}
	}
	return g.Gateway.Execute(ctx, query, args...)
}

func (g *faultyGateway) LastInsertID(ctx context.Context) (int64, error) {
	if g.triggered {
		switch g.fault {
		case faultLastID:
			return 0, errInjected
		case faultZeroID:
			return 0, nil
		}
	}
	return g.Gateway.LastInsertID(ctx)
}

func (g *faultyGateway) Commit(ctx context.Context) error {
	if g.triggered && g.fault == faultCommit {
		return errInjected
	}
	return g.Gateway.Commit(ctx)
}

// stubRenderer records what it was asked to render.
type stubRenderer struct {
	docs []core.InvoiceDocument
	err  error
}

func (r *stubRenderer) Render(_ context.Context, doc core.InvoiceDocument) (string, error) {
	r.docs = append(r.docs, doc)
	if r.err != nil {
		return "", r.err
	}
	return "/tmp/" + doc.Invoice.Number() + ".pdf", nil
}
