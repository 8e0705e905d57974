package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"varehus/internal/db"
	"varehus/internal/db/dbtest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func session(t *testing.T, conn db.Connector) db.Gateway {
	t.Helper()
	gw, err := conn.Session(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { gw.Close() })
	return gw
}

func TestGateway_FetchOneNotFound(t *testing.T) {
	conn := dbtest.OpenSQLite(t)
	gw := session(t, conn)

	row, err := gw.FetchOne(context.Background(), "SELECT VNr FROM vare WHERE VNr = ?", "X9999")
	require.NoError(t, err)
	assert.True(t, row.IsAbsent())
}

func TestGateway_ExecuteAndFetch(t *testing.T) {
	conn := dbtest.OpenSQLite(t)
	gw := session(t, conn)
	ctx := context.Background()

	n, err := gw.Execute(ctx, "INSERT INTO vare (VNr, Betegnelse, Pris, Antall) VALUES (?, ?, ?, ?)",
		"V001", "Skrue 4x40", decimal.RequireFromString("199.90"), 12)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	row, err := gw.FetchOne(ctx, "SELECT VNr, Betegnelse, Pris, Antall FROM vare WHERE VNr = ?", "V001")
	require.NoError(t, err)
	require.True(t, row.IsPresent())

	r := row.MustGet()
	assert.Equal(t, "V001", r.String("VNR"))
	assert.Equal(t, "Skrue 4x40", r.String("betegnelse"))
	pris, err := r.Decimal("Pris")
	require.NoError(t, err)
	assert.Equal(t, "199.90", pris.StringFixed(2))
	antall, err := r.Int64("Antall")
	require.NoError(t, err)
	assert.Equal(t, int64(12), antall)

	n, err = gw.Execute(ctx, "UPDATE vare SET Antall = Antall - 2 WHERE VNr = ?", "V001")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = gw.Execute(ctx, "UPDATE vare SET Antall = 0 WHERE VNr = ?", "NOPE")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestGateway_LastInsertID(t *testing.T) {
	conn := dbtest.OpenSQLite(t)
	gw := session(t, conn)
	ctx := context.Background()

	_, err := gw.LastInsertID(ctx)
	assert.ErrorIs(t, err, db.ErrNoGeneratedID)

	_, err = gw.Execute(ctx, "INSERT INTO kunde (Fornavn, Etternavn, Adresse, PostNr) VALUES (?, ?, ?, ?)",
		"Kari", "Nordmann", "Storgata 1", "0155")
	require.NoError(t, err)
	first, err := gw.LastInsertID(ctx)
	require.NoError(t, err)

	_, err = gw.Execute(ctx, "INSERT INTO kunde (Fornavn, Etternavn, Adresse, PostNr) VALUES (?, ?, ?, ?)",
		"Ola", "Nordmann", "Lillegata 2", "0156")
	require.NoError(t, err)
	second, err := gw.LastInsertID(ctx)
	require.NoError(t, err)

	assert.Greater(t, second, first)
}

func TestGateway_RollbackDiscardsWrites(t *testing.T) {
	conn := dbtest.OpenSQLite(t)
	gw := session(t, conn)
	ctx := context.Background()

	require.NoError(t, gw.StartTransaction(ctx))
	assert.True(t, gw.InTransaction())
	assert.ErrorIs(t, gw.StartTransaction(ctx), db.ErrTransactionActive)

	_, err := gw.Execute(ctx, "INSERT INTO vare (VNr, Betegnelse, Pris) VALUES (?, ?, ?)", "V002", "Mutter", "5.00")
	require.NoError(t, err)
	require.NoError(t, gw.Rollback(ctx))
	assert.False(t, gw.InTransaction())

	assert.Equal(t, int64(0), dbtest.Count(t, conn, "vare"))

	// rollback outside a transaction is a no-op
	assert.NoError(t, gw.Rollback(ctx))
	assert.ErrorIs(t, gw.Commit(ctx), db.ErrNoTransaction)
}

func TestGateway_CommitPersists(t *testing.T) {
	conn := dbtest.OpenSQLite(t)
	gw := session(t, conn)
	ctx := context.Background()

	require.NoError(t, gw.StartTransaction(ctx))
	_, err := gw.Execute(ctx, "INSERT INTO vare (VNr, Betegnelse, Pris) VALUES (?, ?, ?)", "V003", "Bolt", "7.50")
	require.NoError(t, err)
	require.NoError(t, gw.Commit(ctx))

	assert.Equal(t, int64(1), dbtest.Count(t, conn, "vare"))
}

func TestGateway_CloseRollsBackOpenTransaction(t *testing.T) {
	conn := dbtest.OpenSQLite(t)
	ctx := context.Background()

	gw, err := conn.Session(ctx)
	require.NoError(t, err)
	require.NoError(t, gw.StartTransaction(ctx))
	_, err = gw.Execute(ctx, "INSERT INTO vare (VNr, Betegnelse, Pris) VALUES (?, ?, ?)", "V004", "Spiker", "1.00")
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	assert.Equal(t, int64(0), dbtest.Count(t, conn, "vare"))

	_, err = gw.FetchAll(ctx, "SELECT 1")
	assert.ErrorIs(t, err, db.ErrSessionClosed)
}

func TestGateway_DatabaseErrorCarriesDriverMessage(t *testing.T) {
	conn := dbtest.OpenSQLite(t)
	gw := session(t, conn)

	_, err := gw.FetchAll(context.Background(), "SELECT * FROM finnes_ikke")
	require.Error(t, err)

	var dbErr *db.DatabaseError
	require.True(t, errors.As(err, &dbErr))
	assert.Equal(t, "fetch_all", dbErr.Op)
	assert.Contains(t, err.Error(), "finnes_ikke")
}

func TestGateway_ConstraintClassification(t *testing.T) {
	conn := dbtest.OpenSQLite(t)
	gw := session(t, conn)
	ctx := context.Background()

	_, err := gw.Execute(ctx, "INSERT INTO vare (VNr, Betegnelse, Pris) VALUES (?, ?, ?)", "V005", "Hammer", "99.00")
	require.NoError(t, err)

	_, err = gw.Execute(ctx, "INSERT INTO vare (VNr, Betegnelse, Pris) VALUES (?, ?, ?)", "V005", "Hammer", "99.00")
	require.Error(t, err)
	assert.True(t, db.IsDuplicateKey(err))
	assert.False(t, db.IsForeignKeyViolation(err))

	_, err = gw.Execute(ctx, "INSERT INTO ordre (OrdreDato, KNr) VALUES (?, ?)", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 999)
	require.Error(t, err)
	assert.True(t, db.IsForeignKeyViolation(err))
}

func TestGateway_CallProcedureUnsupportedOnSQLite(t *testing.T) {
	conn := dbtest.OpenSQLite(t)
	gw := session(t, conn)

	_, err := gw.CallProcedure(context.Background(), "hent_alle_kunder")
	assert.ErrorIs(t, err, db.ErrProceduresUnsupported)
	assert.False(t, gw.Dialect().SupportsProcedures())
}

func TestGateway_DatesRoundTrip(t *testing.T) {
	conn := dbtest.OpenSQLite(t)
	gw := session(t, conn)
	ctx := context.Background()

	_, err := gw.Execute(ctx, "INSERT INTO kunde (KNr, Fornavn, Etternavn, Adresse, PostNr) VALUES (7, 'Per', 'Hansen', 'Fjordveien 3', '5003')")
	require.NoError(t, err)
	_, err = gw.Execute(ctx, "INSERT INTO ordre (OrdreDato, KNr) VALUES (?, ?)", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 7)
	require.NoError(t, err)

	row, err := gw.FetchOne(ctx, "SELECT OrdreDato, SendtDato FROM ordre")
	require.NoError(t, err)
	r := row.MustGet()

	d, err := r.Time("OrdreDato")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", d.Format("2006-01-02"))

	sent, err := r.NullTime("SendtDato")
	require.NoError(t, err)
	assert.Nil(t, sent)
}
