package core_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"varehus/internal/config"
	"varehus/internal/core"
	"varehus/internal/db/dbtest"
	"varehus/internal/document"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeOrder(t *testing.T, orders core.OrderService) int64 {
	t.Helper()
	id, err := orders.CreateOrder(context.Background(), core.NewOrderRequest{
		CustomerID: 7,
		OrderDate:  "2024-06-01",
		Lines:      []core.NewOrderLine{{ItemID: "V010", Quantity: 2}, {ItemID: "V011", Quantity: 1}},
	})
	require.NoError(t, err)
	return id
}

func TestIssueInvoice_EndToEnd(t *testing.T) {
	conn, orders := newStack(t)
	ctx := context.Background()
	renderer := &stubRenderer{}
	invoices := core.NewInvoiceService(conn, renderer, nil)

	orderID := placeOrder(t, orders)
	issued, err := invoices.IssueInvoice(ctx, orderID)
	require.NoError(t, err)

	assert.Positive(t, issued.Invoice.ID)
	assert.Equal(t, orderID, issued.Invoice.OrderID)
	assert.Equal(t, int64(7), issued.Invoice.CustomerID)
	assert.False(t, issued.Invoice.CreatedAt.IsZero())
	assert.NotEmpty(t, issued.DocumentPath)

	require.Len(t, renderer.docs, 1)
	doc := renderer.docs[0]
	assert.Equal(t, issued.Invoice.ID, doc.Invoice.ID)
	assert.Equal(t, int64(7), doc.Customer.ID)
	assert.Equal(t, "Fjordveien 3", doc.Customer.Address)
	assert.Equal(t, "450.00", doc.Order.Total().StringFixed(2))

	got, err := invoices.GetInvoice(ctx, issued.Invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, orderID, got.OrderID)
}

func TestIssueInvoice_MissingOrder(t *testing.T) {
	conn, _ := newStack(t)
	renderer := &stubRenderer{}
	invoices := core.NewInvoiceService(conn, renderer, nil)

	_, err := invoices.IssueInvoice(context.Background(), 999)
	var nf *core.NotFoundError
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Equal(t, "order", nf.Entity)
	assert.Zero(t, dbtest.Count(t, conn, "faktura"))
	assert.Empty(t, renderer.docs)
}

func TestIssueInvoice_OrderWithoutLines(t *testing.T) {
	conn, _ := newStack(t)
	dbtest.Exec(t, conn, `INSERT INTO ordre (OrdreNr, OrdreDato, KNr) VALUES (50, '2024-06-01', 7)`)
	invoices := core.NewInvoiceService(conn, nil, nil)

	_, err := invoices.IssueInvoice(context.Background(), 50)
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Zero(t, dbtest.Count(t, conn, "faktura"))
}

func TestIssueInvoice_TwiceCreatesTwoInvoices(t *testing.T) {
	conn, orders := newStack(t)
	ctx := context.Background()
	invoices := core.NewInvoiceService(conn, nil, nil)
	orderID := placeOrder(t, orders)

	first, err := invoices.IssueInvoice(ctx, orderID)
	require.NoError(t, err)
	second, err := invoices.IssueInvoice(ctx, orderID)
	require.NoError(t, err)

	assert.NotEqual(t, first.Invoice.ID, second.Invoice.ID)
	assert.Empty(t, first.DocumentPath)

	list, err := invoices.ListInvoices(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.Invoice.ID, list[0].ID)
	assert.Equal(t, second.Invoice.ID, list[1].ID)
}

func TestIssueInvoice_FailuresAreRolledBack(t *testing.T) {
	tests := []struct {
		name  string
		fault fault
		step  string
	}{
		{"insert fails", faultExec, "insert the invoice"},
		{"insert touches no rows", faultNoRows, "insert the invoice"},
		{"generated key unreadable", faultLastID, "read the generated invoice number"},
		{"generated key is zero", faultZeroID, "read the generated invoice number"},
		{"commit fails", faultCommit, "commit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, orders := newStack(t)
			orderID := placeOrder(t, orders)
			invoices := core.NewInvoiceService(&faultyConnector{Connector: conn, table: "faktura", nth: 1, fault: tt.fault}, nil, nil)

			result, err := invoices.IssueInvoice(context.Background(), orderID)
			assert.Nil(t, result)
			var pErr *core.InvoicePersistenceError
			require.True(t, errors.As(err, &pErr), "got %v", err)
			assert.Equal(t, orderID, pErr.OrderID)
			assert.Equal(t, tt.step, pErr.Step)
			assert.NoError(t, pErr.RollbackErr)
			assert.Zero(t, dbtest.Count(t, conn, "faktura"))
		})
	}
}

func TestIssueInvoice_OrderWithMissingCustomer(t *testing.T) {
	conn, orders := newStack(t)
	ctx := context.Background()
	orderID := placeOrder(t, orders)
	dbtest.Exec(t, conn,
		`PRAGMA foreign_keys = OFF`,
		`DELETE FROM kunde WHERE KNr = 7`,
		`PRAGMA foreign_keys = ON`,
	)

	o, err := orders.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), o.CustomerID)
	assert.Empty(t, o.CustomerName)
	assert.Len(t, o.Lines, 2)

	_, err = core.NewInvoiceService(conn, nil, nil).IssueInvoice(ctx, orderID)
	var nf *core.NotFoundError
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Equal(t, "customer", nf.Entity)
	assert.Zero(t, dbtest.Count(t, conn, "faktura"))
}

func TestIssueInvoice_MissingLogoKeepsInvoice(t *testing.T) {
	conn, orders := newStack(t)
	ctx := context.Background()
	dir := t.TempDir()
	renderer, err := document.NewPDFRenderer(config.InvoiceConfig{
		OutputDir: filepath.Join(dir, "fakturaer"),
		LogoPath:  filepath.Join(dir, "static", "logo.png"),
		VATRate:   "0.25",
	}, config.CompanyInfo{Name: "Varehuset AS"})
	require.NoError(t, err)
	invoices := core.NewInvoiceService(conn, renderer, nil)
	orderID := placeOrder(t, orders)

	issued, err := invoices.IssueInvoice(ctx, orderID)
	require.Error(t, err)
	require.NotNil(t, issued)

	var rErr *core.RenderError
	require.True(t, errors.As(err, &rErr))
	assert.Equal(t, issued.Invoice.ID, rErr.InvoiceID)
	var missing *core.RenderAssetMissingError
	require.True(t, errors.As(err, &missing))
	assert.Contains(t, missing.Asset, "logo.png")

	assert.Equal(t, int64(1), dbtest.Count(t, conn, "faktura"))
	assert.Empty(t, issued.DocumentPath)
	assert.NoFileExists(t, renderer.Path(issued.Invoice.ID))

	// Once rendering works again the stored invoice can be re-rendered.
	renderer.LogoPath = ""
	path, err := invoices.RenderInvoice(ctx, issued.Invoice.ID)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, document.FileName(issued.Invoice.ID), filepath.Base(path))
}

func TestRenderInvoice_Errors(t *testing.T) {
	conn, _ := newStack(t)
	ctx := context.Background()

	_, err := core.NewInvoiceService(conn, nil, nil).RenderInvoice(ctx, 1)
	require.Error(t, err)

	_, err = core.NewInvoiceService(conn, &stubRenderer{}, nil).RenderInvoice(ctx, 404)
	var nf *core.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "invoice", nf.Entity)
}
