package core

import (
	"context"
	"fmt"
	"log/slog"

	"varehus/internal/db"
)

// IssuedInvoice is the result of IssueInvoice. DocumentPath is empty when no
// renderer is configured or rendering failed.
type IssuedInvoice struct {
	Invoice      Invoice `json:"faktura"`
	DocumentPath string  `json:"dokument,omitempty"`
}

// InvoiceService creates invoices for saved orders and hands them to a Renderer.
type InvoiceService interface {
	// IssueInvoice records a new invoice for the order and renders it. Calling
	// it twice for the same order creates two invoices.
	//
	// If the invoice is committed but rendering fails, the returned
	// *IssuedInvoice is non-nil and the error is a *RenderError.
	IssueInvoice(ctx context.Context, orderID int64) (*IssuedInvoice, error)
	// RenderInvoice renders an existing invoice again, e.g. after a missing
	// logo has been restored.
	RenderInvoice(ctx context.Context, invoiceID int64) (string, error)

	GetInvoice(ctx context.Context, invoiceID int64) (*Invoice, error)
	// ListInvoices returns the invoices of one order, oldest first.
	ListInvoices(ctx context.Context, orderID int64) ([]Invoice, error)
}

type invoiceService struct {
	conn     db.Connector
	renderer Renderer
	log      *slog.Logger
}

// NewInvoiceService returns an InvoiceService. renderer may be nil, in which
// case invoices are recorded without a document.
func NewInvoiceService(conn db.Connector, renderer Renderer, log *slog.Logger) InvoiceService {
	return &invoiceService{conn: conn, renderer: renderer, log: orDiscard(log)}
}

func (s *invoiceService) IssueInvoice(ctx context.Context, orderID int64) (*IssuedInvoice, error) {
	gw, err := s.conn.Session(ctx)
	if err != nil {
		return nil, err
	}
	defer gw.Close()

	order, err := fetchOrder(ctx, gw, orderID)
	if err != nil {
		return nil, err
	}
	customer, err := fetchCustomer(ctx, gw, order.CustomerID)
	if err != nil {
		return nil, err
	}
	if len(order.Lines) == 0 {
		return nil, invalid("ordrenr", "order %d has no lines and cannot be invoiced", orderID)
	}

	invoiceID, err := s.insertInvoice(ctx, gw, order)
	if err != nil {
		return nil, err
	}

	invoice, err := fetchInvoice(ctx, gw, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to read back invoice %d: %w", invoiceID, err)
	}
	s.log.Info("invoice created", "faktura", invoice.Number(), "ordre_nr", orderID, "customer", customer.ID)

	result := &IssuedInvoice{Invoice: *invoice}
	if s.renderer == nil {
		return result, nil
	}

	path, err := s.renderer.Render(ctx, InvoiceDocument{Invoice: *invoice, Order: *order, Customer: *customer})
	if err != nil {
		s.log.Error("invoice rendering failed", "faktura", invoice.Number(), "err", err)
		return result, &RenderError{InvoiceID: invoice.ID, Err: err}
	}
	result.DocumentPath = path
	return result, nil
}

// insertInvoice writes the faktura row in its own transaction. The customer is
// always the order's customer.
func (s *invoiceService) insertInvoice(ctx context.Context, gw db.Gateway, order *Order) (int64, error) {
	fail := func(step string, cause error) (int64, error) {
		rbErr := gw.Rollback(ctx)
		s.log.Error("invoice rolled back", "step", step, "ordre_nr", order.ID, "err", cause)
		return 0, &InvoicePersistenceError{OrderID: order.ID, Step: step, Err: cause, RollbackErr: rbErr}
	}

	if err := gw.StartTransaction(ctx); err != nil {
		return fail("begin the transaction", err)
	}
	n, err := gw.Execute(ctx, "INSERT INTO faktura (OrdreNr, KNr) VALUES (?, ?)", order.ID, order.CustomerID)
	if err != nil {
		return fail("insert the invoice", err)
	}
	if n != 1 {
		return fail("insert the invoice", fmt.Errorf("expected 1 row, got %d", n))
	}
	id, err := gw.LastInsertID(ctx)
	if err != nil {
		return fail("read the generated invoice number", err)
	}
	if id <= 0 {
		return fail("read the generated invoice number", fmt.Errorf("no invoice number was generated"))
	}
	if err := gw.Commit(ctx); err != nil {
		return fail("commit", err)
	}
	return id, nil
}

func (s *invoiceService) RenderInvoice(ctx context.Context, invoiceID int64) (string, error) {
	if s.renderer == nil {
		return "", fmt.Errorf("no document renderer configured")
	}
	doc, err := s.loadDocument(ctx, invoiceID)
	if err != nil {
		return "", err
	}
	path, err := s.renderer.Render(ctx, *doc)
	if err != nil {
		return "", &RenderError{InvoiceID: invoiceID, Err: err}
	}
	return path, nil
}

func (s *invoiceService) loadDocument(ctx context.Context, invoiceID int64) (*InvoiceDocument, error) {
	gw, err := s.conn.Session(ctx)
	if err != nil {
		return nil, err
	}
	defer gw.Close()

	invoice, err := fetchInvoice(ctx, gw, invoiceID)
	if err != nil {
		return nil, err
	}
	order, err := fetchOrder(ctx, gw, invoice.OrderID)
	if err != nil {
		return nil, err
	}
	customer, err := fetchCustomer(ctx, gw, invoice.CustomerID)
	if err != nil {
		return nil, err
	}
	return &InvoiceDocument{Invoice: *invoice, Order: *order, Customer: *customer}, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, invoiceID int64) (*Invoice, error) {
	gw, err := s.conn.Session(ctx)
	if err != nil {
		return nil, err
	}
	defer gw.Close()
	return fetchInvoice(ctx, gw, invoiceID)
}

func (s *invoiceService) ListInvoices(ctx context.Context, orderID int64) ([]Invoice, error) {
	gw, err := s.conn.Session(ctx)
	if err != nil {
		return nil, err
	}
	defer gw.Close()

	rows, err := gw.FetchAll(ctx, "SELECT "+invoiceColumns+" FROM faktura WHERE OrdreNr = ? ORDER BY FakturaNr", orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	out := make([]Invoice, 0, len(rows))
	for _, r := range rows {
		inv, err := scanInvoice(r)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}
