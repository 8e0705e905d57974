package app

import (
	"context"

	"varehus/internal/core"
	"varehus/internal/db"
)

// ApplicationService is the single interface all UI adapters (REPL, CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// ListItems returns the whole item catalogue ordered by item number.
	ListItems(ctx context.Context) (*ItemListResult, error)

	// SearchItems returns items whose number or description contains term.
	// An empty term lists the whole catalogue.
	SearchItems(ctx context.Context, term string) (*ItemListResult, error)

	// GetItem returns one item by item number (case-insensitive).
	GetItem(ctx context.Context, itemID string) (*core.Item, error)

	// SaveItem creates the item, or updates it when it already exists and
	// create is false.
	SaveItem(ctx context.Context, req SaveItemRequest) (*core.Item, error)

	// DeleteItem removes an item that is not referenced by any order line.
	DeleteItem(ctx context.Context, itemID string) error

	// LowStock returns items with fewer units than threshold (zero means the default).
	LowStock(ctx context.Context, threshold int) (*ItemListResult, error)

	// ListCustomers returns all active customers.
	ListCustomers(ctx context.Context) (*CustomerListResult, error)

	// SearchCustomers returns customers, active or not, whose number or name
	// contains term. An empty term behaves like ListCustomers.
	SearchCustomers(ctx context.Context, term string) (*CustomerListResult, error)

	// GetCustomer returns one customer by customer number.
	GetCustomer(ctx context.Context, customerID int64) (*core.Customer, error)

	// SaveCustomer creates a customer when req.ID is zero and updates it otherwise.
	SaveCustomer(ctx context.Context, req SaveCustomerRequest) (*core.Customer, error)

	// SetCustomerActive hides or restores a customer in ListCustomers.
	SetCustomerActive(ctx context.Context, customerID int64, active bool) error

	// ListOrders returns all orders newest first with their totals.
	ListOrders(ctx context.Context) (*OrderListResult, error)

	// SearchOrders returns orders whose number, customer number or customer
	// name contains term, newest first. An empty term lists all orders.
	SearchOrders(ctx context.Context, term string) (*OrderListResult, error)

	// GetOrder returns a single order by numeric ID or "#12" style reference.
	GetOrder(ctx context.Context, ref string) (*OrderResult, error)

	// CreateOrder prices the requested lines from the catalogue and saves the
	// order atomically.
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error)

	// SaveDraft persists a draft assembled interactively. The draft is left
	// untouched on failure so the caller can correct and retry.
	SaveDraft(ctx context.Context, draft *core.OrderDraft) (*OrderResult, error)

	// IssueInvoice creates an invoice for the order and renders its document.
	// On a render failure the result is still returned together with the error.
	IssueInvoice(ctx context.Context, orderRef string) (*InvoiceResult, error)

	// RenderInvoice renders an existing invoice again. ref may be "12" or "FA-12".
	RenderInvoice(ctx context.Context, ref string) (*InvoiceResult, error)

	// GetInvoice returns an invoice. ref may be "12" or "FA-12".
	GetInvoice(ctx context.Context, ref string) (*InvoiceResult, error)

	// ListInvoices returns the invoices issued for an order, oldest first.
	ListInvoices(ctx context.Context, orderRef string) ([]core.Invoice, error)

	// Dashboard returns the statistics overview for year (zero means this year).
	Dashboard(ctx context.Context, year int) (*core.Dashboard, error)

	// SchemaStatus reports the migration version and any missing tables.
	SchemaStatus(ctx context.Context) (*db.SchemaStatus, error)
}
