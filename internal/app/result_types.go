package app

import (
	"varehus/internal/core"

	"github.com/shopspring/decimal"
)

// OrderResult is returned by order operations.
type OrderResult struct {
	Order *core.Order     `json:"ordre"`
	Total decimal.Decimal `json:"sum"`
}

// OrderListResult is returned by ListOrders.
type OrderListResult struct {
	Orders []core.OrderSummary `json:"ordrer"`
}

// ItemListResult is returned by ListItems and LowStock.
type ItemListResult struct {
	Items []core.Item `json:"varer"`
}

// CustomerListResult is returned by ListCustomers.
type CustomerListResult struct {
	Customers []core.Customer `json:"kunder"`
}

// InvoiceResult is returned by invoice operations. DocumentPath is empty when
// the document was not rendered.
type InvoiceResult struct {
	Invoice      core.Invoice `json:"faktura"`
	Number       string       `json:"fakturanummer"`
	DocumentPath string       `json:"dokument,omitempty"`
}
