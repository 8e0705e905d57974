package core

import "context"

// InvoiceDocument is everything a Renderer needs for one invoice. Order.Lines
// carry the item descriptions.
type InvoiceDocument struct {
	Invoice  Invoice
	Order    Order
	Customer Customer
}

// Renderer turns an invoice into a file and returns its path. It does not
// access the database. A missing asset is reported as *RenderAssetMissingError.
type Renderer interface {
	Render(ctx context.Context, doc InvoiceDocument) (string, error)
}
