package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the only accepted order date format.
const DateLayout = "2006-01-02"

// Item is a stock-keeping unit (vare).
type Item struct {
	ID          string          `json:"vnr"`
	Description string          `json:"betegnelse"`
	UnitPrice   decimal.Decimal `json:"pris"`
	InStock     int             `json:"antall"`
}

// Customer is a customer master record (kunde).
type Customer struct {
	ID         int64   `json:"knr"`
	FirstName  string  `json:"fornavn"`
	LastName   string  `json:"etternavn"`
	Address    string  `json:"adresse"`
	PostalCode string  `json:"postnr"`
	Phone      *string `json:"telefon,omitempty"`
	Email      *string `json:"epost,omitempty"`
	IsActive   bool    `json:"is_active"`
}

// FullName returns "Fornavn Etternavn".
func (c Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Order is an order header (ordre) with its lines. Total is always derived from
// the lines and never stored.
type Order struct {
	ID           int64       `json:"ordrenr"`
	OrderDate    time.Time   `json:"ordredato"`
	ShippedDate  *time.Time  `json:"sendtdato,omitempty"`
	PaidDate     *time.Time  `json:"betaltdato,omitempty"`
	CustomerID   int64       `json:"knr"`
	CustomerName string      `json:"kunde_navn,omitempty"` // joined from kunde
	Lines        []OrderLine `json:"linjer"`
}

// Total is Σ unit price × quantity over all lines.
func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

// IsPaid reports whether a payment date has been recorded.
func (o Order) IsPaid() bool { return o.PaidDate != nil }

// OrderLine is one persisted line (ordrelinje). UnitPrice is the price captured
// when the line was added, not the item's current price.
type OrderLine struct {
	ID              int64           `json:"id"`
	OrderID         int64           `json:"ordrenr"`
	ItemID          string          `json:"vnr"`
	ItemDescription string          `json:"betegnelse"` // joined from vare
	UnitPrice       decimal.Decimal `json:"pris_pr_enhet"`
	Quantity        int             `json:"antall"`
}

func (l OrderLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderSummary is a list row: header plus derived total.
type OrderSummary struct {
	ID           int64           `json:"ordrenr"`
	OrderDate    time.Time       `json:"ordredato"`
	ShippedDate  *time.Time      `json:"sendtdato,omitempty"`
	PaidDate     *time.Time      `json:"betaltdato,omitempty"`
	CustomerID   int64           `json:"knr"`
	CustomerName string          `json:"kunde_navn"`
	Total        decimal.Decimal `json:"total"`
}

// Invoice is a billing record for one order (faktura). An order may have
// several invoices; issuing is not idempotent.
type Invoice struct {
	ID         int64     `json:"fakturanr"`
	OrderID    int64     `json:"ordrenr"`
	CustomerID int64     `json:"knr"`
	CreatedAt  time.Time `json:"fakturadato"`
}

// Number is the display form used on documents, e.g. FA-12.
func (i Invoice) Number() string {
	return fmt.Sprintf("FA-%d", i.ID)
}
