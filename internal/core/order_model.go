package core

import (
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// DraftLine is a line in an order that has not been saved yet. UnitPrice is
// captured from the item when the line is first added.
type DraftLine struct {
	ItemID      string          `json:"vnr"`
	Description string          `json:"betegnelse"`
	UnitPrice   decimal.Decimal `json:"pris"`
	Quantity    int             `json:"antall"`
}

func (l DraftLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderDraft collects the customer, date and lines of a new order. Nothing is
// written to the database until it is passed to OrderService.PersistOrder.
type OrderDraft struct {
	CustomerID int64
	OrderDate  string // YYYY-MM-DD
	lines      []DraftLine
}

// NewOrderDraft starts an empty draft dated today.
func NewOrderDraft() *OrderDraft {
	return &OrderDraft{OrderDate: time.Now().Format(DateLayout)}
}

func (d *OrderDraft) SetCustomer(id int64) { d.CustomerID = id }

func (d *OrderDraft) SetOrderDate(date string) { d.OrderDate = strings.TrimSpace(date) }

// AddLine adds qty of item. If the item is already on the draft the
// quantities are summed and the first captured price is kept.
func (d *OrderDraft) AddLine(item Item, qty int) error {
	if strings.TrimSpace(item.ID) == "" {
		return invalid("vnr", "item number is required")
	}
	if qty <= 0 {
		return invalid("antall", "quantity must be a positive whole number, got %d", qty)
	}
	if _, idx, ok := lo.FindIndexOf(d.lines, func(l DraftLine) bool { return l.ItemID == item.ID }); ok {
		d.lines[idx].Quantity += qty
		return nil
	}
	d.lines = append(d.lines, DraftLine{
		ItemID:      item.ID,
		Description: item.Description,
		UnitPrice:   item.UnitPrice,
		Quantity:    qty,
	})
	return nil
}

// HasLine reports whether itemID is already on the draft.
func (d *OrderDraft) HasLine(itemID string) bool {
	return lo.ContainsBy(d.lines, func(l DraftLine) bool { return l.ItemID == itemID })
}

// RemoveLine drops the line for itemID. It reports whether a line was removed.
func (d *OrderDraft) RemoveLine(itemID string) bool {
	before := len(d.lines)
	d.lines = lo.Reject(d.lines, func(l DraftLine, _ int) bool { return l.ItemID == itemID })
	return len(d.lines) != before
}

// Lines returns a copy of the current lines in insertion order.
func (d *OrderDraft) Lines() []DraftLine {
	return append([]DraftLine(nil), d.lines...)
}

// Total is the running total of the draft.
func (d *OrderDraft) Total() decimal.Decimal {
	return lo.Reduce(d.lines, func(sum decimal.Decimal, l DraftLine, _ int) decimal.Decimal {
		return sum.Add(l.LineTotal())
	}, decimal.Zero)
}

// ValidatedOrder is a draft that passed Validate and is ready to persist.
type ValidatedOrder struct {
	CustomerID int64
	OrderDate  time.Time
	Lines      []DraftLine
}

// Validate checks the draft without touching the database: a customer must be
// selected, the date must parse as YYYY-MM-DD, and at least one line must have
// a positive quantity.
func (d *OrderDraft) Validate() (*ValidatedOrder, error) {
	date, err := d.validateHeader()
	if err != nil {
		return nil, err
	}
	lines := lo.Filter(d.lines, func(l DraftLine, _ int) bool { return l.Quantity > 0 })
	if len(lines) == 0 {
		return nil, invalid("linjer", "the order has no lines")
	}
	return &ValidatedOrder{CustomerID: d.CustomerID, OrderDate: date, Lines: lines}, nil
}

func (d *OrderDraft) validateHeader() (time.Time, error) {
	if d.CustomerID <= 0 {
		return time.Time{}, invalid("knr", "no customer selected")
	}
	if d.OrderDate == "" {
		return time.Time{}, invalid("ordredato", "order date is required")
	}
	date, err := time.Parse(DateLayout, d.OrderDate)
	if err != nil {
		return time.Time{}, invalid("ordredato", "%q is not a valid date (use YYYY-MM-DD)", d.OrderDate)
	}
	return date, nil
}

// NewOrderLine is one requested line when creating an order in one call.
type NewOrderLine struct {
	ItemID   string `json:"vnr"`
	Quantity int    `json:"antall"`
}

// NewOrderRequest is what the presentation layers submit.
type NewOrderRequest struct {
	CustomerID int64          `json:"knr"`
	OrderDate  string         `json:"ordredato"`
	Lines      []NewOrderLine `json:"linjer"`
}
