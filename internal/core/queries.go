package core

import (
	"context"
	"fmt"
	"strings"

	"varehus/internal/db"
)

// Shared row readers and lookups. They take a db.Gateway so they can run inside
// or outside a transaction.

const (
	itemColumns     = "VNr, Betegnelse, Pris, Antall"
	customerColumns = "KNr, Fornavn, Etternavn, Adresse, PostNr, Telefon, Epost, is_active"
	orderSelect     = `
		SELECT o.OrdreNr, o.OrdreDato, o.SendtDato, o.BetaltDato, o.KNr,
		       k.Fornavn, k.Etternavn
		FROM ordre o
		LEFT JOIN kunde k ON k.KNr = o.KNr`
	orderLineSelect = `
		SELECT ol.id, ol.OrdreNr, ol.VNr, v.Betegnelse, ol.PrisPrEnhet, ol.Antall
		FROM ordrelinje ol
		JOIN vare v ON v.VNr = ol.VNr`
	invoiceColumns = "FakturaNr, OrdreNr, KNr, FakturaDato"
)

func scanItem(r db.Row) (Item, error) {
	price, err := r.Decimal("Pris")
	if err != nil {
		return Item{}, fmt.Errorf("failed to read item price: %w", err)
	}
	stock, err := r.Int64("Antall")
	if err != nil {
		return Item{}, fmt.Errorf("failed to read item stock: %w", err)
	}
	return Item{
		ID:          r.String("VNr"),
		Description: r.String("Betegnelse"),
		UnitPrice:   price,
		InStock:     int(stock),
	}, nil
}

func scanCustomer(r db.Row) (Customer, error) {
	id, err := r.Int64("KNr")
	if err != nil {
		return Customer{}, fmt.Errorf("failed to read customer number: %w", err)
	}
	active := true
	if r.Has("is_active") && !r.IsNull("is_active") {
		if active, err = r.Bool("is_active"); err != nil {
			return Customer{}, fmt.Errorf("failed to read customer status: %w", err)
		}
	}
	return Customer{
		ID:         id,
		FirstName:  r.String("Fornavn"),
		LastName:   r.String("Etternavn"),
		Address:    r.String("Adresse"),
		PostalCode: r.String("PostNr"),
		Phone:      r.NullString("Telefon"),
		Email:      r.NullString("Epost"),
		IsActive:   active,
	}, nil
}

func scanOrderHeader(r db.Row) (Order, error) {
	var o Order
	var err error
	if o.ID, err = r.Int64("OrdreNr"); err != nil {
		return o, fmt.Errorf("failed to read order number: %w", err)
	}
	if o.OrderDate, err = r.Time("OrdreDato"); err != nil {
		return o, fmt.Errorf("failed to read order date: %w", err)
	}
	if o.ShippedDate, err = r.NullTime("SendtDato"); err != nil {
		return o, fmt.Errorf("failed to read shipped date: %w", err)
	}
	if o.PaidDate, err = r.NullTime("BetaltDato"); err != nil {
		return o, fmt.Errorf("failed to read paid date: %w", err)
	}
	if o.CustomerID, err = r.Int64("KNr"); err != nil {
		return o, fmt.Errorf("failed to read order customer: %w", err)
	}
	if r.Has("Fornavn") && !r.IsNull("Fornavn") {
		o.CustomerName = r.String("Fornavn") + " " + r.String("Etternavn")
	}
	return o, nil
}

func scanOrderLine(r db.Row) (OrderLine, error) {
	var l OrderLine
	var err error
	if l.ID, err = r.Int64("id"); err != nil {
		return l, fmt.Errorf("failed to read order line id: %w", err)
	}
	if l.OrderID, err = r.Int64("OrdreNr"); err != nil {
		return l, fmt.Errorf("failed to read order line order: %w", err)
	}
	if l.UnitPrice, err = r.Decimal("PrisPrEnhet"); err != nil {
		return l, fmt.Errorf("failed to read order line price: %w", err)
	}
	qty, err := r.Int64("Antall")
	if err != nil {
		return l, fmt.Errorf("failed to read order line quantity: %w", err)
	}
	l.Quantity = int(qty)
	l.ItemID = r.String("VNr")
	l.ItemDescription = r.String("Betegnelse")
	return l, nil
}

func scanInvoice(r db.Row) (Invoice, error) {
	var inv Invoice
	var err error
	if inv.ID, err = r.Int64("FakturaNr"); err != nil {
		return inv, fmt.Errorf("failed to read invoice number: %w", err)
	}
	if inv.OrderID, err = r.Int64("OrdreNr"); err != nil {
		return inv, fmt.Errorf("failed to read invoice order: %w", err)
	}
	if inv.CustomerID, err = r.Int64("KNr"); err != nil {
		return inv, fmt.Errorf("failed to read invoice customer: %w", err)
	}
	if inv.CreatedAt, err = r.Time("FakturaDato"); err != nil {
		return inv, fmt.Errorf("failed to read invoice date: %w", err)
	}
	return inv, nil
}

// normalizeItemID upper-cases and trims an item number as typed by a user.
func normalizeItemID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// searchPattern turns a search term into a lower-case LIKE pattern matching it
// anywhere.
func searchPattern(term string) string {
	return "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
}

// asText renders a numeric column as text so it can be matched with LIKE.
func asText(d db.Dialect, col string) string {
	if d == db.MySQL {
		return "CAST(" + col + " AS CHAR)"
	}
	return "CAST(" + col + " AS TEXT)"
}

// fullName concatenates first and last name with a space between.
func fullName(d db.Dialect, first, last string) string {
	if d == db.MySQL {
		return "CONCAT(" + first + ", ' ', " + last + ")"
	}
	return first + " || ' ' || " + last
}

func fetchItem(ctx context.Context, gw db.Gateway, itemID string) (*Item, error) {
	itemID = normalizeItemID(itemID)
	row, err := gw.FetchOne(ctx, "SELECT "+itemColumns+" FROM vare WHERE VNr = ?", itemID)
	if err != nil {
		return nil, err
	}
	r, ok := row.Get()
	if !ok {
		return nil, &NotFoundError{Entity: "item", Key: itemID}
	}
	item, err := scanItem(r)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func fetchCustomer(ctx context.Context, gw db.Gateway, customerID int64) (*Customer, error) {
	row, err := gw.FetchOne(ctx, "SELECT "+customerColumns+" FROM kunde WHERE KNr = ?", customerID)
	if err != nil {
		return nil, err
	}
	r, ok := row.Get()
	if !ok {
		return nil, &NotFoundError{Entity: "customer", Key: customerID}
	}
	c, err := scanCustomer(r)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// fetchOrder loads the header and its lines.
func fetchOrder(ctx context.Context, gw db.Gateway, orderID int64) (*Order, error) {
	row, err := gw.FetchOne(ctx, orderSelect+" WHERE o.OrdreNr = ?", orderID)
	if err != nil {
		return nil, err
	}
	r, ok := row.Get()
	if !ok {
		return nil, &NotFoundError{Entity: "order", Key: orderID}
	}
	o, err := scanOrderHeader(r)
	if err != nil {
		return nil, err
	}
	if o.Lines, err = fetchOrderLines(ctx, gw, orderID); err != nil {
		return nil, err
	}
	return &o, nil
}

func fetchOrderLines(ctx context.Context, gw db.Gateway, orderID int64) ([]OrderLine, error) {
	rows, err := gw.FetchAll(ctx, orderLineSelect+" WHERE ol.OrdreNr = ? ORDER BY ol.id", orderID)
	if err != nil {
		return nil, err
	}
	lines := make([]OrderLine, 0, len(rows))
	for _, r := range rows {
		l, err := scanOrderLine(r)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func fetchInvoice(ctx context.Context, gw db.Gateway, invoiceID int64) (*Invoice, error) {
	row, err := gw.FetchOne(ctx, "SELECT "+invoiceColumns+" FROM faktura WHERE FakturaNr = ?", invoiceID)
	if err != nil {
		return nil, err
	}
	r, ok := row.Get()
	if !ok {
		return nil, &NotFoundError{Entity: "invoice", Key: invoiceID}
	}
	inv, err := scanInvoice(r)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
