package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"varehus/internal/db"

	"github.com/shopspring/decimal"
)

// DefaultLowStockThreshold matches the dashboard's "low stock" warning level.
const DefaultLowStockThreshold = 10

// ItemInput is the editable part of an item. UnitPrice is a decimal string so
// no float ever touches a price.
type ItemInput struct {
	ID          string `json:"vnr"`
	Description string `json:"betegnelse"`
	UnitPrice   string `json:"pris"`
	InStock     int    `json:"antall"`
}

func (in ItemInput) parse() (Item, error) {
	item := Item{
		ID:          normalizeItemID(in.ID),
		Description: strings.TrimSpace(in.Description),
		InStock:     in.InStock,
	}
	if item.ID == "" || len(item.ID) > 5 {
		return item, invalid("vnr", "item number must be 1-5 characters")
	}
	if item.Description == "" {
		return item, invalid("betegnelse", "description is required")
	}
	price, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(in.UnitPrice), ",", "."))
	if err != nil {
		return item, invalid("pris", "%q is not a valid price", in.UnitPrice)
	}
	if price.IsNegative() {
		return item, invalid("pris", "price cannot be negative")
	}
	if !price.Equal(price.Round(2)) {
		return item, invalid("pris", "price cannot have more than two decimals")
	}
	if item.InStock < 0 {
		return item, invalid("antall", "stock cannot be negative")
	}
	item.UnitPrice = price
	return item, nil
}

// ItemService manages the item catalogue and stock counts.
type ItemService interface {
	ListItems(ctx context.Context) ([]Item, error)
	// SearchItems matches the term against item number and description,
	// ignoring case. An empty term lists everything.
	SearchItems(ctx context.Context, term string) ([]Item, error)
	GetItem(ctx context.Context, id string) (*Item, error)
	CreateItem(ctx context.Context, in ItemInput) (*Item, error)
	// UpdateItem changes description, price and stock. Prices already captured
	// on order lines are not affected.
	UpdateItem(ctx context.Context, in ItemInput) (*Item, error)
	DeleteItem(ctx context.Context, id string) error
	// LowStock returns items with fewer than threshold units, lowest first.
	LowStock(ctx context.Context, threshold int) ([]Item, error)
}

type itemService struct {
	conn db.Connector
	log  *slog.Logger
}

func NewItemService(conn db.Connector, log *slog.Logger) ItemService {
	return &itemService{conn: conn, log: orDiscard(log)}
}

func (s *itemService) query(ctx context.Context, query string, args ...any) ([]Item, error) {
	gw, err := s.conn.Session(ctx)
	if err != nil {
		return nil, err
	}
	defer gw.Close()

	rows, err := gw.FetchAll(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	items := make([]Item, 0, len(rows))
	for _, r := range rows {
		it, err := scanItem(r)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

func (s *itemService) ListItems(ctx context.Context) ([]Item, error) {
	return s.query(ctx, "SELECT "+itemColumns+" FROM vare ORDER BY VNr")
}

func (s *itemService) SearchItems(ctx context.Context, term string) ([]Item, error) {
	if strings.TrimSpace(term) == "" {
		return s.ListItems(ctx)
	}
	p := searchPattern(term)
	return s.query(ctx, "SELECT "+itemColumns+
		" FROM vare WHERE LOWER(VNr) LIKE ? OR LOWER(Betegnelse) LIKE ? ORDER BY VNr", p, p)
}

func (s *itemService) LowStock(ctx context.Context, threshold int) ([]Item, error) {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	return s.query(ctx, "SELECT "+itemColumns+" FROM vare WHERE Antall < ? ORDER BY Antall, VNr", threshold)
}

func (s *itemService) GetItem(ctx context.Context, id string) (*Item, error) {
	gw, err := s.conn.Session(ctx)
	if err != nil {
		return nil, err
	}
	defer gw.Close()
	return fetchItem(ctx, gw, id)
}

func (s *itemService) CreateItem(ctx context.Context, in ItemInput) (*Item, error) {
	item, err := in.parse()
	if err != nil {
		return nil, err
	}

	gw, err := s.conn.Session(ctx)
	if err != nil {
		return nil, err
	}
	defer gw.Close()

	_, err = gw.Execute(ctx, "INSERT INTO vare (VNr, Betegnelse, Pris, Antall) VALUES (?, ?, ?, ?)",
		item.ID, item.Description, item.UnitPrice, item.InStock)
	if err != nil {
		if db.IsDuplicateKey(err) {
			return nil, &ConflictError{Entity: "item", Key: item.ID, Reason: "already exists"}
		}
		return nil, fmt.Errorf("failed to create item %s: %w", item.ID, err)
	}
	s.log.Info("item created", "vnr", item.ID)
	return fetchItem(ctx, gw, item.ID)
}

func (s *itemService) UpdateItem(ctx context.Context, in ItemInput) (*Item, error) {
	item, err := in.parse()
	if err != nil {
		return nil, err
	}

	gw, err := s.conn.Session(ctx)
	if err != nil {
		return nil, err
	}
	defer gw.Close()

	n, err := gw.Execute(ctx, "UPDATE vare SET Betegnelse = ?, Pris = ?, Antall = ? WHERE VNr = ?",
		item.Description, item.UnitPrice, item.InStock, item.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update item %s: %w", item.ID, err)
	}
	if n == 0 {
		return nil, &NotFoundError{Entity: "item", Key: item.ID}
	}
	return fetchItem(ctx, gw, item.ID)
}

func (s *itemService) DeleteItem(ctx context.Context, id string) error {
	id = normalizeItemID(id)
	gw, err := s.conn.Session(ctx)
	if err != nil {
		return err
	}
	defer gw.Close()

	n, err := gw.Execute(ctx, "DELETE FROM vare WHERE VNr = ?", id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return &ConflictError{Entity: "item", Key: id, Reason: "is used on existing orders"}
		}
		return fmt.Errorf("failed to delete item %s: %w", id, err)
	}
	if n == 0 {
		return &NotFoundError{Entity: "item", Key: id}
	}
	s.log.Info("item deleted", "vnr", id)
	return nil
}
