package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"varehus/internal/db"
)

// OrderService owns the order entry workflow: validate a draft, then write the
// header and all lines in one transaction.
type OrderService interface {
	// PersistOrder validates the draft and saves it atomically. It returns the
	// new order number.
	PersistOrder(ctx context.Context, draft *OrderDraft) (int64, error)
	// CreateOrder builds a draft from item numbers at their current prices and
	// persists it.
	CreateOrder(ctx context.Context, req NewOrderRequest) (int64, error)

	GetOrder(ctx context.Context, orderID int64) (*Order, error)
	ListOrders(ctx context.Context) ([]OrderSummary, error)
	// SearchOrders matches the term against order number, customer number and
	// customer name, newest first. An empty term lists everything.
	SearchOrders(ctx context.Context, term string) ([]OrderSummary, error)
	// RecentOrders returns the newest orders first, at most limit of them.
	RecentOrders(ctx context.Context, limit int) ([]OrderSummary, error)
}

type orderService struct {
	conn db.Connector
	log  *slog.Logger
}

func NewOrderService(conn db.Connector, log *slog.Logger) OrderService {
	return &orderService{conn: conn, log: orDiscard(log)}
}

func (s *orderService) CreateOrder(ctx context.Context, req NewOrderRequest) (int64, error) {
	draft, err := s.buildDraft(ctx, req)
	if err != nil {
		return 0, err
	}
	return s.PersistOrder(ctx, draft)
}

// buildDraft checks the header first so bad input is rejected before any
// lookups, then captures each item's current price.
func (s *orderService) buildDraft(ctx context.Context, req NewOrderRequest) (*OrderDraft, error) {
	draft := &OrderDraft{CustomerID: req.CustomerID}
	draft.SetOrderDate(req.OrderDate)
	if _, err := draft.validateHeader(); err != nil {
		return nil, err
	}
	if len(req.Lines) == 0 {
		return draft, nil
	}
	for _, l := range req.Lines {
		if l.Quantity <= 0 {
			return nil, invalid("antall", "quantity for %s must be a positive whole number, got %d", l.ItemID, l.Quantity)
		}
	}

	gw, err := s.conn.Session(ctx)
	if err != nil {
		return nil, err
	}
	defer gw.Close()

	for _, l := range req.Lines {
		item, err := fetchItem(ctx, gw, l.ItemID)
		if err != nil {
			return nil, err
		}
		if err := draft.AddLine(*item, l.Quantity); err != nil {
			return nil, err
		}
	}
	return draft, nil
}

func (s *orderService) PersistOrder(ctx context.Context, draft *OrderDraft) (int64, error) {
	order, err := draft.Validate()
	if err != nil {
		return 0, err
	}

	gw, err := s.conn.Session(ctx)
	if err != nil {
		return 0, &OrderPersistenceError{Step: "connect to the database", Err: err}
	}
	defer gw.Close()

	fail := func(step string, cause error) (int64, error) {
		rbErr := gw.Rollback(ctx)
		s.log.Error("order rolled back", "step", step, "customer", order.CustomerID, "err", cause)
		return 0, &OrderPersistenceError{Step: step, Err: cause, RollbackErr: rbErr}
	}

	if err := gw.StartTransaction(ctx); err != nil {
		return fail("begin the transaction", err)
	}

	n, err := gw.Execute(ctx, "INSERT INTO ordre (OrdreDato, KNr) VALUES (?, ?)", order.OrderDate, order.CustomerID)
	if err != nil {
		return fail("insert the order header", err)
	}
	if n != 1 {
		return fail("insert the order header", fmt.Errorf("expected 1 row, got %d", n))
	}

	orderID, err := gw.LastInsertID(ctx)
	if err != nil {
		return fail("read the generated order number", err)
	}

	for i, l := range order.Lines {
		step := fmt.Sprintf("insert order line %d (%s)", i+1, l.ItemID)
		n, err := gw.Execute(ctx,
			"INSERT INTO ordrelinje (OrdreNr, VNr, PrisPrEnhet, Antall) VALUES (?, ?, ?, ?)",
			orderID, l.ItemID, l.UnitPrice, l.Quantity)
		if err != nil {
			return fail(step, err)
		}
		if n != 1 {
			return fail(step, fmt.Errorf("expected 1 row, got %d", n))
		}
	}

	if err := gw.Commit(ctx); err != nil {
		return fail("commit", err)
	}

	s.log.Info("order saved", "ordre_nr", orderID, "customer", order.CustomerID,
		"lines", len(order.Lines), "total", draft.Total().StringFixed(2))
	return orderID, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	gw, err := s.conn.Session(ctx)
	if err != nil {
		return nil, err
	}
	defer gw.Close()
	return fetchOrder(ctx, gw, orderID)
}

func (s *orderService) ListOrders(ctx context.Context) ([]OrderSummary, error) {
	return s.summaries(ctx, "", 0)
}

func (s *orderService) SearchOrders(ctx context.Context, term string) ([]OrderSummary, error) {
	return s.summaries(ctx, term, 0)
}

func (s *orderService) RecentOrders(ctx context.Context, limit int) ([]OrderSummary, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.summaries(ctx, "", limit)
}

// summaries lists order headers newest first with totals derived from the
// lines, optionally filtered by a search term.
func (s *orderService) summaries(ctx context.Context, term string, limit int) ([]OrderSummary, error) {
	gw, err := s.conn.Session(ctx)
	if err != nil {
		return nil, err
	}
	defer gw.Close()

	query := orderSelect
	args := []any{}
	if strings.TrimSpace(term) != "" {
		d := gw.Dialect()
		p := searchPattern(term)
		query += " WHERE " + asText(d, "o.OrdreNr") + " LIKE ? OR " + asText(d, "o.KNr") +
			" LIKE ? OR LOWER(k.Fornavn) LIKE ? OR LOWER(k.Etternavn) LIKE ? OR LOWER(" +
			fullName(d, "k.Fornavn", "k.Etternavn") + ") LIKE ?"
		args = append(args, p, p, p, p, p)
	}
	query += " ORDER BY o.OrdreDato DESC, o.OrdreNr DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := gw.FetchAll(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}

	out := make([]OrderSummary, 0, len(rows))
	for _, r := range rows {
		o, err := scanOrderHeader(r)
		if err != nil {
			return nil, err
		}
		if o.Lines, err = fetchOrderLines(ctx, gw, o.ID); err != nil {
			return nil, fmt.Errorf("failed to query lines for order %d: %w", o.ID, err)
		}
		out = append(out, OrderSummary{
			ID:           o.ID,
			OrderDate:    o.OrderDate,
			ShippedDate:  o.ShippedDate,
			PaidDate:     o.PaidDate,
			CustomerID:   o.CustomerID,
			CustomerName: o.CustomerName,
			Total:        o.Total(),
		})
	}
	return out, nil
}

func orDiscard(log *slog.Logger) *slog.Logger {
	if log != nil {
		return log
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
