package core

import (
	"context"
	"fmt"
	"time"

	"varehus/internal/db"

	"github.com/shopspring/decimal"
)

// ── Report types ──────────────────────────────────────────────────────────────

// Dashboard is the overview shown on start-up.
type Dashboard struct {
	Customers     int64           `json:"antall_kunder"`
	Orders        int64           `json:"antall_ordrer"`
	Items         int64           `json:"antall_varer"`
	PaidOrders    int64           `json:"betalte_ordrer"`
	UnpaidOrders  int64           `json:"ubetalte_ordrer"`
	UnpaidValue   decimal.Decimal `json:"ubetalt_verdi"`
	Year          int             `json:"aar"`
	OrdersInYear  int64           `json:"ordrer_i_aar"`
	LowStockItems []Item          `json:"lav_beholdning"`
	RecentOrders  []OrderSummary  `json:"siste_ordrer"`
}

// ── Interface ─────────────────────────────────────────────────────────────────

// ReportingService provides read-only statistics over orders and stock.
type ReportingService interface {
	// Dashboard collects counts, unpaid value, orders placed in year, low stock
	// items and the five newest orders.
	Dashboard(ctx context.Context, year int) (*Dashboard, error)
	// OrdersInYear counts orders dated within the calendar year.
	OrdersInYear(ctx context.Context, year int) (int64, error)
	// UnpaidValue is the total of all orders without a payment date.
	UnpaidValue(ctx context.Context) (decimal.Decimal, error)
}

type reportingService struct {
	conn   db.Connector
	orders OrderService
	items  ItemService
}

func NewReportingService(conn db.Connector, orders OrderService, items ItemService) ReportingService {
	return &reportingService{conn: conn, orders: orders, items: items}
}

func count(ctx context.Context, gw db.Gateway, query string, args ...any) (int64, error) {
	row, err := gw.FetchOne(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	r, ok := row.Get()
	if !ok {
		return 0, nil
	}
	return r.Int64("n")
}

func (s *reportingService) Dashboard(ctx context.Context, year int) (*Dashboard, error) {
	if year == 0 {
		year = time.Now().Year()
	}
	d := &Dashboard{Year: year}

	gw, err := s.conn.Session(ctx)
	if err != nil {
		return nil, err
	}
	counts := []struct {
		dst   *int64
		query string
	}{
		{&d.Customers, "SELECT COUNT(*) AS n FROM kunde"},
		{&d.Orders, "SELECT COUNT(*) AS n FROM ordre"},
		{&d.Items, "SELECT COUNT(*) AS n FROM vare"},
		{&d.PaidOrders, "SELECT COUNT(*) AS n FROM ordre WHERE BetaltDato IS NOT NULL"},
		{&d.UnpaidOrders, "SELECT COUNT(*) AS n FROM ordre WHERE BetaltDato IS NULL"},
	}
	for _, c := range counts {
		if *c.dst, err = count(ctx, gw, c.query); err != nil {
			gw.Close()
			return nil, fmt.Errorf("failed to compute dashboard counts: %w", err)
		}
	}
	gw.Close()

	if d.OrdersInYear, err = s.OrdersInYear(ctx, year); err != nil {
		return nil, err
	}
	if d.UnpaidValue, err = s.UnpaidValue(ctx); err != nil {
		return nil, err
	}
	if d.LowStockItems, err = s.items.LowStock(ctx, DefaultLowStockThreshold); err != nil {
		return nil, err
	}
	if d.RecentOrders, err = s.orders.RecentOrders(ctx, 5); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *reportingService) OrdersInYear(ctx context.Context, year int) (int64, error) {
	gw, err := s.conn.Session(ctx)
	if err != nil {
		return 0, err
	}
	defer gw.Close()

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	n, err := count(ctx, gw, "SELECT COUNT(*) AS n FROM ordre WHERE OrdreDato >= ? AND OrdreDato < ?", from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to count orders in %d: %w", year, err)
	}
	return n, nil
}

// UnpaidValue sums line totals in Go so the result is exact on every engine,
// including SQLite where prices are stored as text.
func (s *reportingService) UnpaidValue(ctx context.Context) (decimal.Decimal, error) {
	gw, err := s.conn.Session(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	defer gw.Close()

	rows, err := gw.FetchAll(ctx, `
		SELECT ol.PrisPrEnhet, ol.Antall
		FROM ordrelinje ol
		JOIN ordre o ON o.OrdreNr = ol.OrdreNr
		WHERE o.BetaltDato IS NULL`)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query unpaid order lines: %w", err)
	}

	total := decimal.Zero
	for _, r := range rows {
		price, err := r.Decimal("PrisPrEnhet")
		if err != nil {
			return decimal.Zero, err
		}
		qty, err := r.Int64("Antall")
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(price.Mul(decimal.NewFromInt(qty)))
	}
	return total, nil
}
