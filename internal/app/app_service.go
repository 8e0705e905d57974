package app

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"varehus/internal/config"
	"varehus/internal/core"
	"varehus/internal/db"

	"github.com/samber/lo"
)

type appService struct {
	conn      db.Connector
	dbConfig  config.DatabaseConfig
	orders    core.OrderService
	invoices  core.InvoiceService
	customers core.CustomerService
	items     core.ItemService
	reports   core.ReportingService
}

// Services bundles the core services an appService delegates to.
type Services struct {
	Orders    core.OrderService
	Invoices  core.InvoiceService
	Customers core.CustomerService
	Items     core.ItemService
	Reports   core.ReportingService
}

// NewServices wires the core services over one connector.
func NewServices(conn db.Connector, renderer core.Renderer, log *slog.Logger) Services {
	orders := core.NewOrderService(conn, log)
	items := core.NewItemService(conn, log)
	return Services{
		Orders:    orders,
		Invoices:  core.NewInvoiceService(conn, renderer, log),
		Customers: core.NewCustomerService(conn, log),
		Items:     items,
		Reports:   core.NewReportingService(conn, orders, items),
	}
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(conn db.Connector, dbConfig config.DatabaseConfig, svc Services) ApplicationService {
	return &appService{
		conn:      conn,
		dbConfig:  dbConfig,
		orders:    svc.Orders,
		invoices:  svc.Invoices,
		customers: svc.Customers,
		items:     svc.Items,
		reports:   svc.Reports,
	}
}

// ParseOrderRef accepts "12" or "#12".
func ParseOrderRef(ref string) (int64, error) {
	s := strings.TrimPrefix(strings.TrimSpace(ref), "#")
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, &core.ValidationError{Field: "ordrenr", Message: "\"" + ref + "\" is not an order number"}
	}
	return id, nil
}

// ParseInvoiceRef accepts "12" or "FA-12".
func ParseInvoiceRef(ref string) (int64, error) {
	s := strings.TrimSpace(ref)
	if len(s) > 3 && strings.EqualFold(s[:3], "FA-") {
		s = s[3:]
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, &core.ValidationError{Field: "fakturanr", Message: "\"" + ref + "\" is not an invoice number"}
	}
	return id, nil
}

func (s *appService) ListItems(ctx context.Context) (*ItemListResult, error) {
	items, err := s.items.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	return &ItemListResult{Items: items}, nil
}

func (s *appService) SearchItems(ctx context.Context, term string) (*ItemListResult, error) {
	items, err := s.items.SearchItems(ctx, term)
	if err != nil {
		return nil, err
	}
	return &ItemListResult{Items: items}, nil
}

func (s *appService) GetItem(ctx context.Context, itemID string) (*core.Item, error) {
	return s.items.GetItem(ctx, itemID)
}

func (s *appService) SaveItem(ctx context.Context, req SaveItemRequest) (*core.Item, error) {
	in := core.ItemInput{ID: req.ItemID, Description: req.Description, UnitPrice: req.UnitPrice, InStock: req.InStock}
	if req.Create {
		return s.items.CreateItem(ctx, in)
	}
	return s.items.UpdateItem(ctx, in)
}

func (s *appService) DeleteItem(ctx context.Context, itemID string) error {
	return s.items.DeleteItem(ctx, itemID)
}

func (s *appService) LowStock(ctx context.Context, threshold int) (*ItemListResult, error) {
	items, err := s.items.LowStock(ctx, threshold)
	if err != nil {
		return nil, err
	}
	return &ItemListResult{Items: items}, nil
}

func (s *appService) ListCustomers(ctx context.Context) (*CustomerListResult, error) {
	customers, err := s.customers.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	return &CustomerListResult{Customers: customers}, nil
}

func (s *appService) SearchCustomers(ctx context.Context, term string) (*CustomerListResult, error) {
	customers, err := s.customers.SearchCustomers(ctx, term)
	if err != nil {
		return nil, err
	}
	return &CustomerListResult{Customers: customers}, nil
}

func (s *appService) GetCustomer(ctx context.Context, customerID int64) (*core.Customer, error) {
	return s.customers.GetCustomer(ctx, customerID)
}

func (s *appService) SaveCustomer(ctx context.Context, req SaveCustomerRequest) (*core.Customer, error) {
	in := core.CustomerInput{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Address:    req.Address,
		PostalCode: req.PostalCode,
		Phone:      req.Phone,
		Email:      req.Email,
	}
	if req.ID == 0 {
		return s.customers.CreateCustomer(ctx, in)
	}
	return s.customers.UpdateCustomer(ctx, req.ID, in)
}

func (s *appService) SetCustomerActive(ctx context.Context, customerID int64, active bool) error {
	return s.customers.SetCustomerActive(ctx, customerID, active)
}

func (s *appService) ListOrders(ctx context.Context) (*OrderListResult, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	return &OrderListResult{Orders: orders}, nil
}

func (s *appService) SearchOrders(ctx context.Context, term string) (*OrderListResult, error) {
	orders, err := s.orders.SearchOrders(ctx, term)
	if err != nil {
		return nil, err
	}
	return &OrderListResult{Orders: orders}, nil
}

func (s *appService) GetOrder(ctx context.Context, ref string) (*OrderResult, error) {
	id, err := ParseOrderRef(ref)
	if err != nil {
		return nil, err
	}
	return s.orderResult(ctx, id)
}

func (s *appService) orderResult(ctx context.Context, id int64) (*OrderResult, error) {
	order, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order, Total: order.Total()}, nil
}

func (s *appService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	id, err := s.orders.CreateOrder(ctx, core.NewOrderRequest{
		CustomerID: req.CustomerID,
		OrderDate:  req.OrderDate,
		Lines: lo.Map(req.Lines, func(l OrderLineInput, _ int) core.NewOrderLine {
			return core.NewOrderLine{ItemID: l.ItemID, Quantity: l.Quantity}
		}),
	})
	if err != nil {
		return nil, err
	}
	return s.orderResult(ctx, id)
}

func (s *appService) SaveDraft(ctx context.Context, draft *core.OrderDraft) (*OrderResult, error) {
	id, err := s.orders.PersistOrder(ctx, draft)
	if err != nil {
		return nil, err
	}
	return s.orderResult(ctx, id)
}

func (s *appService) IssueInvoice(ctx context.Context, orderRef string) (*InvoiceResult, error) {
	orderID, err := ParseOrderRef(orderRef)
	if err != nil {
		return nil, err
	}
	issued, err := s.invoices.IssueInvoice(ctx, orderID)
	if issued == nil {
		return nil, err
	}
	return &InvoiceResult{
		Invoice:      issued.Invoice,
		Number:       issued.Invoice.Number(),
		DocumentPath: issued.DocumentPath,
	}, err
}

func (s *appService) RenderInvoice(ctx context.Context, ref string) (*InvoiceResult, error) {
	id, err := ParseInvoiceRef(ref)
	if err != nil {
		return nil, err
	}
	inv, err := s.invoices.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	path, err := s.invoices.RenderInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: *inv, Number: inv.Number(), DocumentPath: path}, nil
}

func (s *appService) GetInvoice(ctx context.Context, ref string) (*InvoiceResult, error) {
	id, err := ParseInvoiceRef(ref)
	if err != nil {
		return nil, err
	}
	inv, err := s.invoices.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: *inv, Number: inv.Number()}, nil
}

func (s *appService) ListInvoices(ctx context.Context, orderRef string) ([]core.Invoice, error) {
	orderID, err := ParseOrderRef(orderRef)
	if err != nil {
		return nil, err
	}
	if _, err := s.orders.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return s.invoices.ListInvoices(ctx, orderID)
}

func (s *appService) Dashboard(ctx context.Context, year int) (*core.Dashboard, error) {
	return s.reports.Dashboard(ctx, year)
}

func (s *appService) SchemaStatus(ctx context.Context) (*db.SchemaStatus, error) {
	if s.dbConfig.Driver == "" {
		return nil, errors.New("no database configuration available")
	}
	status, err := db.CheckSchema(ctx, s.dbConfig, s.conn)
	if err != nil {
		return nil, err
	}
	return &status, nil
}
