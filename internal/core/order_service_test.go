package core_test

import (
	"context"
	"errors"
	"testing"

	"varehus/internal/core"
	"varehus/internal/db/dbtest"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder_PersistsHeaderAndLines(t *testing.T) {
	conn, orders := newStack(t)
	ctx := context.Background()

	id, err := orders.CreateOrder(ctx, core.NewOrderRequest{
		CustomerID: 7,
		OrderDate:  "2024-06-01",
		Lines: []core.NewOrderLine{
			{ItemID: "V010", Quantity: 2},
			{ItemID: "V011", Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	o, err := orders.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(7), o.CustomerID)
	assert.Equal(t, "Per Ås", o.CustomerName)
	assert.Equal(t, "2024-06-01", o.OrderDate.Format(core.DateLayout))
	assert.Nil(t, o.ShippedDate)
	assert.Nil(t, o.PaidDate)
	require.Len(t, o.Lines, 2)
	assert.Equal(t, "V010", o.Lines[0].ItemID)
	assert.Equal(t, 2, o.Lines[0].Quantity)
	assert.Equal(t, "100.00", o.Lines[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "450.00", o.Total().StringFixed(2))

	assert.Equal(t, int64(1), dbtest.Count(t, conn, "ordre"))
	assert.Equal(t, int64(2), dbtest.Count(t, conn, "ordrelinje"))
}

func TestCreateOrder_MergesRepeatedItem(t *testing.T) {
	_, orders := newStack(t)
	ctx := context.Background()

	id, err := orders.CreateOrder(ctx, core.NewOrderRequest{
		CustomerID: 7,
		OrderDate:  "2024-06-01",
		Lines:      []core.NewOrderLine{{ItemID: "V001", Quantity: 2}, {ItemID: "V001", Quantity: 3}},
	})
	require.NoError(t, err)

	o, err := orders.GetOrder(ctx, id)
	require.NoError(t, err)
	require.Len(t, o.Lines, 1)
	assert.Equal(t, 5, o.Lines[0].Quantity)
}

func TestPersistOrder_PriceIsCapturedAtEntry(t *testing.T) {
	conn, orders := newStack(t)
	ctx := context.Background()
	items := core.NewItemService(conn, nil)

	v002, err := items.GetItem(ctx, "V002")
	require.NoError(t, err)
	draft := core.NewOrderDraft()
	draft.SetCustomer(7)
	draft.SetOrderDate("2024-06-01")
	require.NoError(t, draft.AddLine(*v002, 3))

	id, err := orders.PersistOrder(ctx, draft)
	require.NoError(t, err)

	_, err = items.UpdateItem(ctx, core.ItemInput{ID: "V002", Description: "Hammer", UnitPrice: "249.00", InStock: 40})
	require.NoError(t, err)

	o, err := orders.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "199.90", o.Lines[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "599.70", o.Total().StringFixed(2))
}

func TestCreateOrder_InvalidInputWritesNothing(t *testing.T) {
	conn, orders := newStack(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   core.NewOrderRequest
		field string
	}{
		{"no customer", core.NewOrderRequest{OrderDate: "2024-06-01", Lines: []core.NewOrderLine{{ItemID: "V001", Quantity: 1}}}, "knr"},
		{"malformed date", core.NewOrderRequest{CustomerID: 7, OrderDate: "1. juni", Lines: []core.NewOrderLine{{ItemID: "V001", Quantity: 1}}}, "ordredato"},
		{"no lines", core.NewOrderRequest{CustomerID: 7, OrderDate: "2024-06-01"}, "linjer"},
		{"zero quantity", core.NewOrderRequest{CustomerID: 7, OrderDate: "2024-06-01", Lines: []core.NewOrderLine{{ItemID: "V001", Quantity: 0}}}, "antall"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := orders.CreateOrder(ctx, tt.req)
			var vErr *core.ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}

	assert.Zero(t, dbtest.Count(t, conn, "ordre"))
	assert.Zero(t, dbtest.Count(t, conn, "ordrelinje"))
}

func TestCreateOrder_UnknownItem(t *testing.T) {
	conn, orders := newStack(t)

	_, err := orders.CreateOrder(context.Background(), core.NewOrderRequest{
		CustomerID: 7,
		OrderDate:  "2024-06-01",
		Lines:      []core.NewOrderLine{{ItemID: "V999", Quantity: 1}},
	})
	var nf *core.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "item", nf.Entity)
	assert.Zero(t, dbtest.Count(t, conn, "ordre"))
}

func TestPersistOrder_UnknownCustomerIsRolledBack(t *testing.T) {
	conn, orders := newStack(t)
	draft := core.NewOrderDraft()
	draft.SetCustomer(4242)
	draft.SetOrderDate("2024-06-01")
	require.NoError(t, draft.AddLine(core.Item{ID: "V001", UnitPrice: mustDecimal("10.00")}, 1))

	_, err := orders.PersistOrder(context.Background(), draft)
	var pErr *core.OrderPersistenceError
	require.True(t, errors.As(err, &pErr), "got %v", err)
	assert.Equal(t, "insert the order header", pErr.Step)
	assert.Zero(t, dbtest.Count(t, conn, "ordre"))
}

func TestPersistOrder_LineFailureLeavesNoOrder(t *testing.T) {
	conn, _ := newStack(t)
	ctx := context.Background()
	faulty := &faultyConnector{Connector: conn, table: "ordrelinje", nth: 2}
	orders := core.NewOrderService(faulty, nil)

	draft := core.NewOrderDraft()
	draft.SetCustomer(7)
	draft.SetOrderDate("2024-06-01")
	require.NoError(t, draft.AddLine(core.Item{ID: "V010", UnitPrice: mustDecimal("100.00")}, 2))
	require.NoError(t, draft.AddLine(core.Item{ID: "V011", UnitPrice: mustDecimal("250.00")}, 1))

	_, err := orders.PersistOrder(ctx, draft)
	var pErr *core.OrderPersistenceError
	require.True(t, errors.As(err, &pErr), "got %v", err)
	assert.Equal(t, "insert order line 2 (V011)", pErr.Step)
	assert.ErrorIs(t, err, errInjected)
	assert.NoError(t, pErr.RollbackErr)

	assert.Zero(t, dbtest.Count(t, conn, "ordre"))
	assert.Zero(t, dbtest.Count(t, conn, "ordrelinje"))

	// The draft survives the failure and can be retried.
	id, err := core.NewOrderService(conn, nil).PersistOrder(ctx, draft)
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Equal(t, int64(2), dbtest.Count(t, conn, "ordrelinje"))
}

func TestPersistOrder_HeaderAndCommitFailuresLeaveNoOrder(t *testing.T) {
	tests := []struct {
		name  string
		table string
		fault fault
		step  string
	}{
		{"header insert fails", "INSERT INTO ordre (", faultExec, "insert the order header"},
		{"header insert touches no rows", "INSERT INTO ordre (", faultNoRows, "insert the order header"},
		{"generated key unreadable", "INSERT INTO ordre (", faultLastID, "read the generated order number"},
		{"commit fails", "INSERT INTO ordrelinje", faultCommit, "commit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, _ := newStack(t)
			orders := core.NewOrderService(&faultyConnector{Connector: conn, table: tt.table, nth: 1, fault: tt.fault}, nil)

			draft := core.NewOrderDraft()
			draft.SetCustomer(7)
			draft.SetOrderDate("2024-06-01")
			require.NoError(t, draft.AddLine(core.Item{ID: "V010", UnitPrice: mustDecimal("100.00")}, 2))

			id, err := orders.PersistOrder(context.Background(), draft)
			assert.Zero(t, id)
			var pErr *core.OrderPersistenceError
			require.True(t, errors.As(err, &pErr), "got %v", err)
			assert.Equal(t, tt.step, pErr.Step)
			assert.NoError(t, pErr.RollbackErr)
			assert.Zero(t, dbtest.Count(t, conn, "ordre"))
			assert.Zero(t, dbtest.Count(t, conn, "ordrelinje"))
		})
	}
}

func TestCreateOrder_NormalizesItemNumbers(t *testing.T) {
	_, orders := newStack(t)
	ctx := context.Background()

	id, err := orders.CreateOrder(ctx, core.NewOrderRequest{
		CustomerID: 7,
		OrderDate:  "2024-06-01",
		Lines:      []core.NewOrderLine{{ItemID: "v010", Quantity: 1}, {ItemID: " V010 ", Quantity: 2}, {ItemID: "v011", Quantity: 1}},
	})
	require.NoError(t, err)

	o, err := orders.GetOrder(ctx, id)
	require.NoError(t, err)
	require.Len(t, o.Lines, 2)
	assert.Equal(t, "V010", o.Lines[0].ItemID)
	assert.Equal(t, 3, o.Lines[0].Quantity)
	assert.Equal(t, "V011", o.Lines[1].ItemID)
	assert.Equal(t, "550.00", o.Total().StringFixed(2))
}

func TestListOrders_NewestFirstWithTotals(t *testing.T) {
	_, orders := newStack(t)
	ctx := context.Background()

	first, err := orders.CreateOrder(ctx, core.NewOrderRequest{CustomerID: 7, OrderDate: "2024-01-15",
		Lines: []core.NewOrderLine{{ItemID: "V001", Quantity: 4}}})
	require.NoError(t, err)
	second, err := orders.CreateOrder(ctx, core.NewOrderRequest{CustomerID: 8, OrderDate: "2024-03-02",
		Lines: []core.NewOrderLine{{ItemID: "V011", Quantity: 2}}})
	require.NoError(t, err)

	all, err := orders.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second, all[0].ID)
	assert.Equal(t, "500.00", all[0].Total.StringFixed(2))
	assert.Equal(t, "Ola Berg", all[0].CustomerName)
	assert.Equal(t, first, all[1].ID)
	assert.Equal(t, "40.00", all[1].Total.StringFixed(2))

	recent, err := orders.RecentOrders(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, second, recent[0].ID)
}

func TestSearchOrders_ByNumberAndCustomer(t *testing.T) {
	conn, orders := newStack(t)
	ctx := context.Background()
	require.NoError(t, core.NewCustomerService(conn, nil).SetCustomerActive(ctx, 8, true))

	first, err := orders.CreateOrder(ctx, core.NewOrderRequest{
		CustomerID: 7, OrderDate: "2024-06-01", Lines: []core.NewOrderLine{{ItemID: "V001", Quantity: 1}},
	})
	require.NoError(t, err)
	second, err := orders.CreateOrder(ctx, core.NewOrderRequest{
		CustomerID: 8, OrderDate: "2024-06-02", Lines: []core.NewOrderLine{{ItemID: "V002", Quantity: 1}},
	})
	require.NoError(t, err)
	ids := func(list []core.OrderSummary) []int64 {
		return lo.Map(list, func(o core.OrderSummary, _ int) int64 { return o.ID })
	}

	tests := []struct {
		name string
		term string
		want []int64
	}{
		{"last name", "berg", []int64{second}},
		{"full name", "ola berg", []int64{second}},
		{"first name any case", "PER", []int64{first}},
		{"customer number", "8", []int64{second}},
		{"order number", itoa(first), []int64{first}},
		{"blank lists all", "", []int64{second, first}},
		{"no match", "ingen", []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := orders.SearchOrders(ctx, tt.term)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(found))
		})
	}

	found, err := orders.SearchOrders(ctx, "berg")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Ola Berg", found[0].CustomerName)
	assert.Equal(t, "199.90", found[0].Total.StringFixed(2))
}

func TestGetOrder_NotFound(t *testing.T) {
	_, orders := newStack(t)
	_, err := orders.GetOrder(context.Background(), 999)
	var nf *core.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "order", nf.Entity)
}
