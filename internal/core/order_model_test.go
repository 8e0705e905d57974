package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id, price string) Item {
	return Item{ID: id, Description: "Vare " + id, UnitPrice: decimal.RequireFromString(price)}
}

func TestOrderDraft_MergesDuplicateItems(t *testing.T) {
	d := NewOrderDraft()
	require.NoError(t, d.AddLine(item("V001", "10.00"), 2))
	require.NoError(t, d.AddLine(item("V001", "10.00"), 3))

	lines := d.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "V001", lines[0].ItemID)
	assert.Equal(t, 5, lines[0].Quantity)
	assert.Equal(t, "50.00", d.Total().StringFixed(2))
}

func TestOrderDraft_MergeKeepsCapturedPrice(t *testing.T) {
	d := NewOrderDraft()
	require.NoError(t, d.AddLine(item("V001", "10.00"), 1))
	require.NoError(t, d.AddLine(item("V001", "12.00"), 1))

	assert.True(t, d.Lines()[0].UnitPrice.Equal(decimal.RequireFromString("10.00")))
	assert.Equal(t, "20.00", d.Total().StringFixed(2))
}

func TestOrderDraft_ExactDecimalTotal(t *testing.T) {
	d := NewOrderDraft()
	require.NoError(t, d.AddLine(item("V002", "199.90"), 3))

	total := d.Total()
	assert.True(t, total.Equal(decimal.RequireFromString("599.70")), "got %s", total)
	assert.Equal(t, "599.70", total.StringFixed(2))
}

func TestOrderDraft_RunningTotalAndRemove(t *testing.T) {
	d := NewOrderDraft()
	require.NoError(t, d.AddLine(item("V010", "100.00"), 2))
	require.NoError(t, d.AddLine(item("V011", "250.00"), 1))
	assert.Equal(t, "450.00", d.Total().StringFixed(2))
	assert.True(t, d.HasLine("V011"))

	assert.True(t, d.RemoveLine("V011"))
	assert.False(t, d.RemoveLine("V011"))
	assert.False(t, d.HasLine("V011"))
	assert.Equal(t, "200.00", d.Total().StringFixed(2))
}

func TestOrderDraft_AddLineRejects(t *testing.T) {
	d := NewOrderDraft()
	var vErr *ValidationError

	err := d.AddLine(item("V001", "1.00"), 0)
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "antall", vErr.Field)

	err = d.AddLine(item("V001", "1.00"), -4)
	require.True(t, errors.As(err, &vErr))

	err = d.AddLine(Item{}, 1)
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "vnr", vErr.Field)

	assert.Empty(t, d.Lines())
}

func TestOrderDraft_Validate(t *testing.T) {
	withLine := func(d *OrderDraft) *OrderDraft {
		_ = d.AddLine(item("V001", "5.00"), 1)
		return d
	}

	tests := []struct {
		name  string
		draft *OrderDraft
		field string
	}{
		{"no customer", withLine(&OrderDraft{OrderDate: "2024-06-01"}), "knr"},
		{"no date", withLine(&OrderDraft{CustomerID: 7}), "ordredato"},
		{"bad date", withLine(&OrderDraft{CustomerID: 7, OrderDate: "01/06/2024"}), "ordredato"},
		{"impossible date", withLine(&OrderDraft{CustomerID: 7, OrderDate: "2024-02-30"}), "ordredato"},
		{"no lines", &OrderDraft{CustomerID: 7, OrderDate: "2024-06-01"}, "linjer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.draft.Validate()
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}

	ok := withLine(&OrderDraft{CustomerID: 7, OrderDate: "2024-06-01"})
	v, err := ok.Validate()
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.CustomerID)
	assert.Equal(t, "2024-06-01", v.OrderDate.Format(DateLayout))
	assert.Len(t, v.Lines, 1)
}

func TestCustomerInput_Validate(t *testing.T) {
	good := CustomerInput{FirstName: "Kari", LastName: "Nordmann-Ås", Address: "Storgata 1", PostalCode: "0155"}
	assert.NoError(t, good.Validate())

	withPhone := good
	withPhone.Phone = "+47 912 34 567"
	withPhone.Email = "kari@example.no"
	assert.NoError(t, withPhone.Validate())

	bad := CustomerInput{FirstName: "K", LastName: "N0rdmann", Address: "Gata", PostalCode: "155", Phone: "123", Email: "kari@"}
	err := bad.Validate()
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	for _, want := range []string{"first name", "last name", "address", "postal code", "phone", "e-mail"} {
		assert.Contains(t, vErr.Message, want)
	}
}

func TestUserMessage_DistinctPerCategory(t *testing.T) {
	errs := []error{
		&ValidationError{Field: "knr", Message: "no customer selected"},
		&NotFoundError{Entity: "order", Key: 42},
		&ConflictError{Entity: "item", Key: "V001", Reason: "already exists"},
		&OrderPersistenceError{Step: "insert order line 2 (V011)", Err: errors.New("boom")},
		&InvoicePersistenceError{OrderID: 3, Step: "insert the invoice", Err: errors.New("boom")},
		&RenderError{InvoiceID: 9, Err: &RenderAssetMissingError{Asset: "static/logo.png"}},
		&RenderError{InvoiceID: 9, Err: errors.New("disk full")},
		errors.New("something else"),
	}
	seen := map[string]bool{}
	for _, err := range errs {
		msg := UserMessage(err)
		assert.NotEmpty(t, msg)
		assert.False(t, seen[msg], "duplicate message %q", msg)
		seen[msg] = true
	}
	assert.Contains(t, UserMessage(errs[3]), "insert order line 2 (V011)")
	assert.Contains(t, UserMessage(errs[5]), "FA-9")
	assert.Contains(t, UserMessage(errs[5]), "static/logo.png")
}
