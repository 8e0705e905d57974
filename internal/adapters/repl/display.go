package repl

import (
	"fmt"
	"io"
	"strings"

	"varehus/internal/app"
	"varehus/internal/core"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	okColor     = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
	errColor    = color.New(color.FgRed, color.Bold)
)

func rule(w io.Writer, ch string, n int) {
	fmt.Fprintln(w, strings.Repeat(ch, n))
}

func heading(w io.Writer, title string, width int) {
	fmt.Fprintln(w)
	rule(w, "=", width)
	headerColor.Fprintf(w, "  %s\n", title)
	rule(w, "=", width)
}

func kr(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func printItems(w io.Writer, title string, items []core.Item) {
	heading(w, title, 64)
	if len(items) == 0 {
		fmt.Fprintln(w, "  No items found.")
		rule(w, "=", 64)
		return
	}
	fmt.Fprintf(w, "  %-6s %-32s %12s %8s\n", "VNR", "BETEGNELSE", "PRIS", "ANTALL")
	rule(w, "-", 64)
	for _, it := range items {
		line := fmt.Sprintf("  %-6s %-32s %12s %8d", it.ID, it.Description, kr(it.UnitPrice), it.InStock)
		if it.InStock < core.DefaultLowStockThreshold {
			warnColor.Fprintln(w, line)
			continue
		}
		fmt.Fprintln(w, line)
	}
	rule(w, "=", 64)
}

func printCustomers(w io.Writer, title string, result *app.CustomerListResult) {
	heading(w, title, 72)
	if len(result.Customers) == 0 {
		fmt.Fprintln(w, "  No customers found.")
		rule(w, "=", 72)
		return
	}
	fmt.Fprintf(w, "  %-6s %-26s %-24s %s\n", "KNR", "NAVN", "ADRESSE", "POSTNR")
	rule(w, "-", 72)
	for _, c := range result.Customers {
		fmt.Fprintf(w, "  %-6d %-26s %-24s %s\n", c.ID, c.FullName(), c.Address, c.PostalCode)
	}
	rule(w, "=", 72)
}

func dateOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printOrders(w io.Writer, title string, orders []core.OrderSummary) {
	heading(w, title, 78)
	if len(orders) == 0 {
		fmt.Fprintln(w, "  No orders found.")
		rule(w, "=", 78)
		return
	}
	fmt.Fprintf(w, "  %-6s %-11s %-24s %-11s %-11s %10s\n", "NR", "DATO", "KUNDE", "SENDT", "BETALT", "SUM")
	rule(w, "-", 78)
	for _, o := range orders {
		shipped, paid := "", ""
		if o.ShippedDate != nil {
			shipped = o.ShippedDate.Format(core.DateLayout)
		}
		if o.PaidDate != nil {
			paid = o.PaidDate.Format(core.DateLayout)
		}
		fmt.Fprintf(w, "  %-6d %-11s %-24s %-11s %-11s %10s\n",
			o.ID, o.OrderDate.Format(core.DateLayout), o.CustomerName, dateOrDash(shipped), dateOrDash(paid), kr(o.Total))
	}
	rule(w, "=", 78)
}

func printOrderDetail(w io.Writer, o *core.Order) {
	heading(w, fmt.Sprintf("ORDER %d", o.ID), 70)
	fmt.Fprintf(w, "  Customer : %d %s\n", o.CustomerID, o.CustomerName)
	fmt.Fprintf(w, "  Date     : %s\n", o.OrderDate.Format(core.DateLayout))
	if o.ShippedDate != nil {
		fmt.Fprintf(w, "  Shipped  : %s\n", o.ShippedDate.Format(core.DateLayout))
	}
	if o.IsPaid() {
		fmt.Fprintf(w, "  Paid     : %s\n", o.PaidDate.Format(core.DateLayout))
	}
	rule(w, "-", 70)
	fmt.Fprintf(w, "  %-6s %-30s %6s %10s %12s\n", "VNR", "BETEGNELSE", "ANTALL", "PRIS", "SUM")
	for _, l := range o.Lines {
		fmt.Fprintf(w, "  %-6s %-30s %6d %10s %12s\n", l.ItemID, l.ItemDescription, l.Quantity, kr(l.UnitPrice), kr(l.LineTotal()))
	}
	rule(w, "-", 70)
	fmt.Fprintf(w, "  %-54s %12s\n", "TOTAL", kr(o.Total()))
	rule(w, "=", 70)
}

func printDraft(w io.Writer, d *core.OrderDraft) {
	lines := d.Lines()
	if len(lines) == 0 {
		fmt.Fprintln(w, "  (no lines yet)")
		return
	}
	for i, l := range lines {
		fmt.Fprintf(w, "  %2d. %-6s %-28s %4d x %10s = %12s\n",
			i+1, l.ItemID, l.Description, l.Quantity, kr(l.UnitPrice), kr(l.LineTotal()))
	}
	fmt.Fprintf(w, "  %-58s %12s\n", "Running total", kr(d.Total()))
}

func printInvoice(w io.Writer, r *app.InvoiceResult) {
	okColor.Fprintf(w, "Invoice %s created for order %d (customer %d).\n",
		r.Number, r.Invoice.OrderID, r.Invoice.CustomerID)
	if r.DocumentPath != "" {
		fmt.Fprintf(w, "Document: %s\n", r.DocumentPath)
	}
}

func printDashboard(w io.Writer, d *core.Dashboard) {
	heading(w, fmt.Sprintf("STATISTICS %d", d.Year), 60)
	fmt.Fprintf(w, "  %-32s %10d\n", "Customers", d.Customers)
	fmt.Fprintf(w, "  %-32s %10d\n", "Items", d.Items)
	fmt.Fprintf(w, "  %-32s %10d\n", "Orders", d.Orders)
	fmt.Fprintf(w, "  %-32s %10d\n", "Orders this year", d.OrdersInYear)
	fmt.Fprintf(w, "  %-32s %10d\n", "Paid orders", d.PaidOrders)
	fmt.Fprintf(w, "  %-32s %10d\n", "Unpaid orders", d.UnpaidOrders)
	fmt.Fprintf(w, "  %-32s %10s\n", "Unpaid value", kr(d.UnpaidValue))
	rule(w, "=", 60)
	if len(d.LowStockItems) > 0 {
		warnColor.Fprintf(w, "  %d item(s) low on stock\n", len(d.LowStockItems))
	}
}

func printError(w io.Writer, err error) {
	errColor.Fprintf(w, "Error: %s\n", core.UserMessage(err))
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w)
	headerColor.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  /items [search]          List items, or those matching search")
	fmt.Fprintln(w, "  /low-stock [threshold]   Items with low stock (default 10)")
	fmt.Fprintln(w, "  /customers [search]      List active customers, or search all by number or name")
	fmt.Fprintln(w, "  /orders [search]         List orders newest first, or search by number or customer")
	fmt.Fprintln(w, "  /order <nr>              Show one order with its lines")
	fmt.Fprintln(w, "  /new-order [knr]         Enter a new order interactively")
	fmt.Fprintln(w, "  /invoice <ordrenr>       Issue an invoice for an order")
	fmt.Fprintln(w, "  /invoices <ordrenr>      List invoices issued for an order")
	fmt.Fprintln(w, "  /render <FA-nr>          Render an existing invoice again")
	fmt.Fprintln(w, "  /stats [year]            Show statistics")
	fmt.Fprintln(w, "  /help                    Show this help")
	fmt.Fprintln(w, "  /exit                    Quit")
}
