package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"varehus/internal/app"
)

var errExit = errors.New("exit")

// Run starts the interactive REPL loop.
// It reads commands from reader and writes everything to out. Input without a
// slash prefix is treated as a command name as well, so "orders" and "/orders"
// behave the same.
func Run(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader, out io.Writer) {
	headerColor.Fprintln(out, "Varehus ordre og faktura")
	if d, err := svc.Dashboard(ctx, time.Now().Year()); err == nil {
		fmt.Fprintf(out, "%d customers, %d items, %d orders (%d unpaid).\n",
			d.Customers, d.Items, d.Orders, d.UnpaidOrders)
		if len(d.LowStockItems) > 0 {
			warnColor.Fprintf(out, "%d item(s) are low on stock, see /low-stock.\n", len(d.LowStockItems))
		}
	}
	fmt.Fprintln(out, "Type /help for commands.")
	fmt.Fprintln(out, strings.Repeat("-", 70))

	for {
		fmt.Fprint(out, "\n> ")
		input, readErr := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input != "" {
			if err := dispatch(ctx, svc, reader, out, input); err != nil {
				if errors.Is(err, errExit) {
					fmt.Fprintln(out, "Goodbye!")
					return
				}
				printError(out, err)
			}
		}
		if readErr != nil {
			fmt.Fprintln(out)
			return
		}
	}
}

func dispatch(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader, out io.Writer, input string) error {
	tokens := strings.Fields(strings.TrimPrefix(input, "/"))
	if len(tokens) == 0 {
		return nil
	}
	cmd := strings.ToLower(tokens[0])
	args := tokens[1:]

	switch cmd {
	case "items", "varer":
		result, err := svc.SearchItems(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		printItems(out, searchTitle("ITEMS", args), result.Items)

	case "low-stock", "low":
		threshold := 0
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				fmt.Fprintf(out, "Invalid threshold: %s\n", args[0])
				return nil
			}
			threshold = n
		}
		result, err := svc.LowStock(ctx, threshold)
		if err != nil {
			return err
		}
		printItems(out, "LOW STOCK", result.Items)

	case "customers", "kunder":
		result, err := svc.SearchCustomers(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		printCustomers(out, searchTitle("CUSTOMERS", args), result)

	case "orders", "ordrer":
		result, err := svc.SearchOrders(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		printOrders(out, searchTitle("ORDERS", args), result.Orders)

	case "order", "ordre":
		if len(args) < 1 {
			fmt.Fprintln(out, "Usage: /order <ordrenr>")
			return nil
		}
		result, err := svc.GetOrder(ctx, args[0])
		if err != nil {
			return err
		}
		printOrderDetail(out, result.Order)

	case "new-order", "ny":
		var customerID int64
		if len(args) > 0 {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				fmt.Fprintf(out, "Invalid customer number: %s\n", args[0])
				return nil
			}
			customerID = id
		}
		return handleNewOrder(ctx, reader, out, svc, customerID)

	case "invoice", "faktura":
		if len(args) < 1 {
			fmt.Fprintln(out, "Usage: /invoice <ordrenr>")
			return nil
		}
		result, err := svc.IssueInvoice(ctx, args[0])
		if result != nil {
			printInvoice(out, result)
		}
		return err

	case "invoices", "fakturaer":
		if len(args) < 1 {
			fmt.Fprintln(out, "Usage: /invoices <ordrenr>")
			return nil
		}
		invoices, err := svc.ListInvoices(ctx, args[0])
		if err != nil {
			return err
		}
		if len(invoices) == 0 {
			fmt.Fprintln(out, "No invoices issued for this order.")
		}
		for _, inv := range invoices {
			fmt.Fprintf(out, "  %-8s %s\n", inv.Number(), inv.CreatedAt.Format("2006-01-02 15:04"))
		}

	case "render":
		if len(args) < 1 {
			fmt.Fprintln(out, "Usage: /render <FA-nr>")
			return nil
		}
		result, err := svc.RenderInvoice(ctx, args[0])
		if err != nil {
			return err
		}
		okColor.Fprintf(out, "Invoice %s written to %s\n", result.Number, result.DocumentPath)

	case "stats", "statistikk":
		year := time.Now().Year()
		if len(args) > 0 {
			y, err := strconv.Atoi(args[0])
			if err != nil || y < 1900 {
				fmt.Fprintf(out, "Invalid year: %s\n", args[0])
				return nil
			}
			year = y
		}
		d, err := svc.Dashboard(ctx, year)
		if err != nil {
			return err
		}
		printDashboard(out, d)

	case "help", "h":
		printHelp(out)

	case "exit", "quit", "e", "q":
		return errExit

	default:
		fmt.Fprintf(out, "Unknown command: /%s  (type /help for all commands)\n", cmd)
	}
	return nil
}

// searchTitle appends the search term, if any, to a listing heading.
func searchTitle(title string, args []string) string {
	if len(args) == 0 {
		return title
	}
	return fmt.Sprintf("%s matching %q", title, strings.Join(args, " "))
}
