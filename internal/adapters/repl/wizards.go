package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"varehus/internal/app"
	"varehus/internal/core"
)

func prompt(reader *bufio.Reader, out io.Writer, label string) (string, bool) {
	fmt.Fprint(out, label)
	raw, err := reader.ReadString('\n')
	raw = strings.TrimSpace(raw)
	if err != nil && raw == "" {
		return "", false
	}
	return raw, true
}

// handleNewOrder runs an interactive order entry session. The draft lives in
// memory until the user confirms; if saving fails it is kept so the user can
// fix the problem and try again.
func handleNewOrder(ctx context.Context, reader *bufio.Reader, out io.Writer, svc app.ApplicationService, customerID int64) error {
	draft := core.NewOrderDraft()

	if customerID == 0 {
		customers, err := svc.ListCustomers(ctx)
		if err != nil {
			return err
		}
		printCustomers(out, "CUSTOMERS", customers)
		for customerID == 0 {
			raw, ok := prompt(reader, out, "Customer number (blank to cancel): ")
			if !ok || raw == "" {
				fmt.Fprintln(out, "Order entry cancelled.")
				return nil
			}
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				fmt.Fprintln(out, "  Invalid customer number.")
				continue
			}
			customerID = id
		}
	}
	customer, err := svc.GetCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	draft.SetCustomer(customer.ID)
	fmt.Fprintf(out, "Creating order for %d %s\n", customer.ID, customer.FullName())

	today := time.Now().Format(core.DateLayout)
	for {
		raw, ok := prompt(reader, out, fmt.Sprintf("Order date (YYYY-MM-DD) [%s]: ", today))
		if !ok {
			fmt.Fprintln(out, "Order entry cancelled.")
			return nil
		}
		if raw == "" {
			raw = today
		}
		if _, err := time.Parse(core.DateLayout, raw); err != nil {
			fmt.Fprintln(out, "  Invalid date. Use YYYY-MM-DD.")
			continue
		}
		draft.SetOrderDate(raw)
		break
	}

	fmt.Fprintln(out, "Enter order lines. Type 'done' when finished, 'cancel' to abort.")
	fmt.Fprintln(out, "  <vnr> <antall>   add a line (repeating an item adds to its quantity)")
	fmt.Fprintln(out, "  -<vnr>           remove a line")
	fmt.Fprintln(out, "  list             show the lines so far")

	for {
		done, cancelled := editLines(ctx, reader, out, svc, draft)
		if cancelled {
			fmt.Fprintln(out, "Order entry cancelled.")
			return nil
		}
		if !done {
			continue
		}

		fmt.Fprintln(out)
		printDraft(out, draft)
		raw, ok := prompt(reader, out, "Save this order? (y/n): ")
		if !ok || !isYes(raw) {
			fmt.Fprintln(out, "Order not saved.")
			return nil
		}

		result, err := svc.SaveDraft(ctx, draft)
		if err != nil {
			printError(out, err)
			raw, ok := prompt(reader, out, "Edit the order and try again? (y/n): ")
			if ok && isYes(raw) {
				continue
			}
			fmt.Fprintln(out, "Order not saved.")
			return nil
		}
		okColor.Fprintf(out, "Order %d saved.\n", result.Order.ID)
		printOrderDetail(out, result.Order)
		fmt.Fprintf(out, "Use '/invoice %d' to issue an invoice.\n", result.Order.ID)
		return nil
	}
}

// editLines reads line commands until the user types done or cancel.
func editLines(ctx context.Context, reader *bufio.Reader, out io.Writer, svc app.ApplicationService, draft *core.OrderDraft) (done, cancelled bool) {
	for {
		raw, ok := prompt(reader, out, fmt.Sprintf("  Line %d: ", len(draft.Lines())+1))
		if !ok {
			return false, true
		}
		switch strings.ToLower(raw) {
		case "":
			continue
		case "cancel":
			return false, true
		case "done":
			if len(draft.Lines()) == 0 {
				fmt.Fprintln(out, "  The order has no lines yet.")
				continue
			}
			return true, false
		case "list":
			printDraft(out, draft)
			continue
		}

		if strings.HasPrefix(raw, "-") {
			id := strings.ToUpper(strings.TrimSpace(raw[1:]))
			if !draft.RemoveLine(id) {
				fmt.Fprintf(out, "  %s is not on the order.\n", id)
			}
			continue
		}

		parts := strings.Fields(raw)
		if len(parts) != 2 {
			fmt.Fprintln(out, "  Invalid format. Use: <vnr> <antall>")
			continue
		}
		qty, err := strconv.Atoi(parts[1])
		if err != nil || qty <= 0 {
			fmt.Fprintln(out, "  Quantity must be a positive whole number.")
			continue
		}
		item, err := svc.GetItem(ctx, parts[0])
		if err != nil {
			printError(out, err)
			continue
		}
		if draft.HasLine(item.ID) {
			answer, ok := prompt(reader, out, fmt.Sprintf("  %s is already on the order. Add %d more? [y/N]: ", item.ID, qty))
			if !ok {
				return false, true
			}
			if !isYes(answer) {
				fmt.Fprintf(out, "  %s left unchanged.\n", item.ID)
				continue
			}
		}
		if err := draft.AddLine(*item, qty); err != nil {
			printError(out, err)
			continue
		}
		if item.InStock < qty {
			warnColor.Fprintf(out, "  Note: only %d of %s in stock.\n", item.InStock, item.ID)
		}
		fmt.Fprintf(out, "  Running total: %s\n", kr(draft.Total()))
	}
}

func isYes(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "y" || s == "yes" || s == "j" || s == "ja"
}
