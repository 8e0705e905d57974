// Package cli exposes the application as one-shot cobra commands. Running the
// root command without a subcommand starts the interactive REPL.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"varehus/internal/adapters/repl"
	"varehus/internal/app"
	"varehus/internal/config"
	"varehus/internal/core"
	"varehus/internal/db"
	"varehus/internal/logging"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// Deps lets tests replace configuration loading and runtime construction.
type Deps struct {
	LoadConfig func() (*config.Config, error)
	Open       func(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app.Runtime, error)
}

// DefaultDeps reads configuration from the environment and opens the configured database.
func DefaultDeps() Deps {
	return Deps{LoadConfig: config.Load, Open: app.Open}
}

type session struct {
	deps      Deps
	cfg       *config.Config
	log       *slog.Logger
	logCloser io.Closer
	rt        *app.Runtime
}

// svc opens the runtime on first use so commands like migrate never connect
// through the service layer.
func (s *session) svc(ctx context.Context) (app.ApplicationService, error) {
	if s.rt == nil {
		rt, err := s.deps.Open(ctx, s.cfg, s.log)
		if err != nil {
			return nil, err
		}
		s.rt = rt
	}
	return s.rt.App, nil
}

func (s *session) close() {
	if s.rt != nil {
		_ = s.rt.Close()
		s.rt = nil
	}
	if s.logCloser != nil {
		_ = s.logCloser.Close()
		s.logCloser = nil
	}
}

// NewRootCommand builds the varehus command tree.
func NewRootCommand(deps Deps) *cobra.Command {
	s := &session{deps: deps}

	root := &cobra.Command{
		Use:           "varehus",
		Short:         "Order entry and invoicing for the warehouse.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.deps.LoadConfig()
			if err != nil {
				return err
			}
			log, closer, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			s.cfg, s.log, s.logCloser = cfg, log, closer
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd, s)
		},
	}

	root.AddCommand(
		replCmd(s),
		migrateCmd(s),
		itemsCmd(s),
		lowStockCmd(s),
		customersCmd(s),
		ordersCmd(s),
		orderCmd(s),
		invoiceCmd(s),
		statsCmd(s),
	)
	closeAfter(s, root)
	return root
}

// closeAfter wraps every runnable command so the runtime and log file are
// released whether or not the command fails.
func closeAfter(s *session, cmd *cobra.Command) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(c *cobra.Command, args []string) error {
			defer s.close()
			return run(c, args)
		}
	}
	for _, sub := range cmd.Commands() {
		closeAfter(s, sub)
	}
}

// Execute runs the command tree and prints a categorised message on failure.
// It returns the process exit code.
func Execute(ctx context.Context, root *cobra.Command) int {
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	color.New(color.FgRed, color.Bold).Fprintln(root.ErrOrStderr(), core.UserMessage(err))
	return 1
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runREPL(cmd *cobra.Command, s *session) error {
	svc, err := s.svc(cmd.Context())
	if err != nil {
		return err
	}
	repl.Run(cmd.Context(), svc, bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout())
	return nil
}

func replCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start the interactive prompt (default).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd, s)
		},
	}
}

func migrateCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := db.Migrate(cmd.Context(), s.cfg.Database)
			if err != nil {
				return err
			}
			if !res.Applied {
				fmt.Fprintf(cmd.OutOrStdout(), "Schema already at version %d.\n", res.To)
				return nil
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Schema migrated from version %d to %d.\n", res.From, res.To)
			return nil
		},
	}
}

func itemsCmd(s *session) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "items",
		Short: "List items, optionally filtered by --search.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := s.svc(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.SearchItems(cmd.Context(), search)
			if err != nil {
				return err
			}
			return writeJSON(cmd, result)
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "only items whose number or description contains this text")
	return cmd
}

func lowStockCmd(s *session) *cobra.Command {
	var threshold int
	cmd := &cobra.Command{
		Use:   "low-stock",
		Short: "List items with low stock.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := s.svc(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.LowStock(cmd.Context(), threshold)
			if err != nil {
				return err
			}
			return writeJSON(cmd, result)
		},
	}
	cmd.Flags().IntVar(&threshold, "threshold", core.DefaultLowStockThreshold, "report items with fewer units than this")
	return cmd
}

func customersCmd(s *session) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "customers",
		Short: "List active customers, or search all customers.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := s.svc(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.SearchCustomers(cmd.Context(), search)
			if err != nil {
				return err
			}
			return writeJSON(cmd, result)
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "search number and name, including inactive customers")
	return cmd
}

func ordersCmd(s *session) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List orders, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := s.svc(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.SearchOrders(cmd.Context(), search)
			if err != nil {
				return err
			}
			return writeJSON(cmd, result)
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "only orders whose number, customer number or customer name contains this text")
	return cmd
}

func orderCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order <ordrenr>",
		Short: "Show one order, or create one with 'order create'.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := s.svc(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.GetOrder(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, result)
		},
	}
	cmd.AddCommand(orderCreateCmd(s))
	return cmd
}

// ParseLine reads a VNR:QTY line argument.
func ParseLine(raw string) (app.OrderLineInput, error) {
	id, qtyStr, ok := strings.Cut(raw, ":")
	if !ok || strings.TrimSpace(id) == "" {
		return app.OrderLineInput{}, &core.ValidationError{Field: "linjer", Message: fmt.Sprintf("%q must look like VNR:ANTALL", raw)}
	}
	qty, err := strconv.Atoi(strings.TrimSpace(qtyStr))
	if err != nil {
		return app.OrderLineInput{}, &core.ValidationError{Field: "antall", Message: fmt.Sprintf("%q is not a whole number", qtyStr)}
	}
	return app.OrderLineInput{ItemID: strings.TrimSpace(id), Quantity: qty}, nil
}

func orderCreateCmd(s *session) *cobra.Command {
	var (
		customerID int64
		date       string
		rawLines   []string
	)
	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create an order at current catalogue prices.",
		Example: "  varehus order create --customer 7 --date 2024-06-01 --line V010:2 --line V011:1",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lines := make([]app.OrderLineInput, 0, len(rawLines))
			for _, raw := range rawLines {
				l, err := ParseLine(raw)
				if err != nil {
					return err
				}
				lines = append(lines, l)
			}
			svc, err := s.svc(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.CreateOrder(cmd.Context(), app.CreateOrderRequest{
				CustomerID: customerID,
				OrderDate:  date,
				Lines:      lines,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd, result)
		},
	}
	cmd.Flags().Int64Var(&customerID, "customer", 0, "customer number (KNr)")
	cmd.Flags().StringVar(&date, "date", time.Now().Format(core.DateLayout), "order date, YYYY-MM-DD")
	cmd.Flags().StringArrayVar(&rawLines, "line", nil, "order line as VNR:ANTALL, repeatable")
	_ = cmd.MarkFlagRequired("customer")
	return cmd
}

func invoiceCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Issue, render and list invoices.",
	}

	issue := &cobra.Command{
		Use:   "issue <ordrenr>",
		Short: "Create an invoice for an order and render its PDF.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := s.svc(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.IssueInvoice(cmd.Context(), args[0])
			if result != nil {
				if werr := writeJSON(cmd, result); werr != nil {
					return werr
				}
			}
			return err
		},
	}

	render := &cobra.Command{
		Use:   "render <FA-nr>",
		Short: "Render an existing invoice again.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := s.svc(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.RenderInvoice(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, result)
		},
	}

	list := &cobra.Command{
		Use:   "list <ordrenr>",
		Short: "List invoices issued for an order.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := s.svc(cmd.Context())
			if err != nil {
				return err
			}
			invoices, err := svc.ListInvoices(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, lo.Map(invoices, func(inv core.Invoice, _ int) app.InvoiceResult {
				return app.InvoiceResult{Invoice: inv, Number: inv.Number()}
			}))
		},
	}

	cmd.AddCommand(issue, render, list)
	return cmd
}

func statsCmd(s *session) *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show order and stock statistics.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := s.svc(cmd.Context())
			if err != nil {
				return err
			}
			d, err := svc.Dashboard(cmd.Context(), year)
			if err != nil {
				return err
			}
			return writeJSON(cmd, d)
		},
	}
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "calendar year for the order count")
	return cmd
}
