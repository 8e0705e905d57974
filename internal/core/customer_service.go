package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"varehus/internal/db"
)

// listCustomersProcedure returns all active customers ordered by name.
const listCustomersProcedure = "hent_alle_kunder"

// CustomerService manages customer master data.
type CustomerService interface {
	// ListCustomers returns the active customers via the hent_alle_kunder
	// procedure, or the equivalent query where procedures are unavailable.
	ListCustomers(ctx context.Context) ([]Customer, error)
	// SearchCustomers matches the term against customer number, first name,
	// last name and full name, ignoring case. Inactive customers are included
	// so old accounts can still be found. An empty term behaves like
	// ListCustomers.
	SearchCustomers(ctx context.Context, term string) ([]Customer, error)
	GetCustomer(ctx context.Context, id int64) (*Customer, error)
	CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error)
	UpdateCustomer(ctx context.Context, id int64, in CustomerInput) (*Customer, error)
	SetCustomerActive(ctx context.Context, id int64, active bool) error
}

type customerService struct {
	conn db.Connector
	log  *slog.Logger
}

func NewCustomerService(conn db.Connector, log *slog.Logger) CustomerService {
	return &customerService{conn: conn, log: orDiscard(log)}
}

func (s *customerService) ListCustomers(ctx context.Context) ([]Customer, error) {
	gw, err := s.conn.Session(ctx)
	if err != nil {
		return nil, err
	}
	defer gw.Close()

	var rows []db.Row
	if gw.Dialect().SupportsProcedures() {
		rows, err = gw.CallProcedure(ctx, listCustomersProcedure)
	} else {
		rows, err = gw.FetchAll(ctx, "SELECT "+customerColumns+
			" FROM kunde WHERE is_active = 1 ORDER BY Etternavn, Fornavn, KNr")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return scanCustomers(rows)
}

func (s *customerService) SearchCustomers(ctx context.Context, term string) ([]Customer, error) {
	if strings.TrimSpace(term) == "" {
		return s.ListCustomers(ctx)
	}
	gw, err := s.conn.Session(ctx)
	if err != nil {
		return nil, err
	}
	defer gw.Close()

	d := gw.Dialect()
	p := searchPattern(term)
	rows, err := gw.FetchAll(ctx, "SELECT "+customerColumns+" FROM kunde WHERE "+
		asText(d, "KNr")+" LIKE ? OR LOWER(Fornavn) LIKE ? OR LOWER(Etternavn) LIKE ? OR LOWER("+
		fullName(d, "Fornavn", "Etternavn")+") LIKE ? ORDER BY Etternavn, Fornavn, KNr",
		p, p, p, p)
	if err != nil {
		return nil, fmt.Errorf("failed to search customers: %w", err)
	}
	return scanCustomers(rows)
}

func scanCustomers(rows []db.Row) ([]Customer, error) {
	out := make([]Customer, 0, len(rows))
	for _, r := range rows {
		c, err := scanCustomer(r)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *customerService) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	gw, err := s.conn.Session(ctx)
	if err != nil {
		return nil, err
	}
	defer gw.Close()
	return fetchCustomer(ctx, gw, id)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s *customerService) CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	gw, err := s.conn.Session(ctx)
	if err != nil {
		return nil, err
	}
	defer gw.Close()

	_, err = gw.Execute(ctx, `
		INSERT INTO kunde (Fornavn, Etternavn, Adresse, PostNr, Telefon, Epost, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.FirstName, in.LastName, in.Address, in.PostalCode, nullable(in.Phone), nullable(in.Email), true)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	id, err := gw.LastInsertID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read new customer number: %w", err)
	}
	s.log.Info("customer created", "knr", id)
	return fetchCustomer(ctx, gw, id)
}

func (s *customerService) UpdateCustomer(ctx context.Context, id int64, in CustomerInput) (*Customer, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	gw, err := s.conn.Session(ctx)
	if err != nil {
		return nil, err
	}
	defer gw.Close()

	if _, err := fetchCustomer(ctx, gw, id); err != nil {
		return nil, err
	}
	_, err = gw.Execute(ctx, `
		UPDATE kunde SET Fornavn = ?, Etternavn = ?, Adresse = ?, PostNr = ?, Telefon = ?, Epost = ?
		WHERE KNr = ?`,
		in.FirstName, in.LastName, in.Address, in.PostalCode, nullable(in.Phone), nullable(in.Email), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update customer %d: %w", id, err)
	}
	return fetchCustomer(ctx, gw, id)
}

// SetCustomerActive hides or restores a customer in ListCustomers. Existing
// orders and invoices are unaffected.
func (s *customerService) SetCustomerActive(ctx context.Context, id int64, active bool) error {
	gw, err := s.conn.Session(ctx)
	if err != nil {
		return err
	}
	defer gw.Close()

	n, err := gw.Execute(ctx, "UPDATE kunde SET is_active = ? WHERE KNr = ?", active, id)
	if err != nil {
		return fmt.Errorf("failed to update customer %d: %w", id, err)
	}
	if n == 0 {
		return &NotFoundError{Entity: "customer", Key: id}
	}
	return nil
}
