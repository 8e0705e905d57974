// Package document renders invoices to PDF files.
package document

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"varehus/internal/config"
	"varehus/internal/core"

	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
)

// Totals are the amounts printed under the line table.
type Totals struct {
	Subtotal decimal.Decimal
	VAT      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals derives subtotal, VAT (rounded to øre) and total from the lines.
func ComputeTotals(lines []core.OrderLine, vatRate decimal.Decimal) Totals {
	sub := core.Order{Lines: lines}.Total()
	vat := sub.Mul(vatRate).Round(2)
	return Totals{Subtotal: sub, VAT: vat, Total: sub.Add(vat)}
}

// FileName is the document name for an invoice number.
func FileName(invoiceID int64) string {
	return fmt.Sprintf("faktura_%d.pdf", invoiceID)
}

// PDFRenderer writes one A4 PDF per invoice into OutputDir.
type PDFRenderer struct {
	OutputDir string
	LogoPath  string
	VATRate   decimal.Decimal
	Currency  string
	Company   config.CompanyInfo
}

// NewPDFRenderer builds a renderer from the invoice and company settings.
func NewPDFRenderer(ic config.InvoiceConfig, company config.CompanyInfo) (*PDFRenderer, error) {
	rate, err := ic.VAT()
	if err != nil {
		return nil, err
	}
	currency := ic.Currency
	if currency == "" {
		currency = "NOK"
	}
	return &PDFRenderer{
		OutputDir: ic.OutputDir,
		LogoPath:  ic.LogoPath,
		VATRate:   rate,
		Currency:  currency,
		Company:   company,
	}, nil
}

// Path returns where the document for invoiceID is (or will be) written.
func (r *PDFRenderer) Path(invoiceID int64) string {
	return filepath.Join(r.OutputDir, FileName(invoiceID))
}

func (r *PDFRenderer) money(d decimal.Decimal) string {
	return formatAmount(d) + " " + r.Currency
}

// formatAmount prints 12345.5 as "12 345,50".
func formatAmount(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(c)
	}
	out := b.String() + "," + frac
	if d.IsNegative() {
		out = "-" + out
	}
	return out
}

func formatDate(t time.Time) string {
	return t.Format("02.01.2006")
}

// Render writes the invoice document and returns its path.
func (r *PDFRenderer) Render(ctx context.Context, doc core.InvoiceDocument) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if r.LogoPath != "" {
		if _, err := os.Stat(r.LogoPath); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", &core.RenderAssetMissingError{Asset: r.LogoPath}
			}
			return "", fmt.Errorf("failed to read logo %s: %w", r.LogoPath, err)
		}
	}
	if err := os.MkdirAll(r.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create invoice directory %s: %w", r.OutputDir, err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Faktura "+doc.Invoice.Number(), true)
	pdf.SetAuthor(r.Company.Name, true)
	pdf.SetCreationDate(doc.Invoice.CreatedAt)
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	r.header(pdf, tr, doc)
	r.customerBlock(pdf, tr, doc)
	r.lineTable(pdf, tr, doc)
	r.totals(pdf, tr, doc)

	path := r.Path(doc.Invoice.ID)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("failed to write invoice %s: %w", path, err)
	}
	return path, nil
}

func (r *PDFRenderer) header(pdf *gofpdf.Fpdf, tr func(string) string, doc core.InvoiceDocument) {
	if r.LogoPath != "" {
		pdf.ImageOptions(r.LogoPath, 150, 15, 40, 0, false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 7, tr(r.Company.Name), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, tr(r.Company.Address), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, tr(strings.TrimSpace(r.Company.PostalCode+" "+r.Company.City)), "", 1, "L", false, 0, "")
	if r.Company.OrgNr != "" {
		pdf.CellFormat(0, 5, tr("Org.nr: "+r.Company.OrgNr), "", 1, "L", false, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "FAKTURA", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(40, 5, "Fakturanummer:", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 5, doc.Invoice.Number(), "", 1, "L", false, 0, "")
	pdf.CellFormat(40, 5, "Fakturadato:", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 5, formatDate(doc.Invoice.CreatedAt), "", 1, "L", false, 0, "")
	pdf.CellFormat(40, 5, "Ordrenummer:", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("%d", doc.Order.ID), "", 1, "L", false, 0, "")
	pdf.CellFormat(40, 5, "Ordredato:", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 5, formatDate(doc.Order.OrderDate), "", 1, "L", false, 0, "")
	if doc.Order.ShippedDate != nil {
		pdf.CellFormat(40, 5, "Sendt:", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, formatDate(*doc.Order.ShippedDate), "", 1, "L", false, 0, "")
	}
	if doc.Order.PaidDate != nil {
		pdf.CellFormat(40, 5, "Betalt:", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, formatDate(*doc.Order.PaidDate), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

func (r *PDFRenderer) customerBlock(pdf *gofpdf.Fpdf, tr func(string) string, doc core.InvoiceDocument) {
	c := doc.Customer
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "Faktureres til:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, tr(c.FullName()), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, tr(c.Address), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, tr(c.PostalCode), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Kundenummer: %d", c.ID), "", 1, "L", false, 0, "")
	pdf.Ln(8)
}

var columns = []struct {
	title string
	width float64
	align string
}{
	{"Varenr", 22, "L"},
	{"Beskrivelse", 68, "L"},
	{"Antall", 18, "R"},
	{"Pris", 30, "R"},
	{"Sum", 32, "R"},
}

func (r *PDFRenderer) lineTable(pdf *gofpdf.Fpdf, tr func(string) string, doc core.InvoiceDocument) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range columns {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, col.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, l := range doc.Order.Lines {
		cells := []string{
			l.ItemID,
			tr(l.ItemDescription),
			fmt.Sprintf("%d", l.Quantity),
			formatAmount(l.UnitPrice),
			formatAmount(l.LineTotal()),
		}
		for i, col := range columns {
			pdf.CellFormat(col.width, 6, cells[i], "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}

func (r *PDFRenderer) totals(pdf *gofpdf.Fpdf, tr func(string) string, doc core.InvoiceDocument) {
	t := ComputeTotals(doc.Order.Lines, r.VATRate)
	labelW, valueW := 120.0, 50.0

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(labelW, 6, "Sum eks. mva:", "", 0, "R", false, 0, "")
	pdf.CellFormat(valueW, 6, r.money(t.Subtotal), "", 1, "R", false, 0, "")
	pdf.CellFormat(labelW, 6, fmt.Sprintf("Mva (%s %%):", r.VATRate.Mul(decimal.NewFromInt(100)).String()), "", 0, "R", false, 0, "")
	pdf.CellFormat(valueW, 6, r.money(t.VAT), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(labelW, 7, tr("Å betale inkl. mva:"), "", 0, "R", false, 0, "")
	pdf.CellFormat(valueW, 7, r.money(t.Total), "", 1, "R", false, 0, "")
}
