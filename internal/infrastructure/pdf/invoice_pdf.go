// Package pdf genera el PDF de una factura con Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: emisor              │  INVOICE + número            │
//	│  From (emisor)               │  To (cliente)                │
//	│  Issue date | Due date | Currency                           │
//	│  TABLA: Description | Qty | Unit price | Tax | Line total   │
//	│  TOTALES: Subtotal / Tax / Total                            │
//	│  Payment instructions / Bank details / Notes (opcionales)   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/facturador-api/internal/application/billing"
	"github.com/jhoicas/facturador-api/pkg/money"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// Nombres de sección, en orden de aparición.
const (
	SectionHeader              = "header"
	SectionParties             = "parties"
	SectionDates               = "dates"
	SectionLines               = "lines"
	SectionTotals              = "totals"
	SectionPaymentInstructions = "payment_instructions"
	SectionBankDetails         = "bank_details"
	SectionNotes               = "notes"
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ billing.InvoicePDFGenerator = (*MarotoPDFGenerator)(nil)

// MarotoPDFGenerator implementa billing.InvoicePDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

type section struct {
	name string
	rows []core.Row
}

// GenerateInvoicePDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateInvoicePDF(_ context.Context, doc *billing.InvoiceDocument) ([]byte, error) {
	if doc == nil || doc.Invoice == nil {
		return nil, fmt.Errorf("pdf: documento sin factura")
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Invoice "+doc.Invoice.InvoiceNumber, true).
		WithAuthor(issuerName(doc), true).
		Build()

	m := maroto.New(cfg)
	for _, s := range sections(doc) {
		m.AddRows(s.rows...)
	}

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

// SectionNames devuelve las secciones que tendría el PDF de doc.
func SectionNames(doc *billing.InvoiceDocument) []string {
	var names []string
	for _, s := range sections(doc) {
		names = append(names, s.name)
	}
	return names
}

// sections arma el documento; las secciones de pago y notas solo si tienen texto.
func sections(doc *billing.InvoiceDocument) []section {
	inv := doc.Invoice
	out := []section{
		{SectionHeader, []core.Row{headerRow(doc), separator(0.5)}},
		{SectionParties, []core.Row{partiesRow(doc)}},
		{SectionDates, []core.Row{datesRow(doc), separator(0.3)}},
		{SectionLines, append([]core.Row{tableHeaderRow()}, tableLineRows(doc)...)},
		{SectionTotals, []core.Row{separator(0.3), totalsRow(doc)}},
	}

	if s := strings.TrimSpace(inv.PaymentInstructions); s != "" {
		out = append(out, section{SectionPaymentInstructions, blockRows("Payment Instructions", s)})
	}
	if doc.Issuer != nil {
		if s := strings.TrimSpace(doc.Issuer.BankDetails); s != "" {
			out = append(out, section{SectionBankDetails, blockRows("Bank Details", s)})
		}
	}
	if s := strings.TrimSpace(inv.Notes); s != "" {
		out = append(out, section{SectionNotes, blockRows("Notes", s)})
	}
	return out
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func separator(thickness float64) core.Row {
	return line.NewRow(1, props.Line{Color: colorPrimary, Thickness: thickness})
}

// headerRow: emisor (izq) e INVOICE + número (der).
func headerRow(doc *billing.InvoiceDocument) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(issuerName(doc), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
		),
		col.New(5).Add(
			text.New("INVOICE", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(doc.Invoice.InvoiceNumber, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
		),
	)
}

// partiesRow: bloques From / To.
func partiesRow(doc *billing.InvoiceDocument) core.Row {
	var from, to []string
	if u := doc.Issuer; u != nil {
		from = nonEmptyLines(u.DisplayName(), u.CompanyAddress, vat(u.VATNumber), u.Email)
	}
	if c := doc.Client; c != nil {
		to = nonEmptyLines(c.Name, c.ContactName, c.Address, vat(c.VATNumber), c.Email)
	}
	return row.New(30).Add(
		col.New(6).Add(partyBlock("From", from)...),
		col.New(6).Add(partyBlock("To", to)...),
	)
}

func partyBlock(title string, lines []string) []core.Component {
	comps := []core.Component{
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
	}
	for i, l := range lines {
		style := fontstyle.Normal
		if i == 0 {
			style = fontstyle.Bold
		}
		comps = append(comps, text.New(l, props.Text{Style: style, Size: 8, Top: float64(6 + 4*i)}))
	}
	return comps
}

// datesRow: fechas y moneda.
func datesRow(doc *billing.InvoiceDocument) core.Row {
	inv := doc.Invoice
	cell := func(label, value string) core.Col {
		return col.New(4).Add(
			text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorGray, Top: 1}),
			text.New(value, props.Text{Size: 9, Top: 5}),
		)
	}
	return row.New(12).Add(
		cell("Issue date", inv.IssueDate.Format("2006-01-02")),
		cell("Due date", inv.DueDate.Format("2006-01-02")),
		cell("Currency", inv.Currency),
	)
}

// tableHeaderRow: cabecera de la tabla de líneas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Description", 5, align.Left),
		h("Qty", 1, align.Center),
		h("Unit price", 2, align.Right),
		h("Tax", 1, align.Center),
		h("Line total", 3, align.Right),
	)
}

// tableLineRows: una fila por línea; Maroto pasa a otra página cuando no caben.
func tableLineRows(doc *billing.InvoiceDocument) []core.Row {
	cur := doc.Invoice.Currency
	result := make([]core.Row, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		result = append(result, row.New(7).Add(
			col.New(5).Add(text.New(l.Description, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(1).Add(text.New(l.Quantity.String(), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(money.Amount(l.UnitPrice, cur), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(money.Rate(l.TaxRate), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(3).Add(text.New(money.Amount(l.LineTotal, cur), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(doc *billing.InvoiceDocument) core.Row {
	inv := doc.Invoice
	label := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Subtotal:", 1),
			label("Tax:", 6),
			text.New("Total:", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 12}),
		),
		col.New(3).Add(
			value(money.Format(inv.Subtotal, inv.Currency), 1),
			value(money.Format(inv.TaxTotal, inv.Currency), 6),
			text.New(money.Format(inv.Total, inv.Currency), props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 12}),
		),
	)
}

// blockRows título + una fila por línea de texto.
func blockRows(title, body string) []core.Row {
	rows := []core.Row{
		row.New(4),
		row.New(6).Add(col.New(12).Add(
			text.New(title, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
		)),
	}
	for _, l := range strings.Split(body, "\n") {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New(l, props.Text{Size: 8, Color: colorGray, Top: 0.5}),
		)))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func issuerName(doc *billing.InvoiceDocument) string {
	if doc.Issuer == nil {
		return ""
	}
	return doc.Issuer.DisplayName()
}

func vat(n string) string {
	if n == "" {
		return ""
	}
	return "VAT: " + n
}

func nonEmptyLines(values ...string) []string {
	var out []string
	for _, v := range values {
		for _, l := range strings.Split(v, "\n") {
			if l = strings.TrimSpace(l); l != "" {
				out = append(out, l)
			}
		}
	}
	return out
}
