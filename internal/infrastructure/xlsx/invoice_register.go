// Package xlsx exporta el registro de facturas a una hoja de cálculo con excelize.
package xlsx

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/facturador-api/internal/application/billing"
	"github.com/jhoicas/facturador-api/pkg/money"
)

const (
	defaultSheet  = "Sheet1"
	maxSheetName  = 31
	dateLayout    = "2006-01-02"
	totalsCaption = "Total"
)

var headers = []string{
	"Number", "Issue date", "Due date", "Client", "Currency", "Status", "Subtotal", "Tax", "Total",
}

var _ billing.InvoiceSpreadsheetExporter = (*RegisterExporter)(nil)

// RegisterExporter genera el libro con una fila por factura y un total por moneda.
type RegisterExporter struct{}

// NewRegisterExporter crea el exportador.
func NewRegisterExporter() *RegisterExporter {
	return &RegisterExporter{}
}

// ExportInvoices escribe las filas en el orden recibido.
func (e *RegisterExporter) ExportInvoices(_ context.Context, title string, rows []billing.ExportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := sheetName(title)
	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return nil, fmt.Errorf("xlsx: renombrar hoja: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx: estilo: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	_ = f.SetCellStyle(sheet, "A1", "I1", bold)

	totals := map[string]decimal.Decimal{}
	r := 2
	for _, row := range rows {
		inv := row.Invoice
		if inv == nil {
			continue
		}
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, inv.InvoiceNumber)
		write(2, inv.IssueDate.Format(dateLayout))
		write(3, inv.DueDate.Format(dateLayout))
		write(4, row.ClientName)
		write(5, inv.Currency)
		write(6, string(row.DisplayStatus))
		write(7, amount(inv.Subtotal, inv.Currency))
		write(8, amount(inv.TaxTotal, inv.Currency))
		write(9, amount(inv.Total, inv.Currency))

		t, ok := totals[inv.Currency]
		if !ok {
			t = decimal.Zero
		}
		totals[inv.Currency] = t.Add(inv.Total)
		r++
	}

	// Un total por moneda; nunca se suman monedas distintas.
	currencies := make([]string, 0, len(totals))
	for c := range totals {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)
	if len(currencies) > 0 {
		r++
	}
	for _, c := range currencies {
		a, _ := excelize.CoordinatesToCellName(1, r)
		_ = f.SetCellValue(sheet, a, totalsCaption)
		cc, _ := excelize.CoordinatesToCellName(5, r)
		_ = f.SetCellValue(sheet, cc, c)
		tc, _ := excelize.CoordinatesToCellName(9, r)
		_ = f.SetCellValue(sheet, tc, amount(totals[c], c))
		_ = f.SetCellStyle(sheet, a, tc, bold)
		r++
	}

	_ = f.SetColWidth(sheet, "A", "A", 12)
	_ = f.SetColWidth(sheet, "B", "C", 12)
	_ = f.SetColWidth(sheet, "D", "D", 32)
	_ = f.SetColWidth(sheet, "E", "F", 10)
	_ = f.SetColWidth(sheet, "G", "I", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: escribir: %w", err)
	}
	return buf.Bytes(), nil
}

// amount importe redondeado como número para que la hoja pueda sumarlo.
func amount(v decimal.Decimal, cur string) float64 {
	return money.Round(v, cur).InexactFloat64()
}

// sheetName nombre válido para Excel: sin []:*?/\ y como mucho 31 caracteres.
func sheetName(title string) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '-'
		}
		return r
	}, strings.TrimSpace(title))
	if clean == "" {
		clean = "Invoices"
	}
	if rs := []rune(clean); len(rs) > maxSheetName {
		clean = string(rs[:maxSheetName])
	}
	return clean
}
