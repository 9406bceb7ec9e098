package billing

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/facturador-api/internal/application/auth"
	"github.com/jhoicas/facturador-api/internal/domain"
	"github.com/jhoicas/facturador-api/internal/domain/invoicing"
	"github.com/jhoicas/facturador-api/internal/domain/repository"
)

// ExportUseCase genera el registro de facturas de un año en XLSX.
type ExportUseCase struct {
	invoiceRepo repository.InvoiceRepository
	clientRepo  repository.ClientRepository
	exporter    InvoiceSpreadsheetExporter
	now         Clock
}

// NewExportUseCase construye el caso de uso.
func NewExportUseCase(invoiceRepo repository.InvoiceRepository, clientRepo repository.ClientRepository, exporter InvoiceSpreadsheetExporter, now Clock) *ExportUseCase {
	return &ExportUseCase{invoiceRepo: invoiceRepo, clientRepo: clientRepo, exporter: exporter, now: now}
}

// ExportYear exporta las facturas emitidas en year (0 = año actual) del usuario autenticado.
func (uc *ExportUseCase) ExportYear(ctx context.Context, year int) (*Document, error) {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}
	today := uc.now()
	if year == 0 {
		year = today.Year()
	}
	if year < 1 || year > 9999 {
		return nil, domain.NewValidationError("year", "año fuera de rango")
	}
	list, err := uc.invoiceRepo.ListByUser(ctx, userID, repository.InvoiceFilter{Year: year})
	if err != nil {
		return nil, fmt.Errorf("listar facturas: %w", err)
	}
	clients, err := uc.clientRepo.GetByIDs(ctx, userID, clientIDs(list))
	if err != nil {
		return nil, fmt.Errorf("cargar clientes: %w", err)
	}

	rows := make([]ExportRow, 0, len(list))
	for _, inv := range list {
		row := ExportRow{Invoice: inv, DisplayStatus: invoicing.EffectiveStatus(inv.Status, inv.DueDate, today)}
		if c := clients[inv.ClientID]; c != nil {
			row.ClientName = c.Name
		}
		rows = append(rows, row)
	}
	// Registro en orden de numeración; "2024-10000" va después de "2024-9999".
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Invoice.InvoiceNumber, rows[j].Invoice.InvoiceNumber
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})

	data, err := uc.exporter.ExportInvoices(ctx, fmt.Sprintf("Facturas %d", year), rows)
	if err != nil {
		return nil, fmt.Errorf("xlsx: generación fallida: %w", err)
	}
	return &Document{
		Filename:    fmt.Sprintf("invoices-%d.xlsx", year),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        data,
	}, nil
}
