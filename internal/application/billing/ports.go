package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-api/internal/domain/entity"
	"github.com/jhoicas/facturador-api/internal/domain/repository"
)

// InvoiceTxRunner ejecuta fn dentro de una transacción con el repositorio de facturas atado a ella.
// Si fn retorna error se hace rollback.
type InvoiceTxRunner interface {
	RunInvoice(ctx context.Context, fn func(invoiceRepo repository.InvoiceRepository) error) error
}

// InvoiceDocument datos completos de una factura para los generadores de documentos.
type InvoiceDocument struct {
	Invoice *entity.Invoice
	Lines   []*entity.InvoiceLine
	Client  *entity.Client
	Issuer  *entity.User
}

// InvoicePDFGenerator genera el PDF de una factura.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, doc *InvoiceDocument) ([]byte, error)
}

// InvoiceXMLBuilder genera la representación UBL 2.1 canónica de una factura.
type InvoiceXMLBuilder interface {
	BuildInvoiceXML(ctx context.Context, doc *InvoiceDocument) ([]byte, error)
}

// ExportRow fila del registro de facturas.
type ExportRow struct {
	Invoice       *entity.Invoice
	ClientName    string
	DisplayStatus entity.InvoiceStatus
}

// InvoiceSpreadsheetExporter genera el registro de facturas como hoja de cálculo.
type InvoiceSpreadsheetExporter interface {
	ExportInvoices(ctx context.Context, title string, rows []ExportRow) ([]byte, error)
}

// Defaults valores por defecto de facturación (vienen de INVOICE_* en la configuración).
type Defaults struct {
	Currency      string
	PaymentTerms  int
	UnitLabel     string
	TaxRate       decimal.Decimal
	NumberRetries int
}

// DefaultDefaults valores usados cuando no hay configuración.
func DefaultDefaults() Defaults {
	return Defaults{
		Currency:      "EUR",
		PaymentTerms:  14,
		UnitLabel:     entity.UnitHour,
		TaxRate:       decimal.Zero,
		NumberRetries: 3,
	}
}

// Clock fuente de la hora actual; los tests la fijan.
type Clock func() time.Time
