package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest body para POST /api/invoices. Fechas en formato YYYY-MM-DD.
// Currency vacío = moneda por defecto del usuario.
type CreateInvoiceRequest struct {
	ClientID            string               `json:"client_id"`
	IssueDate           string               `json:"issue_date"`
	DueDate             string               `json:"due_date"`
	Currency            string               `json:"currency,omitempty"`
	Notes               string               `json:"notes,omitempty"`
	PaymentInstructions string               `json:"payment_instructions,omitempty"`
	Lines               []InvoiceLineRequest `json:"lines"`
}

// InvoiceLineRequest línea de factura. Con ItemID, la descripción, el precio y el
// impuesto omitidos se copian del concepto. El total de línea lo calcula el servidor.
type InvoiceLineRequest struct {
	ItemID      string           `json:"item_id,omitempty"`
	Description string           `json:"description,omitempty"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	TaxRate     *decimal.Decimal `json:"tax_rate,omitempty"`
}

// InvoiceListRequest filtros de GET /api/invoices.
type InvoiceListRequest struct {
	PageRequest
	Status string `query:"status"`
	Year   int    `query:"year"`
}

// InvoiceResponse factura con cliente y líneas.
// Status es el estado guardado; DisplayStatus marca como OVERDUE las SENT vencidas.
type InvoiceResponse struct {
	ID                  string                `json:"id"`
	InvoiceNumber       string                `json:"invoice_number"`
	ClientID            string                `json:"client_id"`
	Client              *ClientResponse       `json:"client,omitempty"`
	IssueDate           string                `json:"issue_date"`
	DueDate             string                `json:"due_date"`
	Currency            string                `json:"currency"`
	Status              string                `json:"status"`
	DisplayStatus       string                `json:"display_status"`
	Subtotal            decimal.Decimal       `json:"subtotal"`
	TaxTotal            decimal.Decimal       `json:"tax_total"`
	Total               decimal.Decimal       `json:"total"`
	Notes               string                `json:"notes,omitempty"`
	PaymentInstructions string                `json:"payment_instructions,omitempty"`
	Lines               []InvoiceLineResponse `json:"lines,omitempty"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
}

// InvoiceLineResponse línea en la respuesta.
type InvoiceLineResponse struct {
	ID          string          `json:"id"`
	ItemID      string          `json:"item_id,omitempty"`
	Position    int             `json:"position"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// InvoiceListResponse listado paginado (sin líneas).
type InvoiceListResponse struct {
	Items []InvoiceResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// InvoiceDefaultsResponse valores sugeridos para el formulario de nueva factura.
type InvoiceDefaultsResponse struct {
	IssueDate    string `json:"issue_date"`
	DueDate      string `json:"due_date"`
	Currency     string `json:"currency"`
	PaymentTerms int    `json:"payment_terms"`
}
