package entity

import "github.com/shopspring/decimal"

// InvoiceLine representa una línea de factura. Inmutable una vez creada la factura.
type InvoiceLine struct {
	ID          string
	InvoiceID   string
	ItemID      string // opcional, solo trazabilidad
	Position    int
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal
	LineTotal   decimal.Decimal
}
