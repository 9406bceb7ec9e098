package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus estado de la factura.
type InvoiceStatus string

// Estados de la factura.
const (
	StatusDraft   InvoiceStatus = "DRAFT"
	StatusSent    InvoiceStatus = "SENT"
	StatusPaid    InvoiceStatus = "PAID"
	StatusOverdue InvoiceStatus = "OVERDUE"
)

// ParseInvoiceStatus devuelve el estado si es conocido.
func ParseInvoiceStatus(s string) (InvoiceStatus, bool) {
	switch st := InvoiceStatus(s); st {
	case StatusDraft, StatusSent, StatusPaid, StatusOverdue:
		return st, true
	}
	return "", false
}

// Invoice representa la cabecera de una factura. Los totales se guardan al crearla.
type Invoice struct {
	ID                  string
	UserID              string
	ClientID            string
	InvoiceNumber       string
	IssueDate           time.Time
	DueDate             time.Time
	Currency            string
	Status              InvoiceStatus
	Subtotal            decimal.Decimal
	TaxTotal            decimal.Decimal
	Total               decimal.Decimal
	Notes               string
	PaymentInstructions string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
