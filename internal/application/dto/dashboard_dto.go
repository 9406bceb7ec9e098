package dto

import "github.com/shopspring/decimal"

// DashboardSummaryDTO respuesta de GET /api/dashboard/summary.
type DashboardSummaryDTO struct {
	// Ingresos por moneda; no se convierten ni se suman entre monedas.
	Revenue []RevenueDTO `json:"revenue"`

	InvoiceCount int `json:"invoice_count"`
	DraftCount   int `json:"draft_count"`
	SentCount    int `json:"sent_count"`
	PaidCount    int `json:"paid_count"`
	OverdueCount int `json:"overdue_count"` // incluye SENT vencidas

	ClientCount int `json:"client_count"`
	ItemCount   int `json:"item_count"`

	RecentInvoices []InvoiceResponse `json:"recent_invoices"`
}

// RevenueDTO totales facturados y cobrados en una moneda.
type RevenueDTO struct {
	Currency     string          `json:"currency"`
	Total        decimal.Decimal `json:"total"`
	Paid         decimal.Decimal `json:"paid"`
	Outstanding  decimal.Decimal `json:"outstanding"`
	InvoiceCount int             `json:"invoice_count"`
}
