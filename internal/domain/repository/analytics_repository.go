package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RevenueByCurrency ingresos facturados en una moneda. No se suman monedas distintas.
type RevenueByCurrency struct {
	Currency     string
	Total        decimal.Decimal
	Paid         decimal.Decimal
	InvoiceCount int
}

// StatusCounts conteo de facturas por estado efectivo.
// Overdue incluye las SENT vencidas a la fecha de corte.
type StatusCounts struct {
	Total   int
	Draft   int
	Sent    int
	Paid    int
	Overdue int
}

// AnalyticsRepository define las consultas de lectura del dashboard.
// Las implementaciones son read-only (no modifican datos).
type AnalyticsRepository interface {
	// GetRevenueByCurrency agrupa los totales de factura por moneda.
	GetRevenueByCurrency(ctx context.Context, userID string) ([]RevenueByCurrency, error)

	// GetStatusCounts cuenta facturas por estado; today define qué SENT están vencidas.
	GetStatusCounts(ctx context.Context, userID string, today time.Time) (StatusCounts, error)
}
