package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/facturador-api/internal/domain/repository"
)

var _ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)

// AnalyticsRepo consultas de solo lectura para el dashboard.
type AnalyticsRepo struct {
	q Querier
}

// NewAnalyticsRepository construye el adaptador de analítica.
func NewAnalyticsRepository(q Querier) *AnalyticsRepo {
	return &AnalyticsRepo{q: q}
}

// GetRevenueByCurrency agrupa total facturado y cobrado por moneda.
func (r *AnalyticsRepo) GetRevenueByCurrency(ctx context.Context, userID string) ([]repository.RevenueByCurrency, error) {
	const query = `
	SELECT
	    currency,
	    COALESCE(SUM(total), 0)                                   AS total,
	    COALESCE(SUM(total) FILTER (WHERE status = 'PAID'), 0)    AS paid,
	    COUNT(*)                                                  AS invoice_count
	FROM invoices
	WHERE user_id = $1
	GROUP BY currency
	ORDER BY currency`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("revenue by currency: %w", err)
	}
	defer rows.Close()

	var out []repository.RevenueByCurrency
	for rows.Next() {
		var row repository.RevenueByCurrency
		if err := rows.Scan(&row.Currency, &row.Total, &row.Paid, &row.InvoiceCount); err != nil {
			return nil, fmt.Errorf("scan revenue: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// GetStatusCounts cuenta por estado efectivo: SENT vencidas a today cuentan como OVERDUE.
func (r *AnalyticsRepo) GetStatusCounts(ctx context.Context, userID string, today time.Time) (repository.StatusCounts, error) {
	const query = `
	SELECT
	    COUNT(*),
	    COUNT(*) FILTER (WHERE status = 'DRAFT'),
	    COUNT(*) FILTER (WHERE status = 'SENT' AND due_date >= $2),
	    COUNT(*) FILTER (WHERE status = 'PAID'),
	    COUNT(*) FILTER (WHERE status = 'OVERDUE' OR (status = 'SENT' AND due_date < $2))
	FROM invoices
	WHERE user_id = $1`

	var c repository.StatusCounts
	err := r.q.QueryRow(ctx, query, userID, dateOnly(today)).Scan(&c.Total, &c.Draft, &c.Sent, &c.Paid, &c.Overdue)
	if err != nil {
		return c, fmt.Errorf("status counts: %w", err)
	}
	return c, nil
}
