// Package analytics contiene el resumen del dashboard de facturación.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/facturador-api/internal/application/auth"
	"github.com/jhoicas/facturador-api/internal/application/billing"
	"github.com/jhoicas/facturador-api/internal/application/dto"
	"github.com/jhoicas/facturador-api/internal/domain/entity"
	"github.com/jhoicas/facturador-api/internal/domain/repository"
)

const dashboardRecentInvoices = 10

// DashboardUseCase genera el resumen de facturación del usuario autenticado.
type DashboardUseCase struct {
	analyticsRepo repository.AnalyticsRepository
	invoiceRepo   repository.InvoiceRepository
	clientRepo    repository.ClientRepository
	itemRepo      repository.ItemRepository
	now           func() time.Time
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(
	analyticsRepo repository.AnalyticsRepository,
	invoiceRepo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
	itemRepo repository.ItemRepository,
) *DashboardUseCase {
	return &DashboardUseCase{
		analyticsRepo: analyticsRepo,
		invoiceRepo:   invoiceRepo,
		clientRepo:    clientRepo,
		itemRepo:      itemRepo,
		now:           time.Now,
	}
}

// WithClock reemplaza la fuente de hora (tests).
func (uc *DashboardUseCase) WithClock(now func() time.Time) *DashboardUseCase {
	uc.now = now
	return uc
}

// GetSummary construye el DashboardSummaryDTO.
//
// Cinco consultas en paralelo:
//  1. GetRevenueByCurrency → Revenue
//  2. GetStatusCounts      → conteos por estado
//  3. clientes             → ClientCount
//  4. conceptos            → ItemCount
//  5. últimas facturas     → RecentInvoices
func (uc *DashboardUseCase) GetSummary(ctx context.Context) (*dto.DashboardSummaryDTO, error) {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}
	now := uc.now()

	type revenueResult struct {
		rows []repository.RevenueByCurrency
		err  error
	}
	type countsResult struct {
		counts repository.StatusCounts
		err    error
	}
	type countResult struct {
		n   int
		err error
	}
	type recentResult struct {
		invoices []*entity.Invoice
		err      error
	}

	revenueCh := make(chan revenueResult, 1)
	countsCh := make(chan countsResult, 1)
	clientsCh := make(chan countResult, 1)
	itemsCh := make(chan countResult, 1)
	recentCh := make(chan recentResult, 1)

	go func() {
		rows, err := uc.analyticsRepo.GetRevenueByCurrency(ctx, userID)
		revenueCh <- revenueResult{rows, err}
	}()
	go func() {
		counts, err := uc.analyticsRepo.GetStatusCounts(ctx, userID, now)
		countsCh <- countsResult{counts, err}
	}()
	go func() {
		n, err := uc.clientRepo.CountByUser(ctx, userID)
		clientsCh <- countResult{n, err}
	}()
	go func() {
		n, err := uc.itemRepo.CountByUser(ctx, userID)
		itemsCh <- countResult{n, err}
	}()
	go func() {
		list, err := uc.invoiceRepo.ListByUser(ctx, userID, repository.InvoiceFilter{Limit: dashboardRecentInvoices})
		recentCh <- recentResult{list, err}
	}()

	revenue := <-revenueCh
	counts := <-countsCh
	clients := <-clientsCh
	items := <-itemsCh
	recent := <-recentCh

	if revenue.err != nil {
		return nil, fmt.Errorf("dashboard: ingresos: %w", revenue.err)
	}
	if counts.err != nil {
		return nil, fmt.Errorf("dashboard: conteo por estado: %w", counts.err)
	}
	if clients.err != nil {
		return nil, fmt.Errorf("dashboard: clientes: %w", clients.err)
	}
	if items.err != nil {
		return nil, fmt.Errorf("dashboard: conceptos: %w", items.err)
	}
	if recent.err != nil {
		return nil, fmt.Errorf("dashboard: facturas recientes: %w", recent.err)
	}

	ids := make([]string, 0, len(recent.invoices))
	for _, inv := range recent.invoices {
		ids = append(ids, inv.ClientID)
	}
	clientsByID, err := uc.clientRepo.GetByIDs(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("dashboard: clientes de facturas recientes: %w", err)
	}

	out := &dto.DashboardSummaryDTO{
		Revenue:        make([]dto.RevenueDTO, 0, len(revenue.rows)),
		InvoiceCount:   counts.counts.Total,
		DraftCount:     counts.counts.Draft,
		SentCount:      counts.counts.Sent,
		PaidCount:      counts.counts.Paid,
		OverdueCount:   counts.counts.Overdue,
		ClientCount:    clients.n,
		ItemCount:      items.n,
		RecentInvoices: make([]dto.InvoiceResponse, 0, len(recent.invoices)),
	}
	for _, r := range revenue.rows {
		out.Revenue = append(out.Revenue, dto.RevenueDTO{
			Currency:     r.Currency,
			Total:        r.Total,
			Paid:         r.Paid,
			Outstanding:  r.Total.Sub(r.Paid),
			InvoiceCount: r.InvoiceCount,
		})
	}
	for _, inv := range recent.invoices {
		out.RecentInvoices = append(out.RecentInvoices, billing.ToInvoiceResponse(inv, nil, clientsByID[inv.ClientID], now))
	}
	return out, nil
}
