package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-api/internal/application/analytics"
	"github.com/jhoicas/facturador-api/internal/application/auth"
	"github.com/jhoicas/facturador-api/internal/application/billing"
	"github.com/jhoicas/facturador-api/internal/application/dto"
	"github.com/jhoicas/facturador-api/internal/domain"
	"github.com/jhoicas/facturador-api/internal/domain/entity"
	"github.com/jhoicas/facturador-api/internal/infrastructure/memory"
)

var fixedNow = time.Date(2024, time.March, 10, 9, 30, 0, 0, time.UTC)

func invoiceRequest(clientID, currency, issue, due string) dto.CreateInvoiceRequest {
	price := decimal.NewFromInt(100)
	rate := decimal.NewFromInt(21)
	return dto.CreateInvoiceRequest{
		ClientID:  clientID,
		IssueDate: issue,
		DueDate:   due,
		Currency:  currency,
		Lines: []dto.InvoiceLineRequest{
			{Description: "Consultoría", Quantity: decimal.NewFromInt(1), UnitPrice: &price, TaxRate: &rate},
		},
	}
}

func TestDashboardUseCase_GetSummary(t *testing.T) {
	store := memory.NewStore()
	clock := func() time.Time { return fixedNow }
	invoices := billing.NewInvoiceUseCase(store, store.Invoices(), store.Clients(), store.Items(), store.Users(), billing.DefaultDefaults()).
		WithClock(clock)
	dashboard := analytics.NewDashboardUseCase(store.Analytics(), store.Invoices(), store.Clients(), store.Items()).
		WithClock(clock)

	require.NoError(t, store.Users().Create(context.Background(), &entity.User{
		ID: "u1", Email: "ana@example.com", DefaultCurrency: "EUR", CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}))
	ctx := auth.WithUserID(context.Background(), "u1")
	client, err := billing.NewClientUseCase(store.Clients(), 14).Create(ctx, dto.ClientRequest{Name: "ACME"})
	require.NoError(t, err)

	overdue, err := invoices.CreateInvoice(ctx, invoiceRequest(client.ID, "", "2024-03-01", "2024-03-05"))
	require.NoError(t, err)
	_, err = invoices.MarkSent(ctx, overdue.ID)
	require.NoError(t, err)

	paid, err := invoices.CreateInvoice(ctx, invoiceRequest(client.ID, "EUR", "2024-03-02", "2024-12-31"))
	require.NoError(t, err)
	_, err = invoices.MarkPaid(ctx, paid.ID)
	require.NoError(t, err)

	_, err = invoices.CreateInvoice(ctx, invoiceRequest(client.ID, "USD", "2024-03-03", "2024-12-31"))
	require.NoError(t, err)

	summary, err := dashboard.GetSummary(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.InvoiceCount)
	assert.Equal(t, 1, summary.DraftCount)
	assert.Equal(t, 0, summary.SentCount)
	assert.Equal(t, 1, summary.PaidCount)
	assert.Equal(t, 1, summary.OverdueCount)
	assert.Equal(t, 1, summary.ClientCount)
	assert.Equal(t, 0, summary.ItemCount)
	assert.Len(t, summary.RecentInvoices, 3)

	require.Len(t, summary.Revenue, 2)
	eur, usd := summary.Revenue[0], summary.Revenue[1]
	assert.Equal(t, "EUR", eur.Currency)
	assert.True(t, decimal.NewFromInt(242).Equal(eur.Total), eur.Total.String())
	assert.True(t, decimal.NewFromInt(121).Equal(eur.Paid), eur.Paid.String())
	assert.True(t, decimal.NewFromInt(121).Equal(eur.Outstanding), eur.Outstanding.String())
	assert.Equal(t, 2, eur.InvoiceCount)
	assert.Equal(t, "USD", usd.Currency)
	assert.True(t, usd.Paid.IsZero())

	// otro usuario no ve nada
	empty, err := dashboard.GetSummary(auth.WithUserID(context.Background(), "u2"))
	require.NoError(t, err)
	assert.Zero(t, empty.InvoiceCount)
	assert.Empty(t, empty.Revenue)
}

func TestDashboardUseCase_RequiresUser(t *testing.T) {
	store := memory.NewStore()
	dashboard := analytics.NewDashboardUseCase(store.Analytics(), store.Invoices(), store.Clients(), store.Items())
	_, err := dashboard.GetSummary(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
