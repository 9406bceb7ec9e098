package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-api/internal/application/auth"
	"github.com/jhoicas/facturador-api/internal/application/billing"
	"github.com/jhoicas/facturador-api/internal/application/dto"
	"github.com/jhoicas/facturador-api/internal/domain/entity"
	"github.com/jhoicas/facturador-api/internal/infrastructure/memory"
)

var fixedNow = time.Date(2024, time.March, 10, 9, 30, 0, 0, time.UTC)

type fixture struct {
	store    *memory.Store
	invoices *billing.InvoiceUseCase
	clients  *billing.ClientUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	uc := billing.NewInvoiceUseCase(
		store,
		store.Invoices(),
		store.Clients(),
		store.Items(),
		store.Users(),
		billing.DefaultDefaults(),
	).WithClock(func() time.Time { return fixedNow })
	return &fixture{
		store:    store,
		invoices: uc,
		clients:  billing.NewClientUseCase(store.Clients(), 14),
	}
}

// user registra un usuario y devuelve un contexto autenticado como él.
func (f *fixture) user(t *testing.T, id, currency string) context.Context {
	t.Helper()
	err := f.store.Users().Create(context.Background(), &entity.User{
		ID:              id,
		Email:           id + "@example.com",
		Name:            "Usuario " + id,
		CompanyName:     "Empresa " + id,
		DefaultCurrency: currency,
		CreatedAt:       fixedNow,
		UpdatedAt:       fixedNow,
	})
	require.NoError(t, err)
	return auth.WithUserID(context.Background(), id)
}

func (f *fixture) client(t *testing.T, ctx context.Context, name string) string {
	t.Helper()
	c, err := f.clients.Create(ctx, dto.ClientRequest{Name: name})
	require.NoError(t, err)
	return c.ID
}

func (f *fixture) item(t *testing.T, ctx context.Context, name, price, rate string) string {
	t.Helper()
	userID := auth.UserIDFromContext(ctx)
	it := &entity.Item{
		ID:        name + "-" + userID,
		UserID:    userID,
		Name:      name,
		UnitPrice: decimal.RequireFromString(price),
		UnitLabel: entity.UnitHour,
		TaxRate:   decimal.RequireFromString(rate),
		CreatedAt: fixedNow,
		UpdatedAt: fixedNow,
	}
	require.NoError(t, f.store.Items().Create(ctx, it))
	return it.ID
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func scenarioRequest(clientID, issueDate string) dto.CreateInvoiceRequest {
	return dto.CreateInvoiceRequest{
		ClientID:  clientID,
		IssueDate: issueDate,
		DueDate:   "2024-12-31",
		Lines: []dto.InvoiceLineRequest{
			{Description: "Consultoría", Quantity: decimal.NewFromInt(2), UnitPrice: dec("50"), TaxRate: dec("21")},
			{Description: "Licencia", Quantity: decimal.NewFromInt(1), UnitPrice: dec("100"), TaxRate: dec("0")},
		},
	}
}
