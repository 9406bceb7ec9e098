package billing_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-api/internal/application/dto"
	"github.com/jhoicas/facturador-api/internal/domain"
)

func TestCreateInvoice_Escenario(t *testing.T) {
	f := newFixture(t)
	ctx := f.user(t, "u1", "EUR")
	clientID := f.client(t, ctx, "ACME")

	out, err := f.invoices.CreateInvoice(ctx, scenarioRequest(clientID, "2024-01-15"))
	require.NoError(t, err)

	assert.Equal(t, "2024-0001", out.InvoiceNumber)
	assert.Equal(t, "DRAFT", out.Status)
	assert.Equal(t, "EUR", out.Currency)
	assert.True(t, out.Subtotal.Equal(decimal.NewFromInt(200)), "subtotal %s", out.Subtotal)
	assert.True(t, out.TaxTotal.Equal(decimal.NewFromInt(21)), "impuesto %s", out.TaxTotal)
	assert.True(t, out.Total.Equal(decimal.NewFromInt(221)), "total %s", out.Total)
	require.Len(t, out.Lines, 2)
	assert.Equal(t, 1, out.Lines[0].Position)
	assert.True(t, out.Lines[0].LineTotal.Equal(decimal.NewFromInt(121)))
	assert.True(t, out.Lines[1].LineTotal.Equal(decimal.NewFromInt(100)))
	require.NotNil(t, out.Client)
	assert.Equal(t, "ACME", out.Client.Name)

	stored, err := f.invoices.GetByID(ctx, out.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Lines, 2)
	assert.Equal(t, "Consultoría", stored.Lines[0].Description)
}

func TestCreateInvoice_NumeracionPorAnio(t *testing.T) {
	f := newFixture(t)
	ctx := f.user(t, "u1", "EUR")
	clientID := f.client(t, ctx, "ACME")

	var numbers []string
	for _, date := range []string{"2024-01-10", "2024-02-10", "2024-03-01", "2025-01-02"} {
		out, err := f.invoices.CreateInvoice(ctx, scenarioRequest(clientID, date))
		require.NoError(t, err)
		numbers = append(numbers, out.InvoiceNumber)
	}
	assert.Equal(t, []string{"2024-0001", "2024-0002", "2024-0003", "2025-0001"}, numbers)

	// La numeración es por usuario.
	ctx2 := f.user(t, "u2", "EUR")
	client2 := f.client(t, ctx2, "Otro")
	out, err := f.invoices.CreateInvoice(ctx2, scenarioRequest(client2, "2024-05-05"))
	require.NoError(t, err)
	assert.Equal(t, "2024-0001", out.InvoiceNumber)
}

func TestCreateInvoice_Concurrente(t *testing.T) {
	f := newFixture(t)
	ctx := f.user(t, "u1", "EUR")
	clientID := f.client(t, ctx, "ACME")

	const n = 20
	var wg sync.WaitGroup
	numbers := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := f.invoices.CreateInvoice(ctx, scenarioRequest(clientID, "2024-06-01"))
			errs[i] = err
			if err == nil {
				numbers[i] = out.InvoiceNumber
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "creación %d", i)
	}
	sort.Strings(numbers)
	for i, got := range numbers {
		assert.Equal(t, fmt.Sprintf("2024-%04d", i+1), got)
	}
	assert.Equal(t, n, f.store.InvoiceCount())
}

func TestCreateInvoice_ReintentaColision(t *testing.T) {
	f := newFixture(t)
	ctx := f.user(t, "u1", "EUR")
	clientID := f.client(t, ctx, "ACME")

	f.store.FailNextCreates(2)
	out, err := f.invoices.CreateInvoice(ctx, scenarioRequest(clientID, "2024-01-15"))
	require.NoError(t, err, "dos colisiones caben en tres intentos")
	assert.Equal(t, "2024-0001", out.InvoiceNumber)
	assert.Equal(t, 1, f.store.InvoiceCount())
}

func TestCreateInvoice_ReintentosAgotados(t *testing.T) {
	f := newFixture(t)
	ctx := f.user(t, "u1", "EUR")
	clientID := f.client(t, ctx, "ACME")

	f.store.FailNextCreates(3)
	_, err := f.invoices.CreateInvoice(ctx, scenarioRequest(clientID, "2024-01-15"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.False(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Equal(t, 0, f.store.InvoiceCount(), "nada se persiste si la transacción falla")
}

func TestCreateInvoice_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := f.user(t, "u1", "EUR")
	clientID := f.client(t, ctx, "ACME")

	cases := map[string]func(r *dto.CreateInvoiceRequest){
		"sin cliente":           func(r *dto.CreateInvoiceRequest) { r.ClientID = "" },
		"sin fecha de emisión":  func(r *dto.CreateInvoiceRequest) { r.IssueDate = "" },
		"fecha inválida":        func(r *dto.CreateInvoiceRequest) { r.IssueDate = "15/01/2024" },
		"sin vencimiento":       func(r *dto.CreateInvoiceRequest) { r.DueDate = "" },
		"vence antes de emitir": func(r *dto.CreateInvoiceRequest) { r.DueDate = "2024-01-01" },
		"sin líneas":            func(r *dto.CreateInvoiceRequest) { r.Lines = nil },
		"moneda inválida":       func(r *dto.CreateInvoiceRequest) { r.Currency = "XYZ1" },
		"cantidad cero":         func(r *dto.CreateInvoiceRequest) { r.Lines[0].Quantity = decimal.Zero },
		"impuesto > 100":        func(r *dto.CreateInvoiceRequest) { r.Lines[0].TaxRate = dec("150") },
		"cantidad con 7 decimales": func(r *dto.CreateInvoiceRequest) {
			r.Lines[0].Quantity = decimal.RequireFromString("0.0000001")
		},
		"precio con 7 decimales": func(r *dto.CreateInvoiceRequest) { r.Lines[0].UnitPrice = dec("50.0000001") },
		"sin precio ni concepto": func(r *dto.CreateInvoiceRequest) {
			r.Lines[0].UnitPrice = nil
		},
		"sin descripción": func(r *dto.CreateInvoiceRequest) { r.Lines[1].Description = " " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := scenarioRequest(clientID, "2024-01-15")
			mutate(&req)
			_, err := f.invoices.CreateInvoice(ctx, req)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Equal(t, 0, f.store.InvoiceCount())
}

func TestCreateInvoice_ClienteDeOtroUsuario(t *testing.T) {
	f := newFixture(t)
	ctxA := f.user(t, "a", "EUR")
	ctxB := f.user(t, "b", "EUR")
	clientB := f.client(t, ctxB, "De B")

	_, err := f.invoices.CreateInvoice(ctxA, scenarioRequest(clientB, "2024-01-15"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateInvoice_SinUsuarioEnContexto(t *testing.T) {
	f := newFixture(t)
	_, err := f.invoices.CreateInvoice(context.Background(), scenarioRequest("x", "2024-01-15"))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCreateInvoice_Moneda(t *testing.T) {
	f := newFixture(t)

	ctxUSD := f.user(t, "usd", "USD")
	c1 := f.client(t, ctxUSD, "C1")
	out, err := f.invoices.CreateInvoice(ctxUSD, scenarioRequest(c1, "2024-01-15"))
	require.NoError(t, err)
	assert.Equal(t, "USD", out.Currency, "moneda por defecto del usuario")

	req := scenarioRequest(c1, "2024-01-15")
	req.Currency = "gbp"
	out, err = f.invoices.CreateInvoice(ctxUSD, req)
	require.NoError(t, err)
	assert.Equal(t, "GBP", out.Currency, "la moneda de la petición tiene prioridad")

	ctxNone := f.user(t, "none", "")
	c2 := f.client(t, ctxNone, "C2")
	out, err = f.invoices.CreateInvoice(ctxNone, scenarioRequest(c2, "2024-01-15"))
	require.NoError(t, err)
	assert.Equal(t, "EUR", out.Currency)
}

func TestCreateInvoice_LineaDesdeConcepto(t *testing.T) {
	f := newFixture(t)
	ctx := f.user(t, "u1", "EUR")
	clientID := f.client(t, ctx, "ACME")
	itemID := f.item(t, ctx, "Desarrollo", "80", "21")

	out, err := f.invoices.CreateInvoice(ctx, dto.CreateInvoiceRequest{
		ClientID:  clientID,
		IssueDate: "2024-01-15",
		DueDate:   "2024-01-29",
		Lines:     []dto.InvoiceLineRequest{{ItemID: itemID, Quantity: decimal.NewFromInt(10)}},
	})
	require.NoError(t, err)
	require.Len(t, out.Lines, 1)
	assert.Equal(t, "Desarrollo", out.Lines[0].Description)
	assert.Equal(t, itemID, out.Lines[0].ItemID)
	assert.True(t, out.Lines[0].LineTotal.Equal(decimal.NewFromInt(968)), "10 × 80 × 1.21")
	assert.True(t, out.Total.Equal(decimal.NewFromInt(968)))

	ctxOther := f.user(t, "u2", "EUR")
	otherItem := f.item(t, ctxOther, "Ajeno", "1", "0")
	_, err = f.invoices.CreateInvoice(ctx, dto.CreateInvoiceRequest{
		ClientID:  clientID,
		IssueDate: "2024-01-15",
		DueDate:   "2024-01-29",
		Lines:     []dto.InvoiceLineRequest{{ItemID: otherItem, Quantity: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
