package invoicing_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-api/internal/domain"
	"github.com/jhoicas/facturador-api/internal/domain/invoicing"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeLineTotal(t *testing.T) {
	cases := []struct {
		name             string
		qty, price, rate string
		want             string
	}{
		{"con impuesto", "2", "50", "21", "121"},
		{"sin impuesto", "1", "100", "0", "100"},
		{"fracciones", "1.5", "33.33", "19", "59.49405"},
		{"precio cero", "3", "0", "21", "0"},
		{"impuesto máximo", "1", "10", "100", "20"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := invoicing.ComputeLineTotal(d(tc.qty), d(tc.price), d(tc.rate))
			require.NoError(t, err)
			assert.True(t, got.Equal(d(tc.want)), "esperado %s, obtenido %s", tc.want, got)
		})
	}
}

func TestComputeLineTotal_Invalida(t *testing.T) {
	cases := []struct {
		name             string
		qty, price, rate string
		field            string
	}{
		{"cantidad cero", "0", "10", "0", "quantity"},
		{"cantidad negativa", "-1", "10", "0", "quantity"},
		{"precio negativo", "1", "-0.01", "0", "unit_price"},
		{"impuesto negativo", "1", "10", "-1", "tax_rate"},
		{"impuesto mayor a 100", "1", "10", "100.01", "tax_rate"},
		{"cantidad con 7 decimales", "0.0000001", "10", "0", "quantity"},
		{"cantidad demasiado grande", "1000000000000", "1", "0", "quantity"},
		{"precio con 7 decimales", "1", "0.1234567", "0", "unit_price"},
		{"impuesto con 5 decimales", "1", "10", "21.00001", "tax_rate"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := invoicing.ComputeLineTotal(d(tc.qty), d(tc.price), d(tc.rate))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestComputeInvoiceTotals_Escenario(t *testing.T) {
	totals, err := invoicing.ComputeInvoiceTotals([]invoicing.Line{
		{Quantity: d("2"), UnitPrice: d("50"), TaxRate: d("21")},
		{Quantity: d("1"), UnitPrice: d("100"), TaxRate: d("0")},
	})
	require.NoError(t, err)
	assert.True(t, totals.Subtotal.Equal(d("200")), "subtotal: %s", totals.Subtotal)
	assert.True(t, totals.TaxTotal.Equal(d("21")), "impuesto: %s", totals.TaxTotal)
	assert.True(t, totals.Total.Equal(d("221")), "total: %s", totals.Total)
}

func TestComputeInvoiceTotals_SinLineas(t *testing.T) {
	_, err := invoicing.ComputeInvoiceTotals(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = invoicing.ComputeInvoiceTotals([]invoicing.Line{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestComputeInvoiceTotals_LineaInvalidaIndicaIndice(t *testing.T) {
	_, err := invoicing.ComputeInvoiceTotals([]invoicing.Line{
		{Quantity: d("1"), UnitPrice: d("10"), TaxRate: d("0")},
		{Quantity: d("0"), UnitPrice: d("10"), TaxRate: d("0")},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "línea 2")
}

// La suma de los totales de línea coincide exactamente con el total de la factura.
func TestComputeInvoiceTotals_SumaExacta(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	rates := []string{"0", "4", "7.5", "10", "19", "21", "33.333"}

	for iter := 0; iter < 500; iter++ {
		n := 1 + rng.Intn(8)
		lines := make([]invoicing.Line, n)
		sum := decimal.Zero
		for i := range lines {
			l := invoicing.Line{
				Quantity:  decimal.New(int64(1+rng.Intn(1000)), -int32(rng.Intn(3))),
				UnitPrice: decimal.New(int64(rng.Intn(1_000_000)), -int32(rng.Intn(4))),
				TaxRate:   d(rates[rng.Intn(len(rates))]),
			}
			lines[i] = l
			lt, err := invoicing.ComputeLineTotal(l.Quantity, l.UnitPrice, l.TaxRate)
			require.NoError(t, err)
			sum = sum.Add(lt)
		}

		totals, err := invoicing.ComputeInvoiceTotals(lines)
		require.NoError(t, err)
		require.True(t, totals.Total.Equal(sum), "iteración %d: Σ líneas %s != total %s", iter, sum, totals.Total)
		require.True(t, totals.Total.Equal(totals.Subtotal.Add(totals.TaxTotal)))
	}
}

func TestComputeInvoiceTotals_EscalaMaximaSumaExacta(t *testing.T) {
	line := invoicing.Line{Quantity: d("0.5"), UnitPrice: d("0.000001"), TaxRate: d("0")}
	lines := []invoicing.Line{line, line, line}

	totals, err := invoicing.ComputeInvoiceTotals(lines)
	require.NoError(t, err)

	sum := decimal.Zero
	for _, l := range lines {
		lt, err := invoicing.ComputeLineTotal(l.Quantity, l.UnitPrice, l.TaxRate)
		require.NoError(t, err)
		sum = sum.Add(lt)
	}
	assert.True(t, totals.Total.Equal(d("0.0000015")), totals.Total.String())
	assert.True(t, sum.Equal(totals.Total))
}

func TestExceedsScale(t *testing.T) {
	assert.False(t, invoicing.ExceedsScale(d("1.500000000"), 6))
	assert.False(t, invoicing.ExceedsScale(d("0.000001"), 6))
	assert.True(t, invoicing.ExceedsScale(d("0.0000001"), 6))
	assert.True(t, invoicing.ExceedsScale(d("21.00001"), 4))
}
