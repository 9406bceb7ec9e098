// Package invoicing contiene el cálculo de totales, la numeración y las transiciones
// de estado de una factura. Servicio de dominio puro: no hace I/O.
package invoicing

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-api/internal/domain"
)

var maxTaxRate = decimal.NewFromInt(100)

// Decimales máximos que admiten las columnas de cantidad, precio e impuesto.
const (
	QuantityScale = 6
	PriceScale    = 6
	TaxRateScale  = 4
)

// maxAmount cota exclusiva de cantidad y precio (12 dígitos enteros).
var maxAmount = decimal.New(1, 12)

// ExceedsScale indica si d tiene más decimales significativos que places.
func ExceedsScale(d decimal.Decimal, places int32) bool {
	return !d.Equal(d.Truncate(places))
}

// Line datos de una línea necesarios para el cálculo.
type Line struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	TaxRate   decimal.Decimal // porcentaje 0..100
}

// Totals totales de cabecera. Total = Subtotal + TaxTotal.
type Totals struct {
	Subtotal decimal.Decimal
	TaxTotal decimal.Decimal
	Total    decimal.Decimal
}

// ValidateLine verifica cantidad > 0, precio >= 0, impuesto en [0, 100] y que
// ninguno supere sus decimales máximos.
func ValidateLine(l Line) error {
	if !l.Quantity.IsPositive() {
		return domain.NewValidationError("quantity", "debe ser mayor que 0")
	}
	if !l.Quantity.LessThan(maxAmount) {
		return domain.NewValidationError("quantity", "debe ser menor que %s", maxAmount)
	}
	if ExceedsScale(l.Quantity, QuantityScale) {
		return domain.NewValidationError("quantity", "admite como máximo %d decimales", QuantityScale)
	}
	if err := ValidatePrice(l.UnitPrice); err != nil {
		return err
	}
	return ValidateTaxRate(l.TaxRate)
}

// ValidatePrice precio en [0, 10^12) con como máximo PriceScale decimales.
func ValidatePrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return domain.NewValidationError("unit_price", "no puede ser negativo")
	}
	if !p.LessThan(maxAmount) {
		return domain.NewValidationError("unit_price", "debe ser menor que %s", maxAmount)
	}
	if ExceedsScale(p, PriceScale) {
		return domain.NewValidationError("unit_price", "admite como máximo %d decimales", PriceScale)
	}
	return nil
}

// ValidateTaxRate porcentaje en [0, 100] con como máximo TaxRateScale decimales.
func ValidateTaxRate(t decimal.Decimal) error {
	if t.IsNegative() || t.GreaterThan(maxTaxRate) {
		return domain.NewValidationError("tax_rate", "debe estar entre 0 y 100")
	}
	if ExceedsScale(t, TaxRateScale) {
		return domain.NewValidationError("tax_rate", "admite como máximo %d decimales", TaxRateScale)
	}
	return nil
}

// ComputeLineTotal = cantidad * precio * (1 + impuesto/100). Sin redondeo.
func ComputeLineTotal(quantity, unitPrice, taxRate decimal.Decimal) (decimal.Decimal, error) {
	l := Line{Quantity: quantity, UnitPrice: unitPrice, TaxRate: taxRate}
	if err := ValidateLine(l); err != nil {
		return decimal.Zero, err
	}
	base, tax := split(l)
	return base.Add(tax), nil
}

// ComputeInvoiceTotals suma base e impuesto de todas las líneas.
// Falla si no hay líneas o alguna es inválida.
func ComputeInvoiceTotals(lines []Line) (Totals, error) {
	if len(lines) == 0 {
		return Totals{}, domain.NewValidationError("lines", "la factura debe tener al menos una línea")
	}
	subtotal, taxTotal := decimal.Zero, decimal.Zero
	for i, l := range lines {
		if err := ValidateLine(l); err != nil {
			ve := err.(*domain.ValidationError)
			return Totals{}, domain.NewValidationError("lines", "línea %d: %s", i+1, ve.Error())
		}
		base, tax := split(l)
		subtotal = subtotal.Add(base)
		taxTotal = taxTotal.Add(tax)
	}
	return Totals{
		Subtotal: subtotal,
		TaxTotal: taxTotal,
		Total:    subtotal.Add(taxTotal),
	}, nil
}

// split devuelve base (q*u) e impuesto (q*u*t/100). La división por 100 es un
// corrimiento decimal exacto, así Σ total de línea == total de factura sin tolerancia.
func split(l Line) (base, tax decimal.Decimal) {
	base = l.Quantity.Mul(l.UnitPrice)
	tax = base.Mul(l.TaxRate).Shift(-2)
	return base, tax
}
