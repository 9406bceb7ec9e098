// Package money valida códigos ISO 4217 y formatea importes redondeados a la unidad
// mínima de cada moneda. Solo se usa en los bordes (PDF, XML, XLSX).
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// ParseCurrency normaliza y valida un código ISO 4217 ("eur" -> "EUR").
func ParseCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("moneda %q no reconocida: %w", code, err)
	}
	return unit.String(), nil
}

// Scale decimales de la unidad mínima (EUR 2, JPY 0). Códigos desconocidos usan 2.
func Scale(code string) int32 {
	unit, err := currency.ParseISO(strings.ToUpper(code))
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale)
}

// Round redondea el importe a la unidad mínima de la moneda (half away from zero).
func Round(amount decimal.Decimal, code string) decimal.Decimal {
	return amount.Round(Scale(code))
}

// Amount importe redondeado con separador de miles: "1,234.50".
func Amount(amount decimal.Decimal, code string) string {
	s := amount.StringFixed(Scale(code))
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	return sign + groupThousands(intPart) + frac
}

// Plain importe redondeado sin separadores: "1234.50". Para formatos de intercambio.
func Plain(amount decimal.Decimal, code string) string {
	return amount.StringFixed(Scale(code))
}

// Format importe con código de moneda: "EUR 1,234.50".
func Format(amount decimal.Decimal, code string) string {
	return strings.ToUpper(code) + " " + Amount(amount, code)
}

// Rate porcentaje sin ceros sobrantes: "21%", "7.5%".
func Rate(rate decimal.Decimal) string {
	return rate.String() + "%"
}

// groupThousands agrupa sobre la representación decimal exacta; los formateadores de
// x/text/number convierten a float64.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
