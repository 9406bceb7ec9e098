package invoicing

import (
	"fmt"
	"time"

	"github.com/jhoicas/facturador-api/internal/domain"
)

// NumberWidth ancho mínimo del consecutivo: "2024-0003".
const NumberWidth = 4

// YearPrefix prefijo de los números de un año ("2024-"); se usa para contar los existentes.
func YearPrefix(year int) string {
	return fmt.Sprintf("%d-", year)
}

// NextInvoiceNumber devuelve "{año}-{consecutivo}" con consecutivo = existentes + 1
// rellenado a NumberWidth dígitos. Por encima de 9999 el consecutivo crece sin truncar.
// La atomicidad del conteo es responsabilidad de la persistencia.
func NextInvoiceNumber(year, existingCount int) (string, error) {
	if year < 1 || year > 9999 {
		return "", domain.NewValidationError("issue_date", "año fuera de rango: %d", year)
	}
	if existingCount < 0 {
		return "", domain.NewValidationError("count", "conteo negativo: %d", existingCount)
	}
	return fmt.Sprintf("%s%0*d", YearPrefix(year), NumberWidth, existingCount+1), nil
}

// DefaultDueDate fecha de vencimiento sugerida a partir de los días de pago del cliente.
func DefaultDueDate(issueDate time.Time, paymentTermsDays int) time.Time {
	if paymentTermsDays < 0 {
		paymentTermsDays = 0
	}
	return issueDate.AddDate(0, 0, paymentTermsDays)
}
