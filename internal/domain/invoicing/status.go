package invoicing

import (
	"fmt"
	"time"

	"github.com/jhoicas/facturador-api/internal/domain"
	"github.com/jhoicas/facturador-api/internal/domain/entity"
)

// allowedFrom estados de origen permitidos para cada estado destino.
var allowedFrom = map[entity.InvoiceStatus][]entity.InvoiceStatus{
	entity.StatusSent:    {entity.StatusDraft, entity.StatusSent},
	entity.StatusPaid:    {entity.StatusDraft, entity.StatusSent, entity.StatusOverdue, entity.StatusPaid},
	entity.StatusOverdue: {entity.StatusSent, entity.StatusOverdue},
}

// Transition valida el cambio current -> target. Repetir el estado actual es un no-op válido.
func Transition(current, target entity.InvoiceStatus) error {
	for _, from := range allowedFrom[target] {
		if from == current {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current, target)
}

// EffectiveStatus estado a mostrar: una factura SENT con vencimiento anterior a hoy se lee OVERDUE.
func EffectiveStatus(status entity.InvoiceStatus, dueDate, today time.Time) entity.InvoiceStatus {
	if status == entity.StatusSent && dateOnly(dueDate).Before(dateOnly(today)) {
		return entity.StatusOverdue
	}
	return status
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
