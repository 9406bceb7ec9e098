package repository

import (
	"context"
	"time"

	"github.com/jhoicas/facturador-api/internal/domain/entity"
)

// InvoiceFilter filtros del listado de facturas. Valores cero = sin filtro; Limit 0 = todas.
// Con Today definido, Status se compara contra el estado efectivo (SENT vencida = OVERDUE).
type InvoiceFilter struct {
	Status entity.InvoiceStatus
	Year   int // año de emisión
	Limit  int
	Offset int
	Today  time.Time
}

// InvoiceRepository define el puerto de persistencia para Invoice y sus líneas.
type InvoiceRepository interface {
	// LockNumbering serializa la numeración de (userID, year) hasta el fin de la transacción.
	LockNumbering(ctx context.Context, userID string, year int) error
	// CountByYear cuenta las facturas del usuario cuyo número empieza por "YYYY-".
	CountByYear(ctx context.Context, userID string, year int) (int, error)
	// Create inserta la cabecera. Un número repetido para el usuario devuelve domain.ErrConflict.
	Create(ctx context.Context, invoice *entity.Invoice) error
	CreateLine(ctx context.Context, line *entity.InvoiceLine) error
	GetByID(ctx context.Context, userID, id string) (*entity.Invoice, error)
	// GetLines devuelve las líneas ordenadas por posición.
	GetLines(ctx context.Context, invoiceID string) ([]*entity.InvoiceLine, error)
	ListByUser(ctx context.Context, userID string, filter InvoiceFilter) ([]*entity.Invoice, error)
	UpdateStatus(ctx context.Context, userID, id string, status entity.InvoiceStatus) error
	// MarkOverdue pasa a OVERDUE las facturas SENT con vencimiento anterior a today.
	// userID vacío aplica a todos los usuarios. Devuelve cuántas cambiaron.
	MarkOverdue(ctx context.Context, userID string, today time.Time) (int, error)
}
