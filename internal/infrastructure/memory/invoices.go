package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-api/internal/domain"
	"github.com/jhoicas/facturador-api/internal/domain/entity"
	"github.com/jhoicas/facturador-api/internal/domain/invoicing"
	"github.com/jhoicas/facturador-api/internal/domain/repository"
)

// tx escrituras pendientes y bloqueos de numeración de una transacción.
type tx struct {
	invoices []entity.Invoice
	lines    []entity.InvoiceLine
	held     []*sync.Mutex
}

// RunInvoice ejecuta fn con un InvoiceRepo transaccional. Las escrituras se aplican solo si
// fn termina sin error; el número único se verifica de nuevo al confirmar.
func (s *Store) RunInvoice(ctx context.Context, fn func(invoiceRepo repository.InvoiceRepository) error) error {
	t := &tx{}
	defer func() {
		for i := len(t.held) - 1; i >= 0; i-- {
			t.held[i].Unlock()
		}
	}()
	if err := fn(&InvoiceRepo{s: s, tx: t}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range t.invoices {
		if s.numberTaken(inv.UserID, inv.InvoiceNumber, nil) {
			return fmt.Errorf("insert invoice %s: %w", inv.InvoiceNumber, domain.ErrConflict)
		}
	}
	for _, inv := range t.invoices {
		s.invoices[inv.ID] = inv
		s.mark(inv.ID)
	}
	for _, l := range t.lines {
		s.lines[l.InvoiceID] = append(s.lines[l.InvoiceID], l)
	}
	return nil
}

// numberTaken indica si el número ya existe para el usuario, confirmado o pendiente en t. Requiere s.mu.
func (s *Store) numberTaken(userID, number string, t *tx) bool {
	for _, inv := range s.invoices {
		if inv.UserID == userID && inv.InvoiceNumber == number {
			return true
		}
	}
	if t != nil {
		for _, inv := range t.invoices {
			if inv.UserID == userID && inv.InvoiceNumber == number {
				return true
			}
		}
	}
	return false
}

// InvoiceRepo repositorio de facturas; con tx != nil escribe en la transacción.
type InvoiceRepo struct {
	s  *Store
	tx *tx
}

// LockNumbering equivale a pg_advisory_xact_lock: se libera al terminar la transacción.
// Fuera de una transacción no hace nada.
func (r *InvoiceRepo) LockNumbering(ctx context.Context, userID string, year int) error {
	if r.tx == nil {
		return nil
	}
	key := fmt.Sprintf("%s:%d", userID, year)
	r.s.mu.Lock()
	m, ok := r.s.numberLocks[key]
	if !ok {
		m = &sync.Mutex{}
		r.s.numberLocks[key] = m
	}
	r.s.mu.Unlock()

	m.Lock()
	r.tx.held = append(r.tx.held, m)
	return ctx.Err()
}

// CountByYear cuenta facturas del usuario con prefijo YYYY-, incluidas las pendientes de la transacción.
func (r *InvoiceRepo) CountByYear(_ context.Context, userID string, year int) (int, error) {
	prefix := invoicing.YearPrefix(year)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, inv := range r.s.invoices {
		if inv.UserID == userID && strings.HasPrefix(inv.InvoiceNumber, prefix) {
			n++
		}
	}
	if r.tx != nil {
		for _, inv := range r.tx.invoices {
			if inv.UserID == userID && strings.HasPrefix(inv.InvoiceNumber, prefix) {
				n++
			}
		}
	}
	return n, nil
}

// Create inserta la cabecera; ErrConflict si el número ya existe o hay un fallo inyectado.
func (r *InvoiceRepo) Create(_ context.Context, inv *entity.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failCreates > 0 {
		r.s.failCreates--
		return fmt.Errorf("insert invoice %s: %w", inv.InvoiceNumber, domain.ErrConflict)
	}
	if r.s.numberTaken(inv.UserID, inv.InvoiceNumber, r.tx) {
		return fmt.Errorf("insert invoice %s: %w", inv.InvoiceNumber, domain.ErrConflict)
	}
	if r.tx != nil {
		r.tx.invoices = append(r.tx.invoices, *inv)
		return nil
	}
	r.s.invoices[inv.ID] = *inv
	r.s.mark(inv.ID)
	return nil
}

// CreateLine inserta una línea.
func (r *InvoiceRepo) CreateLine(_ context.Context, l *entity.InvoiceLine) error {
	if r.tx != nil {
		r.tx.lines = append(r.tx.lines, *l)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.invoices[l.InvoiceID]; !ok {
		return fmt.Errorf("insert invoice line: factura %s: %w", l.InvoiceID, domain.ErrNotFound)
	}
	r.s.lines[l.InvoiceID] = append(r.s.lines[l.InvoiceID], *l)
	return nil
}

// GetByID devuelve nil, nil si no existe o es de otro usuario.
func (r *InvoiceRepo) GetByID(_ context.Context, userID, id string) (*entity.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[id]
	if !ok || inv.UserID != userID {
		return nil, nil
	}
	return &inv, nil
}

// GetLines líneas ordenadas por posición.
func (r *InvoiceRepo) GetLines(_ context.Context, invoiceID string) ([]*entity.InvoiceLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := r.s.lines[invoiceID]
	out := make([]*entity.InvoiceLine, 0, len(stored))
	for _, l := range stored {
		l := l
		out = append(out, &l)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

// ListByUser aplica el filtro con estado efectivo; más recientes primero.
func (r *InvoiceRepo) ListByUser(_ context.Context, userID string, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*entity.Invoice
	for _, inv := range r.s.invoices {
		if inv.UserID == userID && matchesFilter(inv, f) {
			inv := inv
			list = append(list, &inv)
		}
	}
	sortNewest(r.s, list, func(inv *entity.Invoice) (time.Time, string) { return inv.CreatedAt, inv.ID })
	return page(list, f.Limit, f.Offset), nil
}

// UpdateStatus ErrNotFound si la factura no es del usuario.
func (r *InvoiceRepo) UpdateStatus(_ context.Context, userID, id string, status entity.InvoiceStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[id]
	if !ok || inv.UserID != userID {
		return domain.ErrNotFound
	}
	inv.Status = status
	inv.UpdatedAt = time.Now()
	r.s.invoices[id] = inv
	return nil
}

// MarkOverdue SENT con vencimiento anterior a today -> OVERDUE. userID vacío = todos.
func (r *InvoiceRepo) MarkOverdue(_ context.Context, userID string, today time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for id, inv := range r.s.invoices {
		if userID != "" && inv.UserID != userID {
			continue
		}
		if invoicing.EffectiveStatus(inv.Status, inv.DueDate, today) == entity.StatusOverdue && inv.Status == entity.StatusSent {
			inv.Status = entity.StatusOverdue
			inv.UpdatedAt = time.Now()
			r.s.invoices[id] = inv
			n++
		}
	}
	return n, nil
}

// ── Analytics ────────────────────────────────────────────────────────────────

// AnalyticsRepo implementa repository.AnalyticsRepository.
type AnalyticsRepo struct{ s *Store }

// GetRevenueByCurrency total de todas las facturas y pagado de las PAID, por moneda.
func (r *AnalyticsRepo) GetRevenueByCurrency(_ context.Context, userID string) ([]repository.RevenueByCurrency, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	byCurrency := make(map[string]*repository.RevenueByCurrency)
	for _, inv := range r.s.invoices {
		if inv.UserID != userID {
			continue
		}
		row, ok := byCurrency[inv.Currency]
		if !ok {
			row = &repository.RevenueByCurrency{Currency: inv.Currency, Total: decimal.Zero, Paid: decimal.Zero}
			byCurrency[inv.Currency] = row
		}
		row.Total = row.Total.Add(inv.Total)
		if inv.Status == entity.StatusPaid {
			row.Paid = row.Paid.Add(inv.Total)
		}
		row.InvoiceCount++
	}
	out := make([]repository.RevenueByCurrency, 0, len(byCurrency))
	for _, row := range byCurrency {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out, nil
}

// GetStatusCounts conteo por estado efectivo a la fecha today.
func (r *AnalyticsRepo) GetStatusCounts(_ context.Context, userID string, today time.Time) (repository.StatusCounts, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var c repository.StatusCounts
	for _, inv := range r.s.invoices {
		if inv.UserID != userID {
			continue
		}
		c.Total++
		switch invoicing.EffectiveStatus(inv.Status, inv.DueDate, today) {
		case entity.StatusDraft:
			c.Draft++
		case entity.StatusSent:
			c.Sent++
		case entity.StatusPaid:
			c.Paid++
		case entity.StatusOverdue:
			c.Overdue++
		}
	}
	return c, nil
}
