// Package memory implementa los puertos de persistencia en memoria. Lo usan los tests de
// casos de uso y handlers; reproduce las restricciones de la base de datos que importan a la
// facturación: número único por usuario, bloqueo de numeración y atomicidad de cabecera+líneas.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/facturador-api/internal/application/billing"
	"github.com/jhoicas/facturador-api/internal/domain"
	"github.com/jhoicas/facturador-api/internal/domain/entity"
	"github.com/jhoicas/facturador-api/internal/domain/invoicing"
	"github.com/jhoicas/facturador-api/internal/domain/repository"
)

var (
	_ repository.UserRepository      = (*UserRepo)(nil)
	_ repository.ClientRepository    = (*ClientRepo)(nil)
	_ repository.ItemRepository      = (*ItemRepo)(nil)
	_ repository.InvoiceRepository   = (*InvoiceRepo)(nil)
	_ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)
	_ billing.InvoiceTxRunner        = (*Store)(nil)
)

// Store datos compartidos por todos los repositorios en memoria.
type Store struct {
	mu          sync.Mutex
	seq         int64
	order       map[string]int64
	users       map[string]entity.User
	clients     map[string]entity.Client
	items       map[string]entity.Item
	invoices    map[string]entity.Invoice
	lines       map[string][]entity.InvoiceLine
	numberLocks map[string]*sync.Mutex
	failCreates int
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		order:       make(map[string]int64),
		users:       make(map[string]entity.User),
		clients:     make(map[string]entity.Client),
		items:       make(map[string]entity.Item),
		invoices:    make(map[string]entity.Invoice),
		lines:       make(map[string][]entity.InvoiceLine),
		numberLocks: make(map[string]*sync.Mutex),
	}
}

// Users repositorio de usuarios sobre el store.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }
// Clients repositorio de clientes.
func (s *Store) Clients() *ClientRepo { return &ClientRepo{s: s} }
// Items repositorio de conceptos.
func (s *Store) Items() *ItemRepo { return &ItemRepo{s: s} }
// Invoices repositorio de facturas fuera de transacción.
func (s *Store) Invoices() *InvoiceRepo { return &InvoiceRepo{s: s} }
// Analytics consultas del dashboard.
func (s *Store) Analytics() *AnalyticsRepo { return &AnalyticsRepo{s: s} }

// FailNextCreates hace que las próximas n inserciones de factura fallen con domain.ErrConflict,
// como si otro proceso hubiera tomado el número.
func (s *Store) FailNextCreates(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCreates = n
}

// InvoiceCount total de facturas guardadas.
func (s *Store) InvoiceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.invoices)
}

// mark registra el orden de inserción. Requiere s.mu.
func (s *Store) mark(id string) {
	s.seq++
	s.order[id] = s.seq
}

// ── Users ────────────────────────────────────────────────────────────────────

// UserRepo implementa repository.UserRepository. El email es único sin distinguir mayúsculas.
type UserRepo struct{ s *Store }

// Create guarda el usuario; ErrEmailAlreadyExists si el email ya existe.
func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrEmailAlreadyExists
		}
	}
	r.s.users[u.ID] = *u
	r.s.mark(u.ID)
	return nil
}

// GetByID devuelve nil, nil si no existe.
func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// GetByEmail busca por email sin distinguir mayúsculas.
func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

// UpdateProfile reemplaza el usuario completo.
func (r *UserRepo) UpdateProfile(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.s.users[u.ID] = *u
	return nil
}

// ── Clients ──────────────────────────────────────────────────────────────────

// ClientRepo implementa repository.ClientRepository.
type ClientRepo struct{ s *Store }

// Create guarda el cliente.
func (r *ClientRepo) Create(_ context.Context, c *entity.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.clients[c.ID] = *c
	r.s.mark(c.ID)
	return nil
}

// GetByID devuelve nil, nil si no existe o es de otro usuario.
func (r *ClientRepo) GetByID(_ context.Context, userID, id string) (*entity.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok || c.UserID != userID {
		return nil, nil
	}
	return &c, nil
}

// GetByIDs omite los ids inexistentes o ajenos.
func (r *ClientRepo) GetByIDs(_ context.Context, userID string, ids []string) (map[string]*entity.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[string]*entity.Client, len(ids))
	for _, id := range ids {
		if c, ok := r.s.clients[id]; ok && c.UserID == userID {
			c := c
			out[id] = &c
		}
	}
	return out, nil
}

// ListByUser más recientes primero; limit 0 = todos.
func (r *ClientRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]*entity.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*entity.Client
	for _, c := range r.s.clients {
		if c.UserID == userID {
			c := c
			list = append(list, &c)
		}
	}
	sortNewest(r.s, list, func(c *entity.Client) (time.Time, string) { return c.CreatedAt, c.ID })
	return page(list, limit, offset), nil
}

// CountByUser total de clientes del usuario.
func (r *ClientRepo) CountByUser(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, c := range r.s.clients {
		if c.UserID == userID {
			n++
		}
	}
	return n, nil
}

// Update ErrNotFound si el cliente no es del usuario.
func (r *ClientRepo) Update(_ context.Context, c *entity.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.clients[c.ID]
	if !ok || existing.UserID != c.UserID {
		return domain.ErrNotFound
	}
	r.s.clients[c.ID] = *c
	return nil
}

// ── Items ────────────────────────────────────────────────────────────────────

// ItemRepo implementa repository.ItemRepository.
type ItemRepo struct{ s *Store }

// Create guarda el concepto.
func (r *ItemRepo) Create(_ context.Context, it *entity.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.items[it.ID] = *it
	r.s.mark(it.ID)
	return nil
}

// GetByID devuelve nil, nil si no existe o es de otro usuario.
func (r *ItemRepo) GetByID(_ context.Context, userID, id string) (*entity.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.items[id]
	if !ok || it.UserID != userID {
		return nil, nil
	}
	return &it, nil
}

// ListByUser más recientes primero; limit 0 = todos.
func (r *ItemRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]*entity.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*entity.Item
	for _, it := range r.s.items {
		if it.UserID == userID {
			it := it
			list = append(list, &it)
		}
	}
	sortNewest(r.s, list, func(it *entity.Item) (time.Time, string) { return it.CreatedAt, it.ID })
	return page(list, limit, offset), nil
}

// CountByUser total de conceptos del usuario.
func (r *ItemRepo) CountByUser(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, it := range r.s.items {
		if it.UserID == userID {
			n++
		}
	}
	return n, nil
}

// Update ErrNotFound si el concepto no es del usuario.
func (r *ItemRepo) Update(_ context.Context, it *entity.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.items[it.ID]
	if !ok || existing.UserID != it.UserID {
		return domain.ErrNotFound
	}
	r.s.items[it.ID] = *it
	return nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

// sortNewest ordena por fecha de creación descendente y, a igual fecha, por inserción descendente.
func sortNewest[T any](s *Store, list []*T, key func(*T) (time.Time, string)) {
	sort.SliceStable(list, func(i, j int) bool {
		ti, idi := key(list[i])
		tj, idj := key(list[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return s.order[idi] > s.order[idj]
	})
}

func page[T any](list []*T, limit, offset int) []*T {
	if offset >= len(list) {
		return []*T{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

func matchesFilter(inv entity.Invoice, f repository.InvoiceFilter) bool {
	if f.Year != 0 && inv.IssueDate.Year() != f.Year {
		return false
	}
	if f.Status == "" {
		return true
	}
	status := inv.Status
	if !f.Today.IsZero() {
		status = invoicing.EffectiveStatus(inv.Status, inv.DueDate, f.Today)
	}
	return status == f.Status
}
