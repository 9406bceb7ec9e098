package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturador-api/internal/domain"
	"github.com/jhoicas/facturador-api/internal/domain/entity"
	"github.com/jhoicas/facturador-api/internal/domain/repository"
)

var _ repository.ClientRepository = (*ClientRepo)(nil)

const clientColumns = `id, user_id, name, contact_name, email, address, vat_number,
	default_payment_terms, created_at, updated_at`

// ClientRepo implementación de ClientRepository (usable con pool o tx).
type ClientRepo struct {
	q Querier
}

// NewClientRepository construye el adaptador. Pasar pool o tx (Querier).
func NewClientRepository(q Querier) *ClientRepo {
	return &ClientRepo{q: q}
}

// Create persiste un nuevo cliente.
func (r *ClientRepo) Create(ctx context.Context, c *entity.Client) error {
	query := `
		INSERT INTO clients (` + clientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.UserID, c.Name, c.ContactName, c.Email, c.Address, c.VATNumber,
		c.DefaultPaymentTerms, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

// GetByID obtiene un cliente del usuario; nil si no existe o es de otro usuario.
func (r *ClientRepo) GetByID(ctx context.Context, userID, id string) (*entity.Client, error) {
	id, ok := parseID(id)
	if !ok {
		return nil, nil
	}
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1 AND user_id = $2`
	c, err := scanClient(r.q.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

// GetByIDs carga en bloque los clientes del usuario.
func (r *ClientRepo) GetByIDs(ctx context.Context, userID string, ids []string) (map[string]*entity.Client, error) {
	out := make(map[string]*entity.Client, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if id, ok := parseID(id); ok {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return out, nil
	}
	query := `SELECT ` + clientColumns + ` FROM clients WHERE user_id = $1 AND id = ANY($2::uuid[])`
	rows, err := r.q.Query(ctx, query, userID, valid)
	if err != nil {
		return nil, fmt.Errorf("get clients: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		out[c.ID] = c
	}
	return out, rows.Err()
}

// ListByUser lista clientes del usuario, más recientes primero.
func (r *ClientRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Client, error) {
	query := `
		SELECT ` + clientColumns + ` FROM clients
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()
	var list []*entity.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// CountByUser total de clientes del usuario.
func (r *ClientRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM clients WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count clients: %w", err)
	}
	return n, nil
}

// Update actualiza un cliente del usuario.
func (r *ClientRepo) Update(ctx context.Context, c *entity.Client) error {
	query := `
		UPDATE clients
		SET name = $3, contact_name = $4, email = $5, address = $6, vat_number = $7,
		    default_payment_terms = $8, updated_at = $9
		WHERE id = $1 AND user_id = $2`
	tag, err := r.q.Exec(ctx, query,
		c.ID, c.UserID, c.Name, c.ContactName, c.Email, c.Address, c.VATNumber,
		c.DefaultPaymentTerms, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanClient(row pgx.Row) (*entity.Client, error) {
	var c entity.Client
	err := row.Scan(
		&c.ID, &c.UserID, &c.Name, &c.ContactName, &c.Email, &c.Address, &c.VATNumber,
		&c.DefaultPaymentTerms, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
