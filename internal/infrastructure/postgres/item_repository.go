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

var _ repository.ItemRepository = (*ItemRepo)(nil)

const itemColumns = `id, user_id, name, description, unit_price, unit_label, tax_rate, created_at, updated_at`

// ItemRepo implementación de ItemRepository. unit_price y tax_rate son NUMERIC (codec decimal del pool).
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

// Create persiste un nuevo concepto.
func (r *ItemRepo) Create(ctx context.Context, it *entity.Item) error {
	query := `
		INSERT INTO items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		it.ID, it.UserID, it.Name, it.Description, it.UnitPrice, it.UnitLabel, it.TaxRate,
		it.CreatedAt, it.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// GetByID obtiene un concepto del usuario; nil si no existe o es de otro usuario.
func (r *ItemRepo) GetByID(ctx context.Context, userID, id string) (*entity.Item, error) {
	id, ok := parseID(id)
	if !ok {
		return nil, nil
	}
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1 AND user_id = $2`
	it, err := scanItem(r.q.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// ListByUser lista conceptos del usuario con paginación.
func (r *ItemRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Item, error) {
	query := `
		SELECT ` + itemColumns + ` FROM items
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	var list []*entity.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

// CountByUser total de conceptos del usuario.
func (r *ItemRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM items WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

// Update actualiza un concepto. Las líneas de factura guardan su propia copia y no cambian.
func (r *ItemRepo) Update(ctx context.Context, it *entity.Item) error {
	query := `
		UPDATE items
		SET name = $3, description = $4, unit_price = $5, unit_label = $6, tax_rate = $7, updated_at = $8
		WHERE id = $1 AND user_id = $2`
	tag, err := r.q.Exec(ctx, query,
		it.ID, it.UserID, it.Name, it.Description, it.UnitPrice, it.UnitLabel, it.TaxRate, it.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanItem(row pgx.Row) (*entity.Item, error) {
	var it entity.Item
	err := row.Scan(
		&it.ID, &it.UserID, &it.Name, &it.Description, &it.UnitPrice, &it.UnitLabel, &it.TaxRate,
		&it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}
