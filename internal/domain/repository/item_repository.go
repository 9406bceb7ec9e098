package repository

import (
	"context"

	"github.com/jhoicas/facturador-api/internal/domain/entity"
)

// ItemRepository define el puerto de persistencia para Item (catálogo de conceptos facturables).
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, userID, id string) (*entity.Item, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Item, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	Update(ctx context.Context, item *entity.Item) error
}
