package repository

import (
	"context"

	"github.com/jhoicas/facturador-api/internal/domain/entity"
)

// ClientRepository define el puerto de persistencia para Client.
// Toda lectura filtra por userID; un cliente de otro usuario se reporta como inexistente (nil, nil).
type ClientRepository interface {
	Create(ctx context.Context, client *entity.Client) error
	GetByID(ctx context.Context, userID, id string) (*entity.Client, error)
	// GetByIDs carga en bloque los clientes del usuario; las claves del mapa son los IDs.
	GetByIDs(ctx context.Context, userID string, ids []string) (map[string]*entity.Client, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Client, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	Update(ctx context.Context, client *entity.Client) error
}
