package repository

import (
	"context"

	"github.com/jhoicas/facturador-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// UpdateProfile actualiza el perfil de empresa y la moneda por defecto.
	UpdateProfile(ctx context.Context, user *entity.User) error
}
