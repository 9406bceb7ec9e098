package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/facturador-api/internal/application/auth"
	"github.com/jhoicas/facturador-api/internal/application/dto"
	"github.com/jhoicas/facturador-api/internal/domain"
	"github.com/jhoicas/facturador-api/internal/domain/entity"
	"github.com/jhoicas/facturador-api/internal/domain/repository"
	"github.com/jhoicas/facturador-api/pkg/money"
)

// SettingsUseCase perfil de empresa del usuario autenticado (datos del emisor en las facturas).
type SettingsUseCase struct {
	repo            repository.UserRepository
	defaultCurrency string
}

// NewSettingsUseCase construye el caso de uso.
func NewSettingsUseCase(repo repository.UserRepository, defaultCurrency string) *SettingsUseCase {
	if defaultCurrency == "" {
		defaultCurrency = "EUR"
	}
	return &SettingsUseCase{repo: repo, defaultCurrency: defaultCurrency}
}

// Get devuelve el perfil actual.
func (uc *SettingsUseCase) Get(ctx context.Context) (*dto.SettingsResponse, error) {
	user, err := uc.load(ctx)
	if err != nil {
		return nil, err
	}
	return toSettingsResponse(user), nil
}

// Update reemplaza el perfil de empresa. Moneda vacía = moneda por defecto de configuración.
// Las facturas ya emitidas conservan su moneda.
func (uc *SettingsUseCase) Update(ctx context.Context, in dto.SettingsRequest) (*dto.SettingsResponse, error) {
	user, err := uc.load(ctx)
	if err != nil {
		return nil, err
	}
	code := strings.TrimSpace(in.DefaultCurrency)
	if code == "" {
		code = uc.defaultCurrency
	}
	currency, err := money.ParseCurrency(code)
	if err != nil {
		return nil, domain.NewValidationError("default_currency", "código ISO 4217 inválido: %s", code)
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		user.Name = name
	}
	user.CompanyName = strings.TrimSpace(in.CompanyName)
	user.CompanyAddress = strings.TrimSpace(in.CompanyAddress)
	user.VATNumber = strings.TrimSpace(in.VATNumber)
	user.BankDetails = strings.TrimSpace(in.BankDetails)
	user.DefaultCurrency = currency
	user.UpdatedAt = time.Now()
	if err := uc.repo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return toSettingsResponse(user), nil
}

func (uc *SettingsUseCase) load(ctx context.Context) (*entity.User, error) {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}
	user, err := uc.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func toSettingsResponse(u *entity.User) *dto.SettingsResponse {
	return &dto.SettingsResponse{
		Email:           u.Email,
		Name:            u.Name,
		CompanyName:     u.CompanyName,
		CompanyAddress:  u.CompanyAddress,
		VATNumber:       u.VATNumber,
		BankDetails:     u.BankDetails,
		DefaultCurrency: u.DefaultCurrency,
		UpdatedAt:       u.UpdatedAt,
	}
}
