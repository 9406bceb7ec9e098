package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-api/internal/application/auth"
	"github.com/jhoicas/facturador-api/internal/application/dto"
	"github.com/jhoicas/facturador-api/internal/domain"
	"github.com/jhoicas/facturador-api/internal/domain/entity"
	"github.com/jhoicas/facturador-api/internal/domain/invoicing"
	"github.com/jhoicas/facturador-api/internal/domain/repository"
)

// ItemUseCase casos de uso CRUD para conceptos facturables.
// Editar un concepto nunca modifica líneas de facturas ya emitidas.
type ItemUseCase struct {
	repo             repository.ItemRepository
	defaultUnitLabel string
}

// NewItemUseCase construye el caso de uso.
func NewItemUseCase(repo repository.ItemRepository, defaultUnitLabel string) *ItemUseCase {
	if !entity.ValidUnitLabel(defaultUnitLabel) {
		defaultUnitLabel = entity.UnitHour
	}
	return &ItemUseCase{repo: repo, defaultUnitLabel: defaultUnitLabel}
}

// Create crea un nuevo concepto. Unidad por defecto hour, impuesto 0.
func (uc *ItemUseCase) Create(ctx context.Context, in dto.ItemRequest) (*dto.ItemResponse, error) {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	item := &entity.Item{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.apply(item, in); err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return toItemResponse(item), nil
}

// GetByID obtiene un concepto del usuario.
func (uc *ItemUseCase) GetByID(ctx context.Context, id string) (*dto.ItemResponse, error) {
	item, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toItemResponse(item), nil
}

// Update reemplaza los datos del concepto. Campos opcionales omitidos conservan su valor.
func (uc *ItemUseCase) Update(ctx context.Context, id string, in dto.ItemRequest) (*dto.ItemResponse, error) {
	item, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.UnitPrice == nil {
		in.UnitPrice = &item.UnitPrice
	}
	if in.TaxRate == nil {
		in.TaxRate = &item.TaxRate
	}
	if in.UnitLabel == "" {
		in.UnitLabel = item.UnitLabel
	}
	if err := uc.apply(item, in); err != nil {
		return nil, err
	}
	item.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	return toItemResponse(item), nil
}

// List lista conceptos del usuario con paginación.
func (uc *ItemUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.ItemListResponse, error) {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}
	page.DefaultPage()
	list, err := uc.repo.ListByUser(ctx, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	total, err := uc.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ItemResponse, 0, len(list))
	for _, it := range list {
		items = append(items, *toItemResponse(it))
	}
	return &dto.ItemListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

func (uc *ItemUseCase) load(ctx context.Context, id string) (*entity.Item, error) {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}
	item, err := uc.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (uc *ItemUseCase) apply(item *entity.Item, in dto.ItemRequest) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.NewValidationError("name", "es requerido")
	}
	if in.UnitPrice == nil {
		return domain.NewValidationError("unit_price", "es requerido")
	}
	if err := invoicing.ValidatePrice(*in.UnitPrice); err != nil {
		return err
	}
	taxRate := decimal.Zero
	if in.TaxRate != nil {
		taxRate = *in.TaxRate
	}
	if err := invoicing.ValidateTaxRate(taxRate); err != nil {
		return err
	}
	unit := strings.ToLower(strings.TrimSpace(in.UnitLabel))
	if unit == "" {
		unit = uc.defaultUnitLabel
	}
	if !entity.ValidUnitLabel(unit) {
		return domain.NewValidationError("unit_label", "unidad no soportada: %s", in.UnitLabel)
	}
	item.Name = name
	item.Description = strings.TrimSpace(in.Description)
	item.UnitPrice = *in.UnitPrice
	item.TaxRate = taxRate
	item.UnitLabel = unit
	return nil
}

func toItemResponse(it *entity.Item) *dto.ItemResponse {
	if it == nil {
		return nil
	}
	return &dto.ItemResponse{
		ID:          it.ID,
		Name:        it.Name,
		Description: it.Description,
		UnitPrice:   it.UnitPrice,
		UnitLabel:   it.UnitLabel,
		TaxRate:     it.TaxRate,
		CreatedAt:   it.CreatedAt,
		UpdatedAt:   it.UpdatedAt,
	}
}
