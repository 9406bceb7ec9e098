package billing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/facturador-api/internal/application/auth"
	"github.com/jhoicas/facturador-api/internal/application/dto"
	"github.com/jhoicas/facturador-api/internal/domain"
	"github.com/jhoicas/facturador-api/internal/domain/entity"
	"github.com/jhoicas/facturador-api/internal/domain/repository"
)

// ClientUseCase casos de uso para clientes del usuario autenticado.
type ClientUseCase struct {
	repo         repository.ClientRepository
	defaultTerms int
}

// NewClientUseCase construye el caso de uso. defaultTerms son los días de pago
// asignados cuando la petición no los indica.
func NewClientUseCase(repo repository.ClientRepository, defaultTerms int) *ClientUseCase {
	return &ClientUseCase{repo: repo, defaultTerms: defaultTerms}
}

// Create crea un nuevo cliente.
func (uc *ClientUseCase) Create(ctx context.Context, in dto.ClientRequest) (*dto.ClientResponse, error) {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}
	terms, err := uc.validate(in)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	client := &entity.Client{
		ID:                  uuid.New().String(),
		UserID:              userID,
		CreatedAt:           now,
		UpdatedAt:           now,
		DefaultPaymentTerms: terms,
	}
	applyClientRequest(client, in)
	if err := uc.repo.Create(ctx, client); err != nil {
		return nil, err
	}
	return toClientResponse(client), nil
}

// GetByID obtiene un cliente del usuario; de otro usuario = ErrNotFound.
func (uc *ClientUseCase) GetByID(ctx context.Context, id string) (*dto.ClientResponse, error) {
	client, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toClientResponse(client), nil
}

// Update reemplaza los datos del cliente. Las facturas existentes no cambian.
func (uc *ClientUseCase) Update(ctx context.Context, id string, in dto.ClientRequest) (*dto.ClientResponse, error) {
	client, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.DefaultPaymentTerms == nil {
		in.DefaultPaymentTerms = &client.DefaultPaymentTerms
	}
	terms, err := uc.validate(in)
	if err != nil {
		return nil, err
	}
	applyClientRequest(client, in)
	client.DefaultPaymentTerms = terms
	client.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, client); err != nil {
		return nil, err
	}
	return toClientResponse(client), nil
}

// List lista los clientes del usuario, más recientes primero.
func (uc *ClientUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.ClientListResponse, error) {
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
	out := &dto.ClientListResponse{
		Items: make([]dto.ClientResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}
	for _, c := range list {
		out.Items = append(out.Items, *toClientResponse(c))
	}
	return out, nil
}

func (uc *ClientUseCase) load(ctx context.Context, id string) (*entity.Client, error) {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}
	client, err := uc.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, domain.ErrNotFound
	}
	return client, nil
}

func (uc *ClientUseCase) validate(in dto.ClientRequest) (int, error) {
	if strings.TrimSpace(in.Name) == "" {
		return 0, domain.NewValidationError("name", "es requerido")
	}
	if in.Email != "" && !strings.Contains(in.Email, "@") {
		return 0, domain.NewValidationError("email", "email inválido")
	}
	terms := uc.defaultTerms
	if in.DefaultPaymentTerms != nil {
		terms = *in.DefaultPaymentTerms
	}
	if terms < 0 {
		return 0, domain.NewValidationError("default_payment_terms", "no puede ser negativo")
	}
	return terms, nil
}

func applyClientRequest(c *entity.Client, in dto.ClientRequest) {
	c.Name = strings.TrimSpace(in.Name)
	c.ContactName = strings.TrimSpace(in.ContactName)
	c.Email = strings.TrimSpace(in.Email)
	c.Address = strings.TrimSpace(in.Address)
	c.VATNumber = strings.TrimSpace(in.VATNumber)
}
