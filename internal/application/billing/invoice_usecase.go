package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/facturador-api/internal/application/auth"
	"github.com/jhoicas/facturador-api/internal/application/dto"
	"github.com/jhoicas/facturador-api/internal/domain"
	"github.com/jhoicas/facturador-api/internal/domain/entity"
	"github.com/jhoicas/facturador-api/internal/domain/invoicing"
	"github.com/jhoicas/facturador-api/internal/domain/repository"
)

// GetByID devuelve la factura con cliente y líneas. De otro usuario = ErrNotFound.
func (uc *InvoiceUseCase) GetByID(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}
	inv, err := uc.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	lines, err := uc.invoiceRepo.GetLines(ctx, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("cargar líneas: %w", err)
	}
	client, err := uc.clientRepo.GetByID(ctx, userID, inv.ClientID)
	if err != nil {
		return nil, fmt.Errorf("cargar cliente: %w", err)
	}
	out := ToInvoiceResponse(inv, lines, client, uc.now())
	return &out, nil
}

// List lista facturas del usuario (sin líneas) con su cliente.
// El filtro de estado usa el estado efectivo: OVERDUE incluye SENT vencidas.
func (uc *InvoiceUseCase) List(ctx context.Context, in dto.InvoiceListRequest) (*dto.InvoiceListResponse, error) {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}
	in.DefaultPage()
	filter := repository.InvoiceFilter{
		Year:   in.Year,
		Limit:  in.Limit,
		Offset: in.Offset,
		Today:  uc.now(),
	}
	if s := strings.ToUpper(strings.TrimSpace(in.Status)); s != "" {
		status, ok := entity.ParseInvoiceStatus(s)
		if !ok {
			return nil, domain.NewValidationError("status", "estado desconocido: %s", in.Status)
		}
		filter.Status = status
	}
	if in.Year < 0 || in.Year > 9999 {
		return nil, domain.NewValidationError("year", "año fuera de rango")
	}

	list, err := uc.invoiceRepo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	clients, err := uc.clientRepo.GetByIDs(ctx, userID, clientIDs(list))
	if err != nil {
		return nil, fmt.Errorf("cargar clientes: %w", err)
	}
	today := uc.now()
	out := &dto.InvoiceListResponse{
		Items: make([]dto.InvoiceResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset},
	}
	for _, inv := range list {
		out.Items = append(out.Items, ToInvoiceResponse(inv, nil, clients[inv.ClientID], today))
	}
	return out, nil
}

// Defaults valores sugeridos para una factura nueva del cliente: emisión hoy,
// vencimiento según días de pago del cliente y moneda por defecto del usuario.
func (uc *InvoiceUseCase) Defaults(ctx context.Context, clientID string) (*dto.InvoiceDefaultsResponse, error) {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}
	terms := uc.defaults.PaymentTerms
	if clientID != "" {
		client, err := uc.clientRepo.GetByID(ctx, userID, clientID)
		if err != nil {
			return nil, fmt.Errorf("buscar cliente: %w", err)
		}
		if client == nil {
			return nil, domain.ErrNotFound
		}
		terms = client.DefaultPaymentTerms
	}
	currency, err := uc.resolveCurrency(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	now := uc.now()
	return &dto.InvoiceDefaultsResponse{
		IssueDate:    now.Format(dto.DateLayout),
		DueDate:      invoicing.DefaultDueDate(now, terms).Format(dto.DateLayout),
		Currency:     currency,
		PaymentTerms: terms,
	}, nil
}

// MarkSent DRAFT -> SENT.
func (uc *InvoiceUseCase) MarkSent(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	return uc.changeStatus(ctx, id, entity.StatusSent)
}

// MarkPaid DRAFT | SENT | OVERDUE -> PAID.
func (uc *InvoiceUseCase) MarkPaid(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	return uc.changeStatus(ctx, id, entity.StatusPaid)
}

// MarkOverdue SENT -> OVERDUE.
func (uc *InvoiceUseCase) MarkOverdue(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	return uc.changeStatus(ctx, id, entity.StatusOverdue)
}

// SweepOverdue pasa a OVERDUE todas las facturas SENT vencidas a la fecha, de todos los usuarios.
func (uc *InvoiceUseCase) SweepOverdue(ctx context.Context) (int, error) {
	n, err := uc.invoiceRepo.MarkOverdue(ctx, "", uc.now())
	if err != nil {
		return 0, fmt.Errorf("marcar vencidas: %w", err)
	}
	return n, nil
}

// changeStatus aplica la transición; repetir el estado actual no escribe nada.
// Totales y líneas nunca se modifican.
func (uc *InvoiceUseCase) changeStatus(ctx context.Context, id string, target entity.InvoiceStatus) (*dto.InvoiceResponse, error) {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}
	inv, err := uc.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := invoicing.Transition(inv.Status, target); err != nil {
		return nil, err
	}
	if inv.Status != target {
		if err := uc.invoiceRepo.UpdateStatus(ctx, userID, inv.ID, target); err != nil {
			return nil, err
		}
	}
	return uc.GetByID(ctx, inv.ID)
}

func (uc *InvoiceUseCase) load(ctx context.Context, userID, id string) (*entity.Invoice, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("buscar factura: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

func clientIDs(list []*entity.Invoice) []string {
	seen := make(map[string]struct{}, len(list))
	ids := make([]string, 0, len(list))
	for _, inv := range list {
		if _, ok := seen[inv.ClientID]; ok {
			continue
		}
		seen[inv.ClientID] = struct{}{}
		ids = append(ids, inv.ClientID)
	}
	return ids
}
