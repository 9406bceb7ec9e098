package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/facturador-api/internal/application/auth"
	"github.com/jhoicas/facturador-api/internal/application/dto"
	"github.com/jhoicas/facturador-api/internal/domain"
	"github.com/jhoicas/facturador-api/internal/domain/entity"
	"github.com/jhoicas/facturador-api/internal/domain/invoicing"
	"github.com/jhoicas/facturador-api/internal/domain/repository"
	"github.com/jhoicas/facturador-api/pkg/money"
)

// InvoiceUseCase casos de uso de facturas: creación numerada, consulta y cambios de estado.
type InvoiceUseCase struct {
	txRunner    InvoiceTxRunner
	invoiceRepo repository.InvoiceRepository
	clientRepo  repository.ClientRepository
	itemRepo    repository.ItemRepository
	userRepo    repository.UserRepository
	defaults    Defaults
	now         Clock
}

// NewInvoiceUseCase construye el caso de uso.
func NewInvoiceUseCase(
	txRunner InvoiceTxRunner,
	invoiceRepo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
	itemRepo repository.ItemRepository,
	userRepo repository.UserRepository,
	defaults Defaults,
) *InvoiceUseCase {
	if defaults.NumberRetries < 1 {
		defaults.NumberRetries = 1
	}
	return &InvoiceUseCase{
		txRunner:    txRunner,
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		itemRepo:    itemRepo,
		userRepo:    userRepo,
		defaults:    defaults,
		now:         time.Now,
	}
}

// WithClock reemplaza la fuente de hora (tests).
func (uc *InvoiceUseCase) WithClock(now Clock) *InvoiceUseCase {
	uc.now = now
	return uc
}

// CreateInvoice valida la petición, calcula totales y persiste cabecera y líneas en una
// transacción con número consecutivo por usuario y año. Si otro proceso toma el mismo
// número (ErrConflict) se reintenta la transacción completa hasta NumberRetries veces.
func (uc *InvoiceUseCase) CreateInvoice(ctx context.Context, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.ClientID) == "" {
		return nil, domain.NewValidationError("client_id", "es requerido")
	}
	issueDate, err := parseDate("issue_date", in.IssueDate)
	if err != nil {
		return nil, err
	}
	dueDate, err := parseDate("due_date", in.DueDate)
	if err != nil {
		return nil, err
	}
	if dueDate.Before(issueDate) {
		return nil, domain.NewValidationError("due_date", "no puede ser anterior a issue_date")
	}
	if len(in.Lines) == 0 {
		return nil, domain.NewValidationError("lines", "la factura debe tener al menos una línea")
	}

	client, err := uc.clientRepo.GetByID(ctx, userID, in.ClientID)
	if err != nil {
		return nil, fmt.Errorf("buscar cliente: %w", err)
	}
	if client == nil {
		return nil, domain.ErrNotFound
	}

	currency, err := uc.resolveCurrency(ctx, userID, in.Currency)
	if err != nil {
		return nil, err
	}

	lines, calc, err := uc.buildLines(ctx, userID, in.Lines)
	if err != nil {
		return nil, err
	}
	totals, err := invoicing.ComputeInvoiceTotals(calc)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	inv := &entity.Invoice{
		UserID:              userID,
		ClientID:            client.ID,
		IssueDate:           issueDate,
		DueDate:             dueDate,
		Currency:            currency,
		Status:              entity.StatusDraft,
		Subtotal:            totals.Subtotal,
		TaxTotal:            totals.TaxTotal,
		Total:               totals.Total,
		Notes:               strings.TrimSpace(in.Notes),
		PaymentInstructions: strings.TrimSpace(in.PaymentInstructions),
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	for attempt := 1; ; attempt++ {
		err = uc.persist(ctx, inv, lines)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		if attempt >= uc.defaults.NumberRetries {
			return nil, fmt.Errorf("asignar número de factura tras %d intentos: %w", attempt, err)
		}
		log.Warn().
			Str("user_id", userID).
			Str("invoice_number", inv.InvoiceNumber).
			Int("attempt", attempt).
			Msg("colisión de número de factura, reintentando")
	}

	out := ToInvoiceResponse(inv, lines, client, now)
	return &out, nil
}

// persist ejecuta una transacción: bloqueo de numeración, conteo, inserción de cabecera y líneas.
// IDs y número se regeneran en cada intento.
func (uc *InvoiceUseCase) persist(ctx context.Context, inv *entity.Invoice, lines []*entity.InvoiceLine) error {
	return uc.txRunner.RunInvoice(ctx, func(invoiceRepo repository.InvoiceRepository) error {
		year := inv.IssueDate.Year()
		if err := invoiceRepo.LockNumbering(ctx, inv.UserID, year); err != nil {
			return err
		}
		count, err := invoiceRepo.CountByYear(ctx, inv.UserID, year)
		if err != nil {
			return err
		}
		number, err := invoicing.NextInvoiceNumber(year, count)
		if err != nil {
			return err
		}
		inv.ID = uuid.New().String()
		inv.InvoiceNumber = number
		if err := invoiceRepo.Create(ctx, inv); err != nil {
			return err
		}
		for _, l := range lines {
			l.ID = uuid.New().String()
			l.InvoiceID = inv.ID
			if err := invoiceRepo.CreateLine(ctx, l); err != nil {
				return err
			}
		}
		return nil
	})
}

// resolveCurrency moneda de la petición, si no la del usuario, si no la de configuración.
func (uc *InvoiceUseCase) resolveCurrency(ctx context.Context, userID, requested string) (string, error) {
	code := strings.TrimSpace(requested)
	if code == "" {
		user, err := uc.userRepo.GetByID(ctx, userID)
		if err != nil {
			return "", fmt.Errorf("buscar usuario: %w", err)
		}
		if user != nil {
			code = user.DefaultCurrency
		}
	}
	if code == "" {
		code = uc.defaults.Currency
	}
	currency, err := money.ParseCurrency(code)
	if err != nil {
		return "", domain.NewValidationError("currency", "código ISO 4217 inválido: %s", code)
	}
	return currency, nil
}

// buildLines resuelve los conceptos referenciados y calcula el total de cada línea.
// Los totales que envíe el cliente no se leen.
func (uc *InvoiceUseCase) buildLines(ctx context.Context, userID string, in []dto.InvoiceLineRequest) ([]*entity.InvoiceLine, []invoicing.Line, error) {
	lines := make([]*entity.InvoiceLine, 0, len(in))
	calc := make([]invoicing.Line, 0, len(in))
	for i, req := range in {
		line := &entity.InvoiceLine{
			ItemID:      strings.TrimSpace(req.ItemID),
			Position:    i + 1,
			Description: strings.TrimSpace(req.Description),
			Quantity:    req.Quantity,
			TaxRate:     uc.defaults.TaxRate,
		}
		if req.UnitPrice != nil {
			line.UnitPrice = *req.UnitPrice
		}
		if req.TaxRate != nil {
			line.TaxRate = *req.TaxRate
		}

		if line.ItemID != "" {
			item, err := uc.itemRepo.GetByID(ctx, userID, line.ItemID)
			if err != nil {
				return nil, nil, fmt.Errorf("buscar concepto: %w", err)
			}
			if item == nil {
				return nil, nil, fmt.Errorf("línea %d: concepto %s: %w", i+1, line.ItemID, domain.ErrNotFound)
			}
			if line.Description == "" {
				line.Description = item.Name
			}
			if req.UnitPrice == nil {
				line.UnitPrice = item.UnitPrice
			}
			if req.TaxRate == nil {
				line.TaxRate = item.TaxRate
			}
		} else if req.UnitPrice == nil {
			return nil, nil, domain.NewValidationError("lines", "línea %d: unit_price es requerido", i+1)
		}
		if line.Description == "" {
			return nil, nil, domain.NewValidationError("lines", "línea %d: description es requerida", i+1)
		}

		total, err := invoicing.ComputeLineTotal(line.Quantity, line.UnitPrice, line.TaxRate)
		if err != nil {
			return nil, nil, domain.NewValidationError("lines", "línea %d: %s", i+1, err.Error())
		}
		line.LineTotal = total
		lines = append(lines, line)
		calc = append(calc, invoicing.Line{Quantity: line.Quantity, UnitPrice: line.UnitPrice, TaxRate: line.TaxRate})
	}
	return lines, calc, nil
}

func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, domain.NewValidationError(field, "es requerido")
	}
	t, err := time.Parse(dto.DateLayout, s)
	if err != nil {
		return time.Time{}, domain.NewValidationError(field, "formato esperado YYYY-MM-DD")
	}
	return t, nil
}
