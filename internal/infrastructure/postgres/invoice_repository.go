package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturador-api/internal/domain"
	"github.com/jhoicas/facturador-api/internal/domain/entity"
	"github.com/jhoicas/facturador-api/internal/domain/invoicing"
	"github.com/jhoicas/facturador-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

const invoiceColumns = `id, user_id, client_id, invoice_number, issue_date, due_date, currency, status,
	subtotal, tax_total, total, notes, payment_instructions, created_at, updated_at`

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// LockNumbering toma un advisory lock de transacción sobre (usuario, año).
// Solo tiene efecto si el Querier es una transacción.
func (r *InvoiceRepo) LockNumbering(ctx context.Context, userID string, year int) error {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1), $2)`, userID, int32(year)); err != nil {
		return fmt.Errorf("lock invoice numbering: %w", err)
	}
	return nil
}

// CountByYear cuenta las facturas del usuario con número "YYYY-%".
func (r *InvoiceRepo) CountByYear(ctx context.Context, userID string, year int) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM invoices WHERE user_id = $1 AND invoice_number LIKE $2`
	if err := r.q.QueryRow(ctx, query, userID, invoicing.YearPrefix(year)+"%").Scan(&n); err != nil {
		return 0, fmt.Errorf("count invoices: %w", err)
	}
	return n, nil
}

// Create persiste la cabecera. Número repetido para el usuario = domain.ErrConflict.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		inv.ID, inv.UserID, inv.ClientID, inv.InvoiceNumber, inv.IssueDate, inv.DueDate, inv.Currency,
		string(inv.Status), inv.Subtotal, inv.TaxTotal, inv.Total, inv.Notes, inv.PaymentInstructions,
		inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "invoices_user_number_key") {
			return fmt.Errorf("invoice number %s: %w", inv.InvoiceNumber, domain.ErrConflict)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// CreateLine persiste una línea.
func (r *InvoiceRepo) CreateLine(ctx context.Context, l *entity.InvoiceLine) error {
	query := `
		INSERT INTO invoice_lines (id, invoice_id, item_id, position, description, quantity, unit_price, tax_rate, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.InvoiceID, nullIfEmpty(l.ItemID), l.Position, l.Description,
		l.Quantity, l.UnitPrice, l.TaxRate, l.LineTotal,
	)
	if err != nil {
		return fmt.Errorf("insert invoice line: %w", err)
	}
	return nil
}

// GetByID obtiene la cabecera de una factura del usuario.
func (r *InvoiceRepo) GetByID(ctx context.Context, userID, id string) (*entity.Invoice, error) {
	id, ok := parseID(id)
	if !ok {
		return nil, nil
	}
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 AND user_id = $2`
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// GetLines devuelve las líneas en el orden de la petición original.
func (r *InvoiceRepo) GetLines(ctx context.Context, invoiceID string) ([]*entity.InvoiceLine, error) {
	query := `
		SELECT id, invoice_id, item_id, position, description, quantity, unit_price, tax_rate, line_total
		FROM invoice_lines WHERE invoice_id = $1 ORDER BY position`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("get invoice lines: %w", err)
	}
	defer rows.Close()
	var list []*entity.InvoiceLine
	for rows.Next() {
		var l entity.InvoiceLine
		var itemID *string
		if err := rows.Scan(&l.ID, &l.InvoiceID, &itemID, &l.Position, &l.Description,
			&l.Quantity, &l.UnitPrice, &l.TaxRate, &l.LineTotal); err != nil {
			return nil, fmt.Errorf("scan invoice line: %w", err)
		}
		l.ItemID = derefString(itemID)
		list = append(list, &l)
	}
	return list, rows.Err()
}

// ListByUser lista facturas del usuario, más recientes primero.
func (r *InvoiceRepo) ListByUser(ctx context.Context, userID string, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Year != 0 {
		where = append(where, "EXTRACT(YEAR FROM issue_date) = "+arg(f.Year))
	}
	if f.Status != "" {
		where = append(where, statusCondition(f.Status, f.Today, arg))
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC, invoice_number DESC`
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + arg(f.Offset)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// statusCondition filtro por estado; con today se usa el estado efectivo.
func statusCondition(status entity.InvoiceStatus, today time.Time, arg func(any) string) string {
	if today.IsZero() {
		return "status = " + arg(string(status))
	}
	switch status {
	case entity.StatusOverdue:
		return "(status = 'OVERDUE' OR (status = 'SENT' AND due_date < " + arg(dateOnly(today)) + "))"
	case entity.StatusSent:
		return "(status = 'SENT' AND due_date >= " + arg(dateOnly(today)) + ")"
	default:
		return "status = " + arg(string(status))
	}
}

// UpdateStatus cambia solo el estado; totales y líneas no se tocan.
func (r *InvoiceRepo) UpdateStatus(ctx context.Context, userID, id string, status entity.InvoiceStatus) error {
	id, ok := parseID(id)
	if !ok {
		return domain.ErrNotFound
	}
	tag, err := r.q.Exec(ctx,
		`UPDATE invoices SET status = $3, updated_at = now() WHERE id = $1 AND user_id = $2`,
		id, userID, string(status),
	)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkOverdue SENT con due_date < today -> OVERDUE. userID vacío = todos los usuarios.
func (r *InvoiceRepo) MarkOverdue(ctx context.Context, userID string, today time.Time) (int, error) {
	query := `UPDATE invoices SET status = 'OVERDUE', updated_at = now() WHERE status = 'SENT' AND due_date < $1`
	args := []any{dateOnly(today)}
	if userID != "" {
		query += ` AND user_id = $2`
		args = append(args, userID)
	}
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("mark overdue: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	var status string
	err := row.Scan(
		&inv.ID, &inv.UserID, &inv.ClientID, &inv.InvoiceNumber, &inv.IssueDate, &inv.DueDate, &inv.Currency,
		&status, &inv.Subtotal, &inv.TaxTotal, &inv.Total, &inv.Notes, &inv.PaymentInstructions,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.Status = entity.InvoiceStatus(status)
	return &inv, nil
}
