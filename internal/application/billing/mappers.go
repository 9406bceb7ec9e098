package billing

import (
	"time"

	"github.com/jhoicas/facturador-api/internal/application/dto"
	"github.com/jhoicas/facturador-api/internal/domain/entity"
	"github.com/jhoicas/facturador-api/internal/domain/invoicing"
)

func toClientResponse(c *entity.Client) *dto.ClientResponse {
	if c == nil {
		return nil
	}
	return &dto.ClientResponse{
		ID:                  c.ID,
		Name:                c.Name,
		ContactName:         c.ContactName,
		Email:               c.Email,
		Address:             c.Address,
		VATNumber:           c.VATNumber,
		DefaultPaymentTerms: c.DefaultPaymentTerms,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

// ToInvoiceResponse arma la respuesta de una factura; lines y client pueden ser nil.
func ToInvoiceResponse(inv *entity.Invoice, lines []*entity.InvoiceLine, client *entity.Client, today time.Time) dto.InvoiceResponse {
	out := dto.InvoiceResponse{
		ID:                  inv.ID,
		InvoiceNumber:       inv.InvoiceNumber,
		ClientID:            inv.ClientID,
		Client:              toClientResponse(client),
		IssueDate:           inv.IssueDate.Format(dto.DateLayout),
		DueDate:             inv.DueDate.Format(dto.DateLayout),
		Currency:            inv.Currency,
		Status:              string(inv.Status),
		DisplayStatus:       string(invoicing.EffectiveStatus(inv.Status, inv.DueDate, today)),
		Subtotal:            inv.Subtotal,
		TaxTotal:            inv.TaxTotal,
		Total:               inv.Total,
		Notes:               inv.Notes,
		PaymentInstructions: inv.PaymentInstructions,
		CreatedAt:           inv.CreatedAt,
		UpdatedAt:           inv.UpdatedAt,
	}
	if len(lines) > 0 {
		out.Lines = make([]dto.InvoiceLineResponse, 0, len(lines))
		for _, l := range lines {
			out.Lines = append(out.Lines, dto.InvoiceLineResponse{
				ID:          l.ID,
				ItemID:      l.ItemID,
				Position:    l.Position,
				Description: l.Description,
				Quantity:    l.Quantity,
				UnitPrice:   l.UnitPrice,
				TaxRate:     l.TaxRate,
				LineTotal:   l.LineTotal,
			})
		}
	}
	return out
}
