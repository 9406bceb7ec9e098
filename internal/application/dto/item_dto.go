package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemRequest body para POST/PUT /api/items.
// UnitLabel vacío = hour; TaxRate nil = 0.
type ItemRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	UnitLabel   string           `json:"unit_label,omitempty"`
	TaxRate     *decimal.Decimal `json:"tax_rate,omitempty"`
}

// ItemResponse concepto facturable en respuestas.
type ItemResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	UnitLabel   string          `json:"unit_label"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ItemListResponse listado paginado.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}
