package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Unidades de medida válidas para Item.
const (
	UnitHour    = "hour"
	UnitDay     = "day"
	UnitPiece   = "piece"
	UnitProject = "project"
	UnitUnit    = "unit"
)

// ValidUnitLabel indica si la unidad pertenece al catálogo.
func ValidUnitLabel(label string) bool {
	switch label {
	case UnitHour, UnitDay, UnitPiece, UnitProject, UnitUnit:
		return true
	}
	return false
}

// Item representa un servicio o producto del catálogo. Las líneas de factura copian sus valores.
type Item struct {
	ID          string
	UserID      string
	Name        string
	Description string
	UnitPrice   decimal.Decimal
	UnitLabel   string
	TaxRate     decimal.Decimal // porcentaje 0..100
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
