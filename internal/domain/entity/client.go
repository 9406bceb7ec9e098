package entity

import "time"

// Client representa un cliente facturable de un usuario.
type Client struct {
	ID                  string
	UserID              string
	Name                string
	ContactName         string
	Email               string
	Address             string
	VATNumber           string
	DefaultPaymentTerms int // días; se usa para precargar la fecha de vencimiento
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
