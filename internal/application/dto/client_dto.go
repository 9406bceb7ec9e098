package dto

import "time"

// ClientRequest body para POST/PUT /api/clients. DefaultPaymentTerms nil = 14 días.
type ClientRequest struct {
	Name                string `json:"name"`
	ContactName         string `json:"contact_name,omitempty"`
	Email               string `json:"email,omitempty"`
	Address             string `json:"address,omitempty"`
	VATNumber           string `json:"vat_number,omitempty"`
	DefaultPaymentTerms *int   `json:"default_payment_terms,omitempty"`
}

// ClientResponse cliente en respuestas.
type ClientResponse struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	ContactName         string    `json:"contact_name,omitempty"`
	Email               string    `json:"email,omitempty"`
	Address             string    `json:"address,omitempty"`
	VATNumber           string    `json:"vat_number,omitempty"`
	DefaultPaymentTerms int       `json:"default_payment_terms"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ClientListResponse listado paginado.
type ClientListResponse struct {
	Items []ClientResponse `json:"items"`
	Page  PageResponse     `json:"page"`
}
