package dto

import "time"

// RegisterRequest entrada para registro: email, password y nombre opcional.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"` // mínimo 8 caracteres
	Name     string `json:"name,omitempty"`
}

// LoginRequest entrada para login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	DefaultCurrency string    `json:"default_currency"`
	CreatedAt       time.Time `json:"created_at"`
}

// LoginResponse salida con token JWT.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// SettingsRequest body de PUT /api/settings. DefaultCurrency vacío = EUR.
type SettingsRequest struct {
	Name            string `json:"name,omitempty"`
	CompanyName     string `json:"company_name"`
	CompanyAddress  string `json:"company_address"`
	VATNumber       string `json:"vat_number"`
	BankDetails     string `json:"bank_details"`
	DefaultCurrency string `json:"default_currency"`
}

// SettingsResponse perfil de empresa del usuario autenticado.
type SettingsResponse struct {
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	CompanyName     string    `json:"company_name"`
	CompanyAddress  string    `json:"company_address"`
	VATNumber       string    `json:"vat_number"`
	BankDetails     string    `json:"bank_details"`
	DefaultCurrency string    `json:"default_currency"`
	UpdatedAt       time.Time `json:"updated_at"`
}
