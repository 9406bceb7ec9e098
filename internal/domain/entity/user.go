package entity

import "time"

// User representa la cuenta de un emisor de facturas y su perfil de empresa.
type User struct {
	ID              string
	Email           string
	PasswordHash    string // bcrypt hash, nunca plano en dominio después de persistir
	Name            string
	CompanyName     string
	CompanyAddress  string
	VATNumber       string
	BankDetails     string // IBAN o datos bancarios libres
	DefaultCurrency string // ISO 4217
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DisplayName nombre a mostrar como emisor: empresa si existe, si no el nombre del usuario.
func (u *User) DisplayName() string {
	if u.CompanyName != "" {
		return u.CompanyName
	}
	return u.Name
}
