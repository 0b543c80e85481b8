package domain

import "time"

// Admin é uma conta administrativa.
type Admin struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// AdminInput é o payload de criação.
type AdminInput struct {
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Password string   `json:"password"`
	Role     UserRole `json:"role"`
}

// AdminUpdate altera nome e situação.
type AdminUpdate struct {
	Name   string `json:"name"`
	Active *bool  `json:"active,omitempty"`
}

// PasswordChange é o payload de troca de senha.
type PasswordChange struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// MinPasswordLength é o tamanho mínimo de senha para clientes e admins.
const MinPasswordLength = 8
