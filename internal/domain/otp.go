package domain

import "time"

// OTPCode é um código de redefinição de senha. Apenas o hash é persistido.
type OTPCode struct {
	ID         string
	AdminID    string
	CodeHash   string
	Attempts   int
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// Usable informa se o código ainda pode ser verificado.
func (c OTPCode) Usable(now time.Time, maxAttempts int) bool {
	return c.ConsumedAt == nil && now.Before(c.ExpiresAt) && c.Attempts < maxAttempts
}

// OTPRequest pede o envio de um código.
type OTPRequest struct {
	Email string `json:"email"`
}

// OTPVerify confere um código.
type OTPVerify struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// OTPReset redefine a senha com um código válido.
type OTPReset struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}
