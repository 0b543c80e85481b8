package domain

import "time"

// User representa o cliente da loja.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"` // Oculta o hash da senha no JSON de resposta
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserRole é o papel carregado no JWT.
type UserRole string

const (
	RoleUser       UserRole = "user"
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "super_admin"
)

// IsAdmin informa se o papel é administrativo.
func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// UserRegistration representa o payload de entrada para o registro.
type UserRegistration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

// Credentials é o payload de login (clientes e admins).
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthToken é a resposta de login.
type AuthToken struct {
	Token string   `json:"token"`
	Role  UserRole `json:"role"`
}

// Actor é quem executa a operação (extraído do JWT).
type Actor struct {
	ID   string
	Role UserRole
}

// IsAdmin informa se o ator tem papel administrativo.
func (a Actor) IsAdmin() bool { return a.Role.IsAdmin() }

// CanAccess informa se o ator pode ler/alterar um recurso de ownerID.
func (a Actor) CanAccess(ownerID string) bool {
	return a.IsAdmin() || a.ID == ownerID
}
