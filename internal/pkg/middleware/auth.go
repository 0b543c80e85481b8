package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"pharmacart/internal/domain"
	apperror "pharmacart/internal/errors"
	"pharmacart/internal/pkg/token"
)

// ContextKey é o tipo das chaves que este pacote grava no contexto.
type ContextKey int

const (
	UserClaimsKey ContextKey = iota
)

// UserClaims representa os dados do sujeito extraídos do token JWT.
type UserClaims struct {
	UserID string
	Role   domain.UserRole
}

// IsAdmin informa se o sujeito tem papel administrativo.
func (c UserClaims) IsAdmin() bool {
	return c.Role.IsAdmin()
}

// TokenService define o contrato de validação necessário para o middleware.
type TokenService interface {
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// WriteError responde com o corpo de erro padronizado da API.
func WriteError(w http.ResponseWriter, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.ErrorResponse{Code: status, Category: category, Message: message})
}

// NewAuthMiddleware valida o JWT do header Authorization e anexa as claims ao contexto.
func NewAuthMiddleware(tokenSvc TokenService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || strings.TrimSpace(tokenString) == "" {
				WriteError(w, apperror.NewUnauthorizedError("Token de autorização ausente ou malformado."))
				return
			}

			claims, err := tokenSvc.ValidateToken(tokenString)
			if err != nil {
				WriteError(w, apperror.NewUnauthorizedError("Token inválido ou expirado."))
				return
			}

			ctx := WithClaims(r.Context(), UserClaims{
				UserID: claims.UserID,
				Role:   domain.UserRole(claims.Role),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewOptionalAuthMiddleware anexa as claims quando há um token válido e segue adiante
// sem elas caso contrário. Usado nas rotas públicas do catálogo, onde admins enxergam mais.
func NewOptionalAuthMiddleware(tokenSvc TokenService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if found {
				if claims, err := tokenSvc.ValidateToken(tokenString); err == nil {
					r = r.WithContext(WithClaims(r.Context(), UserClaims{UserID: claims.UserID, Role: domain.UserRole(claims.Role)}))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithClaims anexa claims a um contexto (usado também pelos testes de handler).
func WithClaims(ctx context.Context, claims UserClaims) context.Context {
	return context.WithValue(ctx, UserClaimsKey, claims)
}

// GetUserClaimsFromContext é uma função utilitária para extrair as claims no handler.
func GetUserClaimsFromContext(ctx context.Context) (UserClaims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(UserClaims)
	return claims, ok
}

// PermissionMiddleware libera o acesso apenas para os papéis informados.
func PermissionMiddleware(requiredRoles ...domain.UserRole) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetUserClaimsFromContext(r.Context())
			if !ok {
				WriteError(w, apperror.NewUnauthorizedError("Autorização necessária. Token não processado."))
				return
			}

			for _, requiredRole := range requiredRoles {
				if claims.Role == requiredRole {
					next.ServeHTTP(w, r)
					return
				}
			}

			WriteError(w, apperror.NewForbiddenError("Você não tem a permissão necessária."))
		})
	}
}
