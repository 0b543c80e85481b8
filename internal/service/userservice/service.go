package userservice

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"pharmacart/internal/domain"
	apperror "pharmacart/internal/errors"
	"pharmacart/internal/pkg/logger"
)

// UserRepository é o contrato de persistência de clientes.
type UserRepository interface {
	Save(ctx context.Context, user domain.User) error
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByID(ctx context.Context, id string) (domain.User, error)
}

// TokenService é o contrato da camada de token (internal/pkg/token).
type TokenService interface {
	GenerateToken(subjectID string, role string) (string, error)
}

// UserService define o serviço de lógica de negócio para os clientes da loja.
type UserService struct {
	UserRepo UserRepository
	TokenSvc TokenService
	logger   logger.Logger
}

// NewService cria uma nova instância do UserService, injetando o Repositório.
func NewService(repo UserRepository, tokenSvc TokenService, log logger.Logger) *UserService {
	return &UserService{UserRepo: repo, TokenSvc: tokenSvc, logger: log}
}

// Register registra um novo cliente. Faz o hashing da senha e valida o payload.
func (s *UserService) Register(ctx context.Context, registration domain.UserRegistration) (domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(registration.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.User{}, apperror.NewValidationError("E-mail inválido.")
	}
	if len(registration.Password) < domain.MinPasswordLength {
		return domain.User{}, apperror.NewValidationError("A senha deve ter ao menos 8 caracteres.")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registration.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(registration.Name),
		Phone:        registration.Phone,
		PasswordHash: string(hashedPassword),
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// E-mail duplicado chega aqui como ConflictError (409).
	if err := s.UserRepo.Save(ctx, user); err != nil {
		return domain.User{}, err
	}

	s.logger.Info("Cliente registrado.", map[string]interface{}{"user_id": user.ID})
	return user, nil
}

// Login autentica um cliente, verifica a senha e gera um JWT.
func (s *UserService) Login(ctx context.Context, creds domain.Credentials) (domain.AuthToken, error) {
	if creds.Email == "" || creds.Password == "" {
		return domain.AuthToken{}, apperror.NewUnauthorizedError("Email e senha são obrigatórios.")
	}

	user, err := s.UserRepo.FindByEmail(ctx, strings.TrimSpace(creds.Email))
	if err != nil {
		// NotFound vira 401 para não dar dicas a invasores.
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return domain.AuthToken{}, apperror.NewUnauthorizedError("Credenciais inválidas.")
		}
		return domain.AuthToken{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return domain.AuthToken{}, apperror.NewUnauthorizedError("Credenciais inválidas.")
	}

	tokenString, err := s.TokenSvc.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return domain.AuthToken{}, apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}
	return domain.AuthToken{Token: tokenString, Role: user.Role}, nil
}

// Me devolve o perfil do cliente autenticado.
func (s *UserService) Me(ctx context.Context, actor domain.Actor) (domain.User, error) {
	return s.UserRepo.FindByID(ctx, actor.ID)
}
