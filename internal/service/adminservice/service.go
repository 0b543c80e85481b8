package adminservice

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

// AdminRepository é o contrato de persistência de administradores.
type AdminRepository interface {
	Save(ctx context.Context, a domain.Admin) error
	FindByID(ctx context.Context, id string) (domain.Admin, error)
	FindByEmail(ctx context.Context, email string) (domain.Admin, error)
	List(ctx context.Context) ([]domain.Admin, error)
	Update(ctx context.Context, a domain.Admin) error
	UpdatePassword(ctx context.Context, id, hash string, at time.Time) error
	Delete(ctx context.Context, id string) error
	CountSuperAdmins(ctx context.Context) (int, error)
}

// TokenService gera o JWT de sessão.
type TokenService interface {
	GenerateToken(subjectID string, role string) (string, error)
}

// Service implementa as contas administrativas.
type Service struct {
	repo     AdminRepository
	tokenSvc TokenService
	logger   logger.Logger
	now      func() time.Time
}

// NewService cria o serviço de administradores.
func NewService(repo AdminRepository, tokenSvc TokenService, log logger.Logger) *Service {
	return &Service{repo: repo, tokenSvc: tokenSvc, logger: log, now: func() time.Time { return time.Now().UTC() }}
}

// Create cadastra um administrador (apenas super admins chegam aqui pela rota).
func (s *Service) Create(ctx context.Context, in domain.AdminInput) (domain.Admin, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.Admin{}, apperror.NewValidationError("E-mail inválido.")
	}
	if strings.TrimSpace(in.Name) == "" {
		return domain.Admin{}, apperror.NewValidationError("O nome é obrigatório.")
	}
	if len(in.Password) < domain.MinPasswordLength {
		return domain.Admin{}, apperror.NewValidationError("A senha deve ter ao menos 8 caracteres.")
	}
	role := in.Role
	if role == "" {
		role = domain.RoleAdmin
	}
	if !role.IsAdmin() {
		return domain.Admin{}, apperror.NewValidationError("Papel administrativo inválido.")
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return domain.Admin{}, err
	}

	now := s.now()
	a := domain.Admin{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return domain.Admin{}, err
	}
	s.logger.Info("Admin criado.", map[string]interface{}{"admin_id": a.ID, "role": string(a.Role)})
	return a, nil
}

// Login autentica um administrador ativo.
func (s *Service) Login(ctx context.Context, creds domain.Credentials) (domain.AuthToken, error) {
	if creds.Email == "" || creds.Password == "" {
		return domain.AuthToken{}, apperror.NewUnauthorizedError("Email e senha são obrigatórios.")
	}
	a, err := s.repo.FindByEmail(ctx, strings.TrimSpace(creds.Email))
	var notFound *apperror.NotFoundError
	if errors.As(err, &notFound) {
		return domain.AuthToken{}, apperror.NewUnauthorizedError("Credenciais inválidas.")
	}
	if err != nil {
		return domain.AuthToken{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(creds.Password)) != nil {
		return domain.AuthToken{}, apperror.NewUnauthorizedError("Credenciais inválidas.")
	}
	if !a.Active {
		return domain.AuthToken{}, apperror.NewForbiddenError("Conta administrativa desativada.")
	}

	tok, err := s.tokenSvc.GenerateToken(a.ID, string(a.Role))
	if err != nil {
		return domain.AuthToken{}, apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}
	return domain.AuthToken{Token: tok, Role: a.Role}, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Admin, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (domain.Admin, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Admin{}, apperror.NewValidationError("O ID do admin deve ser um UUID válido.")
	}
	return s.repo.FindByID(ctx, id)
}

// Update altera nome e situação. Ninguém desativa a própria conta.
func (s *Service) Update(ctx context.Context, actor domain.Actor, id string, in domain.AdminUpdate) (domain.Admin, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return domain.Admin{}, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		a.Name = name
	}
	if in.Active != nil {
		if !*in.Active && actor.ID == a.ID {
			return domain.Admin{}, apperror.NewValidationError("Não é possível desativar a própria conta.")
		}
		a.Active = *in.Active
	}
	a.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, a); err != nil {
		return domain.Admin{}, err
	}
	return a, nil
}

// Delete remove outro administrador.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if actor.ID == id {
		return apperror.NewValidationError("Não é possível excluir a própria conta.")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// ChangePassword troca a senha do próprio administrador.
func (s *Service) ChangePassword(ctx context.Context, actor domain.Actor, in domain.PasswordChange) error {
	if len(in.NewPassword) < domain.MinPasswordLength {
		return apperror.NewValidationError("A senha deve ter ao menos 8 caracteres.")
	}
	a, err := s.repo.FindByID(ctx, actor.ID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(in.OldPassword)) != nil {
		return apperror.NewUnauthorizedError("Senha atual incorreta.")
	}
	hash, err := hashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, a.ID, hash, s.now())
}

// Bootstrap cria o super admin inicial quando não existe nenhum.
func (s *Service) Bootstrap(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	n, err := s.repo.CountSuperAdmins(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err = s.Create(ctx, domain.AdminInput{Email: email, Name: "Super Admin", Password: password, Role: domain.RoleSuperAdmin})
	var conflict *apperror.ConflictError
	if errors.As(err, &conflict) {
		s.logger.Warn("E-mail do super admin inicial já usado por outro admin.", map[string]interface{}{"email": email})
		return nil
	}
	return err
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}
	return string(hash), nil
}
