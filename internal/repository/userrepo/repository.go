package userrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pharmacart/internal/domain"
	apperror "pharmacart/internal/errors"
	"pharmacart/internal/pkg/database"
	"pharmacart/internal/pkg/logger"
)

// UserRepository persiste os clientes da loja.
type UserRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewUserRepository cria uma nova instância do UserRepository, injetando o DB.
func NewUserRepository(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *UserRepository {
	return &UserRepository{DB: db, DBTimeout: dbTimeout, logger: log}
}

// Save insere um novo cliente. E-mail duplicado vira ConflictError.
func (r *UserRepository) Save(ctx context.Context, user domain.User) error {
	r.logger.Debug("Iniciando Save de usuário no repositório.", map[string]interface{}{"email": user.Email})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	_, err := database.Conn(ctx, r.DB).ExecContext(ctxTimeout,
		`INSERT INTO users (id, email, name, phone, password_hash, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, strings.ToLower(user.Email), user.Name, user.Phone, user.PasswordHash, string(user.Role), user.CreatedAt, user.UpdatedAt,
	)
	if database.IsUniqueViolation(err) {
		return apperror.NewConflictError(fmt.Sprintf("O email '%s' já está em uso.", user.Email))
	}
	if err != nil {
		r.logger.Error("Falha ao inserir usuário no DB.", err)
		return apperror.NewDBError("Falha ao inserir usuário", err)
	}

	r.logger.Info("Usuário salvo com sucesso no repositório.", map[string]interface{}{"user_id": user.ID})
	return nil
}

// FindByEmail busca um cliente pelo endereço de e-mail (sem diferenciar maiúsculas).
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.findOne(ctx, `lower(email) = lower($1)`, email)
}

// FindByID busca um cliente pelo ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	return r.findOne(ctx, `id = $1`, id)
}

func (r *UserRepository) findOne(ctx context.Context, cond string, arg string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	row := database.Conn(ctx, r.DB).QueryRowContext(ctxTimeout,
		`SELECT id, email, name, phone, password_hash, role, created_at, updated_at FROM users WHERE `+cond, arg)

	var (
		user domain.User
		role string
	)
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Phone, &user.PasswordHash, &role, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, apperror.NewNotFoundError("Usuário não encontrado.")
	}
	if err != nil {
		r.logger.Error("Falha ao buscar usuário no DB.", err)
		return domain.User{}, apperror.NewDBError("Falha ao buscar usuário", err)
	}
	user.Role = domain.UserRole(role)
	return user, nil
}
