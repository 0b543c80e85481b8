package adminrepo

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

const adminColumns = `id, email, name, password_hash, role, active, created_at, updated_at`

// AdminRepository persiste as contas administrativas.
type AdminRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewAdminRepository cria o repositório de admins.
func NewAdminRepository(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *AdminRepository {
	return &AdminRepository{DB: db, DBTimeout: dbTimeout, logger: log}
}

// Save insere um admin novo.
func (r *AdminRepository) Save(ctx context.Context, a domain.Admin) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	_, err := database.Conn(ctx, r.DB).ExecContext(ctxTimeout,
		`INSERT INTO admins (`+adminColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, strings.ToLower(a.Email), a.Name, a.PasswordHash, string(a.Role), a.Active, a.CreatedAt, a.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return apperror.NewConflictError(fmt.Sprintf("O email '%s' já está em uso.", a.Email))
	}
	if err != nil {
		r.logger.Error("Falha ao inserir admin.", err)
		return apperror.NewDBError("Falha ao inserir admin", err)
	}
	return nil
}

// FindByID busca um admin pelo ID.
func (r *AdminRepository) FindByID(ctx context.Context, id string) (domain.Admin, error) {
	return r.findOne(ctx, `id = $1`, id)
}

// FindByEmail busca um admin pelo e-mail.
func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (domain.Admin, error) {
	return r.findOne(ctx, `lower(email) = lower($1)`, email)
}

func (r *AdminRepository) findOne(ctx context.Context, cond, arg string) (domain.Admin, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	a, err := scanAdmin(database.Conn(ctx, r.DB).QueryRowContext(ctxTimeout, `SELECT `+adminColumns+` FROM admins WHERE `+cond, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Admin{}, apperror.NewNotFoundError("Admin não encontrado.")
	}
	if err != nil {
		r.logger.Error("Falha ao buscar admin.", err)
		return domain.Admin{}, apperror.NewDBError("Falha ao buscar admin", err)
	}
	return a, nil
}

// List devolve todos os admins, mais recentes primeiro.
func (r *AdminRepository) List(ctx context.Context) ([]domain.Admin, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := database.Conn(ctx, r.DB).QueryContext(ctxTimeout, `SELECT `+adminColumns+` FROM admins ORDER BY created_at DESC`)
	if err != nil {
		r.logger.Error("Falha ao listar admins.", err)
		return nil, apperror.NewDBError("Falha ao listar admins", err)
	}
	defer rows.Close()

	admins := []domain.Admin{}
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao ler admin", err)
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}

// Update grava nome e situação.
func (r *AdminRepository) Update(ctx context.Context, a domain.Admin) error {
	return r.exec(ctx, `UPDATE admins SET name = $2, active = $3, updated_at = $4 WHERE id = $1`,
		a.ID, a.Name, a.Active, a.UpdatedAt)
}

// UpdatePassword grava um novo hash de senha.
func (r *AdminRepository) UpdatePassword(ctx context.Context, id, hash string, at time.Time) error {
	return r.exec(ctx, `UPDATE admins SET password_hash = $2, updated_at = $3 WHERE id = $1`, id, hash, at)
}

// Delete remove um admin.
func (r *AdminRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, `DELETE FROM admins WHERE id = $1`, id)
}

// CountSuperAdmins conta os super admins ativos.
func (r *AdminRepository) CountSuperAdmins(ctx context.Context) (int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var n int
	err := database.Conn(ctx, r.DB).QueryRowContext(ctxTimeout,
		`SELECT count(*) FROM admins WHERE role = 'super_admin' AND active`).Scan(&n)
	if err != nil {
		return 0, apperror.NewDBError("Falha ao contar super admins", err)
	}
	return n, nil
}

func (r *AdminRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := database.Conn(ctx, r.DB).ExecContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao gravar admin.", err)
		return apperror.NewDBError("Falha ao gravar admin", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError("Admin não encontrado.")
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAdmin(s scanner) (domain.Admin, error) {
	var (
		a    domain.Admin
		role string
	)
	err := s.Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &role, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	a.Role = domain.UserRole(role)
	return a, err
}
