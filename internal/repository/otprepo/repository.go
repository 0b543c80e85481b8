package otprepo

import (
	"context"
	"database/sql"
	"time"

	"pharmacart/internal/domain"
	"pharmacart/internal/errors"
	"pharmacart/internal/pkg/database"
	"pharmacart/internal/pkg/logger"
)

// OTPRepository persiste os códigos de redefinição de senha dos administradores.
type OTPRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewOTPRepository cria o repositório.
func NewOTPRepository(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *OTPRepository {
	return &OTPRepository{DB: db, DBTimeout: dbTimeout, logger: log}
}

// Save grava um código novo.
func (r *OTPRepository) Save(ctx context.Context, c domain.OTPCode) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	_, err := database.Conn(ctx, r.DB).ExecContext(ctxTimeout, `
		INSERT INTO otp_codes (id, admin_id, code_hash, attempts, expires_at, consumed_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		c.ID, c.AdminID, c.CodeHash, c.Attempts, c.ExpiresAt, c.ConsumedAt, c.CreatedAt)
	if err != nil {
		r.logger.Error("Falha ao gravar código OTP.", err)
		return errors.NewDBError("Falha ao gravar código OTP", err)
	}
	return nil
}

// Latest devolve o código mais recente do administrador.
func (r *OTPRepository) Latest(ctx context.Context, adminID string) (domain.OTPCode, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var (
		c          domain.OTPCode
		consumedAt sql.NullTime
	)
	err := database.Conn(ctx, r.DB).QueryRowContext(ctxTimeout, `
		SELECT id, admin_id, code_hash, attempts, expires_at, consumed_at, created_at
		FROM otp_codes WHERE admin_id = $1 ORDER BY created_at DESC LIMIT 1`, adminID).
		Scan(&c.ID, &c.AdminID, &c.CodeHash, &c.Attempts, &c.ExpiresAt, &consumedAt, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.OTPCode{}, errors.NewNotFoundError("Nenhum código solicitado.")
	}
	if err != nil {
		r.logger.Error("Falha ao buscar código OTP.", err)
		return domain.OTPCode{}, errors.NewDBError("Falha ao buscar código OTP", err)
	}
	if consumedAt.Valid {
		t := consumedAt.Time
		c.ConsumedAt = &t
	}
	return c, nil
}

// IncrementAttempts conta uma tentativa errada.
func (r *OTPRepository) IncrementAttempts(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE otp_codes SET attempts = attempts + 1 WHERE id = $1`, id)
}

// Consume marca o código como usado. Um código já consumido vira ConflictError.
func (r *OTPRepository) Consume(ctx context.Context, id string, at time.Time) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := database.Conn(ctx, r.DB).ExecContext(ctxTimeout,
		`UPDATE otp_codes SET consumed_at = $2 WHERE id = $1 AND consumed_at IS NULL`, id, at)
	if err != nil {
		r.logger.Error("Falha ao consumir código OTP.", err)
		return errors.NewDBError("Falha ao consumir código OTP", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewConflictError("O código já foi utilizado.")
	}
	return nil
}

// DeleteForAdmin remove todos os códigos do administrador.
func (r *OTPRepository) DeleteForAdmin(ctx context.Context, adminID string) error {
	return r.exec(ctx, `DELETE FROM otp_codes WHERE admin_id = $1`, adminID)
}

func (r *OTPRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if _, err := database.Conn(ctx, r.DB).ExecContext(ctxTimeout, query, args...); err != nil {
		r.logger.Error("Falha ao atualizar códigos OTP.", err)
		return errors.NewDBError("Falha ao atualizar códigos OTP", err)
	}
	return nil
}
