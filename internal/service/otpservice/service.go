package otpservice

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"pharmacart/internal/domain"
	apperror "pharmacart/internal/errors"
	"pharmacart/internal/pkg/logger"
	"pharmacart/internal/pkg/mailer"
)

const codeLength = 6

// AdminRepository é o subconjunto do repositório de admins usado na redefinição.
type AdminRepository interface {
	FindByEmail(ctx context.Context, email string) (domain.Admin, error)
	UpdatePassword(ctx context.Context, id, hash string, at time.Time) error
}

// OTPRepository persiste os códigos (apenas o hash).
type OTPRepository interface {
	Save(ctx context.Context, c domain.OTPCode) error
	Latest(ctx context.Context, adminID string) (domain.OTPCode, error)
	IncrementAttempts(ctx context.Context, id string) error
	Consume(ctx context.Context, id string, at time.Time) error
	DeleteForAdmin(ctx context.Context, adminID string) error
}

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Config controla validade, intervalo entre pedidos e tentativas.
type Config struct {
	TTL         time.Duration
	Cooldown    time.Duration
	MaxAttempts int
}

// Service implementa o fluxo de redefinição de senha por código.
type Service struct {
	admins AdminRepository
	codes  OTPRepository
	tx     Transactor
	mailer mailer.Mailer
	logger logger.Logger
	cfg    Config
	now    func() time.Time
	gen    func(n int) (string, error)
}

// NewService cria o serviço de OTP.
func NewService(admins AdminRepository, codes OTPRepository, tx Transactor, m mailer.Mailer, log logger.Logger, cfg Config) *Service {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &Service{
		admins: admins,
		codes:  codes,
		tx:     tx,
		mailer: m,
		logger: log,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
		gen:    generateCode,
	}
}

// generateCode sorteia um código numérico de n dígitos com crypto/rand.
func generateCode(n int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", n, v), nil
}

// Request gera um novo código e envia por e-mail ao administrador.
func (s *Service) Request(ctx context.Context, email string) error {
	admin, err := s.admins.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return err
	}
	if !admin.Active {
		return apperror.NewForbiddenError("Conta administrativa desativada.")
	}

	now := s.now()
	latest, err := s.codes.Latest(ctx, admin.ID)
	switch {
	case err == nil:
		if now.Sub(latest.CreatedAt) < s.cfg.Cooldown {
			return apperror.NewTooManyRequestsError("Aguarde antes de solicitar um novo código.")
		}
	case !isNotFound(err):
		return err
	}

	code, err := s.gen(codeLength)
	if err != nil {
		return apperror.NewInternalError("Falha ao gerar código.", err)
	}

	otp := domain.OTPCode{
		ID:        uuid.New().String(),
		AdminID:   admin.ID,
		CodeHash:  hashCode(code),
		ExpiresAt: now.Add(s.cfg.TTL),
		CreatedAt: now,
	}
	if err := s.codes.Save(ctx, otp); err != nil {
		return err
	}

	err = s.mailer.Send(mailer.Message{
		To:       admin.Email,
		Subject:  "Código de redefinição de senha",
		Template: mailer.TemplateOTP,
		Data: map[string]any{
			"Name":       admin.Name,
			"Code":       code,
			"TTLMinutes": int(s.cfg.TTL / time.Minute),
		},
	})
	if err != nil {
		return apperror.NewInternalError("Falha ao enviar o código por e-mail.", err)
	}

	s.logger.Info("Código de redefinição emitido.", map[string]interface{}{"admin_id": admin.ID})
	return nil
}

// Verify confere o código sem consumi-lo.
func (s *Service) Verify(ctx context.Context, email, code string) error {
	_, _, err := s.check(ctx, email, code)
	return err
}

// Reset confere o código, consome e grava a nova senha numa única transação.
func (s *Service) Reset(ctx context.Context, in domain.OTPReset) error {
	if len(in.NewPassword) < domain.MinPasswordLength {
		return apperror.NewValidationError("A senha deve ter ao menos 8 caracteres.")
	}
	admin, otp, err := s.check(ctx, in.Email, in.Code)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	now := s.now()
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.codes.Consume(ctx, otp.ID, now); err != nil {
			return err
		}
		if err := s.admins.UpdatePassword(ctx, admin.ID, string(hash), now); err != nil {
			return err
		}
		return s.codes.DeleteForAdmin(ctx, admin.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Senha redefinida via código.", map[string]interface{}{"admin_id": admin.ID})
	return nil
}

func (s *Service) check(ctx context.Context, email, code string) (domain.Admin, domain.OTPCode, error) {
	invalid := apperror.NewUnauthorizedError("Código inválido ou expirado.")
	if strings.TrimSpace(code) == "" {
		return domain.Admin{}, domain.OTPCode{}, apperror.NewValidationError("O código é obrigatório.")
	}

	admin, err := s.admins.FindByEmail(ctx, strings.TrimSpace(email))
	if isNotFound(err) {
		return domain.Admin{}, domain.OTPCode{}, invalid
	}
	if err != nil {
		return domain.Admin{}, domain.OTPCode{}, err
	}

	otp, err := s.codes.Latest(ctx, admin.ID)
	if isNotFound(err) {
		return domain.Admin{}, domain.OTPCode{}, invalid
	}
	if err != nil {
		return domain.Admin{}, domain.OTPCode{}, err
	}
	if !otp.Usable(s.now(), s.cfg.MaxAttempts) {
		return domain.Admin{}, domain.OTPCode{}, invalid
	}

	if subtle.ConstantTimeCompare([]byte(hashCode(strings.TrimSpace(code))), []byte(otp.CodeHash)) != 1 {
		if err := s.codes.IncrementAttempts(ctx, otp.ID); err != nil {
			return domain.Admin{}, domain.OTPCode{}, err
		}
		return domain.Admin{}, domain.OTPCode{}, invalid
	}
	return admin, otp, nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func isNotFound(err error) bool {
	var nf *apperror.NotFoundError
	return errors.As(err, &nf)
}
