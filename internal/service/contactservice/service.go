package contactservice

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"pharmacart/internal/domain"
	apperror "pharmacart/internal/errors"
	"pharmacart/internal/pkg/logger"
	"pharmacart/internal/pkg/mailer"
)

type ContactRepository interface {
	Save(ctx context.Context, m domain.ContactMessage) error
	List(ctx context.Context, page domain.Page) ([]domain.ContactMessage, error)
	Delete(ctx context.Context, id string) error
}

// Service recebe as mensagens do formulário de contato.
type Service struct {
	repo         ContactRepository
	mailer       mailer.Mailer
	logger       logger.Logger
	supportEmail string
	now          func() time.Time
}

// NewService cria o serviço. supportEmail vazio desativa a notificação.
func NewService(repo ContactRepository, m mailer.Mailer, log logger.Logger, supportEmail string) *Service {
	return &Service{
		repo:         repo,
		mailer:       m,
		logger:       log,
		supportEmail: supportEmail,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Submit grava a mensagem e avisa o suporte.
func (s *Service) Submit(ctx context.Context, in domain.ContactMessage) (domain.ContactMessage, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Message = strings.TrimSpace(in.Message)
	if in.Name == "" {
		return domain.ContactMessage{}, apperror.NewValidationError("O nome é obrigatório.")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return domain.ContactMessage{}, apperror.NewValidationError("E-mail inválido.")
	}
	if in.Message == "" {
		return domain.ContactMessage{}, apperror.NewValidationError("A mensagem é obrigatória.")
	}

	in.ID = uuid.New().String()
	in.CreatedAt = s.now()
	if err := s.repo.Save(ctx, in); err != nil {
		return domain.ContactMessage{}, err
	}

	if s.supportEmail != "" {
		subject := "Contato: " + in.Subject
		if in.Subject == "" {
			subject = "Nova mensagem de contato"
		}
		err := s.mailer.Send(mailer.Message{
			To:       s.supportEmail,
			Subject:  subject,
			Template: mailer.TemplateContact,
			Data:     in,
		})
		if err != nil {
			s.logger.Warn("Falha ao notificar o suporte.", map[string]interface{}{"contact_id": in.ID, "error": err.Error()})
		}
	}
	return in, nil
}

func (s *Service) List(ctx context.Context, page domain.Page) ([]domain.ContactMessage, error) {
	return s.repo.List(ctx, page.Normalize())
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewValidationError("O ID da mensagem deve ser um UUID válido.")
	}
	return s.repo.Delete(ctx, id)
}
