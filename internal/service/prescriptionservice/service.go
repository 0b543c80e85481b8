package prescriptionservice

import (
	"context"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"pharmacart/internal/domain"
	apperror "pharmacart/internal/errors"
	"pharmacart/internal/pkg/logger"
)

// PrescriptionRepository é a persistência de receitas esperada pelo serviço.
type PrescriptionRepository interface {
	Save(ctx context.Context, p domain.Prescription) error
	FindByID(ctx context.Context, id string) (domain.Prescription, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Prescription, error)
	List(ctx context.Context, filter domain.PrescriptionFilter) ([]domain.Prescription, error)
	Review(ctx context.Context, p domain.Prescription, from domain.PrescriptionStatus) error
}

// Service implementa o fluxo envio → revisão das receitas.
type Service struct {
	repo   PrescriptionRepository
	logger logger.Logger
	now    func() time.Time
}

// NewService cria o serviço de receitas.
func NewService(repo PrescriptionRepository, log logger.Logger) *Service {
	return &Service{repo: repo, logger: log, now: func() time.Time { return time.Now().UTC() }}
}

// Upload registra uma receita pendente de revisão.
func (s *Service) Upload(ctx context.Context, actor domain.Actor, in domain.PrescriptionInput) (domain.Prescription, error) {
	imageURL := strings.TrimSpace(in.ImageURL)
	if imageURL == "" {
		return domain.Prescription{}, apperror.NewValidationError("A imagem da receita é obrigatória.")
	}
	if u, err := url.ParseRequestURI(imageURL); err != nil || u.Host == "" {
		return domain.Prescription{}, apperror.NewValidationError("A URL da imagem da receita é inválida.")
	}
	if strings.TrimSpace(in.CustomerName) == "" {
		return domain.Prescription{}, apperror.NewValidationError("O nome do cliente é obrigatório.")
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return domain.Prescription{}, apperror.NewValidationError("E-mail inválido.")
		}
	}

	p := domain.Prescription{
		ID:           uuid.New().String(),
		UserID:       actor.ID,
		CustomerName: strings.TrimSpace(in.CustomerName),
		Email:        strings.TrimSpace(in.Email),
		Phone:        in.Phone,
		ImageURL:     imageURL,
		Notes:        in.Notes,
		Status:       domain.PrescriptionPending,
		CreatedAt:    s.now(),
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return domain.Prescription{}, err
	}
	s.logger.Info("Receita enviada para revisão.", map[string]interface{}{"prescription_id": p.ID, "user_id": actor.ID})
	return p, nil
}

// Get devolve a receita para o dono ou para um administrador.
func (s *Service) Get(ctx context.Context, actor domain.Actor, id string) (domain.Prescription, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Prescription{}, apperror.NewValidationError("O ID da receita deve ser um UUID válido.")
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Prescription{}, err
	}
	if !actor.CanAccess(p.UserID) {
		return domain.Prescription{}, apperror.NewForbiddenError("Sem permissão para ver esta receita.")
	}
	return p, nil
}

// ListMine lista as receitas do próprio cliente.
func (s *Service) ListMine(ctx context.Context, actor domain.Actor) ([]domain.Prescription, error) {
	return s.repo.ListByUser(ctx, actor.ID)
}

// List lista as receitas para revisão.
func (s *Service) List(ctx context.Context, filter domain.PrescriptionFilter) ([]domain.Prescription, error) {
	switch filter.Status {
	case "", domain.PrescriptionPending, domain.PrescriptionApproved, domain.PrescriptionRejected:
	default:
		return nil, apperror.NewValidationError(fmt.Sprintf("Status '%s' desconhecido.", filter.Status))
	}
	filter.Page = filter.Page.Normalize()
	return s.repo.List(ctx, filter)
}

// Approve aprova uma receita pendente.
func (s *Service) Approve(ctx context.Context, reviewer domain.Actor, id string, review domain.PrescriptionReview) (domain.Prescription, error) {
	return s.review(ctx, reviewer, id, domain.PrescriptionApproved, review)
}

// Reject rejeita uma receita pendente; o motivo é obrigatório.
func (s *Service) Reject(ctx context.Context, reviewer domain.Actor, id string, review domain.PrescriptionReview) (domain.Prescription, error) {
	if strings.TrimSpace(review.Note) == "" {
		return domain.Prescription{}, apperror.NewValidationError("Informe o motivo da rejeição.")
	}
	return s.review(ctx, reviewer, id, domain.PrescriptionRejected, review)
}

func (s *Service) review(ctx context.Context, reviewer domain.Actor, id string, to domain.PrescriptionStatus, review domain.PrescriptionReview) (domain.Prescription, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Prescription{}, apperror.NewValidationError("O ID da receita deve ser um UUID válido.")
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Prescription{}, err
	}
	if p.Status != domain.PrescriptionPending {
		return domain.Prescription{}, apperror.NewInvalidStateError(fmt.Sprintf("receita já está %s", p.Status))
	}

	now := s.now()
	p.Status = to
	p.ReviewNote = strings.TrimSpace(review.Note)
	p.ReviewedBy = reviewer.ID
	p.ReviewedAt = &now
	if err := s.repo.Review(ctx, p, domain.PrescriptionPending); err != nil {
		return domain.Prescription{}, err
	}

	s.logger.Info("Receita revisada.", map[string]interface{}{"prescription_id": p.ID, "status": string(to), "reviewer": reviewer.ID})
	return p, nil
}
