package prescription

import (
	"context"
	"net/http"

	"pharmacart/internal/api/response"
	"pharmacart/internal/domain"
	"pharmacart/internal/pkg/logger"
)

// PrescriptionService define o contrato que o Handler espera da camada de Serviço.
type PrescriptionService interface {
	Upload(ctx context.Context, actor domain.Actor, in domain.PrescriptionInput) (domain.Prescription, error)
	Get(ctx context.Context, actor domain.Actor, id string) (domain.Prescription, error)
	ListMine(ctx context.Context, actor domain.Actor) ([]domain.Prescription, error)
	List(ctx context.Context, filter domain.PrescriptionFilter) ([]domain.Prescription, error)
	Approve(ctx context.Context, reviewer domain.Actor, id string, review domain.PrescriptionReview) (domain.Prescription, error)
	Reject(ctx context.Context, reviewer domain.Actor, id string, review domain.PrescriptionReview) (domain.Prescription, error)
}

type Handler struct {
	response.Responder
	Service PrescriptionService
}

func NewHandler(svc PrescriptionService, log logger.Logger) *Handler {
	return &Handler{Responder: response.Responder{Logger: log}, Service: svc}
}

// UploadHandler lida com POST /api/prescriptions.
// @Summary Envia uma receita (URL da imagem)
// @Tags prescriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param prescription body domain.PrescriptionInput true "Receita"
// @Success 201 {object} domain.Prescription
// @Router /prescriptions [post]
func (h *Handler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}
	var in domain.PrescriptionInput
	if err := response.Decode(r, &in); err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}
	p, err := h.Service.Upload(r.Context(), actor, in)
	h.HandleServiceResponse(w, r, p, err, http.StatusCreated)
}

// GetHandler lida com GET /api/prescriptions/{id}.
// @Summary Busca uma receita (dono ou admin)
// @Tags prescriptions
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da receita"
// @Success 200 {object} domain.Prescription
// @Router /prescriptions/{id} [get]
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	p, err := h.Service.Get(r.Context(), actor, response.ID(r))
	h.HandleServiceResponse(w, r, p, err, http.StatusOK)
}

// ListMineHandler lida com GET /api/prescriptions/mine.
// @Summary Receitas do cliente autenticado
// @Tags prescriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Prescription
// @Router /prescriptions/mine [get]
func (h *Handler) ListMineHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	list, err := h.Service.ListMine(r.Context(), actor)
	h.HandleServiceResponse(w, r, list, err, http.StatusOK)
}

// ListHandler lida com GET /api/prescriptions (admin).
// @Summary Lista as receitas
// @Tags prescriptions
// @Produce json
// @Security BearerAuth
// @Param status query string false "PENDING, APPROVED ou REJECTED"
// @Success 200 {array} domain.Prescription
// @Router /prescriptions [get]
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	filter := domain.PrescriptionFilter{
		Status: domain.PrescriptionStatus(r.URL.Query().Get("status")),
		Page:   response.Page(r),
	}
	list, err := h.Service.List(r.Context(), filter)
	h.HandleServiceResponse(w, r, list, err, http.StatusOK)
}

// ApproveHandler lida com POST /api/prescriptions/{id}/approve.
// @Summary Aprova uma receita pendente
// @Tags prescriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da receita"
// @Param review body domain.PrescriptionReview false "Observação"
// @Success 200 {object} domain.Prescription
// @Failure 400 {object} domain.ErrorResponse "Receita já revisada"
// @Router /prescriptions/{id}/approve [post]
func (h *Handler) ApproveHandler(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.Service.Approve)
}

// RejectHandler lida com POST /api/prescriptions/{id}/reject.
// @Summary Rejeita uma receita pendente (observação obrigatória)
// @Tags prescriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da receita"
// @Param review body domain.PrescriptionReview true "Motivo"
// @Success 200 {object} domain.Prescription
// @Router /prescriptions/{id}/reject [post]
func (h *Handler) RejectHandler(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.Service.Reject)
}

type reviewFunc func(ctx context.Context, reviewer domain.Actor, id string, review domain.PrescriptionReview) (domain.Prescription, error)

func (h *Handler) review(w http.ResponseWriter, r *http.Request, fn reviewFunc) {
	actor, err := response.Actor(r)
	if err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	var body domain.PrescriptionReview
	// Corpo vazio é aceito na aprovação.
	if r.ContentLength != 0 {
		if err := response.Decode(r, &body); err != nil {
			h.HandleServiceResponse(w, r, nil, err, http.StatusOK)
			return
		}
	}
	p, err := fn(r.Context(), actor, response.ID(r), body)
	h.HandleServiceResponse(w, r, p, err, http.StatusOK)
}
