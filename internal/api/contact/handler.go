package contact

import (
	"context"
	"net/http"

	"pharmacart/internal/api/response"
	"pharmacart/internal/domain"
	"pharmacart/internal/pkg/logger"
)

type ContactService interface {
	Submit(ctx context.Context, in domain.ContactMessage) (domain.ContactMessage, error)
	List(ctx context.Context, page domain.Page) ([]domain.ContactMessage, error)
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	response.Responder
	Service ContactService
}

func NewHandler(svc ContactService, log logger.Logger) *Handler {
	return &Handler{Responder: response.Responder{Logger: log}, Service: svc}
}

// SubmitHandler lida com POST /api/contact.
// @Summary Envia uma mensagem de contato
// @Tags contact
// @Accept json
// @Produce json
// @Param message body domain.ContactMessage true "Mensagem"
// @Success 201 {object} domain.ContactMessage
// @Failure 429 {object} domain.ErrorResponse
// @Router /contact [post]
func (h *Handler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.ContactMessage
	if err := response.Decode(r, &in); err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}
	msg, err := h.Service.Submit(r.Context(), in)
	h.HandleServiceResponse(w, r, msg, err, http.StatusCreated)
}

// ListHandler lida com GET /api/contact (admin).
// @Summary Lista as mensagens de contato
// @Tags contact
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.ContactMessage
// @Router /contact [get]
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context(), response.Page(r))
	h.HandleServiceResponse(w, r, list, err, http.StatusOK)
}

// DeleteHandler lida com DELETE /api/contact/{id} (admin).
// @Summary Remove uma mensagem de contato
// @Tags contact
// @Security BearerAuth
// @Param id path string true "ID da mensagem"
// @Success 204
// @Router /contact/{id} [delete]
func (h *Handler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	err := h.Service.Delete(r.Context(), response.ID(r))
	h.HandleServiceResponse(w, r, nil, err, http.StatusNoContent)
}
