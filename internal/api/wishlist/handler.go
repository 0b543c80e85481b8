package wishlist

import (
	"context"
	"net/http"

	"pharmacart/internal/api/response"
	"pharmacart/internal/domain"
	"pharmacart/internal/pkg/logger"
)

type WishlistService interface {
	Add(ctx context.Context, actor domain.Actor, in domain.WishlistInput) (domain.WishlistItem, error)
	Remove(ctx context.Context, actor domain.Actor, ref domain.ItemRef) error
	List(ctx context.Context, actor domain.Actor) ([]domain.WishlistLine, error)
}

type Handler struct {
	response.Responder
	Service WishlistService
}

func NewHandler(svc WishlistService, log logger.Logger) *Handler {
	return &Handler{Responder: response.Responder{Logger: log}, Service: svc}
}

// AddHandler lida com POST /api/wishlist.
// @Summary Adiciona à lista de desejos (idempotente)
// @Tags wishlist
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param item body domain.WishlistInput true "Item"
// @Success 201 {object} domain.WishlistItem
// @Router /wishlist [post]
func (h *Handler) AddHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}
	var in domain.WishlistInput
	if err := response.Decode(r, &in); err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}
	it, err := h.Service.Add(r.Context(), actor, in)
	h.HandleServiceResponse(w, r, it, err, http.StatusCreated)
}

// RemoveHandler lida com DELETE /api/wishlist?productId=... ou ?mbpId=...
// @Summary Remove da lista de desejos
// @Tags wishlist
// @Security BearerAuth
// @Param productId query string false "ID do produto"
// @Param mbpId query string false "ID do produto Mãe & Bebê"
// @Success 204
// @Router /wishlist [delete]
func (h *Handler) RemoveHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusNoContent)
		return
	}
	ref, err := domain.ParseItemRef(r.URL.Query().Get("productId"), r.URL.Query().Get("mbpId"))
	if err == nil {
		err = h.Service.Remove(r.Context(), actor, ref)
	}
	h.HandleServiceResponse(w, r, nil, err, http.StatusNoContent)
}

// ListHandler lida com GET /api/wishlist.
// @Summary Lista de desejos com nome, imagem e preço
// @Tags wishlist
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.WishlistLine
// @Router /wishlist [get]
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	lines, err := h.Service.List(r.Context(), actor)
	h.HandleServiceResponse(w, r, lines, err, http.StatusOK)
}
