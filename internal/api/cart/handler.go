package cart

import (
	"context"
	"net/http"

	"pharmacart/internal/api/response"
	"pharmacart/internal/domain"
	"pharmacart/internal/pkg/logger"
)

type CartService interface {
	Add(ctx context.Context, actor domain.Actor, in domain.CartItemInput) (domain.CartItem, error)
	View(ctx context.Context, actor domain.Actor) (domain.CartView, error)
	UpdateQuantity(ctx context.Context, actor domain.Actor, id string, qty int) error
	Remove(ctx context.Context, actor domain.Actor, id string) error
	Clear(ctx context.Context, actor domain.Actor) error
}

// Handler atende o carrinho do cliente autenticado.
type Handler struct {
	response.Responder
	Service CartService
}

func NewHandler(svc CartService, log logger.Logger) *Handler {
	return &Handler{Responder: response.Responder{Logger: log}, Service: svc}
}

// withActor extrai o ator e encaminha; sem claims responde 401.
func (h *Handler) withActor(fn func(w http.ResponseWriter, r *http.Request, actor domain.Actor)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := response.Actor(r)
		if err != nil {
			h.HandleServiceResponse(w, r, nil, err, http.StatusOK)
			return
		}
		fn(w, r, actor)
	}
}

// AddHandler lida com POST /api/cart.
// @Summary Adiciona um item ao carrinho
// @Description Mesma combinação item + tamanho soma a quantidade.
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param item body domain.CartItemInput true "Item"
// @Success 201 {object} domain.CartItem
// @Router /cart [post]
func (h *Handler) AddHandler(w http.ResponseWriter, r *http.Request) {
	h.withActor(func(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
		var in domain.CartItemInput
		if err := response.Decode(r, &in); err != nil {
			h.HandleServiceResponse(w, r, nil, err, http.StatusCreated)
			return
		}
		it, err := h.Service.Add(r.Context(), actor, in)
		h.HandleServiceResponse(w, r, it, err, http.StatusCreated)
	})(w, r)
}

// ViewHandler lida com GET /api/cart.
// @Summary Mostra o carrinho com preços e subtotais
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.CartView
// @Router /cart [get]
func (h *Handler) ViewHandler(w http.ResponseWriter, r *http.Request) {
	h.withActor(func(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
		view, err := h.Service.View(r.Context(), actor)
		h.HandleServiceResponse(w, r, view, err, http.StatusOK)
	})(w, r)
}

// UpdateQuantityHandler lida com PATCH /api/cart/{id}.
// @Summary Altera a quantidade de uma linha (0 remove)
// @Tags cart
// @Accept json
// @Security BearerAuth
// @Param id path string true "ID da linha"
// @Param body body domain.CartQuantityUpdate true "Quantidade"
// @Success 204
// @Router /cart/{id} [patch]
func (h *Handler) UpdateQuantityHandler(w http.ResponseWriter, r *http.Request) {
	h.withActor(func(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
		var body domain.CartQuantityUpdate
		if err := response.Decode(r, &body); err != nil {
			h.HandleServiceResponse(w, r, nil, err, http.StatusNoContent)
			return
		}
		err := h.Service.UpdateQuantity(r.Context(), actor, response.ID(r), body.Quantity)
		h.HandleServiceResponse(w, r, nil, err, http.StatusNoContent)
	})(w, r)
}

// RemoveHandler lida com DELETE /api/cart/{id}.
// @Summary Remove uma linha do carrinho
// @Tags cart
// @Security BearerAuth
// @Param id path string true "ID da linha"
// @Success 204
// @Router /cart/{id} [delete]
func (h *Handler) RemoveHandler(w http.ResponseWriter, r *http.Request) {
	h.withActor(func(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
		err := h.Service.Remove(r.Context(), actor, response.ID(r))
		h.HandleServiceResponse(w, r, nil, err, http.StatusNoContent)
	})(w, r)
}

// ClearHandler lida com DELETE /api/cart.
// @Summary Esvazia o carrinho
// @Tags cart
// @Security BearerAuth
// @Success 204
// @Router /cart [delete]
func (h *Handler) ClearHandler(w http.ResponseWriter, r *http.Request) {
	h.withActor(func(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
		err := h.Service.Clear(r.Context(), actor)
		h.HandleServiceResponse(w, r, nil, err, http.StatusNoContent)
	})(w, r)
}
