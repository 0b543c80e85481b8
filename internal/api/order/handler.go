package order

import (
	"context"
	"net/http"

	"pharmacart/internal/api/response"
	"pharmacart/internal/domain"
	"pharmacart/internal/pkg/logger"
)

// OrderService define o contrato que o Handler espera da camada de Serviço.
type OrderService interface {
	PlaceOrder(ctx context.Context, actor domain.Actor, req domain.OrderRequest) (domain.Order, error)
	Checkout(ctx context.Context, actor domain.Actor, req domain.OrderRequest) (domain.Order, error)
	CancelOrder(ctx context.Context, actor domain.Actor, id string) (domain.Order, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, id string, target domain.OrderStatus) (domain.Order, error)
	GetOrder(ctx context.Context, actor domain.Actor, id string) (domain.Order, error)
	ListMyOrders(ctx context.Context, actor domain.Actor, page domain.Page) (domain.OrderPage, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) (domain.OrderPage, error)
	DeleteOrder(ctx context.Context, id string) error
}

// Handler agrupa os Handlers de pedidos.
type Handler struct {
	response.Responder
	Service OrderService
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc OrderService, log logger.Logger) *Handler {
	return &Handler{Responder: response.Responder{Logger: log}, Service: svc}
}

// PlaceOrderHandler lida com a requisição POST /api/orders.
// @Summary Cria um pedido e baixa o estoque
// @Description Todas as linhas são baixadas na mesma transação; se uma falhar, nada muda.
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param order body domain.OrderRequest true "Pedido"
// @Success 201 {object} domain.Order
// @Failure 400 {object} domain.ErrorResponse "Validação ou estoque insuficiente"
// @Failure 404 {object} domain.ErrorResponse "Item sem estoque cadastrado"
// @Failure 409 {object} domain.ErrorResponse "Conflito de concorrência persistente"
// @Router /orders [post]
func (h *Handler) PlaceOrderHandler(w http.ResponseWriter, r *http.Request) {
	h.place(w, r, h.Service.PlaceOrder)
}

// CheckoutHandler lida com a requisição POST /api/orders/checkout.
// @Summary Fecha o carrinho como pedido
// @Description As linhas vêm do carrinho do cliente; "items" do corpo é ignorado.
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param order body domain.OrderRequest true "Dados de entrega e pagamento"
// @Success 201 {object} domain.Order
// @Router /orders/checkout [post]
func (h *Handler) CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	h.place(w, r, h.Service.Checkout)
}

type placeFunc func(ctx context.Context, actor domain.Actor, req domain.OrderRequest) (domain.Order, error)

func (h *Handler) place(w http.ResponseWriter, r *http.Request, fn placeFunc) {
	actor, err := response.Actor(r)
	if err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}
	var req domain.OrderRequest
	if err := response.Decode(r, &req); err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}
	o, err := fn(r.Context(), actor, req)
	h.HandleServiceResponse(w, r, o, err, http.StatusCreated)
}

// CancelOrderHandler lida com POST /api/orders/{id}/cancel.
// @Summary Cancela um pedido e devolve o estoque
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do pedido"
// @Success 200 {object} domain.Order
// @Failure 400 {object} domain.ErrorResponse "Pedido já cancelado ou entregue"
// @Failure 403 {object} domain.ErrorResponse
// @Router /orders/{id}/cancel [post]
func (h *Handler) CancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	o, err := h.Service.CancelOrder(r.Context(), actor, response.ID(r))
	h.HandleServiceResponse(w, r, o, err, http.StatusOK)
}

// UpdateStatusHandler lida com PATCH /api/orders/{id}/status.
// @Summary Avança o status do pedido (admin)
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do pedido"
// @Param status body domain.OrderStatusUpdate true "Novo status"
// @Success 200 {object} domain.Order
// @Failure 400 {object} domain.ErrorResponse "Transição inválida"
// @Router /orders/{id}/status [patch]
func (h *Handler) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	var body domain.OrderStatusUpdate
	if err := response.Decode(r, &body); err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	o, err := h.Service.UpdateStatus(r.Context(), actor, response.ID(r), body.Status)
	h.HandleServiceResponse(w, r, o, err, http.StatusOK)
}

// GetOrderHandler lida com GET /api/orders/{id}.
// @Summary Busca um pedido (dono ou admin)
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do pedido"
// @Success 200 {object} domain.Order
// @Router /orders/{id} [get]
func (h *Handler) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	o, err := h.Service.GetOrder(r.Context(), actor, response.ID(r))
	h.HandleServiceResponse(w, r, o, err, http.StatusOK)
}

// ListMyOrdersHandler lida com GET /api/orders/mine.
// @Summary Pedidos do cliente autenticado
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param page query int false "Página"
// @Param limit query int false "Itens por página"
// @Success 200 {object} domain.OrderPage
// @Router /orders/mine [get]
func (h *Handler) ListMyOrdersHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	page, err := h.Service.ListMyOrders(r.Context(), actor, response.Page(r))
	h.HandleServiceResponse(w, r, page, err, http.StatusOK)
}

// ListOrdersHandler lida com GET /api/orders (admin).
// @Summary Lista todos os pedidos
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filtro de status"
// @Param userId query string false "Filtro de cliente"
// @Success 200 {object} domain.OrderPage
// @Router /orders [get]
func (h *Handler) ListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.OrderFilter{
		Status: domain.OrderStatus(q.Get("status")),
		UserID: q.Get("userId"),
		Page:   response.Page(r),
	}
	page, err := h.Service.ListOrders(r.Context(), filter)
	h.HandleServiceResponse(w, r, page, err, http.StatusOK)
}

// DeleteOrderHandler lida com DELETE /api/orders/{id} (admin).
// @Summary Remove um pedido sem mexer no estoque
// @Tags orders
// @Security BearerAuth
// @Param id path string true "ID do pedido"
// @Success 204
// @Router /orders/{id} [delete]
func (h *Handler) DeleteOrderHandler(w http.ResponseWriter, r *http.Request) {
	err := h.Service.DeleteOrder(r.Context(), response.ID(r))
	h.HandleServiceResponse(w, r, nil, err, http.StatusNoContent)
}
