package catalog

import (
	"context"
	"net/http"
	"strings"

	"pharmacart/internal/api/response"
	"pharmacart/internal/domain"
	"pharmacart/internal/pkg/logger"
	"pharmacart/internal/pkg/middleware"
)

// CatalogService define o contrato que o Handler espera da camada de Serviço.
type CatalogService interface {
	Create(ctx context.Context, kind domain.ItemKind, in domain.CatalogItemInput) (domain.CatalogItem, error)
	Get(ctx context.Context, ref domain.ItemRef, includeUnapproved bool) (domain.CatalogItem, error)
	List(ctx context.Context, filter domain.CatalogFilter) (domain.CatalogPage, error)
	Update(ctx context.Context, ref domain.ItemRef, in domain.CatalogItemInput) (domain.CatalogItem, error)
	SetApproved(ctx context.Context, ref domain.ItemRef, approved bool) error
	Delete(ctx context.Context, ref domain.ItemRef) error
	StockBySize(ctx context.Context, ref domain.ItemRef) ([]domain.SizeStock, error)
}

// Handler atende uma linha de catálogo. O mesmo código serve /api/products (PRODUCT)
// e /api/mb/products (MOTHER_BABY).
type Handler struct {
	response.Responder
	Service CatalogService
	Kind    domain.ItemKind
}

// NewHandler cria o Handler de uma linha de catálogo.
func NewHandler(svc CatalogService, kind domain.ItemKind, log logger.Logger) *Handler {
	return &Handler{Responder: response.Responder{Logger: log}, Service: svc, Kind: kind}
}

func (h *Handler) ref(r *http.Request) (domain.ItemRef, error) {
	return domain.NewItemRef(h.Kind, response.ID(r))
}

func isAdmin(r *http.Request) bool {
	claims, ok := middleware.GetUserClaimsFromContext(r.Context())
	return ok && claims.IsAdmin()
}

// CreateHandler lida com a requisição POST /api/products.
// @Summary Cadastra um item de catálogo com o lote inicial
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param item body domain.CatalogItemInput true "Dados do item"
// @Success 201 {object} domain.CatalogItem
// @Failure 400 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "SKU duplicado"
// @Router /products [post]
func (h *Handler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.CatalogItemInput
	if err := response.Decode(r, &in); err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}

	if claims, ok := middleware.GetUserClaimsFromContext(r.Context()); ok {
		h.Logger.Info("Criação de item de catálogo por", map[string]interface{}{"user_id": claims.UserID, "kind": string(h.Kind)})
	}

	item, err := h.Service.Create(r.Context(), h.Kind, in)
	h.HandleServiceResponse(w, r, item, err, http.StatusCreated)
}

// GetHandler lida com a requisição GET /api/products/{id}.
// @Summary Busca um item de catálogo
// @Tags catalog
// @Produce json
// @Param id path string true "ID do item"
// @Success 200 {object} domain.CatalogItem
// @Failure 404 {object} domain.ErrorResponse
// @Router /products/{id} [get]
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	ref, err := h.ref(r)
	if err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	item, err := h.Service.Get(r.Context(), ref, isAdmin(r))
	h.HandleServiceResponse(w, r, item, err, http.StatusOK)
}

// ListHandler lida com a requisição GET /api/products.
// @Summary Lista o catálogo
// @Tags catalog
// @Produce json
// @Param search query string false "Busca por nome ou SKU"
// @Param category query string false "Categoria"
// @Param page query int false "Página"
// @Param limit query int false "Itens por página"
// @Success 200 {object} domain.CatalogPage
// @Router /products [get]
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.CatalogFilter{
		Kind:     h.Kind,
		Search:   strings.TrimSpace(q.Get("search")),
		Category: strings.TrimSpace(q.Get("category")),
		// Público só vê aprovados; admin pode pedir approved=true explicitamente.
		ApprovedOnly: !isAdmin(r) || q.Get("approved") == "true",
		Page:         response.Page(r),
	}
	page, err := h.Service.List(r.Context(), filter)
	h.HandleServiceResponse(w, r, page, err, http.StatusOK)
}

// UpdateHandler lida com a requisição PUT /api/products/{id}.
// @Summary Atualiza um item de catálogo
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do item"
// @Param item body domain.CatalogItemInput true "Dados do item"
// @Success 200 {object} domain.CatalogItem
// @Router /products/{id} [put]
func (h *Handler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	ref, err := h.ref(r)
	if err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	var in domain.CatalogItemInput
	if err := response.Decode(r, &in); err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	item, err := h.Service.Update(r.Context(), ref, in)
	h.HandleServiceResponse(w, r, item, err, http.StatusOK)
}

// ApproveHandler lida com POST /api/products/{id}/approve.
// @Summary Aprova um item para venda
// @Tags catalog
// @Security BearerAuth
// @Param id path string true "ID do item"
// @Success 204
// @Router /products/{id}/approve [post]
func (h *Handler) ApproveHandler(w http.ResponseWriter, r *http.Request) {
	h.setApproved(w, r, true)
}

// UnapproveHandler lida com POST /api/products/{id}/unapprove.
// @Summary Retira um item de venda
// @Tags catalog
// @Security BearerAuth
// @Param id path string true "ID do item"
// @Success 204
// @Router /products/{id}/unapprove [post]
func (h *Handler) UnapproveHandler(w http.ResponseWriter, r *http.Request) {
	h.setApproved(w, r, false)
}

func (h *Handler) setApproved(w http.ResponseWriter, r *http.Request, approved bool) {
	ref, err := h.ref(r)
	if err == nil {
		err = h.Service.SetApproved(r.Context(), ref, approved)
	}
	h.HandleServiceResponse(w, r, nil, err, http.StatusNoContent)
}

// DeleteHandler lida com DELETE /api/products/{id} (exclusão lógica).
// @Summary Exclui um item de catálogo
// @Tags catalog
// @Security BearerAuth
// @Param id path string true "ID do item"
// @Success 204
// @Router /products/{id} [delete]
func (h *Handler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	ref, err := h.ref(r)
	if err == nil {
		err = h.Service.Delete(r.Context(), ref)
	}
	h.HandleServiceResponse(w, r, nil, err, http.StatusNoContent)
}

// StockHandler lida com GET /api/products/{id}/stock.
// @Summary Estoque agregado por tamanho
// @Tags catalog
// @Produce json
// @Param id path string true "ID do item"
// @Success 200 {array} domain.SizeStock
// @Router /products/{id}/stock [get]
func (h *Handler) StockHandler(w http.ResponseWriter, r *http.Request) {
	ref, err := h.ref(r)
	if err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	stock, err := h.Service.StockBySize(r.Context(), ref)
	h.HandleServiceResponse(w, r, stock, err, http.StatusOK)
}
