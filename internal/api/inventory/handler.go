package inventory

import (
	"context"
	"net/http"

	"pharmacart/internal/api/response"
	"pharmacart/internal/domain"
	"pharmacart/internal/pkg/logger"
)

// InventoryService define o contrato que o Handler espera da camada de Serviço.
type InventoryService interface {
	AddBatch(ctx context.Context, in domain.BatchInput) (domain.InventoryBatch, error)
	ListBatches(ctx context.Context, ref domain.ItemRef) ([]domain.InventoryBatch, error)
	GetBatch(ctx context.Context, id string) (domain.InventoryBatch, error)
	UpdateBatch(ctx context.Context, id string, in domain.BatchInput) (domain.InventoryBatch, error)
	DeleteBatch(ctx context.Context, id string) error
	StockBySize(ctx context.Context, ref domain.ItemRef) ([]domain.SizeStock, error)
}

// Handler agrupa os Handlers de lotes de estoque (rotas administrativas).
type Handler struct {
	response.Responder
	Service InventoryService
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc InventoryService, log logger.Logger) *Handler {
	return &Handler{Responder: response.Responder{Logger: log}, Service: svc}
}

func itemFromQuery(r *http.Request) (domain.ItemRef, error) {
	q := r.URL.Query()
	return domain.ParseItemRef(q.Get("productId"), q.Get("mbpId"))
}

// AddBatchHandler lida com a requisição POST /api/inventory.
// @Summary Cadastra um lote de estoque
// @Tags inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param batch body domain.BatchInput true "Lote (productId ou mbpId)"
// @Success 201 {object} domain.InventoryBatch
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse "Item inexistente"
// @Router /inventory [post]
func (h *Handler) AddBatchHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.BatchInput
	if err := response.Decode(r, &in); err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}
	batch, err := h.Service.AddBatch(r.Context(), in)
	h.HandleServiceResponse(w, r, batch, err, http.StatusCreated)
}

// ListBatchesHandler lida com GET /api/inventory?productId=... ou ?mbpId=...
// @Summary Lista os lotes de um item na ordem de consumo
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Param productId query string false "ID do produto"
// @Param mbpId query string false "ID do produto Mãe & Bebê"
// @Success 200 {array} domain.InventoryBatch
// @Router /inventory [get]
func (h *Handler) ListBatchesHandler(w http.ResponseWriter, r *http.Request) {
	ref, err := itemFromQuery(r)
	if err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	batches, err := h.Service.ListBatches(r.Context(), ref)
	h.HandleServiceResponse(w, r, batches, err, http.StatusOK)
}

// GetBatchHandler lida com GET /api/inventory/{id}.
// @Summary Busca um lote
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do lote"
// @Success 200 {object} domain.InventoryBatch
// @Router /inventory/{id} [get]
func (h *Handler) GetBatchHandler(w http.ResponseWriter, r *http.Request) {
	batch, err := h.Service.GetBatch(r.Context(), response.ID(r))
	h.HandleServiceResponse(w, r, batch, err, http.StatusOK)
}

// UpdateBatchHandler lida com PUT /api/inventory/{id}.
// @Summary Substitui número e variantes do lote
// @Description Envie "version" para garantir que ninguém alterou o lote desde a leitura.
// @Tags inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do lote"
// @Param batch body domain.BatchInput true "Novo conteúdo do lote"
// @Success 200 {object} domain.InventoryBatch
// @Failure 409 {object} domain.ErrorResponse "Versão desatualizada"
// @Router /inventory/{id} [put]
func (h *Handler) UpdateBatchHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.BatchInput
	if err := response.Decode(r, &in); err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	batch, err := h.Service.UpdateBatch(r.Context(), response.ID(r), in)
	h.HandleServiceResponse(w, r, batch, err, http.StatusOK)
}

// DeleteBatchHandler lida com DELETE /api/inventory/{id}.
// @Summary Remove um lote
// @Tags inventory
// @Security BearerAuth
// @Param id path string true "ID do lote"
// @Success 204
// @Router /inventory/{id} [delete]
func (h *Handler) DeleteBatchHandler(w http.ResponseWriter, r *http.Request) {
	err := h.Service.DeleteBatch(r.Context(), response.ID(r))
	h.HandleServiceResponse(w, r, nil, err, http.StatusNoContent)
}

// StockBySizeHandler lida com GET /api/inventory/stock?productId=... ou ?mbpId=...
// @Summary Estoque agregado por tamanho
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Param productId query string false "ID do produto"
// @Param mbpId query string false "ID do produto Mãe & Bebê"
// @Success 200 {array} domain.SizeStock
// @Router /inventory/stock [get]
func (h *Handler) StockBySizeHandler(w http.ResponseWriter, r *http.Request) {
	ref, err := itemFromQuery(r)
	if err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	stock, err := h.Service.StockBySize(r.Context(), ref)
	h.HandleServiceResponse(w, r, stock, err, http.StatusOK)
}
