package dashboard

import (
	"context"
	"net/http"
	"time"

	"pharmacart/internal/api/response"
	"pharmacart/internal/domain"
	apperror "pharmacart/internal/errors"
	"pharmacart/internal/pkg/logger"
)

const dateLayout = "2006-01-02"

type DashboardService interface {
	Summary(ctx context.Context) (domain.DashboardSummary, error)
	Sales(ctx context.Context, from, to time.Time) ([]domain.SalesPoint, error)
	TopSelling(ctx context.Context, limit int) ([]domain.TopSellingItem, error)
	LowStock(ctx context.Context, threshold int) ([]domain.StockAlert, error)
	Expiring(ctx context.Context, days int) ([]domain.StockAlert, error)
}

// Handler expõe o painel e os relatórios administrativos (somente leitura).
type Handler struct {
	response.Responder
	Service DashboardService
}

func NewHandler(svc DashboardService, log logger.Logger) *Handler {
	return &Handler{Responder: response.Responder{Logger: log}, Service: svc}
}

// SummaryHandler lida com GET /api/dashboard.
// @Summary Indicadores do painel
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.DashboardSummary
// @Router /dashboard [get]
func (h *Handler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.Summary(r.Context())
	h.HandleServiceResponse(w, r, out, err, http.StatusOK)
}

// SalesHandler lida com GET /api/reports/sales?from=AAAA-MM-DD&to=AAAA-MM-DD.
// @Summary Vendas por dia
// @Description "to" é exclusivo. Sem datas, devolve os últimos 30 dias.
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param from query string false "Data inicial (AAAA-MM-DD)"
// @Param to query string false "Data final exclusiva (AAAA-MM-DD)"
// @Success 200 {array} domain.SalesPoint
// @Router /reports/sales [get]
func (h *Handler) SalesHandler(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "from")
	if err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	out, err := h.Service.Sales(r.Context(), from, to)
	h.HandleServiceResponse(w, r, out, err, http.StatusOK)
}

// TopSellingHandler lida com GET /api/reports/top-selling?limit=N.
// @Summary Itens mais vendidos
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Quantidade de itens (padrão 10)"
// @Success 200 {array} domain.TopSellingItem
// @Router /reports/top-selling [get]
func (h *Handler) TopSellingHandler(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.TopSelling(r.Context(), response.QueryInt(r, "limit", 0))
	h.HandleServiceResponse(w, r, out, err, http.StatusOK)
}

// LowStockHandler lida com GET /api/reports/low-stock?threshold=N.
// @Summary Variantes com estoque baixo
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param threshold query int false "Limite (padrão da configuração)"
// @Success 200 {array} domain.StockAlert
// @Router /reports/low-stock [get]
func (h *Handler) LowStockHandler(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.LowStock(r.Context(), response.QueryInt(r, "threshold", 0))
	h.HandleServiceResponse(w, r, out, err, http.StatusOK)
}

// ExpiringHandler lida com GET /api/reports/expiring?days=N.
// @Summary Variantes perto da validade
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param days query int false "Janela em dias (padrão 30)"
// @Success 200 {array} domain.StockAlert
// @Router /reports/expiring [get]
func (h *Handler) ExpiringHandler(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.Expiring(r.Context(), response.QueryInt(r, "days", 0))
	h.HandleServiceResponse(w, r, out, err, http.StatusOK)
}

func queryDate(r *http.Request, key string) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, apperror.NewValidationError("Data inválida em '" + key + "', use AAAA-MM-DD.")
	}
	return t, nil
}
