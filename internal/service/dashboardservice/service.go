package dashboardservice

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"pharmacart/internal/domain"
	apperror "pharmacart/internal/errors"
	"pharmacart/internal/pkg/logger"
)

const (
	// ExpiringWindowDays é a janela padrão de validade do painel.
	ExpiringWindowDays = 30
	defaultTopLimit    = 10
	maxTopLimit        = 100
	defaultSalesDays   = 30
)

// ReportRepository expõe as consultas agregadas somente leitura.
type ReportRepository interface {
	OrdersByStatus(ctx context.Context) (map[domain.OrderStatus]int, error)
	Revenue(ctx context.Context) (decimal.Decimal, error)
	CountCatalog(ctx context.Context, kind domain.ItemKind) (int, error)
	CountPrescriptions(ctx context.Context, status domain.PrescriptionStatus) (int, error)
	CountLowStockVariants(ctx context.Context, threshold int) (int, error)
	CountExpiringBatches(ctx context.Context, cutoff time.Time) (int, error)
	SalesByDay(ctx context.Context, from, to time.Time) ([]domain.SalesPoint, error)
	TopSelling(ctx context.Context, limit int) ([]domain.TopSellingItem, error)
	LowStock(ctx context.Context, threshold int) ([]domain.StockAlert, error)
	Expiring(ctx context.Context, cutoff time.Time) ([]domain.StockAlert, error)
}

// Service monta o painel administrativo e os relatórios.
type Service struct {
	repo              ReportRepository
	logger            logger.Logger
	lowStockThreshold int
	now               func() time.Time
}

// NewService cria o serviço do painel. lowStockThreshold é o limite padrão do relatório de estoque baixo.
func NewService(repo ReportRepository, log logger.Logger, lowStockThreshold int) *Service {
	return &Service{
		repo:              repo,
		logger:            log,
		lowStockThreshold: lowStockThreshold,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// Summary roda as consultas independentes em paralelo. O primeiro erro cancela as demais.
func (s *Service) Summary(ctx context.Context) (domain.DashboardSummary, error) {
	var out domain.DashboardSummary
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		out.OrdersByStatus, err = s.repo.OrdersByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.Revenue, err = s.repo.Revenue(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.Products, err = s.repo.CountCatalog(gctx, domain.KindProduct)
		return err
	})
	g.Go(func() (err error) {
		out.MotherBabyProducts, err = s.repo.CountCatalog(gctx, domain.KindMotherBaby)
		return err
	})
	g.Go(func() (err error) {
		out.PendingPrescriptions, err = s.repo.CountPrescriptions(gctx, domain.PrescriptionPending)
		return err
	})
	g.Go(func() (err error) {
		out.LowStockVariants, err = s.repo.CountLowStockVariants(gctx, s.lowStockThreshold)
		return err
	})
	g.Go(func() (err error) {
		out.ExpiringBatches, err = s.repo.CountExpiringBatches(gctx, s.cutoff(ExpiringWindowDays))
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("Falha ao montar o painel.", err)
		return domain.DashboardSummary{}, err
	}

	for _, n := range out.OrdersByStatus {
		out.TotalOrders += n
	}
	return out, nil
}

// Sales devolve as vendas diárias em [from, to). Datas zeradas viram os últimos 30 dias.
func (s *Service) Sales(ctx context.Context, from, to time.Time) ([]domain.SalesPoint, error) {
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -defaultSalesDays)
	}
	if !from.Before(to) {
		return nil, apperror.NewValidationError("A data inicial deve ser anterior à final.")
	}
	return s.repo.SalesByDay(ctx, from, to)
}

// TopSelling devolve os itens mais vendidos. Limite padrão 10, máximo 100.
func (s *Service) TopSelling(ctx context.Context, limit int) ([]domain.TopSellingItem, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	if limit > maxTopLimit {
		limit = maxTopLimit
	}
	return s.repo.TopSelling(ctx, limit)
}

// LowStock usa o limite configurado quando threshold <= 0.
func (s *Service) LowStock(ctx context.Context, threshold int) ([]domain.StockAlert, error) {
	if threshold <= 0 {
		threshold = s.lowStockThreshold
	}
	return s.repo.LowStock(ctx, threshold)
}

// Expiring lista variantes que vencem nos próximos days dias.
func (s *Service) Expiring(ctx context.Context, days int) ([]domain.StockAlert, error) {
	if days <= 0 {
		days = ExpiringWindowDays
	}
	return s.repo.Expiring(ctx, s.cutoff(days))
}

func (s *Service) cutoff(days int) time.Time {
	return s.now().AddDate(0, 0, days)
}
