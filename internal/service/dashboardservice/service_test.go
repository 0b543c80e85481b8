package dashboardservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pharmacart/internal/domain"
	apperror "pharmacart/internal/errors"
	"pharmacart/internal/pkg/logger"
)

type mockReports struct {
	mock.Mock
}

func (m *mockReports) OrdersByStatus(ctx context.Context) (map[domain.OrderStatus]int, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[domain.OrderStatus]int), args.Error(1)
}

func (m *mockReports) Revenue(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockReports) CountCatalog(ctx context.Context, kind domain.ItemKind) (int, error) {
	args := m.Called(ctx, kind)
	return args.Int(0), args.Error(1)
}

func (m *mockReports) CountPrescriptions(ctx context.Context, status domain.PrescriptionStatus) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

func (m *mockReports) CountLowStockVariants(ctx context.Context, threshold int) (int, error) {
	args := m.Called(ctx, threshold)
	return args.Int(0), args.Error(1)
}

func (m *mockReports) CountExpiringBatches(ctx context.Context, cutoff time.Time) (int, error) {
	args := m.Called(ctx, cutoff)
	return args.Int(0), args.Error(1)
}

func (m *mockReports) SalesByDay(ctx context.Context, from, to time.Time) ([]domain.SalesPoint, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]domain.SalesPoint), args.Error(1)
}

func (m *mockReports) TopSelling(ctx context.Context, limit int) ([]domain.TopSellingItem, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.TopSellingItem), args.Error(1)
}

func (m *mockReports) LowStock(ctx context.Context, threshold int) ([]domain.StockAlert, error) {
	args := m.Called(ctx, threshold)
	return args.Get(0).([]domain.StockAlert), args.Error(1)
}

func (m *mockReports) Expiring(ctx context.Context, cutoff time.Time) ([]domain.StockAlert, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).([]domain.StockAlert), args.Error(1)
}

var fixedNow = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func newTestService(repo ReportRepository) *Service {
	svc := NewService(repo, logger.NewNop(), 10)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestSummary_AggregatesAllQueries(t *testing.T) {
	repo := new(mockReports)
	repo.On("OrdersByStatus", mock.Anything).Return(map[domain.OrderStatus]int{domain.OrderPending: 2, domain.OrderCancelled: 1}, nil)
	repo.On("Revenue", mock.Anything).Return(decimal.RequireFromString("150.50"), nil)
	repo.On("CountCatalog", mock.Anything, domain.KindProduct).Return(7, nil)
	repo.On("CountCatalog", mock.Anything, domain.KindMotherBaby).Return(4, nil)
	repo.On("CountPrescriptions", mock.Anything, domain.PrescriptionPending).Return(3, nil)
	repo.On("CountLowStockVariants", mock.Anything, 10).Return(5, nil)
	repo.On("CountExpiringBatches", mock.Anything, fixedNow.AddDate(0, 0, 30)).Return(1, nil)

	out, err := newTestService(repo).Summary(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, out.TotalOrders)
	assert.True(t, decimal.RequireFromString("150.50").Equal(out.Revenue))
	assert.Equal(t, 7, out.Products)
	assert.Equal(t, 4, out.MotherBabyProducts)
	assert.Equal(t, 3, out.PendingPrescriptions)
	assert.Equal(t, 5, out.LowStockVariants)
	assert.Equal(t, 1, out.ExpiringBatches)
}

func TestSummary_PropagatesError(t *testing.T) {
	repo := new(mockReports)
	boom := apperror.NewDBError("Falha", errors.New("db fora"))
	repo.On("OrdersByStatus", mock.Anything).Return(map[domain.OrderStatus]int{}, nil).Maybe()
	repo.On("Revenue", mock.Anything).Return(decimal.Zero, boom)
	repo.On("CountCatalog", mock.Anything, mock.Anything).Return(0, nil).Maybe()
	repo.On("CountPrescriptions", mock.Anything, mock.Anything).Return(0, nil).Maybe()
	repo.On("CountLowStockVariants", mock.Anything, mock.Anything).Return(0, nil).Maybe()
	repo.On("CountExpiringBatches", mock.Anything, mock.Anything).Return(0, nil).Maybe()

	_, err := newTestService(repo).Summary(context.Background())

	assert.ErrorIs(t, err, boom)
}

func TestSales_DefaultsAndValidation(t *testing.T) {
	repo := new(mockReports)
	repo.On("SalesByDay", mock.Anything, fixedNow.AddDate(0, 0, -30), fixedNow).Return([]domain.SalesPoint{}, nil)
	svc := newTestService(repo)

	_, err := svc.Sales(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)

	_, err = svc.Sales(context.Background(), fixedNow, fixedNow.AddDate(0, 0, -1))
	var ve *apperror.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestTopSelling_ClampsLimit(t *testing.T) {
	repo := new(mockReports)
	repo.On("TopSelling", mock.Anything, 10).Return([]domain.TopSellingItem{}, nil).Once()
	repo.On("TopSelling", mock.Anything, 100).Return([]domain.TopSellingItem{}, nil).Once()
	svc := newTestService(repo)

	_, err := svc.TopSelling(context.Background(), 0)
	require.NoError(t, err)
	_, err = svc.TopSelling(context.Background(), 5000)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestStockReports_Defaults(t *testing.T) {
	repo := new(mockReports)
	repo.On("LowStock", mock.Anything, 10).Return([]domain.StockAlert{}, nil)
	repo.On("Expiring", mock.Anything, fixedNow.AddDate(0, 0, 30)).Return([]domain.StockAlert{}, nil)
	svc := newTestService(repo)

	_, err := svc.LowStock(context.Background(), 0)
	require.NoError(t, err)
	_, err = svc.Expiring(context.Background(), 0)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
