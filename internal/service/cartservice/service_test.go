package cartservice_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pharmacart/internal/domain"
	apperror "pharmacart/internal/errors"
	"pharmacart/internal/pkg/logger"
	"pharmacart/internal/service/cartservice"
)

type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) Add(ctx context.Context, it domain.CartItem) (domain.CartItem, error) {
	args := m.Called(ctx, it)
	return args.Get(0).(domain.CartItem), args.Error(1)
}

func (m *MockCartRepository) ListByUser(ctx context.Context, userID string) ([]domain.CartItem, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.CartItem), args.Error(1)
}

func (m *MockCartRepository) UpdateQuantity(ctx context.Context, userID, id string, qty int) error {
	return m.Called(ctx, userID, id, qty).Error(0)
}

func (m *MockCartRepository) Delete(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockCartRepository) Clear(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) FindByID(ctx context.Context, ref domain.ItemRef) (domain.CatalogItem, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(domain.CatalogItem), args.Error(1)
}

var buyer = domain.Actor{ID: uuid.NewString(), Role: domain.RoleUser}

func body(ref domain.ItemRef) domain.CatalogItem {
	return domain.CatalogItem{
		ID: ref.ID, Kind: ref.Kind, Name: "Body", Approved: true,
		Sizes:  []string{"P", "M"},
		Prices: []decimal.Decimal{decimal.NewFromInt(20), decimal.NewFromInt(25)},
	}
}

func TestAdd_TrimsSizeAndDelegates(t *testing.T) {
	repo, cat := new(MockCartRepository), new(MockCatalogRepository)
	svc := cartservice.NewService(repo, cat, logger.NewNop())
	ref := domain.MotherBabyRef(uuid.NewString())
	cat.On("FindByID", mock.Anything, ref).Return(body(ref), nil)
	repo.On("Add", mock.Anything, mock.MatchedBy(func(it domain.CartItem) bool {
		return it.UserID == buyer.ID && it.Item == ref && it.Size == "m" && it.Quantity == 2
	})).Return(domain.CartItem{Quantity: 2}, nil)

	_, err := svc.Add(context.Background(), buyer, domain.CartItemInput{MbpID: ref.ID, Size: " m ", Quantity: 2})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestAdd_Rejections(t *testing.T) {
	repo, cat := new(MockCartRepository), new(MockCatalogRepository)
	svc := cartservice.NewService(repo, cat, logger.NewNop())
	ref := domain.MotherBabyRef(uuid.NewString())
	cat.On("FindByID", mock.Anything, ref).Return(body(ref), nil)

	_, err := svc.Add(context.Background(), buyer, domain.CartItemInput{Size: "M", Quantity: 1})
	assert.IsType(t, &apperror.InvalidReferenceError{}, err)

	_, err = svc.Add(context.Background(), buyer, domain.CartItemInput{MbpID: ref.ID, Size: "M", Quantity: 0})
	assert.IsType(t, &apperror.ValidationError{}, err)

	_, err = svc.Add(context.Background(), buyer, domain.CartItemInput{MbpID: ref.ID, Size: "GG", Quantity: 1})
	assert.IsType(t, &apperror.ValidationError{}, err)

	repo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestView_PricesLinesAndSkipsVanishedItems(t *testing.T) {
	repo, cat := new(MockCartRepository), new(MockCatalogRepository)
	svc := cartservice.NewService(repo, cat, logger.NewNop())
	ref := domain.MotherBabyRef(uuid.NewString())
	gone := domain.ProductRef(uuid.NewString())
	repo.On("ListByUser", mock.Anything, buyer.ID).Return([]domain.CartItem{
		{ID: "c1", Item: ref, Size: "m", Quantity: 2},
		{ID: "c2", Item: gone, Quantity: 1},
	}, nil)
	cat.On("FindByID", mock.Anything, ref).Return(body(ref), nil)
	cat.On("FindByID", mock.Anything, gone).Return(domain.CatalogItem{}, apperror.NewNotFoundError("item"))

	view, err := svc.View(context.Background(), buyer)

	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.True(t, decimal.NewFromInt(25).Equal(view.Items[0].UnitPrice))
	assert.True(t, decimal.NewFromInt(50).Equal(view.Total))
}

func TestUpdateQuantity_ZeroRemoves(t *testing.T) {
	repo, cat := new(MockCartRepository), new(MockCatalogRepository)
	svc := cartservice.NewService(repo, cat, logger.NewNop())
	id := uuid.NewString()
	repo.On("Delete", mock.Anything, buyer.ID, id).Return(nil)
	repo.On("UpdateQuantity", mock.Anything, buyer.ID, id, 3).Return(nil)

	require.NoError(t, svc.UpdateQuantity(context.Background(), buyer, id, 0))
	require.NoError(t, svc.UpdateQuantity(context.Background(), buyer, id, 3))
	repo.AssertExpectations(t)

	assert.IsType(t, &apperror.ValidationError{}, svc.Remove(context.Background(), buyer, "x"))
}
