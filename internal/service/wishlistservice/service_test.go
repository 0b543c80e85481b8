package wishlistservice_test

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
	"pharmacart/internal/service/wishlistservice"
)

type MockWishlistRepository struct {
	mock.Mock
}

func (m *MockWishlistRepository) Add(ctx context.Context, it domain.WishlistItem) (domain.WishlistItem, error) {
	args := m.Called(ctx, it)
	return args.Get(0).(domain.WishlistItem), args.Error(1)
}

func (m *MockWishlistRepository) ListByUser(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.WishlistItem), args.Error(1)
}

func (m *MockWishlistRepository) Remove(ctx context.Context, userID string, ref domain.ItemRef) error {
	return m.Called(ctx, userID, ref).Error(0)
}

type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) FindByID(ctx context.Context, ref domain.ItemRef) (domain.CatalogItem, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(domain.CatalogItem), args.Error(1)
}

func TestAdd_RequiresExistingItem(t *testing.T) {
	repo, cat := new(MockWishlistRepository), new(MockCatalogRepository)
	svc := wishlistservice.NewService(repo, cat, logger.NewNop())
	user := domain.Actor{ID: uuid.NewString()}
	ref := domain.ProductRef(uuid.NewString())
	cat.On("FindByID", mock.Anything, ref).Return(domain.CatalogItem{}, apperror.NewNotFoundError("item")).Once()

	_, err := svc.Add(context.Background(), user, domain.WishlistInput{ProductID: ref.ID})
	assert.IsType(t, &apperror.NotFoundError{}, err)

	cat.On("FindByID", mock.Anything, ref).Return(domain.CatalogItem{ID: ref.ID}, nil)
	repo.On("Add", mock.Anything, mock.AnythingOfType("domain.WishlistItem")).Return(domain.WishlistItem{Item: ref}, nil)

	it, err := svc.Add(context.Background(), user, domain.WishlistInput{ProductID: ref.ID})
	require.NoError(t, err)
	assert.Equal(t, ref, it.Item)
}

func TestList_UsesBasePrice(t *testing.T) {
	repo, cat := new(MockWishlistRepository), new(MockCatalogRepository)
	svc := wishlistservice.NewService(repo, cat, logger.NewNop())
	user := domain.Actor{ID: uuid.NewString()}
	ref := domain.MotherBabyRef(uuid.NewString())
	repo.On("ListByUser", mock.Anything, user.ID).Return([]domain.WishlistItem{{ID: "w1", Item: ref}}, nil)
	cat.On("FindByID", mock.Anything, ref).Return(domain.CatalogItem{
		Name: "Carrinho de bebê", Sizes: []string{"U"}, Prices: []decimal.Decimal{decimal.NewFromInt(900)},
	}, nil)

	lines, err := svc.List(context.Background(), user)

	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Carrinho de bebê", lines[0].ItemName)
	assert.True(t, decimal.NewFromInt(900).Equal(lines[0].Price))
}
