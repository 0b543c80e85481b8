package inventoryservice_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pharmacart/internal/domain"
	apperror "pharmacart/internal/errors"
	"pharmacart/internal/pkg/logger"
	"pharmacart/internal/service/inventoryservice"
)

type MockInventoryRepository struct {
	mock.Mock
}

func (m *MockInventoryRepository) ListByItem(ctx context.Context, ref domain.ItemRef) ([]domain.InventoryBatch, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).([]domain.InventoryBatch), args.Error(1)
}

func (m *MockInventoryRepository) FindByID(ctx context.Context, id string) (domain.InventoryBatch, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.InventoryBatch), args.Error(1)
}

func (m *MockInventoryRepository) Insert(ctx context.Context, b domain.InventoryBatch) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockInventoryRepository) Save(ctx context.Context, b domain.InventoryBatch) (domain.InventoryBatch, error) {
	args := m.Called(ctx, b)
	return args.Get(0).(domain.InventoryBatch), args.Error(1)
}

func (m *MockInventoryRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) FindByID(ctx context.Context, ref domain.ItemRef) (domain.CatalogItem, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(domain.CatalogItem), args.Error(1)
}

func newService() (*inventoryservice.Service, *MockInventoryRepository, *MockCatalogRepository) {
	repo := new(MockInventoryRepository)
	cat := new(MockCatalogRepository)
	return inventoryservice.NewService(repo, cat, logger.NewNop(), 10), repo, cat
}

func TestAddBatch_Success(t *testing.T) {
	svc, repo, cat := newService()
	ref := domain.MotherBabyRef(uuid.NewString())
	cat.On("FindByID", mock.Anything, ref).Return(domain.CatalogItem{ID: ref.ID, Kind: ref.Kind}, nil)
	repo.On("Insert", mock.Anything, mock.AnythingOfType("domain.InventoryBatch")).Return(nil)

	b, err := svc.AddBatch(context.Background(), domain.BatchInput{
		MbpID:       ref.ID,
		BatchNumber: " L-77 ",
		Variants: []domain.VariantInput{
			{Size: "P", Quantity: 4, MfgDate: "2024-02-01", ExpDate: "2027-02-01"},
			{Size: "M", Quantity: 2},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, ref, b.Item)
	assert.Equal(t, "L-77", b.BatchNumber)
	assert.Equal(t, 1, b.Version)
	assert.Equal(t, domain.StockLow, b.StockStatus)
	assert.Equal(t, domain.DateNA, b.Variants[1].MfgDate)
	repo.AssertExpectations(t)
}

func TestAddBatch_Rejections(t *testing.T) {
	svc, repo, cat := newService()
	id := uuid.NewString()

	_, err := svc.AddBatch(context.Background(), domain.BatchInput{ProductID: id, MbpID: id, BatchNumber: "B", Variants: []domain.VariantInput{{Quantity: 1}}})
	assert.IsType(t, &apperror.InvalidReferenceError{}, err)

	_, err = svc.AddBatch(context.Background(), domain.BatchInput{ProductID: id, BatchNumber: "B", Variants: []domain.VariantInput{{Quantity: 1, ExpDate: "10/10/2025"}}})
	assert.IsType(t, &apperror.ValidationError{}, err)

	_, err = svc.AddBatch(context.Background(), domain.BatchInput{ProductID: id, BatchNumber: "B", Variants: []domain.VariantInput{{Size: "M", Quantity: 1}, {Size: "m", Quantity: 1}}})
	assert.IsType(t, &apperror.ValidationError{}, err)

	cat.On("FindByID", mock.Anything, domain.ProductRef(id)).Return(domain.CatalogItem{}, apperror.NewNotFoundError("item"))
	_, err = svc.AddBatch(context.Background(), domain.BatchInput{ProductID: id, BatchNumber: "B", Variants: []domain.VariantInput{{Quantity: 1}}})
	assert.IsType(t, &apperror.NotFoundError{}, err)

	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestUpdateBatch_KeepsVariantIDsBySize(t *testing.T) {
	svc, repo, _ := newService()
	id := uuid.NewString()
	current := domain.InventoryBatch{
		ID: id, BatchNumber: "B1", Version: 3,
		Variants: []domain.BatchVariant{{ID: "v-m", Size: "M", Quantity: 5}},
	}
	repo.On("FindByID", mock.Anything, id).Return(current, nil)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(b domain.InventoryBatch) bool {
		return b.Version == 3 && b.BatchNumber == "B2" && b.Variants[0].ID == "v-m" && b.Variants[1].ID != ""
	})).Return(domain.InventoryBatch{ID: id, Version: 4}, nil)

	saved, err := svc.UpdateBatch(context.Background(), id, domain.BatchInput{
		BatchNumber: "B2",
		Version:     3,
		Variants:    []domain.VariantInput{{Size: "m", Quantity: 8}, {Size: "G", Quantity: 1}},
	})

	require.NoError(t, err)
	assert.Equal(t, 4, saved.Version)
	repo.AssertExpectations(t)
}

func TestUpdateBatch_StaleVersion(t *testing.T) {
	svc, repo, _ := newService()
	id := uuid.NewString()
	repo.On("FindByID", mock.Anything, id).Return(domain.InventoryBatch{ID: id, Version: 5}, nil)

	_, err := svc.UpdateBatch(context.Background(), id, domain.BatchInput{
		BatchNumber: "B", Version: 4, Variants: []domain.VariantInput{{Quantity: 1}},
	})

	assert.IsType(t, &apperror.ConflictError{}, err)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestUpdateBatch_ConcurrentWriteSurfacesConflict(t *testing.T) {
	svc, repo, _ := newService()
	id := uuid.NewString()
	repo.On("FindByID", mock.Anything, id).Return(domain.InventoryBatch{ID: id, Version: 2}, nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(domain.InventoryBatch{}, apperror.NewConflictError("versão"))

	_, err := svc.UpdateBatch(context.Background(), id, domain.BatchInput{
		BatchNumber: "B", Variants: []domain.VariantInput{{Quantity: 1}},
	})

	assert.IsType(t, &apperror.ConflictError{}, err)
}

func TestGetAndDeleteBatch_ValidateID(t *testing.T) {
	svc, repo, _ := newService()

	_, err := svc.GetBatch(context.Background(), "abc")
	assert.IsType(t, &apperror.ValidationError{}, err)
	assert.IsType(t, &apperror.ValidationError{}, svc.DeleteBatch(context.Background(), "abc"))

	id := uuid.NewString()
	repo.On("Delete", mock.Anything, id).Return(nil)
	assert.NoError(t, svc.DeleteBatch(context.Background(), id))
}

func TestStockBySize_EmptyIsNotNil(t *testing.T) {
	svc, repo, _ := newService()
	ref := domain.ProductRef(uuid.NewString())
	repo.On("ListByItem", mock.Anything, ref).Return([]domain.InventoryBatch{}, nil)

	sizes, err := svc.StockBySize(context.Background(), ref)

	require.NoError(t, err)
	assert.NotNil(t, sizes)
	assert.Empty(t, sizes)
}
