package orderservice_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pharmacart/internal/domain"
	apperror "pharmacart/internal/errors"
	"pharmacart/internal/pkg/events"
	"pharmacart/internal/pkg/logger"
	"pharmacart/internal/pkg/mailer"
	"pharmacart/internal/service/orderservice"
	"pharmacart/internal/stock"
)

// --- mocks ---

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Save(ctx context.Context, o domain.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id string) (domain.Order, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByIDForUpdate(ctx context.Context, id string) (domain.Order, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, at time.Time) error {
	return m.Called(ctx, id, status, at).Error(0)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) FindByID(ctx context.Context, ref domain.ItemRef) (domain.CatalogItem, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(domain.CatalogItem), args.Error(1)
}

type MockPrescriptionRepository struct {
	mock.Mock
}

func (m *MockPrescriptionRepository) FindByID(ctx context.Context, id string) (domain.Prescription, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Prescription), args.Error(1)
}

type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) ListByUser(ctx context.Context, userID string) ([]domain.CartItem, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.CartItem), args.Error(1)
}

func (m *MockCartRepository) Clear(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

// memInventory guarda os lotes em memória e aplica a mesma checagem de versão do banco.
type memInventory struct {
	mu            sync.Mutex
	batches       map[string][]domain.InventoryBatch
	saves         int
	inserts       int
	conflictsLeft int
}

func newMemInventory() *memInventory {
	return &memInventory{batches: make(map[string][]domain.InventoryBatch)}
}

func (m *memInventory) add(ref domain.ItemRef, variants ...domain.BatchVariant) {
	m.batches[ref.Key()] = append(m.batches[ref.Key()], domain.InventoryBatch{
		ID: uuid.NewString(), Item: ref, BatchNumber: "B-" + ref.ID[:4], Version: 1, Variants: variants,
	})
}

func (m *memInventory) ListByItemForUpdate(_ context.Context, ref domain.ItemRef) ([]domain.InventoryBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.InventoryBatch, len(m.batches[ref.Key()]))
	for i, b := range m.batches[ref.Key()] {
		out[i] = b.Clone()
	}
	return out, nil
}

func (m *memInventory) Insert(_ context.Context, b domain.InventoryBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	m.batches[b.Item.Key()] = append(m.batches[b.Item.Key()], b.Clone())
	return nil
}

func (m *memInventory) Save(_ context.Context, b domain.InventoryBatch) (domain.InventoryBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conflictsLeft > 0 {
		m.conflictsLeft--
		return domain.InventoryBatch{}, apperror.NewConflictError("lote alterado")
	}
	list := m.batches[b.Item.Key()]
	for i := range list {
		if list[i].ID != b.ID {
			continue
		}
		if list[i].Version != b.Version {
			return domain.InventoryBatch{}, apperror.NewConflictError("lote alterado")
		}
		m.saves++
		b = b.Clone()
		b.Version++
		list[i] = b
		return b, nil
	}
	return domain.InventoryBatch{}, apperror.NewNotFoundError("lote")
}

func (m *memInventory) total(ref domain.ItemRef, size string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, b := range m.batches[ref.Key()] {
		for _, v := range b.Variants {
			if stock.SizeMatches(size, v.Size) {
				total += v.Quantity
			}
		}
	}
	return total
}

func (m *memInventory) snapshot() map[string][]domain.InventoryBatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := make(map[string][]domain.InventoryBatch, len(m.batches))
	for k, list := range m.batches {
		for _, b := range list {
			snap[k] = append(snap[k], b.Clone())
		}
	}
	return snap
}

func (m *memInventory) restore(snap map[string][]domain.InventoryBatch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = snap
}

// fakeTx desfaz as alterações do inventário quando fn falha, como um ROLLBACK.
type fakeTx struct {
	inv   *memInventory
	calls int
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	snap := f.inv.snapshot()
	if err := fn(ctx); err != nil {
		f.inv.restore(snap)
		return err
	}
	return nil
}

type recordingPublisher struct {
	types []string
}

func (p *recordingPublisher) Publish(_ context.Context, env events.Envelope) error {
	p.types = append(p.types, env.Type)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type recordingMailer struct {
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(msg mailer.Message) error {
	m.sent = append(m.sent, msg)
	return m.err
}

// --- fixture ---

type fixture struct {
	svc           *orderservice.Service
	orders        *MockOrderRepository
	catalog       *MockCatalogRepository
	prescriptions *MockPrescriptionRepository
	carts         *MockCartRepository
	inv           *memInventory
	tx            *fakeTx
	pub           *recordingPublisher
	mail          *recordingMailer
}

func newFixture() *fixture {
	f := &fixture{
		orders:        new(MockOrderRepository),
		catalog:       new(MockCatalogRepository),
		prescriptions: new(MockPrescriptionRepository),
		carts:         new(MockCartRepository),
		inv:           newMemInventory(),
		pub:           &recordingPublisher{},
		mail:          &recordingMailer{},
	}
	f.tx = &fakeTx{inv: f.inv}
	f.svc = orderservice.NewService(orderservice.Repositories{
		Orders:        f.orders,
		Inventory:     f.inv,
		Catalog:       f.catalog,
		Prescriptions: f.prescriptions,
		Carts:         f.carts,
		Tx:            f.tx,
	}, f.pub, f.mail, logger.NewNop(), orderservice.Config{LowStockThreshold: 10, RetryMax: 3, RetryBase: time.Millisecond})
	return f
}

func (f *fixture) catalogItem(ref domain.ItemRef, name string, sizes []string, prices ...string) domain.CatalogItem {
	item := domain.CatalogItem{ID: ref.ID, Kind: ref.Kind, Name: name, Sizes: sizes, Approved: true}
	for _, p := range prices {
		item.Prices = append(item.Prices, decimal.RequireFromString(p))
	}
	f.catalog.On("FindByID", mock.Anything, ref).Return(item, nil).Maybe()
	return item
}

func variant(size string, qty int) domain.BatchVariant {
	return domain.BatchVariant{ID: uuid.NewString(), Size: size, Quantity: qty, MfgDate: domain.DateNA, ExpDate: domain.DateNA}
}

func request(lines ...domain.OrderLineInput) domain.OrderRequest {
	return domain.OrderRequest{
		CustomerName:    "Ana Souza",
		Email:           "ana@example.com",
		ShippingAddress: "Rua das Flores, 10",
		Items:           lines,
	}
}

var customer = domain.Actor{ID: uuid.NewString(), Role: domain.RoleUser}
var admin = domain.Actor{ID: uuid.NewString(), Role: domain.RoleAdmin}

// --- PlaceOrder ---

func TestPlaceOrder_DeductsRequestedSizeOnly(t *testing.T) {
	f := newFixture()
	p := domain.ProductRef(uuid.NewString())
	f.catalogItem(p, "Body infantil", []string{"M", "L"}, "20.00", "25.00")
	f.inv.add(p, variant("M", 10), variant("L", 5))

	var saved domain.Order
	f.orders.On("Save", mock.Anything, mock.AnythingOfType("domain.Order")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.Order) }).Return(nil)

	order, err := f.svc.PlaceOrder(context.Background(), customer, request(
		domain.OrderLineInput{ProductID: p.ID, Size: "m", Quantity: 3},
	))

	require.NoError(t, err)
	assert.Equal(t, 7, f.inv.total(p, "M"))
	assert.Equal(t, 5, f.inv.total(p, "L"))
	assert.Equal(t, domain.OrderPending, order.Status)
	assert.Equal(t, customer.ID, order.UserID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "m", order.Items[0].Size, "o tamanho pedido é gravado como veio")
	assert.True(t, decimal.RequireFromString("60").Equal(order.TotalAmount))
	assert.Equal(t, order.ID, saved.ID)
	assert.Equal(t, []string{events.OrderPlaced}, f.pub.types)
	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, "ana@example.com", f.mail.sent[0].To)
	assert.Equal(t, mailer.TemplateOrderConfirmation, f.mail.sent[0].Template)
}

func TestPlaceOrder_SpansBatchesInLoadOrder(t *testing.T) {
	f := newFixture()
	p := domain.ProductRef(uuid.NewString())
	f.catalogItem(p, "Fralda", []string{"P"}, "50.00")
	f.inv.add(p, variant("P", 2))
	f.inv.add(p, variant("P", 4))
	f.orders.On("Save", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.PlaceOrder(context.Background(), customer, request(
		domain.OrderLineInput{ProductID: p.ID, Size: "p", Quantity: 5},
	))

	require.NoError(t, err)
	batches := f.inv.batches[p.Key()]
	assert.Equal(t, 0, batches[0].Variants[0].Quantity)
	assert.Equal(t, 1, batches[1].Variants[0].Quantity)
	assert.Equal(t, 2, f.inv.saves)
}

func TestPlaceOrder_MissingSizeFailsWithoutMutation(t *testing.T) {
	f := newFixture()
	p := domain.ProductRef(uuid.NewString())
	f.catalogItem(p, "Body infantil", []string{"M", "L"}, "20.00", "25.00")
	f.inv.add(p, variant("M", 10), variant("L", 5))

	_, err := f.svc.PlaceOrder(context.Background(), customer, request(
		domain.OrderLineInput{ProductID: p.ID, Size: "XL", Quantity: 1},
	))

	var insufficient *apperror.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, "XL", insufficient.Size)
	assert.Equal(t, 1, insufficient.Shortfall())
	assert.Equal(t, 10, f.inv.total(p, "M"))
	assert.Equal(t, 5, f.inv.total(p, "L"))
	assert.Zero(t, f.inv.saves)
	f.orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	assert.Empty(t, f.pub.types)
}

func TestPlaceOrder_IsAtomicAcrossItems(t *testing.T) {
	f := newFixture()
	p := domain.ProductRef(uuid.NewString())
	mb := domain.MotherBabyRef(uuid.NewString())
	f.catalogItem(p, "Vitamina C", nil, "15.00")
	f.catalogItem(mb, "Mamadeira", nil, "40.00")
	f.inv.add(p, variant("", 10))
	f.inv.add(mb, variant("", 1))

	_, err := f.svc.PlaceOrder(context.Background(), customer, request(
		domain.OrderLineInput{ProductID: p.ID, Quantity: 4},
		domain.OrderLineInput{MbpID: mb.ID, Quantity: 2},
	))

	assert.IsType(t, &apperror.InsufficientStockError{}, err)
	assert.Equal(t, 10, f.inv.total(p, ""))
	assert.Equal(t, 1, f.inv.total(mb, ""))
	assert.Zero(t, f.inv.saves)
}

func TestPlaceOrder_LinesOnSameItemShareStock(t *testing.T) {
	f := newFixture()
	p := domain.ProductRef(uuid.NewString())
	f.catalogItem(p, "Body infantil", []string{"M"}, "20.00")
	f.inv.add(p, variant("M", 10))

	_, err := f.svc.PlaceOrder(context.Background(), customer, request(
		domain.OrderLineInput{ProductID: p.ID, Size: "M", Quantity: 6},
		domain.OrderLineInput{ProductID: p.ID, Size: " m ", Quantity: 6},
	))

	assert.IsType(t, &apperror.InsufficientStockError{}, err)
	assert.Equal(t, 10, f.inv.total(p, "M"))
}

func TestPlaceOrder_BlankAndEmptySizeHitSameVariant(t *testing.T) {
	f := newFixture()
	p := domain.ProductRef(uuid.NewString())
	f.catalogItem(p, "Dipirona", nil, "8.50")
	f.inv.add(p, variant("", 5))
	f.orders.On("Save", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.PlaceOrder(context.Background(), customer, request(
		domain.OrderLineInput{ProductID: p.ID, Size: "", Quantity: 2},
		domain.OrderLineInput{ProductID: p.ID, Size: "   ", Quantity: 3},
	))

	require.NoError(t, err)
	assert.Equal(t, 0, f.inv.total(p, ""))
}

func TestPlaceOrder_ValidatesLines(t *testing.T) {
	f := newFixture()
	id := uuid.NewString()

	_, err := f.svc.PlaceOrder(context.Background(), customer, request(
		domain.OrderLineInput{ProductID: id, MbpID: id, Quantity: 1},
	))
	assert.IsType(t, &apperror.InvalidReferenceError{}, err)

	_, err = f.svc.PlaceOrder(context.Background(), customer, request(
		domain.OrderLineInput{Quantity: 1},
	))
	assert.IsType(t, &apperror.InvalidReferenceError{}, err)

	_, err = f.svc.PlaceOrder(context.Background(), customer, request(
		domain.OrderLineInput{ProductID: id, Quantity: 0},
	))
	assert.IsType(t, &apperror.ValidationError{}, err)

	_, err = f.svc.PlaceOrder(context.Background(), customer, request())
	assert.IsType(t, &apperror.ValidationError{}, err)
	assert.Zero(t, f.tx.calls)
}

func TestPlaceOrder_RejectsUnapprovedItem(t *testing.T) {
	f := newFixture()
	p := domain.ProductRef(uuid.NewString())
	f.catalog.On("FindByID", mock.Anything, p).Return(domain.CatalogItem{ID: p.ID, Kind: p.Kind, Name: "Novo"}, nil)
	f.inv.add(p, variant("", 5))

	_, err := f.svc.PlaceOrder(context.Background(), customer, request(domain.OrderLineInput{ProductID: p.ID, Quantity: 1}))

	assert.IsType(t, &apperror.ValidationError{}, err)
	assert.Equal(t, 5, f.inv.total(p, ""))
}

func TestPlaceOrder_PrescriptionRules(t *testing.T) {
	f := newFixture()
	p := domain.ProductRef(uuid.NewString())
	item := domain.CatalogItem{ID: p.ID, Kind: p.Kind, Name: "Antibiótico", Prices: []decimal.Decimal{decimal.NewFromInt(30)}, Approved: true, PrescriptionRequired: true}
	f.catalog.On("FindByID", mock.Anything, p).Return(item, nil)
	f.inv.add(p, variant("", 5))
	f.orders.On("Save", mock.Anything, mock.Anything).Return(nil)

	approvedID, foreignID, pendingID := uuid.NewString(), uuid.NewString(), uuid.NewString()
	f.prescriptions.On("FindByID", mock.Anything, approvedID).
		Return(domain.Prescription{ID: approvedID, UserID: customer.ID, Status: domain.PrescriptionApproved}, nil)
	f.prescriptions.On("FindByID", mock.Anything, foreignID).
		Return(domain.Prescription{ID: foreignID, UserID: uuid.NewString(), Status: domain.PrescriptionApproved}, nil)
	f.prescriptions.On("FindByID", mock.Anything, pendingID).
		Return(domain.Prescription{ID: pendingID, UserID: customer.ID, Status: domain.PrescriptionPending}, nil)

	req := request(domain.OrderLineInput{ProductID: p.ID, Quantity: 1})

	_, err := f.svc.PlaceOrder(context.Background(), customer, req)
	assert.IsType(t, &apperror.ValidationError{}, err, "sem receita")

	for _, id := range []string{foreignID, pendingID} {
		req.PrescriptionID = id
		_, err = f.svc.PlaceOrder(context.Background(), customer, req)
		assert.IsType(t, &apperror.ValidationError{}, err)
	}
	assert.Equal(t, 5, f.inv.total(p, ""))

	req.PrescriptionID = approvedID
	order, err := f.svc.PlaceOrder(context.Background(), customer, req)
	require.NoError(t, err)
	assert.Equal(t, approvedID, order.PrescriptionID)
	assert.Equal(t, 4, f.inv.total(p, ""))
}

func TestPlaceOrder_MalformedPrescriptionIDIsValidationError(t *testing.T) {
	f := newFixture()
	p := domain.ProductRef(uuid.NewString())

	req := request(domain.OrderLineInput{ProductID: p.ID, Quantity: 1})
	req.PrescriptionID = "receita-123"
	_, err := f.svc.PlaceOrder(context.Background(), customer, req)

	assert.IsType(t, &apperror.ValidationError{}, err)
	assert.Zero(t, f.tx.calls)
	f.prescriptions.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestPlaceOrder_IgnoresPrescriptionWhenNotRequired(t *testing.T) {
	f := newFixture()
	p := domain.ProductRef(uuid.NewString())
	f.catalogItem(p, "Fralda", nil, "40.00")
	f.inv.add(p, variant("", 5))

	var saved domain.Order
	f.orders.On("Save", mock.Anything, mock.AnythingOfType("domain.Order")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.Order) }).Return(nil)

	req := request(domain.OrderLineInput{ProductID: p.ID, Quantity: 1})
	req.PrescriptionID = uuid.NewString()
	order, err := f.svc.PlaceOrder(context.Background(), customer, req)

	require.NoError(t, err)
	assert.Empty(t, order.PrescriptionID)
	assert.Empty(t, saved.PrescriptionID)
	f.prescriptions.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestPlaceOrder_RetriesOnVersionConflict(t *testing.T) {
	f := newFixture()
	p := domain.ProductRef(uuid.NewString())
	f.catalogItem(p, "Pomada", nil, "12.00")
	f.inv.add(p, variant("", 5))
	f.inv.conflictsLeft = 1
	f.orders.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := f.svc.PlaceOrder(context.Background(), customer, request(domain.OrderLineInput{ProductID: p.ID, Quantity: 2}))

	require.NoError(t, err)
	assert.Equal(t, 2, f.tx.calls)
	assert.Equal(t, 3, f.inv.total(p, ""))
	f.orders.AssertExpectations(t)
}

func TestPlaceOrder_GivesUpAfterMaxRetries(t *testing.T) {
	f := newFixture()
	p := domain.ProductRef(uuid.NewString())
	f.catalogItem(p, "Pomada", nil, "12.00")
	f.inv.add(p, variant("", 5))
	f.inv.conflictsLeft = 100

	_, err := f.svc.PlaceOrder(context.Background(), customer, request(domain.OrderLineInput{ProductID: p.ID, Quantity: 2}))

	assert.IsType(t, &apperror.ConflictError{}, err)
	assert.Equal(t, 4, f.tx.calls)
	assert.Equal(t, 5, f.inv.total(p, ""))
}

func TestPlaceOrder_MailFailureDoesNotFailOrder(t *testing.T) {
	f := newFixture()
	p := domain.ProductRef(uuid.NewString())
	f.catalogItem(p, "Pomada", nil, "12.00")
	f.inv.add(p, variant("", 5))
	f.orders.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.mail.err = errors.New("smtp fora do ar")

	_, err := f.svc.PlaceOrder(context.Background(), customer, request(domain.OrderLineInput{ProductID: p.ID, Quantity: 1}))

	assert.NoError(t, err)
}

// --- Checkout ---

func TestCheckout_BuildsOrderFromCartAndClearsIt(t *testing.T) {
	f := newFixture()
	p := domain.ProductRef(uuid.NewString())
	f.catalogItem(p, "Body infantil", []string{"M", "L"}, "20.00", "25.00")
	f.inv.add(p, variant("M", 10), variant("L", 5))
	f.carts.On("ListByUser", mock.Anything, customer.ID).Return([]domain.CartItem{
		{ID: uuid.NewString(), UserID: customer.ID, Item: p, Size: "L", Quantity: 2},
	}, nil)
	f.carts.On("Clear", mock.Anything, customer.ID).Return(nil)
	f.orders.On("Save", mock.Anything, mock.Anything).Return(nil)

	order, err := f.svc.Checkout(context.Background(), customer, request())

	require.NoError(t, err)
	assert.Equal(t, 3, f.inv.total(p, "L"))
	assert.True(t, decimal.NewFromInt(50).Equal(order.TotalAmount))
	f.carts.AssertExpectations(t)
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture()
	f.carts.On("ListByUser", mock.Anything, customer.ID).Return([]domain.CartItem{}, nil)

	_, err := f.svc.Checkout(context.Background(), customer, request())

	assert.IsType(t, &apperror.ValidationError{}, err)
	f.carts.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
}

func TestCheckout_KeepsCartWhenStockIsShort(t *testing.T) {
	f := newFixture()
	p := domain.ProductRef(uuid.NewString())
	f.catalogItem(p, "Body infantil", []string{"M"}, "20.00")
	f.inv.add(p, variant("M", 1))
	f.carts.On("ListByUser", mock.Anything, customer.ID).Return([]domain.CartItem{
		{ID: uuid.NewString(), UserID: customer.ID, Item: p, Size: "M", Quantity: 2},
	}, nil)

	_, err := f.svc.Checkout(context.Background(), customer, request())

	assert.IsType(t, &apperror.InsufficientStockError{}, err)
	f.carts.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
}

// --- Cancel ---

func placedOrder(t *testing.T, f *fixture, lines ...domain.OrderLineInput) domain.Order {
	t.Helper()
	var saved domain.Order
	f.orders.On("Save", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.Order) }).Return(nil).Once()
	_, err := f.svc.PlaceOrder(context.Background(), customer, request(lines...))
	require.NoError(t, err)
	return saved
}

func TestCancelOrder_RestoresSameBucket(t *testing.T) {
	f := newFixture()
	p := domain.ProductRef(uuid.NewString())
	f.catalogItem(p, "Body infantil", []string{"M", "L"}, "20.00", "25.00")
	f.inv.add(p, variant("M", 10), variant("L", 5))
	order := placedOrder(t, f, domain.OrderLineInput{ProductID: p.ID, Size: "m", Quantity: 3})
	require.Equal(t, 7, f.inv.total(p, "M"))

	f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil).Once()
	f.orders.On("UpdateStatus", mock.Anything, order.ID, domain.OrderCancelled, mock.Anything).Return(nil).Once()

	cancelled, err := f.svc.CancelOrder(context.Background(), customer, order.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, cancelled.Status)
	assert.Equal(t, 10, f.inv.total(p, "M"))
	assert.Equal(t, 5, f.inv.total(p, "L"))
	assert.Zero(t, f.inv.inserts)
	assert.Equal(t, []string{events.OrderPlaced, events.OrderCancelled}, f.pub.types)
}

func TestCancelOrder_TwiceFailsWithoutStockChange(t *testing.T) {
	f := newFixture()
	p := domain.ProductRef(uuid.NewString())
	f.catalogItem(p, "Body infantil", []string{"M"}, "20.00")
	f.inv.add(p, variant("M", 10))
	order := placedOrder(t, f, domain.OrderLineInput{ProductID: p.ID, Size: "M", Quantity: 3})

	f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil).Once()
	f.orders.On("UpdateStatus", mock.Anything, order.ID, domain.OrderCancelled, mock.Anything).Return(nil).Once()
	_, err := f.svc.CancelOrder(context.Background(), customer, order.ID)
	require.NoError(t, err)

	order.Status = domain.OrderCancelled
	f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil).Once()
	_, err = f.svc.CancelOrder(context.Background(), customer, order.ID)

	assert.IsType(t, &apperror.InvalidStateError{}, err)
	assert.Equal(t, 10, f.inv.total(p, "M"))
	f.orders.AssertNumberOfCalls(t, "UpdateStatus", 1)
}

func TestCancelOrder_DeliveredFails(t *testing.T) {
	f := newFixture()
	p := domain.ProductRef(uuid.NewString())
	f.inv.add(p, variant("M", 7))
	order := domain.Order{
		ID: uuid.NewString(), UserID: customer.ID, Status: domain.OrderDelivered,
		Items: []domain.OrderItem{{ID: uuid.NewString(), Item: p, Size: "M", Quantity: 3}},
	}
	f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)

	_, err := f.svc.CancelOrder(context.Background(), admin, order.ID)

	assert.IsType(t, &apperror.InvalidStateError{}, err)
	assert.Equal(t, 7, f.inv.total(p, "M"))
	assert.Zero(t, f.inv.saves)
}

func TestCancelOrder_CreatesReturnBatchWhenSizeIsGone(t *testing.T) {
	f := newFixture()
	p := domain.ProductRef(uuid.NewString())
	f.inv.add(p, variant("L", 1))
	itemID := uuid.NewString()
	order := domain.Order{
		ID: uuid.NewString(), UserID: customer.ID, Status: domain.OrderShipped,
		Items: []domain.OrderItem{{ID: itemID, Item: p, Size: "XL", Quantity: 2}},
	}
	f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
	f.orders.On("UpdateStatus", mock.Anything, order.ID, domain.OrderCancelled, mock.Anything).Return(nil)

	_, err := f.svc.CancelOrder(context.Background(), customer, order.ID)

	require.NoError(t, err)
	assert.Equal(t, 1, f.inv.inserts)
	batches := f.inv.batches[p.Key()]
	require.Len(t, batches, 2)
	assert.Equal(t, stock.ReturnBatchNumber(order.ID, itemID), batches[1].BatchNumber)
	assert.Equal(t, 2, f.inv.total(p, "xl"))
	assert.Equal(t, domain.StockLow, batches[1].StockStatus)
}

func TestCancelOrder_OtherCustomerIsForbidden(t *testing.T) {
	f := newFixture()
	order := domain.Order{ID: uuid.NewString(), UserID: uuid.NewString(), Status: domain.OrderPending}
	f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)

	_, err := f.svc.CancelOrder(context.Background(), customer, order.ID)

	assert.IsType(t, &apperror.ForbiddenError{}, err)
}

// --- UpdateStatus ---

func TestUpdateStatus_FollowsTransitions(t *testing.T) {
	f := newFixture()
	order := domain.Order{ID: uuid.NewString(), UserID: customer.ID, Status: domain.OrderPending}
	f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
	f.orders.On("UpdateStatus", mock.Anything, order.ID, domain.OrderConfirmed, mock.Anything).Return(nil)

	updated, err := f.svc.UpdateStatus(context.Background(), admin, order.ID, domain.OrderConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderConfirmed, updated.Status)
	assert.Equal(t, []string{events.OrderStatusChanged}, f.pub.types)

	_, err = f.svc.UpdateStatus(context.Background(), admin, order.ID, domain.OrderShipped)
	assert.IsType(t, &apperror.InvalidStateError{}, err)

	_, err = f.svc.UpdateStatus(context.Background(), admin, order.ID, domain.OrderStatus("LOST"))
	assert.IsType(t, &apperror.ValidationError{}, err)
}

func TestUpdateStatus_CancelledDelegatesToCancel(t *testing.T) {
	f := newFixture()
	p := domain.ProductRef(uuid.NewString())
	f.inv.add(p, variant("M", 7))
	order := domain.Order{
		ID: uuid.NewString(), UserID: customer.ID, Status: domain.OrderConfirmed,
		Items: []domain.OrderItem{{ID: uuid.NewString(), Item: p, Size: "M", Quantity: 3}},
	}
	f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
	f.orders.On("UpdateStatus", mock.Anything, order.ID, domain.OrderCancelled, mock.Anything).Return(nil)

	updated, err := f.svc.UpdateStatus(context.Background(), admin, order.ID, domain.OrderCancelled)

	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, updated.Status)
	assert.Equal(t, 10, f.inv.total(p, "M"))
}

// --- leitura ---

func TestGetOrder_Access(t *testing.T) {
	f := newFixture()
	order := domain.Order{ID: uuid.NewString(), UserID: customer.ID}
	f.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

	got, err := f.svc.GetOrder(context.Background(), customer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = f.svc.GetOrder(context.Background(), admin, order.ID)
	assert.NoError(t, err)

	_, err = f.svc.GetOrder(context.Background(), domain.Actor{ID: uuid.NewString(), Role: domain.RoleUser}, order.ID)
	assert.IsType(t, &apperror.ForbiddenError{}, err)

	_, err = f.svc.GetOrder(context.Background(), customer, "nao-e-uuid")
	assert.IsType(t, &apperror.ValidationError{}, err)
}

func TestListMyOrders_ScopesToCaller(t *testing.T) {
	f := newFixture()
	want := domain.OrderFilter{UserID: customer.ID, Page: domain.Page{Page: 1, Limit: domain.DefaultPageLimit}}
	f.orders.On("List", mock.Anything, want).Return([]domain.Order{{ID: "o1"}}, 1, nil)

	page, err := f.svc.ListMyOrders(context.Background(), customer, domain.Page{})

	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.Page)
	f.orders.AssertExpectations(t)
}

func TestDeleteOrder_DoesNotTouchStock(t *testing.T) {
	f := newFixture()
	p := domain.ProductRef(uuid.NewString())
	f.inv.add(p, variant("M", 7))
	id := uuid.NewString()
	f.orders.On("Delete", mock.Anything, id).Return(nil)

	require.NoError(t, f.svc.DeleteOrder(context.Background(), id))
	assert.Equal(t, 7, f.inv.total(p, "M"))
	assert.Zero(t, f.inv.saves)
}
