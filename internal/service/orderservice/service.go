// Package orderservice implementa o ciclo de vida do pedido: criação com baixa de
// estoque, checkout do carrinho, cancelamento com devolução e mudança de status.
package orderservice

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"pharmacart/internal/domain"
	apperror "pharmacart/internal/errors"
	"pharmacart/internal/pkg/events"
	"pharmacart/internal/pkg/logger"
	"pharmacart/internal/pkg/mailer"
	"pharmacart/internal/stock"
)

// OrderRepository é a persistência de pedidos esperada pelo serviço.
type OrderRepository interface {
	Save(ctx context.Context, o domain.Order) error
	FindByID(ctx context.Context, id string) (domain.Order, error)
	FindByIDForUpdate(ctx context.Context, id string) (domain.Order, error)
	List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// InventoryRepository dá acesso aos lotes com bloqueio de linha.
type InventoryRepository interface {
	ListByItemForUpdate(ctx context.Context, ref domain.ItemRef) ([]domain.InventoryBatch, error)
	Insert(ctx context.Context, b domain.InventoryBatch) error
	Save(ctx context.Context, b domain.InventoryBatch) (domain.InventoryBatch, error)
}

// CatalogRepository resolve os itens pedidos.
type CatalogRepository interface {
	FindByID(ctx context.Context, ref domain.ItemRef) (domain.CatalogItem, error)
}

// PrescriptionRepository resolve a receita anexada ao pedido.
type PrescriptionRepository interface {
	FindByID(ctx context.Context, id string) (domain.Prescription, error)
}

// CartRepository é usado pelo checkout.
type CartRepository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.CartItem, error)
	Clear(ctx context.Context, userID string) error
}

// Transactor executa fn numa única transação.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repositories agrupa as dependências de persistência do serviço.
type Repositories struct {
	Orders        OrderRepository
	Inventory     InventoryRepository
	Catalog       CatalogRepository
	Prescriptions PrescriptionRepository
	Carts         CartRepository
	Tx            Transactor
}

// Config são os parâmetros de negócio do serviço.
type Config struct {
	LowStockThreshold int
	RetryMax          uint64
	RetryBase         time.Duration
}

// Service implementa as operações de pedido.
type Service struct {
	repos     Repositories
	publisher events.Publisher
	mailer    mailer.Mailer
	logger    logger.Logger
	cfg       Config

	now   func() time.Time
	newID func() string
}

// NewService cria o serviço de pedidos.
func NewService(repos Repositories, publisher events.Publisher, m mailer.Mailer, log logger.Logger, cfg Config) *Service {
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 20 * time.Millisecond
	}
	return &Service{
		repos:     repos,
		publisher: publisher,
		mailer:    m,
		logger:    log,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.New().String() },
	}
}

// line é uma linha de pedido já validada.
type line struct {
	ref  domain.ItemRef
	size string
	qty  int
}

// PlaceOrder cria o pedido e dá baixa no estoque de todas as linhas, tudo ou nada.
func (s *Service) PlaceOrder(ctx context.Context, actor domain.Actor, req domain.OrderRequest) (domain.Order, error) {
	if err := req.ValidateCustomer(); err != nil {
		return domain.Order{}, err
	}
	if len(req.Items) == 0 {
		return domain.Order{}, apperror.NewValidationError("O pedido deve ter ao menos um item.")
	}

	lines := make([]line, 0, len(req.Items))
	for i, in := range req.Items {
		ref, err := in.Ref()
		if err != nil {
			return domain.Order{}, err
		}
		if in.Quantity <= 0 {
			return domain.Order{}, apperror.NewValidationError(fmt.Sprintf("Item %d: a quantidade deve ser maior que zero.", i+1))
		}
		lines = append(lines, line{ref: ref, size: in.Size, qty: in.Quantity})
	}

	var order domain.Order
	err := s.withRetry(ctx, func(ctx context.Context) error {
		return s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
			o, err := s.placeInTx(ctx, actor.ID, req, lines)
			if err != nil {
				return err
			}
			order = o
			return nil
		})
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.logger.Info("Pedido criado.", map[string]interface{}{"order_id": order.ID, "items": len(order.Items), "total": order.TotalAmount.String()})
	s.afterPlace(ctx, order)
	return order, nil
}

// Checkout transforma o carrinho do cliente em pedido e esvazia o carrinho na mesma transação.
func (s *Service) Checkout(ctx context.Context, actor domain.Actor, req domain.OrderRequest) (domain.Order, error) {
	if err := req.ValidateCustomer(); err != nil {
		return domain.Order{}, err
	}

	var order domain.Order
	err := s.withRetry(ctx, func(ctx context.Context) error {
		return s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
			cart, err := s.repos.Carts.ListByUser(ctx, actor.ID)
			if err != nil {
				return err
			}
			if len(cart) == 0 {
				return apperror.NewValidationError("O carrinho está vazio.")
			}
			lines := make([]line, len(cart))
			for i, c := range cart {
				lines[i] = line{ref: c.Item, size: c.Size, qty: c.Quantity}
			}

			o, err := s.placeInTx(ctx, actor.ID, req, lines)
			if err != nil {
				return err
			}
			if err := s.repos.Carts.Clear(ctx, actor.ID); err != nil {
				return err
			}
			order = o
			return nil
		})
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.logger.Info("Checkout concluído.", map[string]interface{}{"order_id": order.ID, "user_id": actor.ID})
	s.afterPlace(ctx, order)
	return order, nil
}

func (s *Service) placeInTx(ctx context.Context, userID string, req domain.OrderRequest, lines []line) (domain.Order, error) {
	refs := distinctRefs(lines)

	items := make(map[string]domain.CatalogItem, len(refs))
	needsPrescription := false
	for _, ref := range refs {
		item, err := s.repos.Catalog.FindByID(ctx, ref)
		if err != nil {
			return domain.Order{}, err
		}
		if !item.Orderable() {
			return domain.Order{}, apperror.NewValidationError(fmt.Sprintf("O item '%s' não está disponível para venda.", item.Name))
		}
		needsPrescription = needsPrescription || item.PrescriptionRequired
		items[ref.Key()] = item
	}

	// A receita só fica registrada no pedido quando foi exigida e conferida.
	var prescriptionID string
	if needsPrescription {
		prescriptionID = strings.TrimSpace(req.PrescriptionID)
		if err := s.checkPrescription(ctx, userID, prescriptionID); err != nil {
			return domain.Order{}, err
		}
	}

	ledger, err := s.lockAndLoad(ctx, refs)
	if err != nil {
		return domain.Order{}, err
	}
	for _, l := range lines {
		if err := ledger.Deduct(l.ref, l.size, l.qty); err != nil {
			return domain.Order{}, err
		}
	}
	if err := s.persist(ctx, ledger); err != nil {
		return domain.Order{}, err
	}

	now := s.now()
	order := domain.Order{
		ID:              s.newID(),
		UserID:          userID,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		Email:           strings.TrimSpace(req.Email),
		Phone:           req.Phone,
		ShippingAddress: req.ShippingAddress,
		City:            req.City,
		PostalCode:      req.PostalCode,
		PaymentMethod:   paymentMethodOrDefault(req.PaymentMethod),
		PrescriptionID:  prescriptionID,
		Status:          domain.OrderPending,
		TotalAmount:     decimal.Zero,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, l := range lines {
		item := items[l.ref.Key()]
		price := item.PriceForSize(l.size)
		subtotal := price.Mul(decimal.NewFromInt(int64(l.qty)))
		order.Items = append(order.Items, domain.OrderItem{
			ID:        s.newID(),
			OrderID:   order.ID,
			Item:      l.ref,
			ItemName:  item.Name,
			Size:      l.size,
			Quantity:  l.qty,
			UnitPrice: price,
			Subtotal:  subtotal,
		})
		order.TotalAmount = order.TotalAmount.Add(subtotal)
	}

	if err := s.repos.Orders.Save(ctx, order); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (s *Service) checkPrescription(ctx context.Context, userID, prescriptionID string) error {
	if prescriptionID == "" {
		return apperror.NewValidationError("O pedido contém itens que exigem receita aprovada.")
	}
	p, err := s.repos.Prescriptions.FindByID(ctx, prescriptionID)
	var notFound *apperror.NotFoundError
	if errors.As(err, &notFound) {
		return apperror.NewValidationError("Receita informada não existe.")
	}
	if err != nil {
		return err
	}
	if p.UserID != userID || p.Status != domain.PrescriptionApproved {
		return apperror.NewValidationError("A receita informada não está aprovada para este cliente.")
	}
	return nil
}

// lockAndLoad bloqueia os lotes de cada item (na ordem das chaves, evitando deadlock)
// e os carrega num ledger novo.
func (s *Service) lockAndLoad(ctx context.Context, refs []domain.ItemRef) (*stock.Ledger, error) {
	ledger := stock.NewLedger(s.cfg.LowStockThreshold)
	for _, ref := range refs {
		batches, err := s.repos.Inventory.ListByItemForUpdate(ctx, ref)
		if err != nil {
			return nil, err
		}
		ledger.Load(ref, batches)
	}
	return ledger, nil
}

func (s *Service) persist(ctx context.Context, ledger *stock.Ledger) error {
	updated, created := ledger.Changes()
	for _, b := range updated {
		if _, err := s.repos.Inventory.Save(ctx, b); err != nil {
			return err
		}
	}
	for _, b := range created {
		if err := s.repos.Inventory.Insert(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

// CancelOrder devolve o estoque de todos os itens e marca o pedido como CANCELLED.
// O dono do pedido ou um administrador podem cancelar.
func (s *Service) CancelOrder(ctx context.Context, actor domain.Actor, id string) (domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Order{}, apperror.NewValidationError("O ID do pedido deve ser um UUID válido.")
	}

	var order domain.Order
	err := s.withRetry(ctx, func(ctx context.Context) error {
		return s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
			o, err := s.repos.Orders.FindByIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if !actor.CanAccess(o.UserID) {
				return apperror.NewForbiddenError("Sem permissão para cancelar este pedido.")
			}
			switch o.Status {
			case domain.OrderCancelled:
				return apperror.NewInvalidStateError("pedido já cancelado")
			case domain.OrderDelivered:
				return apperror.NewInvalidStateError("não é possível cancelar um pedido entregue")
			}

			refs := make([]domain.ItemRef, 0, len(o.Items))
			for _, it := range o.Items {
				refs = append(refs, it.Item)
			}
			ledger, err := s.lockAndLoad(ctx, sortedRefs(refs))
			if err != nil {
				return err
			}
			for _, it := range o.Items {
				if err := ledger.Restore(it.Item, it.Size, it.Quantity, stock.ReturnBatchNumber(o.ID, it.ID)); err != nil {
					return err
				}
			}
			if err := s.persist(ctx, ledger); err != nil {
				return err
			}

			now := s.now()
			if err := s.repos.Orders.UpdateStatus(ctx, o.ID, domain.OrderCancelled, now); err != nil {
				return err
			}
			o.Status = domain.OrderCancelled
			o.UpdatedAt = now
			order = o
			return nil
		})
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.logger.Info("Pedido cancelado e estoque devolvido.", map[string]interface{}{"order_id": order.ID})
	s.publish(ctx, events.OrderCancelled, order)
	return order, nil
}

// UpdateStatus avança o pedido no fluxo PENDING → CONFIRMED → SHIPPED → DELIVERED → COMPLETED.
// O destino CANCELLED segue o fluxo de cancelamento.
func (s *Service) UpdateStatus(ctx context.Context, actor domain.Actor, id string, target domain.OrderStatus) (domain.Order, error) {
	if !target.Valid() {
		return domain.Order{}, apperror.NewValidationError(fmt.Sprintf("Status '%s' desconhecido.", target))
	}
	if target == domain.OrderCancelled {
		return s.CancelOrder(ctx, actor, id)
	}

	var order domain.Order
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.repos.Orders.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !o.Status.CanTransitionTo(target) {
			return apperror.NewInvalidStateError(fmt.Sprintf("não é possível passar de %s para %s", o.Status, target))
		}
		now := s.now()
		if err := s.repos.Orders.UpdateStatus(ctx, o.ID, target, now); err != nil {
			return err
		}
		o.Status = target
		o.UpdatedAt = now
		order = o
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.publish(ctx, events.OrderStatusChanged, order)
	return order, nil
}

// GetOrder devolve o pedido para o dono ou para um administrador.
func (s *Service) GetOrder(ctx context.Context, actor domain.Actor, id string) (domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Order{}, apperror.NewValidationError("O ID do pedido deve ser um UUID válido.")
	}
	o, err := s.repos.Orders.FindByID(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if !actor.CanAccess(o.UserID) {
		return domain.Order{}, apperror.NewForbiddenError("Sem permissão para ver este pedido.")
	}
	return o, nil
}

// ListMyOrders lista os pedidos do próprio cliente.
func (s *Service) ListMyOrders(ctx context.Context, actor domain.Actor, page domain.Page) (domain.OrderPage, error) {
	return s.ListOrders(ctx, domain.OrderFilter{UserID: actor.ID, Page: page})
}

// ListOrders lista os pedidos com filtros (uso administrativo).
func (s *Service) ListOrders(ctx context.Context, filter domain.OrderFilter) (domain.OrderPage, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return domain.OrderPage{}, apperror.NewValidationError(fmt.Sprintf("Status '%s' desconhecido.", filter.Status))
	}
	filter.Page = filter.Page.Normalize()
	orders, total, err := s.repos.Orders.List(ctx, filter)
	if err != nil {
		return domain.OrderPage{}, err
	}
	return domain.OrderPage{Items: orders, Total: total, Page: filter.Page.Page, Limit: filter.Page.Limit}, nil
}

// DeleteOrder remove o pedido e seus itens sem mexer no estoque.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewValidationError("O ID do pedido deve ser um UUID válido.")
	}
	return s.repos.Orders.Delete(ctx, id)
}

// withRetry repete fn enquanto houver conflito de versão nos lotes.
func (s *Service) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(s.cfg.RetryMax, retry.NewExponential(s.cfg.RetryBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		var conflict *apperror.ConflictError
		if errors.As(err, &conflict) {
			s.logger.Warn("Conflito de concorrência no estoque; repetindo.", map[string]interface{}{"error": err.Error()})
			return retry.RetryableError(err)
		}
		return err
	})
}

type confirmationData struct {
	CustomerName string
	OrderID      string
	Items        []domain.OrderItem
	Total        decimal.Decimal
}

func (s *Service) afterPlace(ctx context.Context, order domain.Order) {
	s.publish(ctx, events.OrderPlaced, order)

	err := s.mailer.Send(mailer.Message{
		To:       order.Email,
		Subject:  "Pedido recebido - " + order.ID,
		Template: mailer.TemplateOrderConfirmation,
		Data: confirmationData{
			CustomerName: order.CustomerName,
			OrderID:      order.ID,
			Items:        order.Items,
			Total:        order.TotalAmount,
		},
	})
	if err != nil {
		s.logger.Warn("Falha ao enviar confirmação do pedido.", map[string]interface{}{"order_id": order.ID, "error": err.Error()})
	}
}

func (s *Service) publish(ctx context.Context, eventType string, order domain.Order) {
	err := s.publisher.Publish(ctx, events.Envelope{
		Type:       eventType,
		Key:        order.ID,
		OccurredAt: s.now(),
		Payload:    order,
	})
	if err != nil {
		s.logger.Warn("Falha ao publicar evento de pedido.", map[string]interface{}{"order_id": order.ID, "event": eventType, "error": err.Error()})
	}
}

func distinctRefs(lines []line) []domain.ItemRef {
	refs := make([]domain.ItemRef, len(lines))
	for i, l := range lines {
		refs[i] = l.ref
	}
	return sortedRefs(refs)
}

// sortedRefs remove repetições e ordena pela chave, que é a ordem de bloqueio.
func sortedRefs(refs []domain.ItemRef) []domain.ItemRef {
	seen := make(map[string]bool, len(refs))
	out := make([]domain.ItemRef, 0, len(refs))
	for _, r := range refs {
		if seen[r.Key()] {
			continue
		}
		seen[r.Key()] = true
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

func paymentMethodOrDefault(m string) string {
	if m = strings.TrimSpace(m); m == "" {
		return "COD"
	}
	return strings.ToUpper(m)
}
