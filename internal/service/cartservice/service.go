package cartservice

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pharmacart/internal/domain"
	apperror "pharmacart/internal/errors"
	"pharmacart/internal/pkg/logger"
)

// CartRepository é a persistência de carrinho esperada pelo serviço.
type CartRepository interface {
	Add(ctx context.Context, it domain.CartItem) (domain.CartItem, error)
	ListByUser(ctx context.Context, userID string) ([]domain.CartItem, error)
	UpdateQuantity(ctx context.Context, userID, id string, qty int) error
	Delete(ctx context.Context, userID, id string) error
	Clear(ctx context.Context, userID string) error
}

// CatalogRepository resolve os itens do carrinho.
type CatalogRepository interface {
	FindByID(ctx context.Context, ref domain.ItemRef) (domain.CatalogItem, error)
}

// Service implementa o carrinho de compras.
type Service struct {
	repo    CartRepository
	catalog CatalogRepository
	logger  logger.Logger
	now     func() time.Time
}

// NewService cria o serviço de carrinho.
func NewService(repo CartRepository, catalog CatalogRepository, log logger.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, logger: log, now: func() time.Time { return time.Now().UTC() }}
}

// Add inclui o item no carrinho. O mesmo item/tamanho soma na linha existente.
func (s *Service) Add(ctx context.Context, actor domain.Actor, in domain.CartItemInput) (domain.CartItem, error) {
	ref, err := domain.ParseItemRef(in.ProductID, in.MbpID)
	if err != nil {
		return domain.CartItem{}, err
	}
	if in.Quantity <= 0 {
		return domain.CartItem{}, apperror.NewValidationError("A quantidade deve ser maior que zero.")
	}

	item, err := s.catalog.FindByID(ctx, ref)
	if err != nil {
		return domain.CartItem{}, err
	}
	if !item.Approved {
		return domain.CartItem{}, apperror.NewValidationError("O item não está disponível para venda.")
	}
	if !item.OffersSize(in.Size) {
		return domain.CartItem{}, apperror.NewValidationError("Tamanho '" + strings.TrimSpace(in.Size) + "' não existe para este item.")
	}

	return s.repo.Add(ctx, domain.CartItem{
		ID:       uuid.New().String(),
		UserID:   actor.ID,
		Item:     ref,
		Size:     strings.TrimSpace(in.Size),
		Quantity: in.Quantity,
		AddedAt:  s.now(),
	})
}

// View devolve o carrinho com nome, preço e subtotal de cada linha.
// Linhas cujo item saiu do catálogo são omitidas.
func (s *Service) View(ctx context.Context, actor domain.Actor) (domain.CartView, error) {
	items, err := s.repo.ListByUser(ctx, actor.ID)
	if err != nil {
		return domain.CartView{}, err
	}

	view := domain.CartView{Items: []domain.CartLine{}, Total: decimal.Zero}
	for _, it := range items {
		item, err := s.catalog.FindByID(ctx, it.Item)
		var notFound *apperror.NotFoundError
		if errors.As(err, &notFound) {
			s.logger.Warn("Item do carrinho não existe mais no catálogo.", map[string]interface{}{"cart_item": it.ID, "item": it.Item.String()})
			continue
		}
		if err != nil {
			return domain.CartView{}, err
		}

		price := item.PriceForSize(it.Size)
		line := domain.CartLine{
			CartItem:  it,
			ItemName:  item.Name,
			ImageURL:  item.MainImageURL,
			UnitPrice: price,
			Subtotal:  price.Mul(decimal.NewFromInt(int64(it.Quantity))),
		}
		view.Items = append(view.Items, line)
		view.Total = view.Total.Add(line.Subtotal)
	}
	return view, nil
}

// UpdateQuantity altera a quantidade de uma linha; zero ou menos remove a linha.
func (s *Service) UpdateQuantity(ctx context.Context, actor domain.Actor, id string, qty int) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewValidationError("O ID do item do carrinho deve ser um UUID válido.")
	}
	if qty <= 0 {
		return s.repo.Delete(ctx, actor.ID, id)
	}
	return s.repo.UpdateQuantity(ctx, actor.ID, id, qty)
}

// Remove tira uma linha do carrinho.
func (s *Service) Remove(ctx context.Context, actor domain.Actor, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewValidationError("O ID do item do carrinho deve ser um UUID válido.")
	}
	return s.repo.Delete(ctx, actor.ID, id)
}

// Clear esvazia o carrinho.
func (s *Service) Clear(ctx context.Context, actor domain.Actor) error {
	return s.repo.Clear(ctx, actor.ID)
}
