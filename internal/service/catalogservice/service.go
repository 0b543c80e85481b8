package catalogservice

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"pharmacart/internal/domain"
	apperror "pharmacart/internal/errors"
	"pharmacart/internal/pkg/logger"
	"pharmacart/internal/stock"
)

// initialBatchPrefix é o prefixo do lote criado junto com o item.
const initialBatchPrefix = "INIT-"

// CatalogRepository define o contrato que o Serviço de Catálogo espera da camada de Persistência.
type CatalogRepository interface {
	Save(ctx context.Context, item domain.CatalogItem) error
	Update(ctx context.Context, item domain.CatalogItem) error
	SetApproved(ctx context.Context, ref domain.ItemRef, approved bool) error
	SoftDelete(ctx context.Context, ref domain.ItemRef) error
	FindByID(ctx context.Context, ref domain.ItemRef) (domain.CatalogItem, error)
	List(ctx context.Context, filter domain.CatalogFilter) ([]domain.CatalogItem, int, error)
}

// InventoryRepository cria o lote inicial e lê os lotes para o estoque por tamanho.
type InventoryRepository interface {
	Insert(ctx context.Context, b domain.InventoryBatch) error
	ListByItem(ctx context.Context, ref domain.ItemRef) ([]domain.InventoryBatch, error)
}

// Transactor executa fn numa única transação.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implementa o catálogo de produtos e de Mãe & Bebê.
type Service struct {
	catalog      CatalogRepository
	inventory    InventoryRepository
	tx           Transactor
	logger       logger.Logger
	lowThreshold int

	now   func() time.Time
	newID func() string
}

// NewService cria e retorna uma nova instância do Serviço de Catálogo.
func NewService(catalog CatalogRepository, inventory InventoryRepository, tx Transactor, log logger.Logger, lowThreshold int) *Service {
	return &Service{
		catalog:      catalog,
		inventory:    inventory,
		tx:           tx,
		logger:       log,
		lowThreshold: lowThreshold,
		now:          func() time.Time { return time.Now().UTC() },
		newID:        func() string { return uuid.New().String() },
	}
}

// Create cadastra o item e o seu lote inicial na mesma transação.
func (s *Service) Create(ctx context.Context, kind domain.ItemKind, in domain.CatalogItemInput) (domain.CatalogItem, error) {
	if !kind.Valid() {
		return domain.CatalogItem{}, apperror.NewInvalidReferenceError("Tipo de catálogo desconhecido.")
	}
	if err := in.Validate(); err != nil {
		return domain.CatalogItem{}, err
	}

	now := s.now()
	item := domain.CatalogItem{ID: s.newID(), Kind: kind, CreatedAt: now, UpdatedAt: now}
	in.Apply(&item)
	batch := s.initialBatch(item, in.InitialBatch, now)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.catalog.Save(ctx, item); err != nil {
			return err
		}
		return s.inventory.Insert(ctx, batch)
	})
	if err != nil {
		return domain.CatalogItem{}, err
	}

	s.logger.Info("Item de catálogo criado.", map[string]interface{}{"item": item.Ref().String(), "sku": item.SKU, "batch": batch.BatchNumber})
	return item, nil
}

// initialBatch monta o lote inicial: o informado no payload ou, na falta dele,
// uma variante zerada por tamanho (ou uma variante sem tamanho).
func (s *Service) initialBatch(item domain.CatalogItem, in *domain.InitialBatch, now time.Time) domain.InventoryBatch {
	b := domain.InventoryBatch{
		ID:          s.newID(),
		Item:        item.Ref(),
		BatchNumber: initialBatchPrefix + item.SKU,
		Version:     1,
		CreatedAt:   now,
		LastUpdated: now,
	}
	if in != nil && strings.TrimSpace(in.BatchNumber) != "" {
		b.BatchNumber = strings.TrimSpace(in.BatchNumber)
	}

	switch {
	case in != nil && len(in.Variants) > 0:
		for _, v := range in.Variants {
			b.Variants = append(b.Variants, v.ToVariant(s.newID()))
		}
	case len(item.Sizes) > 0:
		for _, size := range item.Sizes {
			b.Variants = append(b.Variants, domain.VariantInput{Size: size}.ToVariant(s.newID()))
		}
	default:
		b.Variants = []domain.BatchVariant{domain.VariantInput{}.ToVariant(s.newID())}
	}

	b.StockStatus = domain.StatusFor(b.TotalQuantity(), s.lowThreshold)
	return b
}

// Get devolve o item. Para o público só itens aprovados são visíveis.
func (s *Service) Get(ctx context.Context, ref domain.ItemRef, includeUnapproved bool) (domain.CatalogItem, error) {
	item, err := s.catalog.FindByID(ctx, ref)
	if err != nil {
		return domain.CatalogItem{}, err
	}
	if !item.Approved && !includeUnapproved {
		return domain.CatalogItem{}, apperror.NewNotFoundError("Item " + ref.String() + " não existe.")
	}
	return item, nil
}

// List devolve uma página do catálogo.
func (s *Service) List(ctx context.Context, filter domain.CatalogFilter) (domain.CatalogPage, error) {
	if !filter.Kind.Valid() {
		return domain.CatalogPage{}, apperror.NewInvalidReferenceError("Tipo de catálogo desconhecido.")
	}
	filter.Page = filter.Page.Normalize()
	filter.Search = strings.TrimSpace(filter.Search)

	items, total, err := s.catalog.List(ctx, filter)
	if err != nil {
		return domain.CatalogPage{}, err
	}
	return domain.CatalogPage{Items: items, Total: total, Page: filter.Page.Page, Limit: filter.Page.Limit}, nil
}

// Update substitui os campos mutáveis do item. O lote inicial do payload é ignorado.
func (s *Service) Update(ctx context.Context, ref domain.ItemRef, in domain.CatalogItemInput) (domain.CatalogItem, error) {
	if err := in.Validate(); err != nil {
		return domain.CatalogItem{}, err
	}
	item, err := s.catalog.FindByID(ctx, ref)
	if err != nil {
		return domain.CatalogItem{}, err
	}

	in.Apply(&item)
	item.UpdatedAt = s.now()
	if err := s.catalog.Update(ctx, item); err != nil {
		return domain.CatalogItem{}, err
	}
	return item, nil
}

// SetApproved aprova ou retira a aprovação do item.
func (s *Service) SetApproved(ctx context.Context, ref domain.ItemRef, approved bool) error {
	if err := s.catalog.SetApproved(ctx, ref, approved); err != nil {
		return err
	}
	s.logger.Info("Aprovação de item alterada.", map[string]interface{}{"item": ref.String(), "approved": approved})
	return nil
}

// Delete faz a exclusão lógica do item.
func (s *Service) Delete(ctx context.Context, ref domain.ItemRef) error {
	return s.catalog.SoftDelete(ctx, ref)
}

// StockBySize soma o estoque do item por tamanho em todos os lotes.
func (s *Service) StockBySize(ctx context.Context, ref domain.ItemRef) ([]domain.SizeStock, error) {
	if _, err := s.catalog.FindByID(ctx, ref); err != nil {
		return nil, err
	}
	batches, err := s.inventory.ListByItem(ctx, ref)
	if err != nil {
		return nil, err
	}
	out := stock.BySize(batches)
	if out == nil {
		out = []domain.SizeStock{}
	}
	return out, nil
}
