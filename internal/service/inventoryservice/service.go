package inventoryservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pharmacart/internal/domain"
	apperror "pharmacart/internal/errors"
	"pharmacart/internal/pkg/logger"
	"pharmacart/internal/stock"
)

// InventoryRepository define o contrato que o Serviço de Estoque espera da camada de Persistência.
type InventoryRepository interface {
	ListByItem(ctx context.Context, ref domain.ItemRef) ([]domain.InventoryBatch, error)
	FindByID(ctx context.Context, id string) (domain.InventoryBatch, error)
	Insert(ctx context.Context, b domain.InventoryBatch) error
	Save(ctx context.Context, b domain.InventoryBatch) (domain.InventoryBatch, error)
	Delete(ctx context.Context, id string) error
}

// CatalogRepository confere se o item dono do lote existe.
type CatalogRepository interface {
	FindByID(ctx context.Context, ref domain.ItemRef) (domain.CatalogItem, error)
}

// Service administra os lotes de estoque.
type Service struct {
	repo         InventoryRepository
	catalog      CatalogRepository
	logger       logger.Logger
	lowThreshold int

	now   func() time.Time
	newID func() string
}

// NewService cria e retorna uma nova instância do Serviço de Estoque.
func NewService(repo InventoryRepository, catalog CatalogRepository, log logger.Logger, lowThreshold int) *Service {
	return &Service{
		repo:         repo,
		catalog:      catalog,
		logger:       log,
		lowThreshold: lowThreshold,
		now:          func() time.Time { return time.Now().UTC() },
		newID:        func() string { return uuid.New().String() },
	}
}

// AddBatch registra um lote recebido para um item existente.
func (s *Service) AddBatch(ctx context.Context, in domain.BatchInput) (domain.InventoryBatch, error) {
	ref, err := domain.ParseItemRef(in.ProductID, in.MbpID)
	if err != nil {
		return domain.InventoryBatch{}, err
	}
	if err := in.Validate(); err != nil {
		return domain.InventoryBatch{}, err
	}
	if _, err := s.catalog.FindByID(ctx, ref); err != nil {
		return domain.InventoryBatch{}, err
	}

	now := s.now()
	b := domain.InventoryBatch{
		ID:          s.newID(),
		Item:        ref,
		BatchNumber: strings.TrimSpace(in.BatchNumber),
		Version:     1,
		CreatedAt:   now,
		LastUpdated: now,
	}
	for _, v := range in.Variants {
		b.Variants = append(b.Variants, v.ToVariant(s.newID()))
	}
	b.StockStatus = domain.StatusFor(b.TotalQuantity(), s.lowThreshold)

	if err := s.repo.Insert(ctx, b); err != nil {
		return domain.InventoryBatch{}, err
	}
	return b, nil
}

// ListBatches devolve os lotes do item na ordem de carga usada pela baixa.
func (s *Service) ListBatches(ctx context.Context, ref domain.ItemRef) ([]domain.InventoryBatch, error) {
	return s.repo.ListByItem(ctx, ref)
}

// GetBatch busca um lote.
func (s *Service) GetBatch(ctx context.Context, id string) (domain.InventoryBatch, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.InventoryBatch{}, apperror.NewValidationError("O ID do lote deve ser um UUID válido.")
	}
	return s.repo.FindByID(ctx, id)
}

// UpdateBatch substitui número e variantes do lote. Variantes de mesmo tamanho
// mantêm o ID. Se o lote mudou desde a leitura do cliente, devolve ConflictError.
func (s *Service) UpdateBatch(ctx context.Context, id string, in domain.BatchInput) (domain.InventoryBatch, error) {
	if err := in.Validate(); err != nil {
		return domain.InventoryBatch{}, err
	}
	current, err := s.GetBatch(ctx, id)
	if err != nil {
		return domain.InventoryBatch{}, err
	}
	if in.Version != 0 && in.Version != current.Version {
		return domain.InventoryBatch{}, apperror.NewConflictError(
			fmt.Sprintf("O lote está na versão %d, mas a alteração foi feita sobre a versão %d.", current.Version, in.Version))
	}

	existing := make(map[string]string, len(current.Variants))
	for _, v := range current.Variants {
		existing[domain.NormalizeSize(v.Size)] = v.ID
	}

	updated := current.Clone()
	updated.BatchNumber = strings.TrimSpace(in.BatchNumber)
	updated.Variants = updated.Variants[:0]
	for _, v := range in.Variants {
		variantID, ok := existing[domain.NormalizeSize(v.Size)]
		if !ok {
			variantID = s.newID()
		}
		updated.Variants = append(updated.Variants, v.ToVariant(variantID))
	}
	updated.StockStatus = domain.StatusFor(updated.TotalQuantity(), s.lowThreshold)
	updated.LastUpdated = s.now()

	saved, err := s.repo.Save(ctx, updated)
	if err != nil {
		return domain.InventoryBatch{}, err
	}
	s.logger.Info("Lote atualizado.", map[string]interface{}{"batch_id": saved.ID, "version": saved.Version})
	return saved, nil
}

// DeleteBatch remove o lote.
func (s *Service) DeleteBatch(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewValidationError("O ID do lote deve ser um UUID válido.")
	}
	return s.repo.Delete(ctx, id)
}

// StockBySize agrega o estoque do item por tamanho.
func (s *Service) StockBySize(ctx context.Context, ref domain.ItemRef) ([]domain.SizeStock, error) {
	batches, err := s.repo.ListByItem(ctx, ref)
	if err != nil {
		return nil, err
	}
	out := stock.BySize(batches)
	if out == nil {
		out = []domain.SizeStock{}
	}
	return out, nil
}
