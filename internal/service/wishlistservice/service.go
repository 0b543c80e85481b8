package wishlistservice

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"pharmacart/internal/domain"
	apperror "pharmacart/internal/errors"
	"pharmacart/internal/pkg/logger"
)

type WishlistRepository interface {
	Add(ctx context.Context, it domain.WishlistItem) (domain.WishlistItem, error)
	ListByUser(ctx context.Context, userID string) ([]domain.WishlistItem, error)
	Remove(ctx context.Context, userID string, ref domain.ItemRef) error
}

type CatalogRepository interface {
	FindByID(ctx context.Context, ref domain.ItemRef) (domain.CatalogItem, error)
}

// Service implementa a lista de desejos.
type Service struct {
	repo    WishlistRepository
	catalog CatalogRepository
	logger  logger.Logger
}

func NewService(repo WishlistRepository, catalog CatalogRepository, log logger.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, logger: log}
}

// Add salva o item. Repetir a inclusão não duplica a linha.
func (s *Service) Add(ctx context.Context, actor domain.Actor, in domain.WishlistInput) (domain.WishlistItem, error) {
	ref, err := domain.ParseItemRef(in.ProductID, in.MbpID)
	if err != nil {
		return domain.WishlistItem{}, err
	}
	if _, err := s.catalog.FindByID(ctx, ref); err != nil {
		return domain.WishlistItem{}, err
	}
	return s.repo.Add(ctx, domain.WishlistItem{
		ID:      uuid.New().String(),
		UserID:  actor.ID,
		Item:    ref,
		AddedAt: time.Now().UTC(),
	})
}

func (s *Service) Remove(ctx context.Context, actor domain.Actor, ref domain.ItemRef) error {
	return s.repo.Remove(ctx, actor.ID, ref)
}

// List devolve a lista com nome, imagem e preço base de cada item.
func (s *Service) List(ctx context.Context, actor domain.Actor) ([]domain.WishlistLine, error) {
	items, err := s.repo.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.WishlistLine, 0, len(items))
	for _, it := range items {
		item, err := s.catalog.FindByID(ctx, it.Item)
		var notFound *apperror.NotFoundError
		if errors.As(err, &notFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, domain.WishlistLine{
			WishlistItem: it,
			ItemName:     item.Name,
			ImageURL:     item.MainImageURL,
			Price:        item.PriceForSize(""),
		})
	}
	return out, nil
}
