package inventoryrepo_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacart/internal/domain"
	apperror "pharmacart/internal/errors"
	"pharmacart/internal/pkg/database"
	"pharmacart/internal/pkg/database/dbtest"
	"pharmacart/internal/pkg/logger"
	"pharmacart/internal/repository/inventoryrepo"
	"pharmacart/internal/stock"
)

func newBatch(ref domain.ItemRef, number string, created time.Time, variants ...domain.BatchVariant) domain.InventoryBatch {
	return domain.InventoryBatch{
		ID:          uuid.NewString(),
		Item:        ref,
		BatchNumber: number,
		StockStatus: domain.StockIn,
		Version:     1,
		CreatedAt:   created,
		LastUpdated: created,
		Variants:    variants,
	}
}

func TestInventoryRepository_Integration(t *testing.T) {
	db := dbtest.SetupTestPostgres(t)
	repo := inventoryrepo.NewInventoryRepository(db, 5*time.Second, logger.NewNop())
	tx := database.NewTransactor(db)
	ctx := context.Background()

	ref := domain.ProductRef(uuid.NewString())
	t0 := time.Now().UTC().Truncate(time.Millisecond)
	first := newBatch(ref, "L-1", t0, domain.BatchVariant{ID: uuid.NewString(), Size: "M", Quantity: 10, MfgDate: "2024-01-01", ExpDate: "2026-01-01"})
	second := newBatch(ref, "L-2", t0.Add(time.Second), domain.BatchVariant{ID: uuid.NewString(), Size: "M", Quantity: 5, MfgDate: "N/A", ExpDate: "N/A"})
	require.NoError(t, repo.Insert(ctx, second))
	require.NoError(t, repo.Insert(ctx, first))

	t.Run("lista na ordem de carga", func(t *testing.T) {
		batches, err := repo.ListByItem(ctx, ref)
		require.NoError(t, err)
		require.Len(t, batches, 2)
		assert.Equal(t, "L-1", batches[0].BatchNumber)
		assert.Equal(t, 10, batches[0].Variants[0].Quantity)
	})

	t.Run("FOR UPDATE exige transação", func(t *testing.T) {
		_, err := repo.ListByItemForUpdate(ctx, ref)
		assert.Error(t, err)
	})

	t.Run("versão desatualizada gera conflito", func(t *testing.T) {
		b, err := repo.FindByID(ctx, first.ID)
		require.NoError(t, err)

		saved, err := repo.Save(ctx, b)
		require.NoError(t, err)
		assert.Equal(t, b.Version+1, saved.Version)

		_, err = repo.Save(ctx, b)
		var conflict *apperror.ConflictError
		assert.True(t, errors.As(err, &conflict))
	})

	t.Run("baixas concorrentes não vendem além do estoque", func(t *testing.T) {
		// 15 unidades de M no total; 20 pedidos de 1 unidade
		var wg sync.WaitGroup
		var mu sync.Mutex
		ok, insufficient := 0, 0
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := tx.WithinTx(ctx, func(ctx context.Context) error {
					batches, err := repo.ListByItemForUpdate(ctx, ref)
					if err != nil {
						return err
					}
					touched, err := stock.Deduct(ref, batches, "M", 1)
					if err != nil {
						return err
					}
					for _, i := range touched {
						if _, err := repo.Save(ctx, batches[i]); err != nil {
							return err
						}
					}
					return nil
				})
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					ok++
				} else if _, is := err.(*apperror.InsufficientStockError); is {
					insufficient++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 15, ok)
		assert.Equal(t, 5, insufficient)

		batches, err := repo.ListByItem(ctx, ref)
		require.NoError(t, err)
		assert.Equal(t, 0, stock.Available(batches, "m"))
	})

	t.Run("exclusão", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, second.ID))
		_, err := repo.FindByID(ctx, second.ID)
		assert.IsType(t, &apperror.NotFoundError{}, err)
		assert.IsType(t, &apperror.NotFoundError{}, repo.Delete(ctx, second.ID))
	})
}
