package wishlistrepo

import (
	"context"
	"database/sql"
	"time"

	"pharmacart/internal/domain"
	"pharmacart/internal/errors"
	"pharmacart/internal/pkg/database"
	"pharmacart/internal/pkg/logger"
)

// WishlistRepository persiste as listas de desejos.
type WishlistRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewWishlistRepository cria o repositório.
func NewWishlistRepository(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *WishlistRepository {
	return &WishlistRepository{DB: db, DBTimeout: dbTimeout, logger: log}
}

// Add inclui o item; se já estiver na lista devolve a linha existente.
func (r *WishlistRepository) Add(ctx context.Context, it domain.WishlistItem) (domain.WishlistItem, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	// DO UPDATE sem efeito só para o RETURNING devolver a linha existente
	row := database.Conn(ctx, r.DB).QueryRowContext(ctxTimeout, `
		INSERT INTO wishlist_items (id, user_id, item_kind, item_id, added_at) VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (user_id, item_kind, item_id) DO UPDATE SET item_id = EXCLUDED.item_id
		RETURNING id, user_id, item_kind, item_id, added_at`,
		it.ID, it.UserID, string(it.Item.Kind), it.Item.ID, it.AddedAt)

	saved, err := scan(row)
	if err != nil {
		r.logger.Error("Falha ao gravar lista de desejos.", err)
		return domain.WishlistItem{}, errors.NewDBError("Falha ao gravar lista de desejos", err)
	}
	return saved, nil
}

// ListByUser devolve a lista do cliente, mais recentes primeiro.
func (r *WishlistRepository) ListByUser(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := database.Conn(ctx, r.DB).QueryContext(ctxTimeout,
		`SELECT id, user_id, item_kind, item_id, added_at FROM wishlist_items WHERE user_id = $1 ORDER BY added_at DESC, id`, userID)
	if err != nil {
		r.logger.Error("Falha ao listar lista de desejos.", err)
		return nil, errors.NewDBError("Falha ao listar lista de desejos", err)
	}
	defer rows.Close()

	items := []domain.WishlistItem{}
	for rows.Next() {
		it, err := scan(rows)
		if err != nil {
			return nil, errors.NewDBError("Falha ao ler lista de desejos", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Remove tira o item da lista do cliente.
func (r *WishlistRepository) Remove(ctx context.Context, userID string, ref domain.ItemRef) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := database.Conn(ctx, r.DB).ExecContext(ctxTimeout,
		`DELETE FROM wishlist_items WHERE user_id = $1 AND item_kind = $2 AND item_id = $3`, userID, string(ref.Kind), ref.ID)
	if err != nil {
		r.logger.Error("Falha ao remover da lista de desejos.", err)
		return errors.NewDBError("Falha ao remover da lista de desejos", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFoundError("Item não está na lista de desejos.")
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scan(s scanner) (domain.WishlistItem, error) {
	var (
		it   domain.WishlistItem
		kind string
	)
	err := s.Scan(&it.ID, &it.UserID, &kind, &it.Item.ID, &it.AddedAt)
	it.Item.Kind = domain.ItemKind(kind)
	return it, err
}
