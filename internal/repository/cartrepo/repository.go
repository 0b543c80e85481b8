package cartrepo

import (
	"context"
	"database/sql"
	"time"

	"pharmacart/internal/domain"
	"pharmacart/internal/errors"
	"pharmacart/internal/pkg/database"
	"pharmacart/internal/pkg/logger"
)

const cartColumns = `id, user_id, item_kind, item_id, size, quantity, added_at`

// CartRepository persiste os carrinhos. Cada (cliente, item, tamanho) é uma linha única;
// o tamanho é comparado sem maiúsculas e sem espaços nas bordas.
type CartRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewCartRepository cria o repositório de carrinho.
func NewCartRepository(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *CartRepository {
	return &CartRepository{DB: db, DBTimeout: dbTimeout, logger: log}
}

// Add insere a linha ou soma a quantidade à linha existente do mesmo item/tamanho.
func (r *CartRepository) Add(ctx context.Context, it domain.CartItem) (domain.CartItem, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	row := database.Conn(ctx, r.DB).QueryRowContext(ctxTimeout, `
		INSERT INTO cart_items (`+cartColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (user_id, item_kind, item_id, lower(btrim(size)))
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING `+cartColumns,
		it.ID, it.UserID, string(it.Item.Kind), it.Item.ID, it.Size, it.Quantity, it.AddedAt)

	saved, err := scanCartItem(row)
	if err != nil {
		r.logger.Error("Falha ao gravar item do carrinho.", err)
		return domain.CartItem{}, errors.NewDBError("Falha ao gravar item do carrinho", err)
	}
	return saved, nil
}

// ListByUser devolve o carrinho do cliente na ordem de inclusão.
func (r *CartRepository) ListByUser(ctx context.Context, userID string) ([]domain.CartItem, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := database.Conn(ctx, r.DB).QueryContext(ctxTimeout,
		`SELECT `+cartColumns+` FROM cart_items WHERE user_id = $1 ORDER BY added_at, id`, userID)
	if err != nil {
		r.logger.Error("Falha ao listar carrinho.", err)
		return nil, errors.NewDBError("Falha ao listar carrinho", err)
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		it, err := scanCartItem(rows)
		if err != nil {
			return nil, errors.NewDBError("Falha ao ler item do carrinho", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar carrinho", err)
	}
	return items, nil
}

// UpdateQuantity altera a quantidade de uma linha.
func (r *CartRepository) UpdateQuantity(ctx context.Context, userID, id string, qty int) error {
	return r.exec(ctx, `UPDATE cart_items SET quantity = $3 WHERE id = $1 AND user_id = $2`, id, userID, qty)
}

// Delete remove uma linha.
func (r *CartRepository) Delete(ctx context.Context, userID, id string) error {
	return r.exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, id, userID)
}

// Clear esvazia o carrinho do cliente.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if _, err := database.Conn(ctx, r.DB).ExecContext(ctxTimeout, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		r.logger.Error("Falha ao esvaziar carrinho.", err)
		return errors.NewDBError("Falha ao esvaziar carrinho", err)
	}
	return nil
}

func (r *CartRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := database.Conn(ctx, r.DB).ExecContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao gravar carrinho.", err)
		return errors.NewDBError("Falha ao gravar carrinho", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFoundError("Item do carrinho não encontrado.")
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCartItem(s scanner) (domain.CartItem, error) {
	var (
		it   domain.CartItem
		kind string
	)
	err := s.Scan(&it.ID, &it.UserID, &kind, &it.Item.ID, &it.Size, &it.Quantity, &it.AddedAt)
	it.Item.Kind = domain.ItemKind(kind)
	return it, err
}
