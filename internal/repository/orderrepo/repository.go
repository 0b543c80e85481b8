package orderrepo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"pharmacart/internal/domain"
	"pharmacart/internal/errors"
	"pharmacart/internal/pkg/database"
	"pharmacart/internal/pkg/logger"
)

const orderColumns = `id, user_id, customer_name, email, phone, shipping_address, city, postal_code,
	payment_method, COALESCE(prescription_id::text, ''), status, total_amount, created_at, updated_at`

// OrderRepository persiste pedidos e seus itens.
type OrderRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewOrderRepository cria e retorna uma nova instância do Repositório de Pedidos.
func NewOrderRepository(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *OrderRepository {
	return &OrderRepository{DB: db, DBTimeout: dbTimeout, logger: log}
}

// Save insere o pedido e todos os itens. Deve rodar na mesma transação da baixa de estoque.
func (r *OrderRepository) Save(ctx context.Context, o domain.Order) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	conn := database.Conn(ctx, r.DB)

	var prescriptionID interface{}
	if o.PrescriptionID != "" {
		prescriptionID = o.PrescriptionID
	}

	_, err := conn.ExecContext(ctxTimeout, `
		INSERT INTO orders (id, user_id, customer_name, email, phone, shipping_address, city, postal_code,
			payment_method, prescription_id, status, total_amount, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		o.ID, o.UserID, o.CustomerName, o.Email, o.Phone, o.ShippingAddress, o.City, o.PostalCode,
		o.PaymentMethod, prescriptionID, string(o.Status), o.TotalAmount, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		r.logger.Error("Falha ao inserir pedido.", err)
		return errors.NewDBError("Falha ao inserir pedido", err)
	}

	const itemSQL = `INSERT INTO order_items (id, order_id, item_kind, item_id, item_name, size, quantity, unit_price, subtotal, position)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	for i, it := range o.Items {
		if _, err := conn.ExecContext(ctxTimeout, itemSQL,
			it.ID, o.ID, string(it.Item.Kind), it.Item.ID, it.ItemName, it.Size, it.Quantity, it.UnitPrice, it.Subtotal, i,
		); err != nil {
			r.logger.Error("Falha ao inserir item do pedido.", err)
			return errors.NewDBError("Falha ao inserir item do pedido", err)
		}
	}
	return nil
}

// FindByID busca o pedido com seus itens.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (domain.Order, error) {
	return r.find(ctx, id, false)
}

// FindByIDForUpdate bloqueia a linha do pedido até o fim da transação (cancelamento e
// mudanças de status concorrentes são serializados).
func (r *OrderRepository) FindByIDForUpdate(ctx context.Context, id string) (domain.Order, error) {
	return r.find(ctx, id, true)
}

func (r *OrderRepository) find(ctx context.Context, id string, lock bool) (domain.Order, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	conn := database.Conn(ctx, r.DB)
	o, err := scanOrder(conn.QueryRowContext(ctxTimeout, query, id))
	if err == sql.ErrNoRows {
		return domain.Order{}, errors.NewNotFoundError(fmt.Sprintf("Pedido %s não existe.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar pedido.", err)
		return domain.Order{}, errors.NewDBError("Falha ao buscar pedido", err)
	}

	items, err := r.loadItems(ctxTimeout, conn, []string{o.ID})
	if err != nil {
		return domain.Order{}, err
	}
	o.Items = items[o.ID]
	return o, nil
}

// List devolve uma página de pedidos (com itens) e o total.
func (r *OrderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var (
		where []string
		args  []interface{}
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	conn := database.Conn(ctx, r.DB)

	var total int
	if err := conn.QueryRowContext(ctxTimeout, `SELECT count(*) FROM orders`+cond, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewDBError("Falha ao contar pedidos", err)
	}

	page := filter.Page.Normalize()
	args = append(args, page.Limit, page.Offset())
	rows, err := conn.QueryContext(ctxTimeout,
		fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, orderColumns, cond, len(args)-1, len(args)),
		args...)
	if err != nil {
		r.logger.Error("Falha ao listar pedidos.", err)
		return nil, 0, errors.NewDBError("Falha ao listar pedidos", err)
	}
	defer rows.Close()

	var (
		orders []domain.Order
		ids    []string
	)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, errors.NewDBError("Falha ao ler pedido", err)
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewDBError("Falha ao iterar pedidos", err)
	}

	items, err := r.loadItems(ctxTimeout, conn, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, total, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, conn database.Querier, orderIDs []string) (map[string][]domain.OrderItem, error) {
	out := make(map[string][]domain.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	rows, err := conn.QueryContext(ctx, `
		SELECT id, order_id, item_kind, item_id, item_name, size, quantity, unit_price, subtotal
		FROM order_items WHERE order_id = ANY($1::uuid[]) ORDER BY order_id, position`, pq.Array(orderIDs))
	if err != nil {
		r.logger.Error("Falha ao buscar itens dos pedidos.", err)
		return nil, errors.NewDBError("Falha ao buscar itens dos pedidos", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it   domain.OrderItem
			kind string
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &kind, &it.Item.ID, &it.ItemName, &it.Size, &it.Quantity, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, errors.NewDBError("Falha ao ler item do pedido", err)
		}
		it.Item.Kind = domain.ItemKind(kind)
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar itens dos pedidos", err)
	}
	return out, nil
}

// UpdateStatus grava o novo status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, at time.Time) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := database.Conn(ctx, r.DB).ExecContext(ctxTimeout,
		`UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`, id, string(status), at)
	if err != nil {
		r.logger.Error("Falha ao atualizar status do pedido.", err)
		return errors.NewDBError("Falha ao atualizar status do pedido", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Pedido %s não existe.", id))
	}
	return nil
}

// Delete remove o pedido e, em cascata, seus itens. Não mexe no estoque.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := database.Conn(ctx, r.DB).ExecContext(ctxTimeout, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao excluir pedido.", err)
		return errors.NewDBError("Falha ao excluir pedido", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Pedido %s não existe.", id))
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(s scanner) (domain.Order, error) {
	var (
		o      domain.Order
		status string
	)
	err := s.Scan(&o.ID, &o.UserID, &o.CustomerName, &o.Email, &o.Phone, &o.ShippingAddress, &o.City, &o.PostalCode,
		&o.PaymentMethod, &o.PrescriptionID, &status, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt)
	o.Status = domain.OrderStatus(status)
	return o, err
}
