package reportrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"pharmacart/internal/domain"
	"pharmacart/internal/errors"
	"pharmacart/internal/pkg/database"
	"pharmacart/internal/pkg/logger"
)

// variantRows expande o JSONB de variantes em linhas (uma por variante).
const variantRows = `inventory_batches b,
	jsonb_to_recordset(b.variants) AS v(size text, quantity int, "expDate" text)`

// datas válidas de validade; N/A fica de fora
const isoDate = `v."expDate" ~ '^[0-9]{4}-[0-9]{2}-[0-9]{2}$'`

// ReportRepository executa as consultas de leitura do painel administrativo.
type ReportRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewReportRepository cria o repositório de relatórios.
func NewReportRepository(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *ReportRepository {
	return &ReportRepository{DB: db, DBTimeout: dbTimeout, logger: log}
}

// OrdersByStatus conta os pedidos por status.
func (r *ReportRepository) OrdersByStatus(ctx context.Context) (map[domain.OrderStatus]int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := database.Conn(ctx, r.DB).QueryContext(ctxTimeout, `SELECT status, count(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, r.fail("Falha ao contar pedidos", err)
	}
	defer rows.Close()

	out := make(map[domain.OrderStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, r.fail("Falha ao ler contagem de pedidos", err)
		}
		out[domain.OrderStatus(status)] = n
	}
	return out, rows.Err()
}

// Revenue soma o total dos pedidos não cancelados.
func (r *ReportRepository) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.queryRow(ctx, `SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status <> $1`,
		[]interface{}{string(domain.OrderCancelled)}, &total)
	if err != nil {
		return decimal.Zero, r.fail("Falha ao calcular faturamento", err)
	}
	return total, nil
}

// CountCatalog conta os itens não excluídos de um catálogo.
func (r *ReportRepository) CountCatalog(ctx context.Context, kind domain.ItemKind) (int, error) {
	table := "products"
	if kind == domain.KindMotherBaby {
		table = "mb_products"
	}
	var n int
	if err := r.queryRow(ctx, `SELECT count(*) FROM `+table+` WHERE NOT deleted`, nil, &n); err != nil {
		return 0, r.fail("Falha ao contar catálogo", err)
	}
	return n, nil
}

// CountPrescriptions conta as receitas em um status.
func (r *ReportRepository) CountPrescriptions(ctx context.Context, status domain.PrescriptionStatus) (int, error) {
	var n int
	if err := r.queryRow(ctx, `SELECT count(*) FROM prescriptions WHERE status = $1`, []interface{}{string(status)}, &n); err != nil {
		return 0, r.fail("Falha ao contar receitas", err)
	}
	return n, nil
}

// CountLowStockVariants conta as variantes com quantidade abaixo do limite.
func (r *ReportRepository) CountLowStockVariants(ctx context.Context, threshold int) (int, error) {
	var n int
	if err := r.queryRow(ctx, `SELECT count(*) FROM `+variantRows+` WHERE v.quantity < $1`, []interface{}{threshold}, &n); err != nil {
		return 0, r.fail("Falha ao contar estoque baixo", err)
	}
	return n, nil
}

// CountExpiringBatches conta os lotes com alguma variante em estoque vencendo até cutoff.
// As datas são texto AAAA-MM-DD, então a comparação lexicográfica basta.
func (r *ReportRepository) CountExpiringBatches(ctx context.Context, cutoff time.Time) (int, error) {
	var n int
	err := r.queryRow(ctx, `SELECT count(DISTINCT b.id) FROM `+variantRows+`
		WHERE `+isoDate+` AND v."expDate" <= $1 AND v.quantity > 0`,
		[]interface{}{cutoff.Format("2006-01-02")}, &n)
	if err != nil {
		return 0, r.fail("Falha ao contar lotes a vencer", err)
	}
	return n, nil
}

// SalesByDay agrupa pedidos não cancelados por dia no intervalo [from, to).
func (r *ReportRepository) SalesByDay(ctx context.Context, from, to time.Time) ([]domain.SalesPoint, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := database.Conn(ctx, r.DB).QueryContext(ctxTimeout, `
		SELECT date_trunc('day', created_at) AS day, count(*), COALESCE(SUM(total_amount), 0)
		FROM orders
		WHERE status <> $1 AND created_at >= $2 AND created_at < $3
		GROUP BY 1 ORDER BY 1`, string(domain.OrderCancelled), from, to)
	if err != nil {
		return nil, r.fail("Falha ao gerar relatório de vendas", err)
	}
	defer rows.Close()

	out := []domain.SalesPoint{}
	for rows.Next() {
		var p domain.SalesPoint
		if err := rows.Scan(&p.Day, &p.Orders, &p.Revenue); err != nil {
			return nil, r.fail("Falha ao ler relatório de vendas", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// TopSelling devolve os itens mais vendidos em pedidos não cancelados.
func (r *ReportRepository) TopSelling(ctx context.Context, limit int) ([]domain.TopSellingItem, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := database.Conn(ctx, r.DB).QueryContext(ctxTimeout, `
		SELECT oi.item_kind, oi.item_id, max(oi.item_name), SUM(oi.quantity), SUM(oi.subtotal)
		FROM order_items oi JOIN orders o ON o.id = oi.order_id
		WHERE o.status <> $1
		GROUP BY oi.item_kind, oi.item_id
		ORDER BY 4 DESC, 5 DESC
		LIMIT $2`, string(domain.OrderCancelled), limit)
	if err != nil {
		return nil, r.fail("Falha ao gerar ranking de vendas", err)
	}
	defer rows.Close()

	out := []domain.TopSellingItem{}
	for rows.Next() {
		var (
			it   domain.TopSellingItem
			kind string
		)
		if err := rows.Scan(&kind, &it.Item.ID, &it.ItemName, &it.Quantity, &it.Revenue); err != nil {
			return nil, r.fail("Falha ao ler ranking de vendas", err)
		}
		it.Item.Kind = domain.ItemKind(kind)
		out = append(out, it)
	}
	return out, rows.Err()
}

// LowStock lista as variantes com quantidade abaixo do limite.
func (r *ReportRepository) LowStock(ctx context.Context, threshold int) ([]domain.StockAlert, error) {
	return r.alerts(ctx, `WHERE v.quantity < $1 ORDER BY v.quantity, b.id`, threshold)
}

// Expiring lista as variantes em estoque vencendo até cutoff.
func (r *ReportRepository) Expiring(ctx context.Context, cutoff time.Time) ([]domain.StockAlert, error) {
	return r.alerts(ctx, `WHERE `+isoDate+` AND v."expDate" <= $1 AND v.quantity > 0 ORDER BY v."expDate", b.id`,
		cutoff.Format("2006-01-02"))
}

func (r *ReportRepository) alerts(ctx context.Context, where string, arg interface{}) ([]domain.StockAlert, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := database.Conn(ctx, r.DB).QueryContext(ctxTimeout, `
		SELECT b.id, b.batch_number, b.item_kind, b.item_id, COALESCE(v.size, ''), COALESCE(v.quantity, 0), COALESCE(v."expDate", '')
		FROM `+variantRows+` `+where, arg)
	if err != nil {
		return nil, r.fail("Falha ao gerar alerta de estoque", err)
	}
	defer rows.Close()

	out := []domain.StockAlert{}
	for rows.Next() {
		var (
			a    domain.StockAlert
			kind string
		)
		if err := rows.Scan(&a.BatchID, &a.BatchNumber, &kind, &a.Item.ID, &a.Size, &a.Quantity, &a.ExpDate); err != nil {
			return nil, r.fail("Falha ao ler alerta de estoque", err)
		}
		a.Item.Kind = domain.ItemKind(kind)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *ReportRepository) queryRow(ctx context.Context, query string, args []interface{}, dest ...interface{}) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()
	return database.Conn(ctx, r.DB).QueryRowContext(ctxTimeout, query, args...).Scan(dest...)
}

func (r *ReportRepository) fail(msg string, err error) error {
	r.logger.Error(msg+".", err)
	return errors.NewDBError(msg, err)
}
