package catalogrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"pharmacart/internal/domain"
	"pharmacart/internal/errors"
	"pharmacart/internal/pkg/cache"
	"pharmacart/internal/pkg/database"
	"pharmacart/internal/pkg/logger"
)

// Define a chave de cache para itens de catálogo.
const itemCacheKey = "catalog:%s:%s"

const selectColumns = `id, sku, name, brand, category, description, sizes, prices, main_image_url,
	sub_image_urls, dynamic_fields, prescription_required, approved, deleted, created_at, updated_at`

// CatalogRepository persiste os dois catálogos (products e mb_products).
// Leituras por ID usam cache-aside com singleflight para evitar stampede.
type CatalogRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	CacheTTL  time.Duration
	DBTimeout time.Duration
	logger    logger.Logger
	group     singleflight.Group
}

// NewCatalogRepository cria e retorna uma nova instância do Repositório.
func NewCatalogRepository(db *sql.DB, cacheClient cache.Client, cacheTTL, dbTimeout time.Duration, log logger.Logger) *CatalogRepository {
	return &CatalogRepository{
		DB:        db,
		Cache:     cacheClient,
		CacheTTL:  cacheTTL,
		DBTimeout: dbTimeout,
		logger:    log,
	}
}

func tableFor(kind domain.ItemKind) (string, error) {
	switch kind {
	case domain.KindProduct:
		return "products", nil
	case domain.KindMotherBaby:
		return "mb_products", nil
	}
	return "", errors.NewInvalidReferenceError(fmt.Sprintf("tipo de item desconhecido '%s'.", kind))
}

func cacheKey(ref domain.ItemRef) string {
	return fmt.Sprintf(itemCacheKey, ref.Kind, ref.ID)
}

// Save insere um novo item. SKU duplicado vira ConflictError.
func (r *CatalogRepository) Save(ctx context.Context, item domain.CatalogItem) error {
	table, err := tableFor(item.Kind)
	if err != nil {
		return err
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	dynamic, err := json.Marshal(nonNilMap(item.DynamicFields))
	if err != nil {
		return errors.NewInternalError("Falha ao serializar campos dinâmicos", err)
	}

	query := `INSERT INTO ` + table + ` (id, sku, name, brand, category, description, sizes, prices,
		main_image_url, sub_image_urls, dynamic_fields, prescription_required, approved, deleted, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,FALSE,$14,$15)`

	_, err = database.Conn(ctx, r.DB).ExecContext(ctxTimeout, query,
		item.ID, item.SKU, item.Name, item.Brand, item.Category, item.Description,
		pq.Array(nonNilStrings(item.Sizes)), pq.Array(decimalsToStrings(item.Prices)),
		item.MainImageURL, pq.Array(nonNilStrings(item.SubImageURLs)), string(dynamic),
		item.PrescriptionRequired, item.Approved, item.CreatedAt, item.UpdatedAt,
	)
	if database.IsUniqueViolation(err) {
		return errors.NewConflictError(fmt.Sprintf("Já existe um item com o SKU '%s'.", item.SKU))
	}
	if err != nil {
		r.logger.Error("Falha ao inserir item de catálogo.", err)
		return errors.NewDBError("Falha ao inserir item de catálogo", err)
	}
	return nil
}

// Update substitui os campos mutáveis de um item não excluído.
func (r *CatalogRepository) Update(ctx context.Context, item domain.CatalogItem) error {
	table, err := tableFor(item.Kind)
	if err != nil {
		return err
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	dynamic, err := json.Marshal(nonNilMap(item.DynamicFields))
	if err != nil {
		return errors.NewInternalError("Falha ao serializar campos dinâmicos", err)
	}

	query := `UPDATE ` + table + ` SET sku=$2, name=$3, brand=$4, category=$5, description=$6, sizes=$7,
		prices=$8, main_image_url=$9, sub_image_urls=$10, dynamic_fields=$11, prescription_required=$12, updated_at=$13
		WHERE id=$1 AND NOT deleted`

	res, err := database.Conn(ctx, r.DB).ExecContext(ctxTimeout, query,
		item.ID, item.SKU, item.Name, item.Brand, item.Category, item.Description,
		pq.Array(nonNilStrings(item.Sizes)), pq.Array(decimalsToStrings(item.Prices)),
		item.MainImageURL, pq.Array(nonNilStrings(item.SubImageURLs)), string(dynamic),
		item.PrescriptionRequired, item.UpdatedAt,
	)
	if database.IsUniqueViolation(err) {
		return errors.NewConflictError(fmt.Sprintf("Já existe um item com o SKU '%s'.", item.SKU))
	}
	if err := r.checkAffected(res, err, item.Ref(), "atualizar"); err != nil {
		return err
	}
	r.invalidate(ctx, item.Ref())
	return nil
}

// SetApproved aprova ou reprova um item.
func (r *CatalogRepository) SetApproved(ctx context.Context, ref domain.ItemRef, approved bool) error {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return err
	}
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := database.Conn(ctx, r.DB).ExecContext(ctxTimeout,
		`UPDATE `+table+` SET approved=$2, updated_at=now() WHERE id=$1 AND NOT deleted`, ref.ID, approved)
	if err := r.checkAffected(res, err, ref, "aprovar"); err != nil {
		return err
	}
	r.invalidate(ctx, ref)
	return nil
}

// SoftDelete marca o item como excluído. Lotes e pedidos antigos permanecem.
func (r *CatalogRepository) SoftDelete(ctx context.Context, ref domain.ItemRef) error {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return err
	}
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := database.Conn(ctx, r.DB).ExecContext(ctxTimeout,
		`UPDATE `+table+` SET deleted=TRUE, updated_at=now() WHERE id=$1 AND NOT deleted`, ref.ID)
	if err := r.checkAffected(res, err, ref, "excluir"); err != nil {
		return err
	}
	r.invalidate(ctx, ref)
	return nil
}

func (r *CatalogRepository) checkAffected(res sql.Result, err error, ref domain.ItemRef, op string) error {
	if err != nil {
		r.logger.Error(fmt.Sprintf("Falha ao %s item de catálogo.", op), err)
		return errors.NewDBError(fmt.Sprintf("Falha ao %s item de catálogo", op), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if n == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Item %s não existe.", ref))
	}
	return nil
}

func (r *CatalogRepository) invalidate(ctx context.Context, ref domain.ItemRef) {
	if err := r.Cache.Delete(ctx, cacheKey(ref)); err != nil {
		r.logger.Warn("Falha ao invalidar cache do catálogo.", map[string]interface{}{"item": ref.String(), "error": err.Error()})
	}
}

// FindByID busca um item não excluído, utilizando a estratégia Cache-Aside.
func (r *CatalogRepository) FindByID(ctx context.Context, ref domain.ItemRef) (domain.CatalogItem, error) {
	key := cacheKey(ref)

	// 1. Cache
	if cached, err := r.Cache.Get(ctx, key); err == nil {
		var item domain.CatalogItem
		if json.Unmarshal([]byte(cached), &item) == nil {
			return item, nil
		}
	} else if err != cache.ErrCacheMiss {
		r.logger.Warn("Falha ao ler do cache; consultando o DB.", map[string]interface{}{"key": key, "error": err.Error()})
	}

	// 2. DB, com singleflight para colapsar buscas concorrentes da mesma chave.
	// Dentro de transação a busca é feita direto, sem compartilhar resultado.
	if database.InTx(ctx) {
		return r.findByID(ctx, ref)
	}
	val, err, _ := r.group.Do(key, func() (interface{}, error) {
		item, err := r.findByID(ctx, ref)
		if err != nil {
			return nil, err
		}
		// 3. Popular o cache
		if data, marshalErr := json.Marshal(item); marshalErr == nil {
			if setErr := r.Cache.Set(ctx, key, data, r.CacheTTL); setErr != nil {
				r.logger.Warn("Falha ao gravar no cache.", map[string]interface{}{"key": key, "error": setErr.Error()})
			}
		}
		return item, nil
	})
	if err != nil {
		return domain.CatalogItem{}, err
	}
	return val.(domain.CatalogItem), nil
}

func (r *CatalogRepository) findByID(ctx context.Context, ref domain.ItemRef) (domain.CatalogItem, error) {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return domain.CatalogItem{}, err
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	row := database.Conn(ctx, r.DB).QueryRowContext(ctxTimeout,
		`SELECT `+selectColumns+` FROM `+table+` WHERE id = $1 AND NOT deleted`, ref.ID)
	item, err := scanItem(row, ref.Kind)
	if err == sql.ErrNoRows {
		return domain.CatalogItem{}, errors.NewNotFoundError(fmt.Sprintf("Item %s não existe.", ref))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar item de catálogo no DB.", err)
		return domain.CatalogItem{}, errors.NewDBError("Falha ao buscar item de catálogo", err)
	}
	return item, nil
}

// List devolve uma página de itens não excluídos e o total de acordo com os filtros.
func (r *CatalogRepository) List(ctx context.Context, filter domain.CatalogFilter) ([]domain.CatalogItem, int, error) {
	table, err := tableFor(filter.Kind)
	if err != nil {
		return nil, 0, err
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	where := []string{"NOT deleted"}
	var args []interface{}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR sku ILIKE $%d)", len(args), len(args)))
	}
	if c := strings.TrimSpace(filter.Category); c != "" {
		args = append(args, c)
		where = append(where, fmt.Sprintf("lower(category) = lower($%d)", len(args)))
	}
	if filter.ApprovedOnly {
		where = append(where, "approved")
	}
	cond := strings.Join(where, " AND ")

	conn := database.Conn(ctx, r.DB)

	var total int
	if err := conn.QueryRowContext(ctxTimeout, `SELECT count(*) FROM `+table+` WHERE `+cond, args...).Scan(&total); err != nil {
		r.logger.Error("Falha ao contar itens de catálogo.", err)
		return nil, 0, errors.NewDBError("Falha ao contar itens de catálogo", err)
	}

	page := filter.Page.Normalize()
	args = append(args, page.Limit, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		selectColumns, table, cond, len(args)-1, len(args))

	rows, err := conn.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar itens de catálogo.", err)
		return nil, 0, errors.NewDBError("Falha ao listar itens de catálogo", err)
	}
	defer rows.Close()

	items := make([]domain.CatalogItem, 0, page.Limit)
	for rows.Next() {
		item, err := scanItem(rows, filter.Kind)
		if err != nil {
			return nil, 0, errors.NewDBError("Falha ao ler item de catálogo", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewDBError("Falha ao iterar itens de catálogo", err)
	}
	return items, total, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(s scanner, kind domain.ItemKind) (domain.CatalogItem, error) {
	var (
		item    domain.CatalogItem
		sizes   pq.StringArray
		prices  pq.StringArray
		subImgs pq.StringArray
		dynamic []byte
	)
	err := s.Scan(&item.ID, &item.SKU, &item.Name, &item.Brand, &item.Category, &item.Description,
		&sizes, &prices, &item.MainImageURL, &subImgs, &dynamic,
		&item.PrescriptionRequired, &item.Approved, &item.Deleted, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return domain.CatalogItem{}, err
	}

	item.Kind = kind
	item.Sizes = []string(sizes)
	item.SubImageURLs = []string(subImgs)
	item.Prices = make([]decimal.Decimal, 0, len(prices))
	for _, p := range prices {
		d, err := decimal.NewFromString(p)
		if err != nil {
			return domain.CatalogItem{}, fmt.Errorf("preço inválido %q: %w", p, err)
		}
		item.Prices = append(item.Prices, d)
	}
	if len(dynamic) > 0 {
		if err := json.Unmarshal(dynamic, &item.DynamicFields); err != nil {
			return domain.CatalogItem{}, fmt.Errorf("campos dinâmicos inválidos: %w", err)
		}
	}
	return item, nil
}

func decimalsToStrings(in []decimal.Decimal) []string {
	out := make([]string, len(in))
	for i, d := range in {
		out[i] = d.String()
	}
	return out
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func nonNilMap(in map[string]string) map[string]string {
	if in == nil {
		return map[string]string{}
	}
	return in
}
