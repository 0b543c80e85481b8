package inventoryrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"pharmacart/internal/domain"
	"pharmacart/internal/errors"
	"pharmacart/internal/pkg/database"
	"pharmacart/internal/pkg/logger"
)

const batchColumns = `id, item_kind, item_id, batch_number, stock_status, variants, version, created_at, last_updated`

// InventoryRepository persiste os lotes de estoque com suas variantes embutidas (JSONB).
// Toda escrita passa pelo controle de concorrência otimista (coluna version).
type InventoryRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewInventoryRepository cria e retorna uma nova instância do Repositório de Estoque.
func NewInventoryRepository(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *InventoryRepository {
	return &InventoryRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    log,
	}
}

// ListByItem devolve os lotes do item na ordem de carga (criação, depois id).
func (r *InventoryRepository) ListByItem(ctx context.Context, ref domain.ItemRef) ([]domain.InventoryBatch, error) {
	return r.list(ctx, ref, false)
}

// ListByItemForUpdate é o ListByItem com FOR UPDATE: bloqueia as linhas dos lotes até o
// fim da transação corrente. Precisa ser chamado dentro de Transactor.WithinTx.
func (r *InventoryRepository) ListByItemForUpdate(ctx context.Context, ref domain.ItemRef) ([]domain.InventoryBatch, error) {
	if !database.InTx(ctx) {
		return nil, errors.NewInternalError("ListByItemForUpdate exige uma transação aberta", nil)
	}
	return r.list(ctx, ref, true)
}

func (r *InventoryRepository) list(ctx context.Context, ref domain.ItemRef, lock bool) ([]domain.InventoryBatch, error) {
	r.logger.Debug("Buscando lotes do item.", map[string]interface{}{"item": ref.String(), "lock": lock})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + batchColumns + ` FROM inventory_batches
		WHERE item_kind = $1 AND item_id = $2
		ORDER BY created_at, id`
	if lock {
		query += ` FOR UPDATE`
	}

	rows, err := database.Conn(ctx, r.DB).QueryContext(ctxTimeout, query, string(ref.Kind), ref.ID)
	if err != nil {
		r.logger.Error("Falha ao buscar lotes do item.", err)
		return nil, errors.NewDBError("Falha ao buscar lotes", err)
	}
	defer rows.Close()

	var batches []domain.InventoryBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, errors.NewDBError("Falha ao ler lote", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar lotes", err)
	}
	return batches, nil
}

// FindByID busca um lote pelo ID.
func (r *InventoryRepository) FindByID(ctx context.Context, id string) (domain.InventoryBatch, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	row := database.Conn(ctx, r.DB).QueryRowContext(ctxTimeout,
		`SELECT `+batchColumns+` FROM inventory_batches WHERE id = $1`, id)
	b, err := scanBatch(row)
	if err == sql.ErrNoRows {
		return domain.InventoryBatch{}, errors.NewNotFoundError(fmt.Sprintf("Lote %s não existe.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar lote.", err)
		return domain.InventoryBatch{}, errors.NewDBError("Falha ao buscar lote", err)
	}
	return b, nil
}

// Insert grava um lote novo.
func (r *InventoryRepository) Insert(ctx context.Context, b domain.InventoryBatch) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	variants, err := marshalVariants(b.Variants)
	if err != nil {
		return err
	}

	_, err = database.Conn(ctx, r.DB).ExecContext(ctxTimeout,
		`INSERT INTO inventory_batches (`+batchColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		b.ID, string(b.Item.Kind), b.Item.ID, b.BatchNumber, string(b.StockStatus), variants, b.Version, b.CreatedAt, b.LastUpdated)
	if err != nil {
		r.logger.Error("Falha ao inserir lote.", err)
		return errors.NewDBError("Falha ao inserir lote", err)
	}

	r.logger.Info("Lote criado.", map[string]interface{}{"batch_id": b.ID, "batch_number": b.BatchNumber, "item": b.Item.String()})
	return nil
}

// Save grava número, rótulo e variantes do lote se a versão ainda for b.Version.
// Caso outra transação tenha alterado o lote antes, devolve ConflictError.
func (r *InventoryRepository) Save(ctx context.Context, b domain.InventoryBatch) (domain.InventoryBatch, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	variants, err := marshalVariants(b.Variants)
	if err != nil {
		return domain.InventoryBatch{}, err
	}

	result, err := database.Conn(ctx, r.DB).ExecContext(ctxTimeout, `
		UPDATE inventory_batches
		SET batch_number = $1, stock_status = $2, variants = $3, version = $4, last_updated = $5
		WHERE id = $6 AND version = $7`,
		b.BatchNumber, string(b.StockStatus), variants, b.Version+1, b.LastUpdated, b.ID, b.Version,
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar lote.", err)
		return domain.InventoryBatch{}, errors.NewDBError("Falha ao atualizar lote", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.InventoryBatch{}, errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		r.logger.Warn("Falha no controle de concorrência otimista (OCC). Versão do lote desatualizada.", map[string]interface{}{
			"batch_id":         b.ID,
			"expected_version": b.Version,
		})
		return domain.InventoryBatch{}, errors.NewConflictError("O lote foi modificado por outra operação. Tente novamente.")
	}

	b.Version++
	return b, nil
}

// Delete remove um lote.
func (r *InventoryRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := database.Conn(ctx, r.DB).ExecContext(ctxTimeout, `DELETE FROM inventory_batches WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao excluir lote.", err)
		return errors.NewDBError("Falha ao excluir lote", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Lote %s não existe.", id))
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBatch(s scanner) (domain.InventoryBatch, error) {
	var (
		b        domain.InventoryBatch
		kind     string
		status   string
		variants []byte
	)
	if err := s.Scan(&b.ID, &kind, &b.Item.ID, &b.BatchNumber, &status, &variants, &b.Version, &b.CreatedAt, &b.LastUpdated); err != nil {
		return domain.InventoryBatch{}, err
	}
	b.Item.Kind = domain.ItemKind(kind)
	b.StockStatus = domain.StockStatus(status)
	if err := json.Unmarshal(variants, &b.Variants); err != nil {
		return domain.InventoryBatch{}, fmt.Errorf("variantes inválidas no lote %s: %w", b.ID, err)
	}
	return b, nil
}

// marshalVariants devolve string: o lib/pq envia []byte como bytea, não como jsonb.
func marshalVariants(v []domain.BatchVariant) (string, error) {
	if v == nil {
		v = []domain.BatchVariant{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", errors.NewInternalError("Falha ao serializar variantes", err)
	}
	return string(data), nil
}
