package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Querier é o subconjunto comum entre *sql.DB e *sql.Tx usado pelos repositórios.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type txKey struct{}

// Conn devolve a transação corrente do contexto, ou o pool quando não há transação.
func Conn(ctx context.Context, db *sql.DB) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// InTx informa se o contexto carrega uma transação aberta.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sql.Tx)
	return ok
}

// Transactor abre uma transação e a propaga pelo contexto para os repositórios.
type Transactor struct {
	DB *sql.DB
}

// NewTransactor cria um Transactor sobre o pool.
func NewTransactor(db *sql.DB) *Transactor {
	return &Transactor{DB: db}
}

// WithinTx executa fn dentro de uma transação. Se fn retornar erro (ou entrar em pânico)
// a transação é desfeita; caso contrário é commitada.
// Chamadas aninhadas reaproveitam a transação externa.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if InTx(ctx) {
		return fn(ctx)
	}

	tx, err := t.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("falha ao iniciar transação: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("falha ao commitar transação: %w", err)
	}
	return nil
}

// IsUniqueViolation detecta violação de chave única (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
