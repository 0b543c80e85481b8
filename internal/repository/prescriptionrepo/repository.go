package prescriptionrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pharmacart/internal/domain"
	"pharmacart/internal/errors"
	"pharmacart/internal/pkg/database"
	"pharmacart/internal/pkg/logger"
)

const columns = `id, user_id, customer_name, email, phone, image_url, notes, status, review_note, reviewed_by, reviewed_at, created_at`

// PrescriptionRepository persiste as receitas enviadas pelos clientes.
type PrescriptionRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewPrescriptionRepository cria o repositório.
func NewPrescriptionRepository(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *PrescriptionRepository {
	return &PrescriptionRepository{DB: db, DBTimeout: dbTimeout, logger: log}
}

// Save insere uma receita nova.
func (r *PrescriptionRepository) Save(ctx context.Context, p domain.Prescription) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	_, err := database.Conn(ctx, r.DB).ExecContext(ctxTimeout,
		`INSERT INTO prescriptions (`+columns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		p.ID, p.UserID, p.CustomerName, p.Email, p.Phone, p.ImageURL, p.Notes, string(p.Status),
		p.ReviewNote, p.ReviewedBy, p.ReviewedAt, p.CreatedAt)
	if err != nil {
		r.logger.Error("Falha ao inserir receita.", err)
		return errors.NewDBError("Falha ao inserir receita", err)
	}
	return nil
}

// FindByID busca uma receita.
func (r *PrescriptionRepository) FindByID(ctx context.Context, id string) (domain.Prescription, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	p, err := scan(database.Conn(ctx, r.DB).QueryRowContext(ctxTimeout, `SELECT `+columns+` FROM prescriptions WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return domain.Prescription{}, errors.NewNotFoundError(fmt.Sprintf("Receita %s não existe.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar receita.", err)
		return domain.Prescription{}, errors.NewDBError("Falha ao buscar receita", err)
	}
	return p, nil
}

// ListByUser devolve as receitas do cliente.
func (r *PrescriptionRepository) ListByUser(ctx context.Context, userID string) ([]domain.Prescription, error) {
	return r.query(ctx, `SELECT `+columns+` FROM prescriptions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// List devolve uma página de receitas, opcionalmente filtrada por status.
func (r *PrescriptionRepository) List(ctx context.Context, filter domain.PrescriptionFilter) ([]domain.Prescription, error) {
	page := filter.Page.Normalize()
	if filter.Status != "" {
		return r.query(ctx, `SELECT `+columns+` FROM prescriptions WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
			string(filter.Status), page.Limit, page.Offset())
	}
	return r.query(ctx, `SELECT `+columns+` FROM prescriptions ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset())
}

// Review grava a decisão se a receita ainda estiver no status esperado.
func (r *PrescriptionRepository) Review(ctx context.Context, p domain.Prescription, from domain.PrescriptionStatus) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := database.Conn(ctx, r.DB).ExecContext(ctxTimeout, `
		UPDATE prescriptions SET status = $2, review_note = $3, reviewed_by = $4, reviewed_at = $5
		WHERE id = $1 AND status = $6`,
		p.ID, string(p.Status), p.ReviewNote, p.ReviewedBy, p.ReviewedAt, string(from))
	if err != nil {
		r.logger.Error("Falha ao revisar receita.", err)
		return errors.NewDBError("Falha ao revisar receita", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewConflictError("A receita foi revisada por outra operação.")
	}
	return nil
}

func (r *PrescriptionRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Prescription, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := database.Conn(ctx, r.DB).QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar receitas.", err)
		return nil, errors.NewDBError("Falha ao listar receitas", err)
	}
	defer rows.Close()

	out := []domain.Prescription{}
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, errors.NewDBError("Falha ao ler receita", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scan(s scanner) (domain.Prescription, error) {
	var (
		p          domain.Prescription
		status     string
		reviewedAt sql.NullTime
	)
	err := s.Scan(&p.ID, &p.UserID, &p.CustomerName, &p.Email, &p.Phone, &p.ImageURL, &p.Notes, &status,
		&p.ReviewNote, &p.ReviewedBy, &reviewedAt, &p.CreatedAt)
	p.Status = domain.PrescriptionStatus(status)
	if reviewedAt.Valid {
		t := reviewedAt.Time
		p.ReviewedAt = &t
	}
	return p, err
}
