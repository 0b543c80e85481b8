package contactrepo

import (
	"context"
	"database/sql"
	"time"

	"pharmacart/internal/domain"
	"pharmacart/internal/errors"
	"pharmacart/internal/pkg/database"
	"pharmacart/internal/pkg/logger"
)

// ContactRepository guarda as mensagens do formulário de contato.
type ContactRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

func NewContactRepository(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *ContactRepository {
	return &ContactRepository{DB: db, DBTimeout: dbTimeout, logger: log}
}

func (r *ContactRepository) Save(ctx context.Context, m domain.ContactMessage) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	_, err := database.Conn(ctx, r.DB).ExecContext(ctxTimeout, `
		INSERT INTO contact_messages (id, name, email, phone, subject, message, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		m.ID, m.Name, m.Email, m.Phone, m.Subject, m.Message, m.CreatedAt)
	if err != nil {
		r.logger.Error("Falha ao gravar mensagem de contato.", err)
		return errors.NewDBError("Falha ao gravar mensagem de contato", err)
	}
	return nil
}

// List devolve uma página de mensagens, mais recentes primeiro.
func (r *ContactRepository) List(ctx context.Context, page domain.Page) ([]domain.ContactMessage, error) {
	page = page.Normalize()
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := database.Conn(ctx, r.DB).QueryContext(ctxTimeout, `
		SELECT id, name, email, phone, subject, message, created_at
		FROM contact_messages ORDER BY created_at DESC LIMIT $1 OFFSET $2`, page.Limit, page.Offset())
	if err != nil {
		r.logger.Error("Falha ao listar mensagens de contato.", err)
		return nil, errors.NewDBError("Falha ao listar mensagens de contato", err)
	}
	defer rows.Close()

	out := []domain.ContactMessage{}
	for rows.Next() {
		var m domain.ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.Subject, &m.Message, &m.CreatedAt); err != nil {
			return nil, errors.NewDBError("Falha ao ler mensagem de contato", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := database.Conn(ctx, r.DB).ExecContext(ctxTimeout, `DELETE FROM contact_messages WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao remover mensagem de contato.", err)
		return errors.NewDBError("Falha ao remover mensagem de contato", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFoundError("Mensagem não encontrada.")
	}
	return nil
}
