// Package response concentra o que todos os handlers repetem: resposta JSON padronizada,
// leitura de payload, paginação e o ator autenticado.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pharmacart/internal/domain"
	apperror "pharmacart/internal/errors"
	"pharmacart/internal/pkg/logger"
	"pharmacart/internal/pkg/middleware"
)

// Responder é embutido nos Handlers de cada recurso.
type Responder struct {
	Logger logger.Logger
}

// HandleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h Responder) HandleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err != nil {
		status, category, _ := apperror.MapToHTTPStatus(err)
		if status >= 500 {
			h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
		} else {
			h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category),
				map[string]interface{}{"method": r.Method, "path": r.URL.Path})
		}
		middleware.WriteError(w, err)
		return
	}

	if data == nil {
		w.WriteHeader(successStatus)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(successStatus)
	if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
		h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
	}
}

// Decode lê o corpo JSON da requisição.
func Decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.NewValidationError("Payload JSON inválido.")
	}
	return nil
}

// Actor devolve quem fez a requisição, a partir das claims do JWT.
func Actor(r *http.Request) (domain.Actor, error) {
	claims, ok := middleware.GetUserClaimsFromContext(r.Context())
	if !ok {
		return domain.Actor{}, apperror.NewUnauthorizedError("Autorização necessária.")
	}
	return domain.Actor{ID: claims.UserID, Role: claims.Role}, nil
}

// ID lê o parâmetro de rota {id}.
func ID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// QueryInt lê um inteiro da query string; ausente ou inválido devolve def.
func QueryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Page lê page e limit da query string.
func Page(r *http.Request) domain.Page {
	return domain.Page{Page: QueryInt(r, "page", 1), Limit: QueryInt(r, "limit", domain.DefaultPageLimit)}.Normalize()
}
