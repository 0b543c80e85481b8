package admin

import (
	"context"
	"net/http"

	"pharmacart/internal/api/response"
	"pharmacart/internal/domain"
	"pharmacart/internal/pkg/logger"
)

// AdminService define o contrato que o Handler espera da camada de Serviço.
type AdminService interface {
	Create(ctx context.Context, in domain.AdminInput) (domain.Admin, error)
	Login(ctx context.Context, creds domain.Credentials) (domain.AuthToken, error)
	List(ctx context.Context) ([]domain.Admin, error)
	Get(ctx context.Context, id string) (domain.Admin, error)
	Update(ctx context.Context, actor domain.Actor, id string, in domain.AdminUpdate) (domain.Admin, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error
	ChangePassword(ctx context.Context, actor domain.Actor, in domain.PasswordChange) error
}

// Handler agrupa os Handlers de contas administrativas.
type Handler struct {
	response.Responder
	Service AdminService
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc AdminService, log logger.Logger) *Handler {
	return &Handler{Responder: response.Responder{Logger: log}, Service: svc}
}

// LoginHandler lida com POST /api/admins/login.
// @Summary Autentica um administrador
// @Tags admins
// @Accept json
// @Produce json
// @Param login body domain.Credentials true "Email e senha"
// @Success 200 {object} domain.AuthToken
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse "Conta desativada"
// @Router /admins/login [post]
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := response.Decode(r, &creds); err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	tok, err := h.Service.Login(r.Context(), creds)
	h.HandleServiceResponse(w, r, tok, err, http.StatusOK)
}

// CreateHandler lida com POST /api/admins (super admin).
// @Summary Cria um administrador
// @Tags admins
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param admin body domain.AdminInput true "Novo admin"
// @Success 201 {object} domain.Admin
// @Failure 409 {object} domain.ErrorResponse "Email já cadastrado"
// @Router /admins [post]
func (h *Handler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.AdminInput
	if err := response.Decode(r, &in); err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}
	a, err := h.Service.Create(r.Context(), in)
	h.HandleServiceResponse(w, r, a, err, http.StatusCreated)
}

// ListHandler lida com GET /api/admins.
// @Summary Lista os administradores
// @Tags admins
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Admin
// @Router /admins [get]
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	h.HandleServiceResponse(w, r, list, err, http.StatusOK)
}

// GetHandler lida com GET /api/admins/{id}.
// @Summary Busca um administrador
// @Tags admins
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do admin"
// @Success 200 {object} domain.Admin
// @Router /admins/{id} [get]
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	a, err := h.Service.Get(r.Context(), response.ID(r))
	h.HandleServiceResponse(w, r, a, err, http.StatusOK)
}

// UpdateHandler lida com PATCH /api/admins/{id} (super admin).
// @Summary Altera nome e situação de um administrador
// @Tags admins
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do admin"
// @Param admin body domain.AdminUpdate true "Alterações"
// @Success 200 {object} domain.Admin
// @Router /admins/{id} [patch]
func (h *Handler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	var in domain.AdminUpdate
	if err := response.Decode(r, &in); err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	a, err := h.Service.Update(r.Context(), actor, response.ID(r), in)
	h.HandleServiceResponse(w, r, a, err, http.StatusOK)
}

// DeleteHandler lida com DELETE /api/admins/{id} (super admin).
// @Summary Remove um administrador (não a própria conta)
// @Tags admins
// @Security BearerAuth
// @Param id path string true "ID do admin"
// @Success 204
// @Router /admins/{id} [delete]
func (h *Handler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err == nil {
		err = h.Service.Delete(r.Context(), actor, response.ID(r))
	}
	h.HandleServiceResponse(w, r, nil, err, http.StatusNoContent)
}

// ChangePasswordHandler lida com POST /api/admins/me/password.
// @Summary Troca a senha do administrador autenticado
// @Tags admins
// @Accept json
// @Security BearerAuth
// @Param body body domain.PasswordChange true "Senha atual e nova"
// @Success 204
// @Failure 401 {object} domain.ErrorResponse "Senha atual incorreta"
// @Router /admins/me/password [post]
func (h *Handler) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusNoContent)
		return
	}
	var in domain.PasswordChange
	if err := response.Decode(r, &in); err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusNoContent)
		return
	}
	err = h.Service.ChangePassword(r.Context(), actor, in)
	h.HandleServiceResponse(w, r, nil, err, http.StatusNoContent)
}
