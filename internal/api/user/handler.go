package user

import (
	"context"
	"net/http"

	"pharmacart/internal/api/response"
	"pharmacart/internal/domain"
	"pharmacart/internal/pkg/logger"
)

// UserService define o contrato para as operações de registro e login.
type UserService interface {
	Register(ctx context.Context, registration domain.UserRegistration) (domain.User, error)
	Login(ctx context.Context, creds domain.Credentials) (domain.AuthToken, error)
	Me(ctx context.Context, actor domain.Actor) (domain.User, error)
}

// Handler agrupa todos os métodos de Handler do cliente.
type Handler struct {
	response.Responder
	Service UserService
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc UserService, log logger.Logger) *Handler {
	return &Handler{Responder: response.Responder{Logger: log}, Service: svc}
}

// RegisterUserHandler lida com a requisição POST /api/auth/register.
// @Summary Registra um novo cliente
// @Description Cria um novo cliente, faz o hash da senha e salva no banco de dados.
// @Tags auth
// @Accept json
// @Produce json
// @Param registration body domain.UserRegistration true "Dados de registro"
// @Success 201 {object} domain.User
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 409 {object} domain.ErrorResponse "Email já cadastrado"
// @Failure 429 {object} domain.ErrorResponse
// @Router /auth/register [post]
func (h *Handler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var reg domain.UserRegistration
	if err := response.Decode(r, &reg); err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}

	// ConflictError (e-mail duplicado) vira 409.
	newUser, err := h.Service.Register(r.Context(), reg)
	h.HandleServiceResponse(w, r, newUser, err, http.StatusCreated)
}

// LoginUserHandler lida com a requisição POST /api/auth/login.
// @Summary Autentica um cliente e retorna um JWT
// @Tags auth
// @Accept json
// @Produce json
// @Param login body domain.Credentials true "Email e senha"
// @Success 200 {object} domain.AuthToken
// @Failure 401 {object} domain.ErrorResponse "Credenciais inválidas"
// @Router /auth/login [post]
func (h *Handler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := response.Decode(r, &creds); err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	tok, err := h.Service.Login(r.Context(), creds)
	h.HandleServiceResponse(w, r, tok, err, http.StatusOK)
}

// MeHandler lida com a requisição GET /api/auth/me.
// @Summary Perfil do cliente autenticado
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.User
// @Router /auth/me [get]
func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	u, err := h.Service.Me(r.Context(), actor)
	h.HandleServiceResponse(w, r, u, err, http.StatusOK)
}
