package otp

import (
	"context"
	"net/http"

	"pharmacart/internal/api/response"
	"pharmacart/internal/domain"
	"pharmacart/internal/pkg/logger"
)

type OTPService interface {
	Request(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) error
	Reset(ctx context.Context, in domain.OTPReset) error
}

// Handler expõe a redefinição de senha de administradores por código.
type Handler struct {
	response.Responder
	Service OTPService
}

func NewHandler(svc OTPService, log logger.Logger) *Handler {
	return &Handler{Responder: response.Responder{Logger: log}, Service: svc}
}

// RequestHandler lida com POST /api/otp/request.
// @Summary Envia um código de redefinição por e-mail
// @Tags otp
// @Accept json
// @Param body body domain.OTPRequest true "Email do admin"
// @Success 204
// @Failure 404 {object} domain.ErrorResponse
// @Failure 429 {object} domain.ErrorResponse "Aguarde antes de pedir outro código"
// @Router /otp/request [post]
func (h *Handler) RequestHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.OTPRequest
	if err := response.Decode(r, &in); err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusNoContent)
		return
	}
	err := h.Service.Request(r.Context(), in.Email)
	h.HandleServiceResponse(w, r, nil, err, http.StatusNoContent)
}

// VerifyHandler lida com POST /api/otp/verify.
// @Summary Confere um código sem consumi-lo
// @Tags otp
// @Accept json
// @Param body body domain.OTPVerify true "Email e código"
// @Success 204
// @Failure 401 {object} domain.ErrorResponse "Código inválido ou expirado"
// @Router /otp/verify [post]
func (h *Handler) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.OTPVerify
	if err := response.Decode(r, &in); err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusNoContent)
		return
	}
	err := h.Service.Verify(r.Context(), in.Email, in.Code)
	h.HandleServiceResponse(w, r, nil, err, http.StatusNoContent)
}

// ResetHandler lida com POST /api/otp/reset.
// @Summary Redefine a senha com um código válido
// @Tags otp
// @Accept json
// @Param body body domain.OTPReset true "Email, código e nova senha"
// @Success 204
// @Router /otp/reset [post]
func (h *Handler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.OTPReset
	if err := response.Decode(r, &in); err != nil {
		h.HandleServiceResponse(w, r, nil, err, http.StatusNoContent)
		return
	}
	err := h.Service.Reset(r.Context(), in)
	h.HandleServiceResponse(w, r, nil, err, http.StatusNoContent)
}
