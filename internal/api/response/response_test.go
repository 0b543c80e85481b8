package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacart/internal/domain"
	apperror "pharmacart/internal/errors"
	"pharmacart/internal/pkg/logger"
	"pharmacart/internal/pkg/middleware"
)

func TestHandleServiceResponse(t *testing.T) {
	h := Responder{Logger: logger.NewNop()}
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	t.Run("sucesso com corpo", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleServiceResponse(rec, req, map[string]string{"ok": "sim"}, nil, http.StatusCreated)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"ok":"sim"}`, rec.Body.String())
	})

	t.Run("sucesso sem corpo", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleServiceResponse(rec, req, nil, nil, http.StatusNoContent)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("erro tipado", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleServiceResponse(rec, req, nil, apperror.NewInsufficientStockError("PRODUCT:1", "XL", 1, 0), http.StatusOK)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var body domain.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "INSUFFICIENT_STOCK", body.Category)
	})

	t.Run("erro interno não vaza a causa", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleServiceResponse(rec, req, nil, apperror.NewDBError("Falha", errors.New("pq: senha errada")), http.StatusOK)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "pq:")
	})
}

func TestDecode(t *testing.T) {
	var dst domain.Credentials
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.com"`))

	err := Decode(req, &dst)

	var ve *apperror.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestActor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := Actor(req)
	var ue *apperror.UnauthorizedError
	assert.True(t, errors.As(err, &ue))

	req = req.WithContext(middleware.WithClaims(req.Context(), middleware.UserClaims{UserID: "u-1", Role: domain.RoleUser}))
	actor, err := Actor(req)
	require.NoError(t, err)
	assert.Equal(t, domain.Actor{ID: "u-1", Role: domain.RoleUser}, actor)
}

func TestPage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&limit=500", nil)
	assert.Equal(t, domain.Page{Page: 3, Limit: domain.MaxPageLimit}, Page(req))

	req = httptest.NewRequest(http.MethodGet, "/?page=abc", nil)
	assert.Equal(t, domain.Page{Page: 1, Limit: domain.DefaultPageLimit}, Page(req))
}
