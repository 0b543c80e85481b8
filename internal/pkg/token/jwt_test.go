package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewService("segredo", time.Hour)

	tok, err := svc.GenerateToken("u-1", "admin")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestValidate_WrongSecret(t *testing.T) {
	tok, err := NewService("a", time.Hour).GenerateToken("u-1", "user")
	require.NoError(t, err)

	_, err = NewService("b", time.Hour).ValidateToken(tok)
	assert.Error(t, err)
}

func TestValidate_Expired(t *testing.T) {
	svc := NewService("segredo", time.Minute)
	issued := time.Now().Add(-time.Hour)
	svc.now = func() time.Time { return issued }

	tok, err := svc.GenerateToken("u-1", "user")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(tok)
	assert.Error(t, err)
}
