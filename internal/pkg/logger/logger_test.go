package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_WritesFieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core))

	log.Info("pedido criado", map[string]interface{}{"order_id": "o-1", "items": 2})
	log.Error("falha no DB", errors.New("timeout"))

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, "pedido criado", entries[0].Message)
	assert.Equal(t, "o-1", entries[0].ContextMap()["order_id"])
	assert.Equal(t, "timeout", entries[1].ContextMap()["error"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("qualquer"))
}
