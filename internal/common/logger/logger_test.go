package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestZapWrapper_FieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	log.WithFields(map[string]interface{}{"index": "frameworks"}).
		WithError(errors.New("boom")).
		Warn("search failed", map[string]interface{}{"took": 12})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "search failed", entries[0].Message)
		assert.Equal(t, "frameworks", ctx["index"])
		assert.Equal(t, "boom", ctx["error"])
		assert.EqualValues(t, 12, ctx["took"])
	}
}

func TestNewNoOpLogger(t *testing.T) {
	log := NewNoOpLogger()
	log.Info("ignored", nil)
	assert.NoError(t, log.Sync())
}
