package knuffimap

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	zapobserver "go.uber.org/zap/zaptest/observer"
)

func TestLogger(t *testing.T) {
	buff := bytes.NewBuffer(nil)
	l := NewLogger(LoggerWriter(buff))
	l.Log("[KnuffiMap]", "", "Name", "scores")
	assert.Equal(t, "[KnuffiMap]  Name scores\n", buff.String())

	// the default logger discards everything.
	NewLogger().Log("Name", "scores")
}

func TestZapLogger(t *testing.T) {
	core, logs := zapobserver.New(zapcore.InfoLevel)
	l := NewZapLogger(zap.New(core))

	l.Log("[KnuffiMap]", "", "Name", "scores", "Action", "Open")
	l.Log("[KnuffiMap]", "", "Name", "scores", "Error", errors.New("boom"))
	l.Log("Action", "Close", "Error", nil)

	entries := logs.All()
	if assert.Len(t, entries, 3) {
		assert.Equal(t, "KnuffiMap", entries[0].LoggerName)
		assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
		assert.Equal(t, "scores", entries[0].ContextMap()["Name"])
		assert.Equal(t, "Open", entries[0].ContextMap()["Action"])

		assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)

		assert.Equal(t, "", entries[2].LoggerName)
		assert.Equal(t, zapcore.InfoLevel, entries[2].Level)
	}
}
