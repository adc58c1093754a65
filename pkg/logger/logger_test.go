package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Levels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		log, err := NewLogger(level, "json")
		require.NoError(t, err, level)

		var want zapcore.Level
		require.NoError(t, want.UnmarshalText([]byte(level)))
		assert.True(t, log.Core().Enabled(want), level)
	}
}

func TestNewLogger_InfoHidesDebug(t *testing.T) {
	log, err := NewLogger("info", "console")
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLogger_Rejects(t *testing.T) {
	_, err := NewLogger("loud", "json")
	assert.Error(t, err)

	_, err = NewLogger("info", "xml")
	assert.Error(t, err)
}
