package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
}

func TestNewFileLogger_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")
	log := NewFileLogger(path, "info", FileOptions{})
	log.Info("strategy finished")
	log.Debug("not written")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "strategy finished")
	assert.NotContains(t, string(data), "not written")
}
