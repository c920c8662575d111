package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sniper.log")

	opts := DefaultOptions()
	opts.Debug = true
	opts.LogFile = path
	log, closeFn, err := New(opts)
	require.NoError(t, err)

	log.Named("pool-listener").Debug("Pool detected", zap.String("pool", "P1"))
	_ = log.Sync()
	closeFn()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "Pool detected", entry["msg"])
	assert.Equal(t, "P1", entry["pool"])
	assert.Equal(t, "pool-listener", entry["logger"])
}

func TestNewInfoLevelDropsDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sniper.log")

	log, closeFn, err := New(Options{LogFile: path})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("visible")
	_ = log.Sync()
	closeFn()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "visible")
}

func TestNewWithoutFile(t *testing.T) {
	log, closeFn, err := New(Options{})
	require.NoError(t, err)
	defer closeFn()

	assert.False(t, log.Core().Enabled(zap.DebugLevel))
	assert.True(t, log.Core().Enabled(zap.InfoLevel))
}
