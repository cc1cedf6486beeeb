package logx

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_DebugEnablesDebugLevel(t *testing.T) {
	logger := New(Options{Debug: true})
	assert.True(t, logger.Enabled(nil, slog.LevelDebug))
}

func TestNew_DefaultLevelIsInfo(t *testing.T) {
	logger := New(Options{})
	assert.False(t, logger.Enabled(nil, slog.LevelDebug))
	assert.True(t, logger.Enabled(nil, slog.LevelInfo))
}

func TestNew_WritesToRotatedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sunsetr.log")
	logger := New(Options{FilePath: path})
	logger.Info("hello")

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestDuration_NeverNegative(t *testing.T) {
	s := Duration(-5 * time.Second)
	assert.NotEmpty(t, s)
}
