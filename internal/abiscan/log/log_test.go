package log

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupAndRecoverPanic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abiscan.log")
	Setup(path, true)
	Setup("", false) // ignored
	require.True(t, Initialized())

	cleaned := false
	func() {
		defer RecoverPanic("worker", func() { cleaned = true })
		panic("boom")
	}()
	assert.True(t, cleaned)

	slog.Debug("after panic")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Panic in worker")
	assert.Contains(t, string(data), "boom")
	assert.Contains(t, string(data), "after panic")
}

func TestRecoverPanicWithoutPanic(t *testing.T) {
	called := false
	func() {
		defer RecoverPanic("noop", func() { called = true })
	}()
	assert.False(t, called)
}
