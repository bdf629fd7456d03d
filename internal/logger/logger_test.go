package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IsNoopUntilInit(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithConsole(&buf))
	l.Log.Info("dropped")
	assert.Empty(t, buf.String())
}

func TestInit_WritesJSONAtLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithConsole(&buf))
	require.NoError(t, l.Init("warn"))

	l.Log.Info("too quiet")
	l.Log.Warn("upload failed")
	_ = l.Log.Sync()

	out := buf.String()
	assert.NotContains(t, out, "too quiet")
	assert.Contains(t, out, `"msg":"upload failed"`)
	assert.Contains(t, out, `"timestamp"`)
}

func TestInit_BadLevel(t *testing.T) {
	l := New()
	err := l.Init("loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}

func TestInit_WithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	var buf bytes.Buffer
	l := New(WithConsole(&buf), WithFile(path))
	require.NoError(t, l.Init("info"))

	l.Log.Info("staged document")
	_ = l.Log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "staged document")
}
