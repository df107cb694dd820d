package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendCtx(t *testing.T) {
	var buf bytes.Buffer
	log := Logger(&buf, true, slog.LevelInfo)

	ctx := AppendCtx(context.Background(), slog.String("job", "42"))
	ctx = AppendCtx(ctx, slog.Int("page", 3))
	log.InfoContext(ctx, "page done", "rows", 10)
	log.DebugContext(ctx, "dropped")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "page done", rec["msg"])
	assert.Equal(t, "42", rec["job"])
	assert.Equal(t, float64(3), rec["page"])
	assert.Equal(t, float64(10), rec["rows"])
}

func TestAppendCtx_DoesNotLeakToParent(t *testing.T) {
	parent := AppendCtx(context.Background(), slog.String("a", "1"))
	_ = AppendCtx(parent, slog.String("b", "2"))

	var buf bytes.Buffer
	Logger(&buf, false, slog.LevelInfo).InfoContext(parent, "x")
	assert.Contains(t, buf.String(), "a=1")
	assert.NotContains(t, buf.String(), "b=2")
}

func TestRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rasterbmp.log")
	w := RotatingFile(path, 1, 1)
	log := Logger(w, false, slog.LevelDebug)
	log.Debug("hello")
	require.NoError(t, w.Close())
	assert.FileExists(t, path)
}
