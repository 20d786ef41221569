package obslog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/transform-edge/internal/obslog"
)

func TestNewSlogNilFallsBackToDefault(t *testing.T) {
	l := obslog.NewSlog(nil)
	require.NotNil(t, l)
	l.Info(context.Background(), "hello")
}

func TestOrDefaultPassesThroughNonNil(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))
	l := obslog.NewSlog(base)

	got := obslog.OrDefault(l)
	got.Warn(context.Background(), "careful", "k", "v")

	assert.Contains(t, buf.String(), "careful")
	assert.Contains(t, buf.String(), "k=v")
}

func TestBreadcrumbLogsAtDebugWithMarker(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	l := obslog.NewSlog(base)

	l.Breadcrumb(context.Background(), "probed format", "format", "webp")

	out := buf.String()
	assert.Contains(t, out, "probed format")
	assert.Contains(t, out, "kind=breadcrumb")
	assert.Contains(t, out, "format=webp")
}
