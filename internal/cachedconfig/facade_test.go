package cachedconfig

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/transform-edge/internal/configstore"
)

type errBox struct{ err error }

type fakeSource struct {
	snap atomic.Value // configstore.ConfigSnapshot
	err  atomic.Value // errBox
}

func newFakeSource(snap configstore.ConfigSnapshot) *fakeSource {
	s := &fakeSource{}
	s.snap.Store(snap)
	s.err.Store(errBox{})
	return s
}

func (s *fakeSource) Snapshot(ctx context.Context) (configstore.ConfigSnapshot, error) {
	if b, _ := s.err.Load().(errBox); b.err != nil {
		return configstore.ConfigSnapshot{}, b.err
	}
	return s.snap.Load().(configstore.ConfigSnapshot), nil
}

func (s *fakeSource) setErr(err error) { s.err.Store(errBox{err: err}) }

func TestNewSeedsHotSnapshotFromFallback(t *testing.T) {
	f := New(newFakeSource(configstore.ConfigSnapshot{}), Options{Environment: "staging"}, nil, nil)
	cfg := f.GetConfig(context.Background())
	cache := cfg["cache"].(map[string]any)
	assert.Equal(t, true, cache["enabled"])
}

func TestInitializeKeepsFallbackPlusOverlayOnSourceFailure(t *testing.T) {
	src := newFakeSource(configstore.ConfigSnapshot{})
	src.setErr(errors.New("kv unavailable"))

	f := New(src, Options{Environment: "production"}, nil, nil)
	require.NoError(t, f.Initialize(context.Background()))
	defer f.Close()

	cfg := f.GetConfig(context.Background())
	cache := cfg["cache"].(map[string]any)
	assert.Equal(t, true, cache["enabled"], "emergency overlay force-enables the cache even on refresh failure")

	features := cfg["features"].(map[string]any)
	assert.Equal(t, true, features["forceTransformCache"])
}

func TestInitializeMergesFromSourceOnSuccess(t *testing.T) {
	snap := configstore.ConfigSnapshot{
		Modules: map[string]configstore.ConfigModule{
			"cache": {Config: map[string]any{"prefix": "from-kv"}},
		},
	}
	f := New(newFakeSource(snap), Options{Environment: "production"}, nil, nil)
	require.NoError(t, f.Initialize(context.Background()))
	defer f.Close()

	cfg := f.GetConfig(context.Background())
	cache := cfg["cache"].(map[string]any)
	assert.Equal(t, "from-kv", cache["prefix"])
}

func TestGetConfigReturnsDefensiveCopy(t *testing.T) {
	f := New(newFakeSource(configstore.ConfigSnapshot{}), Options{}, nil, nil)
	first := f.GetConfig(context.Background())
	first["cache"].(map[string]any)["enabled"] = false

	second := f.GetConfig(context.Background())
	assert.Equal(t, true, second["cache"].(map[string]any)["enabled"], "mutating a returned copy must not affect the hot snapshot")
}

func TestGetSectionMissingReturnsFalse(t *testing.T) {
	f := New(newFakeSource(configstore.ConfigSnapshot{}), Options{}, nil, nil)
	_, ok := f.GetSection(context.Background(), "nonexistent")
	assert.False(t, ok)
}

func TestBackgroundLoopRecoversAfterTransientFailure(t *testing.T) {
	src := newFakeSource(configstore.ConfigSnapshot{
		Modules: map[string]configstore.ConfigModule{
			"cache": {Config: map[string]any{"prefix": "recovered"}},
		},
	})
	src.setErr(errors.New("initially down"))

	f := New(src, Options{RefreshIntervalMs: 20}, nil, nil)
	require.NoError(t, f.Initialize(context.Background()))
	defer f.Close()

	src.setErr(nil)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		cfg := f.GetConfig(context.Background())
		if cfg["cache"].(map[string]any)["prefix"] == "recovered" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("background loop never recovered the config from the source")
}
