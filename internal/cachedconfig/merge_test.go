package cachedconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/transform-edge/internal/configstore"
)

func TestMergeSnapshotModulePriorityOverridesLowerModules(t *testing.T) {
	fallback := buildFallback(Options{Environment: "development"})

	snap := configstore.ConfigSnapshot{
		Modules: map[string]configstore.ConfigModule{
			"cache": {Config: map[string]any{"enabled": false, "prefix": "from-cache"}},
			"image-resizer": {Config: map[string]any{
				"cache": map[string]any{"enabled": true},
			}},
		},
	}

	merged := mergeSnapshot(fallback, snap)

	cache := merged["cache"].(map[string]any)
	assert.Equal(t, "from-cache", cache["prefix"], "cache module's own field survives the merge")
	assert.Equal(t, true, cache["enabled"], "image-resizer has higher priority and wins the conflicting key")
}

func TestMergeSnapshotLiftsTransformDerivativesAndResponsive(t *testing.T) {
	fallback := buildFallback(Options{})
	snap := configstore.ConfigSnapshot{
		Modules: map[string]configstore.ConfigModule{
			"transform": {Config: map[string]any{
				"derivatives": map[string]any{"thumbnail": map[string]any{"width": float64(200)}},
				"responsive":  map[string]any{"enabled": true, "breakpoints": []any{float64(320), float64(768)}},
			}},
		},
	}

	merged := mergeSnapshot(fallback, snap)

	derivatives := merged["derivatives"].(map[string]any)
	require.Contains(t, derivatives, "thumbnail")

	responsive := merged["responsive"].(map[string]any)
	assert.Equal(t, true, responsive["enabled"])
}

func TestMergeSnapshotSynthesizesStorageAliasesBothDirections(t *testing.T) {
	fallback := buildFallback(Options{})

	flatFirst := configstore.ConfigSnapshot{
		Modules: map[string]configstore.ConfigModule{
			"storage": {Config: map[string]any{"remoteUrl": "https://flat.example.com"}},
		},
	}
	merged := mergeSnapshot(fallback, flatFirst)
	storage := merged["storage"].(map[string]any)
	remote := storage["remote"].(map[string]any)
	assert.Equal(t, "https://flat.example.com", remote["url"])

	nestedFirst := configstore.ConfigSnapshot{
		Modules: map[string]configstore.ConfigModule{
			"storage": {Config: map[string]any{
				"fallback": map[string]any{"url": "https://nested.example.com"},
			}},
		},
	}
	merged2 := mergeSnapshot(fallback, nestedFirst)
	storage2 := merged2["storage"].(map[string]any)
	assert.Equal(t, "https://nested.example.com", storage2["fallbackUrl"])
}

func TestMergeSnapshotPatchesInvalidCriticalFieldsFromFallback(t *testing.T) {
	fallback := buildFallback(Options{})

	snap := configstore.ConfigSnapshot{
		Modules: map[string]configstore.ConfigModule{
			"cache":   {Config: map[string]any{"ttl": map[string]any{"ok": "not-a-number"}}},
			"storage": {Config: map[string]any{"priority": "not-an-array"}},
		},
	}

	merged := mergeSnapshot(fallback, snap)

	cache := merged["cache"].(map[string]any)
	ttl := cache["ttl"].(map[string]any)
	assert.Equal(t, float64(86400), ttl["ok"], "invalid ttl.ok patched back from fallback")

	storage := merged["storage"].(map[string]any)
	_, isArray := storage["priority"].([]any)
	assert.True(t, isArray, "invalid storage.priority patched back from fallback")
}

func TestMergeSnapshotKeepsValidCriticalFieldsUnpatched(t *testing.T) {
	fallback := buildFallback(Options{})
	snap := configstore.ConfigSnapshot{
		Modules: map[string]configstore.ConfigModule{
			"cache": {Config: map[string]any{"ttl": map[string]any{"ok": float64(3600)}}},
		},
	}
	merged := mergeSnapshot(fallback, snap)
	cache := merged["cache"].(map[string]any)
	ttl := cache["ttl"].(map[string]any)
	assert.Equal(t, float64(3600), ttl["ok"])
}
