package flatten_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/transform-edge/internal/flatten"
)

func TestFlattenUnflattenRoundTrip(t *testing.T) {
	tree := map[string]any{
		"a": map[string]any{
			"b": "c",
			"d": []any{"x", "y", "z"},
		},
		"e": float64(3),
		"f": map[string]any{},
		"g": []any{},
	}

	flat := flatten.Flatten(tree)
	assert.Equal(t, "c", flat["a.b"])
	assert.Equal(t, "x", flat["a.d.0"])
	assert.Equal(t, "y", flat["a.d.1"])
	assert.Equal(t, "z", flat["a.d.2"])
	assert.Equal(t, float64(3), flat["e"])

	got := flatten.Unflatten(flat)
	require.Equal(t, tree, got)
}

func TestFlattenEmptyContainersAreLeaves(t *testing.T) {
	tree := map[string]any{"arr": []any{}, "obj": map[string]any{}}
	flat := flatten.Flatten(tree)
	assert.Contains(t, flat, "arr")
	assert.Contains(t, flat, "obj")
}

func TestGetPath(t *testing.T) {
	tree := map[string]any{
		"modules": map[string]any{
			"core": map[string]any{
				"config": map[string]any{
					"logging": map[string]any{"level": "info"},
					"tags":    []any{"a", "b"},
				},
			},
		},
	}

	v, ok := flatten.GetPath(tree, "modules.core.config.logging.level")
	require.True(t, ok)
	assert.Equal(t, "info", v)

	v, ok = flatten.GetPath(tree, "modules.core.config.tags.1")
	require.True(t, ok)
	assert.Equal(t, "b", v)

	_, ok = flatten.GetPath(tree, "modules.core.config.missing")
	assert.False(t, ok)

	_, ok = flatten.GetPath(tree, "modules.core.config.tags.9")
	assert.False(t, ok)
}

func TestGetPathEmptyPathReturnsTree(t *testing.T) {
	tree := map[string]any{"a": 1}
	v, ok := flatten.GetPath(tree, "")
	require.True(t, ok)
	assert.Equal(t, tree, v)
}
