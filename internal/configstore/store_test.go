package configstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/transform-edge/internal/kvstore"
)

func newTestStore() *Store {
	return NewStore(kvstore.NewMemoryStore(nil), nil)
}

func baseSnapshot(loggingLevel string) ConfigSnapshot {
	return ConfigSnapshot{
		Meta: SnapshotMeta{ActiveModules: []string{"core"}},
		Modules: map[string]ConfigModule{
			"core": {
				Meta: ModuleMeta{Name: "core", Version: "1.0"},
				Config: map[string]any{
					"logging": map[string]any{"level": loggingLevel},
				},
			},
		},
	}
}

func TestStoreConfigFirstVersionIsV1WithNoParent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	meta, err := s.StoreConfig(ctx, baseSnapshot("info"), StoreConfigInput{Author: "a", Comment: "init", Modules: []string{"core"}})
	require.NoError(t, err)
	assert.Equal(t, "v1", meta.ID)
	assert.Empty(t, meta.Parent)
}

func TestStoreConfigSecondVersionLinksParentAndChanges(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.StoreConfig(ctx, baseSnapshot("info"), StoreConfigInput{Author: "a", Comment: "init"})
	require.NoError(t, err)

	meta, err := s.StoreConfig(ctx, baseSnapshot("debug"), StoreConfigInput{Author: "a", Comment: "bump level"})
	require.NoError(t, err)

	assert.Equal(t, "v2", meta.ID)
	assert.Equal(t, "v1", meta.Parent)
	assert.Contains(t, meta.Changes, "modules.core.config.logging.level")
}

func TestCompareVersionsModifiedPath(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.StoreConfig(ctx, baseSnapshot("info"), StoreConfigInput{Author: "a", Comment: "init"})
	require.NoError(t, err)
	_, err = s.StoreConfig(ctx, baseSnapshot("debug"), StoreConfigInput{Author: "a", Comment: "bump"})
	require.NoError(t, err)

	cs, err := s.CompareVersions(ctx, "v1", "v2")
	require.NoError(t, err)
	assert.Contains(t, cs.Modified, "modules.core.config.logging.level")
	assert.Empty(t, cs.Added)
	assert.Empty(t, cs.Removed)
}

func TestActivateVersionRollback(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.StoreConfig(ctx, baseSnapshot("info"), StoreConfigInput{Author: "a", Comment: "init"})
	require.NoError(t, err)
	_, err = s.StoreConfig(ctx, baseSnapshot("debug"), StoreConfigInput{Author: "a", Comment: "bump"})
	require.NoError(t, err)

	ok, err := s.ActivateVersion(ctx, "v1")
	require.NoError(t, err)
	assert.True(t, ok)

	current, err := s.GetCurrentConfig(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "v1", current.Meta.Version)
}

func TestActivateVersionRejectsMissing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	ok, err := s.ActivateVersion(ctx, "v99")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrVersionNotFound)
}

func TestGetCurrentConfigEmptyStoreIsNilNotError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	snap, err := s.GetCurrentConfig(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestGetCurrentConfigServesFromCacheWhenVersionUnchanged(t *testing.T) {
	ctx := context.Background()
	mem := kvstore.NewMemoryStore(nil)
	s := NewStore(mem, nil)

	_, err := s.StoreConfig(ctx, baseSnapshot("info"), StoreConfigInput{Author: "a", Comment: "init"})
	require.NoError(t, err)

	first, err := s.GetCurrentConfig(ctx)
	require.NoError(t, err)

	// Corrupt the underlying snapshot key directly; a cache hit must not
	// notice, since "current" still points at the same version.
	require.NoError(t, mem.Delete(ctx, versionKey("v1")))

	second, err := s.GetCurrentConfig(ctx)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.Meta.Version, second.Meta.Version)
}

func TestUpdateModuleConfigCreatesNewVersion(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.StoreConfig(ctx, baseSnapshot("info"), StoreConfigInput{Author: "a", Comment: "init"})
	require.NoError(t, err)

	meta, err := s.UpdateModuleConfig(ctx, "core", map[string]any{"logging": map[string]any{"level": "warn"}}, StoreConfigInput{Author: "admin", Comment: "module update"})
	require.NoError(t, err)
	assert.Equal(t, "v2", meta.ID)

	mod, err := s.GetModuleConfig(ctx, "core")
	require.NoError(t, err)
	require.NotNil(t, mod)
	assert.Equal(t, "warn", mod.Config["logging"].(map[string]any)["level"])
}

func TestListVersionsSortsDescendingByTimestamp(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.StoreConfig(ctx, baseSnapshot("info"), StoreConfigInput{Author: "a", Comment: "init"})
	require.NoError(t, err)
	_, err = s.StoreConfig(ctx, baseSnapshot("debug"), StoreConfigInput{Author: "a", Comment: "bump"})
	require.NoError(t, err)

	versions, _, complete, err := s.ListVersions(ctx, 10, "")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.True(t, complete)
	assert.Equal(t, "v2", versions[0].ID)
	assert.Equal(t, "v1", versions[1].ID)
}

func TestSnapshotHashIsStablePrefixedSha256(t *testing.T) {
	h := snapshotHash(baseSnapshot("info"))
	assert.Contains(t, h, "sha256:")
	assert.Len(t, h, len("sha256:")+64)
}
