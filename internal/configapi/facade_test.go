package configapi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/transform-edge/internal/configstore"
	"github.com/vitaliisemenov/transform-edge/internal/kvstore"
)

func newTestFacade(env map[string]string, environment string) *Facade {
	store := configstore.NewStore(kvstore.NewMemoryStore(nil), nil)
	return New(store, Options{Env: env, Environment: environment})
}

func TestResolveEnvRefsProduction(t *testing.T) {
	env := map[string]string{"AWS_KEY": "abc"}
	got := ResolveEnvRefs("${AWS_KEY}@${MISSING}", env, true)
	assert.Equal(t, "abc@", got)
}

func TestResolveEnvRefsProductionSecretLikeMissing(t *testing.T) {
	env := map[string]string{}
	got := ResolveEnvRefs("${DB_PASSWORD}", env, true)
	assert.Equal(t, "[MISSING_SECRET]", got)
}

func TestResolveEnvRefsNonProduction(t *testing.T) {
	env := map[string]string{"AWS_KEY": "abc"}
	got := ResolveEnvRefs("${AWS_KEY}@${MISSING}", env, false)
	assert.Equal(t, "abc@[ENV:MISSING]", got)
}

func TestRegisterModuleAppendsActiveModulesAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(nil, "development")

	meta, err := f.RegisterModule(ctx, "core", configstore.ModuleMeta{Version: "1.0"}, map[string]any{"features": map[string]any{"x": true}})
	require.NoError(t, err)
	assert.Equal(t, "v1", meta.ID)

	// Re-registering is a no-op: no new version, zero-value metadata.
	meta2, err := f.RegisterModule(ctx, "core", configstore.ModuleMeta{Version: "1.0"}, map[string]any{})
	require.NoError(t, err)
	assert.Empty(t, meta2.ID)
}

func TestIsFeatureEnabledChecksCoreFirstThenOtherModules(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(nil, "development")

	_, err := f.RegisterModule(ctx, "core", configstore.ModuleMeta{}, map[string]any{"features": map[string]any{"beta": false}})
	require.NoError(t, err)
	_, err = f.RegisterModule(ctx, "transform", configstore.ModuleMeta{}, map[string]any{"features": map[string]any{"beta": true, "other": true}})
	require.NoError(t, err)

	assert.False(t, f.IsFeatureEnabled(ctx, "beta"))  // core wins even though false
	assert.True(t, f.IsFeatureEnabled(ctx, "other"))  // falls through to transform module
	assert.False(t, f.IsFeatureEnabled(ctx, "absent")) // missing everywhere
}

func TestGetValueDottedLookup(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(nil, "development")

	_, err := f.RegisterModule(ctx, "core", configstore.ModuleMeta{}, map[string]any{
		"logging": map[string]any{"level": "info"},
	})
	require.NoError(t, err)

	got := f.GetValue(ctx, "modules.core.config.logging.level", "fallback")
	assert.Equal(t, "info", got)

	missing := f.GetValue(ctx, "modules.core.config.logging.missing", "fallback")
	assert.Equal(t, "fallback", missing)
}

func TestUpdateModuleRequiresComment(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(nil, "development")

	_, err := f.UpdateModule(ctx, "core", map[string]any{}, "", "admin")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestValidateSnapshotRejectsMissingDependency(t *testing.T) {
	f := newTestFacade(nil, "development")
	snap := configstore.ConfigSnapshot{
		Modules: map[string]configstore.ConfigModule{
			"transform": {Meta: configstore.ModuleMeta{ModuleDependencies: []string{"core"}}},
		},
	}
	err := f.ValidateSnapshot(snap)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestActivateVersionNotFound(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(nil, "development")
	err := f.ActivateVersion(ctx, "v5")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSnapshotEmptyStoreReturnsEmptySnapshot(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(nil, "development")
	snap, err := f.Snapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap.Modules)
}

func TestSnapshotResolvesEnvRefsInModuleConfig(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(map[string]string{"AWS_KEY": "abc"}, "production")

	_, err := f.RegisterModule(ctx, "core", configstore.ModuleMeta{}, map[string]any{
		"secret": "${AWS_KEY}",
	})
	require.NoError(t, err)

	snap, err := f.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", snap.Modules["core"].Config["secret"])
}
