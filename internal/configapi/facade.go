// Package configapi implements the Config API: a module-oriented
// facade atop the Config Version Store adding environment-variable
// resolution, module registration, dotted value lookup, feature-flag
// resolution, and the administrative operation surface (list/get/activate
// versions, register/update modules, compare versions, validate a
// candidate snapshot).
package configapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/vitaliisemenov/transform-edge/internal/configstore"
	"github.com/vitaliisemenov/transform-edge/internal/flatten"
	"github.com/vitaliisemenov/transform-edge/internal/obslog"
)

// SnapshotValidator is the capability configapi needs from a schema
// validator to implement the "validate a candidate snapshot" admin
// operation. SchemaValidator is the default implementation; tests can
// supply a trivial stub.
type SnapshotValidator interface {
	ValidateSnapshot(snap configstore.ConfigSnapshot) (valid bool, errs []string)
}

// Facade is the Config API.
type Facade struct {
	store      *configstore.Store
	validator  SnapshotValidator
	logger     obslog.Logger
	env        map[string]string
	production bool
}

// Options configures a Facade.
type Options struct {
	Env         map[string]string
	Environment string // e.g. "production", "staging", "development"
	Validator   SnapshotValidator
	Logger      obslog.Logger
}

// New builds a Facade over store.
func New(store *configstore.Store, opts Options) *Facade {
	return &Facade{
		store:      store,
		validator:  opts.Validator,
		logger:     obslog.OrDefault(opts.Logger),
		env:        opts.Env,
		production: isProduction(opts.Environment),
	}
}

// GetModule returns a single module's config with env-var references in
// its string leaves resolved against the injected environment map.
func (f *Facade) GetModule(ctx context.Context, name string) (map[string]any, error) {
	mod, err := f.store.GetModuleConfig(ctx, name)
	if err != nil {
		return nil, err
	}
	if mod == nil {
		return nil, fmt.Errorf("%w: module %s", ErrNotFound, name)
	}
	resolved := ResolveTree(mod.Config, f.env, f.production)
	out, _ := resolved.(map[string]any)
	return out, nil
}

// UpdateModule replaces one module's config and stores the result as a
// new version. The comment is required; the author defaults to "api".
// The candidate snapshot is validated before anything is written, so a
// validation failure aborts the store entirely.
func (f *Facade) UpdateModule(ctx context.Context, name string, cfg map[string]any, comment, author string) (configstore.VersionMetadata, error) {
	if comment == "" {
		return configstore.VersionMetadata{}, fmt.Errorf("%w: comment is required", ErrInvalidRequest)
	}
	if author == "" {
		author = "api"
	}

	current, err := f.store.GetCurrentConfig(ctx)
	if err != nil {
		return configstore.VersionMetadata{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if err := f.ValidateSnapshot(configstore.SnapshotWithModule(current, name, cfg)); err != nil {
		return configstore.VersionMetadata{}, err
	}

	meta, err := f.store.UpdateModuleConfig(ctx, name, cfg, configstore.StoreConfigInput{
		Author:  author,
		Comment: comment,
		Modules: []string{name},
	})
	if err != nil {
		return configstore.VersionMetadata{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return meta, nil
}

// RegisterModule appends name to _meta.activeModules, writes its
// defaults as the initial config, and stores a new snapshot authored
// "system" with a comment naming the module. Re-registering an already
// active module is a no-op.
func (f *Facade) RegisterModule(ctx context.Context, name string, meta configstore.ModuleMeta, defaults map[string]any) (configstore.VersionMetadata, error) {
	current, err := f.store.GetCurrentConfig(ctx)
	if err != nil {
		return configstore.VersionMetadata{}, err
	}

	snap := configstore.ConfigSnapshot{Modules: map[string]configstore.ConfigModule{}}
	if current != nil {
		snap = configstore.CopySnapshot(*current)
	}

	if containsString(snap.Meta.ActiveModules, name) {
		return configstore.VersionMetadata{}, nil
	}

	meta.Name = name
	snap.Meta.ActiveModules = append(append([]string(nil), snap.Meta.ActiveModules...), name)
	snap.Modules[name] = configstore.ConfigModule{Meta: meta, Config: defaults}

	if err := f.ValidateSnapshot(snap); err != nil {
		return configstore.VersionMetadata{}, err
	}

	return f.store.StoreConfig(ctx, snap, configstore.StoreConfigInput{
		Author:  "system",
		Comment: "register module " + name,
		Modules: []string{name},
	})
}

// GetValue performs a dotted-path lookup against the current snapshot,
// returning def when any segment is missing. Paths are rooted at the
// snapshot tree, e.g. "modules.core.config.logging.level".
func (f *Facade) GetValue(ctx context.Context, path string, def any) any {
	current, err := f.store.GetCurrentConfig(ctx)
	if err != nil || current == nil {
		return def
	}
	tree := snapshotTree(*current)
	v, ok := flatten.GetPath(tree, path)
	if !ok {
		return def
	}
	return v
}

// IsFeatureEnabled searches core.features first, then every other
// module's features object; core always wins a conflict.
func (f *Facade) IsFeatureEnabled(ctx context.Context, name string) bool {
	current, err := f.store.GetCurrentConfig(ctx)
	if err != nil || current == nil {
		return false
	}

	if core, ok := current.Modules["core"]; ok {
		if enabled, found := lookupFeature(core.Config, name); found {
			return enabled
		}
	}
	for modName, mod := range current.Modules {
		if modName == "core" {
			continue
		}
		if enabled, found := lookupFeature(mod.Config, name); found {
			return enabled
		}
	}
	return false
}

func lookupFeature(cfg map[string]any, name string) (bool, bool) {
	features, ok := cfg["features"].(map[string]any)
	if !ok {
		return false, false
	}
	v, ok := features[name]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Snapshot returns the current config snapshot as the cached config
// facade (internal/cachedconfig) needs it: fully resolved against the
// injected environment, never nil on success (an empty store yields an
// empty snapshot with a nil Modules map).
func (f *Facade) Snapshot(ctx context.Context) (configstore.ConfigSnapshot, error) {
	current, err := f.store.GetCurrentConfig(ctx)
	if err != nil {
		return configstore.ConfigSnapshot{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if current == nil {
		return configstore.ConfigSnapshot{}, nil
	}
	resolved := ResolveTree(snapshotTree(*current), f.env, f.production)
	tree, _ := resolved.(map[string]any)

	out := *current
	if tree != nil {
		modules := make(map[string]configstore.ConfigModule, len(out.Modules))
		rawModules, _ := tree["modules"].(map[string]any)
		for name, mod := range out.Modules {
			cfg := mod.Config
			if rawMod, ok := rawModules[name].(map[string]any); ok {
				if rawCfg, ok := rawMod["config"].(map[string]any); ok {
					cfg = rawCfg
				}
			}
			modules[name] = configstore.ConfigModule{Meta: mod.Meta, Config: cfg}
		}
		out.Modules = modules
	}
	return out, nil
}

// ListVersions is the admin "list versions" operation.
func (f *Facade) ListVersions(ctx context.Context, limit int, cursor string) ([]configstore.VersionMetadata, string, bool, error) {
	versions, next, complete, err := f.store.ListVersions(ctx, limit, cursor)
	if err != nil {
		return nil, "", false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return versions, next, complete, nil
}

// GetVersion is the admin "get version by id" operation.
func (f *Facade) GetVersion(ctx context.Context, id string) (*configstore.ConfigSnapshot, error) {
	snap, err := f.store.GetConfigVersion(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if snap == nil {
		return nil, fmt.Errorf("%w: version %s", ErrNotFound, id)
	}
	return snap, nil
}

// ActivateVersion is the admin "activate a version id" operation.
func (f *Facade) ActivateVersion(ctx context.Context, id string) error {
	ok, err := f.store.ActivateVersion(ctx, id)
	if err != nil {
		if errors.Is(err, configstore.ErrVersionNotFound) {
			return fmt.Errorf("%w: version %s", ErrNotFound, id)
		}
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if !ok {
		return fmt.Errorf("%w: version %s", ErrNotFound, id)
	}
	return nil
}

// CompareVersions is the admin "compare two versions" operation.
func (f *Facade) CompareVersions(ctx context.Context, a, b string) (configstore.ChangeSet, error) {
	cs, err := f.store.CompareVersions(ctx, a, b)
	if err != nil {
		return configstore.ChangeSet{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return cs, nil
}

// ValidateSnapshot is the admin "validate a candidate snapshot"
// operation. A declared dependency on a module that is not present in
// the snapshot is fatal.
func (f *Facade) ValidateSnapshot(snap configstore.ConfigSnapshot) error {
	if missing := missingDependencies(snap); len(missing) > 0 {
		return fmt.Errorf("%w: missing module dependencies: %v", ErrValidationFailed, missing)
	}
	if f.validator == nil {
		return nil
	}
	if valid, errs := f.validator.ValidateSnapshot(snap); !valid {
		return fmt.Errorf("%w: %v", ErrValidationFailed, errs)
	}
	return nil
}

// missingDependencies returns every moduleDependencies entry that has no
// corresponding present module.
func missingDependencies(snap configstore.ConfigSnapshot) []string {
	var missing []string
	for _, mod := range snap.Modules {
		for _, dep := range mod.Meta.ModuleDependencies {
			if _, ok := snap.Modules[dep]; !ok {
				missing = append(missing, dep)
			}
		}
	}
	return missing
}

func snapshotTree(snap configstore.ConfigSnapshot) map[string]any {
	return toTreeJSON(snap)
}

func containsString(list []string, target string) bool {
	for _, v := range list {
		if v == target {
			return true
		}
	}
	return false
}
