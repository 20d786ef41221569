package configstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/vitaliisemenov/transform-edge/internal/flatten"
	"github.com/vitaliisemenov/transform-edge/internal/kvstore"
	"github.com/vitaliisemenov/transform-edge/internal/obslog"
)

// ErrVersionNotFound is returned when a referenced version id has no
// corresponding "config_v<N>" key in the KV store.
var ErrVersionNotFound = errors.New("configstore: version not found")

// Store is the Config Version Store. Callers normally reach it through
// internal/configapi, but it is exported standalone so configapi, tests,
// and cmd/transformctl can all depend on the same concrete type.
type Store struct {
	kv     kvstore.Store
	logger obslog.Logger

	mu             sync.RWMutex
	cachedVersion  string
	cachedSnapshot *ConfigSnapshot
}

// NewStore builds a Store over kv. A nil logger falls back to obslog.Default().
func NewStore(kv kvstore.Store, logger obslog.Logger) *Store {
	return &Store{kv: kv, logger: obslog.OrDefault(logger)}
}

// GetCurrentConfig reads the "current" pointer and the snapshot it names.
// It serves the last-read snapshot from an in-process cache when the
// pointer hasn't changed since. A missing "current"
// pointer (never written yet) returns (nil, nil) - not an error - so
// callers can distinguish "empty store" from "backend unavailable".
func (s *Store) GetCurrentConfig(ctx context.Context) (*ConfigSnapshot, error) {
	idBytes, err := s.kv.Get(ctx, keyCurrent)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("configstore: read current pointer: %w", err)
	}
	id := string(idBytes)

	s.mu.RLock()
	if s.cachedVersion == id && s.cachedSnapshot != nil {
		snap := *s.cachedSnapshot
		s.mu.RUnlock()
		return &snap, nil
	}
	s.mu.RUnlock()

	snap, err := s.GetConfigVersion(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		// "current" pointing at a missing snapshot is logged as an error
		// and surfaces as a nil snapshot so callers fall back to their
		// last-known-good copy.
		s.logger.Error(ctx, "configstore current points at missing snapshot", "version", id)
		return nil, nil
	}

	s.mu.Lock()
	s.cachedVersion = id
	cp := *snap
	s.cachedSnapshot = &cp
	s.mu.Unlock()

	return snap, nil
}

// GetConfigVersion reads a snapshot directly by id, with graceful
// fallback from typed JSON parsing to a generic-tree parse when the
// stored value doesn't decode cleanly into ConfigSnapshot.
func (s *Store) GetConfigVersion(ctx context.Context, id string) (*ConfigSnapshot, error) {
	b, err := s.kv.Get(ctx, versionKey(id))
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("configstore: read version %s: %w", id, err)
	}

	var snap ConfigSnapshot
	if err := json.Unmarshal(b, &snap); err == nil {
		return &snap, nil
	}

	// Fallback: parse as a generic tree and coerce into ConfigSnapshot's
	// shape rather than failing outright.
	var tree map[string]any
	if err := json.Unmarshal(b, &tree); err != nil {
		return nil, fmt.Errorf("configstore: version %s is not valid JSON: %w", id, err)
	}
	reencoded, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("configstore: version %s re-encode failed: %w", id, err)
	}
	if err := json.Unmarshal(reencoded, &snap); err != nil {
		return nil, fmt.Errorf("configstore: version %s could not be coerced: %w", id, err)
	}
	return &snap, nil
}

// loadHistory reads and JSON-decodes the "config_history" key, returning
// an empty slice (not an error) when it doesn't exist yet.
func (s *Store) loadHistory(ctx context.Context) ([]VersionMetadata, error) {
	b, err := s.kv.Get(ctx, keyHistory)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("configstore: read history: %w", err)
	}
	var history []VersionMetadata
	if err := json.Unmarshal(b, &history); err != nil {
		return nil, fmt.Errorf("configstore: decode history: %w", err)
	}
	return history, nil
}

// ListVersions loads the full history, sorts it descending by timestamp,
// and paginates by integer offset cursor.
func (s *Store) ListVersions(ctx context.Context, limit int, cursor string) ([]VersionMetadata, string, bool, error) {
	history, err := s.loadHistory(ctx)
	if err != nil {
		return nil, "", false, err
	}

	sorted := append([]VersionMetadata(nil), history...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	offset := 0
	if cursor != "" {
		if parsed, err := strconv.Atoi(cursor); err == nil && parsed > 0 {
			offset = parsed
		}
	}
	if offset > len(sorted) {
		offset = len(sorted)
	}
	if limit <= 0 {
		limit = len(sorted) - offset
	}
	end := offset + limit
	if end > len(sorted) {
		end = len(sorted)
	}

	complete := end >= len(sorted)
	nextCursor := ""
	if !complete {
		nextCursor = strconv.Itoa(end)
	}
	return sorted[offset:end], nextCursor, complete, nil
}

// StoreConfig computes the next version id, its content hash, its
// change-set relative to the current snapshot, and writes in the
// mandatory order value -> history -> pointer: a crash between any two
// of these steps must never leave "current" referencing a
// partially-written snapshot, so the pointer is always the last write.
func (s *Store) StoreConfig(ctx context.Context, snap ConfigSnapshot, input StoreConfigInput) (VersionMetadata, error) {
	history, err := s.loadHistory(ctx)
	if err != nil {
		return VersionMetadata{}, err
	}
	n := len(history) + 1
	id := versionID(n)

	current, err := s.GetCurrentConfig(ctx)
	if err != nil {
		return VersionMetadata{}, err
	}

	now := time.Now()
	snap.Meta.Version = id
	snap.Meta.LastUpdated = now

	var changes []string
	if current != nil {
		changes = flatten.ChangedPaths(snapshotToTree(*current), snapshotToTree(snap), "_meta.")
	}

	meta := VersionMetadata{
		ID:        id,
		Timestamp: now,
		Author:    input.Author,
		Comment:   input.Comment,
		Hash:      snapshotHash(snap),
		Parent:    parentOf(id, n),
		Modules:   input.Modules,
		Changes:   changes,
		Tags:      input.Tags,
	}

	snapBytes, err := json.Marshal(snap)
	if err != nil {
		return VersionMetadata{}, fmt.Errorf("configstore: marshal snapshot: %w", err)
	}
	if err := s.kv.Put(ctx, versionKey(id), snapBytes, kvstore.PutOptions{}); err != nil {
		return VersionMetadata{}, fmt.Errorf("configstore: write snapshot %s: %w", id, err)
	}

	newHistory := append(history, meta)
	historyBytes, err := json.Marshal(newHistory)
	if err != nil {
		return VersionMetadata{}, fmt.Errorf("configstore: marshal history: %w", err)
	}
	if err := s.kv.Put(ctx, keyHistory, historyBytes, kvstore.PutOptions{}); err != nil {
		// The snapshot is already durable and history lag is tolerated by
		// readers, so this is logged, not fatal to the caller seeing the
		// new version exist.
		s.logger.Error(ctx, "configstore history append failed", "version", id, "error", err)
	}

	if err := s.kv.Put(ctx, keyCurrent, []byte(id), kvstore.PutOptions{}); err != nil {
		return VersionMetadata{}, fmt.Errorf("configstore: activate %s: %w", id, err)
	}

	s.mu.Lock()
	s.cachedVersion = id
	cp := snap
	s.cachedSnapshot = &cp
	s.mu.Unlock()

	return meta, nil
}

// ActivateVersion overwrites "current" to point at id, after verifying
// the snapshot exists, and invalidates the read cache.
func (s *Store) ActivateVersion(ctx context.Context, id string) (bool, error) {
	snap, err := s.GetConfigVersion(ctx, id)
	if err != nil {
		return false, err
	}
	if snap == nil {
		return false, ErrVersionNotFound
	}
	if err := s.kv.Put(ctx, keyCurrent, []byte(id), kvstore.PutOptions{}); err != nil {
		return false, fmt.Errorf("configstore: activate %s: %w", id, err)
	}

	s.mu.Lock()
	s.cachedVersion = ""
	s.cachedSnapshot = nil
	s.mu.Unlock()

	return true, nil
}

// CompareVersions flattens both snapshots and partitions the union of
// dot-paths into added/removed/modified/unchanged, excluding "_meta.".
func (s *Store) CompareVersions(ctx context.Context, a, b string) (ChangeSet, error) {
	snapA, err := s.GetConfigVersion(ctx, a)
	if err != nil {
		return ChangeSet{}, err
	}
	snapB, err := s.GetConfigVersion(ctx, b)
	if err != nil {
		return ChangeSet{}, err
	}
	if snapA == nil {
		return ChangeSet{}, fmt.Errorf("configstore: %w: %s", ErrVersionNotFound, a)
	}
	if snapB == nil {
		return ChangeSet{}, fmt.Errorf("configstore: %w: %s", ErrVersionNotFound, b)
	}

	cs := flatten.Compare(snapshotToTree(*snapA), snapshotToTree(*snapB), "_meta.")
	return ChangeSet{
		Added:     cs.Added,
		Removed:   cs.Removed,
		Modified:  cs.Modified,
		Unchanged: cs.Unchanged,
	}, nil
}

// GetModuleConfig returns one module of the current snapshot.
func (s *Store) GetModuleConfig(ctx context.Context, name string) (*ConfigModule, error) {
	snap, err := s.GetCurrentConfig(ctx)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, nil
	}
	mod, ok := snap.Modules[name]
	if !ok {
		return nil, nil
	}
	return &mod, nil
}

// UpdateModuleConfig deep-copies the current snapshot, replaces one
// module, and stores the result as a new version.
func (s *Store) UpdateModuleConfig(ctx context.Context, name string, cfg map[string]any, input StoreConfigInput) (VersionMetadata, error) {
	current, err := s.GetCurrentConfig(ctx)
	if err != nil {
		return VersionMetadata{}, err
	}
	snap := SnapshotWithModule(current, name, cfg)

	if input.Modules == nil {
		input.Modules = []string{name}
	}
	return s.StoreConfig(ctx, snap, input)
}

// SnapshotWithModule deep-copies current (which may be nil) and replaces
// one module's config, returning the candidate snapshot an update would
// store. configapi uses it to validate the candidate before committing.
func SnapshotWithModule(current *ConfigSnapshot, name string, cfg map[string]any) ConfigSnapshot {
	snap := ConfigSnapshot{Modules: map[string]ConfigModule{}}
	if current != nil {
		snap = CopySnapshot(*current)
	}

	mod, existed := snap.Modules[name]
	if !existed {
		mod = ConfigModule{Meta: ModuleMeta{Name: name}}
	}
	mod.Config = cfg
	snap.Modules[name] = mod
	return snap
}

// CopySnapshot round-trips through JSON to produce an independent copy.
// Snapshots are pure trees of maps and lists (parent links are string
// ids, never pointers), so a JSON round-trip is a correct and
// sufficient deep copy.
func CopySnapshot(snap ConfigSnapshot) ConfigSnapshot {
	b, _ := json.Marshal(snap)
	var cp ConfigSnapshot
	_ = json.Unmarshal(b, &cp)
	if cp.Modules == nil {
		cp.Modules = map[string]ConfigModule{}
	}
	return cp
}
