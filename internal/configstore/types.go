// Package configstore implements the Config Version Store: immutable
// snapshot storage with monotonically numbered versions, content hashing,
// parent links, activation pointer, and change-set diffs between adjacent
// versions. It is built directly on the same KV substrate (internal/kvstore)
// as the transform cache, never on a SQL database: the KV store offers no
// transactions, so the write order value -> history -> pointer is the only
// durability guarantee available (see Store.StoreConfig).
package configstore

import "time"

// SnapshotMeta is the "_meta" block of a ConfigSnapshot.
type SnapshotMeta struct {
	Version       string    `json:"version"`
	LastUpdated   time.Time `json:"lastUpdated"`
	ActiveModules []string  `json:"activeModules"`
}

// ModuleMeta is the "_meta" block of a ConfigModule.
type ModuleMeta struct {
	Name               string         `json:"name"`
	Version            string         `json:"version"`
	Description        string         `json:"description"`
	Schema             map[string]any `json:"schema,omitempty"`
	Defaults           map[string]any `json:"defaults,omitempty"`
	ModuleDependencies []string       `json:"moduleDependencies,omitempty"`
}

// ConfigModule is a named, independently-validated sub-document of a
// ConfigSnapshot.
type ConfigModule struct {
	Meta   ModuleMeta     `json:"_meta"`
	Config map[string]any `json:"config"`
}

// ConfigSnapshot is the immutable, versioned configuration document keyed
// by version id. Once stored it is never mutated; only the activation
// pointer and the ordered history list change.
type ConfigSnapshot struct {
	Meta    SnapshotMeta            `json:"_meta"`
	Modules map[string]ConfigModule `json:"modules"`
}

// VersionMetadata is one entry of the append-only version history.
type VersionMetadata struct {
	ID        string    `json:"id"` // "v<N>"
	Timestamp time.Time `json:"timestamp"`
	Author    string    `json:"author"`
	Comment   string    `json:"comment"`
	Hash      string    `json:"hash"` // "sha256:<64 hex>"
	Parent    string    `json:"parent,omitempty"`
	Modules   []string  `json:"modules,omitempty"`
	Changes   []string  `json:"changes,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
}

// StoreConfigInput carries the caller-supplied fields of a new version;
// ID, Hash, Parent, Changes and Timestamp are computed by StoreConfig.
type StoreConfigInput struct {
	Author  string
	Comment string
	Modules []string
	Tags    []string
}

// ChangeSet mirrors flatten.ChangeSet for the dot-paths that differ
// between two snapshots, excluding anything under "_meta.".
type ChangeSet struct {
	Added     []string
	Removed   []string
	Modified  []string
	Unchanged []string
}
