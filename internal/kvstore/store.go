// Package kvstore defines the thin capability abstraction over the
// remote KV substrate that both the transform cache and the config
// version store are built on: get, getWithMetadata, put (value +
// metadata + optional TTL), delete, and a paginated list. Implementations
// are a real Redis-backed store, an in-memory test double, and a
// fault-injecting wrapper for exercising partial-failure paths.
package kvstore

import "context"

// Metadata is the small, per-key JSON-ish sidecar the KV contract
// guarantees alongside every value (a few kilobytes at most).
type Metadata map[string]any

// PutOptions carries the optional metadata and TTL a write may specify.
// TTLSeconds <= 0 means no expiration.
type PutOptions struct {
	Metadata   Metadata
	TTLSeconds int
}

// ListOptions configures a paginated List call.
type ListOptions struct {
	Prefix string
	Cursor string
	Limit  int
}

// ListKey is a single entry returned by List: its name and metadata, but
// never its value (listing is metadata-only).
type ListKey struct {
	Name     string
	Metadata Metadata
}

// ListPage is one page of a List call. Complete is true once no further
// cursor is available; Cursor is opaque to callers and must be passed
// back verbatim to continue.
type ListPage struct {
	Keys     []ListKey
	Cursor   string
	Complete bool
}

// Store is the capability every higher-level component (transformcache,
// configstore) depends on. Guarantees required from an implementation:
// read-your-writes within a single client, eventually-consistent
// listing, and no transactional multi-key writes: the store must never
// promise atomicity across two keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	GetWithMetadata(ctx context.Context, key string) ([]byte, Metadata, error)
	Put(ctx context.Context, key string, value []byte, opts PutOptions) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, opts ListOptions) (ListPage, error)
}
