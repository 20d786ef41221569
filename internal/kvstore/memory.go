package kvstore

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vitaliisemenov/transform-edge/internal/obslog"
)

// entry is a single stored record: bytes, metadata, and an optional
// absolute expiry. A zero expiresAt means no TTL.
type entry struct {
	value     []byte
	metadata  Metadata
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore is an in-memory Store: a map guarded by an RWMutex, with
// lazy TTL expiry. It is the default test double for transformcache and
// configstore tests, and a legitimate standalone backend for
// single-process deployments.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]*entry
	logger obslog.Logger
}

// NewMemoryStore creates an empty MemoryStore. A nil logger falls back
// to obslog.Default().
func NewMemoryStore(logger obslog.Logger) *MemoryStore {
	return &MemoryStore{
		data:   make(map[string]*entry),
		logger: obslog.OrDefault(logger),
	}
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, _, err := m.GetWithMetadata(ctx, key)
	return b, err
}

func (m *MemoryStore) GetWithMetadata(ctx context.Context, key string) ([]byte, Metadata, error) {
	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil, ErrNotFound
	}
	if e.expired(time.Now()) {
		m.mu.Lock()
		delete(m.data, key)
		m.mu.Unlock()
		return nil, nil, ErrNotFound
	}

	valCopy := append([]byte(nil), e.value...)
	var metaCopy Metadata
	if e.metadata != nil {
		metaCopy = make(Metadata, len(e.metadata))
		for k, v := range e.metadata {
			metaCopy[k] = v
		}
	}
	return valCopy, metaCopy, nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, value []byte, opts PutOptions) error {
	e := &entry{value: append([]byte(nil), value...)}
	if opts.Metadata != nil {
		e.metadata = make(Metadata, len(opts.Metadata))
		for k, v := range opts.Metadata {
			e.metadata[k] = v
		}
	}
	if opts.TTLSeconds > 0 {
		e.expiresAt = time.Now().Add(time.Duration(opts.TTLSeconds) * time.Second)
	}

	m.mu.Lock()
	m.data[key] = e
	m.mu.Unlock()

	m.logger.Debug(ctx, "kvstore memory put", "key", key, "ttl_s", opts.TTLSeconds)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// List returns keys with the given prefix, sorted for deterministic
// pagination, honoring Cursor (an opaque numeric offset) and Limit.
func (m *MemoryStore) List(ctx context.Context, opts ListOptions) (ListPage, error) {
	now := time.Now()

	m.mu.RLock()
	names := make([]string, 0, len(m.data))
	for k, e := range m.data {
		if e.expired(now) {
			continue
		}
		if opts.Prefix != "" && !strings.HasPrefix(k, opts.Prefix) {
			continue
		}
		names = append(names, k)
	}
	m.mu.RUnlock()
	sort.Strings(names)

	offset := 0
	if opts.Cursor != "" {
		if parsed, err := strconv.Atoi(opts.Cursor); err == nil && parsed > 0 {
			offset = parsed
		}
	}
	if offset > len(names) {
		offset = len(names)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = len(names) - offset
	}
	end := offset + limit
	if end > len(names) {
		end = len(names)
	}

	page := ListPage{Complete: end >= len(names)}
	if !page.Complete {
		page.Cursor = strconv.Itoa(end)
	}

	m.mu.RLock()
	for _, name := range names[offset:end] {
		e := m.data[name]
		var metaCopy Metadata
		if e != nil && e.metadata != nil {
			metaCopy = make(Metadata, len(e.metadata))
			for k, v := range e.metadata {
				metaCopy[k] = v
			}
		}
		page.Keys = append(page.Keys, ListKey{Name: name, Metadata: metaCopy})
	}
	m.mu.RUnlock()

	return page, nil
}
