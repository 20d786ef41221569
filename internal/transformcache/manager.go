package transformcache

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vitaliisemenov/transform-edge/internal/deferred"
	"github.com/vitaliisemenov/transform-edge/internal/kvstore"
	"github.com/vitaliisemenov/transform-edge/internal/obslog"
)

// knownFormats is the fixed fallback sweep order for the final probe step.
var knownFormats = []string{"jpeg", "png", "gif", "webp", "avif"}

// Manager is the Transform Cache Manager: key generation, hot
// in-process LRU, format-aware multi-probe lookup, write-path
// validation, purge-by-tag/path, and the expiration sweep.
type Manager struct {
	store   kvstore.Store
	cfg     Config
	hot     *lru.Cache[TransformKey, *TransformResult]
	metrics *Metrics
	logger  obslog.Logger
	dedup   *dedupSet

	hotHits, hotMisses     atomic.Int64
	storeHits, storeMisses atomic.Int64
}

// NewManager builds a Manager. A nil Metrics/logger fall back to
// no-op-safe defaults (NewMetrics(nil) and obslog.Default()).
func NewManager(store kvstore.Store, cfg Config, metrics *Metrics, logger obslog.Logger) (*Manager, error) {
	size := cfg.MemoryCacheSize
	if size <= 0 {
		size = 200
	}
	hot, err := lru.New[TransformKey, *TransformResult](size)
	if err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	return &Manager{
		store:   store,
		cfg:     cfg,
		hot:     hot,
		metrics: metrics,
		logger:  obslog.OrDefault(logger),
		dedup:   newDedupSet(),
	}, nil
}

// IsCached runs the same probing order as Get but returns only presence.
func (m *Manager) IsCached(ctx context.Context, req Request) bool {
	_, _, hit := m.probe(ctx, req)
	return hit
}

// Get performs the format-aware multi-probe read, updating hit/miss
// counters as it goes.
func (m *Manager) Get(ctx context.Context, req Request) (*TransformResult, bool) {
	result, layer, hit := m.probe(ctx, req)
	if hit {
		m.metrics.Hits.WithLabelValues(layer).Inc()
	} else {
		m.metrics.Misses.WithLabelValues("combined").Inc()
	}
	return result, hit
}

// probe implements the 5-step probe order, stopping at the first hit.
// It returns which layer ("hot" or "store") produced the hit.
func (m *Manager) probe(ctx context.Context, req Request) (*TransformResult, string, bool) {
	autoKey := BuildKey(m.cfg.Prefix, req, "auto")

	if v, ok := m.hot.Get(autoKey); ok {
		m.hotHits.Add(1)
		return v, "hot", true
	}
	m.hotMisses.Add(1)

	probed := make(map[string]bool, len(knownFormats)+2)
	tryFormat := func(format string) (*TransformResult, bool) {
		probed[format] = true
		key := BuildKey(m.cfg.Prefix, req, format)
		bytes, meta, err := m.store.GetWithMetadata(ctx, string(key))
		if err != nil {
			if !errors.Is(err, kvstore.ErrNotFound) {
				m.metrics.Errors.WithLabelValues("store", "get").Inc()
			}
			return nil, false
		}
		decoded, err := decodeMetadata(meta)
		if err != nil || !strings.HasPrefix(decoded.ContentType, "image/") {
			return nil, false
		}
		result := &TransformResult{Bytes: bytes, Metadata: decoded, Key: key}
		m.hot.Add(autoKey, result)
		return result, true
	}

	if req.Format != "" && req.Format != "auto" {
		if r, ok := tryFormat(req.Format); ok {
			m.storeHits.Add(1)
			return r, "store", true
		}
	}

	for _, f := range []string{"avif", "webp"} {
		if req.ClientInfo.FormatSupport[f] && !probed[f] {
			if r, ok := tryFormat(f); ok {
				m.storeHits.Add(1)
				return r, "store", true
			}
		}
	}

	if !probed["auto"] {
		if r, ok := tryFormat("auto"); ok {
			m.storeHits.Add(1)
			return r, "store", true
		}
	}

	for _, f := range knownFormats {
		if !probed[f] {
			if r, ok := tryFormat(f); ok {
				m.storeHits.Add(1)
				return r, "store", true
			}
		}
	}

	m.storeMisses.Add(1)
	return nil, "", false
}

// Put validates a candidate response against the admission predicate,
// deduplicates concurrent writes for the same (url, opts) pair, and
// writes the artifact plus its metadata. Writes run on the deferred
// handle when backgroundIndexing is enabled and a handle is supplied;
// otherwise Put blocks until the write completes.
func (m *Manager) Put(ctx context.Context, req Request, resp Response, origin Origin, handle deferred.Handle) {
	if _, ok := admissionDecision(m.cfg, req, resp, origin); !ok {
		m.logger.Debug(ctx, "transform cache admission rejected", "path", req.Path)
		return
	}

	if !m.dedup.begin(req.Path, req.Options) {
		m.logger.Debug(ctx, "transform cache put deduped", "path", req.Path)
		return
	}

	write := func(bgCtx context.Context) {
		defer m.dedup.end(req.Path, req.Options)

		format := req.Format
		if format == "" {
			format = "auto"
		}
		key := BuildKey(m.cfg.Prefix, req, format)
		autoKey := BuildKey(m.cfg.Prefix, req, "auto")

		now := time.Now()
		ttl := ttlFor(m.cfg, resp.ContentType)
		meta := CacheMetadata{
			URL:              req.Path,
			TimestampMS:      now.UnixMilli(),
			TTLSeconds:       ttl,
			ExpirationMS:     now.UnixMilli() + int64(ttl)*1000,
			ContentType:      resp.ContentType,
			SizeBytes:        int64(len(resp.Bytes)),
			TransformOptions: req.Options,
			Tags:             tagsFor(req, resp),
			StorageType:      origin.StorageType,
		}
		if origin.Size > 0 {
			originalSize := origin.Size
			meta.OriginalSize = &originalSize
			ratio := float64(len(resp.Bytes)) / float64(origin.Size)
			meta.CompressionRatio = &ratio
		}

		if err := m.store.Put(bgCtx, string(key), resp.Bytes, kvstore.PutOptions{
			Metadata:   encodeMetadata(meta),
			TTLSeconds: ttl,
		}); err != nil {
			m.metrics.Errors.WithLabelValues("store", "put").Inc()
			m.logger.Error(bgCtx, "transform cache put failed", "path", req.Path, "error", err)
			return
		}

		m.hot.Add(autoKey, &TransformResult{Bytes: resp.Bytes, Metadata: meta, Key: key})
	}

	if m.cfg.BackgroundIndexing && handle != nil {
		deferred.OrInline(handle).Go(write)
		return
	}
	write(ctx)
}

// Delete removes the canonical key and every format-variant key for the
// same logical request, and clears the hot LRU entry.
func (m *Manager) Delete(ctx context.Context, req Request) {
	formats := append([]string{"auto"}, knownFormats...)
	for _, f := range formats {
		key := BuildKey(m.cfg.Prefix, req, f)
		if err := m.store.Delete(ctx, string(key)); err != nil {
			m.logger.Debug(ctx, "transform cache delete failed", "key", key, "error", err)
		}
		m.hot.Remove(key)
	}
}

// PurgeByTag lists-and-filters entries whose metadata tags contain tag,
// deleting matches in batches of 100 with an inter-batch sleep of
// cfg.PurgeDelay. When backgroundIndexing and a handle are both
// provided, the sweep runs on the handle and this call returns 0
// immediately - the count is only meaningful for the synchronous path,
// mirroring Put's "background work never propagates a result" rule.
func (m *Manager) PurgeByTag(ctx context.Context, tag string, handle deferred.Handle) int {
	predicate := func(meta CacheMetadata) bool { return containsString(meta.Tags, tag) }
	return m.runPurge(ctx, "purge-by-tag", predicate, handle)
}

// PurgeByPath deletes entries whose metadata URL contains substring.
func (m *Manager) PurgeByPath(ctx context.Context, substring string, handle deferred.Handle) int {
	predicate := func(meta CacheMetadata) bool { return strings.Contains(meta.URL, substring) }
	return m.runPurge(ctx, "purge-by-path", predicate, handle)
}

// PerformMaintenance sweeps expired entries (metadata.expiration < now),
// pruning at most maxToPrune of them.
func (m *Manager) PerformMaintenance(ctx context.Context, maxToPrune int, handle deferred.Handle) int {
	now := time.Now().UnixMilli()
	pruned := 0
	predicate := func(meta CacheMetadata) bool {
		if maxToPrune > 0 && pruned >= maxToPrune {
			return false
		}
		expired := meta.ExpirationMS < now
		if expired {
			pruned++
		}
		return expired
	}
	return m.runPurge(ctx, "maintenance", predicate, handle)
}

func (m *Manager) runPurge(ctx context.Context, op string, predicate func(CacheMetadata) bool, handle deferred.Handle) int {
	if m.cfg.BackgroundIndexing && handle != nil {
		deferred.OrInline(handle).Go(func(bgCtx context.Context) {
			n := m.sweep(bgCtx, predicate)
			m.logger.Info(bgCtx, "transform cache sweep complete", "op", op, "count", n)
		})
		return 0
	}
	return m.sweep(ctx, predicate)
}

// sweep paginates List with the configured prefix, applies predicate to
// each entry's decoded metadata, and deletes matches in batches of 100
// separated by cfg.PurgeDelay.
func (m *Manager) sweep(ctx context.Context, predicate func(CacheMetadata) bool) int {
	const batchSize = 100
	count := 0
	cursor := ""

	for {
		page, err := m.store.List(ctx, kvstore.ListOptions{
			Prefix: m.cfg.Prefix + ":",
			Cursor: cursor,
			Limit:  batchSize,
		})
		if err != nil {
			m.logger.Error(ctx, "transform cache sweep list failed", "error", err)
			return count
		}

		for _, k := range page.Keys {
			meta, err := decodeMetadata(k.Metadata)
			if err != nil || !predicate(meta) {
				continue
			}
			if err := m.store.Delete(ctx, k.Name); err == nil {
				count++
				m.hot.Remove(TransformKey(k.Name))
			}
		}

		if page.Complete {
			break
		}
		cursor = page.Cursor
		if m.cfg.PurgeDelay > 0 {
			time.Sleep(m.cfg.PurgeDelay)
		}
	}
	return count
}

// ListEntries returns a page of cache entries under the configured prefix.
func (m *Manager) ListEntries(ctx context.Context, limit int, cursor string) (EntriesPage, error) {
	page, err := m.store.List(ctx, kvstore.ListOptions{
		Prefix: m.cfg.Prefix + ":",
		Cursor: cursor,
		Limit:  limit,
	})
	if err != nil {
		return EntriesPage{}, err
	}

	out := EntriesPage{Cursor: page.Cursor, Complete: page.Complete}
	for _, k := range page.Keys {
		meta, _ := decodeMetadata(k.Metadata)
		out.Entries = append(out.Entries, EntrySummary{Key: TransformKey(k.Name), Metadata: meta})
	}
	return out, nil
}

// GetStats reports the manager's in-instance counters.
func (m *Manager) GetStats() StatsSummary {
	return StatsSummary{
		HotHits:     m.hotHits.Load(),
		HotMisses:   m.hotMisses.Load(),
		StoreHits:   m.storeHits.Load(),
		StoreMisses: m.storeMisses.Load(),
		HotSize:     m.hot.Len(),
		HotCapacity: m.cfg.MemoryCacheSize,
	}
}
