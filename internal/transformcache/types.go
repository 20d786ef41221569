// Package transformcache implements the Transform Result Cache: key
// generation, format-aware multi-probe lookup, write-path admission,
// tag/path purging, and expiration sweeping for computed image
// artifacts stored in a remote KV substrate.
package transformcache

// TransformKey is the deterministic KV key for a cached artifact:
// "<prefix>:<basename>:<param-tokens>:<format>:<hash>".
type TransformKey string

// CacheMetadata is stored alongside every cache value.
type CacheMetadata struct {
	URL              string         `json:"url"`
	TimestampMS      int64          `json:"timestampMs"`
	TTLSeconds       int            `json:"ttlSeconds"`
	ExpirationMS     int64          `json:"expirationMs"`
	ContentType      string         `json:"contentType"`
	SizeBytes        int64          `json:"sizeBytes"`
	Width            *int           `json:"width,omitempty"`
	Height           *int           `json:"height,omitempty"`
	TransformOptions map[string]any `json:"transformOptions"`
	Tags             []string       `json:"tags"`
	StorageType      string         `json:"storageType"`
	OriginalSize     *int64         `json:"originalSize,omitempty"`
	CompressionRatio *float64       `json:"compressionRatio,omitempty"`
	AspectCropInfo   map[string]any `json:"aspectCropInfo,omitempty"`
}

// TransformResult is the cached payload: opaque bytes plus their
// metadata and the key they were found under.
type TransformResult struct {
	Bytes    []byte
	Metadata CacheMetadata
	Key      TransformKey
}

// ClientInfo carries what the cache knows about formats the requesting
// client accepts, used to steer the format-aware probe order.
type ClientInfo struct {
	FormatSupport map[string]bool
}

// Request describes the logical request a transform result is cached
// against: its path, raw query string, canonicalized transform options,
// the requested output format, and client capabilities.
type Request struct {
	Path       string
	RawQuery   string
	Options    map[string]any
	Format     string // "auto" | "jpeg" | "png" | "webp" | "avif" | "gif"
	ClientInfo ClientInfo
}

// Origin is the opaque image-transform origin collaborator supplying
// the bytes the cache considers writing, plus enough metadata to judge
// whether a transform "actually happened".
type Origin struct {
	Bytes        []byte
	ContentType  string
	Size         int64
	OriginalSize int64
	StorageType  string // r2 | remote | fallback
}

// Response is the candidate response under consideration for admission
// to the cache.
type Response struct {
	Status      int
	ContentType string
	Bytes       []byte
	CacheTag    string // raw "cache-tag" response header, comma-separated
}

// StatsSummary is returned by getStats.
type StatsSummary struct {
	HotHits     int64
	HotMisses   int64
	StoreHits   int64
	StoreMisses int64
	HotSize     int
	HotCapacity int
}

// EntriesPage is returned by listEntries.
type EntriesPage struct {
	Entries  []EntrySummary
	Cursor   string
	Complete bool
}

// EntrySummary is one row of a listEntries page.
type EntrySummary struct {
	Key      TransformKey
	Metadata CacheMetadata
}
