// Package metricsexport serves the Prometheus scrape endpoint for the
// process: the transform-cache and cached-config vectors, optionally Go
// runtime and process collectors, exposed as a single http.Handler. The
// handler carries its own protections (per-client token-bucket rate
// limiting, a gather timeout, an optional short-TTL response cache)
// because the scrape port is often reachable from more than just the
// Prometheus server.
package metricsexport

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"golang.org/x/time/rate"

	"github.com/vitaliisemenov/transform-edge/internal/obslog"
)

// Config holds the endpoint tunables.
type Config struct {
	// EnableGoRuntime adds the Go runtime collector (memstats, GC).
	EnableGoRuntime bool

	// EnableProcess adds the process collector (CPU, memory, fds).
	EnableProcess bool

	// GatherTimeout bounds a single gather. Should stay below the
	// Prometheus scrape_timeout. Default 5s.
	GatherTimeout time.Duration

	// CacheTTL, when positive, serves a cached rendering for that long
	// instead of re-gathering on every request.
	CacheTTL time.Duration

	// RateLimitPerMinute is the per-client request budget; 0 disables
	// rate limiting. Default 60.
	RateLimitPerMinute int

	// RateLimitBurst is the token-bucket burst capacity. Default 10.
	RateLimitBurst int
}

// DefaultConfig returns production defaults: rate limiting on, caching
// off, runtime/process collectors off.
func DefaultConfig() Config {
	return Config{
		GatherTimeout:      5 * time.Second,
		RateLimitPerMinute: 60,
		RateLimitBurst:     10,
	}
}

// clientLimiters is a per-client token-bucket set. Inactive clients
// (full bucket) are dropped by cleanup.
type clientLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newClientLimiters(perMinute, burst int) *clientLimiters {
	return &clientLimiters{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
	}
}

func (c *clientLimiters) allow(clientID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	limiter, ok := c.limiters[clientID]
	if !ok {
		limiter = rate.NewLimiter(c.rate, c.burst)
		c.limiters[clientID] = limiter
	}
	return limiter.Allow()
}

func (c *clientLimiters) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, limiter := range c.limiters {
		// A full bucket means the client hasn't scraped recently.
		if limiter.TokensAt(now) == float64(c.burst) {
			delete(c.limiters, key)
		}
	}
}

// Handler serves GET requests with the text exposition format.
type Handler struct {
	cfg      Config
	gatherer prometheus.Gatherer
	logger   obslog.Logger
	limiters *clientLimiters

	cacheMu   sync.RWMutex
	cached    []byte
	cachedAt  time.Time
	stopClean chan struct{}
}

// NewHandler builds a Handler over gatherer (nil means the default
// registerer's gatherer). Runtime/process collectors, when enabled, go
// into a private registry combined with the supplied one so they never
// collide with caller registrations.
func NewHandler(cfg Config, gatherer prometheus.Gatherer, logger obslog.Logger) *Handler {
	if cfg.GatherTimeout <= 0 {
		cfg.GatherTimeout = 5 * time.Second
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	gatherers := prometheus.Gatherers{gatherer}
	if cfg.EnableGoRuntime || cfg.EnableProcess {
		own := prometheus.NewRegistry()
		if cfg.EnableGoRuntime {
			own.MustRegister(collectors.NewGoCollector())
		}
		if cfg.EnableProcess {
			own.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		}
		gatherers = append(gatherers, own)
	}

	h := &Handler{
		cfg:       cfg,
		gatherer:  gatherers,
		logger:    obslog.OrDefault(logger),
		stopClean: make(chan struct{}),
	}
	if cfg.RateLimitPerMinute > 0 {
		h.limiters = newClientLimiters(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
		go h.cleanupLoop()
	}
	return h
}

// Close stops the limiter cleanup goroutine.
func (h *Handler) Close() {
	close(h.stopClean)
}

func (h *Handler) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-h.stopClean:
			return
		case <-ticker.C:
			h.limiters.cleanup()
		}
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.limiters != nil && !h.limiters.allow(clientIP(r)) {
		w.Header().Set("Retry-After", "60")
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	if h.cfg.CacheTTL > 0 {
		h.cacheMu.RLock()
		fresh := h.cached != nil && time.Since(h.cachedAt) < h.cfg.CacheTTL
		data := h.cached
		h.cacheMu.RUnlock()
		if fresh {
			_, _ = w.Write(data)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.GatherTimeout)
	defer cancel()

	families, err := h.gather(ctx)
	if err != nil {
		h.logger.Error(r.Context(), "metrics gather failed", "error", err)
		http.Error(w, "failed to gather metrics", http.StatusInternalServerError)
		return
	}

	body, err := render(families)
	if err != nil {
		h.logger.Error(r.Context(), "metrics encode failed", "error", err)
		http.Error(w, "failed to encode metrics", http.StatusInternalServerError)
		return
	}

	if h.cfg.CacheTTL > 0 {
		h.cacheMu.Lock()
		h.cached = body
		h.cachedAt = time.Now()
		h.cacheMu.Unlock()
	}

	_, _ = w.Write(body)
}

// gather runs the gatherer on its own goroutine so the handler can
// honor the timeout even when a collector blocks.
func (h *Handler) gather(ctx context.Context) ([]*dto.MetricFamily, error) {
	type result struct {
		families []*dto.MetricFamily
		err      error
	}
	ch := make(chan result, 1)
	go func() {
		families, err := h.gatherer.Gather()
		ch <- result{families, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("metrics gather: %w", ctx.Err())
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("metrics gather: %w", res.err)
		}
		return res.families, nil
	}
}

// render encodes metric families in the text exposition format.
func render(families []*dto.MetricFamily) ([]byte, error) {
	var buf bytes.Buffer
	encoder := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := encoder.Encode(family); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// clientIP resolves the requesting client: X-Forwarded-For, then
// X-Real-IP, then the socket peer.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
