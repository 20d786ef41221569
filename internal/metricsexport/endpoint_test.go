package metricsexport

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, cfg Config) (*Handler, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	h := NewHandler(cfg, reg, nil)
	t.Cleanup(h.Close)
	return h, reg
}

func scrape(h *Handler) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.RemoteAddr = "10.0.0.1:12345"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerRendersRegisteredMetrics(t *testing.T) {
	h, reg := newTestHandler(t, DefaultConfig())

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_requests_total",
		Help: "Test counter.",
	})
	reg.MustRegister(counter)
	counter.Add(3)

	rec := scrape(h)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_requests_total 3")
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}

func TestHandlerRejectsNonGet(t *testing.T) {
	h, _ := newTestHandler(t, DefaultConfig())

	req := httptest.NewRequest(http.MethodPost, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET", rec.Header().Get("Allow"))
}

func TestHandlerRateLimitsPerClient(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 60
	cfg.RateLimitBurst = 1
	h, _ := newTestHandler(t, cfg)

	first := scrape(h)
	require.Equal(t, http.StatusOK, first.Code)

	second := scrape(h)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
}

func TestHandlerServesCachedResponseWithinTTL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	cfg.CacheTTL = time.Minute
	h, reg := newTestHandler(t, cfg)

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_cached_total",
		Help: "Test counter.",
	})
	reg.MustRegister(counter)
	counter.Inc()

	first := scrape(h)
	require.Contains(t, first.Body.String(), "test_cached_total 1")

	// The second scrape inside the TTL must serve the cached rendering,
	// not the incremented live value.
	counter.Inc()
	second := scrape(h)
	assert.Contains(t, second.Body.String(), "test_cached_total 1")
}
