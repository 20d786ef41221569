package cachedconfig

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vitaliisemenov/transform-edge/internal/obslog"
)

const (
	minBackoff = 1 * time.Second
	maxBackoff = 5 * time.Minute
	restartGap = 10 * time.Second
)

// Facade is the Cached Config Facade: a synchronous accessor view
// over the Config API that holds a hot, always-available snapshot,
// refreshed on a background schedule. The live configuration sits in an
// atomic.Value, swapped by a single background task, so readers never
// observe a half-merged value.
type Facade struct {
	source  ConfigSource
	opts    Options
	logger  obslog.Logger
	metrics *Metrics

	fallback map[string]any

	hot         atomic.Value // map[string]any
	initialized atomic.Bool
	failures    atomic.Int64

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// New builds a Facade. The hot snapshot is immediately populated from
// environment-derived fallback (with the feature-flag overlay applied;
// the emergency overlay is applied by Initialize) so that
// GetConfig/GetSection are safe to call before Initialize ever runs.
func New(source ConfigSource, opts Options, logger obslog.Logger, metrics *Metrics) *Facade {
	f := &Facade{
		source:   source,
		opts:     opts,
		logger:   obslog.OrDefault(logger),
		metrics:  metrics,
		fallback: buildFallback(opts),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	seed := deepCopyMap(f.fallback)
	applyFeatureFlagOverlay(seed, opts.Environment)
	f.hot.Store(seed)

	return f
}

// Initialize performs one synchronous refresh from the Config API,
// applies the emergency overlay regardless of outcome, marks the facade
// initialized, and starts the background refresh loop. It never returns
// an error: a failed first refresh simply leaves the fallback (plus
// overlay) installed.
func (f *Facade) Initialize(ctx context.Context) error {
	if err := f.refreshOnce(ctx); err != nil {
		f.logger.Warn(ctx, "cached config initial refresh failed, serving fallback", "error", err)
	}

	current := deepCopyMap(f.currentMap())
	applyEmergencyOverlay(current, f.opts.Environment)
	f.hot.Store(current)

	f.initialized.Store(true)
	go f.runLoop()

	return nil
}

// Close stops the background refresh loop and waits for it to exit.
func (f *Facade) Close() {
	f.stopOnce.Do(func() { close(f.stop) })
	<-f.done
}

// GetConfig returns a defensive copy of the current hot snapshot.
func (f *Facade) GetConfig(ctx context.Context) map[string]any {
	return deepCopyMap(f.currentMap())
}

// GetSection returns a defensive copy of one top-level section of the
// current hot snapshot.
func (f *Facade) GetSection(ctx context.Context, name string) (map[string]any, bool) {
	section, ok := f.currentMap()[name].(map[string]any)
	if !ok {
		return nil, false
	}
	return deepCopyMap(section), true
}

// IsImmutableContent runs the immutable-content check against the
// current hot snapshot.
func (f *Facade) IsImmutableContent(path, contentType, derivative string) bool {
	return isImmutableContent(f.currentMap(), path, contentType, derivative)
}

func (f *Facade) currentMap() map[string]any {
	v, _ := f.hot.Load().(map[string]any)
	if v == nil {
		return f.fallback
	}
	return v
}

// refreshOnce performs a single synchronous refresh cycle: load from
// the source, merge onto fallback, apply the feature-flag overlay, and
// swap the hot snapshot atomically. It never mutates the previous hot
// snapshot, so a reader mid-read is unaffected by a concurrent refresh.
func (f *Facade) refreshOnce(ctx context.Context) error {
	start := time.Now()
	snap, err := f.source.Snapshot(ctx)
	if err != nil {
		f.recordRefresh(start, false)
		return err
	}

	merged := mergeSnapshot(f.fallback, snap)
	applyFeatureFlagOverlay(merged, f.opts.Environment)
	f.hot.Store(merged)
	f.recordRefresh(start, true)
	return nil
}

func (f *Facade) recordRefresh(start time.Time, success bool) {
	if f.metrics == nil {
		return
	}
	f.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	status := "success"
	if !success {
		status = "failure"
	}
	f.metrics.RefreshTotal.WithLabelValues(status).Inc()
	f.metrics.ConsecutiveFailure.Set(float64(f.failures.Load()))
}

// runLoop is the single background refresh task: it wakes every
// refreshInterval (±1s initial jitter), refreshes, and on failure backs
// off exponentially up to maxBackoff. It never terminates voluntarily;
// a panic inside refreshOnce is recovered and the loop restarts after
// restartGap.
func (f *Facade) runLoop() {
	defer close(f.done)

	base := f.opts.refreshInterval()
	wait := jitter(base, time.Second)

	for {
		select {
		case <-f.stop:
			return
		case <-time.After(wait):
		}

		if f.tick(base) {
			wait = base
		} else {
			n := f.failures.Add(1)
			wait = backoff(base, n)
		}
	}
}

// tick runs one refresh cycle with panic recovery, returning whether it
// succeeded.
func (f *Facade) tick(base time.Duration) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error(context.Background(), "cached config refresh panicked", "recovered", r)
			ok = false
			time.Sleep(restartGap)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), base)
	defer cancel()

	if err := f.refreshOnce(ctx); err != nil {
		f.logger.Warn(ctx, "cached config refresh failed, keeping last known good", "error", err)
		return false
	}
	f.failures.Store(0)
	return true
}

func jitter(base, spread time.Duration) time.Duration {
	delta := time.Duration(rand.Int63n(int64(2*spread))) - spread
	d := base + delta
	if d < 0 {
		return base
	}
	return d
}

func backoff(base time.Duration, failures int64) time.Duration {
	d := base
	for i := int64(0); i < failures && d < maxBackoff; i++ {
		d *= 2
	}
	d = jitter(d, time.Second)
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}
