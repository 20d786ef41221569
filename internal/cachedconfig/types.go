// Package cachedconfig implements the Cached Config Facade: a
// synchronous, always-available accessor view over the Config API
// that holds a hot in-process snapshot, refreshed on a background
// schedule, merged from a fallback-from-environment snapshot and the
// module snapshots the Config API loads from the KV-backed version
// store. The hot copy lives in an atomic.Value, swapped wholesale by a
// single background task, so callers never observe a half-merged
// snapshot.
package cachedconfig

import "time"

// Options configures a Facade.
type Options struct {
	// RefreshIntervalMs is how often the background loop refreshes the
	// hot snapshot from the ConfigSource. Default 30000.
	RefreshIntervalMs int

	// Environment names the current deployment environment (e.g.
	// "production", "staging", "development"); it is appended to the
	// allowed-environments list by the emergency and feature-flag
	// overlays.
	Environment string
}

func (o Options) refreshInterval() time.Duration {
	ms := o.RefreshIntervalMs
	if ms <= 0 {
		ms = 30000
	}
	return time.Duration(ms) * time.Millisecond
}
