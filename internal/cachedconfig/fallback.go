package cachedconfig

// buildFallback constructs the snapshot the facade falls back to before
// its first successful refresh and whenever refresh is failing. Every value
// here must be enough on its own to keep request-serving code working:
// no section is allowed to be absent.
func buildFallback(opts Options) map[string]any {
	env := opts.Environment
	if env == "" {
		env = "development"
	}

	return map[string]any{
		"core": map[string]any{
			"logging":  map[string]any{"level": "info"},
			"features": map[string]any{},
		},
		"cache": map[string]any{
			"enabled":            true,
			"binding":            "TRANSFORM_CACHE",
			"prefix":             "transform",
			"maxSize":            float64(10 * 1024 * 1024),
			"defaultTtl":         float64(86400),
			"contentTypeTtls":    map[string]any{},
			"backgroundIndexing": true,
			"purgeDelay":         float64(50),
			"disallowedPaths":    []any{},
			"memoryCacheSize":    float64(200),
			"debug":              false,
			"ttl":                map[string]any{"ok": float64(86400)},
			"immutableContent": map[string]any{
				"enabled":      false,
				"paths":        []any{},
				"contentTypes": []any{},
				"derivatives":  []any{},
			},
		},
		"storage": map[string]any{
			"priority": []any{"r2", "remote", "fallback"},
		},
		"derivatives": map[string]any{},
		"responsive":  map[string]any{"enabled": false},
		"features": map[string]any{
			"forceTransformCache": false,
		},
		"debug": map[string]any{
			"forceDebugHeaders":   false,
			"allowedEnvironments": []any{env},
		},
	}
}
