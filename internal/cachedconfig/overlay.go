package cachedconfig

// applyEmergencyOverlay runs once, during Initialize, regardless of
// whether the first refresh succeeded: it force-enables the transform
// cache, force-enables the "forceTransformCache" flag, and appends the
// current environment to the allowed-environments list, so that a cold
// start never serves a config with caching accidentally disabled.
func applyEmergencyOverlay(merged map[string]any, environment string) {
	setEnabled(merged, "cache", true)
	setFlag(merged, "forceTransformCache", true)
	appendAllowedEnvironment(merged, environment)
}

// applyFeatureFlagOverlay is applied after every merge, both the
// initial one and every background refresh: when a force flag is set,
// it unconditionally enables the corresponding subsystem and adds the
// current environment to the allowed list, so getConfig/getSection
// always surface the overlay rather than the underlying stored value.
func applyFeatureFlagOverlay(merged map[string]any, environment string) {
	if flagEnabled(merged, "forceTransformCache") {
		setEnabled(merged, "cache", true)
		appendAllowedEnvironment(merged, environment)
	}
	if flagEnabled(merged, "forceDebugHeaders") {
		setEnabled(merged, "debug", true)
		appendAllowedEnvironment(merged, environment)
	}
}

func flagEnabled(merged map[string]any, name string) bool {
	features, _ := merged["features"].(map[string]any)
	if b, ok := features[name].(bool); ok && b {
		return true
	}
	debug, _ := merged["debug"].(map[string]any)
	if b, ok := debug[name].(bool); ok && b {
		return true
	}
	return false
}

func setEnabled(merged map[string]any, section string, enabled bool) {
	target, ok := merged[section].(map[string]any)
	if !ok {
		target = map[string]any{}
		merged[section] = target
	}
	target["enabled"] = enabled
}

func setFlag(merged map[string]any, name string, enabled bool) {
	features, ok := merged["features"].(map[string]any)
	if !ok {
		features = map[string]any{}
		merged["features"] = features
	}
	features[name] = enabled
}

func appendAllowedEnvironment(merged map[string]any, environment string) {
	if environment == "" {
		return
	}
	debug, ok := merged["debug"].(map[string]any)
	if !ok {
		debug = map[string]any{}
		merged["debug"] = debug
	}
	list, _ := debug["allowedEnvironments"].([]any)
	for _, v := range list {
		if s, ok := v.(string); ok && s == environment {
			return
		}
	}
	debug["allowedEnvironments"] = append(append([]any(nil), list...), environment)
}
