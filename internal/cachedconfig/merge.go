package cachedconfig

import "github.com/vitaliisemenov/transform-edge/internal/configstore"

// sectionModules lists the modules whose config merges under the
// top-level section of the same name, lowest priority first, so that
// later entries win conflicting scalar/array values when deepMerge is
// applied in this order. The image-resizer module is handled separately:
// its config is a whole config tree, merged into the root last, so it
// outranks every section module.
var sectionModules = []string{"storage", "transform", "cache", "core"}

// mergeSnapshot combines fallback (the facade's own always-available
// defaults) with the module configs of a freshly loaded snapshot,
// producing the flat, top-level-sectioned view that GetConfig/GetSection
// serve. Merging is deep-recursive: objects merge key-by-key, arrays
// and scalars replace.
func mergeSnapshot(fallback map[string]any, snap configstore.ConfigSnapshot) map[string]any {
	merged := deepCopyMap(fallback)

	for _, name := range sectionModules {
		mod, ok := snap.Modules[name]
		if !ok || mod.Config == nil {
			continue
		}
		existing, _ := merged[name].(map[string]any)
		merged[name] = deepMerge(existing, mod.Config)
	}

	if resizer, ok := snap.Modules["image-resizer"]; ok && resizer.Config != nil {
		merged = deepMerge(merged, resizer.Config)
	}

	liftTransformSections(merged, snap)
	synthesizeStorageAliases(merged)
	patchCriticalFields(merged, fallback)

	return merged
}

// liftTransformSections copies the transform module's "derivatives" and
// "responsive" sub-trees to the top level, where request-serving code
// reads them directly rather than through "transform.*".
func liftTransformSections(merged map[string]any, snap configstore.ConfigSnapshot) {
	mod, ok := snap.Modules["transform"]
	if !ok || mod.Config == nil {
		return
	}
	if derivatives, ok := mod.Config["derivatives"].(map[string]any); ok {
		existing, _ := merged["derivatives"].(map[string]any)
		merged["derivatives"] = deepMerge(existing, derivatives)
	}
	if responsive, ok := mod.Config["responsive"]; ok {
		merged["responsive"] = responsive
	}
}

// synthesizeStorageAliases fills in the flat remoteUrl/fallbackUrl/
// remoteAuth/fallbackAuth keys from the nested remote.url/fallback.url
// shape when only one side is present, in either direction.
func synthesizeStorageAliases(merged map[string]any) {
	storage, ok := merged["storage"].(map[string]any)
	if !ok {
		return
	}

	syncAlias(storage, "remoteUrl", "remote", "url")
	syncAlias(storage, "fallbackUrl", "fallback", "url")
	syncAlias(storage, "remoteAuth", "remote", "auth")
	syncAlias(storage, "fallbackAuth", "fallback", "auth")
}

// syncAlias copies storage[flatKey] into storage[section][field] when
// only the flat key is set, and the reverse when only the nested field
// is set.
func syncAlias(storage map[string]any, flatKey, section, field string) {
	flatVal, hasFlat := storage[flatKey]

	nested, hasSection := storage[section].(map[string]any)
	var nestedVal any
	hasNested := false
	if hasSection {
		nestedVal, hasNested = nested[field]
	}

	switch {
	case hasFlat && !hasNested:
		if !hasSection {
			nested = map[string]any{}
			storage[section] = nested
		}
		nested[field] = flatVal
	case hasNested && !hasFlat:
		storage[flatKey] = nestedVal
	}
}

// patchCriticalFields checks the fields request-serving code cannot run
// without and patches each one individually from fallback rather than
// discarding the whole merged result when one is wrong.
func patchCriticalFields(merged, fallback map[string]any) {
	if !isNumericAt(merged, "cache", "ttl", "ok") {
		patchPath(merged, fallback, "cache", "ttl", "ok")
	}
	if !isArrayAt(merged, "storage", "priority") {
		patchPath(merged, fallback, "storage", "priority")
	}
	if _, ok := merged["responsive"]; !ok {
		if fb, ok := fallback["responsive"]; ok {
			merged["responsive"] = fb
		}
	}
}

func isNumericAt(tree map[string]any, path ...string) bool {
	v, ok := navigate(tree, path)
	if !ok {
		return false
	}
	_, isNum := asNumber(v)
	return isNum
}

func isArrayAt(tree map[string]any, path ...string) bool {
	v, ok := navigate(tree, path)
	if !ok {
		return false
	}
	_, isArr := v.([]any)
	return isArr
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func navigate(tree map[string]any, path []string) (any, bool) {
	var cur any = tree
	for _, seg := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// patchPath overwrites merged at path with fallback's value at the same
// path, creating intermediate maps as needed. It is a no-op if fallback
// itself has no value there.
func patchPath(merged, fallback map[string]any, path ...string) {
	fbVal, ok := navigate(fallback, path)
	if !ok {
		return
	}
	node := merged
	for _, seg := range path[:len(path)-1] {
		next, ok := node[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			node[seg] = next
		}
		node = next
	}
	node[path[len(path)-1]] = fbVal
}

// deepMerge recursively merges src into dst, key by key. Objects merge
// key-by-key; arrays and scalars from src replace whatever dst held at
// that key. dst and src are never mutated; the result is a new tree.
func deepMerge(dst, src map[string]any) map[string]any {
	out := deepCopyMap(dst)
	for k, srcVal := range src {
		dstVal, exists := out[k]
		if exists {
			dstMap, dstIsMap := dstVal.(map[string]any)
			srcMap, srcIsMap := srcVal.(map[string]any)
			if dstIsMap && srcIsMap {
				out[k] = deepMerge(dstMap, srcMap)
				continue
			}
		}
		out[k] = deepCopyValue(srcVal)
	}
	return out
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return t
	}
}
