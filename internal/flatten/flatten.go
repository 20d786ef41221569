// Package flatten provides dotted-path flatten/unflatten helpers over trees
// of maps, slices and primitives. It backs both configstore's diff
// computation and configapi's dotted value lookup, so the two stay
// consistent about what a "path" means.
package flatten

import (
	"sort"
	"strconv"
	"strings"
)

// Flatten walks an arbitrary JSON-like tree (map[string]any, []any, and
// scalars) and returns a map from dot-path to leaf value. Array indices
// appear as numeric path segments, e.g. "modules.core.config.tags.0".
//
// An empty map or empty slice is itself recorded as a leaf (there is no
// deeper path to descend into), so that flatten/unflatten round-trips
// empty containers instead of dropping them.
func Flatten(tree any) map[string]any {
	out := make(map[string]any)
	flattenInto(out, "", tree)
	return out
}

func flattenInto(out map[string]any, prefix string, v any) {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			out[prefix] = t
			return
		}
		for k, val := range t {
			flattenInto(out, joinPath(prefix, k), val)
		}
	case []any:
		if len(t) == 0 {
			out[prefix] = t
			return
		}
		for i, val := range t {
			flattenInto(out, joinPath(prefix, strconv.Itoa(i)), val)
		}
	default:
		out[prefix] = v
	}
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + "." + segment
}

// Unflatten reverses Flatten, rebuilding the nested map[string]any /
// []any tree. Numeric segments rebuild as []any only when every sibling
// at that level is itself numeric and contiguous from zero; otherwise
// they are treated as ordinary map keys (this matches how configuration
// trees are actually shaped: sparse or non-numeric keys never round
// trip through an array).
func Unflatten(flat map[string]any) map[string]any {
	root := make(map[string]any)
	paths := make([]string, 0, len(flat))
	for p := range flat {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		segments := strings.Split(p, ".")
		setPath(root, segments, flat[p])
	}
	return arrayify(root).(map[string]any)
}

func setPath(node map[string]any, segments []string, value any) {
	seg := segments[0]
	if len(segments) == 1 {
		node[seg] = value
		return
	}
	next, ok := node[seg].(map[string]any)
	if !ok {
		next = make(map[string]any)
		node[seg] = next
	}
	setPath(next, segments[1:], value)
}

// arrayify recursively converts any map[string]any whose keys are exactly
// "0".."N-1" into an []any, leaving everything else untouched.
func arrayify(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	for k, val := range m {
		m[k] = arrayify(val)
	}
	if isContiguousIndexMap(m) {
		arr := make([]any, len(m))
		for k, val := range m {
			idx, _ := strconv.Atoi(k)
			arr[idx] = val
		}
		return arr
	}
	return m
}

func isContiguousIndexMap(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for k := range m {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 || idx >= len(m) {
			return false
		}
	}
	return true
}

// GetPath traverses tree along the dotted path, returning (value, true)
// when every segment resolves, or (nil, false) on the first missing
// segment. Numeric segments index into []any.
func GetPath(tree any, path string) (any, bool) {
	if path == "" {
		return tree, true
	}
	cur := tree
	for _, seg := range strings.Split(path, ".") {
		switch t := cur.(type) {
		case map[string]any:
			v, ok := t[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(t) {
				return nil, false
			}
			cur = t[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}
