package cachedconfig

import (
	"regexp"
	"strings"
	"sync"
)

// globCache memoizes compiled glob patterns; the pattern set comes from
// configuration and changes only on refresh, so a small unbounded map
// guarded by a mutex is enough (no eviction needed in practice).
var globCache sync.Map // string -> *regexp.Regexp

// globToRegexp converts a shell-style glob into an anchored regular
// expression: "*" becomes ".*", "?" becomes ".", and "{a,b}" becomes
// "(a|b)". Everything else is escaped literally.
func globToRegexp(pattern string) (*regexp.Regexp, error) {
	if cached, ok := globCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}

	var b strings.Builder
	b.WriteString("^")
	inBraces := false
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '{':
			inBraces = true
			b.WriteString("(")
		case '}':
			inBraces = false
			b.WriteString(")")
		case ',':
			if inBraces {
				b.WriteString("|")
			} else {
				b.WriteString(",")
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, err
	}
	globCache.Store(pattern, re)
	return re, nil
}

// normalizePath leading-slash-normalizes a request path for pattern
// matching: it guarantees exactly one leading slash.
func normalizePath(path string) string {
	return "/" + strings.TrimLeft(path, "/")
}

// matchesAnyGlob reports whether path matches any of patterns once both
// are normalized; malformed patterns are skipped rather than erroring,
// since they originate from stored configuration, not caller input.
func matchesAnyGlob(path string, patterns []string) bool {
	normalized := normalizePath(path)
	for _, pattern := range patterns {
		re, err := globToRegexp(normalizePath(pattern))
		if err != nil {
			continue
		}
		if re.MatchString(normalized) {
			return true
		}
	}
	return false
}

func containsSubstring(haystack string, needles []string) bool {
	if haystack == "" {
		return false
	}
	for _, n := range needles {
		if n != "" && strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func containsExact(list []string, target string) bool {
	for _, v := range list {
		if v == target {
			return true
		}
	}
	return false
}

func toStringSlice(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, e := range list {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// isImmutableContent checks an already-merged config tree: it is gated
// on cache.immutableContent.enabled, and then true on a path-pattern
// match, a content-type substring match, or a derivative-name match.
func isImmutableContent(merged map[string]any, path, contentType, derivative string) bool {
	cache, _ := merged["cache"].(map[string]any)
	immutable, _ := cache["immutableContent"].(map[string]any)
	if immutable == nil {
		return false
	}
	enabled, _ := immutable["enabled"].(bool)
	if !enabled {
		return false
	}

	if path != "" && matchesAnyGlob(path, toStringSlice(immutable["paths"])) {
		return true
	}
	if contentType != "" && containsSubstring(contentType, toStringSlice(immutable["contentTypes"])) {
		return true
	}
	if derivative != "" && containsExact(toStringSlice(immutable["derivatives"]), derivative) {
		return true
	}
	return false
}
