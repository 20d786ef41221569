package transformcache

import "strings"

// manipulationOptions are the option keys whose mere presence counts as
// "other manipulation" for the actually-transformed predicate.
var manipulationOptions = []string{"blur", "brightness", "contrast", "gamma", "sharpen", "rotate"}

// admissionDecision returns ("", true) when resp should be written to
// the cache, or a short reason string and false otherwise. Rejection is
// always silent to the caller; the reason is for debug logging only.
func admissionDecision(cfg Config, req Request, resp Response, origin Origin) (reason string, ok bool) {
	if resp.Status != 200 {
		return "status", false
	}
	if origin.Bytes == nil {
		return "missing-origin", false
	}
	if !strings.HasPrefix(resp.ContentType, "image/") {
		return "non-image-content-type", false
	}
	if int64(len(resp.Bytes)) > cfg.MaxSize {
		return "too-large", false
	}
	for _, disallowed := range cfg.DisallowedPaths {
		if disallowed != "" && strings.Contains(req.Path, disallowed) {
			return "disallowed-path", false
		}
	}
	if req.Format == "json" {
		return "json-format", false
	}
	if !actuallyTransformed(req, resp, origin) {
		return "not-actually-transformed", false
	}
	return "", true
}

// actuallyTransformed reports whether resp counts as transformed
// relative to its origin: a meaningful size reduction, a format change,
// an explicit crop, a pixel manipulation, or explicit dimensions with
// at least a marginal size reduction.
func actuallyTransformed(req Request, resp Response, origin Origin) bool {
	if origin.Size > 0 {
		if float64(len(resp.Bytes)) < 0.95*float64(origin.Size) {
			return true
		}
	}
	if origin.ContentType != "" && resp.ContentType != "" && origin.ContentType != resp.ContentType {
		return true
	}
	if isExplicitCrop(req.Options) {
		return true
	}
	if hasManipulation(req.Options) {
		return true
	}
	if hasExplicitDimensions(req.Options) && origin.Size > 0 {
		if float64(len(resp.Bytes)) < 0.99*float64(origin.Size) {
			return true
		}
	}
	return false
}

func isExplicitCrop(opts map[string]any) bool {
	if opts == nil {
		return false
	}
	if _, hasAspect := opts["aspect"]; !hasAspect {
		return false
	}
	fit, _ := opts["fit"].(string)
	return fit == "crop"
}

func hasManipulation(opts map[string]any) bool {
	if opts == nil {
		return false
	}
	for _, key := range manipulationOptions {
		if v, ok := opts[key]; ok && v != nil {
			return true
		}
	}
	return false
}

func hasExplicitDimensions(opts map[string]any) bool {
	if opts == nil {
		return false
	}
	_, hasW := opts["width"]
	_, hasH := opts["height"]
	return hasW || hasH
}

// ttlFor resolves the TTL in seconds for contentType per
// contentTypeTtls[contentType] ?? defaultTtl.
func ttlFor(cfg Config, contentType string) int {
	if cfg.ContentTypeTTLs != nil {
		if ttl, ok := cfg.ContentTypeTTLs[contentType]; ok {
			return ttl
		}
	}
	return cfg.DefaultTTL
}

// tagsFor derives tags from the response's cache-tag header
// (comma-split, trimmed). The first non-empty path segment is appended
// as a default tag unless the header already carries it.
func tagsFor(req Request, resp Response) []string {
	var tags []string
	if resp.CacheTag != "" {
		for _, t := range strings.Split(resp.CacheTag, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				tags = append(tags, t)
			}
		}
	}
	if seg := firstPathSegment(req.Path); seg != "" && !containsString(tags, seg) {
		tags = append(tags, seg)
	}
	return tags
}

func firstPathSegment(p string) string {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return ""
	}
	if idx := strings.Index(p, "/"); idx >= 0 {
		return p[:idx]
	}
	return p
}
