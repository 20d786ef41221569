package schemavalidator

import (
	"regexp"
	"unicode/utf8"
)

// stringConstraint implements minLength/maxLength/pattern. A no-op
// against non-string values.
type stringConstraint struct {
	minLen  *int
	maxLen  *int
	pattern *regexp.Regexp
}

func parseString(raw map[string]any) (stringConstraint, bool) {
	var c stringConstraint
	found := false

	if v, ok := asInt(raw["minLength"]); ok {
		c.minLen = &v
		found = true
	}
	if v, ok := asInt(raw["maxLength"]); ok {
		c.maxLen = &v
		found = true
	}
	if p, ok := raw["pattern"].(string); ok {
		if re, err := regexp.Compile(p); err == nil {
			c.pattern = re
			found = true
		}
	}
	return c, found
}

func (c stringConstraint) check(v any, path Location, r *Result) {
	s, ok := v.(string)
	if !ok {
		return
	}
	n := utf8.RuneCountInString(s)
	if c.minLen != nil && n < *c.minLen {
		r.addError(path, "must be at least %d characters", *c.minLen)
	}
	if c.maxLen != nil && n > *c.maxLen {
		r.addError(path, "must be at most %d characters", *c.maxLen)
	}
	if c.pattern != nil && !c.pattern.MatchString(s) {
		r.addError(path, "must match pattern %s", c.pattern.String())
	}
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	default:
		return 0, false
	}
}
