package schemavalidator

import (
	"net"
	"net/url"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// formatConstraint implements the "format" keyword over a fixed set:
// date-time, date, time, email, ipv4, uri, uuid, hostname, env-var.
// Unknown format names are accepted (JSON schema treats unrecognized
// formats as informative, not an error).
type formatConstraint struct {
	name string
}

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	hostnamePattern = regexp.MustCompile(`^(?i)([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)*[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)
	envRefFull      = regexp.MustCompile(`\$\{[A-Za-z0-9_]+\}`)
)

func (c formatConstraint) check(v any, path Location, r *Result) {
	s, ok := v.(string)
	if !ok {
		return
	}
	ok = true
	switch c.name {
	case "date-time":
		_, err := time.Parse(time.RFC3339, s)
		ok = err == nil
	case "date":
		_, err := time.Parse("2006-01-02", s)
		ok = err == nil
	case "time":
		_, err := time.Parse("15:04:05", s)
		ok = err == nil
	case "email":
		ok = emailPattern.MatchString(s)
	case "ipv4":
		parsed := net.ParseIP(s)
		ok = parsed != nil && parsed.To4() != nil
	case "uri":
		ok = validURI(s)
	case "uuid":
		// uuid.Parse also accepts urn: and braced forms; require the
		// canonical hyphenated rendering.
		_, err := uuid.Parse(s)
		ok = err == nil && len(s) == 36
	case "hostname":
		ok = len(s) <= 253 && hostnamePattern.MatchString(normalizeEnvRefs(s))
	case "env-var":
		ok = envRefFull.MatchString(s)
	default:
		return
	}
	if !ok {
		r.addError(path, "must match format %q", c.name)
	}
}

// normalizeEnvRefs replaces every "${NAME}" occurrence with a stable
// placeholder host label so that a value like "${X}.example.com" can
// still be format-checked as a URI/hostname.
func normalizeEnvRefs(s string) string {
	return envRefFull.ReplaceAllString(s, "envref")
}

// validURI requires an absolute URI (a scheme present), as distinct
// from a bare URI-reference.
func validURI(s string) bool {
	u, err := url.Parse(normalizeEnvRefs(s))
	return err == nil && u.Scheme != ""
}
