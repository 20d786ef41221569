package transformcache

import (
	"encoding/json"
	"hash/fnv"
	"path"
	"sort"
	"strconv"
	"strings"
)

// tokenOrder is the fixed emission order for known transform options,
// each mapped to its short code ("w800", "h600", "q85", "r16-9",
// "p0.5-0.5", "fitcover", ...). Manipulation flags checked by the
// admission predicate (blur, brightness, contrast, gamma, sharpen,
// rotate) are included so that two requests differing only in one of
// these never collide on the same key.
var tokenOrder = []struct {
	option string
	code   string
}{
	{"width", "w"},
	{"height", "h"},
	{"quality", "q"},
	{"aspect", "r"},
	{"position", "p"},
	{"fit", "fit"},
	{"blur", "blur"},
	{"brightness", "br"},
	{"contrast", "co"},
	{"gamma", "ga"},
	{"sharpen", "sh"},
	{"rotate", "rot"},
}

// paramTokens renders opts into the hyphen-joined sequence of short
// codes the key format requires, in tokenOrder.
func paramTokens(opts map[string]any) string {
	var tokens []string
	for _, t := range tokenOrder {
		v, ok := opts[t.option]
		if !ok || v == nil {
			continue
		}
		tokens = append(tokens, t.code+tokenValue(v))
	}
	return strings.Join(tokens, "-")
}

func tokenValue(v any) string {
	switch x := v.(type) {
	case string:
		return strings.ReplaceAll(x, ":", "-")
	case bool:
		if x {
			return "1"
		}
		return "0"
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int:
		return strconv.Itoa(x)
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

// basename returns the final path segment ("/img/landscape.jpg" keys as
// "...:landscape.jpg:...").
func basename(p string) string {
	b := path.Base(p)
	if b == "." || b == "/" {
		return ""
	}
	return b
}

// fnv1aHex hashes input with 32-bit FNV-1a (hash/fnv performs the
// multiplication mod 2^32) and renders it as lowercase hex.
func fnv1aHex(input string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(input))
	return strconv.FormatUint(uint64(h.Sum32()), 16)
}

func fnv1aHexPadded(input string) string {
	hex := fnv1aHex(input)
	if len(hex) < 8 {
		hex = strings.Repeat("0", 8-len(hex)) + hex
	}
	return hex
}

// canonicalOptionsJSON renders opts deterministically (sorted keys) so
// that the hash input is a pure function of the option *values*, not of
// map iteration order.
func canonicalOptionsJSON(opts map[string]any) string {
	if len(opts) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		vb, _ := json.Marshal(opts[k])
		b.Write(kb)
		b.WriteByte(':')
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.String()
}

// BuildKey is a pure function of (prefix, request path, raw query,
// canonicalized options, format): identical inputs always yield an
// identical key.
func BuildKey(prefix string, req Request, format string) TransformKey {
	hashInput := req.Path + req.RawQuery + canonicalOptionsJSON(req.Options)
	hash := fnv1aHexPadded(hashInput)

	parts := []string{prefix, basename(req.Path)}
	if toks := paramTokens(req.Options); toks != "" {
		parts = append(parts, toks)
	}
	parts = append(parts, format, hash)
	return TransformKey(strings.Join(parts, ":"))
}
