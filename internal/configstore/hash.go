package configstore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// canonicalJSON renders v deterministically: object keys sorted, no
// extraneous whitespace, so the hash is a function of the snapshot's
// values rather than of map iteration order.
func canonicalJSON(v any) []byte {
	var buf []byte
	buf = appendCanonical(buf, v)
	return buf
}

func appendCanonical(buf []byte, v any) []byte {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf = append(buf, '{')
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			kb, _ := json.Marshal(k)
			buf = append(buf, kb...)
			buf = append(buf, ':')
			buf = appendCanonical(buf, t[k])
		}
		buf = append(buf, '}')
		return buf
	case []any:
		buf = append(buf, '[')
		for i, e := range t {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendCanonical(buf, e)
		}
		buf = append(buf, ']')
		return buf
	default:
		b, _ := json.Marshal(v)
		return append(buf, b...)
	}
}

// snapshotHash computes the "sha256:<64 hex>" integrity hash of a
// snapshot over its canonical JSON form.
func snapshotHash(snap ConfigSnapshot) string {
	asTree := snapshotToTree(snap)
	sum := sha256.Sum256(canonicalJSON(asTree))
	return "sha256:" + hex.EncodeToString(sum[:])
}

// snapshotToTree round-trips a ConfigSnapshot through JSON into a plain
// map[string]any/[]any tree so canonicalJSON and flatten.Flatten can both
// operate on it without needing struct reflection.
func snapshotToTree(snap ConfigSnapshot) map[string]any {
	b, _ := json.Marshal(snap)
	var out map[string]any
	_ = json.Unmarshal(b, &out)
	return out
}
