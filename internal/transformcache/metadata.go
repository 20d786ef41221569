package transformcache

import (
	"encoding/json"

	"github.com/vitaliisemenov/transform-edge/internal/kvstore"
)

// encodeMetadata renders a CacheMetadata into the kvstore.Metadata sidecar
// shape (a plain map[string]any) via its JSON tags.
func encodeMetadata(m CacheMetadata) kvstore.Metadata {
	b, _ := json.Marshal(m)
	var out map[string]any
	_ = json.Unmarshal(b, &out)
	return kvstore.Metadata(out)
}

// decodeMetadata reverses encodeMetadata.
func decodeMetadata(meta kvstore.Metadata) (CacheMetadata, error) {
	var out CacheMetadata
	if meta == nil {
		return out, nil
	}
	b, err := json.Marshal(map[string]any(meta))
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, err
	}
	return out, nil
}

func containsString(list []string, target string) bool {
	for _, v := range list {
		if v == target {
			return true
		}
	}
	return false
}
