package transformcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdmissionRejectsUntransformedEcho(t *testing.T) {
	cfg := DefaultConfig()
	req := Request{Path: "/photo.jpg", Options: map[string]any{}}
	origin := Origin{ContentType: "image/jpeg", Size: 1000000, Bytes: make([]byte, 1000000)}
	resp := Response{Status: 200, ContentType: "image/jpeg", Bytes: make([]byte, 995000)}

	_, ok := admissionDecision(cfg, req, resp, origin)
	assert.False(t, ok)
}

func TestAdmissionAcceptsSignificantSizeReduction(t *testing.T) {
	cfg := DefaultConfig()
	req := Request{Path: "/photo.jpg"}
	origin := Origin{ContentType: "image/jpeg", Size: 1000000, Bytes: make([]byte, 1000000)}
	resp := Response{Status: 200, ContentType: "image/jpeg", Bytes: make([]byte, 900000)}

	_, ok := admissionDecision(cfg, req, resp, origin)
	assert.True(t, ok)
}

func TestAdmissionRejectsNonImageContentType(t *testing.T) {
	cfg := DefaultConfig()
	req := Request{Path: "/photo.jpg"}
	origin := Origin{ContentType: "image/jpeg", Size: 1000, Bytes: make([]byte, 1000)}
	resp := Response{Status: 200, ContentType: "application/json", Bytes: []byte("{}")}

	_, ok := admissionDecision(cfg, req, resp, origin)
	assert.False(t, ok)
}

func TestAdmissionRejectsOversized(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSize = 10
	req := Request{Path: "/photo.jpg"}
	origin := Origin{ContentType: "image/jpeg", Size: 1000, Bytes: make([]byte, 1000)}
	resp := Response{Status: 200, ContentType: "image/jpeg", Bytes: make([]byte, 20)}

	_, ok := admissionDecision(cfg, req, resp, origin)
	assert.False(t, ok)
}

func TestAdmissionRejectsDisallowedPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DisallowedPaths = []string{"/private/"}
	req := Request{Path: "/private/photo.jpg"}
	origin := Origin{ContentType: "image/jpeg", Size: 1000, Bytes: make([]byte, 1000)}
	resp := Response{Status: 200, ContentType: "image/jpeg", Bytes: make([]byte, 10)}

	_, ok := admissionDecision(cfg, req, resp, origin)
	assert.False(t, ok)
}

func TestAdmissionRejectsJSONFormat(t *testing.T) {
	cfg := DefaultConfig()
	req := Request{Path: "/photo.jpg", Format: "json"}
	origin := Origin{ContentType: "image/jpeg", Size: 1000, Bytes: make([]byte, 1000)}
	resp := Response{Status: 200, ContentType: "image/jpeg", Bytes: make([]byte, 10)}

	_, ok := admissionDecision(cfg, req, resp, origin)
	assert.False(t, ok)
}

func TestActuallyTransformedByExplicitCrop(t *testing.T) {
	req := Request{Options: map[string]any{"aspect": "16:9", "fit": "crop"}}
	origin := Origin{ContentType: "image/jpeg", Size: 1000}
	resp := Response{ContentType: "image/jpeg", Bytes: make([]byte, 999)}
	assert.True(t, actuallyTransformed(req, resp, origin))
}

func TestActuallyTransformedByManipulation(t *testing.T) {
	req := Request{Options: map[string]any{"blur": float64(5)}}
	origin := Origin{ContentType: "image/jpeg", Size: 1000}
	resp := Response{ContentType: "image/jpeg", Bytes: make([]byte, 1000)}
	assert.True(t, actuallyTransformed(req, resp, origin))
}

func TestActuallyTransformedByFormatChange(t *testing.T) {
	req := Request{}
	origin := Origin{ContentType: "image/jpeg", Size: 1000}
	resp := Response{ContentType: "image/webp", Bytes: make([]byte, 1000)}
	assert.True(t, actuallyTransformed(req, resp, origin))
}

func TestTagsForUsesCacheTagHeader(t *testing.T) {
	req := Request{Path: "/hero/a.jpg"}
	resp := Response{CacheTag: " hero , home "}
	assert.Equal(t, []string{"hero", "home"}, tagsFor(req, resp))
}

func TestTagsForDefaultsToFirstPathSegment(t *testing.T) {
	req := Request{Path: "/hero/a.jpg"}
	resp := Response{}
	assert.Equal(t, []string{"hero"}, tagsFor(req, resp))
}

func TestTTLForFallsBackToDefault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ContentTypeTTLs = map[string]int{"image/gif": 10}
	assert.Equal(t, 10, ttlFor(cfg, "image/gif"))
	assert.Equal(t, cfg.DefaultTTL, ttlFor(cfg, "image/jpeg"))
}
