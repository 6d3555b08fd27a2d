package authplugin

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/devproxy-io/devproxy/pkg/pipeline"
)

func newEvent(method, url string, headers *pipeline.Headers) *pipeline.RequestEvent {
	return pipeline.NewRequestEvent(method, url, headers, nil, pipeline.NewGlobalData())
}

func TestValidateAPIKeyHeaderMode(t *testing.T) {
	cfg := APIKeyConfig{Location: APIKeyInHeader, Name: "X-Api-Key", AllowedKeys: []string{"secret"}}

	h := pipeline.NewHeaders()
	h.Set("X-Api-Key", "secret")
	ev := newEvent(http.MethodGet, "https://api.example.com/x", h)
	assert.True(t, validateAPIKey(cfg, ev, ev.URL))

	h2 := pipeline.NewHeaders()
	h2.Set("X-Api-Key", "wrong")
	ev2 := newEvent(http.MethodGet, "https://api.example.com/x", h2)
	assert.False(t, validateAPIKey(cfg, ev2, ev2.URL))
}

func TestValidateAPIKeyQueryMode(t *testing.T) {
	cfg := APIKeyConfig{Location: APIKeyInQuery, Name: "api_key", AllowedKeys: []string{"secret"}}

	ev := newEvent(http.MethodGet, "https://api.example.com/x?api_key=secret", nil)
	assert.True(t, validateAPIKey(cfg, ev, ev.URL))

	ev2 := newEvent(http.MethodGet, "https://api.example.com/x", nil)
	assert.False(t, validateAPIKey(cfg, ev2, ev2.URL))
}

func TestValidateAPIKeyCookieMode(t *testing.T) {
	cfg := APIKeyConfig{Location: APIKeyInCookie, Name: "session_key", AllowedKeys: []string{"secret"}}

	h := pipeline.NewHeaders()
	h.Set("Cookie", "other=1; session_key=secret")
	ev := newEvent(http.MethodGet, "https://api.example.com/x", h)
	assert.True(t, validateAPIKey(cfg, ev, ev.URL))

	h2 := pipeline.NewHeaders()
	h2.Set("Cookie", "session_key=wrong")
	ev2 := newEvent(http.MethodGet, "https://api.example.com/x", h2)
	assert.False(t, validateAPIKey(cfg, ev2, ev2.URL))
}

func TestValidateAPIKeyMissingFails(t *testing.T) {
	cfg := APIKeyConfig{Location: APIKeyInHeader, Name: "X-Api-Key", AllowedKeys: []string{"secret"}}
	ev := newEvent(http.MethodGet, "https://api.example.com/x", nil)
	assert.False(t, validateAPIKey(cfg, ev, ev.URL))
}
