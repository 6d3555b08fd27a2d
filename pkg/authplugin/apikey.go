package authplugin

import (
	"net/http"
	"net/url"

	"github.com/devproxy-io/devproxy/pkg/pipeline"
)

// APIKeyLocation is where the auth plugin looks for the API key (§4.10).
type APIKeyLocation string

const (
	APIKeyInHeader APIKeyLocation = "header"
	APIKeyInQuery  APIKeyLocation = "query"
	APIKeyInCookie APIKeyLocation = "cookie"
)

// APIKeyConfig configures API-key mode.
type APIKeyConfig struct {
	Location    APIKeyLocation
	Name        string
	AllowedKeys []string
}

// validateAPIKey extracts the key from ev per cfg's configured position and
// checks it against the allow-list (§4.10 "API-key mode").
func validateAPIKey(cfg APIKeyConfig, ev *pipeline.RequestEvent, rawURL string) bool {
	key, ok := extractAPIKey(cfg, ev, rawURL)
	if !ok || key == "" {
		return false
	}
	for _, allowed := range cfg.AllowedKeys {
		if key == allowed {
			return true
		}
	}
	return false
}

func extractAPIKey(cfg APIKeyConfig, ev *pipeline.RequestEvent, rawURL string) (string, bool) {
	switch cfg.Location {
	case APIKeyInQuery:
		return queryParam(rawURL, cfg.Name)
	case APIKeyInCookie:
		return cookieValue(ev.Headers.Get("Cookie"), cfg.Name)
	default:
		v := ev.Headers.Get(cfg.Name)
		return v, v != ""
	}
}

func queryParam(rawURL, name string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	values := u.Query()
	if !values.Has(name) {
		return "", false
	}
	return values.Get(name), true
}

func cookieValue(cookieHeader, name string) (string, bool) {
	header := http.Header{}
	header.Set("Cookie", cookieHeader)
	req := http.Request{Header: header}
	c, err := req.Cookie(name)
	if err != nil {
		return "", false
	}
	return c.Value, true
}
