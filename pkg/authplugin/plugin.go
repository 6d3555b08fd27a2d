package authplugin

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/devproxy-io/devproxy/pkg/pipeline"
)

// Name is the plugin name the dispatcher and admin introspection use to
// refer to the auth plugin.
const Name = "AuthPlugin"

// Mode selects which of the two mutually exclusive validation schemes the
// plugin enforces (§4.10).
type Mode string

const (
	ModeAPIKey Mode = "apiKey"
	ModeOAuth2 Mode = "oauth2"
)

// Config configures the auth plugin. Exactly one of APIKey/OAuth2 is read,
// selected by Mode.
type Config struct {
	Mode   Mode
	APIKey APIKeyConfig
	OAuth2 OAuth2Config
}

// NewPlugin builds the auth plugin: every watched request is validated per
// cfg.Mode before any other plugin runs; on failure it emits a 401 with a
// fixed JSON body and, when the request carries an Origin, CORS headers so
// browser-based callers can read the rejection (§4.10).
func NewPlugin(cfg Config, log *slog.Logger) pipeline.Plugin {
	if log == nil {
		log = slog.Default()
	}

	p := pipeline.NewPlugin(Name)
	p.BeforeRequest = func(ctx context.Context, ev *pipeline.RequestEvent) error {
		if validate(cfg, ev) {
			return nil
		}
		log.Debug("auth rejected request", "plugin", Name, "mode", cfg.Mode, "url", ev.URL)
		emitUnauthorized(ev)
		return nil
	}
	return p
}

func validate(cfg Config, ev *pipeline.RequestEvent) bool {
	switch cfg.Mode {
	case ModeAPIKey:
		return validateAPIKey(cfg.APIKey, ev, ev.URL)
	case ModeOAuth2:
		token, ok := bearerToken(ev.Headers.Get("Authorization"))
		if !ok {
			return false
		}
		return validateOAuth2(cfg.OAuth2, token)
	default:
		return true
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	return strings.TrimPrefix(header, prefix), true
}

func emitUnauthorized(ev *pipeline.RequestEvent) {
	resp := pipeline.NewResponseSpec(http.StatusUnauthorized, []byte(`{"error":{"message":"Unauthorized"}}`))
	resp.Headers.Set("Content-Type", "application/json")
	if origin := ev.Headers.Get("Origin"); origin != "" {
		resp.Headers.Set("Access-Control-Allow-Origin", origin)
		resp.Headers.Set("Access-Control-Allow-Credentials", "true")
	}
	ev.SetResponse(resp)
}
