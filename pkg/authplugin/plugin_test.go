package authplugin

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devproxy-io/devproxy/pkg/pipeline"
)

func TestPluginAPIKeyModeRejectsMissingKey(t *testing.T) {
	cfg := Config{
		Mode:   ModeAPIKey,
		APIKey: APIKeyConfig{Location: APIKeyInHeader, Name: "X-Api-Key", AllowedKeys: []string{"secret"}},
	}
	plugin := NewPlugin(cfg, nil)
	ev := newEvent(http.MethodGet, "https://api.example.com/x", nil)

	require.NoError(t, plugin.BeforeRequest(context.Background(), ev))
	require.True(t, ev.HasBeenSet())
	assert.Equal(t, http.StatusUnauthorized, ev.Response().StatusCode)
}

func TestPluginAPIKeyModePassesValidKey(t *testing.T) {
	cfg := Config{
		Mode:   ModeAPIKey,
		APIKey: APIKeyConfig{Location: APIKeyInHeader, Name: "X-Api-Key", AllowedKeys: []string{"secret"}},
	}
	plugin := NewPlugin(cfg, nil)

	h := pipeline.NewHeaders()
	h.Set("X-Api-Key", "secret")
	ev := newEvent(http.MethodGet, "https://api.example.com/x", h)

	require.NoError(t, plugin.BeforeRequest(context.Background(), ev))
	assert.False(t, ev.HasBeenSet())
}

func TestPluginOAuth2ModeRejectsMissingBearer(t *testing.T) {
	cfg := Config{
		Mode:   ModeOAuth2,
		OAuth2: baseOAuth2Config(),
	}
	plugin := NewPlugin(cfg, nil)
	ev := newEvent(http.MethodGet, "https://api.example.com/x", nil)

	require.NoError(t, plugin.BeforeRequest(context.Background(), ev))
	require.True(t, ev.HasBeenSet())
	assert.Equal(t, http.StatusUnauthorized, ev.Response().StatusCode)
}

func TestPluginOAuth2ModePassesValidToken(t *testing.T) {
	cfg := Config{
		Mode:   ModeOAuth2,
		OAuth2: baseOAuth2Config(),
	}
	plugin := NewPlugin(cfg, nil)

	token := signToken(t, baseOAuth2Claims())
	h := pipeline.NewHeaders()
	h.Set("Authorization", "Bearer "+token)
	ev := newEvent(http.MethodGet, "https://api.example.com/x", h)

	require.NoError(t, plugin.BeforeRequest(context.Background(), ev))
	assert.False(t, ev.HasBeenSet())
}

func TestPluginUnauthorizedIncludesCORSWhenOriginPresent(t *testing.T) {
	cfg := Config{
		Mode:   ModeAPIKey,
		APIKey: APIKeyConfig{Location: APIKeyInHeader, Name: "X-Api-Key", AllowedKeys: []string{"secret"}},
	}
	plugin := NewPlugin(cfg, nil)

	h := pipeline.NewHeaders()
	h.Set("Origin", "https://app.example.com")
	ev := newEvent(http.MethodGet, "https://api.example.com/x", h)

	require.NoError(t, plugin.BeforeRequest(context.Background(), ev))
	require.True(t, ev.HasBeenSet())
	assert.Equal(t, "https://app.example.com", ev.Response().Headers.Get("Access-Control-Allow-Origin"))
}
