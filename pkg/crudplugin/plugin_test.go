package crudplugin

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devproxy-io/devproxy/pkg/pipeline"
)

func newEvent(method, url string, body []byte, headers *pipeline.Headers) *pipeline.RequestEvent {
	return pipeline.NewRequestEvent(method, url, headers, body, pipeline.NewGlobalData())
}

func testAPI() API {
	return API{
		BaseURL: "https://api.example.com",
		Auth:    AuthNone,
		Document: NewDocument([]any{
			map[string]any{"id": "1", "name": "ada"},
		}),
		Actions: []Action{
			{Op: OpCreate, Method: http.MethodPost, URLTemplate: "/users"},
			{Op: OpGetAll, Method: http.MethodGet, URLTemplate: "/users"},
			{Op: OpGetOne, Method: http.MethodGet, URLTemplate: "/users/{id}", JSONPathQuery: `$[?(@.id=='{id}')]`},
			{Op: OpUpdate, Method: http.MethodPut, URLTemplate: "/users/{id}", JSONPathQuery: `$[?(@.id=='{id}')]`},
			{Op: OpDelete, Method: http.MethodDelete, URLTemplate: "/users/{id}", JSONPathQuery: `$[?(@.id=='{id}')]`},
		},
	}
}

func TestPluginGetAll(t *testing.T) {
	plugin := NewPlugin(testAPI(), nil)
	ev := newEvent(http.MethodGet, "https://api.example.com/users", nil, nil)

	require.NoError(t, plugin.BeforeRequest(context.Background(), ev))
	require.True(t, ev.HasBeenSet())
	assert.Equal(t, http.StatusOK, ev.Response().StatusCode)

	var users []any
	require.NoError(t, json.Unmarshal(ev.Response().Body, &users))
	assert.Len(t, users, 1)
}

func TestPluginGetOneNotFound(t *testing.T) {
	plugin := NewPlugin(testAPI(), nil)
	ev := newEvent(http.MethodGet, "https://api.example.com/users/999", nil, nil)

	require.NoError(t, plugin.BeforeRequest(context.Background(), ev))
	require.True(t, ev.HasBeenSet())
	assert.Equal(t, http.StatusNotFound, ev.Response().StatusCode)
}

func TestPluginCreateAppendsAndReturns201(t *testing.T) {
	plugin := NewPlugin(testAPI(), nil)
	ev := newEvent(http.MethodPost, "https://api.example.com/users", []byte(`{"id":"2","name":"grace"}`), nil)

	require.NoError(t, plugin.BeforeRequest(context.Background(), ev))
	require.True(t, ev.HasBeenSet())
	assert.Equal(t, http.StatusCreated, ev.Response().StatusCode)
}

func TestPluginDeleteReturns204(t *testing.T) {
	plugin := NewPlugin(testAPI(), nil)
	ev := newEvent(http.MethodDelete, "https://api.example.com/users/1", nil, nil)

	require.NoError(t, plugin.BeforeRequest(context.Background(), ev))
	require.True(t, ev.HasBeenSet())
	assert.Equal(t, http.StatusNoContent, ev.Response().StatusCode)
}

func TestPluginUnmatchedRoutePassesThrough(t *testing.T) {
	plugin := NewPlugin(testAPI(), nil)
	ev := newEvent(http.MethodGet, "https://api.example.com/unknown", nil, nil)

	require.NoError(t, plugin.BeforeRequest(context.Background(), ev))
	assert.False(t, ev.HasBeenSet())
}

func TestPluginUnauthorizedWhenEntraRequired(t *testing.T) {
	api := testAPI()
	api.Auth = AuthEntra
	api.EntraAuth = &EntraAuthConfig{Issuer: "x", Audience: "y", KeyFunc: testKeyFunc}
	plugin := NewPlugin(api, nil)
	ev := newEvent(http.MethodGet, "https://api.example.com/users", nil, nil)

	require.NoError(t, plugin.BeforeRequest(context.Background(), ev))
	require.True(t, ev.HasBeenSet())
	assert.Equal(t, http.StatusUnauthorized, ev.Response().StatusCode)
}

func TestPluginCORSPreflight(t *testing.T) {
	api := testAPI()
	api.EnableCORS = true
	plugin := NewPlugin(api, nil)

	h := pipeline.NewHeaders()
	h.Set("Origin", "https://app.example.com")
	ev := newEvent(http.MethodOptions, "https://api.example.com/users", nil, h)

	require.NoError(t, plugin.BeforeRequest(context.Background(), ev))
	require.True(t, ev.HasBeenSet())
	assert.Equal(t, http.StatusNoContent, ev.Response().StatusCode)
	assert.Equal(t, "https://app.example.com", ev.Response().Headers.Get("Access-Control-Allow-Origin"))
}
