package batch

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devproxy-io/devproxy/pkg/pipeline"
)

func newBatchEvent(body []byte) *pipeline.RequestEvent {
	return pipeline.NewRequestEvent(http.MethodPost, "https://api.example.com/v1/$batch", nil, body, pipeline.NewGlobalData())
}

func TestPluginSkipsNonBatchURL(t *testing.T) {
	cfg := DefaultConfig()
	plugin := NewPlugin(cfg, nil)
	ev := pipeline.NewRequestEvent(http.MethodGet, "https://api.example.com/users", nil, nil, pipeline.NewGlobalData())

	require.NoError(t, plugin.BeforeRequest(context.Background(), ev))
	assert.False(t, ev.HasBeenSet())
}

func TestPluginAlwaysPassesComposesAllOK(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Errors.RatePercent = 0
	plugin := NewPlugin(cfg, nil)

	body := []byte(`{"requests":[{"id":"1","method":"GET","url":"/users/1"},{"id":"2","method":"GET","url":"/users/2"}]}`)
	ev := newBatchEvent(body)

	require.NoError(t, plugin.BeforeRequest(context.Background(), ev))
	require.True(t, ev.HasBeenSet())
	assert.Equal(t, http.StatusOK, ev.Response().StatusCode)

	var env ResponseEnvelope
	require.NoError(t, json.Unmarshal(ev.Response().Body, &env))
	require.Len(t, env.Responses, 2)
	for _, r := range env.Responses {
		assert.Equal(t, http.StatusOK, r.Status)
	}
}

func TestPluginAlwaysErrorsEveryStatusNonOK(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Errors.RatePercent = 100
	cfg.Errors.AllowedErrors = []int{http.StatusInternalServerError}
	plugin := NewPlugin(cfg, nil)

	body := []byte(`{"requests":[{"id":"1","method":"GET","url":"/users/1"}]}`)
	ev := newBatchEvent(body)

	require.NoError(t, plugin.BeforeRequest(context.Background(), ev))
	require.True(t, ev.HasBeenSet())

	var env ResponseEnvelope
	require.NoError(t, json.Unmarshal(ev.Response().Body, &env))
	require.Len(t, env.Responses, 1)
	assert.Equal(t, http.StatusInternalServerError, env.Responses[0].Status)
	assert.NotEmpty(t, env.Responses[0].Body)
}

func TestPluginDependsOnForces424(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Errors.RatePercent = 0
	plugin := NewPlugin(cfg, nil)

	body := []byte(`{"requests":[
		{"id":"1","method":"GET","url":"/users/1"},
		{"id":"2","method":"GET","url":"/orders/1","dependsOn":["1"]}
	]}`)
	ev := newBatchEvent(body)

	require.NoError(t, plugin.BeforeRequest(context.Background(), ev))

	var env ResponseEnvelope
	require.NoError(t, json.Unmarshal(ev.Response().Body, &env))
	require.Len(t, env.Responses, 2)
	assert.Equal(t, http.StatusOK, env.Responses[0].Status)
	assert.Equal(t, http.StatusFailedDependency, env.Responses[1].Status)
}

func TestPluginDependsOnUnknownIDDoesNotForce424(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Errors.RatePercent = 0
	plugin := NewPlugin(cfg, nil)

	body := []byte(`{"requests":[{"id":"1","method":"GET","url":"/users/1","dependsOn":["missing"]}]}`)
	ev := newBatchEvent(body)

	require.NoError(t, plugin.BeforeRequest(context.Background(), ev))

	var env ResponseEnvelope
	require.NoError(t, json.Unmarshal(ev.Response().Body, &env))
	require.Len(t, env.Responses, 1)
	assert.Equal(t, http.StatusOK, env.Responses[0].Status)
}

func TestPluginRegistersThrottleOn429(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Errors.RatePercent = 100
	cfg.Errors.AllowedErrors = []int{http.StatusTooManyRequests}
	plugin := NewPlugin(cfg, nil)

	body := []byte(`{"requests":[{"id":"1","method":"GET","url":"/users/1"}]}`)
	ev := newBatchEvent(body)

	require.NoError(t, plugin.BeforeRequest(context.Background(), ev))
	assert.Equal(t, 1, ev.Global().Throttles().Len())
}

func TestPluginSkipsWhenAlreadySet(t *testing.T) {
	cfg := DefaultConfig()
	plugin := NewPlugin(cfg, nil)
	ev := newBatchEvent([]byte(`{"requests":[]}`))
	ev.SetResponse(pipeline.NewResponseSpec(http.StatusOK, nil))

	require.NoError(t, plugin.BeforeRequest(context.Background(), ev))
	assert.Equal(t, http.StatusOK, ev.Response().StatusCode)
	assert.Empty(t, ev.Response().Body)
}
