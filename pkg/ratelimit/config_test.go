package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/devproxy-io/devproxy/pkg/pipeline"
)

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{Limit: 0}.Validate())
	assert.Error(t, Config{Limit: 1, CostPerRequest: 0}.Validate())
	assert.Error(t, Config{Limit: 1, CostPerRequest: 1, ResetWindowSeconds: 0}.Validate())
	assert.Error(t, Config{Limit: 1, CostPerRequest: 1, ResetWindowSeconds: 1, WarningThresholdPercent: 200}.Validate())
}

func TestConfigValidateCustomRequiresResponse(t *testing.T) {
	cfg := Config{Limit: 1, CostPerRequest: 1, ResetWindowSeconds: 1, WhenLimitExceeded: WhenLimitExceededCustom}
	assert.Error(t, cfg.Validate())

	cfg.CustomResponse = pipeline.NewResponseSpec(503, nil)
	assert.NoError(t, cfg.Validate())
}

func TestHeaderDefaults(t *testing.T) {
	var cfg Config
	assert.Equal(t, "X-RateLimit-Limit", cfg.headerLimit())
	assert.Equal(t, "X-RateLimit-Remaining", cfg.headerRemaining())
	assert.Equal(t, "X-RateLimit-Reset", cfg.headerReset())
	assert.Equal(t, "Retry-After", cfg.headerRetryAfter())
}
