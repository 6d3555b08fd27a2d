package chaos

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{RatePercent: 50, RetryAfterSeconds: 5}.Validate())
	assert.Error(t, Config{RatePercent: -1}.Validate())
	assert.Error(t, Config{RatePercent: 101}.Validate())
	assert.Error(t, Config{RatePercent: 50, RetryAfterSeconds: -1}.Validate())
}

func TestConfigAllowedFiltersCandidates(t *testing.T) {
	cfg := Config{AllowedErrors: []int{429, 500}}
	got := cfg.allowed([]int{429, 500, 502, 503, 504})
	assert.Equal(t, []int{429, 500}, got)
}

func TestConfigAllowedEmptyMeansNoRestriction(t *testing.T) {
	cfg := Config{}
	candidates := []int{429, 500, 502}
	assert.Equal(t, candidates, cfg.allowed(candidates))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 50, cfg.RatePercent)
	assert.Equal(t, 5, cfg.RetryAfterSeconds)
}
