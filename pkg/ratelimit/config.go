package ratelimit

import (
	"fmt"

	"github.com/devproxy-io/devproxy/pkg/pipeline"
)

// ResetFormat controls how the reset header value is rendered.
type ResetFormat string

const (
	ResetFormatSecondsLeft  ResetFormat = "secondsLeft"
	ResetFormatUTCEpochSecs ResetFormat = "utcEpochSeconds"
)

// WhenLimitExceeded selects what happens once the cost pool is exhausted.
type WhenLimitExceeded string

const (
	WhenLimitExceededThrottle WhenLimitExceeded = "throttle"
	WhenLimitExceededCustom   WhenLimitExceeded = "custom"
)

// Config mirrors the rate-limit plugin's configurable surface (§4.5).
type Config struct {
	Limit                   int
	CostPerRequest          int
	ResetWindowSeconds      int
	WarningThresholdPercent int

	HeaderLimit      string
	HeaderRemaining  string
	HeaderReset      string
	HeaderRetryAfter string

	ResetFormat       ResetFormat
	WhenLimitExceeded WhenLimitExceeded
	// CustomResponse is emitted verbatim when WhenLimitExceeded is Custom,
	// except that any header value equal to the literal "@dynamic" is
	// replaced with the computed Retry-After seconds (§4.5 step 4b).
	CustomResponse *pipeline.ResponseSpec
}

// DefaultConfig returns the plugin's out-of-the-box behavior.
func DefaultConfig() Config {
	return Config{
		Limit:                   100,
		CostPerRequest:          1,
		ResetWindowSeconds:      60,
		WarningThresholdPercent: 80,
		HeaderLimit:             "X-RateLimit-Limit",
		HeaderRemaining:         "X-RateLimit-Remaining",
		HeaderReset:             "X-RateLimit-Reset",
		HeaderRetryAfter:        "Retry-After",
		ResetFormat:             ResetFormatSecondsLeft,
		WhenLimitExceeded:       WhenLimitExceededThrottle,
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.Limit <= 0 {
		return fmt.Errorf("ratelimit: limit must be positive, got %d", c.Limit)
	}
	if c.CostPerRequest <= 0 {
		return fmt.Errorf("ratelimit: cost per request must be positive, got %d", c.CostPerRequest)
	}
	if c.ResetWindowSeconds <= 0 {
		return fmt.Errorf("ratelimit: reset window must be positive, got %d", c.ResetWindowSeconds)
	}
	if c.WarningThresholdPercent < 0 || c.WarningThresholdPercent > 100 {
		return fmt.Errorf("ratelimit: warning threshold percent must be between 0 and 100, got %d", c.WarningThresholdPercent)
	}
	switch c.WhenLimitExceeded {
	case WhenLimitExceededThrottle, WhenLimitExceededCustom, "":
	default:
		return fmt.Errorf("ratelimit: unknown whenLimitExceeded %q", c.WhenLimitExceeded)
	}
	if c.WhenLimitExceeded == WhenLimitExceededCustom && c.CustomResponse == nil {
		return fmt.Errorf("ratelimit: whenLimitExceeded=custom requires a CustomResponse")
	}
	return nil
}

func (c Config) headerLimit() string {
	if c.HeaderLimit == "" {
		return "X-RateLimit-Limit"
	}
	return c.HeaderLimit
}

func (c Config) headerRemaining() string {
	if c.HeaderRemaining == "" {
		return "X-RateLimit-Remaining"
	}
	return c.HeaderRemaining
}

func (c Config) headerReset() string {
	if c.HeaderReset == "" {
		return "X-RateLimit-Reset"
	}
	return c.HeaderReset
}

func (c Config) headerRetryAfter() string {
	if c.HeaderRetryAfter == "" {
		return "Retry-After"
	}
	return c.HeaderRetryAfter
}
