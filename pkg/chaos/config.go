package chaos

import "fmt"

// Config controls the random-error plugin's behavior (§4.4).
type Config struct {
	// RatePercent is the chance, 0-100, that any single request is answered
	// with a synthetic error instead of passing through. 100 means every
	// request errors; the plugin treats exactly 100 as "always", bypassing
	// the random draw entirely so a deterministic test fixture doesn't need
	// to seed randomness.
	RatePercent int

	// RetryAfterSeconds is the window a 429 draw registers in the throttle
	// registry: further requests to the same host are rejected without a
	// fresh random draw until this many seconds elapse (§4.3, §4.4).
	RetryAfterSeconds int

	// AllowedErrors optionally restricts the candidate status codes to this
	// set, intersected with the per-method table. A nil slice means no
	// restriction.
	AllowedErrors []int
}

// DefaultConfig returns the plugin's out-of-the-box behavior.
func DefaultConfig() Config {
	return Config{RatePercent: 50, RetryAfterSeconds: 5}
}

// Validate checks the configuration is within range.
func (c Config) Validate() error {
	if c.RatePercent < 0 || c.RatePercent > 100 {
		return fmt.Errorf("chaos: rate percent must be between 0 and 100, got %d", c.RatePercent)
	}
	if c.RetryAfterSeconds < 0 {
		return fmt.Errorf("chaos: retry-after seconds must not be negative, got %d", c.RetryAfterSeconds)
	}
	return nil
}

// allowed filters candidates down to AllowedErrors, when set.
func (c Config) allowed(candidates []int) []int {
	if len(c.AllowedErrors) == 0 {
		return candidates
	}
	allow := make(map[int]bool, len(c.AllowedErrors))
	for _, code := range c.AllowedErrors {
		allow[code] = true
	}
	out := candidates[:0:0]
	for _, code := range candidates {
		if allow[code] {
			out = append(out, code)
		}
	}
	return out
}
