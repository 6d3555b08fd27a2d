package batch

import "github.com/devproxy-io/devproxy/pkg/chaos"

// Config configures the batch-request plugin (§4.2 step 3, §4.11).
type Config struct {
	// URLPattern identifies a batch URL; it is matched with the same
	// exact-or-wildcard rule as mock/CRUD URL matching (e.g. "*/$batch").
	URLPattern string
	// Errors reuses the random-error plugin's per-method candidate table
	// and rate so batch sub-requests draw from the same configured chaos
	// behavior as ordinary requests (§4.4 step 3).
	Errors chaos.Config
	// EnvelopeStatus is the outer HTTP status the batch response is wrapped
	// in; defaults to 200, the dominant upstream convention (§4.11 Open
	// Question).
	EnvelopeStatus int
}

// DefaultConfig returns a Config with the dominant vendor conventions.
func DefaultConfig() Config {
	return Config{
		URLPattern:     "*/$batch",
		Errors:         chaos.DefaultConfig(),
		EnvelopeStatus: 200,
	}
}
