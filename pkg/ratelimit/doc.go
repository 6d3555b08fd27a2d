// Package ratelimit implements the rate-limit plugin (§4.5): a sliding
// fixed-window counter over a single process-global cost pool, shared by
// every request the plugin watches.
package ratelimit
