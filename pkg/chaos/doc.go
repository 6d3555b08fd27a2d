// Package chaos implements the random-error and latency plugins: the
// behavioral fault-injection half of the proxy's chaos subsystem (§4.4,
// §4.6). Rate-limiting and retry-after enforcement, the other half of the
// chaos/throttling subsystem, live in pkg/ratelimit and pkg/retryafter —
// all three share the throttle registry in pkg/throttle.
package chaos
