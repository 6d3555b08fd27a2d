// Package throttle implements the process-wide throttle registry shared by
// every plugin that can reject a request with a Retry-After style response
// (§4.3). Entries are opaque beyond their throttling key, expiry time, and
// predicate; the retry-after plugin is the sole consumer that prunes and
// rejects based on them, while any plugin (random-error, rate-limit) may
// append one.
package throttle
