// Package retryafter implements the retry-after plugin (§4.3, §4.9): it
// prunes expired entries from the shared throttle registry, then rejects
// any watched request whose key still has an active throttler, emitting a
// 429 with the throttler's configured header.
package retryafter
