package throttle

import (
	"sync"
	"time"
)

// Verdict is what a throttle Predicate returns for an incoming request: how
// many seconds the caller must wait, and which header name should carry
// that value. Seconds == 0 means the predicate does not apply to this
// request (different throttling key).
type Verdict struct {
	Seconds    int
	HeaderName string
}

// Predicate decides whether a throttle entry applies to an incoming
// request, identified opaquely by key (by default the request URL's host;
// vendor-specific plugins may compose richer keys).
type Predicate func(requestKey string) Verdict

// Info is a single registry entry (§3 ThrottlerInfo).
type Info struct {
	Key       string
	Predicate Predicate
	ResetTime time.Time
}

// Registry is the process-wide list of active throttles, stored by the
// runtime under the well-known globalData["ThrottledRequests"] slot (§4.3).
// It is safe for concurrent use: appends take a single mutex, and the
// retry-after plugin's prune-then-evaluate pass is atomic with respect to
// other callers of Evaluate (Evaluate drops expired entries and evaluates
// the rest under one lock), but not with respect to concurrent Append
// calls from other plugins — an entry appended mid-prune is simply
// evaluated (or pruned) on the next pass, which is harmless (§5).
type Registry struct {
	mu      sync.Mutex
	entries []*Info
}

// NewRegistry creates an empty throttle registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Append adds a new throttle entry. Any plugin issuing a response with
// Retry-After semantics must call this (§4.3).
func (r *Registry) Append(key string, predicate Predicate, resetTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, &Info{Key: key, Predicate: predicate, ResetTime: resetTime})
}

// PruneExpired removes every entry whose ResetTime has passed. Must be
// called before Evaluate by the retry-after plugin on every BeforeRequest
// pass (§4.3).
func (r *Registry) PruneExpired(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.entries[:0:0]
	for _, e := range r.entries {
		if !e.ResetTime.Before(now) {
			kept = append(kept, e)
		}
	}
	r.entries = kept
}

// Evaluate first drops every entry whose ResetTime has passed, then runs
// every remaining entry's predicate for requestKey in registration order
// and returns the first Verdict with Seconds > 0, updating that entry's
// ResetTime to now+seconds so repeated violators keep getting rejected
// (§4.3). Both steps happen under one lock. The second return value is
// false if no entry applies.
func (r *Registry) Evaluate(requestKey string, now time.Time) (Verdict, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.entries[:0:0]
	for _, e := range r.entries {
		if !e.ResetTime.Before(now) {
			kept = append(kept, e)
		}
	}
	r.entries = kept
	for _, e := range r.entries {
		v := e.Predicate(requestKey)
		if v.Seconds > 0 {
			e.ResetTime = now.Add(time.Duration(v.Seconds) * time.Second)
			return v, true
		}
	}
	return Verdict{}, false
}

// Len returns the number of entries currently registered (for admin
// introspection), without pruning.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Snapshot returns a copy of the current entries for read-only inspection
// (admin API, tests). Predicates are not invoked.
func (r *Registry) Snapshot() []Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Info, len(r.entries))
	for i, e := range r.entries {
		out[i] = *e
	}
	return out
}

// HostKey derives the default throttling key for a request URL: its host.
func HostKey(host string) string {
	return host
}
