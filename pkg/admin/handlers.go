package admin

import (
	"net/http"
	"time"

	"github.com/devproxy-io/devproxy/pkg/httputil"
)

// HealthResponse is the GET /admin/health body.
type HealthResponse struct {
	Status    string    `json:"status"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Uptime:    a.Uptime().String(),
		Timestamp: time.Now().UTC(),
	})
}

// ThrottleEntry mirrors throttle.Info for the wire, since Predicate is not
// JSON-serializable.
type ThrottleEntry struct {
	Key       string    `json:"key"`
	ResetTime time.Time `json:"resetTime"`
}

// handleListThrottles handles GET /admin/throttles, surfacing the process-wide
// throttle registry (§4.3 ThrottledRequests) for operators diagnosing why a
// request is being rejected.
func (a *API) handleListThrottles(w http.ResponseWriter, r *http.Request) {
	snapshot := a.global.Throttles().Snapshot()
	entries := make([]ThrottleEntry, 0, len(snapshot))
	for _, info := range snapshot {
		entries = append(entries, ThrottleEntry{Key: info.Key, ResetTime: info.ResetTime})
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

// RateLimitState is the GET /admin/ratelimit body, mirroring the headers
// the rate-limit plugin stashes on a response (§4.5 step 5).
type RateLimitState struct {
	Wired     bool      `json:"wired"`
	Limit     int       `json:"limit,omitempty"`
	Remaining int       `json:"remaining,omitempty"`
	ResetTime time.Time `json:"resetTime,omitempty"`
}

// handleGetRateLimit handles GET /admin/ratelimit, surfacing the live state
// of the process-wide rate-limit cost pool (§4.5). Wired is false when no
// RateLimitPlugin is configured, so operators can distinguish "no traffic
// yet" from "plugin disabled".
func (a *API) handleGetRateLimit(w http.ResponseWriter, r *http.Request) {
	if !a.rateLimitWired {
		httputil.WriteJSON(w, http.StatusOK, RateLimitState{Wired: false})
		return
	}
	remaining, resetTime, initialized := a.rateLimitPool.Snapshot()
	state := RateLimitState{Wired: true, Limit: a.rateLimitConfig.Limit}
	if initialized {
		state.Remaining = remaining
		state.ResetTime = resetTime
	} else {
		state.Remaining = a.rateLimitConfig.Limit
	}
	httputil.WriteJSON(w, http.StatusOK, state)
}

// AppliedMockEntry is one (mock URL, occurrence count) pair from the
// process-wide AppliedMocks counter (§3 AppliedMocks).
type AppliedMockEntry struct {
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// handleListAppliedMocks handles GET /admin/mocks/applied, surfacing how
// many qualifying requests each mock URL has seen — the same counter the
// Nth-match rule consults (§4.7 step 3).
func (a *API) handleListAppliedMocks(w http.ResponseWriter, r *http.Request) {
	var entries []AppliedMockEntry
	a.global.AppliedMocks().Range(func(key, value any) bool {
		entries = append(entries, AppliedMockEntry{URL: key.(string), Count: value.(int)})
		return true
	})
	httputil.WriteJSON(w, http.StatusOK, entries)
}
