package admin

import "net/http"

// registerRoutes sets up the admin API's routes, all under the /admin
// prefix (§3 Supplemented Features: ADMIN).
func (a *API) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin/health", a.handleHealth)
	mux.HandleFunc("GET /admin/throttles", a.handleListThrottles)
	mux.HandleFunc("GET /admin/ratelimit", a.handleGetRateLimit)
	mux.HandleFunc("GET /admin/mocks/applied", a.handleListAppliedMocks)
}
