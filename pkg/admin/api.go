package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/devproxy-io/devproxy/pkg/pipeline"
	"github.com/devproxy-io/devproxy/pkg/ratelimit"
)

// API is the introspection server (§9 design note: "admin introspection").
// It holds no state of its own beyond the process-global pipeline data it
// was handed; every handler reads straight through to a live collaborator.
type API struct {
	global    *pipeline.GlobalData
	log       *slog.Logger
	startTime time.Time

	rateLimitPool   *ratelimit.Pool
	rateLimitConfig ratelimit.Config
	rateLimitWired  bool

	httpServer *http.Server
	port       int
}

// Option configures optional collaborators on an API at construction time.
type Option func(*API)

// WithRateLimit wires the admin API to the same rate-limit pool a
// ratelimit.Plugin instance charges against, enabling GET /admin/ratelimit.
// cfg supplies the Limit reported alongside the pool's live remaining count.
func WithRateLimit(pool *ratelimit.Pool, cfg ratelimit.Config) Option {
	return func(a *API) {
		a.rateLimitPool = pool
		a.rateLimitConfig = cfg
		a.rateLimitWired = true
	}
}

// NewAPI builds the admin API bound to global, the same GlobalData instance
// the dispatcher shares across every in-flight request.
func NewAPI(port int, global *pipeline.GlobalData, log *slog.Logger, opts ...Option) *API {
	if log == nil {
		log = slog.Default()
	}
	a := &API{global: global, log: log, port: port}
	for _, opt := range opts {
		opt(a)
	}

	mux := http.NewServeMux()
	a.registerRoutes(mux)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return a
}

// Start begins serving in the background.
func (a *API) Start() {
	a.startTime = time.Now()
	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("admin API error", "error", err)
		}
	}()
}

// Stop gracefully shuts down the server.
func (a *API) Stop(ctx context.Context) error {
	return a.httpServer.Shutdown(ctx)
}

// Uptime returns how long the server has been running.
func (a *API) Uptime() time.Duration {
	return time.Since(a.startTime)
}
