package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/devproxy-io/devproxy/pkg/pipeline"
)

// Config controls the demo forward-proxy server.
type Config struct {
	ListenAddr      string
	UpstreamTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// DefaultConfig returns sensible defaults for the demo harness.
func DefaultConfig() Config {
	return Config{
		ListenAddr:      ":8080",
		UpstreamTimeout: 30 * time.Second,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     60 * time.Second,
	}
}

// Server is the forward-proxy harness: it owns the HTTP listener and walks
// every intercepted request through a pipeline.Dispatcher, either answering
// synthetically or relaying to the real upstream and walking
// BeforeResponse on the real reply (§3 control flow).
type Server struct {
	cfg        Config
	dispatcher *pipeline.Dispatcher
	global     *pipeline.GlobalData
	log        *slog.Logger
	client     *http.Client

	mu         sync.RWMutex
	running    bool
	startTime  time.Time
	httpServer *http.Server
}

// NewServer builds a Server. dispatcher has already been constructed over
// the plugin list BuildPlugins returns; global is the same GlobalData
// instance handed to the admin introspection API.
func NewServer(cfg Config, dispatcher *pipeline.Dispatcher, global *pipeline.GlobalData, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		global:     global,
		log:        log,
		client:     &http.Client{Timeout: cfg.UpstreamTimeout},
	}
}

// Start begins serving in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("engine: server is already running")
	}

	s.httpServer = &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	s.log.Info("engine starting", "addr", s.cfg.ListenAddr)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("engine server error", "error", err)
		}
	}()

	s.running = true
	s.startTime = time.Now()
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(ctx)
	s.running = false
	return err
}

// IsRunning reports whether the server is currently accepting traffic.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Uptime returns how long the server has been running.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startTime)
}

// ServeHTTP implements the proxy loop (§3 control flow, §4.2 invocation
// rules): build a RequestEvent, dispatch BeforeRequest, and either flush
// the synthetic response a plugin set or relay to the real upstream and
// dispatch BeforeResponse on its reply.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ev, err := eventFromRequest(r, s.global)
	if err != nil {
		http.Error(w, "failed to read request", http.StatusBadGateway)
		return
	}

	if err := s.dispatcher.DispatchBeforeRequest(ctx, ev); err != nil {
		s.log.Error("BeforeRequest failed", "url", ev.URL, "error", err)
		http.Error(w, "proxy error", http.StatusBadGateway)
		return
	}

	if ev.HasBeenSet() {
		if err := writeResponseSpec(w, ev.Response()); err != nil {
			s.log.Error("failed to write synthetic response", "url", ev.URL, "error", err)
		}
		return
	}

	s.relay(ctx, w, ev)
}

// relay forwards ev upstream, walks BeforeResponse on the real reply, and
// writes it back to the client.
func (s *Server) relay(ctx context.Context, w http.ResponseWriter, ev *pipeline.RequestEvent) {
	upstreamReq, err := http.NewRequestWithContext(ctx, ev.Method, ev.URL, bytesReader(ev.Body()))
	if err != nil {
		http.Error(w, "invalid upstream request", http.StatusBadGateway)
		return
	}
	writeHeaders(ev.Headers, upstreamReq.Header)

	upstreamResp, err := s.client.Do(upstreamReq)
	if err != nil {
		s.log.Error("upstream request failed", "url", ev.URL, "error", err)
		http.Error(w, "upstream request failed", http.StatusBadGateway)
		return
	}
	defer upstreamResp.Body.Close()

	body, err := io.ReadAll(upstreamResp.Body)
	if err != nil {
		http.Error(w, "failed to read upstream response", http.StatusBadGateway)
		return
	}

	resp := pipeline.NewResponseSpec(upstreamResp.StatusCode, body)
	resp.Headers = headersFromHTTP(upstreamResp.Header)
	ev.SetResponse(resp)

	if err := s.dispatcher.DispatchBeforeResponse(ctx, ev); err != nil {
		s.log.Error("BeforeResponse failed", "url", ev.URL, "error", err)
	}

	if err := writeResponseSpec(w, ev.Response()); err != nil {
		s.log.Error("failed to write upstream response", "url", ev.URL, "error", err)
	}
}

// SendMockRequest drives the MockRequest lifecycle hook (§4.2 item 5, §3
// "the synthetic 'mock request' feature that sends a proxy-initiated HTTP
// call"): it builds a RequestEvent from method, url, headers and body and
// lets plugins answer it
// without ever touching the network themselves.
func (s *Server) SendMockRequest(ctx context.Context, method, url string, headers map[string]string, body []byte) (*pipeline.ResponseSpec, error) {
	h := pipeline.NewHeaders()
	for k, v := range headers {
		h.Set(k, v)
	}
	ev := pipeline.NewRequestEvent(method, url, h, body, s.global)
	if err := s.dispatcher.DispatchMockRequest(ctx, ev); err != nil {
		return nil, err
	}
	return ev.Response(), nil
}
