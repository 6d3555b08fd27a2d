package pipeline

import (
	"sync"

	"github.com/devproxy-io/devproxy/pkg/throttle"
)

// GlobalData is the process-global state shared by every in-flight
// request's pipeline run. Rather than exposing a single untyped
// map[string]any (as a literal reading of spec.md §3 might suggest), it
// exposes a small set of typed, named slots — the §9 design note rejecting
// an opaque globalData bag in favor of compile-time-checked cross-plugin
// coupling. Internally it still keys these slots by the well-known string
// constants spec.md names (e.g. "ThrottledRequests"), so a plugin
// inspecting raw keys (for diagnostics) sees the same names the spec
// describes.
type GlobalData struct {
	mu     sync.Mutex
	values map[string]any
}

// Well-known slot names, matching spec.md §3/§4.3 verbatim so logs and
// admin introspection read the same way the spec describes them.
const (
	slotThrottledRequests = "ThrottledRequests"
	slotAppliedMocks      = "AppliedMocks"
)

// NewGlobalData creates process-global state with its well-known slots
// pre-populated.
func NewGlobalData() *GlobalData {
	g := &GlobalData{values: make(map[string]any)}
	g.values[slotThrottledRequests] = throttle.NewRegistry()
	g.values[slotAppliedMocks] = &sync.Map{}
	return g
}

// Throttles returns the process-wide throttle registry.
func (g *GlobalData) Throttles() *throttle.Registry {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.values[slotThrottledRequests].(*throttle.Registry)
}

// AppliedMocks returns the process-wide applied-mocks occurrence counter,
// a sync.Map so that each key (mock URL) can be incremented atomically
// without a registry-wide lock (§9 design note).
func (g *GlobalData) AppliedMocks() *sync.Map {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.values[slotAppliedMocks].(*sync.Map)
}

// Get retrieves an arbitrary named slot for plugin-specific state that does
// not warrant its own typed accessor (e.g. a single plugin's private
// counter). Readers must type-assert the returned value themselves (§3
// invariant: "readers must type-check opaque values").
func (g *GlobalData) Get(key string) (any, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.values[key]
	return v, ok
}

// Set stores an arbitrary named slot. key should be namespaced by a
// constant string owned by a single plugin (§3 invariant).
func (g *GlobalData) Set(key string, value any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[key] = value
}

// GetOrInit atomically returns the existing value for key, or stores and
// returns init() if absent. Useful for lazily creating a plugin's private
// global-scoped state (e.g. the rate-limit plugin's counter) exactly once.
func (g *GlobalData) GetOrInit(key string, init func() any) any {
	g.mu.Lock()
	defer g.mu.Unlock()
	if v, ok := g.values[key]; ok {
		return v
	}
	v := init()
	g.values[key] = v
	return v
}
