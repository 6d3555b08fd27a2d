package pipeline

import (
	"context"
	"log/slog"

	"github.com/devproxy-io/devproxy/pkg/urlwatch"
)

// RecordingStopArgs carries whatever the out-of-core-scope recording
// subsystem hands reporting plugins when recording stops (§4.2 item 6).
// The dispatcher only threads it through; it does not interpret it.
type RecordingStopArgs struct {
	SessionID string
	Extra     map[string]any
}

// Plugin is a capability-bearing record: rather than an interface a plugin
// must implement in full (forcing every plugin to stub out lifecycle
// events it has no interest in), each plugin supplies only the hook
// functions it implements, leaving the rest nil. The dispatcher
// interrogates the record rather than a class hierarchy (§9 design note).
//
// A plugin whose Watched field is false opts out of the dispatcher's
// automatic hasBeenSet/URL-watch precondition check on BeforeRequest and
// BeforeResponse — every plugin described in spec.md wants that check, so
// it defaults to true; a plugin built later that genuinely needs to run
// unconditionally (an audit/logging plugin, say) can set it false.
type Plugin struct {
	Name    string
	Watched bool

	Initialize         func(ctx context.Context) error
	OptionsLoaded      func(opts any) error
	BeforeRequest      func(ctx context.Context, ev *RequestEvent) error
	BeforeResponse     func(ctx context.Context, ev *RequestEvent) error
	MockRequest        func(ctx context.Context, ev *RequestEvent) error
	AfterRecordingStop func(ctx context.Context, args RecordingStopArgs) error
}

// NewPlugin returns a Plugin with Watched defaulting to true, matching the
// vast majority of plugins spec.md describes.
func NewPlugin(name string) Plugin {
	return Plugin{Name: name, Watched: true}
}

// Dispatcher walks the configured plugins, in registration order, for each
// lifecycle event (§4.2). Within one request, plugin order is strict;
// across requests, no ordering is guaranteed (§5).
type Dispatcher struct {
	plugins []Plugin
	watch   *urlwatch.Matcher
	log     *slog.Logger

	// onDecision, when set, is notified of every BeforeRequest
	// skip/match/mutate outcome (pkg/audit wires this to a persistent
	// ledger); it takes plain strings rather than an audit.Decision to
	// keep this package free of a dependency on pkg/audit.
	onDecision func(plugin, decision, method, url, reason string, status int)
}

// NewDispatcher builds a Dispatcher over plugins in the given order,
// testing requests against watch.
func NewDispatcher(watch *urlwatch.Matcher, log *slog.Logger, plugins ...Plugin) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{plugins: plugins, watch: watch, log: log}
}

// SetOnDecision installs a callback invoked for every BeforeRequest
// skip/match/mutate decision. Pass nil to disable (the default).
func (d *Dispatcher) SetOnDecision(fn func(plugin, decision, method, url, reason string, status int)) {
	d.onDecision = fn
}

// Initialize runs once at startup for every plugin that implements it.
// Unlike the per-request hooks, a failing Initialize call is propagated
// immediately — there is no request to pass through unchanged.
func (d *Dispatcher) Initialize(ctx context.Context) error {
	for _, p := range d.plugins {
		if p.Initialize == nil {
			continue
		}
		if err := p.Initialize(ctx); err != nil {
			return err
		}
	}
	return nil
}

// OptionsLoaded runs once after CLI parsing for every plugin that
// implements it.
func (d *Dispatcher) OptionsLoaded(opts any) error {
	for _, p := range d.plugins {
		if p.OptionsLoaded == nil {
			continue
		}
		if err := p.OptionsLoaded(opts); err != nil {
			return err
		}
	}
	return nil
}

// DispatchBeforeRequest walks every plugin's BeforeRequest hook in order.
// For each Watched plugin, it first checks hasBeenSet and the URL-watch
// matcher; if either disqualifies the plugin, it logs "skipped" and moves
// on without invoking the hook (§4.2 invocation rules). Like the reference
// runtime, the dispatcher does not recover a panicking or erroring plugin —
// the error propagates to the caller, whose own error boundary is
// responsible for emitting a 5xx (§4.2, §7).
func (d *Dispatcher) DispatchBeforeRequest(ctx context.Context, ev *RequestEvent) error {
	for _, p := range d.plugins {
		if p.BeforeRequest == nil {
			continue
		}
		if p.Watched && !d.shouldRun(p.Name, ev) {
			continue
		}
		wasSet := ev.HasBeenSet()
		if err := p.BeforeRequest(ctx, ev); err != nil {
			return err
		}
		d.recordOutcome(p.Name, ev, wasSet)
	}
	return nil
}

// recordOutcome reports a match (this plugin set the response) or a mutate
// (the response was already set; this plugin could only have merged
// headers) to onDecision, if installed. A plugin that did neither is not
// reported — only skips and actual effects go on the ledger.
func (d *Dispatcher) recordOutcome(pluginName string, ev *RequestEvent, wasSetBefore bool) {
	if d.onDecision == nil {
		return
	}
	switch {
	case !wasSetBefore && ev.HasBeenSet():
		status := 0
		if r := ev.Response(); r != nil {
			status = r.StatusCode
		}
		d.onDecision(pluginName, "match", ev.Method, ev.URL, "", status)
	case wasSetBefore:
		d.onDecision(pluginName, "mutate", ev.Method, ev.URL, "", 0)
	}
}

// DispatchBeforeResponse walks every plugin's BeforeResponse hook in order.
// This only fires for requests that actually reached the upstream server
// (§4.2 item 4) — callers must not invoke it for a request a plugin
// answered synthetically in BeforeRequest.
func (d *Dispatcher) DispatchBeforeResponse(ctx context.Context, ev *RequestEvent) error {
	for _, p := range d.plugins {
		if p.BeforeResponse == nil {
			continue
		}
		if p.Watched && !d.watch.IsWatched(ev.URL) {
			d.log.Debug("plugin skipped", "plugin", p.Name, "event", "BeforeResponse", "reason", "url not watched", "url", ev.URL)
			continue
		}
		if err := p.BeforeResponse(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// DispatchMockRequest invokes every plugin's MockRequest hook, used by the
// proxy-initiated synthetic outbound request feature (§4.2 item 5).
func (d *Dispatcher) DispatchMockRequest(ctx context.Context, ev *RequestEvent) error {
	for _, p := range d.plugins {
		if p.MockRequest == nil {
			continue
		}
		if err := p.MockRequest(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// DispatchAfterRecordingStop delivers a recording-stop event once to every
// reporting plugin (§4.2 item 6); out of core scope except that mock and
// rate-limit plugins may participate to flush their counters.
func (d *Dispatcher) DispatchAfterRecordingStop(ctx context.Context, args RecordingStopArgs) error {
	for _, p := range d.plugins {
		if p.AfterRecordingStop == nil {
			continue
		}
		if err := p.AfterRecordingStop(ctx, args); err != nil {
			return err
		}
	}
	return nil
}

// shouldRun applies the common BeforeRequest precondition: hasBeenSet must
// be false, and the URL must be watched. It logs and returns false
// otherwise.
func (d *Dispatcher) shouldRun(pluginName string, ev *RequestEvent) bool {
	if ev.HasBeenSet() {
		const reason = "response already set"
		d.log.Debug("plugin skipped", "plugin", pluginName, "event", "BeforeRequest", "reason", reason, "url", ev.URL)
		if d.onDecision != nil {
			d.onDecision(pluginName, "skip", ev.Method, ev.URL, reason, 0)
		}
		return false
	}
	if !d.watch.IsWatched(ev.URL) {
		const reason = "url not watched"
		d.log.Debug("plugin skipped", "plugin", pluginName, "event", "BeforeRequest", "reason", reason, "url", ev.URL)
		if d.onDecision != nil {
			d.onDecision(pluginName, "skip", ev.Method, ev.URL, reason, 0)
		}
		return false
	}
	return true
}

// Plugins returns the configured plugin list in registered order (for
// admin introspection and tests).
func (d *Dispatcher) Plugins() []Plugin {
	out := make([]Plugin, len(d.plugins))
	copy(out, d.plugins)
	return out
}
