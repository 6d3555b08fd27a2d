package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/devproxy-io/devproxy/pkg/urlwatch"
)

func newTestEvent(url string) *RequestEvent {
	return NewRequestEvent("GET", url, nil, nil, NewGlobalData())
}

func TestDispatchBeforeRequestShortCircuitsOnResponseSet(t *testing.T) {
	watch := urlwatch.Compile([]string{"https://api.example.com/*"})
	var secondRan bool

	first := NewPlugin("first")
	first.BeforeRequest = func(ctx context.Context, ev *RequestEvent) error {
		ev.SetResponse(NewResponseSpec(500, nil))
		return nil
	}
	second := NewPlugin("second")
	second.BeforeRequest = func(ctx context.Context, ev *RequestEvent) error {
		secondRan = true
		return nil
	}

	d := NewDispatcher(watch, nil, first, second)
	ev := newTestEvent("https://api.example.com/users")

	if err := d.DispatchBeforeRequest(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ev.HasBeenSet() {
		t.Fatal("expected hasBeenSet to be true after first plugin")
	}
	if secondRan {
		t.Fatal("expected second plugin to be skipped once hasBeenSet is true")
	}
}

func TestDispatchBeforeRequestSkipsUnwatchedURL(t *testing.T) {
	watch := urlwatch.Compile([]string{"https://api.example.com/*"})
	var ran bool
	p := NewPlugin("p")
	p.BeforeRequest = func(ctx context.Context, ev *RequestEvent) error {
		ran = true
		return nil
	}
	d := NewDispatcher(watch, nil, p)
	ev := newTestEvent("https://other.example.com/x")

	if err := d.DispatchBeforeRequest(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ran {
		t.Fatal("expected plugin to be skipped for an unwatched URL")
	}
}

func TestDispatchPropagatesPluginError(t *testing.T) {
	watch := urlwatch.Compile([]string{"https://api.example.com/*"})
	wantErr := errors.New("boom")
	p := NewPlugin("p")
	p.BeforeRequest = func(ctx context.Context, ev *RequestEvent) error {
		return wantErr
	}
	d := NewDispatcher(watch, nil, p)
	ev := newTestEvent("https://api.example.com/x")

	if err := d.DispatchBeforeRequest(context.Background(), ev); !errors.Is(err, wantErr) {
		t.Fatalf("expected plugin error to propagate, got %v", err)
	}
}

func TestPluginOrderIsStrict(t *testing.T) {
	watch := urlwatch.Compile([]string{"https://api.example.com/*"})
	var order []string

	mk := func(name string) Plugin {
		p := NewPlugin(name)
		p.BeforeRequest = func(ctx context.Context, ev *RequestEvent) error {
			order = append(order, name)
			return nil
		}
		return p
	}

	d := NewDispatcher(watch, nil, mk("a"), mk("b"), mk("c"))
	ev := newTestEvent("https://api.example.com/x")
	_ = d.DispatchBeforeRequest(context.Background(), ev)

	want := []string{"a", "b", "c"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestLaterPluginCanOnlyMergeHeadersOnceResponseSet(t *testing.T) {
	watch := urlwatch.Compile([]string{"https://api.example.com/*"})

	first := NewPlugin("first")
	first.BeforeRequest = func(ctx context.Context, ev *RequestEvent) error {
		resp := NewResponseSpec(429, []byte(`{"error":"rate limited"}`))
		resp.Headers.Set("Retry-After", "5")
		ev.SetResponse(resp)
		return nil
	}

	second := NewPlugin("second")
	second.Watched = false // header-merge plugins run regardless of hasBeenSet
	second.BeforeRequest = func(ctx context.Context, ev *RequestEvent) error {
		extra := NewHeaders()
		extra.Set("X-RateLimit-Remaining", "0")
		ev.MergeResponseHeaders(extra)
		return nil
	}

	d := NewDispatcher(watch, nil, first, second)
	ev := newTestEvent("https://api.example.com/x")
	_ = d.DispatchBeforeRequest(context.Background(), ev)

	resp := ev.Response()
	if resp.StatusCode != 429 {
		t.Fatalf("expected status to remain 429, got %d", resp.StatusCode)
	}
	if string(resp.Body) != `{"error":"rate limited"}` {
		t.Fatalf("expected body to remain unchanged, got %q", resp.Body)
	}
	if resp.Headers.Get("X-RateLimit-Remaining") != "0" {
		t.Fatal("expected merged header to be present")
	}
	if resp.Headers.Get("Retry-After") != "5" {
		t.Fatal("expected original header to be preserved")
	}
}

func TestOnDecisionReportsSkipAndMatch(t *testing.T) {
	watch := urlwatch.Compile([]string{"https://api.example.com/*"})
	var decisions []string

	matcher := NewPlugin("matcher")
	matcher.BeforeRequest = func(ctx context.Context, ev *RequestEvent) error {
		ev.SetResponse(NewResponseSpec(200, nil))
		return nil
	}
	skipped := NewPlugin("skipped")
	skipped.BeforeRequest = func(ctx context.Context, ev *RequestEvent) error {
		return nil
	}

	d := NewDispatcher(watch, nil, matcher, skipped)
	d.SetOnDecision(func(plugin, decision, method, url, reason string, status int) {
		decisions = append(decisions, plugin+":"+decision)
	})
	ev := newTestEvent("https://api.example.com/x")
	_ = d.DispatchBeforeRequest(context.Background(), ev)

	want := []string{"matcher:match", "skipped:skip"}
	if len(decisions) != len(want) {
		t.Fatalf("got %v, want %v", decisions, want)
	}
	for i := range want {
		if decisions[i] != want[i] {
			t.Fatalf("got %v, want %v", decisions, want)
		}
	}
}

func TestBeforeResponseOnlyFiresForWatchedURLs(t *testing.T) {
	watch := urlwatch.Compile([]string{"https://api.example.com/*"})
	var ran bool
	p := NewPlugin("p")
	p.BeforeResponse = func(ctx context.Context, ev *RequestEvent) error {
		ran = true
		return nil
	}
	d := NewDispatcher(watch, nil, p)
	ev := newTestEvent("https://unwatched.example.com/x")
	_ = d.DispatchBeforeResponse(context.Background(), ev)
	if ran {
		t.Fatal("expected BeforeResponse to be skipped for an unwatched URL")
	}
}
