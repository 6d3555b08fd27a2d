package ratelimit

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/devproxy-io/devproxy/pkg/pipeline"
	"github.com/devproxy-io/devproxy/pkg/throttle"
)

// Name is the plugin name the dispatcher and admin introspection use to
// refer to the rate-limit plugin.
const Name = "RateLimitPlugin"

const dynamicPlaceholder = "@dynamic"

// sessionHeadersKey namespaces this plugin's stash of rate-limit headers in
// SessionData, read back by BeforeResponse (§4.5 step 5).
const sessionHeadersKey = "ratelimit.headers"

// NewPlugin builds the rate-limit plugin over a single process-global cost
// pool. now defaults to time.Now when nil, overridable for deterministic
// tests.
func NewPlugin(cfg Config, log *slog.Logger, now func() time.Time) pipeline.Plugin {
	return NewPluginWithPool(cfg, log, now, NewPool())
}

// NewPluginWithPool builds the rate-limit plugin over an explicit pool
// rather than a freshly created one, so a caller (the admin introspection
// API) can retain a reference to the same pool the plugin charges against.
func NewPluginWithPool(cfg Config, log *slog.Logger, now func() time.Time, pool *Pool) pipeline.Plugin {
	if log == nil {
		log = slog.Default()
	}
	if now == nil {
		now = time.Now
	}

	p := pipeline.NewPlugin(Name)
	p.BeforeRequest = func(ctx context.Context, ev *pipeline.RequestEvent) error {
		return beforeRequest(cfg, pool, ev, now(), log)
	}
	p.BeforeResponse = func(ctx context.Context, ev *pipeline.RequestEvent) error {
		return beforeResponse(ev)
	}
	return p
}

func beforeRequest(cfg Config, pool *counter, ev *pipeline.RequestEvent, now time.Time, log *slog.Logger) error {
	res := pool.charge(cfg, now)

	if res.exceeded {
		switch cfg.WhenLimitExceeded {
		case WhenLimitExceededCustom:
			emitCustom(cfg, ev, res)
		default:
			emitThrottle(cfg, ev, res, now)
		}
		log.Debug("rate limit exceeded", "plugin", Name, "url", ev.URL, "retryAfter", res.secondsToWait)
		return nil
	}

	if warningTriggered(cfg, res) {
		stashHeaders(cfg, ev, res)
	}
	return nil
}

// warningTriggered reports whether remaining has dropped to or below the
// configured warning threshold (§4.5 step 5): remaining <= limit*(1-pct/100).
func warningTriggered(cfg Config, res result) bool {
	threshold := float64(res.limit) * (1 - float64(cfg.WarningThresholdPercent)/100)
	return float64(res.remaining) <= threshold
}

func stashHeaders(cfg Config, ev *pipeline.RequestEvent, res result) {
	h := pipeline.NewHeaders()
	h.Set(cfg.headerLimit(), strconv.Itoa(res.limit))
	h.Set(cfg.headerRemaining(), strconv.Itoa(res.remaining))
	h.Set(cfg.headerReset(), formatReset(cfg, res))
	ev.Session().Set(sessionHeadersKey, h)
}

func formatReset(cfg Config, res result) string {
	if cfg.ResetFormat == ResetFormatUTCEpochSecs {
		return strconv.FormatInt(res.resetTime.Unix(), 10)
	}
	return strconv.Itoa(res.secondsToWait)
}

func emitThrottle(cfg Config, ev *pipeline.RequestEvent, res result, now time.Time) {
	resp := pipeline.NewResponseSpec(429, nil)
	resp.Headers.Set(cfg.headerRetryAfter(), strconv.Itoa(res.secondsToWait))
	resp.Headers.Set(cfg.headerLimit(), strconv.Itoa(res.limit))
	resp.Headers.Set(cfg.headerRemaining(), "0")
	resp.Headers.Set(cfg.headerReset(), formatReset(cfg, res))
	ev.SetResponse(resp)

	key := throttle.HostKey(hostOf(ev.URL))
	ev.Global().Throttles().Append(key, func(requestKey string) throttle.Verdict {
		if requestKey != key {
			return throttle.Verdict{}
		}
		return throttle.Verdict{Seconds: res.secondsToWait, HeaderName: cfg.headerRetryAfter()}
	}, res.resetTime)
}

func emitCustom(cfg Config, ev *pipeline.RequestEvent, res result) {
	resp := &pipeline.ResponseSpec{
		StatusCode: cfg.CustomResponse.StatusCode,
		Headers:    pipeline.NewHeaders(),
		Body:       cfg.CustomResponse.Body,
		FilePath:   cfg.CustomResponse.FilePath,
	}
	for _, f := range cfg.CustomResponse.Headers.List() {
		v := f.Value
		if v == dynamicPlaceholder {
			v = strconv.Itoa(res.secondsToWait)
		}
		resp.Headers.Set(f.Name, v)
	}
	ev.SetResponse(resp)
}

func beforeResponse(ev *pipeline.RequestEvent) error {
	stashed, ok := ev.Session().Get(sessionHeadersKey)
	if !ok {
		return nil
	}
	h, ok := stashed.(*pipeline.Headers)
	if !ok || ev.Response() == nil {
		return nil
	}
	ev.MergeResponseHeaders(h)

	if ev.Headers.Has("Origin") {
		exposeCORS(ev, h)
	}
	return nil
}

// exposeCORS advertises the rate-limit headers via
// Access-Control-Expose-Headers so a browser-based caller can read them
// (§4.5 BeforeResponse).
func exposeCORS(ev *pipeline.RequestEvent, h *pipeline.Headers) {
	names := make([]string, 0, len(h.List()))
	for _, f := range h.List() {
		names = append(names, f.Name)
	}
	resp := ev.Response()
	resp.Headers.Set("Access-Control-Allow-Origin", ev.Headers.Get("Origin"))
	resp.Headers.Set("Access-Control-Expose-Headers", strings.Join(names, ", "))
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
