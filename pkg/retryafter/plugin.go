package retryafter

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/devproxy-io/devproxy/pkg/chaos"
	"github.com/devproxy-io/devproxy/pkg/pipeline"
	"github.com/devproxy-io/devproxy/pkg/throttle"
)

// Name is the plugin name the dispatcher and admin introspection use to
// refer to the retry-after plugin.
const Name = "RetryAfterPlugin"

// VendorHostPredicate reports whether host belongs to a vendor API whose
// throttled responses must use the vendor's structured error body instead
// of a bare 429 (§4.9). A nil predicate means no host is treated as vendor.
type VendorHostPredicate func(host string) bool

// NewPlugin builds the retry-after plugin: on every watched, non-OPTIONS
// request it prunes expired throttle entries, then evaluates the remaining
// ones against the request's key (host). A hit rejects the request with
// 429 and the throttler's configured Retry-After header.
func NewPlugin(isVendorHost VendorHostPredicate, log *slog.Logger, now func() time.Time) pipeline.Plugin {
	if log == nil {
		log = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	p := pipeline.NewPlugin(Name)
	p.BeforeRequest = func(ctx context.Context, ev *pipeline.RequestEvent) error {
		if ev.Method == http.MethodOptions {
			return nil
		}
		t := now()
		registry := ev.Global().Throttles()
		registry.PruneExpired(t)

		key := hostOf(ev.URL)
		verdict, hit := registry.Evaluate(key, t)
		if !hit {
			return nil
		}

		emit(ev, verdict, isVendorHost, key, t)
		log.Debug("request throttled", "plugin", Name, "url", ev.URL, "retryAfter", verdict.Seconds)
		return nil
	}
	return p
}

func emit(ev *pipeline.RequestEvent, verdict throttle.Verdict, isVendorHost VendorHostPredicate, host string, now time.Time) {
	headerName := verdict.HeaderName
	if headerName == "" {
		headerName = "Retry-After"
	}

	var body []byte
	if isVendorHost != nil && isVendorHost(host) {
		body = chaos.VendorErrorBody(http.StatusTooManyRequests, "Too many requests. Please retry later.", uuid.NewString(), now)
	} else {
		body = []byte(`{"message":"Too many requests."}`)
	}

	resp := pipeline.NewResponseSpec(http.StatusTooManyRequests, body)
	resp.Headers.Set("Content-Type", "application/json")
	resp.Headers.Set(headerName, strconv.Itoa(verdict.Seconds))
	ev.SetResponse(resp)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
