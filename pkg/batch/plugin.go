package batch

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/devproxy-io/devproxy/pkg/chaos"
	"github.com/devproxy-io/devproxy/pkg/pipeline"
	"github.com/devproxy-io/devproxy/pkg/throttle"
	"github.com/devproxy-io/devproxy/pkg/urlwatch"
)

// Name is the plugin name the dispatcher and admin introspection use to
// refer to the batch-request plugin.
const Name = "BatchPlugin"

// NewPlugin builds the batch-request plugin (§4.2 step 3, §4.11): a
// watched request whose URL matches cfg.URLPattern is decoded as a batch
// envelope, each sub-request independently draws a per-method status via
// the random-error plugin's candidate table, and the composed per-
// sub-request outcomes are returned as a single envelope response.
func NewPlugin(cfg Config, log *slog.Logger) pipeline.Plugin {
	if log == nil {
		log = slog.Default()
	}

	p := pipeline.NewPlugin(Name)
	p.BeforeRequest = func(ctx context.Context, ev *pipeline.RequestEvent) error {
		if ev.HasBeenSet() {
			return nil
		}
		if !urlwatch.MatchWildcard(cfg.URLPattern, ev.URL) {
			return nil
		}

		env, err := Decode(ev.Body())
		if err != nil {
			log.Debug("batch envelope decode failed", "plugin", Name, "error", err)
			return nil
		}

		now := time.Now()
		known := knownIDs(env.Requests)
		responses := make([]SubResponse, 0, len(env.Requests))
		for _, sub := range env.Requests {
			responses = append(responses, resolveOne(cfg, ev, sub, known, now))
		}

		emit(cfg, ev, responses)
		return nil
	}
	return p
}

func knownIDs(reqs []SubRequest) map[string]bool {
	ids := make(map[string]bool, len(reqs))
	for _, r := range reqs {
		ids[r.ID] = true
	}
	return ids
}

// resolveOne computes a single sub-request's outcome. If it declares
// dependsOn and those dependencies exist in the envelope, its status is
// forced to 424 (§4.4 step 3); otherwise it draws independently from the
// random-error plugin's per-method candidate table, registering a throttle
// keyed by its resolved absolute URL on a 429 draw.
func resolveOne(cfg Config, outer *pipeline.RequestEvent, sub SubRequest, known map[string]bool, now time.Time) SubResponse {
	if dependenciesExist(sub.DependsOn, known) {
		return SubResponse{ID: sub.ID, Status: http.StatusFailedDependency}
	}

	status, hit := chaos.DrawStatus(cfg.Errors, sub.Method)
	if !hit {
		return SubResponse{ID: sub.ID, Status: http.StatusOK}
	}

	resolvedURL, err := ResolveURL(outer.URL, sub.URL)
	if err != nil {
		resolvedURL = sub.URL
	}
	headers := map[string]string{"Content-Type": "application/json"}
	if status == http.StatusTooManyRequests {
		headers["Retry-After"] = strconv.Itoa(cfg.Errors.RetryAfterSeconds)
		registerThrottle(outer, resolvedURL, cfg.Errors.RetryAfterSeconds, now)
	}
	body := chaos.VendorErrorBody(status, "Simulated batch sub-request failure.", uuid.NewString(), now)
	return SubResponse{ID: sub.ID, Status: status, Headers: headers, Body: body}
}

// dependenciesExist reports whether sub declares any dependsOn ids and at
// least one of them names another sub-request present in this envelope
// (§4.4 step 3: "if that subrequest declares dependsOn and dependencies
// exist, its status is forced to 424").
func dependenciesExist(dependsOn []string, known map[string]bool) bool {
	for _, id := range dependsOn {
		if known[id] {
			return true
		}
	}
	return false
}

func registerThrottle(outer *pipeline.RequestEvent, key string, retryAfterSeconds int, now time.Time) {
	outer.Global().Throttles().Append(key, func(requestKey string) throttle.Verdict {
		if requestKey != key {
			return throttle.Verdict{}
		}
		return throttle.Verdict{Seconds: retryAfterSeconds, HeaderName: "Retry-After"}
	}, now.Add(time.Duration(retryAfterSeconds)*time.Second))
}

func emit(cfg Config, ev *pipeline.RequestEvent, responses []SubResponse) {
	body, err := Encode(ResponseEnvelope{Responses: responses})
	if err != nil {
		body = []byte(`{"responses":[]}`)
	}
	status := cfg.EnvelopeStatus
	if status == 0 {
		status = http.StatusOK
	}
	resp := pipeline.NewResponseSpec(status, body)
	resp.Headers.Set("Content-Type", "application/json")
	ev.SetResponse(resp)
}
