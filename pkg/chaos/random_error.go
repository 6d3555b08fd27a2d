package chaos

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/devproxy-io/devproxy/pkg/pipeline"
	"github.com/devproxy-io/devproxy/pkg/throttle"
)

// Name is the plugin name the dispatcher and admin introspection use to
// refer to the random-error plugin.
const Name = "RandomErrorPlugin"

// BatchSplitter, when set, lets a vendor-specific batch codec (pkg/batch)
// tell the random-error plugin that ev actually carries N sub-requests, so
// each one can be drawn for independently rather than the envelope as a
// whole either failing or passing wholesale (§4.4, §4.11). A nil splitter
// treats every request as a single unit.
type BatchSplitter func(ev *pipeline.RequestEvent) (subRequestCount int, ok bool)

// NewPlugin builds the random-error plugin: on each watched request it
// draws against cfg.RatePercent and, on a hit, answers with one of the
// method's candidate status codes and a vendor-conventional JSON error body
// (§4.4). A 429 draw additionally registers a throttle entry so subsequent
// requests to the same host are rejected without a fresh draw until
// cfg.RetryAfterSeconds elapses (§4.3).
func NewPlugin(cfg Config, splitter BatchSplitter, log *slog.Logger) pipeline.Plugin {
	if log == nil {
		log = slog.Default()
	}
	p := pipeline.NewPlugin(Name)
	p.BeforeRequest = func(ctx context.Context, ev *pipeline.RequestEvent) error {
		subCount := 1
		if splitter != nil {
			if n, ok := splitter(ev); ok && n > 0 {
				subCount = n
			}
		}
		return runDraws(cfg, ev, subCount, log)
	}
	return p
}

// runDraws performs one Bernoulli draw per sub-request unit. A batch
// envelope with N sub-requests gets N independent draws; the first draw
// that hits wins and short-circuits the rest, since the plugin can only
// emit a single synthetic ResponseSpec for the whole RequestEvent — the
// batch codec is responsible for mapping that back onto the sub-request
// that triggered it.
func runDraws(cfg Config, ev *pipeline.RequestEvent, subCount int, log *slog.Logger) error {
	for i := 0; i < subCount; i++ {
		if !drawHits(cfg.RatePercent) {
			continue
		}
		candidates := cfg.allowed(candidateCodes(ev.Method))
		if len(candidates) == 0 {
			return nil
		}
		status := candidates[rand.Intn(len(candidates))]
		emit(cfg, ev, status, log)
		return nil
	}
	return nil
}

// DrawStatus performs one Bernoulli draw against cfg for method, returning
// the drawn status code and whether the draw hit. Exported so the batch
// codec (pkg/batch) can draw a status per sub-request using the same
// per-method candidate table and rate (§4.4 step 3, §4.11).
func DrawStatus(cfg Config, method string) (status int, hit bool) {
	if !drawHits(cfg.RatePercent) {
		return 0, false
	}
	candidates := cfg.allowed(candidateCodes(method))
	if len(candidates) == 0 {
		return 0, false
	}
	return candidates[rand.Intn(len(candidates))], true
}

// drawHits reports whether a single Bernoulli trial at ratePercent succeeds.
// ratePercent == 100 always hits without consuming randomness, and
// ratePercent == 0 never hits.
func drawHits(ratePercent int) bool {
	if ratePercent <= 0 {
		return false
	}
	if ratePercent >= 100 {
		return true
	}
	return rand.Intn(100)+1 <= ratePercent
}

func emit(cfg Config, ev *pipeline.RequestEvent, status int, log *slog.Logger) {
	requestID := uuid.NewString()
	resp := pipeline.NewResponseSpec(status, errorBody(status, requestID, time.Now()))
	resp.Headers.Set("Content-Type", "application/json")

	if status == http.StatusTooManyRequests {
		resp.Headers.Set("Retry-After", strconv.Itoa(cfg.RetryAfterSeconds))
		registerThrottle(ev, cfg.RetryAfterSeconds)
	}

	ev.SetResponse(resp)
	log.Debug("random error injected", "plugin", Name, "status", status, "url", ev.URL, "requestId", requestID)
}

// registerThrottle appends a throttle entry keyed by the request's host so
// that subsequent requests to the same host are rejected by the
// retry-after plugin without needing a fresh random draw (§4.3, §4.9).
func registerThrottle(ev *pipeline.RequestEvent, retryAfterSeconds int) {
	key := hostOf(ev.URL)
	now := time.Now()
	ev.Global().Throttles().Append(key, func(requestKey string) throttle.Verdict {
		if requestKey != key {
			return throttle.Verdict{}
		}
		return throttle.Verdict{Seconds: retryAfterSeconds, HeaderName: "Retry-After"}
	}, now.Add(time.Duration(retryAfterSeconds)*time.Second))
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if u.Host != "" {
		return u.Host
	}
	return rawURL
}
