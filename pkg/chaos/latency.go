package chaos

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/devproxy-io/devproxy/pkg/pipeline"
)

// LatencyName is the plugin name the dispatcher and admin introspection use
// to refer to the latency-injection plugin.
const LatencyName = "LatencyPlugin"

// LatencyConfig controls the latency plugin (§4.6): every watched request
// sleeps a uniformly random duration in [MinMS, MaxMS] before the dispatcher
// moves on to the next plugin or forwards the request upstream.
type LatencyConfig struct {
	MinMS int
	MaxMS int
}

// Validate checks MinMS/MaxMS are non-negative and MinMS <= MaxMS.
func (c LatencyConfig) Validate() error {
	if c.MinMS < 0 || c.MaxMS < 0 {
		return fmt.Errorf("chaos: latency bounds must not be negative, got min=%d max=%d", c.MinMS, c.MaxMS)
	}
	if c.MinMS > c.MaxMS {
		return fmt.Errorf("chaos: latency min (%d) must not exceed max (%d)", c.MinMS, c.MaxMS)
	}
	return nil
}

// NewLatencyPlugin builds the latency-injection plugin: on BeforeRequest it
// blocks for a uniformly random duration between cfg.MinMS and cfg.MaxMS,
// honoring ctx cancellation so a client disconnect or shutdown doesn't leave
// the goroutine sleeping uselessly.
func NewLatencyPlugin(cfg LatencyConfig, log *slog.Logger) pipeline.Plugin {
	if log == nil {
		log = slog.Default()
	}
	p := pipeline.NewPlugin(LatencyName)
	p.BeforeRequest = func(ctx context.Context, ev *pipeline.RequestEvent) error {
		d := randomDuration(cfg)
		if d <= 0 {
			return nil
		}
		log.Debug("latency injected", "plugin", LatencyName, "url", ev.URL, "delayMs", d.Milliseconds())
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return p
}

func randomDuration(cfg LatencyConfig) time.Duration {
	if cfg.MaxMS <= 0 {
		return 0
	}
	span := cfg.MaxMS - cfg.MinMS
	ms := cfg.MinMS
	if span > 0 {
		ms += rand.Intn(span + 1)
	}
	return time.Duration(ms) * time.Millisecond
}
