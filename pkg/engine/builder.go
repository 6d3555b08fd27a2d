package engine

import (
	"log/slog"
	"time"

	"github.com/devproxy-io/devproxy/pkg/authplugin"
	"github.com/devproxy-io/devproxy/pkg/batch"
	"github.com/devproxy-io/devproxy/pkg/chaos"
	"github.com/devproxy-io/devproxy/pkg/crudplugin"
	"github.com/devproxy-io/devproxy/pkg/devproxyconfig"
	"github.com/devproxy-io/devproxy/pkg/mockplugin"
	"github.com/devproxy-io/devproxy/pkg/pipeline"
	"github.com/devproxy-io/devproxy/pkg/ratelimit"
	"github.com/devproxy-io/devproxy/pkg/retryafter"
)

// BuildOptions bundles the artifacts a devproxyconfig.Config alone doesn't
// carry: mock catalogs and CRUD APIs live in files of their own, named by
// the config but loaded separately (§6, §4.7, §4.8).
type BuildOptions struct {
	Mocks         []mockplugin.Mock
	MocksDir      string
	CrudAPIs      []crudplugin.API
	AuthKeySource *authplugin.KeySource
	Now           func() time.Time
}

// BuildPlugins constructs the plugin list the dispatcher walks, in the
// order the config's "plugins" array declares (§6), skipping any entry not
// marked enabled. It returns the rate-limit pool when a RateLimitPlugin was
// built, so a caller can wire the same pool into the admin introspection
// API (nil otherwise).
func BuildPlugins(cfg devproxyconfig.Config, opts BuildOptions, log *slog.Logger) ([]pipeline.Plugin, *ratelimit.Pool, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var plugins []pipeline.Plugin
	var pool *ratelimit.Pool

	for _, entry := range cfg.Plugins {
		if !entry.Enabled {
			continue
		}
		switch entry.Name {
		case chaos.Name:
			plugins = append(plugins, chaos.NewPlugin(cfg.Chaos.ToConfig(), nil, log))
		case chaos.LatencyName:
			plugins = append(plugins, chaos.NewLatencyPlugin(cfg.Latency.ToConfig(), log))
		case ratelimit.Name:
			pool = ratelimit.NewPool()
			plugins = append(plugins, ratelimit.NewPluginWithPool(cfg.RateLimit.ToConfig(), log, now, pool))
		case retryafter.Name:
			plugins = append(plugins, retryafter.NewPlugin(vendorHostSet(cfg.RetryAfter.VendorHosts), log, now))
		case mockplugin.Name:
			mcfg := mockplugin.Config{
				NoMocks:       cfg.Mock.NoMocks,
				MocksDir:      opts.MocksDir,
				BlockUnmocked: cfg.Mock.BlockUnmocked,
			}
			plugins = append(plugins, mockplugin.NewPlugin(opts.Mocks, mcfg, log))
		case crudplugin.Name:
			for _, api := range opts.CrudAPIs {
				plugins = append(plugins, crudplugin.NewPlugin(api, log))
			}
		case authplugin.Name:
			plugins = append(plugins, authplugin.NewPlugin(cfg.Auth.ToConfig(opts.AuthKeySource), log))
		case batch.Name:
			plugins = append(plugins, batch.NewPlugin(cfg.Batch.ToConfig(), log))
		}
	}

	return plugins, pool, nil
}

// vendorHostSet turns a flat host list into a retryafter.VendorHostPredicate.
func vendorHostSet(hosts []string) retryafter.VendorHostPredicate {
	set := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		set[h] = true
	}
	return func(host string) bool { return set[host] }
}
