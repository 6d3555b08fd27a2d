package devproxyconfig

import (
	"github.com/devproxy-io/devproxy/pkg/authplugin"
	"github.com/devproxy-io/devproxy/pkg/batch"
	"github.com/devproxy-io/devproxy/pkg/chaos"
	"github.com/devproxy-io/devproxy/pkg/pipeline"
	"github.com/devproxy-io/devproxy/pkg/ratelimit"
)

// PluginEntry is one entry of the top-level "plugins" array (§6): a name
// the dispatcher uses to order and identify the plugin, whether it is
// enabled, and which top-level key of Config holds its settings.
type PluginEntry struct {
	Name          string `json:"name" yaml:"name"`
	Enabled       bool   `json:"enabled" yaml:"enabled"`
	ConfigSection string `json:"configSection,omitempty" yaml:"configSection,omitempty"`
}

// Config is the top-level configuration document (§6 "Configuration file
// (JSON)"). Every per-plugin section is optional; a plugin whose section
// is absent gets that section's zero values from ToConfig. The plugin
// packages' DefaultConfig() values are not applied.
type Config struct {
	URLsToWatch []string      `json:"urlsToWatch" yaml:"urlsToWatch"`
	Plugins     []PluginEntry `json:"plugins" yaml:"plugins"`

	Chaos      ChaosSection      `json:"chaosConfig" yaml:"chaosConfig"`
	Latency    LatencySection    `json:"latencyConfig" yaml:"latencyConfig"`
	RateLimit  RateLimitSection  `json:"rateLimitConfig" yaml:"rateLimitConfig"`
	RetryAfter RetryAfterSection `json:"retryAfterConfig" yaml:"retryAfterConfig"`
	Mock       MockSection       `json:"mocksConfig" yaml:"mocksConfig"`
	Crud       CrudSection       `json:"crudConfig" yaml:"crudConfig"`
	Auth       AuthSection       `json:"authConfig" yaml:"authConfig"`
	Batch      BatchSection      `json:"batchConfig" yaml:"batchConfig"`
}

// PluginEnabled reports whether name is both listed and enabled in
// cfg.Plugins; a plugin absent from the list is treated as disabled, so an
// empty Plugins array (matching an empty urlsToWatch list) runs no plugins.
func (cfg Config) PluginEnabled(name string) bool {
	for _, p := range cfg.Plugins {
		if p.Name == name {
			return p.Enabled
		}
	}
	return false
}

// ChaosSection is the JSON/YAML-tagged mirror of chaos.Config (§4.4).
// chaos.Config itself carries no file tags, per the design note that
// plugin packages accept typed Go records rather than parsing files
// themselves; this section is what the file format actually looks like.
type ChaosSection struct {
	RatePercent       int   `json:"ratePercent" yaml:"ratePercent"`
	RetryAfterSeconds int   `json:"retryAfterSeconds" yaml:"retryAfterSeconds"`
	AllowedErrors     []int `json:"allowedErrors,omitempty" yaml:"allowedErrors,omitempty"`
}

// ToConfig converts the file-shaped section into chaos.Config.
func (s ChaosSection) ToConfig() chaos.Config {
	return chaos.Config{
		RatePercent:       s.RatePercent,
		RetryAfterSeconds: s.RetryAfterSeconds,
		AllowedErrors:     s.AllowedErrors,
	}
}

// LatencySection is the file-shaped mirror of chaos.LatencyConfig (§4.6).
type LatencySection struct {
	MinMS int `json:"minMs" yaml:"minMs"`
	MaxMS int `json:"maxMs" yaml:"maxMs"`
}

func (s LatencySection) ToConfig() chaos.LatencyConfig {
	return chaos.LatencyConfig{MinMS: s.MinMS, MaxMS: s.MaxMS}
}

// RateLimitSection is the file-shaped mirror of ratelimit.Config (§4.5).
type RateLimitSection struct {
	Limit                   int    `json:"limit" yaml:"limit"`
	CostPerRequest          int    `json:"costPerRequest" yaml:"costPerRequest"`
	ResetWindowSeconds      int    `json:"resetWindowSeconds" yaml:"resetWindowSeconds"`
	WarningThresholdPercent int    `json:"warningThresholdPercent" yaml:"warningThresholdPercent"`
	HeaderLimit             string `json:"headerLimit,omitempty" yaml:"headerLimit,omitempty"`
	HeaderRemaining         string `json:"headerRemaining,omitempty" yaml:"headerRemaining,omitempty"`
	HeaderReset             string `json:"headerReset,omitempty" yaml:"headerReset,omitempty"`
	HeaderRetryAfter        string `json:"headerRetryAfter,omitempty" yaml:"headerRetryAfter,omitempty"`
	ResetFormat             string `json:"resetFormat,omitempty" yaml:"resetFormat,omitempty"`
	WhenLimitExceeded       string `json:"whenLimitExceeded,omitempty" yaml:"whenLimitExceeded,omitempty"`
	CustomResponse          *ResponseSection `json:"customResponse,omitempty" yaml:"customResponse,omitempty"`
}

func (s RateLimitSection) ToConfig() ratelimit.Config {
	cfg := ratelimit.Config{
		Limit:                   s.Limit,
		CostPerRequest:          s.CostPerRequest,
		ResetWindowSeconds:      s.ResetWindowSeconds,
		WarningThresholdPercent: s.WarningThresholdPercent,
		HeaderLimit:             s.HeaderLimit,
		HeaderRemaining:         s.HeaderRemaining,
		HeaderReset:             s.HeaderReset,
		HeaderRetryAfter:        s.HeaderRetryAfter,
		ResetFormat:             ratelimit.ResetFormat(s.ResetFormat),
		WhenLimitExceeded:       ratelimit.WhenLimitExceeded(s.WhenLimitExceeded),
	}
	if s.CustomResponse != nil {
		cfg.CustomResponse = s.CustomResponse.ToResponseSpec()
	}
	return cfg
}

// RetryAfterSection configures the retry-after plugin (§4.9): which hosts
// are treated as a "vendor API" for the structured error body.
type RetryAfterSection struct {
	VendorHosts []string `json:"vendorHosts,omitempty" yaml:"vendorHosts,omitempty"`
}

// MockSection configures the mock-response plugin (§4.7): which mocks file
// to load and the plugin's behavioral flags.
type MockSection struct {
	NoMocks       bool   `json:"noMocks,omitempty" yaml:"noMocks,omitempty"`
	MocksFile     string `json:"mocksFile,omitempty" yaml:"mocksFile,omitempty"`
	BlockUnmocked bool   `json:"blockUnmockedRequests,omitempty" yaml:"blockUnmockedRequests,omitempty"`
}

// CrudSection configures the CRUD-API plugin (§4.8): the CRUD API
// definition file to load.
type CrudSection struct {
	CrudFile string `json:"crudFile,omitempty" yaml:"crudFile,omitempty"`
}

// AuthSection configures the auth plugin (§4.10).
type AuthSection struct {
	Mode   string        `json:"mode,omitempty" yaml:"mode,omitempty"`
	APIKey APIKeySection `json:"apiKey" yaml:"apiKey"`
	OAuth2 OAuth2Section `json:"oauth2" yaml:"oauth2"`
}

type APIKeySection struct {
	Location    string   `json:"location,omitempty" yaml:"location,omitempty"`
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	AllowedKeys []string `json:"allowedKeys,omitempty" yaml:"allowedKeys,omitempty"`
}

type OAuth2Section struct {
	Issuer     string   `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	Audience   string   `json:"audience,omitempty" yaml:"audience,omitempty"`
	JWKSURL    string   `json:"jwksUrl,omitempty" yaml:"jwksUrl,omitempty"`
	Tenants    []string `json:"tenants,omitempty" yaml:"tenants,omitempty"`
	Apps       []string `json:"apps,omitempty" yaml:"apps,omitempty"`
	Principals []string `json:"principals,omitempty" yaml:"principals,omitempty"`
	Roles      []string `json:"roles,omitempty" yaml:"roles,omitempty"`
	Scopes     []string `json:"scopes,omitempty" yaml:"scopes,omitempty"`
}

// ToConfig converts the section into authplugin.Config. keySource, when
// non-nil, backs OAuth2Config.KeyFunc; callers typically build it once from
// OAuth2Section.JWKSURL/Issuer via authplugin.NewKeySource(FromIssuer).
func (s AuthSection) ToConfig(keySource *authplugin.KeySource) authplugin.Config {
	cfg := authplugin.Config{Mode: authplugin.Mode(s.Mode)}
	cfg.APIKey = authplugin.APIKeyConfig{
		Location:    authplugin.APIKeyLocation(s.APIKey.Location),
		Name:        s.APIKey.Name,
		AllowedKeys: s.APIKey.AllowedKeys,
	}
	cfg.OAuth2 = authplugin.OAuth2Config{
		Issuer:     s.OAuth2.Issuer,
		Audience:   s.OAuth2.Audience,
		Tenants:    s.OAuth2.Tenants,
		Apps:       s.OAuth2.Apps,
		Principals: s.OAuth2.Principals,
		Roles:      s.OAuth2.Roles,
		Scopes:     s.OAuth2.Scopes,
	}
	if keySource != nil {
		cfg.OAuth2.KeyFunc = keySource.Keyfunc()
	}
	return cfg
}

// BatchSection configures the batch-request plugin (§4.11).
type BatchSection struct {
	URLPattern     string       `json:"urlPattern,omitempty" yaml:"urlPattern,omitempty"`
	EnvelopeStatus int          `json:"envelopeStatus,omitempty" yaml:"envelopeStatus,omitempty"`
	Errors         ChaosSection `json:"errors" yaml:"errors"`
}

// ToConfig converts the section into batch.Config.
func (s BatchSection) ToConfig() batch.Config {
	return batch.Config{
		URLPattern:     s.URLPattern,
		Errors:         s.Errors.ToConfig(),
		EnvelopeStatus: s.EnvelopeStatus,
	}
}

// ResponseSection is the file-shaped mirror of pipeline.ResponseSpec, used
// wherever a config file needs to describe a literal synthetic response
// (ratelimit's CustomResponse, §4.5 step 4b).
type ResponseSection struct {
	StatusCode int               `json:"statusCode" yaml:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body       string            `json:"body,omitempty" yaml:"body,omitempty"`
}

// ToResponseSpec converts the section into a pipeline.ResponseSpec.
func (s ResponseSection) ToResponseSpec() *pipeline.ResponseSpec {
	spec := pipeline.NewResponseSpec(s.StatusCode, []byte(s.Body))
	for k, v := range s.Headers {
		spec.Headers.Set(k, v)
	}
	return spec
}
