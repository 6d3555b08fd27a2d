package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devproxy-io/devproxy/pkg/admin"
	"github.com/devproxy-io/devproxy/pkg/audit"
	"github.com/devproxy-io/devproxy/pkg/authplugin"
	"github.com/devproxy-io/devproxy/pkg/crudplugin"
	"github.com/devproxy-io/devproxy/pkg/devproxyconfig"
	"github.com/devproxy-io/devproxy/pkg/engine"
	"github.com/devproxy-io/devproxy/pkg/logging"
	"github.com/devproxy-io/devproxy/pkg/pipeline"
	"github.com/devproxy-io/devproxy/pkg/urlwatch"
	"github.com/spf13/cobra"
)

// shutdownTimeout bounds how long serve waits for in-flight requests to
// drain on SIGINT/SIGTERM, grounded on the teacher's serve.go constant of
// the same name and purpose.
const shutdownTimeout = 10 * time.Second

var serveFlags struct {
	Config      string
	CrudFile    string
	NoMocks     bool
	MocksFile   string
	Port        int
	AdminPort   int
	LogLevel    string
	LogFormat   string
	AuditLog    string
	FailureRate int
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the devproxy interception engine",
	Long: `Loads a devproxy configuration file, builds the plugin pipeline it
declares, and starts the forward-proxy harness (pkg/engine) alongside the
read-only admin introspection API (pkg/admin).

This is the reference runtime for the interception engine that is the
subject of the specification; it is not the TLS-terminating MITM proxy
(that collaborator is out of this core's scope — see SPEC_FULL.md §0).`,
	Example: `  # Start with a config file
  devproxy serve --config devproxy.json

  # Override the failure rate from the CLI
  devproxy serve --config devproxy.json --failure-rate 80

  # Disable mocks entirely for this run
  devproxy serve --config devproxy.json --no-mocks`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.Config, "config", "c", "devproxy.json", "path to the devproxy config file")
	serveCmd.Flags().StringVar(&serveFlags.CrudFile, "crud-file", "", "override the CRUD API file named in the config's crudConfig section")
	serveCmd.Flags().BoolVar(&serveFlags.NoMocks, "no-mocks", false, "disable the mock-response plugin for this run (§6)")
	serveCmd.Flags().StringVar(&serveFlags.MocksFile, "mocks-file", "", "override the mocks file named in the config's mocksConfig section (§6)")
	serveCmd.Flags().IntVar(&serveFlags.Port, "port", 8080, "proxy listen port")
	serveCmd.Flags().IntVar(&serveFlags.AdminPort, "admin-port", 8081, "admin introspection API port")
	serveCmd.Flags().StringVar(&serveFlags.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	serveCmd.Flags().StringVar(&serveFlags.LogFormat, "log-format", "text", "log format: text, json")
	serveCmd.Flags().StringVar(&serveFlags.AuditLog, "audit-log", "", "path to write a JSON-lines per-request decision ledger (empty disables it)")
	serveCmd.Flags().IntVar(&serveFlags.FailureRate, "failure-rate", -1, "override chaosConfig.ratePercent (0-100); -1 leaves the config value untouched (§6 --failure-rate)")
}

func runServe(cmd *cobra.Command, args []string) error {
	level := logging.ParseLevel(serveFlags.LogLevel)
	format := logging.ParseFormat(serveFlags.LogFormat)
	log := logging.New(logging.Config{Level: level, Format: format, Output: os.Stderr})

	cfg, err := devproxyconfig.LoadFromFile(serveFlags.Config)
	if err != nil {
		return fmt.Errorf("load config %s: %w", serveFlags.Config, err)
	}
	if serveFlags.FailureRate >= 0 {
		cfg.Chaos.RatePercent = serveFlags.FailureRate
	}
	if serveFlags.NoMocks {
		cfg.Mock.NoMocks = true
	}

	opts, err := loadBuildOptions(*cfg, log)
	if err != nil {
		return err
	}

	plugins, pool, err := engine.BuildPlugins(*cfg, opts, log)
	if err != nil {
		return fmt.Errorf("build plugin pipeline: %w", err)
	}

	watch := urlwatch.Compile(cfg.URLsToWatch)
	dispatcher := pipeline.NewDispatcher(watch, log, plugins...)

	var auditLogger audit.Logger = audit.NoOp{}
	if serveFlags.AuditLog != "" {
		fileLogger, err := audit.NewFileLogger(serveFlags.AuditLog)
		if err != nil {
			return fmt.Errorf("open audit log %s: %w", serveFlags.AuditLog, err)
		}
		defer fileLogger.Close()
		auditLogger = fileLogger
	}
	dispatcher.SetOnDecision(func(plugin, decision, method, url, reason string, status int) {
		entry := audit.NewEntry(plugin, audit.Decision(decision), method, url, reason)
		if status != 0 {
			entry = entry.WithStatus(status)
		}
		if err := auditLogger.Log(entry); err != nil {
			log.Error("audit log write failed", "error", err)
		}
	})

	ctx := context.Background()
	if err := dispatcher.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize plugins: %w", err)
	}

	global := pipeline.NewGlobalData()

	engCfg := engine.DefaultConfig()
	engCfg.ListenAddr = fmt.Sprintf(":%d", serveFlags.Port)
	srv := engine.NewServer(engCfg, dispatcher, global, log)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	var adminOpts []admin.Option
	if pool != nil {
		adminOpts = append(adminOpts, admin.WithRateLimit(pool, cfg.RateLimit.ToConfig()))
	}
	adminAPI := admin.NewAPI(serveFlags.AdminPort, global, log, adminOpts...)
	adminAPI.Start()

	log.Info("devproxy serving",
		"proxy_addr", engCfg.ListenAddr,
		"admin_addr", fmt.Sprintf(":%d", serveFlags.AdminPort),
		"watched_patterns", len(watch.Patterns()),
		"plugins", len(plugins),
	)

	waitForSignal()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(); err != nil {
		log.Error("engine shutdown error", "error", err)
	}
	if err := adminAPI.Stop(shutdownCtx); err != nil {
		log.Error("admin API shutdown error", "error", err)
	}
	return nil
}

// waitForSignal blocks until SIGINT or SIGTERM arrives.
func waitForSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
}

// loadBuildOptions resolves the mocks file, CRUD API file, and auth key
// source a config document names, producing the engine.BuildOptions
// BuildPlugins needs. Each file is optional; an absent one simply leaves
// the corresponding plugin with nothing to serve (still constructed, so a
// request that reaches it is correctly treated as "no mock matched" rather
// than "plugin absent").
func loadBuildOptions(cfg devproxyconfig.Config, log *slog.Logger) (engine.BuildOptions, error) {
	var opts engine.BuildOptions

	mocksFile := serveFlags.MocksFile
	if mocksFile == "" {
		mocksFile = cfg.Mock.MocksFile
	}
	if mocksFile != "" {
		mocks, dir, err := devproxyconfig.LoadMocksFromFile(mocksFile)
		if err != nil {
			return opts, fmt.Errorf("load mocks file %s: %w", mocksFile, err)
		}
		opts.Mocks = mocks
		opts.MocksDir = dir
		log.Debug("loaded mocks", "file", mocksFile, "count", len(mocks))
	}

	crudFile := serveFlags.CrudFile
	if crudFile == "" {
		crudFile = cfg.Crud.CrudFile
	}
	if crudFile != "" {
		newKeySource := func(issuer string) (*authplugin.KeySource, error) {
			return authplugin.NewKeySourceFromIssuer(issuer, nil)
		}
		api, err := devproxyconfig.LoadCrudAPIFromFile(crudFile, newKeySource)
		if err != nil {
			return opts, fmt.Errorf("load CRUD API file %s: %w", crudFile, err)
		}
		opts.CrudAPIs = []crudplugin.API{api}
		log.Debug("loaded CRUD API", "file", crudFile, "baseUrl", api.BaseURL, "actions", len(api.Actions))
	}

	if cfg.Auth.Mode == string(authplugin.ModeOAuth2) && cfg.Auth.OAuth2.Issuer != "" {
		ks, err := authplugin.NewKeySourceFromIssuer(cfg.Auth.OAuth2.Issuer, nil)
		if err != nil {
			return opts, fmt.Errorf("resolve auth JWKS for issuer %s: %w", cfg.Auth.OAuth2.Issuer, err)
		}
		opts.AuthKeySource = ks
	}

	return opts, nil
}
