package cli

import (
	"fmt"

	"github.com/devproxy-io/devproxy/pkg/authplugin"
	"github.com/devproxy-io/devproxy/pkg/batch"
	"github.com/devproxy-io/devproxy/pkg/chaos"
	"github.com/devproxy-io/devproxy/pkg/crudplugin"
	"github.com/devproxy-io/devproxy/pkg/devproxyconfig"
	"github.com/devproxy-io/devproxy/pkg/mockplugin"
	"github.com/devproxy-io/devproxy/pkg/ratelimit"
	"github.com/devproxy-io/devproxy/pkg/retryafter"
	"github.com/spf13/cobra"
)

var (
	initOutput string
	initForce  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter configuration file",
	Long: `Writes a starter devproxy configuration file (JSON or YAML, chosen by the
output file's extension) with every plugin registered and disabled except
random-error and mock-response, matching the pack's own "batteries included
but opt-in" default.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !initForce {
			if _, err := devproxyconfig.LoadFromFile(initOutput); err == nil {
				return fmt.Errorf("%s already exists; use --force to overwrite", initOutput)
			}
		}
		cfg := starterConfig()
		if err := devproxyconfig.SaveToFile(initOutput, &cfg); err != nil {
			return fmt.Errorf("write starter config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote starter configuration to %s\n", initOutput)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVarP(&initOutput, "output", "o", "devproxy.json", "path to write the config file")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing file")
}

// starterConfig is the default document devproxy init writes: every plugin
// declared, the two lowest-friction ones enabled, everything else present
// but off so a developer can flip it on without hunting for the schema.
func starterConfig() devproxyconfig.Config {
	return devproxyconfig.Config{
		URLsToWatch: []string{"https://jsonplaceholder.typicode.com/*"},
		Plugins: []devproxyconfig.PluginEntry{
			{Name: mockplugin.Name, Enabled: true, ConfigSection: "mocksConfig"},
			{Name: chaos.Name, Enabled: true, ConfigSection: "chaosConfig"},
			{Name: chaos.LatencyName, Enabled: false, ConfigSection: "latencyConfig"},
			{Name: ratelimit.Name, Enabled: false, ConfigSection: "rateLimitConfig"},
			{Name: retryafter.Name, Enabled: false, ConfigSection: "retryAfterConfig"},
			{Name: crudplugin.Name, Enabled: false, ConfigSection: "crudConfig"},
			{Name: authplugin.Name, Enabled: false, ConfigSection: "authConfig"},
			{Name: batch.Name, Enabled: false, ConfigSection: "batchConfig"},
		},
		Chaos: devproxyconfig.ChaosSection{
			RatePercent:       50,
			RetryAfterSeconds: 5,
		},
		Latency: devproxyconfig.LatencySection{
			MinMS: 200,
			MaxMS: 2000,
		},
		RateLimit: devproxyconfig.RateLimitSection{
			Limit:                   100,
			CostPerRequest:          1,
			ResetWindowSeconds:      60,
			WarningThresholdPercent: 20,
		},
		Mock: devproxyconfig.MockSection{
			MocksFile: "mocks.json",
		},
	}
}
