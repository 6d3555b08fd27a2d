package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build-time metadata, injected via ldflags (grounded on the teacher's
// cmd/mockd/main.go Version/Commit/BuildDate variables).
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// rootCmd is the base command when devproxy is invoked with no subcommand.
var rootCmd = &cobra.Command{
	Use:   "devproxy",
	Short: "devproxy is a developer-facing man-in-the-middle HTTP(S) proxy",
	Long: `devproxy intercepts outbound API traffic from a developer's workstation and
deterministically mutates it to simulate real-world API conditions: random
server errors, throttling, added latency, request/response mocking, CRUD
emulation over a JSON document, bearer-token authorization enforcement, and
recording-based permission analysis.

Configuration is provided via a JSON or YAML config file (see 'devproxy init').`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(mocksCmd)
}
