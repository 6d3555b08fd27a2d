// Command devproxy is the reference runtime for the interception engine
// specified in SPEC_FULL.md: it loads a config file, builds the plugin
// pipeline, and serves both the demo forward-proxy harness and the admin
// introspection API.
package main

import "github.com/devproxy-io/devproxy/pkg/cli"

// Build-time variables set via ldflags, mirroring the teacher's
// cmd/mockd/main.go convention.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.BuildDate = buildDate
	cli.Execute()
}
