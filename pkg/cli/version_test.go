package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionCmd_PrintsVersion(t *testing.T) {
	Version, Commit, BuildDate = "1.2.3", "abc123", "2026-07-31"
	defer func() { Version, Commit, BuildDate = "dev", "none", "unknown" }()

	var stdout bytes.Buffer
	versionCmd.SetOut(&stdout)
	require.NoError(t, versionCmd.RunE(versionCmd, nil))
	require.Contains(t, stdout.String(), "1.2.3")
	require.Contains(t, stdout.String(), "abc123")
}
