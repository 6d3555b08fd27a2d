package mockplugin

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// fileBackedBody inspects a mock response body to see whether it is the
// "@<relpath>" file-backed sentinel (§4.7 "File-backed bodies"). ok is
// false when body is not such a sentinel at all, in which case the caller
// should treat body as an ordinary (possibly placeholder-substituted) JSON
// value. When ok is true, exactly one of resolvedPath or literal is set:
// resolvedPath when the file exists, literal (the sentinel string itself)
// when it does not — preserving forensic visibility per the spec's failure
// semantics.
func fileBackedBody(body json.RawMessage, mocksDir string, log *slog.Logger) (resolvedPath string, literal []byte, ok bool) {
	var s string
	if err := json.Unmarshal(body, &s); err != nil {
		return "", nil, false
	}
	if !strings.HasPrefix(s, "@") {
		return "", nil, false
	}

	relpath := os.ExpandEnv(strings.TrimPrefix(s, "@"))
	full := filepath.Join(mocksDir, relpath)
	if _, err := os.Stat(full); err != nil {
		log.Error("mock file-backed body not found", "path", full, "error", err)
		return "", []byte(s), true
	}
	return full, nil, true
}
