package mockplugin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/devproxy-io/devproxy/pkg/pipeline"
)

// Name is the plugin name the dispatcher and admin introspection use to
// refer to the mock-response plugin.
const Name = "MockResponsePlugin"

// Config controls the mock-response plugin's behavior (§4.7).
type Config struct {
	// NoMocks disables the plugin entirely (the CLI's --no-mocks flag).
	NoMocks bool
	// MocksDir is the directory file-backed bodies resolve relative to
	// (the mocks file's own directory).
	MocksDir string
	// BlockUnmocked synthesizes a 502 when no mock matches a watched
	// request instead of passing it through (§4.7 "Block-unmocked").
	BlockUnmocked bool
}

// NewPlugin builds the mock-response plugin over a fixed catalog loaded
// once at startup. mocks is evaluated in declared order; the same slice
// backs every request, but each selected entry is cloned before
// substitution (§4.7 step 4).
func NewPlugin(mocks []Mock, cfg Config, log *slog.Logger) pipeline.Plugin {
	if log == nil {
		log = slog.Default()
	}
	p := pipeline.NewPlugin(Name)
	p.BeforeRequest = func(ctx context.Context, ev *pipeline.RequestEvent) error {
		if cfg.NoMocks {
			return nil
		}
		appliedMocks := ev.Global().AppliedMocks()
		matched, ok := find(mocks, appliedMocks, ev.Method, ev.URL, ev.BodyString())
		if !ok {
			if cfg.BlockUnmocked {
				emitUnmockedBlock(ev)
			}
			return nil
		}
		emit(matched.clone(), cfg, ev, log)
		return nil
	}
	return p
}

func emit(m Mock, cfg Config, ev *pipeline.RequestEvent, log *slog.Logger) {
	status := m.Response.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	resp := pipeline.NewResponseSpec(status, nil)
	for name, value := range m.Response.Headers {
		resp.Headers.Set(name, value)
	}

	if len(m.Response.Body) > 0 {
		if path, literal, fileBacked := fileBackedBody(m.Response.Body, cfg.MocksDir, log); fileBacked {
			if path != "" {
				resp.FilePath = path
			} else {
				resp.Body = literal
			}
		} else {
			var requestBody any
			_ = json.Unmarshal(ev.Body(), &requestBody)
			resp.Body = substitutePlaceholders(m.Response.Body, requestBody)
			if !resp.Headers.Has("Content-Type") {
				resp.Headers.Set("Content-Type", "application/json")
			}
		}
	}

	ev.SetResponse(resp)
	log.Debug("mock matched", "plugin", Name, "url", ev.URL, "mockUrl", m.Request.URL, "status", status)
}

func emitUnmockedBlock(ev *pipeline.RequestEvent) {
	msg := fmt.Sprintf("No mock response found for %s %s", ev.Method, ev.URL)
	resp := pipeline.NewResponseSpec(http.StatusBadGateway, []byte(fmt.Sprintf(`{"error":{"message":%q}}`, msg)))
	resp.Headers.Set("Content-Type", "application/json")
	ev.SetResponse(resp)
}
