package mockplugin

import "encoding/json"

// Mock is a single catalog entry (§3 Mock). It is loaded once from the
// mocks file and never mutated in place — matching clones the selected
// entry's response before substitution so concurrent requests never race
// on the catalog itself.
type Mock struct {
	Request  MockRequest  `json:"request" yaml:"request"`
	Response MockResponse `json:"response" yaml:"response"`
}

// MockRequest is the matching criteria side of a Mock.
type MockRequest struct {
	URL          string `json:"url" yaml:"url"`
	Method       string `json:"method" yaml:"method"`
	BodyFragment string `json:"bodyFragment,omitempty" yaml:"bodyFragment,omitempty"`
	// Nth, when non-zero, conditions the match on this being the k-th
	// (1-based) qualifying request for a mock keyed by this URL.
	Nth int `json:"nth,omitempty" yaml:"nth,omitempty"`
}

// MockResponse is the response side of a Mock, as loaded from
// configuration. Body is kept as raw JSON so it can hold either an object
// (serialized back out verbatim) or a bare string (possibly the
// "@<relpath>" file-backed sentinel).
type MockResponse struct {
	StatusCode int               `json:"statusCode,omitempty" yaml:"statusCode,omitempty"`
	Headers    map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body       json.RawMessage   `json:"body,omitempty" yaml:"body,omitempty"`
}

// clone deep-copies m so that per-request placeholder substitution never
// mutates the shared catalog entry (§4.7 step 4).
func (m Mock) clone() Mock {
	out := m
	if m.Response.Headers != nil {
		out.Response.Headers = make(map[string]string, len(m.Response.Headers))
		for k, v := range m.Response.Headers {
			out.Response.Headers[k] = v
		}
	}
	if m.Response.Body != nil {
		out.Response.Body = append(json.RawMessage(nil), m.Response.Body...)
	}
	return out
}

// key is the identity used for both wildcard matching and the appliedMocks
// Nth counter: the configured URL string verbatim (§3 AppliedMocks).
func (m Mock) key() string {
	return m.Request.URL
}
