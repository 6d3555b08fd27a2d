package devproxyconfig

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MockRequestSpec is the single synthetic outbound request described by a
// mock-request file (§6 "Mock-request file (JSON)"): `{ request: { url,
// method, headers?, body? } }`, emitted by the engine on MockRequest.
type MockRequestSpec struct {
	URL     string            `json:"url" yaml:"url"`
	Method  string            `json:"method" yaml:"method"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    json.RawMessage   `json:"body,omitempty" yaml:"body,omitempty"`
}

type mockRequestFile struct {
	Request MockRequestSpec `json:"request" yaml:"request"`
}

// LoadMockRequestFromFile reads a mock-request file and returns the
// request it describes.
func LoadMockRequestFromFile(path string) (MockRequestSpec, error) {
	data, err := readFile(path)
	if err != nil {
		return MockRequestSpec{}, err
	}

	var file mockRequestFile
	if isYAMLExt(path) {
		if err := yaml.Unmarshal(data, &file); err != nil {
			return MockRequestSpec{}, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
	} else {
		if !json.Valid(data) {
			return MockRequestSpec{}, fmt.Errorf("%w in file: %s", ErrInvalidJSON, path)
		}
		if err := json.Unmarshal(data, &file); err != nil {
			return MockRequestSpec{}, fmt.Errorf("devproxyconfig: parse mock-request JSON: %w", err)
		}
	}
	return file.Request, nil
}
