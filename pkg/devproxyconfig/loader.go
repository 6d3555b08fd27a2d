package devproxyconfig

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFromFile reads a Config from a JSON or YAML file (§6). The format is
// auto-detected from the file extension (.yaml/.yml for YAML, otherwise
// JSON), mirroring the teacher's config loader.
func LoadFromFile(path string) (*Config, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	if isYAMLExt(path) {
		return ParseYAML(data)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w in file: %s", ErrInvalidJSON, path)
	}
	return ParseJSON(data)
}

// SaveToFile writes cfg to path using an atomic rename, in the format
// implied by path's extension.
func SaveToFile(path string, cfg *Config) error {
	var data []byte
	var err error
	if isYAMLExt(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	}
	if err != nil {
		return fmt.Errorf("devproxyconfig: marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("devproxyconfig: create directory %s: %w", dir, err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("devproxyconfig: write temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("devproxyconfig: rename temporary file: %w", err)
	}
	return nil
}

// ParseJSON parses JSON bytes into a Config, validating against the
// config schema (§6).
func ParseJSON(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("devproxyconfig: parse JSON: %w", err)
	}
	if err := ValidateSchema(data); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseYAML parses YAML bytes into a Config. Validation runs against the
// JSON form of the document, since the schema is JSON Schema.
func ParseYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	asJSON, err := yamlToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("devproxyconfig: convert YAML to JSON for validation: %w", err)
	}
	if err := ValidateSchema(asJSON); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("devproxyconfig: stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("devproxyconfig: path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("devproxyconfig: open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("devproxyconfig: read file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	return data, nil
}

func isYAMLExt(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
