package devproxyconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/devproxy-io/devproxy/pkg/mockplugin"
	"gopkg.in/yaml.v3"
)

// mocksFile is the on-disk shape of a mocks file: an object whose "mocks"
// field holds the array of mocks (§4.7).
type mocksFile struct {
	Mocks []mockplugin.Mock `json:"mocks" yaml:"mocks"`
}

// LoadMocksFromFile reads a mocks file and returns its catalog plus the
// directory file-backed bodies should resolve relative to (the file's own
// directory, per §4.7 "File-backed bodies").
func LoadMocksFromFile(path string) (mocks []mockplugin.Mock, mocksDir string, err error) {
	data, err := readFile(path)
	if err != nil {
		return nil, "", err
	}

	var file mocksFile
	if isYAMLExt(path) {
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
	} else {
		if !json.Valid(data) {
			return nil, "", fmt.Errorf("%w in file: %s", ErrInvalidJSON, path)
		}
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, "", fmt.Errorf("devproxyconfig: parse mocks JSON: %w", err)
		}
	}

	return file.Mocks, filepath.Dir(path), nil
}

// SaveMocksToFile writes mocks to path as a mocks file, in the format
// implied by path's extension, using an atomic rename (mirroring SaveToFile).
func SaveMocksToFile(path string, mocks []mockplugin.Mock) error {
	file := mocksFile{Mocks: mocks}

	var data []byte
	var err error
	if isYAMLExt(path) {
		data, err = yaml.Marshal(file)
	} else {
		data, err = json.MarshalIndent(file, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	}
	if err != nil {
		return fmt.Errorf("devproxyconfig: marshal mocks: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("devproxyconfig: create directory %s: %w", dir, err)
		}
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
