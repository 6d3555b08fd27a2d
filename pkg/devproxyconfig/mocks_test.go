package devproxyconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/devproxy-io/devproxy/pkg/mockplugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMocksFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mocks.json")
	content := `{
		"mocks": [
			{
				"request": {"url": "https://api.example.com/users", "method": "GET"},
				"response": {"statusCode": 200, "body": {"ok": true}}
			}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	mocks, mocksDir, err := LoadMocksFromFile(path)
	require.NoError(t, err)
	require.Len(t, mocks, 1)
	assert.Equal(t, "https://api.example.com/users", mocks[0].Request.URL)
	assert.Equal(t, dir, mocksDir)
}

func TestLoadMocksFromFileNotFound(t *testing.T) {
	_, _, err := LoadMocksFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestSaveMocksToFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mocks.json")

	mocks := []mockplugin.Mock{
		{
			Request:  mockplugin.MockRequest{URL: "https://api.example.com/orders", Method: "POST"},
			Response: mockplugin.MockResponse{StatusCode: 201, Body: []byte(`{"id":1}`)},
		},
	}
	require.NoError(t, SaveMocksToFile(path, mocks))

	loaded, dirOut, err := LoadMocksFromFile(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "https://api.example.com/orders", loaded[0].Request.URL)
	assert.Equal(t, "POST", loaded[0].Request.Method)
	assert.Equal(t, dir, dirOut)
}

func TestSaveMocksToFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mocks.yaml")

	mocks := []mockplugin.Mock{
		{Request: mockplugin.MockRequest{URL: "https://api.example.com/x", Method: "GET"}},
	}
	require.NoError(t, SaveMocksToFile(path, mocks))

	loaded, _, err := LoadMocksFromFile(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "https://api.example.com/x", loaded[0].Request.URL)
}
