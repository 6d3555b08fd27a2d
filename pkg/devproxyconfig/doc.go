// Package devproxyconfig is the single collaborator that parses the proxy's
// JSON/YAML configuration file, mocks file, CRUD API file, and mock-request
// file into typed structs (§6, §9 design note "Configuration loading").
// Plugins never re-parse files themselves; this package owns every format
// decision (JSON vs YAML, schema validation, file-backed body resolution)
// so the plugin packages stay free of file I/O concerns.
package devproxyconfig
