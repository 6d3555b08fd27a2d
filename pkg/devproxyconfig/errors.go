package devproxyconfig

import "errors"

// Sentinel errors for configuration loading, mirroring the teacher's
// pkg/config/loader.go sentinel-error style so callers can branch on
// failure class with errors.Is rather than string matching.
var (
	ErrFileNotFound     = errors.New("devproxyconfig: file not found")
	ErrPermissionDenied = errors.New("devproxyconfig: permission denied")
	ErrInvalidJSON      = errors.New("devproxyconfig: invalid JSON syntax")
	ErrInvalidYAML      = errors.New("devproxyconfig: invalid YAML syntax")
	ErrEmptyFile        = errors.New("devproxyconfig: file is empty")
	ErrSchemaValidation = errors.New("devproxyconfig: schema validation failed")
)
