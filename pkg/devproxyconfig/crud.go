package devproxyconfig

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/devproxy-io/devproxy/pkg/authplugin"
	"github.com/devproxy-io/devproxy/pkg/crudplugin"
	"gopkg.in/yaml.v3"
)

// crudActionFile is the on-disk shape of one CrudAction (§3, §6).
type crudActionFile struct {
	Action          string             `json:"action" yaml:"action"`
	Method          string             `json:"method,omitempty" yaml:"method,omitempty"`
	URL             string             `json:"url" yaml:"url"`
	JSONPathQuery   string             `json:"jsonPathQuery,omitempty" yaml:"jsonPathQuery,omitempty"`
	Auth            string             `json:"auth,omitempty" yaml:"auth,omitempty"`
	EntraAuthConfig *entraAuthFile     `json:"entraAuthConfig,omitempty" yaml:"entraAuthConfig,omitempty"`
}

type entraAuthFile struct {
	Issuer   string   `json:"issuer" yaml:"issuer"`
	Audience string   `json:"audience,omitempty" yaml:"audience,omitempty"`
	Roles    []string `json:"roles,omitempty" yaml:"roles,omitempty"`
	Scopes   []string `json:"scopes,omitempty" yaml:"scopes,omitempty"`
}

// crudAPIFile is the on-disk shape of a CRUD API file (§6 "CRUD API file
// (JSON)"): `{ baseUrl, dataFile, auth, entraAuthConfig?, actions, enableCors? }`.
type crudAPIFile struct {
	BaseURL         string            `json:"baseUrl" yaml:"baseUrl"`
	DataFile        string            `json:"dataFile,omitempty" yaml:"dataFile,omitempty"`
	Auth            string            `json:"auth,omitempty" yaml:"auth,omitempty"`
	EntraAuthConfig *entraAuthFile    `json:"entraAuthConfig,omitempty" yaml:"entraAuthConfig,omitempty"`
	Actions         []crudActionFile  `json:"actions" yaml:"actions"`
	EnableCORS      bool              `json:"enableCors,omitempty" yaml:"enableCors,omitempty"`
}

// LoadCrudAPIFromFile reads a CRUD API definition file and the document it
// points to (dataFile, resolved relative to the API file's directory),
// building a ready-to-run crudplugin.API. newKeySource is called for the
// API-level entra config and again for every action that carries its own
// entraAuthConfig, to resolve the signing KeyFunc for entra auth modes; pass
// nil to skip OAuth2 key resolution (e.g. in tests).
func LoadCrudAPIFromFile(path string, newKeySource func(issuer string) (*authplugin.KeySource, error)) (crudplugin.API, error) {
	data, err := readFile(path)
	if err != nil {
		return crudplugin.API{}, err
	}

	var file crudAPIFile
	if isYAMLExt(path) {
		if err := yaml.Unmarshal(data, &file); err != nil {
			return crudplugin.API{}, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
	} else {
		if !json.Valid(data) {
			return crudplugin.API{}, fmt.Errorf("%w in file: %s", ErrInvalidJSON, path)
		}
		if err := json.Unmarshal(data, &file); err != nil {
			return crudplugin.API{}, fmt.Errorf("devproxyconfig: parse CRUD API JSON: %w", err)
		}
	}

	dir := filepath.Dir(path)
	doc, err := loadDocument(dir, file.DataFile)
	if err != nil {
		return crudplugin.API{}, err
	}

	apiAuth, err := toEntraAuth(file.Auth, file.EntraAuthConfig, newKeySource)
	if err != nil {
		return crudplugin.API{}, err
	}

	actions := make([]crudplugin.Action, 0, len(file.Actions))
	for _, a := range file.Actions {
		method := a.Method
		if method == "" {
			method = defaultMethodForOp(a.Action)
		}
		effectiveMode := apiAuthMode(a.Auth, apiAuth.mode)

		entraCfg := apiAuth.config
		if a.EntraAuthConfig != nil {
			resolved, err := toEntraAuth(string(effectiveMode), a.EntraAuthConfig, newKeySource)
			if err != nil {
				return crudplugin.API{}, err
			}
			entraCfg = resolved.config
		}
		if effectiveMode != crudplugin.AuthEntra {
			entraCfg = nil
		}

		actions = append(actions, crudplugin.Action{
			Op:            crudplugin.OpKind(a.Action),
			Method:        method,
			URLTemplate:   a.URL,
			JSONPathQuery: a.JSONPathQuery,
			Auth:          effectiveMode,
			EntraAuth:     entraCfg,
		})
	}

	return crudplugin.API{
		BaseURL:    file.BaseURL,
		Actions:    actions,
		Auth:       apiAuth.mode,
		EntraAuth:  apiAuth.config,
		EnableCORS: file.EnableCORS,
		Document:   doc,
	}, nil
}

func loadDocument(dir, dataFile string) (*crudplugin.Document, error) {
	if dataFile == "" {
		return crudplugin.NewDocument(nil), nil
	}
	path := filepath.Join(dir, dataFile)
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	var items []any
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("devproxyconfig: parse CRUD data file %s: %w", path, err)
	}
	return crudplugin.NewDocument(items), nil
}

type entraAuth struct {
	mode   crudplugin.AuthMode
	config *crudplugin.EntraAuthConfig
}

func toEntraAuth(mode string, file *entraAuthFile, newKeySource func(issuer string) (*authplugin.KeySource, error)) (entraAuth, error) {
	authMode := crudplugin.AuthMode(mode)
	if authMode == "" {
		authMode = crudplugin.AuthNone
	}
	if authMode != crudplugin.AuthEntra || file == nil {
		return entraAuth{mode: authMode}, nil
	}

	cfg := &crudplugin.EntraAuthConfig{
		Issuer:   file.Issuer,
		Audience: file.Audience,
		Roles:    file.Roles,
		Scopes:   file.Scopes,
	}
	if newKeySource != nil {
		ks, err := newKeySource(file.Issuer)
		if err != nil {
			return entraAuth{}, fmt.Errorf("devproxyconfig: resolve signing keys for issuer %s: %w", file.Issuer, err)
		}
		cfg.KeyFunc = ks.Keyfunc()
	}
	return entraAuth{mode: authMode, config: cfg}, nil
}

// apiAuthMode lets an action's empty auth field fall back to the API-level
// policy (§3 CrudAction "auth may override the API-level policy per action").
func apiAuthMode(actionAuth string, apiMode crudplugin.AuthMode) crudplugin.AuthMode {
	if actionAuth == "" {
		return apiMode
	}
	return crudplugin.AuthMode(actionAuth)
}

func defaultMethodForOp(op string) string {
	switch crudplugin.OpKind(op) {
	case crudplugin.OpCreate:
		return http.MethodPost
	case crudplugin.OpGetAll, crudplugin.OpGetOne, crudplugin.OpGetMany:
		return http.MethodGet
	case crudplugin.OpMerge:
		return http.MethodPatch
	case crudplugin.OpUpdate:
		return http.MethodPut
	case crudplugin.OpDelete:
		return http.MethodDelete
	default:
		return http.MethodGet
	}
}
