package crudplugin

import (
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

// routeParamRe matches a "{name}" path template segment so its name can be
// sanitized before being handed to mux, which compiles route variables into
// Go regexp named capture groups ("(?P<name>...)") — a syntax that rejects
// hyphens.
var routeParamRe = regexp.MustCompile(`\{([A-Za-z0-9_-]+)\}`)

// OpKind enumerates the CRUD operations an Action can perform (§3 CrudAction).
type OpKind string

const (
	OpCreate  OpKind = "create"
	OpGetAll  OpKind = "getAll"
	OpGetOne  OpKind = "getOne"
	OpGetMany OpKind = "getMany"
	OpMerge   OpKind = "merge"
	OpUpdate  OpKind = "update"
	OpDelete  OpKind = "delete"
)

// Action is a single configured CRUD route (§3 CrudAction).
type Action struct {
	Op            OpKind
	Method        string
	URLTemplate   string // relative to the API's BaseURL, e.g. "/users/{id}"
	JSONPathQuery string // may reference {param} tokens substituted from the route match
	Auth          AuthMode
	EntraAuth     *EntraAuthConfig
}

// Router walks a fixed, ordered list of routes compiled by gorilla/mux,
// first match wins (§4.8 "first matching action wins"). {param} segments in
// an Action's URLTemplate become mux route variables; a hyphenated param
// name is compiled under a "-"→"_" substitute name and translated back to
// its original spelling when reporting matched params.
type Router struct {
	mux     *mux.Router
	actions map[string]routeEntry
	methods []string
}

// routeEntry pairs a compiled route's Action with the mapping from the
// mux-safe param names it was compiled with back to their original,
// possibly hyphenated, names.
type routeEntry struct {
	action   Action
	varNames map[string]string // mux-safe name -> original name
}

// NewRouter compiles every action in actions against baseURL, in order.
func NewRouter(baseURL string, actions []Action) *Router {
	r := &Router{mux: mux.NewRouter(), actions: make(map[string]routeEntry, len(actions))}
	base := basePath(baseURL)
	seen := map[string]bool{}
	for i, a := range actions {
		name := routeName(i)
		full := collapseSlashes(base + a.URLTemplate)
		safeTemplate, varNames := sanitizeRouteParams(full)
		route := r.mux.NewRoute().Name(name).Path(safeTemplate)
		if a.Method != "" {
			route.Methods(a.Method)
			if !seen[a.Method] {
				seen[a.Method] = true
				r.methods = append(r.methods, a.Method)
			}
		}
		r.actions[name] = routeEntry{action: a, varNames: varNames}
	}
	return r
}

// sanitizeRouteParams rewrites every "{name}" segment in template so that
// any hyphens in name are replaced with underscores (mux/Go regexp named
// capture groups cannot contain hyphens), returning the rewritten template
// alongside a mux-safe-name -> original-name mapping.
func sanitizeRouteParams(template string) (string, map[string]string) {
	varNames := make(map[string]string)
	safe := routeParamRe.ReplaceAllStringFunc(template, func(segment string) string {
		original := segment[1 : len(segment)-1]
		safeName := strings.ReplaceAll(original, "-", "_")
		varNames[safeName] = original
		return "{" + safeName + "}"
	})
	return safe, varNames
}

func routeName(i int) string { return "route-" + strconv.Itoa(i) }

// basePath extracts the path component of a base URL, ignoring scheme and
// host; routes are matched against the path alone.
func basePath(rawBaseURL string) string {
	u, err := url.Parse(rawBaseURL)
	if err != nil {
		return rawBaseURL
	}
	return u.Path
}

// collapseSlashes removes duplicate "/" runs produced by string
// concatenation of a base path and a route template.
func collapseSlashes(raw string) string {
	for strings.Contains(raw, "//") {
		raw = strings.ReplaceAll(raw, "//", "/")
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return raw
}

// Match returns the first action whose route matches method and rawURL,
// along with its captured, URL-decoded parameters (§4.8: "captured
// parameters are URL-decoded" — net/http already decodes req.URL.Path, so
// mux's route variables come back decoded for free).
func (r *Router) Match(method, rawURL string) (Action, map[string]string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Action{}, nil, false
	}
	req := &http.Request{Method: method, URL: &url.URL{Path: u.Path, RawQuery: u.RawQuery}}

	var match mux.RouteMatch
	if !r.mux.Match(req, &match) || match.Route == nil {
		return Action{}, nil, false
	}
	entry, ok := r.actions[match.Route.GetName()]
	if !ok {
		return Action{}, nil, false
	}
	params := make(map[string]string, len(match.Vars))
	for safeName, v := range match.Vars {
		name := safeName
		if original, ok := entry.varNames[safeName]; ok {
			name = original
		}
		params[name] = v
	}
	return entry.action, params, true
}

// AllowedMethods returns the distinct HTTP methods across every configured
// action, used to answer CORS preflight (§4.8 "CORS").
func (r *Router) AllowedMethods() []string {
	return r.methods
}
