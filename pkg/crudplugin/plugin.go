package crudplugin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/devproxy-io/devproxy/pkg/pipeline"
)

// Name is the plugin name the dispatcher and admin introspection use to
// refer to the CRUD-API plugin.
const Name = "CrudApiPlugin"

// API is one configured CRUD surface: a base URL, its ordered actions, an
// API-level auth/CORS policy (overridable per action), and the in-memory
// document the actions operate on.
type API struct {
	BaseURL    string
	Actions    []Action
	Auth       AuthMode
	EntraAuth  *EntraAuthConfig
	EnableCORS bool
	Document   *Document
}

// NewPlugin builds the CRUD-API plugin for a single configured API. Route
// compilation happens once here, not per request.
func NewPlugin(api API, log *slog.Logger) pipeline.Plugin {
	if log == nil {
		log = slog.Default()
	}
	router := NewRouter(api.BaseURL, api.Actions)

	p := pipeline.NewPlugin(Name)
	p.BeforeRequest = func(ctx context.Context, ev *pipeline.RequestEvent) error {
		if api.EnableCORS && ev.Method == http.MethodOptions && ev.Headers.Has("Origin") {
			emitPreflight(ev, router, api)
			return nil
		}

		action, params, ok := router.Match(ev.Method, ev.URL)
		if !ok {
			return nil
		}

		mode, entraCfg := effectiveAuth(api, action)
		if err := authorize(mode, entraCfg, ev.Headers.Get("Authorization")); err != nil {
			emitUnauthorized(ev)
			return nil
		}

		dispatch(api.Document, action, params, ev, log)
		return nil
	}
	return p
}

func effectiveAuth(api API, action Action) (AuthMode, *EntraAuthConfig) {
	mode := api.Auth
	cfg := api.EntraAuth
	if action.Auth != "" {
		mode = action.Auth
	}
	if action.EntraAuth != nil {
		cfg = action.EntraAuth
	}
	return mode, cfg
}

func emitUnauthorized(ev *pipeline.RequestEvent) {
	resp := pipeline.NewResponseSpec(http.StatusUnauthorized, []byte(`{"error":{"message":"Unauthorized"}}`))
	resp.Headers.Set("Content-Type", "application/json")
	ev.SetResponse(resp)
}

// emitPreflight answers an OPTIONS CORS preflight (§4.8 "CORS").
func emitPreflight(ev *pipeline.RequestEvent, router *Router, api API) {
	resp := pipeline.NewResponseSpec(http.StatusNoContent, nil)
	origin := ev.Headers.Get("Origin")
	resp.Headers.Set("Access-Control-Allow-Origin", origin)
	resp.Headers.Set("Access-Control-Allow-Methods", strings.Join(router.AllowedMethods(), ", "))
	if api.Auth != AuthNone {
		resp.Headers.Set("Access-Control-Allow-Headers", "authorization, content-type")
	} else {
		resp.Headers.Set("Access-Control-Allow-Headers", "content-type")
	}
	ev.SetResponse(resp)
}

// dispatch performs action's operation against doc and emits the resulting
// ResponseSpec (§4.8 operations table).
func dispatch(doc *Document, action Action, params map[string]string, ev *pipeline.RequestEvent, log *slog.Logger) {
	switch action.Op {
	case OpCreate:
		var body any
		if err := json.Unmarshal(ev.Body(), &body); err != nil {
			log.Debug("crud body parse error", "plugin", Name, "op", action.Op, "error", err)
			return
		}
		doc.Create(body)
		emitJSON(ev, http.StatusCreated, body)

	case OpGetAll:
		emitJSON(ev, http.StatusOK, doc.GetAll())

	case OpGetOne:
		val, ok, err := doc.GetOne(action.JSONPathQuery, params)
		if err != nil {
			log.Debug("crud jsonpath error", "plugin", Name, "error", err)
			return
		}
		if !ok {
			emitNotFound(ev)
			return
		}
		emitJSON(ev, http.StatusOK, val)

	case OpGetMany:
		vals, err := doc.GetMany(action.JSONPathQuery, params)
		if err != nil {
			log.Debug("crud jsonpath error", "plugin", Name, "error", err)
			return
		}
		emitJSON(ev, http.StatusOK, vals)

	case OpMerge:
		var patch any
		if err := json.Unmarshal(ev.Body(), &patch); err != nil {
			log.Debug("crud body parse error", "plugin", Name, "op", action.Op, "error", err)
			return
		}
		ok, err := doc.Merge(action.JSONPathQuery, params, patch)
		if err != nil {
			log.Debug("crud jsonpath error", "plugin", Name, "error", err)
			return
		}
		if !ok {
			emitNotFound(ev)
			return
		}
		ev.SetResponse(pipeline.NewResponseSpec(http.StatusNoContent, nil))

	case OpUpdate:
		var body any
		if err := json.Unmarshal(ev.Body(), &body); err != nil {
			log.Debug("crud body parse error", "plugin", Name, "op", action.Op, "error", err)
			return
		}
		ok, err := doc.Update(action.JSONPathQuery, params, body)
		if err != nil {
			log.Debug("crud jsonpath error", "plugin", Name, "error", err)
			return
		}
		if !ok {
			emitNotFound(ev)
			return
		}
		ev.SetResponse(pipeline.NewResponseSpec(http.StatusNoContent, nil))

	case OpDelete:
		ok, err := doc.Delete(action.JSONPathQuery, params)
		if err != nil {
			log.Debug("crud jsonpath error", "plugin", Name, "error", err)
			return
		}
		if !ok {
			emitNotFound(ev)
			return
		}
		ev.SetResponse(pipeline.NewResponseSpec(http.StatusNoContent, nil))
	}
}

func emitJSON(ev *pipeline.RequestEvent, status int, value any) {
	body, err := json.Marshal(value)
	if err != nil {
		body = []byte("null")
	}
	resp := pipeline.NewResponseSpec(status, body)
	resp.Headers.Set("Content-Type", "application/json")
	ev.SetResponse(resp)
}

func emitNotFound(ev *pipeline.RequestEvent) {
	resp := pipeline.NewResponseSpec(http.StatusNotFound, []byte(`{"error":{"message":"Not Found"}}`))
	resp.Headers.Set("Content-Type", "application/json")
	ev.SetResponse(resp)
}
