// Package pipeline implements the per-request plugin context and the
// ordered dispatcher that walks the configured plugins for each lifecycle
// event. It is the load-bearing core of the proxy: every other plugin
// package (chaos, ratelimit, retryafter, mockplugin, crudplugin,
// authplugin) is expressed in terms of the types declared here.
package pipeline

import (
	"net/textproto"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// HeaderField is a single response header. Response headers are kept as an
// ordered list rather than a map because the wire format must preserve
// insertion order even though no particular order is semantically required
// (§3 ResponseSpec).
type HeaderField struct {
	Name  string
	Value string
}

// Headers is a case-insensitive, order-preserving collection of header
// fields, used for both the incoming RequestEvent and outgoing ResponseSpec.
type Headers struct {
	fields []HeaderField
}

// NewHeaders builds a Headers collection from field pairs.
func NewHeaders(fields ...HeaderField) *Headers {
	h := &Headers{}
	for _, f := range fields {
		h.Set(f.Name, f.Value)
	}
	return h
}

var titleCaser = cases.Title(language.Und)

func canonicalHeaderName(name string) string {
	// textproto.CanonicalMIMEHeaderKey only normalizes ASCII; Unicode header
	// values occasionally surface in mocked/recorded traffic (vendor quirks,
	// localized status reasons embedded as header values), so names are
	// additionally folded through golang.org/x/text/cases for stable
	// case-insensitive comparison beyond plain ASCII.
	return textproto.CanonicalMIMEHeaderKey(titleCaser.String(strings.ToLower(name)))
}

// Get returns the first value for name (case-insensitive), or "" if absent.
func (h *Headers) Get(name string) string {
	if h == nil {
		return ""
	}
	want := canonicalHeaderName(name)
	for _, f := range h.fields {
		if canonicalHeaderName(f.Name) == want {
			return f.Value
		}
	}
	return ""
}

// Set replaces all existing values for name with a single value, preserving
// the position of the first existing occurrence or appending if absent.
func (h *Headers) Set(name, value string) {
	want := canonicalHeaderName(name)
	for i, f := range h.fields {
		if canonicalHeaderName(f.Name) == want {
			h.fields[i].Value = value
			h.removeAllExcept(want, i)
			return
		}
	}
	h.fields = append(h.fields, HeaderField{Name: name, Value: value})
}

func (h *Headers) removeAllExcept(canonical string, keepIdx int) {
	out := h.fields[:0:0]
	for i, f := range h.fields {
		if i != keepIdx && canonicalHeaderName(f.Name) == canonical {
			continue
		}
		out = append(out, f)
	}
	h.fields = out
}

// Add appends a value for name without removing existing values.
func (h *Headers) Add(name, value string) {
	h.fields = append(h.fields, HeaderField{Name: name, Value: value})
}

// Has reports whether any header with the given name (case-insensitive) is set.
func (h *Headers) Has(name string) bool {
	if h == nil {
		return false
	}
	want := canonicalHeaderName(name)
	for _, f := range h.fields {
		if canonicalHeaderName(f.Name) == want {
			return true
		}
	}
	return false
}

// List returns the headers in insertion order.
func (h *Headers) List() []HeaderField {
	if h == nil {
		return nil
	}
	out := make([]HeaderField, len(h.fields))
	copy(out, h.fields)
	return out
}

// Merge adds every header field from other that is not already present
// (by case-insensitive name), used by plugins that append rate-limit
// headers onto a response already set by an earlier plugin without
// clobbering it (§4.2 invocation rules).
func (h *Headers) Merge(other *Headers) {
	if other == nil {
		return
	}
	for _, f := range other.fields {
		if !h.Has(f.Name) {
			h.Add(f.Name, f.Value)
		}
	}
}

// RequestEvent carries everything the pipeline and its plugins need to
// inspect and mutate a single intercepted request (§3).
type RequestEvent struct {
	Method  string
	URL     string
	Headers *Headers

	bodyMu   sync.Mutex
	body     []byte
	bodyStr  string
	bodyOnce bool

	hasBeenSet bool
	response   *ResponseSpec

	session *SessionData
	global  *GlobalData
}

// NewRequestEvent constructs a RequestEvent for a single intercepted
// request. global is shared across the process lifetime; session is
// created fresh per request by the caller.
func NewRequestEvent(method, url string, headers *Headers, body []byte, global *GlobalData) *RequestEvent {
	if headers == nil {
		headers = NewHeaders()
	}
	return &RequestEvent{
		Method:  method,
		URL:     url,
		Headers: headers,
		body:    body,
		session: NewSessionData(),
		global:  global,
	}
}

// Body returns the raw request body bytes.
func (e *RequestEvent) Body() []byte {
	return e.body
}

// SetBody replaces the request body, e.g. session.setRequestBodyString (§6).
func (e *RequestEvent) SetBody(body []byte) {
	e.bodyMu.Lock()
	defer e.bodyMu.Unlock()
	e.body = body
	e.bodyOnce = false
	e.bodyStr = ""
}

// BodyString lazily decodes the body as UTF-8 text, caching the result for
// subsequent calls within the same request (§3: "body bytes with lazy UTF-8
// view"). Invalid UTF-8 is replaced per utf8.Valid/ToValidUTF8 semantics
// rather than failing the request.
func (e *RequestEvent) BodyString() string {
	e.bodyMu.Lock()
	defer e.bodyMu.Unlock()
	if e.bodyOnce {
		return e.bodyStr
	}
	if utf8.Valid(e.body) {
		e.bodyStr = string(e.body)
	} else {
		e.bodyStr = string(utf8.ToValidUTF8(e.body, "�"))
	}
	e.bodyOnce = true
	return e.bodyStr
}

// HasBeenSet reports whether a plugin has already emitted a synthetic
// response for this request.
func (e *RequestEvent) HasBeenSet() bool {
	return e.hasBeenSet
}

// Response returns the response set so far, or nil if none.
func (e *RequestEvent) Response() *ResponseSpec {
	return e.response
}

// SetResponse installs a synthetic response and marks hasBeenSet. Once
// called, later plugins in the same pipeline pass may only merge
// additional headers (see MergeResponseHeaders); body and status are
// immutable for the remainder of the request (§3 invariant).
func (e *RequestEvent) SetResponse(resp *ResponseSpec) {
	e.response = resp
	e.hasBeenSet = true
}

// MergeResponseHeaders adds headers to the already-set response without
// touching status or body, the one mutation later plugins are permitted
// (§4.2 invocation rules).
func (e *RequestEvent) MergeResponseHeaders(extra *Headers) {
	if e.response == nil || extra == nil {
		return
	}
	e.response.Headers.Merge(extra)
}

// Session returns this request's session-scoped data (lives for one
// request, keyed by plugin name).
func (e *RequestEvent) Session() *SessionData {
	return e.session
}

// Global returns the process-global data shared across all requests.
func (e *RequestEvent) Global() *GlobalData {
	return e.global
}

// ResponseSpec is a synthetic or upstream response assembled by plugins and
// eventually emitted on the wire by the runtime (§3).
type ResponseSpec struct {
	StatusCode int
	Headers    *Headers
	Body       []byte
	// FilePath, when non-empty, indicates Body should instead be served
	// verbatim from this path (the "@<relpath>" sentinel, §3 Mock.response.body).
	FilePath string
}

// NewResponseSpec builds a ResponseSpec with a fresh empty header set.
func NewResponseSpec(status int, body []byte) *ResponseSpec {
	return &ResponseSpec{StatusCode: status, Headers: NewHeaders(), Body: body}
}

// DumpHeaders renders headers in the order httputil.DumpResponse would,
// used by diagnostic logging paths that want a single string rather than
// structured fields.
func (r *ResponseSpec) DumpHeaders() string {
	if r == nil || r.Headers == nil {
		return ""
	}
	var b strings.Builder
	for _, f := range r.Headers.List() {
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(f.Value)
		b.WriteString("\r\n")
	}
	return b.String()
}

// SessionData is per-request mutable state, mapping a plugin name to an
// opaque value. It requires no synchronization: a single request is
// processed by one goroutine walking the plugin list sequentially (§5).
type SessionData struct {
	values map[string]any
}

// NewSessionData creates an empty session data map.
func NewSessionData() *SessionData {
	return &SessionData{values: make(map[string]any)}
}

// Get returns the value stored under key and whether it was present.
func (s *SessionData) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key, overwriting any previous value.
func (s *SessionData) Set(key string, value any) {
	s.values[key] = value
}
