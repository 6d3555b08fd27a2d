package batch

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// SubRequest is one logical HTTP call packaged inside a batch envelope
// (§4.11).
type SubRequest struct {
	ID        string            `json:"id"`
	Method    string            `json:"method"`
	URL       string            `json:"url"`
	Body      json.RawMessage   `json:"body,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	DependsOn []string          `json:"dependsOn,omitempty"`
}

// Envelope is the vendor batch request shape: `{ requests: [...] }`.
type Envelope struct {
	Requests []SubRequest `json:"requests"`
}

// SubResponse is one sub-request's outcome inside a batch response envelope.
type SubResponse struct {
	ID      string            `json:"id"`
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    json.RawMessage   `json:"body,omitempty"`
}

// ResponseEnvelope is the vendor batch response shape: `{ responses: [...] }`.
type ResponseEnvelope struct {
	Responses []SubResponse `json:"responses"`
}

// Decode parses a batch request body. A malformed or non-batch body returns
// an error; callers treat that as "not a batch request" per §7 (log and
// pass through).
func Decode(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("batch: decode envelope: %w", err)
	}
	if env.Requests == nil {
		return Envelope{}, fmt.Errorf("batch: envelope has no requests field")
	}
	return env, nil
}

// Encode serializes a response envelope back to its vendor wire shape.
func Encode(resp ResponseEnvelope) ([]byte, error) {
	return json.Marshal(resp)
}

// ResolveURL resolves a sub-request's URL, which may be relative to a
// version prefix, against the host and path-prefix of the outer batch
// request's absolute URL (§4.11 "resolution uses the host and path-prefix
// of the outer request URL").
func ResolveURL(outerURL, subURL string) (string, error) {
	outer, err := url.Parse(outerURL)
	if err != nil {
		return "", fmt.Errorf("batch: parse outer url: %w", err)
	}
	sub, err := url.Parse(subURL)
	if err != nil {
		return "", fmt.Errorf("batch: parse sub url: %w", err)
	}
	if sub.IsAbs() {
		return sub.String(), nil
	}

	resolved := *outer
	resolved.RawQuery = sub.RawQuery
	resolved.Fragment = sub.Fragment
	resolved.Path = prefixOf(outer.Path) + strings.TrimPrefix(sub.Path, "/")
	return resolved.String(), nil
}

// prefixOf returns the path up to and including its final "/", the
// "path-prefix" a relative batch sub-request URL is resolved against.
func prefixOf(path string) string {
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[:idx+1]
	}
	return "/"
}
