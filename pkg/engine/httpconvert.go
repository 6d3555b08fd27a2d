package engine

import (
	"bytes"
	"io"
	"net/http"
	"os"

	"github.com/devproxy-io/devproxy/pkg/pipeline"
)

// bytesReader wraps body as an io.Reader suitable for http.NewRequestWithContext,
// returning nil for an empty body so the outgoing request carries no
// Content-Length/body at all (matching a GET with no body).
func bytesReader(body []byte) io.Reader {
	if len(body) == 0 {
		return nil
	}
	return bytes.NewReader(body)
}

// requestURL resolves the URL a RequestEvent should carry for an incoming
// *http.Request. When the proxy is used in explicit-proxy mode the client
// sends an absolute-form request line and r.URL is already absolute;
// otherwise it is completed from the Host header, matching how a
// transparent forward proxy sees traffic (§3 control flow: "the external
// proxy runtime delivers a request event").
func requestURL(r *http.Request) string {
	if r.URL.IsAbs() {
		return r.URL.String()
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host
	if host == "" {
		host = r.URL.Host
	}
	return scheme + "://" + host + r.URL.RequestURI()
}

// headersFromHTTP copies every header value (preserving repeated headers)
// from an http.Header into a pipeline.Headers collection.
func headersFromHTTP(h http.Header) *pipeline.Headers {
	out := pipeline.NewHeaders()
	for name, values := range h {
		for _, v := range values {
			out.Add(name, v)
		}
	}
	return out
}

// writeHeaders copies every field of h onto dst, used both for the
// synthetic-response write path and for relaying upstream response
// headers back to the client.
func writeHeaders(h *pipeline.Headers, dst http.Header) {
	for _, f := range h.List() {
		dst.Add(f.Name, f.Value)
	}
}

// eventFromRequest builds a RequestEvent from an incoming *http.Request,
// consuming and closing its body.
func eventFromRequest(r *http.Request, global *pipeline.GlobalData) (*pipeline.RequestEvent, error) {
	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(r.Body)
		_ = r.Body.Close()
		if err != nil {
			return nil, err
		}
	}
	return pipeline.NewRequestEvent(r.Method, requestURL(r), headersFromHTTP(r.Header), body, global), nil
}

// writeResponseSpec writes a pipeline.ResponseSpec to an http.ResponseWriter,
// resolving FilePath when set in place of the literal Body (§3
// ResponseSpec: the "@<relpath>" sentinel).
func writeResponseSpec(w http.ResponseWriter, resp *pipeline.ResponseSpec) error {
	writeHeaders(resp.Headers, w.Header())
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	if resp.FilePath != "" {
		f, err := os.Open(resp.FilePath)
		if err != nil {
			return err
		}
		defer f.Close()
		w.WriteHeader(status)
		_, err = io.Copy(w, f)
		return err
	}

	w.WriteHeader(status)
	_, err := w.Write(resp.Body)
	return err
}
