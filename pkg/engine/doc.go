// Package engine is the forward-proxy runtime that drives the plugin
// pipeline over real HTTP traffic: it converts an incoming *http.Request
// into a pipeline.RequestEvent, walks the dispatcher's lifecycle hooks, and
// either answers synthetically or forwards to the upstream host and walks
// BeforeResponse on the real reply.
//
// This is the external runtime spec.md deliberately leaves out of scope —
// spec.md describes the plugin contract and dispatch order, not how bytes
// arrive on a socket. engine supplies that missing half, in the teacher's
// Server/NewServer/Start/Stop idiom (pkg/engine/server.go).
package engine
