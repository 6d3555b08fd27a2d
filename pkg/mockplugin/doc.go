// Package mockplugin implements the mock-response plugin (§4.7): matching
// incoming requests against a configured catalog of mocks by URL, method,
// body fragment and Nth occurrence, then emitting a per-request clone of the
// matched mock's response with placeholder substitution applied.
package mockplugin
