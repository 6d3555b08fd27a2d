// Package authplugin implements the API-key and OAuth2 auth plugin
// (§4.10): a single plugin with two mutually exclusive validation modes,
// gating every watched request before any other plugin runs.
package authplugin
