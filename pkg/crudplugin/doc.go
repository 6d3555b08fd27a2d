// Package crudplugin implements the CRUD-API plugin (§4.8): route
// templates matched against the request URL and method, dispatched onto
// in-memory JSON document operations addressed by JSONPath, with optional
// OIDC bearer-token authorization and CORS preflight handling.
package crudplugin
