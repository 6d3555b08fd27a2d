package crudplugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterCapturesParams(t *testing.T) {
	router := NewRouter("https://api.example.com", []Action{
		{Op: OpGetOne, Method: "GET", URLTemplate: "/users/{id}"},
	})

	action, params, ok := router.Match("GET", "https://api.example.com/users/42")
	require.True(t, ok)
	assert.Equal(t, OpGetOne, action.Op)
	assert.Equal(t, "42", params["id"])
}

func TestRouterDashInParamName(t *testing.T) {
	router := NewRouter("https://api.example.com", []Action{
		{Op: OpGetOne, Method: "GET", URLTemplate: "/orgs/{org-id}/repos/{repo-id}"},
	})

	_, params, ok := router.Match("GET", "https://api.example.com/orgs/acme/repos/widgets")
	require.True(t, ok)
	assert.Equal(t, "acme", params["org-id"])
	assert.Equal(t, "widgets", params["repo-id"])
}

func TestRouterMethodMismatch(t *testing.T) {
	router := NewRouter("https://api.example.com", []Action{
		{Method: "POST", URLTemplate: "/users"},
	})
	_, _, ok := router.Match("GET", "https://api.example.com/users")
	assert.False(t, ok)
}

func TestRouterParamsURLDecoded(t *testing.T) {
	router := NewRouter("https://api.example.com", []Action{
		{Op: OpGetOne, Method: "GET", URLTemplate: "/search/{term}"},
	})
	_, params, ok := router.Match("GET", "https://api.example.com/search/hello%20world")
	require.True(t, ok)
	assert.Equal(t, "hello world", params["term"])
}

func TestCollapseSlashes(t *testing.T) {
	got := collapseSlashes("/users//1")
	assert.Equal(t, "/users/1", got)
}

func TestRouterFirstMatchWins(t *testing.T) {
	router := NewRouter("https://api.example.com", []Action{
		{Op: OpGetAll, Method: "GET", URLTemplate: "/users"},
		{Op: OpGetOne, Method: "GET", URLTemplate: "/users"},
	})
	action, _, ok := router.Match("GET", "https://api.example.com/users")
	require.True(t, ok)
	assert.Equal(t, OpGetAll, action.Op)
}

func TestRouterAllowedMethods(t *testing.T) {
	router := NewRouter("https://api.example.com", []Action{
		{Method: "GET", URLTemplate: "/users"},
		{Method: "POST", URLTemplate: "/users"},
		{Method: "GET", URLTemplate: "/users/{id}"},
	})
	methods := router.AllowedMethods()
	assert.ElementsMatch(t, []string{"GET", "POST"}, methods)
}

func TestRouterUnmatchedPath(t *testing.T) {
	router := NewRouter("https://api.example.com", []Action{
		{Method: "GET", URLTemplate: "/users"},
	})
	_, _, ok := router.Match("GET", "https://api.example.com/unknown")
	assert.False(t, ok)
}
