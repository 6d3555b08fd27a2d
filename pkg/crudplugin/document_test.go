package crudplugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDoc() *Document {
	return NewDocument([]any{
		map[string]any{"id": "1", "name": "ada", "meta": map[string]any{"active": true}},
		map[string]any{"id": "2", "name": "grace"},
	})
}

func TestDocumentCreateAppends(t *testing.T) {
	d := NewDocument(nil)
	d.Create(map[string]any{"id": "1"})
	assert.Len(t, d.GetAll(), 1)
}

func TestDocumentGetOneByID(t *testing.T) {
	d := sampleDoc()
	val, ok, err := d.GetOne(`$[?(@.id=='{id}')]`, map[string]string{"id": "2"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "grace", val.(map[string]any)["name"])
}

func TestDocumentGetOneNotFound(t *testing.T) {
	d := sampleDoc()
	_, ok, err := d.GetOne(`$[?(@.id=='{id}')]`, map[string]string{"id": "999"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDocumentGetManyReturnsAllMatches(t *testing.T) {
	d := sampleDoc()
	vals, err := d.GetMany(`$[*]`, nil)
	require.NoError(t, err)
	assert.Len(t, vals, 2)
}

func TestDocumentUpdateReplacesToken(t *testing.T) {
	d := sampleDoc()
	ok, err := d.Update(`$[?(@.id=='{id}')]`, map[string]string{"id": "1"}, map[string]any{"id": "1", "name": "ada lovelace"})
	require.NoError(t, err)
	require.True(t, ok)

	val, _, _ := d.GetOne(`$[?(@.id=='{id}')]`, map[string]string{"id": "1"})
	assert.Equal(t, "ada lovelace", val.(map[string]any)["name"])
}

func TestDocumentUpdateNotFound(t *testing.T) {
	d := sampleDoc()
	ok, err := d.Update(`$[?(@.id=='{id}')]`, map[string]string{"id": "999"}, map[string]any{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDocumentMergeDeepMerges(t *testing.T) {
	d := sampleDoc()
	ok, err := d.Merge(`$[?(@.id=='{id}')]`, map[string]string{"id": "1"}, map[string]any{"meta": map[string]any{"verified": true}})
	require.NoError(t, err)
	require.True(t, ok)

	val, _, _ := d.GetOne(`$[?(@.id=='{id}')]`, map[string]string{"id": "1"})
	meta := val.(map[string]any)["meta"].(map[string]any)
	assert.Equal(t, true, meta["active"])
	assert.Equal(t, true, meta["verified"])
}

func TestDocumentDeleteRemovesToken(t *testing.T) {
	d := sampleDoc()
	ok, err := d.Delete(`$[?(@.id=='{id}')]`, map[string]string{"id": "1"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, d.GetAll(), 1)
}

func TestDeepMergeOverwritesScalarsAndNonMapTypes(t *testing.T) {
	got := deepMerge(map[string]any{"a": 1, "b": "x"}, map[string]any{"b": "y", "c": 3})
	m := got.(map[string]any)
	assert.Equal(t, 1, m["a"])
	assert.Equal(t, "y", m["b"])
	assert.Equal(t, 3, m["c"])
}
