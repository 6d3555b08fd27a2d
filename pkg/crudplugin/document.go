package crudplugin

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ohler55/ojg/jp"
)

// Document is the in-memory JSON array the CRUD plugin operates on (§3
// CrudDocument). Ownership is exclusive to one plugin instance; every
// operation takes the single mutex, since concurrent requests may target
// the same document (§5).
type Document struct {
	mu   sync.Mutex
	data []any
}

// NewDocument wraps an already-parsed JSON array (typically loaded from a
// file by the config layer) as a CRUD document.
func NewDocument(initial []any) *Document {
	if initial == nil {
		initial = []any{}
	}
	return &Document{data: initial}
}

// substituteParams replaces every "{name}" token in query with the
// corresponding captured route parameter, matching §4.8's "JSONPath with
// {param} substitution".
func substituteParams(query string, params map[string]string) string {
	for name, value := range params {
		query = strings.ReplaceAll(query, "{"+name+"}", value)
	}
	return query
}

// Create appends body to the document array (§4.8 create -> 201).
func (d *Document) Create(body any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data = append(d.data, body)
}

// GetAll returns the full array (§4.8 getAll -> 200).
func (d *Document) GetAll() []any {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]any, len(d.data))
	copy(out, d.data)
	return out
}

// GetOne selects the first token matching query; ok is false if none match
// (§4.8 getOne -> 200/404).
func (d *Document) GetOne(query string, params map[string]string) (any, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	expr, err := jp.ParseString(substituteParams(query, params))
	if err != nil {
		return nil, false, fmt.Errorf("crudplugin: invalid jsonpath %q: %w", query, err)
	}
	results := expr.Get(d.data)
	if len(results) == 0 {
		return nil, false, nil
	}
	return results[0], true, nil
}

// GetMany selects every token matching query, possibly empty (§4.8
// getMany -> 200).
func (d *Document) GetMany(query string, params map[string]string) ([]any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	expr, err := jp.ParseString(substituteParams(query, params))
	if err != nil {
		return nil, fmt.Errorf("crudplugin: invalid jsonpath %q: %w", query, err)
	}
	results := expr.Get(d.data)
	if results == nil {
		results = []any{}
	}
	return results, nil
}

// Merge deep-merges patch into the first token matching query; ok is false
// if nothing matched (§4.8 merge -> 204/404).
func (d *Document) Merge(query string, params map[string]string, patch any) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	expr, err := jp.ParseString(substituteParams(query, params))
	if err != nil {
		return false, fmt.Errorf("crudplugin: invalid jsonpath %q: %w", query, err)
	}
	results := expr.Get(d.data)
	if len(results) == 0 {
		return false, nil
	}
	merged := deepMerge(results[0], patch)
	if err := expr.SetOne(d.data, merged); err != nil {
		return false, fmt.Errorf("crudplugin: merge failed: %w", err)
	}
	return true, nil
}

// Update replaces the first token matching query with body; ok is false if
// nothing matched (§4.8 update -> 204/404).
func (d *Document) Update(query string, params map[string]string, body any) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	expr, err := jp.ParseString(substituteParams(query, params))
	if err != nil {
		return false, fmt.Errorf("crudplugin: invalid jsonpath %q: %w", query, err)
	}
	if len(expr.Get(d.data)) == 0 {
		return false, nil
	}
	if err := expr.SetOne(d.data, body); err != nil {
		return false, fmt.Errorf("crudplugin: update failed: %w", err)
	}
	return true, nil
}

// Delete removes the first token matching query; ok is false if nothing
// matched (§4.8 delete -> 204/404).
func (d *Document) Delete(query string, params map[string]string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	expr, err := jp.ParseString(substituteParams(query, params))
	if err != nil {
		return false, fmt.Errorf("crudplugin: invalid jsonpath %q: %w", query, err)
	}
	if len(expr.Get(d.data)) == 0 {
		return false, nil
	}
	if err := expr.DelOne(d.data); err != nil {
		return false, fmt.Errorf("crudplugin: delete failed: %w", err)
	}
	return true, nil
}

// deepMerge merges src into dst (§4.8 merge): matching map keys recurse,
// everything else (scalars, slices, type mismatches) is overwritten by src.
func deepMerge(dst, src any) any {
	dstMap, dstOK := dst.(map[string]any)
	srcMap, srcOK := src.(map[string]any)
	if !dstOK || !srcOK {
		return src
	}
	out := make(map[string]any, len(dstMap))
	for k, v := range dstMap {
		out[k] = v
	}
	for k, v := range srcMap {
		if existing, ok := out[k]; ok {
			out[k] = deepMerge(existing, v)
		} else {
			out[k] = v
		}
	}
	return out
}
