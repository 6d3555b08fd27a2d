package mockplugin

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// placeholderRe matches an "@request.body.<path>" token, either as the
// entire string value or embedded within a larger one (§4.7 "Placeholder
// substitution").
var placeholderRe = regexp.MustCompile(`@request\.body\.([A-Za-z0-9_.\[\]]+)`)

// substitutePlaceholders walks body's JSON tree and replaces every
// "@request.body.<path>" token with the value at <path> in requestBody
// (parsed once by the caller). A string value consisting of exactly one
// token is replaced node-for-node, so the result keeps the referenced
// value's native JSON type; a string containing a token alongside other
// content has the token replaced in place, coercing non-scalar
// replacements to their JSON text form.
func substitutePlaceholders(body json.RawMessage, requestBody any) json.RawMessage {
	if len(body) == 0 {
		return body
	}
	var tree any
	if err := json.Unmarshal(body, &tree); err != nil {
		// Not valid JSON (e.g. a bare file-backed sentinel string handled
		// upstream); return unchanged.
		return body
	}
	out := substituteNode(tree, requestBody)
	encoded, err := json.Marshal(out)
	if err != nil {
		return body
	}
	return encoded
}

func substituteNode(node any, requestBody any) any {
	switch v := node.(type) {
	case string:
		return substituteString(v, requestBody)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = substituteNode(val, requestBody)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = substituteNode(val, requestBody)
		}
		return out
	default:
		return v
	}
}

func substituteString(s string, requestBody any) any {
	matches := placeholderRe.FindStringSubmatchIndex(s)
	if matches == nil {
		return s
	}

	// Entire string is a single token: preserve the resolved value's type.
	if matches[0] == 0 && matches[1] == len(s) {
		path := s[matches[2]:matches[3]]
		if val, ok := resolvePath(requestBody, path); ok {
			return val
		}
		return s
	}

	// Mixed content: replace every token occurrence with its string form.
	return placeholderRe.ReplaceAllStringFunc(s, func(token string) string {
		path := placeholderRe.FindStringSubmatch(token)[1]
		val, ok := resolvePath(requestBody, path)
		if !ok {
			return token
		}
		return stringify(val)
	})
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// resolvePath walks a dotted path ("a.b.0.c") through a parsed JSON value,
// treating numeric segments as array indices.
func resolvePath(data any, path string) (any, bool) {
	if path == "" {
		return data, true
	}
	segments := strings.Split(path, ".")
	cur := data
	for _, seg := range segments {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}
