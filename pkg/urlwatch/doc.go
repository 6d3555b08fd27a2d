// Package urlwatch compiles the urlsToWatch include/exclude pattern list
// configured for the proxy into a matcher that decides, for a given request
// URL, whether any plugin should process it.
//
// Patterns support a single wildcard token, "*", which matches any sequence
// of characters including "/". A pattern prefixed with "!" is an exclude
// pattern. A URL is watched iff at least one include pattern matches and no
// exclude pattern matches; an empty watch list watches nothing.
package urlwatch
