package urlwatch

import (
	"regexp"
	"strings"
)

// Pattern is a single compiled watch-list entry.
type Pattern struct {
	Raw     string
	Exclude bool
	re      *regexp.Regexp
}

// Matcher decides whether a URL should be watched by the plugin pipeline.
// It is immutable once built and safe for concurrent use.
type Matcher struct {
	patterns []Pattern
}

// Compile translates a list of raw urlsToWatch entries into a Matcher.
// Entries beginning with "!" are exclude patterns; every other entry is an
// include pattern. An invalid pattern (one that fails to compile once its
// metacharacters are escaped) is skipped rather than returned as an error,
// matching the dispatcher's overall stance of never letting configuration
// quirks take down request processing.
func Compile(rawPatterns []string) *Matcher {
	m := &Matcher{}
	for _, raw := range rawPatterns {
		exclude := false
		pattern := raw
		if strings.HasPrefix(pattern, "!") {
			exclude = true
			pattern = pattern[1:]
		}
		re, err := compilePattern(pattern)
		if err != nil {
			continue
		}
		m.patterns = append(m.patterns, Pattern{Raw: raw, Exclude: exclude, re: re})
	}
	return m
}

// MatchWildcard reports whether candidate matches pattern, where pattern is
// either an exact string or contains "*" (translated the same way as a
// watch-list entry). Used by the mock-response plugin's URL matching (§4.7
// step 2b), which is a single pattern test rather than an include/exclude
// list.
func MatchWildcard(pattern, candidate string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == candidate
	}
	re, err := compilePattern(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(candidate)
}

// compilePattern escapes every regex metacharacter in pattern except "*",
// which becomes ".*", and anchors the result to a full-string match.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		if r == '*' {
			b.WriteString(".*")
			continue
		}
		b.WriteString(regexp.QuoteMeta(string(r)))
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// IsWatched reports whether url should be processed by the plugin pipeline:
// true iff at least one non-exclude pattern matches and no exclude pattern
// matches. An empty watch list watches nothing.
func (m *Matcher) IsWatched(url string) bool {
	if m == nil || len(m.patterns) == 0 {
		return false
	}

	matched := false
	for _, p := range m.patterns {
		if !p.re.MatchString(url) {
			continue
		}
		if p.Exclude {
			return false
		}
		matched = true
	}
	return matched
}

// Patterns returns the raw pattern strings the matcher was compiled from, in
// the order they were supplied.
func (m *Matcher) Patterns() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.patterns))
	for i, p := range m.patterns {
		out[i] = p.Raw
	}
	return out
}

// SuggestWildcard computes a reporting-friendly wildcard suggestion for a
// URL: the longest prefix ending at "/" followed by "*". Used by reporting
// tools (out of core scope) to propose a watch pattern covering a URL that
// was observed but not watched.
func SuggestWildcard(url string) string {
	idx := strings.LastIndex(url, "/")
	if idx < 0 {
		return url + "*"
	}
	return url[:idx+1] + "*"
}
