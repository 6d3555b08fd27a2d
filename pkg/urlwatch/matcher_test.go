package urlwatch

import "testing"

func TestIsWatched(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		url      string
		want     bool
	}{
		{"empty list watches nothing", nil, "https://api.example.com/x", false},
		{"simple include match", []string{"https://api.example.com/*"}, "https://api.example.com/users", true},
		{"no include match", []string{"https://api.example.com/*"}, "https://other.example.com/users", false},
		{"exclude wins over include", []string{"https://api.example.com/*", "!https://api.example.com/health"}, "https://api.example.com/health", false},
		{"exclude does not affect other urls", []string{"https://api.example.com/*", "!https://api.example.com/health"}, "https://api.example.com/users", true},
		{"wildcard matches across slashes", []string{"https://api.example.com/*/items"}, "https://api.example.com/a/b/items", true},
		{"exact match with no wildcard", []string{"https://api.example.com/users"}, "https://api.example.com/users", true},
		{"exact pattern does not match suffix", []string{"https://api.example.com/users"}, "https://api.example.com/users/1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Compile(tt.patterns)
			if got := m.IsWatched(tt.url); got != tt.want {
				t.Errorf("IsWatched(%q) with patterns %v = %v, want %v", tt.url, tt.patterns, got, tt.want)
			}
		})
	}
}

func TestCompileIdempotent(t *testing.T) {
	patterns := []string{"https://api.example.com/*", "!https://api.example.com/internal/*"}
	m1 := Compile(patterns)
	m2 := Compile(patterns)

	urls := []string{
		"https://api.example.com/users",
		"https://api.example.com/internal/debug",
		"https://other.example.com/x",
	}
	for _, u := range urls {
		if m1.IsWatched(u) != m2.IsWatched(u) {
			t.Errorf("compiling the same patterns twice produced different matchers for %q", u)
		}
	}
}

func TestMetacharacterPatternMatchesLiterally(t *testing.T) {
	// Every character is escaped except '*', so there is no way to produce
	// an invalid regex from user input; this just documents that a
	// pathological pattern never panics Compile.
	m := Compile([]string{"(unbalanced"})
	if m.IsWatched("(unbalanced") == false {
		// '(' and ')' are escaped via QuoteMeta, so this is a legitimate exact match.
		t.Fatalf("expected literal paren pattern to match itself")
	}
}

func TestSuggestWildcard(t *testing.T) {
	cases := map[string]string{
		"https://api.example.com/users/123": "https://api.example.com/users/*",
		"https://api.example.com/":          "https://api.example.com/*",
		"no-slash-here":                     "no-slash-here*",
	}
	for in, want := range cases {
		if got := SuggestWildcard(in); got != want {
			t.Errorf("SuggestWildcard(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMatchWildcard(t *testing.T) {
	tests := []struct {
		pattern, candidate string
		want               bool
	}{
		{"https://api.example.com/users", "https://api.example.com/users", true},
		{"https://api.example.com/users", "https://api.example.com/users/1", false},
		{"https://api.example.com/users/*", "https://api.example.com/users/1", true},
		{"https://api.example.com/*/items", "https://api.example.com/a/items", true},
	}
	for _, tt := range tests {
		if got := MatchWildcard(tt.pattern, tt.candidate); got != tt.want {
			t.Errorf("MatchWildcard(%q, %q) = %v, want %v", tt.pattern, tt.candidate, got, tt.want)
		}
	}
}

func TestPatterns(t *testing.T) {
	raw := []string{"https://api.example.com/*", "!https://api.example.com/internal/*"}
	m := Compile(raw)
	got := m.Patterns()
	if len(got) != 2 || got[0] != raw[0] || got[1] != raw[1] {
		t.Errorf("Patterns() = %v, want %v", got, raw)
	}
}
