package mockplugin

import (
	"net/http"
	"strings"
	"sync"

	"github.com/devproxy-io/devproxy/pkg/urlwatch"
)

// find walks mocks in declared order and returns the first one that matches
// method/url/bodyFragment/nth (§4.7 steps 1-3, §3 AppliedMocks invariant).
// The URL-keyed counter in appliedMocks advances once per qualifying request
// per key — a request that matches method/url/bodyFragment for a key, whether
// or not it ends up selected — and the Nth check compares against that
// post-increment value, so a mock that is the lone entry for its key still
// fires on its k-th qualifying request. The second return value is false if
// nothing matched.
func find(mocks []Mock, appliedMocks *sync.Map, method, url, body string) (Mock, bool) {
	counted := make(map[string]int)
	for _, m := range mocks {
		if !methodMatches(m, method) {
			continue
		}
		if !urlwatch.MatchWildcard(m.Request.URL, url) {
			continue
		}
		if !bodyFragmentMatches(m, method, body) {
			continue
		}
		occurrence, ok := counted[m.key()]
		if !ok {
			occurrence = incrementApplied(appliedMocks, m.key())
			counted[m.key()] = occurrence
		}
		if m.Request.Nth != 0 && occurrence != m.Request.Nth {
			continue
		}
		return m, true
	}
	return Mock{}, false
}

func methodMatches(m Mock, method string) bool {
	if m.Request.Method == "" {
		return true
	}
	return strings.EqualFold(m.Request.Method, method)
}

// bodyFragmentMatches implements §4.7 step 2c: GET requests bypass the
// check entirely, an absent fragment always passes, otherwise the fragment
// must appear in the request body as a case-insensitive substring.
func bodyFragmentMatches(m Mock, method, body string) bool {
	if strings.EqualFold(method, http.MethodGet) {
		return true
	}
	if m.Request.BodyFragment == "" {
		return true
	}
	return strings.Contains(strings.ToLower(body), strings.ToLower(m.Request.BodyFragment))
}

// incrementApplied advances the counter for key and returns its new value.
func incrementApplied(appliedMocks *sync.Map, key string) int {
	for {
		v, _ := appliedMocks.LoadOrStore(key, 0)
		cur := v.(int)
		if appliedMocks.CompareAndSwap(key, cur, cur+1) {
			return cur + 1
		}
	}
}
