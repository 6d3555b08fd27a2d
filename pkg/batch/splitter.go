package batch

import (
	"github.com/devproxy-io/devproxy/pkg/pipeline"
	"github.com/devproxy-io/devproxy/pkg/urlwatch"
)

// Splitter returns a chaos.BatchSplitter bound to urlPattern: it reports the
// sub-request count of any watched request whose URL matches the batch
// pattern, letting the random-error plugin draw independently per
// sub-request (§4.4 step 3) for callers that wire random-error directly
// instead of through this package's own composing Plugin.
func Splitter(urlPattern string) func(ev *pipeline.RequestEvent) (int, bool) {
	return func(ev *pipeline.RequestEvent) (int, bool) {
		env, ok := matchAndDecode(urlPattern, ev)
		if !ok {
			return 0, false
		}
		return len(env.Requests), true
	}
}

func matchAndDecode(urlPattern string, ev *pipeline.RequestEvent) (Envelope, bool) {
	if !urlwatch.MatchWildcard(urlPattern, ev.URL) {
		return Envelope{}, false
	}
	env, err := Decode(ev.Body())
	if err != nil {
		return Envelope{}, false
	}
	return env, true
}
