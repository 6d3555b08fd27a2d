package audit

import "time"

// Decision enumerates the three outcomes a plugin can record for a single
// request, matching §4.2's invocation rules: a plugin either declines to
// run (Skip), answers synthetically (Match), or only adds headers to a
// response another plugin already set (Mutate).
type Decision string

const (
	DecisionSkip   Decision = "skip"
	DecisionMatch  Decision = "match"
	DecisionMutate Decision = "mutate"
)

// Entry is a single audit record: one plugin's decision for one request.
type Entry struct {
	// Sequence is a monotonically increasing number assigned by the
	// logger, used to recover wall-clock order across entries written
	// concurrently from different request goroutines.
	Sequence int64 `json:"sequence"`

	Timestamp time.Time `json:"timestamp"`
	Plugin    string    `json:"plugin"`
	Decision  Decision  `json:"decision"`
	Method    string    `json:"method"`
	URL       string    `json:"url"`
	// Reason explains a Skip (e.g. "response already set", "url not
	// watched") or summarizes a Match/Mutate (e.g. "429 drawn").
	Reason string `json:"reason,omitempty"`
	Status int    `json:"status,omitempty"`
}

// NewEntry builds an Entry stamped with the current time; Sequence is
// assigned by the Logger on Log.
func NewEntry(plugin string, decision Decision, method, url, reason string) Entry {
	return Entry{
		Timestamp: time.Now(),
		Plugin:    plugin,
		Decision:  decision,
		Method:    method,
		URL:       url,
		Reason:    reason,
	}
}

// WithStatus attaches the status code a Match/Mutate decision produced.
func (e Entry) WithStatus(status int) Entry {
	e.Status = status
	return e
}
