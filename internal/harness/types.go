package harness

import (
	"fmt"
	"strings"
)

// TraceEvent records one executed setup or flow step.
type TraceEvent struct {
	Seq     int    `json:"seq"`
	Action  string `json:"action"`
	Peer    string `json:"peer"`
	Outcome string `json:"outcome"`
}

func (e TraceEvent) String() string {
	return fmt.Sprintf("%02d %s %s: %s", e.Seq, e.Action, e.Peer, e.Outcome)
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step behaved as expected and every assertion
	// held.
	Pass bool `json:"pass"`

	Trace []TraceEvent `json:"trace"`

	// Errors is empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) record(action, peer, outcome string) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:     len(r.Trace) + 1,
		Action:  action,
		Peer:    peer,
		Outcome: outcome,
	})
}

// TraceText renders the trace one event per line.
func (r *Result) TraceText() string {
	var b strings.Builder
	for _, e := range r.Trace {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}
