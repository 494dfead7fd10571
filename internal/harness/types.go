package harness

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq int64  `json:"seq"`
	Op  string `json:"op"`

	// Graph is the graph the step addressed, if any.
	Graph string `json:"graph,omitempty"`

	// Outcome is "ok" or "error".
	Outcome string `json:"outcome"`

	// Result holds a query answer: a bool for ASK, sorted rows for SELECT,
	// sorted triples for CONSTRUCT.
	Result any `json:"result,omitempty"`
}

// Outcome values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace contains every executed step in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Dump is the final store as sorted N-Quads lines.
	Dump []string `json:"dump"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Dump:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step event.
func (r *Result) AddTrace(e TraceEvent) {
	r.Trace = append(r.Trace, e)
}
