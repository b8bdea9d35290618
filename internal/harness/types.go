package harness

// TraceEvent records one executed step and its observed outcome.
// Fields are kept primitive so the trace serializes deterministically.
type TraceEvent struct {
	Op     string         `json:"op"`
	Table  string         `json:"table"`
	ID     string         `json:"id,omitempty"`
	Target string         `json:"target,omitempty"` // "primary" or "mirror-N"
	Error  string         `json:"error,omitempty"`  // error kind when the op failed
	Count  *int64         `json:"count,omitempty"`
	Value  *float64       `json:"value,omitempty"`
	Found  *bool          `json:"found,omitempty"`
	Record map[string]any `json:"record,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	Pass   bool         `json:"pass"`
	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`
}

// NewResult creates an empty passing result.
func NewResult() *Result {
	return &Result{Pass: true, Trace: []TraceEvent{}}
}

// AddError records a step failure and marks the run as failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}
