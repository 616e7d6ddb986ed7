package harness

// Trace event types.
const (
	EventCreate = "create"
	EventGet    = "get"
	EventSet    = "set"
)

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq    int64  `json:"seq"`
	Type   string `json:"type"` // "create", "get" or "set"
	Record string `json:"record"`
	Model  string `json:"model,omitempty"`
	Op     string `json:"op,omitempty"`

	// Value is the setter input as given.
	Value *string `json:"value,omitempty"`

	// Result is the getter output ("nil" when absent).
	Result string `json:"result,omitempty"`

	// Raw is the stored integer after a setter ran. Nil when the field
	// holds no value.
	Raw *int64 `json:"raw,omitempty"`

	// Error is the error code the step failed with.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Trace contains every executed step in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
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

// AddEvent appends an event to the trace, numbering it.
func (r *Result) AddEvent(event TraceEvent) {
	event.Seq = int64(len(r.Trace) + 1)
	r.Trace = append(r.Trace, event)
}
