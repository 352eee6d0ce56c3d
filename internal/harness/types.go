package harness

import (
	"fmt"
	"strings"
)

// StepResult is the outcome of one flow step.
type StepResult struct {
	Index    int    `json:"index"`
	Op       string `json:"op"`
	Class    string `json:"class"`
	ID       string `json:"id,omitempty"`
	Property string `json:"property,omitempty"`

	// Output is the rendered result: JSON for documents and values,
	// "true"/"false" for exists, "not found" for a missing seek.
	Output string `json:"output,omitempty"`

	// ErrorCode is set when the step failed: the model error code, or the
	// error text for other failures.
	ErrorCode string `json:"error,omitempty"`
}

// Line renders the step for golden comparison.
func (s StepResult) Line() string {
	parts := []string{s.Op, s.Class}
	if s.ID != "" {
		parts = append(parts, s.ID)
	}
	if s.Property != "" {
		parts = append(parts, s.Property)
	}
	out := s.Output
	if s.ErrorCode != "" {
		out = "error " + s.ErrorCode
	}
	return fmt.Sprintf("%s => %s", strings.Join(parts, " "), out)
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expect clause matched.
	Pass bool `json:"pass"`

	// Steps holds one entry per flow step, in order.
	Steps []StepResult `json:"steps"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Snapshot renders every step line, newline terminated.
func (r *Result) Snapshot() []byte {
	var sb strings.Builder
	for _, s := range r.Steps {
		sb.WriteString(s.Line())
		sb.WriteByte('\n')
	}
	return []byte(sb.String())
}
