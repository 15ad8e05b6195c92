package harness

import (
	"github.com/roach88/editgrid/internal/grid"
	"github.com/roach88/editgrid/internal/screen"
	"github.com/roach88/editgrid/internal/trace"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step behaved as declared and every assertion
	// held.
	Pass bool `json:"pass"`

	// Events is the journal of the scenario session in seq order.
	Events []trace.Record `json:"events"`

	// Rows are the grid rows after the last step.
	Rows []grid.Record `json:"rows"`

	// Stored are the persisted rows after the last step.
	Stored []grid.Record `json:"stored"`

	// Notices are the notifications and dialogs shown during the run.
	Notices []screen.Notice `json:"notices,omitempty"`

	// Errors lists step and assertion failures.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Events: []trace.Record{}, Errors: []string{}}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
