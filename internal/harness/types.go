package harness

import (
	"github.com/roach88/featsynth/internal/entity"
	"github.com/roach88/featsynth/internal/ir"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if every expectation matched.
	Pass bool `json:"pass"`

	RunID string `json:"run_id"`

	// Tables holds the merged output tables in plan order. Empty when the
	// run failed.
	Tables []*ir.Table `json:"-"`

	Integrity []entity.Integrity `json:"integrity,omitempty"`

	// Err is the fatal pipeline error, if the run failed.
	Err error `json:"-"`

	// Errors contains expectation failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Table returns the output table with the given plan name.
func (r *Result) Table(name string) (*ir.Table, bool) {
	for _, t := range r.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}
