package harness

import (
	"time"

	"github.com/roach88/crosscheck/internal/args"
	"github.com/roach88/crosscheck/internal/compare"
)

// Step names recorded in a result's trace.
const (
	StepGenerate  = "generate"
	StepSUT       = "sut"
	StepReference = "reference"
	StepCompare   = "compare"
)

// Status values of a finished case.
const (
	StatusPass  = "pass"
	StatusFail  = "fail"
	StatusSkip  = "skip"
	StatusError = "error"
)

// TraceEvent records one step the harness carried out for a case.
type TraceEvent struct {
	Step string   `json:"step"`
	Args []string `json:"args,omitempty"`
	Path string   `json:"path,omitempty"`
	Seq  int      `json:"seq"`
}

// Result is the outcome of one case.
type Result struct {
	Case Case `json:"case"`

	// Pass is true when both results agreed within tolerance.
	Pass bool `json:"pass"`

	// Skipped is true when the skip policy excluded the case. Nothing was
	// written or executed.
	Skipped bool `json:"skipped,omitempty"`

	// Args holds both projected argument sets.
	Args args.Pair `json:"args"`

	// Trace lists the steps carried out, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains mismatch and failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Mismatch is the first disagreeing cell, if any.
	Mismatch *compare.MismatchError `json:"-"`

	// MaxAbsDiff is the largest cell difference observed.
	MaxAbsDiff float64 `json:"max_abs_diff"`

	// Seed is the generator seed, 0 when inputs were not generated.
	Seed int64 `json:"seed,omitempty"`

	Duration time.Duration `json:"duration"`

	// Err is set by RunSuite when the case could not be carried out.
	Err error `json:"-"`
}

// NewResult creates a new passing result for c.
func NewResult(c Case) *Result {
	return &Result{
		Case:   c,
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep appends a step to the trace.
func (r *Result) AddStep(step string, argv []string, path string) {
	r.Trace = append(r.Trace, TraceEvent{
		Step: step,
		Args: argv,
		Path: path,
		Seq:  len(r.Trace) + 1,
	})
}

// Status summarizes the result as pass, fail, skip or error.
func (r *Result) Status() string {
	switch {
	case r.Err != nil:
		return StatusError
	case r.Skipped:
		return StatusSkip
	case r.Pass:
		return StatusPass
	default:
		return StatusFail
	}
}

// Detail is the first error message, or "".
func (r *Result) Detail() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	if len(r.Errors) > 0 {
		return r.Errors[0]
	}
	return ""
}
