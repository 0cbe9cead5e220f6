package harness

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Recorder persists finished results. Implementations must be safe for
// concurrent use when RunSuite runs in parallel.
type Recorder interface {
	RecordCase(ctx context.Context, r *Result) error
}

// RunSuite runs cases with at most parallel of them in flight; parallel
// below 1 runs them one at a time. A case that errors is recorded as such
// and does not stop its siblings. Results are in the order of cases.
//
// The returned error is non-nil only when the recorder failed.
func (h *Harness) RunSuite(ctx context.Context, cases []Case, parallel int) ([]*Result, error) {
	if parallel < 1 {
		parallel = 1
	}

	results := make([]*Result, len(cases))
	recordErrs := make([]error, len(cases))

	var g errgroup.Group
	g.SetLimit(parallel)
	for i, c := range cases {
		i, c := i, c
		g.Go(func() error {
			r, err := h.Run(ctx, c)
			if err != nil {
				h.logger.Error("case failed",
					zap.String("suite", c.Suite),
					zap.String("case", c.Name),
					zap.String("dialect", string(c.Dialect)),
					zap.Error(err),
				)
				r = NewResult(c)
				r.Pass = false
				r.Err = err
			}
			results[i] = r

			if h.recorder != nil {
				if err := h.recorder.RecordCase(ctx, r); err != nil {
					recordErrs[i] = fmt.Errorf("record %s: %w", c, err)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	return results, errors.Join(recordErrs...)
}

// Summary counts results by status.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Errored int `json:"errored"`
}

// OK is true when nothing failed or errored.
func (s Summary) OK() bool {
	return s.Failed == 0 && s.Errored == 0
}

// Summarize counts results by status.
func Summarize(results []*Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status() {
		case StatusPass:
			s.Passed++
		case StatusFail:
			s.Failed++
		case StatusSkip:
			s.Skipped++
		case StatusError:
			s.Errored++
		}
	}
	return s
}
