package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/crosscheck/internal/caseid"
	"github.com/roach88/crosscheck/internal/harness"
	"github.com/roach88/crosscheck/internal/model"
)

// ErrRunNotFound is returned for operations on a run ID the ledger does not
// hold.
var ErrRunNotFound = errors.New("run not found")

// BeginRun inserts a new unfinished run and returns it.
func (s *Store) BeginRun(ctx context.Context, suite string, variant model.Variant, seed int64) (Run, error) {
	run := Run{
		ID:        s.newID(),
		Suite:     suite,
		Variant:   variant,
		Seed:      seed,
		StartedAt: s.now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, suite, variant, seed, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.Suite, string(run.Variant), run.Seed, formatTime(run.StartedAt))
	if err != nil {
		return Run{}, fmt.Errorf("begin run: %w", err)
	}
	return run, nil
}

// RecordCase appends a finished case to a run. Its seq is one past the
// run's last recorded case.
func (s *Store) RecordCase(ctx context.Context, runID string, r *harness.Result) error {
	key, err := caseid.Key(r.Case)
	if err != nil {
		return fmt.Errorf("record case: %w", err)
	}
	orderJSON, err := marshalOrder(r.Case)
	if err != nil {
		return fmt.Errorf("record case: %w", err)
	}
	status := r.Status()
	diff := nullableDiff(r.MaxAbsDiff)
	if status == harness.StatusSkip || status == harness.StatusError {
		diff.Valid = false
	}

	// seq is assigned inside the INSERT; no read-then-write window.
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO case_results
		(run_id, seq, case_key, case_name, dialect, order_json, status, max_abs_diff, detail)
		SELECT r.id,
		       COALESCE((SELECT MAX(seq) FROM case_results WHERE run_id = r.id), 0) + 1,
		       ?, ?, ?, ?, ?, ?, ?
		FROM runs r
		WHERE r.id = ?
	`,
		key,
		r.Case.Name,
		string(r.Case.Dialect),
		orderJSON,
		status,
		diff,
		r.Detail(),
		runID,
	)
	if err != nil {
		return fmt.Errorf("record case: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record case: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("record case: %w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// FinishRun stamps the run's finish time and status counts.
func (s *Store) FinishRun(ctx context.Context, runID string, sum harness.Summary) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, passed = ?, failed = ?, skipped = ?, errored = ?
		WHERE id = ?
	`, formatTime(s.now()), sum.Passed, sum.Failed, sum.Skipped, sum.Errored, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run: %w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// RunRecorder records a suite's results into one run.
type RunRecorder struct {
	store *Store
	runID string
}

// Recorder returns a harness.Recorder appending to runID.
func (s *Store) Recorder(runID string) *RunRecorder {
	return &RunRecorder{store: s, runID: runID}
}

// RecordCase implements harness.Recorder.
func (r *RunRecorder) RecordCase(ctx context.Context, result *harness.Result) error {
	return r.store.RecordCase(ctx, r.runID, result)
}

// RunID returns the run the recorder appends to.
func (r *RunRecorder) RunID() string {
	return r.runID
}

var _ harness.Recorder = (*RunRecorder)(nil)
