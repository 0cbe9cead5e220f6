package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/roach88/crosscheck/internal/harness"
	"github.com/roach88/crosscheck/internal/model"
)

// Run is one ledger run.
type Run struct {
	ID         string        `json:"id"`
	Suite      string        `json:"suite"`
	Variant    model.Variant `json:"variant"`
	Seed       int64         `json:"seed"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at,omitzero"`
	Passed     int           `json:"passed"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Errored    int           `json:"errored"`
}

// Finished reports whether FinishRun was called for the run.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// Summary returns the run's counts as a harness summary.
func (r Run) Summary() harness.Summary {
	return harness.Summary{
		Total:   r.Passed + r.Failed + r.Skipped + r.Errored,
		Passed:  r.Passed,
		Failed:  r.Failed,
		Skipped: r.Skipped,
		Errored: r.Errored,
	}
}

// CaseRecord is one recorded case result.
type CaseRecord struct {
	RunID   string      `json:"run_id"`
	Seq     int         `json:"seq"`
	Key     string      `json:"case_key"`
	Name    string      `json:"case"`
	Dialect string      `json:"dialect"`
	Order   model.Order `json:"order"`
	Status  string      `json:"status"`

	// MaxAbsDiff is NaN when no comparison produced a finite difference.
	MaxAbsDiff float64 `json:"-"`
	Detail     string  `json:"detail,omitempty"`
}

const runColumns = `id, suite, variant, seed, started_at, finished_at, passed, failed, skipped, errored`

// ReadRun returns one run, or ErrRunNotFound.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run: %w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY started_at DESC, id COLLATE BINARY DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadCases returns a run's case results in recording order.
// Returns an empty slice (not nil) if the run has none.
func (s *Store) ReadCases(ctx context.Context, runID string) ([]CaseRecord, error) {
	return s.queryCases(ctx, `
		SELECT run_id, seq, case_key, case_name, dialect, order_json, status, max_abs_diff, detail
		FROM case_results
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
}

// CaseHistory returns every recorded result for a case key, oldest run
// first.
func (s *Store) CaseHistory(ctx context.Context, key string) ([]CaseRecord, error) {
	return s.queryCases(ctx, `
		SELECT c.run_id, c.seq, c.case_key, c.case_name, c.dialect, c.order_json, c.status, c.max_abs_diff, c.detail
		FROM case_results c
		JOIN runs r ON r.id = c.run_id
		WHERE c.case_key = ?
		ORDER BY r.started_at ASC, r.id COLLATE BINARY ASC, c.seq ASC
	`, key)
}

func (s *Store) queryCases(ctx context.Context, query string, arg string) ([]CaseRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	records := []CaseRecord{}
	for rows.Next() {
		rec, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run      Run
		variant  string
		started  string
		finished sql.NullString
	)
	err := row.Scan(&run.ID, &run.Suite, &variant, &run.Seed, &started, &finished,
		&run.Passed, &run.Failed, &run.Skipped, &run.Errored)
	if err != nil {
		return Run{}, err
	}
	run.Variant = model.Variant(variant)
	if run.StartedAt, err = parseTime(started); err != nil {
		return Run{}, fmt.Errorf("scan run %s: %w", run.ID, err)
	}
	if finished.Valid {
		if run.FinishedAt, err = parseTime(finished.String); err != nil {
			return Run{}, fmt.Errorf("scan run %s: %w", run.ID, err)
		}
	}
	return run, nil
}

func scanCase(row scanner) (CaseRecord, error) {
	var (
		rec       CaseRecord
		orderJSON string
		diff      sql.NullFloat64
	)
	err := row.Scan(&rec.RunID, &rec.Seq, &rec.Key, &rec.Name, &rec.Dialect,
		&orderJSON, &rec.Status, &diff, &rec.Detail)
	if err != nil {
		return CaseRecord{}, fmt.Errorf("scan case: %w", err)
	}
	if rec.Order, err = unmarshalOrder(orderJSON); err != nil {
		return CaseRecord{}, fmt.Errorf("scan case %s: %w", rec.Name, err)
	}
	rec.MaxAbsDiff = math.NaN()
	if diff.Valid {
		rec.MaxAbsDiff = diff.Float64
	}
	return rec, nil
}
