package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/crosscheck/internal/catalog"
	"github.com/roach88/crosscheck/internal/config"
	"github.com/roach88/crosscheck/internal/executor"
	"github.com/roach88/crosscheck/internal/harness"
	"github.com/roach88/crosscheck/internal/matrix"
	"github.com/roach88/crosscheck/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	suiteFlags
}

// CaseReport is one case in the run output.
type CaseReport struct {
	ID         string   `json:"id"`
	Status     string   `json:"status"`
	Tolerance  float64  `json:"tolerance"`
	MaxAbsDiff *float64 `json:"max_abs_diff,omitempty"`
	Seed       int64    `json:"seed,omitempty"`
	Detail     string   `json:"detail,omitempty"`
	SUTArgs    []string `json:"sut_args,omitempty"`
	RefArgs    []string `json:"reference_args,omitempty"`
}

// RunReport is the output of the run command.
type RunReport struct {
	RunID   string          `json:"run_id,omitempty"`
	Suite   string          `json:"suite"`
	Variant string          `json:"variant"`
	Cases   []CaseReport    `json:"cases"`
	Summary harness.Summary `json:"summary"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a catalog against both implementations",
		Long: `Run every case of a catalog through the system under test and the
reference implementation, and compare their results.

Exit codes:
  0 - All cases passed or were skipped
  1 - One or more cases mismatched or errored
  2 - Command error (bad configuration, catalog, ledger, etc.)

Examples:
  crosscheck run --config crosscheck.yaml
  crosscheck run --variant css --dialect dml,pydml
  crosscheck run --catalog seasonal.yaml --filter "sarima_*" --parallel 4
  crosscheck run --seed 42 --keep --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSuite(opts, cmd)
		},
	}

	opts.register(cmd)
	cmd.Flags().Int("parallel", 1, "cases in flight at once")
	cmd.Flags().Int64("seed", 0, "input generator seed (0 seeds from the clock)")
	cmd.Flags().Bool("keep", false, "keep the workspace of passing cases")
	cmd.Flags().String("db", "", "run ledger database")
	cmd.Flags().String("workspace", "", "workspace root")
	cmd.Flags().String("fixed-input", "", "predefined training series")
	cmd.Flags().Float64("tolerance", 0, "absolute tolerance override (0 keeps the variant default)")

	return cmd
}

var runBindings = map[string]string{
	"parallel":       "parallel",
	"seed":           "seed",
	"keep_artifacts": "keep",
	"database":       "db",
	"workspace":      "workspace",
	"fixed_input":    "fixed-input",
	"tolerance":      "tolerance",
}

func runSuite(opts *RunOptions, cmd *cobra.Command) error {
	bindings := maps.Clone(runBindings)
	maps.Copy(bindings, suiteBindings)
	cfg, err := opts.loadConfig(cmd, true, bindings)
	if err != nil {
		return err
	}

	log, err := opts.logger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	suite, err := opts.resolveSuite(cfg)
	if err != nil {
		return err
	}
	cases := suite.Cases()
	if cfg.Tolerance > 0 {
		for i := range cases {
			cases[i].Tolerance = cfg.Tolerance
		}
	}

	h, st, runID, err := buildHarness(opts, cfg, suite, log)
	if err != nil {
		return err
	}
	if st != nil {
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				log.Error("error closing run ledger", zap.Error(closeErr))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("suite starting",
		zap.String("suite", suite.Name),
		zap.String("variant", string(suite.Variant)),
		zap.Int("cases", len(cases)),
		zap.Int("parallel", cfg.Parallel),
	)
	results, recordErr := h.RunSuite(ctx, cases, cfg.Parallel)
	summary := harness.Summarize(results)

	if st != nil {
		// The suite context may be cancelled by now; the run still gets closed.
		if err := st.FinishRun(context.WithoutCancel(ctx), runID, summary); err != nil {
			recordErr = errors.Join(recordErr, err)
		}
	}

	report := RunReport{
		RunID:   runID,
		Suite:   suite.Name,
		Variant: string(suite.Variant),
		Cases:   make([]CaseReport, 0, len(results)),
		Summary: summary,
	}
	for _, r := range results {
		report.Cases = append(report.Cases, caseReport(r))
	}

	if recordErr != nil {
		return WrapExitError(ExitCommandError, "failed to record results", recordErr).WithCode(CodeLedger)
	}

	f := opts.formatter(cmd)
	text := func(w io.Writer) { writeRunText(w, report, results, opts.Verbose) }
	if !summary.OK() {
		msg := fmt.Sprintf("%d case(s) failed, %d errored", summary.Failed, summary.Errored)
		if err := f.Fail(CodeMismatch, msg, report, text); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}
	return f.Emit(report, text)
}

// buildHarness wires executors, readers, the skip policy and, when a
// database is configured, the run ledger.
func buildHarness(opts *RunOptions, cfg *config.Config, suite catalog.Suite, log *zap.Logger) (*harness.Harness, *store.Store, string, error) {
	sut, ref := newExecutors(opts.RootOptions, cfg, log)

	hcfg := harness.Config{
		SUT:           sut,
		Reference:     ref,
		Workspace:     harness.Workspace{Root: cfg.Workspace},
		FixedInput:    cfg.FixedInput,
		Seed:          cfg.Seed,
		Skip:          skipPolicy(cfg.Skip),
		KeepArtifacts: cfg.KeepArtifacts,
		Logger:        log,
	}
	var err error
	if cfg.SUT.Format != "" {
		if hcfg.SUTReader, err = matrix.ReaderFor(cfg.SUT.Format); err != nil {
			return nil, nil, "", WrapExitError(ExitCommandError, "invalid sut.format", err).WithCode(CodeConfig)
		}
	}
	if cfg.Reference.Format != "" {
		if hcfg.ReferenceReader, err = matrix.ReaderFor(cfg.Reference.Format); err != nil {
			return nil, nil, "", WrapExitError(ExitCommandError, "invalid reference.format", err).WithCode(CodeConfig)
		}
	}

	var (
		st    *store.Store
		runID string
	)
	if cfg.Database != "" {
		if st, err = opts.openStore(cfg.Database); err != nil {
			return nil, nil, "", err
		}
		run, err := st.BeginRun(context.Background(), suite.Name, suite.Variant, cfg.Seed)
		if err != nil {
			st.Close()
			return nil, nil, "", WrapExitError(ExitCommandError, "failed to begin run", err).WithCode(CodeLedger)
		}
		runID = run.ID
		hcfg.Recorder = st.Recorder(runID)
		log.Info("recording run", zap.String("run", runID), zap.String("path", cfg.Database))
	}

	h, err := harness.New(hcfg)
	if err != nil {
		if st != nil {
			st.Close()
		}
		return nil, nil, "", WrapExitError(ExitCommandError, "failed to build harness", err).WithCode(CodeConfig)
	}
	return h, st, runID, nil
}

func newExecutors(opts *RootOptions, cfg *config.Config, log *zap.Logger) (executor.Executor, executor.Executor) {
	if opts.Executors != nil {
		return opts.Executors(cfg, log)
	}
	sut := executor.Command{
		Name:   "sut",
		Argv:   cfg.SUT.Argv,
		Env:    cfg.SUT.EnvMap(),
		Dir:    cfg.SUT.Dir,
		Logger: log,
	}
	ref := executor.Command{
		Name:   "reference",
		Argv:   cfg.Reference.Argv,
		Env:    cfg.Reference.EnvMap(),
		Dir:    cfg.Reference.Dir,
		Logger: log,
	}
	return sut, ref
}

func skipPolicy(sc config.SkipConfig) harness.SkipPolicy {
	var policies []harness.SkipPolicy
	if sc.Env != "" {
		policies = append(policies, harness.SkipIfEnv(sc.Env))
	}
	if len(sc.Cases) > 0 {
		policies = append(policies, harness.SkipCases(sc.Cases...))
	}
	return harness.AnySkip(policies...)
}

func caseReport(r *harness.Result) CaseReport {
	cr := CaseReport{
		ID:        r.Case.ID(),
		Status:    r.Status(),
		Tolerance: r.Case.Tol(),
		Seed:      r.Seed,
		Detail:    r.Detail(),
		SUTArgs:   r.Args.SUT,
		RefArgs:   r.Args.Reference,
	}
	switch cr.Status {
	case harness.StatusPass, harness.StatusFail:
		if d := r.MaxAbsDiff; !math.IsNaN(d) && !math.IsInf(d, 0) {
			cr.MaxAbsDiff = &d
		}
	}
	return cr
}

func writeRunText(w io.Writer, report RunReport, results []*harness.Result, verbose bool) {
	for i, c := range report.Cases {
		switch c.Status {
		case harness.StatusPass:
			fmt.Fprintf(w, "✓ %s", c.ID)
			if c.MaxAbsDiff != nil {
				fmt.Fprintf(w, " (max |diff| %g, tol %g)", *c.MaxAbsDiff, c.Tolerance)
			}
			fmt.Fprintln(w)
		case harness.StatusSkip:
			fmt.Fprintf(w, "- %s (skipped)\n", c.ID)
		case harness.StatusFail:
			fmt.Fprintf(w, "✗ %s\n", c.ID)
			for _, e := range results[i].Errors {
				fmt.Fprintf(w, "  %s\n", e)
			}
		default:
			fmt.Fprintf(w, "✗ %s\n", c.ID)
			fmt.Fprintf(w, "  error: %s\n", c.Detail)
		}
		if verbose && c.Status != harness.StatusSkip {
			fmt.Fprintf(w, "  sut:       %s\n", joinArgs(c.SUTArgs))
			fmt.Fprintf(w, "  reference: %s\n", joinArgs(c.RefArgs))
		}
	}

	s := report.Summary
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary: %d passed, %d failed, %d skipped, %d errored, %d total\n",
		s.Passed, s.Failed, s.Skipped, s.Errored, s.Total)
	if report.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", report.RunID)
	}
	if s.OK() {
		fmt.Fprintln(w, "✓ All cases passed")
	}
}
