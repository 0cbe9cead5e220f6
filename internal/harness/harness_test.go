package harness

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/crosscheck/internal/args"
	"github.com/roach88/crosscheck/internal/dataset"
	"github.com/roach88/crosscheck/internal/executor"
	"github.com/roach88/crosscheck/internal/model"
	"github.com/roach88/crosscheck/internal/testutil"
)

func newHarness(t *testing.T, fakes *testutil.ModelExecutors, mutate ...func(*Config)) (*Harness, string) {
	t.Helper()
	root := t.TempDir()
	cfg := Config{
		SUT:       fakes.SUT(),
		Reference: fakes.Reference(),
		Workspace: Workspace{Root: root},
		Seed:      42,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	h, err := New(cfg)
	require.NoError(t, err)
	return h, root
}

func fixedSeries(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pythondump.csv")
	values := make([]float64, 0, 120)
	for i := 0; i < 120; i++ {
		values = append(values, 1+float64(i%9)*0.5)
	}
	testutil.WriteSeries(t, path, values)
	return path
}

func TestRun_TrainingFixedInput(t *testing.T) {
	fakes := &testutil.ModelExecutors{}
	input := fixedSeries(t)
	h, root := newHarness(t, fakes, func(c *Config) { c.FixedInput = input })

	c := Case{
		Suite:   "arima_training",
		Name:    "ar1",
		Variant: model.VariantTraining,
		Dialect: args.DialectDML,
		Order:   model.AR(model.VariantTraining, 1),
	}
	result, err := h.Run(context.Background(), c)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Less(t, result.MaxAbsDiff, 1e-4)
	assert.Zero(t, result.Seed, "fixed input is not generated")

	require.Len(t, fakes.SUTCalls(), 1)
	require.Len(t, fakes.ReferenceCalls(), 1)
	assert.Contains(t, fakes.SUTCalls()[0], "X="+input)
	assert.Equal(t, input, fakes.ReferenceCalls()[0][0])

	steps := make([]string, len(result.Trace))
	for i, ev := range result.Trace {
		steps[i] = ev.Step
	}
	assert.Equal(t, []string{StepSUT, StepReference, StepCompare}, steps)

	_, err = os.Stat(filepath.Join(root, "arima_training", "ar1", "dml"))
	assert.True(t, os.IsNotExist(err), "passing case namespace is cleaned")
}

func TestRun_TrainingGeneratedSeasonal(t *testing.T) {
	fakes := &testutil.ModelExecutors{}
	h, root := newHarness(t, fakes, func(c *Config) { c.KeepArtifacts = true })

	c := Case{
		Suite:   "arima_training",
		Name:    "sarima_3_2_3_3_2_4_12",
		Variant: model.VariantTraining,
		Dialect: args.DialectDML,
		Order:   model.SARIMA(model.VariantTraining, 3, 2, 3, 3, 2, 4, 12),
	}
	result, err := h.Run(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, int64(42), result.Seed)
	assert.Equal(t, 1e-4, c.Tol())

	ns := Workspace{Root: root}.Namespace(c)
	series, err := testutil.ReadSeries(filepath.Join(ns.In, dataset.SeriesName+".mtx"))
	require.NoError(t, err)
	assert.Len(t, series, 120)
	_, err = os.Stat(filepath.Join(ns.In, dataset.WeightsName+".mtx"))
	assert.True(t, os.IsNotExist(err), "training writes no weights")

	// Keyed vs positional conventions for the same order.
	sut := result.Args.SUT
	ref := result.Args.Reference
	assert.Equal(t, args.KeyedMarker, sut[0])
	assert.Contains(t, sut, "P=3")
	assert.Contains(t, sut, "s=12")
	assert.Equal(t, []string{"3,2,3", "3,2,4", "12"}, []string(ref[1:4]))

	_, err = os.Stat(ns.Dir)
	assert.NoError(t, err, "artifacts kept")
}

func TestRun_CSSForwardSub(t *testing.T) {
	fakes := &testutil.ModelExecutors{}
	h, root := newHarness(t, fakes, func(c *Config) { c.KeepArtifacts = true })

	c := Case{
		Suite:   "arima_css",
		Name:    "sarima_1_0_2_0_1_4_7_forwardsub",
		Variant: model.VariantCSS,
		Dialect: args.DialectPyDML,
		Order:   model.SARIMAWithSolver(1, 0, 2, 0, 1, 4, 7, model.SolverForwardSub),
	}
	result, err := h.Run(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, 1e-8, c.Tol())

	ns := Workspace{Root: root}.Namespace(c)
	weights, err := testutil.ReadSeries(filepath.Join(ns.In, dataset.WeightsName+".mtx"))
	require.NoError(t, err)
	require.Len(t, weights, 7)
	for i, w := range weights {
		assert.NotZero(t, w, "weights[%d]", i)
	}

	sut := fakes.SUTCalls()[0]
	assert.Equal(t, args.PythonMarker, sut[0])
	assert.Contains(t, sut, "solver=forwardsub")
	assert.Contains(t, sut, "result_formate=MM")
	ref := fakes.ReferenceCalls()[0]
	assert.Len(t, ref, 6)
	assert.Equal(t, filepath.Join(ns.In, "testweights.mtx"), ref[4])
}

func TestRun_Mismatch(t *testing.T) {
	fakes := &testutil.ModelExecutors{ReferenceOffset: 1e-6}
	h, root := newHarness(t, fakes)

	c := Case{
		Suite:   "arima_css",
		Name:    "ar5",
		Variant: model.VariantCSS,
		Dialect: args.DialectDML,
		Order:   model.AR(model.VariantCSS, 5),
	}
	result, err := h.Run(context.Background(), c)
	require.NoError(t, err, "a mismatch is a failed result, not an error")

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "arima_css_reference vs arima_css_sut")
	assert.Contains(t, result.Errors[0], "cell (1,1)")
	require.NotNil(t, result.Mismatch)
	assert.Equal(t, 1e-8, result.Mismatch.Tolerance)
	assert.Equal(t, StatusFail, result.Status())

	_, err = os.Stat(Workspace{Root: root}.Namespace(c).Dir)
	assert.NoError(t, err, "failing case keeps its artifacts")
}

func TestRun_ToleranceOverride(t *testing.T) {
	fakes := &testutil.ModelExecutors{ReferenceOffset: 1e-6}
	h, _ := newHarness(t, fakes)

	c := Case{
		Suite:     "arima_css",
		Name:      "ar5",
		Variant:   model.VariantCSS,
		Dialect:   args.DialectDML,
		Order:     model.AR(model.VariantCSS, 5),
		Tolerance: 1e-5,
	}
	result, err := h.Run(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.InDelta(t, 1e-6, result.MaxAbsDiff, 1e-9)
}

func TestRun_SkipHasNoSideEffects(t *testing.T) {
	fakes := &testutil.ModelExecutors{}
	h, root := newHarness(t, fakes, func(c *Config) {
		c.Skip = SkipFunc(func(Case) bool { return true })
	})

	c := Case{
		Suite:   "arima_css",
		Name:    "ar5",
		Variant: model.VariantCSS,
		Dialect: args.DialectDML,
		Order:   model.AR(model.VariantCSS, 5),
	}
	result, err := h.Run(context.Background(), c)
	require.NoError(t, err)

	assert.True(t, result.Skipped)
	assert.Equal(t, StatusSkip, result.Status())
	assert.Empty(t, result.Trace)
	assert.Empty(t, fakes.SUTCalls())
	assert.Empty(t, fakes.ReferenceCalls())

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "no input files written")
}

func TestRun_ExecutorErrorIsReturnedUnchanged(t *testing.T) {
	boom := errors.New("script raised")
	fakes := &testutil.ModelExecutors{SUTErr: boom}
	h, _ := newHarness(t, fakes)

	c := Case{
		Suite:   "arima_css",
		Name:    "ma7",
		Variant: model.VariantCSS,
		Dialect: args.DialectDML,
		Order:   model.MA(model.VariantCSS, 7),
	}
	result, err := h.Run(context.Background(), c)
	assert.Nil(t, result)
	assert.Same(t, boom, err)
	assert.Empty(t, fakes.ReferenceCalls(), "reference is not run after a failed SUT")
}

func TestRun_UnreadableResult(t *testing.T) {
	fakes := &testutil.ModelExecutors{}
	h, err := New(Config{
		SUT:       fakes.SUT(),
		Reference: executor.Func(func(context.Context, []string) error { return nil }),
		Workspace: Workspace{Root: t.TempDir()},
	})
	require.NoError(t, err)

	c := Case{Suite: "s", Name: "ar5", Variant: model.VariantCSS, Dialect: args.DialectDML, Order: model.AR(model.VariantCSS, 5)}
	_, err = h.Run(context.Background(), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read reference result")
}

func TestCase_TolFallsBackToVariantDefault(t *testing.T) {
	c := Case{Variant: model.VariantCSS}
	assert.Equal(t, model.CSSTolerance, c.Tol())

	c.Tolerance = -1
	assert.Equal(t, model.CSSTolerance, c.Tol())

	c.Tolerance = 0.5
	assert.Equal(t, 0.5, c.Tol())
	assert.Equal(t, model.TrainingTolerance, Case{Variant: model.VariantTraining}.Tol())
}

func TestRun_GenerationErrorAbortsCase(t *testing.T) {
	fakes := &testutil.ModelExecutors{}
	h, _ := newHarness(t, fakes, func(c *Config) {
		c.NewGenerator = func(int64) *dataset.Generator {
			return dataset.NewGeneratorFrom(zeroSource{})
		}
	})

	c := Case{Suite: "s", Name: "ar2", Variant: model.VariantCSS, Dialect: args.DialectDML, Order: model.AR(model.VariantCSS, 2)}
	result, err := h.Run(context.Background(), c)
	assert.Nil(t, result)

	var genErr *dataset.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Empty(t, fakes.SUTCalls())
}

// zeroSource makes every weight draw land on exactly zero.
type zeroSource struct{}

func (zeroSource) Float64() float64 { return 0.5 }

func TestNew_Validation(t *testing.T) {
	fakes := &testutil.ModelExecutors{}
	_, err := New(Config{Reference: fakes.Reference(), Workspace: Workspace{Root: "x"}})
	require.Error(t, err)

	_, err = New(Config{SUT: fakes.SUT(), Reference: fakes.Reference()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workspace root")
}

type memoryRecorder struct {
	mu      sync.Mutex
	results []*Result
	err     error
}

func (m *memoryRecorder) RecordCase(_ context.Context, r *Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, r)
	return m.err
}

func TestRunSuite_ParallelKeepsOrderAndIsolatesFailures(t *testing.T) {
	fakes := &testutil.ModelExecutors{}
	rec := &memoryRecorder{}
	h, _ := newHarness(t, fakes, func(c *Config) {
		c.Recorder = rec
		c.Skip = SkipCases("sma_4_6")
	})

	v := model.VariantCSS
	orders := []struct {
		name  string
		order model.Order
	}{
		{"ar5", model.AR(v, 5)},
		{"ma7", model.MA(v, 7)},
		{"arma_4_6", model.ARMA(v, 4, 6)},
		{"sma_4_6", model.SMA(v, 4, 6)},
		{"sarima_10_3_1_4_2_4_2_forwardsub", model.SARIMAWithSolver(10, 3, 1, 4, 2, 4, 2, model.SolverForwardSub)},
	}
	var cases []Case
	for _, o := range orders {
		for _, d := range args.Dialects {
			cases = append(cases, Case{Suite: "arima_css", Name: o.name, Variant: v, Dialect: d, Order: o.order})
		}
	}

	results, err := h.RunSuite(context.Background(), cases, 4)
	require.NoError(t, err)
	require.Len(t, results, len(cases))
	for i, r := range results {
		assert.Equal(t, cases[i].ID(), r.Case.ID())
	}

	s := Summarize(results)
	assert.Equal(t, Summary{Total: 10, Passed: 8, Skipped: 2}, s)
	assert.True(t, s.OK())
	assert.Len(t, rec.results, 10)
}

func TestRunSuite_ErroredCaseDoesNotStopSiblings(t *testing.T) {
	boom := errors.New("boom")
	fakes := &testutil.ModelExecutors{}
	calls := 0
	var mu sync.Mutex
	sut := fakes.SUT()
	flaky := executor.Func(func(ctx context.Context, a []string) error {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			return boom
		}
		return sut.Execute(ctx, a)
	})

	h, err := New(Config{
		SUT:       flaky,
		Reference: fakes.Reference(),
		Workspace: Workspace{Root: t.TempDir()},
		Recorder:  &memoryRecorder{err: errors.New("disk full")},
	})
	require.NoError(t, err)

	v := model.VariantTraining
	cases := []Case{
		{Suite: "t", Name: "ar1", Variant: v, Dialect: args.DialectDML, Order: model.AR(v, 1)},
		{Suite: "t", Name: "ar5", Variant: v, Dialect: args.DialectDML, Order: model.AR(v, 5)},
	}
	results, err := h.RunSuite(context.Background(), cases, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	assert.Equal(t, StatusError, results[0].Status())
	assert.Same(t, boom, results[0].Err)
	assert.Equal(t, "boom", results[0].Detail())
	assert.Equal(t, StatusPass, results[1].Status())
	assert.Equal(t, Summary{Total: 2, Passed: 1, Errored: 1}, Summarize(results))
}
