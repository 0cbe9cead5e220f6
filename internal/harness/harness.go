package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/crosscheck/internal/args"
	"github.com/roach88/crosscheck/internal/compare"
	"github.com/roach88/crosscheck/internal/dataset"
	"github.com/roach88/crosscheck/internal/executor"
	"github.com/roach88/crosscheck/internal/matrix"
	"github.com/roach88/crosscheck/internal/model"
)

// Config wires a Harness to its collaborators.
type Config struct {
	// SUT and Reference are required.
	SUT       executor.Executor
	Reference executor.Executor

	// SUTReader and ReferenceReader load the two results. Nil selects the
	// variant default, see DefaultReaders.
	SUTReader       matrix.Reader
	ReferenceReader matrix.Reader

	// NewWriter returns the input writer for a case's input directory.
	// Nil selects DefaultWriter.
	NewWriter func(dir string) matrix.InputWriter

	// Workspace is the root all case namespaces live under.
	Workspace Workspace

	// FixedInput is the predefined series for variants that use one. When
	// empty, those variants run on a generated series.
	FixedInput string

	// Seed seeds every case's generator; 0 seeds from the wall clock.
	Seed int64

	// NewGenerator builds the generator for one case from Seed. Nil uses
	// dataset.NewGenerator.
	NewGenerator func(seed int64) *dataset.Generator

	// Skip defaults to NeverSkip.
	Skip SkipPolicy

	// KeepArtifacts keeps the namespace of passing cases.
	KeepArtifacts bool

	// Recorder, if set, receives every result RunSuite produces.
	Recorder Recorder

	Logger *zap.Logger
}

// Harness runs cases. It holds no per-case state and is safe for
// concurrent use as long as its collaborators are.
type Harness struct {
	sut       executor.Executor
	reference executor.Executor
	sutReader matrix.Reader
	refReader matrix.Reader
	newWriter func(dir string) matrix.InputWriter
	workspace Workspace
	fixed     string
	seed      int64
	newGen    func(seed int64) *dataset.Generator
	skip      SkipPolicy
	keep      bool
	recorder  Recorder
	logger    *zap.Logger
}

// New builds a Harness from cfg.
func New(cfg Config) (*Harness, error) {
	if cfg.SUT == nil || cfg.Reference == nil {
		return nil, errors.New("both executors are required")
	}
	if cfg.Workspace.Root == "" {
		return nil, errors.New("workspace root is required")
	}

	h := &Harness{
		sut:       cfg.SUT,
		reference: cfg.Reference,
		sutReader: cfg.SUTReader,
		refReader: cfg.ReferenceReader,
		newWriter: cfg.NewWriter,
		workspace: cfg.Workspace,
		fixed:     cfg.FixedInput,
		seed:      cfg.Seed,
		newGen:    cfg.NewGenerator,
		skip:      cfg.Skip,
		keep:      cfg.KeepArtifacts,
		recorder:  cfg.Recorder,
		logger:    cfg.Logger,
	}
	if h.newWriter == nil {
		h.newWriter = DefaultWriter
	}
	if h.newGen == nil {
		h.newGen = dataset.NewGenerator
	}
	if h.skip == nil {
		h.skip = NeverSkip
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h, nil
}

// DefaultReaders returns the readers for each side's native output.
// Training parameters come back as cell text from the system under test and
// as Matrix Market from the reference; CSS writes a bare scalar on both
// sides.
func DefaultReaders(v model.Variant) (sut, reference matrix.Reader) {
	if v.Capabilities().OutputIsScalar {
		return matrix.ScalarReader{}, matrix.ScalarReader{}
	}
	return matrix.CellTextReader{}, matrix.MarketReader{}
}

func (h *Harness) readers(v model.Variant) (matrix.Reader, matrix.Reader) {
	sut, ref := DefaultReaders(v)
	if h.sutReader != nil {
		sut = h.sutReader
	}
	if h.refReader != nil {
		ref = h.refReader
	}
	return sut, ref
}

// Run executes one case.
//
// A mismatch yields a failed Result and a nil error. Executor failures are
// returned unchanged; other failures are wrapped with the step they
// happened in.
func (h *Harness) Run(ctx context.Context, c Case) (*Result, error) {
	start := time.Now()
	result := NewResult(c)
	log := h.logger.With(
		zap.String("suite", c.Suite),
		zap.String("case", c.Name),
		zap.String("variant", string(c.Variant)),
		zap.String("dialect", string(c.Dialect)),
	)

	if h.skip.ShouldSkip(c) {
		log.Info("skip")
		result.Skipped = true
		return result, nil
	}

	log.Info("BEGIN", zap.Stringer("order", c.Order))

	tol := c.Tol()

	// Prepare wipes whatever an earlier run of this case left behind, so
	// a stale output can never be compared as if it were fresh.
	ns, err := h.workspace.Prepare(c)
	if err != nil {
		return nil, err
	}

	// Paths are settled before anything is written; the args command
	// projects through the same helper.
	writer := h.newWriter(ns.In)
	loc := Locations(c, ns, h.fixed, writer)

	if !readsFixed(c, h.fixed) {
		gen := h.newGen(h.seed)
		ds, err := gen.Generate(c.Variant, c.Order)
		if err != nil {
			return nil, fmt.Errorf("case %s: %w", c, err)
		}
		files, err := ds.Write(writer)
		if err != nil {
			return nil, fmt.Errorf("case %s: failed to write inputs: %w", c, err)
		}
		if files.Series != loc.Input || files.Weights != loc.Weights {
			return nil, fmt.Errorf("case %s: inputs written to %s, expected %s", c, files.Series, loc.Input)
		}
		result.Seed = gen.Seed()
		result.AddStep(StepGenerate, nil, ns.In)

		summary := ds.Summary()
		log.Debug("inputs written",
			zap.String("path", ns.In),
			zap.Int64("seed", gen.Seed()),
			zap.Int("n", summary.N),
			zap.Float64("mean", summary.Mean),
			zap.Float64("stddev", summary.StdDev),
			zap.Int("weights", len(ds.Weights)),
		)
	}

	pair := args.Project(c.Variant, c.Dialect, c.Order, loc)
	result.Args = pair

	// The system under test runs first. Either executor failing ends the
	// case with an error rather than a mismatch.
	log.Debug("run", zap.String("step", StepSUT), zap.Strings("args", pair.SUT))
	if err := h.sut.Execute(ctx, pair.SUT); err != nil {
		return nil, err
	}
	result.AddStep(StepSUT, pair.SUT, loc.Output)

	log.Debug("run", zap.String("step", StepReference), zap.Strings("args", pair.Reference))
	if err := h.reference.Execute(ctx, pair.Reference); err != nil {
		return nil, err
	}
	result.AddStep(StepReference, pair.Reference, loc.Expected)

	// Each side writes its native format, so each gets its own reader.
	sutReader, refReader := h.readers(c.Variant)
	sutCells, err := sutReader.Read(loc.Output)
	if err != nil {
		return nil, fmt.Errorf("case %s: failed to read system under test result: %w", c, err)
	}
	refCells, err := refReader.Read(loc.Expected)
	if err != nil {
		return nil, fmt.Errorf("case %s: failed to read reference result: %w", c, err)
	}

	// Missing cells count as zero on either side.
	report, err := compare.Diff(refCells, sutCells, tol)
	if err != nil {
		return nil, fmt.Errorf("case %s: %w", c, err)
	}
	result.AddStep(StepCompare, nil, "")
	result.MaxAbsDiff = report.MaxAbsDiff

	refLabel, sutLabel := c.labels()
	if err := report.Err(tol, refLabel, sutLabel); err != nil {
		var mm *compare.MismatchError
		if errors.As(err, &mm) {
			result.Mismatch = mm
		}
		result.AddError(err.Error())
	}
	result.Duration = time.Since(start)

	// Failed namespaces stay on disk for inspection.
	if result.Pass {
		log.Info("pass", zap.Float64("max_abs_diff", result.MaxAbsDiff), zap.Duration("duration", result.Duration))
		if !h.keep {
			if err := h.workspace.Clean(ns); err != nil {
				log.Warn("cleanup failed", zap.Error(err))
			}
		}
	} else {
		log.Warn("mismatch",
			zap.Float64("max_abs_diff", result.MaxAbsDiff),
			zap.String("path", ns.Dir),
			zap.Strings("errors", result.Errors),
		)
	}
	return result, nil
}
