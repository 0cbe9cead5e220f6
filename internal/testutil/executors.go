package testutil

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/roach88/crosscheck/internal/args"
	"github.com/roach88/crosscheck/internal/executor"
	"github.com/roach88/crosscheck/internal/matrix"
	"github.com/roach88/crosscheck/internal/model"
)

// ModelExecutors fakes both implementations in-process.
//
// Each fake parses its argument set the way the real program would, reads
// the inputs it names, evaluates Fit and writes the result in its side's
// native format: cell text or a scalar from the system under test, Matrix
// Market or a scalar from the reference. With no offsets set the two sides
// agree exactly.
type ModelExecutors struct {
	// ReferenceOffset is added to every reference value.
	ReferenceOffset float64

	// SUTErr, when set, is returned by the system under test before it
	// writes anything.
	SUTErr error

	mu             sync.Mutex
	sutCalls       [][]string
	referenceCalls [][]string
}

// SUTCalls returns the argument sets the system under test was run with.
func (m *ModelExecutors) SUTCalls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.sutCalls...)
}

// ReferenceCalls returns the argument sets the reference was run with.
func (m *ModelExecutors) ReferenceCalls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.referenceCalls...)
}

// SUT returns the fake system under test.
func (m *ModelExecutors) SUT() executor.Executor {
	return executor.Func(func(_ context.Context, argv []string) error {
		m.mu.Lock()
		m.sutCalls = append(m.sutCalls, argv)
		m.mu.Unlock()

		if m.SUTErr != nil {
			return m.SUTErr
		}
		named, _, err := args.Keyed(argv)
		if err != nil {
			return err
		}
		o, err := orderFromKeyed(named)
		if err != nil {
			return err
		}
		series, err := ReadSeries(named[args.KeyInput])
		if err != nil {
			return err
		}
		var weights []float64
		if w, ok := named[args.KeyWeights]; ok {
			if weights, err = ReadSeries(w); err != nil {
				return err
			}
		}

		dest := named[args.KeyDest]
		if _, css := named[args.KeySolver]; css {
			return writeScalar(dest, Fit(o, series, weights)[0])
		}
		return writeCellText(dest, Fit(o, series, nil))
	})
}

// Reference returns the fake reference implementation.
func (m *ModelExecutors) Reference() executor.Executor {
	return executor.Func(func(_ context.Context, argv []string) error {
		m.mu.Lock()
		m.referenceCalls = append(m.referenceCalls, argv)
		m.mu.Unlock()

		if len(argv) != 5 && len(argv) != 6 {
			return fmt.Errorf("reference: want 5 or 6 positional arguments, got %d", len(argv))
		}
		o, err := orderFromPositional(argv[1], argv[2], argv[3])
		if err != nil {
			return err
		}
		series, err := ReadSeries(argv[0])
		if err != nil {
			return err
		}

		dest := argv[len(argv)-1]
		if len(argv) == 6 {
			weights, err := ReadSeries(argv[4])
			if err != nil {
				return err
			}
			return writeScalar(dest, Fit(o, series, weights)[0]+m.ReferenceOffset)
		}

		values := Fit(o, series, nil)
		for i := range values {
			values[i] += m.ReferenceOffset
		}
		return writeMarket(dest, values)
	})
}

// Fit is the stand-in model both fakes evaluate. With weights it returns
// one conditional sum-of-squares style scalar; without, one coefficient per
// AR and MA term, plus an intercept.
func Fit(o model.Order, series, weights []float64) []float64 {
	mean := 0.0
	for _, v := range series {
		mean += v
	}
	if len(series) > 0 {
		mean /= float64(len(series))
	}

	if weights != nil {
		css := 0.0
		for i, v := range series {
			r := v - mean
			if len(weights) > 0 {
				r -= weights[i%len(weights)]
			}
			css += r * r
		}
		return []float64{css + float64(o.D+o.SD)}
	}

	k := o.WeightsLen() + 1
	out := make([]float64, k)
	for i := range out {
		out[i] = mean*float64(i+1)/float64(k) + 0.01*float64(o.D) + 0.001*float64(o.SD) + 1e-4*float64(o.S)
	}
	return out
}

// ReadSeries reads a column: Matrix Market for .mtx files, otherwise one
// value per line with anything after a comma ignored.
func ReadSeries(path string) ([]float64, error) {
	if strings.HasSuffix(path, ".mtx") {
		cells, err := matrix.MarketReader{}.Read(path)
		if err != nil {
			return nil, err
		}
		n := 0
		for idx := range cells {
			if idx.Row > n {
				n = idx.Row
			}
		}
		out := make([]float64, n)
		for idx, v := range cells {
			out[idx.Row-1] = v
		}
		return out, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []float64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		text, _, _ := strings.Cut(strings.TrimSpace(scanner.Text()), ",")
		if text == "" {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: bad value %q", path, text)
		}
		out = append(out, v)
	}
	return out, scanner.Err()
}

// WriteSeries writes one value per line, the layout of a predefined series.
func WriteSeries(t *testing.T, path string, values []float64) {
	t.Helper()
	var b strings.Builder
	for _, v := range values {
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64) + "\n")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
}

// SkipWithoutShell skips tests that need a POSIX shell on PATH.
func SkipWithoutShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("skipping: sh not found on PATH")
	}
}

func orderFromKeyed(named map[string]string) (model.Order, error) {
	var o model.Order
	fields := []struct {
		key string
		dst *int
	}{
		{"p", &o.P}, {"d", &o.D}, {"q", &o.Q},
		{"P", &o.SP}, {"D", &o.SD}, {"Q", &o.SQ},
		{"s", &o.S},
	}
	for _, f := range fields {
		raw, ok := named[f.key]
		if !ok {
			return model.Order{}, fmt.Errorf("sut: missing %s=", f.key)
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return model.Order{}, fmt.Errorf("sut: %s=%q is not an integer", f.key, raw)
		}
		*f.dst = n
	}
	o.Solver = model.Solver(named[args.KeySolver])
	return o, nil
}

func orderFromPositional(nonSeasonal, seasonal, period string) (model.Order, error) {
	var o model.Order
	if _, err := fmt.Sscanf(nonSeasonal, "%d,%d,%d", &o.P, &o.D, &o.Q); err != nil {
		return model.Order{}, fmt.Errorf("reference: bad order %q: %w", nonSeasonal, err)
	}
	if _, err := fmt.Sscanf(seasonal, "%d,%d,%d", &o.SP, &o.SD, &o.SQ); err != nil {
		return model.Order{}, fmt.Errorf("reference: bad seasonal order %q: %w", seasonal, err)
	}
	s, err := strconv.Atoi(period)
	if err != nil {
		return model.Order{}, fmt.Errorf("reference: bad period %q", period)
	}
	o.S = s
	return o, nil
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeScalar(path string, v float64) error {
	return os.WriteFile(path, []byte(format(v)+"\n"), 0o644)
}

func writeCellText(path string, values []float64) error {
	var b strings.Builder
	for i, v := range values {
		fmt.Fprintf(&b, "%d 1 %s\n", i+1, format(v))
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func writeMarket(path string, values []float64) error {
	var b strings.Builder
	b.WriteString("%%MatrixMarket matrix coordinate real general\n")
	fmt.Fprintf(&b, "%d 1 %d\n", len(values), len(values))
	for i, v := range values {
		fmt.Fprintf(&b, "%d 1 %s\n", i+1, format(v))
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
