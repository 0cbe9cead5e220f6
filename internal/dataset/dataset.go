// Package dataset synthesizes the input series and weight vectors a case
// runs on.
//
// Inputs are random by default and seeded from the wall clock, so two runs
// see different data. That is fine: a case checks that two implementations
// agree on whatever input was generated, not that either matches a golden
// output. Set a seed to reproduce a failing run.
package dataset

import (
	"fmt"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/roach88/crosscheck/internal/matrix"
	"github.com/roach88/crosscheck/internal/model"
)

// Value ranges for generated data.
const (
	SeriesMin  = 1.0
	SeriesMax  = 5.0
	WeightsMin = -2.0
	WeightsMax = 2.0
)

// MaxRedraws bounds how often a single weight is redrawn after landing on
// exactly zero.
const MaxRedraws = 16

// Input names as the scripts expect them.
const (
	SeriesName  = "testdata"
	WeightsName = "testweights"
)

// Source yields uniform values in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// GenerationError reports a weight that stayed zero after MaxRedraws draws.
type GenerationError struct {
	Index int
	Draws int
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("weights[%d]: still zero after %d draws", e.Index, e.Draws)
}

// Generator draws series and weights from one random source.
// It is not safe for concurrent use; give each case its own.
type Generator struct {
	rng  Source
	seed int64
}

// NewGenerator returns a generator seeded with seed, or with the wall clock
// when seed is 0.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed)), seed: seed}
}

// NewGeneratorFrom wraps an existing source.
func NewGeneratorFrom(src Source) *Generator {
	return &Generator{rng: src}
}

// Seed returns the seed the generator was built with, or 0 for a wrapped
// source.
func (g *Generator) Seed() int64 {
	return g.seed
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*g.rng.Float64()
}

// Series returns n independent draws from [SeriesMin, SeriesMax].
func (g *Generator) Series(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = g.uniform(SeriesMin, SeriesMax)
	}
	return out
}

// Weights returns n independent draws from [WeightsMin, WeightsMax], none
// of them exactly zero.
func (g *Generator) Weights(n int) ([]float64, error) {
	out := make([]float64, n)
	for i := range out {
		draws := 0
		for {
			v := g.uniform(WeightsMin, WeightsMax)
			draws++
			if v != 0 {
				out[i] = v
				break
			}
			if draws > MaxRedraws {
				return nil, &GenerationError{Index: i, Draws: draws}
			}
		}
	}
	return out, nil
}

// Dataset is the generated input for one case.
type Dataset struct {
	Series      []float64
	SeriesShape matrix.Shape

	// Weights is nil unless the variant needs weights.
	Weights      []float64
	WeightsShape matrix.Shape
}

// Generate builds the dataset for an order. The series length is
// order.Length, or model.DefaultLength when the order carries none. Weights
// are sized to order.WeightsLen() when the variant needs them.
func (g *Generator) Generate(v model.Variant, o model.Order) (*Dataset, error) {
	n := o.Length
	if n <= 0 {
		n = model.DefaultLength
	}

	ds := &Dataset{Series: g.Series(n)}
	ds.SeriesShape = matrix.ColumnShape(ds.Series)

	if v.Capabilities().NeedsWeights {
		w, err := g.Weights(o.WeightsLen())
		if err != nil {
			return nil, fmt.Errorf("generate weights for %s: %w", o, err)
		}
		ds.Weights = w
		ds.WeightsShape = matrix.ColumnShape(w)
	}
	return ds, nil
}

// Files are the paths a dataset was written to.
type Files struct {
	Series  string
	Weights string
}

// Write persists the dataset through w.
func (d *Dataset) Write(w matrix.InputWriter) (Files, error) {
	var files Files
	var err error

	files.Series, err = w.Write(SeriesName, d.Series, d.SeriesShape)
	if err != nil {
		return Files{}, err
	}
	if d.Weights != nil {
		files.Weights, err = w.Write(WeightsName, d.Weights, d.WeightsShape)
		if err != nil {
			return Files{}, err
		}
	}
	return files, nil
}

// Summary describes the series for debug logs.
type Summary struct {
	N      int
	Mean   float64
	StdDev float64
}

// Summary returns the sample mean and standard deviation of the series.
func (d *Dataset) Summary() Summary {
	mean, std := stat.MeanStdDev(d.Series, nil)
	return Summary{N: len(d.Series), Mean: mean, StdDev: std}
}
