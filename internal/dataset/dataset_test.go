package dataset

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/crosscheck/internal/matrix"
	"github.com/roach88/crosscheck/internal/model"
)

// fixedSource returns the same value forever.
type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

// seqSource replays values, then repeats the last one.
type seqSource struct {
	values []float64
	i      int
}

func (s *seqSource) Float64() float64 {
	v := s.values[s.i]
	if s.i < len(s.values)-1 {
		s.i++
	}
	return v
}

func TestSeries_LengthAndRange(t *testing.T) {
	g := NewGenerator(42)
	series := g.Series(model.DefaultLength)

	require.Len(t, series, 120)
	for i, v := range series {
		assert.GreaterOrEqual(t, v, SeriesMin, "series[%d]", i)
		assert.LessOrEqual(t, v, SeriesMax, "series[%d]", i)
	}
}

func TestWeights_LengthRangeNonZero(t *testing.T) {
	g := NewGenerator(7)
	for n := 1; n <= 40; n++ {
		w, err := g.Weights(n)
		require.NoError(t, err)
		require.Len(t, w, n)
		for i, v := range w {
			assert.NotZero(t, v, "n=%d weights[%d]", n, i)
			assert.GreaterOrEqual(t, v, WeightsMin)
			assert.LessOrEqual(t, v, WeightsMax)
		}
	}
}

func TestWeights_RedrawsZero(t *testing.T) {
	// 0.5 maps to exactly zero in [-2,2].
	g := NewGeneratorFrom(&seqSource{values: []float64{0.5, 0.5, 0.75}})
	w, err := g.Weights(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, w)
}

func TestWeights_GenerationError(t *testing.T) {
	g := NewGeneratorFrom(fixedSource(0.5))
	w, err := g.Weights(3)
	assert.Nil(t, w)

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, 0, genErr.Index)
	assert.Equal(t, MaxRedraws+1, genErr.Draws)
}

func TestGenerator_SeededIsReproducible(t *testing.T) {
	a := NewGenerator(99).Series(10)
	b := NewGenerator(99).Series(10)
	c := NewGenerator(100).Series(10)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestGenerator_WallClockSeed(t *testing.T) {
	g := NewGenerator(0)
	assert.NotZero(t, g.Seed())
}

func TestGenerate_CSSWeightsSizedToOrder(t *testing.T) {
	o := model.SARIMAWithSolver(1, 0, 2, 0, 1, 4, 7, model.SolverForwardSub)
	ds, err := NewGenerator(1).Generate(model.VariantCSS, o)
	require.NoError(t, err)

	assert.Len(t, ds.Series, 120)
	assert.Equal(t, matrix.Shape{Rows: 120, Cols: 1, NNZ: 120}, ds.SeriesShape)
	require.Len(t, ds.Weights, 7)
	assert.Equal(t, matrix.Shape{Rows: 7, Cols: 1, NNZ: 7}, ds.WeightsShape)

	// Same order count, new draw: same length, different values.
	again, err := NewGenerator(2).Generate(model.VariantCSS, o)
	require.NoError(t, err)
	assert.Len(t, again.Weights, 7)
	assert.NotEqual(t, ds.Weights, again.Weights)
}

func TestGenerate_CustomLength(t *testing.T) {
	o := model.CustomSARIMA(60, 2, 0, 0, 0, 0, 0, 0, model.SolverJacobi)
	ds, err := NewGenerator(1).Generate(model.VariantCSS, o)
	require.NoError(t, err)
	assert.Len(t, ds.Series, 60)
	assert.Len(t, ds.Weights, 2)
}

func TestGenerate_TrainingHasNoWeights(t *testing.T) {
	ds, err := NewGenerator(1).Generate(model.VariantTraining, model.SARIMA(model.VariantTraining, 3, 2, 3, 3, 2, 4, 12))
	require.NoError(t, err)
	assert.Len(t, ds.Series, 120)
	assert.Nil(t, ds.Weights)
}

func TestGenerate_PropagatesGenerationError(t *testing.T) {
	_, err := NewGeneratorFrom(fixedSource(0.5)).Generate(model.VariantCSS, model.AR(model.VariantCSS, 2))
	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
}

func TestDataset_Write(t *testing.T) {
	dir := t.TempDir()
	ds, err := NewGenerator(3).Generate(model.VariantCSS, model.ARMA(model.VariantCSS, 1, 1))
	require.NoError(t, err)

	files, err := ds.Write(matrix.FSWriter{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "testdata.mtx"), files.Series)
	assert.Equal(t, filepath.Join(dir, "testweights.mtx"), files.Weights)

	weights, err := matrix.MarketReader{}.Read(files.Weights)
	require.NoError(t, err)
	assert.Equal(t, matrix.Column(ds.Weights), weights)
}

func TestDataset_Summary(t *testing.T) {
	ds := &Dataset{Series: []float64{1, 2, 3, 4, 5}}
	s := ds.Summary()
	assert.Equal(t, 5, s.N)
	assert.InDelta(t, 3.0, s.Mean, 1e-12)
	assert.InDelta(t, 1.5811388300841898, s.StdDev, 1e-12)
}
