package args

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/crosscheck/internal/model"
)

var (
	fixedLoc = Locations{
		Input:    "in/pythondump.csv",
		Output:   "out/learnt.model",
		Expected: "expected/learnt.model",
	}
	generatedLoc = Locations{
		Input:    "in/testdata.mtx",
		Weights:  "in/testweights.mtx",
		Output:   "out/learnt.model",
		Expected: "expected/learnt.model",
	}
)

func snapshot(p Pair) []byte {
	var b strings.Builder
	b.WriteString("sut:\n")
	for _, a := range p.SUT {
		b.WriteString(a + "\n")
	}
	b.WriteString("reference:\n")
	for _, a := range p.Reference {
		b.WriteString(a + "\n")
	}
	return []byte(b.String())
}

func TestProject_Golden(t *testing.T) {
	tests := []struct {
		name    string
		variant model.Variant
		dialect Dialect
		order   model.Order
		loc     Locations
	}{
		{"training_ar1_dml", model.VariantTraining, DialectDML, model.AR(model.VariantTraining, 1), fixedLoc},
		{
			"training_sarima_pydml",
			model.VariantTraining, DialectPyDML,
			model.SARIMA(model.VariantTraining, 3, 2, 3, 3, 2, 4, 12),
			generatedLoc,
		},
		{
			"css_sarima_forwardsub_dml",
			model.VariantCSS, DialectDML,
			model.SARIMAWithSolver(1, 0, 2, 0, 1, 4, 7, model.SolverForwardSub),
			generatedLoc,
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Project(tt.variant, tt.dialect, tt.order, tt.loc)
			g.Assert(t, tt.name, snapshot(p))
		})
	}
}

func TestSUT_DialectOnlyAddsLeadingToken(t *testing.T) {
	o := model.ARMA(model.VariantCSS, 4, 6)
	dml := SUT(model.VariantCSS, DialectDML, o, generatedLoc)
	py := SUT(model.VariantCSS, DialectPyDML, o, generatedLoc)

	require.Len(t, py, len(dml)+1)
	assert.Equal(t, PythonMarker, py[0])
	assert.Equal(t, dml, py[1:])
}

func TestSUT_TrainingOmitsCSSTokens(t *testing.T) {
	s := SUT(model.VariantTraining, DialectDML, model.AR(model.VariantTraining, 5), fixedLoc)
	for _, tok := range s {
		assert.NotContains(t, tok, KeyWeights)
		assert.NotContains(t, tok, KeySolver)
		assert.NotContains(t, tok, KeyResultFormat)
	}
	assert.Equal(t, "dest=out/learnt.model", s[len(s)-1])
}

func TestReference_Positional(t *testing.T) {
	o := model.SARIMA(model.VariantCSS, 3, 2, 4, 2, 1, 3, 12)
	assert.Equal(t, Set{
		"in/testdata.mtx", "3,2,4", "2,1,3", "12", "in/testweights.mtx", "expected/learnt.model",
	}, Reference(model.VariantCSS, o, generatedLoc))

	assert.Equal(t, Set{
		"in/pythondump.csv", "1,0,0", "0,0,0", "7", "expected/learnt.model",
	}, Reference(model.VariantTraining, model.AR(model.VariantTraining, 1), fixedLoc))
}

func TestKeyed(t *testing.T) {
	o := model.SARIMAWithSolver(1, 0, 2, 0, 1, 4, 7, model.SolverForwardSub)
	named, d, err := Keyed(SUT(model.VariantCSS, DialectPyDML, o, generatedLoc))
	require.NoError(t, err)

	assert.Equal(t, DialectPyDML, d)
	assert.Equal(t, map[string]string{
		"X": "in/testdata.mtx", "weights_src": "in/testweights.mtx",
		"p": "1", "d": "0", "q": "2", "P": "0", "D": "1", "Q": "4", "s": "7",
		"solver": "forwardsub", "result_formate": "MM", "dest": "out/learnt.model",
	}, named)
}

func TestKeyed_Errors(t *testing.T) {
	tests := []struct {
		name string
		set  Set
		want string
	}{
		{"no marker", Set{"X=a"}, "missing -nvargs"},
		{"empty", Set{}, "missing -nvargs"},
		{"not keyed", Set{"-nvargs", "a"}, "not name=value"},
		{"duplicate", Set{"-nvargs", "p=1", "p=2"}, "given twice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Keyed(tt.set)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("pydml")
	require.NoError(t, err)
	assert.Equal(t, DialectPyDML, d)

	_, err = ParseDialect("r")
	require.Error(t, err)
}
