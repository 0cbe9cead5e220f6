package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/crosscheck/internal/args"
	"github.com/roach88/crosscheck/internal/model"
)

func entryNames(entries []Entry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

func TestDefault_Training(t *testing.T) {
	entries := Default(model.VariantTraining)
	assert.Equal(t, []string{"ar1", "ar5", "ar20"}, entryNames(entries))
	for _, e := range entries {
		assert.Equal(t, 7, e.Order.S, "training defaults the period")
	}
}

func TestDefault_CSS(t *testing.T) {
	entries := Default(model.VariantCSS)
	assert.Equal(t, []string{
		"ar5",
		"ma7",
		"arma_4_6",
		"arima_3_2_3",
		"sar_3_12",
		"sma_4_6",
		"sarma_2_6_3",
		"sarima_3_2_4_2_1_3_12",
		"sarima_1_0_2_0_1_4_7_forwardsub",
		"sarima_10_3_1_4_2_4_2_forwardsub",
	}, entryNames(entries))

	for _, e := range entries {
		require.NoError(t, e.Order.Validate(model.VariantCSS), e.Name)
		require.NoError(t, model.ValidateSchema(model.VariantCSS, e.Order), e.Name)
		if e.Order.Seasonal() {
			assert.Greater(t, e.Order.S, 0, e.Name)
		}
	}
}

func TestSuite_Cases(t *testing.T) {
	s := DefaultSuite(model.VariantTraining)
	s.Dialects = []args.Dialect{args.DialectDML, args.DialectPyDML}

	cases := s.Cases()
	require.Len(t, cases, 6)

	assert.Equal(t, "ar1", cases[0].Name)
	assert.Equal(t, args.DialectDML, cases[0].Dialect)
	assert.Equal(t, "ar1", cases[1].Name)
	assert.Equal(t, args.DialectPyDML, cases[1].Dialect)
	assert.Equal(t, "arima_training", cases[0].Suite)
	assert.Equal(t, model.VariantTraining, cases[5].Variant)
}

func TestSuite_CasesDefaultsDialect(t *testing.T) {
	s := Suite{Name: "x", Variant: model.VariantCSS, Entries: Default(model.VariantCSS)[:1]}
	cases := s.Cases()
	require.Len(t, cases, 1)
	assert.Equal(t, args.DialectDML, cases[0].Dialect)
}

func TestSuite_Filter(t *testing.T) {
	s := DefaultSuite(model.VariantCSS)

	got, err := s.Filter("sarima_*")
	require.NoError(t, err)
	assert.Len(t, got.Entries, 3)

	got, err = s.Filter("")
	require.NoError(t, err)
	assert.Len(t, got.Entries, 10)

	_, err = s.Filter("[")
	require.Error(t, err)
}

func TestSuite_Lookup(t *testing.T) {
	s := DefaultSuite(model.VariantCSS)
	e, ok := s.Lookup("sma_4_6")
	require.True(t, ok)
	assert.Equal(t, 4, e.Order.SQ)
	assert.Equal(t, 6, e.Order.S)

	_, ok = s.Lookup("garch")
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	s, err := Load("testdata/css_seasonal.yaml")
	require.NoError(t, err)

	assert.Equal(t, "css_seasonal", s.Name)
	assert.Equal(t, model.VariantCSS, s.Variant)
	assert.Equal(t, []args.Dialect{args.DialectDML, args.DialectPyDML}, s.Dialects)
	assert.Equal(t, []string{"sar_3_12", "seasonal_fs", "ar2"}, entryNames(s.Entries))

	assert.Equal(t, model.SARIMAWithSolver(1, 0, 2, 0, 1, 4, 7, model.SolverForwardSub), s.Entries[1].Order)
	assert.Equal(t, 60, s.Entries[2].Order.Length)
	assert.Equal(t, model.SolverJacobi, s.Entries[2].Order.Solver)
}

func TestLoad_TrainingDefaults(t *testing.T) {
	s, err := Load("testdata/training.yaml")
	require.NoError(t, err)

	assert.Equal(t, "arima_training", s.Name)
	assert.Equal(t, []args.Dialect{args.DialectDML}, s.Dialects)
	require.Len(t, s.Entries, 2)
	assert.Equal(t, model.Order{P: 1, S: 7}, s.Entries[0].Order)
	assert.Equal(t, model.Order{P: 2, S: 12}, s.Entries[1].Order)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"testdata/typo.yaml", "field solvr not found"},
		{"testdata/duplicate.yaml", `duplicate case name "ar5"`},
		{"testdata/bad_order.yaml", "cases[0]"},
		{"testdata/missing.yaml", "failed to read catalog file"},
		{"testdata/escape.yaml", "contains a path separator"},
		{"testdata/training_solver.yaml", "solver is not supported"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			_, err := Load(tt.file)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_RejectsUnknownVariantAndDialect(t *testing.T) {
	_, err := Parse([]byte("variant: garch\ncases: [{p: 1}]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown variant")

	_, err = Parse([]byte("variant: css\ndialects: [r]\ncases: [{p: 1}]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dialect")

	_, err = Parse([]byte("variant: css\ncases: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cases list is required")
}

func TestParse_RejectsNamesOutsideNamespace(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"case escapes root", "variant: css\ncases: [{name: ../../victim, p: 1}]\n"},
		{"case aliases sibling", "variant: css\ncases: [{p: 5}, {name: x/../ar5, p: 4}]\n"},
		{"case is dot", "variant: css\ncases: [{name: ., p: 1}]\n"},
		{"suite escapes root", "name: ../outside\nvariant: css\ncases: [{p: 1}]\n"},
		{"suite is parent", "name: ..\nvariant: css\ncases: [{p: 1}]\n"},
		{"suite has backslash", "name: 'a\\b'\nvariant: css\ncases: [{p: 1}]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid catalog")
		})
	}
}

func TestParse_TrainingRejectsWeightFields(t *testing.T) {
	_, err := Parse([]byte("variant: training\ncases: [{p: 1, length: 60}]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "length is not supported by variant training")

	_, err = Parse([]byte("variant: training\ncases: [{p: 1, solver: jacobi}]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "solver is not supported by variant training")

	s, err := Parse([]byte("variant: css\ncases: [{p: 1, length: 60, solver: jacobi}]\n"))
	require.NoError(t, err)
	assert.Equal(t, 60, s.Entries[0].Order.Length)
}

func TestName(t *testing.T) {
	tests := []struct {
		order model.Order
		want  string
	}{
		{model.AR(model.VariantTraining, 20), "ar20"},
		{model.MA(model.VariantCSS, 7), "ma7"},
		{model.ARIMA(model.VariantCSS, 0, 1, 0), "arima_0_1_0"},
		{model.SARIMA(model.VariantCSS, 0, 0, 0, 0, 1, 0, 4), "sarima_0_0_0_0_1_0_4"},
		{model.CustomSARIMA(60, 1, 0, 0, 0, 0, 0, 0, model.SolverJacobi), "ar1"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Name(tt.order))
		})
	}
}
