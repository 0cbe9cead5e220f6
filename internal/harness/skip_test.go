package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/crosscheck/internal/args"
)

func TestSkipCases(t *testing.T) {
	policy := SkipCases("ar5", "ma7/pydml")

	assert.True(t, policy.ShouldSkip(Case{Name: "ar5", Dialect: args.DialectDML}))
	assert.True(t, policy.ShouldSkip(Case{Name: "ar5", Dialect: args.DialectPyDML}))
	assert.True(t, policy.ShouldSkip(Case{Name: "ma7", Dialect: args.DialectPyDML}))
	assert.False(t, policy.ShouldSkip(Case{Name: "ma7", Dialect: args.DialectDML}))
	assert.False(t, policy.ShouldSkip(Case{Name: "arma_4_6"}))
}

func TestSkipIfEnv(t *testing.T) {
	const name = "CROSSCHECK_TEST_SKIP_ALL"
	policy := SkipIfEnv(name)

	tests := []struct {
		value string
		skip  bool
	}{
		{"", false},
		{"0", false},
		{"false", false},
		{"FALSE", false},
		{"1", true},
		{"true", true},
		{"no reference installed", true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv(name, tt.value)
			assert.Equal(t, tt.skip, policy.ShouldSkip(Case{}))
		})
	}
}

func TestAnySkip(t *testing.T) {
	policy := AnySkip(nil, NeverSkip, SkipCases("sar_3_12"))
	assert.True(t, policy.ShouldSkip(Case{Name: "sar_3_12"}))
	assert.False(t, policy.ShouldSkip(Case{Name: "ar5"}))
	assert.False(t, AnySkip().ShouldSkip(Case{}))
}

func TestCase_ID(t *testing.T) {
	c := Case{Suite: "arima_css", Name: "sma_4_6", Dialect: args.DialectPyDML}
	assert.Equal(t, "arima_css/sma_4_6/pydml", c.ID())
	assert.Equal(t, c.ID(), c.String())
}
