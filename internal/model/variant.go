package model

import "fmt"

// Variant selects which ARIMA script family a case exercises.
//
// The two variants share one harness; what differs between them is captured
// by Capabilities and the comparison tolerance.
type Variant string

const (
	// VariantTraining fits a full model on a fixed, predefined series and
	// compares the learnt parameter vector.
	VariantTraining Variant = "training"

	// VariantCSS evaluates the conditional sum-of-squares objective for a
	// generated series and weight vector and compares the resulting scalar.
	VariantCSS Variant = "css"
)

// Default comparison tolerances.
const (
	TrainingTolerance = 1e-4
	CSSTolerance      = 1e-8
)

// DefaultPeriod is the seasonal period the training variant assumes when a
// shorthand does not name one.
const DefaultPeriod = 7

// DefaultLength is the generated series length for the CSS variant.
const DefaultLength = 120

// Capabilities describes what a variant needs from the harness.
type Capabilities struct {
	// NeedsWeights is true when a weights vector must be generated and
	// passed to both executors.
	NeedsWeights bool

	// UsesFixedInput is true when the input series is a predefined file
	// rather than freshly generated data.
	UsesFixedInput bool

	// OutputIsScalar is true when each executor writes a single value.
	OutputIsScalar bool
}

// Variants lists the known variants in a stable order.
var Variants = []Variant{VariantTraining, VariantCSS}

// ParseVariant converts a name into a Variant.
func ParseVariant(name string) (Variant, error) {
	switch Variant(name) {
	case VariantTraining, VariantCSS:
		return Variant(name), nil
	default:
		return "", fmt.Errorf("unknown variant %q: must be one of %v", name, Variants)
	}
}

// Capabilities returns the capability descriptor for the variant.
func (v Variant) Capabilities() Capabilities {
	switch v {
	case VariantCSS:
		return Capabilities{NeedsWeights: true, OutputIsScalar: true}
	default:
		return Capabilities{UsesFixedInput: true}
	}
}

// Tolerance returns the default absolute comparison tolerance.
// CSS output is a single evaluated scalar, so only round-off is expected.
func (v Variant) Tolerance() float64 {
	if v == VariantCSS {
		return CSSTolerance
	}
	return TrainingTolerance
}

// Script returns the test script name used for the variant.
func (v Variant) Script() string {
	if v == VariantCSS {
		return "arima_css"
	}
	return "arima_training"
}

// Solver names the optimisation method the CSS script uses.
type Solver string

const (
	SolverJacobi     Solver = "jacobi"
	SolverForwardSub Solver = "forwardsub"
)

// Solvers lists the accepted solver names.
var Solvers = []Solver{SolverJacobi, SolverForwardSub}

// Valid reports whether s is a known solver.
func (s Solver) Valid() bool {
	for _, known := range Solvers {
		if s == known {
			return true
		}
	}
	return false
}
