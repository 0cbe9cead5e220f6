package model

import (
	"fmt"
	"strings"
)

// Order is the canonical seasonal ARIMA parameter tuple {p,d,q,P,D,Q,s}.
//
// P, D and Q are the non-seasonal autoregressive, difference and
// moving-average orders; SP, SD and SQ are their seasonal counterparts and S
// is the seasonal period. Length and Solver are only meaningful for the CSS
// variant.
//
// Order is a value type. Build one with New or a shorthand helper; it is not
// modified afterwards.
type Order struct {
	P  int `json:"p" yaml:"p"`
	D  int `json:"d" yaml:"d"`
	Q  int `json:"q" yaml:"q"`
	SP int `json:"P" yaml:"P"`
	SD int `json:"D" yaml:"D"`
	SQ int `json:"Q" yaml:"Q"`
	S  int `json:"s" yaml:"s"`

	Length int    `json:"length" yaml:"length"`
	Solver Solver `json:"solver" yaml:"solver"`
}

// ConfigError reports an order that violates the tuple invariants.
type ConfigError struct {
	Field   string
	Value   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid order: %s=%s: %s", e.Field, e.Value, e.Message)
}

// Option sets one field of an Order under construction.
type Option func(*Order)

func WithAR(p int) Option { return func(o *Order) { o.P = p } }
func WithDiff(d int) Option { return func(o *Order) { o.D = d } }
func WithMA(q int) Option { return func(o *Order) { o.Q = q } }
func WithSeasonalAR(p int) Option { return func(o *Order) { o.SP = p } }
func WithSeasonalDiff(d int) Option { return func(o *Order) { o.SD = d } }
func WithSeasonalMA(q int) Option { return func(o *Order) { o.SQ = q } }
func WithPeriod(s int) Option { return func(o *Order) { o.S = s } }
func WithLength(n int) Option { return func(o *Order) { o.Length = n } }
func WithSolver(name Solver) Option { return func(o *Order) { o.Solver = name } }

// Defaults returns the order every shorthand starts from.
// Training assumes a weekly period; CSS never defaults the period and
// carries a generated series length and solver instead.
func Defaults(v Variant) Order {
	if v == VariantCSS {
		return Order{Length: DefaultLength, Solver: SolverJacobi}
	}
	return Order{S: DefaultPeriod}
}

// New builds an Order for the variant, filling unspecified fields with the
// variant defaults, and validates the result.
func New(v Variant, opts ...Option) (Order, error) {
	o := Defaults(v)
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.Validate(v); err != nil {
		return Order{}, err
	}
	return o, nil
}

// MustNew is like New but panics if the order is invalid.
// It is meant for the hand-curated catalog, where an invalid tuple is a
// programming error.
func MustNew(v Variant, opts ...Option) Order {
	o, err := New(v, opts...)
	if err != nil {
		panic(err)
	}
	return o
}

// Validate checks the tuple invariants for the variant.
func (o Order) Validate(v Variant) error {
	fields := []struct {
		name  string
		value int
	}{
		{"p", o.P}, {"d", o.D}, {"q", o.Q},
		{"P", o.SP}, {"D", o.SD}, {"Q", o.SQ},
		{"s", o.S},
	}
	for _, f := range fields {
		if f.value < 0 {
			return &ConfigError{Field: f.name, Value: fmt.Sprint(f.value), Message: "must be non-negative"}
		}
	}

	if o.Seasonal() && o.S <= 0 {
		return &ConfigError{Field: "s", Value: fmt.Sprint(o.S), Message: "seasonal orders require a positive period"}
	}

	if v == VariantCSS {
		if o.Length <= 0 {
			return &ConfigError{Field: "length", Value: fmt.Sprint(o.Length), Message: "must be positive"}
		}
		if !o.Solver.Valid() {
			return &ConfigError{Field: "solver", Value: string(o.Solver), Message: fmt.Sprintf("must be one of %v", Solvers)}
		}
	}
	return nil
}

// Seasonal reports whether any seasonal order is non-zero.
func (o Order) Seasonal() bool {
	return o.SP != 0 || o.SD != 0 || o.SQ != 0
}

// WeightsLen is the number of AR and MA coefficients, seasonal included.
func (o Order) WeightsLen() int {
	return o.P + o.Q + o.SP + o.SQ
}

// NonSeasonal returns "p,d,q".
func (o Order) NonSeasonal() string {
	return fmt.Sprintf("%d,%d,%d", o.P, o.D, o.Q)
}

// SeasonalTriple returns "P,D,Q".
func (o Order) SeasonalTriple() string {
	return fmt.Sprintf("%d,%d,%d", o.SP, o.SD, o.SQ)
}

// String formats the order in Box-Jenkins notation, e.g. SARIMA(1,0,2)(0,1,4)[7].
func (o Order) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "SARIMA(%s)(%s)[%d]", o.NonSeasonal(), o.SeasonalTriple(), o.S)
	if o.Solver != "" {
		fmt.Fprintf(&b, " n=%d solver=%s", o.Length, o.Solver)
	}
	return b.String()
}
