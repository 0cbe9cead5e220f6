package model

// Shorthand constructors for the model families used in the catalog.
// Each one names only the orders its family has and leaves the rest to the
// variant defaults. They panic on an invalid tuple; use New for input that
// did not come from a fixed catalog.

// AR builds an AR(p) order.
func AR(v Variant, p int) Order {
	return MustNew(v, WithAR(p))
}

// MA builds an MA(q) order.
func MA(v Variant, q int) Order {
	return MustNew(v, WithMA(q))
}

// ARMA builds an ARMA(p,q) order.
func ARMA(v Variant, p, q int) Order {
	return MustNew(v, WithAR(p), WithMA(q))
}

// ARIMA builds an ARIMA(p,d,q) order.
func ARIMA(v Variant, p, d, q int) Order {
	return MustNew(v, WithAR(p), WithDiff(d), WithMA(q))
}

// SAR builds a purely seasonal AR(P) order with period s.
func SAR(v Variant, sp, s int) Order {
	return MustNew(v, WithSeasonalAR(sp), WithPeriod(s))
}

// SMA builds a purely seasonal MA(Q) order with period s.
func SMA(v Variant, sq, s int) Order {
	return MustNew(v, WithSeasonalMA(sq), WithPeriod(s))
}

// SARMA builds a seasonal ARMA(P,Q) order with period s.
func SARMA(v Variant, sp, sq, s int) Order {
	return MustNew(v, WithSeasonalAR(sp), WithSeasonalMA(sq), WithPeriod(s))
}

// SARIMA builds the full order with the variant's default solver and length.
func SARIMA(v Variant, p, d, q, sp, sd, sq, s int) Order {
	return MustNew(v,
		WithAR(p), WithDiff(d), WithMA(q),
		WithSeasonalAR(sp), WithSeasonalDiff(sd), WithSeasonalMA(sq),
		WithPeriod(s))
}

// SARIMAWithSolver builds the full CSS order with an explicit solver.
func SARIMAWithSolver(p, d, q, sp, sd, sq, s int, solver Solver) Order {
	return CustomSARIMA(DefaultLength, p, d, q, sp, sd, sq, s, solver)
}

// CustomSARIMA builds the full CSS order with an explicit series length and solver.
func CustomSARIMA(length, p, d, q, sp, sd, sq, s int, solver Solver) Order {
	return MustNew(VariantCSS,
		WithLength(length),
		WithAR(p), WithDiff(d), WithMA(q),
		WithSeasonalAR(sp), WithSeasonalDiff(sd), WithSeasonalMA(sq),
		WithPeriod(s),
		WithSolver(solver))
}
