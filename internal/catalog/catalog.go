// Package catalog holds the hand-curated lists of model orders the harness
// runs, and loads additional catalogs from YAML files.
//
// A catalog is a fixed list, never derived combinatorially at run time:
//
//	name: arima_css
//	variant: css
//	dialects: [dml, pydml]
//	cases:
//	  - {p: 5}
//	  - {name: seasonal_fs, p: 1, q: 2, D: 1, Q: 4, s: 7, solver: forwardsub}
//
// Fields omitted from a case take the variant defaults of model.New.
package catalog

import (
	"fmt"
	"strings"

	"github.com/roach88/crosscheck/internal/args"
	"github.com/roach88/crosscheck/internal/harness"
	"github.com/roach88/crosscheck/internal/model"
)

// Entry is one named order in a catalog.
type Entry struct {
	Name  string
	Order model.Order
}

// Suite is a catalog bound to a variant and the dialects it runs under.
type Suite struct {
	// Name namespaces the suite's working directories.
	Name string

	Variant model.Variant

	// Dialects lists the front-end dialects each entry runs under.
	// Empty means the default dialect only.
	Dialects []args.Dialect

	Entries []Entry
}

// Default returns the built-in catalog for the variant.
func Default(v model.Variant) []Entry {
	var orders []model.Order
	switch v {
	case model.VariantCSS:
		orders = []model.Order{
			model.AR(v, 5),
			model.MA(v, 7),
			model.ARMA(v, 4, 6),
			model.ARIMA(v, 3, 2, 3),
			model.SAR(v, 3, 12),
			model.SMA(v, 4, 6),
			model.SARMA(v, 2, 6, 3),
			model.SARIMA(v, 3, 2, 4, 2, 1, 3, 12),
			model.SARIMAWithSolver(1, 0, 2, 0, 1, 4, 7, model.SolverForwardSub),
			model.SARIMAWithSolver(10, 3, 1, 4, 2, 4, 2, model.SolverForwardSub),
		}
	default:
		orders = []model.Order{
			model.AR(v, 1),
			model.AR(v, 5),
			model.AR(v, 20),
		}
	}

	entries := make([]Entry, len(orders))
	for i, o := range orders {
		entries[i] = Entry{Name: Name(o), Order: o}
	}
	return entries
}

// DefaultSuite returns the built-in suite for the variant, run under the
// default dialect.
func DefaultSuite(v model.Variant) Suite {
	return Suite{
		Name:     v.Script(),
		Variant:  v,
		Dialects: []args.Dialect{args.DialectDML},
		Entries:  Default(v),
	}
}

// Name derives a case name from an order, following the shorthand family
// the order belongs to: ar5, arma_4_6, sar_3_12, sarima_3_2_4_2_1_3_12.
// A non-default solver is appended.
func Name(o model.Order) string {
	var base string
	switch {
	case o.Seasonal() && o.P == 0 && o.D == 0 && o.Q == 0 && o.SD == 0:
		switch {
		case o.SQ == 0:
			base = join("sar", o.SP, o.S)
		case o.SP == 0:
			base = join("sma", o.SQ, o.S)
		default:
			base = join("sarma", o.SP, o.SQ, o.S)
		}
	case o.Seasonal():
		base = join("sarima", o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.S)
	case o.D != 0:
		base = join("arima", o.P, o.D, o.Q)
	case o.Q == 0:
		base = fmt.Sprintf("ar%d", o.P)
	case o.P == 0:
		base = fmt.Sprintf("ma%d", o.Q)
	default:
		base = join("arma", o.P, o.Q)
	}

	if o.Solver != "" && o.Solver != model.SolverJacobi {
		base += "_" + string(o.Solver)
	}
	return base
}

func join(family string, orders ...int) string {
	parts := make([]string, 0, len(orders)+1)
	parts = append(parts, family)
	for _, n := range orders {
		parts = append(parts, fmt.Sprint(n))
	}
	return strings.Join(parts, "_")
}

// Cases expands the suite into harness cases, entries outermost.
func (s Suite) Cases() []harness.Case {
	dialects := s.Dialects
	if len(dialects) == 0 {
		dialects = []args.Dialect{args.DialectDML}
	}

	cases := make([]harness.Case, 0, len(s.Entries)*len(dialects))
	for _, e := range s.Entries {
		for _, d := range dialects {
			cases = append(cases, harness.Case{
				Suite:   s.Name,
				Name:    e.Name,
				Variant: s.Variant,
				Dialect: d,
				Order:   e.Order,
			})
		}
	}
	return cases
}

// Filter returns the entries whose names match pattern (path.Match syntax).
// An empty pattern matches everything.
func (s Suite) Filter(pattern string) (Suite, error) {
	if pattern == "" {
		return s, nil
	}
	out := s
	out.Entries = nil
	for _, e := range s.Entries {
		ok, err := matchName(pattern, e.Name)
		if err != nil {
			return Suite{}, fmt.Errorf("bad filter %q: %w", pattern, err)
		}
		if ok {
			out.Entries = append(out.Entries, e)
		}
	}
	return out, nil
}

// Lookup finds an entry by name.
func (s Suite) Lookup(name string) (Entry, bool) {
	for _, e := range s.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}
