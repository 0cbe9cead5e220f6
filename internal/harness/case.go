package harness

import (
	"fmt"

	"github.com/roach88/crosscheck/internal/args"
	"github.com/roach88/crosscheck/internal/model"
)

// Case is one end-to-end run: an order under a variant and dialect.
type Case struct {
	// Suite namespaces the case's working directory.
	Suite string `json:"suite"`

	Name    string        `json:"name"`
	Variant model.Variant `json:"variant"`
	Dialect args.Dialect  `json:"dialect"`
	Order   model.Order   `json:"order"`

	// Tolerance overrides the variant default when positive.
	Tolerance float64 `json:"tolerance,omitempty"`
}

// ID is unique within a run: suite/name/dialect.
func (c Case) ID() string {
	return fmt.Sprintf("%s/%s/%s", c.Suite, c.Name, c.Dialect)
}

func (c Case) String() string {
	return c.ID()
}

// Tol returns the absolute tolerance the case is compared under.
func (c Case) Tol() float64 {
	if c.Tolerance > 0 {
		return c.Tolerance
	}
	return c.Variant.Tolerance()
}

// labels names the two results in mismatch reports.
func (c Case) labels() (reference, sut string) {
	prefix := "arima_model"
	if c.Variant == model.VariantCSS {
		prefix = "arima_css"
	}
	return prefix + "_reference", prefix + "_sut"
}
