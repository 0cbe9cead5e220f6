package catalog

import (
	"bytes"
	"fmt"
	"os"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/roach88/crosscheck/internal/args"
	"github.com/roach88/crosscheck/internal/harness"
	"github.com/roach88/crosscheck/internal/model"
)

// File is the on-disk shape of a catalog.
type File struct {
	// Name namespaces the suite. Defaults to the variant's script name.
	Name string `yaml:"name"`

	// Variant is "training" or "css".
	Variant string `yaml:"variant"`

	// Dialects defaults to [dml].
	Dialects []string `yaml:"dialects,omitempty"`

	Cases []CaseSpec `yaml:"cases"`
}

// CaseSpec is one catalog case. Nil fields take the variant defaults.
type CaseSpec struct {
	Name   string `yaml:"name,omitempty"`
	P      *int   `yaml:"p,omitempty"`
	D      *int   `yaml:"d,omitempty"`
	Q      *int   `yaml:"q,omitempty"`
	SP     *int   `yaml:"P,omitempty"`
	SD     *int   `yaml:"D,omitempty"`
	SQ     *int   `yaml:"Q,omitempty"`
	S      *int   `yaml:"s,omitempty"`
	Length *int   `yaml:"length,omitempty"`
	Solver string `yaml:"solver,omitempty"`
}

// Load reads a catalog YAML file.
// Unknown fields are rejected so typos like "solvr:" do not silently fall
// back to a default.
func Load(filename string) (Suite, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Suite{}, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (Suite, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return Suite{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	suite, err := f.Suite()
	if err != nil {
		return Suite{}, fmt.Errorf("invalid catalog: %w", err)
	}
	return suite, nil
}

// Suite converts and validates the file.
func (f File) Suite() (Suite, error) {
	v, err := model.ParseVariant(f.Variant)
	if err != nil {
		return Suite{}, err
	}

	s := Suite{Name: f.Name, Variant: v}
	if s.Name == "" {
		s.Name = v.Script()
	}
	// Suite and case names become workspace directories.
	if err := harness.ValidateName("suite", s.Name); err != nil {
		return Suite{}, err
	}

	for _, name := range f.Dialects {
		d, err := args.ParseDialect(name)
		if err != nil {
			return Suite{}, err
		}
		s.Dialects = append(s.Dialects, d)
	}
	if len(s.Dialects) == 0 {
		s.Dialects = []args.Dialect{args.DialectDML}
	}

	if len(f.Cases) == 0 {
		return Suite{}, fmt.Errorf("cases list is required and must be non-empty")
	}

	seen := make(map[string]int, len(f.Cases))
	for i, c := range f.Cases {
		o, err := c.order(v)
		if err != nil {
			return Suite{}, fmt.Errorf("cases[%d]: %w", i, err)
		}
		name := c.Name
		if name == "" {
			name = Name(o)
		}
		if err := harness.ValidateName("case", name); err != nil {
			return Suite{}, fmt.Errorf("cases[%d]: %w", i, err)
		}
		if prev, dup := seen[name]; dup {
			return Suite{}, fmt.Errorf("cases[%d]: duplicate case name %q (first at cases[%d])", i, name, prev)
		}
		seen[name] = i
		s.Entries = append(s.Entries, Entry{Name: name, Order: o})
	}
	return s, nil
}

func (c CaseSpec) order(v model.Variant) (model.Order, error) {
	// Without weights there is nothing for length or solver to shape, and
	// accepting them would change the case name and key for no effect.
	if !v.Capabilities().NeedsWeights {
		if c.Length != nil {
			return model.Order{}, fmt.Errorf("length is not supported by variant %s", v)
		}
		if c.Solver != "" {
			return model.Order{}, fmt.Errorf("solver is not supported by variant %s", v)
		}
	}

	var opts []model.Option
	set := func(p *int, opt func(int) model.Option) {
		if p != nil {
			opts = append(opts, opt(*p))
		}
	}
	set(c.P, model.WithAR)
	set(c.D, model.WithDiff)
	set(c.Q, model.WithMA)
	set(c.SP, model.WithSeasonalAR)
	set(c.SD, model.WithSeasonalDiff)
	set(c.SQ, model.WithSeasonalMA)
	set(c.S, model.WithPeriod)
	set(c.Length, model.WithLength)
	if c.Solver != "" {
		opts = append(opts, model.WithSolver(model.Solver(c.Solver)))
	}

	o, err := model.New(v, opts...)
	if err != nil {
		return model.Order{}, err
	}
	if err := model.ValidateSchema(v, o); err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func matchName(pattern, name string) (bool, error) {
	return path.Match(pattern, name)
}
