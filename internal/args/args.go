// Package args projects a model order and its file locations onto the two
// argument conventions the harness drives.
//
// The system under test takes keyed name=value arguments after a fixed
// -nvargs marker; the reference takes positional arguments. Both encode the
// same case:
//
//	SUT:       [-python] -nvargs X=in p=1 d=0 q=2 P=0 D=1 Q=4 s=7 dest=out
//	reference: in "1,0,2" "0,1,4" 7 expected
package args

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/crosscheck/internal/model"
)

// Dialect selects the front end the system under test parses its script
// with.
type Dialect string

const (
	DialectDML   Dialect = "dml"
	DialectPyDML Dialect = "pydml"
)

// Dialects lists the known dialects.
var Dialects = []Dialect{DialectDML, DialectPyDML}

// ParseDialect converts a name into a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch Dialect(name) {
	case DialectDML, DialectPyDML:
		return Dialect(name), nil
	default:
		return "", fmt.Errorf("unknown dialect %q: must be one of %v", name, Dialects)
	}
}

// Markers and fixed tokens of the SUT convention.
const (
	KeyedMarker  = "-nvargs"
	PythonMarker = "-python"
	ResultFormat = "MM"
)

// Recognized SUT argument names.
const (
	KeyInput        = "X"
	KeyWeights      = "weights_src"
	KeySolver       = "solver"
	KeyResultFormat = "result_formate"
	KeyDest         = "dest"
)

// Locations are the paths a case reads from and writes to.
type Locations struct {
	Input    string
	Weights  string
	Output   string
	Expected string
}

// Set is one executor invocation.
type Set []string

func (s Set) String() string {
	return strings.Join(s, " ")
}

// Pair holds both projections of one case.
type Pair struct {
	SUT       Set
	Reference Set
}

// Project builds both argument sets.
func Project(v model.Variant, d Dialect, o model.Order, loc Locations) Pair {
	return Pair{
		SUT:       SUT(v, d, o, loc),
		Reference: Reference(v, o, loc),
	}
}

// SUT builds the keyed argument set for the system under test.
func SUT(v model.Variant, d Dialect, o model.Order, loc Locations) Set {
	caps := v.Capabilities()

	var s Set
	if d == DialectPyDML {
		s = append(s, PythonMarker)
	}
	s = append(s, KeyedMarker, kv(KeyInput, loc.Input))
	if caps.NeedsWeights {
		s = append(s, kv(KeyWeights, loc.Weights))
	}
	s = append(s,
		kv("p", itoa(o.P)),
		kv("d", itoa(o.D)),
		kv("q", itoa(o.Q)),
		kv("P", itoa(o.SP)),
		kv("D", itoa(o.SD)),
		kv("Q", itoa(o.SQ)),
		kv("s", itoa(o.S)),
	)
	if caps.NeedsWeights {
		s = append(s, kv(KeySolver, string(o.Solver)), kv(KeyResultFormat, ResultFormat))
	}
	return append(s, kv(KeyDest, loc.Output))
}

// Reference builds the positional argument set for the reference:
// input, "p,d,q", "P,D,Q", s, variant extras, expected output.
// The CSS variant passes the weights path as its extra.
func Reference(v model.Variant, o model.Order, loc Locations) Set {
	s := Set{loc.Input, o.NonSeasonal(), o.SeasonalTriple(), itoa(o.S)}
	if v.Capabilities().NeedsWeights {
		s = append(s, loc.Weights)
	}
	return append(s, loc.Expected)
}

// Keyed returns the name=value pairs of a SUT argument set and the dialect
// implied by its leading tokens.
func Keyed(s Set) (map[string]string, Dialect, error) {
	d := DialectDML
	rest := []string(s)
	if len(rest) > 0 && rest[0] == PythonMarker {
		d = DialectPyDML
		rest = rest[1:]
	}
	if len(rest) == 0 || rest[0] != KeyedMarker {
		return nil, "", fmt.Errorf("missing %s marker in %q", KeyedMarker, s.String())
	}

	out := make(map[string]string, len(rest)-1)
	for _, tok := range rest[1:] {
		k, v, ok := strings.Cut(tok, "=")
		if !ok || k == "" {
			return nil, "", fmt.Errorf("argument %q is not name=value", tok)
		}
		if _, dup := out[k]; dup {
			return nil, "", fmt.Errorf("argument %q given twice", k)
		}
		out[k] = v
	}
	return out, d, nil
}

func kv(k, v string) string { return k + "=" + v }

func itoa(n int) string { return strconv.Itoa(n) }
