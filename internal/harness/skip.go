package harness

import (
	"os"
	"strings"
)

// SkipPolicy decides whether a case is known to be unsupported in the
// current environment. It is consulted once per case, before any side
// effect. A skipped case is neither a pass nor a failure.
type SkipPolicy interface {
	ShouldSkip(c Case) bool
}

// SkipFunc adapts a function to SkipPolicy.
type SkipFunc func(c Case) bool

// ShouldSkip implements SkipPolicy.
func (f SkipFunc) ShouldSkip(c Case) bool { return f(c) }

// NeverSkip runs every case.
var NeverSkip SkipPolicy = SkipFunc(func(Case) bool { return false })

// SkipCases skips cases by name, or by name/dialect to skip one dialect
// only.
func SkipCases(names ...string) SkipPolicy {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return SkipFunc(func(c Case) bool {
		if _, ok := set[c.Name]; ok {
			return true
		}
		_, ok := set[c.Name+"/"+string(c.Dialect)]
		return ok
	})
}

// SkipIfEnv skips every case while the environment variable is set to a
// non-empty value other than "0" or "false".
func SkipIfEnv(name string) SkipPolicy {
	return SkipFunc(func(Case) bool {
		v := strings.TrimSpace(os.Getenv(name))
		return v != "" && v != "0" && !strings.EqualFold(v, "false")
	})
}

// AnySkip skips a case when any of the policies does.
func AnySkip(policies ...SkipPolicy) SkipPolicy {
	return SkipFunc(func(c Case) bool {
		for _, p := range policies {
			if p != nil && p.ShouldSkip(c) {
				return true
			}
		}
		return false
	})
}
