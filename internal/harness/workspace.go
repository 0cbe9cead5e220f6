package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/crosscheck/internal/args"
	"github.com/roach88/crosscheck/internal/dataset"
	"github.com/roach88/crosscheck/internal/matrix"
)

// OutputName is the file both executors write their result to.
const OutputName = "learnt.model"

// Workspace lays out per-case directories under Root.
type Workspace struct {
	Root string
}

// Namespace is the directory tree owned by one case.
type Namespace struct {
	Dir      string
	In       string
	Out      string
	Expected string
}

// Output is where the system under test writes its result.
func (n Namespace) Output() string { return filepath.Join(n.Out, OutputName) }

// ExpectedOutput is where the reference writes its result.
func (n Namespace) ExpectedOutput() string { return filepath.Join(n.Expected, OutputName) }

// ValidateName checks that name can be used as one directory level of a
// namespace. Separators, "." and ".." are rejected: they would let two
// cases share a namespace, or place one outside the workspace root.
func ValidateName(kind, name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%s name is empty", kind)
	case name == "." || name == "..":
		return fmt.Errorf("%s name %q is not a directory name", kind, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%s name %q contains a path separator", kind, name)
	case filepath.Clean(name) != name:
		return fmt.Errorf("%s name %q is not in clean form", kind, name)
	}
	return nil
}

// Namespace returns the case's directories without touching the disk.
func (w Workspace) Namespace(c Case) Namespace {
	dir := filepath.Join(w.Root, c.Suite, c.Name, string(c.Dialect))
	return Namespace{
		Dir:      dir,
		In:       filepath.Join(dir, "in"),
		Out:      filepath.Join(dir, "out"),
		Expected: filepath.Join(dir, "expected"),
	}
}

// Prepare creates a fresh namespace for the case, removing anything a
// previous run left behind.
func (w Workspace) Prepare(c Case) (Namespace, error) {
	if w.Root == "" {
		return Namespace{}, fmt.Errorf("workspace root is not set")
	}
	for _, part := range []struct{ kind, name string }{
		{"suite", c.Suite},
		{"case", c.Name},
		{"dialect", string(c.Dialect)},
	} {
		if err := ValidateName(part.kind, part.name); err != nil {
			return Namespace{}, err
		}
	}

	ns := w.Namespace(c)
	// RemoveAll below must never reach outside Root.
	rel, err := filepath.Rel(filepath.Clean(w.Root), ns.Dir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return Namespace{}, fmt.Errorf("namespace %s is outside workspace %s", ns.Dir, w.Root)
	}

	if err := os.RemoveAll(ns.Dir); err != nil {
		return Namespace{}, fmt.Errorf("failed to reset %s: %w", ns.Dir, err)
	}
	for _, dir := range []string{ns.In, ns.Out, ns.Expected} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Namespace{}, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return ns, nil
}

// Clean removes the case namespace.
func (w Workspace) Clean(ns Namespace) error {
	if err := os.RemoveAll(ns.Dir); err != nil {
		return fmt.Errorf("failed to clean %s: %w", ns.Dir, err)
	}
	return nil
}

// DefaultWriter writes Matrix Market inputs into dir.
func DefaultWriter(dir string) matrix.InputWriter {
	return matrix.FSWriter{Dir: dir}
}

// Locations returns the paths a case reads and writes. The fixed series
// replaces the generated one for variants that use it; otherwise inputs
// are wherever w puts them. Run executes with exactly these paths.
func Locations(c Case, ns Namespace, fixed string, w matrix.InputWriter) args.Locations {
	loc := args.Locations{
		Output:   ns.Output(),
		Expected: ns.ExpectedOutput(),
	}
	if readsFixed(c, fixed) {
		loc.Input = fixed
		return loc
	}
	loc.Input = w.Path(dataset.SeriesName)
	if c.Variant.Capabilities().NeedsWeights {
		loc.Weights = w.Path(dataset.WeightsName)
	}
	return loc
}

func readsFixed(c Case, fixed string) bool {
	return fixed != "" && c.Variant.Capabilities().UsesFixedInput
}
