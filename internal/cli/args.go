package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/crosscheck/internal/args"
	"github.com/roach88/crosscheck/internal/caseid"
	"github.com/roach88/crosscheck/internal/harness"
)

// ArgsOptions holds flags for the args command.
type ArgsOptions struct {
	*RootOptions
	suiteFlags
}

// ArgsProjection is the output of the args command.
type ArgsProjection struct {
	Case      string   `json:"case"`
	Key       string   `json:"case_key"`
	SUT       []string `json:"sut"`
	Reference []string `json:"reference"`
}

// NewArgsCommand creates the args command.
func NewArgsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ArgsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "args <case>",
		Short: "Print the argument sets a case would run with",
		Long: `Print both projected argument sets of a catalog case without running
anything. Paths point into the case's workspace namespace.

Examples:
  crosscheck args ar5 --variant css
  crosscheck args sarima_1_1_1_1_1_1_7 --dialect pydml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, a []string) error {
			return projectArgs(opts, a[0], cmd)
		},
	}

	opts.register(cmd)
	cmd.Flags().String("workspace", "", "workspace root")
	cmd.Flags().String("fixed-input", "", "predefined training series")
	return cmd
}

func projectArgs(opts *ArgsOptions, name string, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig(cmd, false, map[string]string{
		"catalog":     "catalog",
		"variant":     "variant",
		"workspace":   "workspace",
		"fixed_input": "fixed-input",
	})
	if err != nil {
		return err
	}
	suite, err := opts.resolveSuite(cfg)
	if err != nil {
		return err
	}

	entry, ok := suite.Lookup(name)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("case %q not found in suite %s", name, suite.Name)).WithCode(CodeCatalog)
	}

	var projections []ArgsProjection
	for _, c := range suite.Cases() {
		if c.Name != entry.Name {
			continue
		}
		ns := harness.Workspace{Root: cfg.Workspace}.Namespace(c)
		loc := harness.Locations(c, ns, cfg.FixedInput, harness.DefaultWriter(ns.In))
		pair := args.Project(c.Variant, c.Dialect, c.Order, loc)
		key, err := caseid.Key(c)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to derive case key", err)
		}
		projections = append(projections, ArgsProjection{
			Case:      c.ID(),
			Key:       key,
			SUT:       pair.SUT,
			Reference: pair.Reference,
		})
	}

	return opts.formatter(cmd).Emit(projections, func(w io.Writer) {
		for i, p := range projections {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "%s\n", p.Case)
			fmt.Fprintf(w, "  sut:       %s\n", joinArgs(p.SUT))
			fmt.Fprintf(w, "  reference: %s\n", joinArgs(p.Reference))
		}
	})
}

func joinArgs(argv []string) string {
	return strings.Join(argv, " ")
}
