package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/crosscheck/internal/model"
)

// CatalogOptions holds flags for the catalog command.
type CatalogOptions struct {
	*RootOptions
	suiteFlags
}

// CatalogEntry is one catalog entry in the command output.
type CatalogEntry struct {
	Name     string      `json:"name"`
	Order    model.Order `json:"order"`
	Dialects []string    `json:"dialects"`
}

// CatalogListing is the output of the catalog command.
type CatalogListing struct {
	Suite     string         `json:"suite"`
	Variant   string         `json:"variant"`
	Tolerance float64        `json:"tolerance"`
	Entries   []CatalogEntry `json:"entries"`
	Cases     int            `json:"cases"`
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the cases of a catalog",
		Long: `List the model orders of the built-in catalog for a variant, or of a
catalog file, with the dialects each runs under.

Examples:
  crosscheck catalog
  crosscheck catalog --variant css --dialect dml,pydml
  crosscheck catalog --catalog seasonal.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listCatalog(opts, cmd)
		},
	}

	opts.register(cmd)
	return cmd
}

func listCatalog(opts *CatalogOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig(cmd, false, suiteBindings)
	if err != nil {
		return err
	}
	suite, err := opts.resolveSuite(cfg)
	if err != nil {
		return err
	}

	dialects := make([]string, 0, len(suite.Dialects))
	for _, d := range suite.Dialects {
		dialects = append(dialects, string(d))
	}
	listing := CatalogListing{
		Suite:     suite.Name,
		Variant:   string(suite.Variant),
		Tolerance: suite.Variant.Tolerance(),
		Entries:   make([]CatalogEntry, 0, len(suite.Entries)),
		Cases:     len(suite.Cases()),
	}
	for _, e := range suite.Entries {
		listing.Entries = append(listing.Entries, CatalogEntry{Name: e.Name, Order: e.Order, Dialects: dialects})
	}

	return opts.formatter(cmd).Emit(listing, func(w io.Writer) {
		fmt.Fprintf(w, "Suite %s (%s, tol %g): %d cases\n\n", listing.Suite, listing.Variant, listing.Tolerance, listing.Cases)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tORDER\tDIALECTS")
		for _, e := range listing.Entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, e.Order, strings.Join(e.Dialects, ","))
		}
		tw.Flush()
	})
}
