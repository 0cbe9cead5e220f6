package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/crosscheck/internal/args"
	"github.com/roach88/crosscheck/internal/catalog"
	"github.com/roach88/crosscheck/internal/config"
	"github.com/roach88/crosscheck/internal/executor"
	"github.com/roach88/crosscheck/internal/logging"
	"github.com/roach88/crosscheck/internal/model"
	"github.com/roach88/crosscheck/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string

	// Executors builds the two executors for run. Nil launches the
	// configured programs.
	Executors func(cfg *config.Config, log *zap.Logger) (sut, reference executor.Executor)

	// LogWriter receives log output. Nil logs to stderr.
	LogWriter io.Writer

	// StoreOptions are passed to store.Open.
	StoreOptions []store.Option
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the crosscheck CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crosscheck",
		Short: "Differential test harness for SARIMA implementations",
		Long: `crosscheck runs a catalog of SARIMA model orders through a system under
test and a reference implementation on identical inputs, and compares the
two results cell by cell within an absolute tolerance.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default: crosscheck.yaml on the search path)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))
	cmd.AddCommand(NewArgsCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	opts.reportErrors(cmd)

	return cmd
}

// reportErrors routes the command errors of every subcommand through the
// formatter, so JSON callers get a CLIResponse on stdout and not only the
// text main prints to stderr.
func (o *RootOptions) reportErrors(root *cobra.Command) {
	for _, sub := range root.Commands() {
		run := sub.RunE
		if run == nil {
			continue
		}
		sub.RunE = func(cmd *cobra.Command, a []string) error {
			err := run(cmd, a)
			o.emitError(cmd, err)
			return err
		}
	}
}

// emitError writes err as a JSON error response. Text mode and failures
// that already produced a report are left alone.
func (o *RootOptions) emitError(cmd *cobra.Command, err error) {
	var exitErr *ExitError
	if o.Format != "json" || !errors.As(err, &exitErr) || exitErr.Code != ExitCommandError {
		return
	}
	code := exitErr.ErrCode
	if code == "" {
		code = CodeCommand
	}
	var details any
	if exitErr.Err != nil {
		details = exitErr.Err.Error()
	}
	_ = o.formatter(cmd).Error(code, exitErr.Message, details)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout(), Verbose: o.Verbose}
}

// loadConfig loads configuration, letting the named flags of cmd override
// config keys. full requires both executors to be configured.
func (o *RootOptions) loadConfig(cmd *cobra.Command, full bool, flags map[string]string) (*config.Config, error) {
	loader := config.NewLoader()
	if o.ConfigFile != "" {
		loader.SetConfigFile(o.ConfigFile)
	}
	for key, name := range flags {
		if err := loader.BindFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to bind flag", err).WithCode(CodeConfig)
		}
	}

	load := loader.LoadSettings
	if full {
		load = loader.Load
	}
	cfg, err := load()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err).WithCode(CodeConfig)
	}
	return cfg, nil
}

func (o *RootOptions) logger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.Log.Level
	if o.Verbose {
		level = "debug"
	}
	var (
		log *zap.Logger
		err error
	)
	if o.LogWriter != nil {
		log, err = logging.NewWriter(o.LogWriter, level, cfg.Log.Format)
	} else {
		log, err = logging.New(level, cfg.Log.Format)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to set up logging", err).WithCode(CodeConfig)
	}
	return log, nil
}

func (o *RootOptions) openStore(path string) (*store.Store, error) {
	if path == "" {
		return nil, NewExitError(ExitCommandError, "no run ledger configured (set database or pass --db)").WithCode(CodeLedger)
	}
	st, err := store.Open(path, o.StoreOptions...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open run ledger", err).WithCode(CodeLedger)
	}
	return st, nil
}

// suiteFlags selects the cases a command works on.
type suiteFlags struct {
	Dialects []string
	Filter   string
}

func (f *suiteFlags) register(cmd *cobra.Command) {
	cmd.Flags().String("catalog", "", "catalog YAML file (default: built-in catalog for the variant)")
	cmd.Flags().String("variant", "", "variant of the built-in catalog (training|css)")
	cmd.Flags().StringSliceVar(&f.Dialects, "dialect", nil, "dialects to run under (dml,pydml)")
	cmd.Flags().StringVar(&f.Filter, "filter", "", "only cases whose name matches this glob")
}

var suiteBindings = map[string]string{
	"catalog": "catalog",
	"variant": "variant",
}

// resolveSuite loads the catalog named by cfg, or the built-in one, and
// applies dialect and name selection.
func (f *suiteFlags) resolveSuite(cfg *config.Config) (catalog.Suite, error) {
	var suite catalog.Suite
	if cfg.Catalog != "" {
		s, err := catalog.Load(cfg.Catalog)
		if err != nil {
			return catalog.Suite{}, WrapExitError(ExitCommandError, "failed to load catalog", err).WithCode(CodeCatalog)
		}
		suite = s
	} else {
		v, err := model.ParseVariant(cfg.Variant)
		if err != nil {
			return catalog.Suite{}, WrapExitError(ExitCommandError, "invalid variant", err).WithCode(CodeCatalog)
		}
		suite = catalog.DefaultSuite(v)
	}

	if len(f.Dialects) > 0 {
		dialects := make([]args.Dialect, 0, len(f.Dialects))
		for _, name := range f.Dialects {
			d, err := args.ParseDialect(name)
			if err != nil {
				return catalog.Suite{}, WrapExitError(ExitCommandError, "invalid dialect", err).WithCode(CodeCatalog)
			}
			dialects = append(dialects, d)
		}
		suite.Dialects = dialects
	}

	suite, err := suite.Filter(f.Filter)
	if err != nil {
		return catalog.Suite{}, WrapExitError(ExitCommandError, "invalid filter", err).WithCode(CodeCatalog)
	}
	return suite, nil
}
