package cli

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/crosscheck/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
	RunID string
	Key   string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded runs",
		Long: `Show runs recorded in the run ledger, the cases of one run, or every
recorded result of one case key.

Examples:
  crosscheck history --db crosscheck.db
  crosscheck history --run 0192f0c4-...
  crosscheck history --key 3f1a... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showHistory(opts, cmd)
		},
	}

	cmd.Flags().String("db", "", "run ledger database")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "number of runs to list (0 lists all)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show the cases of one run")
	cmd.Flags().StringVar(&opts.Key, "key", "", "show every recorded result of one case key")
	cmd.MarkFlagsMutuallyExclusive("run", "key")

	return cmd
}

// CaseRow is one recorded case in the command output.
type CaseRow struct {
	store.CaseRecord
	MaxAbsDiff *float64 `json:"max_abs_diff,omitempty"`
}

// RunCases is the output of history --run.
type RunCases struct {
	Run   store.Run `json:"run"`
	Cases []CaseRow `json:"cases"`
}

func showHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig(cmd, false, map[string]string{"database": "db"})
	if err != nil {
		return err
	}
	st, err := opts.openStore(cfg.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	f := opts.formatter(cmd)

	switch {
	case opts.RunID != "":
		run, err := st.ReadRun(ctx, opts.RunID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read run", err).WithCode(CodeLedger)
		}
		recs, err := st.ReadCases(ctx, opts.RunID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read cases", err).WithCode(CodeLedger)
		}
		out := RunCases{Run: run, Cases: caseRows(recs)}
		return f.Emit(out, func(w io.Writer) {
			writeRunsText(w, []store.Run{run})
			fmt.Fprintln(w)
			writeCasesText(w, out.Cases, false)
		})

	case opts.Key != "":
		recs, err := st.CaseHistory(ctx, opts.Key)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read case history", err).WithCode(CodeLedger)
		}
		rows := caseRows(recs)
		return f.Emit(rows, func(w io.Writer) {
			if len(rows) == 0 {
				fmt.Fprintln(w, "No results recorded for this case.")
				return
			}
			writeCasesText(w, rows, true)
		})

	default:
		runs, err := st.ListRuns(ctx, opts.Limit)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err).WithCode(CodeLedger)
		}
		return f.Emit(runs, func(w io.Writer) {
			if len(runs) == 0 {
				fmt.Fprintln(w, "No runs recorded.")
				return
			}
			writeRunsText(w, runs)
		})
	}
}

func caseRows(recs []store.CaseRecord) []CaseRow {
	rows := make([]CaseRow, 0, len(recs))
	for _, rec := range recs {
		row := CaseRow{CaseRecord: rec}
		if d := rec.MaxAbsDiff; !math.IsNaN(d) {
			row.MaxAbsDiff = &d
		}
		rows = append(rows, row)
	}
	return rows
}

func writeRunsText(w io.Writer, runs []store.Run) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSUITE\tVARIANT\tSTARTED\tPASS\tFAIL\tSKIP\tERROR\tSTATE")
	for _, r := range runs {
		state := "running"
		if r.Finished() {
			state = "finished"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.ID, r.Suite, r.Variant, r.StartedAt.Format(time.RFC3339),
			r.Passed, r.Failed, r.Skipped, r.Errored, state)
	}
	tw.Flush()
}

func writeCasesText(w io.Writer, rows []CaseRow, withRun bool) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if withRun {
		fmt.Fprint(tw, "RUN\t")
	}
	fmt.Fprintln(tw, "SEQ\tCASE\tDIALECT\tSTATUS\tMAX |DIFF|\tDETAIL")
	for _, r := range rows {
		diff := "-"
		if r.MaxAbsDiff != nil {
			diff = strconv.FormatFloat(*r.MaxAbsDiff, 'g', 6, 64)
		}
		if withRun {
			fmt.Fprintf(tw, "%s\t", r.RunID)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", r.Seq, r.Name, r.Dialect, r.Status, diff, r.Detail)
	}
	tw.Flush()
}
