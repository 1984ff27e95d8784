package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-bench/internal/duckdb"
	"github.com/inodb/vibe-bench/internal/output"
	"github.com/inodb/vibe-bench/internal/variant"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List benchmark runs recorded with --db",
		Example: `  vibe-bench history --db runs.duckdb
  vibe-bench history show 6f1c... --db runs.duckdb`,
		Args: checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return writeHistory(cmd, store, runs)
		},
	}
	cmd.PersistentFlags().String("db", "", "DuckDB file holding recorded runs")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Show at most this many runs (0 for all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the text report of a recorded run",
		Args:  checkArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return usagef("invalid run id %q: %v", args[0], err)
			}
			store, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.RunStats(cmd.Context(), id)
			if err != nil {
				return err
			}
			return output.WriteText(cmd.OutOrStdout(), &output.Report{Stats: stats})
		},
	})

	return cmd
}

// openHistory opens the store named by --db, falling back to the db
// config key.
func openHistory(cmd *cobra.Command) (*duckdb.Store, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = viper.GetString("db")
	}
	if path == "" {
		return nil, usagef("no results database: pass --db or set db in the config")
	}
	return duckdb.Open(path)
}

func writeHistory(cmd *cobra.Command, store *duckdb.Store, runs []duckdb.Run) error {
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCREATED\tLABEL\tSNP P\tSNP R\tINDEL P\tINDEL R\tTRUTH\tPRED")
	for _, r := range runs {
		stats, err := store.RunStats(cmd.Context(), r.ID)
		if err != nil {
			return err
		}
		snp := stats.Get(variant.SNP)
		indel := stats.Sum(variant.Type.IsIndel)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), orDash(r.Label),
			pct(snp.Precision()), pct(snp.Recall()),
			pct(indel.Precision()), pct(indel.Recall()),
			inputPath(r, "truth"), inputPath(r, "pred"))
	}
	return tw.Flush()
}

func pct(f float64) string {
	return fmt.Sprintf("%.1f", 100*f)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func inputPath(r duckdb.Run, role string) string {
	for _, in := range r.Inputs {
		if in.Role == role {
			return in.Path
		}
	}
	return "-"
}
