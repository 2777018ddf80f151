package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/HyungsunSo/AI-NutriCurator/internal/infrastructure/audit"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent runs recorded in the audit database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := audit.NewSQLiteStore(cfg.Audit.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.RecentRuns(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			info("no runs recorded in %s", cfg.Audit.DBPath)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tSTARTED\tTOTAL\tMATCHED\tRATE\tFALLBACK\tCANCELLED")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.1f%%\t%d\t%v\n",
				r.RunID, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				r.Summary.Total, r.Summary.Matched, r.Summary.MatchRate*100,
				r.Summary.Fallback, r.Cancelled)
		}
		return w.Flush()
	},
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 10, "number of runs to show")
	rootCmd.AddCommand(runsCmd)
}
