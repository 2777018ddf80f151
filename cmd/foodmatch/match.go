package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/HyungsunSo/AI-NutriCurator/internal/app"
	"github.com/HyungsunSo/AI-NutriCurator/internal/infrastructure/csvio"
	"github.com/HyungsunSo/AI-NutriCurator/internal/platform/logger"
	"github.com/HyungsunSo/AI-NutriCurator/internal/usecase"
)

var matchFlags struct {
	catalog  string
	queries  string
	out      string
	auditOut string
	oracle   string
	noBar    bool
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match a raw product CSV and write the enriched result",
	Long: `match loads the reference catalog and the raw product table, resolves every
product name, and writes two CSV files: the raw table enriched with the match
and nutrient columns, and a short audit log of every decision.`,
	RunE: runMatch,
}

func init() {
	f := matchCmd.Flags()
	f.StringVar(&matchFlags.catalog, "catalog", "", "reference catalog CSV (overrides catalog.path)")
	f.StringVar(&matchFlags.queries, "queries", "", "raw product CSV (overrides queries.path)")
	f.StringVarP(&matchFlags.out, "out", "o", "", "result CSV (overrides output.path)")
	f.StringVar(&matchFlags.auditOut, "audit-out", "", "audit CSV (overrides output.log_path)")
	f.StringVar(&matchFlags.oracle, "oracle", "", "oracle provider: none, openai or http (overrides oracle.provider)")
	f.BoolVar(&matchFlags.noBar, "no-progress", false, "disable the progress bar")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	override(&cfg.Catalog.Path, matchFlags.catalog)
	override(&cfg.Queries.Path, matchFlags.queries)
	override(&cfg.Output.Path, matchFlags.out)
	override(&cfg.Output.LogPath, matchFlags.auditOut)
	override(&cfg.Oracle.Provider, matchFlags.oracle)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Queries.Path == "" {
		return fmt.Errorf("queries path is required (--queries or queries.path)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	step(1, 4, "loading data")
	table, err := csvio.LoadQueriesFile(cfg.Queries.Path, app.SourceOptions(cfg.Queries))
	if err != nil {
		return fmt.Errorf("load queries: %w", err)
	}
	// rows must line up with the ordinals the pipeline assigns
	table = table.Filter(func(name string) bool { return usecase.Normalize(name) != "" })
	queries := table.Names()

	var bar *progress
	opts := app.Options{}
	if !matchFlags.noBar {
		bar = newProgress("adjudicating")
		opts.OnBatch = bar.update
	}

	step(2, 4, "building lexical index")
	var a *app.App
	err = withSpinner("indexing catalog", func() error {
		var err error
		a, err = app.New(ctx, cfg, opts)
		return err
	})
	if err != nil {
		return err
	}
	defer a.Close()
	info("catalog: %d records, queries: %d", a.Catalog.Len(), len(queries))

	step(3, 4, fmt.Sprintf("retrieving and adjudicating (oracle %q)", cfg.Oracle.Provider))
	report, err := a.Matcher.Run(ctx, queries)
	bar.finish()
	if err != nil {
		return err
	}
	if report.Cancelled {
		warn("run was interrupted; unresolved batches fell back to the top candidate")
	}

	step(4, 4, "writing results")
	attrs := csvio.AvailableAttributes(a.Catalog)
	if err := csvio.WriteResultsFile(cfg.Output.Path, table, report.Records, attrs); err != nil {
		return err
	}
	if err := csvio.WriteAuditLogFile(cfg.Output.LogPath, report.Records, attrs); err != nil {
		return err
	}
	logger.Named("cli").Debug().Str("result", cfg.Output.Path).Str("audit", cfg.Output.LogPath).Msg("outputs written")

	printSummary(report, cfg.Output.Path, cfg.Output.LogPath)
	return nil
}

func override(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
