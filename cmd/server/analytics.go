package main

import (
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/coopcredit-guard/internal/analytics"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/encoding"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/history"
)

type analyticsOptions struct {
	dataDir string
	format  string
}

type analyticsOutput struct {
	Summary analytics.Summary `json:"summary" yaml:"summary"`
	Report  analytics.Report  `json:"report" yaml:"report"`
}

func newAnalyticsCmd() *cobra.Command {
	opts := &analyticsOptions{}

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Summarize the recorded history in a SQLite data directory",
		Long: `Analytics opens the history database in --data-dir and prints the same
summary and report that GET /analytics returns.`,
		Example: `  coopcredit analytics --data-dir ./data
  coopcredit analytics --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalytics(cmd, opts)
		},
	}

	defaultDir := os.Getenv("DATA_DIR")
	if defaultDir == "" {
		defaultDir = "./data"
	}

	cmd.Flags().StringVar(&opts.dataDir, "data-dir", defaultDir, "Directory holding the history database")
	cmd.Flags().StringVarP(&opts.format, "format", "o", "json", "Output format: json or yaml")

	return cmd
}

func runAnalytics(cmd *cobra.Command, opts *analyticsOptions) error {
	format, err := encoding.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	store, err := history.OpenSQLite(opts.dataDir, history.DefaultPoolConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(cmd.Context())
	if err != nil {
		return err
	}

	summary := analytics.Aggregate(entries)
	cmd.PrintErrf("Summarized %s predictions from %s\n", humanize.Comma(int64(len(entries))), opts.dataDir)

	return encoding.Encode(cmd.OutOrStdout(), analyticsOutput{
		Summary: summary,
		Report:  analytics.NewReport(summary),
	}, format)
}
