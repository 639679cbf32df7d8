package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/coopcredit-guard/internal/encoding"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/scoring"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/types"
)

type scoreOptions struct {
	file    string
	format  string
	explain bool
}

func newScoreCmd() *cobra.Command {
	opts := &scoreOptions{}

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one applicant without recording it",
		Long: `Score reads one applicant as JSON from --file or stdin and prints the
prediction. Nothing is written to the history.`,
		Example: `  coopcredit score --file applicant.json
  cat applicant.json | coopcredit score --format yaml --explain`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Applicant JSON file (default: stdin)")
	cmd.Flags().StringVarP(&opts.format, "format", "o", "json", "Output format: json or yaml")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "Include the per-factor point breakdown")

	return cmd
}

func runScore(cmd *cobra.Command, opts *scoreOptions) error {
	format, err := encoding.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	if opts.file != "" {
		f, err := os.Open(opts.file)
		if err != nil {
			return fmt.Errorf("failed to open applicant file: %w", err)
		}
		defer f.Close()
		in = f
	}

	var applicant scoring.Applicant
	if err := encoding.DecodeJSON(in, &applicant); err != nil {
		return err
	}

	prediction, err := scoring.Score(applicant)
	if err != nil {
		return err
	}

	if !opts.explain {
		return encoding.Encode(cmd.OutOrStdout(), prediction, format)
	}

	breakdown, err := scoring.Breakdown(applicant)
	if err != nil {
		return err
	}
	return encoding.Encode(cmd.OutOrStdout(), types.PreviewResponse{
		Result:    prediction,
		Breakdown: breakdown,
	}, format)
}
