// @title           CoopCredit Guard API
// @version         1.0
// @description     Loan default risk scoring for cooperative lending.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "coopcredit",
		Short: "Loan default risk scoring service",
		Long: `coopcredit scores loan applicants for default risk, keeps a history of
recorded predictions and reports portfolio analytics over it.

Run without a subcommand to start the HTTP server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newScoreCmd(),
		newAnalyticsCmd(),
		newTokenCmd(),
	)

	return rootCmd
}
