package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/coopcredit-guard/internal/config"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/security"
)

type tokenOptions struct {
	subject string
	ttl     time.Duration
}

func newTokenCmd() *cobra.Command {
	opts := &tokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin bearer token",
		Long: `Token signs an admin JWT with ADMIN_JWT_SECRET. The token authorizes
DELETE /history on a server sharing the same secret.`,
		Example: `  coopcredit token --subject ops@example.coop --ttl 15m`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.subject, "subject", "", "Who the token is issued to")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

func runToken(cmd *cobra.Command, opts *tokenOptions) error {
	config.LoadDotEnv()
	secret := os.Getenv("ADMIN_JWT_SECRET")

	token, err := security.MintAdminToken(secret, opts.subject, opts.ttl)
	if err != nil {
		return fmt.Errorf("failed to mint token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
