// Package commands implements the lnp-scraper command line.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/lnp-scraper/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   version.Name,
	Short: "lnp-scraper serves laczynaspilka.pl competition data through browser-captured credentials.",
	Long: `lnp-scraper drives a persistent Chromium profile to obtain the bearer credentials
the laczynaspilka.pl competition API requires, and serves normalized seasons,
leagues, plays, teams, players and statistics over HTTP.

Without a subcommand it runs the HTTP service (same as "serve").`,
	SilenceUsage: true,
	RunE:         runServe,
}

// ExecuteContext runs the command line and exits non-zero on failure.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
