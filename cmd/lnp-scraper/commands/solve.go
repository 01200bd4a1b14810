package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/lnp-scraper/internal/config"
	"github.com/jmylchreest/lnp-scraper/internal/logging"
	"github.com/jmylchreest/lnp-scraper/internal/models"
)

var solveSex string

var solveCmd = &cobra.Command{
	Use:   "solve [--sex Male|Female|all]",
	Short: "Open a visible browser so a human can clear the anti-bot challenge.",
	Long: `solve launches the browser with the persistent profile in headful interactive
mode and acquires a credential for each requested partition, waiting for a human
to clear any challenge in the window. The cleared state is kept in the profile
so the service can run headless afterwards.`,
	RunE: runSolve,
}

func init() {
	solveCmd.Flags().StringVar(&solveSex, "sex", "all", "Partition to solve: Male, Female or all")
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	partitions, err := solvePartitions(solveSex)
	if err != nil {
		return err
	}

	cfg := config.Load()
	cfg.Headless = false
	cfg.Interactive = true
	logger := logging.SetDefault(cfg.LogLevel)

	c, err := newCore(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx := cmd.Context()
	if err := c.browser.Warmup(ctx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var failed []string
	for _, p := range partitions {
		fmt.Fprintf(out, "%s: waiting for a credential (clear any challenge in the browser window)...\n", p)

		st, err := c.engine.Refresh(ctx, p)
		if err != nil {
			fmt.Fprintf(out, "%s: failed: %v\n", p, err)
			failed = append(failed, string(p))
			continue
		}

		line := fmt.Sprintf("%s: credential captured from %s", p, st.SourceURL)
		if !st.ExpiresAt.IsZero() {
			line += fmt.Sprintf(" (expires %s)", st.ExpiresAt.Format(time.RFC3339))
		}
		fmt.Fprintln(out, line)
	}

	if len(failed) > 0 {
		return fmt.Errorf("no credential for %s", strings.Join(failed, ", "))
	}
	fmt.Fprintln(out, "profile saved; the service can now run with HEADLESS=1")
	return nil
}

func solvePartitions(sex string) ([]models.Partition, error) {
	if strings.EqualFold(sex, "all") {
		return models.Partitions(), nil
	}
	p, err := models.ParsePartition(sex)
	if err != nil {
		return nil, err
	}
	return []models.Partition{p}, nil
}
