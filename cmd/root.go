package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "arb-scanner",
	Short: "Cross-platform prediction-market arbitrage scanner",
	Long: `arb-scanner periodically scans Polymarket, Kalshi, and Manifold,
normalizes their markets into a common shape, matches the same real-world
question across platforms, and computes fee-aware arbitrage opportunities.

It is read-only: it never places a trade. Opportunities above a configured
threshold are posted to a webhook for a human to act on.`,
	// .env is optional; a missing file in production is not an error.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		return nil
	},
}

// Execute adds all child commands to the root command and runs it. Called
// once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
