package cmd

import (
	"fmt"

	"github.com/mselser95/arb-scanner/internal/app"
	"github.com/mselser95/arb-scanner/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the scanner daemon",
	Long: `Starts the scanner daemon, which:
1. Enrolls PM×MAN, KAL×PM, and KAL×MAN recurring scan jobs
2. Fetches, normalizes, and matches markets across platforms on a timer
3. Computes fee-aware arbitrage opportunities
4. Posts alerts to the configured webhook and pushes results to the dashboard

Serves /health, /ready, /metrics, /api/opportunities, and /ws/opportunities
until it receives SIGINT or SIGTERM.`,
	RunE: runScanner,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
}

func runScanner(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	if err := application.Run(); err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
