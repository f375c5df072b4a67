package cmd

import (
	"fmt"

	"github.com/mselser95/arb-scanner/internal/adapters"
	"github.com/mselser95/arb-scanner/internal/alerts"
	"github.com/mselser95/arb-scanner/internal/arbitrage"
	"github.com/mselser95/arb-scanner/internal/matcher"
	"github.com/mselser95/arb-scanner/internal/orchestrator"
	"github.com/mselser95/arb-scanner/internal/queue"
	"github.com/mselser95/arb-scanner/internal/report"
	"github.com/mselser95/arb-scanner/pkg/cache"
	"github.com/mselser95/arb-scanner/pkg/config"
	"github.com/mselser95/arb-scanner/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var scanCmd = &cobra.Command{
	Use:   "scan <platformA> <platformB>",
	Short: "Run a single ad hoc scan of two platforms",
	Long: `Fetches, matches, and evaluates arbitrage between two platforms once,
printing the result to stdout. Does not enroll a recurring job or start the
scheduler daemon — for ad hoc checks and debugging.

<platformA>/<platformB> are each one of PM, KAL, MAN.`,
	Args: cobra.ExactArgs(2),
	RunE: runScan,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().IntP("limit", "l", 0, "override the default fetch limit")
}

func runScan(cmd *cobra.Command, args []string) error {
	platformA := types.Platform(args[0])
	platformB := types.Platform(args[1])
	for _, p := range []types.Platform{platformA, platformB} {
		if p != types.PlatformPM && p != types.PlatformKAL && p != types.PlatformMAN {
			return fmt.Errorf("unknown platform %q: must be PM, KAL, or MAN", p)
		}
	}

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

	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = cfg.FetchDefaultLimit
	}

	registry, err := adapters.NewRegistry(adapters.Config{
		BasePerPlatformURL: map[types.Platform]string{
			types.PlatformPM:  cfg.PMBaseURL,
			types.PlatformKAL: cfg.KALBaseURL,
			types.PlatformMAN: cfg.MANBaseURL,
		},
		TimeoutMs:    cfg.FetchTimeoutMs,
		DefaultLimit: cfg.FetchDefaultLimit,
		MaxLimit:     cfg.FetchMaxLimit,

		CircuitBreakerWindow:     cfg.CircuitBreakerWindow,
		CircuitBreakerTripRatio:  cfg.CircuitBreakerTripRatio,
		CircuitBreakerResetRatio: cfg.CircuitBreakerResetRatio,
		CircuitBreakerCoolDown:   cfg.CircuitBreakerCoolDown,
	}, logger)
	if err != nil {
		return fmt.Errorf("build adapter registry: %w", err)
	}

	m := matcher.New(matcher.Config{
		Threshold:          cfg.MatchThreshold,
		MaxDateDiffDays:    cfg.MatchMaxDateDiffDays,
		MinMatchCharLength: cfg.MatchMinMatchCharLength,
	})

	calc := arbitrage.New(arbitrage.Config{
		MinROI:       decimal.NewFromFloat(cfg.ArbMinROI),
		MinLiquidity: decimal.NewFromFloat(cfg.ArbMinLiquidity),
	})

	appCache, err := cache.NewTiered(cache.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		Logger:   logger,
	}, logger)
	if err != nil {
		return fmt.Errorf("setup cache: %w", err)
	}
	defer func() {
		_ = appCache.Close()
	}()

	// The one-shot scan never pages alerts: a dry dispatcher with alerting
	// disabled keeps the orchestrator's alert-threshold evaluation exercised
	// without requiring a webhook.
	dispatcher := alerts.New(alerts.Config{Enabled: false}, appCache, logger)

	orch := orchestrator.New(registry, m, calc, dispatcher, appCache, nil, logger)

	job := queue.ScanJob{PlatformA: platformA, PlatformB: platformB, Limit: limit}

	result, err := orch.Run(cmd.Context(), job, nil)
	if err != nil {
		return fmt.Errorf("run scan: %w", err)
	}

	report.New().Print(result)
	return nil
}
