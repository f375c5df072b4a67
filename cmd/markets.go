package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/mselser95/arb-scanner/internal/adapters"
	"github.com/mselser95/arb-scanner/pkg/config"
	"github.com/mselser95/arb-scanner/pkg/types"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var marketsCmd = &cobra.Command{
	Use:   "markets <platform>",
	Short: "Fetch and print normalized markets for one platform",
	Long: `Fetches a page of markets from one platform's Adapter and prints
them in their normalized form. For debugging an adapter's mapping without
running a full scan.

<platform> is one of PM, KAL, MAN.`,
	Args: cobra.ExactArgs(1),
	RunE: runMarkets,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(marketsCmd)
	marketsCmd.Flags().IntP("limit", "l", 20, "number of markets to fetch")
}

func runMarkets(cmd *cobra.Command, args []string) error {
	platform := types.Platform(args[0])
	if platform != types.PlatformPM && platform != types.PlatformKAL && platform != types.PlatformMAN {
		return fmt.Errorf("unknown platform %q: must be PM, KAL, or MAN", args[0])
	}

	limit, _ := cmd.Flags().GetInt("limit")

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

	adapter := registry[platform]

	markets, err := adapter.FetchMarkets(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("fetch markets: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "ID\tTITLE\tOUTCOMES\tEND DATE\tLIQUIDITY\n")
	for _, m := range markets {
		outcomes := ""
		for i, o := range m.Outcomes {
			if i > 0 {
				outcomes += " / "
			}
			outcomes += fmt.Sprintf("%s=%s", o.Name, o.Price.StringFixed(4))
		}

		endDate := "n/a"
		if m.EndDate != nil {
			endDate = m.EndDate.Format("2006-01-02")
		}

		liquidity := "n/a"
		if m.Liquidity != nil {
			liquidity = m.Liquidity.StringFixed(2)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m.ID, m.Title, outcomes, endDate, liquidity)
	}

	fmt.Printf("\n%d markets fetched from %s\n", len(markets), platform)
	return nil
}
