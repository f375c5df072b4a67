// Package report formats scan results for terminal output, adapted from
// the teacher's console opportunity printer — repurposed here to print a
// full ScanJob result table instead of one execution-bound opportunity.
package report

import (
	"fmt"

	"github.com/mselser95/arb-scanner/internal/orchestrator"
)

// Printer pretty-prints an orchestrator.Result to stdout, for the `scan`
// CLI command's one-shot output.
type Printer struct{}

// New creates a new Printer.
func New() *Printer {
	return &Printer{}
}

// Print renders a scan result as a table of opportunities, or a "no
// opportunities" line if none were found.
func (p *Printer) Print(result *orchestrator.Result) {
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("SCAN RESULT  %s\n", result.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	for platform, count := range result.MarketsScanned {
		fmt.Printf("  markets[%s]: %d\n", platform, count)
	}
	fmt.Printf("  matches found:  %d\n", result.MatchesFound)
	fmt.Printf("  duration:       %d ms\n", result.DurationMs)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	if len(result.Opportunities) == 0 {
		fmt.Println("no arbitrage opportunities found")
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		return
	}

	fmt.Printf("%-28s %-28s %-8s %-8s %-8s %s\n", "MARKET A", "MARKET B", "PRICE A", "PRICE B", "ROI %", "PROFITABLE")
	for _, opp := range result.Opportunities {
		fmt.Printf("%-28s %-28s %-8s %-8s %-8s %v\n",
			truncate(opp.MarketA.Title, 28),
			truncate(opp.MarketB.Title, 28),
			opp.PriceA.StringFixed(4),
			opp.PriceB.StringFixed(4),
			opp.ROI.StringFixed(2),
			opp.IsProfitable)
	}
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
