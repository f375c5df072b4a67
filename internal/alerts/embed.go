package alerts

import (
	"fmt"
	"time"

	"github.com/mselser95/arb-scanner/pkg/types"
)

// webhookPayload is the Discord-style embed shape enumerated in spec.md §6.
type webhookPayload struct {
	Username string  `json:"username"`
	Embeds   []embed `json:"embeds"`
}

type embed struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Color       int     `json:"color"`
	Fields      []field `json:"fields"`
	Footer      footer  `json:"footer"`
	Timestamp   string  `json:"timestamp"`
}

type field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type footer struct {
	Text string `json:"text"`
}

const embedColorProfitable = 0x2ECC71 // green

// buildEmbed formats an opportunity's title, expected profit ($ and %),
// end-date, per-platform price breakdown, and direct links.
func buildEmbed(opp *types.ArbitrageOpportunity) webhookPayload {
	endDate := "n/a"
	if opp.MarketA.EndDate != nil {
		endDate = opp.MarketA.EndDate.Format(time.RFC3339)
	} else if opp.MarketB.EndDate != nil {
		endDate = opp.MarketB.EndDate.Format(time.RFC3339)
	}

	fields := []field{
		{Name: "Expected Profit %", Value: fmt.Sprintf("%s%%", opp.ROI.StringFixed(2)), Inline: true},
		{Name: "Expected Profit $", Value: opp.ProfitMargin.StringFixed(4), Inline: true},
		{Name: "Net Cost", Value: opp.NetCost.StringFixed(4), Inline: true},
		{
			Name: fmt.Sprintf("%s — %s", opp.MarketA.Platform, opp.OutcomeA),
			Value: fmt.Sprintf("%s\n%s", opp.PriceA.StringFixed(4), opp.MarketA.URL),
		},
		{
			Name: fmt.Sprintf("%s — %s", opp.MarketB.Platform, opp.OutcomeB),
			Value: fmt.Sprintf("%s\n%s", opp.PriceB.StringFixed(4), opp.MarketB.URL),
		},
		{Name: "End Date", Value: endDate, Inline: true},
	}

	return webhookPayload{
		Username: "arb-scanner",
		Embeds: []embed{
			{
				Title:       "Arbitrage opportunity found",
				Description: fmt.Sprintf("%s  vs.  %s", opp.MarketA.Title, opp.MarketB.Title),
				Color:       embedColorProfitable,
				Fields:      fields,
				Footer:      footer{Text: opp.PairKey()},
				Timestamp:   opp.Timestamp.Format(time.RFC3339),
			},
		},
	}
}
