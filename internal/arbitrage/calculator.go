// Package arbitrage implements the fee-aware arbitrage Calculator of
// spec.md §4.6, evaluating both buy-direction strategies over a matched
// binary pair using fixed-point decimal arithmetic throughout.
package arbitrage

import (
	"time"

	"github.com/mselser95/arb-scanner/pkg/types"
	"github.com/shopspring/decimal"
)

// FeeRates is the fee table keyed by platform tag, per spec.md §4.6.
var FeeRates = map[types.Platform]decimal.Decimal{
	types.PlatformPM:  decimal.NewFromFloat(0.02),
	types.PlatformKAL: decimal.NewFromFloat(0.07),
	types.PlatformMAN: decimal.Zero,
}

// Config holds the arbitrage thresholds enumerated in spec.md §6.
type Config struct {
	MinROI       decimal.Decimal
	MinLiquidity decimal.Decimal
}

// DefaultConfig returns the spec's reference arbitrage envelope.
func DefaultConfig() Config {
	return Config{
		MinROI:       decimal.NewFromFloat(0.01),
		MinLiquidity: decimal.NewFromInt(100),
	}
}

// Calculator evaluates matched pairs for profitable arbitrage.
type Calculator struct {
	cfg Config
}

// New builds a Calculator with the given configuration.
func New(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// FindArbitrage evaluates every match's two buy-direction strategies and
// returns only the profitable opportunities.
func (c *Calculator) FindArbitrage(matches []*types.MarketMatch) []*types.ArbitrageOpportunity {
	opportunities := make([]*types.ArbitrageOpportunity, 0, len(matches))
	now := time.Now().UTC()
	bestROISoFar := 0.0

	for _, match := range matches {
		a, b := match.MarketA, match.MarketB
		if len(a.Outcomes) != 2 || len(b.Outcomes) != 2 {
			continue
		}

		for _, strategy := range [][2]int{{0, 1}, {1, 0}} {
			outcomeA := a.Outcomes[strategy[0]]
			outcomeB := b.Outcomes[strategy[1]]

			opp := c.evaluate(a, b, outcomeA, outcomeB, now)
			EvaluationsTotal.Inc()
			if opp.IsProfitable {
				OpportunitiesFoundTotal.WithLabelValues(string(a.Platform), string(b.Platform)).Inc()
				if roiF, _ := opp.ROI.Float64(); roiF > bestROISoFar {
					bestROISoFar = roiF
				}
				opportunities = append(opportunities, opp)
			}
		}
	}
	if len(opportunities) > 0 {
		BestROI.Set(bestROISoFar)
	}
	return opportunities
}

// evaluate computes one buy-direction strategy's fee-aware economics.
func (c *Calculator) evaluate(a, b *types.StandardMarket, outcomeA, outcomeB types.Outcome, now time.Time) *types.ArbitrageOpportunity {
	priceA, priceB := outcomeA.Price, outcomeB.Price
	totalCost := priceA.Add(priceB)

	opp := &types.ArbitrageOpportunity{
		MarketA:   a,
		MarketB:   b,
		OutcomeA:  outcomeA.Name,
		OutcomeB:  outcomeB.Name,
		PriceA:    priceA,
		PriceB:    priceB,
		TotalCost: totalCost,
		Timestamp: now,
	}

	if totalCost.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return opp
	}

	rateA := FeeRates[a.Platform]
	rateB := FeeRates[b.Platform]
	feesA := priceA.Mul(rateA)
	feesB := priceB.Mul(rateB)
	totalFees := feesA.Add(feesB)

	netCost := totalCost.Add(totalFees)
	profitMargin := decimal.NewFromInt(1).Sub(netCost)

	opp.FeesA = feesA
	opp.FeesB = feesB
	opp.TotalFees = totalFees
	opp.NetCost = netCost
	opp.ProfitMargin = profitMargin
	opp.IsProfitable = profitMargin.GreaterThan(decimal.Zero)

	if opp.IsProfitable && !netCost.IsZero() {
		opp.ROI = profitMargin.Div(netCost).Mul(decimal.NewFromInt(100))
	} else {
		opp.ROI = decimal.Zero
	}

	return opp
}

// MeetsAlertThreshold reports whether an opportunity clears the
// configured minimum ROI and liquidity bars for alerting.
func (c *Calculator) MeetsAlertThreshold(opp *types.ArbitrageOpportunity) bool {
	if !opp.IsProfitable {
		return false
	}
	roiFraction := opp.ROI.Div(decimal.NewFromInt(100))
	if roiFraction.LessThan(c.cfg.MinROI) {
		return false
	}
	if opp.MarketA.Liquidity != nil && opp.MarketA.Liquidity.LessThan(c.cfg.MinLiquidity) {
		return false
	}
	if opp.MarketB.Liquidity != nil && opp.MarketB.Liquidity.LessThan(c.cfg.MinLiquidity) {
		return false
	}
	return true
}
