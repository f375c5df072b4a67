package arbitrage

import (
	"testing"

	"github.com/mselser95/arb-scanner/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func binaryMarket(platform types.Platform, id string, yes, no string) *types.StandardMarket {
	return &types.StandardMarket{
		ID:       id,
		Platform: platform,
		Title:    id,
		Outcomes: [2]types.Outcome{
			{Name: "Yes", Price: decimal.RequireFromString(yes)},
			{Name: "No", Price: decimal.RequireFromString(no)},
		},
	}
}

func requireApproxEqual(t *testing.T, want float64, got decimal.Decimal, tolerance float64) {
	t.Helper()
	gotF, _ := got.Float64()
	diff := want - gotF
	if diff < 0 {
		diff = -diff
	}
	require.LessOrEqualf(t, diff, tolerance, "want %v, got %v", want, gotF)
}

func TestFindArbitrage_ClearArbPMxMAN(t *testing.T) {
	pm := binaryMarket(types.PlatformPM, "pm1", "0.45", "0.55")
	man := binaryMarket(types.PlatformMAN, "man1", "0.60", "0.38")
	match := &types.MarketMatch{MarketA: pm, MarketB: man, Score: 90, MatchedBy: types.MatchFuzzy}

	opps := New(DefaultConfig()).FindArbitrage([]*types.MarketMatch{match})
	require.Len(t, opps, 1)

	opp := opps[0]
	require.Equal(t, "Yes", opp.OutcomeA)
	require.Equal(t, "No", opp.OutcomeB)
	requireApproxEqual(t, 0.83, opp.TotalCost, 0.0001)
	requireApproxEqual(t, 0.009, opp.TotalFees, 0.0001)
	requireApproxEqual(t, 0.839, opp.NetCost, 0.0001)
	requireApproxEqual(t, 0.161, opp.ProfitMargin, 0.0001)
	requireApproxEqual(t, 19.19, opp.ROI, 0.01)
	require.True(t, opp.IsProfitable)
}

func TestFindArbitrage_FeesEraseGapPMxKAL(t *testing.T) {
	pm := binaryMarket(types.PlatformPM, "pm2", "0.50", "0.49")
	kal := binaryMarket(types.PlatformKAL, "kal1", "0.51", "0.48")
	match := &types.MarketMatch{MarketA: pm, MarketB: kal, Score: 90, MatchedBy: types.MatchFuzzy}

	opps := New(DefaultConfig()).FindArbitrage([]*types.MarketMatch{match})
	require.Empty(t, opps)
}

func TestFindArbitrage_HighROIPMxMAN(t *testing.T) {
	pm := binaryMarket(types.PlatformPM, "pm3", "0.35", "0.65")
	man := binaryMarket(types.PlatformMAN, "man2", "0.70", "0.28")
	match := &types.MarketMatch{MarketA: pm, MarketB: man, Score: 90, MatchedBy: types.MatchFuzzy}

	opps := New(DefaultConfig()).FindArbitrage([]*types.MarketMatch{match})
	require.NotEmpty(t, opps)

	var best *types.ArbitrageOpportunity
	for _, o := range opps {
		if best == nil || o.ROI.GreaterThan(best.ROI) {
			best = o
		}
	}
	requireApproxEqual(t, 0.63, best.TotalCost, 0.0001)
	requireApproxEqual(t, 0.637, best.NetCost, 0.0001)
	requireApproxEqual(t, 0.363, best.ProfitMargin, 0.0001)
	requireApproxEqual(t, 56.98, best.ROI, 0.01)
}

func TestFindArbitrage_TotalCostExactlyOneEmitsNothing(t *testing.T) {
	pm := binaryMarket(types.PlatformPM, "pm4", "0.50", "0.50")
	man := binaryMarket(types.PlatformMAN, "man3", "0.50", "0.50")
	match := &types.MarketMatch{MarketA: pm, MarketB: man, Score: 90, MatchedBy: types.MatchFuzzy}

	opps := New(DefaultConfig()).FindArbitrage([]*types.MarketMatch{match})
	require.Empty(t, opps)
}

func TestFindArbitrage_IsProfitableMatchesProfitMarginSign(t *testing.T) {
	pm := binaryMarket(types.PlatformPM, "pm5", "0.10", "0.10")
	man := binaryMarket(types.PlatformMAN, "man4", "0.10", "0.10")
	match := &types.MarketMatch{MarketA: pm, MarketB: man, Score: 90, MatchedBy: types.MatchFuzzy}

	opps := New(DefaultConfig()).FindArbitrage([]*types.MarketMatch{match})
	for _, o := range opps {
		require.Equal(t, o.ProfitMargin.GreaterThan(decimal.Zero), o.IsProfitable)
		require.True(t, o.NetCost.GreaterThan(decimal.Zero))
	}
}

func TestMeetsAlertThreshold_RejectsBelowMinLiquidity(t *testing.T) {
	pm := binaryMarket(types.PlatformPM, "pm6", "0.10", "0.10")
	man := binaryMarket(types.PlatformMAN, "man5", "0.10", "0.10")
	lowLiquidity := decimal.NewFromInt(5)
	pm.Liquidity = &lowLiquidity

	match := &types.MarketMatch{MarketA: pm, MarketB: man, Score: 90, MatchedBy: types.MatchFuzzy}
	opps := New(DefaultConfig()).FindArbitrage([]*types.MarketMatch{match})
	require.NotEmpty(t, opps)

	calc := New(DefaultConfig())
	for _, o := range opps {
		require.False(t, calc.MeetsAlertThreshold(o))
	}
}
