// Package types holds the data model shared across adapters, the matcher,
// the calculator, and the cache: normalized markets, cross-platform matches,
// and arbitrage opportunities.
package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Platform is a closed tag identifying the origin of a market.
type Platform string

const (
	PlatformPM  Platform = "PM"
	PlatformKAL Platform = "KAL"
	PlatformMAN Platform = "MAN"
)

// MatchKind identifies how a MarketMatch was produced.
type MatchKind string

const (
	MatchExact  MatchKind = "exact"
	MatchFuzzy  MatchKind = "fuzzy"
	MatchManual MatchKind = "manual"
)

// Outcome is one side of a binary market.
type Outcome struct {
	Name  string
	Price decimal.Decimal
}

// StandardMarket is the normalized representation of one binary prediction
// market, regardless of originating platform.
type StandardMarket struct {
	ID         string
	Platform   Platform
	Title      string
	URL        string
	Outcomes   [2]Outcome
	EndDate    *time.Time
	Liquidity  *decimal.Decimal
	Category   string
}

// Validate enforces the §3 invariants on a normalized market.
func (m *StandardMarket) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("market id must not be empty")
	}
	if m.Title == "" {
		return fmt.Errorf("market %s: title must not be empty", m.ID)
	}
	for i, o := range m.Outcomes {
		if o.Price.LessThan(decimal.Zero) || o.Price.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("market %s: outcome[%d] price %s out of [0,1]", m.ID, i, o.Price)
		}
	}
	return nil
}

// MarketMatch is a candidate cross-platform pairing of two markets.
type MarketMatch struct {
	MarketA   *StandardMarket
	MarketB   *StandardMarket
	Score     int
	MatchedBy MatchKind
}

// Validate enforces the §3 invariants on a match.
func (m *MarketMatch) Validate() error {
	if m.Score < 60 {
		return fmt.Errorf("match score %d below minimum 60", m.Score)
	}
	if m.MarketA == nil || m.MarketB == nil {
		return fmt.Errorf("match is missing a market side")
	}
	if m.MarketA.Platform == m.MarketB.Platform {
		return fmt.Errorf("match platforms must differ, got %s twice", m.MarketA.Platform)
	}
	return nil
}

// ArbitrageOpportunity is one realized buy-direction for a matched pair.
type ArbitrageOpportunity struct {
	MarketA      *StandardMarket
	MarketB      *StandardMarket
	OutcomeA     string
	OutcomeB     string
	PriceA       decimal.Decimal
	PriceB       decimal.Decimal
	TotalCost    decimal.Decimal
	FeesA        decimal.Decimal
	FeesB        decimal.Decimal
	TotalFees    decimal.Decimal
	NetCost      decimal.Decimal
	ProfitMargin decimal.Decimal
	ROI          decimal.Decimal
	IsProfitable bool
	Timestamp    time.Time
}

// PairKey returns the deterministic cooldown/fingerprint key for this pair.
func (o *ArbitrageOpportunity) PairKey() string {
	return fmt.Sprintf("%s:%s", o.MarketA.ID, o.MarketB.ID)
}
