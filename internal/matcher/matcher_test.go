package matcher

import (
	"testing"
	"time"

	"github.com/mselser95/arb-scanner/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func market(platform types.Platform, id, title string, endDate *time.Time) *types.StandardMarket {
	return &types.StandardMarket{
		ID:       id,
		Platform: platform,
		Title:    title,
		Outcomes: [2]types.Outcome{
			{Name: "Yes", Price: decimal.NewFromFloat(0.5)},
			{Name: "No", Price: decimal.NewFromFloat(0.5)},
		},
		EndDate: endDate,
	}
}

func TestFindMatches_FuzzyTitleMatch(t *testing.T) {
	a := market(types.PlatformPM, "pm1", "US recession in 2025?", nil)
	b := market(types.PlatformMAN, "man1", "US recession 2025", nil)

	matches := New(DefaultConfig()).FindMatches(
		[]*types.StandardMarket{a},
		[]*types.StandardMarket{b},
	)

	require.Len(t, matches, 1)
	require.Equal(t, "man1", matches[0].MarketB.ID)
	require.GreaterOrEqual(t, matches[0].Score, 60)
	require.Equal(t, types.MatchFuzzy, matches[0].MatchedBy)
}

func TestFindMatches_MissingEndDateDoesNotRejectCandidate(t *testing.T) {
	end := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	a := market(types.PlatformPM, "pm1", "US recession in 2025", &end)
	b := market(types.PlatformMAN, "man1", "US recession 2025", nil)

	matches := New(DefaultConfig()).FindMatches(
		[]*types.StandardMarket{a},
		[]*types.StandardMarket{b},
	)

	require.Len(t, matches, 1)
}

func TestFindMatches_DateTooFarApartIsRejected(t *testing.T) {
	endA := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	endB := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	a := market(types.PlatformPM, "pm1", "US recession 2025", &endA)
	b := market(types.PlatformMAN, "man1", "US recession 2025", &endB)

	matches := New(DefaultConfig()).FindMatches(
		[]*types.StandardMarket{a},
		[]*types.StandardMarket{b},
	)

	require.Empty(t, matches)
}

func TestFindMatches_AllCandidatesStopWordFilteredOutEmitsNothing(t *testing.T) {
	a := market(types.PlatformPM, "pm1", "Will the be in on at", nil)
	b := market(types.PlatformMAN, "man1", "To a an is are", nil)

	matches := New(DefaultConfig()).FindMatches(
		[]*types.StandardMarket{a},
		[]*types.StandardMarket{b},
	)

	require.Empty(t, matches)
}

func TestFindMatches_OutcomeCardinalityMismatchRejected(t *testing.T) {
	a := market(types.PlatformPM, "pm1", "US recession 2025", nil)
	b := &types.StandardMarket{
		ID:       "man1",
		Platform: types.PlatformMAN,
		Title:    "US recession 2025",
		Outcomes: [2]types.Outcome{{Name: "Yes", Price: decimal.NewFromFloat(0.5)}},
	}

	matches := New(DefaultConfig()).FindMatches(
		[]*types.StandardMarket{a},
		[]*types.StandardMarket{b},
	)

	require.Empty(t, matches)
}

func TestFindMatches_AtMostOneMatchPerElementOfA(t *testing.T) {
	a := market(types.PlatformPM, "pm1", "US recession 2025", nil)
	b1 := market(types.PlatformMAN, "man1", "US recession 2025", nil)
	b2 := market(types.PlatformMAN, "man2", "US recession 2025 economy", nil)

	matches := New(DefaultConfig()).FindMatches(
		[]*types.StandardMarket{a},
		[]*types.StandardMarket{b1, b2},
	)

	require.Len(t, matches, 1)
}

func TestFindMatches_BelowThresholdEmitsNothing(t *testing.T) {
	a := market(types.PlatformPM, "pm1", "US recession in 2025", nil)
	b := market(types.PlatformMAN, "man1", "recession xyz totally unrelated topic about cats", nil)

	matches := New(DefaultConfig()).FindMatches(
		[]*types.StandardMarket{a},
		[]*types.StandardMarket{b},
	)

	require.Empty(t, matches)
}
