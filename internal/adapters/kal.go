package adapters

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/mselser95/arb-scanner/pkg/ratelimit"
	"github.com/mselser95/arb-scanner/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// kalRawMarket mirrors Kalshi's market shape: prices are integer cents.
type kalRawMarket struct {
	Ticker       string `json:"ticker"`
	Title        string `json:"title"`
	MarketType   string `json:"market_type"`
	Status       string `json:"status"`
	YesAsk       *int   `json:"yes_ask"`
	NoAsk        *int   `json:"no_ask"`
	CloseTime    string `json:"close_time"`
	Liquidity    *int64 `json:"liquidity"`
	Category     string `json:"category"`
}

type kalMarketsResponse struct {
	Markets []kalRawMarket `json:"markets"`
}

// KAL implements Adapter for Kalshi.
type KAL struct {
	http *httpClient
}

// NewKAL builds a Kalshi adapter.
func NewKAL(baseURL string, timeout time.Duration, limiter *ratelimit.Limiter, logger *zap.Logger) *KAL {
	return &KAL{http: newHTTPClient(types.PlatformKAL, baseURL, timeout, limiter, logger)}
}

func (k *KAL) Platform() types.Platform { return types.PlatformKAL }

func (k *KAL) FetchMarkets(ctx context.Context, limit int) ([]*types.StandardMarket, error) {
	params := url.Values{}
	params.Add("limit", strconv.Itoa(limit))

	body, err := k.http.getJSON(ctx, "/markets", params)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}

	var resp kalMarketsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, types.NewValidationFailure(types.PlatformKAL, body, err)
	}

	markets := make([]*types.StandardMarket, 0, len(resp.Markets))
	for _, r := range resp.Markets {
		market, ok := k.normalize(r)
		if !ok {
			continue
		}
		markets = append(markets, market)
	}
	return markets, nil
}

func (k *KAL) FetchMarketByID(ctx context.Context, id string) (*types.StandardMarket, error) {
	body, err := k.http.getJSON(ctx, fmt.Sprintf("/markets/%s", id), nil)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}

	var wrapper struct {
		Market kalRawMarket `json:"market"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, types.NewValidationFailure(types.PlatformKAL, body, err)
	}
	market, ok := k.normalize(wrapper.Market)
	if !ok {
		return nil, nil
	}
	return market, nil
}

// isOpen accepts either "open" or any non-closed status string, per
// SPEC_FULL.md's open question about Kalshi's status field.
func isOpen(status string) bool {
	return status != "closed" && status != "finalized" && status != "settled"
}

// normalize keeps only binary markets with both ask sides present,
// converting integer cents into fixed-point decimals.
func (k *KAL) normalize(r kalRawMarket) (*types.StandardMarket, bool) {
	if r.MarketType != "" && r.MarketType != "binary" {
		return nil, false
	}
	if !isOpen(r.Status) || r.YesAsk == nil || r.NoAsk == nil {
		return nil, false
	}

	yesPrice := decimal.NewFromInt(int64(*r.YesAsk)).Div(decimal.NewFromInt(100))
	noPrice := decimal.NewFromInt(int64(*r.NoAsk)).Div(decimal.NewFromInt(100))

	market := &types.StandardMarket{
		ID:       r.Ticker,
		Platform: types.PlatformKAL,
		Title:    r.Title,
		URL:      fmt.Sprintf("https://kalshi.com/markets/%s", r.Ticker),
		Outcomes: [2]types.Outcome{
			{Name: "Yes", Price: yesPrice},
			{Name: "No", Price: noPrice},
		},
		Category: r.Category,
	}

	if r.CloseTime != "" {
		if t, err := time.Parse(time.RFC3339, r.CloseTime); err == nil {
			market.EndDate = &t
		}
	}
	if r.Liquidity != nil {
		l := decimal.NewFromInt(*r.Liquidity).Div(decimal.NewFromInt(100))
		market.Liquidity = &l
	}

	if err := market.Validate(); err != nil {
		return nil, false
	}
	return market, true
}
