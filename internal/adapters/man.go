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

// manRawMarket mirrors Manifold's market list shape.
type manRawMarket struct {
	ID          string   `json:"id"`
	Question    string   `json:"question"`
	URL         string   `json:"url"`
	OutcomeType string   `json:"outcomeType"`
	IsResolved  bool     `json:"isResolved"`
	Probability *float64 `json:"probability"`
	CloseTime   *int64   `json:"closeTime"`
	Volume      *float64 `json:"volume"`
	Category    string   `json:"groupSlugs,omitempty"`
}

// MAN implements Adapter for Manifold Markets.
type MAN struct {
	http *httpClient
}

// NewMAN builds a Manifold adapter.
func NewMAN(baseURL string, timeout time.Duration, limiter *ratelimit.Limiter, logger *zap.Logger) *MAN {
	return &MAN{http: newHTTPClient(types.PlatformMAN, baseURL, timeout, limiter, logger)}
}

func (m *MAN) Platform() types.Platform { return types.PlatformMAN }

// FetchMarkets over-fetches 2x the requested limit, since a chunk of the
// raw feed is filtered out as non-binary, resolved, or missing a
// probability, per spec.md §4.4.
func (m *MAN) FetchMarkets(ctx context.Context, limit int) ([]*types.StandardMarket, error) {
	params := url.Values{}
	params.Add("limit", strconv.Itoa(limit*2))

	body, err := m.http.getJSON(ctx, "/markets", params)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}

	var raw []manRawMarket
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, types.NewValidationFailure(types.PlatformMAN, body, err)
	}

	markets := make([]*types.StandardMarket, 0, limit)
	for _, r := range raw {
		market, ok := m.normalize(r)
		if !ok {
			continue
		}
		markets = append(markets, market)
		if len(markets) >= limit {
			break
		}
	}
	return markets, nil
}

func (m *MAN) FetchMarketByID(ctx context.Context, id string) (*types.StandardMarket, error) {
	body, err := m.http.getJSON(ctx, fmt.Sprintf("/market/%s", id), nil)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}

	var r manRawMarket
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, types.NewValidationFailure(types.PlatformMAN, body, err)
	}
	market, ok := m.normalize(r)
	if !ok {
		return nil, nil
	}
	return market, nil
}

// normalize keeps only binary, non-resolved markets with a defined
// probability: Yes.price = probability, No.price = 1 - probability.
func (m *MAN) normalize(r manRawMarket) (*types.StandardMarket, bool) {
	if r.OutcomeType != "BINARY" || r.IsResolved || r.Probability == nil {
		return nil, false
	}

	yesPrice := decimal.NewFromFloat(*r.Probability)
	noPrice := decimal.NewFromInt(1).Sub(yesPrice)

	market := &types.StandardMarket{
		ID:       r.ID,
		Platform: types.PlatformMAN,
		Title:    r.Question,
		URL:      r.URL,
		Outcomes: [2]types.Outcome{
			{Name: "Yes", Price: yesPrice},
			{Name: "No", Price: noPrice},
		},
		Category: r.Category,
	}

	if r.CloseTime != nil {
		t := time.UnixMilli(*r.CloseTime)
		market.EndDate = &t
	}
	if r.Volume != nil {
		l := decimal.NewFromFloat(*r.Volume)
		market.Liquidity = &l
	}

	if err := market.Validate(); err != nil {
		return nil, false
	}
	return market, true
}
