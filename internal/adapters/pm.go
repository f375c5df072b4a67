package adapters

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"context"

	"github.com/goccy/go-json"
	"github.com/mselser95/arb-scanner/pkg/ratelimit"
	"github.com/mselser95/arb-scanner/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// pmRawMarket mirrors the Gamma API shape: outcomes and their prices arrive
// as JSON-encoded string arrays, not native arrays.
type pmRawMarket struct {
	ID          string `json:"id"`
	Question    string `json:"question"`
	Slug        string `json:"slug"`
	Outcomes    string `json:"outcomes"`
	OutcomePrices string `json:"outcomePrices"`
	EndDate     string `json:"endDate"`
	Liquidity   string `json:"liquidity"`
	Category    string `json:"category"`
	Closed      bool   `json:"closed"`
	Active      bool   `json:"active"`
}

// PM implements Adapter for Polymarket's Gamma API.
type PM struct {
	http *httpClient
}

// NewPM builds a Polymarket adapter.
func NewPM(baseURL string, timeout time.Duration, limiter *ratelimit.Limiter, logger *zap.Logger) *PM {
	return &PM{http: newHTTPClient(types.PlatformPM, baseURL, timeout, limiter, logger)}
}

func (p *PM) Platform() types.Platform { return types.PlatformPM }

func (p *PM) FetchMarkets(ctx context.Context, limit int) ([]*types.StandardMarket, error) {
	params := url.Values{}
	params.Add("closed", "false")
	params.Add("active", "true")
	params.Add("limit", strconv.Itoa(limit))
	params.Add("order", "volume24hr")
	params.Add("ascending", "false")

	body, err := p.http.getJSON(ctx, "/markets", params)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}

	var raw []pmRawMarket
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, types.NewValidationFailure(types.PlatformPM, body, err)
	}

	markets := make([]*types.StandardMarket, 0, len(raw))
	for _, r := range raw {
		m, err := p.normalize(r, body)
		if err != nil {
			continue
		}
		markets = append(markets, m)
	}
	return markets, nil
}

func (p *PM) FetchMarketByID(ctx context.Context, id string) (*types.StandardMarket, error) {
	body, err := p.http.getJSON(ctx, fmt.Sprintf("/markets/%s", id), nil)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}

	var r pmRawMarket
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, types.NewValidationFailure(types.PlatformPM, body, err)
	}
	return p.normalize(r, body)
}

// normalize parses the string-encoded arrays into the two outcome entries
// per spec.md §4.4's PM-specific rule.
func (p *PM) normalize(r pmRawMarket, payload []byte) (*types.StandardMarket, error) {
	var names []string
	if err := json.Unmarshal([]byte(r.Outcomes), &names); err != nil {
		return nil, types.NewValidationFailure(types.PlatformPM, payload, fmt.Errorf("parse outcomes: %w", err))
	}
	var priceStrs []string
	if err := json.Unmarshal([]byte(r.OutcomePrices), &priceStrs); err != nil {
		return nil, types.NewValidationFailure(types.PlatformPM, payload, fmt.Errorf("parse outcome prices: %w", err))
	}
	if len(names) != 2 || len(priceStrs) != 2 {
		return nil, types.NewValidationFailure(types.PlatformPM, payload, fmt.Errorf("expected 2 outcomes, got %d/%d", len(names), len(priceStrs)))
	}

	outcomes := [2]types.Outcome{}
	for i := range outcomes {
		price, err := decimal.NewFromString(priceStrs[i])
		if err != nil {
			return nil, types.NewValidationFailure(types.PlatformPM, payload, fmt.Errorf("parse price %q: %w", priceStrs[i], err))
		}
		outcomes[i] = types.Outcome{Name: names[i], Price: price}
	}

	m := &types.StandardMarket{
		ID:       r.ID,
		Platform: types.PlatformPM,
		Title:    r.Question,
		URL:      fmt.Sprintf("https://polymarket.com/event/%s", r.Slug),
		Outcomes: outcomes,
		Category: r.Category,
	}

	if r.EndDate != "" {
		if t, err := time.Parse(time.RFC3339, r.EndDate); err == nil {
			m.EndDate = &t
		}
	}
	if r.Liquidity != "" {
		if l, err := decimal.NewFromString(r.Liquidity); err == nil {
			m.Liquidity = &l
		}
	}

	if err := m.Validate(); err != nil {
		return nil, types.NewValidationFailure(types.PlatformPM, payload, err)
	}
	return m, nil
}
