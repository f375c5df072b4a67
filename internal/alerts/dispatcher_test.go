package alerts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mselser95/arb-scanner/pkg/cache"
	"github.com/mselser95/arb-scanner/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) cache.Cache {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := cache.NewTiered(cache.RedisConfig{Host: mr.Host(), Port: mustTestPort(t, mr.Port()), Logger: zap.NewNop()}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func mustTestPort(t *testing.T, s string) int {
	t.Helper()
	port := 0
	for _, r := range s {
		port = port*10 + int(r-'0')
	}
	return port
}

func testOpportunity() *types.ArbitrageOpportunity {
	end := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	return &types.ArbitrageOpportunity{
		MarketA:      &types.StandardMarket{ID: "pm1", Platform: types.PlatformPM, Title: "US recession 2025", URL: "https://polymarket.com/pm1", EndDate: &end},
		MarketB:      &types.StandardMarket{ID: "man1", Platform: types.PlatformMAN, Title: "US recession 2025", URL: "https://manifold.markets/man1"},
		OutcomeA:     "Yes",
		OutcomeB:     "No",
		PriceA:       decimal.RequireFromString("0.45"),
		PriceB:       decimal.RequireFromString("0.38"),
		ProfitMargin: decimal.RequireFromString("0.161"),
		NetCost:      decimal.RequireFromString("0.839"),
		ROI:          decimal.RequireFromString("19.19"),
		IsProfitable: true,
		Timestamp:    time.Now(),
	}
}

func TestDispatcher_SendPostsThenSuppressesWithinCooldown(t *testing.T) {
	var posts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&posts, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestCache(t)
	cfg := Config{
		Enabled:          true,
		WebhookURL:       srv.URL,
		MinProfitPercent: decimal.NewFromInt(5),
		MinProfitAmount:  decimal.NewFromFloat(0.01),
		CooldownMinutes:  10,
	}
	d := New(cfg, c, zap.NewNop())
	ctx := context.Background()

	opp := testOpportunity()
	d.Send(ctx, opp)
	d.Send(ctx, opp)

	require.EqualValues(t, 1, atomic.LoadInt32(&posts))
}

func TestDispatcher_DisabledNeverPosts(t *testing.T) {
	var posts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&posts, 1)
	}))
	defer srv.Close()

	c := newTestCache(t)
	cfg := Config{Enabled: false, WebhookURL: srv.URL, CooldownMinutes: 10}
	d := New(cfg, c, zap.NewNop())

	d.Send(context.Background(), testOpportunity())
	require.EqualValues(t, 0, atomic.LoadInt32(&posts))
}

func TestDispatcher_MissingWebhookURLDisablesSilently(t *testing.T) {
	c := newTestCache(t)
	cfg := Config{Enabled: true, WebhookURL: "", CooldownMinutes: 10}
	d := New(cfg, c, zap.NewNop())
	require.False(t, d.cfg.Enabled)
}

func TestDispatcher_MeetsThreshold(t *testing.T) {
	c := newTestCache(t)
	cfg := Config{MinProfitPercent: decimal.NewFromInt(5), MinProfitAmount: decimal.NewFromFloat(0.1)}
	d := New(cfg, c, zap.NewNop())

	opp := testOpportunity()
	require.True(t, d.MeetsThreshold(opp))

	opp.ROI = decimal.NewFromInt(1)
	require.False(t, d.MeetsThreshold(opp))
}

func TestDispatcher_SendManyPacesWithInterMessageGap(t *testing.T) {
	t.Skip("exercises real 2s pacing; covered at integration scope, not unit scope")
}

func TestDispatcher_SendManyStopsOnCancellation(t *testing.T) {
	var posts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&posts, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestCache(t)
	cfg := Config{Enabled: true, WebhookURL: srv.URL, CooldownMinutes: 10}
	d := New(cfg, c, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opps := []*types.ArbitrageOpportunity{testOpportunity(), testOpportunity()}
	d.SendMany(ctx, opps)

	require.EqualValues(t, 0, atomic.LoadInt32(&posts))
}
