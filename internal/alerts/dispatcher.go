// Package alerts implements the Alert Dispatcher of spec.md §4.10:
// threshold filtering, a cooldown dedup window backed by Cache, and
// paced Discord-style webhook delivery.
package alerts

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/mselser95/arb-scanner/pkg/cache"
	"github.com/mselser95/arb-scanner/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// minInterAlertGap is the inter-message spacing required to stay under the
// 30/min webhook caps referenced in spec.md §4.10.
const minInterAlertGap = 2 * time.Second

// Config is the alert configuration enumerated in spec.md §6.
type Config struct {
	Enabled            bool
	WebhookURL         string
	MinProfitPercent   decimal.Decimal
	MinProfitAmount    decimal.Decimal
	CooldownMinutes    int
	MaxAlertsPerMinute int
}

// Dispatcher filters, deduplicates, and delivers arbitrage alerts.
type Dispatcher struct {
	cfg        Config
	cache      cache.Cache
	httpClient *http.Client
	logger     *zap.Logger
}

// New builds a Dispatcher. If cfg.WebhookURL is empty while Enabled is
// true, the dispatcher is disabled silently per spec.md §7 ConfigMissing
// handling, and a warning is logged.
func New(cfg Config, c cache.Cache, logger *zap.Logger) *Dispatcher {
	if cfg.Enabled && cfg.WebhookURL == "" {
		logger.Warn("alerts-disabled-missing-webhook-url")
		cfg.Enabled = false
	}
	return &Dispatcher{
		cfg:        cfg,
		cache:      c,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// MeetsThreshold reports whether an opportunity clears the configured
// minimum profit percent and amount.
func (d *Dispatcher) MeetsThreshold(opp *types.ArbitrageOpportunity) bool {
	roiPercent := opp.ROI
	return roiPercent.GreaterThanOrEqual(d.cfg.MinProfitPercent) &&
		opp.ProfitMargin.GreaterThanOrEqual(d.cfg.MinProfitAmount)
}

// Send posts one opportunity's alert, honoring the cooldown window. A
// failed webhook POST is logged, never propagated to the caller's scan.
func (d *Dispatcher) Send(ctx context.Context, opp *types.ArbitrageOpportunity) {
	if !d.cfg.Enabled {
		return
	}

	key := cache.AlertSentKey(opp.MarketA.ID, opp.MarketB.ID)
	exists, err := d.cache.Exists(ctx, key)
	if err != nil {
		d.logger.Warn("alert-cooldown-check-failed", zap.Error(err))
	}
	if exists {
		SuppressedTotal.Inc()
		d.logger.Debug("alert-suppressed-cooldown", zap.String("pair", opp.PairKey()))
		return
	}

	payload := buildEmbed(opp)
	body, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error("alert-payload-marshal-failed", zap.Error(err))
		return
	}

	if err := d.post(ctx, body); err != nil {
		FailedTotal.Inc()
		d.logger.Warn("alert-webhook-post-failed", zap.Error(err), zap.String("pair", opp.PairKey()))
		return
	}
	SentTotal.Inc()

	cooldown := time.Duration(d.cfg.CooldownMinutes) * time.Minute
	if err := d.cache.Set(ctx, key, true, cooldown); err != nil {
		d.logger.Warn("alert-cooldown-write-failed", zap.Error(err))
	}
}

// SendMany dispatches a batch sequentially, sleeping at least
// minInterAlertGap between posts. Cancellation stops the remaining batch
// within one inter-gap.
func (d *Dispatcher) SendMany(ctx context.Context, opps []*types.ArbitrageOpportunity) {
	for i, opp := range opps {
		if ctx.Err() != nil {
			return
		}
		d.Send(ctx, opp)

		if i < len(opps)-1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(minInterAlertGap):
			}
		}
	}
}

func (d *Dispatcher) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
