// Package orchestrator composes the Adapter, Matcher, Calculator, and
// Alert Dispatcher for one ScanJob, per spec.md §4.11.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/mselser95/arb-scanner/internal/adapters"
	"github.com/mselser95/arb-scanner/internal/alerts"
	"github.com/mselser95/arb-scanner/internal/arbitrage"
	"github.com/mselser95/arb-scanner/internal/matcher"
	"github.com/mselser95/arb-scanner/internal/queue"
	"github.com/mselser95/arb-scanner/pkg/cache"
	"github.com/mselser95/arb-scanner/pkg/types"
	"go.uber.org/zap"
)

// ProgressFunc reports a job's completion percentage, per spec.md §4.8's
// required progress checkpoints: 10, 40, 70, 90, 100.
type ProgressFunc func(percent int)

// Result is the value returned by one Orchestrator run, per spec.md §4.11.
type Result struct {
	Timestamp      time.Time                    `json:"timestamp"`
	Opportunities  []*types.ArbitrageOpportunity `json:"opportunities"`
	MarketsScanned map[types.Platform]int        `json:"marketsScanned"`
	MatchesFound   int                           `json:"matchesFound"`
	DurationMs     int64                         `json:"durationMs"`
}

// Broadcaster pushes a scan result to connected dashboard clients. Satisfied
// by *broadcast.Hub; kept as an interface here so orchestrator does not
// depend on the transport package.
type Broadcaster interface {
	Broadcast(msg []byte)
}

// Orchestrator runs the fetch → match → calculate → alert pipeline for one
// platform pair.
type Orchestrator struct {
	registry    map[types.Platform]adapters.Adapter
	matcher     *matcher.Matcher
	calculator  *arbitrage.Calculator
	dispatcher  *alerts.Dispatcher
	cache       cache.Cache
	broadcaster Broadcaster
	logger      *zap.Logger
}

// New builds an Orchestrator over the full adapter registry. broadcaster
// may be nil, in which case scan results are not pushed to the dashboard.
func New(registry map[types.Platform]adapters.Adapter, m *matcher.Matcher, c *arbitrage.Calculator, d *alerts.Dispatcher, ch cache.Cache, broadcaster Broadcaster, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{registry: registry, matcher: m, calculator: c, dispatcher: d, cache: ch, broadcaster: broadcaster, logger: logger}
}

// Run executes one ScanJob end to end.
func (o *Orchestrator) Run(ctx context.Context, job queue.ScanJob, progress ProgressFunc) (*Result, error) {
	start := time.Now()
	report := func(pct int) {
		if progress != nil {
			progress(pct)
		}
	}

	report(10)
	marketsA, marketsB, err := o.fetchBoth(ctx, job)
	if err != nil {
		return nil, err
	}
	report(40)

	matches := o.matcher.FindMatches(marketsA, marketsB)
	report(70)

	opportunities := o.calculator.FindArbitrage(matches)
	report(90)

	now := time.Now().UTC()
	result := &Result{
		Timestamp:     now,
		Opportunities: opportunities,
		MarketsScanned: map[types.Platform]int{
			job.PlatformA: len(marketsA),
			job.PlatformB: len(marketsB),
		},
		MatchesFound: len(matches),
		DurationMs:   time.Since(start).Milliseconds(),
	}

	o.cacheResult(ctx, result, now)

	if o.broadcaster != nil {
		if payload, err := marshalForBroadcast(result); err != nil {
			o.logger.Warn("broadcast-marshal-failed", zap.Error(err))
		} else {
			o.broadcaster.Broadcast(payload)
		}
	}

	if o.dispatcher != nil {
		survivors := make([]*types.ArbitrageOpportunity, 0, len(opportunities))
		for _, opp := range opportunities {
			if o.calculator.MeetsAlertThreshold(opp) && o.dispatcher.MeetsThreshold(opp) {
				survivors = append(survivors, opp)
			}
		}
		o.dispatcher.SendMany(ctx, survivors)
	}

	report(100)
	return result, nil
}

// fetchBoth resolves both platforms' market lists in parallel, via
// Cache-read-through falling back to the Adapter on miss.
func (o *Orchestrator) fetchBoth(ctx context.Context, job queue.ScanJob) ([]*types.StandardMarket, []*types.StandardMarket, error) {
	var (
		wg                   sync.WaitGroup
		marketsA, marketsB   []*types.StandardMarket
		errA, errB           error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		marketsA, errA = o.resolveMarkets(ctx, job.PlatformA, job.Limit)
	}()
	go func() {
		defer wg.Done()
		marketsB, errB = o.resolveMarkets(ctx, job.PlatformB, job.Limit)
	}()
	wg.Wait()

	if errA != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", job.PlatformA, errA)
	}
	if errB != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", job.PlatformB, errB)
	}
	return marketsA, marketsB, nil
}

func (o *Orchestrator) resolveMarkets(ctx context.Context, platform types.Platform, limit int) ([]*types.StandardMarket, error) {
	key := cache.MarketsKey(string(platform))

	var cached []*types.StandardMarket
	found, err := o.cache.Get(ctx, key, &cached)
	if err != nil {
		o.logger.Warn("cache-read-failed", zap.String("key", key), zap.Error(err))
	}
	if found {
		return cached, nil
	}

	adapter, ok := o.registry[platform]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for platform %s", platform)
	}

	markets, err := adapter.FetchMarkets(ctx, limit)
	if err != nil {
		return nil, err
	}

	if err := o.cache.Set(ctx, key, markets, cache.TTLMarkets); err != nil {
		o.logger.Warn("cache-write-failed", zap.String("key", key), zap.Error(err))
	}
	return markets, nil
}

// cacheResult writes both the latest-results key and a timestamped
// snapshot, per spec.md §4.11. Cache errors are logged, never propagated.
func (o *Orchestrator) cacheResult(ctx context.Context, result *Result, now time.Time) {
	if err := o.cache.Set(ctx, cache.OpportunitiesLatestKey, result, cache.TTLOpportunities); err != nil {
		o.logger.Warn("cache-write-failed", zap.String("key", cache.OpportunitiesLatestKey), zap.Error(err))
	}

	resultsKey := cache.ScanResultsKey(now.UnixMilli())
	if err := o.cache.Set(ctx, resultsKey, result, cache.TTLScanResults); err != nil {
		o.logger.Warn("cache-write-failed", zap.String("key", resultsKey), zap.Error(err))
	}
}

// marshalForBroadcast serializes a Result for the dashboard broadcast hub.
func marshalForBroadcast(result *Result) ([]byte, error) {
	return json.Marshal(result)
}
