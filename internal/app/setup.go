package app

import (
	"context"
	"fmt"
	"time"

	"github.com/mselser95/arb-scanner/internal/adapters"
	"github.com/mselser95/arb-scanner/internal/alerts"
	"github.com/mselser95/arb-scanner/internal/arbitrage"
	"github.com/mselser95/arb-scanner/internal/broadcast"
	"github.com/mselser95/arb-scanner/internal/matcher"
	"github.com/mselser95/arb-scanner/internal/orchestrator"
	"github.com/mselser95/arb-scanner/internal/queue"
	"github.com/mselser95/arb-scanner/internal/scheduler"
	"github.com/mselser95/arb-scanner/pkg/cache"
	"github.com/mselser95/arb-scanner/pkg/config"
	"github.com/mselser95/arb-scanner/pkg/healthprobe"
	"github.com/mselser95/arb-scanner/pkg/httpserver"
	"github.com/mselser95/arb-scanner/pkg/types"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// New builds the scanner daemon: adapter registry, matcher, calculator,
// alert dispatcher, tiered cache, durable queue, broadcast hub,
// orchestrator, scheduler, and the ambient HTTP surface.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	appCache, err := setupCache(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	registry, err := setupAdapters(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup adapters: %w", err)
	}

	m := matcher.New(matcher.Config{
		Threshold:          cfg.MatchThreshold,
		MaxDateDiffDays:    cfg.MatchMaxDateDiffDays,
		MinMatchCharLength: cfg.MatchMinMatchCharLength,
	})

	calc := arbitrage.New(arbitrage.Config{
		MinROI:       decimal.NewFromFloat(cfg.ArbMinROI),
		MinLiquidity: decimal.NewFromFloat(cfg.ArbMinLiquidity),
	})

	dispatcher := alerts.New(alerts.Config{
		Enabled:            cfg.AlertsEnabled,
		WebhookURL:         cfg.AlertsWebhookURL,
		MinProfitPercent:   decimal.NewFromFloat(cfg.AlertsMinProfitPercent),
		MinProfitAmount:    decimal.NewFromFloat(cfg.AlertsMinProfitAmount),
		CooldownMinutes:    cfg.AlertsCooldownMinutes,
		MaxAlertsPerMinute: cfg.AlertsMaxAlertsPerMinute,
	}, appCache, logger)

	hub := broadcast.New(broadcast.Config{
		PongTimeout:       cfg.BroadcastPongTimeout,
		PingInterval:      cfg.BroadcastPingInterval,
		MessageBufferSize: 16,
		Logger:            logger,
	})

	orch := orchestrator.New(registry, m, calc, dispatcher, appCache, hub, logger)

	q, err := setupQueue(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup queue: %w", err)
	}

	schedCfg := scheduler.DefaultConfig(cfg.FetchDefaultLimit)
	schedCfg.RecurringInterval = time.Duration(cfg.RecurringIntervalSeconds) * time.Second
	schedCfg.StatsInterval = time.Duration(cfg.StatsIntervalSeconds) * time.Second

	sched := scheduler.New(schedCfg, q, appCache, orch, logger)

	httpServer := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Cache:         appCache,
		Queue:         q,
		Broadcaster:   hub,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		hub:           hub,
		scheduler:     sched,
		dispatcher:    dispatcher,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupCache(cfg *config.Config, logger *zap.Logger) (cache.Cache, error) {
	return cache.NewTiered(cache.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		Logger:   logger,
	}, logger)
}

func setupAdapters(cfg *config.Config, logger *zap.Logger) (map[types.Platform]adapters.Adapter, error) {
	return adapters.NewRegistry(adapters.Config{
		BasePerPlatformURL: map[types.Platform]string{
			types.PlatformPM:  cfg.PMBaseURL,
			types.PlatformKAL: cfg.KALBaseURL,
			types.PlatformMAN: cfg.MANBaseURL,
		},
		TimeoutMs:    cfg.FetchTimeoutMs,
		DefaultLimit: cfg.FetchDefaultLimit,
		MaxLimit:     cfg.FetchMaxLimit,

		CircuitBreakerWindow:     cfg.CircuitBreakerWindow,
		CircuitBreakerTripRatio:  cfg.CircuitBreakerTripRatio,
		CircuitBreakerResetRatio: cfg.CircuitBreakerResetRatio,
		CircuitBreakerCoolDown:   cfg.CircuitBreakerCoolDown,
	}, logger)
}

func setupQueue(cfg *config.Config, logger *zap.Logger) (*queue.Queue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return queue.New(client, logger), nil
}
