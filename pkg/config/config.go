package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration, enumerated in spec.md §6.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Platform fetching (spec.md §6 "fetching")
	PMBaseURL         string
	KALBaseURL        string
	MANBaseURL        string
	FetchTimeoutMs    int
	FetchDefaultLimit int
	FetchMaxLimit     int

	// Matching (spec.md §6 "matching")
	MatchThreshold          float64
	MatchMaxDateDiffDays    int
	MatchMinMatchCharLength int

	// Arbitrage (spec.md §6 "arbitrage")
	ArbMinROI       float64
	ArbMinLiquidity float64

	// Alerts (spec.md §6 "alerts")
	AlertsEnabled            bool
	AlertsWebhookURL         string
	AlertsMinProfitPercent   float64
	AlertsMinProfitAmount    float64
	AlertsCooldownMinutes    int
	AlertsMaxAlertsPerMinute int

	// Cache/Queue backing (spec.md §6 "cache/queue backing")
	RedisHost     string
	RedisPort     int
	RedisPassword string

	// Scheduler (spec.md §4.9)
	RecurringIntervalSeconds int
	StatsIntervalSeconds     int

	// Circuit breaker (SPEC_FULL.md §4.12)
	CircuitBreakerWindow     int
	CircuitBreakerTripRatio  float64
	CircuitBreakerResetRatio float64
	CircuitBreakerCoolDown   time.Duration

	// Broadcast hub (SPEC_FULL.md §4.15)
	BroadcastPingInterval time.Duration
	BroadcastPongTimeout  time.Duration
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		PMBaseURL:         getEnvOrDefault("PM_BASE_URL", "https://gamma-api.polymarket.com"),
		KALBaseURL:        getEnvOrDefault("KAL_BASE_URL", "https://trading-api.kalshi.com"),
		MANBaseURL:        getEnvOrDefault("MAN_BASE_URL", "https://api.manifold.markets"),
		FetchTimeoutMs:    getIntOrDefault("FETCH_TIMEOUT_MS", 10000),
		FetchDefaultLimit: getIntOrDefault("FETCH_DEFAULT_LIMIT", 100),
		FetchMaxLimit:     getIntOrDefault("FETCH_MAX_LIMIT", 500),

		MatchThreshold:          getFloat64OrDefault("MATCH_THRESHOLD", 0.60),
		MatchMaxDateDiffDays:    getIntOrDefault("MATCH_MAX_DATE_DIFF_DAYS", 30),
		MatchMinMatchCharLength: getIntOrDefault("MATCH_MIN_MATCH_CHAR_LENGTH", 3),

		ArbMinROI:       getFloat64OrDefault("ARB_MIN_ROI", 0.01),
		ArbMinLiquidity: getFloat64OrDefault("ARB_MIN_LIQUIDITY", 100),

		AlertsEnabled:            getBoolOrDefault("ALERTS_ENABLED", false),
		AlertsWebhookURL:         os.Getenv("ALERTS_WEBHOOK_URL"),
		AlertsMinProfitPercent:   getFloat64OrDefault("ALERTS_MIN_PROFIT_PERCENT", 5),
		AlertsMinProfitAmount:    getFloat64OrDefault("ALERTS_MIN_PROFIT_AMOUNT", 10),
		AlertsCooldownMinutes:    getIntOrDefault("ALERTS_COOLDOWN_MINUTES", 10),
		AlertsMaxAlertsPerMinute: getIntOrDefault("ALERTS_MAX_ALERTS_PER_MINUTE", 30),

		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getIntOrDefault("REDIS_PORT", 6379),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		RecurringIntervalSeconds: getIntOrDefault("SCHEDULER_RECURRING_INTERVAL_SECONDS", 60),
		StatsIntervalSeconds:     getIntOrDefault("SCHEDULER_STATS_INTERVAL_SECONDS", 30),

		CircuitBreakerWindow:     getIntOrDefault("CIRCUIT_BREAKER_WINDOW", 20),
		CircuitBreakerTripRatio:  getFloat64OrDefault("CIRCUIT_BREAKER_TRIP_RATIO", 0.5),
		CircuitBreakerResetRatio: getFloat64OrDefault("CIRCUIT_BREAKER_RESET_RATIO", 0.2),
		CircuitBreakerCoolDown:   getDurationOrDefault("CIRCUIT_BREAKER_COOLDOWN", 30*time.Second),

		BroadcastPingInterval: getDurationOrDefault("BROADCAST_PING_INTERVAL", 10*time.Second),
		BroadcastPongTimeout:  getDurationOrDefault("BROADCAST_PONG_TIMEOUT", 15*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return errors.New("HTTP_PORT cannot be empty")
	}
	if c.PMBaseURL == "" || c.KALBaseURL == "" || c.MANBaseURL == "" {
		return errors.New("PM_BASE_URL, KAL_BASE_URL, and MAN_BASE_URL must all be set")
	}
	if c.MatchThreshold <= 0 || c.MatchThreshold > 1 {
		return fmt.Errorf("MATCH_THRESHOLD must be in (0,1], got %f", c.MatchThreshold)
	}
	if c.ArbMinROI < 0 {
		return fmt.Errorf("ARB_MIN_ROI must be non-negative, got %f", c.ArbMinROI)
	}
	if c.FetchDefaultLimit <= 0 || c.FetchMaxLimit < c.FetchDefaultLimit {
		return fmt.Errorf("FETCH_MAX_LIMIT (%d) must be >= FETCH_DEFAULT_LIMIT (%d), both positive", c.FetchMaxLimit, c.FetchDefaultLimit)
	}
	if c.RedisHost == "" {
		return errors.New("REDIS_HOST cannot be empty")
	}
	if c.RecurringIntervalSeconds <= 0 {
		return fmt.Errorf("SCHEDULER_RECURRING_INTERVAL_SECONDS must be positive, got %d", c.RecurringIntervalSeconds)
	}
	if c.StatsIntervalSeconds <= 0 {
		return fmt.Errorf("SCHEDULER_STATS_INTERVAL_SECONDS must be positive, got %d", c.StatsIntervalSeconds)
	}
	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolVal
}
