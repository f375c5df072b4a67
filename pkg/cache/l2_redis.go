package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig configures the durable L2 tier.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Logger   *zap.Logger
}

// l2Cache is the durable, cross-process tier, grounded on the redis cache
// wrapper retrieved from the pack's crypto-funk example.
type l2Cache struct {
	client *redis.Client
	logger *zap.Logger
}

func newL2Cache(cfg RedisConfig) *l2Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &l2Cache{client: client, logger: cfg.Logger}
}

func (l *l2Cache) setRaw(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return l.client.Set(ctx, key, data, ttl).Err()
}

// getRaw returns the value and the remaining TTL so callers can repopulate
// L1 with a consistent expiry instead of re-deriving one.
func (l *l2Cache) getRaw(ctx context.Context, key string) ([]byte, time.Duration, bool, error) {
	data, err := l.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, err
	}

	ttl, err := l.client.TTL(ctx, key).Result()
	if err != nil {
		ttl = 0
	}
	return data, ttl, true, nil
}

func (l *l2Cache) existsRaw(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (l *l2Cache) deleteRaw(ctx context.Context, key string) error {
	return l.client.Del(ctx, key).Err()
}

func (l *l2Cache) clearRaw(ctx context.Context) error {
	return l.client.FlushDB(ctx).Err()
}

func (l *l2Cache) statsRaw(ctx context.Context) (Stats, error) {
	dbSize, err := l.client.DBSize(ctx).Result()
	if err != nil {
		return Stats{}, err
	}
	info, err := l.client.Info(ctx, "memory").Result()
	if err != nil {
		info = ""
	}
	return Stats{Keys: dbSize, MemoryHuman: parseUsedMemoryHuman(info)}, nil
}

func (l *l2Cache) close() error {
	return l.client.Close()
}
