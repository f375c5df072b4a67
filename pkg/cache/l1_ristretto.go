package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"
)

// l1Cache is the in-process hot tier, adapted from the teacher's Ristretto
// cache: stores pre-serialized bytes so the tiered cache owns encoding.
type l1Cache struct {
	cache  *ristretto.Cache
	logger *zap.Logger
}

func newL1Cache(logger *zap.Logger) (*l1Cache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1_000_000,
		MaxCost:     1 << 26, // 64MB of serialized market/opportunity data
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}

	return &l1Cache{cache: c, logger: logger}, nil
}

func (l *l1Cache) setRaw(_ context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if ok := l.cache.SetWithTTL(key, data, int64(len(data)), ttl); !ok {
		l.logger.Debug("l1-cache-set-dropped", zap.String("key", key))
	}
	// ristretto buffers sets; wait so the next Get sees this write.
	l.cache.Wait()
	return nil
}

func (l *l1Cache) getRaw(_ context.Context, key string) ([]byte, bool, error) {
	v, found := l.cache.Get(key)
	if !found {
		return nil, false, nil
	}
	data, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	return data, true, nil
}

func (l *l1Cache) deleteRaw(_ context.Context, key string) error {
	l.cache.Del(key)
	return nil
}

func (l *l1Cache) clearRaw(_ context.Context) error {
	l.cache.Clear()
	return nil
}

func (l *l1Cache) statsRaw() Stats {
	m := l.cache.Metrics
	keys := int64(m.KeysAdded()) - int64(m.KeysEvicted())
	if keys < 0 {
		keys = 0
	}
	cost := int64(m.CostAdded()) - int64(m.CostEvicted())
	return Stats{Keys: keys, MemoryHuman: humanizeBytes(cost)}
}

func (l *l1Cache) close() {
	l.cache.Close()
}
