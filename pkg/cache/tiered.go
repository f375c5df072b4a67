package cache

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Tiered is the two-tier Cache: an in-process ristretto tier for hot reads
// backed through to Redis as the durable, cross-process tier. Values are
// JSON-encoded once, at this layer, so both tiers only ever move raw bytes.
type Tiered struct {
	l1     *l1Cache
	l2     *l2Cache
	logger *zap.Logger
}

// NewTiered builds the two-tier cache described in spec.md §4.7.
func NewTiered(redisCfg RedisConfig, logger *zap.Logger) (*Tiered, error) {
	l1, err := newL1Cache(logger)
	if err != nil {
		return nil, err
	}
	return &Tiered{
		l1:     l1,
		l2:     newL2Cache(redisCfg),
		logger: logger,
	}, nil
}

func (t *Tiered) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		errorsTotal.WithLabelValues("set").Inc()
		return err
	}

	if err := t.l1.setRaw(ctx, key, data, ttl); err != nil {
		errorsTotal.WithLabelValues("set").Inc()
	} else {
		setsTotal.WithLabelValues("l1").Inc()
	}

	if err := t.l2.setRaw(ctx, key, data, ttl); err != nil {
		errorsTotal.WithLabelValues("set").Inc()
		t.logger.Debug("l2-cache-set-failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	setsTotal.WithLabelValues("l2").Inc()
	return nil
}

// Get checks L1 first; a miss falls through to L2 and, on an L2 hit,
// repopulates L1 using the real remaining Redis TTL. Errors at any tier are
// treated as a miss per spec.md §7, never surfaced to the caller.
func (t *Tiered) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if data, found, err := t.l1.getRaw(ctx, key); err == nil && found {
		hitsTotal.WithLabelValues("l1").Inc()
		return true, json.Unmarshal(data, dest)
	}

	data, ttl, found, err := t.l2.getRaw(ctx, key)
	if err != nil {
		errorsTotal.WithLabelValues("get").Inc()
		missesTotal.Inc()
		return false, nil
	}
	if !found {
		missesTotal.Inc()
		return false, nil
	}

	hitsTotal.WithLabelValues("l2").Inc()
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}

	if ttl > 0 {
		if err := t.l1.setRaw(ctx, key, data, ttl); err != nil {
			t.logger.Debug("l1-cache-repopulate-failed", zap.String("key", key), zap.Error(err))
		}
	}
	return true, nil
}

func (t *Tiered) Exists(ctx context.Context, key string) (bool, error) {
	if _, found, err := t.l1.getRaw(ctx, key); err == nil && found {
		return true, nil
	}
	found, err := t.l2.existsRaw(ctx, key)
	if err != nil {
		errorsTotal.WithLabelValues("exists").Inc()
		return false, nil
	}
	return found, nil
}

func (t *Tiered) Delete(ctx context.Context, key string) error {
	_ = t.l1.deleteRaw(ctx, key)
	if err := t.l2.deleteRaw(ctx, key); err != nil {
		errorsTotal.WithLabelValues("delete").Inc()
		return err
	}
	return nil
}

func (t *Tiered) Clear(ctx context.Context) error {
	_ = t.l1.clearRaw(ctx)
	if err := t.l2.clearRaw(ctx); err != nil {
		errorsTotal.WithLabelValues("clear").Inc()
		return err
	}
	return nil
}

// Stats reports the durable L2 tier's occupancy, since it is the tier the
// operator cares about for capacity planning.
func (t *Tiered) Stats(ctx context.Context) (Stats, error) {
	stats, err := t.l2.statsRaw(ctx)
	if err != nil {
		errorsTotal.WithLabelValues("stats").Inc()
		return Stats{}, err
	}
	return stats, nil
}

func (t *Tiered) Close() error {
	t.l1.close()
	return t.l2.close()
}
