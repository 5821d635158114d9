// Package cache provides the optional key-value backend used to persist
// chart sparklines and historical OHLC. Absence of a backend, transient
// errors, and corrupt entries must all be tolerated -- callers treat every
// method as best-effort. A Redis-backed implementation sits behind the same
// interface as an in-memory one, selected by whether a Redis address was
// configured.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV is the minimal persistence contract the chart store and backfill
// service depend on. All methods are best-effort: an error or a miss must
// never block the caller's primary (non-persisted) data path.
type KV interface {
	// Get returns the raw value and whether it was found and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores value under key with an optional TTL (0 = no expiry).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	// ListPush appends value to the list at key, trimming to maxLen from the
	// head (oldest first), and refreshes the key's TTL.
	ListPush(ctx context.Context, key string, value []byte, maxLen int64, ttl time.Duration)
	// ListAll returns every element of the list at key, oldest first.
	ListAll(ctx context.Context, key string) ([][]byte, bool)
	// ZAdd adds value to the sorted set at key with the given score.
	ZAdd(ctx context.Context, key string, score float64, value []byte, ttl time.Duration)
	// ZRange returns sorted-set members in ascending score order.
	ZRange(ctx context.Context, key string) ([][]byte, bool)
}

// NewAuto returns a Redis-backed KV when addr is non-empty, or a disabled
// no-op KV otherwise. The chart store and backfill service must work
// identically (minus durability) either way.
func NewAuto(addr, password string, db int, dialTimeout time.Duration) KV {
	if addr == "" {
		return noop{}
	}
	if dialTimeout <= 0 {
		dialTimeout = 2 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: dialTimeout,
	})
	return &redisKV{r: client}
}

type redisKV struct {
	r *redis.Client
}

func (k *redisKV) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 500*time.Millisecond)
}

func (k *redisKV) Get(_ context.Context, key string) ([]byte, bool) {
	ctx, cancel := k.ctx()
	defer cancel()
	v, err := k.r.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return v, true
}

func (k *redisKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	ctx, cancel := k.ctx()
	defer cancel()
	_ = k.r.Set(ctx, key, value, ttl).Err()
}

func (k *redisKV) ListPush(_ context.Context, key string, value []byte, maxLen int64, ttl time.Duration) {
	ctx, cancel := k.ctx()
	defer cancel()
	pipe := k.r.TxPipeline()
	pipe.RPush(ctx, key, value)
	if maxLen > 0 {
		pipe.LTrim(ctx, key, -maxLen, -1)
	}
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, _ = pipe.Exec(ctx)
}

func (k *redisKV) ListAll(_ context.Context, key string) ([][]byte, bool) {
	ctx, cancel := k.ctx()
	defer cancel()
	vals, err := k.r.LRange(ctx, key, 0, -1).Result()
	if err != nil || len(vals) == 0 {
		return nil, false
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out, true
}

func (k *redisKV) ZAdd(_ context.Context, key string, score float64, value []byte, ttl time.Duration) {
	ctx, cancel := k.ctx()
	defer cancel()
	pipe := k.r.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: string(value)})
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, _ = pipe.Exec(ctx)
}

func (k *redisKV) ZRange(_ context.Context, key string) ([][]byte, bool) {
	ctx, cancel := k.ctx()
	defer cancel()
	vals, err := k.r.ZRangeByScore(ctx, key, &redis.ZRangeBy{Min: "-inf", Max: "+inf"}).Result()
	if err != nil || len(vals) == 0 {
		return nil, false
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out, true
}

// noop is the disabled KV used when no backend is configured.
type noop struct{}

func (noop) Get(context.Context, string) ([]byte, bool)                       { return nil, false }
func (noop) Set(context.Context, string, []byte, time.Duration)               {}
func (noop) ListPush(context.Context, string, []byte, int64, time.Duration)   {}
func (noop) ListAll(context.Context, string) ([][]byte, bool)                 { return nil, false }
func (noop) ZAdd(context.Context, string, float64, []byte, time.Duration)     {}
func (noop) ZRange(context.Context, string) ([][]byte, bool)                  { return nil, false }
