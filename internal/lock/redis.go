package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const DefaultKey = "con-registration:badge-lock"

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Redis serializes numbering across processes. Local waiters queue on an
// in-process lock first so only one of them polls Redis at a time.
type Redis struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	retry  time.Duration
	local  *Local

	mu    sync.Mutex
	token string
}

type RedisOption func(*Redis)

func WithKey(key string) RedisOption {
	return func(r *Redis) { r.key = key }
}

func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = ttl }
}

func WithRetry(retry time.Duration) RedisOption {
	return func(r *Redis) { r.retry = retry }
}

func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		key:    DefaultKey,
		ttl:    30 * time.Second,
		retry:  25 * time.Millisecond,
		local:  NewLocal(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRedisClient connects and pings.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	slog.Info("Redis client connected", "addr", addr)
	return rdb, nil
}

func (r *Redis) Lock(ctx context.Context) error {
	if err := r.local.Lock(ctx); err != nil {
		return err
	}
	token := uuid.NewString()
	for {
		ok, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
		if err != nil {
			r.local.Unlock(ctx)
			return fmt.Errorf("acquire %s: %w", r.key, err)
		}
		if ok {
			r.mu.Lock()
			r.token = token
			r.mu.Unlock()
			return nil
		}
		select {
		case <-ctx.Done():
			r.local.Unlock(ctx)
			return ctx.Err()
		case <-time.After(r.retry):
		}
	}
}

func (r *Redis) Unlock(ctx context.Context) error {
	r.mu.Lock()
	token := r.token
	r.token = ""
	r.mu.Unlock()
	if token == "" {
		return ErrNotHeld
	}
	defer r.local.Unlock(ctx)

	n, err := releaseScript.Run(ctx, r.client, []string{r.key}, token).Int()
	if err != nil {
		return fmt.Errorf("release %s: %w", r.key, err)
	}
	if n == 0 {
		return fmt.Errorf("release %s: %w", r.key, ErrNotHeld)
	}
	return nil
}
