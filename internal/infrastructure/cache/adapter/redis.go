package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"go-presence/internal/infrastructure/cache/port"
)

var (
	acquireMemberScript = redis.NewScript(`
local n = redis.call('HINCRBY', KEYS[1], ARGV[1], 1)
local added = redis.call('SADD', KEYS[2], ARGV[1])
return {n, added}
`)

	releaseMemberScript = redis.NewScript(`
local n = redis.call('HINCRBY', KEYS[1], ARGV[1], -1)
local removed = 0
if n <= 0 then
	redis.call('HDEL', KEYS[1], ARGV[1])
	removed = redis.call('SREM', KEYS[2], ARGV[1])
	n = 0
end
return {n, removed}
`)
)

// RedisCache satisfies port.Cache on top of a go-redis v9 client.
type RedisCache struct {
	client *redis.Client
}

// NewRedisAdapter parses url, connects and verifies the server with a ping.
func NewRedisAdapter(ctx context.Context, url string) (*RedisCache, error) {
	if url == "" {
		return nil, errors.New("redis: url is empty")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	c := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &RedisCache{client: c}, nil
}

// NewRedisCacheFromClient wraps an existing client; the caller keeps ownership.
func NewRedisCacheFromClient(c *redis.Client) *RedisCache {
	return &RedisCache{client: c}
}

var _ port.Cache = (*RedisCache)(nil)

// Client exposes the underlying client for adapters that share the connection.
func (r *RedisCache) Client() *redis.Client {
	return r.client
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	res, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", port.ErrMiss
	}
	if err != nil {
		return "", err
	}
	return res, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisCache) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	return r.client.Del(ctx, keys...).Result()
}

func (r *RedisCache) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	return r.client.SAdd(ctx, key, toArgs(members)...).Result()
}

func (r *RedisCache) SRem(ctx context.Context, key string, members ...string) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	return r.client.SRem(ctx, key, toArgs(members)...).Result()
}

func (r *RedisCache) SIsMember(ctx context.Context, key string, member string) (bool, error) {
	return r.client.SIsMember(ctx, key, member).Result()
}

func (r *RedisCache) SCard(ctx context.Context, key string) (int64, error) {
	return r.client.SCard(ctx, key).Result()
}

func (r *RedisCache) SMembers(ctx context.Context, key string) ([]string, error) {
	return r.client.SMembers(ctx, key).Result()
}

func (r *RedisCache) HIncrBy(ctx context.Context, key string, field string, incr int64) (int64, error) {
	return r.client.HIncrBy(ctx, key, field, incr).Result()
}

func (r *RedisCache) HDel(ctx context.Context, key string, fields ...string) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}
	return r.client.HDel(ctx, key, fields...).Result()
}

func (r *RedisCache) AcquireMember(ctx context.Context, countKey, setKey, member string) (int64, bool, error) {
	return runCounterScript(ctx, r.client, acquireMemberScript, countKey, setKey, member)
}

func (r *RedisCache) ReleaseMember(ctx context.Context, countKey, setKey, member string) (int64, bool, error) {
	return runCounterScript(ctx, r.client, releaseMemberScript, countKey, setKey, member)
}

// runCounterScript runs a script that returns {count, setChanged}.
func runCounterScript(ctx context.Context, c *redis.Client, script *redis.Script, countKey, setKey, member string) (int64, bool, error) {
	res, err := script.Run(ctx, c, []string{countKey, setKey}, member).Int64Slice()
	if err != nil {
		return 0, false, err
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("redis: unexpected script reply %v", res)
	}
	return res[0], res[1] > 0, nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func toArgs(values []string) []interface{} {
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
