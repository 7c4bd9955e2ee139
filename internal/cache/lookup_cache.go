package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/blacklisthub/blacklisthub-backend/internal/config"
	"github.com/blacklisthub/blacklisthub-backend/internal/models"
	"github.com/redis/go-redis/v9"
)

// LookupCache stores exact lookup answers keyed by (type, value).
// Cache failures never fail a lookup; they are logged and treated as misses.
//
// Every key carries a write generation bumped by Invalidate. Get reports the
// generation seen on a miss and Set drops the answer when it has moved since,
// so a lookup that raced a write cannot cache the pre-write answer.
type LookupCache interface {
	Get(ctx context.Context, entityType models.EntityType, value string) (result *models.LookupResult, gen int64, ok bool)
	Set(ctx context.Context, result *models.LookupResult, gen int64, ttl time.Duration)
	Invalidate(ctx context.Context, entityType models.EntityType, value string)
}

// NoopCache never stores anything
type NoopCache struct{}

func (NoopCache) Get(context.Context, models.EntityType, string) (*models.LookupResult, int64, bool) {
	return nil, 0, false
}

func (NoopCache) Set(context.Context, *models.LookupResult, int64, time.Duration) {}

func (NoopCache) Invalidate(context.Context, models.EntityType, string) {}

// setIfGeneration writes KEYS[1] only while KEYS[2] still holds ARGV[1]
var setIfGeneration = redis.NewScript(`
local gen = redis.call("GET", KEYS[2])
if (gen or "0") ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

// RedisLookupCache keeps lookup answers in Redis as JSON
type RedisLookupCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisClient connects to Redis. Returns nil when no address is configured.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// NewRedisLookupCache wraps client; ttl caps how long an answer is served
func NewRedisLookupCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisLookupCache {
	return &RedisLookupCache{client: client, ttl: ttl, logger: logger}
}

func lookupKey(entityType models.EntityType, value string) string {
	return "blacklisthub:lookup:" + string(entityType) + ":" + value
}

func generationKey(entityType models.EntityType, value string) string {
	return "blacklisthub:lookup-gen:" + string(entityType) + ":" + value
}

func (c *RedisLookupCache) Get(ctx context.Context, entityType models.EntityType, value string) (*models.LookupResult, int64, bool) {
	vals, err := c.client.MGet(ctx, lookupKey(entityType, value), generationKey(entityType, value)).Result()
	if err != nil {
		c.logger.Warn("lookup cache read failed", "error", err, "type", entityType)
		return nil, -1, false
	}
	gen, err := parseGeneration(vals[1])
	if err != nil {
		c.logger.Warn("lookup cache generation undecodable", "error", err, "type", entityType)
		return nil, -1, false
	}
	raw, ok := vals[0].(string)
	if !ok {
		return nil, gen, false
	}
	var result models.LookupResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		c.logger.Warn("lookup cache entry undecodable", "error", err, "type", entityType)
		return nil, gen, false
	}
	return &result, gen, true
}

// Set stores result for the shorter of ttl and the configured ttl, unless the key
// was invalidated after Get reported gen. A negative gen never stores.
func (c *RedisLookupCache) Set(ctx context.Context, result *models.LookupResult, gen int64, ttl time.Duration) {
	if gen < 0 {
		return
	}
	if ttl <= 0 || ttl > c.ttl {
		ttl = c.ttl
	}
	raw, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn("lookup cache encode failed", "error", err)
		return
	}
	keys := []string{lookupKey(result.Type, result.Value), generationKey(result.Type, result.Value)}
	ms := ttl.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	stored, err := setIfGeneration.Run(ctx, c.client, keys, strconv.FormatInt(gen, 10), raw, ms).Int()
	if err != nil {
		c.logger.Warn("lookup cache write failed", "error", err, "type", result.Type)
		return
	}
	if stored == 0 {
		c.logger.Debug("lookup cache write skipped after concurrent invalidation", "type", result.Type)
	}
}

// Invalidate drops the cached answer and bumps the key's generation. The generation
// outlives any answer it guards by one configured ttl.
func (c *RedisLookupCache) Invalidate(ctx context.Context, entityType models.EntityType, value string) {
	genKey := generationKey(entityType, value)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, 2*c.ttl)
		pipe.Del(ctx, lookupKey(entityType, value))
		return nil
	})
	if err != nil {
		c.logger.Warn("lookup cache invalidation failed", "error", err, "type", entityType)
	}
}

func parseGeneration(v any) (int64, error) {
	if v == nil {
		return 0, nil
	}
	raw, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected generation value %T", v)
	}
	return strconv.ParseInt(raw, 10, 64)
}
