package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacklisthub/blacklisthub-backend/internal/config"
	"github.com/blacklisthub/blacklisthub-backend/internal/models"
)

func TestNewRedisClientDisabledWithoutAddr(t *testing.T) {
	client, err := NewRedisClient(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewRedisClientFailsWhenUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := NewRedisClient(ctx, config.RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestRedisLookupCacheDegradesToMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	c := NewRedisLookupCache(client, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	got, gen, ok := c.Get(ctx, models.EntityEmail, "a@b.com")
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.Negative(t, gen)
	c.Set(ctx, &models.LookupResult{Type: models.EntityEmail, Value: "a@b.com", Hit: true}, gen, time.Hour)
	c.Set(ctx, &models.LookupResult{Type: models.EntityEmail, Value: "a@b.com", Hit: true}, 0, time.Hour)
	c.Invalidate(ctx, models.EntityEmail, "a@b.com")
}

func TestLookupKey(t *testing.T) {
	assert.Equal(t, "blacklisthub:lookup:email:a@b.com", lookupKey(models.EntityEmail, "a@b.com"))
	assert.Equal(t, "blacklisthub:lookup-gen:email:a@b.com", generationKey(models.EntityEmail, "a@b.com"))
}

func TestParseGeneration(t *testing.T) {
	gen, err := parseGeneration(nil)
	require.NoError(t, err)
	assert.Zero(t, gen)

	gen, err = parseGeneration("7")
	require.NoError(t, err)
	assert.EqualValues(t, 7, gen)

	_, err = parseGeneration("seven")
	assert.Error(t, err)
	_, err = parseGeneration(7)
	assert.Error(t, err)
}

func TestNoopCache(t *testing.T) {
	var c LookupCache = NoopCache{}
	c.Set(context.Background(), &models.LookupResult{Type: models.EntityIP, Value: "1.2.3.4"}, 0, time.Minute)
	_, _, ok := c.Get(context.Background(), models.EntityIP, "1.2.3.4")
	assert.False(t, ok)
}
