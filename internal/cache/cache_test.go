package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hypecycle/internal/cache"
	"github.com/kiranshivaraju/hypecycle/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis spins up a Redis container and returns a connected RedisCache.
func setupRedis(t *testing.T) *cache.RedisCache {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	rc, err := cache.NewRedisCache("redis://" + host + ":" + port.Port())
	require.NoError(t, err)
	t.Cleanup(func() { rc.Close() })

	return rc
}

// uniqueKey keeps subtests sharing one container from seeing each other.
func uniqueKey(prefix string) string {
	return prefix + ":" + uuid.NewString()[:8]
}

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := cache.NewRedisCache("localhost:6379")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse redis URL")
}

func TestRedisCache(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, rc.Ping(ctx))
	})

	t.Run("set get roundtrip", func(t *testing.T) {
		key := uniqueKey("roundtrip")
		require.NoError(t, rc.Set(ctx, key, []byte("hello"), 10*time.Second))

		val, found, err := rc.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []byte("hello"), val)
	})

	t.Run("missing key", func(t *testing.T) {
		val, found, err := rc.Get(ctx, uniqueKey("absent"))
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, val)
	})

	t.Run("ttl expiry", func(t *testing.T) {
		key := uniqueKey("expiry")
		require.NoError(t, rc.Set(ctx, key, []byte("temp"), time.Second))

		time.Sleep(1500 * time.Millisecond)

		_, found, err := rc.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("incr counts", func(t *testing.T) {
		key := cache.RateLimitKey(uniqueKey("client"))
		for want := int64(1); want <= 3; want++ {
			val, err := rc.IncrWithExpiry(ctx, key, 10*time.Second)
			require.NoError(t, err)
			assert.Equal(t, want, val)
		}
	})

	t.Run("incr window is fixed", func(t *testing.T) {
		key := cache.RateLimitKey(uniqueKey("window"))

		_, err := rc.IncrWithExpiry(ctx, key, time.Second)
		require.NoError(t, err)
		time.Sleep(600 * time.Millisecond)
		// a later hit must not push the window out
		_, err = rc.IncrWithExpiry(ctx, key, time.Second)
		require.NoError(t, err)

		time.Sleep(700 * time.Millisecond)

		val, err := rc.IncrWithExpiry(ctx, key, 10*time.Second)
		require.NoError(t, err)
		assert.Equal(t, int64(1), val)
	})

	t.Run("analysis cache over redis", func(t *testing.T) {
		ac := cache.NewAnalysisCache(rc)
		keyword := uniqueKey("solid-state batteries")
		now := time.Now().UTC()
		r := &models.ClassificationResult{
			Keyword:    keyword,
			Phase:      models.PhaseSlope,
			Confidence: 0.66,
			Reasoning:  "Filing velocity is steady.",
			CollectorData: models.CollectorData{
				News: &models.NewsResult{ArticlesTotal: 120},
			},
			CreatedAt: now,
			ExpiresAt: now.Add(time.Hour),
		}
		require.NoError(t, ac.SetAnalysis(ctx, r))

		got, found, err := ac.GetAnalysis(ctx, keyword)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, models.PhaseSlope, got.Phase)
		require.NotNil(t, got.CollectorData.News)
		assert.Equal(t, 120, got.CollectorData.News.ArticlesTotal)
		assert.Nil(t, got.CollectorData.Finance)
	})
}

// --- NopCache ---

func TestNopCache(t *testing.T) {
	ctx := context.Background()
	var c cache.Cache = cache.NopCache{}

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	val, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, val)

	for i := 0; i < 3; i++ {
		n, err := c.IncrWithExpiry(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	}
	assert.NoError(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}

// --- Cache Key Builders ---

func TestAnalysisKey(t *testing.T) {
	assert.Equal(t, "analysis:quantum computing", cache.AnalysisKey("  Quantum Computing "))
}

func TestRateLimitKey(t *testing.T) {
	assert.Equal(t, "ratelimit:203.0.113.9", cache.RateLimitKey("203.0.113.9"))
}

func TestKeyBuilders_NonColliding(t *testing.T) {
	assert.NotEqual(t, cache.AnalysisKey("x"), cache.RateLimitKey("x"))
}
