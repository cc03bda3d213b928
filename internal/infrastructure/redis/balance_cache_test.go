package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceCache(t *testing.T) {
	client := setupTestRedis(t)
	cache := NewBalanceCache(client)
	ctx := context.Background()
	accountID := "test-account-123"

	t.Run("キャッシュミス時はErrCacheMissを返す", func(t *testing.T) {
		_ = cache.Invalidate(ctx, accountID)
		_, err := cache.Get(ctx, accountID)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("キャッシュにセットした値を取得できる", func(t *testing.T) {
		err := cache.Set(ctx, accountID, 500, 30*time.Second)
		require.NoError(t, err)

		balance, err := cache.Get(ctx, accountID)
		require.NoError(t, err)
		assert.Equal(t, 500, balance)
	})

	t.Run("キャッシュを無効化できる", func(t *testing.T) {
		err := cache.Set(ctx, accountID, 300, 30*time.Second)
		require.NoError(t, err)

		err = cache.Invalidate(ctx, accountID)
		require.NoError(t, err)

		_, err = cache.Get(ctx, accountID)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("TTL経過後はキャッシュミスになる", func(t *testing.T) {
		err := cache.Set(ctx, accountID, 100, 500*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(700 * time.Millisecond)

		_, err = cache.Get(ctx, accountID)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})
}

func TestRateLimiter_Allow(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	limiter := NewRateLimiter(client, 3, 10*time.Second)

	id := "test-rate-account"

	// 制限内のリクエストは許可される
	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, id)
		require.NoError(t, err)
		assert.True(t, ok, "request %d should be allowed", i+1)
	}

	// 制限を超えたリクエストは拒否される
	ok, err := limiter.Allow(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}
