package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter は固定ウィンドウ方式のレート制限を行う
// 呼び出し元の識別子（アカウントID等）をキーとし、状態はRedisに持つため
// プロセス内の可変マップに依存しない。エントリはウィンドウ経過で自然に失効する
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRateLimiter は新しいRateLimiterを作成する
func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window}
}

// Allow は識別子ごとのリクエストを1カウントし、制限内かを返す
func (r *RateLimiter) Allow(ctx context.Context, id string) (bool, error) {
	windowStart := time.Now().Unix() / int64(r.window.Seconds())
	key := fmt.Sprintf("ratelimit:%s:%d", id, windowStart)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("レート制限カウントに失敗: %w", err)
	}
	if count == 1 {
		// ウィンドウの初回リクエストでTTLを設定する
		if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
			return false, fmt.Errorf("レート制限TTL設定に失敗: %w", err)
		}
	}
	return count <= int64(r.limit), nil
}
