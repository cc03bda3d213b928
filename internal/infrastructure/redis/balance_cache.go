package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// BalanceCacheInterface は残高キャッシュの抽象。テストではモックに差し替える
type BalanceCacheInterface interface {
	Get(ctx context.Context, accountID string) (int, error)
	Set(ctx context.Context, accountID string, balance int, ttl time.Duration) error
	Invalidate(ctx context.Context, accountID string) error
}

// BalanceCache はポイント残高のキャッシュを管理する
// 台帳が常に正であり、キャッシュは導出値のショートカットに過ぎない
// 不整合が疑われる場合は Invalidate して台帳から再集計する
type BalanceCache struct {
	client *redis.Client
}

var _ BalanceCacheInterface = (*BalanceCache)(nil)

// NewBalanceCache は新しいBalanceCacheインスタンスを作成する
func NewBalanceCache(client *redis.Client) *BalanceCache {
	return &BalanceCache{client: client}
}

// Get はアカウントの残高をキャッシュから取得する
func (c *BalanceCache) Get(ctx context.Context, accountID string) (int, error) {
	key := c.balanceKey(accountID)
	val, err := c.client.Get(ctx, key).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	return val, nil
}

// Set はアカウントの残高をキャッシュに保存する
func (c *BalanceCache) Set(ctx context.Context, accountID string, balance int, ttl time.Duration) error {
	key := c.balanceKey(accountID)
	err := c.client.Set(ctx, key, balance, ttl).Err()
	if err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate はアカウントの残高キャッシュを無効化する
func (c *BalanceCache) Invalidate(ctx context.Context, accountID string) error {
	key := c.balanceKey(accountID)
	err := c.client.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *BalanceCache) balanceKey(accountID string) string {
	return fmt.Sprintf("loyalty:balance:%s", accountID)
}
