package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-hotel-reservation/internal/domain/identity"
	"github.com/sanosuguru/go-hotel-reservation/internal/domain/loyalty"
	"github.com/sanosuguru/go-hotel-reservation/internal/domain/transaction"
	redisinfra "github.com/sanosuguru/go-hotel-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-hotel-reservation/internal/pkg/logger"
)

// 残高キャッシュのTTL
const balanceCacheTTL = 5 * time.Minute

// LoyaltyService はポイント台帳とポイント交換を管理する
// 台帳エントリは追記のみで、残高は常にエントリ合計から導出できる
type LoyaltyService struct {
	txm          transaction.Manager
	repo         loyalty.Repository
	lockManager  redisinfra.LockManagerInterface
	balanceCache redisinfra.BalanceCacheInterface
	notifier     Notifier
}

func NewLoyaltyService(
	txm transaction.Manager,
	repo loyalty.Repository,
	lm redisinfra.LockManagerInterface,
	bc redisinfra.BalanceCacheInterface,
	notifier Notifier,
) *LoyaltyService {
	return &LoyaltyService{
		txm:          txm,
		repo:         repo,
		lockManager:  lm,
		balanceCache: bc,
		notifier:     notifier,
	}
}

// Redeem はポイントを割引バウチャーに変換する
// 残高不足の場合は現在残高付きのエラーを返し、台帳は変更されない
func (s *LoyaltyService) Redeem(ctx context.Context, accountID string, points int, principal identity.Principal) (*loyalty.Redemption, error) {
	if points <= 0 {
		return nil, loyalty.ErrInvalidPoints
	}
	caps := identity.CapabilitiesFor(principal)
	if !caps.CanRedeemFor(accountID) {
		return nil, loyalty.ErrPermissionDenied
	}

	// アカウント単位の分散ロックで同時Redeemを直列化する
	// （ストア側のアドバイザリロックと併用する二重の守り）
	if s.lockManager != nil {
		lock, err := s.lockManager.AcquireLockWithRetry(ctx,
			redisinfra.AccountLockKey(accountID), 5*time.Second, 3, 50*time.Millisecond)
		if err != nil {
			if errors.Is(err, redisinfra.ErrLockNotAcquired) {
				return nil, fmt.Errorf("ポイント操作が混み合っています: %w", err)
			}
			return nil, fmt.Errorf("ロック取得に失敗: %w", err)
		}
		defer lock.Release(ctx)
	}

	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	balance, err := s.repo.BalanceForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, fmt.Errorf("残高取得に失敗: %w", err)
	}
	if points > balance {
		recordLoyaltyOp("redeem", "insufficient")
		return nil, &loyalty.InsufficientPointsError{Balance: balance, Requested: points}
	}

	entry := loyalty.NewEntry(accountID, -points, loyalty.ReasonRedeem, nil)
	if err := s.repo.AppendEntry(ctx, tx, entry); err != nil {
		return nil, err
	}
	red, err := loyalty.NewRedemption(accountID, points)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateRedemption(ctx, tx, red); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	recordLoyaltyOp("redeem", "success")
	s.invalidateBalance(ctx, accountID)
	if s.notifier != nil {
		go func() {
			nctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.notifier.Notify(nctx, accountID, NotifyPointsRedeemed, map[string]any{
				"redemption_id": red.ID,
				"points":        red.Points,
				"discount":      red.Discount.String(),
			}); err != nil {
				logger.Warn("通知の発行に失敗", zap.String("account_id", accountID), zap.Error(err))
			}
		}()
	}
	return red, nil
}

// Earn はポイントを付与する。points > 0 であれば常に成功する
func (s *LoyaltyService) Earn(ctx context.Context, accountID string, points int, reason loyalty.Reason, reservationID *string) (*loyalty.LedgerEntry, error) {
	if points <= 0 {
		return nil, loyalty.ErrInvalidPoints
	}
	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	entry := loyalty.NewEntry(accountID, points, reason, reservationID)
	if err := s.repo.AppendEntry(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}
	recordLoyaltyOp("earn", "success")
	s.invalidateBalance(ctx, accountID)
	return entry, nil
}

// Balance は現在のポイント残高を返す
// キャッシュヒット時はその値を、ミス時は台帳から再集計してキャッシュする
func (s *LoyaltyService) Balance(ctx context.Context, accountID string) (int, error) {
	if s.balanceCache != nil {
		if balance, err := s.balanceCache.Get(ctx, accountID); err == nil {
			return balance, nil
		}
	}
	balance, err := s.repo.Balance(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if s.balanceCache != nil {
		if err := s.balanceCache.Set(ctx, accountID, balance, balanceCacheTTL); err != nil {
			logger.Warn("残高キャッシュの保存に失敗", zap.String("account_id", accountID), zap.Error(err))
		}
	}
	return balance, nil
}

// ApplyRedemptionToReservation は交換バウチャーを予約に一度だけ適用する
func (s *LoyaltyService) ApplyRedemptionToReservation(ctx context.Context, redemptionID, reservationID string) error {
	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.repo.ApplyRedemption(ctx, tx, redemptionID, reservationID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}
	return nil
}

// GetRedemption はIDからポイント交換を取得する
func (s *LoyaltyService) GetRedemption(ctx context.Context, id string) (*loyalty.Redemption, error) {
	return s.repo.GetRedemptionByID(ctx, id)
}

// GetLedger はアカウントの台帳エントリを新しい順に返す
func (s *LoyaltyService) GetLedger(ctx context.Context, accountID string, limit, offset int) ([]*loyalty.LedgerEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.GetEntries(ctx, accountID, limit, offset)
}

func (s *LoyaltyService) invalidateBalance(ctx context.Context, accountID string) {
	if s.balanceCache == nil {
		return
	}
	if err := s.balanceCache.Invalidate(ctx, accountID); err != nil {
		logger.Warn("残高キャッシュの無効化に失敗", zap.String("account_id", accountID), zap.Error(err))
	}
}
