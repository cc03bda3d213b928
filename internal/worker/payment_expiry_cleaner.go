package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-hotel-reservation/internal/pkg/logger"
)

// PendingPaymentCanceller は放置された決済待ち予約をキャンセルするインターフェース
type PendingPaymentCanceller interface {
	CancelExpiredPendingPayment(ctx context.Context, olderThan time.Duration) (int, error)
}

// PaymentExpiryCleaner は決済待ちのまま放置された予約を定期的にキャンセルするワーカー
// 銀行振込（transferencia）の予約は pendiente_pago で作成され、入金が確認されないまま
// TTLを超えた場合に客室を解放する
type PaymentExpiryCleaner struct {
	reservationService PendingPaymentCanceller
	interval           time.Duration
	olderThan          time.Duration
	stopCh             chan struct{}
	doneCh             chan struct{}
}

// NewPaymentExpiryCleaner は新しいクリーナーを作成
func NewPaymentExpiryCleaner(
	rs PendingPaymentCanceller,
	interval time.Duration,
	olderThan time.Duration,
) *PaymentExpiryCleaner {
	return &PaymentExpiryCleaner{
		reservationService: rs,
		interval:           interval,
		olderThan:          olderThan,
		stopCh:             make(chan struct{}),
		doneCh:             make(chan struct{}),
	}
}

// Start はクリーナーを開始
func (c *PaymentExpiryCleaner) Start(ctx context.Context) {
	logger.Info("決済待ち予約クリーナー開始",
		zap.Duration("interval", c.interval),
		zap.Duration("older_than", c.olderThan),
	)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("決済待ち予約クリーナー停止（コンテキストキャンセル）")
			return
		case <-c.stopCh:
			logger.Info("決済待ち予約クリーナー停止（シグナル受信）")
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

// Stop はクリーナーを停止
func (c *PaymentExpiryCleaner) Stop() {
	close(c.stopCh)
	<-c.doneCh
}

func (c *PaymentExpiryCleaner) cleanup(ctx context.Context) {
	log := logger.Get()
	log.Debug("決済待ち予約のクリーンアップ開始")

	count, err := c.reservationService.CancelExpiredPendingPayment(ctx, c.olderThan)
	if err != nil {
		log.Error("決済待ち予約のクリーンアップ失敗", zap.Error(err))
		return
	}

	if count > 0 {
		log.Info("決済待ち予約をキャンセル", zap.Int("count", count))
	} else {
		log.Debug("対象の決済待ち予約なし")
	}
}
