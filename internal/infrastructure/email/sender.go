package email

import (
	"context"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-hotel-reservation/internal/pkg/logger"
)

// LogSender は確認・キャンセルメールをログに記録するだけの送信実装
// 実際のSMTP配送は外部のメールサービスに委ねており、ここでは送信要求を
// 記録するのみ。送信失敗が予約処理を巻き戻すことはない
type LogSender struct{}

// NewLogSender は新しいLogSenderを作成する
func NewLogSender() *LogSender {
	return &LogSender{}
}

// Send はメール送信要求を記録する
func (s *LogSender) Send(ctx context.Context, accountID, subject, body string) error {
	logger.Info("メール送信",
		zap.String("account_id", accountID),
		zap.String("subject", subject),
		zap.Int("body_length", len(body)),
	)
	return nil
}
