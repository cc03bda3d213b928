package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sanosuguru/go-hotel-reservation/internal/config"
)

// Publisher はRabbitMQへ通知メッセージを発行する
// 通知はベストエフォートであり、発行失敗が予約処理を妨げてはならない
// （失敗時の扱いは呼び出し側がログに記録して握りつぶす）
type Publisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// notificationMessage は通知キューに流すメッセージ
type notificationMessage struct {
	AccountID string         `json:"account_id"`
	Kind      string         `json:"kind"`
	Payload   map[string]any `json:"payload,omitempty"`
	SentAt    time.Time      `json:"sent_at"`
}

// NewPublisher はRabbitMQに接続し、通知キューを宣言する
func NewPublisher(cfg *config.RabbitMQConfig) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("RabbitMQ接続に失敗しました: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("チャネル作成に失敗しました: %w", err)
	}
	if _, err := ch.QueueDeclare(cfg.NotificationQueue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("キュー宣言に失敗しました: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, queue: cfg.NotificationQueue}, nil
}

// Notify は通知メッセージをキューへ発行する
func (p *Publisher) Notify(ctx context.Context, accountID, kind string, payload map[string]any) error {
	body, err := json.Marshal(notificationMessage{
		AccountID: accountID,
		Kind:      kind,
		Payload:   payload,
		SentAt:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("通知メッセージの作成に失敗: %w", err)
	}
	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("通知の発行に失敗: %w", err)
	}
	return nil
}

// Close は接続を閉じる
func (p *Publisher) Close() error {
	if err := p.ch.Close(); err != nil {
		return err
	}
	return p.conn.Close()
}
