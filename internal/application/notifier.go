package application

import "context"

// Notifier はアカウントへの通知を発行するインターフェース
// fire-and-forget 契約: 失敗はログに記録して握りつぶし、予約処理を妨げない
type Notifier interface {
	Notify(ctx context.Context, accountID, kind string, payload map[string]any) error
}

// EmailSender は確認・キャンセルメールを送信するインターフェース
// ベストエフォート契約: 失敗しても予約はロールバックされない
type EmailSender interface {
	Send(ctx context.Context, accountID, subject, body string) error
}

// 通知種別
const (
	NotifyReservationCreated   = "reserva_creada"
	NotifyReservationConfirmed = "reserva_confirmada"
	NotifyReservationCancelled = "reserva_cancelada"
	NotifyPointsRedeemed       = "puntos_canjeados"
)
