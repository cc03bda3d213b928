package reservation

import (
	"context"
	"time"

	"github.com/sanosuguru/go-hotel-reservation/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, reservation *Reservation) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Reservation, error)

	// GetByIDForUpdate はIDから予約を行ロック付きで取得する（トランザクション必須）
	// 状態遷移は取得から更新までを同一トランザクションで直列化する
	GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*Reservation, error)

	// GetByAccountID はアカウントIDから予約一覧を取得する
	GetByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*Reservation, error)

	// Update は予約を更新する（トランザクション必須）
	Update(ctx context.Context, tx transaction.Tx, reservation *Reservation) error

	// HasOverlapping は指定客室・期間に占有中の予約が存在するかを返す
	// tx が nil でない場合は同一トランザクション内で実行される
	// excludeID は変更時の再チェックで自分自身を除外するために使う
	HasOverlapping(ctx context.Context, tx transaction.Tx, roomID string, checkIn, checkOut time.Time, excludeID string) (bool, error)

	// GetExpiredPendingPayment は決済待ちのまま放置された予約を取得する
	GetExpiredPendingPayment(ctx context.Context, olderThan time.Duration) ([]*Reservation, error)
}
