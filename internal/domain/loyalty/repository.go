package loyalty

import (
	"context"

	"github.com/sanosuguru/go-hotel-reservation/internal/domain/transaction"
)

// Repository はポイント台帳・交換リポジトリのインターフェース
type Repository interface {
	// AppendEntry は台帳にエントリを追記する（トランザクション必須）
	AppendEntry(ctx context.Context, tx transaction.Tx, entry *LedgerEntry) error

	// Balance は台帳エントリの合計として残高を導出する
	Balance(ctx context.Context, accountID string) (int, error)

	// BalanceForUpdate は同一アカウントへの同時更新を直列化した上で残高を返す
	// （トランザクション必須）
	BalanceForUpdate(ctx context.Context, tx transaction.Tx, accountID string) (int, error)

	// GetEntries はアカウントの台帳エントリを新しい順に取得する
	GetEntries(ctx context.Context, accountID string, limit, offset int) ([]*LedgerEntry, error)

	// CreateRedemption は新しいポイント交換を作成する（トランザクション必須）
	CreateRedemption(ctx context.Context, tx transaction.Tx, redemption *Redemption) error

	// GetRedemptionByID はIDからポイント交換を取得する
	GetRedemptionByID(ctx context.Context, id string) (*Redemption, error)

	// ApplyRedemption は pendiente の交換を aplicado に一度だけ遷移させる
	// 既に適用済みの場合は ErrRedemptionAlreadyApplied を返す（トランザクション必須）
	ApplyRedemption(ctx context.Context, tx transaction.Tx, redemptionID, reservationID string) error
}
