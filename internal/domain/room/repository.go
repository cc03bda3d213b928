package room

import (
	"context"

	"github.com/sanosuguru/go-hotel-reservation/internal/domain/transaction"
)

// Repository は客室リポジトリのインターフェース
// 客室のCRUDはカタログ側の責務のため読み取り操作のみを提供する
type Repository interface {
	// GetByID はIDから客室を取得する（客室タイプ込み）
	GetByID(ctx context.Context, id string) (*Room, error)

	// List は客室一覧を取得する
	List(ctx context.Context, limit, offset int) ([]*Room, error)

	// LockByID は客室行を排他ロックして取得する（トランザクション必須）
	// 空室確認と予約書き込みを同一トランザクションで直列化するために使う
	LockByID(ctx context.Context, tx transaction.Tx, id string) (*Room, error)
}
