package room

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-hotel-reservation/internal/domain/pricing"
)

// OperationalState は客室の運用状態を表す
type OperationalState string

const (
	StateAvailable   OperationalState = "available"
	StateOccupied    OperationalState = "occupied"
	StateMaintenance OperationalState = "maintenance"
)

// RoomType は客室タイプを表す
// 料金計算の観点では1回の予約処理の間は不変とみなす
type RoomType struct {
	ID           string
	Name         string
	BaseRate     decimal.Decimal
	EmployeeRate decimal.Decimal
	Capacity     int
	SizeM2       int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Rate は料金計算用のレート情報を返す
func (t *RoomType) Rate() pricing.Rate {
	return pricing.Rate{Base: t.BaseRate, Employee: t.EmployeeRate}
}

// Room は客室エンティティを表す
// カタログ側が所有するため予約エンジンからは読み取り専用
type Room struct {
	ID         string
	RoomNumber string
	TypeID     string
	State      OperationalState
	Active     bool
	Type       *RoomType
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsBookable は客室が予約を受け付けられる状態かを返す
// メンテナンス中の客室は新規予約を受け付けない
func (r *Room) IsBookable() bool {
	return r.Active && r.State != StateMaintenance
}

// FitsGuests は指定の人数が定員内かを返す
func (r *Room) FitsGuests(guests int) bool {
	if r.Type == nil {
		return false
	}
	return guests > 0 && guests <= r.Type.Capacity
}
