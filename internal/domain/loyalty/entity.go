package loyalty

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reason はポイント台帳エントリの理由コードを表す
type Reason string

const (
	// ReasonStay は宿泊によるポイント獲得
	ReasonStay Reason = "estancia"
	// ReasonRedeem はポイント交換による消費
	ReasonRedeem Reason = "canje"
	// ReasonAdjust は運用上の補正（相殺エントリ）
	ReasonAdjust Reason = "ajuste"
)

// RedemptionStatus はポイント交換の状態を表す
type RedemptionStatus string

const (
	RedemptionPending RedemptionStatus = "pendiente"
	RedemptionApplied RedemptionStatus = "aplicado"
)

// 1ポイントあたりの割引額（通貨単位）
var discountPerPoint = decimal.RequireFromString("0.05")

// 宿泊ポイントの獲得レート: floor(支払total / 10)
var earnDivisor = decimal.NewFromInt(10)

// LedgerEntry はポイント台帳の1エントリを表す
// 一度書き込まれたエントリは編集・削除されない（補正は相殺エントリで行う）
type LedgerEntry struct {
	ID            string
	AccountID     string
	Amount        int // 正=獲得、負=消費
	Reason        Reason
	ReservationID *string
	CreatedAt     time.Time
}

// NewEntry は新しい台帳エントリを作成する
func NewEntry(accountID string, amount int, reason Reason, reservationID *string) *LedgerEntry {
	return &LedgerEntry{
		AccountID:     accountID,
		Amount:        amount,
		Reason:        reason,
		ReservationID: reservationID,
		CreatedAt:     time.Now(),
	}
}

// Redemption はポイントから変換された割引バウチャーを表す
// ちょうど1件の予約によって消費され、pendiente → aplicado は一度だけ遷移する
type Redemption struct {
	ID            string
	AccountID     string
	Points        int
	Discount      decimal.Decimal
	Status        RedemptionStatus
	ReservationID *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewRedemption は新しいポイント交換を作成する
func NewRedemption(accountID string, points int) (*Redemption, error) {
	if points <= 0 {
		return nil, ErrInvalidPoints
	}
	now := time.Now()
	return &Redemption{
		AccountID: accountID,
		Points:    points,
		Discount:  DiscountFor(points),
		Status:    RedemptionPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Apply は交換を予約に適用する（一度だけ）
func (r *Redemption) Apply(reservationID string) error {
	if r.Status != RedemptionPending {
		return ErrRedemptionAlreadyApplied
	}
	r.Status = RedemptionApplied
	r.ReservationID = &reservationID
	r.UpdatedAt = time.Now()
	return nil
}

// DiscountFor はポイント数に対応する割引額を返す
func DiscountFor(points int) decimal.Decimal {
	return discountPerPoint.Mul(decimal.NewFromInt(int64(points)))
}

// EarnedPoints は支払総額から獲得ポイントを算出する
// ルールは floor(total / 10) に統一している
func EarnedPoints(total decimal.Decimal) int {
	if total.IsNegative() {
		return 0
	}
	return int(total.Div(earnDivisor).Floor().IntPart())
}
