package reservation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-hotel-reservation/internal/domain/pricing"
)

// Status は予約の状態を表す
// 値は既存の予約DBのenum（スペイン語）に合わせている
type Status string

const (
	StatusPending        Status = "pendiente"
	StatusPendingPayment Status = "pendiente_pago"
	StatusConfirmed      Status = "confirmada"
	StatusInProgress     Status = "en_curso"
	StatusCompleted      Status = "completada"
	StatusCancelled      Status = "cancelada"
)

// ActiveStatuses は客室を占有する状態の集合を返す
// この集合に含まれる予約同士は同一客室で期間が重なってはならない
func ActiveStatuses() []Status {
	return []Status{StatusPending, StatusPendingPayment, StatusConfirmed, StatusInProgress}
}

// キャンセル時に全額返金となる境界（チェックインまでの残り時間）
const FullRefundWindow = 48 * time.Hour

// Reservation は予約エンティティを表す
// 料金内訳は作成時に確定し、変更操作でのみ再計算される
// Addons と EmployeeRate は作成時の料金条件で、再計算時もそのまま引き継がれる
type Reservation struct {
	ID             string
	RoomID         string
	AccountID      string
	CheckIn        time.Time
	CheckOut       time.Time
	Guests         int
	Status         Status
	Subtotal       decimal.Decimal
	Taxes          decimal.Decimal
	PointsDiscount decimal.Decimal
	Total          decimal.Decimal
	PointsRedeemed int
	PointsEarned   int
	Addons         pricing.Addons
	EmployeeRate   bool
	ConfirmedBy    *string
	CancelledAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewReservation は新しい予約を作成する
// 外部決済が必要な場合は pendiente_pago、それ以外は pendiente で開始する
func NewReservation(roomID, accountID string, checkIn, checkOut time.Time, guests int, initial Status) *Reservation {
	now := time.Now()
	return &Reservation{
		RoomID:         roomID,
		AccountID:      accountID,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		Guests:         guests,
		Status:         initial,
		Subtotal:       decimal.Zero,
		Taxes:          decimal.Zero,
		PointsDiscount: decimal.Zero,
		Total:          decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// ApplyPricing は料金内訳を予約に反映する
func (r *Reservation) ApplyPricing(b pricing.Breakdown) {
	r.Subtotal = b.Subtotal
	r.Taxes = b.Taxes
	r.PointsDiscount = b.PointsDiscount
	r.Total = b.Total
	r.UpdatedAt = time.Now()
}

// Nights は宿泊数を返す
func (r *Reservation) Nights() int {
	return pricing.NightsBetween(r.CheckIn, r.CheckOut)
}

// HoldsRoom は予約が客室を占有する状態かを返す
func (r *Reservation) HoldsRoom() bool {
	switch r.Status {
	case StatusPending, StatusPendingPayment, StatusConfirmed, StatusInProgress:
		return true
	}
	return false
}

// IsModifiable は予約の変更（日程・人数）が許可される状態かを返す
func (r *Reservation) IsModifiable() bool {
	return r.Status == StatusPending || r.Status == StatusConfirmed
}

// Confirm は予約を確定する
// pendiente または pendiente_pago（決済完了時）からのみ遷移できる
func (r *Reservation) Confirm(employeeID string) error {
	if r.Status != StatusPending && r.Status != StatusPendingPayment {
		return ErrReservationNotPending
	}
	r.Status = StatusConfirmed
	r.ConfirmedBy = &employeeID
	r.UpdatedAt = time.Now()
	return nil
}

// Cancel は予約をキャンセルする
// 既にキャンセル済みの場合と終端状態からの遷移は拒否する
func (r *Reservation) Cancel(now time.Time) error {
	switch r.Status {
	case StatusCancelled:
		return ErrReservationAlreadyCancelled
	case StatusPending, StatusPendingPayment, StatusConfirmed:
		r.Status = StatusCancelled
		r.CancelledAt = &now
		r.UpdatedAt = now
		return nil
	default:
		return ErrReservationNotCancellable
	}
}

// CheckInGuest はチェックイン処理を行う（confirmada → en_curso）
func (r *Reservation) CheckInGuest() error {
	if r.Status != StatusConfirmed {
		return ErrReservationNotConfirmed
	}
	r.Status = StatusInProgress
	r.UpdatedAt = time.Now()
	return nil
}

// CheckOutGuest はチェックアウト処理を行う（en_curso → completada）
func (r *Reservation) CheckOutGuest() error {
	if r.Status != StatusInProgress {
		return ErrReservationNotInProgress
	}
	r.Status = StatusCompleted
	r.UpdatedAt = time.Now()
	return nil
}

// RefundAmount はキャンセル時の返金額を返す
// チェックインまで48時間以上ある場合は全額、それ未満は返金なし
func (r *Reservation) RefundAmount(now time.Time) decimal.Decimal {
	if r.CheckIn.Sub(now) >= FullRefundWindow {
		return r.Total
	}
	return decimal.Zero
}

// Validate は予約の検証を行う
func (r *Reservation) Validate() error {
	if r.RoomID == "" {
		return ErrRoomIDRequired
	}
	if r.AccountID == "" {
		return ErrAccountIDRequired
	}
	if r.Guests <= 0 {
		return ErrInvalidGuests
	}
	if pricing.NightsBetween(r.CheckIn, r.CheckOut) <= 0 {
		return ErrInvalidDateRange
	}
	return nil
}

// Overlaps は2つの半開区間 [a1,a2) と [b1,b2) が重なるかを返す
// 連泊の境界（チェックアウト日＝次のチェックイン日）は重複としない
func Overlaps(a1, a2, b1, b2 time.Time) bool {
	return a1.Before(b2) && b1.Before(a2)
}
