package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// 税率は一律21%
var taxRate = decimal.NewFromFloat(0.21)

// アドオン料金
var (
	breakfastPerNight = decimal.RequireFromString("12.50")
	parkingPerNight   = decimal.RequireFromString("8.00")
	lateCheckoutFee   = decimal.RequireFromString("20.00")
)

// Rate は客室タイプの宿泊料金を表す
type Rate struct {
	Base     decimal.Decimal
	Employee decimal.Decimal
}

// Addons は予約時に選択できる追加サービス
type Addons struct {
	Breakfast    bool
	Parking      bool
	LateCheckout bool
}

// Breakdown は料金の内訳を表す
type Breakdown struct {
	Nights           int
	NightlyRate      decimal.Decimal
	Subtotal         decimal.Decimal
	Taxes            decimal.Decimal
	EmployeeDiscount decimal.Decimal
	PointsDiscount   decimal.Decimal
	Total            decimal.Decimal
}

// Quote は料金内訳を計算する純粋関数
// 宿泊日は半開区間 [checkIn, checkOut) で解釈する
func Quote(rate Rate, checkIn, checkOut time.Time, isEmployee bool, pointsDiscount decimal.Decimal, addons Addons) (Breakdown, error) {
	nights := NightsBetween(checkIn, checkOut)
	if nights <= 0 {
		return Breakdown{}, ErrInvalidRange
	}

	nightly := rate.Base
	if isEmployee {
		nightly = rate.Employee
	}

	n := decimal.NewFromInt(int64(nights))
	subtotal := nightly.Mul(n)

	if addons.Breakfast {
		subtotal = subtotal.Add(breakfastPerNight.Mul(n))
	}
	if addons.Parking {
		subtotal = subtotal.Add(parkingPerNight.Mul(n))
	}
	if addons.LateCheckout {
		subtotal = subtotal.Add(lateCheckoutFee)
	}

	taxes := subtotal.Mul(taxRate).Round(2)

	// 従業員割引はレポート用に別枠で算出する
	employeeDiscount := decimal.Zero
	if isEmployee {
		employeeDiscount = rate.Base.Sub(rate.Employee).Mul(n)
	}

	if pointsDiscount.IsNegative() {
		return Breakdown{}, ErrNegativeDiscount
	}

	total := subtotal.Add(taxes).Sub(pointsDiscount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Breakdown{
		Nights:           nights,
		NightlyRate:      nightly,
		Subtotal:         subtotal,
		Taxes:            taxes,
		EmployeeDiscount: employeeDiscount,
		PointsDiscount:   pointsDiscount,
		Total:            total,
	}, nil
}

// NightsBetween は半開区間 [checkIn, checkOut) の宿泊数を返す
func NightsBetween(checkIn, checkOut time.Time) int {
	in := checkIn.UTC().Truncate(24 * time.Hour)
	out := checkOut.UTC().Truncate(24 * time.Hour)
	return int(out.Sub(in) / (24 * time.Hour))
}
