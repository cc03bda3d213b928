package application

import (
	"github.com/sanosuguru/go-hotel-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-hotel-reservation/internal/pkg/metrics"
)

// メトリクス未初期化（ユニットテスト実行時など）でも安全に呼べるようにする

func recordReservationOp(operation, status string) {
	if m := metrics.Get(); m != nil {
		m.ReservationsTotal.WithLabelValues(operation, status).Inc()
	}
}

func recordLoyaltyOp(operation, status string) {
	if m := metrics.Get(); m != nil {
		m.LoyaltyOperationsTotal.WithLabelValues(operation, status).Inc()
	}
}

// trackStatusChange はアクティブ予約数ゲージを状態遷移に追随させる
// 新規作成時は from に空文字を渡す
func trackStatusChange(from, to reservation.Status) {
	m := metrics.Get()
	if m == nil || from == to {
		return
	}
	if statusOccupiesRoom(from) {
		m.ActiveReservations.WithLabelValues(string(from)).Dec()
	}
	if statusOccupiesRoom(to) {
		m.ActiveReservations.WithLabelValues(string(to)).Inc()
	}
}

func statusOccupiesRoom(s reservation.Status) bool {
	for _, active := range reservation.ActiveStatuses() {
		if s == active {
			return true
		}
	}
	return false
}
