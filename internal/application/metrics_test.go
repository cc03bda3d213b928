package application

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-hotel-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-hotel-reservation/internal/pkg/metrics"
)

func activeGaugeValue(t *testing.T, reg *prometheus.Registry, status string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "active_reservations" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "status" && l.GetValue() == status {
					return m.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("active_reservations{status=%q} が見つかりません", status)
	return 0
}

func TestTrackStatusChange(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.Set(metrics.NewWithRegistry(reg))
	defer metrics.Set(nil)

	// 新規作成で加算される
	trackStatusChange("", reservation.StatusPending)
	assert.Equal(t, float64(1), activeGaugeValue(t, reg, "pendiente"))

	// 遷移で旧状態から新状態へ付け替える
	trackStatusChange(reservation.StatusPending, reservation.StatusConfirmed)
	assert.Equal(t, float64(0), activeGaugeValue(t, reg, "pendiente"))
	assert.Equal(t, float64(1), activeGaugeValue(t, reg, "confirmada"))

	// 終端状態への遷移は減算のみ
	trackStatusChange(reservation.StatusConfirmed, reservation.StatusCancelled)
	assert.Equal(t, float64(0), activeGaugeValue(t, reg, "confirmada"))
}

func TestTrackStatusChange_NoOp(t *testing.T) {
	// メトリクス未初期化でも落ちない
	metrics.Set(nil)
	trackStatusChange("", reservation.StatusPending)

	reg := prometheus.NewRegistry()
	metrics.Set(metrics.NewWithRegistry(reg))
	defer metrics.Set(nil)

	// 同一状態への遷移は記録しない
	trackStatusChange(reservation.StatusPending, reservation.StatusPending)
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		assert.NotEqual(t, "active_reservations", f.GetName())
	}
}
