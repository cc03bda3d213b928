package loyalty

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscountFor(t *testing.T) {
	tests := []struct {
		name   string
		points int
		want   string
	}{
		{"200ポイントは10.00", 200, "10.00"},
		{"1ポイントは0.05", 1, "0.05"},
		{"0ポイントは0", 0, "0"},
		{"500ポイントは25.00", 500, "25.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiscountFor(tt.points)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestEarnedPoints(t *testing.T) {
	tests := []struct {
		name  string
		total string
		want  int
	}{
		{"242は24ポイント", "242", 24},
		{"232は23ポイント", "232", 23},
		{"9.99は0ポイント", "9.99", 0},
		{"10はちょうど1ポイント", "10", 1},
		{"0は0ポイント", "0", 0},
		{"負の総額は0ポイント", "-5", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EarnedPoints(decimal.RequireFromString(tt.total)))
		})
	}
}

func TestNewRedemption(t *testing.T) {
	r, err := NewRedemption("acc-1", 200)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", r.AccountID)
	assert.Equal(t, 200, r.Points)
	assert.True(t, r.Discount.Equal(decimal.RequireFromString("10.00")))
	assert.Equal(t, RedemptionPending, r.Status)
	assert.Nil(t, r.ReservationID)
}

func TestNewRedemption_InvalidPoints(t *testing.T) {
	_, err := NewRedemption("acc-1", 0)
	assert.ErrorIs(t, err, ErrInvalidPoints)

	_, err = NewRedemption("acc-1", -10)
	assert.ErrorIs(t, err, ErrInvalidPoints)
}

func TestRedemption_Apply(t *testing.T) {
	r, err := NewRedemption("acc-1", 200)
	require.NoError(t, err)

	require.NoError(t, r.Apply("res-1"))
	assert.Equal(t, RedemptionApplied, r.Status)
	require.NotNil(t, r.ReservationID)
	assert.Equal(t, "res-1", *r.ReservationID)

	// 2回目の適用は拒否され、状態は変化しない
	err = r.Apply("res-2")
	assert.ErrorIs(t, err, ErrRedemptionAlreadyApplied)
	assert.Equal(t, "res-1", *r.ReservationID)
}

func TestInsufficientPointsError_Is(t *testing.T) {
	err := &InsufficientPointsError{Balance: 100, Requested: 200}
	assert.ErrorIs(t, err, ErrInsufficientPoints)
	assert.Contains(t, err.Error(), "100")
	assert.Contains(t, err.Error(), "200")

	var target *InsufficientPointsError
	assert.True(t, errors.As(error(err), &target))
	assert.Equal(t, 100, target.Balance)
}

func TestNewEntry(t *testing.T) {
	resID := "res-1"
	e := NewEntry("acc-1", -200, ReasonRedeem, &resID)
	assert.Equal(t, "acc-1", e.AccountID)
	assert.Equal(t, -200, e.Amount)
	assert.Equal(t, ReasonRedeem, e.Reason)
	require.NotNil(t, e.ReservationID)
	assert.Equal(t, "res-1", *e.ReservationID)
	assert.False(t, e.CreatedAt.IsZero())
}
