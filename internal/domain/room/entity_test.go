package room

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func testRoom() *Room {
	return &Room{
		ID:         "room-101",
		RoomNumber: "101",
		TypeID:     "type-std",
		State:      StateAvailable,
		Active:     true,
		Type: &RoomType{
			ID:           "type-std",
			Name:         "estandar",
			BaseRate:     decimal.NewFromInt(100),
			EmployeeRate: decimal.NewFromInt(80),
			Capacity:     2,
		},
	}
}

func TestRoom_IsBookable(t *testing.T) {
	tests := []struct {
		name   string
		state  OperationalState
		active bool
		want   bool
	}{
		{"利用可能な客室", StateAvailable, true, true},
		{"滞在中の客室も先日付の予約は可能", StateOccupied, true, true},
		{"メンテナンス中は予約不可", StateMaintenance, true, false},
		{"無効化された客室は予約不可", StateAvailable, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testRoom()
			r.State = tt.state
			r.Active = tt.active
			assert.Equal(t, tt.want, r.IsBookable())
		})
	}
}

func TestRoom_FitsGuests(t *testing.T) {
	r := testRoom()
	assert.True(t, r.FitsGuests(1))
	assert.True(t, r.FitsGuests(2))
	assert.False(t, r.FitsGuests(3))
	assert.False(t, r.FitsGuests(0))
	assert.False(t, r.FitsGuests(-1))

	r.Type = nil
	assert.False(t, r.FitsGuests(1))
}

func TestRoomType_Rate(t *testing.T) {
	r := testRoom()
	rate := r.Type.Rate()
	assert.True(t, rate.Base.Equal(decimal.NewFromInt(100)))
	assert.True(t, rate.Employee.Equal(decimal.NewFromInt(80)))
}
