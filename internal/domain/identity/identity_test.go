package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrincipal_IsStaff(t *testing.T) {
	tests := []struct {
		name string
		role Role
		want bool
	}{
		{"clienteはスタッフではない", RoleGuest, false},
		{"empleadoはスタッフ", RoleEmployee, true},
		{"adminはスタッフ", RoleAdmin, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Principal{AccountID: "acc-1", Role: tt.role, Active: true}
			assert.Equal(t, tt.want, p.IsStaff())
		})
	}
}

func TestCapabilities(t *testing.T) {
	guest := CapabilitiesFor(Principal{AccountID: "acc-1", Role: RoleGuest, Active: true})
	employee := CapabilitiesFor(Principal{AccountID: "emp-1", Role: RoleEmployee, Active: true})
	admin := CapabilitiesFor(Principal{AccountID: "adm-1", Role: RoleAdmin, Active: true})
	inactive := CapabilitiesFor(Principal{AccountID: "acc-2", Role: RoleEmployee, Active: false})

	// 確定・チェックイン操作はスタッフのみ
	assert.False(t, guest.CanConfirmReservation())
	assert.True(t, employee.CanConfirmReservation())
	assert.True(t, admin.CanConfirmReservation())
	assert.False(t, inactive.CanConfirmReservation())

	assert.False(t, guest.CanCheckInGuests())
	assert.True(t, employee.CanCheckInGuests())

	// 予約の変更・キャンセルは本人またはスタッフ
	assert.True(t, guest.CanManageReservation("acc-1"))
	assert.False(t, guest.CanManageReservation("acc-other"))
	assert.True(t, employee.CanManageReservation("acc-other"))
	assert.False(t, inactive.CanManageReservation("acc-2"))

	// ポイント交換は本人または管理者
	assert.True(t, guest.CanRedeemFor("acc-1"))
	assert.False(t, guest.CanRedeemFor("acc-other"))
	assert.False(t, employee.CanRedeemFor("acc-other"))
	assert.True(t, admin.CanRedeemFor("acc-other"))

	// 従業員レート適用
	assert.False(t, guest.EmployeeRateEligible())
	assert.True(t, employee.EmployeeRateEligible())
	assert.False(t, inactive.EmployeeRateEligible())
}
