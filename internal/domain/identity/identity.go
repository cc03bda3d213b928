package identity

// Role はアカウントの役割を表す
// 値は既存の会員DBのenum（スペイン語）に合わせている
type Role string

const (
	RoleGuest    Role = "cliente"
	RoleEmployee Role = "empleado"
	RoleAdmin    Role = "admin"
)

// Principal は認証済みの呼び出し元を表す
// 認証方式（JWT・セッション等）には依存しない
type Principal struct {
	AccountID string
	Role      Role
	Active    bool
}

// IsStaff は従業員または管理者かを返す
func (p Principal) IsStaff() bool {
	return p.Role == RoleEmployee || p.Role == RoleAdmin
}

// Capabilities は操作ごとの権限判定を表す
// 役割分岐をハンドラーに散らばらせず、操作開始時に一度だけ評価する
type Capabilities struct {
	principal Principal
}

// CapabilitiesFor はPrincipalから権限セットを導出する
func CapabilitiesFor(p Principal) Capabilities {
	return Capabilities{principal: p}
}

// CanConfirmReservation は予約の確定操作が可能かを返す
func (c Capabilities) CanConfirmReservation() bool {
	return c.principal.Active && c.principal.IsStaff()
}

// CanCheckInGuests はチェックイン・チェックアウト操作が可能かを返す
func (c Capabilities) CanCheckInGuests() bool {
	return c.principal.Active && c.principal.IsStaff()
}

// CanManageReservation は指定アカウントの予約の変更・キャンセルが可能かを返す
func (c Capabilities) CanManageReservation(ownerAccountID string) bool {
	if !c.principal.Active {
		return false
	}
	return c.principal.AccountID == ownerAccountID || c.principal.IsStaff()
}

// CanRedeemFor は指定アカウントのポイント交換が可能かを返す
func (c Capabilities) CanRedeemFor(accountID string) bool {
	if !c.principal.Active {
		return false
	}
	return c.principal.AccountID == accountID || c.principal.Role == RoleAdmin
}

// EmployeeRateEligible は従業員レートの適用対象かを返す
func (c Capabilities) EmployeeRateEligible() bool {
	return c.principal.Active && c.principal.IsStaff()
}
