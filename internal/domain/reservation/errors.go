package reservation

import "errors"

// Reservation ドメインのエラー定義
var (
	ErrReservationNotFound         = errors.New("予約が見つかりません")
	ErrReservationNotPending       = errors.New("予約は確定待ちではありません")
	ErrReservationAlreadyCancelled = errors.New("予約は既にキャンセルされています")
	ErrReservationNotCancellable   = errors.New("この状態の予約はキャンセルできません")
	ErrReservationNotModifiable    = errors.New("この状態の予約は変更できません")
	ErrReservationNotConfirmed     = errors.New("予約は確定されていません")
	ErrReservationNotInProgress    = errors.New("予約は滞在中ではありません")
	ErrRoomUnavailable             = errors.New("指定期間に客室の空きがありません")
	ErrCapacityExceeded            = errors.New("宿泊人数が客室の定員を超えています")
	ErrInvalidDateRange            = errors.New("チェックアウトはチェックインより後である必要があります")
	ErrCheckInPast                 = errors.New("チェックイン日は本日以降である必要があります")
	ErrRoomIDRequired              = errors.New("客室IDは必須です")
	ErrAccountIDRequired           = errors.New("アカウントIDは必須です")
	ErrInvalidGuests               = errors.New("宿泊人数は1人以上である必要があります")
	ErrPermissionDenied            = errors.New("この操作を行う権限がありません")
)
