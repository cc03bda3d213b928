package loyalty

import (
	"errors"
	"fmt"
)

// Loyalty ドメインのエラー定義
var (
	ErrInsufficientPoints       = errors.New("ポイント残高が不足しています")
	ErrInvalidPoints            = errors.New("ポイント数は1以上である必要があります")
	ErrRedemptionNotFound       = errors.New("ポイント交換が見つかりません")
	ErrRedemptionAlreadyApplied = errors.New("ポイント交換は既に適用されています")
	ErrPermissionDenied         = errors.New("このアカウントのポイントを操作する権限がありません")
)

// InsufficientPointsError は残高不足の詳細（現在残高）を保持するエラー
// errors.Is(err, ErrInsufficientPoints) で判別できる
type InsufficientPointsError struct {
	Balance   int
	Requested int
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("ポイント残高が不足しています（残高: %d, 要求: %d）", e.Balance, e.Requested)
}

func (e *InsufficientPointsError) Is(target error) bool {
	return target == ErrInsufficientPoints
}
