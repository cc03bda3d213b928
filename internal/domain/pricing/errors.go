package pricing

import "errors"

// Pricing ドメインのエラー定義
var (
	ErrInvalidRange     = errors.New("宿泊数は1泊以上である必要があります")
	ErrNegativeDiscount = errors.New("割引額は0以上である必要があります")
)
