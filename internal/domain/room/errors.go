package room

import "errors"

// Room ドメインのエラー定義
var (
	ErrRoomNotFound    = errors.New("客室が見つかりません")
	ErrRoomNotBookable = errors.New("客室は現在予約を受け付けていません")
	ErrRoomTypeMissing = errors.New("客室タイプ情報がありません")
)
