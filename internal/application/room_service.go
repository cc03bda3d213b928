package application

import (
	"context"

	"github.com/sanosuguru/go-hotel-reservation/internal/domain/room"
)

// RoomService は客室カタログの読み取りを提供する
// 客室の作成・変更はカタログ側の責務のためここでは扱わない
type RoomService struct {
	repo room.Repository
}

func NewRoomService(repo room.Repository) *RoomService {
	return &RoomService{repo: repo}
}

func (s *RoomService) GetRoom(ctx context.Context, id string) (*room.Room, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *RoomService) ListRooms(ctx context.Context, limit, offset int) ([]*room.Room, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.List(ctx, limit, offset)
}
