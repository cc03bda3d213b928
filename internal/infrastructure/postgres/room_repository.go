package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-hotel-reservation/internal/domain/room"
	"github.com/sanosuguru/go-hotel-reservation/internal/domain/transaction"
)

type roomRow struct {
	ID           string          `db:"id"`
	RoomNumber   string          `db:"room_number"`
	RoomTypeID   string          `db:"room_type_id"`
	State        string          `db:"state"`
	Active       bool            `db:"active"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
	TypeName     string          `db:"type_name"`
	BaseRate     decimal.Decimal `db:"base_rate"`
	EmployeeRate decimal.Decimal `db:"employee_rate"`
	Capacity     int             `db:"capacity"`
	SizeM2       int             `db:"size_m2"`
}

func (r *roomRow) toEntity() *room.Room {
	return &room.Room{
		ID:         r.ID,
		RoomNumber: r.RoomNumber,
		TypeID:     r.RoomTypeID,
		State:      room.OperationalState(r.State),
		Active:     r.Active,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		Type: &room.RoomType{
			ID:           r.RoomTypeID,
			Name:         r.TypeName,
			BaseRate:     r.BaseRate,
			EmployeeRate: r.EmployeeRate,
			Capacity:     r.Capacity,
			SizeM2:       r.SizeM2,
		},
	}
}

const roomSelect = `SELECT r.id, r.room_number, r.room_type_id, r.state, r.active,
	r.created_at, r.updated_at,
	t.name AS type_name, t.base_rate, t.employee_rate, t.capacity, t.size_m2
	FROM rooms r JOIN room_types t ON t.id = r.room_type_id`

type RoomRepository struct{ db *sqlx.DB }

func NewRoomRepository(db *sqlx.DB) *RoomRepository { return &RoomRepository{db: db} }

func (r *RoomRepository) GetByID(ctx context.Context, id string) (*room.Room, error) {
	var row roomRow
	if err := r.db.GetContext(ctx, &row, roomSelect+` WHERE r.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, room.ErrRoomNotFound
		}
		return nil, fmt.Errorf("客室取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *RoomRepository) List(ctx context.Context, limit, offset int) ([]*room.Room, error) {
	var rows []roomRow
	query := roomSelect + ` WHERE r.active ORDER BY r.room_number LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("客室一覧取得に失敗: %w", err)
	}
	rooms := make([]*room.Room, len(rows))
	for i, row := range rows {
		rooms[i] = row.toEntity()
	}
	return rooms, nil
}

// LockByID は客室行を FOR UPDATE でロックして取得する
// 空室スキャンと予約書き込みの間に他の予約が割り込むのを防ぐ
func (r *RoomRepository) LockByID(ctx context.Context, tx transaction.Tx, id string) (*room.Room, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return nil, fmt.Errorf("LockByID はトランザクション内でのみ実行できます")
	}
	// JOINを挟むとFOR UPDATEの対象行が曖昧になるため、ロックとタイプ取得を分ける
	var locked struct {
		ID string `db:"id"`
	}
	if err := sqlxTx.GetContext(ctx, &locked, `SELECT id FROM rooms WHERE id = $1 FOR UPDATE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, room.ErrRoomNotFound
		}
		return nil, fmt.Errorf("客室ロックに失敗: %w", err)
	}
	var row roomRow
	if err := sqlxTx.GetContext(ctx, &row, roomSelect+` WHERE r.id = $1`, id); err != nil {
		return nil, fmt.Errorf("客室取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

var _ room.Repository = (*RoomRepository)(nil)
