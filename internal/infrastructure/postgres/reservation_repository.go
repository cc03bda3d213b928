package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-hotel-reservation/internal/domain/pricing"
	"github.com/sanosuguru/go-hotel-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-hotel-reservation/internal/domain/transaction"
)

type reservationRow struct {
	ID             string          `db:"id"`
	RoomID         string          `db:"room_id"`
	AccountID      string          `db:"account_id"`
	CheckIn        time.Time       `db:"check_in"`
	CheckOut       time.Time       `db:"check_out"`
	Guests         int             `db:"guests"`
	Status         string          `db:"status"`
	Subtotal       decimal.Decimal `db:"subtotal"`
	Taxes          decimal.Decimal `db:"taxes"`
	PointsDiscount decimal.Decimal `db:"points_discount"`
	Total          decimal.Decimal `db:"total"`
	PointsRedeemed int             `db:"points_redeemed"`
	PointsEarned   int             `db:"points_earned"`
	Breakfast      bool            `db:"breakfast"`
	Parking        bool            `db:"parking"`
	LateCheckout   bool            `db:"late_checkout"`
	EmployeeRate   bool            `db:"employee_rate"`
	ConfirmedBy    *string         `db:"confirmed_by"`
	CancelledAt    *time.Time      `db:"cancelled_at"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

func (r *reservationRow) toEntity() *reservation.Reservation {
	return &reservation.Reservation{
		ID: r.ID, RoomID: r.RoomID, AccountID: r.AccountID,
		CheckIn: r.CheckIn.UTC(), CheckOut: r.CheckOut.UTC(),
		Guests: r.Guests, Status: reservation.Status(r.Status),
		Subtotal: r.Subtotal, Taxes: r.Taxes,
		PointsDiscount: r.PointsDiscount, Total: r.Total,
		PointsRedeemed: r.PointsRedeemed, PointsEarned: r.PointsEarned,
		Addons: pricing.Addons{
			Breakfast:    r.Breakfast,
			Parking:      r.Parking,
			LateCheckout: r.LateCheckout,
		},
		EmployeeRate: r.EmployeeRate,
		ConfirmedBy:  r.ConfirmedBy, CancelledAt: r.CancelledAt,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

const reservationColumns = `id, room_id, account_id, check_in, check_out, guests, status,
	subtotal, taxes, points_discount, total, points_redeemed, points_earned,
	breakfast, parking, late_checkout, employee_rate,
	confirmed_by, cancelled_at, created_at, updated_at`

type ReservationRepository struct{ db *sqlx.DB }

func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("Create はトランザクション内でのみ実行できます")
	}
	query := `INSERT INTO reservations (room_id, account_id, check_in, check_out, guests, status,
		subtotal, taxes, points_discount, total, points_redeemed, points_earned,
		breakfast, parking, late_checkout, employee_rate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18) RETURNING id`
	err := sqlxTx.QueryRowContext(ctx, query,
		res.RoomID, res.AccountID, res.CheckIn, res.CheckOut, res.Guests, string(res.Status),
		res.Subtotal, res.Taxes, res.PointsDiscount, res.Total,
		res.PointsRedeemed, res.PointsEarned,
		res.Addons.Breakfast, res.Addons.Parking, res.Addons.LateCheckout, res.EmployeeRate,
		res.CreatedAt, res.UpdatedAt,
	).Scan(&res.ID)
	if err != nil {
		// 23P01: exclusion_violation（期間重複の排他制約）
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23P01" {
			return reservation.ErrRoomUnavailable
		}
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*reservation.Reservation, error) {
	var row reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// GetByIDForUpdate は予約行を FOR UPDATE でロックして取得する
// 状態遷移の読み取りから更新までを同一トランザクション内で直列化するために使う
func (r *ReservationRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*reservation.Reservation, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return nil, fmt.Errorf("GetByIDForUpdate はトランザクション内でのみ実行できます")
	}
	var row reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1 FOR UPDATE`
	if err := sqlxTx.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *ReservationRepository) GetByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations
		WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, accountID, limit, offset); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	result := make([]*reservation.Reservation, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, nil
}

func (r *ReservationRepository) Update(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("Update はトランザクション内でのみ実行できます")
	}
	query := `UPDATE reservations SET check_in = $1, check_out = $2, guests = $3, status = $4,
		subtotal = $5, taxes = $6, points_discount = $7, total = $8,
		points_redeemed = $9, confirmed_by = $10, cancelled_at = $11, updated_at = $12
		WHERE id = $13`
	result, err := sqlxTx.ExecContext(ctx, query,
		res.CheckIn, res.CheckOut, res.Guests, string(res.Status),
		res.Subtotal, res.Taxes, res.PointsDiscount, res.Total,
		res.PointsRedeemed, res.ConfirmedBy, res.CancelledAt, res.UpdatedAt, res.ID)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23P01" {
			return reservation.ErrRoomUnavailable
		}
		return fmt.Errorf("予約更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return reservation.ErrReservationNotFound
	}
	return nil
}

// HasOverlapping は半開区間 [checkIn, checkOut) で重なる占有中予約の有無を返す
// 重なり条件: 既存.check_in < 新規.check_out AND 新規.check_in < 既存.check_out
func (r *ReservationRepository) HasOverlapping(ctx context.Context, tx transaction.Tx, roomID string, checkIn, checkOut time.Time, excludeID string) (bool, error) {
	var runner sqlx.QueryerContext = r.db
	if sqlxTx := UnwrapTx(tx); sqlxTx != nil {
		runner = sqlxTx
	}
	statuses := make([]string, 0, 4)
	for _, s := range reservation.ActiveStatuses() {
		statuses = append(statuses, string(s))
	}
	query := `SELECT EXISTS (
		SELECT 1 FROM reservations
		WHERE room_id = $1
		  AND status = ANY($2)
		  AND check_in < $4
		  AND $3 < check_out
		  AND ($5 = '' OR id <> $5::uuid)
	)`
	var exists bool
	row := runner.QueryRowxContext(ctx, query, roomID, pq.Array(statuses), checkIn, checkOut, excludeID)
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("空室確認に失敗: %w", err)
	}
	return exists, nil
}

func (r *ReservationRepository) GetExpiredPendingPayment(ctx context.Context, olderThan time.Duration) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations
		WHERE status = 'pendiente_pago' AND created_at < NOW() - $1::interval`
	interval := fmt.Sprintf("%d seconds", int(olderThan.Seconds()))
	if err := r.db.SelectContext(ctx, &rows, query, interval); err != nil {
		return nil, fmt.Errorf("期限切れ決済待ち予約の取得に失敗: %w", err)
	}
	result := make([]*reservation.Reservation, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, nil
}

var _ reservation.Repository = (*ReservationRepository)(nil)
