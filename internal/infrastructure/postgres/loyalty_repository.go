package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-hotel-reservation/internal/domain/loyalty"
	"github.com/sanosuguru/go-hotel-reservation/internal/domain/transaction"
)

type ledgerEntryRow struct {
	ID            string    `db:"id"`
	AccountID     string    `db:"account_id"`
	Amount        int       `db:"amount"`
	Reason        string    `db:"reason"`
	ReservationID *string   `db:"reservation_id"`
	CreatedAt     time.Time `db:"created_at"`
}

func (r *ledgerEntryRow) toEntity() *loyalty.LedgerEntry {
	return &loyalty.LedgerEntry{
		ID: r.ID, AccountID: r.AccountID, Amount: r.Amount,
		Reason: loyalty.Reason(r.Reason), ReservationID: r.ReservationID,
		CreatedAt: r.CreatedAt,
	}
}

type redemptionRow struct {
	ID            string          `db:"id"`
	AccountID     string          `db:"account_id"`
	Points        int             `db:"points"`
	Discount      decimal.Decimal `db:"discount"`
	Status        string          `db:"status"`
	ReservationID *string         `db:"reservation_id"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (r *redemptionRow) toEntity() *loyalty.Redemption {
	return &loyalty.Redemption{
		ID: r.ID, AccountID: r.AccountID, Points: r.Points,
		Discount: r.Discount, Status: loyalty.RedemptionStatus(r.Status),
		ReservationID: r.ReservationID,
		CreatedAt:     r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type LoyaltyRepository struct{ db *sqlx.DB }

func NewLoyaltyRepository(db *sqlx.DB) *LoyaltyRepository {
	return &LoyaltyRepository{db: db}
}

func (r *LoyaltyRepository) AppendEntry(ctx context.Context, tx transaction.Tx, entry *loyalty.LedgerEntry) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("AppendEntry はトランザクション内でのみ実行できます")
	}
	query := `INSERT INTO ledger_entries (account_id, amount, reason, reservation_id, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := sqlxTx.QueryRowContext(ctx, query,
		entry.AccountID, entry.Amount, string(entry.Reason), entry.ReservationID, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("台帳エントリ追記に失敗: %w", err)
	}
	return nil
}

func (r *LoyaltyRepository) Balance(ctx context.Context, accountID string) (int, error) {
	var balance int
	query := `SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE account_id = $1`
	if err := r.db.GetContext(ctx, &balance, query, accountID); err != nil {
		return 0, fmt.Errorf("残高取得に失敗: %w", err)
	}
	return balance, nil
}

// BalanceForUpdate はアカウント単位のアドバイザリロックを取得してから残高を集計する
// 同一アカウントの同時Redeemを直列化し、残高の非負不変条件を守る
func (r *LoyaltyRepository) BalanceForUpdate(ctx context.Context, tx transaction.Tx, accountID string) (int, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return 0, fmt.Errorf("BalanceForUpdate はトランザクション内でのみ実行できます")
	}
	if _, err := sqlxTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, accountID); err != nil {
		return 0, fmt.Errorf("アカウントロック取得に失敗: %w", err)
	}
	var balance int
	query := `SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE account_id = $1`
	if err := sqlxTx.GetContext(ctx, &balance, query, accountID); err != nil {
		return 0, fmt.Errorf("残高取得に失敗: %w", err)
	}
	return balance, nil
}

func (r *LoyaltyRepository) GetEntries(ctx context.Context, accountID string, limit, offset int) ([]*loyalty.LedgerEntry, error) {
	var rows []ledgerEntryRow
	query := `SELECT id, account_id, amount, reason, reservation_id, created_at
		FROM ledger_entries WHERE account_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, accountID, limit, offset); err != nil {
		return nil, fmt.Errorf("台帳エントリ取得に失敗: %w", err)
	}
	result := make([]*loyalty.LedgerEntry, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, nil
}

func (r *LoyaltyRepository) CreateRedemption(ctx context.Context, tx transaction.Tx, red *loyalty.Redemption) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("CreateRedemption はトランザクション内でのみ実行できます")
	}
	query := `INSERT INTO redemptions (account_id, points, discount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := sqlxTx.QueryRowContext(ctx, query,
		red.AccountID, red.Points, red.Discount, string(red.Status), red.CreatedAt, red.UpdatedAt,
	).Scan(&red.ID)
	if err != nil {
		return fmt.Errorf("ポイント交換作成に失敗: %w", err)
	}
	return nil
}

func (r *LoyaltyRepository) GetRedemptionByID(ctx context.Context, id string) (*loyalty.Redemption, error) {
	var row redemptionRow
	query := `SELECT id, account_id, points, discount, status, reservation_id, created_at, updated_at
		FROM redemptions WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, loyalty.ErrRedemptionNotFound
		}
		return nil, fmt.Errorf("ポイント交換取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// ApplyRedemption は pendiente の交換を条件付きUPDATEで aplicado に遷移させる
// 条件に一致する行がない場合、存在確認の上で適切なエラーに振り分ける
func (r *LoyaltyRepository) ApplyRedemption(ctx context.Context, tx transaction.Tx, redemptionID, reservationID string) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("ApplyRedemption はトランザクション内でのみ実行できます")
	}
	query := `UPDATE redemptions SET status = 'aplicado', reservation_id = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'pendiente'`
	result, err := sqlxTx.ExecContext(ctx, query, reservationID, redemptionID)
	if err != nil {
		return fmt.Errorf("ポイント交換適用に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		var exists bool
		if err := sqlxTx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM redemptions WHERE id = $1)`, redemptionID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("ポイント交換確認に失敗: %w", err)
		}
		if !exists {
			return loyalty.ErrRedemptionNotFound
		}
		return loyalty.ErrRedemptionAlreadyApplied
	}
	return nil
}

var _ loyalty.Repository = (*LoyaltyRepository)(nil)
