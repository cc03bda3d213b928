package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-hotel-reservation/internal/domain/identity"
	"github.com/sanosuguru/go-hotel-reservation/internal/domain/loyalty"
	"github.com/sanosuguru/go-hotel-reservation/internal/domain/pricing"
	"github.com/sanosuguru/go-hotel-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-hotel-reservation/internal/domain/room"
	"github.com/sanosuguru/go-hotel-reservation/internal/domain/transaction"
	redisinfra "github.com/sanosuguru/go-hotel-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-hotel-reservation/internal/pkg/logger"
)

// 決済方法。transferencia は外部決済の完了待ちとなる
const (
	PaymentMethodCard     = "tarjeta"
	PaymentMethodTransfer = "transferencia"
)

// ReservationService は予約のライフサイクルを管理する
// 空室確認・ポイント適用・料金計算・予約書き込みを1つのトランザクションで行う
type ReservationService struct {
	txm             transaction.Manager
	reservationRepo reservation.Repository
	roomRepo        room.Repository
	loyaltyRepo     loyalty.Repository
	lockManager     redisinfra.LockManagerInterface
	balanceCache    redisinfra.BalanceCacheInterface
	notifier        Notifier
	email           EmailSender
}

func NewReservationService(
	txm transaction.Manager,
	rr reservation.Repository,
	roomRepo room.Repository,
	lr loyalty.Repository,
	lm redisinfra.LockManagerInterface,
	bc redisinfra.BalanceCacheInterface,
	notifier Notifier,
	email EmailSender,
) *ReservationService {
	return &ReservationService{
		txm:             txm,
		reservationRepo: rr,
		roomRepo:        roomRepo,
		loyaltyRepo:     lr,
		lockManager:     lm,
		balanceCache:    bc,
		notifier:        notifier,
		email:           email,
	}
}

type CreateReservationInput struct {
	RoomID         string
	CheckIn        time.Time
	CheckOut       time.Time
	Guests         int
	PointsToRedeem int
	PaymentMethod  string
	Addons         pricing.Addons
	Principal      identity.Principal
}

func (s *ReservationService) CreateReservation(ctx context.Context, input CreateReservationInput) (*reservation.Reservation, error) {
	if err := validateDates(input.CheckIn, input.CheckOut); err != nil {
		return nil, err
	}

	// 客室確認（定員チェックはストアに触れる前に弾く）
	rm, err := s.roomRepo.GetByID(ctx, input.RoomID)
	if err != nil {
		return nil, fmt.Errorf("客室取得に失敗: %w", err)
	}
	if !rm.IsBookable() {
		return nil, room.ErrRoomNotBookable
	}
	if !rm.FitsGuests(input.Guests) {
		if input.Guests <= 0 {
			return nil, reservation.ErrInvalidGuests
		}
		return nil, reservation.ErrCapacityExceeded
	}

	// 客室単位の分散ロックを取得（同一客室への同時予約の早期遮断）
	if s.lockManager != nil {
		lock, err := s.lockManager.AcquireLockWithRetry(ctx,
			redisinfra.RoomLockKey(input.RoomID), 10*time.Second, 3, 100*time.Millisecond)
		if err != nil {
			if errors.Is(err, redisinfra.ErrLockNotAcquired) {
				recordReservationOp("create", "lock_failed")
				return nil, reservation.ErrRoomUnavailable
			}
			return nil, fmt.Errorf("ロック取得に失敗: %w", err)
		}
		defer lock.Release(ctx)
	}

	// トランザクション開始
	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	// 客室行の排他ロック。空室スキャンと予約INSERTをここから先で直列化する
	lockedRoom, err := s.roomRepo.LockByID(ctx, tx, input.RoomID)
	if err != nil {
		return nil, fmt.Errorf("客室ロックに失敗: %w", err)
	}

	overlap, err := s.reservationRepo.HasOverlapping(ctx, tx, input.RoomID, input.CheckIn, input.CheckOut, "")
	if err != nil {
		return nil, fmt.Errorf("空室確認に失敗: %w", err)
	}
	if overlap {
		recordReservationOp("create", "conflict")
		return nil, reservation.ErrRoomUnavailable
	}

	// ポイント交換（指定時のみ）。残高チェックは同一トランザクション内で直列化される
	caps := identity.CapabilitiesFor(input.Principal)
	pointsDiscount := decimal.Zero
	var redemption *loyalty.Redemption
	if input.PointsToRedeem > 0 {
		redemption, err = s.redeemInTx(ctx, tx, input.Principal.AccountID, input.PointsToRedeem)
		if err != nil {
			return nil, err
		}
		pointsDiscount = redemption.Discount
	}

	// 料金計算。適用した料金条件は予約に保存し、変更時の再計算で引き継ぐ
	employeeRate := caps.EmployeeRateEligible()
	breakdown, err := pricing.Quote(lockedRoom.Type.Rate(), input.CheckIn, input.CheckOut,
		employeeRate, pointsDiscount, input.Addons)
	if err != nil {
		return nil, err
	}

	initial := reservation.StatusPending
	if input.PaymentMethod == PaymentMethodTransfer {
		initial = reservation.StatusPendingPayment
	}

	res := reservation.NewReservation(input.RoomID, input.Principal.AccountID,
		input.CheckIn, input.CheckOut, input.Guests, initial)
	res.Addons = input.Addons
	res.EmployeeRate = employeeRate
	res.ApplyPricing(breakdown)
	res.PointsRedeemed = input.PointsToRedeem
	res.PointsEarned = loyalty.EarnedPoints(breakdown.Total)
	if err := res.Validate(); err != nil {
		return nil, err
	}

	if err := s.reservationRepo.Create(ctx, tx, res); err != nil {
		return nil, err
	}

	// 交換バウチャーを予約に紐付ける（一度だけ適用される）
	if redemption != nil {
		if err := s.loyaltyRepo.ApplyRedemption(ctx, tx, redemption.ID, res.ID); err != nil {
			return nil, err
		}
	}

	// 宿泊ポイントの獲得エントリを同一トランザクションで追記する
	if res.PointsEarned > 0 {
		entry := loyalty.NewEntry(res.AccountID, res.PointsEarned, loyalty.ReasonStay, &res.ID)
		if err := s.loyaltyRepo.AppendEntry(ctx, tx, entry); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	recordReservationOp("create", "success")
	trackStatusChange("", res.Status)
	s.invalidateBalance(ctx, res.AccountID)
	s.notifyAsync(res.AccountID, NotifyReservationCreated, map[string]any{
		"reservation_id": res.ID,
		"room_number":    lockedRoom.RoomNumber,
		"check_in":       res.CheckIn.Format("2006-01-02"),
		"total":          res.Total.String(),
	})
	s.sendEmailAsync(res.AccountID, "予約を受け付けました", "予約番号: "+res.ID)

	return res, nil
}

type ModifyReservationInput struct {
	ID          string
	NewCheckIn  *time.Time
	NewCheckOut *time.Time
	NewGuests   *int
	Principal   identity.Principal
}

// ModifyReservation は日程・人数を変更し、空室再確認と再計算を行う
// 自分自身の予約は重複判定から除外される
// 再計算は作成時の料金条件（アドオン・従業員レート・ポイント割引）を引き継ぐ
func (s *ReservationService) ModifyReservation(ctx context.Context, input ModifyReservationInput) (*reservation.Reservation, error) {
	res, err := s.reservationRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	caps := identity.CapabilitiesFor(input.Principal)
	if !caps.CanManageReservation(res.AccountID) {
		return nil, reservation.ErrPermissionDenied
	}
	if !res.IsModifiable() {
		return nil, reservation.ErrReservationNotModifiable
	}

	rm, err := s.roomRepo.GetByID(ctx, res.RoomID)
	if err != nil {
		return nil, fmt.Errorf("客室取得に失敗: %w", err)
	}

	if s.lockManager != nil {
		lock, err := s.lockManager.AcquireLockWithRetry(ctx,
			redisinfra.RoomLockKey(res.RoomID), 10*time.Second, 3, 100*time.Millisecond)
		if err != nil {
			if errors.Is(err, redisinfra.ErrLockNotAcquired) {
				return nil, reservation.ErrRoomUnavailable
			}
			return nil, fmt.Errorf("ロック取得に失敗: %w", err)
		}
		defer lock.Release(ctx)
	}

	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.roomRepo.LockByID(ctx, tx, res.RoomID); err != nil {
		return nil, fmt.Errorf("客室ロックに失敗: %w", err)
	}

	// 行ロック付きで再取得し、並行する状態遷移と直列化する
	res, err = s.reservationRepo.GetByIDForUpdate(ctx, tx, input.ID)
	if err != nil {
		return nil, err
	}
	if !res.IsModifiable() {
		return nil, reservation.ErrReservationNotModifiable
	}

	checkIn := res.CheckIn
	checkOut := res.CheckOut
	guests := res.Guests
	if input.NewCheckIn != nil {
		checkIn = *input.NewCheckIn
	}
	if input.NewCheckOut != nil {
		checkOut = *input.NewCheckOut
	}
	if input.NewGuests != nil {
		guests = *input.NewGuests
	}
	if err := validateDates(checkIn, checkOut); err != nil {
		return nil, err
	}
	if !rm.FitsGuests(guests) {
		if guests <= 0 {
			return nil, reservation.ErrInvalidGuests
		}
		return nil, reservation.ErrCapacityExceeded
	}

	overlap, err := s.reservationRepo.HasOverlapping(ctx, tx, res.RoomID, checkIn, checkOut, res.ID)
	if err != nil {
		return nil, fmt.Errorf("空室確認に失敗: %w", err)
	}
	if overlap {
		return nil, reservation.ErrRoomUnavailable
	}

	breakdown, err := pricing.Quote(rm.Type.Rate(), checkIn, checkOut,
		res.EmployeeRate, res.PointsDiscount, res.Addons)
	if err != nil {
		return nil, err
	}

	res.CheckIn = checkIn
	res.CheckOut = checkOut
	res.Guests = guests
	res.ApplyPricing(breakdown)

	if err := s.reservationRepo.Update(ctx, tx, res); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}
	recordReservationOp("modify", "success")
	return res, nil
}

// CancelResult はキャンセル結果（返金額）を表す
type CancelResult struct {
	Reservation   *reservation.Reservation
	RefundAmount  decimal.Decimal
	RefundApplied bool
}

// CancelReservation は予約をキャンセルする
// チェックインまで48時間以上ある場合のみ全額返金となる
func (s *ReservationService) CancelReservation(ctx context.Context, id string, principal identity.Principal) (*CancelResult, error) {
	caps := identity.CapabilitiesFor(principal)
	now := time.Now()
	var refund decimal.Decimal

	res, err := s.transitionInTx(ctx, id, func(r *reservation.Reservation) error {
		if !caps.CanManageReservation(r.AccountID) {
			return reservation.ErrPermissionDenied
		}
		refund = r.RefundAmount(now)
		return r.Cancel(now)
	})
	if err != nil {
		return nil, err
	}

	recordReservationOp("cancel", "success")
	s.notifyAsync(res.AccountID, NotifyReservationCancelled, map[string]any{
		"reservation_id": res.ID,
		"refund_amount":  refund.String(),
	})
	s.sendEmailAsync(res.AccountID, "予約をキャンセルしました", "返金額: "+refund.String())

	return &CancelResult{
		Reservation:   res,
		RefundAmount:  refund,
		RefundApplied: refund.IsPositive(),
	}, nil
}

// ConfirmReservation は予約を確定する（スタッフのみ）
func (s *ReservationService) ConfirmReservation(ctx context.Context, id string, principal identity.Principal) (*reservation.Reservation, error) {
	caps := identity.CapabilitiesFor(principal)
	if !caps.CanConfirmReservation() {
		return nil, reservation.ErrPermissionDenied
	}
	res, err := s.transitionInTx(ctx, id, func(r *reservation.Reservation) error {
		return r.Confirm(principal.AccountID)
	})
	if err != nil {
		return nil, err
	}

	recordReservationOp("confirm", "success")
	s.notifyAsync(res.AccountID, NotifyReservationConfirmed, map[string]any{
		"reservation_id": res.ID,
	})
	return res, nil
}

// CheckIn はチェックイン処理を行う（スタッフのみ）
func (s *ReservationService) CheckIn(ctx context.Context, id string, principal identity.Principal) (*reservation.Reservation, error) {
	caps := identity.CapabilitiesFor(principal)
	if !caps.CanCheckInGuests() {
		return nil, reservation.ErrPermissionDenied
	}
	return s.transitionInTx(ctx, id, func(r *reservation.Reservation) error {
		return r.CheckInGuest()
	})
}

// CheckOut はチェックアウト処理を行う（スタッフのみ）
func (s *ReservationService) CheckOut(ctx context.Context, id string, principal identity.Principal) (*reservation.Reservation, error) {
	caps := identity.CapabilitiesFor(principal)
	if !caps.CanCheckInGuests() {
		return nil, reservation.ErrPermissionDenied
	}
	return s.transitionInTx(ctx, id, func(r *reservation.Reservation) error {
		return r.CheckOutGuest()
	})
}

// CheckAvailability は指定客室・期間の空き状況を返す（読み取り専用）
func (s *ReservationService) CheckAvailability(ctx context.Context, roomID string, checkIn, checkOut time.Time) (bool, error) {
	if pricing.NightsBetween(checkIn, checkOut) <= 0 {
		return false, reservation.ErrInvalidDateRange
	}
	if _, err := s.roomRepo.GetByID(ctx, roomID); err != nil {
		return false, err
	}
	overlap, err := s.reservationRepo.HasOverlapping(ctx, nil, roomID, checkIn, checkOut, "")
	if err != nil {
		return false, err
	}
	return !overlap, nil
}

func (s *ReservationService) GetReservation(ctx context.Context, id string) (*reservation.Reservation, error) {
	return s.reservationRepo.GetByID(ctx, id)
}

func (s *ReservationService) GetAccountReservations(ctx context.Context, accountID string, limit, offset int) ([]*reservation.Reservation, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.reservationRepo.GetByAccountID(ctx, accountID, limit, offset)
}

// CancelExpiredPendingPayment は決済待ちのまま放置された予約をキャンセルする
// バックグラウンドワーカーから定期的に呼ばれる
func (s *ReservationService) CancelExpiredPendingPayment(ctx context.Context, olderThan time.Duration) (int, error) {
	expired, err := s.reservationRepo.GetExpiredPendingPayment(ctx, olderThan)
	if err != nil {
		return 0, err
	}
	count := 0
	now := time.Now()
	for _, candidate := range expired {
		// 行ロック付きで再確認し、スキャン後に決済・確定された予約は残す
		_, err := s.transitionInTx(ctx, candidate.ID, func(r *reservation.Reservation) error {
			if r.Status != reservation.StatusPendingPayment {
				return reservation.ErrReservationNotCancellable
			}
			return r.Cancel(now)
		})
		if err != nil {
			if errors.Is(err, reservation.ErrReservationNotCancellable) ||
				errors.Is(err, reservation.ErrReservationAlreadyCancelled) ||
				errors.Is(err, reservation.ErrReservationNotFound) {
				continue
			}
			return count, err
		}
		count++
	}
	return count, nil
}

// transitionInTx は予約の状態遷移を1つのトランザクションで実行する
// 行ロック付きの再取得から更新までを直列化し、並行遷移による巻き戻しを防ぐ
func (s *ReservationService) transitionInTx(ctx context.Context, id string, apply func(*reservation.Reservation) error) (*reservation.Reservation, error) {
	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	res, err := s.reservationRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	previous := res.Status
	if err := apply(res); err != nil {
		return nil, err
	}
	if err := s.reservationRepo.Update(ctx, tx, res); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}
	trackStatusChange(previous, res.Status)
	return res, nil
}

// redeemInTx は残高確認・消費エントリ追記・交換作成を既存トランザクション内で行う
func (s *ReservationService) redeemInTx(ctx context.Context, tx transaction.Tx, accountID string, points int) (*loyalty.Redemption, error) {
	balance, err := s.loyaltyRepo.BalanceForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, fmt.Errorf("残高取得に失敗: %w", err)
	}
	if points > balance {
		recordLoyaltyOp("redeem", "insufficient")
		return nil, &loyalty.InsufficientPointsError{Balance: balance, Requested: points}
	}
	entry := loyalty.NewEntry(accountID, -points, loyalty.ReasonRedeem, nil)
	if err := s.loyaltyRepo.AppendEntry(ctx, tx, entry); err != nil {
		return nil, err
	}
	red, err := loyalty.NewRedemption(accountID, points)
	if err != nil {
		return nil, err
	}
	if err := s.loyaltyRepo.CreateRedemption(ctx, tx, red); err != nil {
		return nil, err
	}
	return red, nil
}

func (s *ReservationService) invalidateBalance(ctx context.Context, accountID string) {
	if s.balanceCache == nil {
		return
	}
	if err := s.balanceCache.Invalidate(ctx, accountID); err != nil {
		logger.Warn("残高キャッシュの無効化に失敗", zap.String("account_id", accountID), zap.Error(err))
	}
}

// notifyAsync は通知をバックグラウンドで発行する。失敗はログのみ
func (s *ReservationService) notifyAsync(accountID, kind string, payload map[string]any) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.notifier.Notify(ctx, accountID, kind, payload); err != nil {
			logger.Warn("通知の発行に失敗",
				zap.String("account_id", accountID),
				zap.String("kind", kind),
				zap.Error(err))
		}
	}()
}

// sendEmailAsync はメールをバックグラウンドで送信する。失敗はログのみ
func (s *ReservationService) sendEmailAsync(accountID, subject, body string) {
	if s.email == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.email.Send(ctx, accountID, subject, body); err != nil {
			logger.Warn("メール送信に失敗",
				zap.String("account_id", accountID),
				zap.Error(err))
		}
	}()
}

// validateDates はチェックイン・チェックアウト日を検証する
func validateDates(checkIn, checkOut time.Time) error {
	if pricing.NightsBetween(checkIn, checkOut) <= 0 {
		return reservation.ErrInvalidDateRange
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if checkIn.Before(today) {
		return reservation.ErrCheckInPast
	}
	return nil
}
