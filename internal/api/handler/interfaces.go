package handler

import (
	"context"
	"time"

	"github.com/sanosuguru/go-hotel-reservation/internal/application"
	"github.com/sanosuguru/go-hotel-reservation/internal/domain/identity"
	"github.com/sanosuguru/go-hotel-reservation/internal/domain/loyalty"
	"github.com/sanosuguru/go-hotel-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-hotel-reservation/internal/domain/room"
)

// RoomServiceInterface は客室サービスのインターフェース
type RoomServiceInterface interface {
	GetRoom(ctx context.Context, id string) (*room.Room, error)
	ListRooms(ctx context.Context, limit, offset int) ([]*room.Room, error)
}

// ReservationServiceInterface は予約サービスのインターフェース
type ReservationServiceInterface interface {
	CreateReservation(ctx context.Context, input application.CreateReservationInput) (*reservation.Reservation, error)
	ModifyReservation(ctx context.Context, input application.ModifyReservationInput) (*reservation.Reservation, error)
	CancelReservation(ctx context.Context, id string, principal identity.Principal) (*application.CancelResult, error)
	ConfirmReservation(ctx context.Context, id string, principal identity.Principal) (*reservation.Reservation, error)
	CheckIn(ctx context.Context, id string, principal identity.Principal) (*reservation.Reservation, error)
	CheckOut(ctx context.Context, id string, principal identity.Principal) (*reservation.Reservation, error)
	CheckAvailability(ctx context.Context, roomID string, checkIn, checkOut time.Time) (bool, error)
	GetReservation(ctx context.Context, id string) (*reservation.Reservation, error)
	GetAccountReservations(ctx context.Context, accountID string, limit, offset int) ([]*reservation.Reservation, error)
}

// LoyaltyServiceInterface はポイントサービスのインターフェース
type LoyaltyServiceInterface interface {
	Redeem(ctx context.Context, accountID string, points int, principal identity.Principal) (*loyalty.Redemption, error)
	Earn(ctx context.Context, accountID string, points int, reason loyalty.Reason, reservationID *string) (*loyalty.LedgerEntry, error)
	Balance(ctx context.Context, accountID string) (int, error)
	GetLedger(ctx context.Context, accountID string, limit, offset int) ([]*loyalty.LedgerEntry, error)
	GetRedemption(ctx context.Context, id string) (*loyalty.Redemption, error)
}
