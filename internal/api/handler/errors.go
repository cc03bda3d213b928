package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-hotel-reservation/internal/domain/loyalty"
	"github.com/sanosuguru/go-hotel-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-hotel-reservation/internal/domain/room"
)

// domainHTTPError はドメインエラーをHTTPステータスに変換する
// 分類: 入力不正=400、権限なし=403、不存在=404、状態競合=409、残高不足=422
func domainHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, reservation.ErrReservationNotFound),
		errors.Is(err, room.ErrRoomNotFound),
		errors.Is(err, loyalty.ErrRedemptionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())

	case errors.Is(err, reservation.ErrPermissionDenied),
		errors.Is(err, loyalty.ErrPermissionDenied):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())

	case errors.Is(err, reservation.ErrRoomUnavailable),
		errors.Is(err, reservation.ErrReservationNotPending),
		errors.Is(err, reservation.ErrReservationAlreadyCancelled),
		errors.Is(err, reservation.ErrReservationNotCancellable),
		errors.Is(err, reservation.ErrReservationNotModifiable),
		errors.Is(err, reservation.ErrReservationNotConfirmed),
		errors.Is(err, reservation.ErrReservationNotInProgress),
		errors.Is(err, loyalty.ErrRedemptionAlreadyApplied):
		return echo.NewHTTPError(http.StatusConflict, err.Error())

	case errors.Is(err, loyalty.ErrInsufficientPoints):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, reservation.ErrInvalidDateRange),
		errors.Is(err, reservation.ErrCheckInPast),
		errors.Is(err, reservation.ErrInvalidGuests),
		errors.Is(err, reservation.ErrCapacityExceeded),
		errors.Is(err, room.ErrRoomNotBookable),
		errors.Is(err, loyalty.ErrInvalidPoints):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
