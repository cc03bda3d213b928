package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-hotel-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-hotel-reservation/internal/application"
	"github.com/sanosuguru/go-hotel-reservation/internal/domain/identity"
	"github.com/sanosuguru/go-hotel-reservation/internal/domain/pricing"
	"github.com/sanosuguru/go-hotel-reservation/internal/domain/reservation"
)

type ReservationHandler struct {
	service ReservationServiceInterface
}

func NewReservationHandler(s ReservationServiceInterface) *ReservationHandler {
	return &ReservationHandler{service: s}
}

type CreateReservationRequest struct {
	RoomID         string `json:"room_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	CheckIn        string `json:"check_in" validate:"required" example:"2026-09-10"`
	CheckOut       string `json:"check_out" validate:"required" example:"2026-09-12"`
	Guests         int    `json:"guests" validate:"required,min=1" example:"2"`
	PointsToRedeem int    `json:"points_to_redeem" validate:"min=0" example:"200"`
	PaymentMethod  string `json:"payment_method" validate:"omitempty,oneof=tarjeta transferencia" example:"tarjeta"`
	Breakfast      bool   `json:"breakfast"`
	Parking        bool   `json:"parking"`
	LateCheckout   bool   `json:"late_checkout"`
}

type ModifyReservationRequest struct {
	CheckIn  *string `json:"check_in,omitempty" example:"2026-09-11"`
	CheckOut *string `json:"check_out,omitempty" example:"2026-09-14"`
	Guests   *int    `json:"guests,omitempty" example:"3"`
}

type ReservationResponse struct {
	ID             string     `json:"id"`
	RoomID         string     `json:"room_id"`
	AccountID      string     `json:"account_id"`
	CheckIn        string     `json:"check_in"`
	CheckOut       string     `json:"check_out"`
	Nights         int        `json:"nights"`
	Guests         int        `json:"guests"`
	Status         string     `json:"status"`
	Subtotal       string     `json:"subtotal"`
	Taxes          string     `json:"taxes"`
	PointsDiscount string     `json:"points_discount"`
	Total          string     `json:"total"`
	PointsRedeemed int        `json:"points_redeemed"`
	PointsEarned   int        `json:"points_earned"`
	ConfirmedBy    *string    `json:"confirmed_by,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type CancelReservationResponse struct {
	Reservation   ReservationResponse `json:"reservation"`
	RefundAmount  string              `json:"refund_amount"`
	RefundApplied bool                `json:"refund_applied"`
}

func toReservationResponse(r *reservation.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:             r.ID,
		RoomID:         r.RoomID,
		AccountID:      r.AccountID,
		CheckIn:        r.CheckIn.Format(dateLayout),
		CheckOut:       r.CheckOut.Format(dateLayout),
		Nights:         r.Nights(),
		Guests:         r.Guests,
		Status:         string(r.Status),
		Subtotal:       r.Subtotal.StringFixed(2),
		Taxes:          r.Taxes.StringFixed(2),
		PointsDiscount: r.PointsDiscount.StringFixed(2),
		Total:          r.Total.StringFixed(2),
		PointsRedeemed: r.PointsRedeemed,
		PointsEarned:   r.PointsEarned,
		ConfirmedBy:    r.ConfirmedBy,
		CancelledAt:    r.CancelledAt,
		CreatedAt:      r.CreatedAt,
	}
}

func requirePrincipal(c echo.Context) (identity.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return identity.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "認証情報が必要です")
	}
	return p, nil
}

func parseDate(value, field string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, field+" はYYYY-MM-DD形式で指定してください")
	}
	return t, nil
}

// Create godoc
// @Summary 予約を作成
// @Description 空室確認・料金計算・ポイント適用を行い予約を作成する
// @Tags reservations
// @Accept json
// @Produce json
// @Param request body CreateReservationRequest true "予約情報"
// @Success 201 {object} ReservationResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string "指定期間に空きがない"
// @Failure 422 {object} map[string]string "ポイント残高不足"
// @Router /reservations [post]
func (h *ReservationHandler) Create(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	checkIn, err := parseDate(req.CheckIn, "check_in")
	if err != nil {
		return err
	}
	checkOut, err := parseDate(req.CheckOut, "check_out")
	if err != nil {
		return err
	}
	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = application.PaymentMethodCard
	}

	r, err := h.service.CreateReservation(c.Request().Context(), application.CreateReservationInput{
		RoomID:         req.RoomID,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		Guests:         req.Guests,
		PointsToRedeem: req.PointsToRedeem,
		PaymentMethod:  paymentMethod,
		Addons: pricing.Addons{
			Breakfast:    req.Breakfast,
			Parking:      req.Parking,
			LateCheckout: req.LateCheckout,
		},
		Principal: principal,
	})
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toReservationResponse(r))
}

// GetByID godoc
// @Summary 予約を取得
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /reservations/{id} [get]
func (h *ReservationHandler) GetByID(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	r, err := h.service.GetReservation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return domainHTTPError(err)
	}
	// 一般客は自分の予約のみ閲覧できる
	if !identity.CapabilitiesFor(principal).CanManageReservation(r.AccountID) {
		return domainHTTPError(reservation.ErrPermissionDenied)
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// GetMine godoc
// @Summary 自分の予約一覧を取得
// @Tags reservations
// @Produce json
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} ReservationResponse
// @Failure 401 {object} map[string]string
// @Router /reservations [get]
func (h *ReservationHandler) GetMine(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	reservations, err := h.service.GetAccountReservations(c.Request().Context(), principal.AccountID, limit, offset)
	if err != nil {
		return domainHTTPError(err)
	}
	resp := make([]ReservationResponse, len(reservations))
	for i, r := range reservations {
		resp[i] = toReservationResponse(r)
	}
	return c.JSON(http.StatusOK, resp)
}

// Modify godoc
// @Summary 予約を変更
// @Description 日程・人数を変更し、空室再確認と料金再計算を行う
// @Tags reservations
// @Accept json
// @Produce json
// @Param id path string true "予約ID"
// @Param request body ModifyReservationRequest true "変更内容"
// @Success 200 {object} ReservationResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations/{id} [patch]
func (h *ReservationHandler) Modify(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req ModifyReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}

	input := application.ModifyReservationInput{
		ID:        c.Param("id"),
		NewGuests: req.Guests,
		Principal: principal,
	}
	if req.CheckIn != nil {
		t, err := parseDate(*req.CheckIn, "check_in")
		if err != nil {
			return err
		}
		input.NewCheckIn = &t
	}
	if req.CheckOut != nil {
		t, err := parseDate(*req.CheckOut, "check_out")
		if err != nil {
			return err
		}
		input.NewCheckOut = &t
	}

	r, err := h.service.ModifyReservation(c.Request().Context(), input)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Description チェックインまで48時間以上ある場合のみ全額返金となる
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} CancelReservationResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations/{id}/cancel [post]
func (h *ReservationHandler) Cancel(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	result, err := h.service.CancelReservation(c.Request().Context(), c.Param("id"), principal)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, CancelReservationResponse{
		Reservation:   toReservationResponse(result.Reservation),
		RefundAmount:  result.RefundAmount.StringFixed(2),
		RefundApplied: result.RefundApplied,
	})
}

// Confirm godoc
// @Summary 予約を確定（スタッフのみ）
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations/{id}/confirm [post]
func (h *ReservationHandler) Confirm(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	r, err := h.service.ConfirmReservation(c.Request().Context(), c.Param("id"), principal)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// CheckIn godoc
// @Summary チェックイン（スタッフのみ）
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations/{id}/check-in [post]
func (h *ReservationHandler) CheckIn(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	r, err := h.service.CheckIn(c.Request().Context(), c.Param("id"), principal)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// CheckOut godoc
// @Summary チェックアウト（スタッフのみ）
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations/{id}/check-out [post]
func (h *ReservationHandler) CheckOut(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	r, err := h.service.CheckOut(c.Request().Context(), c.Param("id"), principal)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}
