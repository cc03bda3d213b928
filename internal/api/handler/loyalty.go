package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-hotel-reservation/internal/domain/identity"
	"github.com/sanosuguru/go-hotel-reservation/internal/domain/loyalty"
)

type LoyaltyHandler struct {
	service LoyaltyServiceInterface
}

func NewLoyaltyHandler(s LoyaltyServiceInterface) *LoyaltyHandler {
	return &LoyaltyHandler{service: s}
}

type RedeemRequest struct {
	Points int `json:"points" validate:"required,min=1" example:"200"`
}

type AdjustRequest struct {
	AccountID     string  `json:"account_id" validate:"required"`
	Points        int     `json:"points" validate:"required,min=1"`
	ReservationID *string `json:"reservation_id,omitempty"`
}

type BalanceResponse struct {
	AccountID string `json:"account_id"`
	Balance   int    `json:"balance"`
}

type LedgerEntryResponse struct {
	ID            string    `json:"id"`
	Amount        int       `json:"amount"`
	Reason        string    `json:"reason"`
	ReservationID *string   `json:"reservation_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type RedemptionResponse struct {
	ID            string    `json:"id"`
	AccountID     string    `json:"account_id"`
	Points        int       `json:"points"`
	Discount      string    `json:"discount"`
	Status        string    `json:"status"`
	ReservationID *string   `json:"reservation_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toRedemptionResponse(r *loyalty.Redemption) RedemptionResponse {
	return RedemptionResponse{
		ID:            r.ID,
		AccountID:     r.AccountID,
		Points:        r.Points,
		Discount:      r.Discount.StringFixed(2),
		Status:        string(r.Status),
		ReservationID: r.ReservationID,
		CreatedAt:     r.CreatedAt,
	}
}

// Balance godoc
// @Summary 自分のポイント残高を取得
// @Tags loyalty
// @Produce json
// @Success 200 {object} BalanceResponse
// @Failure 401 {object} map[string]string
// @Router /loyalty/balance [get]
func (h *LoyaltyHandler) Balance(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	balance, err := h.service.Balance(c.Request().Context(), principal.AccountID)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, BalanceResponse{
		AccountID: principal.AccountID,
		Balance:   balance,
	})
}

// Ledger godoc
// @Summary 自分のポイント台帳を取得
// @Tags loyalty
// @Produce json
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} LedgerEntryResponse
// @Failure 401 {object} map[string]string
// @Router /loyalty/ledger [get]
func (h *LoyaltyHandler) Ledger(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	entries, err := h.service.GetLedger(c.Request().Context(), principal.AccountID, limit, offset)
	if err != nil {
		return domainHTTPError(err)
	}
	resp := make([]LedgerEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = LedgerEntryResponse{
			ID:            e.ID,
			Amount:        e.Amount,
			Reason:        string(e.Reason),
			ReservationID: e.ReservationID,
			CreatedAt:     e.CreatedAt,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// Redeem godoc
// @Summary ポイントを割引バウチャーに交換
// @Description 残高不足の場合は台帳を変更せず422を返す
// @Tags loyalty
// @Accept json
// @Produce json
// @Param request body RedeemRequest true "交換ポイント数"
// @Success 201 {object} RedemptionResponse
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string "残高不足"
// @Router /loyalty/redemptions [post]
func (h *LoyaltyHandler) Redeem(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req RedeemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	red, err := h.service.Redeem(c.Request().Context(), principal.AccountID, req.Points, principal)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toRedemptionResponse(red))
}

// GetRedemption godoc
// @Summary ポイント交換を取得
// @Tags loyalty
// @Produce json
// @Param id path string true "交換ID"
// @Success 200 {object} RedemptionResponse
// @Failure 404 {object} map[string]string
// @Router /loyalty/redemptions/{id} [get]
func (h *LoyaltyHandler) GetRedemption(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	red, err := h.service.GetRedemption(c.Request().Context(), c.Param("id"))
	if err != nil {
		return domainHTTPError(err)
	}
	if !identity.CapabilitiesFor(principal).CanRedeemFor(red.AccountID) {
		return domainHTTPError(loyalty.ErrPermissionDenied)
	}
	return c.JSON(http.StatusOK, toRedemptionResponse(red))
}

// Adjust godoc
// @Summary ポイントを補正付与（スタッフのみ）
// @Description 運用上の補正。台帳には ajuste 理由のエントリとして追記される
// @Tags loyalty
// @Accept json
// @Produce json
// @Param request body AdjustRequest true "補正内容"
// @Success 201 {object} LedgerEntryResponse
// @Failure 403 {object} map[string]string
// @Router /loyalty/adjustments [post]
func (h *LoyaltyHandler) Adjust(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if !principal.IsStaff() || !principal.Active {
		return domainHTTPError(loyalty.ErrPermissionDenied)
	}
	var req AdjustRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	entry, err := h.service.Earn(c.Request().Context(), req.AccountID, req.Points, loyalty.ReasonAdjust, req.ReservationID)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusCreated, LedgerEntryResponse{
		ID:            entry.ID,
		Amount:        entry.Amount,
		Reason:        string(entry.Reason),
		ReservationID: entry.ReservationID,
		CreatedAt:     entry.CreatedAt,
	})
}
