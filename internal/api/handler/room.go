package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-hotel-reservation/internal/domain/room"
)

// 日付パラメータのフォーマット（チェックイン・チェックアウト日は日単位）
const dateLayout = "2006-01-02"

type RoomHandler struct {
	rooms        RoomServiceInterface
	reservations ReservationServiceInterface
}

func NewRoomHandler(rooms RoomServiceInterface, reservations ReservationServiceInterface) *RoomHandler {
	return &RoomHandler{rooms: rooms, reservations: reservations}
}

type RoomTypeResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BaseRate     string `json:"base_rate"`
	EmployeeRate string `json:"employee_rate"`
	Capacity     int    `json:"capacity"`
	SizeM2       int    `json:"size_m2"`
}

type RoomResponse struct {
	ID         string            `json:"id"`
	RoomNumber string            `json:"room_number"`
	State      string            `json:"state"`
	Active     bool              `json:"active"`
	Type       *RoomTypeResponse `json:"type,omitempty"`
}

type AvailabilityResponse struct {
	RoomID    string `json:"room_id"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Available bool   `json:"available"`
}

func toRoomResponse(r *room.Room) RoomResponse {
	resp := RoomResponse{
		ID:         r.ID,
		RoomNumber: r.RoomNumber,
		State:      string(r.State),
		Active:     r.Active,
	}
	if r.Type != nil {
		resp.Type = &RoomTypeResponse{
			ID:           r.Type.ID,
			Name:         r.Type.Name,
			BaseRate:     r.Type.BaseRate.StringFixed(2),
			EmployeeRate: r.Type.EmployeeRate.StringFixed(2),
			Capacity:     r.Type.Capacity,
			SizeM2:       r.Type.SizeM2,
		}
	}
	return resp
}

// List godoc
// @Summary 客室一覧を取得
// @Tags rooms
// @Produce json
// @Param limit query int false "取得件数" default(50)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} RoomResponse
// @Router /rooms [get]
func (h *RoomHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	rooms, err := h.rooms.ListRooms(c.Request().Context(), limit, offset)
	if err != nil {
		return domainHTTPError(err)
	}
	resp := make([]RoomResponse, len(rooms))
	for i, r := range rooms {
		resp[i] = toRoomResponse(r)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetByID godoc
// @Summary 客室を取得
// @Tags rooms
// @Produce json
// @Param id path string true "客室ID"
// @Success 200 {object} RoomResponse
// @Failure 404 {object} map[string]string
// @Router /rooms/{id} [get]
func (h *RoomHandler) GetByID(c echo.Context) error {
	r, err := h.rooms.GetRoom(c.Request().Context(), c.Param("id"))
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, toRoomResponse(r))
}

// Availability godoc
// @Summary 客室の空き状況を確認
// @Description 指定期間（チェックイン日含む・チェックアウト日含まず）の空きを返す
// @Tags rooms
// @Produce json
// @Param id path string true "客室ID"
// @Param check_in query string true "チェックイン日（YYYY-MM-DD）"
// @Param check_out query string true "チェックアウト日（YYYY-MM-DD）"
// @Success 200 {object} AvailabilityResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /rooms/{id}/availability [get]
func (h *RoomHandler) Availability(c echo.Context) error {
	roomID := c.Param("id")
	checkIn, err := time.Parse(dateLayout, c.QueryParam("check_in"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "check_in はYYYY-MM-DD形式で指定してください")
	}
	checkOut, err := time.Parse(dateLayout, c.QueryParam("check_out"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "check_out はYYYY-MM-DD形式で指定してください")
	}

	available, err := h.reservations.CheckAvailability(c.Request().Context(), roomID, checkIn, checkOut)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, AvailabilityResponse{
		RoomID:    roomID,
		CheckIn:   checkIn.Format(dateLayout),
		CheckOut:  checkOut.Format(dateLayout),
		Available: available,
	})
}
