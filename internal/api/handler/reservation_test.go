package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-hotel-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-hotel-reservation/internal/application"
	"github.com/sanosuguru/go-hotel-reservation/internal/domain/identity"
	"github.com/sanosuguru/go-hotel-reservation/internal/domain/loyalty"
	"github.com/sanosuguru/go-hotel-reservation/internal/domain/reservation"
)

// MockReservationService はReservationServiceInterfaceのモック
type MockReservationService struct {
	mock.Mock
}

func (m *MockReservationService) CreateReservation(ctx context.Context, input application.CreateReservationInput) (*reservation.Reservation, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationService) ModifyReservation(ctx context.Context, input application.ModifyReservationInput) (*reservation.Reservation, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationService) CancelReservation(ctx context.Context, id string, principal identity.Principal) (*application.CancelResult, error) {
	args := m.Called(ctx, id, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.CancelResult), args.Error(1)
}

func (m *MockReservationService) ConfirmReservation(ctx context.Context, id string, principal identity.Principal) (*reservation.Reservation, error) {
	args := m.Called(ctx, id, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationService) CheckIn(ctx context.Context, id string, principal identity.Principal) (*reservation.Reservation, error) {
	args := m.Called(ctx, id, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationService) CheckOut(ctx context.Context, id string, principal identity.Principal) (*reservation.Reservation, error) {
	args := m.Called(ctx, id, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationService) CheckAvailability(ctx context.Context, roomID string, checkIn, checkOut time.Time) (bool, error) {
	args := m.Called(ctx, roomID, checkIn, checkOut)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationService) GetReservation(ctx context.Context, id string) (*reservation.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationService) GetAccountReservations(ctx context.Context, accountID string, limit, offset int) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

// withPrincipal は認証ミドルウェア通過後の状態を再現する
func withPrincipal(c echo.Context, p identity.Principal) {
	c.Set(middleware.PrincipalKey, p)
}

func testReservation() *reservation.Reservation {
	checkIn := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	return &reservation.Reservation{
		ID:             "res-123",
		RoomID:         "room-1",
		AccountID:      "acc-1",
		CheckIn:        checkIn,
		CheckOut:       checkIn.AddDate(0, 0, 2),
		Guests:         2,
		Status:         reservation.StatusPending,
		Subtotal:       decimal.RequireFromString("200.00"),
		Taxes:          decimal.RequireFromString("42.00"),
		PointsDiscount: decimal.Zero,
		Total:          decimal.RequireFromString("242.00"),
		PointsEarned:   24,
		CreatedAt:      time.Now(),
	}
}

func TestReservationHandler_Create(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常に予約を作成できる", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("CreateReservation", mock.Anything, mock.AnythingOfType("application.CreateReservationInput")).
			Return(testReservation(), nil)

		handler := NewReservationHandler(mockService)

		reqBody := `{
			"room_id": "room-1",
			"check_in": "2026-09-10",
			"check_out": "2026-09-12",
			"guests": 2
		}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		withPrincipal(c, identity.Principal{AccountID: "acc-1", Role: identity.RoleGuest, Active: true})

		err := handler.Create(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp ReservationResponse
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Equal(t, "res-123", resp.ID)
		assert.Equal(t, "pendiente", resp.Status)
		assert.Equal(t, "242.00", resp.Total)
		assert.Equal(t, 2, resp.Nights)

		mockService.AssertExpectations(t)
	})

	t.Run("未認証は401", func(t *testing.T) {
		handler := NewReservationHandler(new(MockReservationService))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(`{}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)
		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("日付形式が不正なら400", func(t *testing.T) {
		handler := NewReservationHandler(new(MockReservationService))

		reqBody := `{
			"room_id": "room-1",
			"check_in": "10/09/2026",
			"check_out": "2026-09-12",
			"guests": 2
		}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		withPrincipal(c, identity.Principal{AccountID: "acc-1", Role: identity.RoleGuest, Active: true})

		err := handler.Create(c)
		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Code)
	})

	t.Run("空室なしは409", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("CreateReservation", mock.Anything, mock.AnythingOfType("application.CreateReservationInput")).
			Return(nil, reservation.ErrRoomUnavailable)

		handler := NewReservationHandler(mockService)

		reqBody := `{
			"room_id": "room-1",
			"check_in": "2026-09-10",
			"check_out": "2026-09-12",
			"guests": 2
		}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		withPrincipal(c, identity.Principal{AccountID: "acc-1", Role: identity.RoleGuest, Active: true})

		err := handler.Create(c)
		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusConflict, he.Code)
	})

	t.Run("ポイント残高不足は422", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("CreateReservation", mock.Anything, mock.AnythingOfType("application.CreateReservationInput")).
			Return(nil, &loyalty.InsufficientPointsError{Balance: 50, Requested: 200})

		handler := NewReservationHandler(mockService)

		reqBody := `{
			"room_id": "room-1",
			"check_in": "2026-09-10",
			"check_out": "2026-09-12",
			"guests": 2,
			"points_to_redeem": 200
		}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		withPrincipal(c, identity.Principal{AccountID: "acc-1", Role: identity.RoleGuest, Active: true})

		err := handler.Create(c)
		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnprocessableEntity, he.Code)
	})
}

func TestReservationHandler_GetByID(t *testing.T) {
	e := NewTestEcho()

	t.Run("本人は自分の予約を閲覧できる", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("GetReservation", mock.Anything, "res-123").Return(testReservation(), nil)

		handler := NewReservationHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations/res-123", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("res-123")
		withPrincipal(c, identity.Principal{AccountID: "acc-1", Role: identity.RoleGuest, Active: true})

		err := handler.GetByID(c)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("他人の予約は403", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("GetReservation", mock.Anything, "res-123").Return(testReservation(), nil)

		handler := NewReservationHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations/res-123", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("res-123")
		withPrincipal(c, identity.Principal{AccountID: "acc-other", Role: identity.RoleGuest, Active: true})

		err := handler.GetByID(c)
		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusForbidden, he.Code)
	})

	t.Run("スタッフは他人の予約を閲覧できる", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("GetReservation", mock.Anything, "res-123").Return(testReservation(), nil)

		handler := NewReservationHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations/res-123", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("res-123")
		withPrincipal(c, identity.Principal{AccountID: "emp-1", Role: identity.RoleEmployee, Active: true})

		err := handler.GetByID(c)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("存在しない予約は404", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("GetReservation", mock.Anything, "missing").
			Return(nil, reservation.ErrReservationNotFound)

		handler := NewReservationHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations/missing", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("missing")
		withPrincipal(c, identity.Principal{AccountID: "acc-1", Role: identity.RoleGuest, Active: true})

		err := handler.GetByID(c)
		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, he.Code)
	})
}

func TestReservationHandler_Cancel(t *testing.T) {
	e := NewTestEcho()

	t.Run("キャンセル結果に返金額が含まれる", func(t *testing.T) {
		res := testReservation()
		res.Status = reservation.StatusCancelled
		mockService := new(MockReservationService)
		mockService.On("CancelReservation", mock.Anything, "res-123", mock.AnythingOfType("identity.Principal")).
			Return(&application.CancelResult{
				Reservation:   res,
				RefundAmount:  decimal.RequireFromString("242.00"),
				RefundApplied: true,
			}, nil)

		handler := NewReservationHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/res-123/cancel", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("res-123")
		withPrincipal(c, identity.Principal{AccountID: "acc-1", Role: identity.RoleGuest, Active: true})

		err := handler.Cancel(c)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp CancelReservationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "242.00", resp.RefundAmount)
		assert.True(t, resp.RefundApplied)
		assert.Equal(t, "cancelada", resp.Reservation.Status)
	})
}

func TestReservationHandler_Confirm(t *testing.T) {
	e := NewTestEcho()

	t.Run("権限エラーは403", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("ConfirmReservation", mock.Anything, "res-123", mock.AnythingOfType("identity.Principal")).
			Return(nil, reservation.ErrPermissionDenied)

		handler := NewReservationHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/res-123/confirm", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("res-123")
		withPrincipal(c, identity.Principal{AccountID: "acc-1", Role: identity.RoleGuest, Active: true})

		err := handler.Confirm(c)
		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusForbidden, he.Code)
	})
}
