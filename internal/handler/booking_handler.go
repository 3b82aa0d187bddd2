package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fairwaybook/teetime-service/internal/dto"
	"github.com/fairwaybook/teetime-service/internal/middleware"
	"github.com/fairwaybook/teetime-service/internal/service"
	"github.com/labstack/echo/v4"
)

type BookingHandler struct {
	svc service.ReservationService
}

func NewBookingHandler(svc service.ReservationService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

func (h *BookingHandler) RegisterRoutes(e *echo.Echo, authn echo.MiddlewareFunc) {
	api := e.Group("/api/v1")

	api.GET("/teetimes", h.ListAvailability)

	member := api.Group("", authn)
	member.POST("/teetimes/:id/bookings", h.Reserve)
	member.POST("/bookings/:id/confirm", h.ConfirmBooking)
	member.DELETE("/bookings/:id", h.CancelBooking)
	member.GET("/bookings/:id", h.GetBooking)
	member.GET("/me/bookings", h.ListMyBookings)

	admin := api.Group("/admin", authn, middleware.RequireRole("admin"))
	admin.DELETE("/bookings/:id", h.ForceCancelBooking)
}

func (h *BookingHandler) Reserve(c echo.Context) error {
	teeTimeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid tee time id")
	}

	var req dto.ReserveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	in := service.ReserveInput{
		Players:     req.Players,
		PhoneNumber: req.PhoneNumber,
	}
	if req.Room != nil {
		in.Room = &service.RoomStay{
			RoomID:   req.Room.RoomID,
			CheckIn:  req.Room.CheckInDate,
			CheckOut: req.Room.CheckOutDate,
		}
	}

	booking, err := h.svc.Reserve(c.Request().Context(), principal, uint(teeTimeID), in)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusCreated, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) ConfirmBooking(c echo.Context) error {
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	booking, err := h.svc.Confirm(c.Request().Context(), principal, uint(bookingID))
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) CancelBooking(c echo.Context) error {
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	booking, err := h.svc.Cancel(c.Request().Context(), principal, uint(bookingID))
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) ForceCancelBooking(c echo.Context) error {
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	booking, err := h.svc.ForceCancel(c.Request().Context(), principal, uint(bookingID))
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) GetBooking(c echo.Context) error {
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	booking, err := h.svc.GetBooking(c.Request().Context(), principal, uint(bookingID))
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) ListMyBookings(c echo.Context) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	bookings, err := h.svc.ListUserBookings(c.Request().Context(), principal)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.BookingResponse, len(bookings))
	for i := range bookings {
		resp[i] = dto.ToBookingResponse(&bookings[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) ListAvailability(c echo.Context) error {
	dateParam := c.QueryParam("date")
	if dateParam == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date is required")
	}
	date, err := time.Parse("2006-01-02", dateParam)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	}

	page := 1
	if p := c.QueryParam("page"); p != "" {
		page, err = strconv.Atoi(p)
		if err != nil || page < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid page")
		}
	}

	availability, err := h.svc.ListAvailability(c.Request().Context(), date, page)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, dto.ToAvailabilityResponse(availability))
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, service.ErrTeeTimeNotFound),
		errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrRoomNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrMemberRoleRequired),
		errors.Is(err, service.ErrAdminRoleRequired),
		errors.Is(err, service.ErrNotBookingOwner):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrTeeTimeUnavailable),
		errors.Is(err, service.ErrInsufficientSlots),
		errors.Is(err, service.ErrRoomUnavailable),
		errors.Is(err, service.ErrBookingCapExceeded),
		errors.Is(err, service.ErrAlreadyFinalized),
		errors.Is(err, service.ErrNotPending),
		errors.Is(err, service.ErrHoldExpired),
		errors.Is(err, service.ErrTransactionConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrTooLateToCancel),
		errors.Is(err, service.ErrPaymentDeclined):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
