package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"advenrent_backend/internal/bookings/repository"
	"advenrent_backend/internal/bookings/service"
	"advenrent_backend/internal/bookings/transport"
	"advenrent_backend/platform/httpkit"
	"advenrent_backend/platform/validator"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Create books a vehicle for the caller.
// POST /api/v1/bookings
func (h *Handler) Create(c *gin.Context) {
	userID, ok := httpkit.MustGetUserID(c)
	if !ok {
		return
	}

	var req transport.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	vehicleID, err := uuid.Parse(req.VehicleID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid vehicle id", nil)
		return
	}
	startDate, _ := time.Parse("2006-01-02", req.StartDate)
	endDate, _ := time.Parse("2006-01-02", req.EndDate)

	booking, err := h.svc.Create(c.Request.Context(), userID, vehicleID, startDate, endDate)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, bookingResponse(booking))
}

// ListMine returns the caller's bookings, newest first.
// GET /api/v1/bookings
func (h *Handler) ListMine(c *gin.Context) {
	userID, ok := httpkit.MustGetUserID(c)
	if !ok {
		return
	}

	bookings, err := h.svc.ListMine(c.Request.Context(), userID)
	if httpkit.HandleError(c, err) {
		return
	}

	responses := make([]transport.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		responses = append(responses, bookingResponse(b))
	}
	httpkit.OK(c, responses)
}

// Get returns one booking, visible to the renter or the vehicle owner.
// GET /api/v1/bookings/:id
func (h *Handler) Get(c *gin.Context) {
	userID, ok := httpkit.MustGetUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid booking id", nil)
		return
	}

	booking, err := h.svc.Get(c.Request.Context(), userID, id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, bookingResponse(booking))
}

// Cancel cancels the caller's booking.
// POST /api/v1/bookings/:id/cancel
func (h *Handler) Cancel(c *gin.Context) {
	userID, ok := httpkit.MustGetUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid booking id", nil)
		return
	}

	booking, err := h.svc.Cancel(c.Request.Context(), userID, id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, bookingResponse(booking))
}

func bookingResponse(b repository.Booking) transport.BookingResponse {
	return transport.BookingResponse{
		ID:          b.ID.String(),
		VehicleID:   b.VehicleID.String(),
		RenterID:    b.RenterID.String(),
		StartDate:   b.StartDate.Format("2006-01-02"),
		EndDate:     b.EndDate.Format("2006-01-02"),
		TotalAmount: b.TotalAmount,
		Status:      b.Status,
		CreatedAt:   b.CreatedAt,
	}
}
