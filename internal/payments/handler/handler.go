package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"advenrent_backend/internal/payments/service"
	"advenrent_backend/internal/payments/transport"
	"advenrent_backend/platform/httpkit"
	"advenrent_backend/platform/validator"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// CreateIntent creates a payment intent for one of the caller's bookings.
// POST /api/v1/payments/create-payment-intent
func (h *Handler) CreateIntent(c *gin.Context) {
	userID, ok := httpkit.MustGetUserID(c)
	if !ok {
		return
	}

	var req transport.CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid booking id", nil)
		return
	}

	result, err := h.svc.CreateIntent(c.Request.Context(), userID, bookingID, req.Amount)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.PaymentIntentResponse{
		ClientSecret:    result.ClientSecret,
		PaymentIntentID: result.PaymentIntentID,
	})
}
