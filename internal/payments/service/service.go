// Package service implements payment-intent creation for bookings.
package service

import (
	"context"
	"math"

	"github.com/google/uuid"

	bookingsrepo "advenrent_backend/internal/bookings/repository"
	"advenrent_backend/internal/payments/provider"
	"advenrent_backend/internal/payments/repository"
	"advenrent_backend/platform/apperr"
	"advenrent_backend/platform/logger"
)

// BookingSource resolves the booking being paid for. Satisfied by the
// bookings repository.
type BookingSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (bookingsrepo.Booking, error)
}

// IntentResult is returned to the client to confirm the payment.
type IntentResult struct {
	ClientSecret    string
	PaymentIntentID string
}

// Service implements payment operations.
type Service struct {
	repo     repository.Repository
	bookings BookingSource
	provider provider.Provider
	log      *logger.Logger
}

func New(repo repository.Repository, bookings BookingSource, p provider.Provider, log *logger.Logger) *Service {
	return &Service{repo: repo, bookings: bookings, provider: p, log: log}
}

// CreateIntent creates a payment intent for the caller's booking. A
// booking owned by someone else reads as not-found.
func (s *Service) CreateIntent(ctx context.Context, userID, bookingID uuid.UUID, amount float64) (IntentResult, error) {
	if amount <= 0 {
		return IntentResult{}, apperr.Validation("amount must be positive")
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return IntentResult{}, err
	}
	if booking.RenterID != userID {
		return IntentResult{}, apperr.NotFound("booking not found")
	}
	if booking.Status == bookingsrepo.StatusCancelled {
		return IntentResult{}, apperr.Conflict("cannot pay for a cancelled booking")
	}

	amountCents := int64(math.Round(amount * 100))
	intent, err := s.provider.CreateIntent(ctx, amountCents, provider.Metadata{
		BookingID: bookingID.String(),
		UserID:    userID.String(),
	})
	if err != nil {
		return IntentResult{}, apperr.Wrap(apperr.KindInternal, "payment provider error", err)
	}

	if _, err := s.repo.Create(ctx, bookingID, amount, intent.ID); err != nil {
		return IntentResult{}, apperr.Wrap(apperr.KindInternal, "failed to record payment", err)
	}

	s.log.Info("payment intent created", "booking_id", bookingID, "intent_id", intent.ID)
	return IntentResult{ClientSecret: intent.ClientSecret, PaymentIntentID: intent.ID}, nil
}
