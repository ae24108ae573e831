// Package service implements booking business logic: trip creation with
// availability enforcement, listing, and cancellation.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	authrepo "advenrent_backend/internal/auth/repository"
	"advenrent_backend/internal/bookings/repository"
	vehiclesrepo "advenrent_backend/internal/vehicles/repository"
	"advenrent_backend/platform/apperr"
	"advenrent_backend/platform/events"
	"advenrent_backend/platform/logger"
)

// VehicleSource resolves the vehicle being booked. Satisfied by the
// vehicles repository.
type VehicleSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (vehiclesrepo.Vehicle, error)
}

// UserSource resolves the renter's account. Satisfied by the auth
// repository.
type UserSource interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (authrepo.User, error)
}

// ReminderScheduler enqueues a trip-start reminder. Satisfied by the
// scheduler client; a nil scheduler disables reminders.
type ReminderScheduler interface {
	ScheduleBookingReminder(ctx context.Context, bookingID uuid.UUID, email, vehicleTitle string, startDate time.Time) error
}

// Service implements booking operations.
type Service struct {
	repo      repository.Repository
	vehicles  VehicleSource
	users     UserSource
	bus       events.Bus
	scheduler ReminderScheduler
	log       *logger.Logger
}

// New creates a bookings service. scheduler may be nil.
func New(repo repository.Repository, vehicles VehicleSource, users UserSource, bus events.Bus, scheduler ReminderScheduler, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		vehicles:  vehicles,
		users:     users,
		bus:       bus,
		scheduler: scheduler,
		log:       log,
	}
}

// Create books a vehicle for the given date range. The total is computed
// server-side from the vehicle's current nightly price.
func (s *Service) Create(ctx context.Context, renterID, vehicleID uuid.UUID, startDate, endDate time.Time) (repository.Booking, error) {
	if !endDate.After(startDate) {
		return repository.Booking{}, apperr.Validation("end date must be after start date")
	}

	vehicle, err := s.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return repository.Booking{}, err
	}
	if vehicle.OwnerID == renterID {
		return repository.Booking{}, apperr.Validation("you cannot book your own vehicle")
	}

	nights := int(endDate.Sub(startDate).Hours() / 24)
	if nights < 1 {
		nights = 1
	}
	total := float64(nights) * vehicle.Price

	booking, err := s.repo.Create(ctx, repository.CreateParams{
		VehicleID:   vehicleID,
		RenterID:    renterID,
		StartDate:   startDate,
		EndDate:     endDate,
		TotalAmount: total,
	})
	if errors.Is(err, repository.ErrOverlap) {
		return repository.Booking{}, apperr.Conflict(err.Error())
	}
	if err != nil {
		return repository.Booking{}, apperr.Wrap(apperr.KindInternal, "failed to create booking", err)
	}

	renterEmail := ""
	if user, err := s.users.GetUserByID(ctx, renterID); err == nil {
		renterEmail = user.Email
	}

	s.bus.Publish(ctx, events.BookingCreated{
		BaseEvent:    events.NewBaseEvent(),
		BookingID:    booking.ID,
		VehicleID:    vehicleID,
		RenterID:     renterID,
		VehicleTitle: vehicle.Title,
		RenterEmail:  renterEmail,
		StartDate:    booking.StartDate,
		EndDate:      booking.EndDate,
		TotalAmount:  booking.TotalAmount,
	})

	if s.scheduler != nil && renterEmail != "" {
		if err := s.scheduler.ScheduleBookingReminder(ctx, booking.ID, renterEmail, vehicle.Title, booking.StartDate); err != nil {
			s.log.Warn("failed to schedule booking reminder", "booking_id", booking.ID, "error", err)
		}
	}

	s.log.Info("booking created", "booking_id", booking.ID, "vehicle_id", vehicleID, "renter_id", renterID)
	return booking, nil
}

// ListMine returns the caller's bookings, newest first.
func (s *Service) ListMine(ctx context.Context, renterID uuid.UUID) ([]repository.Booking, error) {
	return s.repo.ListByRenter(ctx, renterID)
}

// Get returns a booking visible to the caller: the renter or the vehicle
// owner. Anyone else gets not-found rather than forbidden, to avoid
// leaking booking existence.
func (s *Service) Get(ctx context.Context, userID, bookingID uuid.UUID) (repository.Booking, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return repository.Booking{}, err
	}
	if booking.RenterID == userID {
		return booking, nil
	}
	vehicle, err := s.vehicles.GetByID(ctx, booking.VehicleID)
	if err == nil && vehicle.OwnerID == userID {
		return booking, nil
	}
	return repository.Booking{}, apperr.NotFound("booking not found")
}

// Cancel marks the caller's booking cancelled. Completed trips cannot be
// cancelled.
func (s *Service) Cancel(ctx context.Context, renterID, bookingID uuid.UUID) (repository.Booking, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return repository.Booking{}, err
	}
	if booking.RenterID != renterID {
		return repository.Booking{}, apperr.NotFound("booking not found")
	}
	switch booking.Status {
	case repository.StatusCompleted:
		return repository.Booking{}, apperr.Conflict("completed bookings cannot be cancelled")
	case repository.StatusCancelled:
		return booking, nil
	}

	booking, err = s.repo.UpdateStatus(ctx, bookingID, repository.StatusCancelled)
	if err != nil {
		return repository.Booking{}, err
	}

	renterEmail := ""
	if user, err := s.users.GetUserByID(ctx, renterID); err == nil {
		renterEmail = user.Email
	}
	s.bus.Publish(ctx, events.BookingCancelled{
		BaseEvent:   events.NewBaseEvent(),
		BookingID:   booking.ID,
		RenterEmail: renterEmail,
	})

	s.log.Info("booking cancelled", "booking_id", booking.ID, "renter_id", renterID)
	return booking, nil
}
