package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	authrepo "advenrent_backend/internal/auth/repository"
	"advenrent_backend/internal/bookings/repository"
	vehiclesrepo "advenrent_backend/internal/vehicles/repository"
	"advenrent_backend/platform/apperr"
	"advenrent_backend/platform/events"
	"advenrent_backend/platform/logger"
)

type fakeBookingRepo struct {
	bookings   map[uuid.UUID]repository.Booking
	overlapOn  bool
	lastCreate repository.CreateParams
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: map[uuid.UUID]repository.Booking{}}
}

func (f *fakeBookingRepo) Create(_ context.Context, params repository.CreateParams) (repository.Booking, error) {
	if f.overlapOn {
		return repository.Booking{}, repository.ErrOverlap
	}
	f.lastCreate = params
	b := repository.Booking{
		ID:          uuid.New(),
		VehicleID:   params.VehicleID,
		RenterID:    params.RenterID,
		StartDate:   params.StartDate,
		EndDate:     params.EndDate,
		TotalAmount: params.TotalAmount,
		Status:      repository.StatusPending,
		CreatedAt:   time.Now(),
	}
	f.bookings[b.ID] = b
	return b, nil
}

func (f *fakeBookingRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return repository.Booking{}, apperr.NotFound("booking not found")
	}
	return b, nil
}

func (f *fakeBookingRepo) ListByRenter(_ context.Context, renterID uuid.UUID) ([]repository.Booking, error) {
	var out []repository.Booking
	for _, b := range f.bookings {
		if b.RenterID == renterID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) (repository.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return repository.Booking{}, apperr.NotFound("booking not found")
	}
	b.Status = status
	f.bookings[id] = b
	return b, nil
}

type fakeVehicles struct {
	vehicle vehiclesrepo.Vehicle
}

func (f *fakeVehicles) GetByID(_ context.Context, id uuid.UUID) (vehiclesrepo.Vehicle, error) {
	if id != f.vehicle.ID {
		return vehiclesrepo.Vehicle{}, apperr.NotFound("vehicle not found")
	}
	return f.vehicle, nil
}

type fakeUsers struct{}

func (fakeUsers) GetUserByID(_ context.Context, id uuid.UUID) (authrepo.User, error) {
	return authrepo.User{ID: id, Email: "renter@example.com"}, nil
}

type recordingScheduler struct {
	calls int
}

func (r *recordingScheduler) ScheduleBookingReminder(_ context.Context, _ uuid.UUID, _, _ string, _ time.Time) error {
	r.calls++
	return nil
}

func day(offset int) time.Time {
	return time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func newTestService(repo *fakeBookingRepo, vehicles *fakeVehicles, sched *recordingScheduler) (*Service, events.Bus) {
	bus := events.NewInMemoryBus(logger.New("development"))
	var rs ReminderScheduler
	if sched != nil {
		rs = sched
	}
	return New(repo, vehicles, fakeUsers{}, bus, rs, logger.New("development")), bus
}

func TestCreate_ComputesTotalFromNightsAndPrice(t *testing.T) {
	owner := uuid.New()
	vehicles := &fakeVehicles{vehicle: vehiclesrepo.Vehicle{ID: uuid.New(), OwnerID: owner, Title: "Yamaha YZ250", Price: 120}}
	repo := newFakeBookingRepo()
	svc, _ := newTestService(repo, vehicles, nil)

	booking, err := svc.Create(context.Background(), uuid.New(), vehicles.vehicle.ID, day(0), day(3))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if booking.TotalAmount != 360 {
		t.Fatalf("expected 3 nights x 120 = 360, got %v", booking.TotalAmount)
	}
}

func TestCreate_RejectsInvertedDates(t *testing.T) {
	vehicles := &fakeVehicles{vehicle: vehiclesrepo.Vehicle{ID: uuid.New(), OwnerID: uuid.New(), Price: 100}}
	svc, _ := newTestService(newFakeBookingRepo(), vehicles, nil)

	_, err := svc.Create(context.Background(), uuid.New(), vehicles.vehicle.ID, day(3), day(0))
	if err == nil {
		t.Fatal("expected validation error for end before start")
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
		t.Fatalf("expected validation kind, got %v", err)
	}
}

func TestCreate_RejectsOwnVehicle(t *testing.T) {
	owner := uuid.New()
	vehicles := &fakeVehicles{vehicle: vehiclesrepo.Vehicle{ID: uuid.New(), OwnerID: owner, Price: 100}}
	svc, _ := newTestService(newFakeBookingRepo(), vehicles, nil)

	if _, err := svc.Create(context.Background(), owner, vehicles.vehicle.ID, day(0), day(2)); err == nil {
		t.Fatal("expected error when booking own vehicle")
	}
}

func TestCreate_OverlapMapsToConflict(t *testing.T) {
	vehicles := &fakeVehicles{vehicle: vehiclesrepo.Vehicle{ID: uuid.New(), OwnerID: uuid.New(), Price: 100}}
	repo := newFakeBookingRepo()
	repo.overlapOn = true
	svc, _ := newTestService(repo, vehicles, nil)

	_, err := svc.Create(context.Background(), uuid.New(), vehicles.vehicle.ID, day(0), day(2))
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindConflict {
		t.Fatalf("expected conflict kind, got %v", err)
	}
}

func TestCreate_SchedulesReminder(t *testing.T) {
	vehicles := &fakeVehicles{vehicle: vehiclesrepo.Vehicle{ID: uuid.New(), OwnerID: uuid.New(), Price: 100}}
	sched := &recordingScheduler{}
	svc, _ := newTestService(newFakeBookingRepo(), vehicles, sched)

	if _, err := svc.Create(context.Background(), uuid.New(), vehicles.vehicle.ID, day(0), day(2)); err != nil {
		t.Fatal(err)
	}
	if sched.calls != 1 {
		t.Fatalf("expected one reminder scheduled, got %d", sched.calls)
	}
}

func TestGet_HiddenFromStrangers(t *testing.T) {
	owner := uuid.New()
	renter := uuid.New()
	vehicles := &fakeVehicles{vehicle: vehiclesrepo.Vehicle{ID: uuid.New(), OwnerID: owner, Price: 100}}
	repo := newFakeBookingRepo()
	svc, _ := newTestService(repo, vehicles, nil)

	booking, err := svc.Create(context.Background(), renter, vehicles.vehicle.ID, day(0), day(2))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Get(context.Background(), renter, booking.ID); err != nil {
		t.Fatalf("renter must see own booking: %v", err)
	}
	if _, err := svc.Get(context.Background(), owner, booking.ID); err != nil {
		t.Fatalf("vehicle owner must see the booking: %v", err)
	}
	if _, err := svc.Get(context.Background(), uuid.New(), booking.ID); err == nil {
		t.Fatal("strangers must not see the booking")
	}
}

func TestCancel_RulesByStatus(t *testing.T) {
	renter := uuid.New()
	vehicles := &fakeVehicles{vehicle: vehiclesrepo.Vehicle{ID: uuid.New(), OwnerID: uuid.New(), Price: 100}}
	repo := newFakeBookingRepo()
	svc, _ := newTestService(repo, vehicles, nil)

	booking, err := svc.Create(context.Background(), renter, vehicles.vehicle.ID, day(0), day(2))
	if err != nil {
		t.Fatal(err)
	}

	cancelled, err := svc.Cancel(context.Background(), renter, booking.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != repository.StatusCancelled {
		t.Fatalf("expected cancelled status, got %s", cancelled.Status)
	}

	// Cancelling again is a no-op, not an error.
	if _, err := svc.Cancel(context.Background(), renter, booking.ID); err != nil {
		t.Fatalf("repeat cancel must be idempotent: %v", err)
	}

	// Completed trips stay completed.
	b := repo.bookings[booking.ID]
	b.Status = repository.StatusCompleted
	repo.bookings[booking.ID] = b
	_, err = svc.Cancel(context.Background(), renter, booking.ID)
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindConflict {
		t.Fatalf("expected conflict cancelling a completed booking, got %v", err)
	}
}
