// Package repository implements booking persistence on PostgreSQL.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"advenrent_backend/platform/apperr"
)

// Booking statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ErrOverlap is returned when the requested dates collide with a
// confirmed booking for the same vehicle.
var ErrOverlap = errors.New("vehicle is already booked for these dates")

// Booking is the persistence model for a trip reservation.
type Booking struct {
	ID          uuid.UUID
	VehicleID   uuid.UUID
	RenterID    uuid.UUID
	StartDate   time.Time
	EndDate     time.Time
	TotalAmount float64
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateParams holds everything needed to insert a booking.
type CreateParams struct {
	VehicleID   uuid.UUID
	RenterID    uuid.UUID
	StartDate   time.Time
	EndDate     time.Time
	TotalAmount float64
}

// Repository is the bookings persistence boundary.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (Booking, error)
	GetByID(ctx context.Context, id uuid.UUID) (Booking, error)
	ListByRenter(ctx context.Context, renterID uuid.UUID) ([]Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Booking, error)
}

// Repo implements Repository on a pgx pool.
type Repo struct {
	pool *pgxpool.Pool
}

var _ Repository = (*Repo)(nil)

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const bookingColumns = `id, vehicle_id, renter_id, start_date, end_date, total_amount, status, created_at, updated_at`

// Create inserts a pending booking. The overlap check and the insert run
// in one transaction so two concurrent requests cannot both succeed.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Booking, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Booking{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Serialize concurrent bookings for the same vehicle.
	if _, err = tx.Exec(ctx, `SELECT id FROM vehicles WHERE id = $1 FOR UPDATE`, params.VehicleID); err != nil {
		return Booking{}, err
	}

	var conflicts int
	err = tx.QueryRow(ctx, `
		SELECT count(*) FROM bookings
		WHERE vehicle_id = $1
		  AND status = 'confirmed'
		  AND start_date < $3
		  AND end_date > $2`,
		params.VehicleID, params.StartDate, params.EndDate,
	).Scan(&conflicts)
	if err != nil {
		return Booking{}, err
	}
	if conflicts > 0 {
		err = ErrOverlap
		return Booking{}, err
	}

	var booking Booking
	err = tx.QueryRow(ctx, `
		INSERT INTO bookings (vehicle_id, renter_id, start_date, end_date, total_amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+bookingColumns,
		params.VehicleID, params.RenterID, params.StartDate, params.EndDate, params.TotalAmount,
	).Scan(
		&booking.ID, &booking.VehicleID, &booking.RenterID,
		&booking.StartDate, &booking.EndDate, &booking.TotalAmount,
		&booking.Status, &booking.CreatedAt, &booking.UpdatedAt,
	)
	if err != nil {
		return Booking{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return Booking{}, err
	}
	return booking, nil
}

// GetByID returns a booking by id.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Booking, error) {
	var booking Booking
	err := r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id).Scan(
		&booking.ID, &booking.VehicleID, &booking.RenterID,
		&booking.StartDate, &booking.EndDate, &booking.TotalAmount,
		&booking.Status, &booking.CreatedAt, &booking.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Booking{}, apperr.NotFound("booking not found")
	}
	if err != nil {
		return Booking{}, err
	}
	return booking, nil
}

// ListByRenter returns the caller's bookings, newest first.
func (r *Repo) ListByRenter(ctx context.Context, renterID uuid.UUID) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE renter_id = $1
		ORDER BY created_at DESC`, renterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]Booking, 0)
	for rows.Next() {
		var booking Booking
		if err := rows.Scan(
			&booking.ID, &booking.VehicleID, &booking.RenterID,
			&booking.StartDate, &booking.EndDate, &booking.TotalAmount,
			&booking.Status, &booking.CreatedAt, &booking.UpdatedAt,
		); err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

// UpdateStatus sets the booking status and bumps updated_at.
func (r *Repo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Booking, error) {
	var booking Booking
	err := r.pool.QueryRow(ctx, `
		UPDATE bookings SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+bookingColumns, id, status).Scan(
		&booking.ID, &booking.VehicleID, &booking.RenterID,
		&booking.StartDate, &booking.EndDate, &booking.TotalAmount,
		&booking.Status, &booking.CreatedAt, &booking.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Booking{}, apperr.NotFound("booking not found")
	}
	if err != nil {
		return Booking{}, err
	}
	return booking, nil
}
