// Package repository implements payment persistence on PostgreSQL.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Payment statuses.
const (
	StatusPending   = "pending"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Payment is the persistence model for a payment attempt.
type Payment struct {
	ID                  uuid.UUID
	BookingID           uuid.UUID
	Amount              float64
	StripeTransactionID string
	Status              string
	CreatedAt           time.Time
}

// Repository is the payments persistence boundary.
type Repository interface {
	Create(ctx context.Context, bookingID uuid.UUID, amount float64, stripeTransactionID string) (Payment, error)
	UpdateStatus(ctx context.Context, stripeTransactionID, status string) error
}

// Repo implements Repository on a pgx pool.
type Repo struct {
	pool *pgxpool.Pool
}

var _ Repository = (*Repo)(nil)

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create inserts a pending payment row tied to the gateway transaction.
func (r *Repo) Create(ctx context.Context, bookingID uuid.UUID, amount float64, stripeTransactionID string) (Payment, error) {
	var payment Payment
	err := r.pool.QueryRow(ctx, `
		INSERT INTO payments (booking_id, amount, stripe_transaction_id)
		VALUES ($1, $2, $3)
		RETURNING id, booking_id, amount, stripe_transaction_id, status, created_at`,
		bookingID, amount, stripeTransactionID,
	).Scan(
		&payment.ID, &payment.BookingID, &payment.Amount,
		&payment.StripeTransactionID, &payment.Status, &payment.CreatedAt,
	)
	if err != nil {
		return Payment{}, err
	}
	return payment, nil
}

// UpdateStatus moves a payment to succeeded or failed once the gateway
// settles it.
func (r *Repo) UpdateStatus(ctx context.Context, stripeTransactionID, status string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE payments SET status = $2 WHERE stripe_transaction_id = $1`,
		stripeTransactionID, status)
	return err
}
