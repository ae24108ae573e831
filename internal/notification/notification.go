// Package notification turns domain events into outbound email.
package notification

import (
	"context"
	"fmt"

	"advenrent_backend/internal/email"
	"advenrent_backend/platform/events"
	"advenrent_backend/platform/logger"
)

// Notifier subscribes to domain events and emails the affected users.
type Notifier struct {
	sender email.Sender
	log    *logger.Logger
}

func New(sender email.Sender, log *logger.Logger) *Notifier {
	return &Notifier{sender: sender, log: log}
}

// Subscribe registers all event handlers on the bus.
func (n *Notifier) Subscribe(bus events.Bus) {
	bus.Subscribe(events.UserRegistered{}.EventName(), events.HandlerFunc(n.onUserRegistered))
	bus.Subscribe(events.BookingCreated{}.EventName(), events.HandlerFunc(n.onBookingCreated))
	bus.Subscribe(events.BookingCancelled{}.EventName(), events.HandlerFunc(n.onBookingCancelled))
}

func (n *Notifier) onUserRegistered(ctx context.Context, event events.Event) error {
	e, ok := event.(events.UserRegistered)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	return n.sender.Send(ctx, email.WelcomeMessage(e.Email, e.FullName))
}

func (n *Notifier) onBookingCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(events.BookingCreated)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	if e.RenterEmail == "" {
		n.log.Warn("booking created without renter email, skipping confirmation", "booking_id", e.BookingID)
		return nil
	}
	return n.sender.Send(ctx, email.BookingConfirmationMessage(e.RenterEmail, e.VehicleTitle, e.StartDate, e.EndDate, e.TotalAmount))
}

func (n *Notifier) onBookingCancelled(ctx context.Context, event events.Event) error {
	e, ok := event.(events.BookingCancelled)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	if e.RenterEmail == "" {
		return nil
	}
	return n.sender.Send(ctx, email.BookingCancellationMessage(e.RenterEmail))
}
