// Package provider abstracts the payment gateway so the service layer and
// tests do not depend on Stripe directly.
package provider

import "context"

// Intent is a created payment intent. ClientSecret is handed to the
// client app to confirm the payment.
type Intent struct {
	ID           string
	ClientSecret string
}

// Metadata is attached to the intent for later reconciliation.
type Metadata struct {
	BookingID string
	UserID    string
}

// Provider creates payment intents with an external gateway.
type Provider interface {
	// CreateIntent creates an intent for amountCents in USD.
	CreateIntent(ctx context.Context, amountCents int64, meta Metadata) (Intent, error)
}
