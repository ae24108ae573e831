package email

import (
	"fmt"
	"time"
)

// WelcomeMessage greets a newly registered user.
func WelcomeMessage(to, fullName string) Message {
	return Message{
		To:      to,
		Subject: "Welcome to Advenrent",
		TextBody: fmt.Sprintf(
			"Hi %s,\n\nYour account is ready. Browse vehicles near you and book your next adventure.\n\nThe Advenrent team\n",
			fullName),
	}
}

// BookingConfirmationMessage confirms a new booking to the renter.
func BookingConfirmationMessage(to, vehicleTitle string, start, end time.Time, total float64) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Booking confirmed: %s", vehicleTitle),
		TextBody: fmt.Sprintf(
			"Your booking for %s is confirmed.\n\nDates: %s to %s\nTotal: $%.2f\n\nSee you out there!\n",
			vehicleTitle, start.Format("Jan 2, 2006"), end.Format("Jan 2, 2006"), total),
	}
}

// BookingCancellationMessage acknowledges a cancellation.
func BookingCancellationMessage(to string) Message {
	return Message{
		To:       to,
		Subject:  "Booking cancelled",
		TextBody: "Your booking has been cancelled. If this wasn't you, contact support.\n",
	}
}

// BookingReminderMessage reminds the renter their trip starts soon.
func BookingReminderMessage(to, vehicleTitle string, start time.Time) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Your trip with %s starts tomorrow", vehicleTitle),
		TextBody: fmt.Sprintf(
			"Reminder: your booking for %s starts on %s. Safe riding!\n",
			vehicleTitle, start.Format("Jan 2, 2006")),
	}
}
