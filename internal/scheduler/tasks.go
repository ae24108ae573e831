// Package scheduler enqueues and processes delayed background tasks with
// asynq.
package scheduler

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TypeBookingReminder is the task type for trip-start reminders.
const TypeBookingReminder = "booking:reminder"

// reminderLeadTime is how long before the trip start the reminder fires.
const reminderLeadTime = 24 * time.Hour

// BookingReminderPayload is the serialized task payload.
type BookingReminderPayload struct {
	BookingID    uuid.UUID `json:"bookingId"`
	Email        string    `json:"email"`
	VehicleTitle string    `json:"vehicleTitle"`
	StartDate    time.Time `json:"startDate"`
}

// NewBookingReminderTask builds the asynq task for a reminder.
func NewBookingReminderTask(payload BookingReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeBookingReminder, data), nil
}
