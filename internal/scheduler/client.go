package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"advenrent_backend/platform/config"
	"advenrent_backend/platform/logger"
)

// Client enqueues delayed tasks.
type Client struct {
	client *asynq.Client
	queue  string
	log    *logger.Logger
}

// NewClient creates a scheduler client from application config.
func NewClient(cfg config.SchedulerConfig, log *logger.Logger) (*Client, error) {
	opt, err := asynq.ParseRedisURI(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Client{
		client: asynq.NewClient(opt),
		queue:  cfg.GetAsynqQueueName(),
		log:    log,
	}, nil
}

// ScheduleBookingReminder enqueues a reminder to fire 24 hours before the
// trip starts. Trips starting sooner than that get the reminder
// immediately.
func (c *Client) ScheduleBookingReminder(ctx context.Context, bookingID uuid.UUID, email, vehicleTitle string, startDate time.Time) error {
	task, err := NewBookingReminderTask(BookingReminderPayload{
		BookingID:    bookingID,
		Email:        email,
		VehicleTitle: vehicleTitle,
		StartDate:    startDate,
	})
	if err != nil {
		return err
	}

	fireAt := startDate.Add(-reminderLeadTime)
	opts := []asynq.Option{
		asynq.Queue(c.queue),
		asynq.MaxRetry(3),
		asynq.TaskID(fmt.Sprintf("%s:%s", TypeBookingReminder, bookingID)),
	}
	if fireAt.After(time.Now()) {
		opts = append(opts, asynq.ProcessAt(fireAt))
	}

	info, err := c.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue reminder: %w", err)
	}
	c.log.Info("booking reminder scheduled", "booking_id", bookingID, "task_id", info.ID, "fire_at", fireAt)
	return nil
}

// Close releases the underlying asynq client.
func (c *Client) Close() error {
	return c.client.Close()
}
