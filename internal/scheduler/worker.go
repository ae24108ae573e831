package scheduler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"advenrent_backend/internal/email"
	"advenrent_backend/platform/config"
	"advenrent_backend/platform/logger"
)

// Worker runs the asynq server and processes scheduled tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *logger.Logger
}

// NewWorker creates a worker that sends reminder emails via sender.
func NewWorker(cfg config.SchedulerConfig, sender email.Sender, log *logger.Logger) (*Worker, error) {
	opt, err := asynq.ParseRedisURI(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: cfg.GetAsynqConcurrency(),
		Queues:      map[string]int{cfg.GetAsynqQueueName(): 1},
	})

	w := &Worker{server: server, mux: asynq.NewServeMux(), log: log}
	w.mux.HandleFunc(TypeBookingReminder, w.handleBookingReminder(sender))
	return w, nil
}

// Run blocks processing tasks until Shutdown is called.
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

// Shutdown stops the server, waiting for in-flight tasks.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (w *Worker) handleBookingReminder(sender email.Sender) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload BookingReminderPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("decode reminder payload: %w", err)
		}

		msg := email.BookingReminderMessage(payload.Email, payload.VehicleTitle, payload.StartDate)
		if err := sender.Send(ctx, msg); err != nil {
			return fmt.Errorf("send reminder for booking %s: %w", payload.BookingID, err)
		}
		w.log.Info("booking reminder delivered", "booking_id", payload.BookingID, "email", payload.Email)
		return nil
	}
}
