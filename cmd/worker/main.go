// Command worker processes scheduled background tasks: booking reminders.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"advenrent_backend/internal/email"
	"advenrent_backend/internal/scheduler"
	"advenrent_backend/platform/config"
	"advenrent_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Env)

	if cfg.GetRedisURL() == "" {
		log.Error("REDIS_URL is required for the worker")
		os.Exit(1)
	}

	var sender email.Sender = email.NewNoopSender(log)
	if cfg.GetEmailEnabled() {
		smtpSender, err := email.NewSMTPSender(cfg, log)
		if err != nil {
			log.Error("init mail sender failed", "error", err)
			os.Exit(1)
		}
		sender = smtpSender
	}

	worker, err := scheduler.NewWorker(cfg, sender, log)
	if err != nil {
		log.Error("init worker failed", "error", err)
		os.Exit(1)
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Info("shutting down worker")
		worker.Shutdown()
	}()

	log.Info("worker started", "queue", cfg.GetAsynqQueueName(), "concurrency", cfg.GetAsynqConcurrency())
	if err := worker.Run(); err != nil {
		log.Error("worker exited with error", "error", err)
		os.Exit(1)
	}
}
