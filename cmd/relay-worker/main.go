// The relay-worker binary consumes the relay redelivery queue. It owns the
// retry/backoff policy for relays the API process could not deliver; the
// relay dispatch itself stays single-attempt.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"kiosk_checkin_backend/internal/relay"
	"kiosk_checkin_backend/platform/config"
	"kiosk_checkin_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting relay worker", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher := relay.NewDispatcher(cfg, log)
	worker, err := relay.NewWorker(cfg, dispatcher, log)
	if err != nil {
		log.Error("failed to initialize relay worker", "error", err)
		panic("failed to initialize relay worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("relay worker stopped")
}
