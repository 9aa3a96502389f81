package relay

import (
	"context"
	"fmt"

	"kiosk_checkin_backend/platform/apperr"
	"kiosk_checkin_backend/platform/config"
	"kiosk_checkin_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Worker consumes the redelivery queue. It re-enters the same
// single-attempt Dispatch; asynq owns the retry/backoff between attempts.
type Worker struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	dispatcher *Dispatcher
	log        *logger.Logger
}

// NewWorker creates the redelivery worker.
func NewWorker(cfg config.SchedulerConfig, dispatcher *Dispatcher, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:     server,
		mux:        mux,
		dispatcher: dispatcher,
		log:        log,
	}

	mux.HandleFunc(TaskRelayRedeliver, w.handleRedeliver)

	return w, nil
}

func (w *Worker) handleRedeliver(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseRelayRedeliverPayload(task)
	if err != nil {
		return err
	}

	result, err := w.dispatcher.Dispatch(ctx, DispatchRequest{
		WebhookURL: payload.WebhookURL,
		LeadID:     payload.LeadID,
		StageName:  payload.StageName,
		EventType:  payload.EventType,
		CardData:   payload.CardData,
	})
	if err != nil {
		if apperr.Is(err, apperr.KindNetwork) {
			// Still unreachable; let asynq retry with backoff.
			return err
		}
		// Anything else will not improve on retry.
		w.log.Error("relay redelivery dropped", "url", payload.WebhookURL, "error", err)
		return nil
	}

	if !result.Success {
		// The downstream answered; a non-2xx status is a reported outcome,
		// not grounds for another attempt.
		w.log.Warn("relay redelivery rejected downstream", "url", payload.WebhookURL, "status", result.Status)
	}
	return nil
}

// Run starts the worker until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("relay worker stopped", "error", err)
	}
}
