package relay

import (
	"context"
	"crypto/tls"
	"fmt"

	"kiosk_checkin_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// maxRedeliveries bounds how often the queue retries one relay.
const maxRedeliveries = 5

// RedeliveryQueue hands failed relays to the asynq-backed redelivery
// supervisor. The dispatch path itself stays single-attempt; this queue is
// the external owner of retry/backoff policy.
type RedeliveryQueue struct {
	client *asynq.Client
	queue  string
}

// RedeliveryEnqueuer is the narrow interface the relay service uses.
// A nil *RedeliveryQueue is a valid no-op implementation.
type RedeliveryEnqueuer interface {
	EnqueueRedelivery(ctx context.Context, payload RedeliverPayload) error
}

// NewRedeliveryQueue creates the redelivery client, or an error when Redis
// is not configured.
func NewRedeliveryQueue(cfg config.SchedulerConfig) (*RedeliveryQueue, error) {
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

	return &RedeliveryQueue{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

// Close releases the underlying Redis connection.
func (q *RedeliveryQueue) Close() error {
	if q == nil || q.client == nil {
		return nil
	}
	return q.client.Close()
}

// EnqueueRedelivery schedules a failed relay for redelivery. asynq owns the
// backoff between attempts.
func (q *RedeliveryQueue) EnqueueRedelivery(ctx context.Context, payload RedeliverPayload) error {
	if q == nil || q.client == nil {
		return nil
	}

	task, err := NewRelayRedeliverTask(payload)
	if err != nil {
		return err
	}

	_, err = q.client.EnqueueContext(ctx, task, asynq.Queue(q.queue), asynq.MaxRetry(maxRedeliveries))
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
