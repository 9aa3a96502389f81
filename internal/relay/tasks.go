package relay

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskRelayRedeliver is the task type for relays that failed locally and were
// handed to the redelivery queue.
const TaskRelayRedeliver = "relay.redeliver"

// RedeliverPayload carries everything needed to repeat a relay attempt.
type RedeliverPayload struct {
	WebhookURL string                 `json:"webhookUrl"`
	LeadID     string                 `json:"leadId"`
	StageName  string                 `json:"stageName"`
	EventType  string                 `json:"eventType"`
	CardData   map[string]interface{} `json:"cardData,omitempty"`
}

// NewRelayRedeliverTask builds an asynq task from a redelivery payload.
func NewRelayRedeliverTask(payload RedeliverPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRelayRedeliver, data), nil
}

// ParseRelayRedeliverPayload decodes a redelivery task payload.
func ParseRelayRedeliverPayload(task *asynq.Task) (RedeliverPayload, error) {
	var payload RedeliverPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RedeliverPayload{}, err
	}
	return payload, nil
}
