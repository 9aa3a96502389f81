// Package relay provides the outbound webhook relay bounded context.
// It delivers stage-transition notifications to user-configured URLs and
// routes enter/exit relays based on per-stage configuration.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"kiosk_checkin_backend/platform/apperr"
	"kiosk_checkin_backend/platform/config"
	"kiosk_checkin_backend/platform/logger"
)

// Event types for stage-transition relays.
const (
	EventEnter = "enter"
	EventExit  = "exit"
)

// DispatchRequest describes one outbound relay.
type DispatchRequest struct {
	WebhookURL string
	LeadID     string
	StageName  string
	EventType  string
	// CardData is an open map of extra context (model name, responsible,
	// room, ...). Its keys overwrite the standard payload keys on collision.
	CardData map[string]interface{}
}

// Result reports the downstream outcome. A non-2xx downstream status is a
// reported outcome, not a local failure.
type Result struct {
	Success  bool   `json:"success"`
	Status   int    `json:"status"`
	Response string `json:"response"`
}

// Dispatcher relays stage-transition payloads to configured URLs.
// One attempt per invocation; retry policy belongs to the redelivery queue.
type Dispatcher struct {
	http *http.Client
	log  *logger.Logger
}

// NewDispatcher creates a new relay dispatcher.
func NewDispatcher(cfg config.RelayConfig, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		http: &http.Client{Timeout: cfg.GetRelayTimeout()},
		log:  log,
	}
}

// Dispatch POSTs the relay payload as JSON to the configured URL. It captures
// the downstream status and raw body regardless of outcome. Only local
// failures (malformed URL, unreachable host, timeout) return an error.
func (d *Dispatcher) Dispatch(ctx context.Context, req DispatchRequest) (Result, error) {
	if req.EventType != EventEnter && req.EventType != EventExit {
		return Result{}, apperr.Validation("event_type must be enter or exit")
	}
	if strings.TrimSpace(req.WebhookURL) == "" {
		return Result{}, apperr.Validation("webhook_url is required")
	}

	body, err := json.Marshal(buildPayload(req, time.Now()))
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindInternal, "failed to encode relay payload", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return Result{}, apperr.Network("malformed relay URL", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := d.http.Do(httpReq)
	if err != nil {
		return Result{}, apperr.Network("failed to reach relay URL", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, _ := io.ReadAll(resp.Body)
	result := Result{
		Success:  resp.StatusCode >= 200 && resp.StatusCode < 300,
		Status:   resp.StatusCode,
		Response: strings.TrimSpace(string(respBody)),
	}

	d.log.RelayOutcome(req.WebhookURL, req.EventType, result.Status, result.Success)
	return result, nil
}

// buildPayload assembles the relay body. Standard keys first, card data
// merged last so caller-supplied keys win on collision.
func buildPayload(req DispatchRequest, now time.Time) map[string]interface{} {
	payload := map[string]interface{}{
		"event":      req.EventType,
		"lead_id":    req.LeadID,
		"stage_name": req.StageName,
		"timestamp":  now.UTC().Format(time.RFC3339),
	}
	for key, value := range req.CardData {
		payload[key] = value
	}
	return payload
}
