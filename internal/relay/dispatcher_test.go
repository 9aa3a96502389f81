package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kiosk_checkin_backend/platform/apperr"
	"kiosk_checkin_backend/platform/logger"
)

type testRelayConfig struct{}

func (testRelayConfig) GetRelayTimeout() time.Duration { return 5 * time.Second }

func newTestDispatcher() *Dispatcher {
	return NewDispatcher(testRelayConfig{}, logger.New("development"))
}

func TestDispatchPayloadContainsStandardKeys(t *testing.T) {
	var payload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON body, got %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result, err := newTestDispatcher().Dispatch(context.Background(), DispatchRequest{
		WebhookURL: srv.URL,
		LeadID:     "42",
		StageName:  "Atendimento",
		EventType:  EventEnter,
		CardData:   map[string]interface{}{"model_name": "Maria", "room": "A1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.Status != http.StatusOK {
		t.Fatalf("unexpected result %#v", result)
	}

	if payload["event"] != EventEnter || payload["lead_id"] != "42" || payload["stage_name"] != "Atendimento" {
		t.Fatalf("missing standard keys: %#v", payload)
	}
	if payload["model_name"] != "Maria" || payload["room"] != "A1" {
		t.Fatalf("card data not merged: %#v", payload)
	}

	ts, ok := payload["timestamp"].(string)
	if !ok {
		t.Fatalf("timestamp missing: %#v", payload)
	}
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Fatalf("timestamp not ISO-8601: %v", err)
	}
}

func TestDispatchCardDataOverridesStandardKeys(t *testing.T) {
	payload := buildPayload(DispatchRequest{
		LeadID:    "42",
		EventType: EventExit,
		CardData:  map[string]interface{}{"lead_id": "overridden"},
	}, time.Now())

	if payload["lead_id"] != "overridden" {
		t.Fatalf("card data must win on collision, got %v", payload["lead_id"])
	}
}

func TestDispatchNonOKDownstreamIsReportedNotThrown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	result, err := newTestDispatcher().Dispatch(context.Background(), DispatchRequest{
		WebhookURL: srv.URL,
		LeadID:     "42",
		EventType:  EventExit,
	})
	if err != nil {
		t.Fatalf("non-2xx downstream must not be a local failure: %v", err)
	}
	if result.Success {
		t.Fatal("expected success=false")
	}
	if result.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", result.Status)
	}
	if result.Response == "" {
		t.Fatal("raw response body should be captured")
	}
}

func TestDispatchUnreachableURLIsNetworkError(t *testing.T) {
	_, err := newTestDispatcher().Dispatch(context.Background(), DispatchRequest{
		WebhookURL: "http://127.0.0.1:1",
		LeadID:     "42",
		EventType:  EventEnter,
	})
	if !apperr.Is(err, apperr.KindNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestDispatchRejectsUnknownEventType(t *testing.T) {
	_, err := newTestDispatcher().Dispatch(context.Background(), DispatchRequest{
		WebhookURL: "http://example.invalid",
		LeadID:     "42",
		EventType:  "moved",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
