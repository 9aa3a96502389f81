// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"kiosk_checkin_backend/platform/events"
	"kiosk_checkin_backend/platform/logger"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Panel Domain Events
// =============================================================================

// CallCreated is published when a stage-entry event resolves to a panel and
// a call row is created.
type CallCreated struct {
	BaseEvent
	CallID    uuid.UUID `json:"callId"`
	PanelID   uuid.UUID `json:"panelId"`
	LeadID    string    `json:"leadId"`
	ModelName string    `json:"modelName"`
	Room      string    `json:"room"`
}

func (e CallCreated) EventName() string { return "panels.call.created" }

// StageEventDiscarded is published when an inbound stage event matched no
// panel. A normal outcome, recorded for observability only.
type StageEventDiscarded struct {
	BaseEvent
	LeadID  string `json:"leadId"`
	StageID string `json:"stageId"`
}

func (e StageEventDiscarded) EventName() string { return "panels.stage_event.discarded" }

// =============================================================================
// Relay Domain Events
// =============================================================================

// RelayDispatched is published after an outbound webhook relay attempt,
// successful or not. Success reflects the downstream status code.
type RelayDispatched struct {
	BaseEvent
	WebhookURL string `json:"webhookUrl"`
	LeadID     string `json:"leadId"`
	StageName  string `json:"stageName"`
	EventType  string `json:"eventType"`
	Status     int    `json:"status"`
	Success    bool   `json:"success"`
}

func (e RelayDispatched) EventName() string { return "relay.dispatched" }

// =============================================================================
// Check-In Domain Events
// =============================================================================

// LeadCheckedIn is published when a check-in record is created or refreshed.
type LeadCheckedIn struct {
	BaseEvent
	CheckInID   uuid.UUID `json:"checkInId"`
	LeadID      string    `json:"leadId"`
	ModelName   string    `json:"modelName"`
	CheckedInAt time.Time `json:"checkedInAt"`
	Refreshed   bool      `json:"refreshed"`
}

func (e LeadCheckedIn) EventName() string { return "checkin.lead.checked_in" }
