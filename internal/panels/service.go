package panels

import (
	"context"
	"errors"
	"fmt"

	"kiosk_checkin_backend/internal/events"
	"kiosk_checkin_backend/platform/apperr"
	"kiosk_checkin_backend/platform/logger"
)

// Store is the narrow persistence interface the service needs.
// Satisfied by *Repository.
type Store interface {
	PanelByStageID(ctx context.Context, stageID string) (Panel, error)
	CreateCall(ctx context.Context, params CreateCallParams) (Call, error)
}

// StageEvent is one inbound CRM stage-transition notification.
type StageEvent struct {
	LeadID     string
	StageID    string
	ModelName  string
	ModelPhoto string
	Room       string
}

// Service ingests stage events. Each invocation is stateless and
// independent; repeated events for the same stage entry each create their
// own call row.
type Service struct {
	store    Store
	eventBus events.Bus
	log      *logger.Logger
}

// NewService creates a new stage-event ingestion service.
func NewService(store Store, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, eventBus: eventBus, log: log}
}

// Ingest resolves the panel owning the event's stage and creates one call
// row. A stage with no panel is a normal terminal outcome reported as a
// not-found error, never retried. An insert failure is fatal for the event:
// either the call row exists afterwards or nothing was written.
func (s *Service) Ingest(ctx context.Context, event StageEvent) (Call, error) {
	panel, err := s.store.PanelByStageID(ctx, event.StageID)
	if err != nil {
		if errors.Is(err, ErrPanelNotFound) {
			s.eventBus.Publish(ctx, events.StageEventDiscarded{
				BaseEvent: events.NewBaseEvent(),
				LeadID:    event.LeadID,
				StageID:   event.StageID,
			})
			return Call{}, apperr.NotFound(fmt.Sprintf("no panel bound to stage %s", event.StageID))
		}
		s.log.DatabaseError("panels.resolve", err)
		return Call{}, apperr.Wrap(apperr.KindInternal, "failed to resolve panel", err)
	}

	room := event.Room
	if room == "" {
		room = panel.Room
	}

	var photo *string
	if event.ModelPhoto != "" {
		photo = &event.ModelPhoto
	}

	call, err := s.store.CreateCall(ctx, CreateCallParams{
		PanelID:    panel.ID,
		LeadID:     event.LeadID,
		ModelName:  event.ModelName,
		ModelPhoto: photo,
		Room:       room,
	})
	if err != nil {
		s.log.DatabaseError("panels.create_call", err)
		return Call{}, apperr.Wrap(apperr.KindInternal, "failed to create call", err)
	}

	s.eventBus.Publish(ctx, events.CallCreated{
		BaseEvent: events.NewBaseEvent(),
		CallID:    call.ID,
		PanelID:   call.PanelID,
		LeadID:    call.LeadID,
		ModelName: call.ModelName,
		Room:      call.Room,
	})

	s.log.Info("call created", "call_id", call.ID, "panel_id", call.PanelID, "lead_id", call.LeadID)
	return call, nil
}
