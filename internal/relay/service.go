package relay

import (
	"context"
	"errors"
	"sync"

	"kiosk_checkin_backend/internal/events"
	"kiosk_checkin_backend/platform/apperr"
	"kiosk_checkin_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

// StageStore is the narrow persistence interface the service needs.
// Satisfied by *Repository.
type StageStore interface {
	StageByID(ctx context.Context, stageID string) (Stage, error)
}

// TransitionRelay is the outcome of one direction of a stage transition.
type TransitionRelay struct {
	StageName string `json:"stage_name"`
	EventType string `json:"event_type"`
	Result    Result `json:"result"`
	// Redelivery is true when a locally failed relay was handed to the
	// redelivery queue.
	Redelivery bool `json:"redelivery,omitempty"`
}

// Service routes relays: direct single dispatches and per-stage
// enter/exit routing for full transitions.
type Service struct {
	store      StageStore
	dispatcher *Dispatcher
	redelivery RedeliveryEnqueuer
	eventBus   events.Bus
	log        *logger.Logger
}

// NewService creates a new relay service. redelivery may be nil when no
// queue is configured.
func NewService(store StageStore, dispatcher *Dispatcher, redelivery RedeliveryEnqueuer, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store:      store,
		dispatcher: dispatcher,
		redelivery: redelivery,
		eventBus:   eventBus,
		log:        log,
	}
}

// Relay performs one direct dispatch and publishes the outcome.
func (s *Service) Relay(ctx context.Context, req DispatchRequest) (Result, error) {
	result, err := s.dispatcher.Dispatch(ctx, req)
	if err != nil {
		return Result{}, err
	}

	s.eventBus.Publish(ctx, events.RelayDispatched{
		BaseEvent:  events.NewBaseEvent(),
		WebhookURL: req.WebhookURL,
		LeadID:     req.LeadID,
		StageName:  req.StageName,
		EventType:  req.EventType,
		Status:     result.Status,
		Success:    result.Success,
	})

	return result, nil
}

// DispatchTransition fires the exit relay for the stage being left and the
// enter relay for the stage being entered, according to each stage's
// configuration. The two directions are independent and run concurrently.
// Relays that fail locally are handed to the redelivery queue when one is
// configured; a failed direction never blocks the other.
func (s *Service) DispatchTransition(ctx context.Context, leadID, fromStageID, toStageID string, card map[string]interface{}) ([]TransitionRelay, error) {
	type direction struct {
		stageID   string
		eventType string
	}

	directions := make([]direction, 0, 2)
	if fromStageID != "" {
		directions = append(directions, direction{stageID: fromStageID, eventType: EventExit})
	}
	if toStageID != "" {
		directions = append(directions, direction{stageID: toStageID, eventType: EventEnter})
	}
	if len(directions) == 0 {
		return nil, apperr.Validation("a transition needs at least one stage id")
	}

	var mu sync.Mutex
	var relays []TransitionRelay

	g, gctx := errgroup.WithContext(ctx)
	for _, dir := range directions {
		dir := dir
		g.Go(func() error {
			relay, ok, err := s.dispatchDirection(gctx, leadID, dir.stageID, dir.eventType, card)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			mu.Lock()
			relays = append(relays, relay)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return relays, nil
}

// dispatchDirection relays one direction when the stage's configuration asks
// for it. Returns ok=false when the stage has no webhook for this direction.
func (s *Service) dispatchDirection(ctx context.Context, leadID, stageID, eventType string, card map[string]interface{}) (TransitionRelay, bool, error) {
	stage, err := s.store.StageByID(ctx, stageID)
	if err != nil {
		if errors.Is(err, ErrStageNotFound) {
			// Unknown stages simply have no relay configured.
			return TransitionRelay{}, false, nil
		}
		return TransitionRelay{}, false, apperr.Wrap(apperr.KindInternal, "failed to load stage configuration", err)
	}

	if stage.WebhookURL == nil || *stage.WebhookURL == "" {
		return TransitionRelay{}, false, nil
	}
	if eventType == EventEnter && !stage.WebhookOnEnter {
		return TransitionRelay{}, false, nil
	}
	if eventType == EventExit && !stage.WebhookOnExit {
		return TransitionRelay{}, false, nil
	}

	req := DispatchRequest{
		WebhookURL: *stage.WebhookURL,
		LeadID:     leadID,
		StageName:  stage.Name,
		EventType:  eventType,
		CardData:   card,
	}

	result, err := s.Relay(ctx, req)
	if err != nil {
		if !apperr.Is(err, apperr.KindNetwork) {
			return TransitionRelay{}, false, err
		}

		// Local delivery failure: hand off to the redelivery supervisor
		// instead of failing the transition.
		redelivered := false
		if s.redelivery != nil {
			enqueueErr := s.redelivery.EnqueueRedelivery(ctx, RedeliverPayload{
				WebhookURL: req.WebhookURL,
				LeadID:     req.LeadID,
				StageName:  req.StageName,
				EventType:  req.EventType,
				CardData:   req.CardData,
			})
			if enqueueErr != nil {
				s.log.Error("failed to enqueue relay redelivery", "url", req.WebhookURL, "error", enqueueErr)
			} else {
				redelivered = true
			}
		}
		s.log.Warn("relay delivery failed locally", "url", req.WebhookURL, "event", eventType, "error", err, "redelivery", redelivered)

		return TransitionRelay{
			StageName:  stage.Name,
			EventType:  eventType,
			Result:     Result{Success: false},
			Redelivery: redelivered,
		}, true, nil
	}

	return TransitionRelay{StageName: stage.Name, EventType: eventType, Result: result}, true, nil
}
