package panels

import (
	"context"
	"errors"
	"testing"

	"kiosk_checkin_backend/internal/events"
	"kiosk_checkin_backend/platform/apperr"
	"kiosk_checkin_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	panel     Panel
	panelErr  error
	createErr error
	created   []CreateCallParams
}

func (f *fakeStore) PanelByStageID(ctx context.Context, stageID string) (Panel, error) {
	if f.panelErr != nil {
		return Panel{}, f.panelErr
	}
	return f.panel, nil
}

func (f *fakeStore) CreateCall(ctx context.Context, params CreateCallParams) (Call, error) {
	if f.createErr != nil {
		return Call{}, f.createErr
	}
	f.created = append(f.created, params)
	return Call{
		ID:         uuid.New(),
		PanelID:    params.PanelID,
		LeadID:     params.LeadID,
		ModelName:  params.ModelName,
		ModelPhoto: params.ModelPhoto,
		Room:       params.Room,
		Status:     CallStatusCalling,
	}, nil
}

func newTestService(store Store) *Service {
	log := logger.New("development")
	return NewService(store, events.NewInMemoryBus(log), log)
}

func TestIngestCreatesCallWithCallingStatus(t *testing.T) {
	panelID := uuid.New()
	store := &fakeStore{panel: Panel{ID: panelID, Name: "P1", Room: "A1", BitrixStageID: "S1"}}
	svc := newTestService(store)

	call, err := svc.Ingest(context.Background(), StageEvent{
		LeadID:    "42",
		StageID:   "S1",
		ModelName: "Maria",
		Room:      "A1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if call.Status != CallStatusCalling {
		t.Fatalf("expected calling status, got %s", call.Status)
	}
	if call.PanelID != panelID || call.LeadID != "42" || call.ModelName != "Maria" || call.Room != "A1" {
		t.Fatalf("unexpected call %#v", call)
	}
	if len(store.created) != 1 {
		t.Fatalf("expected exactly one call row, got %d", len(store.created))
	}
}

func TestIngestNoPanelIsNotFoundAndCreatesNothing(t *testing.T) {
	store := &fakeStore{panelErr: ErrPanelNotFound}
	svc := newTestService(store)

	_, err := svc.Ingest(context.Background(), StageEvent{LeadID: "42", StageID: "S-unbound"})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not-found outcome, got %v", err)
	}
	if len(store.created) != 0 {
		t.Fatal("no call row may be created when no panel matches")
	}
}

func TestIngestInsertFailureIsFatalForEvent(t *testing.T) {
	store := &fakeStore{
		panel:     Panel{ID: uuid.New(), BitrixStageID: "S1"},
		createErr: errors.New("insert failed"),
	}
	svc := newTestService(store)

	_, err := svc.Ingest(context.Background(), StageEvent{LeadID: "42", StageID: "S1"})
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestIngestFallsBackToPanelRoom(t *testing.T) {
	store := &fakeStore{panel: Panel{ID: uuid.New(), Room: "B2", BitrixStageID: "S1"}}
	svc := newTestService(store)

	call, err := svc.Ingest(context.Background(), StageEvent{LeadID: "42", StageID: "S1", ModelName: "Maria"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if call.Room != "B2" {
		t.Fatalf("expected panel room fallback, got %s", call.Room)
	}
}

func TestIngestOmitsEmptyPhoto(t *testing.T) {
	store := &fakeStore{panel: Panel{ID: uuid.New(), BitrixStageID: "S1"}}
	svc := newTestService(store)

	if _, err := svc.Ingest(context.Background(), StageEvent{LeadID: "42", StageID: "S1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.created[0].ModelPhoto != nil {
		t.Fatal("empty photo should be stored as NULL")
	}
}
