package panels

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kiosk_checkin_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func newTestRouter(store Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	handler := NewHandler(newTestService(store), validator.New())
	engine.POST("/api/v1/stage-events", handler.HandleStageEvent)
	return engine
}

func TestHandleStageEventCreatesCall(t *testing.T) {
	panelID := uuid.New()
	router := newTestRouter(&fakeStore{panel: Panel{ID: panelID, Room: "A1", BitrixStageID: "S1"}})

	body := `{"lead_id":"42","stage_id":"S1","model_name":"Maria","room":"A1"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stage-events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp StageEventResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Fatal("expected success flag")
	}
	if resp.Call.PanelID != panelID || resp.Call.LeadID != "42" || resp.Call.ModelName != "Maria" {
		t.Fatalf("unexpected call %#v", resp.Call)
	}
	if resp.Call.Status != CallStatusCalling {
		t.Fatalf("expected calling status, got %s", resp.Call.Status)
	}
}

func TestHandleStageEventNoPanelIs404(t *testing.T) {
	router := newTestRouter(&fakeStore{panelErr: ErrPanelNotFound})

	body := `{"lead_id":"42","stage_id":"S1"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stage-events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := resp["error"]; !ok {
		t.Fatal("expected structured error body")
	}
}

func TestHandleStageEventMissingFieldsIs400(t *testing.T) {
	router := newTestRouter(&fakeStore{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stage-events", strings.NewReader(`{"lead_id":"42"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing stage_id, got %d", rec.Code)
	}
}
