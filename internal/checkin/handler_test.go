package checkin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kiosk_checkin_backend/internal/crm"
	"kiosk_checkin_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

func newTestRouter(service *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	handler := NewHandler(service, validator.New())
	engine.POST("/api/v1/check-ins", handler.HandleCheckIn)
	engine.POST("/api/v1/check-ins/resolve", handler.HandleResolve)
	engine.GET("/api/v1/check-ins/fields", handler.HandleListFields)
	return engine
}

func postJSON(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleCheckInSuccess(t *testing.T) {
	store := &fakeStore{}
	router := newTestRouter(newTestService(store, &fakeConfigStore{}, &fakeSyncer{}, nil))

	rec := postJSON(t, router, "/api/v1/check-ins", `{"lead_id":"42","name":"Ana","model_name":"Maria"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp CheckInResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.LeadID != "42" || resp.CheckIn.ModelName != "Maria" {
		t.Fatalf("unexpected response %#v", resp)
	}
}

func TestHandleCheckInConflictIs409(t *testing.T) {
	store := &fakeStore{}
	if _, err := store.CreateCheckIn(context.Background(), CreateCheckInParams{LeadID: "42", LeadName: "Ana", ModelName: "Maria"}); err != nil {
		t.Fatal(err)
	}
	router := newTestRouter(newTestService(store, &fakeConfigStore{}, &fakeSyncer{}, nil))

	rec := postJSON(t, router, "/api/v1/check-ins", `{"lead_id":"42","name":"Ana","model_name":"Joana"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Error   string  `json:"error"`
		Details CheckIn `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Details.ModelName != "Maria" || resp.Details.LeadID != "42" {
		t.Fatalf("conflict body must carry the existing check-in, got %#v", resp.Details)
	}
}

func TestHandleCheckInMissingFieldsIs400(t *testing.T) {
	router := newTestRouter(newTestService(&fakeStore{}, &fakeConfigStore{}, &fakeSyncer{}, nil))

	rec := postJSON(t, router, "/api/v1/check-ins", `{"name":"Ana"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing model_name, got %d", rec.Code)
	}
}

func TestHandleResolveNewModel(t *testing.T) {
	store := &fakeStore{}
	if _, err := store.CreateCheckIn(context.Background(), CreateCheckInParams{LeadID: "42", LeadName: "Ana", ModelName: "Maria"}); err != nil {
		t.Fatal(err)
	}
	router := newTestRouter(newTestService(store, &fakeConfigStore{}, &fakeSyncer{}, nil))

	rec := postJSON(t, router, "/api/v1/check-ins/resolve", `{"lead_id":"42","decision":"new-model","new_model_name":"Joana"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp CheckInResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.CheckIn.ModelName != "Joana" {
		t.Fatalf("unexpected resolved check-in %#v", resp.CheckIn)
	}
	if len(store.checkIns) != 2 {
		t.Fatalf("expected a second row, got %d", len(store.checkIns))
	}
}

func TestHandleListFields(t *testing.T) {
	configs := &fakeConfigStore{fields: []crm.CustomFieldDefinition{
		{FieldKey: "instagram", FieldLabel: "Instagram", FieldType: "text", ShowOnCheckin: true},
	}}
	router := newTestRouter(newTestService(&fakeStore{}, configs, &fakeSyncer{}, nil))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/check-ins/fields", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Fields []crm.CustomFieldDefinition `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Fields) != 1 || resp.Fields[0].FieldKey != "instagram" {
		t.Fatalf("unexpected fields %#v", resp.Fields)
	}
}

func TestHandleResolveRejectsUnknownDecision(t *testing.T) {
	router := newTestRouter(newTestService(&fakeStore{}, &fakeConfigStore{}, &fakeSyncer{}, nil))

	rec := postJSON(t, router, "/api/v1/check-ins/resolve", `{"lead_id":"42","decision":"overwrite"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
