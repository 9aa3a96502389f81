package crm

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

type fakeStore struct {
	config    WebhookConfig
	configErr error
	mappings  map[string]string
}

func (f *fakeStore) ActiveWebhookConfig(ctx context.Context) (WebhookConfig, error) {
	if f.configErr != nil {
		return WebhookConfig{}, f.configErr
	}
	return f.config, nil
}

func (f *fakeStore) FieldMapping(ctx context.Context, fieldKey string) (string, error) {
	return f.mappings[fieldKey], nil
}

type testCRMConfig struct{}

func (testCRMConfig) GetCRMTimeout() time.Duration    { return 5 * time.Second }
func (testCRMConfig) GetCRMDefaultPhotoField() string { return "UF_CRM_DEFAULT_PHOTO" }

func newTestClient(store ConfigStore) *Client {
	return NewClient(store, testCRMConfig{}, logger.New("development"))
}

func TestCreateLeadPostsFormEncodedFields(t *testing.T) {
	var gotContentType string
	var gotFields Fields

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/crm.lead.add.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if err := json.Unmarshal([]byte(r.PostFormValue("fields")), &gotFields); err != nil {
			t.Errorf("decode fields param: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"result": 42})
	}))
	defer srv.Close()

	client := newTestClient(&fakeStore{})
	leadID, err := client.CreateLead(context.Background(), srv.URL, LeadFieldParams{Name: "Ana", Phone: "11999998888"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if leadID != "42" {
		t.Fatalf("expected lead id 42, got %s", leadID)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Fatalf("expected form encoding, got %s", gotContentType)
	}
	if gotFields["NAME"] != "Ana" {
		t.Fatalf("expected NAME in fields param, got %#v", gotFields)
	}
}

func TestCreateLeadNonOKStatusIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(&fakeStore{})
	_, err := client.CreateLead(context.Background(), srv.URL, LeadFieldParams{Name: "Ana"})
	if !apperr.Is(err, apperr.KindNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestCreateLeadMissingResultIsRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"error": "ACCESS_DENIED"})
	}))
	defer srv.Close()

	client := newTestClient(&fakeStore{})
	_, err := client.CreateLead(context.Background(), srv.URL, LeadFieldParams{Name: "Ana"})
	if !apperr.Is(err, apperr.KindRemote) {
		t.Fatalf("expected remote error, got %v", err)
	}
}

func TestCreateLeadUnreachableHostIsNetworkError(t *testing.T) {
	client := newTestClient(&fakeStore{})
	_, err := client.CreateLead(context.Background(), "http://127.0.0.1:1", LeadFieldParams{Name: "Ana"})
	if !apperr.Is(err, apperr.KindNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestUpdateLeadRequiresLeadID(t *testing.T) {
	client := newTestClient(&fakeStore{})
	_, err := client.UpdateLead(context.Background(), map[string]interface{}{"name": "Ana"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateLeadWithoutActiveConfigIsConfigError(t *testing.T) {
	client := newTestClient(&fakeStore{configErr: ErrNoActiveConfig})
	_, err := client.UpdateLead(context.Background(), map[string]interface{}{"lead_id": "10"})
	if !apperr.Is(err, apperr.KindConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestUpdateLeadMapsKnownFieldsAndPassesThroughRest(t *testing.T) {
	var gotBody struct {
		ID     string `json:"id"`
		Fields Fields `json:"fields"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/crm.lead.update.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON body, got %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"result": true})
	}))
	defer srv.Close()

	store := &fakeStore{
		config:   WebhookConfig{BaseURL: srv.URL, IsActive: true},
		mappings: map[string]string{"photo": "UF_CRM_MAPPED_PHOTO"},
	}

	client := newTestClient(store)
	result, err := client.UpdateLead(context.Background(), map[string]interface{}{
		"lead_id":     "10",
		"name":        "Maria",
		"responsible": "3",
		"photo":       "https://cdn.example/photo.jpg",
		"UF_CRM_9999": "passthrough",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.LeadID != "10" {
		t.Fatalf("unexpected result %#v", result)
	}

	if gotBody.ID != "10" {
		t.Fatalf("expected id 10 in envelope, got %s", gotBody.ID)
	}
	if gotBody.Fields["NAME"] != "Maria" || gotBody.Fields["TITLE"] != "Maria" {
		t.Fatalf("name should map to NAME and TITLE, got %#v", gotBody.Fields)
	}
	if gotBody.Fields["ASSIGNED_BY_ID"] != "3" {
		t.Fatalf("responsible should map to ASSIGNED_BY_ID, got %#v", gotBody.Fields)
	}
	if gotBody.Fields["UF_CRM_MAPPED_PHOTO"] != "https://cdn.example/photo.jpg" {
		t.Fatalf("photo should use the mapped field code, got %#v", gotBody.Fields)
	}
	if gotBody.Fields["UF_CRM_9999"] != "passthrough" {
		t.Fatalf("unknown keys should pass through verbatim, got %#v", gotBody.Fields)
	}
	if _, present := gotBody.Fields["lead_id"]; present {
		t.Fatal("lead_id must not appear in the field map")
	}
}

func TestUpdateLeadPhotoFallsBackToDefaultCode(t *testing.T) {
	var gotFields Fields
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Fields Fields `json:"fields"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotFields = body.Fields
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"result": true})
	}))
	defer srv.Close()

	client := newTestClient(&fakeStore{config: WebhookConfig{BaseURL: srv.URL, IsActive: true}})
	_, err := client.UpdateLead(context.Background(), map[string]interface{}{
		"lead_id": "10",
		"photo":   "key.jpg",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotFields["UF_CRM_DEFAULT_PHOTO"] != "key.jpg" {
		t.Fatalf("expected default photo field code, got %#v", gotFields)
	}
}

func TestUpdateLeadNonOKStatusIsRemoteErrorWithBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"NOT_FOUND"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	client := newTestClient(&fakeStore{config: WebhookConfig{BaseURL: srv.URL, IsActive: true}})
	_, err := client.UpdateLead(context.Background(), map[string]interface{}{"lead_id": "10"})
	if !apperr.Is(err, apperr.KindRemote) {
		t.Fatalf("expected remote error, got %v", err)
	}

	domainErr := err.(*apperr.Error)
	if domainErr.Details == nil {
		t.Fatal("remote error should surface the raw CRM response body")
	}
}

func TestExtractResultShapes(t *testing.T) {
	if id, ok := extractResult([]byte(`{"result": 42}`)); !ok || id != "42" {
		t.Fatalf("numeric result: got %q %v", id, ok)
	}
	if id, ok := extractResult([]byte(`{"result": "42"}`)); !ok || id != "42" {
		t.Fatalf("string result: got %q %v", id, ok)
	}
	if id, ok := extractResult([]byte(`{"result": true}`)); !ok || id != "true" {
		t.Fatalf("boolean result: got %q %v", id, ok)
	}
	if _, ok := extractResult([]byte(`{"error": "x"}`)); ok {
		t.Fatal("missing result must not be accepted")
	}
	if _, ok := extractResult([]byte(`not json`)); ok {
		t.Fatal("malformed body must not be accepted")
	}
}

// Guards against the form parameter being double-encoded.
func TestCreateLeadFieldsParamIsValidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := r.PostFormValue("fields")
		var decoded map[string]interface{}
		if err := json.Unmarshal([]byte(body), &decoded); err != nil {
			t.Errorf("fields param is not valid JSON: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"result": 1})
	}))
	defer srv.Close()

	client := newTestClient(&fakeStore{})
	if _, err := client.CreateLead(context.Background(), srv.URL, LeadFieldParams{Name: "Ana"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
