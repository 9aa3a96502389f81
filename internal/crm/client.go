package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"kiosk_checkin_backend/platform/apperr"
	"kiosk_checkin_backend/platform/config"
	"kiosk_checkin_backend/platform/logger"
)

// photoFieldKey is the logical key resolved through the field-mapping table.
const photoFieldKey = "photo"

// ConfigStore is the narrow persistence interface the client needs.
// Satisfied by *Repository.
type ConfigStore interface {
	ActiveWebhookConfig(ctx context.Context) (WebhookConfig, error)
	FieldMapping(ctx context.Context, fieldKey string) (string, error)
}

// UpdateResult reports the outcome of a lead update.
type UpdateResult struct {
	Success bool   `json:"success"`
	LeadID  string `json:"lead_id"`
}

// Client sends lead create/update requests to the CRM webhook API.
// Each operation is a single attempt with one definitive outcome; retry
// policy belongs to the caller.
type Client struct {
	store             ConfigStore
	http              *http.Client
	defaultPhotoField string
	log               *logger.Logger
}

// NewClient creates a new CRM sync client.
func NewClient(store ConfigStore, cfg config.CRMConfig, log *logger.Logger) *Client {
	return &Client{
		store:             store,
		http:              &http.Client{Timeout: cfg.GetCRMTimeout()},
		defaultPhotoField: cfg.GetCRMDefaultPhotoField(),
		log:               log,
	}
}

// CreateLead builds the field payload and POSTs it to
// {webhookURL}/crm.lead.add.json as a single JSON-encoded form parameter,
// which is the API's contract for lead creation. Returns the CRM-assigned
// lead identifier.
func (c *Client) CreateLead(ctx context.Context, webhookURL string, params LeadFieldParams) (string, error) {
	fields := BuildLeadFields(params)

	encoded, err := json.Marshal(fields)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "failed to encode lead fields", err)
	}

	form := url.Values{}
	form.Set("fields", string(encoded))

	endpoint := strings.TrimRight(webhookURL, "/") + "/crm.lead.add.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "failed to build CRM request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperr.Network("failed to reach CRM", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apperr.New(apperr.KindNetwork, fmt.Sprintf("CRM lead create returned status %d", resp.StatusCode)).
			WithDetails(strings.TrimSpace(string(body)))
	}

	leadID, ok := extractResult(body)
	if !ok {
		return "", apperr.Remote("CRM response missing result field", strings.TrimSpace(string(body)))
	}

	c.log.Info("crm lead created", "lead_id", leadID)
	return leadID, nil
}

// UpdateLead sends a JSON update for an existing lead to
// {base}/crm.lead.update.json, resolving the webhook base URL from the most
// recently created active configuration row. Known keys are mapped to CRM
// field codes; remaining keys pass through verbatim as custom fields.
func (c *Client) UpdateLead(ctx context.Context, lead map[string]interface{}) (UpdateResult, error) {
	leadID := stringify(lead["lead_id"])
	if leadID == "" {
		return UpdateResult{}, apperr.Validation("lead_id is required")
	}

	cfg, err := c.store.ActiveWebhookConfig(ctx)
	if err != nil {
		if errors.Is(err, ErrNoActiveConfig) {
			return UpdateResult{}, apperr.Config("no active CRM webhook configuration; register one before syncing leads")
		}
		return UpdateResult{}, apperr.Wrap(apperr.KindInternal, "failed to load CRM webhook configuration", err)
	}

	fields, err := c.mapUpdateFields(ctx, lead)
	if err != nil {
		return UpdateResult{}, err
	}

	payload, err := json.Marshal(map[string]interface{}{
		"id":     leadID,
		"fields": fields,
	})
	if err != nil {
		return UpdateResult{}, apperr.Wrap(apperr.KindInternal, "failed to encode lead update", err)
	}

	endpoint := strings.TrimRight(cfg.BaseURL, "/") + "/crm.lead.update.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return UpdateResult{}, apperr.Wrap(apperr.KindInternal, "failed to build CRM request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return UpdateResult{}, apperr.Network("failed to reach CRM", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, _ := io.ReadAll(resp.Body)
	raw := strings.TrimSpace(string(body))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return UpdateResult{}, apperr.Remote(fmt.Sprintf("CRM lead update returned status %d", resp.StatusCode), raw)
	}
	if _, ok := extractResult(body); !ok {
		return UpdateResult{}, apperr.Remote("CRM update response missing result field", raw)
	}

	c.log.Info("crm lead updated", "lead_id", leadID)
	return UpdateResult{Success: true, LeadID: leadID}, nil
}

// mapUpdateFields translates logical lead keys into CRM field codes.
// The photo field code comes from the field-mapping table, falling back to
// the configured default when unmapped.
func (c *Client) mapUpdateFields(ctx context.Context, lead map[string]interface{}) (Fields, error) {
	fields := Fields{}

	for key, value := range lead {
		switch key {
		case "lead_id":
			// carried in the request envelope, not the field map
		case "name":
			fields["NAME"] = value
			fields["TITLE"] = value
		case "responsible":
			fields["ASSIGNED_BY_ID"] = value
		case "photo":
			code, err := c.store.FieldMapping(ctx, photoFieldKey)
			if err != nil {
				return nil, apperr.Wrap(apperr.KindInternal, "failed to resolve photo field mapping", err)
			}
			if code == "" {
				code = c.defaultPhotoField
			}
			fields[code] = value
		default:
			fields[key] = value
		}
	}

	return fields, nil
}

// extractResult pulls the `result` field out of a CRM response body.
// Bitrix returns the lead id as a number on create and `true` on update.
func extractResult(body []byte) (string, bool) {
	var decoded map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return "", false
	}

	raw, ok := decoded["result"]
	if !ok {
		return "", false
	}

	var value interface{}
	valDec := json.NewDecoder(bytes.NewReader(raw))
	valDec.UseNumber()
	if err := valDec.Decode(&value); err != nil {
		return "", false
	}

	switch v := value.(type) {
	case json.Number:
		return v.String(), true
	case string:
		return v, true
	case bool:
		return fmt.Sprintf("%t", v), true
	default:
		return "", false
	}
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strings.TrimSuffix(fmt.Sprintf("%.0f", v), ".")
	default:
		return fmt.Sprintf("%v", v)
	}
}
