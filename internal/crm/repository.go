package crm

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoActiveConfig is returned when no active CRM webhook configuration exists.
var ErrNoActiveConfig = errors.New("no active CRM webhook configuration")

// WebhookConfig is a stored CRM webhook base URL. The most recently created
// active row wins.
type WebhookConfig struct {
	ID        uuid.UUID
	BaseURL   string
	IsActive  bool
	CreatedAt time.Time
}

// Repository provides data access for CRM webhook configuration and
// field-code mappings.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new CRM repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ActiveWebhookConfig returns the most recently created active webhook
// configuration, or ErrNoActiveConfig when none exists.
func (r *Repository) ActiveWebhookConfig(ctx context.Context) (WebhookConfig, error) {
	var cfg WebhookConfig
	err := r.pool.QueryRow(ctx, `
		SELECT id, base_url, is_active, created_at
		FROM crm_webhook_configs
		WHERE is_active = true
		ORDER BY created_at DESC
		LIMIT 1
	`).Scan(&cfg.ID, &cfg.BaseURL, &cfg.IsActive, &cfg.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return WebhookConfig{}, ErrNoActiveConfig
	}
	return cfg, err
}

// FieldMapping resolves a logical field key (e.g. "photo") to its CRM field
// code. Returns an empty string when no mapping row exists.
func (r *Repository) FieldMapping(ctx context.Context, fieldKey string) (string, error) {
	var code string
	err := r.pool.QueryRow(ctx, `
		SELECT crm_field_code FROM field_mappings WHERE field_key = $1
	`, fieldKey).Scan(&code)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return code, err
}

// CustomFieldDefinition describes a configurable check-in form field whose
// value is forwarded to the CRM.
type CustomFieldDefinition struct {
	FieldKey      string
	FieldLabel    string
	FieldType     string
	FieldOptions  []string
	ShowOnCheckin bool
	ShowOnPanel   bool
	SortOrder     int
}

// CheckinCustomFields lists the custom field definitions visible on the
// check-in form, in display order.
func (r *Repository) CheckinCustomFields(ctx context.Context) ([]CustomFieldDefinition, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT field_key, field_label, field_type, field_options, show_on_checkin, show_on_panel, sort_order
		FROM custom_fields
		WHERE show_on_checkin = true
		ORDER BY sort_order ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []CustomFieldDefinition
	for rows.Next() {
		var def CustomFieldDefinition
		if err := rows.Scan(
			&def.FieldKey, &def.FieldLabel, &def.FieldType, &def.FieldOptions,
			&def.ShowOnCheckin, &def.ShowOnPanel, &def.SortOrder,
		); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}
