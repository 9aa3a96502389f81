// Package panels provides the stage-event ingestion bounded context.
// It resolves inbound CRM stage transitions to calling panels and creates
// the call records those panels display.
package panels

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrPanelNotFound is returned when no panel is bound to a stage.
var ErrPanelNotFound = errors.New("no panel bound to stage")

// CallStatusCalling is the initial status of every call row.
const CallStatusCalling = "calling"

// Panel is a display target bound to a CRM pipeline stage.
type Panel struct {
	ID            uuid.UUID
	Name          string
	Room          string
	BitrixStageID string
}

// Call is an ephemeral record instructing a panel to display a model/room pairing.
type Call struct {
	ID         uuid.UUID `json:"id"`
	PanelID    uuid.UUID `json:"panel_id"`
	LeadID     string    `json:"lead_id"`
	ModelName  string    `json:"model_name"`
	ModelPhoto *string   `json:"model_photo,omitempty"`
	Room       string    `json:"room"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateCallParams carries the data for a new call row.
type CreateCallParams struct {
	PanelID    uuid.UUID
	LeadID     string
	ModelName  string
	ModelPhoto *string
	Room       string
}

// Repository provides data access for panels and calls.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new panels repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// PanelByStageID looks up the panel bound to a CRM stage. The schema
// guarantees at most one match; absence returns ErrPanelNotFound.
func (r *Repository) PanelByStageID(ctx context.Context, stageID string) (Panel, error) {
	var panel Panel
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, room, bitrix_stage_id
		FROM panels
		WHERE bitrix_stage_id = $1
	`, stageID).Scan(&panel.ID, &panel.Name, &panel.Room, &panel.BitrixStageID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Panel{}, ErrPanelNotFound
	}
	return panel, err
}

// CreateCall inserts one call row with the initial "calling" status.
func (r *Repository) CreateCall(ctx context.Context, params CreateCallParams) (Call, error) {
	var call Call
	err := r.pool.QueryRow(ctx, `
		INSERT INTO calls (panel_id, lead_id, model_name, model_photo, room, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, panel_id, lead_id, model_name, model_photo, room, status, created_at
	`, params.PanelID, params.LeadID, params.ModelName, params.ModelPhoto, params.Room, CallStatusCalling).Scan(
		&call.ID, &call.PanelID, &call.LeadID, &call.ModelName, &call.ModelPhoto,
		&call.Room, &call.Status, &call.CreatedAt,
	)
	return call, err
}
