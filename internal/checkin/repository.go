package checkin

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoActiveCheckIn is returned when a lead has no active check-in.
var ErrNoActiveCheckIn = errors.New("no active check-in for lead")

// CheckIn binds a CRM lead to a model name with a check-in timestamp.
// A lead has at most one active check-in per model and may hold active
// check-ins across different models.
type CheckIn struct {
	ID          uuid.UUID `json:"id"`
	LeadID      string    `json:"lead_id"`
	LeadName    string    `json:"lead_name"`
	ModelName   string    `json:"model_name"`
	PhotoKey    *string   `json:"photo_key,omitempty"`
	CheckedInAt time.Time `json:"checked_in_at"`
	Active      bool      `json:"active"`
}

// CreateCheckInParams carries the data for a new check-in row.
type CreateCheckInParams struct {
	LeadID    string
	LeadName  string
	ModelName string
	PhotoKey  *string
}

// Repository provides data access for check-in records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new check-in repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ActiveCheckInByLead returns the lead's most recent active check-in.
// Absence returns ErrNoActiveCheckIn.
func (r *Repository) ActiveCheckInByLead(ctx context.Context, leadID string) (CheckIn, error) {
	var checkIn CheckIn
	err := r.pool.QueryRow(ctx, `
		SELECT id, lead_id, lead_name, model_name, photo_key, checked_in_at, active
		FROM check_ins
		WHERE lead_id = $1 AND active
		ORDER BY checked_in_at DESC
		LIMIT 1
	`, leadID).Scan(
		&checkIn.ID, &checkIn.LeadID, &checkIn.LeadName, &checkIn.ModelName,
		&checkIn.PhotoKey, &checkIn.CheckedInAt, &checkIn.Active,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return CheckIn{}, ErrNoActiveCheckIn
	}
	return checkIn, err
}

// CreateCheckIn inserts one active check-in row.
func (r *Repository) CreateCheckIn(ctx context.Context, params CreateCheckInParams) (CheckIn, error) {
	var checkIn CheckIn
	err := r.pool.QueryRow(ctx, `
		INSERT INTO check_ins (lead_id, lead_name, model_name, photo_key, active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id, lead_id, lead_name, model_name, photo_key, checked_in_at, active
	`, params.LeadID, params.LeadName, params.ModelName, params.PhotoKey).Scan(
		&checkIn.ID, &checkIn.LeadID, &checkIn.LeadName, &checkIn.ModelName,
		&checkIn.PhotoKey, &checkIn.CheckedInAt, &checkIn.Active,
	)
	return checkIn, err
}

// RefreshCheckIn overwrites the check-in's timestamp with now.
func (r *Repository) RefreshCheckIn(ctx context.Context, id uuid.UUID) (CheckIn, error) {
	var checkIn CheckIn
	err := r.pool.QueryRow(ctx, `
		UPDATE check_ins
		SET checked_in_at = now()
		WHERE id = $1
		RETURNING id, lead_id, lead_name, model_name, photo_key, checked_in_at, active
	`, id).Scan(
		&checkIn.ID, &checkIn.LeadID, &checkIn.LeadName, &checkIn.ModelName,
		&checkIn.PhotoKey, &checkIn.CheckedInAt, &checkIn.Active,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return CheckIn{}, ErrNoActiveCheckIn
	}
	return checkIn, err
}
