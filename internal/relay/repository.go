package relay

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrStageNotFound is returned when a stage id has no configuration row.
var ErrStageNotFound = errors.New("stage not found")

// Stage is the per-stage relay configuration.
type Stage struct {
	ID             string
	Name           string
	WebhookURL     *string
	WebhookOnEnter bool
	WebhookOnExit  bool
}

// Repository provides data access for stage relay configuration.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new relay repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// StageByID loads the relay configuration for a stage.
func (r *Repository) StageByID(ctx context.Context, stageID string) (Stage, error) {
	var stage Stage
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, webhook_url, webhook_on_enter, webhook_on_exit
		FROM stages
		WHERE id = $1
	`, stageID).Scan(&stage.ID, &stage.Name, &stage.WebhookURL, &stage.WebhookOnEnter, &stage.WebhookOnExit)
	if errors.Is(err, pgx.ErrNoRows) {
		return Stage{}, ErrStageNotFound
	}
	return stage, err
}
