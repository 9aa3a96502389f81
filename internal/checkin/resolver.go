// Package checkin provides the kiosk check-in bounded context: submission
// handling, the multi-model resolution state machine, and CRM lead sync.
package checkin

import (
	"context"
	"strings"

	"kiosk_checkin_backend/platform/apperr"
)

// ResolverState tags the resolver's position in the decision dialog.
type ResolverState int

const (
	// StateChoosing offers the two resolutions for an existing check-in.
	StateChoosing ResolverState = iota
	// StateEnteringNewModel collects the name for a new model registration.
	StateEnteringNewModel
	// StateResolved is terminal; exactly one callback has fired.
	StateResolved
)

// Callbacks are the two mutation contracts the resolver mediates between.
// The resolver owns the decision, never the record mutation.
type Callbacks struct {
	// OnRecheckIn refreshes the existing check-in record.
	OnRecheckIn func(ctx context.Context) error
	// OnCreateNewModel registers a new check-in for the same lead under
	// the given model name, leaving the existing record untouched.
	OnCreateNewModel func(ctx context.Context, modelName string) error
}

// Resolver mediates the two-mode decision for a lead that already has an
// active check-in. It holds no persistent state and invokes exactly one
// callback exactly once per confirmed decision.
type Resolver struct {
	existing CheckIn
	cb       Callbacks
	state    ResolverState
	pending  string
}

// NewResolver starts a resolution dialog over the given active check-in.
func NewResolver(existing CheckIn, cb Callbacks) *Resolver {
	return &Resolver{existing: existing, cb: cb, state: StateChoosing}
}

// State returns the current dialog state.
func (r *Resolver) State() ResolverState {
	return r.state
}

// Existing returns the check-in the dialog is resolving.
func (r *Resolver) Existing() CheckIn {
	return r.existing
}

// RecheckIn confirms the refresh resolution and closes the dialog.
func (r *Resolver) RecheckIn(ctx context.Context) error {
	if r.state != StateChoosing {
		return apperr.Conflict("check-in resolution already decided")
	}
	if err := r.cb.OnRecheckIn(ctx); err != nil {
		return err
	}
	r.state = StateResolved
	return nil
}

// ChooseNewModel switches the dialog to collecting a new model name.
func (r *Resolver) ChooseNewModel() error {
	if r.state != StateChoosing {
		return apperr.Conflict("check-in resolution already decided")
	}
	r.state = StateEnteringNewModel
	return nil
}

// TypeName records the partially entered model name.
func (r *Resolver) TypeName(name string) {
	if r.state == StateEnteringNewModel {
		r.pending = name
	}
}

// Back returns to the choice screen, discarding any entered name.
func (r *Resolver) Back() {
	if r.state == StateEnteringNewModel {
		r.pending = ""
		r.state = StateChoosing
	}
}

// Submit confirms the new-model resolution. An empty name after trimming is
// rejected before any callback fires; this is a hard precondition.
func (r *Resolver) Submit(ctx context.Context) error {
	if r.state != StateEnteringNewModel {
		return apperr.Conflict("no new-model entry in progress")
	}

	name := strings.TrimSpace(r.pending)
	if name == "" {
		return apperr.Validation("model name must not be empty")
	}

	if err := r.cb.OnCreateNewModel(ctx, name); err != nil {
		return err
	}
	r.state = StateResolved
	return nil
}
