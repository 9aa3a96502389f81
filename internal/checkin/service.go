package checkin

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"kiosk_checkin_backend/internal/adapters/storage"
	"kiosk_checkin_backend/internal/crm"
	"kiosk_checkin_backend/internal/events"
	"kiosk_checkin_backend/platform/apperr"
	"kiosk_checkin_backend/platform/logger"

	"github.com/google/uuid"
)

// Resolution decisions accepted by Resolve.
const (
	DecisionRecheckIn = "recheck-in"
	DecisionNewModel  = "new-model"
)

// Store is the narrow persistence interface the service needs.
// Satisfied by *Repository.
type Store interface {
	ActiveCheckInByLead(ctx context.Context, leadID string) (CheckIn, error)
	CreateCheckIn(ctx context.Context, params CreateCheckInParams) (CheckIn, error)
	RefreshCheckIn(ctx context.Context, id uuid.UUID) (CheckIn, error)
}

// LeadSyncer is the CRM client surface the service needs.
// Satisfied by *crm.Client.
type LeadSyncer interface {
	CreateLead(ctx context.Context, webhookURL string, params crm.LeadFieldParams) (string, error)
	UpdateLead(ctx context.Context, lead map[string]interface{}) (crm.UpdateResult, error)
}

// ConfigStore resolves CRM-side configuration: the active webhook base URL
// and the configurable check-in form fields.
// Satisfied by *crm.Repository.
type ConfigStore interface {
	ActiveWebhookConfig(ctx context.Context) (crm.WebhookConfig, error)
	CheckinCustomFields(ctx context.Context) ([]crm.CustomFieldDefinition, error)
}

// PhotoUpload is an optional photo attached to a submission.
type PhotoUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Submission is one kiosk check-in form submission. LeadID is empty for a
// first visit; the CRM assigns one during submission.
type Submission struct {
	LeadID       string
	Name         string
	Phone        string
	Responsible  string
	ModelName    string
	Photo        *PhotoUpload
	CustomFields map[string]interface{}
}

// SubmitResult is the outcome of a conflict-free submission.
type SubmitResult struct {
	CheckIn CheckIn `json:"check_in"`
	LeadID  string  `json:"lead_id"`
}

// Service handles check-in submissions and mediates multi-model resolution.
type Service struct {
	store    Store
	configs  ConfigStore
	syncer   LeadSyncer
	photos   storage.PhotoStore
	eventBus events.Bus
	log      *logger.Logger
}

// NewService creates a new check-in service. photos may be nil when no
// object storage is configured; submissions then ignore attached photos.
func NewService(store Store, configs ConfigStore, syncer LeadSyncer, photos storage.PhotoStore, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		configs:  configs,
		syncer:   syncer,
		photos:   photos,
		eventBus: eventBus,
		log:      log,
	}
}

// Submit registers a check-in. A submission without a lead id creates the
// lead in the CRM first. When the lead already has an active check-in the
// submission is not applied; the conflict carries the existing check-in's
// identity so the caller can run the resolution dialog.
func (s *Service) Submit(ctx context.Context, sub Submission) (SubmitResult, error) {
	leadID := sub.LeadID
	if leadID == "" {
		created, err := s.createLead(ctx, sub)
		if err != nil {
			return SubmitResult{}, err
		}
		leadID = created
	} else {
		existing, err := s.store.ActiveCheckInByLead(ctx, leadID)
		if err == nil {
			return SubmitResult{}, apperr.Conflict("lead already has an active check-in").WithDetails(existing)
		}
		if !errors.Is(err, ErrNoActiveCheckIn) {
			s.log.DatabaseError("checkin.lookup", err)
			return SubmitResult{}, apperr.Wrap(apperr.KindInternal, "failed to look up check-in", err)
		}
	}

	photoKey := s.uploadPhoto(ctx, sub.Photo)

	checkIn, err := s.store.CreateCheckIn(ctx, CreateCheckInParams{
		LeadID:    leadID,
		LeadName:  sub.Name,
		ModelName: sub.ModelName,
		PhotoKey:  photoKey,
	})
	if err != nil {
		s.log.DatabaseError("checkin.create", err)
		return SubmitResult{}, apperr.Wrap(apperr.KindInternal, "failed to create check-in", err)
	}

	s.syncPhoto(ctx, leadID, photoKey)
	s.publishCheckedIn(ctx, checkIn, false)

	s.log.Info("lead checked in", "check_in_id", checkIn.ID, "lead_id", leadID, "model", checkIn.ModelName)
	return SubmitResult{CheckIn: checkIn, LeadID: leadID}, nil
}

// ResolveParams carries one confirmed resolution decision.
type ResolveParams struct {
	LeadID       string
	Decision     string
	NewModelName string
}

// Resolve applies a resolution decision for a lead with an active check-in.
// Re-check-in refreshes the existing record's timestamp; new-model creates a
// second active record scoped to the new model, leaving the original
// untouched.
func (s *Service) Resolve(ctx context.Context, params ResolveParams) (CheckIn, error) {
	existing, err := s.store.ActiveCheckInByLead(ctx, params.LeadID)
	if err != nil {
		if errors.Is(err, ErrNoActiveCheckIn) {
			return CheckIn{}, apperr.NotFound(fmt.Sprintf("no active check-in for lead %s", params.LeadID))
		}
		s.log.DatabaseError("checkin.lookup", err)
		return CheckIn{}, apperr.Wrap(apperr.KindInternal, "failed to look up check-in", err)
	}

	var resolved CheckIn
	resolver := NewResolver(existing, Callbacks{
		OnRecheckIn: func(ctx context.Context) error {
			refreshed, err := s.store.RefreshCheckIn(ctx, existing.ID)
			if err != nil {
				s.log.DatabaseError("checkin.refresh", err)
				return apperr.Wrap(apperr.KindInternal, "failed to refresh check-in", err)
			}
			resolved = refreshed
			s.publishCheckedIn(ctx, refreshed, true)
			return nil
		},
		OnCreateNewModel: func(ctx context.Context, modelName string) error {
			created, err := s.store.CreateCheckIn(ctx, CreateCheckInParams{
				LeadID:    existing.LeadID,
				LeadName:  existing.LeadName,
				ModelName: modelName,
			})
			if err != nil {
				s.log.DatabaseError("checkin.create", err)
				return apperr.Wrap(apperr.KindInternal, "failed to create check-in", err)
			}
			resolved = created
			s.publishCheckedIn(ctx, created, false)
			return nil
		},
	})

	switch params.Decision {
	case DecisionRecheckIn:
		err = resolver.RecheckIn(ctx)
	case DecisionNewModel:
		if err = resolver.ChooseNewModel(); err == nil {
			resolver.TypeName(params.NewModelName)
			err = resolver.Submit(ctx)
		}
	default:
		err = apperr.Validation(fmt.Sprintf("unknown resolution decision %q", params.Decision))
	}
	if err != nil {
		return CheckIn{}, err
	}

	s.log.Info("check-in resolved", "lead_id", existing.LeadID, "decision", params.Decision, "check_in_id", resolved.ID)
	return resolved, nil
}

// FormFields lists the configurable check-in form fields in display order.
// The kiosk renders its dynamic form from these definitions.
func (s *Service) FormFields(ctx context.Context) ([]crm.CustomFieldDefinition, error) {
	defs, err := s.configs.CheckinCustomFields(ctx)
	if err != nil {
		s.log.DatabaseError("checkin.form_fields", err)
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load form fields", err)
	}
	return defs, nil
}

// createLead registers the submission as a new CRM lead and returns the
// CRM-assigned id.
func (s *Service) createLead(ctx context.Context, sub Submission) (string, error) {
	cfg, err := s.configs.ActiveWebhookConfig(ctx)
	if err != nil {
		if errors.Is(err, crm.ErrNoActiveConfig) {
			return "", apperr.Config("no active CRM webhook configuration; register one before accepting check-ins")
		}
		return "", apperr.Wrap(apperr.KindInternal, "failed to load CRM webhook configuration", err)
	}

	return s.syncer.CreateLead(ctx, cfg.BaseURL, crm.LeadFieldParams{
		Name:         sub.Name,
		Phone:        sub.Phone,
		AssignedByID: sub.Responsible,
		CustomFields: sub.CustomFields,
	})
}

// uploadPhoto stores an attached photo when object storage is configured.
// A failed upload degrades the submission, never fails it.
func (s *Service) uploadPhoto(ctx context.Context, photo *PhotoUpload) *string {
	if photo == nil || s.photos == nil {
		return nil
	}

	key, err := s.photos.UploadPhoto(ctx, photo.FileName, photo.ContentType, bytes.NewReader(photo.Data), int64(len(photo.Data)))
	if err != nil {
		s.log.Warn("model photo upload failed", "file", photo.FileName, "error", err)
		return nil
	}
	return &key
}

// syncPhoto pushes the stored photo's link to the CRM lead. Best effort:
// the check-in stands even when the CRM rejects the update.
func (s *Service) syncPhoto(ctx context.Context, leadID string, photoKey *string) {
	if photoKey == nil || s.photos == nil {
		return
	}

	url, err := s.photos.PhotoURL(ctx, *photoKey)
	if err != nil {
		s.log.Warn("failed to build photo URL", "key", *photoKey, "error", err)
		return
	}

	if _, err := s.syncer.UpdateLead(ctx, map[string]interface{}{"lead_id": leadID, "photo": url}); err != nil {
		s.log.Warn("failed to sync photo to CRM", "lead_id", leadID, "error", err)
	}
}

func (s *Service) publishCheckedIn(ctx context.Context, checkIn CheckIn, refreshed bool) {
	s.eventBus.Publish(ctx, events.LeadCheckedIn{
		BaseEvent:   events.NewBaseEvent(),
		CheckInID:   checkIn.ID,
		LeadID:      checkIn.LeadID,
		ModelName:   checkIn.ModelName,
		CheckedInAt: checkIn.CheckedInAt,
		Refreshed:   refreshed,
	})
}
