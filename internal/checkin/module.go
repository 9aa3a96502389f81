// Package checkin provides the kiosk check-in bounded context module.
// This file defines the module that encapsulates setup and route registration.
package checkin

import (
	"kiosk_checkin_backend/internal/adapters/storage"
	"kiosk_checkin_backend/internal/crm"
	"kiosk_checkin_backend/internal/events"
	apphttp "kiosk_checkin_backend/internal/http"
	"kiosk_checkin_backend/platform/config"
	"kiosk_checkin_backend/platform/logger"
	"kiosk_checkin_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the check-in bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates and initializes the check-in module with all its
// dependencies. photos may be nil when no object storage is configured.
func NewModule(pool *pgxpool.Pool, cfg config.CRMConfig, photos storage.PhotoStore, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	crmRepo := crm.NewRepository(pool)
	syncer := crm.NewClient(crmRepo, cfg, log)

	repo := NewRepository(pool)
	service := NewService(repo, crmRepo, syncer, photos, eventBus, log)
	handler := NewHandler(service, val)

	return &Module{
		handler: handler,
		service: service,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "checkin"
}

// Service exposes the check-in service for cross-module composition.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts check-in routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/check-ins", m.handler.HandleCheckIn)
	ctx.V1.POST("/check-ins/resolve", m.handler.HandleResolve)
	ctx.V1.GET("/check-ins/fields", m.handler.HandleListFields)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
