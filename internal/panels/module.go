// Package panels provides the stage-event ingestion bounded context module.
// This file defines the module that encapsulates setup and route registration.
package panels

import (
	"kiosk_checkin_backend/internal/events"
	apphttp "kiosk_checkin_backend/internal/http"
	"kiosk_checkin_backend/platform/logger"
	"kiosk_checkin_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the panels bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates and initializes the panels module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	service := NewService(repo, eventBus, log)
	handler := NewHandler(service, val)

	return &Module{
		handler: handler,
		service: service,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "panels"
}

// Service exposes the ingestion service for cross-module composition.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts stage-event routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/stage-events", m.handler.HandleStageEvent)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
