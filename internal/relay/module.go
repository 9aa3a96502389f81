// Package relay provides the outbound webhook relay bounded context module.
// This file defines the module that encapsulates setup and route registration.
package relay

import (
	"kiosk_checkin_backend/internal/events"
	apphttp "kiosk_checkin_backend/internal/http"
	"kiosk_checkin_backend/platform/config"
	"kiosk_checkin_backend/platform/logger"
	"kiosk_checkin_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the relay bounded context module implementing http.Module.
type Module struct {
	handler    *Handler
	service    *Service
	dispatcher *Dispatcher
}

// NewModule creates and initializes the relay module with all its
// dependencies. redelivery may be nil when no queue is configured.
func NewModule(pool *pgxpool.Pool, cfg config.RelayConfig, redelivery RedeliveryEnqueuer, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	dispatcher := NewDispatcher(cfg, log)
	service := NewService(repo, dispatcher, redelivery, eventBus, log)
	handler := NewHandler(service, val)

	return &Module{
		handler:    handler,
		service:    service,
		dispatcher: dispatcher,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "relay"
}

// Service exposes the relay service for cross-module composition.
func (m *Module) Service() *Service {
	return m.service
}

// Dispatcher exposes the dispatcher for the redelivery worker binary.
func (m *Module) Dispatcher() *Dispatcher {
	return m.dispatcher
}

// RegisterRoutes mounts relay routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/relay", m.handler.HandleRelay)
	ctx.V1.POST("/stage-transitions", m.handler.HandleTransition)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
