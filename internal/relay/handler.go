package relay

import (
	"net/http"

	"kiosk_checkin_backend/platform/httpkit"
	"kiosk_checkin_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles relay HTTP requests.
type Handler struct {
	service *Service
	val     *validator.Validator
}

// NewHandler creates a new relay handler.
func NewHandler(service *Service, val *validator.Validator) *Handler {
	return &Handler{service: service, val: val}
}

// RelayRequest is the inbound relay-trigger webhook body.
type RelayRequest struct {
	WebhookURL string                 `json:"webhook_url" validate:"required,url"`
	LeadID     string                 `json:"lead_id" validate:"required"`
	StageName  string                 `json:"stage_name"`
	EventType  string                 `json:"event_type" validate:"required,oneof=enter exit"`
	CardData   map[string]interface{} `json:"card_data"`
}

// HandleRelay performs one outbound relay. The response is HTTP 200 whenever
// the relay ran locally; the success flag mirrors the downstream status.
// Local failures answer HTTP 500 with a structured error.
// POST /api/v1/relay
func (h *Handler) HandleRelay(c *gin.Context) {
	var req RelayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	result, err := h.service.Relay(c.Request.Context(), DispatchRequest{
		WebhookURL: req.WebhookURL,
		LeadID:     req.LeadID,
		StageName:  req.StageName,
		EventType:  req.EventType,
		CardData:   req.CardData,
	})
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	httpkit.OK(c, result)
}

// TransitionRequest describes a full stage transition for a lead.
type TransitionRequest struct {
	LeadID      string                 `json:"lead_id" validate:"required"`
	FromStageID string                 `json:"from_stage_id"`
	ToStageID   string                 `json:"to_stage_id"`
	CardData    map[string]interface{} `json:"card_data"`
}

// TransitionResponse lists the relays fired for a transition.
type TransitionResponse struct {
	Success bool              `json:"success"`
	Relays  []TransitionRelay `json:"relays"`
}

// HandleTransition fires the configured exit/enter relays for a stage
// transition.
// POST /api/v1/stage-transitions
func (h *Handler) HandleTransition(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	relays, err := h.service.DispatchTransition(c.Request.Context(), req.LeadID, req.FromStageID, req.ToStageID, req.CardData)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, TransitionResponse{Success: true, Relays: relays})
}
