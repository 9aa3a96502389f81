package panels

import (
	"net/http"

	"kiosk_checkin_backend/platform/httpkit"
	"kiosk_checkin_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles stage-event HTTP requests.
type Handler struct {
	service *Service
	val     *validator.Validator
}

// NewHandler creates a new stage-event handler.
func NewHandler(service *Service, val *validator.Validator) *Handler {
	return &Handler{service: service, val: val}
}

// StageEventRequest is the inbound stage-transition webhook body.
type StageEventRequest struct {
	LeadID     string `json:"lead_id" validate:"required"`
	StageID    string `json:"stage_id" validate:"required"`
	ModelName  string `json:"model_name"`
	ModelPhoto string `json:"model_photo"`
	Room       string `json:"room"`
}

// StageEventResponse is returned when a call was created.
type StageEventResponse struct {
	Success bool `json:"success"`
	Call    Call `json:"call"`
}

// HandleStageEvent ingests one CRM stage-transition event.
// POST /api/v1/stage-events
func (h *Handler) HandleStageEvent(c *gin.Context) {
	var req StageEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	call, err := h.service.Ingest(c.Request.Context(), StageEvent{
		LeadID:     req.LeadID,
		StageID:    req.StageID,
		ModelName:  req.ModelName,
		ModelPhoto: req.ModelPhoto,
		Room:       req.Room,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, StageEventResponse{Success: true, Call: call})
}
