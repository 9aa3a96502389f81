package checkin

import (
	"encoding/base64"
	"net/http"

	"kiosk_checkin_backend/platform/httpkit"
	"kiosk_checkin_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles check-in HTTP requests.
type Handler struct {
	service *Service
	val     *validator.Validator
}

// NewHandler creates a new check-in handler.
func NewHandler(service *Service, val *validator.Validator) *Handler {
	return &Handler{service: service, val: val}
}

// CheckInRequest is the kiosk submission body. Photo data arrives base64
// encoded; the kiosk UI owns capture and encoding.
type CheckInRequest struct {
	LeadID           string                 `json:"lead_id"`
	Name             string                 `json:"name" validate:"required"`
	Phone            string                 `json:"phone"`
	Responsible      string                 `json:"responsible"`
	ModelName        string                 `json:"model_name" validate:"required"`
	PhotoBase64      string                 `json:"photo_base64"`
	PhotoFileName    string                 `json:"photo_file_name"`
	PhotoContentType string                 `json:"photo_content_type"`
	CustomFields     map[string]interface{} `json:"custom_fields"`
}

// CheckInResponse wraps a successful submission.
type CheckInResponse struct {
	Success bool    `json:"success"`
	LeadID  string  `json:"lead_id"`
	CheckIn CheckIn `json:"check_in"`
}

// HandleCheckIn registers a check-in submission. When the lead already has
// an active check-in the response is 409 with the existing record's
// identity, and the kiosk runs the resolution dialog.
// POST /api/v1/check-ins
func (h *Handler) HandleCheckIn(c *gin.Context) {
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	photo, err := decodePhoto(req)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid photo encoding", nil)
		return
	}

	result, err := h.service.Submit(c.Request.Context(), Submission{
		LeadID:       req.LeadID,
		Name:         req.Name,
		Phone:        req.Phone,
		Responsible:  req.Responsible,
		ModelName:    req.ModelName,
		Photo:        photo,
		CustomFields: req.CustomFields,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, CheckInResponse{Success: true, LeadID: result.LeadID, CheckIn: result.CheckIn})
}

// ResolveRequest carries one confirmed resolution decision.
type ResolveRequest struct {
	LeadID       string `json:"lead_id" validate:"required"`
	Decision     string `json:"decision" validate:"required,oneof=recheck-in new-model"`
	NewModelName string `json:"new_model_name"`
}

// HandleResolve applies a resolution decision for a lead with an active
// check-in.
// POST /api/v1/check-ins/resolve
func (h *Handler) HandleResolve(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	checkIn, err := h.service.Resolve(c.Request.Context(), ResolveParams{
		LeadID:       req.LeadID,
		Decision:     req.Decision,
		NewModelName: req.NewModelName,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, CheckInResponse{Success: true, LeadID: checkIn.LeadID, CheckIn: checkIn})
}

// HandleListFields returns the configurable form field definitions the
// kiosk renders on the check-in screen.
// GET /api/v1/check-ins/fields
func (h *Handler) HandleListFields(c *gin.Context) {
	defs, err := h.service.FormFields(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"fields": defs})
}

func decodePhoto(req CheckInRequest) (*PhotoUpload, error) {
	if req.PhotoBase64 == "" {
		return nil, nil
	}

	data, err := base64.StdEncoding.DecodeString(req.PhotoBase64)
	if err != nil {
		return nil, err
	}

	fileName := req.PhotoFileName
	if fileName == "" {
		fileName = "photo.jpg"
	}
	contentType := req.PhotoContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}

	return &PhotoUpload{FileName: fileName, ContentType: contentType, Data: data}, nil
}
